// Package dashboard assembles the dashboard builder runtime from a
// configuration: storage, registries, the store, transports and the inbox.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	router "github.com/goliatone/go-router"

	core "github.com/goliatone/go-dashboard-builder/components/dashboard"
	"github.com/goliatone/go-dashboard-builder/components/dashboard/commands"
	"github.com/goliatone/go-dashboard-builder/components/dashboard/gorouter"
	"github.com/goliatone/go-dashboard-builder/components/dashboard/httpapi"
	"github.com/goliatone/go-dashboard-builder/components/dashboard/kvstore"
	"github.com/goliatone/go-dashboard-builder/pkg/config"
	"github.com/goliatone/go-dashboard-builder/pkg/inbox"
	"github.com/goliatone/go-dashboard-builder/pkg/remote"
)

// Re-exports for callers that only import this package.
type (
	Store          = core.Store
	SourceRegistry = core.SourceRegistry
	Widget         = core.Widget
	DataSource     = core.DataSource
)

// App holds every wired collaborator.
type App struct {
	Config     config.Config
	Logger     *slog.Logger
	Storage    core.Storage
	Sources    *core.SourceRegistry
	Store      *core.Store
	Registry   *core.Registry
	Hints      *core.HintStore
	Events     *core.BroadcastHook
	Controller *core.Controller
	Handlers   *httpapi.Handlers
	Telemetry  core.Telemetry

	closer io.Closer
}

// New opens storage, restores persisted state and seeds dashboards from
// cfg.Seed when the storage holds none. A corrupt persisted state is logged
// and replaced by the defaults.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	storage, closer, err := kvstore.Open(ctx, cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	app := &App{
		Config:    cfg,
		Logger:    logger,
		Storage:   storage,
		Events:    core.NewBroadcastHook(),
		Registry:  core.NewRegistry(),
		Telemetry: core.LogTelemetry{Logger: logger},
		closer:    closer,
	}

	chartOpts := []core.EChartsProviderOption{
		core.WithChartCache(core.NewChartCache(cfg.Charts.CacheTTL)),
		core.WithChartTheme(cfg.Charts.Theme),
	}
	if cfg.Charts.AssetsHost != "" {
		chartOpts = append(chartOpts, core.WithChartAssetsHost(cfg.Charts.AssetsHost))
	}
	if err := core.ConfigureChartProviders(app.Registry, chartOpts...); err != nil {
		closer.Close()
		return nil, fmt.Errorf("dashboard: configure chart providers: %w", err)
	}

	app.Sources = core.NewSourceRegistry(core.SourceRegistryOptions{
		Storage:     storage,
		RefreshHook: app.Events,
		Telemetry:   app.Telemetry,
		Logger:      logger,
	})
	app.Store = core.NewStore(core.Options{
		Storage:     storage,
		Sources:     app.Sources,
		Providers:   app.Registry,
		RefreshHook: app.Events,
		Telemetry:   app.Telemetry,
		Logger:      logger,
	})
	if err := core.LoadState(ctx, app.Sources, app.Store); err != nil {
		logger.WarnContext(ctx, "persisted state could not be fully restored", "error", err)
	}
	if cfg.Seed != "" {
		if err := app.Seed(ctx, cfg.Seed, false); err != nil {
			closer.Close()
			return nil, err
		}
	}

	renderer, err := core.NewTemplateRenderer()
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("dashboard: template renderer: %w", err)
	}
	app.Hints = core.NewHintStore(storage, logger)
	app.Controller = core.NewController(core.ControllerOptions{
		Store:     app.Store,
		Sources:   app.Sources,
		Hints:     app.Hints,
		Providers: app.Registry,
		Renderer:  renderer,
		Telemetry: app.Telemetry,
		Logger:    logger,
	})
	app.Handlers = httpapi.NewHandlers(httpapi.Deps{
		Store:      app.Store,
		Sources:    app.Sources,
		Controller: app.Controller,
		Hints:      app.Hints,
		Events:     app.Events,
		Telemetry:  app.Telemetry,
	})
	return app, nil
}

// Seed applies the manifest at path. Without force it only runs against an
// empty storage.
func (a *App) Seed(ctx context.Context, path string, force bool) error {
	doc, err := core.ReadManifest(path)
	if err != nil {
		return err
	}
	var seeded bool
	cmd := commands.NewSeedDashboardsCommand(a.Store, a.Telemetry)
	if err := cmd.Execute(ctx, commands.SeedDashboardsInput{Manifest: doc, Force: force, Seeded: &seeded}); err != nil {
		return fmt.Errorf("dashboard: seed %s: %w", path, err)
	}
	if seeded {
		a.Logger.InfoContext(ctx, "dashboards seeded", "manifest", path, "dashboards", len(doc.Dashboards))
	}
	return nil
}

// HTTPHandler returns the chi router serving the page and JSON API.
func (a *App) HTTPHandler() http.Handler {
	return a.Handlers.Routes()
}

// RegisterRoutes mounts the dashboard on a go-router router under base.
func RegisterRoutes[T any](a *App, r router.Router[T], base string) error {
	return gorouter.Register(gorouter.Config[T]{
		Router:    r,
		Handlers:  a.Handlers,
		Broadcast: a.Events,
		BasePath:  base,
	})
}

// Inbox builds a watcher importing files dropped into dir.
func (a *App) Inbox(dir string) (*inbox.Watcher, error) {
	return inbox.New(inbox.Options{
		Dir:      dir,
		Importer: a.Sources,
		Logger:   a.Logger.With("component", "inbox"),
	})
}

// ImportURL fetches endpoint through client and registers it as a source.
func (a *App) ImportURL(ctx context.Context, client *remote.Client, name, endpoint string) (core.DataSource, error) {
	if client == nil {
		client = remote.NewClient(remote.Config{})
	}
	return client.Import(ctx, a.Sources, name, endpoint)
}

// Close releases the storage backend.
func (a *App) Close() error {
	if a == nil || a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}
