package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/goliatone/go-dashboard-builder/pkg/config"
	dashboardpkg "github.com/goliatone/go-dashboard-builder/pkg/dashboard"
	"github.com/goliatone/go-dashboard-builder/pkg/logging"
)

type Globals struct {
	Config   string    `name:"config-file" short:"c" type:"path" env:"DASHBOARD_CONFIG" help:"Path to the YAML configuration file."`
	Storage  string    `help:"Storage driver override (memory, file, sqlite)."`
	Data     string    `help:"Storage path override (directory for file, database for sqlite)."`
	LogLevel string    `name:"log-level" help:"Log level override (debug, info, warn, error)."`
	Out      io.Writer `kong:"-"`
	Err      io.Writer `kong:"-"`
}

type cli struct {
	Globals

	Serve      serveCmd      `cmd:"" help:"Serve the dashboard page, JSON API and change stream."`
	Sources    sourcesCmd    `cmd:"" help:"Manage data sources."`
	Dashboards dashboardsCmd `cmd:"" help:"Manage dashboards and manifests."`
	Widgets    widgetsCmd    `cmd:"" help:"Manage widgets of a dashboard."`
}

func main() {
	var root cli
	root.Out, root.Err = os.Stdout, os.Stderr
	ctx := kong.Parse(&root,
		kong.Name("dashctl"),
		kong.Description("Dashboard builder server and state utility."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&root.Globals)
	ctx.FatalIfErrorf(err)
}

func (g *Globals) loadConfig() (config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return config.Config{}, err
	}
	if g.Storage != "" {
		cfg.Storage.Driver = strings.ToLower(g.Storage)
	}
	if g.Data != "" {
		cfg.Storage.Path = g.Data
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	return cfg, cfg.Validate()
}

// session is an opened app plus its logger.
type session struct {
	*dashboardpkg.App
	log *logging.Logger
}

func (s *session) Close() {
	s.App.Close()
	s.log.Close()
}

func (g *Globals) open(ctx context.Context) (*session, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log, g.Err)
	if err != nil {
		return nil, err
	}
	app, err := dashboardpkg.New(ctx, cfg, logger.Logger)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("dashctl: %w", err)
	}
	return &session{App: app, log: logger}, nil
}

func (g *Globals) printf(format string, args ...any) {
	fmt.Fprintf(g.Out, format, args...)
}
