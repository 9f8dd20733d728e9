package httpapi

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goliatone/go-dashboard-builder/components/dashboard"
	"github.com/goliatone/go-dashboard-builder/components/dashboard/commands"
	"github.com/goliatone/go-dashboard-builder/components/dashboard/queries"
)

// PageRenderer renders the full dashboard page.
type PageRenderer interface {
	RenderTemplate(ctx context.Context, req dashboard.ViewRequest, out io.Writer) error
}

// Deps bundles the runtime collaborators the handlers are built from.
type Deps struct {
	Store      *dashboard.Store
	Sources    *dashboard.SourceRegistry
	Controller *dashboard.Controller
	Hints      *dashboard.HintStore
	Events     *dashboard.BroadcastHook
	Telemetry  commands.Telemetry
}

// NewHandlers wires commands and queries over deps.
func NewHandlers(deps Deps) *Handlers {
	h := &Handlers{
		AddWidget:       commands.NewAddWidgetCommand(deps.Store, deps.Telemetry),
		RemoveWidget:    commands.NewRemoveWidgetCommand(deps.Store, deps.Telemetry),
		UpdateWidget:    commands.NewUpdateWidgetCommand(deps.Store, deps.Telemetry),
		ApplyLayout:     commands.NewApplyLayoutCommand(deps.Store, deps.Telemetry),
		CreateDashboard: commands.NewCreateDashboardCommand(deps.Store, deps.Telemetry),
		SwitchDashboard: commands.NewSwitchDashboardCommand(deps.Store, deps.Telemetry),
		View:            queries.NewDashboardViewQuery(deps.Controller),
		Widget:          queries.NewWidgetQuery(deps.Controller),
		Layout:          queries.NewLayoutQuery(deps.Store),
		Sources:         queries.NewSourcesQuery(deps.Controller),
		Catalog:         queries.NewCatalogQuery(deps.Store.Providers()),
		Events:          deps.Events,
	}
	if deps.Sources != nil {
		h.RebindWidget = commands.NewRebindWidgetCommand(deps.Store, deps.Sources, deps.Telemetry)
		h.ImportSource = commands.NewImportSourceCommand(deps.Sources, deps.Telemetry)
		h.RemoveSource = commands.NewRemoveSourceCommand(deps.Sources, deps.Telemetry)
		h.FieldOptions = queries.NewFieldOptionsQuery(deps.Sources)
	} else {
		h.RebindWidget = commands.NewRebindWidgetCommand(deps.Store, nil, deps.Telemetry)
		h.FieldOptions = queries.NewFieldOptionsQuery(deps.Store.Sources())
	}
	if deps.Events != nil {
		h.Refresh = commands.NewRefreshCommand(deps.Events, deps.Telemetry)
	}
	if deps.Hints != nil {
		h.DismissHints = commands.NewDismissHintsCommand(deps.Hints, deps.Telemetry)
	}
	if deps.Controller != nil {
		h.Page = deps.Controller
	}
	return h
}

// Routes mounts the JSON API under /api and the page at /.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", h.HandlePage)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", h.HandleView)
		r.Get("/catalog", h.HandleCatalog)

		r.Get("/layout", h.HandleLayout)
		r.Put("/layout", h.HandleApplyLayout)

		r.Route("/widgets", func(r chi.Router) {
			r.Post("/", h.HandleAddWidget)
			r.Get("/{id}", withID(h.HandleWidget))
			r.Put("/{id}", withID(h.HandleUpdateWidget))
			r.Delete("/{id}", withID(h.HandleRemoveWidget))
			r.Post("/{id}/rebind", withID(h.HandleRebindWidget))
		})

		r.Route("/dashboards", func(r chi.Router) {
			r.Post("/", h.HandleCreateDashboard)
			r.Post("/{id}/switch", withID(h.HandleSwitchDashboard))
		})

		r.Route("/sources", func(r chi.Router) {
			r.Get("/", h.HandleSources)
			r.Post("/", h.HandleImportSource)
			r.Delete("/{id}", withID(h.HandleRemoveSource))
			r.Get("/{id}/fields", withID(h.HandleFieldOptions))
		})

		r.Post("/hints/dismiss", h.HandleDismissHints)

		r.Post("/refresh", h.HandleRefresh)

		if h.Events != nil {
			r.Get("/events", h.Events.ServeSSE)
			r.Get("/ws", h.Events.ServeWebSocket)
		}
	})
	return r
}

func withID(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, chi.URLParam(r, "id"))
	}
}
