package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"
)

var errMissingStore = errors.New("dashboard: store not configured")

// ControllerOptions wires the collaborators needed to build dashboard views.
type ControllerOptions struct {
	Store     *Store
	Sources   SourceLookup
	Hints     *HintStore
	Providers ProviderRegistry
	Renderer  Renderer
	Template  string
	Telemetry Telemetry
	Logger    *slog.Logger
	Now       func() time.Time
}

// Controller assembles the presentation model of the current dashboard.
type Controller struct {
	opts    ControllerOptions
	started time.Time
}

// NewController wires the store into a controller.
func NewController(opts ControllerOptions) *Controller {
	if opts.Template == "" {
		opts.Template = DefaultTemplate
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sources == nil && opts.Store != nil {
		opts.Sources = opts.Store.Sources()
	}
	if opts.Providers == nil && opts.Store != nil {
		opts.Providers = opts.Store.Providers()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	opts.Logger = normalizeLogger(opts.Logger)
	return &Controller{opts: opts, started: opts.Now()}
}

// ViewRequest selects per-widget table pages.
type ViewRequest struct {
	Pages map[string]int
}

// DashboardSummary names a dashboard for navigation.
type DashboardSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Current bool   `json:"current"`
	Widgets int    `json:"widgets"`
}

// SourceSummary describes a data source without its rows.
type SourceSummary struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Kind    SourceKind `json:"type"`
	AddedAt time.Time  `json:"dateAdded"`
	Rows    int        `json:"rows"`
	Fields  []Field    `json:"fields"`
	Demo    bool       `json:"demo"`
}

// WidgetView is a widget plus its resolved presentation payload.
type WidgetView struct {
	Widget      Widget     `json:"widget"`
	SourceName  string     `json:"source_name,omitempty"`
	SourceFound bool       `json:"source_found"`
	Data        WidgetData `json:"data,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// DashboardView is everything the presentation layer renders.
type DashboardView struct {
	Dashboard  DashboardSummary   `json:"dashboard"`
	Dashboards []DashboardSummary `json:"dashboards"`
	Widgets    []WidgetView       `json:"widgets"`
	Layout     []LayoutItem       `json:"layout"`
	Sources    []SourceSummary    `json:"sources"`
	Catalog    []WidgetDefinition `json:"catalog"`
	Hint       HintState          `json:"hint"`
}

// View builds the presentation model of the current dashboard.
func (c *Controller) View(ctx context.Context, req ViewRequest) (DashboardView, error) {
	store := c.opts.Store
	if store == nil {
		return DashboardView{}, errMissingStore
	}
	current := store.CurrentDashboard()
	view := DashboardView{
		Widgets: make([]WidgetView, 0, len(current.Widgets)),
		Layout:  ToLayoutItems(current.Widgets),
		Sources: c.Sources(),
		Hint:    HintState{Dismissed: true},
	}
	for _, d := range store.Dashboards() {
		summary := DashboardSummary{ID: d.ID, Name: d.Name, Current: d.ID == current.ID, Widgets: len(d.Widgets)}
		if summary.Current {
			view.Dashboard = summary
		}
		view.Dashboards = append(view.Dashboards, summary)
	}
	for _, w := range current.Widgets {
		view.Widgets = append(view.Widgets, c.resolveWidget(ctx, w, req.Pages[w.ID]))
	}
	if c.opts.Providers != nil {
		view.Catalog = c.opts.Providers.Definitions()
	}
	if c.opts.Hints != nil {
		view.Hint = c.opts.Hints.State(ctx, c.started, c.opts.Now())
	}
	c.opts.Telemetry.Record(ctx, "dashboard.view.resolve", map[string]any{
		"dashboard_id": current.ID,
		"widgets":      len(view.Widgets),
	})
	return view, nil
}

// WidgetView resolves a single widget of the current dashboard.
func (c *Controller) WidgetView(ctx context.Context, id string, page int) (WidgetView, bool, error) {
	if c.opts.Store == nil {
		return WidgetView{}, false, errMissingStore
	}
	w, ok := c.opts.Store.Widget(id)
	if !ok {
		return WidgetView{}, false, nil
	}
	return c.resolveWidget(ctx, w, page), true, nil
}

// Sources summarizes every registered data source.
func (c *Controller) Sources() []SourceSummary {
	lister, ok := c.opts.Sources.(interface{ ListSources() []DataSource })
	if !ok {
		return []SourceSummary{}
	}
	sources := lister.ListSources()
	out := make([]SourceSummary, 0, len(sources))
	for _, src := range sources {
		out = append(out, SourceSummary{
			ID:      src.ID,
			Name:    src.Name,
			Kind:    src.Kind,
			AddedAt: src.AddedAt,
			Rows:    len(src.Rows),
			Fields:  InferFields(src),
			Demo:    src.Kind == SourceKindDemo,
		})
	}
	return out
}

func (c *Controller) resolveWidget(ctx context.Context, w Widget, page int) WidgetView {
	view := WidgetView{Widget: w}
	meta := WidgetContext{Widget: w, Page: page}
	if c.opts.Sources != nil && w.Config != nil {
		if src, ok := c.opts.Sources.Source(w.Config.DataSourceID()); ok {
			meta.Source = src
			meta.SourceFound = true
			view.SourceName = src.Name
			view.SourceFound = true
		}
	}
	if c.opts.Providers == nil {
		return view
	}
	provider, ok := c.opts.Providers.Provider(w.Type)
	if !ok || provider == nil {
		return view
	}
	data, err := provider.Fetch(ctx, meta)
	if err != nil {
		view.Error = err.Error()
		c.opts.Logger.WarnContext(ctx, "widget provider failed", "widget_id", w.ID, "type", w.Type, "error", err)
		c.opts.Telemetry.Record(ctx, "dashboard.widget.provider_error", map[string]any{
			"widget_id": w.ID,
			"type":      string(w.Type),
			"error":     err.Error(),
		})
		return view
	}
	view.Data = data
	return view
}

// RenderTemplate renders the current dashboard view through the renderer.
func (c *Controller) RenderTemplate(ctx context.Context, req ViewRequest, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errors.New("dashboard: renderer not configured")
	}
	view, err := c.View(ctx, req)
	if err != nil {
		return err
	}
	_, err = c.opts.Renderer.Render(c.opts.Template, map[string]any{
		"view":       view,
		"dashboard":  view.Dashboard,
		"dashboards": view.Dashboards,
		"widgets":    view.Widgets,
		"sources":    view.Sources,
		"catalog":    view.Catalog,
		"hint":       view.Hint,
	}, out)
	return err
}
