package gorouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-dashboard-builder/components/dashboard"
	"github.com/goliatone/go-dashboard-builder/components/dashboard/commands"
	"github.com/goliatone/go-dashboard-builder/components/dashboard/httpapi"
	"github.com/goliatone/go-dashboard-builder/components/dashboard/queries"
)

// Config wires go-router with the dashboard commands, queries and hooks.
type Config[T any] struct {
	Router    router.Router[T]
	Handlers  *httpapi.Handlers
	Broadcast *dashboard.BroadcastHook
	BasePath  string
	Routes    RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	HTML       string
	View       string
	Layout     string
	Widgets    string
	WidgetID   string
	Rebind     string
	Dashboards string
	Switch     string
	Sources    string
	SourceID   string
	Fields     string
	Catalog    string
	Hints      string
	Refresh    string
	WebSocket  string
}

// Register mounts the dashboard page, JSON endpoints and the change event
// WebSocket on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Handlers == nil {
		return errors.New("gorouter: handlers are required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/dashboard"
	}
	group := cfg.Router.Group(base)
	h := cfg.Handlers

	if h.Page != nil {
		group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
			var buf bytes.Buffer
			if err := h.Page.RenderTemplate(ctx.Context(), viewRequest(ctx), &buf); err != nil {
				return respondError(ctx, err)
			}
			ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
			return ctx.Send(buf.Bytes())
		}))
	}

	registerQueries(group, h, routes)
	registerWidgetCommands(group, h, routes)
	registerSourceCommands(group, h, routes)

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}
	return nil
}

func registerQueries[T any](r router.Router[T], h *httpapi.Handlers, routes RouteConfig) {
	if h.View != nil {
		r.Get(routes.View, router.WrapHandler(func(ctx router.Context) error {
			view, err := h.View.Query(ctx.Context(), viewRequest(ctx))
			if err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, view)
		}))
	}
	if h.Layout != nil {
		r.Get(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
			items, err := h.Layout.Query(ctx.Context(), queries.LayoutInput{})
			if err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]any{"layout": items})
		}))
	}
	if h.Widget != nil {
		r.Get(routes.WidgetID, router.WrapHandler(func(ctx router.Context) error {
			page, _ := strconv.Atoi(ctx.Query("page"))
			view, err := h.Widget.Query(ctx.Context(), queries.WidgetInput{WidgetID: ctx.Param("id"), Page: page})
			if err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, view)
		}))
	}
	if h.Sources != nil {
		r.Get(routes.Sources, router.WrapHandler(func(ctx router.Context) error {
			sources, err := h.Sources.Query(ctx.Context(), queries.SourcesInput{})
			if err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]any{"sources": sources})
		}))
	}
	if h.FieldOptions != nil {
		r.Get(routes.Fields, router.WrapHandler(func(ctx router.Context) error {
			widgetType := dashboard.WidgetType(ctx.Query("type"))
			if widgetType == "" {
				widgetType = dashboard.WidgetTable
			}
			fields, err := h.FieldOptions.Query(ctx.Context(), queries.FieldOptionsInput{Type: widgetType, SourceID: ctx.Param("id")})
			if err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]any{"fields": fields})
		}))
	}
	if h.Catalog != nil {
		r.Get(routes.Catalog, router.WrapHandler(func(ctx router.Context) error {
			defs, err := h.Catalog.Query(ctx.Context(), queries.CatalogInput{})
			if err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]any{"widgets": defs})
		}))
	}
}

func registerWidgetCommands[T any](r router.Router[T], h *httpapi.Handlers, routes RouteConfig) {
	if h.AddWidget != nil {
		r.Post(routes.Widgets, router.WrapHandler(func(ctx router.Context) error {
			var payload commands.AddWidgetInput
			if err := decodeBody(ctx, &payload); err != nil {
				return respondStatus(ctx, http.StatusBadRequest, err)
			}
			var created dashboard.Widget
			payload.Result = &created
			if err := h.AddWidget.Execute(ctx.Context(), payload); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusCreated, created)
		}))
	}
	if h.UpdateWidget != nil {
		r.Put(routes.WidgetID, router.WrapHandler(func(ctx router.Context) error {
			var payload commands.UpdateWidgetInput
			if err := decodeBody(ctx, &payload); err != nil {
				return respondStatus(ctx, http.StatusBadRequest, err)
			}
			payload.WidgetID = ctx.Param("id")
			var updated dashboard.Widget
			payload.Result = &updated
			if err := h.UpdateWidget.Execute(ctx.Context(), payload); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, updated)
		}))
	}
	if h.RemoveWidget != nil {
		r.Delete(routes.WidgetID, router.WrapHandler(func(ctx router.Context) error {
			id := ctx.Param("id")
			if id == "" {
				return respondStatus(ctx, http.StatusBadRequest, errors.New("widget id is required"))
			}
			if err := h.RemoveWidget.Execute(ctx.Context(), commands.RemoveWidgetInput{WidgetID: id}); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]string{"status": "removed"})
		}))
	}
	if h.RebindWidget != nil {
		r.Post(routes.Rebind, router.WrapHandler(func(ctx router.Context) error {
			var payload commands.RebindWidgetInput
			if err := decodeBody(ctx, &payload); err != nil {
				return respondStatus(ctx, http.StatusBadRequest, err)
			}
			payload.WidgetID = ctx.Param("id")
			var rebound dashboard.Widget
			payload.Result = &rebound
			if err := h.RebindWidget.Execute(ctx.Context(), payload); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, rebound)
		}))
	}
	if h.ApplyLayout != nil {
		r.Put(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
			var payload commands.ApplyLayoutInput
			if err := decodeBody(ctx, &payload); err != nil {
				return respondStatus(ctx, http.StatusBadRequest, err)
			}
			var applied int
			payload.Applied = &applied
			if err := h.ApplyLayout.Execute(ctx.Context(), payload); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]any{"applied": applied})
		}))
	}
	if h.CreateDashboard != nil {
		r.Post(routes.Dashboards, router.WrapHandler(func(ctx router.Context) error {
			var payload commands.CreateDashboardInput
			if err := decodeBody(ctx, &payload); err != nil {
				return respondStatus(ctx, http.StatusBadRequest, err)
			}
			var created dashboard.Dashboard
			payload.Result = &created
			if err := h.CreateDashboard.Execute(ctx.Context(), payload); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusCreated, created)
		}))
	}
	if h.SwitchDashboard != nil {
		r.Post(routes.Switch, router.WrapHandler(func(ctx router.Context) error {
			input := commands.SwitchDashboardInput{DashboardID: ctx.Param("id")}
			if err := h.SwitchDashboard.Execute(ctx.Context(), input); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]string{"status": "switched"})
		}))
	}
	if h.DismissHints != nil {
		r.Post(routes.Hints, router.WrapHandler(func(ctx router.Context) error {
			if err := h.DismissHints.Execute(ctx.Context(), commands.DismissHintsInput{}); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]string{"status": "dismissed"})
		}))
	}
	if h.Refresh != nil {
		r.Post(routes.Refresh, router.WrapHandler(func(ctx router.Context) error {
			var payload struct {
				SourceID string `json:"source_id"`
			}
			if err := decodeBody(ctx, &payload); err != nil {
				return respondStatus(ctx, http.StatusBadRequest, err)
			}
			event := dashboard.ChangeEvent{Reason: dashboard.ReasonRefresh, SourceID: payload.SourceID}
			if err := h.Refresh.Execute(ctx.Context(), commands.RefreshInput{Event: event}); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusAccepted, map[string]string{"status": "refreshed"})
		}))
	}
}

// Source uploads arrive as the raw request body. The "filename" query
// parameter selects the parser and "name" overrides the display name.
func registerSourceCommands[T any](r router.Router[T], h *httpapi.Handlers, routes RouteConfig) {
	if h.ImportSource != nil {
		r.Post(routes.Sources, router.WrapHandler(func(ctx router.Context) error {
			fileName := strings.TrimSpace(ctx.Query("filename"))
			if fileName == "" {
				return respondStatus(ctx, http.StatusBadRequest, errors.New("filename query parameter is required"))
			}
			var src dashboard.DataSource
			input := commands.ImportSourceInput{
				FileName: fileName,
				Name:     ctx.Query("name"),
				Reader:   bytes.NewReader(ctx.Body()),
				Result:   &src,
			}
			if err := h.ImportSource.Execute(ctx.Context(), input); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusCreated, map[string]any{
				"id":     src.ID,
				"name":   src.Name,
				"type":   src.Kind,
				"rows":   len(src.Rows),
				"fields": dashboard.InferFields(src),
			})
		}))
	}
	if h.RemoveSource != nil {
		r.Delete(routes.SourceID, router.WrapHandler(func(ctx router.Context) error {
			if err := h.RemoveSource.Execute(ctx.Context(), commands.RemoveSourceInput{SourceID: ctx.Param("id")}); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]string{"status": "removed"})
		}))
	}
}

func registerWebSocket[T any](r router.Router[T], hook *dashboard.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

// viewRequest reads table pages from "pages", a comma separated list of
// widgetID:page pairs.
func viewRequest(ctx router.Context) dashboard.ViewRequest {
	return dashboard.ViewRequest{Pages: parsePages(ctx.Query("pages"))}
}

func parsePages(raw string) map[string]int {
	pages := map[string]int{}
	for _, pair := range strings.Split(raw, ",") {
		id, value, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || id == "" {
			continue
		}
		if page, err := strconv.Atoi(value); err == nil {
			pages[id] = page
		}
	}
	return pages
}

func decodeBody(ctx router.Context, dst any) error {
	return decodeJSON(ctx.Body(), dst)
}

func decodeJSON(raw []byte, dst any) error {
	body := bytes.TrimSpace(raw)
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, dst)
}

func respondError(ctx router.Context, err error) error {
	return respondStatus(ctx, httpapi.StatusFor(err), err)
}

func respondStatus(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	set := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	set(&routes.HTML, "/")
	set(&routes.View, "/api/view")
	set(&routes.Layout, "/api/layout")
	set(&routes.Widgets, "/api/widgets")
	set(&routes.WidgetID, "/api/widgets/:id")
	set(&routes.Rebind, "/api/widgets/:id/rebind")
	set(&routes.Dashboards, "/api/dashboards")
	set(&routes.Switch, "/api/dashboards/:id/switch")
	set(&routes.Sources, "/api/sources")
	set(&routes.SourceID, "/api/sources/:id")
	set(&routes.Fields, "/api/sources/:id/fields")
	set(&routes.Catalog, "/api/catalog")
	set(&routes.Hints, "/api/hints/dismiss")
	set(&routes.Refresh, "/api/refresh")
	set(&routes.WebSocket, "/ws")
	return routes
}
