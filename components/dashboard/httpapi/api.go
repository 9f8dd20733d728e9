package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-dashboard-builder/components/dashboard"
	"github.com/goliatone/go-dashboard-builder/components/dashboard/commands"
	"github.com/goliatone/go-dashboard-builder/components/dashboard/queries"
)

// maxUploadBytes bounds multipart uploads held in memory.
const maxUploadBytes = 32 << 20

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	AddWidget       gocommand.Commander[commands.AddWidgetInput]
	RemoveWidget    gocommand.Commander[commands.RemoveWidgetInput]
	UpdateWidget    gocommand.Commander[commands.UpdateWidgetInput]
	RebindWidget    gocommand.Commander[commands.RebindWidgetInput]
	ApplyLayout     gocommand.Commander[commands.ApplyLayoutInput]
	CreateDashboard gocommand.Commander[commands.CreateDashboardInput]
	SwitchDashboard gocommand.Commander[commands.SwitchDashboardInput]
	ImportSource    gocommand.Commander[commands.ImportSourceInput]
	RemoveSource    gocommand.Commander[commands.RemoveSourceInput]
	DismissHints    gocommand.Commander[commands.DismissHintsInput]
	Refresh         gocommand.Commander[commands.RefreshInput]

	View         gocommand.Querier[dashboard.ViewRequest, dashboard.DashboardView]
	Widget       gocommand.Querier[queries.WidgetInput, dashboard.WidgetView]
	Layout       gocommand.Querier[queries.LayoutInput, []dashboard.LayoutItem]
	Sources      gocommand.Querier[queries.SourcesInput, []dashboard.SourceSummary]
	FieldOptions gocommand.Querier[queries.FieldOptionsInput, []dashboard.Field]
	Catalog      gocommand.Querier[queries.CatalogInput, []dashboard.WidgetDefinition]

	Page   PageRenderer
	Events *dashboard.BroadcastHook
}

func (h *Handlers) HandleView(w http.ResponseWriter, r *http.Request) {
	view, err := h.View.Query(r.Context(), viewRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) HandleWidget(w http.ResponseWriter, r *http.Request, widgetID string) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	view, err := h.Widget.Query(r.Context(), queries.WidgetInput{WidgetID: widgetID, Page: page})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) HandleAddWidget(w http.ResponseWriter, r *http.Request) {
	var payload commands.AddWidgetInput
	if !decodeBody(w, r, &payload) {
		return
	}
	var created dashboard.Widget
	payload.Result = &created
	if err := h.AddWidget.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) HandleUpdateWidget(w http.ResponseWriter, r *http.Request, widgetID string) {
	var payload commands.UpdateWidgetInput
	if !decodeBody(w, r, &payload) {
		return
	}
	payload.WidgetID = widgetID
	var updated dashboard.Widget
	payload.Result = &updated
	if err := h.UpdateWidget.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) HandleRemoveWidget(w http.ResponseWriter, r *http.Request, widgetID string) {
	if err := h.RemoveWidget.Execute(r.Context(), commands.RemoveWidgetInput{WidgetID: widgetID}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleRebindWidget(w http.ResponseWriter, r *http.Request, widgetID string) {
	var payload commands.RebindWidgetInput
	if !decodeBody(w, r, &payload) {
		return
	}
	payload.WidgetID = widgetID
	var rebound dashboard.Widget
	payload.Result = &rebound
	if err := h.RebindWidget.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rebound)
}

func (h *Handlers) HandleLayout(w http.ResponseWriter, r *http.Request) {
	items, err := h.Layout.Query(r.Context(), queries.LayoutInput{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"layout": items})
}

func (h *Handlers) HandleApplyLayout(w http.ResponseWriter, r *http.Request) {
	var payload commands.ApplyLayoutInput
	if !decodeBody(w, r, &payload) {
		return
	}
	var applied int
	payload.Applied = &applied
	if err := h.ApplyLayout.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": applied})
}

func (h *Handlers) HandleCreateDashboard(w http.ResponseWriter, r *http.Request) {
	var payload commands.CreateDashboardInput
	if !decodeBody(w, r, &payload) {
		return
	}
	var created dashboard.Dashboard
	payload.Result = &created
	if err := h.CreateDashboard.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) HandleSwitchDashboard(w http.ResponseWriter, r *http.Request, dashboardID string) {
	if err := h.SwitchDashboard.Execute(r.Context(), commands.SwitchDashboardInput{DashboardID: dashboardID}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.Sources.Query(r.Context(), queries.SourcesInput{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

// HandleImportSource accepts a multipart upload in the "file" field. An
// optional "name" field overrides the display name.
func (h *Handlers) HandleImportSource(w http.ResponseWriter, r *http.Request) {
	if h.ImportSource == nil {
		http.Error(w, "source import not configured", http.StatusNotImplemented)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()
	var src dashboard.DataSource
	input := commands.ImportSourceInput{
		FileName: header.Filename,
		Name:     r.FormValue("name"),
		Reader:   file,
		Result:   &src,
	}
	if err := h.ImportSource.Execute(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     src.ID,
		"name":   src.Name,
		"type":   src.Kind,
		"rows":   len(src.Rows),
		"fields": dashboard.InferFields(src),
	})
}

func (h *Handlers) HandleRemoveSource(w http.ResponseWriter, r *http.Request, sourceID string) {
	if h.RemoveSource == nil {
		http.Error(w, "source removal not configured", http.StatusNotImplemented)
		return
	}
	if err := h.RemoveSource.Execute(r.Context(), commands.RemoveSourceInput{SourceID: sourceID}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleFieldOptions(w http.ResponseWriter, r *http.Request, sourceID string) {
	widgetType := dashboard.WidgetType(r.URL.Query().Get("type"))
	if widgetType == "" {
		widgetType = dashboard.WidgetTable
	}
	fields, err := h.FieldOptions.Query(r.Context(), queries.FieldOptionsInput{Type: widgetType, SourceID: sourceID})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": fields})
}

func (h *Handlers) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	defs, err := h.Catalog.Query(r.Context(), queries.CatalogInput{})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"widgets": defs})
}

func (h *Handlers) HandleDismissHints(w http.ResponseWriter, r *http.Request) {
	if h.DismissHints == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.DismissHints.Execute(r.Context(), commands.DismissHintsInput{}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRefresh asks connected clients to reload, e.g. after the rows behind
// a source changed outside the registry.
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if h.Refresh == nil {
		http.Error(w, "refresh not configured", http.StatusNotImplemented)
		return
	}
	var payload struct {
		SourceID string `json:"source_id"`
	}
	if !decodeBody(w, r, &payload) {
		return
	}
	event := dashboard.ChangeEvent{Reason: dashboard.ReasonRefresh, SourceID: payload.SourceID}
	if err := h.Refresh.Execute(r.Context(), commands.RefreshInput{Event: event}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	if h.Page == nil {
		http.Error(w, "page renderer not configured", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.Page.RenderTemplate(r.Context(), viewRequest(r), w); err != nil {
		writeError(w, err)
	}
}

// viewRequest reads per-widget table pages from "page.<widget id>" params.
func viewRequest(r *http.Request) dashboard.ViewRequest {
	req := dashboard.ViewRequest{Pages: map[string]int{}}
	for key, values := range r.URL.Query() {
		id, ok := strings.CutPrefix(key, "page.")
		if !ok || id == "" || len(values) == 0 {
			continue
		}
		if page, err := strconv.Atoi(values[0]); err == nil {
			req.Pages[id] = page
		}
	}
	return req
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), map[string]string{"error": err.Error()})
}

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrWidgetNotFound),
		errors.Is(err, dashboard.ErrDashboardNotFound),
		errors.Is(err, dashboard.ErrSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrProtectedSource),
		errors.Is(err, dashboard.ErrDuplicateSource):
		return http.StatusConflict
	case errors.Is(err, dashboard.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, dashboard.ErrInvalidWidgetType),
		errors.Is(err, dashboard.ErrInvalidConfig),
		errors.Is(err, dashboard.ErrIngestion):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
