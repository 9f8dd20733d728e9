package dashboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderer struct {
	lastTemplate string
	lastPayload  map[string]any
	err          error
}

func (r *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	r.lastTemplate = name
	if payload, ok := data.(map[string]any); ok {
		r.lastPayload = payload
	}
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte("<html></html>"))
	}
	return "<html></html>", r.err
}

func TestControllerView(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(nil, nil)
	kpi, err := store.AddWidget(ctx, AddWidgetRequest{Type: WidgetKPI})
	require.NoError(t, err)
	table, err := store.AddWidget(ctx, AddWidgetRequest{Type: WidgetTable})
	require.NoError(t, err)

	controller := NewController(ControllerOptions{Store: store, Hints: NewHintStore(nil, nil)})
	view, err := controller.View(ctx, ViewRequest{Pages: map[string]int{table.ID: 1}})
	require.NoError(t, err)

	assert.Equal(t, DefaultDashboardID, view.Dashboard.ID)
	assert.True(t, view.Dashboard.Current)
	assert.Equal(t, 2, view.Dashboard.Widgets)
	require.Len(t, view.Widgets, 2)
	assert.Equal(t, kpi.ID, view.Widgets[0].Widget.ID)
	assert.Equal(t, "Performance Metrics (Demo)", view.Widgets[0].SourceName)
	assert.Equal(t, "85", view.Widgets[0].Data["kpi"].(KPIView).Display)
	assert.Equal(t, 1, view.Widgets[1].Data["table"].(TableView).Page)
	require.Len(t, view.Layout, 2)
	assert.Equal(t, kpi.ID, view.Layout[0].I)
	assert.Len(t, view.Sources, 3)
	assert.True(t, view.Sources[0].Demo)
	assert.Len(t, view.Catalog, 4)
	assert.False(t, view.Hint.Dismissed)
	require.NotNil(t, view.Hint.Hint)
}

func TestControllerViewMissingSource(t *testing.T) {
	ctx := context.Background()
	sources := NewSourceRegistry(SourceRegistryOptions{})
	require.NoError(t, sources.AddSource(ctx, DataSource{ID: "tmp", Name: "Temp", Kind: SourceKindJSON, Rows: []Row{{"v": 3.0}}}))
	store := NewStore(Options{Sources: sources, IDGenerator: sequentialIDs()})
	w, err := store.AddWidget(ctx, AddWidgetRequest{Type: WidgetKPI, Config: KPIConfig{DataSource: "tmp", MetricKey: "v", Format: KPIFormatNumber}})
	require.NoError(t, err)
	require.True(t, sources.RemoveSource(ctx, "tmp"))

	controller := NewController(ControllerOptions{Store: store})
	view, ok, err := controller.WidgetView(ctx, w.ID, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, view.SourceFound)
	assert.Equal(t, false, view.Data["source_found"])
	assert.Equal(t, 0.0, view.Data["kpi"].(KPIView).Value)

	_, ok, err = controller.WidgetView(ctx, "missing", 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestControllerRecordsProviderErrors(t *testing.T) {
	ctx := context.Background()
	telemetry := &RecordingTelemetry{}
	reg := NewRegistry()
	require.NoError(t, reg.RegisterProvider(WidgetKPI, ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) {
		return nil, errors.New("boom")
	})))
	store := NewStore(Options{Providers: reg, IDGenerator: sequentialIDs()})
	_, err := store.AddWidget(ctx, AddWidgetRequest{Type: WidgetKPI})
	require.NoError(t, err)

	controller := NewController(ControllerOptions{Store: store, Telemetry: telemetry})
	view, err := controller.View(ctx, ViewRequest{})
	require.NoError(t, err)
	assert.Equal(t, "boom", view.Widgets[0].Error)
	assert.Contains(t, telemetry.Names(), "dashboard.widget.provider_error")
}

func TestControllerHintRotation(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(100, 0)
	clock := func() time.Time { return now }
	hints := NewHintStore(nil, nil)
	controller := NewController(ControllerOptions{Store: newTestStore(nil, nil), Hints: hints, Now: clock})

	now = now.Add(12 * time.Second)
	view, err := controller.View(ctx, ViewRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, view.Hint.Index)

	require.NoError(t, hints.Dismiss(ctx))
	view, err = controller.View(ctx, ViewRequest{})
	require.NoError(t, err)
	assert.True(t, view.Hint.Dismissed)
}

func TestControllerRenderTemplate(t *testing.T) {
	renderer := &stubRenderer{}
	controller := NewController(ControllerOptions{Store: newTestStore(nil, nil), Renderer: renderer})

	var buf bytes.Buffer
	require.NoError(t, controller.RenderTemplate(context.Background(), ViewRequest{}, &buf))
	assert.Equal(t, DefaultTemplate, renderer.lastTemplate)
	assert.Equal(t, "<html></html>", buf.String())
	require.Contains(t, renderer.lastPayload, "widgets")
	require.Contains(t, renderer.lastPayload, "catalog")
	_, ok := renderer.lastPayload["view"].(DashboardView)
	assert.True(t, ok)
}

func TestControllerErrors(t *testing.T) {
	controller := NewController(ControllerOptions{})
	_, err := controller.View(context.Background(), ViewRequest{})
	require.Error(t, err)
	require.Error(t, controller.RenderTemplate(context.Background(), ViewRequest{}, io.Discard))
	assert.Empty(t, controller.Sources())
}
