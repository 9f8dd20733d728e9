package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEChartsBarProvider(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(ChartBar, WithChartCache(nil))
	meta := demoWidgetContext(t, WidgetBarChart)

	data, err := provider.Fetch(context.Background(), meta)
	require.NoError(t, err)

	assert.Equal(t, ChartBar, data["chart_type"])
	assert.Equal(t, true, data["source_found"])
	assert.Equal(t, types.ThemeWesteros, data["theme"])
	series := data["series"].(ChartSeriesView)
	assert.Len(t, series.Points, 7)
	html := chartHTML(data)
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "#8884d8")
}

func TestEChartsLineProvider(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(ChartLine, WithChartCache(nil), WithChartTheme(types.ThemeMacarons), WithChartAssetsHost("https://cdn.example.com/echarts"))
	meta := demoWidgetContext(t, WidgetLineChart)

	data, err := provider.Fetch(context.Background(), meta)
	require.NoError(t, err)
	assert.Equal(t, ChartLine, data["chart_type"])
	assert.Equal(t, types.ThemeMacarons, data["theme"])
	assert.Contains(t, chartHTML(data), "https://cdn.example.com/echarts/")
}

func TestEChartsProviderMissingSourceRendersEmptyChart(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(ChartBar, WithChartCache(nil))
	meta := WidgetContext{Widget: Widget{ID: "w", Type: WidgetBarChart, Config: BarChartConfig{DataSource: "gone", XAxisKey: "a", YAxisKey: "b"}}}

	data, err := provider.Fetch(context.Background(), meta)
	require.NoError(t, err)
	assert.Equal(t, false, data["source_found"])
	assert.Empty(t, data["series"].(ChartSeriesView).Points)
}

func TestEChartsProviderRejectsNonChartConfig(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(ChartBar, WithChartCache(nil))
	_, err := provider.Fetch(context.Background(), WidgetContext{Widget: Widget{Config: KPIConfig{}}})
	require.ErrorIs(t, err, ErrInvalidConfig)

	unknown := NewEChartsProvider("radar", WithChartCache(nil))
	_, err = unknown.Fetch(context.Background(), demoWidgetContext(t, WidgetBarChart))
	require.Error(t, err)
}

func TestEChartsProviderCachesByConfig(t *testing.T) {
	t.Parallel()
	cache := NewChartCache(time.Minute)
	provider := NewEChartsProvider(ChartBar, WithChartCache(cache))
	meta := demoWidgetContext(t, WidgetBarChart)

	_, err := provider.Fetch(context.Background(), meta)
	require.NoError(t, err)
	_, err = provider.Fetch(context.Background(), meta)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	cfg := meta.Widget.Config.(BarChartConfig)
	cfg.Color = "#000000"
	meta.Widget.Config = cfg
	_, err = provider.Fetch(context.Background(), meta)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())
}

func TestConfigureChartProviders(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, ConfigureChartProviders(reg, WithChartTheme(types.ThemeChalk)))
	provider, ok := reg.Provider(WidgetLineChart)
	require.True(t, ok)
	echarts, ok := provider.(*EChartsProvider)
	require.True(t, ok)
	assert.Equal(t, types.ThemeChalk, echarts.theme)
	assert.Equal(t, ChartLine, echarts.chartType)
}

func TestKPIProvider(t *testing.T) {
	data, err := KPIProvider{}.Fetch(context.Background(), demoWidgetContext(t, WidgetKPI))
	require.NoError(t, err)
	view := data["kpi"].(KPIView)
	assert.Equal(t, "85", view.Display)
	assert.Equal(t, KPIStatusWarning, view.Status)

	_, err = KPIProvider{}.Fetch(context.Background(), WidgetContext{Widget: Widget{Config: TableConfig{}}})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestTableProvider(t *testing.T) {
	meta := demoWidgetContext(t, WidgetTable)
	meta.Page = 1
	data, err := TableProvider{}.Fetch(context.Background(), meta)
	require.NoError(t, err)
	view := data["table"].(TableView)
	assert.Equal(t, 1, view.Page)
	assert.Len(t, view.Rows, 2)
	assert.Equal(t, "Jun", view.Rows[0][0])
}

func TestEChartsAssetsHostFromEnv(t *testing.T) {
	t.Setenv(envEChartsCDN, "https://assets.internal/echarts")
	assert.Equal(t, "https://assets.internal/echarts/", EChartsAssetsHost())
	t.Setenv(envEChartsCDN, "")
	assert.Equal(t, DefaultEChartsAssetsHost, EChartsAssetsHost())
}

func demoWidgetContext(t *testing.T, widgetType WidgetType) WidgetContext {
	t.Helper()
	w, err := NewWidgetTemplate(widgetType)
	require.NoError(t, err)
	w.ID = "widget-" + string(widgetType)
	src, ok := NewSourceRegistry(SourceRegistryOptions{}).Source(w.Config.DataSourceID())
	require.True(t, ok)
	return WidgetContext{Widget: w, Source: src, SourceFound: true}
}

func chartHTML(data WidgetData) string {
	html, _ := data["chart_html"].(string)
	return html
}
