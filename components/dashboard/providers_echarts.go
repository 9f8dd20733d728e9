package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// Chart kinds rendered by EChartsProvider.
const (
	ChartBar  = "bar"
	ChartLine = "line"
)

const defaultChartHeight = "320px"

var sharedChartCache = NewChartCache(5 * time.Minute)

// EChartsProvider renders server-side chart HTML for bar and line widgets.
type EChartsProvider struct {
	chartType  string
	cache      RenderCache
	theme      string
	assetsHost string
}

// EChartsProviderOption customizes provider behavior.
type EChartsProviderOption func(*EChartsProvider)

// WithChartCache injects a render cache. A nil cache renders every time.
func WithChartCache(cache RenderCache) EChartsProviderOption {
	return func(p *EChartsProvider) {
		p.cache = cache
	}
}

// WithChartTheme sets a static theme (defaults to Westeros).
func WithChartTheme(theme string) EChartsProviderOption {
	return func(p *EChartsProvider) {
		if theme != "" {
			p.theme = theme
		}
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) EChartsProviderOption {
	return func(p *EChartsProvider) {
		p.assetsHost = ensureTrailingSlash(host)
	}
}

// NewEChartsProvider builds a provider for a specific chart type.
func NewEChartsProvider(chartType string, opts ...EChartsProviderOption) *EChartsProvider {
	p := &EChartsProvider{
		chartType: strings.ToLower(chartType),
		cache:      sharedChartCache,
		theme:      types.ThemeWesteros,
		assetsHost: EChartsAssetsHost(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fetch binds the widget rows to a series and renders it.
func (p *EChartsProvider) Fetch(_ context.Context, meta WidgetContext) (WidgetData, error) {
	series, err := BuildChartSeries(meta.Widget.Config, meta.Rows())
	if err != nil {
		return nil, err
	}
	title := meta.Widget.Title

	renderFn := func() (string, error) {
		return p.render(title, series)
	}
	var html string
	if p.cache != nil {
		key := fmt.Sprintf("%s:%s:%s", meta.Widget.ID, p.chartType, configHash(meta.Widget.Config, series.Points, p.theme))
		html, err = p.cache.GetOrRender(key, renderFn)
	} else {
		html, err = renderFn()
	}
	if err != nil {
		return nil, err
	}
	return WidgetData{
		"chart_html":   html,
		"chart_type":   p.chartType,
		"series":       series,
		"theme":        p.theme,
		"source_found": meta.SourceFound,
	}, nil
}

func (p *EChartsProvider) render(title string, series ChartSeriesView) (string, error) {
	switch p.chartType {
	case ChartBar:
		return p.renderBarChart(title, series)
	case ChartLine:
		return p.renderLineChart(title, series)
	default:
		return "", fmt.Errorf("dashboard: unsupported chart type: %s", p.chartType)
	}
}

func (p *EChartsProvider) renderBarChart(title string, series ChartSeriesView) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(p.globalChartOptions(title)...)
	bar.SetXAxis(series.Labels)
	data := make([]opts.BarData, len(series.Points))
	for i, point := range series.Points {
		data[i] = opts.BarData{Name: point.Label, Value: point.Value}
	}
	bar.AddSeries(series.Name, data, p.seriesColor(series.Color)...)
	return renderChart(bar)
}

func (p *EChartsProvider) renderLineChart(title string, series ChartSeriesView) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(p.globalChartOptions(title)...)
	line.SetXAxis(series.Labels)
	data := make([]opts.LineData, len(series.Points))
	for i, point := range series.Points {
		data[i] = opts.LineData{Name: point.Label, Value: point.Value}
	}
	line.AddSeries(series.Name, data, p.seriesColor(series.Color)...)
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{
		Smooth:     opts.Bool(true),
		ShowSymbol: opts.Bool(series.ShowPoints),
	}))
	return renderChart(line)
}

func (p *EChartsProvider) seriesColor(color string) []charts.SeriesOpts {
	if color == "" {
		return nil
	}
	return []charts.SeriesOpts{charts.WithItemStyleOpts(opts.ItemStyle{Color: color})}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (p *EChartsProvider) globalChartOptions(title string) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  p.theme,
		Width:  "100%",
		Height: defaultChartHeight,
	}
	if p.assetsHost != "" {
		initOpts.AssetsHost = p.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

// ConfigureChartProviders swaps the chart providers of reg for ones using
// the given options.
func ConfigureChartProviders(reg ProviderRegistry, options ...EChartsProviderOption) error {
	for widgetType, chartType := range map[WidgetType]string{
		WidgetBarChart:  ChartBar,
		WidgetLineChart: ChartLine,
	} {
		if err := reg.RegisterProvider(widgetType, NewEChartsProvider(chartType, options...)); err != nil {
			return err
		}
	}
	return nil
}
