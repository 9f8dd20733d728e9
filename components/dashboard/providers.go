package dashboard

import (
	"context"
	"fmt"
)

func defaultProvider(widgetType WidgetType) Provider {
	switch widgetType {
	case WidgetBarChart:
		return NewEChartsProvider(ChartBar)
	case WidgetLineChart:
		return NewEChartsProvider(ChartLine)
	case WidgetKPI:
		return KPIProvider{}
	case WidgetTable:
		return TableProvider{}
	default:
		return nil
	}
}

// KPIProvider formats the first row metric of a KPI widget.
type KPIProvider struct{}

// Fetch implements Provider.
func (KPIProvider) Fetch(_ context.Context, meta WidgetContext) (WidgetData, error) {
	cfg, ok := meta.Widget.Config.(KPIConfig)
	if !ok {
		return nil, fmt.Errorf("%w: kpi provider got %T", ErrInvalidConfig, meta.Widget.Config)
	}
	view := BuildKPIView(cfg, meta.Rows())
	return WidgetData{
		"kpi":          view,
		"source_found": meta.SourceFound,
	}, nil
}

// TableProvider formats one page of a table widget.
type TableProvider struct{}

// Fetch implements Provider.
func (TableProvider) Fetch(_ context.Context, meta WidgetContext) (WidgetData, error) {
	cfg, ok := meta.Widget.Config.(TableConfig)
	if !ok {
		return nil, fmt.Errorf("%w: table provider got %T", ErrInvalidConfig, meta.Widget.Config)
	}
	view := BuildTableView(cfg, meta.Rows(), meta.Page)
	return WidgetData{
		"table":        view,
		"source_found": meta.SourceFound,
	}, nil
}
