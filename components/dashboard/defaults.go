package dashboard

import (
	"time"
)

// DefaultPosition is the grid cell given to every newly added widget.
var DefaultPosition = WidgetPosition{X: 0, Y: 0, W: 6, H: 4}

// Default dashboard seeded when nothing is stored.
const (
	DefaultDashboardID   = "default-dashboard"
	DefaultDashboardName = "My Dashboard"
)

// Demo source ids.
const (
	DemoSalesID       = "sales"
	DemoTrafficID     = "traffic"
	DemoPerformanceID = "performance"
)

var demoSourceIDs = []string{DemoSalesID, DemoTrafficID, DemoPerformanceID}

// IsDemoSource reports whether id names a protected built-in source.
func IsDemoSource(id string) bool {
	for _, demo := range demoSourceIDs {
		if id == demo {
			return true
		}
	}
	return false
}

var defaultWidgetDefinitions = []WidgetDefinition{
	{
		Type:         WidgetBarChart,
		Name:         "Bar Chart",
		DefaultTitle: "New Bar Chart",
		Description:  "Compare values across categories",
		Category:     "charts",
		Schema:       axisChartSchema(false),
	},
	{
		Type:         WidgetLineChart,
		Name:         "Line Chart",
		DefaultTitle: "New Line Chart",
		Description:  "Show trends over time",
		Category:     "charts",
		Schema:       axisChartSchema(true),
	},
	{
		Type:         WidgetKPI,
		Name:         "KPI Card",
		DefaultTitle: "New KPI",
		Description:  "Display a key metric against a target",
		Category:     "stats",
		Schema:       kpiSchema(),
	},
	{
		Type:         WidgetTable,
		Name:         "Data Table",
		DefaultTitle: "New Table",
		Description:  "Display rows of a data source",
		Category:     "data",
		Schema:       tableSchema(),
	},
}

func axisChartSchema(withPoints bool) map[string]any {
	props := map[string]any{
		"dataSource": map[string]any{"type": "string", "minLength": 1},
		"xAxisKey":   map[string]any{"type": "string"},
		"yAxisKey":   map[string]any{"type": "string"},
		"color": map[string]any{
			"type":    "string",
			"pattern": "^(#[0-9a-fA-F]{3,8})?$",
		},
	}
	if withPoints {
		props["showPoints"] = map[string]any{"type": "boolean", "default": true}
	}
	return map[string]any{
		"type":                 "object",
		"required":             []string{"dataSource", "xAxisKey", "yAxisKey"},
		"properties":           props,
		"additionalProperties": false,
	}
}

func kpiSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"dataSource", "metricKey", "format"},
		"properties": map[string]any{
			"dataSource": map[string]any{"type": "string", "minLength": 1},
			"metricKey":  map[string]any{"type": "string"},
			"format": map[string]any{
				"type": "string",
				"enum": []string{string(KPIFormatNumber), string(KPIFormatCurrency), string(KPIFormatPercentage)},
			},
			"targetValue": map[string]any{"type": "number"},
			"prefix":      map[string]any{"type": "string"},
			"suffix":      map[string]any{"type": "string"},
		},
		"additionalProperties": false,
	}
}

func tableSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"dataSource", "columns", "pagination", "rowsPerPage"},
		"properties": map[string]any{
			"dataSource": map[string]any{"type": "string", "minLength": 1},
			"columns": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"key", "label"},
					"properties": map[string]any{
						"key":   map[string]any{"type": "string", "minLength": 1},
						"label": map[string]any{"type": "string"},
						"format": map[string]any{
							"type": "string",
							"enum": []string{
								string(ColumnFormatNone),
								string(ColumnFormatNumber),
								string(ColumnFormatCurrency),
								string(ColumnFormatPercentage),
								string(ColumnFormatDate),
							},
						},
					},
					"additionalProperties": false,
				},
			},
			"pagination":  map[string]any{"type": "boolean", "default": true},
			"rowsPerPage": map[string]any{"type": "integer", "minimum": 1, "default": 5},
		},
		"additionalProperties": false,
	}
}

// DefaultWidgetDefinitions returns copies of the built-in widget definitions.
func DefaultWidgetDefinitions() []WidgetDefinition {
	out := make([]WidgetDefinition, len(defaultWidgetDefinitions))
	copy(out, defaultWidgetDefinitions)
	return out
}

// DefaultConfig returns the initial configuration of a newly added widget.
func DefaultConfig(widgetType WidgetType) (WidgetConfig, error) {
	switch widgetType {
	case WidgetBarChart:
		return BarChartConfig{
			DataSource: DemoSalesID,
			XAxisKey:   "month",
			YAxisKey:   "revenue",
			Color:      "#8884d8",
		}, nil
	case WidgetLineChart:
		return LineChartConfig{
			DataSource: DemoTrafficID,
			XAxisKey:   "date",
			YAxisKey:   "visitors",
			Color:      "#82ca9d",
			ShowPoints: true,
		}, nil
	case WidgetKPI:
		target := 100.0
		return KPIConfig{
			DataSource:  DemoPerformanceID,
			MetricKey:   "value",
			Format:      KPIFormatNumber,
			TargetValue: &target,
		}, nil
	case WidgetTable:
		return TableConfig{
			DataSource: DemoSalesID,
			Columns: []TableColumn{
				{Key: "month", Label: "Month"},
				{Key: "revenue", Label: "Revenue", Format: ColumnFormatCurrency},
				{Key: "units", Label: "Units"},
			},
			Pagination:  true,
			RowsPerPage: 5,
		}, nil
	default:
		return nil, ErrInvalidWidgetType
	}
}

// NewWidgetTemplate returns an unplaced widget of the given type with its
// default title and configuration. The id is left empty.
func NewWidgetTemplate(widgetType WidgetType) (Widget, error) {
	cfg, err := DefaultConfig(widgetType)
	if err != nil {
		return Widget{}, err
	}
	title := string(widgetType)
	for _, def := range defaultWidgetDefinitions {
		if def.Type == widgetType {
			title = def.DefaultTitle
			break
		}
	}
	return Widget{
		Title:    title,
		Type:     widgetType,
		Position: DefaultPosition,
		Config:   cfg,
	}, nil
}

var demoSources = []DataSource{
	{
		ID:      DemoSalesID,
		Name:    "Sales Data (Demo)",
		Kind:    SourceKindDemo,
		Columns: []string{"month", "revenue", "profit", "units"},
		Rows: []Row{
			{"month": "Jan", "revenue": 4000.0, "profit": 2400.0, "units": 240.0},
			{"month": "Feb", "revenue": 3000.0, "profit": 1398.0, "units": 210.0},
			{"month": "Mar", "revenue": 2000.0, "profit": 9800.0, "units": 290.0},
			{"month": "Apr", "revenue": 2780.0, "profit": 3908.0, "units": 200.0},
			{"month": "May", "revenue": 1890.0, "profit": 4800.0, "units": 218.0},
			{"month": "Jun", "revenue": 2390.0, "profit": 3800.0, "units": 250.0},
			{"month": "Jul", "revenue": 3490.0, "profit": 4300.0, "units": 210.0},
		},
	},
	{
		ID:      DemoTrafficID,
		Name:    "Website Traffic (Demo)",
		Kind:    SourceKindDemo,
		Columns: []string{"date", "page", "visitors", "pageviews", "bounceRate"},
		Rows: []Row{
			{"date": "01/01", "page": "Home", "visitors": 4000.0, "pageviews": 5400.0, "bounceRate": 40.0},
			{"date": "01/02", "page": "Home", "visitors": 3000.0, "pageviews": 4398.0, "bounceRate": 42.0},
			{"date": "01/03", "page": "Home", "visitors": 2000.0, "pageviews": 3800.0, "bounceRate": 35.0},
			{"date": "01/04", "page": "Home", "visitors": 2780.0, "pageviews": 3908.0, "bounceRate": 28.0},
			{"date": "01/05", "page": "Home", "visitors": 1890.0, "pageviews": 3800.0, "bounceRate": 30.0},
			{"date": "01/06", "page": "Home", "visitors": 2390.0, "pageviews": 4800.0, "bounceRate": 32.0},
			{"date": "01/07", "page": "Home", "visitors": 3490.0, "pageviews": 6300.0, "bounceRate": 25.0},
		},
	},
	{
		ID:      DemoPerformanceID,
		Name:    "Performance Metrics (Demo)",
		Kind:    SourceKindDemo,
		Columns: []string{"team", "metric", "value", "target", "variance"},
		Rows: []Row{
			{"team": "Team A", "metric": "Productivity", "value": 85.0, "target": 80.0, "variance": 5.0},
			{"team": "Team B", "metric": "Productivity", "value": 75.0, "target": 80.0, "variance": -5.0},
			{"team": "Team C", "metric": "Productivity", "value": 90.0, "target": 80.0, "variance": 10.0},
			{"team": "Team A", "metric": "Quality", "value": 95.0, "target": 90.0, "variance": 5.0},
			{"team": "Team B", "metric": "Quality", "value": 85.0, "target": 90.0, "variance": -5.0},
			{"team": "Team C", "metric": "Quality", "value": 92.0, "target": 90.0, "variance": 2.0},
		},
	},
}

// DemoSources returns deep copies of the built-in demo sources stamped with
// the given time.
func DemoSources(addedAt time.Time) []DataSource {
	out := make([]DataSource, len(demoSources))
	for i, src := range demoSources {
		src = src.Clone()
		src.AddedAt = addedAt
		out[i] = src
	}
	return out
}
