package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// WidgetType is the closed set of widget kinds.
type WidgetType string

const (
	WidgetBarChart  WidgetType = "bar-chart"
	WidgetLineChart WidgetType = "line-chart"
	WidgetKPI       WidgetType = "kpi"
	WidgetTable     WidgetType = "table"
)

var widgetTypes = []WidgetType{WidgetBarChart, WidgetLineChart, WidgetKPI, WidgetTable}

// WidgetTypes lists every supported widget kind in catalog order.
func WidgetTypes() []WidgetType {
	return slices.Clone(widgetTypes)
}

// Valid reports whether t is one of the supported kinds.
func (t WidgetType) Valid() bool {
	return slices.Contains(widgetTypes, t)
}

var (
	ErrInvalidWidgetType = errors.New("dashboard: unsupported widget type")
	ErrInvalidConfig     = errors.New("dashboard: invalid widget configuration")
	ErrWidgetNotFound    = errors.New("dashboard: widget not found")
	ErrDashboardNotFound = errors.New("dashboard: dashboard not found")
	ErrSourceNotFound    = errors.New("dashboard: data source not found")
)

// WidgetConfig is implemented by exactly four types: BarChartConfig,
// LineChartConfig, KPIConfig and TableConfig.
type WidgetConfig interface {
	WidgetType() WidgetType
	DataSourceID() string
	isWidgetConfig()
}

// BarChartConfig binds a bar chart to two fields of a source.
type BarChartConfig struct {
	DataSource string `json:"dataSource"`
	XAxisKey   string `json:"xAxisKey"`
	YAxisKey   string `json:"yAxisKey"`
	Color      string `json:"color"`
}

// LineChartConfig binds a line chart to two fields of a source.
type LineChartConfig struct {
	DataSource string `json:"dataSource"`
	XAxisKey   string `json:"xAxisKey"`
	YAxisKey   string `json:"yAxisKey"`
	Color      string `json:"color"`
	ShowPoints bool   `json:"showPoints"`
}

// KPIFormat controls how a KPI value is displayed.
type KPIFormat string

const (
	KPIFormatNumber     KPIFormat = "number"
	KPIFormatCurrency   KPIFormat = "currency"
	KPIFormatPercentage KPIFormat = "percentage"
)

// KPIConfig binds a KPI card to a numeric metric.
type KPIConfig struct {
	DataSource  string    `json:"dataSource"`
	MetricKey   string    `json:"metricKey"`
	Format      KPIFormat `json:"format"`
	TargetValue *float64  `json:"targetValue,omitempty"`
	Prefix      string    `json:"prefix,omitempty"`
	Suffix      string    `json:"suffix,omitempty"`
}

// ColumnFormat controls how a table cell is displayed.
type ColumnFormat string

const (
	ColumnFormatNone       ColumnFormat = ""
	ColumnFormatNumber     ColumnFormat = "number"
	ColumnFormatCurrency   ColumnFormat = "currency"
	ColumnFormatPercentage ColumnFormat = "percentage"
	ColumnFormatDate       ColumnFormat = "date"
)

// TableColumn selects a field for a table widget.
type TableColumn struct {
	Key    string       `json:"key"`
	Label  string       `json:"label"`
	Format ColumnFormat `json:"format,omitempty"`
}

// TableConfig binds a table to a list of columns.
type TableConfig struct {
	DataSource  string        `json:"dataSource"`
	Columns     []TableColumn `json:"columns"`
	Pagination  bool          `json:"pagination"`
	RowsPerPage int           `json:"rowsPerPage"`
}

func (BarChartConfig) WidgetType() WidgetType  { return WidgetBarChart }
func (LineChartConfig) WidgetType() WidgetType { return WidgetLineChart }
func (KPIConfig) WidgetType() WidgetType       { return WidgetKPI }
func (TableConfig) WidgetType() WidgetType     { return WidgetTable }

func (c BarChartConfig) DataSourceID() string  { return c.DataSource }
func (c LineChartConfig) DataSourceID() string { return c.DataSource }
func (c KPIConfig) DataSourceID() string       { return c.DataSource }
func (c TableConfig) DataSourceID() string     { return c.DataSource }

func (BarChartConfig) isWidgetConfig()  {}
func (LineChartConfig) isWidgetConfig() {}
func (KPIConfig) isWidgetConfig()       {}
func (TableConfig) isWidgetConfig()     {}

// Widget is a configured visualization placed on a dashboard.
type Widget struct {
	ID       string
	Title    string
	Type     WidgetType
	Position WidgetPosition
	Config   WidgetConfig
}

type widgetJSON struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Type     WidgetType      `json:"type"`
	Position WidgetPosition  `json:"position"`
	Config   json.RawMessage `json:"config"`
}

// MarshalJSON encodes the widget with its variant config under "config".
func (w Widget) MarshalJSON() ([]byte, error) {
	cfg := []byte("null")
	if w.Config != nil {
		var err error
		if cfg, err = json.Marshal(w.Config); err != nil {
			return nil, fmt.Errorf("dashboard: encode config for widget %s: %w", w.ID, err)
		}
	}
	return json.Marshal(widgetJSON{
		ID:       w.ID,
		Title:    w.Title,
		Type:     w.Type,
		Position: w.Position,
		Config:   cfg,
	})
}

// UnmarshalJSON decodes the config variant selected by "type".
func (w *Widget) UnmarshalJSON(data []byte) error {
	var raw widgetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	cfg, err := DecodeConfig(raw.Type, raw.Config)
	if err != nil {
		return err
	}
	*w = Widget{
		ID:       raw.ID,
		Title:    raw.Title,
		Type:     raw.Type,
		Position: raw.Position,
		Config:   cfg,
	}
	return nil
}

// DecodeConfig decodes a raw JSON config for the given widget type. An
// empty payload yields the zero config of that type.
func DecodeConfig(widgetType WidgetType, raw []byte) (WidgetConfig, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}
	var (
		cfg WidgetConfig
		err error
	)
	switch widgetType {
	case WidgetBarChart:
		var c BarChartConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	case WidgetLineChart:
		var c LineChartConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	case WidgetKPI:
		var c KPIConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	case WidgetTable:
		var c TableConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidWidgetType, widgetType)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s config: %v", ErrInvalidConfig, widgetType, err)
	}
	return cfg, nil
}

// Clone returns a deep copy of the widget.
func (w Widget) Clone() Widget {
	w.Config = cloneConfig(w.Config)
	return w
}

func cloneConfig(cfg WidgetConfig) WidgetConfig {
	switch c := cfg.(type) {
	case nil:
		return nil
	case BarChartConfig, LineChartConfig:
		return c
	case KPIConfig:
		if c.TargetValue != nil {
			v := *c.TargetValue
			c.TargetValue = &v
		}
		return c
	case TableConfig:
		c.Columns = slices.Clone(c.Columns)
		return c
	default:
		panic(fmt.Sprintf("dashboard: unhandled widget config %T", cfg))
	}
}

// Clone returns a deep copy of the dashboard.
func (d Dashboard) Clone() Dashboard {
	widgets := make([]Widget, len(d.Widgets))
	for i, w := range d.Widgets {
		widgets[i] = w.Clone()
	}
	d.Widgets = widgets
	return d
}

// Valid reports whether the position satisfies the grid invariants.
func (p WidgetPosition) Valid() bool {
	return p.X >= 0 && p.Y >= 0 && p.W >= 1 && p.H >= 1
}

// Normalize clamps the position into the grid invariants.
func (p WidgetPosition) Normalize() WidgetPosition {
	p.X = max(p.X, 0)
	p.Y = max(p.Y, 0)
	p.W = max(p.W, 1)
	p.H = max(p.H, 1)
	return p
}

// FieldRefs lists the field names a config references, in config order.
func FieldRefs(cfg WidgetConfig) []string {
	var refs []string
	add := func(keys ...string) {
		for _, k := range keys {
			if k != "" {
				refs = append(refs, k)
			}
		}
	}
	switch c := cfg.(type) {
	case BarChartConfig:
		add(c.XAxisKey, c.YAxisKey)
	case LineChartConfig:
		add(c.XAxisKey, c.YAxisKey)
	case KPIConfig:
		add(c.MetricKey)
	case TableConfig:
		for _, col := range c.Columns {
			add(col.Key)
		}
	}
	return refs
}
