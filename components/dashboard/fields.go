package dashboard

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// dateLayouts are the string shapes classified as dates during inference.
var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"01/02",
	"1/2",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
	"Mon, Jan 2, 2006",
}

// ParseDate parses s using the layouts recognized by field inference.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InferFieldType classifies a single sample value.
func InferFieldType(v any) FieldType {
	switch val := v.(type) {
	case float64, float32, int, int64, int32:
		return FieldNumber
	case bool:
		return FieldBoolean
	case string:
		if _, ok := ParseDate(val); ok {
			return FieldDate
		}
		return FieldString
	default:
		return FieldUnknown
	}
}

// InferFields derives the field list of a source from its first row only.
// Fields follow the source column order; keys of row 0 missing from the
// column list are appended in sorted order.
func InferFields(src DataSource) []Field {
	if len(src.Rows) == 0 {
		return []Field{}
	}
	first := src.Rows[0]
	fields := make([]Field, 0, len(first))
	seen := make(map[string]struct{}, len(first))
	for _, name := range src.Columns {
		value, ok := first[name]
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		fields = append(fields, Field{Name: name, Type: InferFieldType(value)})
	}
	var rest []string
	for name := range first {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	for _, name := range rest {
		fields = append(fields, Field{Name: name, Type: InferFieldType(first[name])})
	}
	return fields
}

// FieldOptions filters a field list to the candidates a widget type can bind.
// KPI widgets only accept numeric fields.
func FieldOptions(widgetType WidgetType, fields []Field) ([]Field, error) {
	switch widgetType {
	case WidgetBarChart, WidgetLineChart, WidgetTable:
		return slices.Clone(fields), nil
	case WidgetKPI:
		out := make([]Field, 0, len(fields))
		for _, f := range fields {
			if f.Type == FieldNumber {
				out = append(out, f)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidWidgetType, widgetType)
	}
}

// RebindDataSource points cfg at another source and clears every field
// reference, since field names do not carry across sources.
func RebindDataSource(cfg WidgetConfig, sourceID string) (WidgetConfig, error) {
	switch c := cfg.(type) {
	case BarChartConfig:
		c.DataSource, c.XAxisKey, c.YAxisKey = sourceID, "", ""
		return c, nil
	case LineChartConfig:
		c.DataSource, c.XAxisKey, c.YAxisKey = sourceID, "", ""
		return c, nil
	case KPIConfig:
		c.DataSource, c.MetricKey = sourceID, ""
		if c.TargetValue != nil {
			v := *c.TargetValue
			c.TargetValue = &v
		}
		return c, nil
	case TableConfig:
		c.DataSource, c.Columns = sourceID, []TableColumn{}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: unsupported config %T", ErrInvalidConfig, cfg)
	}
}

// ValidateBinding checks that every non-empty field reference of cfg names a
// field of the bound source. A missing or empty source has no fields, so
// only a config without references binds to it. KPI metrics must reference
// numeric fields.
func ValidateBinding(cfg WidgetConfig, fields []Field) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is required", ErrInvalidConfig)
	}
	if len(fields) == 0 {
		if refs := FieldRefs(cfg); len(refs) > 0 {
			return fmt.Errorf("%w: source %q has no field %q", ErrInvalidConfig, cfg.DataSourceID(), refs[0])
		}
		return nil
	}
	index := make(map[string]FieldType, len(fields))
	for _, f := range fields {
		index[f.Name] = f.Type
	}
	for _, ref := range FieldRefs(cfg) {
		if _, ok := index[ref]; !ok {
			return fmt.Errorf("%w: field %q not found in source %q", ErrInvalidConfig, ref, cfg.DataSourceID())
		}
	}
	if kpi, ok := cfg.(KPIConfig); ok && kpi.MetricKey != "" {
		if t := index[kpi.MetricKey]; t != FieldNumber {
			return fmt.Errorf("%w: kpi metric %q is %s, want number", ErrInvalidConfig, kpi.MetricKey, t)
		}
	}
	return nil
}
