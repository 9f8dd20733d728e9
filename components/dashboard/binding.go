package dashboard

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ettle/strcase"
)

// ResolveRows returns the rows of the source cfg is bound to. A missing
// source yields an empty slice.
func ResolveRows(sources SourceLookup, cfg WidgetConfig) []Row {
	if sources == nil || cfg == nil {
		return []Row{}
	}
	src, ok := sources.Source(cfg.DataSourceID())
	if !ok {
		return []Row{}
	}
	return src.Rows
}

// KPIStatus classifies a KPI against its target.
type KPIStatus string

const (
	KPIStatusNeutral  KPIStatus = "neutral"
	KPIStatusGood     KPIStatus = "good"
	KPIStatusWarning  KPIStatus = "warning"
	KPIStatusCritical KPIStatus = "critical"
)

// KPIView is the display model of a KPI card.
type KPIView struct {
	Value         float64   `json:"value"`
	Display       string    `json:"display"`
	HasTarget     bool      `json:"has_target"`
	Target        float64   `json:"target,omitempty"`
	PercentTarget float64   `json:"percent_of_target,omitempty"`
	TargetLabel   string    `json:"target_label,omitempty"`
	Status        KPIStatus `json:"status"`
}

// BuildKPIView reads the metric from the first row and formats it. A zero
// or missing target produces no indicator.
func BuildKPIView(cfg KPIConfig, rows []Row) KPIView {
	var value float64
	if len(rows) > 0 {
		value = numericValue(rows[0][cfg.MetricKey])
	}
	view := KPIView{
		Value:   value,
		Display: cfg.Prefix + FormatKPIValue(cfg.Format, value) + cfg.Suffix,
		Status:  KPIStatusNeutral,
	}
	if cfg.TargetValue == nil || *cfg.TargetValue == 0 {
		return view
	}
	target := *cfg.TargetValue
	percent := value / target * 100
	view.HasTarget = true
	view.Target = target
	view.PercentTarget = percent
	view.TargetLabel = fmt.Sprintf("%d%% of target", int(math.Round(percent)))
	view.Status = kpiStatus(percent)
	return view
}

func kpiStatus(percent float64) KPIStatus {
	switch {
	case percent >= 100:
		return KPIStatusGood
	case percent >= 70:
		return KPIStatusWarning
	default:
		return KPIStatusCritical
	}
}

// FormatKPIValue renders a value in en-US style for the given format.
func FormatKPIValue(format KPIFormat, value float64) string {
	switch format {
	case KPIFormatCurrency:
		return formatCurrency(value)
	case KPIFormatPercentage:
		return formatPercent(value)
	default:
		return formatNumber(value)
	}
}

// humanize.FormatFloat goes through int64, so larger magnitudes take the
// commaFixed path.
const largeMagnitude = 1e15

func formatCurrency(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	if v >= largeMagnitude {
		return sign + "$" + commaFixed(v, 2)
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", v)
}

// formatPercent treats v as a percentage value (85 -> 85.0%).
func formatPercent(v float64) string {
	if math.Abs(v) >= largeMagnitude {
		return commaFixed(v, 1) + "%"
	}
	return humanize.FormatFloat("#,###.#", v) + "%"
}

// commaFixed renders v with a fixed number of decimals and thousands
// separators on the whole part.
func commaFixed(v float64, decimals int) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	whole, frac, _ := strings.Cut(strconv.FormatFloat(v, 'f', decimals, 64), ".")
	n, err := strconv.ParseFloat(whole, 64)
	if err != nil {
		return sign + whole
	}
	out := humanize.Commaf(n)
	if frac != "" {
		out += "." + frac
	}
	return sign + out
}

func formatNumber(v float64) string {
	return humanize.Commaf(math.Round(v*1000) / 1000)
}

// TableView is the display model of one table page.
type TableView struct {
	Columns     []TableColumn `json:"columns"`
	Rows        [][]string    `json:"rows"`
	Page        int           `json:"page"`
	Pages       int           `json:"pages"`
	RowsPerPage int           `json:"rows_per_page"`
	Total       int           `json:"total"`
	Paginated   bool          `json:"paginated"`
}

// BuildTableView formats the requested page of rows. Pages are zero based
// and clamped into range.
func BuildTableView(cfg TableConfig, rows []Row, page int) TableView {
	view := TableView{
		Columns:   labelColumns(cfg.Columns),
		Total:     len(rows),
		Paginated: cfg.Pagination,
		Rows:      [][]string{},
		Pages:     1,
	}
	visible := rows
	if cfg.Pagination {
		per := max(cfg.RowsPerPage, 1)
		view.RowsPerPage = per
		view.Pages = max((len(rows)+per-1)/per, 1)
		page = min(max(page, 0), view.Pages-1)
		start := min(page*per, len(rows))
		end := min(start+per, len(rows))
		visible = rows[start:end]
		view.Page = page
	} else {
		view.RowsPerPage = len(rows)
	}
	for _, row := range visible {
		cells := make([]string, len(cfg.Columns))
		for i, col := range cfg.Columns {
			cells[i] = FormatCell(row[col.Key], col.Format)
		}
		view.Rows = append(view.Rows, cells)
	}
	return view
}

// ColumnLabel derives a display label from a field key, so "unit_price"
// and "unitPrice" both read "Unit Price".
func ColumnLabel(key string) string {
	return strcase.ToCase(key, strcase.TitleCase, ' ')
}

func labelColumns(cols []TableColumn) []TableColumn {
	out := slices.Clone(cols)
	for i := range out {
		if strings.TrimSpace(out[i].Label) == "" {
			out[i].Label = ColumnLabel(out[i].Key)
		}
	}
	return out
}

// FormatCell renders one table cell. nil renders empty.
func FormatCell(value any, format ColumnFormat) string {
	if value == nil {
		return ""
	}
	switch format {
	case ColumnFormatCurrency:
		return formatCurrency(numericValue(value))
	case ColumnFormatPercentage:
		return formatPercent(numericValue(value))
	case ColumnFormatNumber:
		return formatNumber(numericValue(value))
	case ColumnFormatDate:
		if t, ok := ParseDate(scalarString(value)); ok {
			return t.Format("1/2/2006")
		}
		return "Invalid Date"
	default:
		return scalarString(value)
	}
}

// ChartPoint is one category of a chart series.
type ChartPoint struct {
	Label string
	Value float64
}

// ChartSeriesView is the data behind a bar or line chart.
type ChartSeriesView struct {
	Name       string       `json:"name"`
	Color      string       `json:"color"`
	ShowPoints bool         `json:"show_points"`
	Labels     []string     `json:"labels"`
	Points     []ChartPoint `json:"-"`
}

// BuildChartSeries maps rows to labels from xKey and values from yKey.
// Non-numeric values plot as zero.
func BuildChartSeries(cfg WidgetConfig, rows []Row) (ChartSeriesView, error) {
	var (
		xKey, yKey, color string
		showPoints        bool
	)
	switch c := cfg.(type) {
	case BarChartConfig:
		xKey, yKey, color = c.XAxisKey, c.YAxisKey, c.Color
	case LineChartConfig:
		xKey, yKey, color, showPoints = c.XAxisKey, c.YAxisKey, c.Color, c.ShowPoints
	default:
		return ChartSeriesView{}, fmt.Errorf("%w: %T is not a chart config", ErrInvalidConfig, cfg)
	}
	view := ChartSeriesView{
		Name:       yKey,
		Color:      color,
		ShowPoints: showPoints,
		Labels:     make([]string, 0, len(rows)),
		Points:     make([]ChartPoint, 0, len(rows)),
	}
	for _, row := range rows {
		label := scalarString(row[xKey])
		view.Labels = append(view.Labels, label)
		view.Points = append(view.Points, ChartPoint{Label: label, Value: numericValue(row[yKey])})
	}
	return view, nil
}

func numericValue(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	}
	return 0
}

func scalarString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
