package dashboard

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildKPIViewAgainstTarget(t *testing.T) {
	target := 100.0
	view := BuildKPIView(KPIConfig{MetricKey: "value", Format: KPIFormatNumber, TargetValue: &target}, []Row{
		{"value": 85.0},
		{"value": 1000.0},
	})

	assert.Equal(t, 85.0, view.Value)
	assert.Equal(t, "85", view.Display)
	assert.True(t, view.HasTarget)
	assert.Equal(t, "85% of target", view.TargetLabel)
	assert.Equal(t, KPIStatusWarning, view.Status)
}

func TestBuildKPIViewStatusThresholds(t *testing.T) {
	target := 200.0
	cases := map[float64]KPIStatus{
		250: KPIStatusGood,
		200: KPIStatusGood,
		140: KPIStatusWarning,
		139: KPIStatusCritical,
	}
	for value, want := range cases {
		view := BuildKPIView(KPIConfig{MetricKey: "v", TargetValue: &target}, []Row{{"v": value}})
		assert.Equal(t, want, view.Status, "value %v", value)
	}
}

func TestBuildKPIViewWithoutTarget(t *testing.T) {
	zero := 0.0
	view := BuildKPIView(KPIConfig{MetricKey: "v", Format: KPIFormatCurrency, TargetValue: &zero, Prefix: "~", Suffix: " USD"}, []Row{{"v": 1234.5}})
	assert.False(t, view.HasTarget)
	assert.Equal(t, KPIStatusNeutral, view.Status)
	assert.Equal(t, "~$1,234.50 USD", view.Display)

	empty := BuildKPIView(KPIConfig{MetricKey: "v"}, nil)
	assert.Equal(t, 0.0, empty.Value)
	assert.Equal(t, "0", empty.Display)
}

func TestFormatKPIValue(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatKPIValue(KPIFormatNumber, 1234567))
	assert.Equal(t, "1.235", FormatKPIValue(KPIFormatNumber, 1.23456))
	assert.Equal(t, "$4,000.00", FormatKPIValue(KPIFormatCurrency, 4000))
	assert.Equal(t, "-$12.00", FormatKPIValue(KPIFormatCurrency, -12))
	assert.Equal(t, "85.0%", FormatKPIValue(KPIFormatPercentage, 85))
}

func TestFormatKPIValueLargeMagnitudes(t *testing.T) {
	assert.Equal(t, "$1,000,000,000,000,000,000,000.00", FormatKPIValue(KPIFormatCurrency, 1e21))
	assert.Equal(t, "-$1,000,000,000,000,000,000,000.00", FormatKPIValue(KPIFormatCurrency, -1e21))
	assert.Equal(t, "$1,000,000,000,000,000.00", FormatKPIValue(KPIFormatCurrency, 1e15))
	assert.Equal(t, "1,000,000,000,000,000,000,000.0%", FormatKPIValue(KPIFormatPercentage, 1e21))
	assert.Equal(t, "-2,500,000,000,000,000.0%", FormatKPIValue(KPIFormatPercentage, -2.5e15))
	assert.Equal(t, "+Inf%", FormatKPIValue(KPIFormatPercentage, math.Inf(1)))
}

func TestBuildTableViewPaginates(t *testing.T) {
	src, ok := NewSourceRegistry(SourceRegistryOptions{}).Source(DemoSalesID)
	require.True(t, ok)
	cfg := TableConfig{
		Columns: []TableColumn{
			{Key: "month", Label: "Month"},
			{Key: "revenue", Label: "Revenue", Format: ColumnFormatCurrency},
		},
		Pagination:  true,
		RowsPerPage: 5,
	}

	first := BuildTableView(cfg, src.Rows, 0)
	assert.Equal(t, 2, first.Pages)
	assert.Equal(t, 7, first.Total)
	require.Len(t, first.Rows, 5)
	assert.Equal(t, []string{"Jan", "$4,000.00"}, first.Rows[0])

	last := BuildTableView(cfg, src.Rows, 9)
	assert.Equal(t, 1, last.Page)
	require.Len(t, last.Rows, 2)
	assert.Equal(t, "Jul", last.Rows[1][0])

	cfg.Pagination = false
	all := BuildTableView(cfg, src.Rows, 1)
	assert.Len(t, all.Rows, 7)
	assert.Equal(t, 0, all.Page)
}

func TestBuildTableViewEmpty(t *testing.T) {
	view := BuildTableView(TableConfig{Columns: []TableColumn{{Key: "a"}}, Pagination: true, RowsPerPage: 3}, nil, 2)
	assert.Equal(t, 1, view.Pages)
	assert.Equal(t, 0, view.Page)
	assert.Empty(t, view.Rows)
	assert.Equal(t, "A", view.Columns[0].Label)
}

func TestColumnLabel(t *testing.T) {
	assert.Equal(t, "Unit Price", ColumnLabel("unit_price"))
	assert.Equal(t, "Unit Price", ColumnLabel("unitPrice"))
	assert.Equal(t, "Region", ColumnLabel("region"))
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", FormatCell(nil, ColumnFormatCurrency))
	assert.Equal(t, "3/5/2024", FormatCell("2024-03-05", ColumnFormatDate))
	assert.Equal(t, "Invalid Date", FormatCell("soon", ColumnFormatDate))
	assert.Equal(t, "42.5", FormatCell(42.5, ColumnFormatNone))
	assert.Equal(t, "true", FormatCell(true, ColumnFormatNone))
	assert.Equal(t, "12.5%", FormatCell(12.5, ColumnFormatPercentage))
	assert.Equal(t, "2,000", FormatCell("2000", ColumnFormatNumber))
}

func TestBuildChartSeries(t *testing.T) {
	rows := []Row{
		{"day": "Mon", "visits": 10.0},
		{"day": "Tue", "visits": "n/a"},
		{"day": 3.0, "visits": "7"},
	}
	series, err := BuildChartSeries(LineChartConfig{XAxisKey: "day", YAxisKey: "visits", Color: "#123", ShowPoints: true}, rows)
	require.NoError(t, err)

	assert.Equal(t, "visits", series.Name)
	assert.True(t, series.ShowPoints)
	assert.Equal(t, []string{"Mon", "Tue", "3"}, series.Labels)
	assert.Equal(t, []ChartPoint{{Label: "Mon", Value: 10}, {Label: "Tue", Value: 0}, {Label: "3", Value: 7}}, series.Points)

	_, err = BuildChartSeries(KPIConfig{}, rows)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestResolveRows(t *testing.T) {
	reg := NewSourceRegistry(SourceRegistryOptions{})
	assert.Len(t, ResolveRows(reg, BarChartConfig{DataSource: DemoTrafficID}), 7)
	assert.Empty(t, ResolveRows(reg, BarChartConfig{DataSource: "gone"}))
	assert.Empty(t, ResolveRows(nil, BarChartConfig{DataSource: DemoTrafficID}))
}
