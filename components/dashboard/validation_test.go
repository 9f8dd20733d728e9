package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSchemaValidatorAcceptsDefaults(t *testing.T) {
	validator := NewJSONSchemaValidator()
	reg := NewRegistry()
	for _, widgetType := range WidgetTypes() {
		def, ok := reg.Definition(widgetType)
		require.True(t, ok)
		cfg, err := DefaultConfig(widgetType)
		require.NoError(t, err)
		assert.NoError(t, validator.Validate(def, cfg), widgetType)
	}
}

func TestJSONSchemaValidatorRejectsInvalidConfig(t *testing.T) {
	validator := NewJSONSchemaValidator()
	reg := NewRegistry()

	table, _ := reg.Definition(WidgetTable)
	err := validator.Validate(table, TableConfig{DataSource: DemoSalesID, Columns: []TableColumn{}, Pagination: true, RowsPerPage: 0})
	require.ErrorIs(t, err, ErrInvalidConfig)

	kpi, _ := reg.Definition(WidgetKPI)
	err = validator.Validate(kpi, KPIConfig{DataSource: DemoPerformanceID, MetricKey: "value", Format: "roman"})
	require.ErrorIs(t, err, ErrInvalidConfig)

	bar, _ := reg.Definition(WidgetBarChart)
	err = validator.Validate(bar, BarChartConfig{DataSource: DemoSalesID, Color: "red"})
	require.ErrorIs(t, err, ErrInvalidConfig)

	err = validator.Validate(bar, BarChartConfig{XAxisKey: "month"})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestJSONSchemaValidatorTypeMismatch(t *testing.T) {
	validator := NewJSONSchemaValidator()
	err := validator.Validate(WidgetDefinition{Type: WidgetKPI}, TableConfig{})
	require.ErrorIs(t, err, ErrInvalidConfig)

	err = validator.Validate(WidgetDefinition{Type: WidgetKPI}, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestJSONSchemaValidatorCachesCompiledSchema(t *testing.T) {
	validator := NewJSONSchemaValidator()
	def, _ := NewRegistry().Definition(WidgetLineChart)
	cfg, _ := DefaultConfig(WidgetLineChart)
	require.NoError(t, validator.Validate(def, cfg))
	require.NoError(t, validator.Validate(def, cfg))
	assert.Len(t, validator.compiled, 1)
}
