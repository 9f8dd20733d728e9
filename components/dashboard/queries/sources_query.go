package queries

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-builder/components/dashboard"
)

// SourcesInput requests the data source summaries.
type SourcesInput struct{}

type sourcesService interface {
	Sources() []dashboard.SourceSummary
}

// SourcesQuery lists every data source without rows.
type SourcesQuery struct {
	service sourcesService
}

// NewSourcesQuery builds the query.
func NewSourcesQuery(service sourcesService) *SourcesQuery {
	return &SourcesQuery{service: service}
}

var _ gocommand.Querier[SourcesInput, []dashboard.SourceSummary] = (*SourcesQuery)(nil)

// Query lists demo sources first, then user sources.
func (q *SourcesQuery) Query(context.Context, SourcesInput) ([]dashboard.SourceSummary, error) {
	if q.service == nil {
		return nil, errors.New("sources query requires service")
	}
	return q.service.Sources(), nil
}

// FieldOptionsInput selects the widget type and source to offer fields for.
type FieldOptionsInput struct {
	Type     dashboard.WidgetType
	SourceID string
}

// FieldOptionsQuery lists the fields a widget editor may bind.
type FieldOptionsQuery struct {
	sources dashboard.SourceLookup
}

// NewFieldOptionsQuery builds the query.
func NewFieldOptionsQuery(sources dashboard.SourceLookup) *FieldOptionsQuery {
	return &FieldOptionsQuery{sources: sources}
}

var _ gocommand.Querier[FieldOptionsInput, []dashboard.Field] = (*FieldOptionsQuery)(nil)

// Query infers the source fields and filters them for the widget type. KPI
// widgets only receive numeric fields.
func (q *FieldOptionsQuery) Query(_ context.Context, input FieldOptionsInput) ([]dashboard.Field, error) {
	if q.sources == nil {
		return nil, errors.New("field options query requires sources")
	}
	if _, ok := q.sources.Source(input.SourceID); !ok {
		return nil, fmt.Errorf("%w: %s", dashboard.ErrSourceNotFound, input.SourceID)
	}
	return dashboard.FieldOptions(input.Type, q.sources.Fields(input.SourceID))
}

// CatalogInput requests the widget catalog.
type CatalogInput struct{}

type catalogService interface {
	Definitions() []dashboard.WidgetDefinition
}

// CatalogQuery lists the widget kinds offered by the add-widget dialog.
type CatalogQuery struct {
	service catalogService
}

// NewCatalogQuery builds the query.
func NewCatalogQuery(service catalogService) *CatalogQuery {
	return &CatalogQuery{service: service}
}

var _ gocommand.Querier[CatalogInput, []dashboard.WidgetDefinition] = (*CatalogQuery)(nil)

// Query returns the definitions in catalog order.
func (q *CatalogQuery) Query(context.Context, CatalogInput) ([]dashboard.WidgetDefinition, error) {
	if q.service == nil {
		return nil, errors.New("catalog query requires service")
	}
	return q.service.Definitions(), nil
}
