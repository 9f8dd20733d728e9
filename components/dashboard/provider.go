package dashboard

import "context"

// Provider turns a bound widget into the payload its template renders.
type Provider interface {
	Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error)
}

// ProviderFunc adapts a function into a Provider.
type ProviderFunc func(ctx context.Context, meta WidgetContext) (WidgetData, error)

// Fetch implements Provider.
func (f ProviderFunc) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	return f(ctx, meta)
}

// WidgetContext contains the widget plus its resolved data source.
type WidgetContext struct {
	Widget Widget
	// Source is the zero value when SourceFound is false.
	Source      DataSource
	SourceFound bool
	// Page selects the table page, zero based.
	Page int
}

// Rows returns the resolved rows, empty when the source is missing.
func (m WidgetContext) Rows() []Row {
	if !m.SourceFound || m.Source.Rows == nil {
		return []Row{}
	}
	return m.Source.Rows
}

// WidgetData is an opaque payload passed to templates.
type WidgetData map[string]any
