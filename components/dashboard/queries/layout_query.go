package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-builder/components/dashboard"
)

// LayoutInput requests the grid layout of the current dashboard.
type LayoutInput struct{}

type layoutService interface {
	Widgets() []dashboard.Widget
}

// LayoutQuery describes the current dashboard for the grid collaborator.
type LayoutQuery struct {
	service layoutService
}

// NewLayoutQuery builds the query.
func NewLayoutQuery(service layoutService) *LayoutQuery {
	return &LayoutQuery{service: service}
}

var _ gocommand.Querier[LayoutInput, []dashboard.LayoutItem] = (*LayoutQuery)(nil)

// Query returns one layout item per widget in widget order.
func (q *LayoutQuery) Query(_ context.Context, _ LayoutInput) ([]dashboard.LayoutItem, error) {
	if q.service == nil {
		return nil, errors.New("layout query requires service")
	}
	return dashboard.ToLayoutItems(q.service.Widgets()), nil
}
