package queries

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-builder/components/dashboard"
)

type viewService interface {
	View(ctx context.Context, req dashboard.ViewRequest) (dashboard.DashboardView, error)
}

// DashboardViewQuery executes read-only view resolution.
type DashboardViewQuery struct {
	service viewService
}

// NewDashboardViewQuery builds the query.
func NewDashboardViewQuery(service viewService) *DashboardViewQuery {
	return &DashboardViewQuery{service: service}
}

var _ gocommand.Querier[dashboard.ViewRequest, dashboard.DashboardView] = (*DashboardViewQuery)(nil)

// Query resolves the current dashboard view.
func (q *DashboardViewQuery) Query(ctx context.Context, req dashboard.ViewRequest) (dashboard.DashboardView, error) {
	if q.service == nil {
		return dashboard.DashboardView{}, errors.New("view query requires service")
	}
	return q.service.View(ctx, req)
}

// WidgetInput identifies a widget of the current dashboard and its table page.
type WidgetInput struct {
	WidgetID string
	Page     int
}

type widgetService interface {
	WidgetView(ctx context.Context, id string, page int) (dashboard.WidgetView, bool, error)
}

// WidgetQuery resolves a single widget with its data payload.
type WidgetQuery struct {
	service widgetService
}

// NewWidgetQuery builds the query.
func NewWidgetQuery(service widgetService) *WidgetQuery {
	return &WidgetQuery{service: service}
}

var _ gocommand.Querier[WidgetInput, dashboard.WidgetView] = (*WidgetQuery)(nil)

// Query resolves the widget. Unknown ids report dashboard.ErrWidgetNotFound.
func (q *WidgetQuery) Query(ctx context.Context, input WidgetInput) (dashboard.WidgetView, error) {
	if q.service == nil {
		return dashboard.WidgetView{}, errors.New("widget query requires service")
	}
	view, ok, err := q.service.WidgetView(ctx, input.WidgetID, input.Page)
	if err != nil {
		return dashboard.WidgetView{}, err
	}
	if !ok {
		return dashboard.WidgetView{}, fmt.Errorf("%w: %s", dashboard.ErrWidgetNotFound, input.WidgetID)
	}
	return view, nil
}
