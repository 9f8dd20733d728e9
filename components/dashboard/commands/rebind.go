package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-builder/components/dashboard"
)

// RebindWidgetInput points a widget at another data source.
type RebindWidgetInput struct {
	WidgetID string `json:"widget_id"`
	SourceID string `json:"source_id"`
	// Result receives the rebound widget when set.
	Result *dashboard.Widget `json:"-"`
}

type rebindService interface {
	RebindWidget(ctx context.Context, id, sourceID string) (dashboard.Widget, bool, error)
}

type sourceLookup interface {
	Source(id string) (dashboard.DataSource, bool)
}

// RebindWidgetCommand wraps Store.RebindWidget and rejects unknown sources.
type RebindWidgetCommand struct {
	service   rebindService
	sources   sourceLookup
	telemetry Telemetry
}

// NewRebindWidgetCommand creates the command. A nil sources skips the
// source existence check.
func NewRebindWidgetCommand(service rebindService, sources sourceLookup, telemetry Telemetry) *RebindWidgetCommand {
	return &RebindWidgetCommand{service: service, sources: sources, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RebindWidgetInput] = (*RebindWidgetCommand)(nil)

// Execute rebinds the widget and clears its field references.
func (c *RebindWidgetCommand) Execute(ctx context.Context, msg RebindWidgetInput) error {
	if c.service == nil {
		return errors.New("rebind command requires service")
	}
	if msg.SourceID == "" {
		return errors.New("rebind command requires source id")
	}
	if c.sources != nil {
		if _, ok := c.sources.Source(msg.SourceID); !ok {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, msg.SourceID)
		}
	}
	widget, ok, err := c.service.RebindWidget(ctx, msg.WidgetID, msg.SourceID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, msg.WidgetID)
	}
	if msg.Result != nil {
		*msg.Result = widget
	}
	c.telemetry.Record(ctx, "dashboard.command.widget_rebind", map[string]any{
		"widget_id": msg.WidgetID,
		"source_id": msg.SourceID,
	})
	return nil
}
