package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-builder/components/dashboard"
)

// ApplyLayoutInput carries the cells reported by the grid after a drag or
// resize.
type ApplyLayoutInput struct {
	Items []dashboard.LayoutItem `json:"layout"`
	// Applied receives the number of matched widgets when set.
	Applied *int `json:"-"`
}

// ApplyLayoutCommand forwards grid changes to Store.UpdateWidgetPosition.
type ApplyLayoutCommand struct {
	service   dashboard.PositionUpdater
	telemetry Telemetry
}

// NewApplyLayoutCommand builds the command.
func NewApplyLayoutCommand(service dashboard.PositionUpdater, telemetry Telemetry) *ApplyLayoutCommand {
	return &ApplyLayoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ApplyLayoutInput] = (*ApplyLayoutCommand)(nil)

// Execute applies every reported cell. Unknown widget ids are ignored.
func (c *ApplyLayoutCommand) Execute(ctx context.Context, msg ApplyLayoutInput) error {
	if c.service == nil {
		return errors.New("layout command requires service")
	}
	applied := dashboard.ApplyLayoutChange(ctx, c.service, msg.Items)
	if msg.Applied != nil {
		*msg.Applied = applied
	}
	c.telemetry.Record(ctx, "dashboard.command.layout_apply", map[string]any{
		"items":   len(msg.Items),
		"applied": applied,
	})
	return nil
}
