package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-builder/components/dashboard"
)

// RefreshInput emits a change event without mutating state, e.g. after an
// external data source was refreshed.
type RefreshInput struct {
	Event dashboard.ChangeEvent
}

// RefreshCommand triggers refresh hooks without forcing transports.
type RefreshCommand struct {
	hook      dashboard.RefreshHook
	telemetry Telemetry
}

// NewRefreshCommand creates the command.
func NewRefreshCommand(hook dashboard.RefreshHook, telemetry Telemetry) *RefreshCommand {
	return &RefreshCommand{hook: hook, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshInput] = (*RefreshCommand)(nil)

// Execute notifies the refresh hook.
func (c *RefreshCommand) Execute(ctx context.Context, msg RefreshInput) error {
	if c.hook == nil {
		return errors.New("refresh command requires hook")
	}
	if msg.Event.Reason == "" {
		return errors.New("refresh command requires a reason")
	}
	if err := c.hook.DashboardChanged(ctx, msg.Event); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.refresh", map[string]any{
		"reason":    msg.Event.Reason,
		"source_id": msg.Event.SourceID,
	})
	return nil
}
