package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// DismissHintsInput turns the onboarding hints off.
type DismissHintsInput struct{}

type hintDismisser interface {
	Dismiss(ctx context.Context) error
}

// DismissHintsCommand persists the hint dismiss flag.
type DismissHintsCommand struct {
	service   hintDismisser
	telemetry Telemetry
}

// NewDismissHintsCommand creates the command.
func NewDismissHintsCommand(service hintDismisser, telemetry Telemetry) *DismissHintsCommand {
	return &DismissHintsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DismissHintsInput] = (*DismissHintsCommand)(nil)

// Execute dismisses the hints permanently.
func (c *DismissHintsCommand) Execute(ctx context.Context, _ DismissHintsInput) error {
	if c.service == nil {
		return errors.New("hints command requires service")
	}
	if err := c.service.Dismiss(ctx); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.hints_dismiss", nil)
	return nil
}
