package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-builder/components/dashboard"
)

// UpdateWidgetInput captures widget update payloads. Empty fields keep the
// stored value.
type UpdateWidgetInput struct {
	WidgetID string          `json:"widget_id"`
	Title    string          `json:"title"`
	Config   json.RawMessage `json:"config,omitempty"`
	// Result receives the updated widget when set.
	Result *dashboard.Widget `json:"-"`
}

type updateService interface {
	Widget(id string) (dashboard.Widget, bool)
	UpdateWidget(ctx context.Context, widget dashboard.Widget) (bool, error)
}

// UpdateWidgetCommand wraps Store.UpdateWidget.
type UpdateWidgetCommand struct {
	service   updateService
	telemetry Telemetry
}

// NewUpdateWidgetCommand creates the command.
func NewUpdateWidgetCommand(service updateService, telemetry Telemetry) *UpdateWidgetCommand {
	return &UpdateWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateWidgetInput] = (*UpdateWidgetCommand)(nil)

// Execute updates the widget title and configuration.
func (c *UpdateWidgetCommand) Execute(ctx context.Context, msg UpdateWidgetInput) error {
	if c.service == nil {
		return errors.New("update command requires service")
	}
	if msg.WidgetID == "" {
		return errors.New("update command requires widget id")
	}
	existing, ok := c.service.Widget(msg.WidgetID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, msg.WidgetID)
	}
	next := dashboard.Widget{ID: msg.WidgetID, Title: msg.Title}
	if len(msg.Config) > 0 {
		cfg, err := dashboard.DecodeConfig(existing.Type, msg.Config)
		if err != nil {
			return err
		}
		next.Config = cfg
	}
	updated, err := c.service.UpdateWidget(ctx, next)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("%w: %s", ErrWidgetNotFound, msg.WidgetID)
	}
	if msg.Result != nil {
		if w, ok := c.service.Widget(msg.WidgetID); ok {
			*msg.Result = w
		}
	}
	c.telemetry.Record(ctx, "dashboard.command.widget_update", map[string]any{
		"widget_id": msg.WidgetID,
	})
	return nil
}
