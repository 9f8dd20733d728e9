package commands

import (
	"context"
	"encoding/json"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-builder/components/dashboard"
)

// AddWidgetInput describes a widget to place on the current dashboard.
// Config is decoded for Type; an empty config uses the type defaults.
type AddWidgetInput struct {
	Type   dashboard.WidgetType `json:"type"`
	Title  string               `json:"title"`
	Config json.RawMessage      `json:"config,omitempty"`
	// Result receives the created widget when set.
	Result *dashboard.Widget `json:"-"`
}

type addService interface {
	AddWidget(ctx context.Context, req dashboard.AddWidgetRequest) (dashboard.Widget, error)
}

// AddWidgetCommand wraps Store.AddWidget so transports can add widgets
// without linking directly against the store.
type AddWidgetCommand struct {
	service   addService
	telemetry Telemetry
}

// NewAddWidgetCommand creates a command instance.
func NewAddWidgetCommand(service addService, telemetry Telemetry) *AddWidgetCommand {
	return &AddWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[AddWidgetInput] = (*AddWidgetCommand)(nil)

// Execute decodes the config and delegates to the store.
func (c *AddWidgetCommand) Execute(ctx context.Context, msg AddWidgetInput) error {
	if c.service == nil {
		return errors.New("add command requires service")
	}
	req := dashboard.AddWidgetRequest{Type: msg.Type, Title: msg.Title}
	if len(msg.Config) > 0 {
		cfg, err := dashboard.DecodeConfig(msg.Type, msg.Config)
		if err != nil {
			return err
		}
		req.Config = cfg
	}
	widget, err := c.service.AddWidget(ctx, req)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = widget
	}
	c.telemetry.Record(ctx, "dashboard.command.widget_add", map[string]any{
		"widget_id": widget.ID,
		"type":      string(widget.Type),
	})
	return nil
}
