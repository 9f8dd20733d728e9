package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-builder/components/dashboard"
)

// CreateDashboardInput names a new dashboard.
type CreateDashboardInput struct {
	Name string `json:"name"`
	// Result receives the created dashboard when set.
	Result *dashboard.Dashboard `json:"-"`
}

type dashboardCreator interface {
	CreateDashboard(ctx context.Context, name string) dashboard.Dashboard
}

// CreateDashboardCommand wraps Store.CreateDashboard.
type CreateDashboardCommand struct {
	service   dashboardCreator
	telemetry Telemetry
}

// NewCreateDashboardCommand builds the command.
func NewCreateDashboardCommand(service dashboardCreator, telemetry Telemetry) *CreateDashboardCommand {
	return &CreateDashboardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CreateDashboardInput] = (*CreateDashboardCommand)(nil)

// Execute creates the dashboard and makes it current.
func (c *CreateDashboardCommand) Execute(ctx context.Context, msg CreateDashboardInput) error {
	if c.service == nil {
		return errors.New("create dashboard command requires service")
	}
	created := c.service.CreateDashboard(ctx, msg.Name)
	if msg.Result != nil {
		*msg.Result = created
	}
	c.telemetry.Record(ctx, "dashboard.command.dashboard_create", map[string]any{"dashboard_id": created.ID})
	return nil
}

// SwitchDashboardInput selects the current dashboard.
type SwitchDashboardInput struct {
	DashboardID string `json:"dashboard_id"`
}

type dashboardSwitcher interface {
	SwitchDashboard(ctx context.Context, id string) bool
}

// SwitchDashboardCommand wraps Store.SwitchDashboard.
type SwitchDashboardCommand struct {
	service   dashboardSwitcher
	telemetry Telemetry
}

// NewSwitchDashboardCommand builds the command.
func NewSwitchDashboardCommand(service dashboardSwitcher, telemetry Telemetry) *SwitchDashboardCommand {
	return &SwitchDashboardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SwitchDashboardInput] = (*SwitchDashboardCommand)(nil)

// Execute switches dashboards. Unknown ids report ErrDashboardNotFound.
func (c *SwitchDashboardCommand) Execute(ctx context.Context, msg SwitchDashboardInput) error {
	if c.service == nil {
		return errors.New("switch dashboard command requires service")
	}
	if !c.service.SwitchDashboard(ctx, msg.DashboardID) {
		return fmt.Errorf("%w: %s", ErrDashboardNotFound, msg.DashboardID)
	}
	c.telemetry.Record(ctx, "dashboard.command.dashboard_switch", map[string]any{"dashboard_id": msg.DashboardID})
	return nil
}
