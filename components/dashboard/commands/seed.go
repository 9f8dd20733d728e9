package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashboard-builder/components/dashboard"
)

// SeedDashboardsInput controls manifest seeding. Force applies the manifest
// even when dashboards were restored from storage.
type SeedDashboardsInput struct {
	Manifest *dashboard.DashboardManifest
	Force    bool
	// Seeded reports whether the manifest was applied when set.
	Seeded *bool
}

// SeedDashboardsCommand applies a dashboard manifest to the store.
type SeedDashboardsCommand struct {
	store     *dashboard.Store
	telemetry Telemetry
}

// NewSeedDashboardsCommand wires dependencies.
func NewSeedDashboardsCommand(store *dashboard.Store, telemetry Telemetry) *SeedDashboardsCommand {
	return &SeedDashboardsCommand{store: store, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SeedDashboardsInput] = (*SeedDashboardsCommand)(nil)

// Execute runs the seed.
func (c *SeedDashboardsCommand) Execute(ctx context.Context, msg SeedDashboardsInput) error {
	if c.store == nil {
		return errors.New("seed command requires store")
	}
	if msg.Manifest == nil {
		return errors.New("seed command requires manifest")
	}
	var (
		seeded bool
		err    error
	)
	if msg.Force {
		_, err = dashboard.ApplyManifest(ctx, c.store, msg.Manifest)
		seeded = true
	} else {
		seeded, err = dashboard.SeedFromManifest(ctx, c.store, msg.Manifest)
	}
	if msg.Seeded != nil {
		*msg.Seeded = seeded
	}
	c.telemetry.Record(ctx, "dashboard.command.seed", map[string]any{
		"seeded":     seeded,
		"dashboards": len(msg.Manifest.Dashboards),
		"source":     msg.Manifest.Source,
	})
	return err
}
