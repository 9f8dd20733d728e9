package commands

import (
	"context"

	dashboard "github.com/goliatone/go-dashboard-builder/components/dashboard"
)

// Telemetry is the same sink the store reports to, so one LogTelemetry can
// serve both layers.
type Telemetry = dashboard.Telemetry

type discardTelemetry struct{}

func (discardTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return discardTelemetry{}
	}
	return t
}
