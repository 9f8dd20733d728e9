package commands

import dashboard "github.com/goliatone/go-dashboard-builder/components/dashboard"

// Lookup failures reported by commands whose target does not exist.
var (
	ErrWidgetNotFound    = dashboard.ErrWidgetNotFound
	ErrDashboardNotFound = dashboard.ErrDashboardNotFound
	ErrSourceNotFound    = dashboard.ErrSourceNotFound
)
