package gorouter

import (
	"testing"

	"github.com/goliatone/go-dashboard-builder/components/dashboard/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidatesConfig(t *testing.T) {
	err := Register(Config[struct{}]{})
	if err == nil {
		t.Fatalf("expected error when router is missing")
	}
	assert.Contains(t, err.Error(), "router is required")
}

func TestDefaultRouteConfig(t *testing.T) {
	routes := defaultRouteConfig(RouteConfig{Widgets: "/custom/widgets"})

	assert.Equal(t, "/custom/widgets", routes.Widgets)
	assert.Equal(t, "/api/widgets/:id", routes.WidgetID)
	assert.Equal(t, "/api/widgets/:id/rebind", routes.Rebind)
	assert.Equal(t, "/api/sources/:id/fields", routes.Fields)
	assert.Equal(t, "/api/refresh", routes.Refresh)
	assert.Equal(t, "/ws", routes.WebSocket)
	assert.Equal(t, "/", routes.HTML)
}

func TestParsePages(t *testing.T) {
	pages := parsePages("w1:2, w2:x,:4,w3:0,broken")
	assert.Equal(t, map[string]int{"w1": 2, "w3": 0}, pages)
	assert.Empty(t, parsePages(""))
}

func TestDecodeJSON(t *testing.T) {
	var payload commands.AddWidgetInput
	require.NoError(t, decodeJSON([]byte("  "), &payload))
	assert.Empty(t, payload.Type)

	require.NoError(t, decodeJSON([]byte(`{"type":"kpi","title":"Revenue","config":{"metricKey":"total"}}`), &payload))
	assert.Equal(t, "Revenue", payload.Title)
	assert.JSONEq(t, `{"metricKey":"total"}`, string(payload.Config))

	assert.Error(t, decodeJSON([]byte(`{`), &payload))
}
