package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	core "github.com/goliatone/go-dashboard-builder/components/dashboard"
	"github.com/goliatone/go-dashboard-builder/pkg/config"
	"github.com/goliatone/go-dashboard-builder/pkg/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedManifest = `version: "1"
dashboards:
  - name: Sales
    widgets:
      - type: kpi
        title: Revenue
      - type: bar-chart
        title: Monthly
`

func TestNewSeedsOnceAndPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(seedManifest), 0o600))

	cfg := config.Default()
	cfg.Storage = config.StorageConfig{Driver: "sqlite", Path: filepath.Join(dir, "state.db")}
	cfg.Seed = seed

	app, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	current := app.Store.CurrentDashboard()
	assert.Equal(t, "Sales", current.Name)
	require.Len(t, current.Widgets, 2)

	_, err = app.Store.AddWidget(ctx, core.AddWidgetRequest{Type: core.WidgetTable})
	require.NoError(t, err)
	require.NoError(t, app.Close())

	reopened, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	defer reopened.Close()
	// restored state wins over the seed manifest
	assert.Len(t, reopened.Store.Dashboards(), 2)
	sales, ok := findDashboard(reopened.Store.Dashboards(), "Sales")
	require.True(t, ok)
	assert.Len(t, sales.Widgets, 3)
}

func TestNewRejectsBadStorage(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Driver = "redis"
	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewFailsOnMissingSeed(t *testing.T) {
	cfg := config.Default()
	cfg.Storage = config.StorageConfig{Driver: "memory"}
	cfg.Seed = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestHTTPHandlerServesView(t *testing.T) {
	app := newMemoryApp(t)
	_, err := app.Store.AddWidget(context.Background(), core.AddWidgetRequest{Type: core.WidgetKPI})
	require.NoError(t, err)

	srv := httptest.NewServer(app.HTTPHandler())
	t.Cleanup(srv.Close)

	resp, err := srv.Client().Get(srv.URL + "/api/dashboard")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view core.DashboardView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Len(t, view.Widgets, 1)
	assert.Len(t, view.Sources, 3)
}

func TestImportURL(t *testing.T) {
	remoteSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"day":"Mon","visits":3}]`))
	}))
	t.Cleanup(remoteSrv.Close)

	app := newMemoryApp(t)
	src, err := app.ImportURL(context.Background(), remote.NewClient(remote.Config{BaseURL: remoteSrv.URL}), "Visits", "/daily")
	require.NoError(t, err)
	assert.Equal(t, "Visits", src.Name)
	assert.Len(t, app.Controller.Sources(), 4)
}

func TestInboxUsesSourceRegistry(t *testing.T) {
	app := newMemoryApp(t)
	dir := t.TempDir()
	w, err := app.Inbox(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte("region,total\nnorth,1\n"), 0o600))
	src, err := w.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	_, ok := app.Sources.Source(src.ID)
	assert.True(t, ok)
}

func newMemoryApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Storage = config.StorageConfig{Driver: "memory"}
	app, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	return app
}

func findDashboard(list []core.Dashboard, name string) (core.Dashboard, bool) {
	for _, d := range list {
		if d.Name == name {
			return d, true
		}
	}
	return core.Dashboard{}, false
}
