package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-dashboard-builder/components/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "state")
	s, err := NewFileStorage(dir)
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, dashboard.StorageKeyDashboards)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, dashboard.StorageKeyDashboards, []byte(`[]`)))
	require.NoError(t, s.Put(ctx, dashboard.StorageKeyDashboards, []byte(`[{"id":"d1"}]`)))
	require.NoError(t, s.Put(ctx, "a/b", []byte("x")))

	got, ok, err := s.Get(ctx, dashboard.StorageKeyDashboards)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"d1"}]`, string(got))

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b", dashboard.StorageKeyDashboards}, keys)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFileStorageValidation(t *testing.T) {
	_, err := NewFileStorage(" ")
	assert.Error(t, err)

	s, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, s.Put(context.Background(), "", []byte("x")))
}

func TestSQLiteStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "dashboard.db")
	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, dashboard.StorageKeyDataSources)
	require.NoError(t, err)
	assert.False(t, ok)

	s.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	require.NoError(t, s.Put(ctx, dashboard.StorageKeyDataSources, []byte(`[]`)))
	require.NoError(t, s.Put(ctx, dashboard.StorageKeyDataSources, []byte(`[{"id":"user-source-1"}]`)))
	require.NoError(t, s.Put(ctx, dashboard.StorageKeyHintsDismissed, nil))

	got, ok, err := s.Get(ctx, dashboard.StorageKeyDataSources)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"user-source-1"}]`, string(got))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{dashboard.StorageKeyHintsDismissed, dashboard.StorageKeyDataSources}, keys)
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	got, ok, err = reopened.Get(ctx, dashboard.StorageKeyDataSources)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"user-source-1"}]`, string(got))
}

func TestStoreSurvivesRestartOnSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dashboard.db")

	storage, closer, err := Open(ctx, DriverSQLite, path)
	require.NoError(t, err)
	store := dashboard.NewStore(dashboard.Options{Storage: storage})
	w, err := store.AddWidget(ctx, dashboard.AddWidgetRequest{Type: dashboard.WidgetTable, Title: "Orders"})
	require.NoError(t, err)
	require.NoError(t, closer.Close())

	storage, closer, err = Open(ctx, DriverSQLite, path)
	require.NoError(t, err)
	defer closer.Close()
	restored := dashboard.NewStore(dashboard.Options{Storage: storage})
	require.NoError(t, restored.Load(ctx))
	got, ok := restored.Widget(w.ID)
	require.True(t, ok)
	assert.Equal(t, "Orders", got.Title)
}

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()

	s, closer, err := Open(ctx, "", "")
	require.NoError(t, err)
	assert.IsType(t, &dashboard.MemoryStorage{}, s)
	assert.NoError(t, closer.Close())

	s, _, err = Open(ctx, "FILE", t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FileStorage{}, s)

	_, _, err = Open(ctx, "redis", "")
	assert.ErrorContains(t, err, "unknown storage driver")

	_, _, err = Open(ctx, DriverSQLite, "")
	assert.Error(t, err)
}
