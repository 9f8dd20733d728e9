package inbox

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	dashboard "github.com/goliatone/go-dashboard-builder/components/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidates(t *testing.T) {
	_, err := New(Options{Importer: dashboard.NewSourceRegistry(dashboard.SourceRegistryOptions{})})
	assert.Error(t, err)
	_, err = New(Options{Dir: t.TempDir()})
	assert.Error(t, err)
}

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	registry := dashboard.NewSourceRegistry(dashboard.SourceRegistryOptions{})
	w, err := New(Options{Dir: dir, Importer: registry})
	require.NoError(t, err)

	good := writeFile(t, dir, "orders.csv", "region,total\nnorth,10\n")
	src, err := w.ProcessFile(context.Background(), good)
	require.NoError(t, err)
	assert.Equal(t, "orders", src.Name)
	_, ok := registry.Source(src.ID)
	assert.True(t, ok)
	assert.FileExists(t, filepath.Join(dir, ProcessedDir, "orders.csv"))
	assert.NoFileExists(t, good)

	bad := writeFile(t, dir, "broken.json", `{"a":`)
	_, err = w.ProcessFile(context.Background(), bad)
	assert.ErrorIs(t, err, dashboard.ErrIngestion)
	assert.FileExists(t, filepath.Join(dir, FailedDir, "broken.json"))
	assert.Len(t, registry.ListSources(), 4)

	src, err = w.ProcessFile(context.Background(), filepath.Join(dir, "gone.csv"))
	require.NoError(t, err)
	assert.Empty(t, src.ID)
}

func TestProcessFileKeepsEarlierCopies(t *testing.T) {
	dir := t.TempDir()
	registry := dashboard.NewSourceRegistry(dashboard.SourceRegistryOptions{})
	w, err := New(Options{Dir: dir, Importer: registry})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := w.ProcessFile(context.Background(), writeFile(t, dir, "daily.json", `[{"n":1}]`))
		require.NoError(t, err)
	}
	entries, err := os.ReadDir(filepath.Join(dir, ProcessedDir))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRunImportsExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "existing.csv", "a\n1\n")
	writeFile(t, dir, "notes.txt", "ignored")

	registry := dashboard.NewSourceRegistry(dashboard.SourceRegistryOptions{})
	var (
		mu       sync.Mutex
		imported []string
	)
	w, err := New(Options{
		Dir:      dir,
		Importer: registry,
		Settle:   20 * time.Millisecond,
		OnImport: func(src dashboard.DataSource) {
			mu.Lock()
			defer mu.Unlock()
			imported = append(imported, src.Name)
		},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	names := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), imported...)
	}
	require.Eventually(t, func() bool { return len(names()) == 1 }, 2*time.Second, 10*time.Millisecond)

	writeFile(t, dir, "dropped.json", `[{"visits":3}]`)
	require.Eventually(t, func() bool { return len(names()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{"existing", "dropped"}, names())
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not stop")
	}
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.CSV"))
	assert.True(t, Supported("book.xlsx"))
	assert.False(t, Supported("notes.txt"))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
