package dashboard

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceRegistryListsDemoSourcesFirst(t *testing.T) {
	reg := NewSourceRegistry(SourceRegistryOptions{Now: fixedClock(time.Unix(1700000000, 0))})
	_, err := reg.AddTable(context.Background(), "Leads", ParsedTable{
		Kind:    SourceKindCSV,
		Columns: []string{"name"},
		Rows:    []Row{{"name": "Ada"}},
	})
	require.NoError(t, err)

	sources := reg.ListSources()
	require.Len(t, sources, 4)
	assert.Equal(t, DemoSalesID, sources[0].ID)
	assert.Equal(t, DemoTrafficID, sources[1].ID)
	assert.Equal(t, DemoPerformanceID, sources[2].ID)
	assert.Equal(t, "user-source-1700000000000", sources[3].ID)
}

func TestSourceRegistryImportCSV(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	hook := &recordingHook{}
	reg := NewSourceRegistry(SourceRegistryOptions{
		Storage:     storage,
		RefreshHook: hook,
		Now:         fixedClock(time.UnixMilli(42)),
	})

	src, err := reg.Import(ctx, ImportRequest{
		FileName: "q1-leads.csv",
		Reader:   strings.NewReader("region,deals\nNorth,12\nSouth,7\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, "user-source-42", src.ID)
	assert.Equal(t, "q1-leads", src.Name)
	assert.Equal(t, SourceKindCSV, src.Kind)
	assert.Equal(t, []Field{{Name: "region", Type: FieldString}, {Name: "deals", Type: FieldNumber}}, reg.Fields(src.ID))
	assert.Equal(t, []string{ReasonSourceAdded}, hook.reasons())

	raw, ok, err := storage.Get(ctx, StorageKeyDataSources)
	require.NoError(t, err)
	require.True(t, ok)
	var persisted []DataSource
	require.NoError(t, json.Unmarshal(raw, &persisted))
	require.Len(t, persisted, 1)
	assert.Equal(t, src.ID, persisted[0].ID)
}

func TestSourceRegistryImportFailureLeavesRegistryUntouched(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	reg := NewSourceRegistry(SourceRegistryOptions{Storage: storage})

	_, err := reg.Import(ctx, ImportRequest{FileName: "notes.txt", Reader: strings.NewReader("hello")})
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = reg.Import(ctx, ImportRequest{FileName: "bad.json", Reader: strings.NewReader("[1,2]")})
	require.ErrorIs(t, err, ErrIngestion)

	assert.Len(t, reg.ListSources(), 3)
	assert.Empty(t, storage.Keys())
}

func TestSourceRegistryGeneratesUniqueIDsWithinSameMillisecond(t *testing.T) {
	ctx := context.Background()
	reg := NewSourceRegistry(SourceRegistryOptions{Now: fixedClock(time.UnixMilli(7))})
	table := ParsedTable{Kind: SourceKindJSON, Columns: []string{"a"}, Rows: []Row{{"a": 1.0}}}

	first, err := reg.AddTable(ctx, "one", table)
	require.NoError(t, err)
	second, err := reg.AddTable(ctx, "two", table)
	require.NoError(t, err)

	assert.Equal(t, "user-source-7", first.ID)
	assert.Equal(t, "user-source-7-1", second.ID)
}

func TestSourceRegistryProtectsDemoSources(t *testing.T) {
	ctx := context.Background()
	reg := NewSourceRegistry(SourceRegistryOptions{})

	assert.False(t, reg.RemoveSource(ctx, DemoSalesID))
	err := reg.AddSource(ctx, DataSource{ID: DemoTrafficID, Name: "Shadow"})
	require.ErrorIs(t, err, ErrProtectedSource)
	_, ok := reg.Source(DemoSalesID)
	assert.True(t, ok)
}

func TestSourceRegistryRemoveSource(t *testing.T) {
	ctx := context.Background()
	hook := &recordingHook{}
	reg := NewSourceRegistry(SourceRegistryOptions{RefreshHook: hook})
	require.NoError(t, reg.AddSource(ctx, DataSource{ID: "crm", Name: "CRM", Kind: SourceKindJSON}))

	err := reg.AddSource(ctx, DataSource{ID: "crm", Name: "Again"})
	require.ErrorIs(t, err, ErrDuplicateSource)

	assert.True(t, reg.RemoveSource(ctx, "crm"))
	assert.False(t, reg.RemoveSource(ctx, "crm"))
	_, ok := reg.Source("crm")
	assert.False(t, ok)
	assert.Empty(t, reg.Fields("crm"))
	assert.Equal(t, []string{ReasonSourceAdded, ReasonSourceRemoved}, hook.reasons())
}

func TestSourceRegistryLoadSkipsDemoEntries(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	stored := []DataSource{
		{ID: DemoSalesID, Name: "stale", Kind: SourceKindDemo},
		{ID: "user-source-1", Name: "Uploads", Kind: SourceKindCSV, Rows: []Row{{"b": 1.0, "a": "x"}}},
	}
	raw, err := json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, storage.Put(ctx, StorageKeyDataSources, raw))

	reg := NewSourceRegistry(SourceRegistryOptions{Storage: storage})
	require.NoError(t, reg.Load(ctx))

	sources := reg.ListSources()
	require.Len(t, sources, 4)
	assert.Equal(t, "Sales Data (Demo)", sources[0].Name)
	assert.Equal(t, []string{"a", "b"}, sources[3].Columns)
}

func TestSourceRegistryLoadCorruptState(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Put(ctx, StorageKeyDataSources, []byte("[{")))

	reg := NewSourceRegistry(SourceRegistryOptions{Storage: storage})
	require.Error(t, reg.Load(ctx))
	assert.Len(t, reg.ListSources(), 3)
}

func TestSourceRegistryReturnsCopies(t *testing.T) {
	reg := NewSourceRegistry(SourceRegistryOptions{})
	src, ok := reg.Source(DemoSalesID)
	require.True(t, ok)
	src.Rows[0]["month"] = "changed"

	again, _ := reg.Source(DemoSalesID)
	assert.Equal(t, "Jan", again.Rows[0]["month"])
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
