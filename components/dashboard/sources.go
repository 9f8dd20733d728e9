package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

var (
	ErrProtectedSource = errors.New("dashboard: demo sources cannot be modified")
	ErrDuplicateSource = errors.New("dashboard: data source id already exists")
	errMissingSourceID = errors.New("dashboard: data source id is required")
)

// SourceRegistryOptions configures a SourceRegistry.
type SourceRegistryOptions struct {
	Storage     Storage
	RefreshHook RefreshHook
	Telemetry   Telemetry
	Logger      *slog.Logger
	Now         func() time.Time
}

// SourceRegistry holds the demo sources plus user-imported sources and
// persists the user sources under StorageKeyDataSources.
type SourceRegistry struct {
	opts SourceRegistryOptions

	mu   sync.RWMutex
	demo []DataSource
	user []DataSource
}

// NewSourceRegistry seeds the demo sources. Call Load to restore user sources.
func NewSourceRegistry(opts SourceRegistryOptions) *SourceRegistry {
	if opts.Storage == nil {
		opts.Storage = NewMemoryStorage()
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	opts.Logger = normalizeLogger(opts.Logger)
	return &SourceRegistry{
		opts: opts,
		demo: DemoSources(opts.Now().UTC()),
	}
}

// Load restores persisted user sources. Stored demo entries are ignored.
func (r *SourceRegistry) Load(ctx context.Context) error {
	raw, ok, err := r.opts.Storage.Get(ctx, StorageKeyDataSources)
	if err != nil {
		return fmt.Errorf("dashboard: load data sources: %w", err)
	}
	if !ok || len(raw) == 0 {
		return nil
	}
	var stored []DataSource
	if err := json.Unmarshal(raw, &stored); err != nil {
		return fmt.Errorf("dashboard: decode data sources: %w", err)
	}
	user := make([]DataSource, 0, len(stored))
	seen := map[string]struct{}{}
	for _, src := range stored {
		if src.Kind == SourceKindDemo || IsDemoSource(src.ID) || src.ID == "" {
			continue
		}
		if _, dup := seen[src.ID]; dup {
			continue
		}
		seen[src.ID] = struct{}{}
		if len(src.Columns) == 0 {
			src.Columns = columnsFromRows(src.Rows)
		}
		if src.Rows == nil {
			src.Rows = []Row{}
		}
		user = append(user, src)
	}
	r.mu.Lock()
	r.user = user
	r.mu.Unlock()
	r.opts.Telemetry.Record(ctx, "dashboard.sources.load", map[string]any{"count": len(user)})
	return nil
}

// ListSources returns demo sources first, then user sources in insertion order.
func (r *SourceRegistry) ListSources() []DataSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DataSource, 0, len(r.demo)+len(r.user))
	for _, src := range r.demo {
		out = append(out, src.Clone())
	}
	for _, src := range r.user {
		out = append(out, src.Clone())
	}
	return out
}

// Source returns a copy of the source with the given id.
func (r *SourceRegistry) Source(id string) (DataSource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.lookup(id)
	if !ok {
		return DataSource{}, false
	}
	return src.Clone(), true
}

// Fields infers the field list of a source. Unknown ids yield an empty list.
func (r *SourceRegistry) Fields(id string) []Field {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.lookup(id)
	if !ok {
		return []Field{}
	}
	return InferFields(src)
}

func (r *SourceRegistry) lookup(id string) (DataSource, bool) {
	for _, src := range r.demo {
		if src.ID == id {
			return src, true
		}
	}
	for _, src := range r.user {
		if src.ID == id {
			return src, true
		}
	}
	return DataSource{}, false
}

// AddSource appends a user source and persists the user list.
func (r *SourceRegistry) AddSource(ctx context.Context, src DataSource) error {
	if src.ID == "" {
		return errMissingSourceID
	}
	_, err := r.add(ctx, src, false)
	return err
}

func (r *SourceRegistry) add(ctx context.Context, src DataSource, assignID bool) (DataSource, error) {
	if src.Kind == SourceKindDemo || IsDemoSource(src.ID) {
		return DataSource{}, ErrProtectedSource
	}
	src = src.Clone()
	if src.Rows == nil {
		src.Rows = []Row{}
	}
	if len(src.Columns) == 0 {
		src.Columns = columnsFromRows(src.Rows)
	}
	if src.AddedAt.IsZero() {
		src.AddedAt = r.opts.Now().UTC()
	}
	r.mu.Lock()
	if assignID {
		src.ID = r.nextIDLocked()
	} else if _, exists := r.lookup(src.ID); exists {
		r.mu.Unlock()
		return DataSource{}, fmt.Errorf("%w: %s", ErrDuplicateSource, src.ID)
	}
	r.user = append(r.user, src)
	r.persistLocked(ctx)
	r.mu.Unlock()

	r.notify(ctx, ChangeEvent{Reason: ReasonSourceAdded, SourceID: src.ID})
	r.opts.Telemetry.Record(ctx, "dashboard.source.add", map[string]any{
		"source_id": src.ID,
		"kind":      string(src.Kind),
		"rows":      len(src.Rows),
	})
	return src.Clone(), nil
}

// RemoveSource deletes a user source. Demo and unknown ids return false.
func (r *SourceRegistry) RemoveSource(ctx context.Context, id string) bool {
	if IsDemoSource(id) {
		return false
	}
	r.mu.Lock()
	idx := slices.IndexFunc(r.user, func(src DataSource) bool { return src.ID == id })
	if idx < 0 {
		r.mu.Unlock()
		return false
	}
	r.user = slices.Delete(r.user, idx, idx+1)
	r.persistLocked(ctx)
	r.mu.Unlock()

	r.notify(ctx, ChangeEvent{Reason: ReasonSourceRemoved, SourceID: id})
	r.opts.Telemetry.Record(ctx, "dashboard.source.remove", map[string]any{"source_id": id})
	return true
}

// ImportRequest carries a raw file for ingestion.
type ImportRequest struct {
	FileName string
	// Name overrides the display name. Defaults to the file base name.
	Name   string
	Reader io.Reader
}

// Import parses a file and registers it as a new user source. The registry
// is untouched when parsing fails.
func (r *SourceRegistry) Import(ctx context.Context, req ImportRequest) (DataSource, error) {
	if req.Reader == nil {
		return DataSource{}, fmt.Errorf("%w: no file content", ErrIngestion)
	}
	table, err := ParseFile(req.FileName, req.Reader)
	if err != nil {
		r.opts.Telemetry.Record(ctx, "dashboard.source.import_error", map[string]any{
			"file":  req.FileName,
			"error": err.Error(),
		})
		return DataSource{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		base := filepath.Base(req.FileName)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return r.AddTable(ctx, name, table)
}

// AddTable registers a parsed table under a freshly generated id.
func (r *SourceRegistry) AddTable(ctx context.Context, name string, table ParsedTable) (DataSource, error) {
	return r.add(ctx, DataSource{
		Name:    name,
		Kind:    table.Kind,
		AddedAt: r.opts.Now().UTC(),
		Columns: table.Columns,
		Rows:    table.Rows,
	}, true)
}

// nextIDLocked returns user-source-<unix millis>, suffixed when already taken.
func (r *SourceRegistry) nextIDLocked() string {
	base := fmt.Sprintf("user-source-%d", r.opts.Now().UnixMilli())
	id := base
	for n := 1; ; n++ {
		if _, taken := r.lookup(id); !taken {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}

func (r *SourceRegistry) persistLocked(ctx context.Context) {
	data, err := json.Marshal(r.user)
	if err == nil {
		err = r.opts.Storage.Put(ctx, StorageKeyDataSources, data)
	}
	if err != nil {
		r.opts.Logger.ErrorContext(ctx, "persist data sources", "error", err)
		r.opts.Telemetry.Record(ctx, "dashboard.sources.persist_error", map[string]any{"error": err.Error()})
	}
}

func (r *SourceRegistry) notify(ctx context.Context, event ChangeEvent) {
	if err := r.opts.RefreshHook.DashboardChanged(ctx, event); err != nil {
		r.opts.Logger.WarnContext(ctx, "refresh hook failed", "reason", event.Reason, "error", err)
	}
}

// Clone returns a deep copy of the source rows and columns.
func (s DataSource) Clone() DataSource {
	s.Columns = slices.Clone(s.Columns)
	if s.Rows != nil {
		rows := make([]Row, len(s.Rows))
		for i, row := range s.Rows {
			rows[i] = maps.Clone(row)
		}
		s.Rows = rows
	}
	return s
}

func columnsFromRows(rows []Row) []string {
	var columns []string
	seen := map[string]struct{}{}
	for _, row := range rows {
		keys := slices.Sorted(maps.Keys(row))
		for _, k := range keys {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				columns = append(columns, k)
			}
		}
	}
	return columns
}
