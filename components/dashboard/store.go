package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	errMissingWidgetID   = errors.New("dashboard: widget id is required")
	errTypeChange        = fmt.Errorf("%w: widget type cannot change", ErrInvalidConfig)
	errEmptyStoredLayout = errors.New("dashboard: stored dashboards are empty")
)

// Options configures the dashboard Store. Collaborators are interfaces so
// applications can swap storage, data sources and hooks.
type Options struct {
	Storage         Storage
	Sources         SourceLookup
	Providers       ProviderRegistry
	ConfigValidator ConfigValidator
	RefreshHook     RefreshHook
	Telemetry       Telemetry
	Logger          *slog.Logger
	IDGenerator     func() string
}

// Store owns the dashboards, the current dashboard and its widgets. Every
// mutation is written through to Storage under StorageKeyDashboards.
type Store struct {
	opts Options

	mu         sync.RWMutex
	dashboards []Dashboard
	current    string
	restored   bool
}

// NewStore builds a Store holding one empty default dashboard. Call Load to
// restore persisted state.
func NewStore(opts Options) *Store {
	if opts.Storage == nil {
		opts.Storage = NewMemoryStorage()
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Providers == nil {
		opts.Providers = NewRegistry()
	}
	if opts.ConfigValidator == nil {
		opts.ConfigValidator = NewJSONSchemaValidator()
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = uuid.NewString
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	opts.Logger = normalizeLogger(opts.Logger)
	s := &Store{opts: opts}
	s.seedLocked()
	return s
}

func (s *Store) seedLocked() {
	s.restored = false
	s.dashboards = []Dashboard{{ID: DefaultDashboardID, Name: DefaultDashboardName, Widgets: []Widget{}}}
	s.current = DefaultDashboardID
}

// Load restores the persisted dashboards and makes the first one current.
// Missing state keeps the default dashboard. Unreadable state also falls
// back to the default dashboard and the decode error is returned.
func (s *Store) Load(ctx context.Context) error {
	raw, ok, err := s.opts.Storage.Get(ctx, StorageKeyDashboards)
	if err != nil {
		return fmt.Errorf("dashboard: load dashboards: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok || len(raw) == 0 {
		s.seedLocked()
		return nil
	}
	var stored []Dashboard
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.seedLocked()
		return fmt.Errorf("dashboard: decode dashboards: %w", err)
	}
	if len(stored) == 0 {
		s.seedLocked()
		return errEmptyStoredLayout
	}
	for i := range stored {
		if stored[i].Widgets == nil {
			stored[i].Widgets = []Widget{}
		}
		for j := range stored[i].Widgets {
			stored[i].Widgets[j].Position = stored[i].Widgets[j].Position.Normalize()
		}
	}
	s.dashboards = stored
	s.current = stored[0].ID
	s.restored = true
	s.opts.Telemetry.Record(ctx, "dashboard.store.load", map[string]any{"dashboards": len(stored)})
	return nil
}

// Restored reports whether the last Load found persisted dashboards.
func (s *Store) Restored() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restored
}

// Persist writes the full dashboard collection to storage.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writeLocked(ctx)
}

func (s *Store) writeLocked(ctx context.Context) error {
	data, err := json.Marshal(s.dashboards)
	if err != nil {
		return fmt.Errorf("dashboard: encode dashboards: %w", err)
	}
	if err := s.opts.Storage.Put(ctx, StorageKeyDashboards, data); err != nil {
		return fmt.Errorf("dashboard: store dashboards: %w", err)
	}
	return nil
}

// persistLocked is the write-through path. Failures are logged and the
// in-memory state stays authoritative.
func (s *Store) persistLocked(ctx context.Context) {
	if err := s.writeLocked(ctx); err != nil {
		s.opts.Logger.ErrorContext(ctx, "persist dashboards", "error", err)
		s.recordTelemetry(ctx, "dashboard.store.persist_error", map[string]any{"error": err.Error()})
	}
}

// AddWidgetRequest captures the data required to place a new widget.
type AddWidgetRequest struct {
	Type WidgetType
	// Title defaults to the definition title.
	Title string
	// Config defaults to DefaultConfig(Type).
	Config WidgetConfig
}

// AddWidget appends a widget to the current dashboard at DefaultPosition.
// No collision avoidance is applied.
func (s *Store) AddWidget(ctx context.Context, req AddWidgetRequest) (Widget, error) {
	if !req.Type.Valid() {
		return Widget{}, fmt.Errorf("%w: %q", ErrInvalidWidgetType, req.Type)
	}
	template, err := NewWidgetTemplate(req.Type)
	if err != nil {
		return Widget{}, err
	}
	if def, ok := s.opts.Providers.Definition(req.Type); ok && def.DefaultTitle != "" {
		template.Title = def.DefaultTitle
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		template.Title = title
	}
	if req.Config != nil {
		template.Config = cloneConfig(req.Config)
	}
	if err := s.validate(req.Type, template.Config); err != nil {
		return Widget{}, err
	}
	template.ID = s.opts.IDGenerator()

	s.mu.Lock()
	idx := s.currentIndexLocked()
	s.dashboards[idx].Widgets = append(s.dashboards[idx].Widgets, template)
	dashboardID := s.dashboards[idx].ID
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify(ctx, ChangeEvent{Reason: ReasonWidgetAdded, DashboardID: dashboardID, WidgetID: template.ID})
	s.recordTelemetry(ctx, "dashboard.widget.add", map[string]any{
		"dashboard_id": dashboardID,
		"widget_id":    template.ID,
		"type":         string(req.Type),
	})
	return template.Clone(), nil
}

// RemoveWidget deletes a widget from the current dashboard. Unknown ids are
// a no-op and return false.
func (s *Store) RemoveWidget(ctx context.Context, id string) bool {
	s.mu.Lock()
	idx := s.currentIndexLocked()
	widgets := s.dashboards[idx].Widgets
	pos := slices.IndexFunc(widgets, func(w Widget) bool { return w.ID == id })
	if pos < 0 {
		s.mu.Unlock()
		return false
	}
	s.dashboards[idx].Widgets = slices.Delete(widgets, pos, pos+1)
	dashboardID := s.dashboards[idx].ID
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify(ctx, ChangeEvent{Reason: ReasonWidgetRemoved, DashboardID: dashboardID, WidgetID: id})
	s.recordTelemetry(ctx, "dashboard.widget.remove", map[string]any{"widget_id": id})
	return true
}

// UpdateWidget replaces the title and configuration of the matching widget.
// Id, type and position are never changed by this call. A nil config keeps
// the stored one. A config moved to another data source must only reference
// fields of that source; clear them first or use RebindWidget. Unknown ids
// return false without error.
func (s *Store) UpdateWidget(ctx context.Context, widget Widget) (bool, error) {
	if widget.ID == "" {
		return false, errMissingWidgetID
	}
	existing, ok := s.Widget(widget.ID)
	if !ok {
		return false, nil
	}
	if widget.Type != "" && widget.Type != existing.Type {
		return false, fmt.Errorf("%w: %s to %s", errTypeChange, existing.Type, widget.Type)
	}
	cfg := existing.Config
	if widget.Config != nil {
		cfg = widget.Config
		if err := s.validate(existing.Type, cfg); err != nil {
			return false, err
		}
	}
	title := strings.TrimSpace(widget.Title)
	if title == "" {
		title = existing.Title
	}

	s.mu.Lock()
	idx := s.currentIndexLocked()
	pos := s.widgetIndexLocked(idx, widget.ID)
	if pos < 0 {
		s.mu.Unlock()
		return false, nil
	}
	stored := &s.dashboards[idx].Widgets[pos]
	stored.Title = title
	stored.Config = cloneConfig(cfg)
	dashboardID := s.dashboards[idx].ID
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify(ctx, ChangeEvent{Reason: ReasonWidgetUpdated, DashboardID: dashboardID, WidgetID: widget.ID})
	s.recordTelemetry(ctx, "dashboard.widget.update", map[string]any{"widget_id": widget.ID})
	return true, nil
}

// UpdateWidgetPosition changes only the position of the matching widget.
// The position is clamped to x,y >= 0 and w,h >= 1.
func (s *Store) UpdateWidgetPosition(ctx context.Context, id string, position WidgetPosition) bool {
	position = position.Normalize()
	s.mu.Lock()
	idx := s.currentIndexLocked()
	pos := s.widgetIndexLocked(idx, id)
	if pos < 0 {
		s.mu.Unlock()
		return false
	}
	if s.dashboards[idx].Widgets[pos].Position == position {
		s.mu.Unlock()
		return true
	}
	s.dashboards[idx].Widgets[pos].Position = position
	dashboardID := s.dashboards[idx].ID
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify(ctx, ChangeEvent{Reason: ReasonWidgetMoved, DashboardID: dashboardID, WidgetID: id})
	s.recordTelemetry(ctx, "dashboard.widget.move", map[string]any{
		"widget_id": id,
		"x":         position.X,
		"y":         position.Y,
		"w":         position.W,
		"h":         position.H,
	})
	return true
}

// RebindWidget points a widget at another data source and clears its field
// references.
func (s *Store) RebindWidget(ctx context.Context, id, sourceID string) (Widget, bool, error) {
	existing, ok := s.Widget(id)
	if !ok {
		return Widget{}, false, nil
	}
	cfg, err := RebindDataSource(existing.Config, sourceID)
	if err != nil {
		return Widget{}, false, err
	}
	s.mu.Lock()
	idx := s.currentIndexLocked()
	pos := s.widgetIndexLocked(idx, id)
	if pos < 0 {
		s.mu.Unlock()
		return Widget{}, false, nil
	}
	s.dashboards[idx].Widgets[pos].Config = cfg
	updated := s.dashboards[idx].Widgets[pos].Clone()
	dashboardID := s.dashboards[idx].ID
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify(ctx, ChangeEvent{Reason: ReasonWidgetUpdated, DashboardID: dashboardID, WidgetID: id, SourceID: sourceID})
	s.recordTelemetry(ctx, "dashboard.widget.rebind", map[string]any{
		"widget_id": id,
		"source_id": sourceID,
	})
	return updated, true, nil
}

// CreateDashboard adds an empty dashboard and makes it current.
func (s *Store) CreateDashboard(ctx context.Context, name string) Dashboard {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultDashboardName
	}
	created := Dashboard{ID: s.opts.IDGenerator(), Name: name, Widgets: []Widget{}}
	s.mu.Lock()
	s.dashboards = append(s.dashboards, created)
	s.current = created.ID
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify(ctx, ChangeEvent{Reason: ReasonDashboardCreated, DashboardID: created.ID})
	s.recordTelemetry(ctx, "dashboard.create", map[string]any{"dashboard_id": created.ID})
	return created.Clone()
}

// SwitchDashboard makes the dashboard with the given id current. Unknown ids
// leave the current dashboard unchanged and return false.
func (s *Store) SwitchDashboard(ctx context.Context, id string) bool {
	s.mu.Lock()
	if !slices.ContainsFunc(s.dashboards, func(d Dashboard) bool { return d.ID == id }) {
		s.mu.Unlock()
		return false
	}
	s.current = id
	s.mu.Unlock()

	s.notify(ctx, ChangeEvent{Reason: ReasonDashboardSwitch, DashboardID: id})
	s.recordTelemetry(ctx, "dashboard.switch", map[string]any{"dashboard_id": id})
	return true
}

// Dashboards returns copies of every dashboard in creation order.
func (s *Store) Dashboards() []Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Dashboard, len(s.dashboards))
	for i, d := range s.dashboards {
		out[i] = d.Clone()
	}
	return out
}

// Dashboard returns a copy of the dashboard with the given id.
func (s *Store) Dashboard(id string) (Dashboard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.dashboards {
		if d.ID == id {
			return d.Clone(), true
		}
	}
	return Dashboard{}, false
}

// CurrentDashboard returns a copy of the current dashboard.
func (s *Store) CurrentDashboard() Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dashboards[s.currentIndexLocked()].Clone()
}

// Widgets returns copies of the current dashboard widgets in creation order.
func (s *Store) Widgets() []Widget {
	return s.CurrentDashboard().Widgets
}

// Widget returns a copy of a widget of the current dashboard.
func (s *Store) Widget(id string) (Widget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.currentIndexLocked()
	pos := s.widgetIndexLocked(idx, id)
	if pos < 0 {
		return Widget{}, false
	}
	return s.dashboards[idx].Widgets[pos].Clone(), true
}

// Sources exposes the data source lookup the store validates against.
func (s *Store) Sources() SourceLookup {
	return s.opts.Sources
}

// Providers exposes the definition/provider registry.
func (s *Store) Providers() ProviderRegistry {
	return s.opts.Providers
}

func (s *Store) currentIndexLocked() int {
	for i, d := range s.dashboards {
		if d.ID == s.current {
			return i
		}
	}
	return 0
}

func (s *Store) widgetIndexLocked(dashboardIdx int, id string) int {
	return slices.IndexFunc(s.dashboards[dashboardIdx].Widgets, func(w Widget) bool { return w.ID == id })
}

func (s *Store) validate(widgetType WidgetType, cfg WidgetConfig) error {
	def, ok := s.opts.Providers.Definition(widgetType)
	if !ok {
		def = WidgetDefinition{Type: widgetType}
	}
	if err := s.opts.ConfigValidator.Validate(def, cfg); err != nil {
		return err
	}
	if s.opts.Sources == nil {
		return nil
	}
	return ValidateBinding(cfg, s.opts.Sources.Fields(cfg.DataSourceID()))
}

func (s *Store) notify(ctx context.Context, event ChangeEvent) {
	if err := s.opts.RefreshHook.DashboardChanged(ctx, event); err != nil {
		s.opts.Logger.WarnContext(ctx, "refresh hook failed", "reason", event.Reason, "error", err)
	}
}

func (s *Store) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

type noopRefreshHook struct{}

func (noopRefreshHook) DashboardChanged(context.Context, ChangeEvent) error { return nil }
