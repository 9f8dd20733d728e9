package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// HintRotation is how long each onboarding hint stays on screen.
const HintRotation = 10 * time.Second

// Hint is an onboarding tip shown above the dashboard.
type Hint struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

var defaultHints = []Hint{
	{Title: "Edit Dashboard", Content: "Click 'Edit Dashboard' to rearrange and resize your widgets by dragging them around."},
	{Title: "Add Widgets", Content: "Click 'Add Widget' in the top bar to choose from different visualization types for your data."},
	{Title: "Upload Your Data", Content: "You can upload your own CSV or Excel files to visualize in any widget. Click on a widget's menu and select 'Edit'."},
	{Title: "Custom Dashboard", Content: "Create multiple dashboards from the sidebar to organize different data visualizations."},
}

// HintState is what the presentation layer needs to show a hint.
type HintState struct {
	Dismissed bool  `json:"dismissed"`
	Index     int   `json:"index"`
	Hint      *Hint `json:"hint,omitempty"`
}

// HintStore tracks the permanent dismiss flag of the onboarding hints.
type HintStore struct {
	storage Storage
	logger  *slog.Logger
	hints   []Hint

	mu        sync.RWMutex
	dismissed bool
	loaded    bool
}

// NewHintStore builds a hint store over storage.
func NewHintStore(storage Storage, logger *slog.Logger) *HintStore {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	return &HintStore{
		storage: storage,
		logger:  normalizeLogger(logger),
		hints:   append([]Hint(nil), defaultHints...),
	}
}

// Hints returns the hint list.
func (s *HintStore) Hints() []Hint {
	return append([]Hint(nil), s.hints...)
}

// Dismissed reports whether the user turned hints off.
func (s *HintStore) Dismissed(ctx context.Context) bool {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.dismissed
	}
	s.mu.RUnlock()

	raw, ok, err := s.storage.Get(ctx, StorageKeyHintsDismissed)
	if err != nil {
		s.logger.WarnContext(ctx, "read hint flag", "error", err)
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dismissed = ok && string(raw) == "true"
	s.loaded = true
	return s.dismissed
}

// Dismiss turns hints off permanently.
func (s *HintStore) Dismiss(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dismissed = true
	s.loaded = true
	if err := s.storage.Put(ctx, StorageKeyHintsDismissed, []byte("true")); err != nil {
		return fmt.Errorf("dashboard: persist hint flag: %w", err)
	}
	return nil
}

// State returns the hint to show at now when rotation started at since.
func (s *HintStore) State(ctx context.Context, since, now time.Time) HintState {
	if s.Dismissed(ctx) || len(s.hints) == 0 {
		return HintState{Dismissed: true}
	}
	elapsed := now.Sub(since)
	if elapsed < 0 {
		elapsed = 0
	}
	idx := int(elapsed/HintRotation) % len(s.hints)
	hint := s.hints[idx]
	return HintState{Index: idx, Hint: &hint}
}
