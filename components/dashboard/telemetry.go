package dashboard

import (
	"context"
	"log/slog"
	"sync"
)

// Telemetry records dashboard events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

func normalizeLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}

// LogTelemetry writes every event to a structured logger at debug level.
type LogTelemetry struct {
	Logger *slog.Logger
}

// Record implements Telemetry.
func (t LogTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	logger := normalizeLogger(t.Logger)
	attrs := make([]any, 0, len(payload)*2)
	for k, v := range payload {
		attrs = append(attrs, k, v)
	}
	logger.DebugContext(ctx, event, attrs...)
}

// TelemetryEvent is a recorded event.
type TelemetryEvent struct {
	Name    string
	Payload map[string]any
}

// RecordingTelemetry keeps events in memory, mostly for tests and the CLI.
type RecordingTelemetry struct {
	mu     sync.Mutex
	events []TelemetryEvent
}

// Record implements Telemetry.
func (t *RecordingTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, TelemetryEvent{Name: event, Payload: payload})
}

// Events returns a copy of the recorded events.
func (t *RecordingTelemetry) Events() []TelemetryEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TelemetryEvent, len(t.events))
	copy(out, t.events)
	return out
}

// Names lists the recorded event names in order.
func (t *RecordingTelemetry) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, len(t.events))
	for i, e := range t.events {
		names[i] = e.Name
	}
	return names
}
