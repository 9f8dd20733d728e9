package dashboard

import (
	"context"
	"time"
)

// Storage is the durable key/value store used for local persistence.
// Implementations must be safe for concurrent use.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// SourceLookup resolves data sources by id. SourceRegistry implements it.
type SourceLookup interface {
	Source(id string) (DataSource, bool)
	Fields(id string) []Field
}

// ProviderRegistry stores widget definitions and the providers that turn a
// bound widget into a presentation payload.
type ProviderRegistry interface {
	RegisterDefinition(def WidgetDefinition) error
	RegisterProvider(widgetType WidgetType, provider Provider) error
	Definition(widgetType WidgetType) (WidgetDefinition, bool)
	Provider(widgetType WidgetType) (Provider, bool)
	Definitions() []WidgetDefinition
}

// RefreshHook notifies transports (REST/WebSocket) about state changes.
type RefreshHook interface {
	DashboardChanged(ctx context.Context, event ChangeEvent) error
}

// Storage keys shared by the store, the source registry and the hint store.
const (
	StorageKeyDashboards     = "dashboards"
	StorageKeyDataSources    = "dataSources"
	StorageKeyHintsDismissed = "dashboard-hints-dismissed"
)

// SourceKind tags the origin of a data source.
type SourceKind string

const (
	SourceKindCSV   SourceKind = "csv"
	SourceKindExcel SourceKind = "excel"
	SourceKindJSON  SourceKind = "json"
	SourceKindDemo  SourceKind = "demo"
)

// Row maps a field name to a scalar (string, float64, bool or nil).
type Row map[string]any

// DataSource is a named tabular dataset. Columns keeps the import order of
// the fields since Row carries none.
type DataSource struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Kind    SourceKind `json:"type"`
	AddedAt time.Time  `json:"dateAdded"`
	Columns []string   `json:"columns,omitempty"`
	Rows    []Row      `json:"data"`
}

// FieldType is the scalar type inferred for a field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date"
	FieldUnknown FieldType = "unknown"
)

// Field is a derived column descriptor.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// WidgetPosition is a grid cell coordinate plus span.
type WidgetPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Dashboard is a named, ordered collection of widgets.
type Dashboard struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Widgets []Widget `json:"widgets"`
}

// WidgetDefinition describes a widget kind in the catalog.
type WidgetDefinition struct {
	Type         WidgetType     `json:"type" yaml:"type"`
	Name         string         `json:"name" yaml:"name"`
	DefaultTitle string         `json:"default_title" yaml:"default_title"`
	Description  string         `json:"description" yaml:"description"`
	Category     string         `json:"category" yaml:"category"`
	Schema       map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// ChangeEvent describes changes that transports might care about.
type ChangeEvent struct {
	Reason      string `json:"reason"`
	DashboardID string `json:"dashboard_id,omitempty"`
	WidgetID    string `json:"widget_id,omitempty"`
	SourceID    string `json:"source_id,omitempty"`
}

// Change reasons emitted through RefreshHook.
const (
	ReasonWidgetAdded      = "widget.add"
	ReasonWidgetRemoved    = "widget.remove"
	ReasonWidgetUpdated    = "widget.update"
	ReasonWidgetMoved      = "widget.move"
	ReasonDashboardCreated = "dashboard.create"
	ReasonDashboardSwitch  = "dashboard.switch"
	ReasonSourceAdded      = "source.add"
	ReasonSourceRemoved    = "source.remove"
	ReasonRefresh          = "dashboard.refresh"
)
