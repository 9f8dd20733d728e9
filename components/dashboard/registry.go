package dashboard

import (
	"fmt"
	"sync"
)

// WidgetHook lets packages register widgets/providers during init().
type WidgetHook func(reg *Registry) error

var (
	globalHookMu sync.Mutex
	globalHooks  []WidgetHook
)

// RegisterWidgetHook registers a hook executed against new registries.
func RegisterWidgetHook(h WidgetHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

// Registry implements ProviderRegistry for the closed set of widget types.
type Registry struct {
	mu          sync.RWMutex
	definitions map[WidgetType]WidgetDefinition
	providers   map[WidgetType]Provider
}

// NewRegistry builds a registry holding the built-in definitions and
// providers, then applies global hooks.
func NewRegistry() *Registry {
	reg := &Registry{
		definitions: map[WidgetType]WidgetDefinition{},
		providers:   map[WidgetType]Provider{},
	}
	reg.registerDefaults()
	_ = reg.ApplyHooks()
	return reg
}

func (r *Registry) registerDefaults() {
	for _, def := range DefaultWidgetDefinitions() {
		_ = r.RegisterDefinition(def)
		if provider := defaultProvider(def.Type); provider != nil {
			_ = r.RegisterProvider(def.Type, provider)
		}
	}
}

// ApplyHooks executes registered widget hooks.
func (r *Registry) ApplyHooks() error {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	for _, hook := range globalHooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDefinition stores widget metadata. Only the four supported widget
// types are accepted.
func (r *Registry) RegisterDefinition(def WidgetDefinition) error {
	if !def.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidWidgetType, def.Type)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.Type] = def
	return nil
}

// RegisterProvider associates a provider implementation with a definition.
func (r *Registry) RegisterProvider(widgetType WidgetType, provider Provider) error {
	if provider == nil {
		return fmt.Errorf("provider cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.definitions[widgetType]; !ok {
		return fmt.Errorf("widget definition %s not found", widgetType)
	}
	r.providers[widgetType] = provider
	return nil
}

// Definition fetches a widget definition by type.
func (r *Registry) Definition(widgetType WidgetType) (WidgetDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[widgetType]
	return def, ok
}

// Provider fetches a widget provider by type.
func (r *Registry) Provider(widgetType WidgetType) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[widgetType]
	return provider, ok
}

// Definitions returns all registered definitions in catalog order.
func (r *Registry) Definitions() []WidgetDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]WidgetDefinition, 0, len(r.definitions))
	for _, t := range widgetTypes {
		if def, ok := r.definitions[t]; ok {
			defs = append(defs, def)
		}
	}
	return defs
}
