package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDefaults(t *testing.T) {
	reg := NewRegistry()
	defs := reg.Definitions()
	require.Len(t, defs, 4)
	assert.Equal(t, WidgetBarChart, defs[0].Type)
	assert.Equal(t, WidgetTable, defs[3].Type)
	for _, def := range defs {
		_, ok := reg.Provider(def.Type)
		assert.True(t, ok, def.Type)
	}
}

func TestRegistryRejectsUnknownTypes(t *testing.T) {
	reg := NewRegistry()
	err := reg.RegisterDefinition(WidgetDefinition{Type: "gauge"})
	require.ErrorIs(t, err, ErrInvalidWidgetType)

	err = reg.RegisterProvider("gauge", ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) {
		return nil, nil
	}))
	require.Error(t, err)
	require.Error(t, reg.RegisterProvider(WidgetKPI, nil))
}

func TestRegistryOverridesProvider(t *testing.T) {
	reg := NewRegistry()
	custom := ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) {
		return WidgetData{"custom": true}, nil
	})
	require.NoError(t, reg.RegisterProvider(WidgetKPI, custom))

	provider, ok := reg.Provider(WidgetKPI)
	require.True(t, ok)
	data, err := provider.Fetch(context.Background(), WidgetContext{})
	require.NoError(t, err)
	assert.Equal(t, true, data["custom"])
}

func TestRegistryAppliesWidgetHooks(t *testing.T) {
	globalHookMu.Lock()
	saved := globalHooks
	globalHookMu.Unlock()
	t.Cleanup(func() {
		globalHookMu.Lock()
		globalHooks = saved
		globalHookMu.Unlock()
	})

	var calls int
	RegisterWidgetHook(func(reg *Registry) error {
		calls++
		return reg.RegisterProvider(WidgetKPI, ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) {
			return WidgetData{"hooked": true}, nil
		}))
	})

	reg := NewRegistry()
	if calls != 1 {
		t.Fatalf("expected hook to run once, got %d", calls)
	}
	provider, ok := reg.Provider(WidgetKPI)
	require.True(t, ok)
	data, err := provider.Fetch(context.Background(), WidgetContext{})
	require.NoError(t, err)
	assert.Equal(t, true, data["hooked"])
}
