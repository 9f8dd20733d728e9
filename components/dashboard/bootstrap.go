package dashboard

import (
	"context"
	"errors"
	"fmt"
)

// LoadState restores the persisted data sources and dashboards. Both loads
// run even when one fails.
func LoadState(ctx context.Context, sources *SourceRegistry, store *Store) error {
	if store == nil {
		return errors.New("dashboard: store is required to load state")
	}
	var loadErr error
	if sources != nil {
		if err := sources.Load(ctx); err != nil {
			loadErr = errors.Join(loadErr, fmt.Errorf("load sources: %w", err))
		}
	}
	if err := store.Load(ctx); err != nil {
		loadErr = errors.Join(loadErr, fmt.Errorf("load dashboards: %w", err))
	}
	return loadErr
}

// SeedFromManifest applies doc only when the store holds no persisted
// dashboards, so the seed runs once per storage.
func SeedFromManifest(ctx context.Context, store *Store, doc *DashboardManifest) (bool, error) {
	if store == nil {
		return false, errors.New("dashboard: store is required to seed dashboards")
	}
	if doc == nil || store.Restored() || len(doc.Dashboards) == 0 {
		return false, nil
	}
	if _, err := ApplyManifest(ctx, store, doc); err != nil {
		return true, err
	}
	return true, nil
}
