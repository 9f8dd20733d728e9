package kvstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-dashboard-builder/components/dashboard"
)

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the storage backend named by driver. The closer releases the
// backend and is never nil.
func Open(ctx context.Context, driver, path string) (dashboard.Storage, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return dashboard.NewMemoryStorage(), nopCloser{}, nil
	case DriverFile:
		s, err := NewFileStorage(path)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil
	case DriverSQLite:
		s, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("kvstore: unknown storage driver %q", driver)
	}
}
