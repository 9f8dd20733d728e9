package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	dashboard "github.com/goliatone/go-dashboard-builder/components/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFetchRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metrics/daily" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("expected auth header, got %s", got)
		}
		w.Write([]byte(`[{"day":"Mon","visits":10},{"day":"Tue","visits":12,"bounce":0.4}]`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL + "/", APIKey: "secret"})
	table, err := client.FetchRows(context.Background(), "/metrics/daily")
	require.NoError(t, err)
	assert.Equal(t, dashboard.SourceKindJSON, table.Kind)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, 12.0, table.Rows[1]["visits"])
}

func TestClientFetchRowsErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/broken":
			http.Error(w, "boom", http.StatusBadGateway)
		default:
			w.Write([]byte(`[1, 2]`))
		}
	}))
	t.Cleanup(server.Close)
	client := NewClient(Config{BaseURL: server.URL})

	_, err := client.FetchRows(context.Background(), "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")

	_, err = client.FetchRows(context.Background(), "numbers")
	assert.True(t, errors.Is(err, dashboard.ErrIngestion), "got %v", err)

	_, err = NewClient(Config{}).FetchRows(context.Background(), "relative")
	assert.Error(t, err)
}

func TestClientImport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"region":"north","total":42}`))
	}))
	t.Cleanup(server.Close)

	registry := dashboard.NewSourceRegistry(dashboard.SourceRegistryOptions{})
	client := NewClient(Config{})
	src, err := client.Import(context.Background(), registry, "", server.URL+"/totals")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/totals", src.Name)
	assert.Len(t, src.Rows, 1)

	got, ok := registry.Source(src.ID)
	require.True(t, ok)
	assert.Equal(t, 42.0, got.Rows[0]["total"])
}
