// Package remote fetches tabular JSON from HTTP endpoints and registers it
// as dashboard data sources.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	dashboard "github.com/goliatone/go-dashboard-builder/components/dashboard"
)

// maxBodyBytes bounds how much of a response is parsed.
const maxBodyBytes = 16 << 20

// Config configures the HTTP client.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client fetches rows in the JSON ingestion format: an array of objects or
// a single object.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient builds a client. BaseURL may be empty when callers pass
// absolute endpoints.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}
}

// FetchRows downloads endpoint and parses the body like a JSON upload.
func (c *Client) FetchRows(ctx context.Context, endpoint string) (dashboard.ParsedTable, error) {
	url := c.url(endpoint)
	if url == "" {
		return dashboard.ParsedTable{}, fmt.Errorf("remote: endpoint is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return dashboard.ParsedTable{}, fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return dashboard.ParsedTable{}, fmt.Errorf("remote: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(io.LimitReader(resp.Body, 4<<10))
		return dashboard.ParsedTable{}, fmt.Errorf("remote: remote error %d: %s", resp.StatusCode, strings.TrimSpace(buf.String()))
	}
	table, err := dashboard.ParseJSON(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return dashboard.ParsedTable{}, fmt.Errorf("remote: %s: %w", url, err)
	}
	return table, nil
}

func (c *Client) url(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if c.baseURL == "" || endpoint == "" {
		return ""
	}
	return c.baseURL + "/" + strings.TrimPrefix(endpoint, "/")
}

// TableAdder registers parsed tables. dashboard.SourceRegistry implements it.
type TableAdder interface {
	AddTable(ctx context.Context, name string, table dashboard.ParsedTable) (dashboard.DataSource, error)
}

// Import fetches endpoint and registers the rows as a new source. The
// registry is untouched when the fetch or parse fails.
func (c *Client) Import(ctx context.Context, sources TableAdder, name, endpoint string) (dashboard.DataSource, error) {
	table, err := c.FetchRows(ctx, endpoint)
	if err != nil {
		return dashboard.DataSource{}, err
	}
	if strings.TrimSpace(name) == "" {
		name = endpoint
	}
	return sources.AddTable(ctx, name, table)
}
