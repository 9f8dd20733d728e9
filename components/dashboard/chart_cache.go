package dashboard

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// RenderCache memoizes rendered chart HTML per widget, series and theme.
type RenderCache interface {
	GetOrRender(key string, render func() (string, error)) (string, error)
}

// ChartCache keeps rendered charts for a fixed TTL. Expired entries are
// swept whenever a new chart is stored, so widgets that were removed or
// rebound do not pin their old HTML.
type ChartCache struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	charts map[string]renderedChart
}

type renderedChart struct {
	html     string
	storedAt time.Time
}

// NewChartCache builds a cache. A TTL <= 0 turns caching off.
func NewChartCache(ttl time.Duration) *ChartCache {
	return &ChartCache{ttl: ttl, now: time.Now, charts: map[string]renderedChart{}}
}

// GetOrRender serves a live entry or renders, stores and returns a new one.
// Render errors are not cached.
func (c *ChartCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if c == nil || c.ttl <= 0 {
		return render()
	}
	c.mu.Lock()
	chart, ok := c.charts[key]
	c.mu.Unlock()
	if ok && c.live(chart) {
		return chart.html, nil
	}

	html, err := render()
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.sweepLocked()
	c.charts[key] = renderedChart{html: html, storedAt: c.now()}
	c.mu.Unlock()
	return html, nil
}

// Len reports how many entries are held, expired or not.
func (c *ChartCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.charts)
}

func (c *ChartCache) live(chart renderedChart) bool {
	return c.now().Sub(chart.storedAt) < c.ttl
}

func (c *ChartCache) sweepLocked() {
	for key, chart := range c.charts {
		if !c.live(chart) {
			delete(c.charts, key)
		}
	}
}

// configHash fingerprints the values a chart is rendered from.
func configHash(parts ...any) string {
	if len(parts) == 0 {
		return "empty"
	}
	b, err := json.Marshal(parts)
	if err != nil {
		return "invalid"
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
