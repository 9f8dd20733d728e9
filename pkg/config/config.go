// Package config loads the dashboard server configuration from YAML with
// DASHBOARD_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-dashboard-builder/pkg/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DASHBOARD_"

// Config is the full server configuration.
type Config struct {
	Storage StorageConfig  `yaml:"storage"`
	Log     logging.Config `yaml:"log"`
	HTTP    HTTPConfig     `yaml:"http"`
	Inbox   InboxConfig    `yaml:"inbox"`
	Charts  ChartsConfig   `yaml:"charts"`
	Seed    string         `yaml:"seed"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// HTTPConfig configures the listener.
type HTTPConfig struct {
	Addr     string `yaml:"addr"`
	BasePath string `yaml:"base_path"`
	Router   string `yaml:"router"`
}

// InboxConfig names a directory watched for files to import.
type InboxConfig struct {
	Dir string `yaml:"dir"`
}

// ChartsConfig tunes the chart renderer.
type ChartsConfig struct {
	Theme      string        `yaml:"theme"`
	AssetsHost string        `yaml:"assets_host"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Storage: StorageConfig{Driver: "file", Path: ".dashboard"},
		Log:     logging.Config{Level: "info"},
		HTTP:    HTTPConfig{Addr: ":8080", Router: "chi"},
		Charts:  ChartsConfig{CacheTTL: 5 * time.Minute},
	}
}

// Load reads path (optional) over the defaults and applies environment
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path) //nolint:gosec
		if err != nil {
			return Config{}, fmt.Errorf("config: open %s: %w", path, err)
		}
		defer f.Close()
		if err := Decode(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Decode reads YAML into cfg, rejecting unknown keys. Empty input leaves
// cfg untouched.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg from DASHBOARD_* variables.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"STORAGE_DRIVER":    &cfg.Storage.Driver,
		"STORAGE_PATH":      &cfg.Storage.Path,
		"LOG_LEVEL":         &cfg.Log.Level,
		"LOG_FORMAT":        &cfg.Log.Format,
		"LOG_FILE":          &cfg.Log.File,
		"HTTP_ADDR":         &cfg.HTTP.Addr,
		"HTTP_BASE_PATH":    &cfg.HTTP.BasePath,
		"HTTP_ROUTER":       &cfg.HTTP.Router,
		"INBOX_DIR":         &cfg.Inbox.Dir,
		"CHART_THEME":       &cfg.Charts.Theme,
		"CHART_ASSETS_HOST": &cfg.Charts.AssetsHost,
		"SEED":              &cfg.Seed,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	if v, ok := lookup(EnvPrefix + "CHART_CACHE_TTL"); ok {
		ttl, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %sCHART_CACHE_TTL: %w", EnvPrefix, err)
		}
		cfg.Charts.CacheTTL = ttl
	}
	return nil
}

// parseDuration accepts Go durations or a bare number of seconds.
func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case "memory", "file", "sqlite":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver != "memory" && c.Storage.Path == "" {
		return fmt.Errorf("config: storage path is required for driver %q", c.Storage.Driver)
	}
	switch strings.ToLower(c.HTTP.Router) {
	case "", "chi", "fiber":
	default:
		return fmt.Errorf("config: unknown http router %q", c.HTTP.Router)
	}
	if c.Charts.CacheTTL < 0 {
		return errors.New("config: chart cache ttl must not be negative")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
