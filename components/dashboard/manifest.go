package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// DashboardManifest is a YAML document describing dashboards to seed or
// export.
type DashboardManifest struct {
	Version    string              `json:"version" yaml:"version"`
	Dashboards []ManifestDashboard `json:"dashboards" yaml:"dashboards"`
	Source     string              `json:"-" yaml:"-"`
}

// ManifestDashboard describes one dashboard within a manifest.
type ManifestDashboard struct {
	Name    string           `json:"name" yaml:"name"`
	Widgets []ManifestWidget `json:"widgets" yaml:"widgets"`
}

// ManifestWidget describes a single widget entry. Config uses the same keys
// as the JSON persistence format.
type ManifestWidget struct {
	Type     WidgetType      `json:"type" yaml:"type"`
	Title    string          `json:"title,omitempty" yaml:"title,omitempty"`
	Position *WidgetPosition `json:"position,omitempty" yaml:"position,omitempty"`
	Config   map[string]any  `json:"config,omitempty" yaml:"config,omitempty"`
}

// ReadManifest loads a manifest file from disk without applying it.
func ReadManifest(path string) (*DashboardManifest, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*DashboardManifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc DashboardManifest
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("dashboard: manifest is empty")
		}
		return nil, fmt.Errorf("dashboard: parse manifest: %w", err)
	}
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// EncodeManifest writes doc as YAML.
func EncodeManifest(w io.Writer, doc *DashboardManifest) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("dashboard: encode manifest: %w", err)
	}
	return encoder.Close()
}

// Validate ensures the manifest satisfies required fields.
func (doc *DashboardManifest) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("dashboard: unsupported manifest version %q", doc.Version)
	}
	for i, d := range doc.Dashboards {
		if d.Name == "" {
			return fmt.Errorf("dashboard: manifest dashboard at index %d is missing name", i)
		}
		for j, w := range d.Widgets {
			if !w.Type.Valid() {
				return fmt.Errorf("dashboard: manifest dashboard %q widget %d: %w: %q", d.Name, j, ErrInvalidWidgetType, w.Type)
			}
			if _, err := w.config(); err != nil {
				return fmt.Errorf("dashboard: manifest dashboard %q widget %d: %w", d.Name, j, err)
			}
		}
	}
	return nil
}

func (w ManifestWidget) config() (WidgetConfig, error) {
	if w.Config == nil {
		return nil, nil
	}
	raw, err := json.Marshal(w.Config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return DecodeConfig(w.Type, raw)
}

// ExportManifest describes every dashboard of the store.
func ExportManifest(store *Store) *DashboardManifest {
	doc := &DashboardManifest{Version: manifestVersionV1}
	for _, d := range store.Dashboards() {
		md := ManifestDashboard{Name: d.Name, Widgets: make([]ManifestWidget, 0, len(d.Widgets))}
		for _, w := range d.Widgets {
			pos := w.Position
			md.Widgets = append(md.Widgets, ManifestWidget{
				Type:     w.Type,
				Title:    w.Title,
				Position: &pos,
				Config:   configMap(w.Config),
			})
		}
		doc.Dashboards = append(doc.Dashboards, md)
	}
	return doc
}

func configMap(cfg WidgetConfig) map[string]any {
	if cfg == nil {
		return nil
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// ApplyManifest creates each manifest dashboard in store and fills it with
// its widgets. The last created dashboard stays current. Widgets failing
// validation are skipped and reported in the joined error.
func ApplyManifest(ctx context.Context, store *Store, doc *DashboardManifest) ([]Dashboard, error) {
	if store == nil {
		return nil, errors.New("dashboard: store is required to apply manifest")
	}
	if doc == nil {
		return nil, fmt.Errorf("dashboard: manifest document is nil")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	var (
		created  []Dashboard
		applyErr error
	)
	for _, md := range doc.Dashboards {
		d := store.CreateDashboard(ctx, md.Name)
		for _, mw := range md.Widgets {
			cfg, _ := mw.config()
			w, err := store.AddWidget(ctx, AddWidgetRequest{Type: mw.Type, Title: mw.Title, Config: cfg})
			if err != nil {
				applyErr = errors.Join(applyErr, fmt.Errorf("dashboard %q widget %q: %w", md.Name, mw.Title, err))
				continue
			}
			if mw.Position != nil {
				store.UpdateWidgetPosition(ctx, w.ID, *mw.Position)
			}
		}
		if full, ok := store.Dashboard(d.ID); ok {
			d = full
		}
		created = append(created, d)
	}
	return created, applyErr
}
