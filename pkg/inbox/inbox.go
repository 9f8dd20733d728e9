// Package inbox imports data files dropped into a watched directory.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	dashboard "github.com/goliatone/go-dashboard-builder/components/dashboard"
)

// Subdirectories receiving handled files.
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// Importer registers a parsed file. dashboard.SourceRegistry implements it.
type Importer interface {
	Import(ctx context.Context, req dashboard.ImportRequest) (dashboard.DataSource, error)
}

// Options configures a Watcher.
type Options struct {
	Dir      string
	Importer Importer
	Logger   *slog.Logger
	// Settle is how long a file must stay quiet before it is imported.
	Settle time.Duration
	// OnImport runs after each successful import.
	OnImport func(dashboard.DataSource)
}

// Watcher imports every csv, xlsx/xls or json file appearing in Dir, then
// moves it to Dir/processed (or Dir/failed when parsing fails).
type Watcher struct {
	opts Options
}

// New validates opts and creates the inbox directories.
func New(opts Options) (*Watcher, error) {
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("inbox: directory is required")
	}
	if opts.Importer == nil {
		return nil, errors.New("inbox: importer is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Settle <= 0 {
		opts.Settle = 250 * time.Millisecond
	}
	for _, dir := range []string{opts.Dir, filepath.Join(opts.Dir, ProcessedDir), filepath.Join(opts.Dir, FailedDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("inbox: create %s: %w", dir, err)
		}
	}
	return &Watcher{opts: opts}, nil
}

// Run imports files already waiting in the inbox, then watches it until ctx
// is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("inbox: create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(w.opts.Dir); err != nil {
		return fmt.Errorf("inbox: watch %s: %w", w.opts.Dir, err)
	}
	w.opts.Logger.InfoContext(ctx, "watching import inbox", "dir", w.opts.Dir)

	ready := make(chan string, 16)
	pending := map[string]*time.Timer{}
	schedule := func(path string) {
		if timer, ok := pending[path]; ok {
			timer.Reset(w.opts.Settle)
			return
		}
		pending[path] = time.AfterFunc(w.opts.Settle, func() {
			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})
	}

	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		return fmt.Errorf("inbox: list %s: %w", w.opts.Dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && Supported(entry.Name()) {
			schedule(filepath.Join(w.opts.Dir, entry.Name()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			for _, timer := range pending {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !Supported(event.Name) {
				continue
			}
			if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
				continue
			}
			schedule(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.WarnContext(ctx, "inbox watcher error", "error", err)
		case path := <-ready:
			delete(pending, path)
			if _, err := w.ProcessFile(ctx, path); err != nil {
				w.opts.Logger.WarnContext(ctx, "inbox import failed", "file", path, "error", err)
			}
		}
	}
}

// ProcessFile imports path and moves it out of the inbox.
func (w *Watcher) ProcessFile(ctx context.Context, path string) (dashboard.DataSource, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return dashboard.DataSource{}, nil
		}
		return dashboard.DataSource{}, fmt.Errorf("inbox: open %s: %w", path, err)
	}
	src, importErr := w.opts.Importer.Import(ctx, dashboard.ImportRequest{
		FileName: filepath.Base(path),
		Reader:   f,
	})
	f.Close()

	target := ProcessedDir
	if importErr != nil {
		target = FailedDir
	}
	if err := move(path, filepath.Join(w.opts.Dir, target)); err != nil {
		importErr = errors.Join(importErr, err)
	}
	if importErr != nil {
		return dashboard.DataSource{}, importErr
	}
	w.opts.Logger.InfoContext(ctx, "inbox file imported", "file", filepath.Base(path), "source_id", src.ID, "rows", len(src.Rows))
	if w.opts.OnImport != nil {
		w.opts.OnImport(src)
	}
	return src, nil
}

// Supported reports whether name has an importable extension.
func Supported(name string) bool {
	_, err := dashboard.DetectFormat(name)
	return err == nil
}

// move renames path into dir, adding a timestamp when the name is taken.
func move(path, dir string) error {
	base := filepath.Base(path)
	dst := filepath.Join(dir, base)
	if _, err := os.Stat(dst); err == nil {
		ext := filepath.Ext(base)
		dst = filepath.Join(dir, fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), time.Now().UnixNano(), ext))
	}
	if err := os.Rename(path, dst); err != nil {
		return fmt.Errorf("inbox: move %s: %w", base, err)
	}
	return nil
}
