package taxonomy

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/JonMunkholm/cdm/internal/core"
)

// Seeder receives catalogs to merge into the store.
type Seeder interface {
	SeedDrivers(ctx context.Context, catalog core.DriverCatalog) (int, error)
}

// Watcher seeds drivers from a taxonomy file and reseeds on change.
type Watcher struct {
	mu      sync.Mutex
	path    string
	seeder  Seeder
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	last    core.DriverCatalog
}

// NewWatcher creates a watcher for path. Nothing is read until Sync or Start.
func NewWatcher(path string, seeder Seeder, logger *slog.Logger) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:   absPath,
		seeder: seeder,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// Sync loads the file and seeds any new drivers.
// A load failure keeps the previous catalog.
func (w *Watcher) Sync(ctx context.Context) (int, error) {
	catalog, err := Load(w.path)
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	added, err := w.seeder.SeedDrivers(ctx, catalog)
	if err != nil {
		return 0, fmt.Errorf("seed drivers: %w", err)
	}
	w.last = catalog
	w.logger.Info("taxonomy synced", "path", w.path, "added", added)
	return added, nil
}

// Catalog returns the last catalog successfully synced.
func (w *Watcher) Catalog() core.DriverCatalog {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Start watches the file's directory and resyncs on write or create.
// The directory is watched so editors that save atomically are seen.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	w.watcher = watcher

	go w.loop(ctx)

	w.logger.Info("watching taxonomy file", "path", w.path)
	return nil
}

// Stop ends watching and waits for the loop to exit.
func (w *Watcher) Stop() {
	if w.watcher == nil {
		return
	}
	close(w.stopCh)
	w.watcher.Close()
	<-w.doneCh
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)
	filename := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debug("taxonomy file changed", "event", event.Op.String())
			if _, err := w.Sync(ctx); err != nil {
				w.logger.Error("taxonomy reload failed", "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("taxonomy watcher error", "error", err)

		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}
