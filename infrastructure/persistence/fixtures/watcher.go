package fixtures

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"catmenu/domain/core/entities"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 100 * time.Millisecond

// CategoryReplacer swaps a whole taxonomy in place
type CategoryReplacer interface {
	ReplaceCategories(categories []*entities.Category)
}

// Watcher reloads the category tree of a fixture file whenever it changes.
// Menus declared in the file are only read at startup.
type Watcher struct {
	path    string
	target  CategoryReplacer
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	done    chan struct{}
	reloads int
}

// NewWatcher watches path and feeds every valid revision to target. The
// directory is watched too so editors that save by rename are noticed.
func NewWatcher(path string, target CategoryReplacer, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch taxonomy directory: %w", err)
	}

	return &Watcher{
		path:    path,
		target:  target,
		watcher: fw,
		logger:  logger,
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching in the background
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true

	go w.watchLoop()
	w.logger.Info("Taxonomy watcher started", zap.String("path", w.path))
}

// Stop ends the watch and waits for the loop to exit. It is safe to call more
// than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	started := w.started
	w.mu.Unlock()

	close(w.stopCh)
	w.watcher.Close()
	if started {
		<-w.done
	}
	w.logger.Info("Taxonomy watcher stopped")
}

// Reloads reports how many revisions were applied
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Taxonomy watcher error", zap.Error(err))
		}
	}
}

// reload applies the file if it parses and lists categories. Anything else
// keeps the current taxonomy.
func (w *Watcher) reload() {
	tax, err := LoadFile(w.path)
	if err != nil {
		w.logger.Error("Failed to reload taxonomy, keeping current", zap.String("path", w.path), zap.Error(err))
		return
	}
	if len(tax.Categories) == 0 {
		w.logger.Warn("Taxonomy file has no categories, keeping current", zap.String("path", w.path))
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.target.ReplaceCategories(tax.Categories)
	w.reloads++

	w.logger.Info("Taxonomy reloaded",
		zap.String("path", w.path),
		zap.Int("categories", len(tax.Categories)),
	)
}
