// Package watch re-runs a scan when candidate files below the watched
// roots change.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/panbanda/nearclone/pkg/config"
)

// DefaultDebounce is the quiet period before a batch of changes is flushed.
const DefaultDebounce = 500 * time.Millisecond

// Watcher collects filesystem changes and reports them in batches once
// no further change arrived for the debounce period. Batches are delivered
// one at a time, so a slow callback never overlaps itself.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	debounce  time.Duration
	roots     []string
	onChange  func(changed []string)
	onError   func(err error)

	mu       sync.Mutex
	pending  map[string]struct{}
	lastSeen time.Time
}

// NewWatcher creates a watcher over roots.
func NewWatcher(roots []string, cfg *config.Config, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		debounce:  debounce,
		roots:     roots,
		pending:   make(map[string]struct{}),
	}, nil
}

// OnChange sets the function called with each sorted batch of changed paths.
func (w *Watcher) OnChange(fn func(changed []string)) {
	w.onChange = fn
}

// OnError sets the function called for watch errors.
func (w *Watcher) OnError(fn func(err error)) {
	w.onError = fn
}

// Start registers every directory below the roots and processes events
// until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(w.debounce / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			if w.onError != nil {
				w.onError(err)
			}

		case <-ticker.C:
			if batch := w.flush(time.Now()); len(batch) > 0 && w.onChange != nil {
				w.onChange(batch)
			}
		}
	}
}

// addTree watches root and every directory below it that is not ignored.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.config.IsIgnoredDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 && !w.config.IsIgnoredDir(filepath.Base(event.Name)) {
		_ = w.addTree(event.Name)
	}

	if !w.config.AllowsExtension(event.Name) {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = struct{}{}
	w.lastSeen = time.Now()
	w.mu.Unlock()
}

// flush returns the pending batch if the last change is older than the
// debounce period at now.
func (w *Watcher) flush(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 || now.Sub(w.lastSeen) < w.debounce {
		return nil
	}

	batch := make([]string, 0, len(w.pending))
	for path := range w.pending {
		batch = append(batch, path)
	}
	sort.Strings(batch)
	w.pending = make(map[string]struct{})
	return batch
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the directories currently watched.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
