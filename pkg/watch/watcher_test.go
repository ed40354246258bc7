package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/panbanda/nearclone/pkg/config"
)

func newTestWatcher(t *testing.T, roots []string, debounce time.Duration) *Watcher {
	t.Helper()
	w, err := NewWatcher(roots, config.DefaultConfig(), debounce)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	t.Cleanup(func() { w.Stop() })
	return w
}

func TestNewWatcher(t *testing.T) {
	tests := []struct {
		name     string
		debounce time.Duration
		want     time.Duration
	}{
		{"default debounce", 0, DefaultDebounce},
		{"negative debounce defaults", -time.Second, DefaultDebounce},
		{"custom debounce", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWatcher(t, []string{t.TempDir()}, tt.debounce)
			if w.debounce != tt.want {
				t.Errorf("debounce = %v, want %v", w.debounce, tt.want)
			}
			if w.pending == nil {
				t.Error("pending map should be initialized")
			}
		})
	}

	w, err := NewWatcher(nil, nil, 0)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()
	if w.config == nil {
		t.Error("nil config should fall back to defaults")
	}
}

func TestWatcher_handleEvent(t *testing.T) {
	w := newTestWatcher(t, nil, time.Second)

	events := []fsnotify.Event{
		{Name: "/repo/src/App.tsx", Op: fsnotify.Write},
		{Name: "/repo/src/old.ts", Op: fsnotify.Remove},
		{Name: "/repo/src/moved.js", Op: fsnotify.Rename},
		{Name: "/repo/src/App.tsx", Op: fsnotify.Write},
		{Name: "/repo/README.md", Op: fsnotify.Write},
		{Name: "/repo/src/App.tsx", Op: fsnotify.Chmod},
	}
	for _, e := range events {
		w.handleEvent(e)
	}

	if len(w.pending) != 3 {
		t.Errorf("pending = %v, want 3 entries", w.pending)
	}
	if _, ok := w.pending["/repo/README.md"]; ok {
		t.Error("files with other extensions should be ignored")
	}
}

func TestWatcher_flush(t *testing.T) {
	w := newTestWatcher(t, nil, 100*time.Millisecond)

	if got := w.flush(time.Now()); got != nil {
		t.Errorf("flush() with nothing pending = %v, want nil", got)
	}

	w.handleEvent(fsnotify.Event{Name: "/repo/b.ts", Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: "/repo/a.ts", Op: fsnotify.Create})

	if got := w.flush(w.lastSeen.Add(50 * time.Millisecond)); got != nil {
		t.Errorf("flush() inside debounce window = %v, want nil", got)
	}

	got := w.flush(w.lastSeen.Add(100 * time.Millisecond))
	if len(got) != 2 || got[0] != "/repo/a.ts" || got[1] != "/repo/b.ts" {
		t.Errorf("flush() = %v, want sorted batch of both files", got)
	}
	if len(w.pending) != 0 {
		t.Error("flush should clear pending")
	}
}

func TestWatcher_StartSkipsIgnoredDirs(t *testing.T) {
	tmpDir := t.TempDir()
	for _, dir := range []string{"src/components", "node_modules/react", "dist"} {
		if err := os.MkdirAll(filepath.Join(tmpDir, dir), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
	}

	w := newTestWatcher(t, []string{tmpDir}, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for len(w.WatchedDirs()) < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	for _, dir := range w.WatchedDirs() {
		switch filepath.Base(dir) {
		case "node_modules", "react", "dist":
			t.Errorf("ignored directory %s should not be watched", dir)
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Start() error = %v, want context.Canceled", err)
	}
}

func TestWatcher_StartBatchesChanges(t *testing.T) {
	tmpDir := t.TempDir()
	w := newTestWatcher(t, []string{tmpDir}, 200*time.Millisecond)

	var mu sync.Mutex
	var batches [][]string
	w.OnChange(func(changed []string) {
		mu.Lock()
		batches = append(batches, changed)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for len(w.WatchedDirs()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	for _, name := range []string{"a.ts", "b.tsx", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte("export {}\n"), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(batches)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(batches) == 0 {
		t.Fatal("no batch delivered")
	}
	seen := map[string]bool{}
	for _, b := range batches {
		for _, p := range b {
			seen[filepath.Base(p)] = true
		}
	}
	if !seen["a.ts"] || !seen["b.tsx"] {
		t.Errorf("batches = %v, want a.ts and b.tsx", batches)
	}
	if seen["notes.txt"] {
		t.Error("notes.txt should be filtered by extension")
	}
}
