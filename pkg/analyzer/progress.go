package analyzer

import (
	"context"
	"sync"
	"sync/atomic"
)

// Stage names a phase of a scan.
type Stage string

// Scan stages in execution order.
const (
	StageLoad    Stage = "load"
	StageCompare Stage = "compare"
)

// ProgressFunc receives progress updates. item is the file path during
// StageLoad and empty during StageCompare.
type ProgressFunc func(stage Stage, current, total int, item string)

// Tracker reports progress across scan stages.
// It is safe for concurrent use from multiple goroutines.
type Tracker struct {
	mu       sync.RWMutex
	stage    Stage
	total    atomic.Int64
	current  atomic.Int64
	callback ProgressFunc
}

// NewTracker creates a tracker that forwards every Tick to callback.
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// Begin starts a new stage with total expected ticks and resets the counter.
func (t *Tracker) Begin(stage Stage, total int) {
	t.mu.Lock()
	t.stage = stage
	t.mu.Unlock()
	t.current.Store(0)
	t.total.Store(int64(total))
}

// Tick marks one unit of the current stage as done.
func (t *Tracker) Tick(item string) {
	current := int(t.current.Add(1))
	if t.callback != nil {
		t.callback(t.Stage(), current, t.Total(), item)
	}
}

// Stage returns the stage in progress.
func (t *Tracker) Stage() Stage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stage
}

// Current returns the ticks recorded in the current stage.
func (t *Tracker) Current() int {
	return int(t.current.Load())
}

// Total returns the expected ticks of the current stage.
func (t *Tracker) Total() int {
	return int(t.total.Load())
}

type trackerKey struct{}

// WithTracker returns a context that carries t.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext returns the tracker carried by ctx, or nil.
func TrackerFromContext(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerKey{}).(*Tracker); ok {
		return t
	}
	return nil
}
