// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// Unwrap returns nil (ProcessingErrors doesn't wrap a single error).
func (e *ProcessingErrors) Unwrap() error {
	return nil
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// File loading is I/O-bound, so the pool is oversubscribed relative to cores.
const DefaultWorkerMultiplier = 4

// Workers resolves a configured worker count (<= 0 means the default).
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU() * DefaultWorkerMultiplier
	}
	return n
}

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// Indexed is a successful result together with the position of its input.
type Indexed[T any] struct {
	Index int
	Path  string
	Value T
}

// ForEachFile processes files in parallel, calling fn for each file.
// Each result lands in a slot addressed by the input index, so the returned
// results and errors are in input order regardless of scheduling.
// Cancellation is checked before each file; a cancelled run returns ctx.Err()
// and no results.
func ForEachFile[T any](ctx context.Context, files []string, maxWorkers int, fn func(string) (T, error), onProgress ProgressFunc) ([]Indexed[T], *ProcessingErrors, error) {
	if len(files) == 0 {
		return nil, nil, ctx.Err()
	}

	type slot struct {
		value T
		err   error
		done  bool
	}
	slots := make([]slot, len(files))

	p := pool.New().WithMaxGoroutines(Workers(maxWorkers)).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			result, err := fn(path)
			slots[i] = slot{value: result, err: err, done: true}

			if onProgress != nil {
				onProgress()
			}
			return nil // individual file errors never stop the pool
		})
	}
	_ = p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	results := make([]Indexed[T], 0, len(files))
	errs := &ProcessingErrors{}
	for i, s := range slots {
		if !s.done {
			continue
		}
		if s.err != nil {
			errs.Errors = append(errs.Errors, ProcessingError{Path: files[i], Err: s.err})
			continue
		}
		results = append(results, Indexed[T]{Index: i, Path: files[i], Value: s.value})
	}

	if !errs.HasErrors() {
		return results, nil, nil
	}
	return results, errs, nil
}

// RunBatches runs fn for every batch index in [0, batches) on a bounded pool
// and returns the per-batch results in batch order.
// Cancellation is checked before each batch starts.
func RunBatches[T any](ctx context.Context, batches, maxWorkers int, fn func(batch int) T) ([]T, error) {
	if batches <= 0 {
		return nil, ctx.Err()
	}

	results := make([]T, batches)
	p := pool.New().WithMaxGoroutines(Workers(maxWorkers)).WithContext(ctx)
	for b := 0; b < batches; b++ {
		p.Go(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[b] = fn(b)
			return nil
		})
	}
	_ = p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
