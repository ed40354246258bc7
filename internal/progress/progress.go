// Package progress draws scan progress on stderr.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/panbanda/nearclone/pkg/analyzer"
	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a single progress bar or spinner.
type Tracker struct {
	bar   *progressbar.ProgressBar
	label string
	w     io.Writer
}

// NewSpinner creates a spinner for operations with unknown total count.
func NewSpinner(w io.Writer, label string) *Tracker {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Tracker{bar: bar, label: label, w: w}
}

// NewTracker creates a progress bar with the given label and total count.
func NewTracker(w io.Writer, label string, total int) *Tracker {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, label: label, w: w}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	_ = t.bar.Add(1)
}

// FinishSuccess clears the bar completely (no output).
func (t *Tracker) FinishSuccess() {
	_ = t.bar.Finish()
	_ = t.bar.Clear()
}

// FinishError clears the bar and prints an error line.
func (t *Tracker) FinishError(err error) {
	_ = t.bar.Finish()
	_ = t.bar.Clear()
	fmt.Fprintf(t.w, "  %s error: %v\n", t.label, err)
}

var stageLabels = map[analyzer.Stage]string{
	analyzer.StageLoad:    "Fingerprinting files",
	analyzer.StageCompare: "Comparing pairs",
}

// Stages draws one bar per scan stage. Its Update method is an
// analyzer.ProgressFunc.
type Stages struct {
	mu      sync.Mutex
	w       io.Writer
	stage   analyzer.Stage
	current *Tracker
}

// NewStages creates a stage renderer writing to w (stderr when nil).
func NewStages(w io.Writer) *Stages {
	if w == nil {
		w = os.Stderr
	}
	return &Stages{w: w}
}

// Update advances the bar of stage, replacing the previous stage's bar when
// the stage changes.
func (s *Stages) Update(stage analyzer.Stage, current, total int, item string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || stage != s.stage {
		if s.current != nil {
			s.current.FinishSuccess()
		}
		label, ok := stageLabels[stage]
		if !ok {
			label = string(stage)
		}
		s.stage = stage
		s.current = NewTracker(s.w, label, total)
	}
	s.current.Tick()
}

// Finish clears the active bar.
func (s *Stages) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.FinishSuccess()
		s.current = nil
	}
}
