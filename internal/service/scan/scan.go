// Package scan wires file collection and the near-duplicate engine into a
// single operation shared by the CLI and the MCP server.
package scan

import (
	"context"
	"time"

	"github.com/panbanda/nearclone/internal/scanner"
	"github.com/panbanda/nearclone/pkg/analyzer"
	"github.com/panbanda/nearclone/pkg/analyzer/neardup"
	"github.com/panbanda/nearclone/pkg/config"
	"github.com/panbanda/nearclone/pkg/source"
)

// Service runs near-duplicate scans.
type Service struct {
	config   *config.Config
	progress analyzer.ProgressFunc
	src      source.ContentSource
	roots    []string
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithProgress reports per-stage progress to fn.
func WithProgress(fn analyzer.ProgressFunc) Option {
	return func(s *Service) {
		s.progress = fn
	}
}

// WithSource reads file content from src (for testing).
func WithSource(src source.ContentSource) Option {
	return func(s *Service) {
		s.src = src
	}
}

// New creates a new scan service.
func New(opts ...Option) *Service {
	s := &Service{config: config.DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the configuration the service runs with.
func (s *Service) Config() *config.Config {
	return s.config
}

// Result is a finished scan.
type Result struct {
	Report   *neardup.Report
	Files    []string
	Duration time.Duration
}

// Collect lists the candidate files below roots, or below the configured
// roots when none are given.
func (s *Service) Collect(roots []string) ([]string, error) {
	if len(roots) == 0 {
		roots = s.config.Scan.Roots
	}
	s.roots = roots
	return scanner.NewScanner(s.config).Collect(roots)
}

// Run validates the configuration, collects files and scans them.
func (s *Service) Run(ctx context.Context, roots []string) (*Result, error) {
	if err := s.config.Validate(); err != nil {
		return nil, err
	}

	files, err := s.Collect(roots)
	if err != nil {
		return nil, err
	}
	return s.Analyze(ctx, files)
}

// includeRoots returns the roots include patterns are matched against: the
// last collected roots, or the configured ones.
func (s *Service) includeRoots() []string {
	if len(s.roots) > 0 {
		return s.roots
	}
	return s.config.Scan.Roots
}

// Analyze scans an explicit file list.
func (s *Service) Analyze(ctx context.Context, files []string) (*Result, error) {
	opts := []neardup.Option{
		neardup.WithConfig(s.config),
		neardup.WithInclude(scanner.IncludeFilter(s.config.Scan.Include, s.includeRoots()...)),
	}
	if s.src != nil {
		opts = append(opts, neardup.WithSource(s.src))
	}

	a := neardup.New(opts...)
	defer a.Close()

	if s.progress != nil {
		ctx = analyzer.WithTracker(ctx, analyzer.NewTracker(s.progress))
	}

	start := time.Now()
	report, err := a.Analyze(ctx, files)
	if err != nil {
		return nil, err
	}

	return &Result{
		Report:   report,
		Files:    files,
		Duration: time.Since(start),
	}, nil
}
