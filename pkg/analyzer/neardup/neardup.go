// Package neardup finds files that are structurally near-identical after
// rename-tolerant normalization and groups them into clusters.
//
// The pipeline is: normalize, tokenize, shingle and fingerprint every file on
// a bounded worker pool; compare every candidate pair (size ratio, SimHash
// Hamming distance, shingle overlap); then take the transitive closure of the
// accepted pairs with union-find. A scan is a pure function of the file list
// and the configuration; nothing is kept between runs.
package neardup

import (
	"context"
	"fmt"
	"sort"

	"github.com/panbanda/nearclone/internal/fileproc"
	"github.com/panbanda/nearclone/pkg/analyzer"
	"github.com/panbanda/nearclone/pkg/config"
	"github.com/panbanda/nearclone/pkg/source"
	"github.com/panbanda/nearclone/pkg/stats"
	"gonum.org/v1/gonum/stat"
)

// Config holds engine settings.
type Config struct {
	Profile     string
	Thresholds  config.ThresholdConfig
	Normalize   NormalizeOptions
	Workers     int
	MaxFileSize int64
}

// DefaultConfig returns the strict profile with the built-in allow list.
func DefaultConfig() Config {
	strict, _ := config.Profile(config.ProfileStrict)
	return Config{
		Profile:    config.ProfileStrict,
		Thresholds: strict,
		Normalize: NormalizeOptions{
			CollapseLiterals:    true,
			CollapseIdentifiers: true,
			AllowList:           config.DefaultAllowList(),
		},
	}
}

// Analyzer detects near-duplicate files.
type Analyzer struct {
	config  Config
	include func(path string) bool
	src     source.ContentSource
}

var _ analyzer.FileAnalyzer[*Report] = (*Analyzer)(nil)

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithConfig copies thresholds, normalization and limits from a loaded config.
func WithConfig(cfg *config.Config) Option {
	return func(a *Analyzer) {
		a.config = Config{
			Profile:    cfg.Profile,
			Thresholds: cfg.Thresholds,
			Normalize: NormalizeOptions{
				CollapseLiterals:    cfg.Normalize.CollapseLiterals,
				CollapseIdentifiers: cfg.Normalize.CollapseIdentifiers,
				AllowList:           cfg.EffectiveAllowList(),
			},
			Workers:     cfg.Workers,
			MaxFileSize: cfg.Scan.MaxFileSize,
		}
	}
}

// WithThresholds overrides the comparator thresholds.
func WithThresholds(t config.ThresholdConfig) Option {
	return func(a *Analyzer) {
		a.config.Thresholds = t
	}
}

// WithNormalize overrides the normalization options.
func WithNormalize(opts NormalizeOptions) Option {
	return func(a *Analyzer) {
		a.config.Normalize = opts
	}
}

// WithWorkers bounds the worker pool (0 = default).
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.config.Workers = n
	}
}

// WithMaxFileSize skips files larger than maxSize bytes (0 = no limit).
// Ignored when WithSource supplies a custom source.
func WithMaxFileSize(maxSize int64) Option {
	return func(a *Analyzer) {
		a.config.MaxFileSize = maxSize
	}
}

// WithInclude sets the domain-inclusion predicate. Files it rejects are
// loaded but never compared.
func WithInclude(fn func(path string) bool) Option {
	return func(a *Analyzer) {
		a.include = fn
	}
}

// WithSource reads file content from src instead of the filesystem.
func WithSource(src source.ContentSource) Option {
	return func(a *Analyzer) {
		a.src = src
	}
}

// New creates a new near-duplicate analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{config: DefaultConfig()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the effective engine configuration.
func (a *Analyzer) Config() Config {
	return a.config
}

// Analyze scans files and returns the pair and cluster report.
// Thresholds are validated before any file is read. Unreadable files are
// recorded in Report.Skipped. A cancelled context aborts the scan without a
// report.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Report, error) {
	if err := a.config.Thresholds.Validate(); err != nil {
		return nil, err
	}

	src := a.src
	if src == nil {
		src = source.NewFilesystem(a.config.MaxFileSize)
	}

	files = dedupe(files)
	normalizer := NewNormalizer(a.config.Normalize)
	k := a.config.Thresholds.ShingleK

	loaded, errs, err := fileproc.MapSourceFiles(ctx, files, src, a.config.Workers, func(path string, content []byte) (*SourceUnit, error) {
		return NewSourceUnit(path, content, normalizer, k), nil
	})
	if err != nil {
		return nil, err
	}

	report := &Report{
		TotalFiles: len(files),
		Profile:    a.config.Profile,
		Thresholds: a.config.Thresholds,
		Pairs:      make([]MatchPair, 0),
		Clusters:   make([]Cluster, 0),
	}

	if errs != nil {
		for _, e := range errs.Errors {
			report.Skipped = append(report.Skipped, Skipped{Path: e.Path, Reason: e.Err.Error()})
		}
	}

	candidates := make([]*SourceUnit, 0, len(loaded))
	for _, l := range loaded {
		u := l.Value
		if reason := a.exclusion(u); reason != "" {
			report.Excluded = append(report.Excluded, Excluded{Path: u.Path, Reason: reason})
			continue
		}
		u.ID = len(candidates)
		candidates = append(candidates, u)
	}
	report.TotalCandidates = len(candidates)

	pairs, err := NewComparator(a.config.Thresholds).FindPairs(ctx, candidates, a.config.Workers)
	if err != nil {
		return nil, err
	}
	if pairs != nil {
		report.Pairs = pairs
	}

	if clusters := BuildClusters(candidates, pairs); clusters != nil {
		report.Clusters = clusters
	}

	report.Summary = summarize(report.Pairs, report.Clusters)
	return report, nil
}

// Close releases analyzer resources.
func (a *Analyzer) Close() {}

// exclusion returns why a loaded unit stays out of the pool, or "".
func (a *Analyzer) exclusion(u *SourceUnit) string {
	switch {
	case u.Normalized == "":
		return ExcludedEmpty
	case len(u.Normalized) < a.config.Thresholds.MinLength:
		return ExcludedTooShort
	case a.include != nil && !a.include(u.Path):
		return ExcludedNotIncluded
	}
	return ""
}

// dedupe drops repeated paths, keeping the first occurrence.
func dedupe(files []string) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// summarize computes aggregate statistics over pairs and clusters.
func summarize(pairs []MatchPair, clusters []Cluster) Summary {
	s := Summary{
		TotalPairs:    len(pairs),
		TotalClusters: len(clusters),
	}

	for _, c := range clusters {
		s.FilesInClusters += c.Size()
		if c.Size() > s.LargestCluster {
			s.LargestCluster = c.Size()
		}
	}

	if len(pairs) == 0 {
		return s
	}

	similarities := make([]float64, len(pairs))
	overlaps := make([]float64, len(pairs))
	for i, p := range pairs {
		similarities[i] = p.Similarity
		overlaps[i] = p.Overlap
		if p.Exact {
			s.ExactPairs++
		}
	}

	s.MeanSimilarity = stat.Mean(similarities, nil)
	if len(overlaps) > 1 {
		s.StdDevOverlap = stat.StdDev(overlaps, nil)
	}

	sort.Float64s(similarities)
	s.P50Similarity = stats.Percentile(similarities, 50)
	s.P95Similarity = stats.Percentile(similarities, 95)

	return s
}

// String renders a one-line summary of the report.
func (r *Report) String() string {
	return fmt.Sprintf("%d candidates, %d pairs, %d clusters", r.TotalCandidates, len(r.Pairs), len(r.Clusters))
}
