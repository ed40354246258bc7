package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Threshold profile names.
const (
	ProfileStrict = "strict"
	ProfileBroad  = "broad"
)

// Config holds all configuration options for nearclone.
type Config struct {
	// Profile selects the named threshold operating point.
	Profile string `koanf:"profile" toml:"profile"`

	// Workers bounds the worker pool (0 = 4x NumCPU).
	Workers int `koanf:"workers" toml:"workers"`

	// File collection settings
	Scan ScanConfig `koanf:"scan" toml:"scan"`

	// Comparator thresholds
	Thresholds ThresholdConfig `koanf:"thresholds" toml:"thresholds"`

	// Rename-tolerant normalization
	Normalize NormalizeConfig `koanf:"normalize" toml:"normalize"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// ScanConfig controls which files become candidates.
type ScanConfig struct {
	Roots             []string `koanf:"roots" toml:"roots"`
	IgnoredDirNames   []string `koanf:"ignored_dir_names" toml:"ignored_dir_names"`
	AllowedExtensions []string `koanf:"allowed_extensions" toml:"allowed_extensions"`
	Include           []string `koanf:"include" toml:"include"`
	Exclude           []string `koanf:"exclude" toml:"exclude"`
	Gitignore         bool     `koanf:"gitignore" toml:"gitignore"`
	MaxFileSize       int64    `koanf:"max_file_size" toml:"max_file_size"`
}

// ThresholdConfig defines the pairwise comparator thresholds.
type ThresholdConfig struct {
	MaxHamming   int     `koanf:"max_hamming" toml:"max_hamming" json:"max_hamming"`
	MinOverlap   float64 `koanf:"min_overlap" toml:"min_overlap" json:"min_overlap"`
	ShingleK     int     `koanf:"shingle_k" toml:"shingle_k" json:"shingle_k"`
	MinSizeRatio float64 `koanf:"min_size_ratio" toml:"min_size_ratio" json:"min_size_ratio"`
	MinLength    int     `koanf:"min_length" toml:"min_length" json:"min_length"`
}

// NormalizeConfig controls literal and identifier collapsing.
type NormalizeConfig struct {
	CollapseLiterals    bool     `koanf:"collapse_literals" toml:"collapse_literals"`
	CollapseIdentifiers bool     `koanf:"collapse_identifiers" toml:"collapse_identifiers"`
	AllowList           []string `koanf:"allow_list" toml:"allow_list"`
	ExtraAllow          []string `koanf:"extra_allow" toml:"extra_allow"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" toml:"color"`
	Top    int    `koanf:"top" toml:"top"` // 0 = all pairs
}

// Profile returns the thresholds of a named profile.
func Profile(name string) (ThresholdConfig, bool) {
	switch name {
	case ProfileStrict:
		return ThresholdConfig{
			MaxHamming:   2,
			MinOverlap:   0.98,
			ShingleK:     5,
			MinSizeRatio: 0.85,
		}, true
	case ProfileBroad:
		return ThresholdConfig{
			MaxHamming:   12,
			MinOverlap:   0.80,
			ShingleK:     5,
			MinSizeRatio: 0.85,
		}, true
	default:
		return ThresholdConfig{}, false
	}
}

// ProfileNames lists the known profiles in display order.
func ProfileNames() []string {
	return []string{ProfileStrict, ProfileBroad}
}

// DefaultAllowList returns the built-in identifiers that survive collapsing:
// JS/TS/Go keywords, common globals and React hook names.
func DefaultAllowList() []string {
	return []string{
		// JavaScript / TypeScript
		"async", "await", "break", "case", "catch", "class", "const", "continue",
		"debugger", "default", "delete", "do", "else", "enum", "export", "extends",
		"false", "finally", "for", "from", "function", "if", "implements", "import",
		"in", "instanceof", "interface", "let", "new", "null", "of", "private",
		"protected", "public", "readonly", "return", "static", "super", "switch",
		"this", "throw", "true", "try", "type", "typeof", "undefined", "var", "void",
		"while", "yield", "as", "keyof", "declare", "namespace", "abstract",
		// Go
		"func", "package", "range", "struct", "map", "chan", "go", "defer",
		"select", "fallthrough", "goto", "nil",
		// Common globals
		"console", "Math", "Object", "Array", "Promise", "JSON", "window", "document",
		"string", "number", "boolean", "any", "unknown", "never",
		// React
		"React", "useState", "useEffect", "useMemo", "useCallback", "useRef",
		"useContext", "useReducer", "useLayoutEffect", "useId", "useTransition",
		"useDeferredValue", "useImperativeHandle", "props", "children", "key",
		"className", "style", "onClick", "onChange",
	}
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	strict, _ := Profile(ProfileStrict)
	return &Config{
		Profile: ProfileStrict,
		Workers: 0,
		Scan: ScanConfig{
			Roots: []string{"."},
			IgnoredDirNames: []string{
				"node_modules",
				".git",
				".nearclone",
				"dist",
				"build",
				"vendor",
				"coverage",
			},
			AllowedExtensions: []string{".ts", ".tsx", ".js", ".jsx"},
			Gitignore:         true,
			MaxFileSize:       1 << 20,
		},
		Thresholds: strict,
		Normalize: NormalizeConfig{
			CollapseLiterals:    true,
			CollapseIdentifiers: true,
			AllowList:           DefaultAllowList(),
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// ApplyProfile replaces the profile thresholds with the named profile.
// MinLength is not part of a profile and is kept.
func (c *Config) ApplyProfile(name string) error {
	t, ok := Profile(name)
	if !ok {
		return &ValidationError{Field: "profile", Value: name, Reason: "must be one of " + strings.Join(ProfileNames(), ", ")}
	}
	t.MinLength = c.Thresholds.MinLength
	c.Profile = name
	c.Thresholds = t
	return nil
}

// EffectiveAllowList merges the allow list with the extra entries.
func (c *Config) EffectiveAllowList() []string {
	out := make([]string, 0, len(c.Normalize.AllowList)+len(c.Normalize.ExtraAllow))
	out = append(out, c.Normalize.AllowList...)
	out = append(out, c.Normalize.ExtraAllow...)
	return out
}

// IsIgnoredDir reports whether a directory name is on the ignore list.
func (c *Config) IsIgnoredDir(name string) bool {
	return slices.Contains(c.Scan.IgnoredDirNames, name)
}

// AllowsExtension reports whether the file extension is allowed.
// An empty allow list admits every file.
func (c *Config) AllowsExtension(path string) bool {
	if len(c.Scan.AllowedExtensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range c.Scan.AllowedExtensions {
		if strings.ToLower(allowed) == ext {
			return true
		}
	}
	return false
}

// ValidationError names a configuration parameter with an invalid value.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// Validate checks the thresholds against their documented ranges.
func (t ThresholdConfig) Validate() error {
	var errs []error
	if t.ShingleK < 3 {
		errs = append(errs, &ValidationError{Field: "thresholds.shingle_k", Value: t.ShingleK, Reason: "must be >= 3"})
	}
	if t.MaxHamming < 0 || t.MaxHamming > 64 {
		errs = append(errs, &ValidationError{Field: "thresholds.max_hamming", Value: t.MaxHamming, Reason: "must be in [0,64]"})
	}
	if !inUnitRange(t.MinOverlap) {
		errs = append(errs, &ValidationError{Field: "thresholds.min_overlap", Value: t.MinOverlap, Reason: "must be in [0,1]"})
	}
	if !inUnitRange(t.MinSizeRatio) {
		errs = append(errs, &ValidationError{Field: "thresholds.min_size_ratio", Value: t.MinSizeRatio, Reason: "must be in [0,1]"})
	}
	if t.MinLength < 0 {
		errs = append(errs, &ValidationError{Field: "thresholds.min_length", Value: t.MinLength, Reason: "must be >= 0"})
	}
	return errors.Join(errs...)
}

// inUnitRange reports whether v is in [0,1]. NaN is out of range.
func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	var errs []error
	if _, ok := Profile(c.Profile); !ok {
		errs = append(errs, &ValidationError{Field: "profile", Value: c.Profile, Reason: "must be one of " + strings.Join(ProfileNames(), ", ")})
	}
	if c.Workers < 0 {
		errs = append(errs, &ValidationError{Field: "workers", Value: c.Workers, Reason: "must be >= 0"})
	}
	if len(c.Scan.Roots) == 0 {
		errs = append(errs, &ValidationError{Field: "scan.roots", Value: c.Scan.Roots, Reason: "must not be empty"})
	}
	if c.Scan.MaxFileSize < 0 {
		errs = append(errs, &ValidationError{Field: "scan.max_file_size", Value: c.Scan.MaxFileSize, Reason: "must be >= 0"})
	}
	if err := c.Thresholds.Validate(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Output.Format) {
	case "text", "json", "markdown", "md", "toon":
	default:
		errs = append(errs, &ValidationError{Field: "output.format", Value: c.Output.Format, Reason: "must be text, json, markdown or toon"})
	}
	if c.Output.Top < 0 {
		errs = append(errs, &ValidationError{Field: "output.top", Value: c.Output.Top, Reason: "must be >= 0"})
	}
	return errors.Join(errs...)
}

// Load loads configuration from a file.
// A profile named in the file seeds the thresholds before explicit
// threshold keys are applied on top.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if k.Exists("profile") {
		name := k.String("profile")
		if err := cfg.ApplyProfile(name); err != nil {
			return nil, err
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// configNames are the file names searched for in each search directory.
var configNames = []string{
	"nearclone.toml",
	"nearclone.yaml",
	"nearclone.yml",
	"nearclone.json",
	".nearclone.toml",
	".nearclone.yaml",
	".nearclone.yml",
	".nearclone.json",
}

// FindConfigFile returns the first config file found in dir or dir/.nearclone.
func FindConfigFile(dir string) string {
	for _, d := range []string{dir, filepath.Join(dir, ".nearclone")} {
		for _, name := range configNames {
			path := filepath.Join(d, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

// LoadResult is the outcome of LoadConfig.
type LoadResult struct {
	Config *Config
	Source string // empty when defaults were used
}

type loadOptions struct {
	path string
	dir  string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads a specific config file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithSearchDir changes the directory searched for config files.
func WithSearchDir(dir string) LoadOption {
	return func(o *loadOptions) {
		o.dir = dir
	}
}

// LoadConfig loads and validates configuration.
// Without WithPath it searches the standard locations and falls back to defaults.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dir: "."}
	for _, opt := range opts {
		opt(&o)
	}

	path := o.path
	if path == "" {
		path = FindConfigFile(o.dir)
	}

	cfg := DefaultConfig()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		cfg = loaded
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &LoadResult{Config: cfg, Source: path}, nil
}
