// Package scanner collects candidate source files from one or more roots.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/nearclone/pkg/config"
)

// ScanError reports a root that could not be scanned.
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// baseMatcher matches paths relative to base.
type baseMatcher struct {
	base    string
	matcher gitignore.Matcher
}

// Scanner finds candidate files below a set of roots.
type Scanner struct {
	config   *config.Config
	matchers []baseMatcher
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// Collect scans every root and returns the union of candidate files,
// deduplicated and sorted. A root may also name a single file.
func (s *Scanner) Collect(roots []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	add := func(path string) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, &ScanError{Root: root, Err: err}
		}

		if !info.IsDir() {
			if s.config.AllowsExtension(root) {
				add(root)
			}
			continue
		}

		found, err := s.ScanDir(root)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}

	sort.Strings(files)
	return files, nil
}

// findGitRoot walks up from start looking for a .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns builds the matchers for one root. Configured patterns
// are relative to the root; .gitignore patterns to the repository root.
func (s *Scanner) loadExcludePatterns(absRoot string) {
	s.matchers = s.matchers[:0]

	if len(s.config.Scan.Exclude) > 0 {
		patterns := make([]gitignore.Pattern, 0, len(s.config.Scan.Exclude))
		for _, p := range s.config.Scan.Exclude {
			patterns = append(patterns, gitignore.ParsePattern(p, nil))
		}
		s.matchers = append(s.matchers, baseMatcher{base: absRoot, matcher: gitignore.NewMatcher(patterns)})
	}

	if !s.config.Scan.Gitignore {
		return
	}
	gitRoot := findGitRoot(absRoot)
	if gitRoot == "" {
		return
	}
	gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(gitPatterns) == 0 {
		return
	}
	s.matchers = append(s.matchers, baseMatcher{base: gitRoot, matcher: gitignore.NewMatcher(gitPatterns)})
}

// isExcluded checks an absolute path against every matcher.
func (s *Scanner) isExcluded(absPath string, isDir bool) bool {
	for _, m := range s.matchers {
		rel, err := filepath.Rel(m.base, absPath)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		if m.matcher.Match(strings.Split(rel, string(filepath.Separator)), isDir) {
			return true
		}
	}
	return false
}

// ScanDir recursively scans root for files with an allowed extension,
// pruning ignored directory names and excluded paths. Symlinks that resolve
// outside root are skipped. Returned paths are joined onto root as given.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}

	s.loadExcludePatterns(absRoot)

	files := make([]string, 0, 256)
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		rel, _ := filepath.Rel(root, path)
		absPath := filepath.Join(absRoot, rel)
		isDir := d.IsDir()

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
			info, err := os.Stat(resolved)
			if err != nil {
				return nil
			}
			// WalkDir does not follow directory links
			isDir = info.IsDir()
		}

		if isDir {
			if path != root && s.config.IsIgnoredDir(d.Name()) {
				return filepath.SkipDir
			}
			if s.isExcluded(absPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !s.config.AllowsExtension(path) || s.isExcluded(absPath, false) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		return nil, &ScanError{Root: root, Err: walkErr}
	}

	return files, nil
}

// isWithinRoot reports whether path is root or lies below it.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// IncludeFilter compiles gitignore-style patterns into a predicate over
// collected paths. A path is included when any pattern matches it relative
// to a root containing it, or as collected. No patterns yields nil, meaning
// everything is included.
func IncludeFilter(patterns []string, roots ...string) func(path string) bool {
	if len(patterns) == 0 {
		return nil
	}

	parsed := make([]gitignore.Pattern, 0, len(patterns))
	for _, p := range patterns {
		parsed = append(parsed, gitignore.ParsePattern(p, nil))
	}
	m := gitignore.NewMatcher(parsed)

	match := func(path string) bool {
		clean := filepath.ToSlash(filepath.Clean(path))
		clean = strings.TrimPrefix(clean, "/")
		return m.Match(strings.Split(clean, "/"), false)
	}

	return func(path string) bool {
		for _, root := range roots {
			rel, err := filepath.Rel(root, path)
			if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
				continue
			}
			if match(rel) {
				return true
			}
		}
		return match(path)
	}
}
