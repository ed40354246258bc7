// Package testutil holds file-tree helpers and source fixtures shared by
// tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// ReadFile reads content from a file.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return string(data)
}

// CreateFileTree creates files from a map of slash-separated relative
// path to content.
func CreateFileTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		WriteFile(t, filepath.Join(root, filepath.FromSlash(name)), content)
	}
}

// RelPaths converts paths below root to slash-separated relative paths.
func RelPaths(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatalf("Rel(%s, %s) error: %v", root, p, err)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

// ListComponent returns a React list component. Components built with
// names of equal length and sizes of equal digit count normalize to the
// same text and have equal raw size.
func ListComponent(name string, size int) string {
	return fmt.Sprintf(`import { useMemo } from "react";

export function %s({ items, onSelect }) {
  const sorted = useMemo(() => items.slice().sort(), [items]);
  return (
    <ul className="list" data-size={%d}>
      {sorted.map((item) => (
        <li key={item.id} onClick={() => onSelect(item)}>{item.name}</li>
      ))}
    </ul>
  );
}
`, name, size)
}

// ClampSource is a short utility module unrelated to ListComponent.
const ClampSource = "export const clamp = (v: number, lo: number, hi: number) => Math.min(hi, Math.max(lo, v));\n"
