package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// ErrTooLarge is returned when a file exceeds the configured size cap.
var ErrTooLarge = errors.New("file exceeds size limit")

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct {
	maxSize int64
}

// NewFilesystem creates a source that reads from the filesystem.
// A maxSize of 0 disables the size cap.
func NewFilesystem(maxSize int64) *FilesystemSource {
	return &FilesystemSource{maxSize: maxSize}
}

// Read implements ContentSource. The handle is closed on every path.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", path)
	}
	if f.maxSize > 0 && info.Size() > f.maxSize {
		return nil, fmt.Errorf("%w (%d > %d bytes)", ErrTooLarge, info.Size(), f.maxSize)
	}

	var r io.Reader = fh
	if f.maxSize > 0 {
		r = io.LimitReader(fh, f.maxSize+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if f.maxSize > 0 && int64(len(content)) > f.maxSize {
		return nil, fmt.Errorf("%w (grew past %d bytes)", ErrTooLarge, f.maxSize)
	}
	return content, nil
}

// MemorySource serves content from an in-memory map.
// It is safe for concurrent use by multiple goroutines.
type MemorySource struct {
	files map[string][]byte
	mu    sync.RWMutex
}

// NewMemory creates a source backed by the given path->content map.
func NewMemory(files map[string]string) *MemorySource {
	m := &MemorySource{files: make(map[string][]byte, len(files))}
	for path, content := range files {
		m.files[path] = []byte(content)
	}
	return m
}

// Read implements ContentSource.
func (m *MemorySource) Read(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	return content, nil
}
