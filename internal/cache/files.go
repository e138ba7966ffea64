// Package cache keeps recently previewed files in memory.
package cache

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

const (
	DefaultMaxSizeMB = 32
	// MaxFileSize is the largest file that will be loaded for preview.
	MaxFileSize = 4 * 1024 * 1024
)

var (
	ErrTooLarge = errors.New("file too large to preview")
	ErrBinary   = errors.New("binary file")
)

type entry struct {
	content      string
	modTime      time.Time
	size         int64
	lastAccessed time.Time
}

// FileCache holds file contents keyed by path. An entry is reused only while
// the file's size and mtime are unchanged. It is safe for concurrent use.
type FileCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	total   int64
	maxSize int64 // max total cache size in bytes
	now     func() time.Time
}

func NewFileCache(maxSizeMB int) *FileCache {
	if maxSizeMB <= 0 {
		maxSizeMB = DefaultMaxSizeMB
	}
	return &FileCache{
		entries: make(map[string]*entry),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		now:     time.Now,
	}
}

// Get returns the content of path, reading it from disk when the cached copy
// is missing or stale.
func (fc *FileCache) Get(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxFileSize {
		return "", ErrTooLarge
	}

	fc.mu.Lock()
	if e, ok := fc.entries[path]; ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
		e.lastAccessed = fc.now()
		fc.mu.Unlock()
		return e.content, nil
	}
	fc.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if isBinary(data) {
		return "", ErrBinary
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.removeLocked(path)
	fc.entries[path] = &entry{
		content:      string(data),
		modTime:      info.ModTime(),
		size:         int64(len(data)),
		lastAccessed: fc.now(),
	}
	fc.total += int64(len(data))
	fc.evictLocked()
	return string(data), nil
}

// Invalidate drops path from the cache.
func (fc *FileCache) Invalidate(path string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.removeLocked(path)
}

// Reset drops every entry.
func (fc *FileCache) Reset() {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.entries = make(map[string]*entry)
	fc.total = 0
}

func (fc *FileCache) Len() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.entries)
}

// TotalSize returns total cached bytes.
func (fc *FileCache) TotalSize() int64 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.total
}

func (fc *FileCache) removeLocked(path string) {
	if e, ok := fc.entries[path]; ok {
		fc.total -= e.size
		delete(fc.entries, path)
	}
}

// evictLocked removes least recently used entries while over the size cap.
func (fc *FileCache) evictLocked() {
	if fc.total <= fc.maxSize {
		return
	}
	type keyed struct {
		path string
		at   time.Time
	}
	order := make([]keyed, 0, len(fc.entries))
	for p, e := range fc.entries {
		order = append(order, keyed{path: p, at: e.lastAccessed})
	}
	sort.Slice(order, func(i, j int) bool {
		return order[i].at.Before(order[j].at)
	})
	for _, k := range order {
		if fc.total <= fc.maxSize {
			break
		}
		fc.removeLocked(k.path)
	}
}

func isBinary(data []byte) bool {
	n := min(len(data), 8000)
	return bytes.IndexByte(data[:n], 0) >= 0
}
