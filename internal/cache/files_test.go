package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestGetCachesUntilFileChanges(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "a.go", "package a\n")
	fc := NewFileCache(1)

	got, err := fc.Get(p)
	require.NoError(t, err)
	assert.Equal(t, "package a\n", got)
	assert.Equal(t, 1, fc.Len())
	assert.Equal(t, int64(len("package a\n")), fc.TotalSize())

	require.NoError(t, os.WriteFile(p, []byte("package b // changed\n"), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(p, later, later))

	got, err = fc.Get(p)
	require.NoError(t, err)
	assert.Equal(t, "package b // changed\n", got)
	assert.Equal(t, 1, fc.Len())
	assert.Equal(t, int64(len("package b // changed\n")), fc.TotalSize())
}

func TestGetErrors(t *testing.T) {
	dir := t.TempDir()
	fc := NewFileCache(1)

	_, err := fc.Get(filepath.Join(dir, "missing.go"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = fc.Get(dir)
	assert.Error(t, err)

	bin := write(t, dir, "blob", "ab\x00cd")
	_, err = fc.Get(bin)
	assert.ErrorIs(t, err, ErrBinary)

	big := write(t, dir, "big.txt", strings.Repeat("x", MaxFileSize+1))
	_, err = fc.Get(big)
	assert.ErrorIs(t, err, ErrTooLarge)

	assert.Zero(t, fc.Len())
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	dir := t.TempDir()
	fc := NewFileCache(1)
	clock := time.Unix(1000, 0)
	fc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	half := strings.Repeat("x", 512*1024)
	a := write(t, dir, "a.txt", half)
	b := write(t, dir, "b.txt", half)
	c := write(t, dir, "c.txt", half)

	_, err := fc.Get(a)
	require.NoError(t, err)
	_, err = fc.Get(b)
	require.NoError(t, err)
	_, err = fc.Get(a) // a is now more recent than b
	require.NoError(t, err)
	_, err = fc.Get(c)
	require.NoError(t, err)

	assert.Equal(t, 2, fc.Len())
	assert.LessOrEqual(t, fc.TotalSize(), int64(1024*1024))
	fc.mu.Lock()
	_, hasA := fc.entries[a]
	_, hasB := fc.entries[b]
	fc.mu.Unlock()
	assert.True(t, hasA)
	assert.False(t, hasB)
}

func TestInvalidateAndReset(t *testing.T) {
	dir := t.TempDir()
	fc := NewFileCache(0)
	a := write(t, dir, "a.txt", "a")
	b := write(t, dir, "b.txt", "b")
	_, _ = fc.Get(a)
	_, _ = fc.Get(b)

	fc.Invalidate(a)
	assert.Equal(t, 1, fc.Len())
	assert.Equal(t, int64(1), fc.TotalSize())

	fc.Reset()
	assert.Zero(t, fc.Len())
	assert.Zero(t, fc.TotalSize())
}
