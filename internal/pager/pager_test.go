package pager

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altinukshini/fzsearch/internal/model"
)

func lines(n int, fileOf func(i int) string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s:%d:line %d", fileOf(i), i+1, i)
	}
	return out
}

func TestSetAllRevealsFirstBatch(t *testing.T) {
	p := New(100)
	p.SetAll(lines(250, func(int) string { return "a.go" }), "/ws")

	assert.Equal(t, 250, p.Total())
	assert.Equal(t, 100, p.Revealed())
	assert.True(t, p.HasMore())
	require.Len(t, p.Groups(), 1)
	assert.Equal(t, "/ws/a.go", p.Groups()[0].File)
	assert.Equal(t, 100, p.Groups()[0].Count())
}

func TestRevealMoreIsMonotonic(t *testing.T) {
	p := New(10)
	p.SetAll(lines(25, func(int) string { return "a.go" }), "/ws")

	assert.True(t, p.RevealMore(10))
	assert.Equal(t, 20, p.Revealed())
	assert.False(t, p.RevealMore(10))
	assert.Equal(t, 25, p.Revealed())

	assert.False(t, p.RevealMore(10))
	assert.False(t, p.RevealMore(0))
	assert.Equal(t, 25, p.Revealed())
	assert.Equal(t, 25, p.Groups()[0].Count())
}

func TestRevealMoreZeroKeepsState(t *testing.T) {
	p := New(5)
	p.SetAll(lines(8, func(int) string { return "a.go" }), "/ws")
	assert.True(t, p.RevealMore(0))
	assert.True(t, p.RevealMore(-3))
	assert.Equal(t, 5, p.Revealed())
}

func TestGroupingFollowsRevealOrder(t *testing.T) {
	files := []string{"b.go", "a.go", "b.go", "/abs/c.go", "a.go", "b.go"}
	p := New(4)
	p.SetAll(lines(len(files), func(i int) string { return files[i] }), "/ws")

	groups := p.Groups()
	require.Len(t, groups, 3)
	assert.Equal(t, "/ws/b.go", groups[0].File)
	assert.Equal(t, "/ws/a.go", groups[1].File)
	assert.Equal(t, "/abs/c.go", groups[2].File)
	assert.Equal(t, 2, groups[0].Count())
	assert.Equal(t, 1, groups[1].Count())

	p.RevealAll()
	assert.False(t, p.HasMore())
	groups = p.Groups()
	require.Len(t, groups, 3)
	assert.Equal(t, 3, groups[0].Count())
	assert.Equal(t, 2, groups[1].Count())
	assert.Equal(t, 1, groups[2].Count())

	g, ok := p.Group("/ws/a.go")
	require.True(t, ok)
	assert.Equal(t, []model.Match{{Line: 2, Content: "line 1"}, {Line: 5, Content: "line 4"}}, g.Matches)

	_, ok = p.Group("a.go")
	assert.False(t, ok)
}

func TestRevealSkipsUnparseableLines(t *testing.T) {
	p := New(10)
	p.SetAll([]string{"a.go:1:x", "garbage", "a.go:2:y"}, "/ws")

	assert.Equal(t, 3, p.Revealed())
	require.Len(t, p.Groups(), 1)
	assert.Equal(t, 2, p.Groups()[0].Count())
}

func TestSetAllReplacesPreviousSet(t *testing.T) {
	p := New(10)
	p.SetAll([]string{"a.go:1:x", "b.go:1:y"}, "/one")
	p.SetAll([]string{"c.go:3:z"}, "/two")

	assert.Equal(t, 1, p.Total())
	assert.Equal(t, "/two", p.Root())
	require.Len(t, p.Groups(), 1)
	assert.Equal(t, "/two/c.go", p.Groups()[0].File)
	_, ok := p.Group("/one/a.go")
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	p := New(10)
	p.SetAll([]string{"a.go:1:x"}, "/ws")
	p.Clear()

	assert.Zero(t, p.Total())
	assert.Zero(t, p.Revealed())
	assert.False(t, p.HasMore())
	assert.Empty(t, p.Groups())
	assert.Empty(t, p.Lines())
	assert.False(t, p.RevealMore(10))
}

func TestRevealNextAndLines(t *testing.T) {
	p := New(2)
	p.SetAll([]string{"a:1:x", "a:2:y", "a:3:z"}, "/ws")
	assert.Equal(t, []string{"a:1:x", "a:2:y"}, p.Lines())
	assert.False(t, p.RevealNext())
	assert.Equal(t, []string{"a:1:x", "a:2:y", "a:3:z"}, p.Lines())
}

func TestDefaultBatchSize(t *testing.T) {
	assert.Equal(t, DefaultBatchSize, New(0).BatchSize())
	assert.Equal(t, 7, New(7).BatchSize())
}

func TestFingerprint(t *testing.T) {
	a := []string{"a.go:1:x", "b.go:2:y"}
	p := New(1)
	p.SetAll(a, "/ws")

	assert.Equal(t, Fingerprint(a), p.Fingerprint())
	assert.Equal(t, Fingerprint([]string{"a.go:1:x", "b.go:2:y"}), Fingerprint(a))
	assert.NotEqual(t, Fingerprint(a), Fingerprint([]string{"b.go:2:y", "a.go:1:x"}))
	assert.NotEqual(t, Fingerprint([]string{"ab"}), Fingerprint([]string{"a", "b"}))
}

func TestSetAllCopiesInput(t *testing.T) {
	in := []string{"a.go:1:x"}
	p := New(10)
	p.SetAll(in, "/ws")
	in[0] = "z.go:9:q"
	assert.Equal(t, []string{"a.go:1:x"}, p.Lines())
}
