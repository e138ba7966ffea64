package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altinukshini/fzsearch/internal/pager"
)

func sample() *pager.Pager {
	p := pager.New(2)
	p.SetAll([]string{
		"src/a.go:3:foo bar",
		"lib/b.go:10:baz foo",
		"src/a.go:12:  foo()",
		"/elsewhere/c.go:1:foo",
	}, "/ws")
	return p
}

func TestWriteGrouped(t *testing.T) {
	var buf bytes.Buffer
	p := sample()
	require.NoError(t, Write(&buf, p, false))

	assert.Equal(t, "src/a.go\n  3: foo bar\n  12: foo()\n\nlib/b.go\n  10: baz foo\n\n/elsewhere/c.go\n  1: foo\n", buf.String())
	assert.False(t, p.HasMore())
}

func TestWriteRaw(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample(), true))
	assert.Equal(t, "src/a.go:3:foo bar\nlib/b.go:10:baz foo\nsrc/a.go:12:  foo()\n/elsewhere/c.go:1:foo\n", buf.String())
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	p := pager.New(10)
	p.SetAll(nil, "/ws")
	require.NoError(t, Write(&buf, p, false))
	assert.Empty(t, buf.String())
	assert.Equal(t, "0 results in 0 files", Summary(p))
}

func TestSummary(t *testing.T) {
	p := sample()
	p.RevealAll()
	assert.Equal(t, "4 results in 3 files", Summary(p))

	one := pager.New(10)
	one.SetAll([]string{"a:1:x"}, "/ws")
	assert.Equal(t, "1 result in 1 file", Summary(one))
}

func TestDisplayPath(t *testing.T) {
	assert.Equal(t, "src/a.go", DisplayPath("/ws", "/ws/src/a.go"))
	assert.Equal(t, "/other/a.go", DisplayPath("/ws", "/other/a.go"))
	assert.Equal(t, "/ws/a.go", DisplayPath("", "/ws/a.go"))
	assert.Equal(t, "/wsx/a.go", DisplayPath("/ws", "/wsx/a.go"))
}
