// Package output writes a result set for non-interactive use.
package output

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cli/go-gh/v2/pkg/text"

	"github.com/altinukshini/fzsearch/internal/pager"
)

// Write reveals every remaining batch of p and prints it to w, either as raw
// file:line:content lines or grouped under file headings.
func Write(w io.Writer, p *pager.Pager, raw bool) error {
	for p.RevealNext() {
	}

	bw := bufio.NewWriter(w)
	if raw {
		for _, l := range p.Lines() {
			fmt.Fprintln(bw, l)
		}
		return bw.Flush()
	}

	for i, g := range p.Groups() {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		fmt.Fprintln(bw, DisplayPath(p.Root(), g.File))
		for _, m := range g.Matches {
			fmt.Fprintf(bw, "  %d: %s\n", m.Line, m.Content)
		}
	}
	return bw.Flush()
}

// Summary describes the result count, e.g. "3 results in 2 files".
func Summary(p *pager.Pager) string {
	return fmt.Sprintf("%s in %s", text.Pluralize(p.Total(), "result"), text.Pluralize(len(p.Groups()), "file"))
}

// DisplayPath shows file relative to root when it lies inside it.
func DisplayPath(root, file string) string {
	if root == "" {
		return file
	}
	rel, err := filepath.Rel(root, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return file
	}
	return rel
}
