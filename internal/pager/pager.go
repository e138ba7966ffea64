// Package pager holds the complete result set of one search and discloses it
// to the presentation layer in fixed-size batches grouped by file.
package pager

import (
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/altinukshini/fzsearch/internal/model"
	"github.com/altinukshini/fzsearch/internal/search"
)

const DefaultBatchSize = 100

// Pager is not safe for concurrent use; callers serialize access.
type Pager struct {
	batch int
	root  string

	lines    []string
	revealed int
	fp       uint64

	groups []model.FileGroup
	index  map[string]int // file -> position in groups
}

func New(batch int) *Pager {
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &Pager{batch: batch, index: make(map[string]int)}
}

// SetAll replaces the result set and reveals the first batch.
func (p *Pager) SetAll(lines []string, root string) {
	p.Clear()
	p.root = root
	p.lines = append([]string(nil), lines...)
	p.fp = Fingerprint(p.lines)
	p.RevealMore(p.batch)
}

// RevealMore advances the cursor by up to n lines and reports whether lines
// remain unrevealed. At the end of the set it is a no-op returning false.
func (p *Pager) RevealMore(n int) bool {
	if n <= 0 || p.revealed >= len(p.lines) {
		return p.HasMore()
	}
	end := min(p.revealed+n, len(p.lines))
	for _, raw := range p.lines[p.revealed:end] {
		p.add(raw)
	}
	p.revealed = end
	return p.HasMore()
}

// RevealNext reveals one batch.
func (p *Pager) RevealNext() bool {
	return p.RevealMore(p.batch)
}

func (p *Pager) RevealAll() {
	p.RevealMore(len(p.lines) - p.revealed)
}

func (p *Pager) Clear() {
	p.root = ""
	p.lines = nil
	p.revealed = 0
	p.fp = 0
	p.groups = nil
	p.index = make(map[string]int)
}

func (p *Pager) add(raw string) {
	r, ok := search.Parse(raw)
	if !ok {
		return
	}
	file := r.File
	if !filepath.IsAbs(file) {
		file = filepath.Join(p.root, file)
	}
	i, ok := p.index[file]
	if !ok {
		i = len(p.groups)
		p.index[file] = i
		p.groups = append(p.groups, model.FileGroup{File: file})
	}
	p.groups[i].Matches = append(p.groups[i].Matches, model.Match{Line: r.Line, Content: r.Content})
}

func (p *Pager) Total() int     { return len(p.lines) }
func (p *Pager) Revealed() int  { return p.revealed }
func (p *Pager) HasMore() bool  { return p.revealed < len(p.lines) }
func (p *Pager) BatchSize() int { return p.batch }
func (p *Pager) Root() string   { return p.root }

// Lines returns the raw result lines revealed so far.
func (p *Pager) Lines() []string {
	return p.lines[:p.revealed]
}

// Groups returns the revealed matches grouped by file in first-seen order.
func (p *Pager) Groups() []model.FileGroup {
	return p.groups
}

// Group returns the revealed matches of file.
func (p *Pager) Group(file string) (model.FileGroup, bool) {
	i, ok := p.index[file]
	if !ok {
		return model.FileGroup{}, false
	}
	return p.groups[i], true
}

// Fingerprint identifies the full result set currently held.
func (p *Pager) Fingerprint() uint64 {
	return p.fp
}

// Fingerprint hashes an ordered list of raw result lines.
func Fingerprint(lines []string) uint64 {
	d := xxhash.New()
	for _, l := range lines {
		_, _ = d.WriteString(l)
		_, _ = d.Write([]byte{'\n'})
	}
	return d.Sum64()
}
