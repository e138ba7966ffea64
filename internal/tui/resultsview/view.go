package resultsview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cli/go-gh/v2/pkg/text"
	"github.com/sahilm/fuzzy"

	"github.com/altinukshini/fzsearch/internal/model"
	"github.com/altinukshini/fzsearch/internal/output"
	"github.com/altinukshini/fzsearch/internal/pager"
	"github.com/altinukshini/fzsearch/internal/ui"
)

type RowKind int

const (
	RowFile RowKind = iota
	RowMatch
	RowMore
)

// Row is one line of the flattened result tree.
type Row struct {
	Kind  RowKind
	File  string
	Count int
	Match model.Match
}

type Model struct {
	viewport viewport.Model
	root     string
	query    string

	groups    []model.FileGroup
	collapsed map[string]bool
	rows      []Row

	remaining int
	batch     int

	cursor int
	width  int
	height int
	ready  bool
}

func New() Model {
	return Model{collapsed: make(map[string]bool)}
}

// SetResults rebuilds the tree from the revealed part of p. With keepCursor
// the selection stays on the same row index, otherwise it moves to the top
// and fold state is reset.
func (m *Model) SetResults(p *pager.Pager, query string, keepCursor bool) {
	m.root = p.Root()
	m.query = query
	m.groups = p.Groups()
	m.remaining = p.Total() - p.Revealed()
	m.batch = p.BatchSize()
	if !keepCursor {
		m.collapsed = make(map[string]bool)
		m.cursor = 0
	}
	m.rebuild()
}

func (m *Model) Clear() {
	m.groups = nil
	m.rows = nil
	m.remaining = 0
	m.cursor = 0
	m.collapsed = make(map[string]bool)
	m.refresh()
}

func (m Model) Empty() bool { return len(m.rows) == 0 }

// Selected returns the row under the cursor.
func (m Model) Selected() (Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return Row{}, false
	}
	return m.rows[m.cursor], true
}

// SelectedMatch returns the file and match under the cursor, if the cursor
// is on a match row.
func (m Model) SelectedMatch() (string, model.Match, bool) {
	r, ok := m.Selected()
	if !ok || r.Kind != RowMatch {
		return "", model.Match{}, false
	}
	return r.File, r.Match, true
}

func (m Model) Cursor() int { return m.cursor }

func (m Model) Rows() []Row { return m.rows }

// ToggleFold collapses or expands the file of the selected row and moves
// the cursor onto the file heading.
func (m *Model) ToggleFold() {
	r, ok := m.Selected()
	if !ok || r.Kind == RowMore {
		return
	}
	m.collapsed[r.File] = !m.collapsed[r.File]
	m.rebuild()
	for i, row := range m.rows {
		if row.Kind == RowFile && row.File == r.File {
			m.cursor = i
			break
		}
	}
	m.refresh()
}

func (m *Model) rebuild() {
	m.rows = make([]Row, 0, len(m.rows))
	for _, g := range m.groups {
		m.rows = append(m.rows, Row{Kind: RowFile, File: g.File, Count: g.Count()})
		if m.collapsed[g.File] {
			continue
		}
		for _, match := range g.Matches {
			m.rows = append(m.rows, Row{Kind: RowMatch, File: g.File, Match: match})
		}
	}
	if m.remaining > 0 {
		m.rows = append(m.rows, Row{Kind: RowMore, Count: m.remaining})
	}
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
	m.refresh()
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		prev := m.cursor
		switch {
		case key.Matches(msg, ui.Keys.Down):
			m.cursor = min(m.cursor+1, max(len(m.rows)-1, 0))
		case key.Matches(msg, ui.Keys.Up):
			m.cursor = max(m.cursor-1, 0)
		case key.Matches(msg, ui.Keys.PageDown):
			m.cursor = min(m.cursor+m.pageSize(), max(len(m.rows)-1, 0))
		case key.Matches(msg, ui.Keys.PageUp):
			m.cursor = max(m.cursor-m.pageSize(), 0)
		case key.Matches(msg, ui.Keys.Top):
			m.cursor = 0
		case key.Matches(msg, ui.Keys.Bottom):
			m.cursor = max(len(m.rows)-1, 0)
		case key.Matches(msg, ui.Keys.Fold):
			m.ToggleFold()
			return m, nil
		}
		if m.cursor != prev {
			m.refresh()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) pageSize() int {
	return max(m.height-1, 1)
}

// refresh re-renders and keeps the cursor inside the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.render())
	if m.cursor < m.viewport.YOffset {
		m.viewport.SetYOffset(m.cursor)
	} else if m.cursor >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(m.cursor - m.viewport.Height + 1)
	}
}

func (m Model) render() string {
	if len(m.rows) == 0 {
		return "  No results"
	}

	var b strings.Builder
	for i, r := range m.rows {
		var line string
		switch r.Kind {
		case RowFile:
			name := output.DisplayPath(m.root, r.File)
			line = fmt.Sprintf("%s %s %s", ui.FoldIcon(m.collapsed[r.File]),
				ui.StyleFile.Render(text.Truncate(max(m.width-12, 10), name)),
				ui.StyleMuted.Render(fmt.Sprintf("(%d)", r.Count)))
		case RowMatch:
			num := fmt.Sprintf("%d: ", r.Match.Line)
			avail := max(m.width-4-len(num), 10)
			content := text.Truncate(avail, strings.ReplaceAll(r.Match.Content, "\t", "    "))
			line = "  " + ui.StyleLineNo.Render(num) + Highlight(content, m.query)
		case RowMore:
			next := min(m.batch, r.Count)
			line = ui.StyleInfo.Render(fmt.Sprintf("  … show %d more (%d remaining)", next, r.Count))
		}
		if i == m.cursor {
			line = ui.StyleSelected.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		if i < len(m.rows)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m Model) View() string {
	if !m.ready {
		return ""
	}
	return m.viewport.View()
}

// Highlight marks the characters of s matched by the terms of query.
// Negated terms are ignored and anchors are stripped.
func Highlight(s, query string) string {
	idx := MatchedIndexes(s, query)
	if len(idx) == 0 {
		return s
	}
	var b strings.Builder
	for i, r := range s {
		if _, ok := idx[i]; ok {
			b.WriteString(ui.StyleMatch.Render(string(r)))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MatchedIndexes returns the byte offsets in s that the query terms match.
func MatchedIndexes(s, query string) map[int]struct{} {
	idx := make(map[int]struct{})
	for _, term := range strings.Fields(query) {
		if strings.HasPrefix(term, "!") || term == "|" {
			continue
		}
		term = strings.TrimPrefix(strings.TrimPrefix(term, "'"), "^")
		term = strings.TrimSuffix(term, "$")
		if term == "" {
			continue
		}
		for _, match := range fuzzy.Find(term, []string{s}) {
			for _, i := range match.MatchedIndexes {
				idx[i] = struct{}{}
			}
		}
	}
	return idx
}
