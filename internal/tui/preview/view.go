package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cli/go-gh/v2/pkg/text"
)

// contextAbove is how many lines are kept above the match when scrolling.
const contextAbove = 5

type Model struct {
	viewport viewport.Model
	path     string
	title    string
	content  string
	err      error
	width    int
	height   int
	ready    bool
	loading  bool

	jumpLine int // 0-based line to highlight, -1 = none
}

func New() Model {
	return Model{jumpLine: -1}
}

// SetContent shows content of path with the 1-based line highlighted.
func (m *Model) SetContent(path, title, content string, line int) {
	m.path = path
	m.title = title
	m.content = strings.TrimRight(content, "\n")
	m.err = nil
	m.loading = false
	m.jumpLine = line - 1
	if m.ready {
		m.render()
	}
}

func (m *Model) SetError(path, title string, err error) {
	m.path = path
	m.title = title
	m.content = ""
	m.err = err
	m.loading = false
	m.jumpLine = -1
}

func (m *Model) SetLoading() {
	m.loading = true
}

func (m *Model) Reset() {
	*m = Model{viewport: m.viewport, width: m.width, height: m.height, ready: m.ready, jumpLine: -1}
	if m.ready {
		m.viewport.SetContent("")
	}
}

// Path is the file currently shown.
func (m Model) Path() string { return m.path }

// Line is the highlighted 1-based line, or 0.
func (m Model) Line() int { return m.jumpLine + 1 }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		vh := max(msg.Height-1, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vh)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vh
		}
		if m.content != "" {
			m.render()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) render() {
	m.viewport.SetContent(m.applyHighlights())
	m.viewport.SetYOffset(max(m.jumpLine-contextAbove, 0))
}

// applyHighlights numbers the lines and marks the jump line.
func (m Model) applyHighlights() string {
	current := lipgloss.NewStyle().Background(lipgloss.Color("#92400E")).Bold(true)
	gutter := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	lines := strings.Split(m.content, "\n")
	width := len(fmt.Sprint(len(lines)))
	textW := m.width - width - 2
	for i, line := range lines {
		line = strings.ReplaceAll(line, "\t", "    ")
		if textW > 0 {
			line = text.Truncate(textW, line)
		}
		num := gutter.Render(fmt.Sprintf("%*d ", width, i+1))
		if i == m.jumpLine {
			line = current.Render(line)
		}
		lines[i] = num + " " + line
	}
	return strings.Join(lines, "\n")
}

func (m Model) View() string {
	if m.loading {
		return "\n  Loading preview..."
	}
	if m.err != nil {
		return fmt.Sprintf("\n  %s: %v", m.title, m.err)
	}
	if m.path == "" {
		return "\n  Select a match to preview"
	}

	header := lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color("#F9FAFB")).
		Render(fmt.Sprintf(" %s:%d  %3.f%%", m.title, m.Line(), m.viewport.ScrollPercent()*100))
	return header + "\n" + m.viewport.View()
}
