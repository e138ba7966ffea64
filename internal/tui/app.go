package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cli/go-gh/v2/pkg/text"

	"github.com/altinukshini/fzsearch/internal/cache"
	"github.com/altinukshini/fzsearch/internal/config"
	"github.com/altinukshini/fzsearch/internal/editor"
	"github.com/altinukshini/fzsearch/internal/model"
	"github.com/altinukshini/fzsearch/internal/output"
	"github.com/altinukshini/fzsearch/internal/pager"
	"github.com/altinukshini/fzsearch/internal/search"
	"github.com/altinukshini/fzsearch/internal/tui/confirm"
	"github.com/altinukshini/fzsearch/internal/tui/preview"
	"github.com/altinukshini/fzsearch/internal/tui/resultsview"
	"github.com/altinukshini/fzsearch/internal/ui"
)

const searchDebounce = 250 * time.Millisecond

const actionRevealAll = "reveal-all"

type Focus int

const (
	FocusQuery Focus = iota
	FocusFilter
	FocusResults
)

// ChangeSource delivers workspace change notifications. *watch.Watcher
// implements it.
type ChangeSource interface {
	Events() <-chan struct{}
}

type App struct {
	cfg      config.Config
	searcher *search.Searcher
	pager    *pager.Pager
	files    *cache.FileCache
	changes  ChangeSource
	logger   *slog.Logger
	engines  string

	// Views
	queryInput    textinput.Model
	filterInput   textinput.Model
	resultsView   resultsview.Model
	previewView   preview.Model
	confirmDialog confirm.Model

	// State
	focus       Focus
	width       int
	height      int
	status      string
	statusErr   bool
	seq         int
	searching   bool
	searchID    uint64
	refreshID   uint64
	lastQuery   string
	showPreview bool
	showHelp    bool
}

func NewApp(cfg config.Config, backend search.Backend, changes ChangeSource, logger *slog.Logger) App {
	if logger == nil {
		logger = slog.Default()
	}

	qi := textinput.New()
	qi.Prompt = "query> "
	qi.PromptStyle = ui.StylePrompt
	qi.Placeholder = "fuzzy content query"
	qi.CharLimit = 256
	qi.SetValue(cfg.Query)
	qi.Focus()

	fi := textinput.New()
	fi.Prompt = " file> "
	fi.PromptStyle = ui.StylePrompt
	fi.Placeholder = "fuzzy filename filter"
	fi.CharLimit = 256
	fi.SetValue(cfg.FileFilter)

	return App{
		cfg:         cfg,
		searcher:    search.NewSearcher(backend),
		pager:       pager.New(cfg.BatchSize),
		files:       cache.NewFileCache(cache.DefaultMaxSizeMB),
		changes:     changes,
		logger:      logger,
		engines:     fmt.Sprintf("%s → %s", cfg.GrepPath, cfg.FuzzyPath),
		queryInput:  qi,
		filterInput: fi,
		resultsView: resultsview.New(),
		previewView: preview.New(),
		focus:       FocusQuery,
		status:      "Type to search",
	}
}

func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, a.waitForChanges()}
	if strings.TrimSpace(a.cfg.Query) != "" || strings.TrimSpace(a.cfg.FileFilter) != "" {
		cmds = append(cmds, func() tea.Msg { return ui.SearchTickMsg{Seq: 0} })
	}
	return tea.Batch(cmds...)
}

// --- Commands ---

func (a App) request() model.Request {
	return model.Request{
		Root:           a.cfg.Root,
		ContentQuery:   a.queryInput.Value(),
		FilenameFilter: a.filterInput.Value(),
	}
}

// startSearch supersedes any running search with one for the current
// inputs. Blank inputs clear the results instead.
func (a *App) startSearch() tea.Cmd {
	req := a.request()
	if blank(req) {
		a.searcher.Cancel()
		a.clearResults()
		a.status = "Type to search"
		return nil
	}
	id, run := a.searcher.Start(context.Background(), req)
	a.searchID = id
	a.searching = true
	a.status = "Searching…"
	a.statusErr = false
	a.logger.Debug("search started", "id", id, "query", req.ContentQuery, "file", req.FilenameFilter)
	return func() tea.Msg {
		return ui.SearchDoneMsg{Outcome: run()}
	}
}

func blank(req model.Request) bool {
	return strings.TrimSpace(req.ContentQuery) == "" && strings.TrimSpace(req.FilenameFilter) == ""
}

func (a App) scheduleSearch() tea.Cmd {
	seq := a.seq
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return ui.SearchTickMsg{Seq: seq}
	})
}

func (a App) waitForChanges() tea.Cmd {
	if a.changes == nil {
		return nil
	}
	events := a.changes.Events()
	return func() tea.Msg {
		if _, ok := <-events; !ok {
			return nil
		}
		return ui.FilesChangedMsg{}
	}
}

func (a App) loadPreview() tea.Cmd {
	file, match, ok := a.resultsView.SelectedMatch()
	if !ok {
		return nil
	}
	files := a.files
	return func() tea.Msg {
		content, err := files.Get(file)
		return ui.PreviewLoadedMsg{Path: file, Line: match.Line, Content: content, Err: err}
	}
}

func (a *App) openSelected() tea.Cmd {
	file, match, ok := a.resultsView.SelectedMatch()
	if !ok {
		return nil
	}
	cmd, err := editor.Command(a.cfg.Editor, model.OpenRequestFor(file, match.Line))
	if err != nil {
		a.setError(err)
		return nil
	}
	a.files.Invalidate(file)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return ui.EditorClosedMsg{Path: file, Err: err}
	})
}

func (a *App) clearResults() {
	a.pager.Clear()
	a.resultsView.Clear()
	a.previewView.Reset()
	a.searching = false
}

func (a *App) setError(err error) {
	a.status = err.Error()
	a.statusErr = true
}

func (a App) summary() string {
	return fmt.Sprintf("%s in %s (showing %d)",
		text.Pluralize(a.pager.Total(), "result"),
		text.Pluralize(len(a.pager.Groups()), "file"),
		a.pager.Revealed())
}

// --- Update ---

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Confirm dialog result arrives after the dialog deactivated itself.
	if result, ok := msg.(confirm.ResultMsg); ok {
		if result.Confirmed && result.Action == actionRevealAll {
			a.pager.RevealAll()
			a.resultsView.SetResults(a.pager, a.lastQuery, true)
			a.status = a.summary()
		}
		return &a, nil
	}

	if a.confirmDialog.IsActive() {
		if _, isKey := msg.(tea.KeyMsg); isKey {
			var cmd tea.Cmd
			a.confirmDialog, cmd = a.confirmDialog.Update(msg)
			return &a, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.propagateSize()
		return &a, nil

	case ui.SearchTickMsg:
		if msg.Seq != a.seq {
			return &a, nil
		}
		return &a, a.startSearch()

	case ui.SearchDoneMsg:
		return a.handleSearchDone(msg.Outcome)

	case ui.FilesChangedMsg:
		cmds = append(cmds, a.waitForChanges())
		if a.searching || blank(a.request()) {
			return &a, tea.Batch(cmds...)
		}
		if cmd := a.startSearch(); cmd != nil {
			a.refreshID = a.searchID
			cmds = append(cmds, cmd)
		}
		return &a, tea.Batch(cmds...)

	case ui.PreviewLoadedMsg:
		file, match, ok := a.resultsView.SelectedMatch()
		if !ok || file != msg.Path || match.Line != msg.Line {
			return &a, nil
		}
		title := output.DisplayPath(a.cfg.Root, msg.Path)
		if msg.Err != nil {
			a.previewView.SetError(msg.Path, title, msg.Err)
		} else {
			a.previewView.SetContent(msg.Path, title, msg.Content, msg.Line)
		}
		return &a, nil

	case ui.EditorClosedMsg:
		if msg.Err != nil {
			a.logger.Error("editor failed", "path", msg.Path, "err", msg.Err)
			a.setError(fmt.Errorf("editor: %w", msg.Err))
		}
		if a.showPreview {
			cmds = append(cmds, a.loadPreview())
		}
		return &a, tea.Batch(cmds...)

	case ui.StatusMsg:
		a.status = msg.Text
		a.statusErr = false
		return &a, nil

	case tea.KeyMsg:
		if a.showHelp {
			a.showHelp = false
			return &a, nil
		}
		if key.Matches(msg, ui.Keys.ForceQuit) {
			a.searcher.Cancel()
			return &a, tea.Quit
		}
		if key.Matches(msg, ui.Keys.Clear) {
			a.searcher.Cancel()
			a.queryInput.SetValue("")
			a.filterInput.SetValue("")
			a.lastQuery = ""
			a.clearResults()
			a.status = "Cleared"
			a.statusErr = false
			a.setFocus(FocusQuery)
			return &a, nil
		}
		if a.focus == FocusResults {
			return a.updateResults(msg)
		}
		return a.updateInputs(msg)
	}

	var cmd tea.Cmd
	switch a.focus {
	case FocusQuery:
		a.queryInput, cmd = a.queryInput.Update(msg)
	case FocusFilter:
		a.filterInput, cmd = a.filterInput.Update(msg)
	}
	return &a, cmd
}

func (a App) handleSearchDone(out search.Outcome) (tea.Model, tea.Cmd) {
	if !a.searcher.Current(out.ID) {
		a.logger.Debug("dropping superseded search", "id", out.ID)
		return &a, nil
	}
	a.searching = false
	refresh := out.ID == a.refreshID
	a.refreshID = 0

	switch {
	case errors.Is(out.Err, search.ErrEmptyQuery):
		a.clearResults()
		a.status = "Type to search"
		return &a, nil
	case errors.Is(out.Err, context.Canceled):
		return &a, nil
	case out.Err != nil:
		a.logger.Error("search failed", "err", out.Err)
		a.clearResults()
		a.setError(out.Err)
		return &a, nil
	}

	a.lastQuery = out.Request.ContentQuery
	if refresh && pager.Fingerprint(out.Result.Lines) == a.pager.Fingerprint() {
		a.logger.Debug("results unchanged after file change")
		a.status = a.summary()
		return &a, nil
	}

	a.pager.SetAll(out.Result.Lines, a.cfg.Root)
	a.resultsView.SetResults(a.pager, a.lastQuery, false)
	a.status = a.summary()
	a.statusErr = false
	if out.Result.Truncated {
		a.status += fmt.Sprintf(" [capped at %d]", a.cfg.MaxResults)
	}
	a.logger.Debug("search finished", "id", out.ID, "results", a.pager.Total(), "elapsed", out.Result.Elapsed)

	if a.showPreview {
		a.previewView.Reset()
		return &a, a.loadPreview()
	}
	return &a, nil
}

func (a App) updateInputs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, ui.Keys.Tab):
		if a.focus == FocusQuery {
			a.setFocus(FocusFilter)
		} else {
			a.setFocus(FocusQuery)
		}
		return &a, nil
	case key.Matches(msg, ui.Keys.Enter):
		a.seq++
		return &a, a.startSearch()
	case key.Matches(msg, ui.Keys.Back), msg.Type == tea.KeyDown:
		if !a.resultsView.Empty() {
			a.setFocus(FocusResults)
		}
		return &a, nil
	}

	before := a.request()
	var cmd tea.Cmd
	if a.focus == FocusFilter {
		a.filterInput, cmd = a.filterInput.Update(msg)
	} else {
		a.queryInput, cmd = a.queryInput.Update(msg)
	}
	if a.request() != before {
		a.seq++
		return &a, tea.Batch(cmd, a.scheduleSearch())
	}
	return &a, cmd
}

func (a App) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, ui.Keys.Quit):
		a.searcher.Cancel()
		return &a, tea.Quit
	case key.Matches(msg, ui.Keys.Help):
		a.showHelp = true
		return &a, nil
	case key.Matches(msg, ui.Keys.Back), key.Matches(msg, ui.Keys.Focus):
		a.setFocus(FocusQuery)
		return &a, nil
	case key.Matches(msg, ui.Keys.Tab):
		a.setFocus(FocusFilter)
		return &a, nil
	case key.Matches(msg, ui.Keys.Enter):
		row, ok := a.resultsView.Selected()
		if !ok {
			return &a, nil
		}
		switch row.Kind {
		case resultsview.RowMore:
			a.pager.RevealNext()
			a.resultsView.SetResults(a.pager, a.lastQuery, true)
			a.status = a.summary()
			return &a, a.previewCmd()
		case resultsview.RowFile:
			a.resultsView.ToggleFold()
			return &a, nil
		default:
			return &a, a.openSelected()
		}
	case key.Matches(msg, ui.Keys.RevealAll):
		if !a.pager.HasMore() {
			return &a, nil
		}
		remaining := a.pager.Total() - a.pager.Revealed()
		a.confirmDialog = confirm.New("Show all results",
			fmt.Sprintf("Reveal the remaining %s?", text.Pluralize(remaining, "result")),
			actionRevealAll)
		return &a, nil
	case key.Matches(msg, ui.Keys.Preview):
		a.showPreview = !a.showPreview
		a.propagateSize()
		return &a, a.previewCmd()
	}

	before := a.resultsView.Cursor()
	var cmd tea.Cmd
	a.resultsView, cmd = a.resultsView.Update(msg)
	if a.resultsView.Cursor() != before {
		return &a, tea.Batch(cmd, a.previewCmd())
	}
	return &a, cmd
}

func (a App) previewCmd() tea.Cmd {
	if !a.showPreview {
		return nil
	}
	return a.loadPreview()
}

func (a *App) setFocus(f Focus) {
	a.focus = f
	a.queryInput.Blur()
	a.filterInput.Blur()
	switch f {
	case FocusQuery:
		a.queryInput.Focus()
	case FocusFilter:
		a.filterInput.Focus()
	}
}

func (a *App) contentHeight() int {
	// header(1) + inputs(1) + status(1) + pane border(2)
	return max(a.height-5, 1)
}

func (a *App) propagateSize() {
	contentH := a.contentHeight()
	half := a.width / 2
	a.queryInput.Width = max(half-len(a.queryInput.Prompt)-2, 10)
	a.filterInput.Width = max(a.width-half-len(a.filterInput.Prompt)-2, 10)

	resultsW := a.width - 2
	if a.showPreview {
		resultsW = a.width*45/100 - 2
		a.previewView, _ = a.previewView.Update(
			tea.WindowSizeMsg{Width: max(a.width-resultsW-6, 1), Height: contentH})
	}
	a.resultsView, _ = a.resultsView.Update(
		tea.WindowSizeMsg{Width: max(resultsW, 1), Height: contentH})
}

// --- View ---

func (a App) View() string {
	header := RenderHeader(a.cfg.Root, a.engines, a.changes != nil, a.width)
	inputs := lipgloss.JoinHorizontal(lipgloss.Top, a.queryInput.View(), "  ", a.filterInput.View())

	contentH := a.contentHeight()
	var content string
	switch {
	case a.showHelp:
		content = a.renderHelp()
	case a.confirmDialog.IsActive():
		content = lipgloss.Place(a.width, contentH+2, lipgloss.Center, lipgloss.Center, a.confirmDialog.View())
	default:
		content = a.renderPanes()
	}

	statusBar := RenderStatusBar(a.status, a.statusErr, a.contextHints(), a.width)

	// header(1) + inputs(1) + statusbar(1) = 3 lines of chrome.
	maxContentLines := a.height - 3
	if maxContentLines > 0 {
		lines := strings.Split(content, "\n")
		if len(lines) > maxContentLines {
			lines = lines[:maxContentLines]
			content = strings.Join(lines, "\n")
		}
	}

	return header + "\n" + inputs + "\n" + content + "\n" + statusBar
}

func (a App) renderPanes() string {
	contentH := a.contentHeight()
	resultsStyle := ui.StylePane
	if a.focus == FocusResults {
		resultsStyle = ui.StylePaneFocused
	}
	if !a.showPreview {
		return resultsStyle.Width(a.width - 2).Height(contentH).Render(a.resultsView.View())
	}
	leftW := a.width*45/100 - 2
	left := resultsStyle.Width(leftW).Height(contentH).Render(a.resultsView.View())
	right := ui.StylePane.Width(max(a.width-leftW-4, 1)).Height(contentH).Render(a.previewView.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (a App) contextHints() string {
	switch {
	case a.confirmDialog.IsActive():
		return "y/n: confirm"
	case a.focus == FocusResults:
		hints := "enter:open  space:fold  p:preview  esc:query  ?:help  q:quit"
		if a.pager.HasMore() {
			hints = "A:show all  " + hints
		}
		return hints
	default:
		return "enter:search  tab:query/file  esc:results  ctrl+l:clear  ctrl+c:quit"
	}
}

func (a App) renderHelp() string {
	contentH := a.contentHeight()

	bold := lipgloss.NewStyle().Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(ui.ColorPrimary).Bold(true).Width(14)
	desc := lipgloss.NewStyle().Foreground(lipgloss.Color("#D1D5DB"))

	row := func(k, d string) string {
		return "  " + keyStyle.Render(k) + desc.Render(d) + "\n"
	}

	var b strings.Builder
	b.WriteString("\n" + bold.Render("  Query") + "\n\n")
	b.WriteString(row("typing", "Search after a short pause"))
	b.WriteString(row("enter", "Search now"))
	b.WriteString(row("tab", "Switch between query and file filter"))
	b.WriteString(row("esc / down", "Go to results"))
	b.WriteString(row("ctrl+l", "Clear query and results"))
	b.WriteString(row("ctrl+c", "Quit"))

	b.WriteString("\n" + bold.Render("  Results") + "\n\n")
	b.WriteString(row("j / k", "Move down / up"))
	b.WriteString(row("g / G", "Go to top / bottom"))
	b.WriteString(row("PgUp/PgDn", "Page up / page down"))
	b.WriteString(row("enter", "Open match in editor, fold file, or show more"))
	b.WriteString(row("space", "Fold / unfold file"))
	b.WriteString(row("A", "Show all remaining results"))
	b.WriteString(row("p", "Toggle preview"))
	b.WriteString(row("esc or /", "Back to query"))
	b.WriteString(row("q", "Quit"))

	b.WriteString("\n" + lipgloss.NewStyle().Foreground(ui.ColorMuted).Render("  Press any key to close") + "\n")

	style := ui.StylePaneFocused.Width(a.width - 2).Height(contentH)
	return style.Render(b.String())
}
