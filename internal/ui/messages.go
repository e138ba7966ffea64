package ui

import "github.com/altinukshini/fzsearch/internal/search"

// SearchDoneMsg carries the outcome of one pipeline run. Outcomes of
// superseded searches are dropped by the receiver.
type SearchDoneMsg struct {
	Outcome search.Outcome
}

// SearchTickMsg fires after the typing debounce. Only the tick whose Seq
// matches the latest keystroke starts a search.
type SearchTickMsg struct {
	Seq int
}

// FilesChangedMsg is sent when the workspace watcher saw edits.
type FilesChangedMsg struct{}

type EditorClosedMsg struct {
	Path string
	Err  error
}

type PreviewLoadedMsg struct {
	Path    string
	Line    int // 1-based
	Content string
	Err     error
}

type StatusMsg struct {
	Text string
}
