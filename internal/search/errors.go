package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/altinukshini/fzsearch/internal/process"
)

var (
	// ErrNoWorkspace means there is no root directory to search in.
	ErrNoWorkspace = errors.New("no workspace root")
	// ErrEmptyQuery means neither a content query nor a filename filter was
	// given. Callers treat it as a no-op, not a failure.
	ErrEmptyQuery = errors.New("empty query")
)

// Stage names the pipeline step that failed.
type Stage string

const (
	StageGitignore      Stage = "gitignore"
	StageGrep           Stage = "grep"
	StageFilenameFilter Stage = "filename filter"
	StageContentFilter  Stage = "content filter"
)

// StageError aborts a whole search. Its message carries the captured stderr
// of the failing tool verbatim when there is one.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	var pe *process.ProcessError
	if errors.As(e.Err, &pe) {
		if msg := strings.TrimSpace(pe.Stderr); msg != "" {
			return fmt.Sprintf("%s failed: %s", e.Stage, msg)
		}
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
