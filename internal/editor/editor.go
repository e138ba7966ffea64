// Package editor builds the command that jumps an external editor to a
// search result.
package editor

import (
	"errors"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/altinukshini/fzsearch/internal/model"
)

var ErrNoEditor = errors.New("no editor configured")

// gotoStyle lists editors that take path:line instead of +line path.
var gotoStyle = map[string][]string{
	"code":   {"--goto"},
	"codium": {"--goto"},
	"cursor": {"--goto"},
	"subl":   nil,
	"zed":    nil,
}

// Args returns the argv for editorCmd opening req. An editor command with
// {path} or {line} placeholders is expanded, {line} being one-based.
func Args(editorCmd string, req model.OpenRequest) ([]string, error) {
	fields := strings.Fields(editorCmd)
	if len(fields) == 0 {
		return nil, ErrNoEditor
	}
	line := strconv.Itoa(req.Line + 1)

	if strings.Contains(editorCmd, "{path}") || strings.Contains(editorCmd, "{line}") {
		r := strings.NewReplacer("{path}", req.Path, "{line}", line)
		for i, f := range fields {
			fields[i] = r.Replace(f)
		}
		return fields, nil
	}

	if flags, ok := gotoStyle[filepath.Base(fields[0])]; ok {
		fields = append(fields, flags...)
		return append(fields, req.Path+":"+line), nil
	}
	return append(fields, "+"+line, req.Path), nil
}

// Command returns an unstarted command for editorCmd opening req.
func Command(editorCmd string, req model.OpenRequest) (*exec.Cmd, error) {
	args, err := Args(editorCmd, req)
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = filepath.Dir(req.Path)
	return cmd, nil
}
