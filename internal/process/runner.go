package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// NoMatchExitCodes is the accepted exit set for grep and fuzzy engines:
// 0 means matches, 1 means zero matches.
var NoMatchExitCodes = []int{0, 1}

// Command describes one external process invocation.
type Command struct {
	Binary string
	Args   []string
	Dir    string
	// Stdin lines are joined with "\n" and written before the input is
	// closed. A nil slice leaves stdin unattached.
	Stdin []string
	// Accept lists exit codes that count as success. Empty means only 0.
	Accept []int
}

func (c Command) accepts(code int) bool {
	if len(c.Accept) == 0 {
		return code == 0
	}
	return slices.Contains(c.Accept, code)
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Binary}, c.Args...), " ")
}

// SpawnError means the binary could not be started at all.
type SpawnError struct {
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("cannot run %s: %v", e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ProcessError means the process ran and exited with a code outside the
// accepted set. ExitCode is -1 when it was killed by a signal.
type ProcessError struct {
	Binary   string
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s exited with code %d", e.Binary, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Binary, e.ExitCode, msg)
}

// Exec runs commands as child processes. Each child gets its own process
// group so cancelling the context also stops anything it spawned.
type Exec struct {
	logger *slog.Logger
	// WaitDelay bounds how long Wait blocks on inherited pipes after the
	// process has been killed.
	WaitDelay time.Duration
}

func NewExec(logger *slog.Logger) *Exec {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exec{logger: logger, WaitDelay: time.Second}
}

// Run starts the command, feeds stdin, drains stdout and stderr
// concurrently and returns stdout once the process exits with an accepted
// code. A cancelled context returns ctx.Err().
func (e *Exec) Run(ctx context.Context, c Command) (string, error) {
	cmd := exec.CommandContext(ctx, c.Binary, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = e.WaitDelay
	setProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("stderr pipe: %w", err)
	}
	var stdin io.WriteCloser
	if c.Stdin != nil {
		stdin, err = cmd.StdinPipe()
		if err != nil {
			return "", fmt.Errorf("stdin pipe: %w", err)
		}
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &SpawnError{Binary: c.Binary, Err: err}
	}

	var out, errOut bytes.Buffer
	var g errgroup.Group
	if stdin != nil {
		payload := strings.Join(c.Stdin, "\n")
		g.Go(func() error {
			defer stdin.Close()
			// The exit status is authoritative; a child that stops reading
			// early makes this write fail with EPIPE.
			if _, err := io.WriteString(stdin, payload); err != nil {
				e.logger.Debug("stdin write interrupted", "binary", c.Binary, "error", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		_, err := io.Copy(&out, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&errOut, stderr)
		return err
	})
	drainErr := g.Wait()
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	code := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return "", fmt.Errorf("wait for %s: %w", c.Binary, waitErr)
		}
		code = exitErr.ExitCode()
	}
	e.logger.Debug("process finished",
		"cmd", c.String(),
		"exit", code,
		"stdout_bytes", out.Len(),
		"elapsed", time.Since(start))

	if !c.accepts(code) {
		return "", &ProcessError{Binary: c.Binary, ExitCode: code, Stderr: errOut.String()}
	}
	if drainErr != nil {
		return "", fmt.Errorf("read %s output: %w", c.Binary, drainErr)
	}
	return out.String(), nil
}
