//go:build unix

package process

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sh(script string, accept ...int) Command {
	return Command{Binary: "/bin/sh", Args: []string{"-c", script}, Accept: accept}
}

func TestRunCapturesStdout(t *testing.T) {
	out, err := NewExec(nil).Run(context.Background(), sh(`printf 'a.go:1:x\nb.go:2:y\n'`))
	require.NoError(t, err)
	assert.Equal(t, "a.go:1:x\nb.go:2:y\n", out)
}

func TestRunUsesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	c := sh(`pwd -P`)
	c.Dir = dir
	out, err := NewExec(nil).Run(context.Background(), c)
	require.NoError(t, err)
	assert.Contains(t, strings.TrimSpace(out), strings.TrimPrefix(dir, "/private"))
}

func TestRunPipesStdin(t *testing.T) {
	c := Command{Binary: "/bin/cat", Stdin: []string{"one", "two", "three"}}
	out, err := NewExec(nil).Run(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree", out)
}

func TestRunLargeOutputArrivesWhole(t *testing.T) {
	out, err := NewExec(nil).Run(context.Background(), sh(`head -c 300000 /dev/zero | tr '\0' 'a'`))
	require.NoError(t, err)
	assert.Len(t, out, 300000)
}

func TestRunLargeStdin(t *testing.T) {
	lines := make([]string, 20000)
	for i := range lines {
		lines[i] = "some moderately long content line"
	}
	out, err := NewExec(nil).Run(context.Background(), Command{Binary: "/bin/cat", Stdin: lines})
	require.NoError(t, err)
	assert.Equal(t, strings.Join(lines, "\n"), out)
}

func TestRunExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		accept   []int
		wantOut  string
		wantCode int // 0 means no error expected
	}{
		{name: "zero", script: "echo hit", accept: NoMatchExitCodes, wantOut: "hit\n"},
		{name: "one is no match", script: "exit 1", accept: NoMatchExitCodes, wantOut: ""},
		{name: "one rejected by default", script: "exit 1", wantCode: 1},
		{name: "two fails", script: "echo boom >&2; exit 2", accept: NoMatchExitCodes, wantCode: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewExec(nil).Run(context.Background(), sh(tt.script, tt.accept...))
			if tt.wantCode == 0 {
				require.NoError(t, err)
				assert.Equal(t, tt.wantOut, out)
				return
			}
			var pe *ProcessError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.wantCode, pe.ExitCode)
		})
	}
}

func TestProcessErrorCarriesStderr(t *testing.T) {
	_, err := NewExec(nil).Run(context.Background(), sh(`echo "regex parse error" >&2; exit 2`, NoMatchExitCodes...))
	var pe *ProcessError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "regex parse error\n", pe.Stderr)
	assert.Contains(t, pe.Error(), "regex parse error")
}

func TestRunMissingBinaryIsSpawnError(t *testing.T) {
	_, err := NewExec(nil).Run(context.Background(), Command{Binary: "definitely-not-a-real-binary-xyz"})
	var se *SpawnError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "definitely-not-a-real-binary-xyz", se.Binary)

	var pe *ProcessError
	assert.False(t, errors.As(err, &pe))
}

func TestRunCancelKillsProcessGroup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	// The background sleep keeps stdout open; only a group kill releases it.
	_, err := NewExec(nil).Run(ctx, sh(`sleep 30 & sleep 30`))
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRunAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewExec(nil).Run(ctx, sh(`echo never`))
	require.ErrorIs(t, err, context.Canceled)
}
