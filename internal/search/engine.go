package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/altinukshini/fzsearch/internal/gitignore"
	"github.com/altinukshini/fzsearch/internal/model"
	"github.com/altinukshini/fzsearch/internal/process"
)

// nonBlankPattern makes the grep engine list every line with at least one
// non-whitespace character.
const nonBlankPattern = `\S`

// Runner executes one external process and returns its stdout.
type Runner interface {
	Run(ctx context.Context, cmd process.Command) (string, error)
}

// Options are the read-only settings of an Engine.
type Options struct {
	GrepPath         string
	GrepArgs         []string
	FuzzyPath        string
	RespectGitignore bool
	// MaxResults caps the returned lines; zero means no cap.
	MaxResults int
}

// Result is the ordered list of raw result lines of one search.
type Result struct {
	Lines     []string
	Truncated bool
	Elapsed   time.Duration
}

// Engine runs the grep, filename filter and content filter stages in order.
type Engine struct {
	runner Runner
	opts   Options
	logger *slog.Logger
}

func New(runner Runner, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{runner: runner, opts: opts, logger: logger}
}

func (e *Engine) Options() Options {
	return e.opts
}

// candidate is a parsed grep line kept alongside its source position.
type candidate struct {
	line    string // full file:line:content, ANSI stripped
	file    string
	content string // trimmed
}

// Search returns raw result lines for req. Each stage runs only after the
// previous one finished; any stage failure aborts the whole search.
func (e *Engine) Search(ctx context.Context, req model.Request) (Result, error) {
	start := time.Now()
	if strings.TrimSpace(req.Root) == "" {
		return Result{}, ErrNoWorkspace
	}
	content := strings.TrimSpace(req.ContentQuery)
	filter := strings.TrimSpace(req.FilenameFilter)
	if content == "" && filter == "" {
		return Result{}, ErrEmptyQuery
	}

	args, err := e.grepArgs(req.Root)
	if err != nil {
		return Result{}, &StageError{Stage: StageGitignore, Err: err}
	}
	out, err := e.runner.Run(ctx, process.Command{
		Binary: e.opts.GrepPath,
		Args:   args,
		Dir:    req.Root,
		Accept: process.NoMatchExitCodes,
	})
	if err != nil {
		return Result{}, stageErr(StageGrep, err)
	}
	if strings.TrimSpace(out) == "" {
		return e.finish(nil, start), nil
	}

	cands := e.parseCandidates(out)
	e.logger.Debug("grep finished", "lines", len(cands), "root", req.Root)

	if filter != "" {
		cands, err = e.filterFilenames(ctx, req.Root, filter, cands)
		if err != nil {
			return Result{}, err
		}
		if len(cands) == 0 {
			return e.finish(nil, start), nil
		}
	}

	if content == "" {
		return e.finish(lo.Map(cands, func(c candidate, _ int) string { return c.line }), start), nil
	}
	if len(cands) == 0 {
		return e.finish(nil, start), nil
	}

	lines, err := e.filterContent(ctx, req.Root, content, cands)
	if err != nil {
		return Result{}, err
	}
	return e.finish(lines, start), nil
}

func (e *Engine) grepArgs(root string) ([]string, error) {
	args := []string{"--line-number"}
	args = append(args, e.opts.GrepArgs...)
	if e.opts.RespectGitignore {
		globs, err := gitignore.Translate(root)
		if err != nil {
			return nil, err
		}
		args = append(args, globs.Args()...)
	}
	return append(args, nonBlankPattern), nil
}

func (e *Engine) fuzzy(ctx context.Context, root, query string, input []string) (string, error) {
	return e.runner.Run(ctx, process.Command{
		Binary: e.opts.FuzzyPath,
		Args:   []string{"--filter", query, "--ansi"},
		Dir:    root,
		Stdin:  input,
		Accept: process.NoMatchExitCodes,
	})
}

// filterFilenames keeps candidates whose file the fuzzy engine matched.
func (e *Engine) filterFilenames(ctx context.Context, root, filter string, cands []candidate) ([]candidate, error) {
	files := lo.Uniq(lo.Map(cands, func(c candidate, _ int) string { return c.file }))
	out, err := e.fuzzy(ctx, root, filter, files)
	if err != nil {
		return nil, stageErr(StageFilenameFilter, err)
	}
	matched := make(map[string]struct{})
	for _, f := range outputLines(out) {
		matched[f] = struct{}{}
	}
	e.logger.Debug("filename filter finished", "files", len(files), "matched", len(matched))
	if len(matched) == 0 {
		return nil, nil
	}
	return lo.Filter(cands, func(c candidate, _ int) bool {
		_, ok := matched[c.file]
		return ok
	}), nil
}

// filterContent pipes the content of each candidate through the fuzzy engine
// and maps its ranked output back onto candidates. Identical content lines
// are consumed in source order so each source line yields one result.
func (e *Engine) filterContent(ctx context.Context, root, query string, cands []candidate) ([]string, error) {
	contents := lo.Map(cands, func(c candidate, _ int) string { return c.content })
	pending := make(map[string][]int, len(contents))
	for i, c := range contents {
		pending[c] = append(pending[c], i)
	}

	out, err := e.fuzzy(ctx, root, query, contents)
	if err != nil {
		return nil, stageErr(StageContentFilter, err)
	}

	var lines []string
	for _, m := range outputLines(out) {
		idx := pending[m]
		if len(idx) == 0 {
			continue
		}
		pending[m] = idx[1:]
		lines = append(lines, cands[idx[0]].line)
	}
	e.logger.Debug("content filter finished", "candidates", len(contents), "matched", len(lines))
	return lines, nil
}

func (e *Engine) finish(lines []string, start time.Time) Result {
	res := Result{Lines: lines, Elapsed: time.Since(start)}
	if res.Lines == nil {
		res.Lines = []string{}
	}
	if e.opts.MaxResults > 0 && len(res.Lines) > e.opts.MaxResults {
		res.Lines = res.Lines[:e.opts.MaxResults]
		res.Truncated = true
	}
	return res
}

// parseCandidates turns grep output into candidates, dropping lines that do
// not parse or have blank content.
func (e *Engine) parseCandidates(out string) []candidate {
	var cands []candidate
	dropped := 0
	for _, raw := range strings.Split(out, "\n") {
		line := strings.TrimSpace(StripANSI(raw))
		if line == "" {
			continue
		}
		r, ok := Parse(line)
		if !ok || r.Content == "" {
			dropped++
			continue
		}
		cands = append(cands, candidate{
			line:    line,
			file:    r.File,
			content: r.Content,
		})
	}
	if dropped > 0 {
		e.logger.Debug("dropped unparseable grep lines", "count", dropped)
	}
	return cands
}

// outputLines splits fuzzy engine output into ANSI-stripped, non-blank lines.
func outputLines(out string) []string {
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		l = strings.TrimRight(StripANSI(l), "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

func stageErr(stage Stage, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}
