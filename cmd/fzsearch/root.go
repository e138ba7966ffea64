package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cli/go-gh/v2/pkg/term"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/altinukshini/fzsearch/internal/config"
	"github.com/altinukshini/fzsearch/internal/gitignore"
	"github.com/altinukshini/fzsearch/internal/logging"
	"github.com/altinukshini/fzsearch/internal/model"
	"github.com/altinukshini/fzsearch/internal/output"
	"github.com/altinukshini/fzsearch/internal/pager"
	"github.com/altinukshini/fzsearch/internal/process"
	"github.com/altinukshini/fzsearch/internal/search"
	"github.com/altinukshini/fzsearch/internal/tui"
	"github.com/altinukshini/fzsearch/internal/watch"
)

// Exit codes follow grep: 1 means nothing matched, 2 means an error.
const (
	exitNoMatch = 1
	exitFailure  = 2
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

var configFile string

var rootCmd = &cobra.Command{
	Use:   "fzsearch [query]",
	Short: "Incremental fuzzy search over a project's text",
	Long: `fzsearch lists every non-blank line of a project with the grep engine,
narrows the files with a fuzzy filename filter and ranks the remaining lines
with the fuzzy engine. Results are grouped by file and shown in batches.

Without a terminal on stdout, or with --print, it runs one search and prints
the results.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/fzsearch/config.yaml or ./.fzsearch.yaml)")

	// Search flags
	flags.String("root", ".", "Workspace root to search")
	flags.String("grep-path", config.DefaultGrepPath, "Grep engine binary")
	flags.String("fuzzy-path", config.DefaultFuzzyPath, "Fuzzy engine binary")
	flags.String("grep-args", "", "Extra grep engine arguments, split on whitespace")
	flags.Bool("respect-gitignore", true, "Exclude paths listed in the root .gitignore")
	flags.Int("batch-size", config.DefaultBatchSize, "Results revealed per batch")
	flags.Int("max-results", 0, "Cap on results per search (0 = no cap)")
	flags.StringP("query", "q", "", "Initial content query")
	flags.StringP("file", "f", "", "Initial filename filter")

	// Interface flags
	flags.String("editor", config.DefaultEditor(), "Editor command; {path} and {line} are expanded")
	flags.Bool("watch", false, "Re-run the search when files change")
	flags.Bool("print", false, "Print results instead of starting the interface")
	flags.Bool("raw", false, "In print mode, print file:line:content lines")

	// Logging flags
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json)")
	flags.String("log-file", "", "Log file; the interface discards logs without one")

	config.SetDefaults(viper.GetViper())
	config.BindEnv(viper.GetViper())
	viper.BindPFlags(flags)
}

func runRoot(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	if err := config.ReadFile(v, configFile); err != nil {
		return &exitError{code: exitFailure, err: err}
	}
	if len(args) == 1 && !cmd.Flags().Changed("query") {
		v.Set("query", args[0])
	}

	cfg, err := config.Load(v)
	if err != nil {
		return &exitError{code: exitFailure, err: err}
	}
	if err := cfg.Validate(); err != nil {
		return &exitError{code: exitFailure, err: err}
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return &exitError{code: exitFailure, err: err}
	}
	printMode := cfg.Print || !term.FromEnv().IsTerminalOutput()
	var fallback io.Writer
	if printMode {
		fallback = os.Stderr
	}
	logger, closeLog, err := logging.New(logging.Config{Level: level, Format: cfg.LogFormat, Path: cfg.LogFile}, fallback)
	if err != nil {
		return &exitError{code: exitFailure, err: err}
	}
	defer closeLog()

	engine := search.New(process.NewExec(logger), cfg.SearchOptions(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if printMode {
		if code := runPrint(ctx, cfg, engine, os.Stdout, os.Stderr); code != 0 {
			return &exitError{code: code}
		}
		return nil
	}
	return runInteractive(cfg, engine, logger)
}

// runPrint runs a single search and writes its results. It returns the
// process exit code.
func runPrint(ctx context.Context, cfg config.Config, backend search.Backend, stdout, stderr io.Writer) int {
	req := model.Request{Root: cfg.Root, ContentQuery: cfg.Query, FilenameFilter: cfg.FileFilter}
	res, err := backend.Search(ctx, req)
	if errors.Is(err, search.ErrEmptyQuery) {
		fmt.Fprintln(stderr, "Error: a query or --file filter is required in print mode")
		return exitFailure
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	p := pager.New(cfg.BatchSize)
	p.SetAll(res.Lines, cfg.Root)
	if err := output.Write(stdout, p, cfg.Raw); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	summary := output.Summary(p)
	if res.Truncated {
		summary += fmt.Sprintf(" (capped at %d)", cfg.MaxResults)
	}
	fmt.Fprintln(stderr, summary)

	if p.Total() == 0 {
		return exitNoMatch
	}
	return 0
}

func runInteractive(cfg config.Config, engine *search.Engine, logger *slog.Logger) error {
	var changes tui.ChangeSource
	if cfg.Watch {
		w, err := newWatcher(cfg, logger)
		if err != nil {
			return &exitError{code: exitFailure, err: err}
		}
		defer w.Stop()
		changes = w
	}

	app := tui.NewApp(cfg, engine, changes, logger)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return &exitError{code: exitFailure, err: err}
	}
	return nil
}

func newWatcher(cfg config.Config, logger *slog.Logger) (*watch.Watcher, error) {
	globs := gitignore.Globs(gitignore.VCSExclusions)
	if cfg.RespectGitignore {
		g, err := gitignore.Translate(cfg.Root)
		if err != nil {
			return nil, err
		}
		globs = g
	}
	w, err := watch.New(cfg.Root, globs, watch.DefaultDebounce, logger)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		_ = w.Stop()
		return nil, err
	}
	return w, nil
}
