package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/altinukshini/fzsearch/internal/search"
)

const (
	DefaultGrepPath  = "rg"
	DefaultFuzzyPath = "fzf"
	DefaultBatchSize = 100
	EnvPrefix        = "FZSEARCH"
)

// Config is the read-only configuration for one program run.
type Config struct {
	Root             string
	GrepPath         string
	FuzzyPath        string
	GrepArgsString   string
	RespectGitignore bool
	BatchSize        int
	MaxResults       int
	Editor           string
	Watch            bool

	LogLevel  string
	LogFormat string
	LogFile   string

	Query      string
	FileFilter string
	Print      bool
	Raw        bool
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("root", ".")
	v.SetDefault("grep-path", DefaultGrepPath)
	v.SetDefault("fuzzy-path", DefaultFuzzyPath)
	v.SetDefault("grep-args", "")
	v.SetDefault("respect-gitignore", true)
	v.SetDefault("batch-size", DefaultBatchSize)
	v.SetDefault("max-results", 0)
	v.SetDefault("editor", DefaultEditor())
	v.SetDefault("watch", false)
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "text")
	v.SetDefault("log-file", "")
	v.SetDefault("query", "")
	v.SetDefault("file", "")
	v.SetDefault("print", false)
	v.SetDefault("raw", false)
}

// BindEnv makes every key readable from FZSEARCH_* variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// ReadFile loads an optional YAML config file. An explicit path must exist;
// otherwise the user config dir and the working directory are tried and a
// missing file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}
	for _, candidate := range searchPaths() {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		v.SetConfigFile(candidate)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", candidate, err)
		}
		return nil
	}
	return nil
}

func searchPaths() []string {
	var paths []string
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "fzsearch", "config.yaml"))
	}
	return append(paths, ".fzsearch.yaml")
}

// Load builds a Config from v. The root is made absolute.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Root:             v.GetString("root"),
		GrepPath:         v.GetString("grep-path"),
		FuzzyPath:        v.GetString("fuzzy-path"),
		GrepArgsString:   v.GetString("grep-args"),
		RespectGitignore: v.GetBool("respect-gitignore"),
		BatchSize:        v.GetInt("batch-size"),
		MaxResults:       v.GetInt("max-results"),
		Editor:           v.GetString("editor"),
		Watch:            v.GetBool("watch"),
		LogLevel:         v.GetString("log-level"),
		LogFormat:        v.GetString("log-format"),
		LogFile:          v.GetString("log-file"),
		Query:            v.GetString("query"),
		FileFilter:       v.GetString("file"),
		Print:            v.GetBool("print"),
		Raw:              v.GetBool("raw"),
	}
	if strings.TrimSpace(cfg.Root) != "" {
		abs, err := filepath.Abs(cfg.Root)
		if err != nil {
			return Config{}, fmt.Errorf("resolve root: %w", err)
		}
		cfg.Root = abs
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return search.ErrNoWorkspace
	}
	info, err := os.Stat(c.Root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s does not exist", search.ErrNoWorkspace, c.Root)
		}
		return fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", search.ErrNoWorkspace, c.Root)
	}
	if c.GrepPath == "" || c.FuzzyPath == "" {
		return fmt.Errorf("grep-path and fuzzy-path are required")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be positive, got %d", c.BatchSize)
	}
	if c.MaxResults < 0 {
		return fmt.Errorf("max-results must not be negative, got %d", c.MaxResults)
	}
	return nil
}

// GrepArgs splits the user's extra grep arguments on whitespace.
func (c Config) GrepArgs() []string {
	return strings.Fields(c.GrepArgsString)
}

// SearchOptions returns the orchestrator settings carried by c.
func (c Config) SearchOptions() search.Options {
	return search.Options{
		GrepPath:         c.GrepPath,
		GrepArgs:         c.GrepArgs(),
		FuzzyPath:        c.FuzzyPath,
		RespectGitignore: c.RespectGitignore,
		MaxResults:       c.MaxResults,
	}
}

// DefaultEditor picks $VISUAL, then $EDITOR, then vi.
func DefaultEditor() string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if e := strings.TrimSpace(os.Getenv(env)); e != "" {
			return e
		}
	}
	return "vi"
}
