package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altinukshini/fzsearch/internal/search"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "nano")
	cfg, err := Load(newViper())
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, cfg.Root)
	assert.Equal(t, "rg", cfg.GrepPath)
	assert.Equal(t, "fzf", cfg.FuzzyPath)
	assert.True(t, cfg.RespectGitignore)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Zero(t, cfg.MaxResults)
	assert.Equal(t, "nano", cfg.Editor)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.GrepArgs())
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FZSEARCH_GREP_ARGS", "-i  --hidden")
	t.Setenv("FZSEARCH_BATCH_SIZE", "25")
	t.Setenv("FZSEARCH_RESPECT_GITIGNORE", "false")

	v := newViper()
	BindEnv(v)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, []string{"-i", "--hidden"}, cfg.GrepArgs())
	assert.Equal(t, 25, cfg.BatchSize)
	assert.False(t, cfg.RespectGitignore)
}

func TestReadFileExplicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root: "+dir+"\nfuzzy-path: sk\nmax-results: 500\n"), 0o644))

	v := newViper()
	require.NoError(t, ReadFile(v, path))
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Root)
	assert.Equal(t, "sk", cfg.FuzzyPath)
	assert.Equal(t, "rg", cfg.GrepPath)
	assert.Equal(t, 500, cfg.MaxResults)
}

func TestReadFileExplicitMissing(t *testing.T) {
	err := ReadFile(newViper(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestReadFileWithoutAnyConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	v := newViper()
	require.NoError(t, ReadFile(v, ""))
	assert.Equal(t, "rg", v.GetString("grep-path"))
}

func TestReadFileFromWorkingDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".fzsearch.yaml"), []byte("batch-size: 7\n"), 0o644))

	v := newViper()
	require.NoError(t, ReadFile(v, ""))
	assert.Equal(t, 7, v.GetInt("batch-size"))
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	valid := Config{Root: dir, GrepPath: "rg", FuzzyPath: "fzf", BatchSize: 100}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantErr   bool
		workspace bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty root", mutate: func(c *Config) { c.Root = "" }, wantErr: true, workspace: true},
		{name: "missing root", mutate: func(c *Config) { c.Root = filepath.Join(dir, "missing") }, wantErr: true, workspace: true},
		{name: "root is file", mutate: func(c *Config) { c.Root = file }, wantErr: true, workspace: true},
		{name: "no grep", mutate: func(c *Config) { c.GrepPath = "" }, wantErr: true},
		{name: "no fuzzy", mutate: func(c *Config) { c.FuzzyPath = "" }, wantErr: true},
		{name: "zero batch", mutate: func(c *Config) { c.BatchSize = 0 }, wantErr: true},
		{name: "negative max", mutate: func(c *Config) { c.MaxResults = -1 }, wantErr: true},
		{name: "capped", mutate: func(c *Config) { c.MaxResults = 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.workspace, errors.Is(err, search.ErrNoWorkspace))
		})
	}
}

func TestSearchOptions(t *testing.T) {
	c := Config{GrepPath: "/usr/bin/rg", FuzzyPath: "fzf", GrepArgsString: "--hidden", RespectGitignore: true, MaxResults: 3}
	assert.Equal(t, search.Options{
		GrepPath:         "/usr/bin/rg",
		GrepArgs:         []string{"--hidden"},
		FuzzyPath:        "fzf",
		RespectGitignore: true,
		MaxResults:       3,
	}, c.SearchOptions())
}

func TestDefaultEditor(t *testing.T) {
	t.Setenv("VISUAL", "code -w")
	t.Setenv("EDITOR", "nano")
	assert.Equal(t, "code -w", DefaultEditor())

	t.Setenv("VISUAL", "")
	assert.Equal(t, "nano", DefaultEditor())

	t.Setenv("EDITOR", " ")
	assert.Equal(t, "vi", DefaultEditor())
}
