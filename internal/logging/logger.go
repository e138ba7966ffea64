package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logger settings.
type Config struct {
	Level  slog.Level
	Format string // "json" or "text"
	// Path is a log file. Empty means the fallback writer given to New.
	Path string
}

func DefaultConfig() Config {
	return Config{
		Level:  slog.LevelInfo,
		Format: "text",
	}
}

// ParseLevel maps debug, info, warn and error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// New builds a logger, installs it as the default and returns a closer for
// the log file, if one was opened. A nil fallback discards output.
func New(cfg Config, fallback io.Writer) (*slog.Logger, func() error, error) {
	w := fallback
	closer := func() error { return nil }
	if cfg.Path != "" {
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, closer, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closer = f.Close
	}
	if w == nil {
		w = io.Discard
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closer, nil
}
