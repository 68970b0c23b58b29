// Package logging builds the service's zerolog logger, optionally teeing
// output to a rotating log file.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // console or json
	FilePath   string // empty = stdout only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultConfig returns console logging at info level without a file.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 28,
		Compress:   true,
	}
}

// New creates a logger writing to out and, when cfg.FilePath is set, to a
// lumberjack-rotated file. The returned cleanup closes the file.
func New(cfg Config, out io.Writer) (zerolog.Logger, func() error, error) {
	if out == nil {
		out = os.Stdout
	}

	var console io.Writer = out
	if strings.EqualFold(cfg.Format, "console") {
		console = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = out
		})
	}

	writer := console
	cleanup := func() error { return nil }

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return zerolog.Nop(), nil, err
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}
		// The file always receives JSON.
		writer = zerolog.MultiLevelWriter(console, lj)
		cleanup = lj.Close
	}

	logger := zerolog.New(writer).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", "stringanalyzer").
		Logger()

	return logger, cleanup, nil
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
