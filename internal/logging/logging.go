// Package logging configures the slog loggers used by the peaklim command.
//
// The DSP packages never log; only the command, the batch runner and the
// live device loop do, and always outside the audio callback.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelTrace is below Debug and used for per-block diagnostics.
const LevelTrace = slog.Level(-8)

// Formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options selects handler, level and an optional rotating log file.
type Options struct {
	Level  string
	Format string
	// File, when set, receives JSON logs with size based rotation in
	// addition to the console handler.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ParseLevel converts a level name (trace, debug, info, warn, error).
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}

	return a
}

// NewHandler returns a text or JSON handler writing to w.
func NewHandler(w io.Writer, format string, level slog.Level) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: replaceLevel}

	switch strings.ToLower(format) {
	case FormatText, "":
		return slog.NewTextHandler(w, opts), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// New returns a logger writing to console, and to opts.File when set. The
// returned close function releases the log file and is never nil.
func New(console io.Writer, opts Options) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	consoleHandler, err := NewHandler(console, opts.Format, level)
	if err != nil {
		return nil, nil, err
	}

	if opts.File == "" {
		return slog.New(consoleHandler), func() error { return nil }, nil
	}

	if dir := filepath.Dir(opts.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}

	writer := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    positiveOr(opts.MaxSizeMB, 10),
		MaxBackups: positiveOr(opts.MaxBackups, 3),
		MaxAge:     positiveOr(opts.MaxAgeDays, 28),
	}

	fileHandler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level, ReplaceAttr: replaceLevel})

	return slog.New(fanout{consoleHandler, fileHandler}), writer.Close, nil
}

// ForComponent tags every record of l with the component name.
func ForComponent(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}

	return l.With("component", name)
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}

	return def
}
