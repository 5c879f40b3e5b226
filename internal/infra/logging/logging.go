package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds the process logger. level: debug, info, warn, error (default
// info). format: json or text (default text).
func New(level, format string) *slog.Logger {
	return newLogger(os.Stdout, level, format)
}

// Init builds the logger and makes it the slog default.
func Init(level, format string) *slog.Logger {
	l := New(level, format)
	slog.SetDefault(l)
	return l
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Component tags every record of a subsystem.
func Component(l *slog.Logger, name string) *slog.Logger {
	return l.With("component", name)
}
