package logging

import (
	"log/slog"
	"os"
)

// New creates the slog logger used by background workers (outbox publisher,
// reconciliation, retrier). The HTTP request path logs through zerolog; the
// two meet at the same stdout stream and format setting.
func New(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// ForComponent tags a logger with the worker name so interleaved worker
// output stays attributable.
func ForComponent(logger *slog.Logger, name string) *slog.Logger {
	return logger.With(slog.String("component", name))
}

// ParseLevel parses a log level string, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
