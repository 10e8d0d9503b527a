package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the level and output format of the request-path logger.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// New builds the zerolog logger for the HTTP request path. Background
// workers log through the slog logger in the logging package; both share
// the same stdout stream.
func New(cfg Config) zerolog.Logger {
	return NewWithWriter(os.Stdout, cfg)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(w io.Writer, cfg Config) zerolog.Logger {
	var output io.Writer = w
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(output).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Caller().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
