// Package logging builds the service logger.  Components receive the
// logger explicitly; handlers may also pull it from a request context.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New creates a logger with timestamp formatting writing to w.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// FromEnv builds the stderr logger at the level named by LOG_LEVEL.
func FromEnv() *log.Logger {
	return New(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")))
}

// ParseLevel maps debug, info, warn and error to a level; anything else
// is info.
func ParseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger { return log.NewWithOptions(io.Discard, log.Options{}) }

type ctxKey int

const loggerKey ctxKey = 0

// WithLogger attaches l to ctx.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger attached to ctx or the default logger.
func FromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok && l != nil {
		return l
	}
	return log.Default()
}
