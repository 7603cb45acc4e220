// Package logging configures structured logging with Go's slog package.
// Logs go to stderr so stdout stays reserved for query results.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Init builds a logger with the given level and format ("text" or "json")
// and installs it as the slog default. Unknown values fall back to warn-level
// text output, keeping the CLI quiet unless asked otherwise.
func Init(level, format string) *slog.Logger {
	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: slogLevel}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// WithSession attaches a fresh session id so log lines from one database
// session can be correlated.
func WithSession(logger *slog.Logger) *slog.Logger {
	return logger.With("session_id", uuid.NewString())
}
