// Package logging builds the engine's slog loggers. Output is JSON so
// log lines from the API and the worker aggregate the same way, and the
// request ID from the HTTP layer rides along on request-scoped entries.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"cinebox-recs/internal/handler/http/requestid"
)

// NewLogger returns a JSON logger writing to stdout. LOG_LEVEL selects
// the level (debug, info, warn, error); unknown or empty values mean
// info. Warn and error entries carry the source location.
func NewLogger() *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelWarn,
	}))
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID attaches the context's request ID to the logger, or
// returns the logger unchanged when the context carries none.
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := requestid.FromContext(ctx); id != "" {
		return logger.With("request_id", id)
	}
	return logger
}
