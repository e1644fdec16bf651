// Package logger provides slog helpers for the app.
package logger

import (
	"log/slog"
	"os"

	"flickbox/internal/env"
)

// New returns the process logger: JSON output in production, plain text
// locally so logs stay readable during development.
func New(level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if env.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("err", "nil")
	}
	return slog.String("err", err.Error())
}
