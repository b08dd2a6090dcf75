// Package logger builds the application's *slog.Logger for an environment.
//
//	dev      — colourised human-readable output (charmbracelet/log) at DEBUG
//	staging  — JSON at DEBUG
//	prod     — JSON at INFO
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
)

// New returns a logger for env writing to w (os.Stdout when nil).
// Unrecognised environments get the dev logger.
func New(env string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		handler := log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			Level:           log.DebugLevel,
		})
		return slog.New(handler)
	}
}
