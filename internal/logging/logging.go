// Package logging configures slog and provides HTTP logging middleware.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// NewHandler builds the handler used by the server.
// Dev mode writes readable text at debug level; otherwise JSON at info.
func NewHandler(w io.Writer, devMode bool) slog.Handler {
	if devMode {
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
}

// Setup installs the default logger writing to stdout.
func Setup(devMode bool) {
	slog.SetDefault(slog.New(NewHandler(os.Stdout, devMode)))
}
