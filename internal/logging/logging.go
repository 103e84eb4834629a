// Package logging constructs the application's structured logger.
package logging

import (
	"log/slog"
	"os"
)

// New constructs a slog.Logger from a level name ("debug", "info", "warn",
// "error") and a format ("normal" for text, "json" for structured JSON).
// Every record carries a "component" attribute set to name, so a collector
// running several ingest sources (UDP, PCAP replay) side by side can tell
// their log lines apart once they share stderr.
func New(level, format, component string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	if component != "" {
		logger = logger.With(slog.String("component", component))
	}
	return logger, nil
}
