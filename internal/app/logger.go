package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger on stdout with source locations.
// LOG_FORMAT=json selects the JSON handler; any other value selects text.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
