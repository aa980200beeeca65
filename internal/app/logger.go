package app

import (
	"io"
	"log/slog"
)

// newLogger builds the logger for one pipeline run. Every App owns its own
// instance writing to its own output; the process-wide slog default is never
// touched, so concurrent Apps (as in tests) cannot interleave.
func newLogger(level, format string, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}

// parseLevel maps the config-level names onto slog levels. Unknown names
// were already rejected by NewConfig; fall back to info anyway.
func parseLevel(name string) slog.Level {
	switch name {
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
