// Package log configures the process-wide structured logger. Every record
// carries a service attribute so fieldflow output stays filterable when it
// is mixed with other services' logs.
package log

import (
	"log/slog"
	"os"
)

const serviceName = "fieldflow"

// Setup installs the default logger at the given level. Level names are
// case-insensitive; unknown names fall back to info.
func Setup(logLevel string) {
	var level slog.Level

	err := level.UnmarshalText([]byte(logLevel))
	if err != nil {
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})

	slog.SetDefault(slog.New(handler).With("service", serviceName))
}

// WithModule returns a logger scoped to one module of the service.
func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
