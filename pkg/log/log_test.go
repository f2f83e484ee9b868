package log

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetupLevels(t *testing.T) {
	tests := []struct {
		name         string
		level        string
		debugEnabled bool
		infoEnabled  bool
	}{
		{name: "debug", level: "debug", debugEnabled: true, infoEnabled: true},
		{name: "case-insensitive", level: "DEBUG", debugEnabled: true, infoEnabled: true},
		{name: "warn", level: "warn", debugEnabled: false, infoEnabled: false},
		{name: "unknown falls back to info", level: "loud", debugEnabled: false, infoEnabled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Setup(tt.level)

			logger := slog.Default()
			assert.Equal(t, tt.debugEnabled, logger.Enabled(context.Background(), slog.LevelDebug))
			assert.Equal(t, tt.infoEnabled, logger.Enabled(context.Background(), slog.LevelInfo))
		})
	}
}
