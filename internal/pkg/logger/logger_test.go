package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level   string
		enabled zapcore.Level
		dropped zapcore.Level
	}{
		{"debug", zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"info", zapcore.InfoLevel, zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel, zapcore.InfoLevel},
		{"error", zapcore.ErrorLevel, zapcore.WarnLevel},
		{"verbose", zapcore.InfoLevel, zapcore.DebugLevel},
		{"", zapcore.InfoLevel, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log, err := New(tt.level, "json", "lodging-test")
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.enabled))
			assert.False(t, log.Core().Enabled(tt.dropped))
		})
	}
}

func TestNew_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", "unknown"} {
		t.Run(format, func(t *testing.T) {
			log, err := New("warn", format, "")
			require.NoError(t, err)
			require.NotNil(t, log)
			assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
			assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
		})
	}
}
