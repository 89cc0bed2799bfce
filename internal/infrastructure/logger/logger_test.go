package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dealer/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("uses the configured level", func(t *testing.T) {
		l, err := New(&config.LogConfig{Level: "warn", Format: "json", Output: "stderr"})
		require.NoError(t, err)

		assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("nil config falls back to info console", func(t *testing.T) {
		l, err := New(nil)
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("writes JSON lines to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dealer.log")
		l, err := New(&config.LogConfig{Level: "info", Format: "json", Output: path})
		require.NoError(t, err)

		l.Info("Deal transition")
		require.NoError(t, l.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"Deal transition"`)
		assert.Contains(t, string(data), `"level":"info"`)
	})

	t.Run("fails when the log file cannot be opened", func(t *testing.T) {
		_, err := New(&config.LogConfig{Output: filepath.Join(t.TempDir(), "missing", "dealer.log")})
		assert.Error(t, err)
	})
}

func TestNewForEnvironment(t *testing.T) {
	for _, env := range []string{"production", "development", ""} {
		l, err := NewForEnvironment(env)
		require.NoError(t, err, env)
		assert.NotNil(t, l)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"loud", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}
