package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Run("Invalid level falls back to info", func(t *testing.T) {
		log, err := New(Config{Level: "loud", OutputPath: filepath.Join(t.TempDir(), "app.log")})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zap.InfoLevel))
		assert.False(t, log.Core().Enabled(zap.DebugLevel))
	})

	t.Run("Debug level enables debug", func(t *testing.T) {
		log, err := New(Config{Level: "DEBUG", Encoding: "console", OutputPath: filepath.Join(t.TempDir(), "app.log")})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zap.DebugLevel))
	})
}
