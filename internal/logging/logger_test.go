package logging

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/qscale/logstore/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerConsoleOnly(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNewLoggerFileHandlers(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.Console.Enabled = false
	cfg.File.Enabled = true
	cfg.Dir = filepath.Join(t.TempDir(), "logs")

	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Info("to file")
	logger.Error("to error file")
	require.NoError(t, Shutdown())

	assert.FileExists(t, filepath.Join(cfg.Dir, "logstore.log"))
	assert.FileExists(t, filepath.Join(cfg.Dir, "errors.log"))
}

func TestNewLoggerAllDisabled(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.Console.Enabled = false
	cfg.File.Enabled = false

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	// Discard handler: logging must not panic.
	logger.Info("nowhere")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("unknown"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestConsoleLevelOverride(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.Level = "error"
	cfg.Console.Level = "debug"

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}
