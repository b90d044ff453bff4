// Package logging wires slog to console and rotating-file handlers per
// configuration.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/qscale/logstore/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	openFiles   []*lumberjack.Logger
	openFilesMu sync.Mutex
)

// Initialize builds the logger from cfg and installs it as the slog
// default.
func Initialize(cfg config.LoggingConfig) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	slog.SetDefault(logger)
	return nil
}

// NewLogger creates a logger instance with the given configuration.
func NewLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var handlers []slog.Handler

	if cfg.Console.Enabled {
		level := parseLevel(firstNonEmpty(cfg.Console.Level, cfg.Level))
		handlers = append(handlers, newHandler(os.Stdout, cfg.Format, level))
	}

	if cfg.File.Enabled {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		mainFile := rotatingFile(cfg, filepath.Join(cfg.Dir, "logstore.log"))
		level := parseLevel(firstNonEmpty(cfg.File.Level, cfg.Level))
		handlers = append(handlers, newHandler(mainFile, cfg.Format, level))

		// Warnings and errors additionally land in their own file.
		errorFile := rotatingFile(cfg, filepath.Join(cfg.Dir, "errors.log"))
		errorHandler := newHandler(errorFile, cfg.Format, slog.LevelWarn)
		handlers = append(handlers, NewLevelFloor(errorHandler, slog.LevelWarn))
	}

	switch len(handlers) {
	case 0:
		return slog.New(newHandler(io.Discard, cfg.Format, slog.LevelInfo)), nil
	case 1:
		return slog.New(handlers[0]), nil
	default:
		return slog.New(NewTee(handlers...)), nil
	}
}

// Shutdown closes all rotating log files.
func Shutdown() error {
	openFilesMu.Lock()
	defer openFilesMu.Unlock()

	for _, f := range openFiles {
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
	}
	openFiles = nil
	return nil
}

func rotatingFile(cfg config.LoggingConfig, path string) *lumberjack.Logger {
	f := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.Rotation.MaxSize,
		MaxBackups: cfg.Rotation.MaxBackups,
		MaxAge:     cfg.Rotation.MaxAge,
		Compress:   cfg.Rotation.Compress,
	}
	openFilesMu.Lock()
	openFiles = append(openFiles, f)
	openFilesMu.Unlock()
	return f
}

func parseLevel(level string) slog.Level {
	switch level {
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

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
