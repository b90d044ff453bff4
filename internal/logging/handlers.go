package logging

import (
	"context"
	"log/slog"
)

// Tee fans out records to multiple handlers. Handle is fail-fast: the
// first handler error is returned without calling the rest.
type Tee struct {
	handlers []slog.Handler
}

// NewTee creates a fan-out handler.
func NewTee(handlers ...slog.Handler) *Tee {
	return &Tee{handlers: handlers}
}

func (t *Tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *Tee) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range t.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &Tee{handlers: handlers}
}

func (t *Tee) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &Tee{handlers: handlers}
}

// LevelFloor drops records below min before they reach the wrapped
// handler.
type LevelFloor struct {
	handler slog.Handler
	min     slog.Level
}

// NewLevelFloor wraps handler with a minimum level.
func NewLevelFloor(handler slog.Handler, min slog.Level) *LevelFloor {
	return &LevelFloor{handler: handler, min: min}
}

func (f *LevelFloor) Enabled(ctx context.Context, level slog.Level) bool {
	if level < f.min {
		return false
	}
	return f.handler.Enabled(ctx, level)
}

func (f *LevelFloor) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < f.min {
		return nil
	}
	return f.handler.Handle(ctx, r)
}

func (f *LevelFloor) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LevelFloor{handler: f.handler.WithAttrs(attrs), min: f.min}
}

func (f *LevelFloor) WithGroup(name string) slog.Handler {
	return &LevelFloor{handler: f.handler.WithGroup(name), min: f.min}
}
