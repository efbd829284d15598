package logger

import (
	"context"
	"errors"
	"log/slog"
)

// fanout sends each record to every handler that accepts its level. Records
// below minLevel are dropped before any handler sees them.
type fanout struct {
	minLevel slog.Level
	handlers []slog.Handler
}

func newFanout(minLevel slog.Level, handlers ...slog.Handler) *fanout {
	return &fanout{minLevel: minLevel, handlers: handlers}
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	if level < f.minLevel {
		return false
	}

	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (f *fanout) Handle(ctx context.Context, record slog.Record) error {
	var errs []error

	for _, h := range f.handlers {
		if h.Enabled(ctx, record.Level) {
			errs = append(errs, h.Handle(ctx, record.Clone()))
		}
	}

	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler { //nolint:ireturn
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *fanout) WithGroup(name string) slog.Handler { //nolint:ireturn
	if name == "" {
		return f
	}

	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *fanout) derive(with func(slog.Handler) slog.Handler) *fanout {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = with(h)
	}

	return newFanout(f.minLevel, handlers...)
}
