package slab

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with slab-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithPool adds the pool name and capacity to every record.
func (l *Logger) WithPool(name string, capacity int) *Logger {
	return &Logger{
		Logger: l.Logger.With("pool", name, "capacity", capacity),
	}
}

// LogCreated logs pool construction.
func (l *Logger) LogCreated(ctx context.Context, slotSize uintptr, bytesReserved int64, offHeap bool) {
	l.DebugContext(ctx, "pool created",
		"slot_size", slotSize,
		"bytes_reserved", bytesReserved,
		"off_heap", offHeap,
	)
}

// LogExhausted logs an allocation attempt against a full pool.
// suppressed is the number of exhaustion events dropped by the rate limiter
// since the previous record.
func (l *Logger) LogExhausted(ctx context.Context, live int, suppressed uint64) {
	l.WarnContext(ctx, "pool exhausted",
		"live", live,
		"suppressed", suppressed,
	)
}

// LogConstructFailed logs a constructor error that was rolled back.
func (l *Logger) LogConstructFailed(ctx context.Context, index int32, err error) {
	l.DebugContext(ctx, "construct failed, slot returned to free list",
		"slot", index,
		"error", err,
	)
}

// LogForeignFree logs a Free call that was ignored because the handle does
// not belong to this pool.
func (l *Logger) LogForeignFree(ctx context.Context, h Handle) {
	l.DebugContext(ctx, "free ignored for foreign handle",
		"handle", h.String(),
	)
}

// LogDoubleFree logs a rejected Free of an already released slot.
func (l *Logger) LogDoubleFree(ctx context.Context, h Handle) {
	l.ErrorContext(ctx, "double free rejected",
		"handle", h.String(),
	)
}

// LogClosed logs pool teardown.
func (l *Logger) LogClosed(ctx context.Context, destroyed int, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "pool close failed",
			"destroyed", destroyed,
			"error", err,
		)
	case destroyed > 0:
		l.WarnContext(ctx, "pool closed with live objects",
			"destroyed", destroyed,
		)
	default:
		l.DebugContext(ctx, "pool closed")
	}
}
