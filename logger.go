package graphwalk

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with graphwalk-specific context.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithDataset adds a dataset field to the logger.
func (l *Logger) WithDataset(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dataset", name),
	}
}

// LogOpen logs opening a dataset.
func (l *Logger) LogOpen(ctx context.Context, blocks, slots int, slotBytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "dataset opened",
		"blocks", blocks,
		"slots", slots,
		"slot_bytes", slotBytes,
	)
}

// LogRun logs the outcome of a walk run.
func (l *Logger) LogRun(ctx context.Context, stats Stats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "run failed",
			"rounds", stats.Rounds,
			"steps", stats.Steps,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "run completed",
		"rounds", stats.Rounds,
		"steps", stats.Steps,
		"block_loads", stats.BlockLoads,
		"spilled", stats.Spilled,
		"duration", stats.Duration,
	)
}
