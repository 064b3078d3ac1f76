package lassort

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with lassort-specific context.
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

// NewJSONLogger creates a Logger that outputs JSON-formatted logs to stderr.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs to
// stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithFile adds the file being processed to the logger.
func (l *Logger) WithFile(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("file", path),
	}
}

// WithCellSize adds the effective cell edge length to the logger.
func (l *Logger) WithCellSize(size float64) *Logger {
	return &Logger{
		Logger: l.Logger.With("cell_size", size),
	}
}

// LogSort logs the outcome of one sort run.
func (l *Logger) LogSort(ctx context.Context, input, output string, accepted uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "sort failed",
			"input", input,
			"output", output,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "sort completed",
			"input", input,
			"output", output,
			"points", accepted,
		)
	}
}

// LogSummary logs the end-of-run bucket statistics.
func (l *Logger) LogSummary(ctx context.Context, s Summary) {
	l.InfoContext(ctx, "bucket summary",
		"cells", s.Buckets,
		"avg_points", s.AvgPoints,
		"avg_size", s.AvgFileSize,
	)
}
