package logutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// New builds the process logger. format is "json" or "text"; level is any
// value slog.Level understands ("debug", "info", "warn", "error").
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

// Discard returns a logger that drops everything. Used where a caller did
// not supply one.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTimingLogger returns a closure that logs a debug message with duration when called.
// Pass in the logger, a start time, a message, and any initial fields.
func NewTimingLogger(logger *slog.Logger, start time.Time, msg string, initialFields ...any) func() {
	return func() {
		elapsed := time.Since(start)
		finalFields := append(initialFields, "duration", elapsed.String())
		logger.Debug(msg, finalFields...)
	}
}

// NewTimingLoggerWithLevel allows you to specify the log level for timing logs
func NewTimingLoggerWithLevel(logger *slog.Logger, level slog.Level, start time.Time, msg string, initialFields ...any) func() {
	return func() {
		elapsed := time.Since(start)
		finalFields := append(initialFields, "duration", elapsed.String())
		logger.Log(context.Background(), level, msg, finalFields...)
	}
}

// LogAndWrapErr logs an error with context fields and wraps it with a message.
// It returns a wrapped error (with %w) so errors.Is / errors.As still work.
func LogAndWrapErr(logger *slog.Logger, msg string, err error, fields ...any) error {
	if err == nil {
		return nil
	}
	allFields := append(fields, "err", err)
	logger.Error(msg, allFields...)
	return fmt.Errorf("%s: %w", msg, err)
}

// DebugAndWrapErr is LogAndWrapErr at debug level, for failures the caller
// is expected to handle (missing rows, rejected input).
func DebugAndWrapErr(logger *slog.Logger, msg string, err error, fields ...any) error {
	if err == nil {
		return nil
	}
	allFields := append(fields, "err", err)
	logger.Debug(msg, allFields...)
	return fmt.Errorf("%s: %w", msg, err)
}

// WithFields returns a new logger with the given fields pre-populated
func WithFields(logger *slog.Logger, fields ...any) *slog.Logger {
	return logger.With(fields...)
}

// LogAccess writes the access line every builtin handler emits on entry.
func LogAccess(logger *slog.Logger, r *http.Request) {
	logger.Debug("Access",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_ip", r.RemoteAddr,
		"user_agent", r.UserAgent(),
	)
}

// LogSlowOperation logs a warning if an operation takes longer than the threshold
func LogSlowOperation(logger *slog.Logger, threshold time.Duration, msg string, fn func(), fields ...any) {
	start := time.Now()
	fn()
	elapsed := time.Since(start)

	finalFields := append(fields, "duration", elapsed.String(), "threshold", threshold.String())

	if elapsed > threshold {
		logger.Warn(msg+" was slow", finalFields...)
	} else {
		logger.Debug(msg+" completed", finalFields...)
	}
}
