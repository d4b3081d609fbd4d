package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
)

var (
	disabled atomic.Bool
	logger   atomic.Pointer[slog.Logger]
)

func init() {
	Configure("info", os.Stdout, false)
}

// Configure replaces the process logger. Level is one of debug, info, warn
// or error; anything else means info.
func Configure(level string, w io.Writer, color bool) {
	logger.Store(slog.New(tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.DateTime,
		NoColor:    !color,
	})))
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Slog returns the underlying structured logger.
func Slog() *slog.Logger {
	return logger.Load()
}

// Disable turns off all logging
func Disable() {
	disabled.Store(true)
}

// Enable turns logging back on
func Enable() {
	disabled.Store(false)
}

func emit(level slog.Level, msg string) {
	if disabled.Load() {
		return
	}
	logger.Load().Log(context.Background(), level, msg)
}

// Info logs an info message
func Info(v ...any) {
	emit(slog.LevelInfo, strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

// Infof logs a formatted info message
func Infof(format string, v ...any) {
	emit(slog.LevelInfo, fmt.Sprintf(format, v...))
}

// Error logs an error message
func Error(v ...any) {
	emit(slog.LevelError, strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

// Errorf logs a formatted error message
func Errorf(format string, v ...any) {
	emit(slog.LevelError, fmt.Sprintf(format, v...))
}

// Warn logs a warning message
func Warn(v ...any) {
	emit(slog.LevelWarn, strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

// Warnf logs a formatted warning message
func Warnf(format string, v ...any) {
	emit(slog.LevelWarn, fmt.Sprintf(format, v...))
}

// Debug logs a debug message
func Debug(v ...any) {
	emit(slog.LevelDebug, strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

// Debugf logs a formatted debug message
func Debugf(format string, v ...any) {
	emit(slog.LevelDebug, fmt.Sprintf(format, v...))
}

// Logger is a small logger that can be embedded in logic structs.
// Fields added with With are attached to every record.
type Logger struct {
	attrs []any
}

// WithContext creates a new Logger. A request id stored by the server
// middleware is attached when present.
func WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return Logger{}
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return Logger{attrs: []any{"request_id", id}}
	}
	return Logger{}
}

type requestIDKey struct{}

// ContextWithRequestID stores id for later use by WithContext.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// With returns a copy of l carrying the extra key/value pairs.
func (l Logger) With(args ...any) Logger {
	attrs := make([]any, 0, len(l.attrs)+len(args))
	attrs = append(attrs, l.attrs...)
	return Logger{attrs: append(attrs, args...)}
}

func (l Logger) log(level slog.Level, msg string) {
	if disabled.Load() {
		return
	}
	logger.Load().Log(context.Background(), level, msg, l.attrs...)
}

// Info logs an info message
func (l Logger) Info(v ...any) {
	l.log(slog.LevelInfo, strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

// Infof logs a formatted info message
func (l Logger) Infof(format string, v ...any) {
	l.log(slog.LevelInfo, fmt.Sprintf(format, v...))
}

// Error logs an error message
func (l Logger) Error(v ...any) {
	l.log(slog.LevelError, strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

// Errorf logs a formatted error message
func (l Logger) Errorf(format string, v ...any) {
	l.log(slog.LevelError, fmt.Sprintf(format, v...))
}

func (l Logger) Warnf(format string, v ...any) {
	l.log(slog.LevelWarn, fmt.Sprintf(format, v...))
}

func (l Logger) Debugf(format string, v ...any) {
	l.log(slog.LevelDebug, fmt.Sprintf(format, v...))
}

// With returns a Logger that attaches args to every record,
// e.g. logging.With("component", "predict").
func With(args ...any) Logger {
	return Logger{}.With(args...)
}
