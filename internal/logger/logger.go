// Package logger provides a small structured logging facade over log/slog.
package logger

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// LogLevel controls the minimum severity a logger emits.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// ParseLevel maps a level name to a LogLevel. Unknown names map to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Field is a typed key/value pair attached to a log entry.
type Field struct {
	attr slog.Attr
}

// String creates a string field.
func String(key, value string) Field {
	return Field{attr: slog.String(key, value)}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{attr: slog.Int(key, value)}
}

// Int64 creates an int64 field.
func Int64(key string, value int64) Field {
	return Field{attr: slog.Int64(key, value)}
}

// Uint64 creates a uint64 field.
func Uint64(key string, value uint64) Field {
	return Field{attr: slog.Uint64(key, value)}
}

// Float64 creates a float64 field.
func Float64(key string, value float64) Field {
	return Field{attr: slog.Float64(key, value)}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field{attr: slog.Bool(key, value)}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{attr: slog.Duration(key, value)}
}

// Any creates a field with an arbitrary value.
func Any(key string, value any) Field {
	return Field{attr: slog.Any(key, value)}
}

// Error creates an "error" field. A nil error logs as an empty string.
func Error(err error) Field {
	if err == nil {
		return Field{attr: slog.String("error", "")}
	}
	return Field{attr: slog.String("error", err.Error())}
}

// Logger is the logging interface components depend on.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type slogLogger struct {
	log *slog.Logger
}

// NewSlogLogger creates a Logger writing text-formatted entries to w at the
// given minimum level. attrs are attached to every entry.
func NewSlogLogger(w io.Writer, level LogLevel, attrs []Field) Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slogLevel(level)})
	log := slog.New(handler)
	if len(attrs) > 0 {
		log = log.With(args(attrs)...)
	}
	return &slogLogger{log: log}
}

func slogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func args(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.attr)
	}
	return out
}

func (l *slogLogger) Debug(msg string, fields ...Field) { l.log.Debug(msg, args(fields)...) }
func (l *slogLogger) Info(msg string, fields ...Field)  { l.log.Info(msg, args(fields)...) }
func (l *slogLogger) Warn(msg string, fields ...Field)  { l.log.Warn(msg, args(fields)...) }
func (l *slogLogger) Error(msg string, fields ...Field) { l.log.Error(msg, args(fields)...) }

func (l *slogLogger) With(fields ...Field) Logger {
	return &slogLogger{log: l.log.With(args(fields)...)}
}
