// Package logging writes the debug and API logs.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel represents the logging level.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelOff disables all logging.
	LevelOff
)

// ParseLevel maps DEBUG, INFO, WARN and ERROR (any case) to a level.
// Anything else yields fallback.
func ParseLevel(s string, fallback LogLevel) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "OFF":
		return LevelOff
	}
	return fallback
}

// LevelFromEnv reads LOG_LEVEL, defaulting to info.
func LevelFromEnv() LogLevel {
	return ParseLevel(os.Getenv("LOG_LEVEL"), LevelInfo)
}

// Logger wraps slog. A nil or disabled Logger discards everything.
type Logger struct {
	slog  *slog.Logger
	level LogLevel
}

// Discard returns a Logger that never writes.
func Discard() *Logger {
	return &Logger{level: LevelOff}
}

// NewLogger creates a new logger with the specified level and output.
// Every line is passed through credential redaction.
func NewLogger(level LogLevel, w io.Writer) *Logger {
	if level == LevelOff {
		return Discard()
	}
	if w == nil {
		w = os.Stderr
	}

	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format("2006-01-02 15:04:05"))
			}
			return a
		},
	}
	return &Logger{
		slog:  slog.New(slog.NewTextHandler(redactWriter{w}, opts)),
		level: level,
	}
}

// IsEnabled returns true if logging is enabled at any level.
func (l *Logger) IsEnabled() bool {
	return l != nil && l.level != LevelOff && l.slog != nil
}

// With returns a logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	if !l.IsEnabled() {
		return l
	}
	return &Logger{slog: l.slog.With(args...), level: l.level}
}

// Category tags every record with a subsystem name.
func (l *Logger) Category(name string) *Logger {
	return l.With("category", name)
}

func (l *Logger) Debug(msg string, args ...any) {
	if l.IsEnabled() {
		l.slog.Debug(msg, args...)
	}
}

func (l *Logger) Info(msg string, args ...any) {
	if l.IsEnabled() {
		l.slog.Info(msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...any) {
	if l.IsEnabled() {
		l.slog.Warn(msg, args...)
	}
}

func (l *Logger) Error(msg string, args ...any) {
	if l.IsEnabled() {
		l.slog.Error(msg, args...)
	}
}
