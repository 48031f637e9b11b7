// Package logging provides the structured JSON logger used across the
// service. Each component gets a named logger; fields are attached as a map.
package logging

import (
	"log/slog"
	"os"
)

// Fields holds structured log attributes.
type Fields map[string]interface{}

// Logger is a component-scoped structured logger.
type Logger struct {
	sl *slog.Logger
}

var root = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
	Level: levelFromEnv(),
}))

func levelFromEnv() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// NewLogger creates a logger scoped to a component name.
func NewLogger(component string) *Logger {
	return &Logger{sl: root.With(slog.String("component", component))}
}

func attrs(fields Fields) []any {
	out := make([]any, 0, len(fields))
	for k, v := range fields {
		out = append(out, slog.Any(k, v))
	}
	return out
}

// Debug logs at debug level with optional fields.
func (l *Logger) Debug(msg string, fields ...Fields) {
	l.sl.Debug(msg, collect(fields)...)
}

// Info logs at info level with optional fields.
func (l *Logger) Info(msg string, fields ...Fields) {
	l.sl.Info(msg, collect(fields)...)
}

// Warn logs at warn level with optional fields.
func (l *Logger) Warn(msg string, fields ...Fields) {
	l.sl.Warn(msg, collect(fields)...)
}

// Error logs at error level with optional fields.
func (l *Logger) Error(msg string, fields ...Fields) {
	l.sl.Error(msg, collect(fields)...)
}

// Fatal logs at error level and exits the process. Used only during startup.
func (l *Logger) Fatal(msg string, fields ...Fields) {
	l.sl.Error(msg, collect(fields)...)
	os.Exit(1)
}

func collect(fields []Fields) []any {
	if len(fields) == 0 {
		return nil
	}
	out := make([]any, 0)
	for _, f := range fields {
		out = append(out, attrs(f)...)
	}
	return out
}
