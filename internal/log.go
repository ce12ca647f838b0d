package internal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

var zerologLevels = map[LogLevel]zerolog.Level{
	LogLevelError: zerolog.ErrorLevel,
	LogLevelWarn:  zerolog.WarnLevel,
	LogLevelInfo:  zerolog.InfoLevel,
	LogLevelDebug: zerolog.DebugLevel,
	LogLevelTrace: zerolog.TraceLevel,
}

// ParseLogLevel accepts error, warn, info, debug or trace in any case
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LogLevelError, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "info", "":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	case "trace":
		return LogLevelTrace, nil
	}
	return LogLevelInfo, fmt.Errorf("invalid log level %q", s)
}

// LogConfig selects level, output format and destination
type LogConfig struct {
	Level  LogLevel
	Format string // console or json
	Output io.Writer
}

// Logger provides leveled logging on top of zerolog
type Logger struct {
	level LogLevel
	zl    zerolog.Logger
}

// NewLogger creates a console logger on stderr with the specified level
func NewLogger(level LogLevel) *Logger {
	return NewLoggerWithConfig(LogConfig{Level: level, Format: "console"})
}

// NewLoggerWithConfig builds a logger from an explicit configuration
func NewLoggerWithConfig(cfg LogConfig) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(out).
		Level(zerologLevels[cfg.Level]).
		With().
		Timestamp().
		Logger()
	return &Logger{level: cfg.Level, zl: zl}
}

// NewDefaultLogger creates a logger based on LOG_LEVEL and LOG_FORMAT environment variables
func NewDefaultLogger() *Logger {
	level, err := ParseLogLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = LogLevelInfo
	}
	return NewLoggerWithConfig(LogConfig{Level: level, Format: os.Getenv("LOG_FORMAT")})
}

// NopLogger discards everything
func NopLogger() *Logger {
	return &Logger{level: LogLevelError, zl: zerolog.Nop()}
}

// With returns a child logger carrying an extra field on every entry
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{level: l.level, zl: l.zl.With().Interface(key, value).Logger()}
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

// Trace logs trace messages
func (l *Logger) Trace(format string, args ...interface{}) {
	l.zl.Trace().Msgf(format, args...)
}

// Zerolog exposes the underlying logger for structured fields
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// Global logger instance
var DefaultLogger = NewDefaultLogger()
