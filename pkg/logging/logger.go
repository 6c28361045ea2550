package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewZerologLogger creates a logger that writes one JSON object per line
func NewZerologLogger(writer io.Writer, level Level) *ZerologLogger {
	return &ZerologLogger{
		base:  zerolog.New(writer).With().Timestamp().Logger().Level(level.zerolog()),
		level: level,
	}
}

// NewConsoleLogger creates a human-readable logger for interactive use
func NewConsoleLogger(writer io.Writer, level Level) *ZerologLogger {
	out := zerolog.ConsoleWriter{Out: writer, NoColor: true, TimeFormat: time.RFC3339}
	return &ZerologLogger{
		base:  zerolog.New(out).With().Timestamp().Logger().Level(level.zerolog()),
		level: level,
	}
}

// New builds a logger for the given format. Unknown formats fall back to JSON.
func New(writer io.Writer, format Format, level Level) *ZerologLogger {
	if format == FormatConsole {
		return NewConsoleLogger(writer, level)
	}
	return NewZerologLogger(writer, level)
}

// NewDefaultLogger creates a logger that writes JSON to stderr at INFO level
func NewDefaultLogger() *ZerologLogger {
	return NewZerologLogger(os.Stderr, InfoLevel)
}

func (l *ZerologLogger) log(level Level, msg string, fields ...Field) {
	l.mu.RLock()
	base := l.base
	l.mu.RUnlock()

	event := base.WithLevel(level.zerolog())
	if event == nil {
		return
	}
	for _, f := range fields {
		event = event.Interface(f.Key, f.Value)
	}
	event.Msg(msg)
}

// Debug logs a debug-level message
func (l *ZerologLogger) Debug(msg string, fields ...Field) {
	l.log(DebugLevel, msg, fields...)
}

// Info logs an info-level message
func (l *ZerologLogger) Info(msg string, fields ...Field) {
	l.log(InfoLevel, msg, fields...)
}

// Warn logs a warning-level message
func (l *ZerologLogger) Warn(msg string, fields ...Field) {
	l.log(WarnLevel, msg, fields...)
}

// Error logs an error-level message
func (l *ZerologLogger) Error(msg string, fields ...Field) {
	l.log(ErrorLevel, msg, fields...)
}

// With creates a child logger with the given fields pre-set
func (l *ZerologLogger) With(fields ...Field) Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ctx := l.base.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &ZerologLogger{base: ctx.Logger(), level: l.level}
}

// SetLevel sets the minimum log level
func (l *ZerologLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.base = l.base.Level(level.zerolog())
}

// GetLevel returns the current log level
func (l *ZerologLogger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// Zerolog exposes the backing logger for libraries that take one directly.
func (l *ZerologLogger) Zerolog() zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.base
}

// StartTimer begins timing an operation
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: OrNop(logger),
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// End logs the operation with its duration at debug level
func (t *TimedOperation) End() {
	elapsed := time.Since(t.start)
	t.logger.Debug(t.msg, append(t.fields, Latency(elapsed))...)
}

// EndWithLevel logs the operation at the specified level with its duration
func (t *TimedOperation) EndWithLevel(level Level, msg string) {
	elapsed := time.Since(t.start)
	fields := append(t.fields, Latency(elapsed))
	switch level {
	case DebugLevel:
		t.logger.Debug(msg, fields...)
	case InfoLevel:
		t.logger.Info(msg, fields...)
	case WarnLevel:
		t.logger.Warn(msg, fields...)
	case ErrorLevel:
		t.logger.Error(msg, fields...)
	}
}

// EndError logs the operation as an error with its duration
func (t *TimedOperation) EndError(err error) {
	elapsed := time.Since(t.start)
	t.logger.Error(t.msg, append(t.fields, Latency(elapsed), Error(err))...)
}

// Elapsed returns the time since the operation started.
func (t *TimedOperation) Elapsed() time.Duration {
	return time.Since(t.start)
}
