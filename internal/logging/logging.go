// Package logging provides the structured logger used across the
// storefront service. It wraps zerolog behind a small Fields-based API.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Fields carries structured key/value pairs attached to a log entry.
type Fields map[string]interface{}

var (
	mu     sync.RWMutex
	output io.Writer = os.Stdout
	level            = zerolog.InfoLevel
	pretty           = true
)

// Setup configures the process-wide writer and level. Non-local
// environments emit JSON lines; local runs use the console writer.
func Setup(environment, logLevel string) {
	mu.Lock()
	defer mu.Unlock()

	pretty = environment == "local"
	if lvl, err := zerolog.ParseLevel(strings.ToLower(logLevel)); err == nil && logLevel != "" {
		level = lvl
	}
}

// SetOutput redirects all loggers created afterwards. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	pretty = false
}

// Logger is a component-scoped structured logger.
type Logger struct {
	zl zerolog.Logger
}

// NewLogger creates a logger tagged with the given component name.
func NewLogger(component string) *Logger {
	mu.RLock()
	defer mu.RUnlock()

	w := output
	if pretty {
		w = zerolog.ConsoleWriter{Out: output}
	}

	zl := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()

	return &Logger{zl: zl}
}

// With returns a child logger that always carries the given fields.
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{zl: l.zl.With().Fields(map[string]interface{}(fields)).Logger()}
}

func (l *Logger) Debug(msg string, fields ...Fields) {
	l.log(l.zl.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...Fields) {
	l.log(l.zl.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...Fields) {
	l.log(l.zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...Fields) {
	l.log(l.zl.Error(), msg, fields)
}

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, fields ...Fields) {
	l.log(l.zl.Fatal(), msg, fields)
}

func (l *Logger) log(event *zerolog.Event, msg string, fields []Fields) {
	for _, f := range fields {
		event = event.Fields(map[string]interface{}(f))
	}
	event.Msg(msg)
}

var std = struct {
	once   sync.Once
	logger *Logger
}{}

func defaultLogger() *Logger {
	std.once.Do(func() {
		std.logger = NewLogger("storefront")
	})
	return std.logger
}

// Info logs through the default logger.
func Info(msg string, fields ...Fields) {
	defaultLogger().Info(msg, fields...)
}

// Infof logs a formatted message through the default logger.
func Infof(format string, args ...interface{}) {
	defaultLogger().Info(fmt.Sprintf(format, args...))
}

// Errorf logs a formatted error message through the default logger.
func Errorf(format string, args ...interface{}) {
	defaultLogger().Error(fmt.Sprintf(format, args...))
}
