// Package logger provides structured logging for lexa using log/slog.
//
// Until Init is called every helper is a no-op, so release builds that
// never attach a sink pay nothing for log calls.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	log   *slog.Logger
	once  sync.Once
	level slog.Level
)

// Options configures the logger.
type Options struct {
	// Level is the minimum severity that is emitted (defaults to Info)
	Level slog.Level
	// Output is the writer for log output (defaults to os.Stderr)
	Output io.Writer
	// JSON enables JSON-formatted output
	JSON bool
}

// Init initializes the global logger with the given options.
// It is safe to call multiple times; only the first call takes effect.
func Init(opts Options) {
	once.Do(func() {
		level = opts.Level

		output := opts.Output
		if output == nil {
			output = os.Stderr
		}

		handlerOpts := &slog.HandlerOptions{Level: opts.Level}

		var handler slog.Handler
		if opts.JSON {
			handler = slog.NewJSONHandler(output, handlerOpts)
		} else {
			handler = slog.NewTextHandler(output, handlerOpts)
		}

		log = slog.New(handler)
	})
}

// Reset resets the logger for testing purposes.
// This should only be used in tests.
func Reset() {
	once = sync.Once{}
	log = nil
	level = slog.LevelInfo
}

// Attached reports whether a log sink has been attached by Init.
func Attached() bool {
	return log != nil
}

// Level returns the minimum level of the attached sink.
// The result is meaningless when Attached returns false.
func Level() slog.Level {
	return level
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	if log != nil {
		log.Debug(msg, args...)
	}
}

// Info logs at info level.
func Info(msg string, args ...any) {
	if log != nil {
		log.Info(msg, args...)
	}
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	if log != nil {
		log.Warn(msg, args...)
	}
}

// Error logs at error level.
func Error(msg string, args ...any) {
	if log != nil {
		log.Error(msg, args...)
	}
}

// With returns a logger with additional context attributes.
// Before Init it returns a logger that discards everything.
func With(args ...any) *slog.Logger {
	if log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return log.With(args...)
}
