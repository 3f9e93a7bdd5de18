// Package log provides the structured logging interface used by saltgo.
//
// The interface is slog-compatible so that library packages can log without
// binding to a backend. The default backend is zerolog (see zerolog.go);
// SetupLogger configures log/slog for command-line tools.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ComponentKey, "kernel",
//	    log.RunIDKey, runID,
//	)
//	logger.Info("kernel assembled",
//	    log.SamplesKey, ndata,
//	    log.ReferencesKey, menv,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are alternating key/value pairs. Error may receive an error value as
// its first field, which backends render with its stack trace.
type Logger interface {
	// Debug logs detailed diagnostic information.
	Debug(msg string, fields ...any)

	// Info logs general progress of a run.
	Info(msg string, fields ...any)

	// Warn logs a recoverable but suspicious condition.
	Warn(msg string, fields ...any)

	// Error logs a failure. If the first field is an error it is handled specially.
	//
	// Example:
	//   logger.Error("regression failed",
	//       err,
	//       log.OperationKey, log.OperationRegress,
	//   )
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a lower-case level name into a Level.
func ParseLevel(level string) (Level, bool) {
	switch level {
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}
