package log

import (
	"io"
	"log/slog"
	"os"

	"github.com/YuminosukeSato/saltgo/pkg/errors"
)

// SetupLogger configures log/slog with a JSON handler that expands
// cockroachdb stack traces, and installs a zerolog logger at the same level
// as the package default.
func SetupLogger(loglevel string) error {
	return SetupLoggerTo(os.Stderr, loglevel)
}

// SetupLoggerTo is SetupLogger with an explicit destination.
func SetupLoggerTo(w io.Writer, loglevel string) error {
	level, ok := ParseLevel(loglevel)
	if !ok {
		return errors.NewValidationError("log-level", "must be one of debug, info, warn, error", loglevel)
	}

	ops := slog.HandlerOptions{
		AddSource: level == LevelDebug,
		Level:     slog.Level(level),
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr.Key = "severity"
			case slog.MessageKey:
				attr.Key = "message"
			}
			return attr
		},
	}
	handler := slog.NewJSONHandler(w, &ops)
	slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))

	SetLogger(NewZerologLogger(w, level))
	return nil
}

// ErrAttrKey is the slog attribute holding an error.
const ErrAttrKey = "error"

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
