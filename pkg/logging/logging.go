// Package logging provides a zerolog-backed structured logger satisfying the
// engine's logger contract, for callers that want JSON log output without
// wiring zerolog themselves.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger emits structured log events through zerolog. Arguments are
// interpreted as alternating key/value pairs.
type Logger struct {
	log zerolog.Logger
}

// New builds a logger writing JSON lines to w, defaulting to stderr when w
// is nil.
func New(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{log: zerolog.New(w).With().Timestamp().Logger()}
}

// FromZerolog wraps an existing zerolog logger.
func FromZerolog(log zerolog.Logger) *Logger {
	return &Logger{log: log}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) { emit(l.log.Debug(), msg, args) }

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) { emit(l.log.Info(), msg, args) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) { emit(l.log.Warn(), msg, args) }

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) { emit(l.log.Error(), msg, args) }

func emit(ev *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		ev = ev.Interface(key, args[i+1])
	}
	if len(args)%2 != 0 {
		ev = ev.Interface("extra", args[len(args)-1])
	}
	ev.Msg(msg)
}
