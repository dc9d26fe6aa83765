// Package bmxlog provides a small logger handle wrapping zerolog.
//
// There is no package-level logger and no thread-local state. No other bmx
// package imports bmxlog; the reader, writer and file constructors take no
// logger.
package bmxlog

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger is a leveled logging handle.
type Logger struct {
	z zerolog.Logger
}

// New wraps an existing zerolog.Logger.
func New(z zerolog.Logger) Logger {
	return Logger{z: z}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return Logger{z: zerolog.Nop()}
}

// NewWriter returns a logger writing JSON lines to w at the given level.
func NewWriter(w io.Writer, level zerolog.Level) Logger {
	return Logger{z: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

func (l Logger) Debug() *zerolog.Event { return l.z.Debug() }
func (l Logger) Info() *zerolog.Event  { return l.z.Info() }
func (l Logger) Warn() *zerolog.Event  { return l.z.Warn() }
func (l Logger) Error() *zerolog.Event { return l.z.Error() }

// With returns a child logger carrying an additional field, used by
// sub-components (a track writer, a single-file reader within a group) to
// tag their diagnostics.
func (l Logger) With(key, value string) Logger {
	return Logger{z: l.z.With().Str(key, value).Logger()}
}
