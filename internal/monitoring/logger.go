package monitoring

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var base = NewConsoleLogger(os.Stderr)

// Logf is the package-level diagnostic logger. It defaults to an info-level
// zerolog console writer but may be replaced by SetLogger. Tests or
// production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = zerologf(&base, zerolog.InfoLevel)

// Debugf logs at debug level. It is muted by SetLogger(nil) and redirected
// together with Logf.
var Debugf func(format string, v ...interface{}) = zerologf(&base, zerolog.DebugLevel)

// NewConsoleLogger returns a human-readable zerolog logger writing to w.
func NewConsoleLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)
}

func zerologf(l *zerolog.Logger, level zerolog.Level) func(string, ...interface{}) {
	return func(format string, v ...interface{}) {
		l.WithLevel(level).Msg(fmt.Sprintf(format, v...))
	}
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
// Debug output is routed to the same function.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		Debugf = Logf
		return
	}
	Logf = f
	Debugf = f
}

// SetZerolog routes Logf and Debugf through l.
func SetZerolog(l zerolog.Logger) {
	base = l
	Logf = zerologf(&base, zerolog.InfoLevel)
	Debugf = zerologf(&base, zerolog.DebugLevel)
}

// SetLevel sets the minimum level of the zerolog sink from a level name such
// as "debug", "info" or "warn".
func SetLevel(name string) error {
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	base = base.Level(level)
	return nil
}
