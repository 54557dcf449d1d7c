package cmd

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// newLogger returns a console logger on w. Each level of verbosity lowers
// the threshold by one, starting from warnings.
func newLogger(w io.Writer, verbosity int) zerolog.Logger {
	level := zerolog.WarnLevel
	switch {
	case verbosity >= 3:
		level = zerolog.TraceLevel
	case verbosity == 2:
		level = zerolog.DebugLevel
	case verbosity == 1:
		level = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
