package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger. Anything but JSON gets the console writer.
func Setup(format string, debug bool) {
	log.Logger = New(os.Stdout, format, debug)
}

// New builds a logger writing to w
func New(w io.Writer, format string, debug bool) zerolog.Logger {
	l := zerolog.New(w).With().Timestamp().Logger()
	if format != "JSON" {
		l = l.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	}

	if debug {
		return l.Level(zerolog.DebugLevel)
	}
	return l.Level(zerolog.InfoLevel)
}
