// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log formats accepted by Options.Format.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options selects the level, format and destination of log output.
type Options struct {
	Debug  bool
	Format string
	// Out defaults to stderr.
	Out io.Writer
}

// Init installs the global logger.
func Init(opts Options) error {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	switch opts.Format {
	case "", FormatConsole:
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	case FormatJSON:
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	default:
		return fmt.Errorf("unknown log format %q", opts.Format)
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

// For returns a child of the global logger tagged with a component field.
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
