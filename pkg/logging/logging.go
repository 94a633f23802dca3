// Package logging sets up the global zerolog logger.
//
// The terminal belongs to the UI in every binary, so logs go to a file.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init sends the global logger to dest, tagged with component. An empty
// dest writes human readable lines to stderr instead, which suits the
// binaries that do not own a terminal UI.
func Init(dest, component string, verbose bool) (io.Closer, error) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if dest == "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Str("component", component).Logger()
		return nopCloser{}, nil
	}

	f, err := os.OpenFile(dest, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}

	log.Logger = zerolog.New(f).With().
		Timestamp().
		Str("component", component).
		Logger()
	return f, nil
}
