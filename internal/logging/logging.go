// Package logging builds the process logger.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns the root logger. Level comes from REVEAL_LOG_LEVEL (debug, info,
// warn, error); anything unparseable falls back to info.
func New() zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("REVEAL_LOG_LEVEL")))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	w := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
