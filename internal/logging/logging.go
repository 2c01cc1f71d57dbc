// Package logging configures the process-wide zerolog logger.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetDebugMod switches the global logger between production JSON output
// at info level and human-readable console output at debug level.
func SetDebugMod(debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
