package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger: console output with debug level
// in development, JSON at info level everywhere else.
func Setup(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "development" || env == "" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}).
			With().Timestamp().Logger().Level(zerolog.DebugLevel)
		return
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "popfitup-api").Logger().Level(zerolog.InfoLevel)
}
