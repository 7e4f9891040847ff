package probe

import (
	"log"

	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the verifier.
func SetLogger(l zerolog.Logger) { zlog = &l }

// complainf records a check failure in the log. The verdict itself is
// tracked on the session; this is the human-readable side.
func complainf(format string, args ...any) {
	if zlog != nil {
		zlog.Error().Msgf(format, args...)
		return
	}
	log.Printf("FAILED: "+format, args...)
}

func warnf(format string, args ...any) {
	if zlog != nil {
		zlog.Warn().Msgf(format, args...)
		return
	}
	log.Printf("warning: "+format, args...)
}

func displayf(format string, args ...any) {
	if zlog != nil {
		zlog.Info().Msgf(format, args...)
		return
	}
	log.Printf(format, args...)
}
