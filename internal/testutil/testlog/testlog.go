package testlog

import (
	"testing"
	"time"

	"github.com/danmuck/dspctl/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Start configures test logging and returns a logger tagged with the test
// name. The outcome and duration are logged when the test finishes.
func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	logging.ConfigureTests()
	logger := log.With().Str("test", t.Name()).Logger()
	start := time.Now()
	logger.Info().Msg("test start")
	t.Cleanup(func() {
		ev := logger.Info()
		if t.Failed() {
			ev = logger.Warn()
		}
		ev.Bool("failed", t.Failed()).Dur("elapsed", time.Since(start)).Msg("test done")
	})
	return logger
}
