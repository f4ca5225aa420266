package testlog

import (
	"testing"

	"github.com/misje/genericpacket/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Start configures test logging and returns a logger that writes through t.
func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	logging.ConfigureTests()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: zerolog.NewTestWriter(t), NoColor: true}).
		Level(log.Logger.GetLevel()).
		With().
		Str("test", t.Name()).
		Logger()
	logger.Info().Msg("test start")
	return logger
}
