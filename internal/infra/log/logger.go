package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger создаёт настроенный zerolog: debug и консольный вывод в dev,
// JSON уровня info в остальных окружениях.
func NewLogger(appEnv, service string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	logger := zerolog.New(os.Stdout)
	if appEnv == "dev" {
		level = zerolog.DebugLevel
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger.With().Timestamp().Str("service", service).Logger().Level(level)
}
