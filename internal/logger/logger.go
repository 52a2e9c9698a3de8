package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cheahjs/genstudio/internal/config"
)

// Setup configures the global zerolog logger and returns it.
func Setup(cfg *config.Config) zerolog.Logger {
	return setup(os.Stdout, cfg.LogLevel, cfg.LogFormat)
}

func setup(out io.Writer, level, format string) zerolog.Logger {
	var w io.Writer = out
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	logger := zerolog.New(w).
		With().
		Timestamp().
		Str("service", "genstudio").
		Logger().
		Level(parseLevel(level))

	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger
	return logger
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
