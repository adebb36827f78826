package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects level and format of the diagnostic log.
type Config struct {
	Level  string
	Format string // "console" or "json"
	Output io.Writer
}

// New builds the process logger. Diagnostics go to stderr by default so they
// never mix with command output on stdout.
func New(cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if !strings.EqualFold(cfg.Format, "json") {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "2006-01-02 15:04:05",
		}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || cfg.Level == "" {
		if cfg.Level != "" {
			logger.Warn().Str("level", cfg.Level).Msg("invalid log level, defaulting to warn")
		}
		level = zerolog.WarnLevel
	}
	return logger.Level(level)
}
