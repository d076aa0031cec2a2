// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup sets the global level and installs a logger writing to w, either
// human-readable ("console") or as JSON lines ("json").
func Setup(level, format string, w io.Writer) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339

	out := w
	switch format {
	case "console", "":
		out = zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
			cw.Out = w
			cw.TimeFormat = time.RFC3339
		})
	case "json":
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger
	return nil
}
