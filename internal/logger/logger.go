// Package logger configures the process-wide zerolog logger.
//
// Logs go to stderr so that command reports on stdout stay machine readable.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup initializes the global logger writing to stderr
func Setup(level, format string) {
	SetupWriter(os.Stderr, level, format)
}

// SetupWriter initializes the global logger on an arbitrary writer
func SetupWriter(out io.Writer, level, format string) {
	zerolog.SetGlobalLevel(parseLevel(level))

	if strings.ToLower(format) == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	log.Logger = zerolog.New(out).
		With().
		Timestamp().
		Logger()
}

// parseLevel converts string level to zerolog.Level
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Get returns a logger with the given component name
func Get(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
