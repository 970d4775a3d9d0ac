// Package logging builds the slog handlers used by the CLI, the server and
// the per-job log collectors.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// verbosity is the parsed form of a level string shared by both handler flavors.
type verbosity struct {
	level      slog.Level
	caller     bool
	timestamps bool
}

func parseVerbosity(logLevel string) verbosity {
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "trace":
		return verbosity{level: slog.LevelDebug, caller: true, timestamps: true}
	case "debug":
		return verbosity{level: slog.LevelDebug, timestamps: true}
	case "warn", "warning":
		return verbosity{level: slog.LevelWarn}
	case "error":
		return verbosity{level: slog.LevelError}
	default:
		return verbosity{level: slog.LevelInfo}
	}
}

// ParseLevel converts a level name to a slog.Level, defaulting to info.
// "trace" maps to debug.
func ParseLevel(logLevel string) slog.Level {
	return parseVerbosity(logLevel).level
}

// SetupHandlerText configures a human-readable handler backed by charmbracelet/log
func SetupHandlerText(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stderr
	}
	v := parseVerbosity(logLevel)

	return log.NewWithOptions(writer, log.Options{
		ReportTimestamp: v.timestamps,
		ReportCaller:    v.caller,
		Level:           log.Level(v.level),
	})
}

// SetupHandlerJSON configures a JSON slog handler with the provided writer and log level
func SetupHandlerJSON(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stdout
	}
	v := parseVerbosity(logLevel)

	return slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level:     v.level,
		AddSource: v.caller,
	})
}

// SetupHandler picks the text or JSON handler by format name. Anything other
// than "json" gets the text handler.
func SetupHandler(format, logLevel string, writer io.Writer) slog.Handler {
	if strings.EqualFold(format, "json") {
		return SetupHandlerJSON(logLevel, writer)
	}
	return SetupHandlerText(logLevel, writer)
}

// SetupLogger installs a text handler on stderr as the process default logger
func SetupLogger(logLevel string) {
	slog.SetDefault(slog.New(SetupHandlerText(logLevel, nil)))
}
