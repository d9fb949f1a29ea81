// Package logging builds the zerolog loggers used by the command and the
// MCP server. Output always goes to stderr, stdout carries the MCP protocol.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvLevel names the environment variable holding the log level.
const EnvLevel = "BRIGHTNESS_MCP_LOG_LEVEL"

// Format selects the encoder.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// ParseLevel maps a level name to a zerolog level. An empty name means info.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return lvl, nil
}

// LevelFromEnv reads EnvLevel, falling back to fallback when it is unset or
// unparseable.
func LevelFromEnv(fallback zerolog.Level) zerolog.Level {
	v, ok := os.LookupEnv(EnvLevel)
	if !ok {
		return fallback
	}
	lvl, err := ParseLevel(v)
	if err != nil {
		return fallback
	}
	return lvl
}

// New returns a timestamped logger writing to w.
func New(w io.Writer, level zerolog.Level, format Format) zerolog.Logger {
	if format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: true}
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Component tags every event of l with the given component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
