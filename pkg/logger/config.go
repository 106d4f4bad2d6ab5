package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config holds logging settings read from the environment.
type Config struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"SERVICE_NAME" envDefault:"notifyworker"`
	Level   string `env:"LOG_LEVEL"`
	Format  string `env:"LOG_FORMAT"`
}

// Validate checks the level and format values when they are set.
func (c Config) Validate() error {
	if c.Level != "" {
		if _, err := ParseLevel(c.Level); err != nil {
			return err
		}
	}
	switch Format(strings.ToLower(c.Format)) {
	case "", FormatJSON, FormatText:
		return nil
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q: must be %q or %q", c.Format, FormatJSON, FormatText)
	}
}

// Options converts the config into logger options.
// Explicit LOG_LEVEL and LOG_FORMAT values override the environment defaults.
func (c Config) Options() []Option {
	opts := []Option{WithEnvironment(c.Env, c.Service)}
	if lvl, err := ParseLevel(c.Level); err == nil && c.Level != "" {
		opts = append(opts, WithLevel(lvl))
	}
	if c.Format != "" {
		opts = append(opts, WithFormat(Format(strings.ToLower(c.Format))))
	}
	return opts
}

// ParseLevel converts a level name such as "debug" or "WARN" into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return lvl, nil
}
