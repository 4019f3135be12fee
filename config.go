package goldmod

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"

	"goldmod/internal/log"
)

// Config carries the knobs a server operator can turn without rebuilding the
// plugin that embeds the bridge. Everything reads from GOLDMOD_* environment
// variables via LoadConfigFromEnv; a zero Config is also valid and leaves all
// optional subsystems off.
type Config struct {
	// LogLevel is the minimum severity logged: debug, info, warn or error.
	LogLevel string `env:"GOLDMOD_LOG_LEVEL" envDefault:"info"`
	// LogFile redirects the structured log into a file when set. The default
	// writes to the server console.
	LogFile string `env:"GOLDMOD_LOG_FILE"`

	// StorePath locates the SQLite ledger for player visits and plugin
	// key/values. Empty disables persistence entirely.
	StorePath string `env:"GOLDMOD_STORE_PATH"`

	// MenuSeconds is applied to menus that do not set their own timeout.
	// Zero means such menus stay up until the player dismisses them.
	MenuSeconds float64 `env:"GOLDMOD_MENU_SECONDS"`

	// FloodRate caps client commands per player per second; zero disables
	// the guard. FloodBurst is how many commands may arrive back to back
	// before the cap bites.
	FloodRate  float64 `env:"GOLDMOD_FLOOD_RATE"`
	FloodBurst int     `env:"GOLDMOD_FLOOD_BURST" envDefault:"6"`
}

// DefaultConfig returns the settings used when the environment contributes
// nothing.
func DefaultConfig() Config {
	return Config{
		LogLevel:   "info",
		FloodBurst: 6,
	}
}

// LoadConfigFromEnv reads GOLDMOD_* variables into a Config. A malformed
// environment falls back to DefaultConfig rather than failing the host
// startup; the problem is reported through the log.
func LoadConfigFromEnv() Config {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		log.Warn("config: bad environment, using defaults", "error", err)
		return DefaultConfig()
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg
}

// logLevel maps the textual LogLevel onto a slog level.
func (c Config) logLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.LogLevel)
}
