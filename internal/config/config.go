// Package config loads the process configuration from DEALBREAKER_*
// environment variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/abhisek/dealbreaker/internal/game"
	"github.com/abhisek/dealbreaker/internal/store"
)

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "DEALBREAKER_"

// Config holds the server and game settings. LLM settings are read
// separately by llm.Resolve.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	// DSN is a file path for SQLite and a connection URL for Postgres.
	// An empty SQLite path resolves to the XDG data directory.
	DSN string `env:"DB"`

	StartingBalance int           `env:"STARTING_BALANCE" envDefault:"100"`
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"5m"`

	// CharactersFile replaces the built-in catalog when set.
	CharactersFile string `env:"CHARACTERS_FILE"`

	// FrontendOrigins are the browser origins allowed by CORS.
	FrontendOrigins []string `env:"FRONTEND_ORIGINS" envSeparator:","`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env files when present, then the environment.
func Load(dotenvFiles ...string) (*Config, error) {
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return parse(env.Options{Prefix: EnvPrefix})
}

// FromMap parses configuration from vars instead of the process
// environment. Keys carry the DEALBREAKER_ prefix.
func FromMap(vars map[string]string) (*Config, error) {
	return parse(env.Options{Prefix: EnvPrefix, Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the values that have no safe fallback.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("DEALBREAKER_PORT cannot be empty")
	}
	switch c.DBDriver {
	case store.DriverSQLite:
	case store.DriverPostgres:
		if c.DSN == "" {
			return errors.New("DEALBREAKER_DB is required for postgres")
		}
	default:
		return fmt.Errorf("unknown DEALBREAKER_DB_DRIVER %q", c.DBDriver)
	}
	if c.StartingBalance <= 0 {
		return errors.New("DEALBREAKER_STARTING_BALANCE must be > 0")
	}
	if c.SessionDuration <= 0 {
		return errors.New("DEALBREAKER_SESSION_DURATION must be > 0")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Store returns the database settings, resolving the default SQLite path.
func (c *Config) Store() (store.Config, error) {
	dsn := c.DSN
	if c.DBDriver == store.DriverSQLite {
		var err error
		if dsn == "" {
			dsn, err = store.DefaultDBPath()
		} else {
			err = store.EnsureDir(dsn)
		}
		if err != nil {
			return store.Config{}, fmt.Errorf("resolve database path: %w", err)
		}
	}
	return store.Config{Driver: c.DBDriver, DSN: dsn}, nil
}

// Game returns the game rules.
func (c *Config) Game() game.Config {
	return game.Config{
		StartingBalance: c.StartingBalance,
		SessionDuration: c.SessionDuration,
	}
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid DEALBREAKER_LOG_LEVEL %q", c.LogLevel)
	}
	return l, nil
}

// IsDevelopment reports whether no frontend origin is configured or every
// configured origin is local.
func (c *Config) IsDevelopment() bool {
	for _, o := range c.FrontendOrigins {
		if !strings.Contains(o, "localhost") && !strings.Contains(o, "127.0.0.1") {
			return false
		}
	}
	return true
}
