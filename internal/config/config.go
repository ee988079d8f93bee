// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full server configuration. All variables carry the PWTP_
// prefix.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// DBDialect selects the store backend: sqlite or postgres.
	DBDialect string `env:"DB_DIALECT" envDefault:"sqlite"`
	DBDSN     string `env:"DB_DSN" envDefault:"playingpast.db"`

	// RedisAddr enables the action historian when set.
	RedisAddr string `env:"REDIS_ADDR"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env if present, then parses the environment. A missing .env
// file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: "PWTP_"})
	if err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	switch cfg.DBDialect {
	case "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("config: unknown DB dialect %q", cfg.DBDialect)
	}
	return cfg, nil
}
