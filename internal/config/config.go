// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DatabaseURL is optional: when empty the service runs on the
	// in-memory ledger and nothing persists.
	DatabaseURL string `env:"DATABASE_URL"`

	// RedisURL is optional: when empty no caching layer is wrapped around
	// the ledger or the quote source.
	RedisURL string `env:"REDIS_URL"`

	Quotes Quotes
}

type Quotes struct {
	// BaseURL overrides the quote API endpoint; empty selects the public
	// CoinGecko API.
	BaseURL         string        `env:"QUOTES_BASE_URL"`
	Timeout         time.Duration `env:"QUOTES_TIMEOUT" envDefault:"10s"`
	CacheTTL        time.Duration `env:"QUOTES_CACHE_TTL" envDefault:"30s"`
	RefreshInterval time.Duration `env:"QUOTES_REFRESH_INTERVAL" envDefault:"60s"`
}

// MustLoad reads configuration from the environment, exiting on parse
// failure.
func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("parse config error: %s", err)
	}
	return cfg
}
