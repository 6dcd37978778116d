// Package config loads service configuration from the environment, with
// an optional .env file for local runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8085"`

	// CacheDir is where the favorites and offer-cache documents live.
	// Empty means <user cache dir>/offer-aggregator.
	CacheDir string `env:"CACHE_DIR"`

	API   API
	Redis Redis
	Log   Log
}

type API struct {
	BaseURL string `env:"CATALOG_API_URL" envDefault:"https://squid-api.tjek.com/v2"`

	// Outbound request budget against the catalog API.
	RequestsPerSecond float64 `env:"CATALOG_API_RPS" envDefault:"10"`
	Burst             int     `env:"CATALOG_API_BURST" envDefault:"5"`
}

type Redis struct {
	URL        string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	DB         int    `env:"REDIS_DB" envDefault:"0"`
	TTLSeconds int    `env:"CACHE_TTL" envDefault:"600"`
}

type Log struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	// File enables rotated file output next to stderr when set.
	File string `env:"LOG_FILE"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	if cfg.CacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve user cache dir: %w", err)
		}
		cfg.CacheDir = filepath.Join(base, "offer-aggregator")
	}

	return cfg, nil
}
