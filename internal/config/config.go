// Package config holds the service-level configuration: ports, paths, and
// schedule tuning. Behavior constants (weights, ranges, tables) live in the
// diplomacy package's versioned Config instead.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the service configuration, populated from the environment.
type Config struct {
	DBPath   string `env:"STATECRAFT_DB_PATH" envDefault:"data/statecraft.db"`
	APIPort  int    `env:"STATECRAFT_API_PORT" envDefault:"8080"`
	AdminKey string `env:"STATECRAFT_ADMIN_KEY"` // Empty disables admin POST endpoints

	// Optional Redis address for the trait cache; empty disables caching.
	RedisAddr string        `env:"STATECRAFT_REDIS_ADDR"`
	CacheTTL  time.Duration `env:"STATECRAFT_CACHE_TTL" envDefault:"10m"`

	// Simulation schedule.
	TickInterval time.Duration `env:"STATECRAFT_TICK_INTERVAL" envDefault:"1s"`
	Seed         int64         `env:"STATECRAFT_SEED" envDefault:"42"`

	// Bound on the batch trait-refresh worker pool.
	RefreshWorkers int `env:"STATECRAFT_REFRESH_WORKERS" envDefault:"8"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.RefreshWorkers < 1 {
		cfg.RefreshWorkers = 1
	}
	return cfg, nil
}
