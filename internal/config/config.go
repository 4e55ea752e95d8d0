// Package config loads service configuration from environment variables
// using github.com/caarlos0/env.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"polling-job-service/internal/store"
)

const (
	BackendCache = "cache"
	BackendSweep = "sweep"
)

type Config struct {
	// HTTPAddr is the listen address of the API server.
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// StoreBackend selects the job store strategy: "cache" or "sweep".
	StoreBackend string `env:"STORE_BACKEND" envDefault:"cache"`

	// JobLifetime is the absolute record lifetime and the tombstone
	// retention window.
	JobLifetime time.Duration `env:"JOB_LIFETIME" envDefault:"10m"`

	// SlidingWindow keeps a terminal record alive between polls
	// (cache backend).
	SlidingWindow time.Duration `env:"JOB_SLIDING_WINDOW" envDefault:"1m"`

	// SweepInterval is the cleanup period (sweep backend).
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1m"`

	// TombstoneLimit caps the expired-id log.
	TombstoneLimit int `env:"TOMBSTONE_LIMIT" envDefault:"200"`

	// StoreCapacity bounds live records in the cache backend; 0 = unbounded.
	StoreCapacity uint64 `env:"STORE_CAPACITY" envDefault:"0"`

	// WorkDuration is how long the simulated processors pretend to work.
	WorkDuration time.Duration `env:"WORK_DURATION" envDefault:"15s"`

	// ShutdownTimeout bounds the HTTP server drain on exit.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Sanitize()
	if cfg.StoreBackend != BackendCache && cfg.StoreBackend != BackendSweep {
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	return &cfg, nil
}

// Sanitize applies guardrails to values loaded from env.
func (c *Config) Sanitize() {
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	if c.JobLifetime <= 0 {
		c.JobLifetime = 10 * time.Minute
	}
	if c.SlidingWindow <= 0 {
		c.SlidingWindow = time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.TombstoneLimit <= 0 {
		c.TombstoneLimit = 200
	}
	if c.WorkDuration < 0 {
		c.WorkDuration = 0
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// StoreOptions maps the config onto store settings.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Lifetime:       c.JobLifetime,
		SlidingWindow:  c.SlidingWindow,
		SweepInterval:  c.SweepInterval,
		TombstoneLimit: c.TombstoneLimit,
		Capacity:       c.StoreCapacity,
	}
}
