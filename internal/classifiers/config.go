package classifiers

import (
	"fmt"
	"os"
	"strconv"
)

// Config bounds batch sizes, conflict retries, and categorize fan-out.
type Config struct {
	MaxBatchSize       int `toml:"max_batch_size"`
	MaxConflictRetries int `toml:"max_conflict_retries"`
	CategorizeWorkers  int `toml:"categorize_workers"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	MaxBatchSize       string
	MaxConflictRetries string
	CategorizeWorkers  string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.MaxBatchSize != 0 {
		c.MaxBatchSize = overlay.MaxBatchSize
	}
	if overlay.MaxConflictRetries != 0 {
		c.MaxConflictRetries = overlay.MaxConflictRetries
	}
	if overlay.CategorizeWorkers != 0 {
		c.CategorizeWorkers = overlay.CategorizeWorkers
	}
}

func (c *Config) loadDefaults() {
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = 1000
	}
	if c.MaxConflictRetries == 0 {
		c.MaxConflictRetries = 3
	}
	if c.CategorizeWorkers == 0 {
		c.CategorizeWorkers = 4
	}
}

func (c *Config) loadEnv(env *Env) {
	setInt(&c.MaxBatchSize, env.MaxBatchSize)
	setInt(&c.MaxConflictRetries, env.MaxConflictRetries)
	setInt(&c.CategorizeWorkers, env.CategorizeWorkers)
}

func (c *Config) validate() error {
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be positive: %d", c.MaxBatchSize)
	}
	if c.MaxConflictRetries < 1 {
		return fmt.Errorf("max_conflict_retries must be positive: %d", c.MaxConflictRetries)
	}
	if c.CategorizeWorkers < 1 {
		return fmt.Errorf("categorize_workers must be positive: %d", c.CategorizeWorkers)
	}
	return nil
}

func setInt(dst *int, key string) {
	if key == "" {
		return
	}
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
