package kv

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds BadgerDB parameters.
type Config struct {
	Path           string  `toml:"path"`
	InMemory       bool    `toml:"in_memory"`
	SyncWrites     *bool   `toml:"sync_writes"`
	GCInterval     string  `toml:"gc_interval"`
	GCDiscardRatio float64 `toml:"gc_discard_ratio"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Path           string
	InMemory       string
	SyncWrites     string
	GCInterval     string
	GCDiscardRatio string
}

// GCIntervalDuration returns GCInterval as a time.Duration. Zero disables GC.
func (c *Config) GCIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.GCInterval)
	return d
}

// Sync reports whether writes are synced to disk before a transaction commits.
func (c *Config) Sync() bool {
	return c.SyncWrites == nil || *c.SyncWrites
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
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
	if overlay.InMemory {
		c.InMemory = true
	}
	if overlay.SyncWrites != nil {
		c.SyncWrites = overlay.SyncWrites
	}
	if overlay.GCInterval != "" {
		c.GCInterval = overlay.GCInterval
	}
	if overlay.GCDiscardRatio != 0 {
		c.GCDiscardRatio = overlay.GCDiscardRatio
	}
}

func (c *Config) loadDefaults() {
	if c.Path == "" {
		c.Path = "data/badger"
	}
	if c.GCInterval == "" {
		c.GCInterval = "5m"
	}
	if c.GCDiscardRatio == 0 {
		c.GCDiscardRatio = 0.5
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Path != "" {
		if v := os.Getenv(env.Path); v != "" {
			c.Path = v
		}
	}
	if env.InMemory != "" {
		if v := os.Getenv(env.InMemory); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.InMemory = b
			}
		}
	}
	if env.SyncWrites != "" {
		if v := os.Getenv(env.SyncWrites); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.SyncWrites = &b
			}
		}
	}
	if env.GCInterval != "" {
		if v := os.Getenv(env.GCInterval); v != "" {
			c.GCInterval = v
		}
	}
	if env.GCDiscardRatio != "" {
		if v := os.Getenv(env.GCDiscardRatio); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.GCDiscardRatio = f
			}
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.GCInterval); err != nil {
		return fmt.Errorf("invalid gc_interval: %w", err)
	}
	if c.GCDiscardRatio <= 0 || c.GCDiscardRatio >= 1 {
		return fmt.Errorf("gc_discard_ratio must be between 0 and 1, got %v", c.GCDiscardRatio)
	}
	return nil
}
