package config

import (
	"fmt"
	"os"
)

const EnvStoreDriver = "VERDICT_STORE_DRIVER"

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

// StoreConfig selects the backend that persists classifier records.
type StoreConfig struct {
	Driver string `toml:"driver"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *StoreConfig) Finalize() error {
	if c.Driver == "" {
		c.Driver = DriverPostgres
	}
	if v := os.Getenv(EnvStoreDriver); v != "" {
		c.Driver = v
	}

	switch c.Driver {
	case DriverPostgres, DriverBadger:
		return nil
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
}

// Merge overwrites non-zero fields from overlay.
func (c *StoreConfig) Merge(overlay *StoreConfig) {
	if overlay.Driver != "" {
		c.Driver = overlay.Driver
	}
}
