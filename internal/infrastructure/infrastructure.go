// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, metrics, the record store backend,
// and archive storage) that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/verdict/internal/config"
	"github.com/JaimeStill/verdict/pkg/database"
	"github.com/JaimeStill/verdict/pkg/kv"
	"github.com/JaimeStill/verdict/pkg/lifecycle"
	"github.com/JaimeStill/verdict/pkg/metrics"
	"github.com/JaimeStill/verdict/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// Exactly one of Database and KV is set, according to the configured store driver.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Driver    string
	Database  database.System
	KV        kv.System
	Storage   storage.System
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))
	return NewWithLogger(cfg, logger)
}

// NewWithLogger creates an Infrastructure that logs through logger.
func NewWithLogger(cfg *config.Config, logger *slog.Logger) (*Infrastructure, error) {
	infra := &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Metrics:   metrics.New(),
		Driver:    cfg.Store.Driver,
	}

	switch cfg.Store.Driver {
	case config.DriverBadger:
		store, err := kv.New(&cfg.Badger, logger)
		if err != nil {
			return nil, fmt.Errorf("badger init failed: %w", err)
		}
		infra.KV = store
	default:
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	archives, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}
	infra.Storage = archives

	return infra, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.KV != nil {
		if err := i.KV.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("badger start failed: %w", err)
		}
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
