// Package config loads and finalizes the Verdict service configuration from
// TOML files and VERDICT_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/verdict/internal/classifiers"
	"github.com/JaimeStill/verdict/pkg/database"
	"github.com/JaimeStill/verdict/pkg/kv"
	"github.com/JaimeStill/verdict/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvVerdictEnv             = "VERDICT_ENV"
	EnvVerdictShutdownTimeout = "VERDICT_SHUTDOWN_TIMEOUT"
	EnvVerdictVersion         = "VERDICT_VERSION"
	EnvVerdictLogLevel        = "VERDICT_LOG_LEVEL"
)

var databaseEnv = &database.Env{
	Host:            "VERDICT_DB_HOST",
	Port:            "VERDICT_DB_PORT",
	Name:            "VERDICT_DB_NAME",
	User:            "VERDICT_DB_USER",
	Password:        "VERDICT_DB_PASSWORD",
	SSLMode:         "VERDICT_DB_SSL_MODE",
	MaxOpenConns:    "VERDICT_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "VERDICT_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "VERDICT_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "VERDICT_DB_CONN_TIMEOUT",
}

var badgerEnv = &kv.Env{
	Path:           "VERDICT_BADGER_PATH",
	InMemory:       "VERDICT_BADGER_IN_MEMORY",
	SyncWrites:     "VERDICT_BADGER_SYNC_WRITES",
	GCInterval:     "VERDICT_BADGER_GC_INTERVAL",
	GCDiscardRatio: "VERDICT_BADGER_GC_DISCARD_RATIO",
}

var storageEnv = &storage.Env{
	Enabled:          "VERDICT_STORAGE_ENABLED",
	ContainerName:    "VERDICT_STORAGE_CONTAINER_NAME",
	ConnectionString: "VERDICT_STORAGE_CONNECTION_STRING",
	ServiceURL:       "VERDICT_STORAGE_SERVICE_URL",
	MaxListSize:      "VERDICT_STORAGE_MAX_LIST_SIZE",
}

var classifiersEnv = &classifiers.Env{
	MaxBatchSize:       "VERDICT_CLASSIFIERS_MAX_BATCH_SIZE",
	MaxConflictRetries: "VERDICT_CLASSIFIERS_MAX_CONFLICT_RETRIES",
	CategorizeWorkers:  "VERDICT_CLASSIFIERS_CATEGORIZE_WORKERS",
}

// Config is the root configuration for the Verdict service.
type Config struct {
	Server          ServerConfig       `toml:"server"`
	Store           StoreConfig        `toml:"store"`
	Database        database.Config    `toml:"database"`
	Badger          kv.Config          `toml:"badger"`
	Storage         storage.Config     `toml:"storage"`
	API             APIConfig          `toml:"api"`
	Classifiers     classifiers.Config `toml:"classifiers"`
	ShutdownTimeout string             `toml:"shutdown_timeout"`
	Version         string             `toml:"version"`
	LogLevel        string             `toml:"log_level"`
}

// Env returns the VERDICT_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvVerdictEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Level returns LogLevel as a slog.Level.
func (c *Config) Level() slog.Level {
	var l slog.Level
	_ = l.UnmarshalText([]byte(c.LogLevel))
	return l
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	c.Server.Merge(&overlay.Server)
	c.Store.Merge(&overlay.Store)
	c.Database.Merge(&overlay.Database)
	c.Badger.Merge(&overlay.Badger)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Classifiers.Merge(&overlay.Classifiers)
}

// Finalize applies defaults, environment overrides, and validation to every section.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Store.Finalize(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Badger.Finalize(badgerEnv); err != nil {
		return fmt.Errorf("badger: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Classifiers.Finalize(classifiersEnv); err != nil {
		return fmt.Errorf("classifiers: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvVerdictShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvVerdictVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvVerdictLogLevel); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvVerdictEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
