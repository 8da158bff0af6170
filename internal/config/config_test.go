package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JaimeStill/verdict/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"shutdown_timeout", cfg.ShutdownTimeout, "30s"},
		{"log_level", cfg.Level(), slog.LevelInfo},
		{"server.port", cfg.Server.Port, 8080},
		{"store.driver", cfg.Store.Driver, config.DriverPostgres},
		{"api.base_path", cfg.API.BasePath, "/api"},
		{"api.max_body_size", cfg.API.MaxBodySizeBytes(), int64(10 * 1024 * 1024)},
		{"api.rate_limit", cfg.API.RateLimit.Enabled(), false},
		{"api.auth", cfg.API.Auth.Enabled, false},
		{"storage.enabled", cfg.Storage.Enabled, false},
		{"badger.path", cfg.Badger.Path, "data/badger"},
		{"classifiers.max_batch_size", cfg.Classifiers.MaxBatchSize, 1000},
		{"classifiers.max_conflict_retries", cfg.Classifiers.MaxConflictRetries, 3},
		{"classifiers.categorize_workers", cfg.Classifiers.CategorizeWorkers, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestLoadFileAndOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	base := `
log_level = "debug"

[store]
driver = "badger"

[api]
base_path = "/v1"

[classifiers]
max_batch_size = 50
`
	overlay := `
[classifiers]
categorize_workers = 8

[api.rate_limit]
requests_per_second = 20
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(base), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.test.toml"), []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VERDICT_ENV", "test")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Level() != slog.LevelDebug {
		t.Errorf("level = %v, want debug", cfg.Level())
	}
	if cfg.Store.Driver != config.DriverBadger {
		t.Errorf("driver = %q, want badger", cfg.Store.Driver)
	}
	if cfg.API.BasePath != "/v1" {
		t.Errorf("base path = %q, want /v1", cfg.API.BasePath)
	}
	if cfg.Classifiers.MaxBatchSize != 50 || cfg.Classifiers.CategorizeWorkers != 8 {
		t.Errorf("classifiers = %+v", cfg.Classifiers)
	}
	if !cfg.API.RateLimit.Enabled() || cfg.API.RateLimit.Burst != 20 {
		t.Errorf("rate limit = %+v", cfg.API.RateLimit)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VERDICT_STORE_DRIVER", "badger")
	t.Setenv("VERDICT_LOG_LEVEL", "warn")
	t.Setenv("VERDICT_API_MAX_BODY_SIZE", "1MB")
	t.Setenv("VERDICT_CLASSIFIERS_MAX_CONFLICT_RETRIES", "7")
	t.Setenv("VERDICT_SERVER_PORT", "9090")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Store.Driver != config.DriverBadger {
		t.Errorf("driver = %q", cfg.Store.Driver)
	}
	if cfg.Level() != slog.LevelWarn {
		t.Errorf("level = %v", cfg.Level())
	}
	if cfg.API.MaxBodySizeBytes() != 1024*1024 {
		t.Errorf("max body = %d", cfg.API.MaxBodySizeBytes())
	}
	if cfg.Classifiers.MaxConflictRetries != 7 {
		t.Errorf("retries = %d", cfg.Classifiers.MaxConflictRetries)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown driver", map[string]string{"VERDICT_STORE_DRIVER": "mongo"}, "unsupported driver"},
		{"bad log level", map[string]string{"VERDICT_LOG_LEVEL": "loud"}, "invalid log_level"},
		{"bad base path", map[string]string{"VERDICT_API_BASE_PATH": "api"}, "base_path"},
		{"bad body size", map[string]string{"VERDICT_API_MAX_BODY_SIZE": "lots"}, "max_body_size"},
		{"bad workers", map[string]string{"VERDICT_CLASSIFIERS_CATEGORIZE_WORKERS": "-1"}, "categorize_workers"},
		{"auth without issuer", map[string]string{"VERDICT_AUTH_ENABLED": "true"}, "auth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}
