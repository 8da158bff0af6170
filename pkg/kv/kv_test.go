package kv_test

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/JaimeStill/verdict/pkg/kv"
	"github.com/JaimeStill/verdict/pkg/lifecycle"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFinalizeDefaults(t *testing.T) {
	cfg := kv.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Path != "data/badger" {
		t.Errorf("path = %s, want data/badger", cfg.Path)
	}
	if cfg.GCIntervalDuration() != 5*time.Minute {
		t.Errorf("gc interval = %v, want 5m", cfg.GCIntervalDuration())
	}
	if cfg.GCDiscardRatio != 0.5 {
		t.Errorf("gc discard ratio = %v, want 0.5", cfg.GCDiscardRatio)
	}
	if !cfg.Sync() {
		t.Error("sync writes should default to true")
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_KV_PATH", "/var/lib/verdict")
	t.Setenv("TEST_KV_IN_MEMORY", "true")
	t.Setenv("TEST_KV_SYNC", "false")

	cfg := kv.Config{}
	err := cfg.Finalize(&kv.Env{
		Path:       "TEST_KV_PATH",
		InMemory:   "TEST_KV_IN_MEMORY",
		SyncWrites: "TEST_KV_SYNC",
	})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Path != "/var/lib/verdict" {
		t.Errorf("path = %s", cfg.Path)
	}
	if !cfg.InMemory {
		t.Error("in_memory should be true")
	}
	if cfg.Sync() {
		t.Error("sync writes should be false")
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     kv.Config
		wantErr string
	}{
		{"bad interval", kv.Config{GCInterval: "soon"}, "invalid gc_interval"},
		{"ratio too large", kv.Config{GCDiscardRatio: 1.5}, "gc_discard_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestInMemoryReadWrite(t *testing.T) {
	sys, err := kv.NewInMemory(discard())
	if err != nil {
		t.Fatalf("NewInMemory() error = %v", err)
	}
	defer sys.Close()

	if !sys.Ready() {
		t.Fatal("open store should be ready")
	}

	err = sys.DB().Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("k"), []byte("v"))
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	var got string
	err = sys.DB().View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("k"))
		if err != nil {
			return err
		}
		v, err := item.ValueCopy(nil)
		got = string(v)
		return err
	})
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if got != "v" {
		t.Errorf("value = %q, want v", got)
	}
}

func TestLifecycleClosesStore(t *testing.T) {
	cfg := &kv.Config{Path: filepath.Join(t.TempDir(), "kv")}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	sys, err := kv.New(cfg, discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	lc := lifecycle.New()
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	lc.WaitForStartup()

	if !lc.Ready() {
		t.Fatalf("coordinator not ready: %v", lc.NotReady())
	}

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if sys.Ready() {
		t.Error("store should not be ready after shutdown")
	}
}
