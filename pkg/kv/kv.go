// Package kv provides an embedded BadgerDB key-value store with lifecycle coordination.
package kv

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/JaimeStill/verdict/pkg/lifecycle"
)

// System manages an embedded key-value database and its lifecycle.
type System interface {
	// DB returns the underlying badger handle.
	DB() *badger.DB
	// Start registers the value log GC runner and the shutdown hook.
	Start(lc *lifecycle.Coordinator) error
	// Ready reports whether the database is open.
	Ready() bool
	// Close closes the database. Used directly by tests and tools that run without a coordinator.
	Close() error
}

type store struct {
	db       *badger.DB
	logger   *slog.Logger
	inMemory bool
	interval time.Duration
	ratio    float64
}

// New opens the database described by cfg. Persistent databases create their directory on demand.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "kv")

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create kv directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.
		WithSyncWrites(cfg.Sync() && !cfg.InMemory).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open kv database: %w", err)
	}

	return &store{
		db:       db,
		logger:   logger,
		inMemory: cfg.InMemory,
		interval: cfg.GCIntervalDuration(),
		ratio:    cfg.GCDiscardRatio,
	}, nil
}

// NewInMemory opens an in-memory database with default settings.
func NewInMemory(logger *slog.Logger) (System, error) {
	cfg := &Config{InMemory: true}
	if err := cfg.Finalize(nil); err != nil {
		return nil, err
	}
	return New(cfg, logger)
}

func (s *store) DB() *badger.DB {
	return s.db
}

func (s *store) Ready() bool {
	return !s.db.IsClosed()
}

func (s *store) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	return s.db.Close()
}

func (s *store) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting kv store", "in_memory", s.inMemory)
	lc.AddCheck("kv", s)

	if !s.inMemory && s.interval > 0 {
		lc.OnStartup(func() {
			go s.runGC(lc)
		})
	}

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		s.logger.Info("closing kv store")

		if err := s.Close(); err != nil {
			s.logger.Error("kv close failed", "error", err)
			return
		}

		s.logger.Info("kv store closed")
	})

	return nil
}

func (s *store) runGC(lc *lifecycle.Coordinator) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-lc.Context().Done():
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(s.ratio)
			if err == nil {
				s.logger.Debug("value log gc completed")
			} else if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
				s.logger.Warn("value log gc failed", "error", err)
			}
		}
	}
}

// badgerLogger adapts slog to badger's logger. Badger's info output is
// chatty, so it is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
