package classifiers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/verdict/internal/classifiers"
	"github.com/JaimeStill/verdict/internal/engine"
	"github.com/JaimeStill/verdict/pkg/kv"
	"github.com/JaimeStill/verdict/pkg/lifecycle"
	"github.com/JaimeStill/verdict/pkg/metrics"
	"github.com/JaimeStill/verdict/pkg/storage"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() classifiers.Config {
	cfg := classifiers.Config{}
	_ = cfg.Finalize(nil)
	return cfg
}

func newBadgerStore(t *testing.T) classifiers.Store {
	t.Helper()

	sys, err := kv.NewInMemory(discard())
	require.NoError(t, err)
	t.Cleanup(func() { sys.Close() })

	return classifiers.NewBadgerStore(sys.DB())
}

type fixture struct {
	sys     classifiers.System
	store   classifiers.Store
	blobs   *memBlobs
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, opts ...func(*fixtureOptions)) *fixture {
	t.Helper()

	o := fixtureOptions{cfg: testConfig(), archives: storage.Disabled(), engines: engine.NewFactory()}
	for _, opt := range opts {
		opt(&o)
	}

	store := newBadgerStore(t)
	if o.wrap != nil {
		store = o.wrap(store)
	}

	m := metrics.New()
	f := &fixture{
		store:   store,
		metrics: m,
		sys:     classifiers.New(store, o.engines, o.archives, m, discard(), o.cfg),
	}
	if mb, ok := o.archives.(*memBlobs); ok {
		f.blobs = mb
	}
	return f
}

type fixtureOptions struct {
	cfg      classifiers.Config
	archives storage.System
	wrap     func(classifiers.Store) classifiers.Store
	engines  engine.Factory
}

func withConfig(fn func(*classifiers.Config)) func(*fixtureOptions) {
	return func(o *fixtureOptions) { fn(&o.cfg) }
}

func withArchives() func(*fixtureOptions) {
	return func(o *fixtureOptions) { o.archives = newMemBlobs() }
}

func withStore(wrap func(classifiers.Store) classifiers.Store) func(*fixtureOptions) {
	return func(o *fixtureOptions) { o.wrap = wrap }
}

func withEngines(f engine.Factory) func(*fixtureOptions) {
	return func(o *fixtureOptions) { o.engines = f }
}

func batch(t *testing.T, v any) classifiers.Batch {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var b classifiers.Batch
	require.NoError(t, json.Unmarshal(data, &b))
	return b
}

func learnItem(text, category string) map[string]string {
	return map[string]string{"text": text, "category": category}
}

func textItem(text string) map[string]string {
	return map[string]string{"text": text}
}

// flakyStore fails Update with a configured error for the first n calls.
type flakyStore struct {
	classifiers.Store
	mu       sync.Mutex
	failures int
	err      error
	updates  int
}

func (s *flakyStore) Update(ctx context.Context, c classifiers.Classifier) (classifiers.Classifier, error) {
	s.mu.Lock()
	s.updates++
	fail := s.failures > 0
	if fail {
		s.failures--
	}
	s.mu.Unlock()

	if fail {
		return classifiers.Classifier{}, s.err
	}
	return s.Store.Update(ctx, c)
}

// faultyFactory produces engines whose nth Learn or Categorize call fails,
// counted across every engine the factory hands out.
type faultyFactory struct {
	engine.Factory
	mu         sync.Mutex
	failLearn  int
	failCateg  int
	learns     int
	categories int
}

func (f *faultyFactory) Create() (engine.Engine, error) {
	e, err := f.Factory.Create()
	if err != nil {
		return nil, err
	}
	return &faultyEngine{Engine: e, f: f}, nil
}

func (f *faultyFactory) Restore(state json.RawMessage) (engine.Engine, error) {
	e, err := f.Factory.Restore(state)
	if err != nil {
		return nil, err
	}
	return &faultyEngine{Engine: e, f: f}, nil
}

type faultyEngine struct {
	engine.Engine
	f *faultyFactory
}

func (e *faultyEngine) Learn(text, category string) error {
	e.f.mu.Lock()
	e.f.learns++
	fail := e.f.learns == e.f.failLearn
	e.f.mu.Unlock()

	if fail {
		return fmt.Errorf("%w: injected learn failure", engine.ErrEngineFault)
	}
	return e.Engine.Learn(text, category)
}

func (e *faultyEngine) Categorize(text string) (engine.Result, error) {
	e.f.mu.Lock()
	e.f.categories++
	fail := e.f.categories == e.f.failCateg
	e.f.mu.Unlock()

	if fail {
		return engine.Result{}, fmt.Errorf("%w: injected categorize failure", engine.ErrEngineFault)
	}
	return e.Engine.Categorize(text)
}

// memBlobs is an in-memory storage.System.
type memBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: make(map[string][]byte)}
}

func (m *memBlobs) Enabled() bool                         { return true }
func (m *memBlobs) Ready() bool                           { return true }
func (m *memBlobs) Start(lc *lifecycle.Coordinator) error { return nil }

func (m *memBlobs) Upload(_ context.Context, key string, r io.Reader, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	return nil
}

func (m *memBlobs) Download(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobs) List(_ context.Context, prefix string) ([]storage.Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []storage.Blob
	for key, data := range m.blobs {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.Blob{Key: key, Size: int64(len(data))})
		}
	}
	slices.SortFunc(out, func(a, b storage.Blob) int { return strings.Compare(b.Key, a.Key) })
	return out, nil
}

func (m *memBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[key]; !ok {
		return storage.ErrNotFound
	}
	delete(m.blobs, key)
	return nil
}

func (m *memBlobs) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok, nil
}

func (m *memBlobs) put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
}

func randomID() uuid.UUID { return uuid.New() }

func counter(t *testing.T, f *fixture, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := f.metrics.Registry().Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			matched := 0
			for _, lp := range m.GetLabel() {
				if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}
