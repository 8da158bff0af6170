package classifiers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/verdict/internal/classifiers"
	"github.com/JaimeStill/verdict/internal/engine"
)

func create(t *testing.T, f *fixture, name string) *classifiers.Classifier {
	t.Helper()
	c, err := f.sys.Create(context.Background(), classifiers.CreateCommand{Name: name})
	require.NoError(t, err)
	return c
}

func totalDocuments(t *testing.T, c *classifiers.Classifier) int {
	t.Helper()
	var state struct {
		Total int `json:"totalNumberOfDocuments"`
	}
	require.NoError(t, json.Unmarshal(c.State, &state))
	return state.Total
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := create(t, f, "spam filter")

	assert.NotEqual(t, [16]byte{}, [16]byte(c.ID))
	assert.Equal(t, "spam filter", c.Name)
	assert.Equal(t, int64(1), c.Version)
	assert.Equal(t, 0, totalDocuments(t, c))

	_, err := f.sys.Categorize(ctx, c.ID, batch(t, textItem("anything")))
	assert.ErrorIs(t, err, classifiers.ErrNotTrained)
}

func TestCreateDefaultName(t *testing.T) {
	f := newFixture(t)
	c := create(t, f, "")
	assert.Equal(t, "", c.Name)
}

func TestFindRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := create(t, f, "round trip")

	_, err := f.sys.Learn(ctx, c.ID, batch(t, []any{
		learnItem("buy cheap pills now", "spam"),
		learnItem("meeting moved to noon", "ham"),
	}))
	require.NoError(t, err)

	found, err := f.sys.Find(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, totalDocuments(t, found))

	eng, err := engine.NewFactory().Restore(found.State)
	require.NoError(t, err)

	snap, err := eng.Snapshot()
	require.NoError(t, err)
	assert.JSONEq(t, string(found.State), string(snap))

	again, err := f.sys.Find(ctx, c.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(found.State), string(again.State))
}

func TestFindNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.sys.Find(context.Background(), randomID())
	assert.ErrorIs(t, err, classifiers.ErrNotFound)
}

func TestFindCorruptState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec := classifiers.Classifier{
		ID:        randomID(),
		CreatedAt: time.Now().UTC(),
		Version:   1,
		State:     json.RawMessage(`{"totalNumberOfDocuments": -1}`),
	}
	_, err := f.store.Insert(ctx, rec)
	require.NoError(t, err)

	_, err = f.sys.Find(ctx, rec.ID)
	assert.ErrorIs(t, err, classifiers.ErrCorruptState)

	_, err = f.sys.Learn(ctx, rec.ID, batch(t, learnItem("x", "a")))
	assert.ErrorIs(t, err, classifiers.ErrCorruptState)
}

func TestLearnMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := create(t, f, "")

	counts, err := f.sys.Learn(ctx, c.ID, batch(t, learnItem("hello there", "greeting")))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"greeting": 1}, counts)

	counts, err = f.sys.Learn(ctx, c.ID, batch(t, learnItem("hello there", "greeting")))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"greeting": 2}, counts)

	found, err := f.sys.Find(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), found.Version)

	assert.Equal(t, 2.0, counter(t, f, "verdict_learn_documents_total", map[string]string{"category": "greeting"}))
}

func TestLearnValidatesWholeBatchFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := create(t, f, "")

	_, err := f.sys.Learn(ctx, c.ID, batch(t, []any{
		learnItem("first item", "a"),
		map[string]string{"text": "missing category"},
	}))
	require.ErrorIs(t, err, classifiers.ErrValidation)
	assert.Contains(t, err.Error(), "item 1")
	assert.Contains(t, err.Error(), "category is required")

	found, err := f.sys.Find(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, totalDocuments(t, found))
	assert.Equal(t, int64(1), found.Version)
}

func TestLearnRejectsBadBatches(t *testing.T) {
	f := newFixture(t, withConfig(func(c *classifiers.Config) { c.MaxBatchSize = 2 }))
	ctx := context.Background()
	c := create(t, f, "")

	tests := []struct {
		name  string
		batch any
		want  string
	}{
		{"empty array", []any{}, "no items"},
		{"too many", []any{learnItem("a", "x"), learnItem("b", "x"), learnItem("c", "x")}, "exceeds limit"},
		{"empty category", learnItem("text", ""), "category must not be empty"},
		{"wrong type", map[string]any{"text": 5, "category": "x"}, "text must be a string"},
		{"not an object", "just a string", "must be an object"},
		{"missing text", map[string]string{"category": "x"}, "text is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sys.Learn(ctx, c.ID, batch(t, tt.batch))
			require.ErrorIs(t, err, classifiers.ErrValidation)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLearnAcceptsTextWithoutTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := create(t, f, "")

	counts, err := f.sys.Learn(ctx, c.ID, batch(t, learnItem("", "blank")))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"blank": 1}, counts)
}

func TestLearnNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sys.Learn(ctx, randomID(), batch(t, learnItem("x", "a")))
	require.ErrorIs(t, err, classifiers.ErrNotFound)

	items, err := f.sys.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLearnPersistFaultLeavesStateUnchanged(t *testing.T) {
	flaky := &flakyStore{failures: 1, err: fmt.Errorf("%w: disk full", classifiers.ErrPersistFault)}
	f := newFixture(t, withStore(func(s classifiers.Store) classifiers.Store {
		flaky.Store = s
		return flaky
	}))
	ctx := context.Background()
	c := create(t, f, "")

	_, err := f.sys.Learn(ctx, c.ID, batch(t, learnItem("x", "a")))
	require.ErrorIs(t, err, classifiers.ErrPersistFault)
	assert.Equal(t, 1, flaky.updates)

	found, err := f.sys.Find(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, totalDocuments(t, found))
}

func TestLearnEngineFaultDiscardsBatch(t *testing.T) {
	engines := &faultyFactory{Factory: engine.NewFactory(), failLearn: 2}
	flaky := &flakyStore{}
	f := newFixture(t,
		withEngines(engines),
		withStore(func(s classifiers.Store) classifiers.Store {
			flaky.Store = s
			return flaky
		}),
	)
	ctx := context.Background()
	c := create(t, f, "")

	counts, err := f.sys.Learn(ctx, c.ID, batch(t, []any{
		learnItem("ok", "a"),
		learnItem("boom", "b"),
		learnItem("never", "c"),
	}))
	require.ErrorIs(t, err, classifiers.ErrEngineFault)
	assert.Contains(t, err.Error(), "item 1")
	assert.Nil(t, counts)
	assert.Equal(t, 0, flaky.updates)

	found, err := f.sys.Find(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.Version)
	assert.Equal(t, 0, totalDocuments(t, found))

	assert.Equal(t, 1.0, counter(t, f, "verdict_batch_failures_total", map[string]string{
		"operation": "learn",
		"reason":    "engine",
	}))
	assert.Equal(t, 0.0, counter(t, f, "verdict_learn_documents_total", map[string]string{"category": "a"}))
}

func TestLearnRetriesConflicts(t *testing.T) {
	flaky := &flakyStore{failures: 2, err: classifiers.ErrConflict}
	f := newFixture(t, withStore(func(s classifiers.Store) classifiers.Store {
		flaky.Store = s
		return flaky
	}))
	ctx := context.Background()
	c := create(t, f, "")

	counts, err := f.sys.Learn(ctx, c.ID, batch(t, learnItem("x", "a")))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, counts)
	assert.Equal(t, 3, flaky.updates)
	assert.Equal(t, 2.0, counter(t, f, "verdict_persist_conflicts_total", nil))
}

func TestLearnConflictRetriesExhausted(t *testing.T) {
	flaky := &flakyStore{failures: 100, err: classifiers.ErrConflict}
	f := newFixture(t,
		withConfig(func(c *classifiers.Config) { c.MaxConflictRetries = 2 }),
		withStore(func(s classifiers.Store) classifiers.Store {
			flaky.Store = s
			return flaky
		}),
	)
	ctx := context.Background()
	c := create(t, f, "")

	_, err := f.sys.Learn(ctx, c.ID, batch(t, learnItem("x", "a")))
	require.ErrorIs(t, err, classifiers.ErrConflict)
	assert.Equal(t, 3, flaky.updates)
}

func TestConcurrentLearnLosesNoUpdates(t *testing.T) {
	f := newFixture(t, withConfig(func(c *classifiers.Config) { c.MaxConflictRetries = 100 }))
	ctx := context.Background()
	c := create(t, f, "")

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)

	for i := range writers {
		wg.Go(func() {
			_, errs[i] = f.sys.Learn(ctx, c.ID, batch(t, learnItem(fmt.Sprintf("doc %d", i), "a")))
		})
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	found, err := f.sys.Find(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, writers, totalDocuments(t, found))
	assert.Equal(t, int64(writers+1), found.Version)
}

func TestCategorizeDeterministic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := create(t, f, "")

	_, err := f.sys.Learn(ctx, c.ID, batch(t, []any{
		learnItem("buy cheap pills now", "spam"),
		learnItem("cheap watches buy", "spam"),
		learnItem("see you at lunch", "ham"),
		learnItem("project meeting at noon", "ham"),
	}))
	require.NoError(t, err)

	input := batch(t, textItem("cheap pills"))

	first, err := f.sys.Categorize(ctx, c.ID, input)
	require.NoError(t, err)
	second, err := f.sys.Categorize(ctx, c.ID, input)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first, 1)
	assert.Equal(t, "spam", first[0].Category)
	assert.Equal(t, "cheap pills", first[0].Text)
	assert.Contains(t, first[0].Categories, "ham")

	found, err := f.sys.Find(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.Version, "categorize must not persist")
}

func TestCategorizePreservesOrder(t *testing.T) {
	f := newFixture(t, withConfig(func(c *classifiers.Config) { c.CategorizeWorkers = 3 }))
	ctx := context.Background()
	c := create(t, f, "")

	_, err := f.sys.Learn(ctx, c.ID, batch(t, []any{
		learnItem("red apple", "fruit"),
		learnItem("green car", "vehicle"),
	}))
	require.NoError(t, err)

	var items []any
	for i := range 25 {
		items = append(items, textItem(fmt.Sprintf("item %d apple", i)))
	}

	results, err := f.sys.Categorize(ctx, c.ID, batch(t, items))
	require.NoError(t, err)
	require.Len(t, results, 25)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("item %d apple", i), r.Text)
	}
	assert.Equal(t, 25.0, counter(t, f, "verdict_categorize_total", nil))
}

func TestCategorizeEngineFault(t *testing.T) {
	engines := &faultyFactory{Factory: engine.NewFactory(), failCateg: 3}
	f := newFixture(t, withEngines(engines))
	ctx := context.Background()
	c := create(t, f, "")

	_, err := f.sys.Learn(ctx, c.ID, batch(t, learnItem("red apple", "fruit")))
	require.NoError(t, err)

	var items []any
	for i := range 5 {
		items = append(items, textItem(fmt.Sprintf("apple %d", i)))
	}

	results, err := f.sys.Categorize(ctx, c.ID, batch(t, items))
	require.ErrorIs(t, err, classifiers.ErrEngineFault)
	assert.Nil(t, results)

	assert.Equal(t, 1.0, counter(t, f, "verdict_batch_failures_total", map[string]string{
		"operation": "categorize",
		"reason":    "engine",
	}))
	assert.Equal(t, 0.0, counter(t, f, "verdict_categorize_total", nil))

	found, err := f.sys.Find(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.Version)
}

func TestCategorizeChecksTrainingBeforeItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := create(t, f, "")

	_, err := f.sys.Categorize(ctx, c.ID, batch(t, map[string]int{"text": 1}))
	assert.ErrorIs(t, err, classifiers.ErrNotTrained)
}

func TestCategorizeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := create(t, f, "")

	_, err := f.sys.Learn(ctx, c.ID, batch(t, learnItem("x", "a")))
	require.NoError(t, err)

	_, err = f.sys.Categorize(ctx, c.ID, batch(t, []any{textItem("ok"), map[string]string{}}))
	require.ErrorIs(t, err, classifiers.ErrValidation)
	assert.Contains(t, err.Error(), "item 1")
}

func TestRename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := create(t, f, "before")

	name := "after"
	renamed, err := f.sys.Rename(ctx, c.ID, classifiers.RenameCommand{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "after", renamed.Name)
	assert.Equal(t, int64(2), renamed.Version)
	assert.JSONEq(t, string(c.State), string(renamed.State))

	_, err = f.sys.Rename(ctx, c.ID, classifiers.RenameCommand{})
	assert.ErrorIs(t, err, classifiers.ErrValidation)

	_, err = f.sys.Rename(ctx, randomID(), classifiers.RenameCommand{Name: &name})
	assert.ErrorIs(t, err, classifiers.ErrNotFound)
}

func TestListAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := create(t, f, "first")
	time.Sleep(time.Millisecond)
	second := create(t, f, "second")

	items, err := f.sys.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)

	require.NoError(t, f.sys.Delete(ctx, first.ID))
	require.NoError(t, f.sys.Delete(ctx, first.ID))

	_, err = f.sys.Find(ctx, first.ID)
	assert.ErrorIs(t, err, classifiers.ErrNotFound)

	items, err = f.sys.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestArchivesDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := create(t, f, "")

	_, err := f.sys.Archive(ctx, c.ID)
	assert.ErrorIs(t, err, classifiers.ErrStorageDisabled)

	_, err = f.sys.Archives(ctx, c.ID)
	assert.ErrorIs(t, err, classifiers.ErrStorageDisabled)

	key := "archives/" + c.ID.String() + "/1.json"
	_, err = f.sys.RestoreArchive(ctx, c.ID, classifiers.RestoreCommand{Key: &key})
	assert.ErrorIs(t, err, classifiers.ErrStorageDisabled)
}

func TestArchiveAndRestore(t *testing.T) {
	f := newFixture(t, withArchives())
	ctx := context.Background()
	c := create(t, f, "")

	_, err := f.sys.Learn(ctx, c.ID, batch(t, learnItem("first", "a")))
	require.NoError(t, err)

	archive, err := f.sys.Archive(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, archive.ClassifierID)
	assert.Positive(t, archive.Size)

	_, err = f.sys.Learn(ctx, c.ID, batch(t, learnItem("second", "b")))
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	_, err = f.sys.Archive(ctx, c.ID)
	require.NoError(t, err)

	archives, err := f.sys.Archives(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, archives, 2)
	assert.True(t, archives[0].CreatedAt.After(archives[1].CreatedAt))
	assert.Equal(t, archive.Key, archives[1].Key)

	restored, err := f.sys.RestoreArchive(ctx, c.ID, classifiers.RestoreCommand{Key: &archive.Key})
	require.NoError(t, err)
	assert.Equal(t, 1, totalDocuments(t, restored))
	assert.Equal(t, int64(4), restored.Version)
}

func TestRestoreArchiveRejections(t *testing.T) {
	f := newFixture(t, withArchives())
	ctx := context.Background()
	c := create(t, f, "")
	other := create(t, f, "")

	otherArchive, err := f.sys.Archive(ctx, other.ID)
	require.NoError(t, err)

	missing := "archives/" + c.ID.String() + "/42.json"
	corrupt := "archives/" + c.ID.String() + "/43.json"
	f.blobs.put(corrupt, []byte(`{"_id":"`+c.ID.String()+`","classifier":{"totalNumberOfDocuments":-1}}`))

	tests := []struct {
		name string
		key  string
		want error
	}{
		{"foreign key", otherArchive.Key, classifiers.ErrValidation},
		{"missing archive", missing, classifiers.ErrArchiveNotFound},
		{"corrupt archive", corrupt, classifiers.ErrCorruptState},
		{"empty key", "", classifiers.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := tt.key
			_, err := f.sys.RestoreArchive(ctx, c.ID, classifiers.RestoreCommand{Key: &key})
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}
