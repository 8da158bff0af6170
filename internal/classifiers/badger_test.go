package classifiers_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/verdict/internal/classifiers"
)

func newRecord(name string, created time.Time) classifiers.Classifier {
	return classifiers.Classifier{
		ID:        randomID(),
		Name:      name,
		CreatedAt: created,
		Version:   1,
		State:     json.RawMessage(`{"opaque":true}`),
	}
}

func TestBadgerStoreInsertFind(t *testing.T) {
	store := newBadgerStore(t)
	ctx := context.Background()

	rec := newRecord("a", time.Now().UTC())
	_, err := store.Insert(ctx, rec)
	require.NoError(t, err)

	got, err := store.Find(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Name, got.Name)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
	assert.JSONEq(t, `{"opaque":true}`, string(got.State))

	_, err = store.Insert(ctx, rec)
	assert.ErrorIs(t, err, classifiers.ErrDuplicate)
	assert.ErrorIs(t, err, classifiers.ErrPersistFault)

	_, err = store.Find(ctx, randomID())
	assert.ErrorIs(t, err, classifiers.ErrNotFound)
}

func TestBadgerStoreUpdateVersioning(t *testing.T) {
	store := newBadgerStore(t)
	ctx := context.Background()

	rec := newRecord("a", time.Now().UTC())
	_, err := store.Insert(ctx, rec)
	require.NoError(t, err)

	next := rec
	next.Name = "b"
	next.State = json.RawMessage(`{"opaque":false}`)

	updated, err := store.Update(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "b", updated.Name)
	assert.True(t, rec.CreatedAt.Equal(updated.CreatedAt))

	_, err = store.Update(ctx, next)
	assert.ErrorIs(t, err, classifiers.ErrConflict, "stale version must conflict")

	missing := newRecord("x", time.Now())
	_, err = store.Update(ctx, missing)
	assert.ErrorIs(t, err, classifiers.ErrNotFound)
}

func TestBadgerStoreFindAllOrder(t *testing.T) {
	store := newBadgerStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	old := newRecord("old", base)
	mid := newRecord("mid", base.Add(time.Hour))
	recent := newRecord("recent", base.Add(2*time.Hour))

	for _, r := range []classifiers.Classifier{mid, old, recent} {
		_, err := store.Insert(ctx, r)
		require.NoError(t, err)
	}

	items, err := store.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"recent", "mid", "old"}, []string{items[0].Name, items[1].Name, items[2].Name})
}

func TestBadgerStoreDeleteIdempotent(t *testing.T) {
	store := newBadgerStore(t)
	ctx := context.Background()

	rec := newRecord("a", time.Now().UTC())
	_, err := store.Insert(ctx, rec)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, rec.ID))
	require.NoError(t, store.Delete(ctx, rec.ID))

	_, err = store.Find(ctx, rec.ID)
	assert.ErrorIs(t, err, classifiers.ErrNotFound)
}
