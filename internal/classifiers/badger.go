package classifiers

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const keyPrefix = "classifier/"

type badgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a Store that keeps each record as JSON under classifier/<id>.
func NewBadgerStore(db *badger.DB) Store {
	return &badgerStore{db: db}
}

func recordKey(id uuid.UUID) []byte {
	return []byte(keyPrefix + id.String())
}

func (s *badgerStore) Insert(ctx context.Context, c Classifier) (Classifier, error) {
	if err := ctx.Err(); err != nil {
		return Classifier{}, err
	}

	data, err := json.Marshal(c)
	if err != nil {
		return Classifier{}, persistError(fmt.Errorf("marshal classifier: %w", err))
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(recordKey(c.ID))
		if err == nil {
			return ErrDuplicate
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(recordKey(c.ID), data)
	})
	if err != nil {
		return Classifier{}, persistError(badgerError(err))
	}
	return c, nil
}

func (s *badgerStore) Find(ctx context.Context, id uuid.UUID) (Classifier, error) {
	if err := ctx.Err(); err != nil {
		return Classifier{}, err
	}

	var c Classifier
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		c, err = readRecord(txn, id)
		return err
	})
	if err != nil {
		return Classifier{}, persistError(badgerError(err))
	}
	return c, nil
}

func (s *badgerStore) FindAll(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := make([]Summary, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var c Classifier
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			items = append(items, c.summary())
		}
		return nil
	})
	if err != nil {
		return nil, persistError(err)
	}

	slices.SortFunc(items, func(a, b Summary) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return items, nil
}

func (s *badgerStore) Update(ctx context.Context, c Classifier) (Classifier, error) {
	if err := ctx.Err(); err != nil {
		return Classifier{}, err
	}

	var updated Classifier
	err := s.db.Update(func(txn *badger.Txn) error {
		current, err := readRecord(txn, c.ID)
		if err != nil {
			return err
		}
		if current.Version != c.Version {
			return ErrConflict
		}

		updated = current
		updated.Name = c.Name
		updated.State = c.State
		updated.Version = current.Version + 1

		data, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("marshal classifier: %w", err)
		}
		return txn.Set(recordKey(c.ID), data)
	})
	if err != nil {
		return Classifier{}, persistError(badgerError(err))
	}
	return updated, nil
}

func (s *badgerStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(id))
	})
	if err != nil {
		return persistError(badgerError(err))
	}
	return nil
}

func readRecord(txn *badger.Txn, id uuid.UUID) (Classifier, error) {
	var c Classifier

	item, err := txn.Get(recordKey(id))
	if err != nil {
		return c, err
	}

	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &c)
	})
	if err != nil {
		return c, fmt.Errorf("decode classifier %s: %w", id, err)
	}
	return c, nil
}

func badgerError(err error) error {
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return ErrNotFound
	case errors.Is(err, badger.ErrConflict):
		return ErrConflict
	default:
		return err
	}
}
