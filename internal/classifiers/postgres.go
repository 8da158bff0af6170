package classifiers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/verdict/pkg/query"
	"github.com/JaimeStill/verdict/pkg/repository"
)

type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Store backed by the classifiers table.
func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) Insert(ctx context.Context, c Classifier) (Classifier, error) {
	q := fmt.Sprintf(`
		INSERT INTO public.classifiers (id, name, created_at, version, state)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, projection.Returning())

	args := []any{c.ID, c.Name, c.CreatedAt, c.Version, []byte(c.State)}

	created, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (Classifier, error) {
		return repository.QueryOne(ctx, tx, q, args, scanClassifier)
	})
	if err != nil {
		return Classifier{}, persistError(repository.MapError(err, ErrNotFound, ErrDuplicate))
	}
	return created, nil
}

func (s *postgresStore) Find(ctx context.Context, id uuid.UUID) (Classifier, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, s.db, q, args, scanClassifier)
	if err != nil {
		return Classifier{}, persistError(repository.MapError(err, ErrNotFound, ErrDuplicate))
	}
	return c, nil
}

func (s *postgresStore) FindAll(ctx context.Context) ([]Summary, error) {
	q, args := query.NewBuilder(summaryProjection, defaultSort...).Build()

	items, err := repository.QueryMany(ctx, s.db, q, args, scanSummary)
	if err != nil {
		return nil, persistError(fmt.Errorf("query classifiers: %w", err))
	}
	return items, nil
}

func (s *postgresStore) Update(ctx context.Context, c Classifier) (Classifier, error) {
	q := fmt.Sprintf(`
		UPDATE public.classifiers
		SET name = $3, state = $4, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING %s`, projection.Returning())

	args := []any{c.ID, c.Version, c.Name, []byte(c.State)}

	updated, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (Classifier, error) {
		u, err := repository.QueryOne(ctx, tx, q, args, scanClassifier)
		if !errors.Is(err, sql.ErrNoRows) {
			return u, err
		}

		eq, eargs := query.NewBuilder(projection).WhereEquals("ID", c.ID).BuildExists()
		exists, err := repository.Exists(ctx, tx, eq, eargs)
		if err != nil {
			return u, fmt.Errorf("check classifier %s: %w", c.ID, err)
		}
		if exists {
			return u, ErrConflict
		}
		return u, ErrNotFound
	})
	if err != nil {
		if repository.IsSerializationFailure(err) {
			return Classifier{}, ErrConflict
		}
		return Classifier{}, persistError(err)
	}
	return updated, nil
}

func (s *postgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM public.classifiers WHERE id = $1`, id)
	if err != nil {
		return persistError(fmt.Errorf("delete classifier %s: %w", id, err))
	}
	return nil
}

// persistError wraps store failures that are not domain outcomes in ErrPersistFault.
func persistError(err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistFault, err)
}
