package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgDuplicateKeyCode     = "23505"
	pgSerializationFailure = "40001"
)

// MapError translates database errors to domain errors.
// It maps sql.ErrNoRows to notFoundErr and PostgreSQL unique violation (23505)
// to duplicateErr. Other errors are returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	if hasCode(err, pgDuplicateKeyCode) {
		return duplicateErr
	}

	return err
}

// IsSerializationFailure reports whether err is a PostgreSQL serialization
// failure (40001), raised when concurrent transactions touch the same rows.
func IsSerializationFailure(err error) bool {
	return hasCode(err, pgSerializationFailure)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
