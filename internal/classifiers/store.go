package classifiers

import (
	"context"

	"github.com/google/uuid"
)

// Store persists classifier records. Implementations never interpret State and
// never retry; Update succeeds only when the stored version equals c.Version.
type Store interface {
	Insert(ctx context.Context, c Classifier) (Classifier, error)
	Find(ctx context.Context, id uuid.UUID) (Classifier, error)
	// FindAll returns every record ordered by CreatedAt, newest first.
	FindAll(ctx context.Context) ([]Summary, error)
	// Update replaces Name and State and increments Version. It returns
	// ErrNotFound when the record is absent and ErrConflict when the stored
	// version differs from c.Version.
	Update(ctx context.Context, c Classifier) (Classifier, error)
	// Delete removes the record; deleting an absent record is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}
