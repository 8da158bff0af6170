package classifiers

import (
	"context"

	"github.com/google/uuid"
)

// System defines the public contract for classifier domain operations.
type System interface {
	Handler() *Handler

	List(ctx context.Context) ([]Summary, error)
	Create(ctx context.Context, cmd CreateCommand) (*Classifier, error)
	Find(ctx context.Context, id uuid.UUID) (*Classifier, error)
	Rename(ctx context.Context, id uuid.UUID, cmd RenameCommand) (*Classifier, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Learn validates the whole batch, applies it in order to a private engine,
	// and persists once. It returns the per-category document counts.
	Learn(ctx context.Context, id uuid.UUID, batch Batch) (map[string]int, error)
	// Categorize labels every item of the batch in input order without persisting.
	Categorize(ctx context.Context, id uuid.UUID, batch Batch) ([]Categorization, error)

	Archive(ctx context.Context, id uuid.UUID) (*Archive, error)
	Archives(ctx context.Context, id uuid.UUID) ([]Archive, error)
	RestoreArchive(ctx context.Context, id uuid.UUID, cmd RestoreCommand) (*Classifier, error)
}
