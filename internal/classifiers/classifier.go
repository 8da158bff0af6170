// Package classifiers implements the classifier domain for Verdict.
// It provides the model record, its stores, and the snapshot orchestration that
// restores a private engine for every request, mutates it, and persists it back.
package classifiers

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Classifier is the persisted model record. State is the engine snapshot and is
// opaque to every store; it is replaced wholesale on update.
type Classifier struct {
	ID        uuid.UUID       `json:"_id"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"createdAt"`
	Version   int64           `json:"version"`
	State     json.RawMessage `json:"classifier"`
}

// Summary is the listing projection of a Classifier.
type Summary struct {
	ID        uuid.UUID `json:"_id"`
	CreatedAt time.Time `json:"createdAt"`
	Name      string    `json:"name"`
}

// CreateCommand carries the optional name for a new classifier.
type CreateCommand struct {
	Name string `json:"name"`
}

// RenameCommand carries the replacement name for an existing classifier.
type RenameCommand struct {
	Name *string `json:"name" validate:"required,max=256"`
}

// LearnItem is one labeled training example.
type LearnItem struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// CategorizeItem is one text to label.
type CategorizeItem struct {
	Text string `json:"text"`
}

// Categorization is the result computed for one CategorizeItem.
// Text echoes the input so batch results can be correlated.
type Categorization struct {
	Text        string             `json:"text"`
	Category    string             `json:"category"`
	Probability float64            `json:"probability"`
	Categories  map[string]float64 `json:"categories"`
}

// Archive describes a snapshot of a classifier held in blob storage.
type Archive struct {
	Key          string    `json:"key"`
	ClassifierID uuid.UUID `json:"classifierId"`
	CreatedAt    time.Time `json:"createdAt"`
	Size         int64     `json:"size"`
}

// RestoreCommand names the archive to restore into a classifier.
type RestoreCommand struct {
	Key *string `json:"key" validate:"required,min=1"`
}

func (c Classifier) summary() Summary {
	return Summary{ID: c.ID, CreatedAt: c.CreatedAt, Name: c.Name}
}
