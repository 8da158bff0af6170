// Package engine adapts the naive Bayes classifier to the opaque
// learn/categorize/snapshot/restore capability the classifier domain depends on.
// Snapshots cross this boundary as raw JSON so callers never interpret them.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JaimeStill/verdict/pkg/bayes"
)

var (
	// ErrEngineFault indicates the classification algorithm could not process an operation.
	ErrEngineFault = errors.New("classification engine failed")
	// ErrCorruptState indicates a snapshot that cannot be restored into an engine.
	ErrCorruptState = errors.New("classifier state is corrupt")
)

// Result is the category distribution computed for one text.
type Result struct {
	Category    string
	Probability float64
	Categories  map[string]float64
}

// Engine is a live, request-private classification model.
type Engine interface {
	Learn(text, category string) error
	Categorize(text string) (Result, error)
	Snapshot() (json.RawMessage, error)
	TotalDocuments() int
	DocumentCounts() map[string]int
}

// Factory creates fresh engines and rehydrates them from snapshots.
type Factory interface {
	Create() (Engine, error)
	Restore(state json.RawMessage) (Engine, error)
}

type factory struct {
	opts []bayes.Option
}

// NewFactory returns a Factory producing naive Bayes engines configured with opts.
func NewFactory(opts ...bayes.Option) Factory {
	return &factory{opts: opts}
}

func (f *factory) Create() (Engine, error) {
	return &naiveBayes{c: bayes.New(f.opts...)}, nil
}

func (f *factory) Restore(state json.RawMessage) (Engine, error) {
	if len(state) == 0 {
		return nil, fmt.Errorf("%w: empty snapshot", ErrCorruptState)
	}

	var s bayes.State
	if err := json.Unmarshal(state, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}

	c, err := bayes.FromState(s, f.opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}

	return &naiveBayes{c: c}, nil
}

type naiveBayes struct {
	c *bayes.Classifier
}

func (e *naiveBayes) Learn(text, category string) error {
	if err := e.c.Learn(text, category); err != nil {
		return fmt.Errorf("%w: %w", ErrEngineFault, err)
	}
	return nil
}

func (e *naiveBayes) Categorize(text string) (Result, error) {
	r, err := e.c.Categorize(text)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrEngineFault, err)
	}

	return Result{
		Category:    r.Category,
		Probability: r.Probability,
		Categories:  r.Categories,
	}, nil
}

func (e *naiveBayes) Snapshot() (json.RawMessage, error) {
	data, err := json.Marshal(e.c.State())
	if err != nil {
		return nil, fmt.Errorf("%w: marshal snapshot: %w", ErrEngineFault, err)
	}
	return data, nil
}

func (e *naiveBayes) TotalDocuments() int {
	return e.c.TotalDocuments()
}

func (e *naiveBayes) DocumentCounts() map[string]int {
	return e.c.DocumentCounts()
}
