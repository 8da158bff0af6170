package bayes

import (
	"errors"
	"fmt"
	"maps"
)

// ErrInvalidState indicates a State whose counters are inconsistent with one another.
var ErrInvalidState = errors.New("invalid classifier state")

// State is the complete serializable form of a Classifier.
// JSON field names match the documents written by earlier deployments.
type State struct {
	Vocabulary             map[string]bool           `json:"vocabulary"`
	VocabularySize         int                       `json:"vocabularySize"`
	TotalNumberOfDocuments int                       `json:"totalNumberOfDocuments"`
	DocFrequencyCount      map[string]int            `json:"docFrequencyCount"`
	WordCount              map[string]int            `json:"wordCount"`
	WordFrequencyCount     map[string]map[string]int `json:"wordFrequencyCount"`
	Categories             map[string]bool           `json:"categories"`
}

// NewState returns the state of a classifier that has learned nothing.
func NewState() State {
	return State{
		Vocabulary:         make(map[string]bool),
		DocFrequencyCount:  make(map[string]int),
		WordCount:          make(map[string]int),
		WordFrequencyCount: make(map[string]map[string]int),
		Categories:         make(map[string]bool),
	}
}

// Clone returns a deep copy. Nil maps in s become empty maps in the copy.
func (s State) Clone() State {
	c := NewState()
	c.VocabularySize = s.VocabularySize
	c.TotalNumberOfDocuments = s.TotalNumberOfDocuments

	maps.Copy(c.Vocabulary, s.Vocabulary)
	maps.Copy(c.DocFrequencyCount, s.DocFrequencyCount)
	maps.Copy(c.WordCount, s.WordCount)
	maps.Copy(c.Categories, s.Categories)

	for category, freq := range s.WordFrequencyCount {
		c.WordFrequencyCount[category] = maps.Clone(freq)
		if c.WordFrequencyCount[category] == nil {
			c.WordFrequencyCount[category] = make(map[string]int)
		}
	}

	return c
}

// Validate checks that the counters describe a state a Classifier could have produced.
func (s State) Validate() error {
	if s.VocabularySize != len(s.Vocabulary) {
		return fmt.Errorf(
			"%w: vocabularySize %d does not match %d vocabulary entries",
			ErrInvalidState, s.VocabularySize, len(s.Vocabulary),
		)
	}

	if s.TotalNumberOfDocuments < 0 {
		return fmt.Errorf("%w: negative totalNumberOfDocuments", ErrInvalidState)
	}

	docs := 0
	for category, n := range s.DocFrequencyCount {
		if n < 0 {
			return fmt.Errorf("%w: negative document count for %q", ErrInvalidState, category)
		}
		if !s.Categories[category] {
			return fmt.Errorf("%w: document count for unknown category %q", ErrInvalidState, category)
		}
		docs += n
	}

	if docs != s.TotalNumberOfDocuments {
		return fmt.Errorf(
			"%w: totalNumberOfDocuments %d does not match per-category sum %d",
			ErrInvalidState, s.TotalNumberOfDocuments, docs,
		)
	}

	for category, freq := range s.WordFrequencyCount {
		if !s.Categories[category] {
			return fmt.Errorf("%w: word frequencies for unknown category %q", ErrInvalidState, category)
		}

		words := 0
		for token, n := range freq {
			if n < 0 {
				return fmt.Errorf("%w: negative frequency for %q in %q", ErrInvalidState, token, category)
			}
			if !s.Vocabulary[token] {
				return fmt.Errorf("%w: token %q missing from vocabulary", ErrInvalidState, token)
			}
			words += n
		}

		if words != s.WordCount[category] {
			return fmt.Errorf(
				"%w: wordCount %d for %q does not match frequency sum %d",
				ErrInvalidState, s.WordCount[category], category, words,
			)
		}
	}

	for category, n := range s.WordCount {
		if n != 0 && s.WordFrequencyCount[category] == nil {
			return fmt.Errorf("%w: wordCount for %q without frequencies", ErrInvalidState, category)
		}
	}

	return nil
}
