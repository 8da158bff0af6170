// Package bayes implements a multinomial naive Bayes text classifier with
// Laplace smoothing. A Classifier's complete internal state can be captured
// as a State value and rebuilt from it, so models can live in a database
// between uses instead of in process memory.
package bayes

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
)

var (
	// ErrEmptyCategory is returned by Learn when the category is empty.
	ErrEmptyCategory = errors.New("category must not be empty")
	// ErrUntrained is returned by Categorize before any document has been learned.
	ErrUntrained = errors.New("classifier has not learned any documents")
)

// Result is the outcome of categorizing one text.
// Categories holds the normalized probability of every known category.
type Result struct {
	Category    string             `json:"category"`
	Probability float64            `json:"probability"`
	Categories  map[string]float64 `json:"categories"`
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithTokenizer replaces the default Tokenize function.
func WithTokenizer(t Tokenizer) Option {
	return func(c *Classifier) {
		if t != nil {
			c.tokenize = t
		}
	}
}

// Classifier learns token frequencies per category and assigns new text to
// the most probable category. Learn mutates the classifier and must not run
// concurrently with any other method; Categorize only reads and may be called
// from multiple goroutines at once.
type Classifier struct {
	state    State
	tokenize Tokenizer
}

// New creates a Classifier that has learned nothing.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		state:    NewState(),
		tokenize: Tokenize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromState rebuilds a Classifier from a State previously returned by State.
// The state is copied; later changes to s do not affect the classifier.
func FromState(s State, opts ...Option) (*Classifier, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	c := New(opts...)
	c.state = s.Clone()
	return c, nil
}

// State returns a deep copy of the classifier's counters.
func (c *Classifier) State() State {
	return c.state.Clone()
}

// TotalDocuments returns the number of documents learned across all categories.
func (c *Classifier) TotalDocuments() int {
	return c.state.TotalNumberOfDocuments
}

// DocumentCounts returns the number of documents learned per category.
func (c *Classifier) DocumentCounts() map[string]int {
	return maps.Clone(c.state.DocFrequencyCount)
}

// Learn counts the tokens of text under category.
func (c *Classifier) Learn(text, category string) error {
	if category == "" {
		return ErrEmptyCategory
	}

	s := &c.state
	s.Categories[category] = true
	if s.WordFrequencyCount[category] == nil {
		s.WordFrequencyCount[category] = make(map[string]int)
	}

	s.DocFrequencyCount[category]++
	s.TotalNumberOfDocuments++

	for token, n := range frequencyTable(c.tokenize(text)) {
		if !s.Vocabulary[token] {
			s.Vocabulary[token] = true
			s.VocabularySize++
		}
		s.WordFrequencyCount[category][token] += n
		s.WordCount[category] += n
	}

	return nil
}

// Categorize returns the most probable category for text along with the
// normalized probability of every category. Ties resolve to the category
// that sorts first, so identical state and input always give identical output.
func (c *Classifier) Categorize(text string) (Result, error) {
	s := &c.state
	if s.TotalNumberOfDocuments == 0 {
		return Result{}, ErrUntrained
	}

	categories := slices.Sorted(maps.Keys(s.Categories))
	tokens := frequencyTable(c.tokenize(text))

	logs := make(map[string]float64, len(categories))
	best := math.Inf(-1)
	for _, category := range categories {
		l := c.logLikelihood(category, tokens)
		logs[category] = l
		best = max(best, l)
	}

	if math.IsInf(best, -1) || math.IsNaN(best) {
		return Result{}, fmt.Errorf("%w: no category has a finite likelihood", ErrInvalidState)
	}

	var sum float64
	for _, category := range categories {
		sum += math.Exp(logs[category] - best)
	}

	result := Result{
		Categories: make(map[string]float64, len(categories)),
	}
	for _, category := range categories {
		p := math.Exp(logs[category]-best) / sum
		result.Categories[category] = p
		if result.Category == "" || p > result.Probability {
			result.Category = category
			result.Probability = p
		}
	}

	return result, nil
}

func (c *Classifier) logLikelihood(category string, tokens map[string]int) float64 {
	s := &c.state

	prior := float64(s.DocFrequencyCount[category]) / float64(s.TotalNumberOfDocuments)
	l := math.Log(prior)

	denominator := float64(max(s.WordCount[category]+s.VocabularySize, 1))
	freq := s.WordFrequencyCount[category]

	for token, n := range tokens {
		p := float64(freq[token]+1) / denominator
		l += float64(n) * math.Log(p)
	}

	return l
}
