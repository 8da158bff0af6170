package bayes

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into the tokens a Classifier counts.
type Tokenizer func(text string) []string

// Tokenize lowercases text and splits it on every rune that is neither a letter nor a digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func frequencyTable(tokens []string) map[string]int {
	table := make(map[string]int, len(tokens))
	for _, t := range tokens {
		table[t]++
	}
	return table
}
