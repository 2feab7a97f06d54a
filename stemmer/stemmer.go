// Package stemmer provides the pluggable stemming transform that
// spec.md treats as an external collaborator to the tokenizer: THE CORE
// never hard-codes a stemming algorithm, it only defines the extension
// point (analyzer.Stemmer) and offers one concrete, swappable
// implementation.
package stemmer

import "github.com/kljensen/snowball"

// Snowball adapts github.com/kljensen/snowball's multi-language stemmer
// to the analyzer.Stemmer interface.
type Snowball struct {
	Language string // e.g. "english"; NewSnowball maps "" to "english", while an empty Language here makes Stem return terms unchanged
}

// NewSnowball returns a Snowball stemmer for the given language. An empty
// language defaults to English.
func NewSnowball(language string) *Snowball {
	if language == "" {
		language = "english"
	}
	return &Snowball{Language: language}
}

// Stem reduces term to its stem. On any error from the underlying
// library (e.g. an unsupported language) it returns term unchanged,
// consistent with the tokenizer's "fails never" contract.
func (s *Snowball) Stem(term string) string {
	out, err := snowball.Stem(term, s.Language, true)
	if err != nil {
		return term
	}
	return out
}
