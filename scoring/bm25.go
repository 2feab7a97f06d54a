// Package scoring implements the BM25 document-relevance model
// (spec.md §4.4).
package scoring

import (
	"math"

	"github.com/inquir-search/search-engine/ftserr"
)

// BM25 holds the corpus-wide statistics and tuning constants needed to
// score a (term, document) pair.
type BM25 struct {
	K1 float64
	B  float64

	totalDocs  int
	avgDocLen  float64
}

// New constructs a BM25 scorer with the spec defaults (k1=1.2, b=0.75).
// It fails at construction with ftserr.ErrInvalidParameter if avgDocLen
// is negative. Zero is itself a meaningful k1/b value (degenerate
// binary/IDF model, or no length normalization) reachable via
// NewWithParams, not through this constructor's defaults.
func New(totalDocs int, avgDocLen float64) (*BM25, error) {
	return NewWithParams(totalDocs, avgDocLen, 1.2, 0.75)
}

// NewWithParams constructs a BM25 scorer with explicit k1/b, allowing
// the caller to pass 0 for either (valid edge cases per spec.md §4.4).
func NewWithParams(totalDocs int, avgDocLen, k1, b float64) (*BM25, error) {
	if avgDocLen < 0 {
		return nil, ftserr.ErrInvalidParameter
	}
	return &BM25{K1: k1, B: b, totalDocs: totalDocs, avgDocLen: avgDocLen}, nil
}

// Score computes BM25 score(t, d) given the document frequency df of the
// term, its term frequency tf in document d, and d's length docLen.
// Guaranteed edge-case outputs: tf<=0, df==0, docLen==0, N==0, or
// avgDocLen==0 all yield 0.
func (s *BM25) Score(tf int, df int, docLen int) float64 {
	if tf <= 0 || df == 0 || docLen == 0 || s.totalDocs == 0 || s.avgDocLen == 0 {
		return 0
	}

	idfVal := math.Log((float64(s.totalDocs-df)+0.5)/(float64(df)+0.5) + 1)
	norm := (1 - s.B) + s.B*(float64(docLen)/s.avgDocLen)
	tff := float64(tf)
	return idfVal * (tff * (s.K1 + 1) / (tff + s.K1*norm))
}

// TotalDocs returns the configured corpus size N.
func (s *BM25) TotalDocs() int { return s.totalDocs }

// AvgDocLength returns the configured average document length.
func (s *BM25) AvgDocLength() float64 { return s.avgDocLen }
