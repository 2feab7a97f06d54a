// Package query parses and evaluates the tagged query tree of
// spec.md §6 against a single index's postings, repository, and
// mappings, producing BM25-ranked, paginated, facet-aggregated
// results (spec.md §4.5).
package query

// Query is the tagged-variant query node. Exactly one field should be
// non-nil; Evaluate dispatches on whichever is set, preferring the
// first match in declaration order if more than one is populated.
// This mirrors the closed tagged-union shape of spec.md §6 as a plain
// JSON-friendly struct rather than an interface, so a Bool clause's
// children round-trip through encoding/json without a custom
// UnmarshalJSON.
type Query struct {
	MatchAll    *MatchAllQuery    `json:"match_all,omitempty"`
	Match       *MatchQuery       `json:"match,omitempty"`
	Term        *TermQuery        `json:"term,omitempty"`
	Prefix      *PrefixQuery      `json:"prefix,omitempty"`
	Wildcard    *WildcardQuery    `json:"wildcard,omitempty"`
	Fuzzy       *FuzzyQuery       `json:"fuzzy,omitempty"`
	MatchPhrase *MatchPhraseQuery `json:"match_phrase,omitempty"`
	Range       *RangeQuery       `json:"range,omitempty"`
	GeoDistance *GeoDistanceQuery `json:"geo_distance,omitempty"`
	Bool        *BoolQuery        `json:"bool,omitempty"`
}

// MatchAllQuery matches every document in the index.
type MatchAllQuery struct{}

// MatchQuery tokenizes Value with the analyzer implied by Field's
// type and requires all resulting tokens to be present (AND) unless
// Operator is "or". Field "*" expands to every text-like field.
type MatchQuery struct {
	Field    string  `json:"field"`
	Value    string  `json:"value"`
	Operator string  `json:"operator,omitempty"`
	Boost    float64 `json:"boost,omitempty"`
}

// TermQuery looks Value (trimmed, not tokenized or lowercased) up as a
// single indexed token of Field. For keyword fields this is equality
// with the stored value; for analyzed fields it matches one token of
// the analyzed text, not the whole stored value.
type TermQuery struct {
	Field string  `json:"field"`
	Value string  `json:"value"`
	Boost float64 `json:"boost,omitempty"`
}

// PrefixQuery tokenizes Value with Field's analyzer and matches
// documents with an indexed token in Field starting with that token.
// When Value yields several tokens, each must be a prefix of
// consecutive indexed tokens in the same document.
type PrefixQuery struct {
	Field string  `json:"field"`
	Value string  `json:"value"`
	Boost float64 `json:"boost,omitempty"`
}

// WildcardQuery matches the stored value of Field against Value,
// where Value is a glob pattern (`*` any run, `?` any rune).
type WildcardQuery struct {
	Field string  `json:"field"`
	Value string  `json:"value"`
	Boost float64 `json:"boost,omitempty"`
}

// FuzzyQuery matches documents with a token in Field within
// Fuzziness Levenshtein edit distance of Value. Fuzziness defaults to
// 2 when unset (zero value).
type FuzzyQuery struct {
	Field     string  `json:"field"`
	Value     string  `json:"value"`
	Fuzziness int     `json:"fuzziness,omitempty"`
	Boost     float64 `json:"boost,omitempty"`
}

// MatchPhraseQuery requires Value's tokens to appear in consecutive
// ascending positions within Field in the same document.
type MatchPhraseQuery struct {
	Field string  `json:"field"`
	Value string  `json:"value"`
	Boost float64 `json:"boost,omitempty"`
}

// RangeQuery bounds the stored numeric value of Field. A nil bound is
// unconstrained on that side.
type RangeQuery struct {
	Field string   `json:"field"`
	GTE   *float64 `json:"gte,omitempty"`
	LTE   *float64 `json:"lte,omitempty"`
	GT    *float64 `json:"gt,omitempty"`
	LT    *float64 `json:"lt,omitempty"`
}

// GeoDistanceQuery matches documents whose geo_point Field lies
// within DistanceKM of Center (lat, lon).
type GeoDistanceQuery struct {
	Field      string     `json:"field"`
	Center     [2]float64 `json:"center"`
	DistanceKM float64    `json:"distance"`
}

// BoolQuery composes sub-clauses per spec.md §4.5: Must intersects
// and scores, Should unions and scores (gated by
// MinimumShouldMatch), MustNot subtracts without affecting score,
// Filter intersects without affecting score.
type BoolQuery struct {
	Must               []Query `json:"must,omitempty"`
	Should             []Query `json:"should,omitempty"`
	MustNot            []Query `json:"must_not,omitempty"`
	Filter             []Query `json:"filter,omitempty"`
	MinimumShouldMatch *int    `json:"minimum_should_match,omitempty"`
}

// Context carries the non-query parameters of a Search operation:
// pagination and requested aggregations.
type Context struct {
	From         int                    `json:"from,omitempty"`
	Size         int                    `json:"size,omitempty"`
	HasSize      bool                   `json:"hasSize,omitempty"`
	Aggregations map[string]Aggregation `json:"aggregations,omitempty"`
}

// Aggregation is a requested terms or range aggregation over a field.
type Aggregation struct {
	Terms *TermsAgg `json:"terms,omitempty"`
	Range *RangeAgg `json:"range,omitempty"`
}

// TermsAgg buckets Field's distinct string values by count, limited
// to Size buckets (default 10).
type TermsAgg struct {
	Field string `json:"field"`
	Size  int    `json:"size,omitempty"`
}

// RangeAgg buckets Field's numeric values into the given Ranges.
type RangeAgg struct {
	Field  string           `json:"field"`
	Ranges []AggRangeBucket `json:"ranges"`
}

// AggRangeBucket is one bound pair of a range aggregation; a nil bound
// is unconstrained.
type AggRangeBucket struct {
	From *float64 `json:"from,omitempty"`
	To   *float64 `json:"to,omitempty"`
}

// Bucket is one terms- or range-aggregation result bucket.
type Bucket struct {
	Key      string   `json:"key"`
	From     *float64 `json:"from,omitempty"`
	To       *float64 `json:"to,omitempty"`
	DocCount int      `json:"doc_count"`
}

// AggResult is the result of one named aggregation.
type AggResult struct {
	Buckets []Bucket `json:"buckets"`
}

// Hit is one scored result document.
type Hit struct {
	Fields map[string]any `json:"fields"`
	Score  float64        `json:"_score"`
	seq    uint32
}

// Result is the shape returned by Search, per spec.md §6.
type Result struct {
	Hits         []Hit                `json:"hits"`
	Total        int                  `json:"total"`
	From         int                  `json:"from"`
	Size         int                  `json:"size"`
	Aggregations map[string]AggResult `json:"aggregations,omitempty"`
	Facets       map[string]AggResult `json:"facets,omitempty"`
}
