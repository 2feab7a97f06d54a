// Package searchengine composes the tokenizer, mappings, sharded
// inverted index, document repository, and query evaluator into one
// per-index SearchEngine, the aggregate of spec.md §3/§4's "Index".
package searchengine

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/inquir-search/search-engine/analyzer"
	"github.com/inquir-search/search-engine/document"
	"github.com/inquir-search/search-engine/ftserr"
	"github.com/inquir-search/search-engine/mapping"
	"github.com/inquir-search/search-engine/postings"
	"github.com/inquir-search/search-engine/query"
	"github.com/inquir-search/search-engine/scoring"
)

// Config configures a new SearchEngine.
type Config struct {
	NumShards   int
	FacetFields []string
	Logger      zerolog.Logger
}

// DefaultConfig returns the baseline single-shard configuration.
func DefaultConfig() Config {
	return Config{NumShards: 1, Logger: zerolog.Nop()}
}

// SearchEngine is the per-index aggregate: mappings, tokenizer,
// sharded inverted index, document repository, facet fields, and the
// derived statistics BM25 needs (spec.md §3 "Index (SearchEngine)").
type SearchEngine struct {
	mu sync.RWMutex

	name        string
	mappings    *mapping.Mappings
	tokenizer   *analyzer.Tokenizer
	index       *postings.ShardedInvertedIndex
	repo        *document.Repository
	facetFields []string
	log         zerolog.Logger
}

// New constructs a SearchEngine named name with the given config.
func New(name string, cfg Config) *SearchEngine {
	if cfg.NumShards < 1 {
		cfg.NumShards = 1
	}
	logger := cfg.Logger
	return &SearchEngine{
		name:        name,
		mappings:    mapping.New(),
		tokenizer:   analyzer.New(analyzer.NewStopwords()),
		index:       postings.New(cfg.NumShards),
		repo:        document.NewRepository(),
		facetFields: cfg.FacetFields,
		log:         logger,
	}
}

// Name returns the index's name.
func (se *SearchEngine) Name() string { return se.name }

// AddResult reports the outcome of a single document's AddDocuments
// call (spec.md §7 Duplicate policy: re-adding an existing id is not
// an error, it just reports wasAdded=false).
type AddResult struct {
	ID       string
	WasAdded bool
}

// AddDocuments validates, tokenizes, and indexes each document,
// auto-extending Mappings for unknown fields. Documents missing a
// non-empty "id" are rejected with ftserr.ErrInvalidDocument; the
// batch otherwise proceeds document-by-document.
func (se *SearchEngine) AddDocuments(docs []map[string]any) ([]AddResult, error) {
	se.mu.Lock()
	defer se.mu.Unlock()

	results := make([]AddResult, 0, len(docs))
	for _, doc := range docs {
		idVal, ok := doc["id"]
		if !ok {
			return results, fmt.Errorf("document missing id: %w", ftserr.ErrInvalidDocument)
		}
		id, ok := idVal.(string)
		if !ok || id == "" {
			return results, fmt.Errorf("document id must be a non-empty string: %w", ftserr.ErrInvalidDocument)
		}

		_, existed := se.repo.Get(id)

		se.mappings.AutoExtend(doc)
		length := se.indexDocument(id, doc)
		se.repo.Save(id, doc, length)

		se.log.Debug().Str("index", se.name).Str("docId", id).Int("length", length).Msg("document indexed")
		results = append(results, AddResult{ID: id, WasAdded: !existed})
	}
	return results, nil
}

// indexDocument tokenizes every string-valued top-level field of doc
// (other than id and indexName) with the analyzer for its mapped type,
// and writes its tokens into the sharded inverted index, returning the document's
// total token length across indexed fields.
func (se *SearchEngine) indexDocument(id string, doc map[string]any) int {
	// Replacing an existing document must not leave stale postings
	// behind: delete first, then re-add from scratch.
	se.index.DeleteDocument(id)

	length := 0
	for field, val := range doc {
		if field == "id" || field == "indexName" {
			continue
		}
		s, ok := val.(string)
		if !ok {
			continue
		}
		ft, _ := se.mappings.Get(field)
		tokens := se.tokenizer.Tokenize(s, analyzerFor(ft))
		for pos, tok := range tokens {
			se.index.AddToken(field+":"+tok, id, int32(pos))
		}
		length += len(tokens)
	}
	return length
}

func analyzerFor(ft mapping.FieldType) analyzer.Analyzer {
	switch ft {
	case mapping.Keyword:
		return analyzer.Keyword
	case mapping.EmailT:
		return analyzer.Email
	case mapping.URLT:
		return analyzer.URL
	case mapping.PhoneT:
		return analyzer.Phone
	default:
		return analyzer.Standard
	}
}

// DeleteDocument removes id from the repository and every posting it
// appears in. Deleting an unknown id reports ftserr.ErrNotFound.
func (se *SearchEngine) DeleteDocument(id string) error {
	se.mu.Lock()
	defer se.mu.Unlock()

	if _, ok := se.repo.Delete(id); !ok {
		return fmt.Errorf("document %q: %w", id, ftserr.ErrNotFound)
	}
	se.index.DeleteDocument(id)
	se.log.Debug().Str("index", se.name).Str("docId", id).Msg("document deleted")
	return nil
}

// Search evaluates q with the given pagination/aggregation context
// and returns a scored, paginated, facet-aggregated result.
func (se *SearchEngine) Search(q query.Query, ctx query.Context) (*query.Result, error) {
	se.mu.RLock()
	defer se.mu.RUnlock()

	scorer, err := scoring.New(se.repo.Count(), se.repo.AvgLength())
	if err != nil {
		return nil, err
	}
	eval := query.NewEvaluator(se.repo, se.index, se.mappings, se.tokenizer, scorer)
	return query.Search(eval, se.repo, se.mappings, q, ctx, se.facetFields)
}

// Stats is the shape returned by GetStats (SPEC_FULL.md).
type Stats struct {
	IndexName       string   `json:"indexName"`
	TotalDocs       int      `json:"totalDocs"`
	AvgDocLength    float64  `json:"avgDocLength"`
	NumShards       int      `json:"numShards"`
	MappingsVersion int      `json:"mappingsVersion"`
	FacetFields     []string `json:"facetFields"`
}

// Stats returns the current index statistics.
func (se *SearchEngine) Stats() Stats {
	se.mu.RLock()
	defer se.mu.RUnlock()
	return Stats{
		IndexName:       se.name,
		TotalDocs:       se.repo.Count(),
		AvgDocLength:    se.repo.AvgLength(),
		NumShards:       se.index.NumShards(),
		MappingsVersion: se.mappings.Version(),
		FacetFields:     se.facetFields,
	}
}

// Mappings exposes the index's field-type registry.
func (se *SearchEngine) Mappings() *mapping.Mappings { return se.mappings }

// Repository exposes the document repository (used by persistence).
func (se *SearchEngine) Repository() *document.Repository { return se.repo }

// Index exposes the sharded inverted index (used by persistence).
func (se *SearchEngine) Index() *postings.ShardedInvertedIndex { return se.index }

// FacetFields exposes the index's configured facet field list (used
// by persistence to round-trip it through global-metadata.json).
func (se *SearchEngine) FacetFields() []string {
	se.mu.RLock()
	defer se.mu.RUnlock()
	return se.facetFields
}
