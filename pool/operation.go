package pool

import (
	"github.com/inquir-search/search-engine/query"
	"github.com/inquir-search/search-engine/searchengine"
)

// Request is the tagged Operation of spec.md §6. Exactly one field
// should be populated; Submit dispatches on whichever is set. JSON tags
// let this double as the cmd/ftsctl wire envelope without a separate
// translation type.
type Request struct {
	InitEngine     *InitEngineOp     `json:"initEngine,omitempty"`
	InitFromSnap   *InitFromSnapOp   `json:"initFromSnap,omitempty"`
	AddDocuments   *AddDocumentsOp   `json:"addDocuments,omitempty"`
	DeleteDocument *DeleteDocumentOp `json:"deleteDocument,omitempty"`
	Search         *SearchOp         `json:"search,omitempty"`
	GetFacets      *GetFacetsOp      `json:"getFacets,omitempty"`
	GetStats       *GetStatsOp       `json:"getStats,omitempty"`
	Flush          *FlushOp          `json:"flush,omitempty"`
	DeleteIndex    *DeleteIndexOp    `json:"deleteIndex,omitempty"`
	ListIndices    *ListIndicesOp    `json:"listIndices,omitempty"`
}

// InitEngineOp creates an index if it does not already exist.
type InitEngineOp struct {
	IndexName   string   `json:"indexName"`
	NumShards   int      `json:"numShards,omitempty"`
	FacetFields []string `json:"facetFields,omitempty"`
}

// InitFromSnapOp creates an index and restores it from a previously
// captured snapshot. Not reachable over the stdin/stdout wire (the
// snapshot is a live Go value, not JSON); it exists for in-process
// callers such as the persistence loader.
type InitFromSnapOp struct {
	IndexName   string                     `json:"indexName"`
	Snapshot    *searchengine.SearchEngine `json:"-"`
	FacetFields []string                   `json:"facetFields,omitempty"`
}

// AddDocumentsOp submits a batch of documents for ingestion.
type AddDocumentsOp struct {
	IndexName string           `json:"indexName"`
	Documents []map[string]any `json:"documents"`
}

// DeleteDocumentOp removes a single document by id.
type DeleteDocumentOp struct {
	IndexName string `json:"indexName"`
	DocID     string `json:"docId"`
}

// SearchOp runs a query against an index.
type SearchOp struct {
	IndexName string        `json:"indexName"`
	Query     query.Query   `json:"query"`
	Context   query.Context `json:"context"`
}

// GetFacetsOp requests the current facet configuration/results for an
// index's full document set.
type GetFacetsOp struct {
	IndexName string `json:"indexName"`
}

// GetStatsOp requests index statistics.
type GetStatsOp struct {
	IndexName string `json:"indexName"`
}

// FlushOp requests an immediate (non-throttled) snapshot.
type FlushOp struct {
	IndexName string `json:"indexName"`
}

// DeleteIndexOp tears down an entire index.
type DeleteIndexOp struct {
	IndexName string `json:"indexName"`
}

// ListIndicesOp requests the set of known index names.
type ListIndicesOp struct{}

// Result is the outcome of a dispatched Request.
type Result struct {
	AddResults []searchengine.AddResult `json:"addResults,omitempty"`
	Search     *query.Result            `json:"search,omitempty"`
	Facets     *query.Result            `json:"facets,omitempty"`
	Stats      *searchengine.Stats      `json:"stats,omitempty"`
	Indices    []string                 `json:"indices,omitempty"`
}
