package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/inquir-search/search-engine/document"
	"github.com/inquir-search/search-engine/mapping"
)

const (
	maxAutoFacetDistinct = 50
	maxAutoFacetValueLen = 100
	autoFacetTopValues   = 20
	autoFacetSampleMin   = 0.5
)

// computeFacets counts distinct string values per configured facet
// field across the result set. Buckets are ordered by count
// descending, ties by key ascending, and limited to size per field
// (default 10 buckets).
func computeFacets(repo *document.Repository, seqs []uint32, facetFields []string, sizes map[string]int) map[string]AggResult {
	out := make(map[string]AggResult, len(facetFields))
	for _, field := range facetFields {
		counts := make(map[string]int)
		var order []string
		for _, seq := range seqs {
			id, ok := repo.IDOf(seq)
			if !ok {
				continue
			}
			rec, ok := repo.Get(id)
			if !ok {
				continue
			}
			val, ok := rec.Fields[field]
			if !ok {
				continue
			}
			key := fmt.Sprint(val)
			if _, seen := counts[key]; !seen {
				order = append(order, key)
			}
			counts[key]++
		}
		sort.Slice(order, func(i, j int) bool {
			if counts[order[i]] != counts[order[j]] {
				return counts[order[i]] > counts[order[j]]
			}
			return order[i] < order[j]
		})
		size := sizes[field]
		if size <= 0 {
			size = 10
		}
		if len(order) > size {
			order = order[:size]
		}
		buckets := make([]Bucket, 0, len(order))
		for _, key := range order {
			buckets = append(buckets, Bucket{Key: key, DocCount: counts[key]})
		}
		out[field] = AggResult{Buckets: buckets}
	}
	return out
}

// autoDiscoverFacets samples live documents and returns the fields
// eligible for auto-faceting per spec.md §4.5's heuristic: reserved
// names skipped, ≥50% of sampled non-null values short strings, and
// at most 50 distinct values.
func autoDiscoverFacets(repo *document.Repository, mappings *mapping.Mappings) []string {
	reserved := map[string]bool{"id": true, "indexName": true, "_score": true}
	fields := mappings.Fields()

	var eligible []string
	snap := repo.Snapshot()
	for _, field := range fields {
		if reserved[field] {
			continue
		}
		sampled, shortStrings := 0, 0
		distinct := make(map[string]struct{})
		for _, rec := range snap {
			val, ok := rec.Fields[field]
			if !ok || val == nil {
				continue
			}
			sampled++
			s := fmt.Sprint(val)
			distinct[s] = struct{}{}
			if len(s) <= maxAutoFacetValueLen && !strings.ContainsAny(s, "\n\t") {
				shortStrings++
			}
		}
		if sampled == 0 {
			continue
		}
		if float64(shortStrings)/float64(sampled) >= autoFacetSampleMin && len(distinct) <= maxAutoFacetDistinct {
			eligible = append(eligible, field)
		}
	}
	sort.Strings(eligible)
	return eligible
}
