package query

import (
	"sort"

	"github.com/inquir-search/search-engine/document"
	"github.com/inquir-search/search-engine/mapping"
)

const defaultPageSize = 10

// Search evaluates q against the given components and returns a
// paginated, scored, facet-aggregated Result (spec.md §4.5/§6). A nil
// or empty facetFields slice triggers auto-discovery.
func Search(e *Evaluator, repo *document.Repository, mappings *mapping.Mappings, q Query, ctx Context, facetFields []string) (*Result, error) {
	set, err := e.Evaluate(q)
	if err != nil {
		return nil, err
	}

	seqs := set.seqs()
	sort.Slice(seqs, func(i, j int) bool {
		si, sj := set.scores[seqs[i]], set.scores[seqs[j]]
		if si != sj {
			return si > sj
		}
		return seqs[i] < seqs[j]
	})

	total := len(seqs)
	from := ctx.From
	size := ctx.Size
	if !ctx.HasSize {
		size = defaultPageSize
		if q.MatchAll != nil {
			size = total
		}
	}
	if from > total {
		from = total
	}
	end := from + size
	if size < 0 || end > total {
		end = total
	}
	page := seqs[from:end]

	hits := make([]Hit, 0, len(page))
	for _, seq := range page {
		id, ok := repo.IDOf(seq)
		if !ok {
			continue
		}
		rec, ok := repo.Get(id)
		if !ok {
			continue
		}
		hits = append(hits, Hit{Fields: rec.Fields, Score: set.scores[seq], seq: seq})
	}

	result := &Result{Hits: hits, Total: total, From: from, Size: size}

	fields := facetFields
	sizes := map[string]int{}
	if len(fields) == 0 {
		fields = autoDiscoverFacets(repo, mappings)
		for _, f := range fields {
			sizes[f] = autoFacetTopValues
		}
	}
	if len(fields) > 0 {
		result.Facets = computeFacets(repo, seqs, fields, sizes)
	}

	if len(ctx.Aggregations) > 0 {
		result.Aggregations = computeAggregations(repo, seqs, ctx.Aggregations)
	}

	return result, nil
}

// computeAggregations evaluates each requested terms/range
// aggregation over the matched sequence set.
func computeAggregations(repo *document.Repository, seqs []uint32, aggs map[string]Aggregation) map[string]AggResult {
	out := make(map[string]AggResult, len(aggs))
	for name, agg := range aggs {
		switch {
		case agg.Terms != nil:
			size := agg.Terms.Size
			if size <= 0 {
				size = 10
			}
			out[name] = computeFacets(repo, seqs, []string{agg.Terms.Field}, map[string]int{agg.Terms.Field: size})[agg.Terms.Field]
		case agg.Range != nil:
			out[name] = computeRangeAgg(repo, seqs, agg.Range)
		}
	}
	return out
}

func computeRangeAgg(repo *document.Repository, seqs []uint32, r *RangeAgg) AggResult {
	buckets := make([]Bucket, len(r.Ranges))
	for i, rb := range r.Ranges {
		buckets[i] = Bucket{From: rb.From, To: rb.To}
	}
	for _, seq := range seqs {
		id, ok := repo.IDOf(seq)
		if !ok {
			continue
		}
		rec, ok := repo.Get(id)
		if !ok {
			continue
		}
		val, ok := rec.Fields[r.Field]
		if !ok {
			continue
		}
		num, ok := mapping.ParseFloat(val)
		if !ok {
			continue
		}
		for i, rb := range r.Ranges {
			if rb.From != nil && num < *rb.From {
				continue
			}
			if rb.To != nil && num >= *rb.To {
				continue
			}
			buckets[i].DocCount++
		}
	}
	return AggResult{Buckets: buckets}
}
