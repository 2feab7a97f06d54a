package query

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/blevesearch/geo"

	"github.com/inquir-search/search-engine/analyzer"
	"github.com/inquir-search/search-engine/document"
	"github.com/inquir-search/search-engine/ftserr"
	"github.com/inquir-search/search-engine/mapping"
	"github.com/inquir-search/search-engine/postings"
	"github.com/inquir-search/search-engine/scoring"
)

// Evaluator executes a Query tree against one index's postings,
// repository, and mappings, producing a scored candidateSet per node
// (spec.md §4.5's "plan").
type Evaluator struct {
	repo     *document.Repository
	index    *postings.ShardedInvertedIndex
	mappings *mapping.Mappings
	tok      *analyzer.Tokenizer
	scorer   *scoring.BM25
}

// NewEvaluator builds an Evaluator over the given components.
func NewEvaluator(repo *document.Repository, index *postings.ShardedInvertedIndex, mappings *mapping.Mappings, tok *analyzer.Tokenizer, scorer *scoring.BM25) *Evaluator {
	return &Evaluator{repo: repo, index: index, mappings: mappings, tok: tok, scorer: scorer}
}

// Evaluate dispatches q to the matching leaf or composite evaluator.
func (e *Evaluator) Evaluate(q Query) (*candidateSet, error) {
	switch {
	case q.MatchAll != nil:
		return e.evalMatchAll(), nil
	case q.Match != nil:
		return e.evalMatch(q.Match)
	case q.Term != nil:
		return e.evalTerm(q.Term), nil
	case q.Prefix != nil:
		return e.evalPrefix(q.Prefix), nil
	case q.Wildcard != nil:
		return e.evalWildcard(q.Wildcard)
	case q.Fuzzy != nil:
		return e.evalFuzzy(q.Fuzzy), nil
	case q.MatchPhrase != nil:
		return e.evalMatchPhrase(q.MatchPhrase), nil
	case q.Range != nil:
		return e.evalRange(q.Range), nil
	case q.GeoDistance != nil:
		return e.evalGeoDistance(q.GeoDistance), nil
	case q.Bool != nil:
		return e.evalBool(q.Bool)
	default:
		return nil, fmt.Errorf("empty query node: %w", ftserr.ErrInvalidQuery)
	}
}

func (e *Evaluator) evalMatchAll() *candidateSet {
	out := newCandidateSet()
	for _, seq := range e.repo.AllSeqs() {
		out.add(seq, 0)
	}
	return out
}

func (e *Evaluator) analyzerFor(field string) analyzer.Analyzer {
	ft, ok := e.mappings.Get(field)
	if !ok {
		return analyzer.Standard
	}
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

func (e *Evaluator) textFields(field string) []string {
	if field != "*" {
		return []string{field}
	}
	return e.mappings.TextLikeFields()
}

func (e *Evaluator) evalMatch(m *MatchQuery) (*candidateSet, error) {
	if m.Field == "" {
		return nil, fmt.Errorf("match query missing field: %w", ftserr.ErrInvalidQuery)
	}
	fields := e.textFields(m.Field)
	out := newCandidateSet()
	for _, field := range fields {
		tokens := e.tok.Tokenize(m.Value, e.analyzerFor(field))
		fieldSet := e.matchTokens(field, tokens, m.Operator == "or")
		out = out.union(fieldSet)
	}
	if m.Boost > 0 {
		out = boosted(out, m.Boost)
	}
	return out, nil
}

func (e *Evaluator) matchTokens(field string, tokens []string, or bool) *candidateSet {
	if len(tokens) == 0 {
		return newCandidateSet()
	}
	var acc *candidateSet
	for _, tok := range tokens {
		tokSet := e.postingSet(field, tok)
		if acc == nil {
			acc = tokSet
			continue
		}
		if or {
			acc = acc.union(tokSet)
		} else {
			acc = acc.intersect(tokSet)
		}
	}
	return acc
}

// postingSet converts a token's postings into a scored candidateSet,
// each matched document scored by BM25 on this token's tf/df.
func (e *Evaluator) postingSet(field, token string) *candidateSet {
	key := field + ":" + token
	postingMap := e.index.GetPosting(key)
	df := len(postingMap)
	out := newCandidateSet()
	for docID, positions := range postingMap {
		seq, ok := e.repo.SeqOf(docID)
		if !ok {
			continue
		}
		tf := len(positions)
		docLen := e.repo.Length(docID)
		score := e.scorer.Score(tf, df, docLen)
		out.add(seq, score)
	}
	return out
}

func (e *Evaluator) evalTerm(t *TermQuery) *candidateSet {
	token := strings.TrimSpace(t.Value)
	out := e.postingSet(t.Field, token)
	if t.Boost > 0 {
		out = boosted(out, t.Boost)
	}
	return out
}

func (e *Evaluator) evalPrefix(p *PrefixQuery) *candidateSet {
	prefix := p.Field + ":"
	valueTokens := e.tok.Tokenize(p.Value, e.analyzerFor(p.Field))
	var out *candidateSet
	switch {
	case len(valueTokens) == 0:
		out = newCandidateSet()
	case len(valueTokens) == 1:
		out = e.prefixMatches(prefix, valueTokens[0])
	default:
		out = e.prefixPhraseMatches(prefix, valueTokens)
	}
	if p.Boost > 0 {
		out = boosted(out, p.Boost)
	}
	return out
}

// prefixMatches unions postings for every indexed token in the field
// starting with matchPrefix.
func (e *Evaluator) prefixMatches(prefix, matchPrefix string) *candidateSet {
	out := newCandidateSet()
	for _, token := range e.index.Tokens() {
		if !strings.HasPrefix(token, prefix) {
			continue
		}
		if strings.HasPrefix(strings.TrimPrefix(token, prefix), matchPrefix) {
			out = out.union(e.postingSetForToken(token))
		}
	}
	return out
}

// prefixPhraseMatches implements the multi-word prefix rule of §4.5:
// each token of the value must be a prefix of a consecutive indexed
// token in the document, i.e. positions pos..pos+len(valueTokens)-1
// where the token at pos+i has valueTokens[i] as a prefix.
func (e *Evaluator) prefixPhraseMatches(prefix string, valueTokens []string) *candidateSet {
	postingsByWord := make([]map[string][]int32, len(valueTokens))
	for i, vt := range valueTokens {
		merged := make(map[string][]int32)
		for _, token := range e.index.Tokens() {
			if !strings.HasPrefix(token, prefix) {
				continue
			}
			if !strings.HasPrefix(strings.TrimPrefix(token, prefix), vt) {
				continue
			}
			for docID, positions := range e.index.GetPosting(token) {
				merged[docID] = append(merged[docID], positions...)
			}
		}
		for docID := range merged {
			sort.Slice(merged[docID], func(a, b int) bool { return merged[docID][a] < merged[docID][b] })
		}
		postingsByWord[i] = merged
	}

	out := newCandidateSet()
	if len(postingsByWord) == 0 {
		return out
	}
	base := postingsByWord[0]
	df := len(base)
docLoop:
	for docID, firstPositions := range base {
		for i := 1; i < len(postingsByWord); i++ {
			if _, ok := postingsByWord[i][docID]; !ok {
				continue docLoop
			}
		}
		if !hasConsecutiveRun(postingsByWord, docID, firstPositions, len(postingsByWord)) {
			continue
		}
		seq, ok := e.repo.SeqOf(docID)
		if !ok {
			continue
		}
		tf := len(firstPositions)
		docLen := e.repo.Length(docID)
		out.add(seq, e.scorer.Score(tf, df, docLen))
	}
	return out
}

func (e *Evaluator) postingSetForToken(fullToken string) *candidateSet {
	postingMap := e.index.GetPosting(fullToken)
	df := len(postingMap)
	out := newCandidateSet()
	for docID, positions := range postingMap {
		seq, ok := e.repo.SeqOf(docID)
		if !ok {
			continue
		}
		tf := len(positions)
		docLen := e.repo.Length(docID)
		out.add(seq, e.scorer.Score(tf, df, docLen))
	}
	return out
}

func (e *Evaluator) evalWildcard(w *WildcardQuery) (*candidateSet, error) {
	pattern, err := compileWildcard(w.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid wildcard pattern: %w", ftserr.ErrInvalidQuery)
	}
	out := newCandidateSet()
	for id, rec := range e.repo.Snapshot() {
		val, ok := rec.Fields[w.Field]
		if !ok {
			continue
		}
		if pattern.MatchString(fmt.Sprint(val)) {
			seq, ok := e.repo.SeqOf(id)
			if ok {
				out.add(seq, 0)
			}
		}
	}
	if w.Boost > 0 {
		out = boosted(out, w.Boost)
	}
	return out, nil
}

func compileWildcard(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

func (e *Evaluator) evalFuzzy(f *FuzzyQuery) *candidateSet {
	fuzziness := f.Fuzziness
	if fuzziness == 0 {
		fuzziness = 2
	}
	prefix := f.Field + ":"
	needle := strings.ToLower(f.Value)
	out := newCandidateSet()
	for _, token := range e.index.Tokens() {
		if !strings.HasPrefix(token, prefix) {
			continue
		}
		candidate := strings.TrimPrefix(token, prefix)
		if levenshtein(candidate, needle) <= fuzziness {
			out = out.union(e.postingSetForToken(token))
		}
	}
	if f.Boost > 0 {
		out = boosted(out, f.Boost)
	}
	return out
}

func (e *Evaluator) evalMatchPhrase(mp *MatchPhraseQuery) *candidateSet {
	tokens := e.tok.Tokenize(mp.Value, e.analyzerFor(mp.Field))
	out := newCandidateSet()
	if len(tokens) == 0 {
		return out
	}

	postingsByToken := make([]map[string][]int32, len(tokens))
	for i, tok := range tokens {
		postingsByToken[i] = e.index.GetPosting(mp.Field + ":" + tok)
	}

	// Candidate docs must contain every token.
	base := postingsByToken[0]
docLoop:
	for docID, firstPositions := range base {
		for i := 1; i < len(tokens); i++ {
			if _, ok := postingsByToken[i][docID]; !ok {
				continue docLoop
			}
		}
		if !hasConsecutiveRun(postingsByToken, docID, firstPositions, len(tokens)) {
			continue
		}
		seq, ok := e.repo.SeqOf(docID)
		if !ok {
			continue
		}
		df := len(base)
		tf := len(firstPositions)
		docLen := e.repo.Length(docID)
		out.add(seq, e.scorer.Score(tf, df, docLen))
	}
	if mp.Boost > 0 {
		out = boosted(out, mp.Boost)
	}
	return out
}

func hasConsecutiveRun(postingsByToken []map[string][]int32, docID string, firstPositions []int32, n int) bool {
	for _, start := range firstPositions {
		ok := true
		for i := 1; i < n; i++ {
			positions := postingsByToken[i][docID]
			if !containsSorted(positions, start+int32(i)) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func containsSorted(xs []int32, v int32) bool {
	i := sort.Search(len(xs), func(i int) bool { return xs[i] >= v })
	return i < len(xs) && xs[i] == v
}

func (e *Evaluator) evalRange(r *RangeQuery) *candidateSet {
	out := newCandidateSet()
	for id, rec := range e.repo.Snapshot() {
		val, ok := rec.Fields[r.Field]
		if !ok {
			continue
		}
		num, ok := mapping.ParseFloat(val)
		if !ok {
			continue
		}
		if r.GTE != nil && num < *r.GTE {
			continue
		}
		if r.LTE != nil && num > *r.LTE {
			continue
		}
		if r.GT != nil && num <= *r.GT {
			continue
		}
		if r.LT != nil && num >= *r.LT {
			continue
		}
		if seq, ok := e.repo.SeqOf(id); ok {
			out.add(seq, 0)
		}
	}
	return out
}

func (e *Evaluator) evalGeoDistance(g *GeoDistanceQuery) *candidateSet {
	out := newCandidateSet()
	for id, rec := range e.repo.Snapshot() {
		val, ok := rec.Fields[g.Field]
		if !ok {
			continue
		}
		lat, lon, ok := geoPoint(val)
		if !ok {
			continue
		}
		distKM := geo.Haversin(g.Center[1], g.Center[0], lon, lat)
		if distKM <= g.DistanceKM {
			if seq, ok := e.repo.SeqOf(id); ok {
				out.add(seq, 0)
			}
		}
	}
	return out
}

func geoPoint(v any) (lat, lon float64, ok bool) {
	switch t := v.(type) {
	case []any:
		if len(t) != 2 {
			return 0, 0, false
		}
		latF, ok1 := mapping.ParseFloat(t[0])
		lonF, ok2 := mapping.ParseFloat(t[1])
		return latF, lonF, ok1 && ok2
	case map[string]any:
		latV, ok1 := t["lat"]
		lonV, ok2 := t["lon"]
		if !ok1 || !ok2 {
			return 0, 0, false
		}
		latF, ok3 := mapping.ParseFloat(latV)
		lonF, ok4 := mapping.ParseFloat(lonV)
		return latF, lonF, ok3 && ok4
	default:
		return 0, 0, false
	}
}

func (e *Evaluator) evalBool(b *BoolQuery) (*candidateSet, error) {
	var must, filter, mustNot *candidateSet

	must = newCandidateSet()
	for _, sub := range b.Must {
		set, err := e.Evaluate(sub)
		if err != nil {
			return nil, err
		}
		if len(b.Must) == 1 {
			must = set
		} else {
			must = intersectOrFirst(must, set, sub == b.Must[0])
		}
	}

	filter = newCandidateSet()
	hasFilter := len(b.Filter) > 0
	for i, sub := range b.Filter {
		set, err := e.Evaluate(sub)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			filter = set
		} else {
			filter = filter.intersect(set)
		}
	}
	// Filter clauses decide membership only; their scores are dropped.
	filter = &candidateSet{bits: filter.bits, scores: make(map[uint32]float64)}

	mustNot = newCandidateSet()
	for _, sub := range b.MustNot {
		set, err := e.Evaluate(sub)
		if err != nil {
			return nil, err
		}
		mustNot = mustNot.union(set)
	}

	shouldSets := make([]*candidateSet, 0, len(b.Should))
	for _, sub := range b.Should {
		set, err := e.Evaluate(sub)
		if err != nil {
			return nil, err
		}
		shouldSets = append(shouldSets, set)
	}
	should := unionAll(shouldSets)

	hasMust := len(b.Must) > 0
	var result *candidateSet
	switch {
	case hasMust && hasFilter:
		result = must.intersect(filter)
	case hasMust:
		result = must
	case hasFilter:
		result = filter
	default:
		result = nil
	}

	if len(b.Should) > 0 {
		if result == nil {
			// No must/filter: at least one should must match (§4.5).
			minMatch := 1
			if b.MinimumShouldMatch != nil {
				minMatch = *b.MinimumShouldMatch
			}
			if minMatch <= 0 {
				result = should
			} else {
				result = filterByShouldCount(shouldSets, minMatch)
			}
		} else {
			// must/filter already decided membership; should only adds
			// score for documents that happen to also match, never
			// narrows the candidate set.
			result = result.addScores(should)
		}
	}

	if result == nil {
		result = newCandidateSet()
	}
	if len(b.MustNot) > 0 {
		result = result.subtract(mustNot)
	}
	return result, nil
}

func intersectOrFirst(acc, set *candidateSet, isFirst bool) *candidateSet {
	if isFirst {
		return set
	}
	return acc.intersect(set)
}

func unionAll(sets []*candidateSet) *candidateSet {
	out := newCandidateSet()
	for _, s := range sets {
		out = out.union(s)
	}
	return out
}

// filterByShouldCount keeps only sequences matched by at least
// minMatch of the should clauses, summing their scores.
func filterByShouldCount(sets []*candidateSet, minMatch int) *candidateSet {
	counts := make(map[uint32]int)
	scores := make(map[uint32]float64)
	for _, s := range sets {
		it := s.bits.Iterator()
		for it.HasNext() {
			seq := it.Next()
			counts[seq]++
			scores[seq] += s.scores[seq]
		}
	}
	out := newCandidateSet()
	for seq, n := range counts {
		if n >= minMatch {
			out.add(seq, scores[seq])
		}
	}
	return out
}

func boosted(c *candidateSet, boost float64) *candidateSet {
	out := &candidateSet{bits: c.bits, scores: make(map[uint32]float64, len(c.scores))}
	for seq, score := range c.scores {
		out.scores[seq] = score * boost
	}
	return out
}
