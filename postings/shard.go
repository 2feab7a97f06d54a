// Package postings implements the sharded inverted index: token ->
// {docId -> sorted positions} postings, hash-partitioned across
// independent shards (spec.md §4.3).
package postings

import (
	"sort"
	"sync"
)

// Shard is a single-owner inverted index partition: token -> docId ->
// sorted, deduplicated term positions.
type Shard struct {
	mu   sync.RWMutex
	data map[string]map[string][]int32
}

// NewShard creates an empty shard.
func NewShard() *Shard {
	return &Shard{data: make(map[string]map[string][]int32)}
}

// AddToken inserts position into the posting for (token, docID), keeping
// positions sorted ascending and deduplicated. Entries are created
// lazily.
func (s *Shard) AddToken(token, docID string, position int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.data[token]
	if !ok {
		docs = make(map[string][]int32)
		s.data[token] = docs
	}
	positions := docs[docID]

	idx := sort.Search(len(positions), func(i int) bool { return positions[i] >= position })
	if idx < len(positions) && positions[idx] == position {
		return // already present
	}
	positions = append(positions, 0)
	copy(positions[idx+1:], positions[idx:])
	positions[idx] = position
	docs[docID] = positions
}

// DeleteDocument removes docID from every posting it appears in. Tokens
// left with no postings may be pruned or retained; callers must not
// observe a difference either way.
func (s *Shard) DeleteDocument(docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, docs := range s.data {
		if _, ok := docs[docID]; ok {
			delete(docs, docID)
			if len(docs) == 0 {
				delete(s.data, token)
			}
		}
	}
}

// GetPosting returns the docId -> positions map for token. The returned
// map is a defensive copy; mutating it does not affect the shard.
func (s *Shard) GetPosting(token string) map[string][]int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, ok := s.data[token]
	if !ok {
		return map[string][]int32{}
	}
	out := make(map[string][]int32, len(docs))
	for docID, positions := range docs {
		cp := make([]int32, len(positions))
		copy(cp, positions)
		out[docID] = cp
	}
	return out
}

// TermFrequency returns the number of positions token has in docID.
func (s *Shard) TermFrequency(token, docID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs, ok := s.data[token]
	if !ok {
		return 0
	}
	return len(docs[docID])
}

// DocumentFrequency returns the number of distinct documents containing
// token.
func (s *Shard) DocumentFrequency(token string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[token])
}

// Tokens returns every token this shard currently owns a posting for.
func (s *Shard) Tokens() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for token := range s.data {
		out = append(out, token)
	}
	return out
}

// SerializedDoc is one docId's positions within a serialized token.
type SerializedDoc struct {
	DocID     string  `json:"docId"`
	Positions []int32 `json:"positions"`
}

// SerializedToken is one token's full posting within a serialized shard.
type SerializedToken struct {
	Token string          `json:"token"`
	Docs  []SerializedDoc `json:"docs"`
}

// SerializedShard is the deterministic, JSON-friendly representation of
// a Shard: tokens sorted ascending, docIds sorted ascending within each
// token, positions sorted ascending.
type SerializedShard struct {
	Tokens []SerializedToken `json:"tokens"`
}

// Serialize produces a deterministic snapshot of the shard's state.
func (s *Shard) Serialize() SerializedShard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := make([]string, 0, len(s.data))
	for token := range s.data {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	out := SerializedShard{Tokens: make([]SerializedToken, 0, len(tokens))}
	for _, token := range tokens {
		docs := s.data[token]
		docIDs := make([]string, 0, len(docs))
		for docID := range docs {
			docIDs = append(docIDs, docID)
		}
		sort.Strings(docIDs)

		st := SerializedToken{Token: token, Docs: make([]SerializedDoc, 0, len(docIDs))}
		for _, docID := range docIDs {
			positions := make([]int32, len(docs[docID]))
			copy(positions, docs[docID])
			st.Docs = append(st.Docs, SerializedDoc{DocID: docID, Positions: positions})
		}
		out.Tokens = append(out.Tokens, st)
	}
	return out
}

// Deserialize replaces the shard's contents with the given serialized
// state, the inverse of Serialize.
func (s *Shard) Deserialize(snap SerializedShard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]map[string][]int32, len(snap.Tokens))
	for _, st := range snap.Tokens {
		docs := make(map[string][]int32, len(st.Docs))
		for _, sd := range st.Docs {
			positions := make([]int32, len(sd.Positions))
			copy(positions, sd.Positions)
			docs[sd.DocID] = positions
		}
		s.data[st.Token] = docs
	}
}
