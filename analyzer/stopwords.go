package analyzer

import "sync"

// defaultStopwords is the seed set used by every new Stopwords unless the
// caller overrides it.
var defaultStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
	"has", "he", "in", "is", "it", "its", "of", "on", "that", "the",
	"to", "was", "were", "will", "with", "this", "but", "they", "have",
	"had", "what", "when", "where", "who", "which", "why", "how",
	"or", "not", "no", "so", "if", "do", "does", "did", "can", "could",
	"would", "should", "i", "you", "we", "my", "your", "our",
}

// Stopwords is a mutable, concurrency-safe set of lowercased terms that
// analyzers drop during tokenization. It supports frequency-driven
// auto-detection: any term observed at least Threshold times is promoted
// into the set.
type Stopwords struct {
	mu        sync.RWMutex
	set       map[string]struct{}
	threshold int
}

// NewStopwords creates a Stopwords set seeded with the built-in English
// stopword list.
func NewStopwords() *Stopwords {
	s := &Stopwords{
		set:       make(map[string]struct{}, len(defaultStopwords)),
		threshold: 1000,
	}
	for _, w := range defaultStopwords {
		s.set[w] = struct{}{}
	}
	return s
}

// SetThreshold sets the auto-detect frequency threshold.
func (s *Stopwords) SetThreshold(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.threshold = n
	s.mu.Unlock()
}

// Contains reports whether term (already lowercased by the caller) is a
// stopword.
func (s *Stopwords) Contains(term string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.set[term]
	return ok
}

// Add permanently adds term to the stopword set.
func (s *Stopwords) Add(term string) {
	s.mu.Lock()
	s.set[term] = struct{}{}
	s.mu.Unlock()
}

// Remove drops term from the stopword set.
func (s *Stopwords) Remove(term string) {
	s.mu.Lock()
	delete(s.set, term)
	s.mu.Unlock()
}

// AutoDetect promotes any term whose frequency meets or exceeds the
// configured threshold (default 1000) into the stopword set. It returns
// the terms that were newly added.
func (s *Stopwords) AutoDetect(termFreq map[string]int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []string
	for term, freq := range termFreq {
		if freq < s.threshold {
			continue
		}
		if _, ok := s.set[term]; ok {
			continue
		}
		s.set[term] = struct{}{}
		added = append(added, term)
	}
	return added
}

// Snapshot returns a copy of the current stopword set.
func (s *Stopwords) Snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.set))
	for w := range s.set {
		out = append(out, w)
	}
	return out
}
