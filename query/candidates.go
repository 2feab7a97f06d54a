package query

import "github.com/RoaringBitmap/roaring/v2"

// candidateSet is a plan node's evaluation result: the set of
// matching document sequence numbers as a roaring bitmap, plus each
// matched sequence's accumulated partial score. Bitmaps key candidate
// sets by the small integer sequence number (document.Repository),
// not by string docId, so boolean composition is cheap intersection
// and union rather than map-algebra over strings.
type candidateSet struct {
	bits   *roaring.Bitmap
	scores map[uint32]float64
}

func newCandidateSet() *candidateSet {
	return &candidateSet{bits: roaring.New(), scores: make(map[uint32]float64)}
}

func (c *candidateSet) add(seq uint32, score float64) {
	c.bits.Add(seq)
	c.scores[seq] += score
}

func (c *candidateSet) intersect(other *candidateSet) *candidateSet {
	out := &candidateSet{bits: roaring.And(c.bits, other.bits), scores: make(map[uint32]float64)}
	it := out.bits.Iterator()
	for it.HasNext() {
		seq := it.Next()
		out.scores[seq] = c.scores[seq] + other.scores[seq]
	}
	return out
}

func (c *candidateSet) union(other *candidateSet) *candidateSet {
	out := &candidateSet{bits: roaring.Or(c.bits, other.bits), scores: make(map[uint32]float64)}
	it := out.bits.Iterator()
	for it.HasNext() {
		seq := it.Next()
		out.scores[seq] = c.scores[seq] + other.scores[seq]
	}
	return out
}

func (c *candidateSet) subtract(other *candidateSet) *candidateSet {
	out := &candidateSet{bits: roaring.AndNot(c.bits, other.bits), scores: make(map[uint32]float64)}
	it := out.bits.Iterator()
	for it.HasNext() {
		seq := it.Next()
		out.scores[seq] = c.scores[seq]
	}
	return out
}

// addScores left-joins other's scores into a copy of c: membership is
// unchanged (c's bitmap), but any seq also present in other gains
// other's score. Used to let a bool query's should clauses contribute
// score without narrowing the must/filter candidate set.
func (c *candidateSet) addScores(other *candidateSet) *candidateSet {
	out := &candidateSet{bits: c.bits.Clone(), scores: make(map[uint32]float64, len(c.scores))}
	for seq, score := range c.scores {
		out.scores[seq] = score
	}
	it := c.bits.Iterator()
	for it.HasNext() {
		seq := it.Next()
		if s, ok := other.scores[seq]; ok {
			out.scores[seq] += s
		}
	}
	return out
}

func (c *candidateSet) seqs() []uint32 {
	return c.bits.ToArray()
}

func (c *candidateSet) contains(seq uint32) bool {
	return c.bits.Contains(seq)
}

func (c *candidateSet) len() int {
	return int(c.bits.GetCardinality())
}
