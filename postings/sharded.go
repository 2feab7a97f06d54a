package postings

import "github.com/cespare/xxhash/v2"

// ShardedInvertedIndex hash-partitions tokens across a fixed number of
// independent Shards. It is the composition point spec.md §4.3 calls
// "the sharded layer": callers never address a Shard directly.
type ShardedInvertedIndex struct {
	numShards int
	shards    []*Shard
}

// New creates a ShardedInvertedIndex with numShards partitions. numShards
// below 1 is treated as 1.
func New(numShards int) *ShardedInvertedIndex {
	if numShards < 1 {
		numShards = 1
	}
	shards := make([]*Shard, numShards)
	for i := range shards {
		shards[i] = NewShard()
	}
	return &ShardedInvertedIndex{numShards: numShards, shards: shards}
}

// NumShards returns the fixed shard count.
func (idx *ShardedInvertedIndex) NumShards() int { return idx.numShards }

// mix32 is the 32-bit hash mixer: a truncation of xxhash64 over the
// token's UTF-8 bytes.
func mix32(token string) uint32 {
	return uint32(xxhash.Sum64String(token) & 0xFFFFFFFF)
}

// ShardOf returns the shard index owning token. The single-shard case
// short-circuits direct dispatch without hashing.
func (idx *ShardedInvertedIndex) ShardOf(token string) int {
	if idx.numShards == 1 {
		return 0
	}
	return int(mix32(token) % uint32(idx.numShards))
}

func (idx *ShardedInvertedIndex) shardFor(token string) *Shard {
	return idx.shards[idx.ShardOf(token)]
}

// AddToken delegates to the shard owning token.
func (idx *ShardedInvertedIndex) AddToken(token, docID string, position int32) {
	idx.shardFor(token).AddToken(token, docID, position)
}

// DeleteDocument broadcasts the delete to every shard, since a document
// id may be present in postings owned by any shard.
func (idx *ShardedInvertedIndex) DeleteDocument(docID string) {
	for _, shard := range idx.shards {
		shard.DeleteDocument(docID)
	}
}

// GetPosting delegates to the shard owning token.
func (idx *ShardedInvertedIndex) GetPosting(token string) map[string][]int32 {
	return idx.shardFor(token).GetPosting(token)
}

// TermFrequency delegates to the shard owning token.
func (idx *ShardedInvertedIndex) TermFrequency(token, docID string) int {
	return idx.shardFor(token).TermFrequency(token, docID)
}

// DocumentFrequency delegates to the shard owning token.
func (idx *ShardedInvertedIndex) DocumentFrequency(token string) int {
	return idx.shardFor(token).DocumentFrequency(token)
}

// Serialize returns one SerializedShard per shard, in shard order.
func (idx *ShardedInvertedIndex) Serialize() []SerializedShard {
	out := make([]SerializedShard, len(idx.shards))
	for i, shard := range idx.shards {
		out[i] = shard.Serialize()
	}
	return out
}

// Deserialize restores shard contents from snap, the inverse of
// Serialize. len(snap) must match NumShards(); extra entries are
// ignored and missing ones leave that shard empty.
func (idx *ShardedInvertedIndex) Deserialize(snap []SerializedShard) {
	for i, shard := range idx.shards {
		if i < len(snap) {
			shard.Deserialize(snap[i])
		} else {
			shard.Deserialize(SerializedShard{})
		}
	}
}

// Tokens returns every token present in any shard, unordered. Query
// evaluation uses this for prefix/wildcard/fuzzy leaves that must scan
// the token space rather than address a single known token.
func (idx *ShardedInvertedIndex) Tokens() []string {
	var out []string
	for _, shard := range idx.shards {
		out = append(out, shard.Tokens()...)
	}
	return out
}
