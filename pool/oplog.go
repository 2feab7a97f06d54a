package pool

import (
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
)

// OpType tags the kind of write an Operation records.
type OpType string

// The three CRDT log operation kinds (spec.md §3 "Operation").
const (
	OpAdd    OpType = "add"
	OpUpdate OpType = "update"
	OpDelete OpType = "delete"
)

// Operation is one CRDT log entry (spec.md §3).
type Operation struct {
	OpID        string
	Type        OpType
	IndexName   string
	DocumentID  string
	Timestamp   time.Time
	VectorClock VectorClock
	Data        map[string]any
}

// NewOpID generates a globally unique operation id (spec.md §4.6 step
// 1: "{Date.now(), random}" — a UUID already encodes both a
// unique random component and is collision-free without needing to
// thread a clock through every call site).
func NewOpID() string {
	return uuid.NewString()
}

const ringCapacity = 1000

// OperationLog is the bounded, append-only CRDT log: a 1000-entry
// ring buffer with Bloom-filter-accelerated idempotent opId dedupe
// (spec.md §9 "CRDT log -> bounded ring buffer" and "Duplicate-op
// detection"). The Bloom filter is a fast-path reject: a negative
// answer from it is authoritative (definitely not present), so only a
// positive hit needs the exact map check that follows.
type OperationLog struct {
	mu      sync.Mutex
	entries []Operation
	head    int // index of the oldest live entry
	size    int
	seen    map[string]struct{}
	filter  *bloom.BloomFilter
}

// NewOperationLog creates an empty operation log.
func NewOperationLog() *OperationLog {
	return &OperationLog{
		entries: make([]Operation, ringCapacity),
		seen:    make(map[string]struct{}, ringCapacity),
		filter:  bloom.NewWithEstimates(ringCapacity*4, 0.01),
	}
}

// Contains reports whether opId is present in the live window.
func (l *OperationLog) Contains(opID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.contains(opID)
}

func (l *OperationLog) contains(opID string) bool {
	if !l.filter.TestString(opID) {
		return false
	}
	_, ok := l.seen[opID]
	return ok
}

// Append adds op to the log unless its opId is already present, in
// which case it is discarded and Append reports false (spec.md §7/§9
// duplicate handling: "at most one is applied"). Appending past
// capacity evicts the oldest entry.
func (l *OperationLog) Append(op Operation) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.contains(op.OpID) {
		return false
	}

	if l.size == ringCapacity {
		oldest := l.entries[l.head]
		delete(l.seen, oldest.OpID)
		l.head = (l.head + 1) % ringCapacity
		l.size--
	}

	idx := (l.head + l.size) % ringCapacity
	l.entries[idx] = op
	l.size++
	l.seen[op.OpID] = struct{}{}
	l.filter.AddString(op.OpID)
	return true
}

// Entries returns every live entry, oldest first.
func (l *OperationLog) Entries() []Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Operation, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.entries[(l.head+i)%ringCapacity]
	}
	return out
}

// Since returns every live entry whose VectorClock is newer than
// cursor under the IsNewer dominance rule (spec.md §4.6 "Sync").
func (l *OperationLog) Since(cursor VectorClock) []Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Operation
	for i := 0; i < l.size; i++ {
		op := l.entries[(l.head+i)%ringCapacity]
		if IsNewer(op.VectorClock, cursor) {
			out = append(out, op)
		}
	}
	return out
}

// Len returns the number of live entries.
func (l *OperationLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}
