package pool

import "testing"

func TestAppendRejectsDuplicateOpID(t *testing.T) {
	l := NewOperationLog()
	op := Operation{OpID: "op-1", Type: OpAdd, VectorClock: VectorClock{"main": 1}}
	if !l.Append(op) {
		t.Fatal("expected first append to succeed")
	}
	if l.Append(op) {
		t.Fatal("expected duplicate opId to be rejected")
	}
	if l.Len() != 1 {
		t.Fatalf("expected exactly 1 entry, got %d", l.Len())
	}
}

func TestOperationLogEvictsOldestPastCapacity(t *testing.T) {
	l := NewOperationLog()
	for i := 0; i < ringCapacity+10; i++ {
		l.Append(Operation{OpID: NewOpID(), VectorClock: VectorClock{"main": uint64(i)}})
	}
	if l.Len() != ringCapacity {
		t.Fatalf("expected log bounded to %d, got %d", ringCapacity, l.Len())
	}
}

func TestSinceReturnsOnlyNewerEntries(t *testing.T) {
	l := NewOperationLog()
	l.Append(Operation{OpID: "a", VectorClock: VectorClock{"main": 1}})
	l.Append(Operation{OpID: "b", VectorClock: VectorClock{"main": 2}})
	l.Append(Operation{OpID: "c", VectorClock: VectorClock{"main": 3}})

	newer := l.Since(VectorClock{"main": 1})
	if len(newer) != 2 {
		t.Fatalf("expected 2 newer entries, got %d", len(newer))
	}
}

func TestContainsAfterEviction(t *testing.T) {
	l := NewOperationLog()
	first := Operation{OpID: "evict-me", VectorClock: VectorClock{"main": 0}}
	l.Append(first)
	for i := 0; i < ringCapacity; i++ {
		l.Append(Operation{OpID: NewOpID(), VectorClock: VectorClock{"main": uint64(i + 1)}})
	}
	if l.Contains("evict-me") {
		t.Fatal("expected evicted opId to no longer be present")
	}
}
