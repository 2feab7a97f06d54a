package document

import "testing"

func TestSaveAssignsIncreasingSequences(t *testing.T) {
	r := NewRepository()
	seqA := r.Save("a", map[string]any{"t": "x"}, 1)
	seqB := r.Save("b", map[string]any{"t": "y"}, 2)
	if seqB <= seqA {
		t.Fatalf("expected increasing sequences, got a=%d b=%d", seqA, seqB)
	}
	if got, _ := r.SeqOf("a"); got != seqA {
		t.Errorf("SeqOf mismatch: got %d want %d", got, seqA)
	}
	if got, _ := r.IDOf(seqB); got != "b" {
		t.Errorf("IDOf mismatch: got %q want b", got)
	}
}

func TestSaveOverwriteRetiresOldSequence(t *testing.T) {
	r := NewRepository()
	seq1 := r.Save("a", map[string]any{"t": "x"}, 1)
	seq2 := r.Save("a", map[string]any{"t": "y"}, 3)

	if seq2 == seq1 {
		t.Fatal("expected overwrite to retire the old sequence, not reuse it")
	}
	if _, ok := r.IDOf(seq1); ok {
		t.Error("old sequence should no longer resolve to any id")
	}
	if got, _ := r.IDOf(seq2); got != "a" {
		t.Errorf("expected new sequence to resolve to a, got %q", got)
	}
	if r.Count() != 1 {
		t.Errorf("expected 1 live document, got %d", r.Count())
	}
}

func TestDeleteRetiresSequence(t *testing.T) {
	r := NewRepository()
	seq := r.Save("a", map[string]any{}, 5)
	gotSeq, ok := r.Delete("a")
	if !ok || gotSeq != seq {
		t.Fatalf("expected delete to return seq %d, got %d ok=%v", seq, gotSeq, ok)
	}
	if _, ok := r.Get("a"); ok {
		t.Error("expected a to be gone")
	}
	if _, ok := r.IDOf(seq); ok {
		t.Error("expected retired sequence to not resolve")
	}
	if _, ok := r.Delete("a"); ok {
		t.Error("deleting an already-deleted id should report not found")
	}
}

func TestAvgLength(t *testing.T) {
	r := NewRepository()
	if got := r.AvgLength(); got != 0 {
		t.Fatalf("expected 0 for empty repository, got %f", got)
	}
	r.Save("a", map[string]any{}, 2)
	r.Save("b", map[string]any{}, 4)
	if got := r.AvgLength(); got != 3 {
		t.Errorf("expected avg 3, got %f", got)
	}
}

func TestRestoreIsDeterministic(t *testing.T) {
	r := NewRepository()
	records := map[string]*Record{
		"a": {ID: "a", Fields: map[string]any{}, Length: 1},
		"b": {ID: "b", Fields: map[string]any{}, Length: 2},
	}
	r.Restore(records, []string{"a", "b"})

	seqA, _ := r.SeqOf("a")
	seqB, _ := r.SeqOf("b")
	if seqA != 0 || seqB != 1 {
		t.Fatalf("expected deterministic 0,1 sequence assignment, got a=%d b=%d", seqA, seqB)
	}
	if r.Count() != 2 {
		t.Errorf("expected 2 live documents, got %d", r.Count())
	}
}

func TestAllSeqsMatchesLiveCount(t *testing.T) {
	r := NewRepository()
	r.Save("a", map[string]any{}, 1)
	r.Save("b", map[string]any{}, 1)
	r.Delete("a")
	seqs := r.AllSeqs()
	if len(seqs) != 1 {
		t.Fatalf("expected 1 live seq after delete, got %d", len(seqs))
	}
}
