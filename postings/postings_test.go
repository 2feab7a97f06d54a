package postings

import (
	"reflect"
	"testing"
)

func TestShardAddTokenSortedDeduped(t *testing.T) {
	s := NewShard()
	s.AddToken("term", "doc1", 5)
	s.AddToken("term", "doc1", 2)
	s.AddToken("term", "doc1", 5)
	s.AddToken("term", "doc1", 8)

	got := s.GetPosting("term")["doc1"]
	want := []int32{2, 5, 8}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if tf := s.TermFrequency("term", "doc1"); tf != 3 {
		t.Errorf("expected tf 3, got %d", tf)
	}
}

func TestShardDeleteDocument(t *testing.T) {
	s := NewShard()
	s.AddToken("a", "doc1", 0)
	s.AddToken("a", "doc2", 0)
	s.AddToken("b", "doc1", 1)

	s.DeleteDocument("doc1")

	if _, ok := s.GetPosting("a")["doc1"]; ok {
		t.Error("doc1 should be gone from posting a")
	}
	if _, ok := s.GetPosting("a")["doc2"]; !ok {
		t.Error("doc2 should remain")
	}
	if s.DocumentFrequency("b") != 0 {
		t.Error("token b should have no postings left")
	}
}

func TestShardSerializeDeterministic(t *testing.T) {
	s := NewShard()
	s.AddToken("zebra", "d2", 1)
	s.AddToken("apple", "d1", 3)
	s.AddToken("apple", "d1", 1)

	snap1 := s.Serialize()
	snap2 := s.Serialize()
	if !reflect.DeepEqual(snap1, snap2) {
		t.Fatal("expected deterministic serialization")
	}
	if snap1.Tokens[0].Token != "apple" || snap1.Tokens[1].Token != "zebra" {
		t.Fatalf("expected tokens sorted ascending, got %+v", snap1.Tokens)
	}
	if !reflect.DeepEqual(snap1.Tokens[0].Docs[0].Positions, []int32{1, 3}) {
		t.Fatalf("expected sorted positions, got %v", snap1.Tokens[0].Docs[0].Positions)
	}
}

func TestShardRoundTrip(t *testing.T) {
	s := NewShard()
	s.AddToken("a", "d1", 0)
	s.AddToken("a", "d2", 4)
	s.AddToken("b", "d1", 1)

	snap := s.Serialize()
	restored := NewShard()
	restored.Deserialize(snap)

	if !reflect.DeepEqual(restored.Serialize(), snap) {
		t.Fatal("round trip should be identity on observable state")
	}
}

func TestShardedSingleShardBypassesHash(t *testing.T) {
	idx := New(1)
	if idx.ShardOf("anything") != 0 {
		t.Error("single shard must always route to shard 0")
	}
}

func TestShardedDeleteBroadcasts(t *testing.T) {
	idx := New(4)
	idx.AddToken("alpha", "doc1", 0)
	idx.AddToken("beta", "doc1", 0)
	idx.AddToken("gamma", "doc1", 0)

	idx.DeleteDocument("doc1")

	for _, token := range []string{"alpha", "beta", "gamma"} {
		if idx.DocumentFrequency(token) != 0 {
			t.Errorf("expected token %q to have no postings after delete", token)
		}
	}
}

func TestShardedRoutingStable(t *testing.T) {
	idx := New(8)
	first := idx.ShardOf("consistent-token")
	for i := 0; i < 10; i++ {
		if idx.ShardOf("consistent-token") != first {
			t.Fatal("shard routing must be stable for a given token")
		}
	}
}

func TestShardedRoundTrip(t *testing.T) {
	idx := New(3)
	idx.AddToken("x", "d1", 0)
	idx.AddToken("y", "d2", 1)
	idx.AddToken("z", "d3", 2)

	snap := idx.Serialize()
	restored := New(3)
	restored.Deserialize(snap)

	if !reflect.DeepEqual(restored.Serialize(), snap) {
		t.Fatal("sharded round trip should be identity on observable state")
	}
}
