package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/inquir-search/search-engine/query"
	"github.com/inquir-search/search-engine/searchengine"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	se := searchengine.New("idx", searchengine.DefaultConfig())
	if _, err := se.AddDocuments([]map[string]any{
		{"id": "1", "n": "rick morty"},
		{"id": "2", "n": "summer"},
	}); err != nil {
		t.Fatal(err)
	}

	if err := Save(dir, se, false); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	restored, err := Load(dir, "idx")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	before, err := se.Search(query.Query{Match: &query.MatchQuery{Field: "n", Value: "rick"}}, query.Context{})
	if err != nil {
		t.Fatal(err)
	}
	after, err := restored.Search(query.Query{Match: &query.MatchQuery{Field: "n", Value: "rick"}}, query.Context{})
	if err != nil {
		t.Fatal(err)
	}
	if before.Total != after.Total || after.Total != 1 {
		t.Fatalf("expected identical hit count before/after restore, got before=%d after=%d", before.Total, after.Total)
	}
}

func TestSaveLoadRoundTripPreservesFacetFields(t *testing.T) {
	dir := t.TempDir()

	se := searchengine.New("idx", searchengine.Config{FacetFields: []string{"status", "category"}})
	if _, err := se.AddDocuments([]map[string]any{
		{"id": "1", "n": "rick", "status": "active", "category": "a"},
	}); err != nil {
		t.Fatal(err)
	}

	if err := Save(dir, se, false); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	restored, err := Load(dir, "idx")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	got := restored.FacetFields()
	want := map[string]bool{"status": true, "category": true}
	if len(got) != len(want) {
		t.Fatalf("expected restored facet fields %v, got %v", want, got)
	}
	for _, f := range got {
		if !want[f] {
			t.Errorf("unexpected restored facet field %q", f)
		}
	}
}

func TestSaveShardedRoundTrip(t *testing.T) {
	dir := t.TempDir()

	se := searchengine.New("idx", searchengine.Config{NumShards: 3})
	if _, err := se.AddDocuments([]map[string]any{
		{"id": "1", "n": "alpha"},
		{"id": "2", "n": "beta"},
		{"id": "3", "n": "gamma"},
	}); err != nil {
		t.Fatal(err)
	}

	if err := Save(dir, se, true); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for shard := 0; shard < 3; shard++ {
		path := filepath.Join(dir, "idx", filepath.Base(shardDir("", shard)), "documents.jsonl")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected shard %d documents.jsonl to exist: %v", shard, err)
		}
	}

	restored, err := Load(dir, "idx")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	res, err := restored.Search(query.Query{MatchAll: &query.MatchAllQuery{}}, query.Context{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 3 {
		t.Fatalf("expected 3 restored documents, got %d", res.Total)
	}
}
