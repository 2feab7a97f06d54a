package searchengine

import (
	"errors"
	"testing"

	"github.com/inquir-search/search-engine/ftserr"
	"github.com/inquir-search/search-engine/query"
)

func TestAddDocumentsRejectsMissingID(t *testing.T) {
	se := New("idx", DefaultConfig())
	_, err := se.AddDocuments([]map[string]any{{"n": "rick"}})
	if !errors.Is(err, ftserr.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestAddDocumentsReportsDuplicate(t *testing.T) {
	se := New("idx", DefaultConfig())
	res, err := se.AddDocuments([]map[string]any{{"id": "1", "n": "rick"}})
	if err != nil {
		t.Fatal(err)
	}
	if !res[0].WasAdded {
		t.Fatal("expected first add to report wasAdded=true")
	}

	res, err = se.AddDocuments([]map[string]any{{"id": "1", "n": "morty"}})
	if err != nil {
		t.Fatal(err)
	}
	if res[0].WasAdded {
		t.Fatal("expected re-add of existing id to report wasAdded=false")
	}
}

func TestDeleteUnknownDocumentNotFound(t *testing.T) {
	se := New("idx", DefaultConfig())
	err := se.DeleteDocument("missing")
	if !errors.Is(err, ftserr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddSearchDeleteLifecycle(t *testing.T) {
	se := New("idx", DefaultConfig())
	_, err := se.AddDocuments([]map[string]any{
		{"id": "1", "n": "rick morty"},
		{"id": "2", "n": "summer"},
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := se.Search(query.Query{Match: &query.MatchQuery{Field: "n", Value: "rick"}}, query.Context{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 {
		t.Fatalf("expected 1 hit, got %d", res.Total)
	}

	if err := se.DeleteDocument("1"); err != nil {
		t.Fatal(err)
	}

	res, err = se.Search(query.Query{Match: &query.MatchQuery{Field: "n", Value: "rick"}}, query.Context{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 0 {
		t.Fatalf("expected 0 hits after delete, got %d", res.Total)
	}
}

func TestReindexingDocumentReplacesPostings(t *testing.T) {
	se := New("idx", DefaultConfig())
	if _, err := se.AddDocuments([]map[string]any{{"id": "1", "n": "rick"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := se.AddDocuments([]map[string]any{{"id": "1", "n": "morty"}}); err != nil {
		t.Fatal(err)
	}

	res, err := se.Search(query.Query{Match: &query.MatchQuery{Field: "n", Value: "rick"}}, query.Context{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 0 {
		t.Fatalf("expected stale token to be gone after reindex, got %d hits", res.Total)
	}

	res, err = se.Search(query.Query{Match: &query.MatchQuery{Field: "n", Value: "morty"}}, query.Context{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 {
		t.Fatalf("expected updated token to match, got %d hits", res.Total)
	}
}

func TestStats(t *testing.T) {
	se := New("idx", DefaultConfig())
	if _, err := se.AddDocuments([]map[string]any{{"id": "1", "n": "rick morty"}}); err != nil {
		t.Fatal(err)
	}
	stats := se.Stats()
	if stats.IndexName != "idx" || stats.TotalDocs != 1 || stats.NumShards != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
