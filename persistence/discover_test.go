package persistence

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/inquir-search/search-engine/searchengine"
)

func TestDiscoverFindsValidIndicesAndSkipsOthers(t *testing.T) {
	dir := t.TempDir()

	se := searchengine.New("idx-a", searchengine.DefaultConfig())
	if err := Save(dir, se, false); err != nil {
		t.Fatal(err)
	}

	// A timestamped snapshot-rotation directory must be skipped.
	if err := os.MkdirAll(filepath.Join(dir, "idx-a-1700000000000"), 0o755); err != nil {
		t.Fatal(err)
	}
	// A directory with no metadata must be skipped.
	if err := os.MkdirAll(filepath.Join(dir, "not-an-index"), 0o755); err != nil {
		t.Fatal(err)
	}

	found, err := Discover(dir, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0] != "idx-a" {
		t.Fatalf("expected only idx-a discovered, got %v", found)
	}
}
