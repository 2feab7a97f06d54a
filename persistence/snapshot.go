package persistence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/inquir-search/search-engine/document"
	"github.com/inquir-search/search-engine/ftserr"
	"github.com/inquir-search/search-engine/mapping"
	"github.com/inquir-search/search-engine/postings"
	"github.com/inquir-search/search-engine/searchengine"
)

// Snapshot is the combined in-memory state of spec.md §3, written as
// snapshot.json and also used directly for sharded aggregation.
type Snapshot struct {
	Documents     map[string]map[string]any `json:"documents"`
	DocLengths    map[string]int            `json:"docLengths"`
	InvertedIndex []postings.SerializedShard `json:"invertedIndex"`
	TotalDocs     int                       `json:"totalDocs"`
	AvgDocLength  float64                   `json:"avgDocLength"`
	Mappings      MappingsFile              `json:"mappings"`
	FacetFields   []string                  `json:"facetFields"`
}

// buildSnapshot captures se's current state.
func buildSnapshot(se *searchengine.SearchEngine) Snapshot {
	repo := se.Repository()
	snap := repo.Snapshot()

	documents := make(map[string]map[string]any, len(snap))
	docLengths := make(map[string]int, len(snap))
	for id, rec := range snap {
		documents[id] = rec.Fields
		docLengths[id] = rec.Length
	}

	props := make(map[string]map[string]any)
	for field, spec := range se.Mappings().Snapshot() {
		props[field] = map[string]any{"type": string(spec.Type)}
	}

	return Snapshot{
		Documents:     documents,
		DocLengths:    docLengths,
		InvertedIndex: se.Index().Serialize(),
		TotalDocs:     repo.Count(),
		AvgDocLength:  repo.AvgLength(),
		Mappings:      MappingsFile{Version: se.Mappings().Version(), Properties: props},
		FacetFields:   se.FacetFields(),
	}
}

// Save writes a full, atomic snapshot of se to dataRoot/indexName. When
// sharded is true, documents/index/doc_lengths are partitioned into
// shard-k/ subdirectories; the flat layout is used otherwise. The
// write protocol follows spec.md §4.7 option (b): write every file to
// a temp path, then rename global-metadata.json into place last so a
// reader never observes a partial snapshot.
func Save(dataRoot string, se *searchengine.SearchEngine, sharded bool) error {
	root := indexDir(dataRoot, se.Name())
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w: %v", ftserr.ErrPersistenceIO, err)
	}

	snap := buildSnapshot(se)

	if err := writeJSON(filepath.Join(root, "mappings.json"), snap.Mappings); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(root, "snapshot.json"), snap); err != nil {
		return err
	}

	numShards := se.Index().NumShards()
	if sharded && numShards > 1 {
		if err := saveSharded(root, snap, numShards); err != nil {
			return err
		}
	} else {
		if err := saveFlat(root, snap); err != nil {
			return err
		}
	}

	meta := GlobalMetadata{
		TotalDocs:            snap.TotalDocs,
		AvgDocLength:         snap.AvgDocLength,
		LastFlush:            time.Now().UnixMilli(),
		DocumentCount:        len(snap.Documents),
		IndexCount:           1,
		IsSharded:            sharded && numShards > 1,
		NumShards:            numShards,
		EnableShardedStorage: sharded,
		FacetFields:          snap.FacetFields,
	}
	return writeJSONAtomicLast(filepath.Join(root, "global-metadata.json"), meta)
}

func saveFlat(root string, snap Snapshot) error {
	if err := writeDocumentsJSONL(filepath.Join(root, "documents.jsonl"), snap.Documents); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(root, "index.jsonl"), snap.InvertedIndex); err != nil {
		return err
	}
	return writeJSON(filepath.Join(root, "doc_lengths.jsonl"), snap.DocLengths)
}

func saveSharded(root string, snap Snapshot, numShards int) error {
	byShard := make([]map[string]map[string]any, numShards)
	lengthsByShard := make([]map[string]int, numShards)
	for i := range byShard {
		byShard[i] = make(map[string]map[string]any)
		lengthsByShard[i] = make(map[string]int)
	}
	i := 0
	for id, fields := range snap.Documents {
		shard := i % numShards
		byShard[shard][id] = fields
		lengthsByShard[shard][id] = snap.DocLengths[id]
		i++
	}

	for shard := 0; shard < numShards; shard++ {
		dir := shardDir(root, shard)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create shard dir: %w: %v", ftserr.ErrPersistenceIO, err)
		}
		if err := writeDocumentsJSONL(filepath.Join(dir, "documents.jsonl"), byShard[shard]); err != nil {
			return err
		}
		idxShard := postings.SerializedShard{}
		if shard < len(snap.InvertedIndex) {
			idxShard = snap.InvertedIndex[shard]
		}
		if err := writeJSON(filepath.Join(dir, "index.jsonl"), idxShard); err != nil {
			return err
		}
		if err := writeJSON(filepath.Join(dir, "doc_lengths.jsonl"), lengthsByShard[shard]); err != nil {
			return err
		}
		meta := map[string]any{"shard": shard, "documentCount": len(byShard[shard])}
		if err := writeJSON(filepath.Join(dir, "metadata.json"), meta); err != nil {
			return err
		}
	}
	return nil
}

func writeDocumentsJSONL(path string, documents map[string]map[string]any) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w: %v", path, ftserr.ErrPersistenceIO, err)
	}
	w := bufio.NewWriter(f)
	for _, doc := range documents {
		line, err := json.Marshal(doc)
		if err != nil {
			f.Close()
			return fmt.Errorf("marshal document: %w: %v", ftserr.ErrPersistenceIO, err)
		}
		if _, err := w.Write(line); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w: %v", path, ftserr.ErrPersistenceIO, err)
		}
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w: %v", path, ftserr.ErrPersistenceIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w: %v", path, ftserr.ErrPersistenceIO, err)
	}
	return os.Rename(tmp, path)
}

func writeJSON(path string, v any) error {
	tmp := path + ".tmp"
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w: %v", path, ftserr.ErrPersistenceIO, err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w: %v", path, ftserr.ErrPersistenceIO, err)
	}
	return os.Rename(tmp, path)
}

// writeJSONAtomicLast writes path via the same temp+rename protocol;
// it is a distinct name only to make the "this file must land last"
// ordering requirement visible at call sites.
func writeJSONAtomicLast(path string, v any) error {
	return writeJSON(path, v)
}

// Load reads the snapshot for indexName back into a fresh
// SearchEngine, rebuilding its in-memory state before it accepts
// writes (spec.md §4.7 "Restore rebuilds the in-memory state").
func Load(dataRoot, indexName string) (*searchengine.SearchEngine, error) {
	root := indexDir(dataRoot, indexName)

	metaBytes, err := os.ReadFile(filepath.Join(root, "global-metadata.json"))
	if err != nil {
		return nil, fmt.Errorf("read global-metadata.json: %w: %v", ftserr.ErrPersistenceIO, err)
	}
	var meta GlobalMetadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("parse global-metadata.json: %w: %v", ftserr.ErrPersistenceIO, err)
	}

	snap, err := loadSnapshot(root, meta)
	if err != nil {
		return nil, err
	}

	se := searchengine.New(indexName, searchengine.Config{NumShards: meta.NumShards, FacetFields: meta.FacetFields})
	restoreMappings(se.Mappings(), snap.Mappings)

	ids := make([]string, 0, len(snap.Documents))
	records := make(map[string]*document.Record, len(snap.Documents))
	for id, fields := range snap.Documents {
		ids = append(ids, id)
		records[id] = &document.Record{ID: id, Fields: fields, Length: snap.DocLengths[id]}
	}
	se.Repository().Restore(records, sortedIDs(ids))
	se.Index().Deserialize(snap.InvertedIndex)

	return se, nil
}

func loadSnapshot(root string, meta GlobalMetadata) (Snapshot, error) {
	combined := filepath.Join(root, "snapshot.json")
	if data, err := os.ReadFile(combined); err == nil && len(data) > 0 {
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err == nil {
			return snap, nil
		}
	}

	if meta.IsSharded {
		return loadShardedSnapshot(root, meta.NumShards)
	}
	return loadFlatSnapshot(root)
}

func loadFlatSnapshot(root string) (Snapshot, error) {
	documents, err := readDocumentsJSONL(filepath.Join(root, "documents.jsonl"))
	if err != nil {
		return Snapshot{}, err
	}
	var index []postings.SerializedShard
	if err := readJSON(filepath.Join(root, "index.jsonl"), &index); err != nil {
		return Snapshot{}, err
	}
	var lengths map[string]int
	if err := readJSON(filepath.Join(root, "doc_lengths.jsonl"), &lengths); err != nil {
		return Snapshot{}, err
	}
	var mappings MappingsFile
	readJSON(filepath.Join(root, "mappings.json"), &mappings) // best-effort
	return Snapshot{Documents: documents, DocLengths: lengths, InvertedIndex: index, Mappings: mappings}, nil
}

func loadShardedSnapshot(root string, numShards int) (Snapshot, error) {
	documents := make(map[string]map[string]any)
	lengths := make(map[string]int)
	shards := make([]postings.SerializedShard, numShards)

	for shard := 0; shard < numShards; shard++ {
		dir := shardDir(root, shard)
		docs, err := readDocumentsJSONL(filepath.Join(dir, "documents.jsonl"))
		if err != nil {
			continue // missing shard data: skip rather than fail the whole restore
		}
		for id, fields := range docs {
			documents[id] = fields
		}
		var idxShard postings.SerializedShard
		if err := readJSON(filepath.Join(dir, "index.jsonl"), &idxShard); err == nil {
			shards[shard] = idxShard
		}
	}
	var mappings MappingsFile
	readJSON(filepath.Join(root, "mappings.json"), &mappings)
	return Snapshot{Documents: documents, DocLengths: lengths, InvertedIndex: shards, Mappings: mappings}, nil
}

func readDocumentsJSONL(path string) (map[string]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", path, ftserr.ErrPersistenceIO, err)
	}
	defer f.Close()

	out := make(map[string]map[string]any)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal(line, &doc); err != nil {
			continue // skip unparseable lines rather than fail restore
		}
		id, _ := doc["id"].(string)
		if id == "" {
			continue
		}
		out[id] = doc
	}
	return out, scanner.Err()
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w: %v", path, ftserr.ErrPersistenceIO, err)
	}
	return json.Unmarshal(data, v)
}

func restoreMappings(m *mapping.Mappings, file MappingsFile) {
	props := make(map[string]mapping.FieldSpec, len(file.Properties))
	for field, raw := range file.Properties {
		t, _ := raw["type"].(string)
		props[field] = mapping.FieldSpec{Type: mapping.FieldType(t)}
	}
	m.Restore(props, file.Version)
}

func sortedIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}
