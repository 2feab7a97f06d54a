// Package persistence implements throttled, sharded, crash-safe
// snapshot durability for one or more indices (spec.md §4.7): a JSONL
// layout per index, an atomic temp-file-then-rename write protocol, a
// throttle policy coalescing overlapping triggers, and directory
// discovery/restore.
package persistence

import (
	"fmt"
	"path/filepath"
	"regexp"
)

// GlobalMetadata is global-metadata.json's shape (spec.md §6).
type GlobalMetadata struct {
	TotalDocs             int      `json:"totalDocs"`
	AvgDocLength          float64  `json:"avgDocLength"`
	LastFlush             int64    `json:"lastFlush"`
	DocumentCount         int      `json:"documentCount"`
	IndexCount            int      `json:"indexCount"`
	IsSharded             bool     `json:"isSharded"`
	NumShards             int      `json:"numShards"`
	EnableShardedStorage  bool     `json:"enableShardedStorage"`
	FacetFields           []string `json:"facetFields"`
}

// MappingsFile is mappings.json's shape.
type MappingsFile struct {
	Version    int                       `json:"version"`
	Properties map[string]map[string]any `json:"properties"`
}

// indexDir returns the root directory for indexName under dataRoot.
func indexDir(dataRoot, indexName string) string {
	return filepath.Join(dataRoot, indexName)
}

func shardDir(indexRoot string, shard int) string {
	return filepath.Join(indexRoot, fmt.Sprintf("shard-%d", shard))
}

var timestampSuffix = regexp.MustCompile(`-\d{13}$`)

// isTimestamped reports whether name ends in a 13-digit timestamp
// suffix, the marker discovery must skip (spec.md §4.7/§6).
func isTimestamped(name string) bool {
	return timestampSuffix.MatchString(name)
}
