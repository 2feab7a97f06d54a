package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Discover scans dataRoot for index directories: any immediate
// subdirectory whose name does not end in a 13-digit timestamp suffix
// and which contains a readable global-metadata.json (spec.md §4.7/§6
// "Discovery rules"). Unparseable metadata is skipped with a log
// entry, never an error.
func Discover(dataRoot string, log zerolog.Logger) ([]string, error) {
	entries, err := os.ReadDir(dataRoot)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || isTimestamped(entry.Name()) {
			continue
		}
		metaPath := filepath.Join(dataRoot, entry.Name(), "global-metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}
		var meta GlobalMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			log.Warn().Str("index", entry.Name()).Err(err).Msg("skipping index with unparseable metadata")
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}
