// Package config loads the engine's static YAML configuration, ambient
// per SPEC_FULL.md even though spec.md §1 treats config loading as an
// external collaborator.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level on-disk configuration shape.
type Config struct {
	DataDir string      `yaml:"dataDir"`
	Pool    PoolConfig  `yaml:"pool"`
	Index   IndexConfig `yaml:"index"`
	Log     LogConfig   `yaml:"log"`
}

// PoolConfig configures the worker-pool coordinator (spec.md §4.6).
type PoolConfig struct {
	Workers        int           `yaml:"workers"`
	TaskTimeout    time.Duration `yaml:"taskTimeout"`
	SyncInterval   time.Duration `yaml:"syncInterval"`
	QueueWatermark int           `yaml:"queueWatermark"`
}

// IndexConfig configures default new-index behavior.
type IndexConfig struct {
	NumShards      int  `yaml:"numShards"`
	ShardedStorage bool `yaml:"shardedStorage"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the baseline configuration used when no file is
// supplied.
func Default() Config {
	return Config{
		DataDir: "./data",
		Pool: PoolConfig{
			Workers:        4,
			TaskTimeout:    30 * time.Second,
			SyncInterval:   10 * time.Second,
			QueueWatermark: 100,
		},
		Index: IndexConfig{
			NumShards:      1,
			ShardedStorage: false,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads and parses the YAML file at path, applying Default()
// first so unset fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
