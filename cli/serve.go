package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/inquir-search/search-engine/config"
	"github.com/inquir-search/search-engine/persistence"
	"github.com/inquir-search/search-engine/pool"
)

// NewServe builds the "serve" subcommand: a thin loop that reads
// newline-delimited JSON pool.Request envelopes from stdin and writes
// newline-delimited JSON pool.Result (or error) envelopes to stdout.
// It contains no query logic of its own; it only proves the Operation
// surface is embeddable from outside the process.
func NewServe() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the search coordinator, speaking line-delimited JSON operations on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	return cmd
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		cfg = config.Default()
		if configPath != "" {
			fmt.Fprintln(os.Stderr, infoStyle.Render(fmt.Sprintf("[INFO] no config at %s, using defaults", configPath)))
		}
	}

	logger := zerolog.Nop()
	if cfg.Log.Level != "" {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		if lvl, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
			logger = logger.Level(lvl)
		}
	}

	names, err := persistence.Discover(cfg.DataDir, logger)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discover existing indices: %w", err)
	}

	poolCfg := pool.DefaultConfig()
	poolCfg.Workers = cfg.Pool.Workers
	poolCfg.TaskTimeout = cfg.Pool.TaskTimeout
	poolCfg.SyncInterval = cfg.Pool.SyncInterval
	poolCfg.QueueWatermark = cfg.Pool.QueueWatermark
	poolCfg.Logger = logger

	// The throttle needs a live handle on the coordinator's engines
	// (via pool.Engines) and the coordinator needs the throttle as its
	// Snapshotter, so the two are wired through this indirection rather
	// than constructing either one twice.
	snap := &lazySnapshotter{}
	poolCfg.Snapshotter = snap
	wp := pool.New(poolCfg)
	snap.target = persistence.NewThrottle(cfg.DataDir, cfg.Index.ShardedStorage, wp, logger)

	for _, name := range names {
		se, err := persistence.Load(cfg.DataDir, name)
		if err != nil {
			logger.Warn().Str("index", name).Err(err).Msg("failed to restore index, skipping")
			continue
		}
		if _, err := wp.Submit(ctx, pool.Request{InitFromSnap: &pool.InitFromSnapOp{
			IndexName: name, Snapshot: se,
		}}); err != nil {
			logger.Warn().Str("index", name).Err(err).Msg("failed to register restored index")
		}
	}

	return ndjsonLoop(ctx, wp, os.Stdin, os.Stdout)
}

// lazySnapshotter exists because persistence.NewThrottle needs a
// reference to the already-constructed WorkerPool (so it can read
// engines back out to snapshot them), while the WorkerPool needs a
// Snapshotter at construction time. target is set once, immediately
// after both sides exist, before any request is submitted.
type lazySnapshotter struct {
	target pool.Snapshotter
}

func (s *lazySnapshotter) NotifyWrite(indexName string, pendingDocs int) {
	if s.target != nil {
		s.target.NotifyWrite(indexName, pendingDocs)
	}
}

func (s *lazySnapshotter) Flush(indexName string) error {
	if s.target != nil {
		return s.target.Flush(indexName)
	}
	return nil
}

func ndjsonLoop(ctx context.Context, wp *pool.WorkerPool, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req pool.Request
		if err := json.Unmarshal(line, &req); err != nil {
			_ = enc.Encode(errorEnvelope(fmt.Errorf("parse operation: %w", err)))
			continue
		}
		res, err := wp.Submit(ctx, req)
		if err != nil {
			_ = enc.Encode(errorEnvelope(err))
			continue
		}
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return scanner.Err()
}

func errorEnvelope(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}
