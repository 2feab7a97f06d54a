package pool

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/inquir-search/search-engine/ftserr"
	"github.com/inquir-search/search-engine/searchengine"
)

const (
	defaultWorkers        = 4
	defaultTaskTimeout    = 30 * time.Second
	defaultSyncInterval   = 10 * time.Second
	defaultQueueWatermark = 100
)

// Snapshotter is the persistence-layer hook a WorkerPool notifies
// after every acknowledged write, so it can run its own throttle
// policy (spec.md §4.7) without this package importing persistence
// directly. Flush is the explicit, non-throttled counterpart:
// unlike NotifyWrite (which may be silently coalesced and whose
// failures are only logged), Flush must run immediately and its
// error must propagate to the caller (spec.md §7 "write errors
// propagate to the triggering flush").
type Snapshotter interface {
	NotifyWrite(indexName string, pendingDocs int)
	Flush(indexName string) error
}

type noopSnapshotter struct{}

func (noopSnapshotter) NotifyWrite(string, int) {}
func (noopSnapshotter) Flush(string) error      { return nil }

// worker owns one replica SearchEngine per index and a vector clock
// that syncWorkers advances to the oplog entries it has replayed into
// the worker; chunks dispatched to the worker do not advance it.
type worker struct {
	id       string
	mu       sync.Mutex
	engines  map[string]*searchengine.SearchEngine
	clock    VectorClock
	inFlight int
}

// Config configures a WorkerPool.
type Config struct {
	Workers        int
	TaskTimeout    time.Duration
	SyncInterval   time.Duration
	QueueWatermark int
	Snapshotter    Snapshotter
	Logger         zerolog.Logger
}

// DefaultConfig returns the baseline pool configuration.
func DefaultConfig() Config {
	return Config{
		Workers:        defaultWorkers,
		TaskTimeout:    defaultTaskTimeout,
		SyncInterval:   defaultSyncInterval,
		QueueWatermark: defaultQueueWatermark,
		Snapshotter:    noopSnapshotter{},
		Logger:         zerolog.Nop(),
	}
}

// WorkerPool is the coordinator of spec.md §4.6: it fans ingestion out
// across a fixed set of workers, mirrors every write into a unified
// store, maintains an idempotent CRDT operation log, and answers reads
// against the unified store (the canonical read path chosen for the
// open question in spec.md §9).
type WorkerPool struct {
	cfg Config

	mu      sync.RWMutex
	unified map[string]*searchengine.SearchEngine
	facets  map[string][]string
	numSh   map[string]int

	workers   []*worker
	nextRR    int
	oplog     *OperationLog
	mainClock VectorClock

	queueLen int32

	shutdownOnce sync.Once
	done         chan struct{}
}

// New constructs a WorkerPool with cfg.Workers workers (defaulting to
// 4 when unset).
func New(cfg Config) *WorkerPool {
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = defaultTaskTimeout
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = defaultSyncInterval
	}
	if cfg.QueueWatermark <= 0 {
		cfg.QueueWatermark = defaultQueueWatermark
	}
	if cfg.Snapshotter == nil {
		cfg.Snapshotter = noopSnapshotter{}
	}

	workers := make([]*worker, cfg.Workers)
	for i := range workers {
		workers[i] = &worker{
			id:      fmt.Sprintf("worker-%d", i),
			engines: make(map[string]*searchengine.SearchEngine),
			clock:   VectorClock{},
		}
	}

	p := &WorkerPool{
		cfg:       cfg,
		unified:   make(map[string]*searchengine.SearchEngine),
		facets:    make(map[string][]string),
		numSh:     make(map[string]int),
		workers:   workers,
		oplog:     NewOperationLog(),
		mainClock: VectorClock{},
		done:      make(chan struct{}),
	}
	p.startSyncLoop()
	return p
}

// startSyncLoop runs the spec.md §4.6 "Sync" reconciliation: every
// SyncInterval, each worker pulls operations newer than its own vector
// clock from the oplog and replays them into its replica engines, so a
// worker that never saw a chunk dispatched to a different worker still
// converges. Reads never depend on this (they go through the unified
// store), but the per-worker replicas would otherwise silently drift.
func (p *WorkerPool) startSyncLoop() {
	ticker := time.NewTicker(p.cfg.SyncInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-p.done:
				return
			case <-ticker.C:
				p.syncWorkers()
			}
		}
	}()
}

// syncWorkers replays every oplog entry newer than a worker's clock
// into that worker's per-index replicas, then advances the worker's
// clock to reflect what it just applied.
func (p *WorkerPool) syncWorkers() {
	p.mu.RLock()
	numSh := make(map[string]int, len(p.numSh))
	for k, v := range p.numSh {
		numSh[k] = v
	}
	facets := make(map[string][]string, len(p.facets))
	for k, v := range p.facets {
		facets[k] = v
	}
	p.mu.RUnlock()

	for _, w := range p.workers {
		w.mu.Lock()
		cursor := w.clock.Clone()
		w.mu.Unlock()

		ops := p.oplog.Since(cursor)
		if len(ops) == 0 {
			continue
		}

		for _, op := range ops {
			engine := w.engineFor(op.IndexName, numSh[op.IndexName], facets[op.IndexName])
			switch op.Type {
			case OpAdd:
				if docs, ok := op.Data["documents"].([]map[string]any); ok && len(docs) > 0 {
					_, _ = engine.AddDocuments(docs)
				}
			case OpDelete:
				if docID, ok := op.Data["docId"].(string); ok {
					_ = engine.DeleteDocument(docID)
				}
			}
		}

		w.mu.Lock()
		if w.clock == nil {
			w.clock = VectorClock{}
		}
		for _, op := range ops {
			for name, ts := range op.VectorClock {
				if ts > w.clock[name] {
					w.clock[name] = ts
				}
			}
		}
		w.mu.Unlock()
	}
}

// QueueLength reports the coordinator's current in-flight task count,
// for backpressure observability (spec.md §5).
func (p *WorkerPool) QueueLength() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return int(p.queueLen)
}

// Healthy reports whether the coordinator's in-flight queue is at or
// below its configured backpressure watermark (spec.md §5
// "Backpressure"). Submit logs a warning on every request once the
// watermark is exceeded; Healthy lets a caller poll the same signal.
func (p *WorkerPool) Healthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return int(p.queueLen) <= p.cfg.QueueWatermark
}

// pickWorker returns the worker with the lowest in-flight count,
// breaking ties by round-robin order (spec.md §4.6 dispatch rule).
func (p *WorkerPool) pickWorker() *worker {
	p.mu.Lock()
	defer p.mu.Unlock()

	best := -1
	bestLoad := int(^uint(0) >> 1)
	for i := 0; i < len(p.workers); i++ {
		idx := (p.nextRR + i) % len(p.workers)
		w := p.workers[idx]
		w.mu.Lock()
		load := w.inFlight
		w.mu.Unlock()
		if load < bestLoad {
			bestLoad = load
			best = idx
		}
	}
	p.nextRR = (best + 1) % len(p.workers)
	return p.workers[best]
}

func (p *WorkerPool) engineFor(idx string) *searchengine.SearchEngine {
	p.mu.Lock()
	defer p.mu.Unlock()
	se, ok := p.unified[idx]
	if !ok {
		numShards := p.numSh[idx]
		se = searchengine.New(idx, searchengine.Config{NumShards: numShards, FacetFields: p.facets[idx], Logger: p.cfg.Logger})
		p.unified[idx] = se
	}
	return se
}

func (w *worker) engineFor(idx string, numShards int, facetFields []string) *searchengine.SearchEngine {
	w.mu.Lock()
	defer w.mu.Unlock()
	se, ok := w.engines[idx]
	if !ok {
		se = searchengine.New(idx, searchengine.Config{NumShards: numShards, FacetFields: facetFields})
		w.engines[idx] = se
	}
	return se
}

// chunkSize implements the batch-partitioning formula of spec.md §4.6
// step 4: max(10, min(50, ceil(|batch|/W))).
func chunkSize(batchLen, workers int) int {
	if workers < 1 {
		workers = 1
	}
	ideal := (batchLen + workers - 1) / workers
	if ideal > 50 {
		ideal = 50
	}
	if ideal < 10 {
		ideal = 10
	}
	return ideal
}

// Submit dispatches req through the coordinator and blocks until the
// operation completes, times out, or ctx is cancelled. Write
// operations are deduplicated by opId via the operation log, chunked
// across workers, mirrored into the unified store, and logged; read
// operations execute directly against the unified store.
func (p *WorkerPool) Submit(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.TaskTimeout)
	defer cancel()

	p.mu.Lock()
	p.queueLen++
	queueLen := p.queueLen
	watermark := p.cfg.QueueWatermark
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.queueLen--
		p.mu.Unlock()
	}()

	if int(queueLen) > watermark {
		p.cfg.Logger.Warn().
			Int("queueLen", int(queueLen)).
			Int("watermark", watermark).
			Msg("coordinator queue exceeds backpressure watermark")
	}

	type outcome struct {
		res *Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := p.dispatch(ctx, req)
		ch <- outcome{res, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("operation exceeded deadline: %w", ftserr.ErrTimeout)
	case o := <-ch:
		return o.res, o.err
	}
}

func (p *WorkerPool) dispatch(ctx context.Context, req Request) (*Result, error) {
	switch {
	case req.InitEngine != nil:
		return p.handleInitEngine(req.InitEngine)
	case req.InitFromSnap != nil:
		return p.handleInitFromSnap(req.InitFromSnap)
	case req.AddDocuments != nil:
		return p.handleAddDocuments(ctx, req.AddDocuments)
	case req.DeleteDocument != nil:
		return p.handleDeleteDocument(req.DeleteDocument)
	case req.Search != nil:
		return p.handleSearch(req.Search)
	case req.GetFacets != nil:
		return p.handleGetFacets(req.GetFacets)
	case req.GetStats != nil:
		return p.handleGetStats(req.GetStats)
	case req.Flush != nil:
		return p.handleFlush(req.Flush)
	case req.DeleteIndex != nil:
		return p.handleDeleteIndex(req.DeleteIndex)
	case req.ListIndices != nil:
		return p.handleListIndices()
	default:
		return nil, fmt.Errorf("empty operation request: %w", ftserr.ErrInvalidParameter)
	}
}

func (p *WorkerPool) handleInitEngine(op *InitEngineOp) (*Result, error) {
	p.mu.Lock()
	if op.NumShards > 0 {
		p.numSh[op.IndexName] = op.NumShards
	}
	if op.FacetFields != nil {
		p.facets[op.IndexName] = op.FacetFields
	}
	p.mu.Unlock()
	p.engineFor(op.IndexName)
	return &Result{}, nil
}

func (p *WorkerPool) handleInitFromSnap(op *InitFromSnapOp) (*Result, error) {
	if op.Snapshot == nil {
		return nil, fmt.Errorf("InitFromSnap missing restored engine: %w", ftserr.ErrInvalidParameter)
	}
	p.mu.Lock()
	p.unified[op.IndexName] = op.Snapshot
	if op.FacetFields != nil {
		p.facets[op.IndexName] = op.FacetFields
	}
	p.mu.Unlock()
	return &Result{}, nil
}

func (p *WorkerPool) handleAddDocuments(ctx context.Context, op *AddDocumentsOp) (*Result, error) {
	opID := NewOpID()
	if p.oplog.Contains(opID) {
		return &Result{}, nil
	}

	numShards := p.numSh[op.IndexName]
	facetFields := p.facets[op.IndexName]

	size := chunkSize(len(op.Documents), len(p.workers))
	chunks := chunkDocuments(op.Documents, size)

	results := make([][]searchengine.AddResult, len(chunks))
	g, _ := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		w := p.pickWorker()
		w.mu.Lock()
		w.inFlight++
		w.mu.Unlock()
		g.Go(func() error {
			defer func() {
				w.mu.Lock()
				w.inFlight--
				w.mu.Unlock()
			}()
			engine := w.engineFor(op.IndexName, numShards, facetFields)
			res, err := engine.AddDocuments(chunk)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	unified := p.engineFor(op.IndexName)
	var flat []searchengine.AddResult
	for _, r := range results {
		flat = append(flat, r...)
	}
	if _, err := unified.AddDocuments(op.Documents); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.mainClock.Increment("main")
	clock := p.mainClock.Clone()
	p.mu.Unlock()

	p.oplog.Append(Operation{
		OpID:        opID,
		Type:        OpAdd,
		IndexName:   op.IndexName,
		Timestamp:   time.Now(),
		VectorClock: clock,
		Data:        map[string]any{"documents": op.Documents},
	})

	p.cfg.Snapshotter.NotifyWrite(op.IndexName, len(op.Documents))

	return &Result{AddResults: flat}, nil
}

func chunkDocuments(docs []map[string]any, size int) [][]map[string]any {
	if len(docs) == 0 {
		return nil
	}
	var chunks [][]map[string]any
	for i := 0; i < len(docs); i += size {
		end := i + size
		if end > len(docs) {
			end = len(docs)
		}
		chunks = append(chunks, docs[i:end])
	}
	return chunks
}

func (p *WorkerPool) handleDeleteDocument(op *DeleteDocumentOp) (*Result, error) {
	unified := p.engineFor(op.IndexName)
	if err := unified.DeleteDocument(op.DocID); err != nil {
		return nil, err
	}

	for _, w := range p.workers {
		w.mu.Lock()
		engine, ok := w.engines[op.IndexName]
		w.mu.Unlock()
		if ok {
			_ = engine.DeleteDocument(op.DocID)
		}
	}

	opID := NewOpID()
	p.mu.Lock()
	p.mainClock.Increment("main")
	clock := p.mainClock.Clone()
	p.mu.Unlock()
	p.oplog.Append(Operation{
		OpID: opID, Type: OpDelete, IndexName: op.IndexName, DocumentID: op.DocID,
		Timestamp: time.Now(), VectorClock: clock,
		Data: map[string]any{"docId": op.DocID},
	})
	p.cfg.Snapshotter.NotifyWrite(op.IndexName, 1)

	return &Result{}, nil
}

func (p *WorkerPool) handleSearch(op *SearchOp) (*Result, error) {
	p.mu.RLock()
	unified, ok := p.unified[op.IndexName]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("index %q: %w", op.IndexName, ftserr.ErrNotFound)
	}
	res, err := unified.Search(op.Query, op.Context)
	if err != nil {
		return nil, err
	}
	return &Result{Search: res}, nil
}

func (p *WorkerPool) handleGetFacets(op *GetFacetsOp) (*Result, error) {
	p.mu.RLock()
	unified, ok := p.unified[op.IndexName]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("index %q: %w", op.IndexName, ftserr.ErrNotFound)
	}
	res, err := unified.Search(matchAllQuery(), queryContextAll())
	if err != nil {
		return nil, err
	}
	return &Result{Facets: res}, nil
}

func (p *WorkerPool) handleGetStats(op *GetStatsOp) (*Result, error) {
	p.mu.RLock()
	unified, ok := p.unified[op.IndexName]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("index %q: %w", op.IndexName, ftserr.ErrNotFound)
	}
	stats := unified.Stats()
	return &Result{Stats: &stats}, nil
}

func (p *WorkerPool) handleFlush(op *FlushOp) (*Result, error) {
	p.mu.RLock()
	_, ok := p.unified[op.IndexName]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("index %q: %w", op.IndexName, ftserr.ErrNotFound)
	}
	if err := p.cfg.Snapshotter.Flush(op.IndexName); err != nil {
		return nil, err
	}
	return &Result{}, nil
}

func (p *WorkerPool) handleDeleteIndex(op *DeleteIndexOp) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.unified[op.IndexName]; !ok {
		return nil, fmt.Errorf("index %q: %w", op.IndexName, ftserr.ErrNotFound)
	}
	delete(p.unified, op.IndexName)
	delete(p.facets, op.IndexName)
	delete(p.numSh, op.IndexName)
	for _, w := range p.workers {
		w.mu.Lock()
		delete(w.engines, op.IndexName)
		w.mu.Unlock()
	}
	return &Result{}, nil
}

func (p *WorkerPool) handleListIndices() (*Result, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.unified))
	for name := range p.unified {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Result{Indices: names}, nil
}

// Engine returns the unified-store SearchEngine for idx, if created.
// Used by the persistence layer to snapshot/restore state directly.
func (p *WorkerPool) Engine(idx string) (*searchengine.SearchEngine, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	se, ok := p.unified[idx]
	return se, ok
}

// Shutdown stops the periodic sync loop and waits up to grace for the
// in-flight queue to drain. It does not cancel in-flight tasks, and
// Submit still accepts requests after it returns.
func (p *WorkerPool) Shutdown(grace time.Duration) {
	p.shutdownOnce.Do(func() {
		close(p.done)
	})
	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if p.QueueLength() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}
