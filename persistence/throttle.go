package persistence

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/inquir-search/search-engine/searchengine"
)

const (
	minSnapshotInterval = 10 * time.Second
	maxSnapshotDelay    = 5 * time.Second
	immediateThreshold  = 100
)

// indexState is the per-index throttle bookkeeping of spec.md §4.7:
// "{timer, pendingDocs, lastSnapshotTs}".
type indexState struct {
	mu             sync.Mutex
	pendingDocs    int
	lastSnapshotTs time.Time
	timer          *time.Timer
}

// Engines resolves the live SearchEngine for an index name, so the
// Throttle can snapshot it without importing the coordinator package.
type Engines interface {
	Engine(indexName string) (*searchengine.SearchEngine, bool)
}

// Throttle implements pool.Snapshotter: it batches NotifyWrite calls
// per index and fires Save on the policy of spec.md §4.7 — immediate
// if pendingDocs >= 100, otherwise delayed until either the minimum
// interval has elapsed or 5s have passed, coalescing overlapping
// triggers into a single pending timer per index.
type Throttle struct {
	dataRoot string
	sharded  bool
	engines  Engines
	log      zerolog.Logger

	mu     sync.Mutex
	states map[string]*indexState
}

// NewThrottle constructs a Throttle writing snapshots under dataRoot,
// resolving live engines from engines.
func NewThrottle(dataRoot string, sharded bool, engines Engines, log zerolog.Logger) *Throttle {
	return &Throttle{
		dataRoot: dataRoot,
		sharded:  sharded,
		engines:  engines,
		log:      log,
		states:   make(map[string]*indexState),
	}
}

func (t *Throttle) stateFor(indexName string) *indexState {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.states[indexName]
	if !ok {
		s = &indexState{}
		t.states[indexName] = s
	}
	return s
}

// NotifyWrite records pendingDocs more pending writes for indexName
// and schedules (or reschedules) a snapshot per the throttle policy.
func (t *Throttle) NotifyWrite(indexName string, pendingDocs int) {
	s := t.stateFor(indexName)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendingDocs += pendingDocs

	if s.pendingDocs >= immediateThreshold {
		t.fireLocked(indexName, s)
		return
	}

	sinceLast := time.Since(s.lastSnapshotTs)
	if sinceLast >= minSnapshotInterval {
		t.fireLocked(indexName, s)
		return
	}

	if s.timer != nil {
		return // a trigger is already pending; coalesce
	}
	delay := minSnapshotInterval - sinceLast
	if delay > maxSnapshotDelay {
		delay = maxSnapshotDelay
	}
	s.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.timer = nil
		t.fireLocked(indexName, s)
	})
}

// fireLocked runs Save for indexName; the caller must hold s.mu.
func (t *Throttle) fireLocked(indexName string, s *indexState) {
	engine, ok := t.engines.Engine(indexName)
	if !ok {
		return
	}
	if err := Save(t.dataRoot, engine, t.sharded); err != nil {
		// Scheduled snapshots swallow errors and retry after
		// maxSnapshotDelay (spec.md §7 PersistenceIO policy); only an
		// explicit Flush propagates the error to its caller.
		t.log.Error().Err(err).Str("index", indexName).Msg("scheduled snapshot failed")
		if s.timer == nil {
			s.timer = time.AfterFunc(maxSnapshotDelay, func() {
				s.mu.Lock()
				defer s.mu.Unlock()
				s.timer = nil
				t.fireLocked(indexName, s)
			})
		}
		return
	}
	s.pendingDocs = 0
	s.lastSnapshotTs = time.Now()
}

// Flush runs Save immediately for indexName and propagates any error
// to the caller (spec.md §7: "write errors propagate to the
// triggering flush").
func (t *Throttle) Flush(indexName string) error {
	engine, ok := t.engines.Engine(indexName)
	if !ok {
		return nil
	}
	if err := Save(t.dataRoot, engine, t.sharded); err != nil {
		return err
	}
	s := t.stateFor(indexName)
	s.mu.Lock()
	s.pendingDocs = 0
	s.lastSnapshotTs = time.Now()
	s.mu.Unlock()
	return nil
}
