package persistence

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/inquir-search/search-engine/searchengine"
)

type fakeEngines struct {
	engines map[string]*searchengine.SearchEngine
}

func (f *fakeEngines) Engine(name string) (*searchengine.SearchEngine, bool) {
	se, ok := f.engines[name]
	return se, ok
}

func TestThrottleImmediateAboveWatermark(t *testing.T) {
	dir := t.TempDir()
	se := searchengine.New("idx", searchengine.DefaultConfig())
	engines := &fakeEngines{engines: map[string]*searchengine.SearchEngine{"idx": se}}
	th := NewThrottle(dir, false, engines, zerolog.Nop())

	th.NotifyWrite("idx", immediateThreshold)

	if _, err := Load(dir, "idx"); err != nil {
		t.Fatalf("expected immediate snapshot to have been written, got: %v", err)
	}
}

func TestThrottleCoalescesBelowWatermark(t *testing.T) {
	dir := t.TempDir()
	se := searchengine.New("idx", searchengine.DefaultConfig())
	engines := &fakeEngines{engines: map[string]*searchengine.SearchEngine{"idx": se}}
	th := NewThrottle(dir, false, engines, zerolog.Nop())

	th.NotifyWrite("idx", 1)
	th.NotifyWrite("idx", 1)

	s := th.stateFor("idx")
	s.mu.Lock()
	timerSet := s.timer != nil
	s.mu.Unlock()
	if !timerSet {
		t.Fatal("expected a pending timer to be scheduled after below-watermark writes")
	}
}

func TestFlushWritesImmediatelyAndResetsPending(t *testing.T) {
	dir := t.TempDir()
	se := searchengine.New("idx", searchengine.DefaultConfig())
	engines := &fakeEngines{engines: map[string]*searchengine.SearchEngine{"idx": se}}
	th := NewThrottle(dir, false, engines, zerolog.Nop())

	if err := th.Flush("idx"); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir, "idx"); err != nil {
		t.Fatalf("expected flush to have written a snapshot: %v", err)
	}
}

func TestFlushUnknownIndexIsNoop(t *testing.T) {
	dir := t.TempDir()
	engines := &fakeEngines{engines: map[string]*searchengine.SearchEngine{}}
	th := NewThrottle(dir, false, engines, zerolog.Nop())
	if err := th.Flush("missing"); err != nil {
		t.Fatalf("expected no error for unknown index, got %v", err)
	}
}

func TestNotifyWriteIgnoresUnknownIndex(t *testing.T) {
	engines := &fakeEngines{engines: map[string]*searchengine.SearchEngine{}}
	th := NewThrottle(t.TempDir(), false, engines, zerolog.Nop())
	th.NotifyWrite("missing", immediateThreshold)
	time.Sleep(10 * time.Millisecond) // give any accidental timer a chance to fire
}
