package streaming

import (
	"sync"
	"time"

	"github.com/banshee-data/simhost/internal/monitoring"
	"github.com/banshee-data/simhost/internal/timeutil"
)

// Backend performs the actual loading and unloading of sub-map content.
// Implementations must invoke done exactly once per call, on success or
// failure, possibly from a different goroutine than the caller's. A failed
// sub-map still counts as done: the orchestrator must never hang a batch on
// a missing asset. Conflicting requests for the same sub-map are the
// backend's problem to serialize; the orchestrator does not cancel.
type Backend interface {
	LoadAsync(subMap string, done func())
	UnloadAsync(subMap string, done func())
}

// LevelIndex exposes the full path-qualified identifiers of every sub-map
// known to the currently loaded level.
type LevelIndex interface {
	SubMaps() []string
}

// MockBackend records requests and lets tests complete them manually, in any
// order. It never invokes done on its own.
type MockBackend struct {
	mu   sync.Mutex
	ops  []MockOp
	done []func()
}

// MockOp is one recorded backend request.
type MockOp struct {
	Op     Op
	SubMap string
}

// NewMockBackend creates an empty mock backend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// LoadAsync records the request without completing it.
func (m *MockBackend) LoadAsync(subMap string, done func()) {
	m.record(MockOp{Op: OpLoad, SubMap: subMap}, done)
}

// UnloadAsync records the request without completing it.
func (m *MockBackend) UnloadAsync(subMap string, done func()) {
	m.record(MockOp{Op: OpUnload, SubMap: subMap}, done)
}

func (m *MockBackend) record(op MockOp, done func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, op)
	m.done = append(m.done, done)
}

// Ops returns a copy of the recorded requests in issue order.
func (m *MockBackend) Ops() []MockOp {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockOp, len(m.ops))
	copy(out, m.ops)
	return out
}

// Complete invokes the done callback of the nth recorded request. Completing
// the same request twice is allowed here precisely so tests can exercise the
// orchestrator's duplicate-completion guard.
func (m *MockBackend) Complete(n int) {
	m.mu.Lock()
	done := m.done[n]
	m.mu.Unlock()
	done()
}

// CompleteAll completes every recorded request that has not been completed
// through CompleteAll before, in reverse issue order.
func (m *MockBackend) CompleteAll() {
	m.mu.Lock()
	done := m.done
	m.done = nil
	m.ops = nil
	m.mu.Unlock()
	for i := len(done) - 1; i >= 0; i-- {
		done[i]()
	}
}

// SimBackend is the in-process backend used by the standalone binary: each
// request completes on its own goroutine after a fixed latency. The clock is
// injectable so tests can drive completions without real sleeps.
type SimBackend struct {
	clock   timeutil.Clock
	latency time.Duration
}

// NewSimBackend creates a simulated backend. A nil clock falls back to the
// real one.
func NewSimBackend(clock timeutil.Clock, latency time.Duration) *SimBackend {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &SimBackend{clock: clock, latency: latency}
}

// LoadAsync completes after the configured latency.
func (s *SimBackend) LoadAsync(subMap string, done func()) {
	s.schedule("load", subMap, done)
}

// UnloadAsync completes after the configured latency.
func (s *SimBackend) UnloadAsync(subMap string, done func()) {
	s.schedule("unload", subMap, done)
}

func (s *SimBackend) schedule(what, subMap string, done func()) {
	timer := s.clock.NewTimer(s.latency)
	go func() {
		<-timer.C()
		monitoring.Logf("[SimBackend] %s %s complete", what, subMap)
		done()
	}()
}
