package streaming

import (
	"sync"

	"github.com/banshee-data/simhost/internal/monitoring"
)

// RegistrationGate decides when the environment-object registration pass may
// run. Registration must wait until the owning session has finished its own
// startup sequence (MarkReady) and until every outstanding batch of the
// relevant kind has settled; batches that settle back-to-back collapse into
// a single registration pass instead of one each.
//
// The gate lives for the whole episode. Ready and settle transitions can
// race on different goroutines, so every transition happens under one mutex;
// the notify callback is invoked outside the lock.
type RegistrationGate struct {
	mu    sync.Mutex
	ready bool

	outstanding [2]int  // batches in flight, indexed by Op
	dirty       [2]bool // a batch settled since the last registration pass

	notify func(op Op)
}

// NewRegistrationGate creates a gate that invokes notify each time a kind of
// work becomes fully settled while ready.
func NewRegistrationGate(notify func(op Op)) *RegistrationGate {
	return &RegistrationGate{notify: notify}
}

// MarkReady records that the session finished its startup sequence. If load
// batches settled while the gate was not ready, the deferred registration
// pass fires now.
func (g *RegistrationGate) MarkReady() {
	g.mu.Lock()
	g.ready = true
	fire := g.outstanding[OpLoad] == 0 && g.dirty[OpLoad]
	if fire {
		g.dirty[OpLoad] = false
	}
	g.mu.Unlock()

	if fire {
		g.notify(OpLoad)
	}
}

// Ready reports whether MarkReady has been called.
func (g *RegistrationGate) Ready() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ready
}

// BatchIssued records a new batch of the given kind.
func (g *RegistrationGate) BatchIssued(op Op) {
	g.mu.Lock()
	g.outstanding[op]++
	g.mu.Unlock()
}

// BatchSettled records that a batch of the given kind has fully completed.
// When this was the last outstanding batch of its kind and the gate is
// ready, the registration pass fires exactly once for the transition.
func (g *RegistrationGate) BatchSettled(op Op) {
	g.mu.Lock()
	if g.outstanding[op] == 0 {
		// A settle without a matching issue means a completion callback was
		// delivered twice. Clamp instead of going negative.
		monitoring.Logf("[RegistrationGate] defect: %s batch settled with none outstanding", op)
		g.mu.Unlock()
		return
	}
	g.outstanding[op]--
	g.dirty[op] = true
	fire := g.ready && g.outstanding[op] == 0
	if fire {
		g.dirty[op] = false
	}
	g.mu.Unlock()

	if fire {
		g.notify(op)
	}
}

// PendingBatches returns the number of outstanding batches of the given kind.
func (g *RegistrationGate) PendingBatches(op Op) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.outstanding[op]
}
