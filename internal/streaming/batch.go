package streaming

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/banshee-data/simhost/internal/layers"
)

// Op is the kind of streaming operation a batch performs.
type Op int

const (
	OpLoad Op = iota
	OpUnload
)

// String returns the operation name used in logs and telemetry rows.
func (op Op) String() string {
	switch op {
	case OpLoad:
		return "load"
	case OpUnload:
		return "unload"
	default:
		return "unknown"
	}
}

// Batch is one group of async load or unload operations issued together from
// a single mask request. Its pending counter starts at the number of sub-map
// operations and is decremented once per completion callback; completions
// may arrive on any goroutine in any order, so the counter is atomic. The
// batch settles exactly once, when the counter reaches zero.
type Batch struct {
	ID      string
	Op      Op
	Mask    layers.Mask
	SubMaps []string

	pending atomic.Int32
	settled atomic.Bool
}

func newBatch(op Op, mask layers.Mask, subMaps []string) *Batch {
	b := &Batch{
		ID:      uuid.New().String(),
		Op:      op,
		Mask:    mask,
		SubMaps: subMaps,
	}
	b.pending.Store(int32(len(subMaps)))
	return b
}

// Pending returns the number of async operations still outstanding.
func (b *Batch) Pending() int {
	return int(b.pending.Load())
}

// Settled reports whether every operation in the batch has completed.
func (b *Batch) Settled() bool {
	return b.settled.Load()
}
