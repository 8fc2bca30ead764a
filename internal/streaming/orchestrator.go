// Package streaming issues asynchronous load and unload operations for
// layered map content and tracks their completion, so that environment
// object registration and semantic re-tagging run exactly once per settled
// batch, and only after the owning episode is ready.
package streaming

import (
	"errors"

	"github.com/banshee-data/simhost/internal/layers"
	"github.com/banshee-data/simhost/internal/monitoring"
)

// ObjectRegistrar rebuilds the environment-object registry from the world's
// current actors. Invoked by the orchestrator after batches settle.
type ObjectRegistrar interface {
	RegisterObjects()
}

// ActorTagger re-tags every actor in the level for semantic segmentation.
type ActorTagger interface {
	TagActors()
}

// BatchRecorder observes batch lifecycle for telemetry. Implementations must
// not block: settle notifications arrive on backend completion goroutines.
type BatchRecorder interface {
	BatchIssued(b *Batch)
	BatchSettled(b *Batch)
}

// Orchestrator turns layer-mask requests into per-sub-map backend operations
// and owns the registration gate. Requests are issued from the episode's
// control goroutine and never block; completion callbacks may arrive
// concurrently on backend goroutines.
type Orchestrator struct {
	backend   Backend
	index     LevelIndex
	registrar ObjectRegistrar
	tagger    ActorTagger
	gate      *RegistrationGate
	recorder  BatchRecorder
}

// NewOrchestrator wires the orchestrator to its collaborators. A missing
// backend, level index or registrar is a configuration defect: the owning
// session must refuse to start rather than silently skip streaming.
func NewOrchestrator(backend Backend, index LevelIndex, registrar ObjectRegistrar, tagger ActorTagger) (*Orchestrator, error) {
	if backend == nil {
		return nil, errors.New("streaming: no backend registered")
	}
	if index == nil {
		return nil, errors.New("streaming: no level index registered")
	}
	if registrar == nil {
		return nil, errors.New("streaming: no object registrar registered")
	}
	if tagger == nil {
		return nil, errors.New("streaming: no actor tagger registered")
	}
	o := &Orchestrator{
		backend:   backend,
		index:     index,
		registrar: registrar,
		tagger:    tagger,
	}
	o.gate = NewRegistrationGate(o.onSettled)
	return o, nil
}

// SetBatchRecorder attaches an optional telemetry observer. Must be called
// before the first request.
func (o *Orchestrator) SetBatchRecorder(r BatchRecorder) {
	o.recorder = r
}

// MarkReady tells the gate the episode finished its startup sequence.
func (o *Orchestrator) MarkReady() {
	o.gate.MarkReady()
}

// Gate exposes the registration gate for status queries.
func (o *Orchestrator) Gate() *RegistrationGate {
	return o.gate
}

// RequestLoad expands the mask, matches it against the level index and
// issues one async load per matched sub-map. It returns immediately; when a
// mask matches nothing the batch settles synchronously before returning.
// Already-loaded content is requested again regardless: the backend is the
// one tracking load state, not the orchestrator.
func (o *Orchestrator) RequestLoad(mask layers.Mask) *Batch {
	return o.request(OpLoad, mask)
}

// RequestUnload is the unload counterpart of RequestLoad.
func (o *Orchestrator) RequestUnload(mask layers.Mask) *Batch {
	return o.request(OpUnload, mask)
}

func (o *Orchestrator) request(op Op, mask layers.Mask) *Batch {
	names := layers.Expand(mask)
	matched := layers.MatchSubMaps(o.index.SubMaps(), names)

	b := newBatch(op, mask, matched)
	o.gate.BatchIssued(op)
	if o.recorder != nil {
		o.recorder.BatchIssued(b)
	}
	monitoring.Logf("[Streaming] %s batch %s: mask=%s sub-maps=%d", op, b.ID, mask, len(matched))

	if len(matched) == 0 {
		o.settle(b)
		return b
	}

	for _, subMap := range matched {
		subMap := subMap
		switch op {
		case OpLoad:
			o.backend.LoadAsync(subMap, func() { o.OnLoadOpCompleted(b) })
		case OpUnload:
			o.backend.UnloadAsync(subMap, func() { o.OnUnloadOpCompleted(b) })
		}
	}
	return b
}

// OnLoadOpCompleted is invoked once per completed load operation, in any
// order and potentially concurrently. When the batch's last operation
// completes, the registration-and-tagging sequence runs, provided the gate
// is ready.
func (o *Orchestrator) OnLoadOpCompleted(b *Batch) {
	o.opCompleted(b)
}

// OnUnloadOpCompleted is the unload counterpart of OnLoadOpCompleted. A
// settled unload batch refreshes object registration without re-tagging:
// unloading removes objects, it does not introduce ones needing fresh tags.
func (o *Orchestrator) OnUnloadOpCompleted(b *Batch) {
	o.opCompleted(b)
}

func (o *Orchestrator) opCompleted(b *Batch) {
	n := b.pending.Add(-1)
	if n < 0 {
		// Duplicate completion callback. Clamp; firing the settle path twice
		// would double-run registration.
		b.pending.Store(0)
		monitoring.Logf("[Streaming] defect: extra completion for settled batch %s", b.ID)
		return
	}
	if n == 0 {
		o.settle(b)
	}
}

func (o *Orchestrator) settle(b *Batch) {
	if !b.settled.CompareAndSwap(false, true) {
		return
	}
	if o.recorder != nil {
		o.recorder.BatchSettled(b)
	}
	o.gate.BatchSettled(b.Op)
}

// onSettled runs when the gate decides a registration pass is due.
func (o *Orchestrator) onSettled(op Op) {
	switch op {
	case OpLoad:
		o.registrar.RegisterObjects()
		o.tagger.TagActors()
	case OpUnload:
		o.registrar.RegisterObjects()
	}
}
