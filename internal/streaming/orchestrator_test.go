package streaming

import (
	"sync"
	"testing"

	"github.com/banshee-data/simhost/internal/layers"
)

// staticIndex is a LevelIndex over a fixed identifier list.
type staticIndex []string

func (s staticIndex) SubMaps() []string { return s }

// countingWorld counts registration and tagging passes.
type countingWorld struct {
	mu         sync.Mutex
	registered int
	tagged     int
}

func (w *countingWorld) RegisterObjects() {
	w.mu.Lock()
	w.registered++
	w.mu.Unlock()
}

func (w *countingWorld) TagActors() {
	w.mu.Lock()
	w.tagged++
	w.mu.Unlock()
}

func (w *countingWorld) counts() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.registered, w.tagged
}

var town01 = staticIndex{
	"/Game/Maps/Town01_Buildings",
	"/Game/Maps/Town01_Decals",
	"/Game/Maps/Town01_Props",
	"/Game/Maps/Town01_StreetLights",
}

func newTestOrchestrator(t *testing.T, backend Backend, index LevelIndex) (*Orchestrator, *countingWorld) {
	t.Helper()
	muteLogs(t)
	world := &countingWorld{}
	o, err := NewOrchestrator(backend, index, world, world)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return o, world
}

func TestNewOrchestratorRejectsMissingCollaborators(t *testing.T) {
	world := &countingWorld{}
	backend := NewMockBackend()

	if _, err := NewOrchestrator(nil, town01, world, world); err == nil {
		t.Error("missing backend accepted")
	}
	if _, err := NewOrchestrator(backend, nil, world, world); err == nil {
		t.Error("missing level index accepted")
	}
	if _, err := NewOrchestrator(backend, town01, nil, world); err == nil {
		t.Error("missing registrar accepted")
	}
	if _, err := NewOrchestrator(backend, town01, world, nil); err == nil {
		t.Error("missing tagger accepted")
	}
}

func TestRequestLoadIssuesOneOpPerMatch(t *testing.T) {
	backend := NewMockBackend()
	o, _ := newTestOrchestrator(t, backend, town01)

	b := o.RequestLoad(layers.Buildings | layers.Decals)

	ops := backend.Ops()
	if len(ops) != 2 {
		t.Fatalf("backend received %d ops, want 2", len(ops))
	}
	if ops[0].SubMap != "/Game/Maps/Town01_Buildings" || ops[1].SubMap != "/Game/Maps/Town01_Decals" {
		t.Errorf("ops = %+v, want Buildings then Decals", ops)
	}
	for _, op := range ops {
		if op.Op != OpLoad {
			t.Errorf("op kind = %s, want load", op.Op)
		}
	}
	if b.Pending() != 2 {
		t.Errorf("batch pending = %d, want 2", b.Pending())
	}
	if b.Settled() {
		t.Error("batch settled before any completion")
	}
}

func TestLoadBatchSettlesAfterCompletionsThenMarkReady(t *testing.T) {
	// Not ready, load with 3 matches, 3 completions, then MarkReady.
	// Registration fires exactly once, at MarkReady.
	backend := NewMockBackend()
	o, world := newTestOrchestrator(t, backend, town01)

	b := o.RequestLoad(layers.Buildings | layers.Decals | layers.Props)
	if got := len(backend.Ops()); got != 3 {
		t.Fatalf("ops = %d, want 3", got)
	}

	backend.Complete(2)
	backend.Complete(0)
	backend.Complete(1)

	if !b.Settled() {
		t.Fatal("batch not settled after all completions")
	}
	if reg, _ := world.counts(); reg != 0 {
		t.Fatalf("registered %d times before MarkReady", reg)
	}

	o.MarkReady()
	reg, tag := world.counts()
	if reg != 1 {
		t.Errorf("registered %d times, want 1", reg)
	}
	if tag != 1 {
		t.Errorf("tagged %d times, want 1", tag)
	}
}

func TestLoadBatchFiresAtFinalCompletionWhenReady(t *testing.T) {
	// MarkReady first, load with 2 matches, registration fires exactly
	// once at the second completion.
	backend := NewMockBackend()
	o, world := newTestOrchestrator(t, backend, town01)

	o.MarkReady()
	o.RequestLoad(layers.Buildings | layers.Decals)

	backend.Complete(1)
	if reg, _ := world.counts(); reg != 0 {
		t.Fatalf("registered %d times after first completion", reg)
	}
	backend.Complete(0)
	reg, tag := world.counts()
	if reg != 1 || tag != 1 {
		t.Errorf("registered=%d tagged=%d, want 1/1", reg, tag)
	}
}

func TestUnloadSettleRegistersWithoutRetagging(t *testing.T) {
	backend := NewMockBackend()
	o, world := newTestOrchestrator(t, backend, town01)
	o.MarkReady()

	b := o.RequestUnload(layers.Props)
	if got := backend.Ops(); len(got) != 1 || got[0].Op != OpUnload {
		t.Fatalf("ops = %+v, want one unload", got)
	}
	backend.Complete(0)

	if !b.Settled() {
		t.Fatal("unload batch not settled")
	}
	reg, tag := world.counts()
	if reg != 1 {
		t.Errorf("registered %d times, want 1", reg)
	}
	if tag != 0 {
		t.Errorf("unload settle re-tagged %d times, want 0", tag)
	}
}

func TestRequestLoadNoMatchesSettlesSynchronously(t *testing.T) {
	backend := NewMockBackend()
	o, world := newTestOrchestrator(t, backend, town01)
	o.MarkReady()

	b := o.RequestLoad(layers.Foliage) // nothing in town01 matches
	if len(backend.Ops()) != 0 {
		t.Fatalf("empty batch issued backend ops: %+v", backend.Ops())
	}
	if !b.Settled() || b.Pending() != 0 {
		t.Errorf("empty batch settled=%v pending=%d, want settled with 0", b.Settled(), b.Pending())
	}
	if reg, _ := world.counts(); reg != 1 {
		t.Errorf("registered %d times for empty batch, want 1", reg)
	}
}

func TestTwoIndependentBatchesNoDuplicateSuppression(t *testing.T) {
	backend := NewMockBackend()
	o, world := newTestOrchestrator(t, backend, town01)
	o.MarkReady()

	b1 := o.RequestLoad(layers.Buildings)
	backend.Complete(0)
	b2 := o.RequestLoad(layers.Buildings)
	backend.Complete(1)

	if !b1.Settled() || !b2.Settled() {
		t.Fatal("both batches should settle independently")
	}
	if b1.ID == b2.ID {
		t.Error("batches share an ID")
	}
	if reg, _ := world.counts(); reg != 2 {
		t.Errorf("registered %d times for two sequential batches, want 2", reg)
	}
}

func TestDuplicateCompletionIsClampedNotPropagated(t *testing.T) {
	backend := NewMockBackend()
	o, world := newTestOrchestrator(t, backend, town01)
	o.MarkReady()

	b := o.RequestLoad(layers.Buildings)
	backend.Complete(0)
	backend.Complete(0) // duplicate callback: programming defect, must clamp

	if b.Pending() != 0 {
		t.Errorf("pending = %d after duplicate completion, want 0", b.Pending())
	}
	if reg, _ := world.counts(); reg != 1 {
		t.Errorf("registered %d times, duplicate completion must not re-fire", reg)
	}
}

func TestConcurrentCompletionsSettleOnce(t *testing.T) {
	backend := NewMockBackend()
	o, world := newTestOrchestrator(t, backend, staticIndex{
		"/Game/Maps/Big_Props_A_Props",
		"/Game/Maps/Big_Props_B_Props",
		"/Game/Maps/Big_Props_C_Props",
		"/Game/Maps/Big_Props_D_Props",
		"/Game/Maps/Big_Props_E_Props",
		"/Game/Maps/Big_Props_F_Props",
		"/Game/Maps/Big_Props_G_Props",
		"/Game/Maps/Big_Props_H_Props",
	})
	o.MarkReady()

	b := o.RequestLoad(layers.Props)
	ops := backend.Ops()
	if len(ops) != 8 {
		t.Fatalf("ops = %d, want 8", len(ops))
	}

	var wg sync.WaitGroup
	for i := range ops {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			backend.Complete(n)
		}(i)
	}
	wg.Wait()

	if !b.Settled() || b.Pending() != 0 {
		t.Errorf("settled=%v pending=%d after concurrent completions", b.Settled(), b.Pending())
	}
	if reg, _ := world.counts(); reg != 1 {
		t.Errorf("registered %d times, want exactly 1", reg)
	}
}

type recordingRecorder struct {
	mu      sync.Mutex
	issued  []string
	settled []string
}

func (r *recordingRecorder) BatchIssued(b *Batch) {
	r.mu.Lock()
	r.issued = append(r.issued, b.ID)
	r.mu.Unlock()
}

func (r *recordingRecorder) BatchSettled(b *Batch) {
	r.mu.Lock()
	r.settled = append(r.settled, b.ID)
	r.mu.Unlock()
}

func TestBatchRecorderObservesLifecycle(t *testing.T) {
	backend := NewMockBackend()
	o, _ := newTestOrchestrator(t, backend, town01)
	rec := &recordingRecorder{}
	o.SetBatchRecorder(rec)
	o.MarkReady()

	b := o.RequestLoad(layers.Decals)
	backend.Complete(0)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.issued) != 1 || rec.issued[0] != b.ID {
		t.Errorf("issued = %v, want [%s]", rec.issued, b.ID)
	}
	if len(rec.settled) != 1 || rec.settled[0] != b.ID {
		t.Errorf("settled = %v, want [%s]", rec.settled, b.ID)
	}
}
