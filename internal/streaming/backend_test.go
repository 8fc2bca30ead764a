package streaming

import (
	"testing"
	"time"

	"github.com/banshee-data/simhost/internal/layers"
	"github.com/banshee-data/simhost/internal/timeutil"
)

func TestSimBackendCompletesAfterLatency(t *testing.T) {
	muteLogs(t)

	clock := timeutil.NewMockClock(time.Unix(0, 0))
	backend := NewSimBackend(clock, 2*time.Second)

	done := make(chan struct{})
	backend.LoadAsync("/Game/Maps/Town01_Buildings", func() { close(done) })

	select {
	case <-done:
		t.Fatal("load completed before latency elapsed")
	case <-time.After(20 * time.Millisecond):
	}

	clock.Advance(2 * time.Second)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("load did not complete after clock advance")
	}
}

func TestSimBackendDrivesOrchestratorToSettle(t *testing.T) {
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	backend := NewSimBackend(clock, time.Second)
	o, world := newTestOrchestrator(t, backend, town01)
	o.MarkReady()

	b := o.RequestLoad(layers.Buildings | layers.Decals)
	clock.Advance(time.Second)

	// Completion runs on backend goroutines; wait for the registration pass.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if reg, _ := world.counts(); reg == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !b.Settled() {
		t.Fatal("batch did not settle via simulated backend")
	}
	if reg, _ := world.counts(); reg != 1 {
		t.Errorf("registered %d times, want 1", reg)
	}
}

func TestSimBackendNilClockDefaultsToReal(t *testing.T) {
	muteLogs(t)

	backend := NewSimBackend(nil, time.Millisecond)
	done := make(chan struct{})
	backend.UnloadAsync("/Game/Maps/Town01_Props", func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unload did not complete with real clock")
	}
}
