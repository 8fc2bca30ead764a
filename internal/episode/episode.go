// Package episode boots and owns one simulation episode: it parses the map's
// road network, wires the streaming orchestrator to the world, and exposes
// the registries dependent subsystems query.
package episode

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/simhost/internal/layers"
	"github.com/banshee-data/simhost/internal/monitoring"
	"github.com/banshee-data/simhost/internal/roadnet"
	"github.com/banshee-data/simhost/internal/streaming"
)

// Telemetry observes episode lifecycle for persistence. Implementations log
// their own failures; a telemetry outage never aborts an episode.
type Telemetry interface {
	EpisodeStarted(id, mapName string)
	EpisodeEnded(id string)
}

// Status is a point-in-time snapshot of the episode for diagnostics.
type Status struct {
	ID            string `json:"id"`
	MapName       string `json:"map_name"`
	GeoReference  string `json:"geo_reference,omitempty"`
	HasNetwork    bool   `json:"has_network"`
	Roads         int    `json:"roads"`
	Signals       int    `json:"signals"`
	Objects       int    `json:"objects"`
	Ready         bool   `json:"ready"`
	PendingLoad   int    `json:"pending_load_batches"`
	PendingUnload int    `json:"pending_unload_batches"`
}

// Episode is one simulation session on a loaded map. Construction order is
// deliberate: the road network is parsed in InitGame before any resolver
// query, and the signal manager exists before any gate transition can
// depend on it. Requests are issued from a single control goroutine;
// completion callbacks arrive on backend goroutines.
type Episode struct {
	ID      string
	MapName string

	loader    roadnet.Loader
	world     World
	telemetry Telemetry

	net     *roadnet.Network
	orch    *streaming.Orchestrator
	objects *ObjectRegister
	signals *SignalManager

	begun bool
}

// NewEpisode wires an episode to its collaborators. Missing collaborators
// are configuration defects: the session refuses to proceed rather than
// silently skipping functionality.
func NewEpisode(loader roadnet.Loader, backend streaming.Backend, world World) (*Episode, error) {
	if loader == nil {
		return nil, errors.New("episode: no map loader registered")
	}
	if backend == nil {
		return nil, errors.New("episode: no streaming backend registered")
	}
	if world == nil {
		return nil, errors.New("episode: no world registered")
	}

	e := &Episode{
		ID:     uuid.New().String(),
		loader: loader,
		world:  world,
	}
	e.objects = NewObjectRegister(world)

	orch, err := streaming.NewOrchestrator(backend, world, e.objects, world)
	if err != nil {
		return nil, fmt.Errorf("episode: %w", err)
	}
	e.orch = orch
	return e, nil
}

// SetTelemetry attaches optional lifecycle/batch telemetry. Must be called
// before Begin.
func (e *Episode) SetTelemetry(t Telemetry, r streaming.BatchRecorder) {
	e.telemetry = t
	if r != nil {
		e.orch.SetBatchRecorder(r)
	}
}

// InitGame parses the map and prepares the episode. A map that fails to
// parse is reported and the episode continues without road-network-derived
// behavior; signal queries stay unavailable.
func (e *Episode) InitGame(mapName, rawMap string) error {
	e.MapName = mapName

	net, err := e.loader.Load(rawMap)
	if err != nil {
		monitoring.Logf("[Episode] invalid map %s: %v", mapName, err)
		net = nil
	}
	e.net = net
	e.signals = NewSignalManager(net)
	return nil
}

// Begin starts the episode: it issues the initial layer load, tags the
// level's actors for semantic segmentation, initializes the signal manager
// and opens the registration gate. Object registration runs via the gate,
// exactly once per settled batch from here on.
func (e *Episode) Begin(initial layers.Mask) error {
	if e.begun {
		return errors.New("episode already begun")
	}
	if e.signals == nil {
		return errors.New("episode: Begin before InitGame")
	}
	e.begun = true

	e.orch.RequestLoad(initial)

	e.world.TagActors()
	if err := e.signals.Initialize(); err != nil {
		monitoring.Logf("[Episode] signal manager unavailable: %v", err)
	}

	e.orch.MarkReady()

	if e.telemetry != nil {
		e.telemetry.EpisodeStarted(e.ID, e.MapName)
	}
	monitoring.Logf("[Episode] %s began on map %s (initial layers %s)", e.ID, e.MapName, initial)
	return nil
}

// End closes the episode.
func (e *Episode) End() {
	if e.telemetry != nil {
		e.telemetry.EpisodeEnded(e.ID)
	}
	monitoring.Logf("[Episode] %s ended", e.ID)
}

// RequestLoadLayers issues a load batch for the given mask.
func (e *Episode) RequestLoadLayers(mask layers.Mask) *streaming.Batch {
	return e.orch.RequestLoad(mask)
}

// RequestUnloadLayers issues an unload batch for the given mask.
func (e *Episode) RequestUnloadLayers(mask layers.Mask) *streaming.Batch {
	return e.orch.RequestUnload(mask)
}

// Network returns the parsed road network, nil when the map was invalid.
func (e *Episode) Network() *roadnet.Network {
	return e.net
}

// Signals returns the episode's signal manager.
func (e *Episode) Signals() *SignalManager {
	return e.signals
}

// Objects returns the environment-object register.
func (e *Episode) Objects() *ObjectRegister {
	return e.objects
}

// EnableObjects toggles environment objects by ID.
func (e *Episode) EnableObjects(ids []uint64, enable bool) {
	e.objects.EnableObjects(ids, enable)
}

// ActorsOf returns the actors of every sub-map whose identifier contains
// name.
func (e *Episode) ActorsOf(name string) []Actor {
	return ActorsOfSubMap(e.world, name)
}

// Status snapshots the episode for the diagnostics API.
func (e *Episode) Status() Status {
	st := Status{
		ID:      e.ID,
		MapName: e.MapName,
		Objects: e.objects.Count(),
	}
	if e.net != nil {
		st.HasNetwork = true
		st.GeoReference = e.net.GeoReference
		st.Roads = len(e.net.Roads())
	}
	if e.signals != nil {
		st.Signals = len(e.signals.References())
	}
	gate := e.orch.Gate()
	st.Ready = gate.Ready()
	st.PendingLoad = gate.PendingBatches(streaming.OpLoad)
	st.PendingUnload = gate.PendingBatches(streaming.OpUnload)
	return st
}
