package episode

import (
	"sort"
	"strings"
	"sync"
)

// Actor is one engine-side actor currently present in the level.
type Actor struct {
	ID     uint64
	Name   string
	SubMap string // full identifier of the sub-map the actor belongs to
	Tagged bool   // semantic segmentation tag applied
}

// World is the engine-side view the episode depends on: the sub-maps the
// level knows about, the actors currently spawned, and the semantic tagging
// pass. It doubles as the streaming level index.
type World interface {
	SubMaps() []string
	Actors() []Actor
	TagActors()
}

// StaticWorld is an in-process World backed by fixed data. The standalone
// binary and tests use it in place of a real engine integration, the same
// way a mock serial port stands in for hardware.
type StaticWorld struct {
	mu      sync.Mutex
	subMaps []string
	actors  []Actor
}

// NewStaticWorld creates a world with the given sub-map identifiers and
// actors.
func NewStaticWorld(subMaps []string, actors []Actor) *StaticWorld {
	w := &StaticWorld{subMaps: subMaps}
	w.actors = append(w.actors, actors...)
	return w
}

// SubMaps returns the known sub-map identifiers.
func (w *StaticWorld) SubMaps() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.subMaps))
	copy(out, w.subMaps)
	return out
}

// Actors returns a snapshot of the current actors.
func (w *StaticWorld) Actors() []Actor {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Actor, len(w.actors))
	copy(out, w.actors)
	return out
}

// TagActors applies the semantic segmentation tag to every actor.
func (w *StaticWorld) TagActors() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.actors {
		w.actors[i].Tagged = true
	}
}

// SetActors replaces the actor population, e.g. after simulated content
// loads or unloads. New actors arrive untagged.
func (w *StaticWorld) SetActors(actors []Actor) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.actors = make([]Actor, len(actors))
	copy(w.actors, actors)
}

// TaggedCount returns how many actors carry the semantic tag.
func (w *StaticWorld) TaggedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, a := range w.actors {
		if a.Tagged {
			n++
		}
	}
	return n
}

// ActorsOfSubMap returns the actors whose sub-map identifier contains the
// given name, sorted by actor ID.
func ActorsOfSubMap(w World, name string) []Actor {
	var out []Actor
	for _, a := range w.Actors() {
		if strings.Contains(a.SubMap, name) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
