package episode

import (
	"sort"
	"sync"

	"github.com/banshee-data/simhost/internal/monitoring"
)

// EnvironmentObject is one registered level object exposed to remote
// callers. Disabled objects stay registered; Enabled only controls their
// visibility to sensors.
type EnvironmentObject struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	SubMap  string `json:"sub_map"`
	Enabled bool   `json:"enabled"`
}

// ObjectRegister maintains the registry of environment objects. Its
// RegisterObjects pass rebuilds the registry from the world's current
// actors: objects whose actor disappeared are discarded, surviving objects
// keep their enabled state. It is invoked by the streaming orchestrator
// whenever a batch settles, so it must be safe for concurrent use.
type ObjectRegister struct {
	mu      sync.Mutex
	world   World
	objects map[uint64]*EnvironmentObject
}

// NewObjectRegister creates an empty register over the given world.
func NewObjectRegister(world World) *ObjectRegister {
	return &ObjectRegister{
		world:   world,
		objects: make(map[uint64]*EnvironmentObject),
	}
}

// RegisterObjects snapshots the world's actors into the registry.
func (r *ObjectRegister) RegisterObjects() {
	actors := r.world.Actors()

	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[uint64]*EnvironmentObject, len(actors))
	for _, a := range actors {
		obj := &EnvironmentObject{
			ID:      a.ID,
			Name:    a.Name,
			SubMap:  a.SubMap,
			Enabled: true,
		}
		if prev, ok := r.objects[a.ID]; ok {
			obj.Enabled = prev.Enabled
		}
		next[a.ID] = obj
	}
	r.objects = next
	monitoring.Logf("[ObjectRegister] registered %d environment objects", len(next))
}

// EnableObjects toggles the enabled flag of the given object IDs. Unknown
// IDs are ignored.
func (r *ObjectRegister) EnableObjects(ids []uint64, enable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if obj, ok := r.objects[id]; ok {
			obj.Enabled = enable
		}
	}
}

// Objects returns the registered objects sorted by ID.
func (r *ObjectRegister) Objects() []EnvironmentObject {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EnvironmentObject, 0, len(r.objects))
	for _, obj := range r.objects {
		out = append(out, *obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of registered objects.
func (r *ObjectRegister) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}
