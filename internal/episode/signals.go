package episode

import (
	"errors"
	"sync"

	"github.com/banshee-data/simhost/internal/monitoring"
	"github.com/banshee-data/simhost/internal/roadnet"
)

// SignalManager owns the signal-to-lane associations for the episode's road
// network. It is constructed explicitly with the episode (never lazily) and
// initialized once during Begin, after the network exists; resolver results
// are immutable afterwards and safe to read concurrently with streaming.
type SignalManager struct {
	mu  sync.Mutex
	net *roadnet.Network

	initialized bool
	refs        []roadnet.SignalReference
	lanes       map[string][]roadnet.LaneAssociation
}

// NewSignalManager creates a manager over the given network. A nil network
// (map parse failure) yields a manager whose Initialize reports the map as
// unavailable.
func NewSignalManager(net *roadnet.Network) *SignalManager {
	return &SignalManager{net: net}
}

// Initialize resolves every signal reference and its lane associations.
// Repeated calls are no-ops.
func (m *SignalManager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	if m.net == nil {
		return errors.New("no road network available")
	}

	m.refs = roadnet.ResolveReferences(m.net)
	m.lanes = make(map[string][]roadnet.LaneAssociation, len(m.refs))
	total := 0
	for _, ref := range m.refs {
		assocs := roadnet.ResolveLanes(m.net, ref.Signal)
		m.lanes[ref.Signal.ID] = assocs
		total += len(assocs)
	}
	m.initialized = true
	monitoring.Logf("[SignalManager] initialized %d signal references, %d lane associations", len(m.refs), total)
	return nil
}

// Initialized reports whether the resolver pass has run.
func (m *SignalManager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// References returns every resolved (signal, road) reference.
func (m *SignalManager) References() []roadnet.SignalReference {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]roadnet.SignalReference, len(m.refs))
	copy(out, m.refs)
	return out
}

// LaneAssociations returns the lanes a signal governs, or false for an
// unknown signal.
func (m *SignalManager) LaneAssociations(signalID string) ([]roadnet.LaneAssociation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	assocs, ok := m.lanes[signalID]
	if !ok {
		return nil, false
	}
	out := make([]roadnet.LaneAssociation, len(assocs))
	copy(out, assocs)
	return out, true
}
