// Package roadnet models the parsed road network of a map: roads, lane
// sections, signal records with validity ranges, and a geo-reference. The
// network is immutable once built; resolver queries may run concurrently
// with map streaming because they share no mutable state.
package roadnet

import (
	"fmt"
	"sort"
)

// RoadID identifies a road segment, unique within one network snapshot.
type RoadID uint32

// LaneID is a signed lane index relative to the road centerline. Positive
// indices are left of the reference line, negative ones right; index 0 is
// the centerline itself and is never a drivable lane.
type LaneID int32

// LaneType classifies a lane's use.
type LaneType string

const (
	LaneDriving  LaneType = "Driving"
	LaneSidewalk LaneType = "Sidewalk"
	LaneShoulder LaneType = "Shoulder"
	LaneParking  LaneType = "Parking"
	LaneBorder   LaneType = "Border"
	LaneMedian   LaneType = "Median"
	LaneNone     LaneType = "None"
)

// Lane is one lane within a lane section.
type Lane struct {
	ID    LaneID
	Type  LaneType
	Width float64
}

// LaneSection groups the lanes valid from its start s-coordinate until the
// next section begins (or the road ends).
type LaneSection struct {
	S     float64
	Lanes map[LaneID]*Lane
}

// Validity is an inclusive, sign-encoded span of lane indices a signal
// governs. The span may be given in either direction.
type Validity struct {
	FromLane LaneID
	ToLane   LaneID
}

// Signal is a signal record attached to exactly one road, placed at an
// s-coordinate along it with a lateral t offset.
type Signal struct {
	ID         string
	RoadID     RoadID
	S          float64
	T          float64
	Validities []Validity
}

// Road is one road segment: a reference line, ordered lane sections and the
// signal records placed along it.
type Road struct {
	ID       RoadID
	Name     string
	Length   float64
	Line     []LinePoint
	Sections []*LaneSection
	Signals  []*Signal
}

// Waypoint samples the network at a (road, lane, s) location.
type Waypoint struct {
	RoadID RoadID
	LaneID LaneID
	S      float64
}

// Network is the immutable road graph for one map.
type Network struct {
	GeoReference string

	roads map[RoadID]*Road
	order []RoadID // road iteration order, as defined by the map
}

// NewNetwork assembles a network from its roads, preserving their order.
// Sections are sorted by start s; duplicate road IDs are rejected.
func NewNetwork(geoReference string, roads []*Road) (*Network, error) {
	n := &Network{
		GeoReference: geoReference,
		roads:        make(map[RoadID]*Road, len(roads)),
	}
	for _, r := range roads {
		if _, dup := n.roads[r.ID]; dup {
			return nil, fmt.Errorf("duplicate road id %d", r.ID)
		}
		if len(r.Sections) == 0 {
			return nil, fmt.Errorf("road %d has no lane sections", r.ID)
		}
		sort.Slice(r.Sections, func(i, j int) bool {
			return r.Sections[i].S < r.Sections[j].S
		})
		for _, sig := range r.Signals {
			sig.RoadID = r.ID
		}
		n.roads[r.ID] = r
		n.order = append(n.order, r.ID)
	}
	return n, nil
}

// Road returns the road with the given ID, or nil.
func (n *Network) Road(id RoadID) *Road {
	return n.roads[id]
}

// Roads returns every road in map-definition order.
func (n *Network) Roads() []*Road {
	out := make([]*Road, 0, len(n.order))
	for _, id := range n.order {
		out = append(out, n.roads[id])
	}
	return out
}

// SectionAt returns the lane section governing the given s-coordinate.
func (r *Road) SectionAt(s float64) *LaneSection {
	sec := r.Sections[0]
	for _, candidate := range r.Sections[1:] {
		if candidate.S > s {
			break
		}
		sec = candidate
	}
	return sec
}

// LaneTypeAt returns the type of a lane at the given s-coordinate.
// Lanes absent from the governing section report LaneNone.
func (n *Network) LaneTypeAt(road RoadID, lane LaneID, s float64) LaneType {
	r := n.roads[road]
	if r == nil {
		return LaneNone
	}
	l := r.SectionAt(s).Lanes[lane]
	if l == nil {
		return LaneNone
	}
	return l.Type
}

// GenerateWaypointsOnRoadEntries returns one waypoint per drivable lane at
// the entry (s=0 section) of every road, in map-definition order. This is
// the representative sampling the signal resolver walks.
func (n *Network) GenerateWaypointsOnRoadEntries() []Waypoint {
	var wps []Waypoint
	for _, id := range n.order {
		r := n.roads[id]
		sec := r.Sections[0]
		for _, lane := range sortedLaneIDs(sec) {
			l := sec.Lanes[lane]
			if l.Type != LaneDriving {
				continue
			}
			wps = append(wps, Waypoint{RoadID: r.ID, LaneID: lane, S: sec.S})
		}
	}
	return wps
}

func sortedLaneIDs(sec *LaneSection) []LaneID {
	ids := make([]LaneID, 0, len(sec.Lanes))
	for id := range sec.Lanes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
