package roadnet

// SignalReference pairs a signal record with the road it is attached to.
type SignalReference struct {
	Signal *Signal
	RoadID RoadID
}

// LaneAssociation is one (road, lane, s) location a signal governs. Drivable
// is true only when the lane's type at the signal's s-coordinate is Driving;
// consumers that highlight or control traffic filter on it.
type LaneAssociation struct {
	RoadID   RoadID
	LaneID   LaneID
	S        float64
	Drivable bool
}

// ResolveReferences walks the network's road-entry waypoint sampling and
// collects every signal record, visiting each road exactly once no matter
// how many waypoints sample it. Roads appear in the order they are first
// seen among the waypoints.
func ResolveReferences(n *Network) []SignalReference {
	var refs []SignalReference
	explored := make(map[RoadID]struct{})
	for _, wp := range n.GenerateWaypointsOnRoadEntries() {
		if _, seen := explored[wp.RoadID]; seen {
			continue
		}
		explored[wp.RoadID] = struct{}{}

		for _, sig := range n.Road(wp.RoadID).Signals {
			refs = append(refs, SignalReference{Signal: sig, RoadID: wp.RoadID})
		}
	}
	return refs
}

// ResolveLanes enumerates the concrete lanes a signal applies to: every
// integer lane index inside each validity range (given in either direction),
// excluding index 0, with the lane's type evaluated at the signal's
// s-coordinate.
func ResolveLanes(n *Network, sig *Signal) []LaneAssociation {
	var out []LaneAssociation
	for _, v := range sig.Validities {
		for _, lane := range laneRange(v.FromLane, v.ToLane) {
			out = append(out, LaneAssociation{
				RoadID:   sig.RoadID,
				LaneID:   lane,
				S:        sig.S,
				Drivable: n.LaneTypeAt(sig.RoadID, lane, sig.S) == LaneDriving,
			})
		}
	}
	return out
}

// DrivableLanes is ResolveLanes restricted to drivable associations.
func DrivableLanes(n *Network, sig *Signal) []LaneAssociation {
	var out []LaneAssociation
	for _, a := range ResolveLanes(n, sig) {
		if a.Drivable {
			out = append(out, a)
		}
	}
	return out
}

// laneRange yields the inclusive integer span between from and to in
// ascending order regardless of the direction given, skipping lane 0.
func laneRange(from, to LaneID) []LaneID {
	lo, hi := from, to
	if lo > hi {
		lo, hi = hi, lo
	}
	var out []LaneID
	for lane := lo; lane <= hi; lane++ {
		if lane == 0 {
			continue
		}
		out = append(out, lane)
	}
	return out
}
