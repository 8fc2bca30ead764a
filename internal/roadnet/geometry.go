package roadnet

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// LinePoint samples a road's reference line at an s-coordinate.
type LinePoint struct {
	S   float64
	Pos r3.Vec
}

// Pose is a world placement: a position and a heading (yaw, radians) in the
// map frame.
type Pose struct {
	Position r3.Vec
	Heading  float64
}

// lineAt evaluates the reference line at s: interpolated position plus the
// unit direction of the containing segment.
func (r *Road) lineAt(s float64) (pos, dir r3.Vec, err error) {
	if len(r.Line) < 2 {
		return r3.Vec{}, r3.Vec{}, fmt.Errorf("road %d has no reference line", r.ID)
	}
	pts := r.Line
	if s <= pts[0].S {
		seg := r3.Sub(pts[1].Pos, pts[0].Pos)
		return pts[0].Pos, r3.Unit(seg), nil
	}
	for i := 1; i < len(pts); i++ {
		if s <= pts[i].S {
			a, b := pts[i-1], pts[i]
			seg := r3.Sub(b.Pos, a.Pos)
			t := (s - a.S) / (b.S - a.S)
			return r3.Add(a.Pos, r3.Scale(t, seg)), r3.Unit(seg), nil
		}
	}
	last := len(pts) - 1
	seg := r3.Sub(pts[last].Pos, pts[last-1].Pos)
	return pts[last].Pos, r3.Unit(seg), nil
}

// laneOffset computes the signed lateral offset of a lane's center from the
// reference line at the given section: the widths of every lane between the
// centerline and the target, plus half the target's own width. Positive
// lanes sit left of the travel direction, negative ones right.
func laneOffset(sec *LaneSection, lane LaneID) float64 {
	if lane == 0 {
		return 0
	}
	step := LaneID(1)
	if lane < 0 {
		step = -1
	}
	offset := 0.0
	for id := step; id != lane; id += step {
		if l := sec.Lanes[id]; l != nil {
			offset += l.Width
		}
	}
	if l := sec.Lanes[lane]; l != nil {
		offset += l.Width / 2
	}
	if lane < 0 {
		return -offset
	}
	return offset
}

// WaypointTransform computes the world pose of a waypoint using the road's
// longitudinal (reference line) and lateral (lane offset) placement.
func (n *Network) WaypointTransform(wp Waypoint) (Pose, error) {
	r := n.roads[wp.RoadID]
	if r == nil {
		return Pose{}, fmt.Errorf("unknown road %d", wp.RoadID)
	}
	center, dir, err := r.lineAt(wp.S)
	if err != nil {
		return Pose{}, err
	}
	// Left normal of the travel direction, in the ground plane.
	normal := r3.Vec{X: -dir.Y, Y: dir.X}
	t := laneOffset(r.SectionAt(wp.S), wp.LaneID)
	return Pose{
		Position: r3.Add(center, r3.Scale(t, normal)),
		Heading:  math.Atan2(dir.Y, dir.X),
	}, nil
}

// SignalTransform computes the world pose of a signal record from its
// (s, t) placement along its road.
func (n *Network) SignalTransform(sig *Signal) (Pose, error) {
	r := n.roads[sig.RoadID]
	if r == nil {
		return Pose{}, fmt.Errorf("unknown road %d", sig.RoadID)
	}
	center, dir, err := r.lineAt(sig.S)
	if err != nil {
		return Pose{}, err
	}
	normal := r3.Vec{X: -dir.Y, Y: dir.X}
	return Pose{
		Position: r3.Add(center, r3.Scale(sig.T, normal)),
		Heading:  math.Atan2(dir.Y, dir.X),
	}, nil
}
