package roadnet

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-9

func vecNear(a, b r3.Vec) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol && math.Abs(a.Z-b.Z) < tol
}

func TestWaypointTransformOnCenterline(t *testing.T) {
	// Lane 0 (centerline) has no offset; position interpolates along the
	// reference line.
	n := mustNetwork(t, straightRoad(1, 100, drivingLanes(-1)))

	pose, err := n.WaypointTransform(Waypoint{RoadID: 1, LaneID: 0, S: 25})
	if err != nil {
		t.Fatalf("WaypointTransform: %v", err)
	}
	if !vecNear(pose.Position, r3.Vec{X: 25, Y: 0}) {
		t.Errorf("position = %+v, want (25,0,0)", pose.Position)
	}
	if math.Abs(pose.Heading) > tol {
		t.Errorf("heading = %v, want 0", pose.Heading)
	}
}

func TestWaypointTransformLaneOffsets(t *testing.T) {
	// Two 3.5m lanes each side: lane -1 center sits 1.75m right of the
	// line (negative Y for a road running along +X), lane -2 at 5.25m.
	n := mustNetwork(t, straightRoad(1, 100, drivingLanes(-2, -1, 1, 2)))

	cases := []struct {
		lane  LaneID
		wantY float64
	}{
		{-1, -1.75},
		{-2, -5.25},
		{1, 1.75},
		{2, 5.25},
	}
	for _, c := range cases {
		pose, err := n.WaypointTransform(Waypoint{RoadID: 1, LaneID: c.lane, S: 50})
		if err != nil {
			t.Fatalf("WaypointTransform(lane %d): %v", c.lane, err)
		}
		if math.Abs(pose.Position.Y-c.wantY) > tol {
			t.Errorf("lane %d offset Y = %v, want %v", c.lane, pose.Position.Y, c.wantY)
		}
		if math.Abs(pose.Position.X-50) > tol {
			t.Errorf("lane %d X = %v, want 50", c.lane, pose.Position.X)
		}
	}
}

func TestWaypointTransformClampsBeyondLine(t *testing.T) {
	n := mustNetwork(t, straightRoad(1, 100, drivingLanes(-1)))

	pose, err := n.WaypointTransform(Waypoint{RoadID: 1, LaneID: 0, S: 150})
	if err != nil {
		t.Fatalf("WaypointTransform: %v", err)
	}
	if !vecNear(pose.Position, r3.Vec{X: 100, Y: 0}) {
		t.Errorf("position past line end = %+v, want clamped to (100,0,0)", pose.Position)
	}
}

func TestWaypointTransformUnknownRoad(t *testing.T) {
	n := mustNetwork(t, straightRoad(1, 100, drivingLanes(-1)))
	if _, err := n.WaypointTransform(Waypoint{RoadID: 9, LaneID: -1, S: 0}); err == nil {
		t.Error("unknown road accepted")
	}
}

func TestWaypointTransformHeadingFollowsLine(t *testing.T) {
	// Road turning 90 degrees: first segment along +X, second along +Y.
	r := &Road{
		ID:     1,
		Length: 200,
		Line: []LinePoint{
			{S: 0, Pos: r3.Vec{X: 0, Y: 0}},
			{S: 100, Pos: r3.Vec{X: 100, Y: 0}},
			{S: 200, Pos: r3.Vec{X: 100, Y: 100}},
		},
		Sections: []*LaneSection{{S: 0, Lanes: drivingLanes(-1)}},
	}
	n := mustNetwork(t, r)

	pose, err := n.WaypointTransform(Waypoint{RoadID: 1, LaneID: 0, S: 150})
	if err != nil {
		t.Fatalf("WaypointTransform: %v", err)
	}
	if math.Abs(pose.Heading-math.Pi/2) > tol {
		t.Errorf("heading = %v, want pi/2", pose.Heading)
	}
	if !vecNear(pose.Position, r3.Vec{X: 100, Y: 50}) {
		t.Errorf("position = %+v, want (100,50,0)", pose.Position)
	}
}

func TestSignalTransformUsesLateralOffset(t *testing.T) {
	r := straightRoad(1, 100, drivingLanes(-1))
	sig := &Signal{ID: "S1", S: 30, T: -6}
	r.Signals = []*Signal{sig}
	n := mustNetwork(t, r)

	pose, err := n.SignalTransform(sig)
	if err != nil {
		t.Fatalf("SignalTransform: %v", err)
	}
	if !vecNear(pose.Position, r3.Vec{X: 30, Y: -6}) {
		t.Errorf("signal position = %+v, want (30,-6,0)", pose.Position)
	}
}

func TestWaypointTransformNoReferenceLine(t *testing.T) {
	r := &Road{
		ID:       1,
		Length:   10,
		Sections: []*LaneSection{{S: 0, Lanes: drivingLanes(-1)}},
	}
	n := mustNetwork(t, r)
	if _, err := n.WaypointTransform(Waypoint{RoadID: 1, LaneID: -1, S: 0}); err == nil {
		t.Error("road without reference line accepted")
	}
}
