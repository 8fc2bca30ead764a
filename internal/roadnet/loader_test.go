package roadnet

import (
	"testing"
)

const sampleDefinition = `{
  "geo_reference": "+proj=tmerc +lat_0=0 +lon_0=0",
  "roads": [
    {
      "id": 1,
      "name": "MainStreet",
      "length": 100,
      "line": [
        {"s": 0, "x": 0, "y": 0},
        {"s": 100, "x": 100, "y": 0}
      ],
      "sections": [
        {
          "s": 0,
          "lanes": [
            {"id": -1, "type": "Driving", "width": 3.5},
            {"id": -2, "type": "Driving"},
            {"id": 1, "type": "Sidewalk", "width": 2}
          ]
        }
      ],
      "signals": [
        {
          "id": "TL-1",
          "s": 90,
          "t": -7,
          "validities": [{"from": -2, "to": -1}]
        }
      ]
    },
    {
      "id": 2,
      "length": 50,
      "line": [
        {"s": 0, "x": 100, "y": 0},
        {"s": 50, "x": 150, "y": 0}
      ],
      "sections": [
        {"s": 0, "lanes": [{"id": -1, "type": "Driving"}]}
      ]
    }
  ]
}`

func TestDefinitionLoaderLoad(t *testing.T) {
	n, err := NewDefinitionLoader().Load(sampleDefinition)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if n.GeoReference != "+proj=tmerc +lat_0=0 +lon_0=0" {
		t.Errorf("GeoReference = %q", n.GeoReference)
	}
	if len(n.Roads()) != 2 {
		t.Fatalf("roads = %d, want 2", len(n.Roads()))
	}

	r := n.Road(1)
	if r.Name != "MainStreet" {
		t.Errorf("road name = %q", r.Name)
	}
	if len(r.Signals) != 1 {
		t.Fatalf("signals = %d, want 1", len(r.Signals))
	}
	sig := r.Signals[0]
	if sig.RoadID != 1 || sig.ID != "TL-1" || sig.S != 90 {
		t.Errorf("signal = %+v", sig)
	}
	if len(sig.Validities) != 1 || sig.Validities[0] != (Validity{FromLane: -2, ToLane: -1}) {
		t.Errorf("validities = %+v", sig.Validities)
	}

	// Omitted width falls back to the default.
	sec := r.SectionAt(0)
	if w := sec.Lanes[-2].Width; w != defaultLaneWidth {
		t.Errorf("default lane width = %v, want %v", w, defaultLaneWidth)
	}
	if w := sec.Lanes[1].Width; w != 2 {
		t.Errorf("explicit lane width = %v, want 2", w)
	}
}

func TestDefinitionLoaderInvalidMap(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"not json", "<OpenDRIVE></OpenDRIVE>"},
		{"empty", ""},
		{"no roads", `{"geo_reference": "x", "roads": []}`},
		{"road without sections", `{"roads": [{"id": 1, "length": 10, "sections": []}]}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := NewDefinitionLoader().Load(c.text); err == nil {
				t.Errorf("Load(%s) accepted invalid map", c.name)
			}
		})
	}
}

func TestDefinitionLoaderResolverIntegration(t *testing.T) {
	n, err := NewDefinitionLoader().Load(sampleDefinition)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	refs := ResolveReferences(n)
	if len(refs) != 1 || refs[0].Signal.ID != "TL-1" {
		t.Fatalf("refs = %+v, want TL-1", refs)
	}

	lanes := ResolveLanes(n, refs[0].Signal)
	if len(lanes) != 2 {
		t.Fatalf("lanes = %+v, want 2 entries", lanes)
	}
	for _, a := range lanes {
		if !a.Drivable {
			t.Errorf("lane %d not drivable", a.LaneID)
		}
	}
}
