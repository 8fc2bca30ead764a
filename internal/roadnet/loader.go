package roadnet

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Loader turns raw map text into a road network. A nil network with an
// error means "invalid map": the episode continues without road-network
// derived behavior, it does not abort.
type Loader interface {
	Load(rawMapText string) (*Network, error)
}

// DefinitionLoader parses the JSON network definition produced by the map
// toolchain. (The OpenDRIVE XML parser lives upstream of this host; its
// output is exported in this definition format.)
type DefinitionLoader struct{}

// NewDefinitionLoader returns a loader for JSON network definitions.
func NewDefinitionLoader() *DefinitionLoader {
	return &DefinitionLoader{}
}

type definitionFile struct {
	GeoReference string           `json:"geo_reference"`
	Roads        []roadDefinition `json:"roads"`
}

type roadDefinition struct {
	ID       uint32              `json:"id"`
	Name     string              `json:"name,omitempty"`
	Length   float64             `json:"length"`
	Line     []lineDefinition    `json:"line"`
	Sections []sectionDefinition `json:"sections"`
	Signals  []signalDefinition  `json:"signals,omitempty"`
}

type lineDefinition struct {
	S float64 `json:"s"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

type sectionDefinition struct {
	S     float64          `json:"s"`
	Lanes []laneDefinition `json:"lanes"`
}

type laneDefinition struct {
	ID    int32   `json:"id"`
	Type  string  `json:"type"`
	Width float64 `json:"width,omitempty"`
}

type signalDefinition struct {
	ID         string               `json:"id"`
	S          float64              `json:"s"`
	T          float64              `json:"t,omitempty"`
	Validities []validityDefinition `json:"validities"`
}

type validityDefinition struct {
	From int32 `json:"from"`
	To   int32 `json:"to"`
}

// defaultLaneWidth is used when the definition omits a lane width.
const defaultLaneWidth = 3.5

// Load parses a JSON network definition.
func (l *DefinitionLoader) Load(rawMapText string) (*Network, error) {
	var def definitionFile
	if err := json.Unmarshal([]byte(rawMapText), &def); err != nil {
		return nil, fmt.Errorf("parse map definition: %w", err)
	}
	if len(def.Roads) == 0 {
		return nil, fmt.Errorf("map definition has no roads")
	}

	roads := make([]*Road, 0, len(def.Roads))
	for _, rd := range def.Roads {
		road := &Road{
			ID:     RoadID(rd.ID),
			Name:   rd.Name,
			Length: rd.Length,
		}
		for _, p := range rd.Line {
			road.Line = append(road.Line, LinePoint{
				S:   p.S,
				Pos: r3.Vec{X: p.X, Y: p.Y, Z: p.Z},
			})
		}
		if len(rd.Sections) == 0 {
			return nil, fmt.Errorf("road %d has no lane sections", rd.ID)
		}
		for _, sd := range rd.Sections {
			sec := &LaneSection{S: sd.S, Lanes: make(map[LaneID]*Lane, len(sd.Lanes))}
			for _, ld := range sd.Lanes {
				width := ld.Width
				if width == 0 {
					width = defaultLaneWidth
				}
				sec.Lanes[LaneID(ld.ID)] = &Lane{
					ID:    LaneID(ld.ID),
					Type:  LaneType(ld.Type),
					Width: width,
				}
			}
			road.Sections = append(road.Sections, sec)
		}
		for _, sg := range rd.Signals {
			sig := &Signal{ID: sg.ID, S: sg.S, T: sg.T}
			for _, v := range sg.Validities {
				sig.Validities = append(sig.Validities, Validity{
					FromLane: LaneID(v.From),
					ToLane:   LaneID(v.To),
				})
			}
			road.Signals = append(road.Signals, sig)
		}
		roads = append(roads, road)
	}

	return NewNetwork(def.GeoReference, roads)
}
