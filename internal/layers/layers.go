// Package layers maps between the 32-bit map-layer bitmask shared with
// remote callers and the named, independently loadable partitions of map
// content ("layers"). The bit layout is a persisted contract: each defined
// layer occupies exactly one bit and must never move.
package layers

import (
	"fmt"
	"strings"
)

// Mask is a bit-set of map layers. A mask may carry bits outside the defined
// range; they are ignored rather than rejected so newer callers can talk to
// older hosts.
type Mask uint32

const (
	// None is the empty mask. It is not a layer.
	None Mask = 0x0

	Buildings      Mask = 0x1
	Decals         Mask = 0x2
	Foliage        Mask = 0x4
	Ground         Mask = 0x8
	ParkedVehicles Mask = 0x10
	Particles      Mask = 0x20
	Props          Mask = 0x40
	StreetLights   Mask = 0x80
	Walls          Mask = 0x100

	// All is the union of every defined layer bit.
	All Mask = Buildings | Decals | Foliage | Ground | ParkedVehicles |
		Particles | Props | StreetLights | Walls
)

// defined lists every layer in ascending bit order. Expand iterates this
// table directly instead of shifting a probe bit through the mask, so layer
// bits are not required to stay contiguous.
var defined = []struct {
	bit  Mask
	name string
}{
	{Buildings, "Buildings"},
	{Decals, "Decals"},
	{Foliage, "Foliage"},
	{Ground, "Ground"},
	{ParkedVehicles, "ParkedVehicles"},
	{Particles, "Particles"},
	{Props, "Props"},
	{StreetLights, "StreetLights"},
	{Walls, "Walls"},
}

// Expand decodes a mask into the names of the layers it selects, in
// ascending bit order. Bits outside All are ignored.
func Expand(m Mask) []string {
	var names []string
	for _, l := range defined {
		if m&l.bit != 0 {
			names = append(names, l.name)
		}
	}
	return names
}

// Name returns the name of a single layer bit.
func Name(bit Mask) (string, bool) {
	for _, l := range defined {
		if l.bit == bit {
			return l.name, true
		}
	}
	return "", false
}

// ParseNames converts layer names back into a mask. "All" and "None" are
// accepted as sentinels. Unknown names are an error: they come from a caller,
// not from the wire, so silently dropping them would hide typos.
func ParseNames(names []string) (Mask, error) {
	var m Mask
	for _, name := range names {
		switch name {
		case "All":
			m |= All
			continue
		case "None", "":
			continue
		}
		found := false
		for _, l := range defined {
			if l.name == name {
				m |= l.bit
				found = true
				break
			}
		}
		if !found {
			return None, fmt.Errorf("unknown map layer %q", name)
		}
	}
	return m, nil
}

// String renders the mask as a pipe-separated name list, for logs.
func (m Mask) String() string {
	if m&All == All {
		return "All"
	}
	names := Expand(m)
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, "|")
}

// MatchSubMaps selects the sub-map identifiers that belong to any of the
// requested layers. A sub-map matches a layer when its final path segment
// contains the layer name (case-sensitive); layer names are tested in the
// order given and the first match wins, so a sub-map is selected at most
// once. The result preserves the input identifier order and carries the full
// identifier, not the stripped segment.
func MatchSubMaps(subMaps []string, layerNames []string) []string {
	var matched []string
	for _, id := range subMaps {
		segments := strings.Split(id, "/")
		name := segments[len(segments)-1]
		for _, layer := range layerNames {
			if strings.Contains(name, layer) {
				matched = append(matched, id)
				break
			}
		}
	}
	return matched
}
