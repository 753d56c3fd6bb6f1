package trackpoint

import "math"

// GeoUnit is a geologic mapping unit as resolved beneath a point.
// AgeStart and AgeEnd are in Ma and are not guaranteed ordered.
type GeoUnit struct {
	UnitID        int64   `json:"unitId"`
	FormationName string  `json:"formationName"`
	Interval      string  `json:"interval"`  // eg. "Cretaceous"
	Lithology     string  `json:"lithology"` // eg. "Sandstone"
	AgeColor      string  `json:"ageColor"`  // hex
	LithColor     string  `json:"lithColor"` // hex
	AgeStart      float64 `json:"ageStart"`
	AgeEnd        float64 `json:"ageEnd"`
}

// UnknownFormation is the formation name used when the service provides none.
const UnknownFormation = "Unknown"

// AgeRange returns the normalized age range, minMa <= maxMa.
func (g *GeoUnit) AgeRange() (minMa, maxMa float64) {
	return math.Min(g.AgeStart, g.AgeEnd), math.Max(g.AgeStart, g.AgeEnd)
}

// SameUnit reports whether two units are the same for change detection.
// Formation name is the identity; unit ids are compared too when both are known.
func (g *GeoUnit) SameUnit(other *GeoUnit) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.FormationName != other.FormationName {
		return false
	}
	if g.UnitID != 0 && other.UnitID != 0 {
		return g.UnitID == other.UnitID
	}
	return true
}

// EnrichedPoint is a TrackPoint with the geology resolved beneath it.
// A nil Geology means no geologic data was resolved there,
// which is a valid, displayable state.
type EnrichedPoint struct {
	TrackPoint
	Geology *GeoUnit `json:"geology"`
}

type EnrichedPoints []EnrichedPoint

// FormationName returns the formation name or "" for nil geology.
func (ep EnrichedPoint) FormationName() string {
	if ep.Geology == nil {
		return ""
	}
	return ep.Geology.FormationName
}

// TrackPoints strips the geology.
func (eps EnrichedPoints) TrackPoints() TrackPoints {
	out := make(TrackPoints, len(eps))
	for i, ep := range eps {
		out[i] = ep.TrackPoint
	}
	return out
}
