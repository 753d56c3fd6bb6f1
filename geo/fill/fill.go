// Package fill smooths gaps in enriched rides.
package fill

import "github.com/rotblauer/gneiss/types/trackpoint"

// ForwardFillGeology returns a copy of points where every nil Geology
// that follows a known one takes the most recent known unit.
// Leading nils stay nil. The input is not modified.
func ForwardFillGeology(points []trackpoint.EnrichedPoint) []trackpoint.EnrichedPoint {
	out := make([]trackpoint.EnrichedPoint, len(points))
	var last *trackpoint.GeoUnit
	for i, p := range points {
		if p.Geology != nil {
			last = p.Geology
		} else {
			p.Geology = last
		}
		out[i] = p
	}
	return out
}

// Gaps counts the points without geology.
func Gaps(points []trackpoint.EnrichedPoint) (n int) {
	for _, p := range points {
		if p.Geology == nil {
			n++
		}
	}
	return n
}
