package fossil

import "github.com/rotblauer/gneiss/types/trackpoint"

// DefaultDensityThreshold is the minimum occurrence count worth an indicator.
const DefaultDensityThreshold = 1

// Density marks where along the ride a fossiliferous formation begins.
type Density struct {
	Distance float64 `json:"distance"` // km along ride
	Count    int     `json:"count"`
}

// ComputeDensity is ComputeDensityThreshold with the default threshold.
func ComputeDensity(points []trackpoint.EnrichedPoint, counts map[string]int) []Density {
	return ComputeDensityThreshold(points, counts, DefaultDensityThreshold)
}

// ComputeDensityThreshold emits an entry at every formation change whose
// formation has at least threshold occurrences.
// Points without a formation name neither emit nor reset the change tracking,
// so A, <none>, A is a single formation run.
func ComputeDensityThreshold(points []trackpoint.EnrichedPoint, counts map[string]int, threshold int) []Density {
	out := []Density{}
	last := ""
	for _, p := range points {
		name := p.FormationName()
		if name == "" || name == last {
			continue
		}
		if count := counts[name]; count >= threshold {
			out = append(out, Density{Distance: p.Distance, Count: count})
		}
		last = name
	}
	return out
}
