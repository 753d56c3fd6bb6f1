package pbdb

import (
	"context"

	"github.com/rotblauer/gneiss/fossil"
	"github.com/rotblauer/gneiss/types/trackpoint"
)

// Fossiler is the query surface FormationCounts needs.
type Fossiler interface {
	Fossils(ctx context.Context, q fossil.Query) []fossil.Occurrence
}

// FormationCounts queries once per distinct named formation along the ride,
// around the first point it appears at, and returns occurrence counts by name.
// Unnamed and "Unknown" formations are not counted.
func FormationCounts(ctx context.Context, f Fossiler, points []trackpoint.EnrichedPoint) map[string]int {
	counts := map[string]int{}
	for _, p := range points {
		name := p.FormationName()
		if name == "" || name == trackpoint.UnknownFormation {
			continue
		}
		if _, ok := counts[name]; ok {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		q, _ := fossil.QueryForPoint(p)
		counts[name] = len(f.Fossils(ctx, q))
	}
	return counts
}
