package api

import (
	"context"
	"errors"

	"github.com/rotblauer/gneiss/fossil"
	"github.com/rotblauer/gneiss/pbdb"
)

var ErrPointOutOfRange = errors.New("point index out of range")

// FossilsAt returns the occurrences for the geology under point index of ride id.
// A point without geology has no fossils.
func (r *Rides) FossilsAt(ctx context.Context, id string, index int, k fossil.Kingdom) ([]fossil.Occurrence, error) {
	ride, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(ride.Points) {
		return nil, ErrPointOutOfRange
	}
	q, ok := fossil.QueryForPoint(ride.Points[index])
	if !ok {
		return []fossil.Occurrence{}, nil
	}
	return fossil.FilterKingdom(r.Fossils.Fossils(ctx, q), k), nil
}

// FossilsNear answers an ad hoc query.
func (r *Rides) FossilsNear(ctx context.Context, q fossil.Query, k fossil.Kingdom) []fossil.Occurrence {
	return fossil.FilterKingdom(r.Fossils.Fossils(ctx, q), k)
}

// Density returns the fossil density markers along ride id
// and the per-formation counts they were computed from.
func (r *Rides) Density(ctx context.Context, id string) ([]fossil.Density, map[string]int, error) {
	ride, err := r.Get(id)
	if err != nil {
		return nil, nil, err
	}
	counts := pbdb.FormationCounts(ctx, r.Fossils, ride.Points)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return fossil.ComputeDensity(ride.Points, counts), counts, nil
}
