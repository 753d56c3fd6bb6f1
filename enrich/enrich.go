// Package enrich attaches geology to every point of a ride.
//
// A ride is downsampled to a bounded number of query points, the geology
// beneath each sample is looked up one request at a time, and every original
// point then takes the geology of the sample nearest to it along the ride.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rotblauer/gneiss/geo/fill"
	"github.com/rotblauer/gneiss/geo/sample"
	"github.com/rotblauer/gneiss/macrostrat"
	"github.com/rotblauer/gneiss/params"
	"github.com/rotblauer/gneiss/types/trackpoint"
)

// ErrEnrichmentAborted wraps any failure that stops an enrichment.
// No partial result accompanies it.
var ErrEnrichmentAborted = errors.New("geology enrichment aborted")

// ProgressFunc is called after each lookup with the number done and the total.
type ProgressFunc func(done, total int)

type Enricher struct {
	Lookup         macrostrat.Lookup
	MaxQueryPoints int
	Delay          time.Duration
	logger         *slog.Logger
}

func NewEnricher(lookup macrostrat.Lookup, config *params.EnrichConfig) *Enricher {
	if config == nil {
		config = params.DefaultEnrichConfig()
	}
	return &Enricher{
		Lookup:         lookup,
		MaxQueryPoints: config.MaxQueryPoints,
		Delay:          config.Delay,
		logger:         slog.With("d", "enrich"),
	}
}

// EnrichWithGeology returns one EnrichedPoint per input point, in order.
// Points whose nearest sample had no geology get a nil Geology.
func (e *Enricher) EnrichWithGeology(ctx context.Context, points trackpoint.TrackPoints, onProgress ProgressFunc) (trackpoint.EnrichedPoints, error) {
	if len(points) == 0 {
		return trackpoint.EnrichedPoints{}, nil
	}
	maxPoints := e.MaxQueryPoints
	if maxPoints <= 0 {
		maxPoints = params.DefaultEnrichConfig().MaxQueryPoints
	}
	sampled := sample.Downsample(points, maxPoints)

	geos, err := e.lookupAll(ctx, sampled, onProgress)
	if err != nil {
		return nil, err
	}

	distances := make([]float64, len(sampled))
	for i, p := range sampled {
		distances[i] = p.Distance
	}
	out := make(trackpoint.EnrichedPoints, len(points))
	for i, p := range points {
		out[i] = trackpoint.EnrichedPoint{
			TrackPoint: p,
			Geology:    geos[sample.NearestByDistance(distances, p.Distance)],
		}
	}
	return out, nil
}

// lookupAll queries sequentially, pausing between requests but not after the last.
func (e *Enricher) lookupAll(ctx context.Context, sampled trackpoint.TrackPoints, onProgress ProgressFunc) ([]*trackpoint.GeoUnit, error) {
	total := len(sampled)
	geos := make([]*trackpoint.GeoUnit, 0, total)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for i, p := range sampled {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEnrichmentAborted, err)
		}
		geo, err := e.Lookup.GeoUnit(ctx, p.Lat, p.Lon)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			e.log().Warn("Geology lookup failed", "index", i, "lat", p.Lat, "lon", p.Lon, "error", err)
			return nil, fmt.Errorf("%w: sample %d/%d: %w", ErrEnrichmentAborted, i+1, total, err)
		}
		if geo == nil {
			e.log().Debug("Geology miss", "index", i, "lat", p.Lat, "lon", p.Lon)
		}
		geos = append(geos, geo)
		if onProgress != nil {
			onProgress(i+1, total)
		}

		if i == total-1 || e.Delay <= 0 {
			continue
		}
		if timer == nil {
			timer = time.NewTimer(e.Delay)
		} else {
			timer.Reset(e.Delay)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrEnrichmentAborted, ctx.Err())
		case <-timer.C:
		}
	}
	return geos, nil
}

func (e *Enricher) log() *slog.Logger {
	if e.logger == nil {
		return slog.Default()
	}
	return e.logger
}

// Pipeline enriches points and forward-fills geology gaps.
func Pipeline(ctx context.Context, e *Enricher, points trackpoint.TrackPoints, onProgress ProgressFunc) (trackpoint.EnrichedPoints, error) {
	enriched, err := e.EnrichWithGeology(ctx, points, onProgress)
	if err != nil {
		return nil, err
	}
	filled := fill.ForwardFillGeology(enriched)
	e.log().Info("Enriched ride", "points", len(filled), "gaps", fill.Gaps(enriched), "unfilled", fill.Gaps(filled))
	return filled, nil
}
