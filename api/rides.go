// Package api is the ride service shared by the web daemon and the CLI:
// decode an upload, enrich it with geology, store it, and answer fossil
// queries about it.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/gneiss/catdb/cache"
	"github.com/rotblauer/gneiss/catdb/flat"
	"github.com/rotblauer/gneiss/catdb/s3store"
	"github.com/rotblauer/gneiss/enrich"
	"github.com/rotblauer/gneiss/events"
	"github.com/rotblauer/gneiss/geo/profile"
	"github.com/rotblauer/gneiss/metrics"
	"github.com/rotblauer/gneiss/params"
	"github.com/rotblauer/gneiss/pbdb"
	"github.com/rotblauer/gneiss/rgeo"
	"github.com/rotblauer/gneiss/types"
	"github.com/rotblauer/gneiss/types/trackpoint"
	"github.com/rotblauer/gneiss/types/units"
)

var ErrRideNotFound = flat.ErrRideNotFound

// Ride is an enriched ride as stored.
// Points are stored colored by age in metric units.
type Ride struct {
	ID      string                    `json:"id"`
	Name    string                    `json:"name"`
	Points  trackpoint.EnrichedPoints `json:"-"`
	Summary profile.Summary           `json:"summary"`
}

type Rides struct {
	Flat     *flat.Flat
	Enricher *enrich.Enricher
	Fossils  pbdb.Fossiler

	// Geocoder and S3 are optional.
	Geocoder rgeo.ReverseGeocoder
	S3       *s3store.Store

	recent *cache.Recent[*Ride]
	logger *slog.Logger
}

func NewRides(f *flat.Flat, e *enrich.Enricher, fossils pbdb.Fossiler) *Rides {
	return &Rides{
		Flat:     f,
		Enricher: e,
		Fossils:  fossils,
		recent:   cache.NewRecent[*Ride](params.CacheRecentRides),
		logger:   slog.With("d", "rides"),
	}
}

// RideID is a content hash of the ride name and its points.
func RideID(name string, tps trackpoint.TrackPoints) (string, error) {
	return cache.ContentID(struct {
		Name   string
		Points trackpoint.TrackPoints
	}{name, tps})
}

// Import decodes, enriches and stores an uploaded activity file.
// Parse failures are returned as *parse.ParseError, lookup failures
// wrap enrich.ErrEnrichmentAborted.
func (r *Rides) Import(ctx context.Context, filename string, data []byte) (*Ride, error) {
	start := time.Now()
	tps, err := types.DecodeActivity(filename, data)
	if err != nil {
		return nil, err
	}
	name := types.RideName(filename)
	id, err := RideID(name, tps)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Importing ride", "id", id, "name", name,
		"points", len(tps), "size", humanize.Bytes(uint64(len(data))))

	points, err := enrich.Pipeline(ctx, r.Enricher, tps, func(done, total int) {
		events.EnrichProgressFeed.Send(events.Progress{RideID: id, Done: done, Total: total})
	})
	if err != nil {
		metrics.RidesAborted.Inc(1)
		events.EnrichedFeed.Send(events.Enriched{RideID: id, Name: name, Points: len(tps), Error: err.Error()})
		return nil, err
	}

	ride := &Ride{
		ID:      id,
		Name:    name,
		Points:  points,
		Summary: profile.Summarize(points, units.ColorModeAge, r.Geocoder),
	}
	if err := r.store(ctx, ride); err != nil {
		return nil, fmt.Errorf("store ride %s: %w", id, err)
	}
	r.recent.Add(id, ride)
	metrics.RidesEnriched.Inc(1)
	events.EnrichedFeed.Send(events.Enriched{RideID: id, Name: name, Points: len(points)})

	r.logger.Info("Imported ride", "id", id, "name", name,
		"distance", humanize.FtoaWithDigits(ride.Summary.DistanceKm, 2)+"km",
		"elapsed", time.Since(start).Round(time.Millisecond))
	return ride, nil
}

func (r *Rides) store(ctx context.Context, ride *Ride) error {
	fc := types.ToFeatureCollection(ride.Points, units.ColorModeAge, units.Metric)
	fcJSON, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	summary, err := json.Marshal(ride)
	if err != nil {
		return err
	}
	rf := r.Flat.ForRide(ride.ID)
	if err := rf.WriteGZ(params.EnrichedGZFileName, fcJSON); err != nil {
		return err
	}
	if err := rf.WriteFile(params.SummaryFileName, summary); err != nil {
		return err
	}
	if r.S3 == nil {
		return nil
	}
	gz, err := rf.ReadFile(params.EnrichedGZFileName)
	if err != nil {
		return err
	}
	// Export failures leave the local copy in place.
	if err := r.S3.ExportRide(ctx, ride.ID, gz, summary); err != nil {
		r.logger.Warn("Failed to export ride", "id", ride.ID, "error", err)
	}
	return nil
}

// Get returns a stored ride, from memory when recently used.
func (r *Rides) Get(id string) (*Ride, error) {
	if id == "" || strings.ContainsAny(id, `/\.`) {
		return nil, ErrRideNotFound
	}
	if ride, ok := r.recent.Get(id); ok {
		return ride, nil
	}
	rf := r.Flat.ForRide(id)
	b, err := rf.ReadFile(params.SummaryFileName)
	if err != nil {
		return nil, err
	}
	ride := &Ride{}
	if err := json.Unmarshal(b, ride); err != nil {
		return nil, fmt.Errorf("decode ride %s summary: %w", id, err)
	}
	fc, err := rf.ReadGZ(params.EnrichedGZFileName)
	if err != nil {
		return nil, err
	}
	ride.Points, err = types.DecodeEnrichedCollection(fc)
	if err != nil {
		return nil, fmt.Errorf("decode ride %s points: %w", id, err)
	}
	r.recent.Add(id, ride)
	return ride, nil
}

// List returns the ids of all stored rides.
func (r *Rides) List() ([]string, error) {
	return r.Flat.Rides()
}
