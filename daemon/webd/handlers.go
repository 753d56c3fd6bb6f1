package webd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/gneiss/api"
	"github.com/rotblauer/gneiss/enrich"
	"github.com/rotblauer/gneiss/fossil"
	"github.com/rotblauer/gneiss/geo/profile"
	"github.com/rotblauer/gneiss/metrics"
	"github.com/rotblauer/gneiss/parse"
	"github.com/rotblauer/gneiss/types"
	"github.com/rotblauer/gneiss/types/units"
)

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type webDaemonStatus struct {
	StartedAt time.Time              `json:"started_at"`
	Uptime    string                 `json:"uptime"`
	WSOpen    bool                   `json:"ws_open"`
	WSConns   int                    `json:"ws_conns"`
	Rides     int                    `json:"rides"`
	Metrics   map[string]interface{} `json:"metrics"`
}

func (s *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Rides.List()
	if err != nil {
		s.logger.Error("Failed to list rides", "error", err)
	}
	st := webDaemonStatus{
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		WSOpen:    !s.melodyInstance.IsClosed(),
		WSConns:   s.melodyInstance.Len(),
		Rides:     len(ids),
		Metrics:   metrics.Snapshot(),
	}
	s.writeJSON(w, st)
}

func (s *WebDaemon) writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

// writeError maps service errors onto status codes.
// Parse errors carry a message meant for the uploader.
func (s *WebDaemon) writeError(w http.ResponseWriter, err error) {
	var perr *parse.ParseError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &perr):
		http.Error(w, perr.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &maxErr):
		http.Error(w, "Upload too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, enrich.ErrEnrichmentAborted):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, api.ErrRideNotFound):
		http.Error(w, "Ride not found", http.StatusNotFound)
	case errors.Is(err, api.ErrPointOutOfRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled):
		http.Error(w, "Request canceled", http.StatusServiceUnavailable)
	default:
		s.logger.Error("Request failed", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

// presentation reads the colorMode and units query params.
func presentation(r *http.Request) (units.ColorMode, units.Units, error) {
	mode, err := units.ParseColorMode(r.URL.Query().Get("colorMode"))
	if err != nil {
		return "", "", err
	}
	u, err := units.ParseUnits(r.URL.Query().Get("units"))
	if err != nil {
		return "", "", err
	}
	return mode, u, nil
}

type rideResponse struct {
	ID         string                     `json:"id"`
	Name       string                     `json:"name"`
	Summary    profile.Summary            `json:"summary"`
	Collection *geojson.FeatureCollection `json:"collection"`
}

func newRideResponse(ride *api.Ride, mode units.ColorMode, u units.Units) rideResponse {
	summary := ride.Summary
	summary.Legend = profile.Legend(ride.Points, mode)
	return rideResponse{
		ID:         ride.ID,
		Name:       ride.Name,
		Summary:    summary,
		Collection: types.ToFeatureCollection(ride.Points, mode, u),
	}
}

// handleUploadRide enriches an activity file posted either as a multipart
// "file" field or as the raw body with a ?filename= param.
func (s *WebDaemon) handleUploadRide(w http.ResponseWriter, r *http.Request) {
	mode, u, err := presentation(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.Config.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.Config.MaxUploadBytes)
	}

	var filename string
	var data []byte
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			s.writeUploadReadError(w, err)
			return
		}
		defer file.Close()
		filename = header.Filename
		data, err = io.ReadAll(file)
		if err != nil {
			s.writeUploadReadError(w, err)
			return
		}
	} else {
		filename = r.URL.Query().Get("filename")
		data, err = io.ReadAll(r.Body)
		if err != nil {
			s.writeUploadReadError(w, err)
			return
		}
	}
	if filename == "" {
		http.Error(w, "Missing filename", http.StatusBadRequest)
		return
	}

	ride, err := s.Rides.Import(r.Context(), filename, data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, newRideResponse(ride, mode, u))
}

func (s *WebDaemon) writeUploadReadError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		s.writeError(w, err)
		return
	}
	http.Error(w, "Failed to read upload: "+err.Error(), http.StatusBadRequest)
}

func (s *WebDaemon) handleListRides(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Rides.List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, ids)
}

func (s *WebDaemon) handleGetRide(w http.ResponseWriter, r *http.Request) {
	mode, u, err := presentation(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ride, err := s.Rides.Get(mux.Vars(r)["ride"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, newRideResponse(ride, mode, u))
}

type fossilResponse struct {
	fossil.Occurrence
	ImageURL    string `json:"imageUrl"`
	FallbackURL string `json:"fallbackUrl"`
}

func newFossilsResponse(occs []fossil.Occurrence, formation string) []fossilResponse {
	out := make([]fossilResponse, 0, len(occs))
	for _, o := range occs {
		out = append(out, fossilResponse{
			Occurrence:  o,
			ImageURL:    fossil.ImageSearchURL(o.TaxonName, formation),
			FallbackURL: fossil.FallbackURL(o.TaxonName),
		})
	}
	return out
}

// handleRideFossils answers for the geology under ?point=<index> of a ride.
func (s *WebDaemon) handleRideFossils(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["ride"]
	index, err := strconv.Atoi(r.URL.Query().Get("point"))
	if err != nil {
		http.Error(w, "Invalid point index", http.StatusBadRequest)
		return
	}
	kingdom, err := fossil.ParseKingdom(r.URL.Query().Get("kingdom"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	occs, err := s.Rides.FossilsAt(r.Context(), id, index, kingdom)
	if err != nil {
		s.writeError(w, err)
		return
	}
	ride, err := s.Rides.Get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, newFossilsResponse(occs, ride.Points[index].FormationName()))
}

type densityResponse struct {
	Density []fossil.Density `json:"density"`
	Counts  map[string]int   `json:"counts"`
}

func (s *WebDaemon) handleRideDensity(w http.ResponseWriter, r *http.Request) {
	density, counts, err := s.Rides.Density(r.Context(), mux.Vars(r)["ride"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, densityResponse{Density: density, Counts: counts})
}

// handleFossils answers an ad hoc query:
// ?lat=&lon=&ageStart=&ageEnd= with optional formation, group, buffer and kingdom.
func (s *WebDaemon) handleFossils(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	nums := map[string]float64{}
	for _, key := range []string{"lat", "lon", "ageStart", "ageEnd"} {
		v, err := parseFinite(q.Get(key))
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid %s", key), http.StatusBadRequest)
			return
		}
		nums[key] = v
	}
	opts := []fossil.QueryOption{
		fossil.WithFormation(q.Get("formation")),
		fossil.WithStratGroup(q.Get("group")),
	}
	if b := q.Get("buffer"); b != "" {
		buffer, err := parseFinite(b)
		if err != nil || buffer <= 0 {
			http.Error(w, "Invalid buffer", http.StatusBadRequest)
			return
		}
		opts = append(opts, fossil.WithBuffer(buffer))
	}
	kingdom, err := fossil.ParseKingdom(q.Get("kingdom"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	query := fossil.BuildQuery(nums["lat"], nums["lon"], nums["ageStart"], nums["ageEnd"], opts...)
	occs := s.Rides.FossilsNear(r.Context(), query, kingdom)
	s.writeJSON(w, newFossilsResponse(occs, query.Formation))
}

var errNotFinite = errors.New("not a finite number")

// parseFinite parses s as a float, rejecting NaN and the infinities.
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}
