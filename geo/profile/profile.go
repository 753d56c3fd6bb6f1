// Package profile summarizes an enriched ride: distance, elevation, heart rate,
// the formations crossed, and where it happened.
package profile

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
	"github.com/rotblauer/gneiss/common"
	"github.com/rotblauer/gneiss/rgeo"
	"github.com/rotblauer/gneiss/types/trackpoint"
	"github.com/rotblauer/gneiss/types/units"
)

// DefaultBBoxBuffer pads each side of the ride bounds by this fraction of its span.
const DefaultBBoxBuffer = 0.1

type Elevation struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Gain float64 `json:"gain"`
	Loss float64 `json:"loss"`
}

type HeartRate struct {
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
}

// LegendEntry is one formation crossed, in the order first crossed.
type LegendEntry struct {
	FormationName string `json:"formationName"`
	Interval      string `json:"interval"`
	Lithology     string `json:"lithology"`
	Color         string `json:"color"`
}

type Summary struct {
	Points     int           `json:"points"`
	DistanceKm float64       `json:"distanceKm"`
	Duration   time.Duration `json:"duration"`
	Elevation  Elevation     `json:"elevation"`
	HeartRate  *HeartRate    `json:"heartRate,omitempty"`
	Legend     []LegendEntry `json:"legend"`
	// Coverage is the fraction of points with geology.
	Coverage float64   `json:"coverage"`
	BBox     orb.Bound `json:"bbox"`
	Location string    `json:"location,omitempty"`
}

// Summarize computes the summary of points, legend colored by mode.
// The location is left empty when g is nil.
func Summarize(points trackpoint.EnrichedPoints, mode units.ColorMode, g rgeo.ReverseGeocoder) Summary {
	s := Summary{
		Points: len(points),
		Legend: Legend(points, mode),
	}
	if len(points) == 0 {
		return s
	}
	tps := points.TrackPoints()
	s.DistanceKm = tps.TotalDistance()
	s.Duration = tps.Duration()
	s.Elevation = elevation(tps)
	s.HeartRate = heartRate(tps)
	s.BBox = RideBBox(tps, DefaultBBoxBuffer)
	s.Location = rgeo.Locate(g, tps[0].Point())

	covered := 0
	for _, p := range points {
		if p.Geology != nil {
			covered++
		}
	}
	s.Coverage = common.DecimalToFixed(float64(covered)/float64(len(points)), 3)
	return s
}

func statsMustFloat(fn func() (float64, error), def float64) float64 {
	out, err := fn()
	if err != nil {
		return def
	}
	return out
}

func elevation(tps trackpoint.TrackPoints) Elevation {
	data := make(stats.Float64Data, len(tps))
	var gain, loss float64
	for i, tp := range tps {
		data[i] = tp.Elevation
		if i == 0 {
			continue
		}
		if delta := tp.Elevation - tps[i-1].Elevation; delta > 0 {
			gain += delta
		} else {
			loss += math.Abs(delta)
		}
	}
	return Elevation{
		Min:  statsMustFloat(data.Min, 0),
		Max:  statsMustFloat(data.Max, 0),
		Mean: common.DecimalToFixed(statsMustFloat(data.Mean, 0), 1),
		Gain: math.Floor(gain),
		Loss: math.Floor(loss),
	}
}

func heartRate(tps trackpoint.TrackPoints) *HeartRate {
	data := stats.Float64Data{}
	for _, tp := range tps {
		if tp.HeartRate != nil {
			data = append(data, float64(*tp.HeartRate))
		}
	}
	if len(data) == 0 {
		return nil
	}
	return &HeartRate{
		Mean: common.DecimalToFixed(statsMustFloat(data.Mean, 0), 0),
		Max:  statsMustFloat(data.Max, 0),
	}
}

// Legend returns the unique formations of points by name, first seen first.
func Legend(points []trackpoint.EnrichedPoint, mode units.ColorMode) []LegendEntry {
	out := []LegendEntry{}
	seen := map[string]bool{}
	for _, p := range points {
		if p.Geology == nil || seen[p.Geology.FormationName] {
			continue
		}
		seen[p.Geology.FormationName] = true
		out = append(out, LegendEntry{
			FormationName: p.Geology.FormationName,
			Interval:      p.Geology.Interval,
			Lithology:     p.Geology.Lithology,
			Color:         units.GeoColor(p.Geology, mode),
		})
	}
	return out
}

// RideBBox is the bound of the ride padded on each side by bufferPct of its span.
func RideBBox(tps trackpoint.TrackPoints, bufferPct float64) orb.Bound {
	b := tps.LineString().Bound()
	latPad := (b.Max.Lat() - b.Min.Lat()) * bufferPct
	lonPad := (b.Max.Lon() - b.Min.Lon()) * bufferPct
	return orb.Bound{
		Min: orb.Point{b.Min.Lon() - lonPad, b.Min.Lat() - latPad},
		Max: orb.Point{b.Max.Lon() + lonPad, b.Max.Lat() + latPad},
	}
}

// String renders the summary for terminals in the given units.
func (s Summary) String(u units.Units) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s points, %s %s", humanize.Comma(int64(s.Points)),
		humanize.FtoaWithDigits(units.ConvertDistance(s.DistanceKm, u), 2), units.DistanceLabel(u))
	if s.Duration > 0 {
		fmt.Fprintf(&sb, " in %s", s.Duration.Round(time.Second))
	}
	if s.Location != "" {
		fmt.Fprintf(&sb, " (%s)", s.Location)
	}
	fmt.Fprintf(&sb, "\nelevation %s-%s %s, +%s/-%s",
		humanize.FtoaWithDigits(units.ConvertElevation(s.Elevation.Min, u), 0),
		humanize.FtoaWithDigits(units.ConvertElevation(s.Elevation.Max, u), 0),
		units.ElevationLabel(u),
		humanize.FtoaWithDigits(units.ConvertElevation(s.Elevation.Gain, u), 0),
		humanize.FtoaWithDigits(units.ConvertElevation(s.Elevation.Loss, u), 0))
	if s.HeartRate != nil {
		fmt.Fprintf(&sb, "\nheart rate mean %.0f max %.0f bpm", s.HeartRate.Mean, s.HeartRate.Max)
	}
	fmt.Fprintf(&sb, "\ngeology coverage %.0f%%", s.Coverage*100)
	for _, e := range s.Legend {
		fmt.Fprintf(&sb, "\n  %s %s · %s · %s", e.Color, e.FormationName, e.Interval, e.Lithology)
	}
	return sb.String()
}
