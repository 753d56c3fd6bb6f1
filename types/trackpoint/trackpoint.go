package trackpoint

import (
	"errors"
	"time"

	"github.com/paulmach/orb"
)

// TrackPoint is one GPS fix from an activity recording.
// Distance is cumulative from the first retained point of the ride, in kilometers.
type TrackPoint struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Elevation float64 `json:"elevation"`           // meters
	Time      string  `json:"time"`                // ISO-8601, may be empty
	HeartRate *int    `json:"heartRate,omitempty"` // bpm
	Distance  float64 `json:"distance"`            // cumulative, km
}

// TrackPoints are kept in acquisition order (file order),
// not sorted by time or distance.
type TrackPoints []TrackPoint

var ErrNoTime = errors.New("trackpoint has no time")

// Point returns the orb (lon, lat) point.
func (tp TrackPoint) Point() orb.Point {
	return orb.Point{tp.Lon, tp.Lat}
}

// ParsedTime parses the Time field as RFC3339.
// Activity files in the wild mostly carry RFC3339 with or without fractional seconds;
// anything else is reported as an error rather than guessed at.
func (tp TrackPoint) ParsedTime() (time.Time, error) {
	if tp.Time == "" {
		return time.Time{}, ErrNoTime
	}
	return time.Parse(time.RFC3339, tp.Time)
}

// TotalDistance is the cumulative distance at the last point.
func (tps TrackPoints) TotalDistance() float64 {
	if len(tps) == 0 {
		return 0
	}
	return tps[len(tps)-1].Distance
}

// Duration returns the time between the first and last points
// that have parseable timestamps. Zero if fewer than two exist.
func (tps TrackPoints) Duration() time.Duration {
	var first, last time.Time
	for _, tp := range tps {
		t, err := tp.ParsedTime()
		if err != nil {
			continue
		}
		if first.IsZero() {
			first = t
		}
		last = t
	}
	if first.IsZero() || !last.After(first) {
		return 0
	}
	return last.Sub(first)
}

// LineString returns the ride path as an orb line string.
func (tps TrackPoints) LineString() orb.LineString {
	ls := make(orb.LineString, 0, len(tps))
	for _, tp := range tps {
		ls = append(ls, tp.Point())
	}
	return ls
}
