package parse

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rotblauer/gneiss/common"
	"github.com/rotblauer/gneiss/types/trackpoint"
)

const formatTCX = "TCX"

type tcxTrackpoint struct {
	Time     *string `xml:"Time"`
	Position *struct {
		Lat *string `xml:"LatitudeDegrees"`
		Lon *string `xml:"LongitudeDegrees"`
	} `xml:"Position"`
	Altitude  *string `xml:"AltitudeMeters"`
	HeartRate *struct {
		Value *string `xml:"Value"`
	} `xml:"HeartRateBpm"`
}

// TCX parses a Garmin Training Center document into track points with cumulative distance.
// Every Trackpoint element is considered, at any depth and in any namespace.
// Trackpoints without a usable position are skipped; the distance chain runs
// between consecutive retained points.
func TCX(data []byte) (trackpoint.TrackPoints, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		candidates int
		sawRoot    bool
		points     = trackpoint.TrackPoints{}
		cum        float64
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Format: formatTCX, Kind: ErrXMLParse, Cause: err}
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawRoot = true
		if se.Name.Local != "Trackpoint" {
			continue
		}
		candidates++
		raw := tcxTrackpoint{}
		if err := dec.DecodeElement(&raw, &se); err != nil {
			return nil, &ParseError{Format: formatTCX, Kind: ErrXMLParse, Cause: err}
		}
		tp, ok := raw.trackPoint()
		if !ok {
			continue
		}
		if n := len(points); n > 0 {
			prev := points[n-1]
			cum += common.DistanceKm(prev.Lat, prev.Lon, tp.Lat, tp.Lon)
		}
		tp.Distance = cum
		points = append(points, tp)
	}

	if !sawRoot {
		return nil, &ParseError{Format: formatTCX, Kind: ErrXMLParse, Cause: errors.New("no root element")}
	}
	if candidates == 0 {
		return nil, &ParseError{Format: formatTCX, Kind: ErrNoPoints, Detail: "no trackpoints found"}
	}
	if len(points) == 0 {
		return nil, &ParseError{Format: formatTCX, Kind: ErrNoGPSData}
	}
	return points, nil
}

func (raw tcxTrackpoint) trackPoint() (trackpoint.TrackPoint, bool) {
	tp := trackpoint.TrackPoint{}
	if raw.Position == nil || raw.Position.Lat == nil || raw.Position.Lon == nil {
		return tp, false
	}
	lat, ok := parseFinite(*raw.Position.Lat)
	if !ok {
		return tp, false
	}
	lon, ok := parseFinite(*raw.Position.Lon)
	if !ok || !common.ValidLatLon(lat, lon) {
		return tp, false
	}
	tp.Lat, tp.Lon = lat, lon

	if raw.Altitude != nil {
		if ele, ok := parseFinite(*raw.Altitude); ok {
			tp.Elevation = ele
		}
	}
	if raw.Time != nil {
		tp.Time = strings.TrimSpace(*raw.Time)
	}
	if raw.HeartRate != nil && raw.HeartRate.Value != nil {
		if hr, ok := parseBPM(*raw.HeartRate.Value); ok {
			tp.HeartRate = &hr
		}
	}
	return tp, true
}

// parseFinite rejects NaN and the infinities along with malformed numbers.
func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseBPM accepts integer or decimal bpm, truncating decimals.
func parseBPM(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i, true
	}
	if f, ok := parseFinite(s); ok {
		return int(f), true
	}
	return 0, false
}
