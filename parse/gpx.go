package parse

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rotblauer/gneiss/common"
	"github.com/rotblauer/gneiss/types/trackpoint"
	"github.com/tkrajina/gpxgo/gpx"
)

const formatGPX = "GPX"

// gpxPoint is a track or route point before validation.
type gpxPoint struct {
	lat, lon float64
	ok       bool
	ele      *float64
	time     string
}

// GPX parses a GPX document into track points with cumulative distance.
// Track points are preferred; route points are used only when there are no track points.
// Points with unparseable, out-of-range or non-finite coordinates are dropped,
// as are points at exactly (0,0), which loggers write when they have no fix.
func GPX(data []byte) (trackpoint.TrackPoints, error) {
	var candidates []gpxPoint
	doc, err := gpx.ParseBytes(data)
	if err == nil {
		candidates = gpxDocPoints(doc)
	} else {
		// gpxgo rejects the whole document over one bad number.
		var lerr error
		candidates, lerr = gpxTokenPoints(data)
		if lerr != nil {
			return nil, &ParseError{Format: formatGPX, Kind: ErrXMLParse, Cause: err}
		}
	}
	if len(candidates) == 0 {
		return nil, &ParseError{Format: formatGPX, Kind: ErrNoPoints, Detail: "no track or route points found"}
	}

	points := make(trackpoint.TrackPoints, 0, len(candidates))
	cum := 0.0
	for _, pt := range candidates {
		lat, lon := pt.lat, pt.lon
		if !pt.ok || (lat == 0 && lon == 0) {
			continue
		}
		if !common.ValidLatLon(lat, lon) {
			continue
		}
		tp := trackpoint.TrackPoint{Lat: lat, Lon: lon, Time: pt.time}
		if pt.ele != nil {
			tp.Elevation = *pt.ele
		}
		if n := len(points); n > 0 {
			prev := points[n-1]
			cum += common.DistanceKm(prev.Lat, prev.Lon, lat, lon)
		}
		tp.Distance = cum
		points = append(points, tp)
	}

	if len(points) == 0 {
		return nil, &ParseError{Format: formatGPX, Kind: ErrNoGPSData}
	}
	return points, nil
}

func gpxDocPoints(doc *gpx.GPX) []gpxPoint {
	raw := []gpx.GPXPoint{}
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			raw = append(raw, seg.Points...)
		}
	}
	if len(raw) == 0 {
		for _, rte := range doc.Routes {
			raw = append(raw, rte.Points...)
		}
	}
	out := make([]gpxPoint, 0, len(raw))
	for _, pt := range raw {
		p := gpxPoint{lat: pt.Latitude, lon: pt.Longitude, ok: true}
		if pt.Elevation.NotNull() {
			ele := pt.Elevation.Value()
			p.ele = &ele
		}
		if !pt.Timestamp.IsZero() {
			p.time = pt.Timestamp.Format(time.RFC3339Nano)
		}
		out = append(out, p)
	}
	return out
}

type gpxRawPoint struct {
	Lat  *string `xml:"lat,attr"`
	Lon  *string `xml:"lon,attr"`
	Ele  *string `xml:"ele"`
	Time *string `xml:"time"`
}

// gpxTokenPoints reads trkpt and rtept elements with every number as text,
// so a malformed point is marked rather than failing the document.
// Malformed markup, or a root other than gpx, is still an error.
func gpxTokenPoints(data []byte) ([]gpxPoint, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		sawRoot bool
		trk     []gpxPoint
		rte     []gpxPoint
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !sawRoot {
			if se.Name.Local != "gpx" {
				return nil, errors.New("root element is not gpx")
			}
			sawRoot = true
			continue
		}
		if se.Name.Local != "trkpt" && se.Name.Local != "rtept" {
			continue
		}
		raw := gpxRawPoint{}
		if err := dec.DecodeElement(&raw, &se); err != nil {
			return nil, err
		}
		if se.Name.Local == "trkpt" {
			trk = append(trk, raw.point())
		} else {
			rte = append(rte, raw.point())
		}
	}
	if !sawRoot {
		return nil, errors.New("no root element")
	}
	if len(trk) > 0 {
		return trk, nil
	}
	return rte, nil
}

// point keeps a point with an unparseable elevation or time, leaving those unset.
func (raw gpxRawPoint) point() gpxPoint {
	p := gpxPoint{}
	if raw.Lat == nil || raw.Lon == nil {
		return p
	}
	var latOK, lonOK bool
	p.lat, latOK = parseFinite(*raw.Lat)
	p.lon, lonOK = parseFinite(*raw.Lon)
	p.ok = latOK && lonOK
	if raw.Ele != nil {
		if ele, ok := parseFinite(*raw.Ele); ok {
			p.ele = &ele
		}
	}
	if raw.Time != nil {
		if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(*raw.Time)); err == nil {
			p.time = t.Format(time.RFC3339Nano)
		}
	}
	return p
}
