package parse

import (
	"errors"
	"strings"
	"testing"
)

const minimalTCX = `<?xml version="1.0"?>
<TrainingCenterDatabase xmlns="http://www.garmin.com/xmlschemas/TrainingCenterDatabase/v2">
  <Activities><Activity Sport="Biking"><Lap><Track>
    <Trackpoint>
      <Time>2024-01-01T00:00:00Z</Time>
      <Position>
        <LatitudeDegrees>40.0</LatitudeDegrees>
        <LongitudeDegrees>-105.0</LongitudeDegrees>
      </Position>
      <AltitudeMeters>1600</AltitudeMeters>
      <HeartRateBpm><Value>121</Value></HeartRateBpm>
    </Trackpoint>
    <Trackpoint>
      <Time>2024-01-01T00:01:00Z</Time>
      <Position>
        <LatitudeDegrees>40.001</LatitudeDegrees>
        <LongitudeDegrees>-105.001</LongitudeDegrees>
      </Position>
      <AltitudeMeters>1610</AltitudeMeters>
    </Trackpoint>
  </Track></Lap></Activity></Activities>
</TrainingCenterDatabase>`

const minimalGPX = `<?xml version="1.0"?>
<gpx version="1.1" creator="test">
  <trk><trkseg>
    <trkpt lat="40.0" lon="-105.0">
      <ele>1600</ele>
      <time>2024-01-01T00:00:00Z</time>
    </trkpt>
    <trkpt lat="40.001" lon="-105.001">
      <ele>1610</ele>
      <time>2024-01-01T00:01:00Z</time>
    </trkpt>
  </trkseg></trk>
</gpx>`

func TestTCX_Minimal(t *testing.T) {
	points, err := TCX([]byte(minimalTCX))
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	p0, p1 := points[0], points[1]
	if p0.Lat != 40.0 || p0.Lon != -105.0 || p0.Elevation != 1600 {
		t.Errorf("unexpected first point: %+v", p0)
	}
	if p0.Time != "2024-01-01T00:00:00Z" {
		t.Errorf("unexpected time %q", p0.Time)
	}
	if p0.HeartRate == nil || *p0.HeartRate != 121 {
		t.Errorf("expected heart rate 121, got %v", p0.HeartRate)
	}
	if p1.HeartRate != nil {
		t.Errorf("expected no heart rate, got %v", *p1.HeartRate)
	}
	if p0.Distance != 0 {
		t.Errorf("expected first distance 0, got %v", p0.Distance)
	}
	if p1.Distance <= 0 || p1.Distance >= 1 {
		t.Errorf("expected 0 < distance < 1km, got %v", p1.Distance)
	}
}

func TestTCX_Errors(t *testing.T) {
	cases := []struct {
		name, in string
		kind     error
		contains string
	}{
		{"empty xml", "<root></root>", ErrNoPoints, "no trackpoints found"},
		{"not xml", "not xml at all <<<", ErrXMLParse, "XML parse error"},
		{"blank", "", ErrXMLParse, "XML parse error"},
		{"unclosed", "<TrainingCenterDatabase><Trackpoint>", ErrXMLParse, "XML parse error"},
		{"no gps", `<TrainingCenterDatabase><Trackpoint><Time>2024-01-01T00:00:00Z</Time></Trackpoint></TrainingCenterDatabase>`, ErrNoGPSData, "no GPS data found"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := TCX([]byte(c.in))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, c.kind) {
				t.Errorf("expected kind %v, got %v", c.kind, err)
			}
			if !strings.Contains(err.Error(), c.contains) {
				t.Errorf("expected message to contain %q, got %q", c.contains, err.Error())
			}
			if !strings.HasPrefix(err.Error(), "Invalid TCX file: ") {
				t.Errorf("unexpected message %q", err.Error())
			}
			var pe *ParseError
			if !errors.As(err, &pe) || pe.Format != "TCX" {
				t.Errorf("expected *ParseError for TCX, got %T", err)
			}
		})
	}
}

func TestTCX_SkipsPointsWithoutGPS(t *testing.T) {
	tcx := `<?xml version="1.0"?>
    <TrainingCenterDatabase>
      <Activities><Activity><Lap><Track>
        <Trackpoint><Time>2024-01-01T00:00:00Z</Time></Trackpoint>
        <Trackpoint>
          <Time>2024-01-01T00:01:00Z</Time>
          <Position>
            <LatitudeDegrees>40.0</LatitudeDegrees>
            <LongitudeDegrees>-105.0</LongitudeDegrees>
          </Position>
        </Trackpoint>
      </Track></Lap></Activity></Activities>
    </TrainingCenterDatabase>`
	points, err := TCX([]byte(tcx))
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	if points[0].Elevation != 0 {
		t.Errorf("expected default elevation 0, got %v", points[0].Elevation)
	}
}

func TestTCX_DistanceChainsRetainedPoints(t *testing.T) {
	tcx := `<TrainingCenterDatabase>
		<Trackpoint><Position><LatitudeDegrees>40</LatitudeDegrees><LongitudeDegrees>-105</LongitudeDegrees></Position></Trackpoint>
		<Trackpoint><Time>2024-01-01T00:00:30Z</Time></Trackpoint>
		<Trackpoint><Position><LatitudeDegrees>bogus</LatitudeDegrees><LongitudeDegrees>-105</LongitudeDegrees></Position></Trackpoint>
		<Trackpoint><Position><LatitudeDegrees>NaN</LatitudeDegrees><LongitudeDegrees>-105</LongitudeDegrees></Position></Trackpoint>
		<Trackpoint><Position><LatitudeDegrees>40</LatitudeDegrees><LongitudeDegrees>Inf</LongitudeDegrees></Position></Trackpoint>
		<Trackpoint><Position><LatitudeDegrees>40.01</LatitudeDegrees><LongitudeDegrees>-105</LongitudeDegrees></Position></Trackpoint>
		<Trackpoint><Position><LatitudeDegrees>40.02</LatitudeDegrees><LongitudeDegrees>-105</LongitudeDegrees></Position></Trackpoint>
	</TrainingCenterDatabase>`
	points, err := TCX([]byte(tcx))
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 retained points, got %d", len(points))
	}
	// ~1.11 km per 0.01 degree of latitude.
	if d := points[1].Distance; d < 1.1 || d > 1.12 {
		t.Errorf("expected ~1.11km, got %v", d)
	}
	if d := points[2].Distance; d < 2.2 || d > 2.24 {
		t.Errorf("expected ~2.22km, got %v", d)
	}
	for i := 1; i < len(points); i++ {
		if points[i].Distance < points[i-1].Distance {
			t.Fatalf("distance decreased at %d", i)
		}
	}
}

func TestGPX_Minimal(t *testing.T) {
	points, err := GPX([]byte(minimalGPX))
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Lat != 40.0 || points[0].Lon != -105.0 || points[0].Elevation != 1600 {
		t.Errorf("unexpected first point %+v", points[0])
	}
	if points[0].Time != "2024-01-01T00:00:00Z" {
		t.Errorf("unexpected time %q", points[0].Time)
	}
	if points[0].HeartRate != nil {
		t.Error("GPX points carry no heart rate")
	}
	if points[0].Distance != 0 || points[1].Distance <= 0 {
		t.Errorf("unexpected distances %v %v", points[0].Distance, points[1].Distance)
	}
}

func TestGPX_RoutePoints(t *testing.T) {
	doc := `<?xml version="1.0"?>
    <gpx version="1.1">
      <rte>
        <rtept lat="40.0" lon="-105.0"><ele>1600</ele></rtept>
        <rtept lat="40.001" lon="-105.001"><ele>1610</ele></rtept>
      </rte>
    </gpx>`
	points, err := GPX([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[1].Time != "" {
		t.Errorf("expected empty time, got %q", points[1].Time)
	}
}

func TestGPX_FiltersBadCoordinates(t *testing.T) {
	doc := `<?xml version="1.0"?>
    <gpx version="1.1">
      <trk><trkseg>
        <trkpt lat="0" lon="0"></trkpt>
        <trkpt lat="95" lon="-105"></trkpt>
        <trkpt lat="40" lon="-190"></trkpt>
        <trkpt lat="40.0" lon="-105.0"></trkpt>
      </trkseg></trk>
    </gpx>`
	points, err := GPX([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	if points[0].Distance != 0 {
		t.Errorf("expected first retained distance 0, got %v", points[0].Distance)
	}
}

func TestGPX_SkipsMalformedPoints(t *testing.T) {
	doc := `<?xml version="1.0"?>
    <gpx version="1.1" xmlns="http://www.topografix.com/GPX/1/1">
      <trk><trkseg>
        <trkpt lat="abc" lon="-105"><ele>1590</ele></trkpt>
        <trkpt lat="40.0" lon="-105.0"><ele>1600</ele><time>2024-01-01T00:00:00Z</time></trkpt>
        <trkpt lat="NaN" lon="-105.0"></trkpt>
        <trkpt lat="40.001" lon="-105.001"><ele>n/a</ele><time>2024-01-01T00:01:00Z</time></trkpt>
      </trkseg></trk>
    </gpx>`
	points, err := GPX([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Lat != 40.0 || points[0].Elevation != 1600 || points[0].Time != "2024-01-01T00:00:00Z" {
		t.Errorf("unexpected first point %+v", points[0])
	}
	if points[1].Elevation != 0 {
		t.Errorf("expected unparseable elevation to default to 0, got %v", points[1].Elevation)
	}
	if points[0].Distance != 0 || points[1].Distance <= 0 {
		t.Errorf("unexpected distances %v %v", points[0].Distance, points[1].Distance)
	}

	// Route points are the fallback here too.
	doc = `<gpx version="1.1"><rte>
        <rtept lat="40.0" lon="-105.0"><ele>high</ele></rtept>
        <rtept lat="40.01" lon="-105.0"></rtept>
      </rte></gpx>`
	if points, err = GPX([]byte(doc)); err != nil || len(points) != 2 {
		t.Fatalf("expected 2 route points, got %d %v", len(points), err)
	}

	_, err = GPX([]byte(`<gpx version="1.1"><trk><trkseg><trkpt lat="x" lon="y"/></trkseg></trk></gpx>`))
	if !errors.Is(err, ErrNoGPSData) {
		t.Errorf("expected no-GPS error, got %v", err)
	}
	_, err = GPX([]byte(`<gpx version="1.1"><trk><trkseg><trkpt lat="x" lon="-105"></trkseg></trk></gpx>`))
	if !errors.Is(err, ErrXMLParse) {
		t.Errorf("expected XML parse error for mismatched tags, got %v", err)
	}
}

func TestGPX_Errors(t *testing.T) {
	_, err := GPX([]byte("<gpx></gpx>"))
	if !errors.Is(err, ErrNoPoints) || !strings.Contains(err.Error(), "no track or route points found") {
		t.Errorf("expected no-points error, got %v", err)
	}
	_, err = GPX([]byte("<<<bad"))
	if !errors.Is(err, ErrXMLParse) || !strings.Contains(err.Error(), "XML parse error") {
		t.Errorf("expected XML parse error, got %v", err)
	}
	_, err = GPX([]byte(`<gpx version="1.1"><trk><trkseg><trkpt lat="0" lon="0"/></trkseg></trk></gpx>`))
	if !errors.Is(err, ErrNoGPSData) || !strings.Contains(err.Error(), "no GPS data found") {
		t.Errorf("expected no-GPS error, got %v", err)
	}
}

func TestFormatForFilename(t *testing.T) {
	cases := map[string]Format{
		"ride.gpx":     FormatGPX,
		"RIDE.GPX":     FormatGPX,
		"ride.tcx":     FormatTCX,
		"ride":         FormatTCX,
		"ride.gpx.tcx": FormatTCX,
		"ride.fit":     FormatTCX,
	}
	for name, want := range cases {
		if got := FormatForFilename(name); got != want {
			t.Errorf("%s: expected %s, got %s", name, want, got)
		}
	}
}

func TestBytes(t *testing.T) {
	if _, err := Bytes(FormatGPX, []byte(minimalGPX)); err != nil {
		t.Error(err)
	}
	if _, err := Bytes(FormatTCX, []byte(minimalTCX)); err != nil {
		t.Error(err)
	}
	if _, err := Bytes(FormatTCX, []byte(minimalGPX)); !errors.Is(err, ErrNoPoints) {
		t.Errorf("GPX through the TCX parser should find no trackpoints, got %v", err)
	}
}
