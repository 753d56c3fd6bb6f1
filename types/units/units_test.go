package units

import (
	"math"
	"testing"

	"github.com/rotblauer/gneiss/types/trackpoint"
)

func TestConvert(t *testing.T) {
	if got := ConvertDistance(1, Imperial); math.Abs(got-0.621371) > 1e-9 {
		t.Errorf("expected 0.621371, got %v", got)
	}
	if got := ConvertElevation(1, Imperial); math.Abs(got-3.28084) > 1e-9 {
		t.Errorf("expected 3.28084, got %v", got)
	}
	if got := ConvertDistance(12.5, Metric); got != 12.5 {
		t.Errorf("expected identity, got %v", got)
	}
	if got := ConvertElevation(1600, Metric); got != 1600 {
		t.Errorf("expected identity, got %v", got)
	}
}

func TestLabels(t *testing.T) {
	if DistanceLabel(Metric) != "km" || DistanceLabel(Imperial) != "mi" {
		t.Error("bad distance labels")
	}
	if ElevationLabel(Metric) != "m" || ElevationLabel(Imperial) != "ft" {
		t.Error("bad elevation labels")
	}
}

func TestGeoColor(t *testing.T) {
	g := &trackpoint.GeoUnit{AgeColor: "#cc6677", LithColor: "#ddcc77"}
	if c := GeoColor(g, ColorModeAge); c != "#cc6677" {
		t.Errorf("expected age color, got %s", c)
	}
	if c := GeoColor(g, ColorModeLithology); c != "#ddcc77" {
		t.Errorf("expected lith color, got %s", c)
	}
	if c := GeoColor(nil, ColorModeAge); c != NoDataColor {
		t.Errorf("expected gray for nil, got %s", c)
	}
}

func TestParse(t *testing.T) {
	if u, err := ParseUnits("Imperial"); err != nil || u != Imperial {
		t.Errorf("expected imperial, got %v %v", u, err)
	}
	if _, err := ParseUnits("furlongs"); err == nil {
		t.Error("expected error")
	}
	if m, err := ParseColorMode("lith"); err != nil || m != ColorModeLithology {
		t.Errorf("expected lithology, got %v %v", m, err)
	}
	if m, _ := ParseColorMode(""); m != ColorModeAge {
		t.Errorf("expected default age mode, got %v", m)
	}
}
