package rgeo

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	srgeo "github.com/sams96/rgeo"
)

func TestDatasetNamesStable(t *testing.T) {
	names := DatasetNamesStable
	if len(names) != len(datasets) {
		t.Errorf("Expected %d names, got %d", len(datasets), len(names))
	}
	if !slices.IsSorted(names) {
		t.Errorf("Expected sorted names, got %v", names)
	}
	for _, n := range names {
		if !strings.HasPrefix(n, "github.com/sams96/rgeo.") {
			t.Errorf("unexpected dataset name %q", n)
		}
	}
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		loc  srgeo.Location
		want string
	}{
		{srgeo.Location{Province: "Colorado", Country: "United States of America", CountryCode3: "USA"}, "Colorado, USA"},
		{srgeo.Location{Country: "Iceland"}, "Iceland"},
		{srgeo.Location{}, ""},
	}
	for _, c := range cases {
		if got := Describe(c.loc); got != c.want {
			t.Errorf("expected %q, got %q", c.want, got)
		}
	}
}

type fakeGeocoder struct {
	loc srgeo.Location
	err error
}

func (f fakeGeocoder) GetLocation(pt orb.Point) (srgeo.Location, error) {
	return f.loc, f.err
}

func TestLocate(t *testing.T) {
	if got := Locate(nil, orb.Point{}); got != "" {
		t.Errorf("expected empty for nil geocoder, got %q", got)
	}
	if got := Locate(fakeGeocoder{err: errors.New("country not found")}, orb.Point{}); got != "" {
		t.Errorf("expected empty on error, got %q", got)
	}
	g := fakeGeocoder{loc: srgeo.Location{Province: "Colorado", CountryCode3: "USA"}}
	if got := Locate(g, orb.Point{-105, 40}); got != "Colorado, USA" {
		t.Errorf("unexpected %q", got)
	}
}

func TestR_NotInitialized(t *testing.T) {
	mu.RLock()
	loaded := r != nil
	mu.RUnlock()
	if loaded {
		t.Skip("already initialized")
	}
	if _, err := R(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}
