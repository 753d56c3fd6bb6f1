// Package rgeo names where a ride happened.
package rgeo

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"github.com/rotblauer/gneiss/common"
	srgeo "github.com/sams96/rgeo"
)

type ReverseGeocoder interface {
	GetLocation(pt orb.Point) (srgeo.Location, error)
}

// rR is the type of our wrapped rgeo.Rgeo instance, which implements the ReverseGeocoder interface.
type rR srgeo.Rgeo

func (rr *rR) GetLocation(pt orb.Point) (srgeo.Location, error) {
	return (*srgeo.Rgeo)(rr).ReverseGeocode(pt)
}

var (
	Countries10 = srgeo.Countries10
	Provinces10 = srgeo.Provinces10
)

// datasets are the datasets that the reverse geocoder will use.
// Provinces carry their country, so rides are named at state/province level.
var datasets = []func() []byte{
	Countries10,
	Provinces10,
}

var DatasetNamesStable = func() []string {
	names := []string{}
	for _, d := range datasets {
		names = append(names, common.ReflectFunctionName(d))
	}
	sort.Strings(names)
	return names
}()

var (
	ErrAlreadyInitialized = errors.New("rgeo already initialized")
	ErrNotInitialized     = errors.New("rgeo not initialized")
)

var (
	mu sync.RWMutex
	r  *rR
)

// Init loads the datasets, which takes a few seconds and a good deal of memory.
func Init() error {
	mu.Lock()
	defer mu.Unlock()
	if r != nil {
		return ErrAlreadyInitialized
	}
	r1, err := srgeo.New(datasets...)
	if err != nil {
		return fmt.Errorf("rgeo init: %w", err)
	}
	r = (*rR)(r1)
	return nil
}

// R returns the loaded reverse geocoder.
func R() (ReverseGeocoder, error) {
	mu.RLock()
	defer mu.RUnlock()
	if r == nil {
		return nil, ErrNotInitialized
	}
	return r, nil
}

// Describe formats a location as "Province, Country", or whichever part is known.
func Describe(loc srgeo.Location) string {
	parts := []string{}
	if loc.Province != "" {
		parts = append(parts, loc.Province)
	}
	country := loc.CountryCode3
	if country == "" {
		country = loc.Country
	}
	if country != "" {
		parts = append(parts, country)
	}
	return strings.Join(parts, ", ")
}

// Locate describes the location of pt with g.
// Points at sea or outside every dataset return "".
func Locate(g ReverseGeocoder, pt orb.Point) string {
	if g == nil {
		return ""
	}
	loc, err := g.GetLocation(pt)
	if err != nil {
		return ""
	}
	return Describe(loc)
}
