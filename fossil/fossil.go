// Package fossil holds the fossil occurrence model and the pure utilities
// built on it: query construction around a ride point, kingdom
// classification, and formation-change density for profile annotations.
package fossil

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotblauer/gneiss/types/trackpoint"
)

type Kingdom string

const (
	Vertebrate   Kingdom = "Vertebrate"
	Invertebrate Kingdom = "Invertebrate"
	Plant        Kingdom = "Plant"

	// KingdomAll matches every kingdom in FilterKingdom.
	KingdomAll Kingdom = "All"
)

// ParseKingdom accepts a kingdom name in any case; "" is KingdomAll.
func ParseKingdom(s string) (Kingdom, error) {
	if s == "" {
		return KingdomAll, nil
	}
	for _, k := range []Kingdom{Vertebrate, Invertebrate, Plant, KingdomAll} {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kingdom %q", s)
}

// Occurrence is one taxon record, deduplicated by taxon name.
type Occurrence struct {
	OccurrenceID   int64   `json:"occurrenceId"`
	TaxonName      string  `json:"taxonName"`
	Classification string  `json:"classification"` // eg. "Invertebrate | Brachiopoda"
	Kingdom        Kingdom `json:"kingdom"`
	PBDBURL        string  `json:"pbdbUrl"`
}

// Query is a bounding box and a normalized age range (MinMa <= MaxMa)
// with optional stratigraphic filters.
type Query struct {
	LngMin     float64 `json:"lngMin"`
	LngMax     float64 `json:"lngMax"`
	LatMin     float64 `json:"latMin"`
	LatMax     float64 `json:"latMax"`
	MinMa      float64 `json:"minMa"`
	MaxMa      float64 `json:"maxMa"`
	Formation  string  `json:"formation,omitempty"`
	StratGroup string  `json:"stratGroup,omitempty"`
}

// DefaultBufferDeg is the half-width of the query box in degrees.
const DefaultBufferDeg = 0.25

type queryOptions struct {
	formation  string
	stratGroup string
	bufferDeg  float64
}

type QueryOption func(*queryOptions)

func WithFormation(name string) QueryOption {
	return func(o *queryOptions) { o.formation = name }
}

func WithStratGroup(name string) QueryOption {
	return func(o *queryOptions) { o.stratGroup = name }
}

func WithBuffer(deg float64) QueryOption {
	return func(o *queryOptions) { o.bufferDeg = deg }
}

// BuildQuery builds a symmetric box around (lat, lon) and orders the age range.
func BuildQuery(lat, lon, ageStart, ageEnd float64, opts ...QueryOption) Query {
	o := &queryOptions{bufferDeg: DefaultBufferDeg}
	for _, opt := range opts {
		opt(o)
	}
	return Query{
		LatMin:     lat - o.bufferDeg,
		LatMax:     lat + o.bufferDeg,
		LngMin:     lon - o.bufferDeg,
		LngMax:     lon + o.bufferDeg,
		MinMa:      math.Min(ageStart, ageEnd),
		MaxMa:      math.Max(ageStart, ageEnd),
		Formation:  o.formation,
		StratGroup: o.stratGroup,
	}
}

// QueryForPoint builds the query for the geology under p.
// The formation filter is left off for the "Unknown" placeholder name.
// Returns false when p has no geology.
func QueryForPoint(p trackpoint.EnrichedPoint, opts ...QueryOption) (Query, bool) {
	if p.Geology == nil {
		return Query{}, false
	}
	if name := p.Geology.FormationName; name != "" && name != trackpoint.UnknownFormation {
		opts = append([]QueryOption{WithFormation(name)}, opts...)
	}
	return BuildQuery(p.Lat, p.Lon, p.Geology.AgeStart, p.Geology.AgeEnd, opts...), true
}

var vertebrateClasses = []string{"mammalia", "reptilia", "amphibia", "aves", "actinopterygii"}
var plantPhyla = []string{"tracheo", "bryo", "anthophyta", "coniferophyta"}

// ClassifyKingdom buckets a record by keyword matching on phylum and class.
func ClassifyKingdom(phylum, class string) Kingdom {
	p := strings.ToLower(phylum)
	c := strings.ToLower(class)
	if p == "chordata" || containsAny(c, vertebrateClasses) {
		return Vertebrate
	}
	if containsAny(p, plantPhyla) || strings.Contains(c, "plant") {
		return Plant
	}
	return Invertebrate
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// FilterKingdom returns the occurrences of kingdom k.
// KingdomAll and "" return occs unchanged.
func FilterKingdom(occs []Occurrence, k Kingdom) []Occurrence {
	if k == KingdomAll || k == "" {
		return occs
	}
	out := []Occurrence{}
	for _, o := range occs {
		if o.Kingdom == k {
			out = append(out, o)
		}
	}
	return out
}
