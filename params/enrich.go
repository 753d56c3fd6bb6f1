package params

import "time"

const (
	MacrostratBaseURL = "https://macrostrat.org/api/geologic_units/map"
	PBDBBaseURL       = "https://paleobiodb.org/data1.2/occs/list.json"
)

type EnrichConfig struct {
	// MaxQueryPoints bounds the number of geology lookups per ride.
	MaxQueryPoints int
	// Delay is the pause between consecutive geology lookups.
	Delay time.Duration
	// CellLevel is the S2 level geology lookups are cached at.
	CellLevel int

	MacrostratBaseURL string
	PBDBBaseURL       string
	PBDBLimit         int
	HTTPTimeout       time.Duration
}

func DefaultEnrichConfig() *EnrichConfig {
	return &EnrichConfig{
		MaxQueryPoints:    200,
		Delay:             50 * time.Millisecond,
		CellLevel:         18,
		MacrostratBaseURL: MacrostratBaseURL,
		PBDBBaseURL:       PBDBBaseURL,
		PBDBLimit:         200,
		HTTPTimeout:       30 * time.Second,
	}
}

// DefaultTestEnrichConfig has no delay.
func DefaultTestEnrichConfig() *EnrichConfig {
	c := DefaultEnrichConfig()
	c.Delay = 0
	c.HTTPTimeout = 5 * time.Second
	return c
}
