package events

import (
	"github.com/ethereum/go-ethereum/event"
)

// Progress is one geology lookup completed for a ride.
type Progress struct {
	RideID string `json:"rideId"`
	Done   int    `json:"done"`
	Total  int    `json:"total"`
}

// Enriched announces a ride whose enrichment finished, successfully or not.
type Enriched struct {
	RideID string `json:"rideId"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Error  string `json:"error,omitempty"`
}

// EnrichProgressFeed is emitted after every geology lookup of every ride.
var EnrichProgressFeed = event.FeedOf[Progress]{}

// EnrichedFeed is emitted once per ride when enrichment ends.
var EnrichedFeed = event.FeedOf[Enriched]{}
