package api

import (
	"os"
	"path/filepath"

	"github.com/rotblauer/gneiss/catdb/cache"
	"github.com/rotblauer/gneiss/catdb/flat"
	"github.com/rotblauer/gneiss/catdb/geodb"
	"github.com/rotblauer/gneiss/enrich"
	"github.com/rotblauer/gneiss/macrostrat"
	"github.com/rotblauer/gneiss/params"
	"github.com/rotblauer/gneiss/pbdb"
	"github.com/rotblauer/gneiss/s2"
)

// Open wires the live geology and fossil services over a data directory.
// The returned func releases the geology db and stops the fossil cache.
func Open(datadir string, config *params.EnrichConfig) (*Rides, func() error, error) {
	if config == nil {
		config = params.DefaultEnrichConfig()
	}
	level, err := s2.ParseCellLevel(config.CellLevel)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(datadir, 0770); err != nil {
		return nil, nil, err
	}
	db, err := geodb.Open(filepath.Join(datadir, params.GeologyDBName))
	if err != nil {
		return nil, nil, err
	}
	lookup, err := macrostrat.NewCachedLookup(
		macrostrat.NewClient(config.MacrostratBaseURL, config.HTTPTimeout),
		level, params.CacheGeologySize, db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	fossils := cache.NewFossilTTL(params.CacheFossilTTL, params.CacheFossilCapacity)
	fossils.Start()
	client := pbdb.NewClient(config.PBDBBaseURL, config.HTTPTimeout, fossils)
	client.Limit = config.PBDBLimit

	rides := NewRides(flat.NewFlatWithRoot(datadir), enrich.NewEnricher(lookup, config), client)
	closer := func() error {
		fossils.Stop()
		return db.Close()
	}
	return rides, closer, nil
}
