package macrostrat

import (
	"context"
	"errors"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotblauer/gneiss/catdb/geodb"
	"github.com/rotblauer/gneiss/metrics"
	"github.com/rotblauer/gneiss/s2"
	"github.com/rotblauer/gneiss/types/trackpoint"
)

// CachedLookup memoizes a Lookup by S2 cell.
// Misses are cached too. Errors and non-success statuses are not.
type CachedLookup struct {
	next  Lookup
	level s2.CellLevel
	mem   *lru.Cache[string, *trackpoint.GeoUnit]

	// db is an optional persistent tier.
	db *geodb.DB
}

func NewCachedLookup(next Lookup, level s2.CellLevel, size int, db *geodb.DB) (*CachedLookup, error) {
	mem, err := lru.New[string, *trackpoint.GeoUnit](size)
	if err != nil {
		return nil, err
	}
	return &CachedLookup{next: next, level: level, mem: mem, db: db}, nil
}

func (c *CachedLookup) GeoUnit(ctx context.Context, lat, lon float64) (*trackpoint.GeoUnit, error) {
	token := s2.CellToken(lat, lon, c.level)
	if unit, ok := c.mem.Get(token); ok {
		metrics.GeologyCacheHits.Inc(1)
		return unit, nil
	}
	if c.db != nil {
		unit, ok, err := c.db.Get(token)
		if err != nil {
			slog.Warn("Geology db read failed", "cell", token, "error", err)
		} else if ok {
			metrics.GeologyCacheHits.Inc(1)
			c.mem.Add(token, unit)
			return unit, nil
		}
	}

	var unit *trackpoint.GeoUnit
	var err error
	if client, ok := c.next.(*Client); ok {
		unit, err = client.lookup(ctx, lat, lon)
	} else {
		unit, err = c.next.GeoUnit(ctx, lat, lon)
	}
	if errors.Is(err, errNotOK) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.mem.Add(token, unit)
	if c.db != nil {
		if err := c.db.Put(token, unit); err != nil {
			slog.Warn("Geology db write failed", "cell", token, "error", err)
		}
	}
	return unit, nil
}

// Len is the number of cells held in memory.
func (c *CachedLookup) Len() int {
	return c.mem.Len()
}
