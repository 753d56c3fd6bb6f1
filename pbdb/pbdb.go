// Package pbdb queries the Paleobiology Database for fossil occurrences.
package pbdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotblauer/gneiss/catdb/cache"
	"github.com/rotblauer/gneiss/fossil"
	"github.com/rotblauer/gneiss/metrics"
	"github.com/rotblauer/gneiss/params"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Cache holds query results by CacheKey.
// Empty results are stored and served like any other.
type Cache interface {
	Get(key string) ([]fossil.Occurrence, bool)
	Set(key string, occs []fossil.Occurrence)
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Cache      Cache
	Limit      int
	logger     *slog.Logger
}

// NewClient returns a client with a TTL cache when c is nil.
func NewClient(baseURL string, timeout time.Duration, c Cache) *Client {
	if baseURL == "" {
		baseURL = params.PBDBBaseURL
	}
	if c == nil {
		c = cache.NewFossilTTL(params.CacheFossilTTL, params.CacheFossilCapacity)
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Cache:      c,
		Limit:      params.DefaultEnrichConfig().PBDBLimit,
		logger:     slog.With("d", "pbdb"),
	}
}

// CacheKey serializes the formation, bounding box, and age range of q.
func CacheKey(q fossil.Query) string {
	return fmt.Sprintf("%s:%s,%s,%s,%s:%s-%s", q.Formation,
		num(q.LatMin), num(q.LatMax), num(q.LngMin), num(q.LngMax),
		num(q.MinMa), num(q.MaxMa))
}

// num formats f as the shortest decimal that round-trips.
// Non-finite values have no decimal form and are spelled out by strconv.
func num(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return decimal.NewFromFloat(f).String()
}

func finite(q fossil.Query) bool {
	for _, f := range []float64{q.LngMin, q.LngMax, q.LatMin, q.LatMax, q.MinMa, q.MaxMa} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Fossils returns the deduplicated occurrences matching q.
// Failures are logged and yield an empty list, which is cached so a bad
// query is not retried. Cancellation yields an empty list that is not cached.
func (c *Client) Fossils(ctx context.Context, q fossil.Query) []fossil.Occurrence {
	key := CacheKey(q)
	if !finite(q) {
		c.log().Warn("Fossil query has non-finite bounds", "key", key)
		return []fossil.Occurrence{}
	}
	if c.Cache != nil {
		if occs, ok := c.Cache.Get(key); ok {
			metrics.FossilCacheHits.Inc(1)
			return occs
		}
	}
	metrics.FossilQueries.Inc(1)

	occs, err := c.fetch(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			c.log().Debug("Fossil query cancelled", "key", key)
			return []fossil.Occurrence{}
		}
		metrics.FossilFailures.Inc(1)
		c.log().Warn("Fossil query failed", "key", key, "error", err)
		occs = []fossil.Occurrence{}
	}
	if c.Cache != nil {
		c.Cache.Set(key, occs)
	}
	return occs
}

func (c *Client) values(q fossil.Query) url.Values {
	limit := c.Limit
	if limit <= 0 {
		limit = params.DefaultEnrichConfig().PBDBLimit
	}
	v := url.Values{}
	v.Set("lngmin", num(q.LngMin))
	v.Set("lngmax", num(q.LngMax))
	v.Set("latmin", num(q.LatMin))
	v.Set("latmax", num(q.LatMax))
	v.Set("max_ma", num(q.MaxMa))
	v.Set("min_ma", num(q.MinMa))
	v.Set("show", "class,coords")
	v.Set("limit", strconv.Itoa(limit))
	if q.Formation != "" {
		v.Set("strat", q.Formation)
	}
	if q.StratGroup != "" {
		v.Set("stratgroup", q.StratGroup)
	}
	return v
}

func (c *Client) fetch(ctx context.Context, q fossil.Query) ([]fossil.Occurrence, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+c.values(q).Encode(), nil)
	if err != nil {
		return nil, err
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	res, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("status %d", res.StatusCode)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	return DecodeOccurrences(body)
}

// DecodeOccurrences reads the records of a response body,
// keeping the first record of each taxon name.
func DecodeOccurrences(body []byte) ([]fossil.Occurrence, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid fossil response")
	}
	out := []fossil.Occurrence{}
	seen := map[string]bool{}
	for _, r := range gjson.GetBytes(body, "records").Array() {
		taxon := firstString(r, "Unknown", "tna", "idn")
		if seen[taxon] {
			continue
		}
		seen[taxon] = true

		phylum := firstString(r, "", "phl")
		class := firstString(r, "", "cll")
		kingdom := fossil.ClassifyKingdom(phylum, class)
		group := class
		if group == "" {
			group = phylum
		}
		if group == "" {
			group = "Unknown"
		}

		oid := recordNumber(r.Get("oid"))
		taxonNo := recordNumber(r.Get("tid"))
		if taxonNo == "" {
			taxonNo = oid
		}
		if taxonNo == "" {
			taxonNo = "0"
		}
		id, _ := strconv.ParseInt(oid, 10, 64)

		out = append(out, fossil.Occurrence{
			OccurrenceID:   id,
			TaxonName:      taxon,
			Classification: fmt.Sprintf("%s | %s", kingdom, group),
			Kingdom:        kingdom,
			PBDBURL:        fossil.TaxonURL(taxonNo),
		})
	}
	return out, nil
}

func firstString(r gjson.Result, fallback string, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.Type != gjson.Null {
			return v.String()
		}
	}
	return fallback
}

// recordNumber returns the numeric part of an identifier,
// which the service may send as 123 or "occ:123".
func recordNumber(v gjson.Result) string {
	if !v.Exists() || v.Type == gjson.Null {
		return ""
	}
	s := v.String()
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}
