// Package macrostrat resolves the geologic map unit beneath a coordinate.
package macrostrat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotblauer/gneiss/metrics"
	"github.com/rotblauer/gneiss/params"
	"github.com/rotblauer/gneiss/types/trackpoint"
	"github.com/rotblauer/gneiss/types/units"
	"github.com/tidwall/gjson"
)

// Lookup resolves geology at a coordinate.
// A miss (no mapped unit, or a non-success status) is (nil, nil).
// An error means the lookup could not be completed at all.
type Lookup interface {
	GeoUnit(ctx context.Context, lat, lon float64) (*trackpoint.GeoUnit, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, lat, lon float64) (*trackpoint.GeoUnit, error)

func (f LookupFunc) GeoUnit(ctx context.Context, lat, lon float64) (*trackpoint.GeoUnit, error) {
	return f(ctx, lat, lon)
}

var ErrDecode = errors.New("invalid geology response")

// errNotOK marks a non-success status. Callers see a miss, but it is not
// an answer about the cell and must not be cached.
var errNotOK = errors.New("geology lookup not ok")

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = params.MacrostratBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		logger:     slog.With("d", "macrostrat"),
	}
}

func (c *Client) GeoUnit(ctx context.Context, lat, lon float64) (*trackpoint.GeoUnit, error) {
	unit, err := c.lookup(ctx, lat, lon)
	if errors.Is(err, errNotOK) {
		return nil, nil
	}
	return unit, err
}

// lookup is GeoUnit, except a non-success status yields errNotOK.
func (c *Client) lookup(ctx context.Context, lat, lon float64) (*trackpoint.GeoUnit, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lon, 'f', -1, 64))
	target := c.BaseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	start := time.Now()
	defer metrics.GeologyTimer.UpdateSince(start)
	metrics.GeologyLookups.Inc(1)

	res, err := hc.Do(req)
	if err != nil {
		metrics.GeologyErrors.Inc(1)
		return nil, fmt.Errorf("geology lookup: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.log().Debug("Geology lookup not ok", "status", res.StatusCode, "lat", lat, "lon", lon)
		metrics.GeologyMisses.Inc(1)
		return nil, fmt.Errorf("%w: status %d", errNotOK, res.StatusCode)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		metrics.GeologyErrors.Inc(1)
		return nil, fmt.Errorf("geology lookup: read body: %w", err)
	}
	unit, err := DecodeGeoUnit(body)
	if err != nil {
		metrics.GeologyErrors.Inc(1)
		return nil, err
	}
	if unit == nil {
		c.log().Debug("No geology", "lat", lat, "lon", lon)
		metrics.GeologyMisses.Inc(1)
	}
	return unit, nil
}

func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// DecodeGeoUnit reads the first map unit of a response body.
// A body without units is (nil, nil).
func DecodeGeoUnit(body []byte) (*trackpoint.GeoUnit, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrDecode
	}
	f := gjson.GetBytes(body, "success.data.0")
	if !f.IsObject() {
		return nil, nil
	}
	return &trackpoint.GeoUnit{
		UnitID:        coalesce(f, "unit_id").Int(),
		FormationName: coalesceString(f, trackpoint.UnknownFormation, "unit_name", "strat_name"),
		Interval:      coalesceString(f, "Unknown", "t_int_name", "Tseries"),
		Lithology:     coalesceString(f, "Unknown", "lith", "rocktype"),
		AgeColor:      coalesceString(f, units.NoDataColor, "t_int_color", "color"),
		LithColor:     coalesceString(f, units.NoDataColor, "lith_color", "color"),
		AgeStart:      coalesce(f, "t_int_age", "t_age").Float(),
		AgeEnd:        coalesce(f, "b_int_age", "b_age").Float(),
	}, nil
}

// coalesce returns the first present, non-null field.
// Empty strings and zeros count as present.
func coalesce(f gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := f.Get(p); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

func coalesceString(f gjson.Result, fallback string, paths ...string) string {
	r := coalesce(f, paths...)
	if !r.Exists() {
		return fallback
	}
	return r.String()
}
