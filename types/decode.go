package types

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/gneiss/parse"
	"github.com/rotblauer/gneiss/types/trackpoint"
	"github.com/tidwall/gjson"
)

var ErrNotFeatureCollection = errors.New("not a geojson feature collection")

// DecodeActivity parses an uploaded activity file, choosing the parser by extension.
// ".gpx" (any case) is GPX; anything else is tried as TCX.
func DecodeActivity(filename string, data []byte) (trackpoint.TrackPoints, error) {
	return parse.Bytes(parse.FormatForFilename(filename), data)
}

// RideName is the file name without directory or extension,
// eg. "morning-ride" for "/tmp/morning-ride.tcx".
func RideName(filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DecodeEnrichedCollection reads back a feature collection written by ToFeatureCollection.
func DecodeEnrichedCollection(data []byte) (trackpoint.EnrichedPoints, error) {
	if res := gjson.GetBytes(data, "features"); !res.Exists() || !res.IsArray() {
		return nil, ErrNotFeatureCollection
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}
	out := make(trackpoint.EnrichedPoints, 0, len(fc.Features))
	for _, f := range fc.Features {
		ep, err := FeatureToEnriched(f)
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, nil
}
