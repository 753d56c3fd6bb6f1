package types

import (
	"encoding/json"
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/gneiss/common"
	"github.com/rotblauer/gneiss/types/trackpoint"
	"github.com/rotblauer/gneiss/types/units"
)

// EnrichedToFeature converts an EnrichedPoint to a GeoJSON point feature.
// Stored values stay metric; display values and color follow u and mode.
func EnrichedToFeature(ep trackpoint.EnrichedPoint, mode units.ColorMode, u units.Units) *geojson.Feature {
	f := geojson.NewFeature(ep.Point())
	props := make(map[string]interface{})

	props["elevation"] = ep.Elevation
	props["distance"] = ep.Distance
	props["time"] = ep.Time
	if ep.HeartRate != nil {
		props["heartRate"] = *ep.HeartRate
	}
	props["displayDistance"] = common.DecimalToFixed(units.ConvertDistance(ep.Distance, u), 3)
	props["displayElevation"] = common.DecimalToFixed(units.ConvertElevation(ep.Elevation, u), 1)
	props["color"] = units.GeoColor(ep.Geology, mode)
	props["geology"] = ep.Geology

	f.Properties = props
	return f
}

// ToFeatureCollection converts a ride to a collection of point features, in ride order.
func ToFeatureCollection(points []trackpoint.EnrichedPoint, mode units.ColorMode, u units.Units) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, ep := range points {
		fc.Append(EnrichedToFeature(ep, mode, u))
	}
	return fc
}

// ToLineFeature is the ride path as a single line string.
func ToLineFeature(points trackpoint.TrackPoints, name string) *geojson.Feature {
	f := geojson.NewFeature(points.LineString())
	f.Properties["name"] = name
	f.Properties["distance"] = points.TotalDistance()
	return f
}

func FeatureToEnriched(f *geojson.Feature) (trackpoint.EnrichedPoint, error) {
	ep := trackpoint.EnrichedPoint{}
	p, ok := f.Geometry.(orb.Point)
	if !ok {
		return ep, errors.New("not a point")
	}
	ep.Lon = p.Lon()
	ep.Lat = p.Lat()
	ep.Elevation = f.Properties.MustFloat64("elevation", 0)
	ep.Distance = f.Properties.MustFloat64("distance", 0)
	ep.Time = f.Properties.MustString("time", "")
	if v, ok := f.Properties["heartRate"].(float64); ok {
		hr := int(v)
		ep.HeartRate = &hr
	}
	if v, ok := f.Properties["geology"]; ok && v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return ep, err
		}
		ep.Geology = &trackpoint.GeoUnit{}
		if err := json.Unmarshal(b, ep.Geology); err != nil {
			return ep, err
		}
	}
	return ep, nil
}
