// Package units holds the small pure functions the presentation layer
// depends on: geology color selection and metric/imperial conversion.
package units

import (
	"fmt"
	"strings"

	"github.com/rotblauer/gneiss/types/trackpoint"
)

type ColorMode string

const (
	ColorModeAge       ColorMode = "age"
	ColorModeLithology ColorMode = "lithology"
)

type Units string

const (
	Metric   Units = "metric"
	Imperial Units = "imperial"
)

// NoDataColor is used wherever no geology is known.
const NoDataColor = "#888888"

const (
	kmToMi = 0.621371
	mToFt  = 3.28084
)

// GeoColor returns the display color of a unit under the given mode.
func GeoColor(geo *trackpoint.GeoUnit, mode ColorMode) string {
	if geo == nil {
		return NoDataColor
	}
	if mode == ColorModeLithology {
		return geo.LithColor
	}
	return geo.AgeColor
}

func ConvertDistance(km float64, u Units) float64 {
	if u == Imperial {
		return km * kmToMi
	}
	return km
}

func ConvertElevation(m float64, u Units) float64 {
	if u == Imperial {
		return m * mToFt
	}
	return m
}

func DistanceLabel(u Units) string {
	if u == Imperial {
		return "mi"
	}
	return "km"
}

func ElevationLabel(u Units) string {
	if u == Imperial {
		return "ft"
	}
	return "m"
}

func ParseUnits(s string) (Units, error) {
	switch Units(strings.ToLower(s)) {
	case "", Metric:
		return Metric, nil
	case Imperial:
		return Imperial, nil
	}
	return "", fmt.Errorf("unknown units %q (want metric|imperial)", s)
}

func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(s) {
	case "", "age":
		return ColorModeAge, nil
	case "lithology", "lith":
		return ColorModeLithology, nil
	}
	return "", fmt.Errorf("unknown color mode %q (want age|lithology)", s)
}
