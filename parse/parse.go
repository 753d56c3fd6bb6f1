// Package parse turns raw activity files (TCX, GPX) into track points.
package parse

import (
	"path/filepath"
	"strings"

	"github.com/rotblauer/gneiss/types/trackpoint"
)

type Format string

const (
	FormatTCX Format = formatTCX
	FormatGPX Format = formatGPX
)

// FormatForFilename selects the parser by extension:
// .gpx is GPX, anything else is treated as TCX.
func FormatForFilename(filename string) Format {
	if strings.EqualFold(filepath.Ext(filename), ".gpx") {
		return FormatGPX
	}
	return FormatTCX
}

// Bytes parses data with the parser for the given format.
func Bytes(format Format, data []byte) (trackpoint.TrackPoints, error) {
	if format == FormatGPX {
		return GPX(data)
	}
	return TCX(data)
}
