package s2

import (
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// CellIDWithLevel returns the cellID truncated to the given level.
// https://docs.s2cell.aliddell.com/en/stable/s2_concepts.html#truncation
func CellIDWithLevel(cellID s2.CellID, level CellLevel) s2.CellID {
	var lsb uint64 = 1 << (2 * (30 - level))
	truncatedCellID := (uint64(cellID) & -lsb) | lsb
	return s2.CellID(truncatedCellID)
}

// CellIDForLatLng returns the cellID at some level for the given coordinates.
func CellIDForLatLng(lat, lon float64, level CellLevel) s2.CellID {
	return CellIDWithLevel(s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon)), level)
}

// CellToken is the compact string key of the cell containing (lat, lon).
func CellToken(lat, lon float64, level CellLevel) string {
	return CellIDForLatLng(lat, lon, level).ToToken()
}

// CellCenter returns the (lat, lon) center of the cell containing (lat, lon).
// Lookups keyed by cell are made at the center so every point in the cell
// shares one answer.
func CellCenter(lat, lon float64, level CellLevel) (float64, float64) {
	ll := CellIDForLatLng(lat, lon, level).LatLng()
	return ll.Lat.Degrees(), ll.Lng.Degrees()
}

func CellPolygonForPointAtLevel(pt orb.Point, level CellLevel) orb.Polygon {
	cell := s2.CellFromCellID(CellIDForLatLng(pt.Lat(), pt.Lon(), level))

	vertices := []orb.Point{}
	for i := 0; i < 4; i++ {
		ll := s2.LatLngFromPoint(cell.Vertex(i))
		vertices = append(vertices, orb.Point{ll.Lng.Degrees(), ll.Lat.Degrees()})
	}
	vertices = append(vertices, vertices[0])
	return orb.Polygon{orb.Ring(vertices)}
}
