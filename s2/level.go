package s2

import "fmt"

/*
https://s2geometry.io/resources/s2cell_statistics.html

level  average area  edge length (US)
08     1297.17 km2   36-39 km   about a day's ride
10     81.07 km2     9-10 km
13     1.27 km2      1123-1225 m  about a kilometer (square)
16     19793.17 m2   140-153 m  throwing distance
17     4948.29 m2    70-77 m
18     1237.07 m2    35-38 m
20     77.32 m2      9-10 m
23     1.21 m2       110-120 cm  a human body
*/

// CellLevel represents the S2 cell level, from 0-30.
type CellLevel int

const (
	// CellLevel0 covers earth in 6 cells.
	CellLevel0 CellLevel = 0

	// CellLevel8 is about a day's ride.
	CellLevel8 CellLevel = 8

	// CellLevel13 is about a 1/2 section.
	CellLevel13 CellLevel = 13

	// CellLevel16 is approximately 140m on an edge.
	CellLevel16 CellLevel = 16

	// CellLevel18 is about 100ft on a side, and has an area of about 1/4 acre.
	// Mapped geologic units do not change at this scale.
	CellLevel18 CellLevel = 18

	CellLevel20 CellLevel = 20

	// CellLevel23 is approximately a human body; 1 square meter.
	CellLevel23 CellLevel = 23

	CellLevel30 CellLevel = 30
)

// DefaultGeologyCellLevel is the resolution geology lookups are cached at.
const DefaultGeologyCellLevel = CellLevel18

func (l CellLevel) Valid() bool {
	return l >= CellLevel0 && l <= CellLevel30
}

// ParseCellLevel validates a configured level.
func ParseCellLevel(i int) (CellLevel, error) {
	l := CellLevel(i)
	if !l.Valid() {
		return 0, fmt.Errorf("invalid s2 cell level %d (want 0-30)", i)
	}
	return l, nil
}
