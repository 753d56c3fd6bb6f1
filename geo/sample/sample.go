// Package sample reduces a ride to a bounded number of evenly spaced samples
// and maps points back onto the nearest sample.
package sample

import "github.com/rotblauer/gneiss/common"

// Downsample returns at most maxPoints elements of points, evenly spaced by index.
// The first and last points are always kept.
// When points already fits, the input slice itself is returned.
func Downsample[T any](points []T, maxPoints int) []T {
	if maxPoints < 2 {
		maxPoints = 2
	}
	if len(points) <= maxPoints {
		return points
	}
	idx := Indices(len(points), maxPoints)
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = points[j]
	}
	return out
}

// Indices returns the source indices Downsample would select.
func Indices(n, maxPoints int) []int {
	if maxPoints < 2 {
		maxPoints = 2
	}
	if n <= maxPoints {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	step := float64(n-1) / float64(maxPoints-1)
	out := make([]int, 0, maxPoints)
	out = append(out, 0)
	for i := 1; i < maxPoints-1; i++ {
		out = append(out, common.RoundHalfUp(float64(i)*step))
	}
	return append(out, n-1)
}

// NearestByDistance returns the index of the sample distance closest to d.
// Ties go to the earliest sample. Returns -1 for no samples.
func NearestByDistance(distances []float64, d float64) int {
	if len(distances) == 0 {
		return -1
	}
	best := 0
	bestDiff := abs(distances[0] - d)
	for i := 1; i < len(distances); i++ {
		if diff := abs(distances[i] - d); diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
