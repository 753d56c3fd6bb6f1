package common

import "math"

// RoundHalfUp rounds to the nearest integer, with halves rounding toward +Inf.
// -2.5 rounds to -2, 2.5 rounds to 3.
func RoundHalfUp(num float64) int {
	return int(math.Floor(num + 0.5))
}

// DecimalToFixed rounds num to the given number of decimal places.
// https://stackoverflow.com/questions/18390266/how-can-we-truncate-float64-type-to-a-particular-precision
func DecimalToFixed(num float64, precision int) float64 {
	output := math.Pow(10, float64(precision))
	return float64(RoundHalfUp(num*output)) / output
}
