package common

import (
	"math"
	"strconv"
)

// RoundHalfUp rounds x to the nearest integer, with halves rounded toward
// positive infinity (-2.5 becomes -2, 2.5 becomes 3). Zero results are
// always positive zero.
func RoundHalfUp(x float64) float64 {
	f := math.Floor(x)
	if x-f >= 0.5 {
		f++
	}
	if f == 0 {
		return 0
	}
	return f
}

// FormatRounded renders RoundHalfUp(x) without a decimal point.
func FormatRounded(x float64) string {
	return strconv.FormatFloat(RoundHalfUp(x), 'f', 0, 64)
}
