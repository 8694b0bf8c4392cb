// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ClipInterval is a wrapper to use Clip with an r1.Interval instead of
// a separate max and min value
func ClipInterval(value float64, interval r1.Interval) float64 {
	return Clip(value, interval.Min, interval.Max)
}

// TanhKernel maps a non-negative distance to a bounded similarity
// 1 - tanh(distance / std). The kernel is 1 at zero distance and decays
// towards 0 as the distance grows, with std setting the distance scale.
//
// The kernel is computed as 2 / (1 + exp(2x)), which equals
// 1 - tanh(x) but does not round to 0 once tanh(x) rounds to 1, so it
// stays strictly decreasing for x up to about 354.
func TanhKernel(distance, std float64) float64 {
	return 2.0 / (1.0 + math.Exp(2.0*distance/std))
}

// Indicator returns 1.0 if b is true and 0.0 otherwise
func Indicator(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

// IsClose reports whether a and b are equal within an absolute
// tolerance atol and relative tolerance rtol, that is whether
// |a - b| <= atol + rtol*|b|.
func IsClose(a, b, atol, rtol float64) bool {
	return math.Abs(a-b) <= atol+rtol*math.Abs(b)
}
