package vecmath

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Clamp restricts x to the range [lo, hi].
func Clamp[T constraints.Float](x, lo, hi T) T {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Saturate clamps x to [0, 1].
func Saturate[T constraints.Float](x T) T {
	return Clamp(x, 0, 1)
}

// Mix linearly interpolates between a and b: a*(1-t) + b*t.
func Mix[T constraints.Float](a, b, t T) T {
	return a*(1-t) + b*t
}

// Fract returns x - floor(x), which is always in [0, 1) for finite x.
func Fract[T constraints.Float](x T) T {
	return x - T(math.Floor(float64(x)))
}

// Step returns 0 if x < edge and 1 otherwise.
func Step[T constraints.Float](edge, x T) T {
	if x < edge {
		return 0
	}
	return 1
}

// Approx reports whether a and b differ by at most epsilon.
func Approx[T constraints.Float](a, b, epsilon T) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= epsilon
}

// Radians converts degrees to radians.
func Radians(deg float32) float32 {
	return deg * (math.Pi / 180)
}
