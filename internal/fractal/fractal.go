// Package fractal implements the escape-time Mandelbrot iteration evaluated
// by the fractal compute kernel.
package fractal

import (
	"math"

	"github.com/gogpu/softgpu/vecmath"
)

// MaxIterations is the iteration cap of the fractal kernel. Points that have
// not escaped after this many steps are treated as inside the set.
const MaxIterations = 10000

// Bounded is the escape value of a point that never escapes.
const Bounded float32 = 1.0

// escapeRadiusSq is |z|² beyond which a point has escaped (|z| > 2).
const escapeRadiusSq = 4.0

// State is the uniform block of a fractal dispatch: pan offset and zoom.
// The layout matches the WGSL struct, padded to 16 bytes.
type State struct {
	Offset vecmath.Vec2
	Zoom   float32
	_      float32
}

// DefaultState frames the whole set.
func DefaultState() State {
	return State{Offset: vecmath.V2(-0.5, 0), Zoom: 1.5}
}

// TexelUV returns the normalized, half-texel-centered coordinate of texel
// (x, y) in a width×height texture.
func TexelUV(x, y, width, height uint32) vecmath.Vec2 {
	return vecmath.Vec2{
		X: (float32(x) + 0.5) / float32(width),
		Y: (float32(y) + 0.5) / float32(height),
	}
}

// Remap maps a normalized coordinate in [0,1]² to the complex plane:
//
//	c = (uv*2 - (1, 0)) * zoom + offset
//
// The bias is applied to x only, which shifts the view right.
func (s State) Remap(uv vecmath.Vec2) vecmath.Vec2 {
	return vecmath.Vec2{
		X: (uv.X*2-1)*s.Zoom + s.Offset.X,
		Y: (uv.Y*2)*s.Zoom + s.Offset.Y,
	}
}

// Iterate runs z ← z² + c from z = 0 for at most limit steps and reports the
// 1-based step at which |z| first exceeded 2. When the point stays bounded
// it returns (limit, false).
func Iterate(c vecmath.Vec2, limit int) (n int, escaped bool) {
	var z vecmath.Vec2
	for i := 1; i <= limit; i++ {
		z = z.ComplexSquare().Add(c)
		if z.LengthSq() > escapeRadiusSq {
			return i, true
		}
	}
	return limit, false
}

// Escape returns the smooth escape value of c: log of the escape step, or
// Bounded when the point does not escape within limit steps.
func Escape(c vecmath.Vec2, limit int) float32 {
	n, escaped := Iterate(c, limit)
	if !escaped {
		return Bounded
	}
	return float32(math.Log(float64(n)))
}

// Shade evaluates texel (x, y) of a width×height fractal image and returns
// the value stored in its red channel, 1 - Escape. The result is not
// clamped.
func (s State) Shade(x, y, width, height uint32) float32 {
	c := s.Remap(TexelUV(x, y, width, height))
	return 1 - Escape(c, MaxIterations)
}
