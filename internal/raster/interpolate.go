package raster

import "github.com/gogpu/softgpu/vecmath"

// Weights are barycentric weights of a point relative to a triangle's three
// vertices. They sum to 1 for points in the triangle's plane.
type Weights [3]float32

// Barycentric returns the weights of p relative to the triangle (a, b, c).
// ok is false for a degenerate triangle.
func Barycentric(a, b, c, p vecmath.Vec2) (w Weights, ok bool) {
	area := edge(a.X, a.Y, b.X, b.Y, c.X, c.Y)
	if area == 0 {
		return Weights{}, false
	}
	inv := 1 / area
	return Weights{
		edge(b.X, b.Y, c.X, c.Y, p.X, p.Y) * inv,
		edge(c.X, c.Y, a.X, a.Y, p.X, p.Y) * inv,
		edge(a.X, a.Y, b.X, b.Y, p.X, p.Y) * inv,
	}, true
}

// Interpolate returns w[0]*a0 + w[1]*a1 + w[2]*a2.
func Interpolate(a0, a1, a2 vecmath.Vec4, w Weights) vecmath.Vec4 {
	return vecmath.Vec4{
		X: w[0]*a0.X + w[1]*a1.X + w[2]*a2.X,
		Y: w[0]*a0.Y + w[1]*a1.Y + w[2]*a2.Y,
		Z: w[0]*a0.Z + w[1]*a1.Z + w[2]*a2.Z,
		W: w[0]*a0.W + w[1]*a1.W + w[2]*a2.W,
	}
}

// InterpolateScalar returns w[0]*a0 + w[1]*a1 + w[2]*a2.
func InterpolateScalar(a0, a1, a2 float32, w Weights) float32 {
	return w[0]*a0 + w[1]*a1 + w[2]*a2
}

// PerspectiveWeights converts screen-space weights into weights that
// interpolate attributes linearly in clip space, given each vertex's 1/w.
// It also returns the interpolated 1/w. When every w equals 1 the weights
// are returned unchanged.
func PerspectiveWeights(screen Weights, invW [3]float32) (Weights, float32) {
	p0 := screen[0] * invW[0]
	p1 := screen[1] * invW[1]
	p2 := screen[2] * invW[2]
	sum := p0 + p1 + p2
	if sum == 0 {
		return screen, 0
	}
	inv := 1 / sum
	return Weights{p0 * inv, p1 * inv, p2 * inv}, sum
}
