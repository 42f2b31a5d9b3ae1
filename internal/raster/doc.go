// Package raster converts clip-space triangles into fragments.
//
// The pipeline for one triangle is:
//
//  1. ClipTriangle clips against 0 <= z <= w and w > 0 and fans the result
//     back into triangles.
//  2. Setup performs the perspective divide and viewport transform, and
//     computes the signed area and pixel bounding box.
//  3. Rasterize walks pixel centers inside a rectangle, applies the
//     top-left fill rule and emits one Fragment per covered pixel with
//     depth interpolated linearly in screen space and varyings
//     interpolated perspective-correctly.
//
// X and Y are not clipped; the bounding box is intersected with the
// rasterization rectangle instead (guard-band rasterization).
package raster

import "github.com/gogpu/softgpu/vecmath"

// MaxVaryings is the number of vec4 inter-stage variables a vertex can
// carry to the fragment stage.
const MaxVaryings = 8

// Vertex is a vertex-stage output: a clip-space position and its varyings.
type Vertex struct {
	Position vecmath.Vec4
	Varyings [MaxVaryings]vecmath.Vec4
}

// Rect is a pixel rectangle; Max is exclusive.
type Rect struct {
	MinX, MinY, MaxX, MaxY int
}

// Empty reports whether r contains no pixels.
func (r Rect) Empty() bool {
	return r.MinX >= r.MaxX || r.MinY >= r.MaxY
}

// Intersect returns the overlap of r and s.
func (r Rect) Intersect(s Rect) Rect {
	return Rect{
		MinX: max(r.MinX, s.MinX),
		MinY: max(r.MinY, s.MinY),
		MaxX: min(r.MaxX, s.MaxX),
		MaxY: min(r.MaxY, s.MaxY),
	}
}

// Fragment is one covered pixel of a triangle.
type Fragment struct {
	// Position holds the pixel center in X and Y, the interpolated depth in
	// Z and the interpolated 1/w in W.
	Position vecmath.Vec4

	// FrontFacing reports the facing of the source triangle.
	FrontFacing bool

	// Varyings are the perspective-correct interpolated varyings.
	Varyings [MaxVaryings]vecmath.Vec4
}
