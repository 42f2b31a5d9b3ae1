package raster

import (
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgpu/vecmath"
)

// Viewport maps normalized device coordinates to pixels. NDC +Y points up;
// pixel Y grows downward.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// FullViewport covers a width×height target with depth range [0, 1].
func FullViewport(width, height int) Viewport {
	return Viewport{Width: float32(width), Height: float32(height), MaxDepth: 1}
}

// ScreenVertex is a vertex after the perspective divide and viewport
// transform.
type ScreenVertex struct {
	X, Y, Z float32
	InvW    float32
}

// Triangle is a screen-space triangle ready for rasterization.
type Triangle struct {
	V [3]ScreenVertex

	// Source vertices for varying interpolation.
	src [3]*Vertex

	// area is twice the signed screen-space area, made positive.
	area float32

	// ccw reports counter-clockwise winding in NDC.
	ccw bool

	// Bounds is the pixel bounding box.
	Bounds Rect
}

// Setup projects a clipped triangle into screen space. It returns false for
// degenerate triangles and triangles with non-finite coordinates.
func Setup(v0, v1, v2 *Vertex, vp Viewport, tri *Triangle) bool {
	tri.src = [3]*Vertex{v0, v1, v2}
	for i, v := range tri.src {
		sv, ok := project(v.Position, vp)
		if !ok {
			return false
		}
		tri.V[i] = sv
	}

	a, b, c := tri.V[0], tri.V[1], tri.V[2]
	area := edge(a.X, a.Y, b.X, b.Y, c.X, c.Y)
	if area == 0 || math.IsNaN(float64(area)) {
		return false
	}
	// Pixel Y is flipped, so CCW in NDC is negative area here.
	tri.ccw = area < 0
	if area < 0 {
		area = -area
	}
	tri.area = area

	minX := min(a.X, b.X, c.X)
	maxX := max(a.X, b.X, c.X)
	minY := min(a.Y, b.Y, c.Y)
	maxY := max(a.Y, b.Y, c.Y)
	tri.Bounds = Rect{
		MinX: clampInt(math.Floor(float64(minX))),
		MinY: clampInt(math.Floor(float64(minY))),
		MaxX: clampInt(math.Ceil(float64(maxX))) + 1,
		MaxY: clampInt(math.Ceil(float64(maxY))) + 1,
	}
	return true
}

func project(p vecmath.Vec4, vp Viewport) (ScreenVertex, bool) {
	if p.W == 0 {
		return ScreenVertex{}, false
	}
	invW := 1 / p.W
	nx, ny, nz := p.X*invW, p.Y*invW, p.Z*invW
	sv := ScreenVertex{
		X:    vp.X + (nx+1)*0.5*vp.Width,
		Y:    vp.Y + (1-ny)*0.5*vp.Height,
		Z:    vp.MinDepth + nz*(vp.MaxDepth-vp.MinDepth),
		InvW: invW,
	}
	if !finite(sv.X) || !finite(sv.Y) || !finite(sv.Z) {
		return ScreenVertex{}, false
	}
	return sv, true
}

// FrontFacing reports whether the triangle faces the viewer under the given
// winding convention.
func (t *Triangle) FrontFacing(ff gputypes.FrontFace) bool {
	if ff == gputypes.FrontFaceCW {
		return !t.ccw
	}
	return t.ccw
}

// Culled reports whether cull mode discards the triangle.
func (t *Triangle) Culled(ff gputypes.FrontFace, cull gputypes.CullMode) bool {
	switch cull {
	case gputypes.CullModeFront:
		return t.FrontFacing(ff)
	case gputypes.CullModeBack:
		return !t.FrontFacing(ff)
	default:
		return false
	}
}

// edge returns the edge function of p relative to the directed edge a→b.
func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// pixelLimit bounds bounding boxes so int conversion cannot overflow.
const pixelLimit = 1 << 24

func clampInt(v float64) int {
	if v < -pixelLimit {
		return -pixelLimit
	}
	if v > pixelLimit {
		return pixelLimit
	}
	return int(v)
}

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}
