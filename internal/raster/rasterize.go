package raster

// Rasterize emits a fragment for every pixel center of clip covered by the
// triangle, in row-major order. The Fragment passed to fn is reused between
// calls. nvary limits the interpolated varyings.
//
// Coverage follows the top-left rule, so pixels on an edge shared by two
// triangles are produced exactly once.
func Rasterize(t *Triangle, clip Rect, frontFacing bool, nvary int, fn func(x, y int, f *Fragment)) {
	r := t.Bounds.Intersect(clip)
	if r.Empty() {
		return
	}

	// Orient edges so the interior is positive.
	v, src := t.V, t.src
	if t.ccw {
		v[1], v[2] = v[2], v[1]
		src[1], src[2] = src[2], src[1]
	}

	e0 := newEdge(v[1], v[2])
	e1 := newEdge(v[2], v[0])
	e2 := newEdge(v[0], v[1])

	invArea := 1 / t.area
	invW := [3]float32{v[0].InvW, v[1].InvW, v[2].InvW}

	var frag Fragment
	frag.FrontFacing = frontFacing

	for y := r.MinY; y < r.MaxY; y++ {
		py := float32(y) + 0.5
		for x := r.MinX; x < r.MaxX; x++ {
			px := float32(x) + 0.5
			w0 := e0.eval(px, py)
			w1 := e1.eval(px, py)
			w2 := e2.eval(px, py)
			if !e0.covers(w0) || !e1.covers(w1) || !e2.covers(w2) {
				continue
			}

			screen := Weights{w0 * invArea, w1 * invArea, w2 * invArea}
			persp, oneOverW := PerspectiveWeights(screen, invW)

			frag.Position.X = px
			frag.Position.Y = py
			frag.Position.Z = InterpolateScalar(v[0].Z, v[1].Z, v[2].Z, screen)
			frag.Position.W = oneOverW
			for i := range nvary {
				frag.Varyings[i] = Interpolate(src[0].Varyings[i], src[1].Varyings[i], src[2].Varyings[i], persp)
			}
			fn(x, y, &frag)
		}
	}
}

// edgeFn is a directed triangle edge with its fill-rule bias.
type edgeFn struct {
	ax, ay  float32
	dx, dy  float32
	topLeft bool
}

func newEdge(a, b ScreenVertex) edgeFn {
	dx, dy := b.X-a.X, b.Y-a.Y
	return edgeFn{
		ax: a.X, ay: a.Y,
		dx: dx, dy: dy,
		// Interior lies on the positive side; with Y down a left edge runs
		// upward and a top edge runs right.
		topLeft: dy < 0 || (dy == 0 && dx > 0),
	}
}

func (e edgeFn) eval(px, py float32) float32 {
	return e.dx*(py-e.ay) - e.dy*(px-e.ax)
}

func (e edgeFn) covers(w float32) bool {
	return w > 0 || (w == 0 && e.topLeft)
}
