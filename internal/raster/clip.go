package raster

// wEpsilon keeps clipped vertices strictly in front of the eye.
const wEpsilon = 1e-6

// maxClipVertices bounds the polygon produced by clipping a triangle
// against three planes.
const maxClipVertices = 3 + 3

// Polygon is the output of ClipTriangle.
type Polygon struct {
	Vertices [maxClipVertices]Vertex
	Len      int
}

type clipPlane func(v *Vertex) float32

var clipPlanes = [...]clipPlane{
	func(v *Vertex) float32 { return v.Position.W - wEpsilon },
	func(v *Vertex) float32 { return v.Position.Z },
	func(v *Vertex) float32 { return v.Position.W - v.Position.Z },
}

// ClipTriangle clips a triangle against the depth range 0 <= z <= w and the
// w > 0 half-space. nvary limits the varyings that are interpolated for new
// vertices. The result is empty when the triangle is entirely outside.
func ClipTriangle(v0, v1, v2 *Vertex, nvary int, out *Polygon) {
	out.Len = 0
	if trivialAccept(v0) && trivialAccept(v1) && trivialAccept(v2) {
		out.Vertices[0], out.Vertices[1], out.Vertices[2] = *v0, *v1, *v2
		out.Len = 3
		return
	}

	var a, b Polygon
	a.Vertices[0], a.Vertices[1], a.Vertices[2] = *v0, *v1, *v2
	a.Len = 3

	src, dst := &a, &b
	for _, plane := range clipPlanes {
		clipAgainst(src, dst, plane, nvary)
		if dst.Len == 0 {
			return
		}
		src, dst = dst, src
	}
	*out = *src
}

func trivialAccept(v *Vertex) bool {
	p := v.Position
	return p.W > wEpsilon && p.Z >= 0 && p.Z <= p.W
}

func clipAgainst(src, dst *Polygon, plane clipPlane, nvary int) {
	dst.Len = 0
	for i := range src.Len {
		cur := &src.Vertices[i]
		next := &src.Vertices[(i+1)%src.Len]
		dc, dn := plane(cur), plane(next)

		if dc >= 0 {
			dst.Vertices[dst.Len] = *cur
			dst.Len++
		}
		if (dc >= 0) != (dn >= 0) {
			t := dc / (dc - dn)
			lerpVertex(&dst.Vertices[dst.Len], cur, next, t, nvary)
			dst.Len++
		}
	}
}

func lerpVertex(out, a, b *Vertex, t float32, nvary int) {
	out.Position = a.Position.Lerp(b.Position, t)
	for i := range nvary {
		out.Varyings[i] = a.Varyings[i].Lerp(b.Varyings[i], t)
	}
}

// Triangles calls fn for each triangle of the fan decomposition of p.
func (p *Polygon) Triangles(fn func(v0, v1, v2 *Vertex)) {
	for i := 1; i+1 < p.Len; i++ {
		fn(&p.Vertices[0], &p.Vertices[i], &p.Vertices[i+1])
	}
}
