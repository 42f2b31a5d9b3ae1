package softgpu

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgpu/internal/blend"
	"github.com/gogpu/softgpu/internal/parallel"
	"github.com/gogpu/softgpu/internal/raster"
	"github.com/gogpu/softgpu/vecmath"
)

// vertexGrain is the minimum number of vertices one worker shades.
const vertexGrain = 64

func (c *computePassCommand) execute(d *Device) {
	for i := range c.dispatches {
		dc := &c.dispatches[i]
		wg := dc.pipeline.workgroup
		kernel := dc.pipeline.kernel
		res := &dc.res

		Logger().Debug("softgpu: dispatch",
			"pass", c.label,
			"pipeline", dc.pipeline.label,
			"workgroups", dc.count,
			"workgroup_size", wg)

		d.pool.Dispatch(dc.count, func(group [3]uint32) {
			bx, by, bz := group[0]*wg[0], group[1]*wg[1], group[2]*wg[2]
			for z := range wg[2] {
				for y := range wg[1] {
					for x := range wg[0] {
						kernel(vecmath.UVec3{X: bx + x, Y: by + y, Z: bz + z}, res)
					}
				}
			}
		})
	}
}

func (c *renderPassCommand) execute(d *Device) {
	var color, depth *Texture
	if c.color != nil {
		color = c.color.View
		if c.color.LoadOp == gputypes.LoadOpClear {
			color.Clear(colorVec4(c.color.ClearValue))
		}
	}
	if c.depth != nil {
		depth = c.depth.View
		if c.depth.DepthLoadOp == gputypes.LoadOpClear {
			depth.Clear(vecmath.Vec4{X: c.depth.DepthClearValue})
		}
	}

	if len(c.draws) > 0 {
		grid := parallel.NewTileGrid(c.width, c.height)
		binner := parallel.NewBinner(grid)
		for i := range c.draws {
			binner.Reset()
			d.draw(&c.draws[i], color, depth, binner)
		}
	}

	if c.color != nil && c.color.StoreOp == gputypes.StoreOpDiscard {
		color.Clear(vecmath.Vec4{})
	}
	if c.depth != nil && c.depth.DepthStoreOp == gputypes.StoreOpDiscard {
		depth.Clear(vecmath.Vec4{})
	}
}

// draw runs one draw: vertex shading, primitive assembly, clipping and
// setup on the calling goroutine, then rasterization of binned tiles in
// parallel with one worker per tile.
func (d *Device) draw(dc *drawCommand, color, depth *Texture, binner *parallel.Binner) {
	p := dc.pipeline
	n := int(dc.vertexCount)
	if n < 3 || dc.instanceCount == 0 {
		return
	}

	verts := make([]raster.Vertex, n)
	tris := make([][3]int32, 0, n)
	var polys []raster.Polygon
	var screen []raster.Triangle
	var facing []bool

	for instance := dc.firstInstance; instance < dc.firstInstance+dc.instanceCount; instance++ {
		d.shadeVertices(dc, instance, verts)

		tris = assemble(p.primitive.Topology, dc.indices, n, tris[:0])
		polys = growPolygons(polys, len(tris))
		d.pool.For(len(tris), vertexGrain, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				t := tris[i]
				raster.ClipTriangle(&verts[t[0]], &verts[t[1]], &verts[t[2]], p.nvary, &polys[i])
			}
		})

		screen, facing = screen[:0], facing[:0]
		for i := range tris {
			polys[i].Triangles(func(v0, v1, v2 *raster.Vertex) {
				var tri raster.Triangle
				if !raster.Setup(v0, v1, v2, dc.viewport, &tri) {
					return
				}
				if tri.Culled(p.primitive.FrontFace, p.primitive.CullMode) {
					return
				}
				screen = append(screen, tri)
				facing = append(facing, tri.FrontFacing(p.primitive.FrontFace))
			})
		}

		binner.Reset()
		for i := range screen {
			b := screen[i].Bounds.Intersect(dc.scissor)
			if !b.Empty() {
				binner.Add(i, b.MinX, b.MinY, b.MaxX, b.MaxY)
			}
		}

		Logger().Debug("softgpu: draw",
			"pipeline", p.label,
			"instance", instance,
			"triangles", len(screen),
			"tiles", binner.ActiveTiles())

		binner.Run(d.pool, func(t *parallel.Tile, prims []int) {
			x, y, w, h := t.Bounds()
			rect := raster.Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}.Intersect(dc.scissor)
			var in FragmentInput
			for _, i := range prims {
				raster.Rasterize(&screen[i], rect, facing[i], p.nvary, func(px, py int, f *raster.Fragment) {
					shadeFragment(dc, px, py, f, &in, color, depth)
				})
			}
		})
	}
}

// shadeVertices runs the vertex kernel for every vertex of the draw.
func (d *Device) shadeVertices(dc *drawCommand, instance uint32, out []raster.Vertex) {
	p := dc.pipeline
	d.pool.For(len(out), vertexGrain, func(lo, hi int) {
		var in VertexInput
		in.InstanceIndex = instance
		for i := lo; i < hi; i++ {
			vertex := dc.firstVertex + uint32(i)
			if dc.indices != nil {
				vertex = dc.indices[i]
				if vertex == restartIndex {
					continue
				}
			}
			in.VertexIndex = vertex
			fetchVertex(p.buffers, dc.vertexBuffers, vertex, instance, &in)
			o := p.vertex(&in, &dc.res)
			out[i] = raster.Vertex{Position: o.Position, Varyings: o.Varyings}
		}
	})
}

func shadeFragment(dc *drawCommand, x, y int, f *raster.Fragment, in *FragmentInput, color, depth *Texture) {
	p := dc.pipeline
	if ds := p.depth; ds != nil {
		i := y*depth.width + x
		if !raster.DepthTest(ds.DepthCompare, f.Position.Z, depth.depthAt(i)) {
			return
		}
		if ds.DepthWriteEnabled {
			depth.setDepth(i, f.Position.Z)
		}
	}
	if p.fragment == nil || color == nil {
		return
	}

	in.Position = f.Position
	in.FrontFacing = f.FrontFacing
	in.Varyings = f.Varyings
	src := p.fragment(in, &dc.res)

	dst := color.Load(x, y)
	out := blend.Apply(p.target.Blend, src, dst, dc.constant)
	color.Store(x, y, blend.Mask(p.target.WriteMask, out, dst))
}

// assemble appends the vertex positions of each triangle. Strip triangles
// alternate winding so every triangle keeps the strip's orientation, and a
// restart marker begins a new strip.
func assemble(topology gputypes.PrimitiveTopology, indices []uint32, n int, tris [][3]int32) [][3]int32 {
	if topology == gputypes.PrimitiveTopologyTriangleList {
		for i := 0; i+2 < n; i += 3 {
			tris = append(tris, [3]int32{int32(i), int32(i + 1), int32(i + 2)})
		}
		return tris
	}

	start := 0
	for i := 0; i <= n; i++ {
		if i < n && (indices == nil || indices[i] != restartIndex) {
			continue
		}
		for k := start; k+2 < i; k++ {
			if (k-start)%2 == 0 {
				tris = append(tris, [3]int32{int32(k), int32(k + 1), int32(k + 2)})
			} else {
				tris = append(tris, [3]int32{int32(k + 1), int32(k), int32(k + 2)})
			}
		}
		start = i + 1
	}
	return tris
}

func growPolygons(polys []raster.Polygon, n int) []raster.Polygon {
	if cap(polys) < n {
		return make([]raster.Polygon, n)
	}
	return polys[:n]
}
