package programs

import (
	_ "embed"

	"github.com/gogpu/softgpu"
	"github.com/gogpu/softgpu/internal/color"
	"github.com/gogpu/softgpu/vecmath"
)

// Embedded WGSL sources.

//go:embed shaders/triangle.wgsl
var triangleSource string

//go:embed shaders/rainbow.wgsl
var rainbowSource string

//go:embed shaders/spin.wgsl
var spinSource string

//go:embed shaders/quad.wgsl
var quadSource string

//go:embed shaders/mandelbrot.wgsl
var mandelbrotSource string

//go:embed shaders/cube.wgsl
var cubeSource string

// Triangle draws vertex-colored 2D triangles with no transform.
func Triangle() *Program {
	return &Program{
		Name:        "triangle",
		Description: "flat-colored triangle, positions passed straight to clip space",
		Source:      triangleSource,
		Vertex:      map[string]softgpu.VertexFunc{VertexEntry: passThroughVertex},
		Fragment:    map[string]softgpu.FragmentFunc{FragmentEntry: directColor},
	}
}

// Rainbow draws a triangle synthesized from the vertex index. It takes no
// vertex buffers; draw it with three vertices.
func Rainbow() *Program {
	return &Program{
		Name:        "rainbow",
		Description: "index-generated triangle with a positional color gradient",
		Source:      rainbowSource,
		Vertex:      map[string]softgpu.VertexFunc{VertexEntry: rainbowVertex},
		Fragment:    map[string]softgpu.FragmentFunc{FragmentEntry: directColor},
	}
}

// Spin draws vertex-colored 2D triangles transformed by an ObjectUniform at
// group 0, binding 0.
func Spin() *Program {
	return &Program{
		Name:        "spin",
		Description: "quaternion-rotated triangle with offset and scale",
		Source:      spinSource,
		Vertex:      map[string]softgpu.VertexFunc{VertexEntry: objectVertex},
		Fragment:    map[string]softgpu.FragmentFunc{FragmentEntry: directColor},
	}
}

// Quad draws textured geometry transformed by an ObjectUniform at binding
// 0. The red channel of the texture at binding 1 is shown as a hue, loaded
// directly by fs_main or filtered through the sampler at binding 2 by
// fs_sampled.
func Quad() *Program {
	return &Program{
		Name:        "quad",
		Description: "quaternion-rotated quad colored by a single-channel texture",
		Source:      quadSource,
		Vertex:      map[string]softgpu.VertexFunc{VertexEntry: objectVertex},
		Fragment:    map[string]softgpu.FragmentFunc{FragmentEntry: texturedFragment, SampledFragmentEntry: sampledFragment},
	}
}

// Mandelbrot fills an R32Float storage texture at binding 1 with
// 1 - escape for the FractalState at binding 0. It runs in 8x8 workgroups;
// invocations outside the texture do nothing.
func Mandelbrot() *Program {
	return &Program{
		Name:        "mandelbrot",
		Description: "escape-time Mandelbrot set computed into an r32float texture",
		Source:      mandelbrotSource,
		Compute:     map[string]softgpu.ComputeFunc{ComputeEntry: mandelbrotCompute},
	}
}

// Cube draws vertex-colored 3D geometry through a CubeUniform. It is meant
// for indexed drawing with a Depth32Float attachment.
func Cube() *Program {
	return &Program{
		Name:        "cube",
		Description: "vertex-colored cube with perspective and depth testing",
		Source:      cubeSource,
		Vertex:      map[string]softgpu.VertexFunc{VertexEntry: cubeVertex},
		Fragment:    map[string]softgpu.FragmentFunc{FragmentEntry: directColor},
	}
}

func passThroughVertex(in *softgpu.VertexInput, _ *softgpu.Resources) softgpu.VertexOutput {
	var out softgpu.VertexOutput
	pos := in.Attributes[0]
	out.Position = vecmath.V4(pos.X, pos.Y, 1, 1)
	out.Varyings[0] = in.Attributes[1]
	return out
}

// Corners the rainbow gradient is measured from, in [0,1]² screen space.
var (
	rainbowRed   = vecmath.V2(1, 0)
	rainbowGreen = vecmath.V2(0.5, 1)
	rainbowBlue  = vecmath.V2(0, 0)
)

func rainbowVertex(in *softgpu.VertexInput, _ *softgpu.Resources) softgpu.VertexOutput {
	index := int32(in.VertexIndex)
	pos := vecmath.V2(float32(1-index), float32((index&1)*2-1))
	uv := pos.Mul(0.5).Add(vecmath.V2(0.5, 0.5))

	var out softgpu.VertexOutput
	out.Position = vecmath.V4(pos.X, pos.Y, 0, 1)
	out.Varyings[0] = rainbowColor(uv).Extend(1)
	return out
}

// rainbowColor weights each channel by closeness to its corner.
func rainbowColor(uv vecmath.Vec2) vecmath.Vec3 {
	return vecmath.V3(
		vecmath.Saturate(1-uv.Distance(rainbowRed)),
		vecmath.Saturate(1-uv.Distance(rainbowGreen)),
		vecmath.Saturate(1-uv.Distance(rainbowBlue)),
	)
}

func objectVertex(in *softgpu.VertexInput, r *softgpu.Resources) softgpu.VertexOutput {
	u := softgpu.UniformAs[ObjectUniform](r, 0, 0)
	pos := in.Attributes[0]

	var out softgpu.VertexOutput
	out.Position = vecmath.ObjectTransform(u.Rotation, vecmath.V3(pos.X, pos.Y, 0), u.Offset, u.Scale)
	out.Varyings[0] = in.Attributes[1]
	return out
}

func cubeVertex(in *softgpu.VertexInput, r *softgpu.Resources) softgpu.VertexOutput {
	u := softgpu.UniformAs[CubeUniform](r, 0, 0)
	pos := in.Attributes[0]
	pos.W = 1

	var out softgpu.VertexOutput
	out.Position = u.Proj.MulVec4(u.View.MulVec4(u.Model.MulVec4(pos)))
	out.Varyings[0] = in.Attributes[1]
	return out
}

func directColor(in *softgpu.FragmentInput, _ *softgpu.Resources) vecmath.Vec4 {
	c := in.Varyings[0]
	c.W = 1
	return c
}

// texturedFragment reads the texel under uv without filtering and maps its
// red channel through HSV at full saturation and value.
func texturedFragment(in *softgpu.FragmentInput, r *softgpu.Resources) vecmath.Vec4 {
	tex := r.Texture(0, 1)
	w, h := tex.Dimensions()
	uv := in.Varyings[0]
	hue := tex.Load(int(uv.X*float32(w)), int(uv.Y*float32(h))).X
	return color.HSVToRGB(hue, 1, 1).Extend(1)
}

// sampledFragment is texturedFragment with the texel read through the
// sampler at binding 2.
func sampledFragment(in *softgpu.FragmentInput, r *softgpu.Resources) vecmath.Vec4 {
	hue := r.Texture(0, 1).Sample(r.Sampler(0, 2), in.Varyings[0].XY()).X
	return color.HSVToRGB(hue, 1, 1).Extend(1)
}

func mandelbrotCompute(id vecmath.UVec3, r *softgpu.Resources) {
	state := softgpu.UniformAs[FractalState](r, 0, 0)
	dest := r.Texture(0, 1)
	w, h := dest.Dimensions()
	if id.X >= w || id.Y >= h {
		return
	}
	dest.Store(int(id.X), int(id.Y), vecmath.V4(state.Shade(id.X, id.Y, w, h), 0, 0, 1))
}
