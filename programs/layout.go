package programs

import (
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgpu/internal/fractal"
	"github.com/gogpu/softgpu/vecmath"
)

// ObjectUniform is the per-object transform read by the spin and quad
// vertex stages. It is 32 bytes, matching the WGSL struct padded to vec4
// alignment.
type ObjectUniform struct {
	Rotation vecmath.Quat
	Offset   vecmath.Vec2
	Scale    float32
	_        float32
}

// IdentityObject is an unrotated, unscaled object at the origin.
func IdentityObject() ObjectUniform {
	return ObjectUniform{Rotation: vecmath.QuatIdentity(), Scale: 1}
}

// FractalState is the uniform block of the mandelbrot dispatch.
type FractalState = fractal.State

// CubeUniform holds the model, view and projection matrices of the cube,
// each column-major. It is 192 bytes.
type CubeUniform struct {
	Model vecmath.Mat4
	View  vecmath.Mat4
	Proj  vecmath.Mat4
}

// CubeCamera returns the cube transforms for the given aspect ratio and
// extra rotation angle in radians about all three axes.
func CubeCamera(aspect, angle float32) CubeUniform {
	const tilt = -math.Pi / 4
	return CubeUniform{
		Model: vecmath.RotationEulerXYZ(tilt+angle, tilt+angle, tilt+angle).
			Mul(vecmath.Scale(vecmath.Splat3(2))),
		View: vecmath.LookAt(vecmath.V3(0, 0, 3), vecmath.Vec3{}, vecmath.V3(0, 1, 0)),
		Proj: vecmath.Perspective(vecmath.Radians(45), aspect, 0.1, 100),
	}
}

// Vertex2D is a 2D position with an RGB color.
type Vertex2D struct {
	Position vecmath.Vec2
	Color    vecmath.Vec3
}

// Vertex2DLayout is the buffer layout of Vertex2D: position at location 0,
// color at location 1.
func Vertex2DLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: 20,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x3, Offset: 8, ShaderLocation: 1},
		},
	}
}

// TexturedVertex is a 2D position with texture coordinates.
type TexturedVertex struct {
	Position vecmath.Vec2
	UV       vecmath.Vec2
}

// TexturedVertexLayout is the buffer layout of TexturedVertex.
func TexturedVertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: 16,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
		},
	}
}

// CubeVertex is a 3D position with an RGB color.
type CubeVertex struct {
	Position vecmath.Vec3
	Color    vecmath.Vec3
}

// CubeVertexLayout is the buffer layout of CubeVertex.
func CubeVertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: 24,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		},
	}
}

// TriangleVertices is the red/green/blue triangle of the triangle program.
func TriangleVertices() []Vertex2D {
	return []Vertex2D{
		{Position: vecmath.V2(0, 0.5), Color: vecmath.V3(1, 0, 0)},
		{Position: vecmath.V2(-0.5, -0.5), Color: vecmath.V3(0, 1, 0)},
		{Position: vecmath.V2(0.5, -0.5), Color: vecmath.V3(0, 0, 1)},
	}
}

// EquilateralTriangle returns a triangle whose corners lie at distance
// radius from center, the first at angle radians and the others a third of
// a turn either side. Corners are red, green and blue.
func EquilateralTriangle(center vecmath.Vec2, radius, angle float32) []Vertex2D {
	corner := func(theta float32) vecmath.Vec2 {
		s, c := math.Sincos(float64(theta))
		return center.Add(vecmath.V2(float32(c), float32(s)).Mul(radius))
	}
	const third = 2 * math.Pi / 3
	return []Vertex2D{
		{Position: corner(angle), Color: vecmath.V3(1, 0, 0)},
		{Position: corner(angle + third), Color: vecmath.V3(0, 1, 0)},
		{Position: corner(angle - third), Color: vecmath.V3(0, 0, 1)},
	}
}

// QuadVertices is a full-screen quad drawn as a four-vertex triangle strip.
// UV (0, 0) is the top-left texel.
func QuadVertices() []TexturedVertex {
	return []TexturedVertex{
		{Position: vecmath.V2(-1, -1), UV: vecmath.V2(0, 1)},
		{Position: vecmath.V2(1, -1), UV: vecmath.V2(1, 1)},
		{Position: vecmath.V2(-1, 1), UV: vecmath.V2(0, 0)},
		{Position: vecmath.V2(1, 1), UV: vecmath.V2(1, 0)},
	}
}

// CubeVertices are the corners of a unit cube centered on the origin.
func CubeVertices() []CubeVertex {
	return []CubeVertex{
		{Position: vecmath.V3(-0.5, -0.5, -0.5), Color: vecmath.V3(1, 1, 1)},
		{Position: vecmath.V3(0.5, -0.5, -0.5), Color: vecmath.V3(0, 1, 1)},
		{Position: vecmath.V3(0.5, 0.5, -0.5), Color: vecmath.V3(0, 0, 1)},
		{Position: vecmath.V3(-0.5, 0.5, -0.5), Color: vecmath.V3(1, 0, 1)},
		{Position: vecmath.V3(-0.5, -0.5, 0.5), Color: vecmath.V3(1, 1, 0)},
		{Position: vecmath.V3(0.5, -0.5, 0.5), Color: vecmath.V3(0, 1, 0)},
		{Position: vecmath.V3(0.5, 0.5, 0.5), Color: vecmath.V3(0, 0, 0)},
		{Position: vecmath.V3(-0.5, 0.5, 0.5), Color: vecmath.V3(1, 0, 0)},
	}
}

// CubeIndices lists the twelve triangles of the cube, two per face.
func CubeIndices() []uint16 {
	return []uint16{
		0, 1, 2, 2, 3, 0,
		0, 4, 7, 7, 3, 0,
		1, 5, 6, 6, 2, 1,
		2, 3, 7, 7, 6, 2,
		1, 0, 4, 4, 5, 1,
		4, 5, 6, 6, 7, 4,
	}
}
