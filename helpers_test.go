package softgpu

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgpu/vecmath"
)

// colorShader draws position/color vertices and counts compute invocations
// into a 16-wide storage grid.
const colorShader = `
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) color: vec4<f32>,
}

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) color: vec4<f32>,
}

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip = vec4<f32>(in.position, 1.0);
    out.color = in.color;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return in.color;
}

struct ExtraInput {
    @location(1) extra: vec4<f32>,
}

@fragment
fn fs_extra(in: ExtraInput) -> @location(0) vec4<f32> {
    return in.extra;
}

@group(0) @binding(0) var<storage, read_write> counts: array<u32>;

@compute @workgroup_size(4, 2, 1)
fn cs_count(@builtin(global_invocation_id) id: vec3<u32>) {
    let i = id.y * 16u + id.x;
    counts[i] = counts[i] + 1u;
}
`

// scaledShader reads a uniform from the vertex stage.
const scaledShader = `
struct Params {
    scale: f32,
    bias: f32,
}

@group(0) @binding(0) var<uniform> params: Params;

@vertex
fn vs_scaled(@location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position * params.scale, 1.0);
}

@fragment
fn fs_solid() -> @location(0) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 1.0, 1.0);
}
`

// countWidth is the row length of the cs_count grid.
const countWidth = 16

type testVertex struct {
	Position vecmath.Vec3
	Color    vecmath.Vec4
}

type testParams struct {
	Scale float32
	Bias  float32
}

var testVertexLayout = gputypes.VertexBufferLayout{
	ArrayStride: 28,
	StepMode:    gputypes.VertexStepModeVertex,
	Attributes: []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: gputypes.VertexFormatFloat32x4, Offset: 12, ShaderLocation: 1},
	},
}

var positionLayout = gputypes.VertexBufferLayout{
	ArrayStride: 28,
	StepMode:    gputypes.VertexStepModeVertex,
	Attributes: []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
	},
}

var (
	red   = vecmath.V4(1, 0, 0, 1)
	green = vecmath.V4(0, 1, 0, 1)
	blue  = vecmath.V4(0, 0, 1, 1)
	black = vecmath.V4(0, 0, 0, 0)
)

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	d := NewDevice(WithWorkers(2))
	t.Cleanup(d.Close)
	return d
}

func colorModule(t *testing.T, d *Device) *ShaderModule {
	t.Helper()
	sm, err := d.CreateShaderModule(ShaderModuleDescriptor{
		Label:  "color",
		Source: colorShader,
		Vertex: map[string]VertexFunc{
			"vs_main": func(in *VertexInput, _ *Resources) VertexOutput {
				var out VertexOutput
				out.Position = in.Attributes[0].XYZ().Extend(1)
				out.Varyings[0] = in.Attributes[1]
				return out
			},
		},
		Fragment: map[string]FragmentFunc{
			"fs_main": func(in *FragmentInput, _ *Resources) vecmath.Vec4 {
				return in.Varyings[0]
			},
			"fs_extra": func(in *FragmentInput, _ *Resources) vecmath.Vec4 {
				return in.Varyings[1]
			},
		},
		Compute: map[string]ComputeFunc{
			"cs_count": func(id vecmath.UVec3, r *Resources) {
				counts := StorageAs[uint32](r, 0, 0)
				counts[id.Y*countWidth+id.X]++
			},
		},
	})
	if err != nil {
		t.Fatalf("CreateShaderModule(color) error = %v", err)
	}
	return sm
}

func scaledModule(t *testing.T, d *Device) *ShaderModule {
	t.Helper()
	sm, err := d.CreateShaderModule(ShaderModuleDescriptor{
		Label:  "scaled",
		Source: scaledShader,
		Vertex: map[string]VertexFunc{
			"vs_scaled": func(in *VertexInput, r *Resources) VertexOutput {
				p := UniformAs[testParams](r, 0, 0)
				return VertexOutput{Position: in.Attributes[0].XYZ().Mul(p.Scale).Extend(1)}
			},
		},
		Fragment: map[string]FragmentFunc{
			"fs_solid": func(*FragmentInput, *Resources) vecmath.Vec4 { return blue },
		},
	})
	if err != nil {
		t.Fatalf("CreateShaderModule(scaled) error = %v", err)
	}
	return sm
}

// colorPipelineDesc describes the vs_main/fs_main pipeline drawing into an
// RGBA8Unorm target.
func colorPipelineDesc(sm *ShaderModule) RenderPipelineDescriptor {
	return RenderPipelineDescriptor{
		Label: "color",
		Vertex: VertexState{
			Module:     sm,
			EntryPoint: "vs_main",
			Buffers:    []gputypes.VertexBufferLayout{testVertexLayout},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		Fragment: &FragmentState{
			Module:     sm,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    gputypes.TextureFormatRGBA8Unorm,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	}
}

func newColorTarget(t *testing.T, d *Device, w, h int) *Texture {
	t.Helper()
	tex, err := d.CreateTexture(TextureDescriptor{
		Label:  "target",
		Width:  w,
		Height: h,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		t.Fatalf("CreateTexture(target) error = %v", err)
	}
	return tex
}

func newDepthTarget(t *testing.T, d *Device, w, h int) *Texture {
	t.Helper()
	tex, err := d.CreateTexture(TextureDescriptor{
		Label:  "depth",
		Width:  w,
		Height: h,
		Format: gputypes.TextureFormatDepth32Float,
		Usage:  gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.Fatalf("CreateTexture(depth) error = %v", err)
	}
	return tex
}

func newVertexBuffer(t *testing.T, d *Device, vertices []testVertex) *Buffer {
	t.Helper()
	buf, err := d.CreateBufferInit("vertices", gputypes.BufferUsageVertex, SliceBytes(vertices))
	if err != nil {
		t.Fatalf("CreateBufferInit(vertices) error = %v", err)
	}
	return buf
}

// fullscreen returns a counter-clockwise triangle covering the whole
// viewport at depth z.
func fullscreen(z float32, c vecmath.Vec4) []testVertex {
	return []testVertex{
		{vecmath.V3(-1, -1, z), c},
		{vecmath.V3(3, -1, z), c},
		{vecmath.V3(-1, 3, z), c},
	}
}

// quadStrip returns the four corners of the viewport in strip order.
func quadStrip(c vecmath.Vec4) []testVertex {
	return []testVertex{
		{vecmath.V3(-1, -1, 0), c},
		{vecmath.V3(1, -1, 0), c},
		{vecmath.V3(-1, 1, 0), c},
		{vecmath.V3(1, 1, 0), c},
	}
}

func clearPass(view *Texture) RenderPassDescriptor {
	return RenderPassDescriptor{
		Label: "test",
		ColorAttachments: []RenderPassColorAttachment{{
			View:    view,
			LoadOp:  gputypes.LoadOpClear,
			StoreOp: gputypes.StoreOpStore,
		}},
	}
}

// submit finishes enc and submits it, failing the test on error.
func submit(t *testing.T, d *Device, enc *CommandEncoder) {
	t.Helper()
	cb, err := enc.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if err := d.Queue().Submit(cb); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
}

// countPixels returns how many texels of tex equal want.
func countPixels(tex *Texture, want vecmath.Vec4) int {
	n := 0
	for y := range tex.Height() {
		for x := range tex.Width() {
			if tex.Load(x, y) == want {
				n++
			}
		}
	}
	return n
}
