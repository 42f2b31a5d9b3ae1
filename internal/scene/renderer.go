package scene

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgpu"
	"github.com/gogpu/softgpu/programs"
	"github.com/gogpu/softgpu/vecmath"
)

// ErrUnknownScene is returned for a registered program the renderer has no
// scene setup for.
var ErrUnknownScene = errors.New("scene: no scene for program")

// ColorFormat is the format of the color target of render scenes.
const ColorFormat = gputypes.TextureFormatRGBA8Unorm

// Renderer owns the resources of one scene on a device.
type Renderer struct {
	device  *softgpu.Device
	cfg     Config
	program *programs.Program
	module  *softgpu.ShaderModule

	color *softgpu.Texture
	depth *softgpu.Texture

	// output is the texture Render returns: the color target, or the
	// fractal texture for compute-only scenes.
	output *softgpu.Texture

	// fractal is the compute stage feeding the scene, if any.
	fractal *fractalStage

	// update writes per-frame uniforms before encoding.
	update func(frame int) error
	passes []func(enc *softgpu.CommandEncoder) error
}

// NewRenderer creates the resources for cfg.Scene on d.
func NewRenderer(d *softgpu.Device, cfg Config) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := programs.Lookup(cfg.Scene)
	if err != nil {
		return nil, err
	}
	module, err := d.CreateShaderModule(p.ShaderModuleDescriptor())
	if err != nil {
		return nil, err
	}
	r := &Renderer{device: d, cfg: cfg, program: p, module: module}

	switch cfg.Scene {
	case "triangle":
		err = r.buildColored(programs.TriangleVertices(), nil)
	case "rainbow":
		err = r.buildRainbow()
	case "spin":
		err = r.buildSpin()
	case "quad":
		err = r.buildQuad()
	case "mandelbrot":
		err = r.buildMandelbrot()
	case "cube":
		err = r.buildCube()
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownScene, cfg.Scene)
	}
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", cfg.Scene, err)
	}

	softgpu.Logger().Info("scene: renderer ready",
		"scene", cfg.Scene,
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"entry_points", module.EntryPointNames())
	return r, nil
}

// Config returns the renderer's configuration.
func (r *Renderer) Config() Config { return r.cfg }

// Program returns the program the scene runs.
func (r *Renderer) Program() *programs.Program { return r.program }

// Output returns the texture that Render fills.
func (r *Renderer) Output() *softgpu.Texture { return r.output }

// Render draws frame and returns the output texture. The texture is reused
// across frames.
func (r *Renderer) Render(frame int) (*softgpu.Texture, error) {
	if r.update != nil {
		if err := r.update(frame); err != nil {
			return nil, fmt.Errorf("frame %d: %w", frame, err)
		}
	}
	enc, err := r.device.CreateCommandEncoder(fmt.Sprintf("%s frame %d", r.cfg.Scene, frame))
	if err != nil {
		return nil, err
	}
	for _, pass := range r.passes {
		if err := pass(enc); err != nil {
			return nil, fmt.Errorf("frame %d: %w", frame, err)
		}
	}
	cb, err := enc.Finish()
	if err != nil {
		return nil, err
	}
	if err := r.device.Queue().Submit(cb); err != nil {
		return nil, fmt.Errorf("frame %d: %w", frame, err)
	}
	if r.fractal != nil {
		r.fractal.submitted()
	}
	return r.output, nil
}

func (r *Renderer) clearColor() gputypes.Color {
	bg := r.cfg.Background
	return gputypes.Color{R: bg[0], G: bg[1], B: bg[2], A: bg[3]}
}

func (r *Renderer) createColorTarget() error {
	tex, err := r.device.CreateTexture(softgpu.TextureDescriptor{
		Label:  r.cfg.Scene + " color",
		Width:  r.cfg.Width,
		Height: r.cfg.Height,
		Format: ColorFormat,
		Usage:  gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return err
	}
	r.color = tex
	r.output = tex
	return nil
}

func (r *Renderer) createDepthTarget() error {
	tex, err := r.device.CreateTexture(softgpu.TextureDescriptor{
		Label:  r.cfg.Scene + " depth",
		Width:  r.cfg.Width,
		Height: r.cfg.Height,
		Format: gputypes.TextureFormatDepth32Float,
		Usage:  gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return err
	}
	r.depth = tex
	return nil
}

// pipeline describes the render pipeline of a scene in terms of the
// program's shared entry points.
type pipeline struct {
	layout   []*softgpu.BindGroupLayout
	buffers  []gputypes.VertexBufferLayout
	topology gputypes.PrimitiveTopology
	depth    bool

	// fragment overrides programs.FragmentEntry.
	fragment string
}

func (r *Renderer) createPipeline(pl pipeline) (*softgpu.RenderPipeline, error) {
	fragment := programs.FragmentEntry
	if pl.fragment != "" {
		fragment = pl.fragment
	}
	desc := softgpu.RenderPipelineDescriptor{
		Label:  r.cfg.Scene,
		Layout: pl.layout,
		Vertex: softgpu.VertexState{
			Module:     r.module,
			EntryPoint: programs.VertexEntry,
			Buffers:    pl.buffers,
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  pl.topology,
			FrontFace: gputypes.FrontFaceCW,
			CullMode:  gputypes.CullModeNone,
		},
		Fragment: &softgpu.FragmentState{
			Module:     r.module,
			EntryPoint: fragment,
			Targets: []gputypes.ColorTargetState{{
				Format:    ColorFormat,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
	}
	if pl.depth {
		desc.DepthStencil = &gputypes.DepthStencilState{
			Format:            gputypes.TextureFormatDepth32Float,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLess,
		}
	}
	return r.device.CreateRenderPipeline(desc)
}

// draw is the recorded content of a scene's render pass.
type draw struct {
	pipeline *softgpu.RenderPipeline
	group    *softgpu.BindGroup
	vertices *softgpu.Buffer
	indices  *softgpu.Buffer
	count    uint32
}

func (r *Renderer) renderPass(d draw) func(enc *softgpu.CommandEncoder) error {
	return func(enc *softgpu.CommandEncoder) error {
		desc := softgpu.RenderPassDescriptor{
			Label: r.cfg.Scene,
			ColorAttachments: []softgpu.RenderPassColorAttachment{{
				View:       r.color,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: r.clearColor(),
			}},
		}
		if r.depth != nil {
			desc.DepthStencilAttachment = &softgpu.RenderPassDepthStencilAttachment{
				View:            r.depth,
				DepthLoadOp:     gputypes.LoadOpClear,
				DepthStoreOp:    gputypes.StoreOpStore,
				DepthClearValue: 1,
			}
		}
		pass, err := enc.BeginRenderPass(desc)
		if err != nil {
			return err
		}
		if err := pass.SetPipeline(d.pipeline); err != nil {
			return err
		}
		if d.group != nil {
			if err := pass.SetBindGroup(0, d.group); err != nil {
				return err
			}
		}
		if d.vertices != nil {
			if err := pass.SetVertexBuffer(0, d.vertices, 0); err != nil {
				return err
			}
		}
		if d.indices != nil {
			if err := pass.SetIndexBuffer(d.indices, gputypes.IndexFormatUint16, 0); err != nil {
				return err
			}
			if err := pass.DrawIndexed(d.count, 1, 0, 0, 0); err != nil {
				return err
			}
		} else if err := pass.Draw(d.count, 1, 0, 0); err != nil {
			return err
		}
		return pass.End()
	}
}

// buildColored sets up a Vertex2D scene drawn with the program's vertex
// stage and an optional uniform bind group.
func (r *Renderer) buildColored(vertices []programs.Vertex2D, uniform *uniformBinding) error {
	if err := r.createColorTarget(); err != nil {
		return err
	}
	vb, err := r.device.CreateBufferInit(r.cfg.Scene+" vertices", gputypes.BufferUsageVertex, softgpu.SliceBytes(vertices))
	if err != nil {
		return err
	}
	pl := pipeline{
		buffers:  []gputypes.VertexBufferLayout{programs.Vertex2DLayout()},
		topology: gputypes.PrimitiveTopologyTriangleList,
	}
	d := draw{vertices: vb, count: uint32(len(vertices))}
	if uniform != nil {
		pl.layout = []*softgpu.BindGroupLayout{uniform.layout}
		d.group = uniform.group
	}
	if d.pipeline, err = r.createPipeline(pl); err != nil {
		return err
	}
	r.passes = append(r.passes, r.renderPass(d))
	return nil
}

func (r *Renderer) buildRainbow() error {
	if err := r.createColorTarget(); err != nil {
		return err
	}
	p, err := r.createPipeline(pipeline{topology: gputypes.PrimitiveTopologyTriangleList})
	if err != nil {
		return err
	}
	r.passes = append(r.passes, r.renderPass(draw{pipeline: p, count: 3}))
	return nil
}

func (r *Renderer) buildSpin() error {
	object := r.object(0)
	u, err := r.newUniform(gputypes.ShaderStageVertex, softgpu.BytesOf(&object))
	if err != nil {
		return err
	}
	if err := r.buildColored(programs.EquilateralTriangle(vecmath.Vec2{}, 1, 0), u); err != nil {
		return err
	}
	r.update = func(frame int) error {
		object := r.object(frame)
		return r.device.Queue().WriteBuffer(u.buffer, 0, softgpu.BytesOf(&object))
	}
	return nil
}

// object returns the spin transform of frame.
func (r *Renderer) object(frame int) programs.ObjectUniform {
	spin := r.cfg.Spin
	return programs.ObjectUniform{
		Rotation: vecmath.QuatFromAxisAngle(vecmath.V3(0, 0, 1), float32(frame)*spin.Speed),
		Offset:   vecmath.V2(spin.Offset[0], spin.Offset[1]),
		Scale:    spin.Scale,
	}
}

func (r *Renderer) fractalState() programs.FractalState {
	return programs.FractalState{
		Offset: vecmath.V2(r.cfg.Fractal.Offset[0], r.cfg.Fractal.Offset[1]),
		Zoom:   r.cfg.Fractal.Zoom,
	}
}

func (r *Renderer) buildMandelbrot() error {
	fs, err := newFractalStage(r.device, r.module, r.cfg.Width, r.cfg.Height, r.fractalState())
	if err != nil {
		return err
	}
	r.output = fs.texture
	r.fractal = fs
	r.passes = append(r.passes, fs.encode)
	return nil
}

func (r *Renderer) buildQuad() error {
	fractalProgram := programs.Mandelbrot()
	fractalModule, err := r.device.CreateShaderModule(fractalProgram.ShaderModuleDescriptor())
	if err != nil {
		return err
	}
	fs, err := newFractalStage(r.device, fractalModule, r.cfg.Width, r.cfg.Height, r.fractalState())
	if err != nil {
		return err
	}
	if err := r.createColorTarget(); err != nil {
		return err
	}

	sampleType := gputypes.TextureSampleTypeUnfilterableFloat
	if r.cfg.Quad.Filter == "linear" {
		sampleType = gputypes.TextureSampleTypeFloat
	}
	entries := []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex,
			Buffer: &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeUniform,
				MinBindingSize: uint64(len(softgpu.BytesOf(&programs.ObjectUniform{}))),
			},
		},
		{
			Binding:    1,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    sampleType,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		},
	}
	object := r.object(0)
	ub, err := r.device.CreateBufferInit("quad object", gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst, softgpu.BytesOf(&object))
	if err != nil {
		return err
	}
	bound := []softgpu.BindGroupEntry{
		{Binding: 0, Buffer: ub},
		{Binding: 1, Texture: fs.texture},
	}
	fragment := programs.FragmentEntry
	if r.cfg.Quad.Filter != "" {
		sampler, err := r.device.CreateSampler(r.cfg.Quad.samplerDescriptor())
		if err != nil {
			return err
		}
		bindingType := gputypes.SamplerBindingTypeNonFiltering
		if r.cfg.Quad.Filter == "linear" {
			bindingType = gputypes.SamplerBindingTypeFiltering
		}
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    2,
			Visibility: gputypes.ShaderStageFragment,
			Sampler:    &gputypes.SamplerBindingLayout{Type: bindingType},
		})
		bound = append(bound, softgpu.BindGroupEntry{Binding: 2, Sampler: sampler})
		fragment = programs.SampledFragmentEntry
	}

	layout, err := r.device.CreateBindGroupLayout(softgpu.BindGroupLayoutDescriptor{Label: "quad", Entries: entries})
	if err != nil {
		return err
	}
	group, err := r.device.CreateBindGroup(softgpu.BindGroupDescriptor{
		Label:   "quad",
		Layout:  layout,
		Entries: bound,
	})
	if err != nil {
		return err
	}
	vb, err := r.device.CreateBufferInit("quad vertices", gputypes.BufferUsageVertex, softgpu.SliceBytes(programs.QuadVertices()))
	if err != nil {
		return err
	}
	p, err := r.createPipeline(pipeline{
		layout:   []*softgpu.BindGroupLayout{layout},
		buffers:  []gputypes.VertexBufferLayout{programs.TexturedVertexLayout()},
		topology: gputypes.PrimitiveTopologyTriangleStrip,
		fragment: fragment,
	})
	if err != nil {
		return err
	}

	r.fractal = fs
	r.passes = append(r.passes, fs.encode, r.renderPass(draw{pipeline: p, group: group, vertices: vb, count: 4}))
	r.update = func(frame int) error {
		object := r.object(frame)
		return r.device.Queue().WriteBuffer(ub, 0, softgpu.BytesOf(&object))
	}
	return nil
}

func (r *Renderer) buildCube() error {
	if err := r.createColorTarget(); err != nil {
		return err
	}
	if err := r.createDepthTarget(); err != nil {
		return err
	}
	camera := programs.CubeCamera(r.cfg.Aspect(), 0)
	u, err := r.newUniform(gputypes.ShaderStageVertex, softgpu.BytesOf(&camera))
	if err != nil {
		return err
	}
	vb, err := r.device.CreateBufferInit("cube vertices", gputypes.BufferUsageVertex, softgpu.SliceBytes(programs.CubeVertices()))
	if err != nil {
		return err
	}
	indices := programs.CubeIndices()
	ib, err := r.device.CreateBufferInit("cube indices", gputypes.BufferUsageIndex, softgpu.SliceBytes(indices))
	if err != nil {
		return err
	}
	p, err := r.createPipeline(pipeline{
		layout:   []*softgpu.BindGroupLayout{u.layout},
		buffers:  []gputypes.VertexBufferLayout{programs.CubeVertexLayout()},
		topology: gputypes.PrimitiveTopologyTriangleList,
		depth:    true,
	})
	if err != nil {
		return err
	}

	r.passes = append(r.passes, r.renderPass(draw{
		pipeline: p,
		group:    u.group,
		vertices: vb,
		indices:  ib,
		count:    uint32(len(indices)),
	}))
	r.update = func(frame int) error {
		camera := programs.CubeCamera(r.cfg.Aspect(), float32(frame)*r.cfg.Cube.Speed)
		return r.device.Queue().WriteBuffer(u.buffer, 0, softgpu.BytesOf(&camera))
	}
	return nil
}

// samplerDescriptor maps the quad filter and address names onto a sampler.
func (q QuadConfig) samplerDescriptor() gputypes.SamplerDescriptor {
	desc := gputypes.DefaultSamplerDescriptor()
	desc.Label = "quad"
	if q.Filter == "linear" {
		desc = gputypes.LinearSamplerDescriptor()
		desc.Label = "quad"
	}
	var mode gputypes.AddressMode
	switch q.Address {
	case "repeat":
		mode = gputypes.AddressModeRepeat
	case "mirror":
		mode = gputypes.AddressModeMirrorRepeat
	default:
		mode = gputypes.AddressModeClampToEdge
	}
	desc.AddressModeU, desc.AddressModeV, desc.AddressModeW = mode, mode, mode
	return desc
}

// uniformBinding is a single uniform buffer bound at group 0, binding 0.
type uniformBinding struct {
	layout *softgpu.BindGroupLayout
	group  *softgpu.BindGroup
	buffer *softgpu.Buffer
}

func (r *Renderer) newUniform(visibility gputypes.ShaderStage, contents []byte) (*uniformBinding, error) {
	layout, err := r.device.CreateBindGroupLayout(softgpu.BindGroupLayoutDescriptor{
		Label: r.cfg.Scene + " uniforms",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: visibility,
			Buffer: &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeUniform,
				MinBindingSize: uint64(len(contents)),
			},
		}},
	})
	if err != nil {
		return nil, err
	}
	buf, err := r.device.CreateBufferInit(r.cfg.Scene+" uniforms", gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst, contents)
	if err != nil {
		return nil, err
	}
	group, err := r.device.CreateBindGroup(softgpu.BindGroupDescriptor{
		Label:   r.cfg.Scene + " uniforms",
		Layout:  layout,
		Entries: []softgpu.BindGroupEntry{{Binding: 0, Buffer: buf}},
	})
	if err != nil {
		return nil, err
	}
	return &uniformBinding{layout: layout, group: group, buffer: buf}, nil
}
