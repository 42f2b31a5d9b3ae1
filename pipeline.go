package softgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// VertexState selects the vertex entry point and its buffer layouts.
type VertexState struct {
	Module     *ShaderModule
	EntryPoint string
	Buffers    []gputypes.VertexBufferLayout
}

// FragmentState selects the fragment entry point and its color target.
type FragmentState struct {
	Module     *ShaderModule
	EntryPoint string
	Targets    []gputypes.ColorTargetState
}

// RenderPipelineDescriptor describes a render pipeline. Layout holds one
// bind group layout per group index; nil entries are unused groups.
type RenderPipelineDescriptor struct {
	Label        string
	Layout       []*BindGroupLayout
	Vertex       VertexState
	Primitive    gputypes.PrimitiveState
	DepthStencil *gputypes.DepthStencilState
	Fragment     *FragmentState
}

// RenderPipeline is a validated vertex/fragment configuration.
type RenderPipeline struct {
	label  string
	layout []*BindGroupLayout

	vertex   VertexFunc
	fragment FragmentFunc

	vertexInfo   *EntryPointInfo
	fragmentInfo *EntryPointInfo

	buffers   []vertexBufferLayout
	primitive gputypes.PrimitiveState
	depth     *gputypes.DepthStencilState
	target    *gputypes.ColorTargetState

	// nvary is the number of varyings the rasterizer interpolates.
	nvary int

	// bindings is the union of the stages' bindings, checked against bound
	// sizes at draw time.
	bindings []ShaderBinding
}

// CreateRenderPipeline validates a render pipeline: the vertex layout must
// match the vertex inputs, fragment inputs must be vertex outputs, every
// shader binding must be declared in Layout, and the pipeline may have at
// most one float color target.
func (d *Device) CreateRenderPipeline(desc RenderPipelineDescriptor) (*RenderPipeline, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	wrap := func(err error) error {
		return fmt.Errorf("softgpu: render pipeline %q: %w", desc.Label, err)
	}

	if err := d.checkLayoutCount(desc.Layout); err != nil {
		return nil, wrap(err)
	}

	switch desc.Primitive.Topology {
	case gputypes.PrimitiveTopologyTriangleList, gputypes.PrimitiveTopologyTriangleStrip:
	default:
		return nil, wrap(fmt.Errorf("%w: %v", ErrUnsupportedTopology, desc.Primitive.Topology))
	}

	if desc.Vertex.Module == nil {
		return nil, wrap(fmt.Errorf("%w: no vertex module", ErrInvalidDescriptor))
	}
	vinfo, err := desc.Vertex.Module.entryPoint(desc.Vertex.EntryPoint, gputypes.ShaderStageVertex)
	if err != nil {
		return nil, wrap(err)
	}
	vfn := desc.Vertex.Module.vertex[desc.Vertex.EntryPoint]
	if vfn == nil {
		return nil, wrap(fmt.Errorf("%w: vertex %q", ErrMissingKernel, desc.Vertex.EntryPoint))
	}
	buffers, err := newVertexLayouts(desc.Vertex.Buffers, vinfo.Inputs, &d.limits)
	if err != nil {
		return nil, wrap(err)
	}

	p := &RenderPipeline{
		label:      desc.Label,
		layout:     append([]*BindGroupLayout(nil), desc.Layout...),
		vertex:     vfn,
		vertexInfo: vinfo,
		buffers:    buffers,
		primitive:  desc.Primitive,
	}
	for _, out := range vinfo.Outputs {
		if out.Location >= MaxVaryings {
			return nil, wrap(fmt.Errorf("%w: vertex output location %d, max %d", ErrLimitExceeded, out.Location, MaxVaryings-1))
		}
		p.nvary = max(p.nvary, int(out.Location)+1)
	}
	if err := checkBindings(desc.Layout, vinfo); err != nil {
		return nil, wrap(err)
	}
	p.bindings = append(p.bindings, vinfo.Bindings...)

	if ds := desc.DepthStencil; ds != nil {
		if ds.Format != gputypes.TextureFormatDepth32Float {
			return nil, wrap(fmt.Errorf("%w: depth format %s", ErrUnsupportedFormat, ds.Format))
		}
		depth := *ds
		p.depth = &depth
	}

	if fs := desc.Fragment; fs != nil {
		if err := p.setFragment(fs, desc.Layout); err != nil {
			return nil, wrap(err)
		}
	}

	Logger().Debug("softgpu: render pipeline created",
		"label", desc.Label,
		"vertex", desc.Vertex.EntryPoint,
		"varyings", p.nvary,
		"bindings", len(p.bindings))
	return p, nil
}

func (p *RenderPipeline) setFragment(fs *FragmentState, layout []*BindGroupLayout) error {
	if fs.Module == nil {
		return fmt.Errorf("%w: no fragment module", ErrInvalidDescriptor)
	}
	finfo, err := fs.Module.entryPoint(fs.EntryPoint, gputypes.ShaderStageFragment)
	if err != nil {
		return err
	}
	ffn := fs.Module.fragment[fs.EntryPoint]
	if ffn == nil {
		return fmt.Errorf("%w: fragment %q", ErrMissingKernel, fs.EntryPoint)
	}

	for _, in := range finfo.Inputs {
		out, ok := findLocation(p.vertexInfo.Outputs, in.Location)
		if !ok || out.Components != in.Components || out.Kind != in.Kind {
			return fmt.Errorf("%w: fragment input location %d", ErrStageInterfaceMismatch, in.Location)
		}
	}

	if len(fs.Targets) != 1 {
		return fmt.Errorf("%w: %d color targets, want 1", ErrTargetMismatch, len(fs.Targets))
	}
	target := fs.Targets[0]
	if texelSize(target.Format) == 0 || target.Format.HasDepth() {
		return fmt.Errorf("%w: color target %s", ErrUnsupportedFormat, target.Format)
	}
	if out, ok := findLocation(finfo.Outputs, 0); !ok || out.Kind != ScalarFloat || len(finfo.Outputs) != 1 {
		return fmt.Errorf("%w: fragment %q must write one float @location(0)", ErrTargetMismatch, fs.EntryPoint)
	}

	if err := checkBindings(layout, finfo); err != nil {
		return err
	}
	p.fragment = ffn
	p.fragmentInfo = finfo
	p.target = &target
	p.bindings = append(p.bindings, finfo.Bindings...)
	return nil
}

// Label returns the pipeline label.
func (p *RenderPipeline) Label() string { return p.label }

// ComputePipelineDescriptor describes a compute pipeline.
type ComputePipelineDescriptor struct {
	Label      string
	Layout     []*BindGroupLayout
	Module     *ShaderModule
	EntryPoint string
}

// ComputePipeline is a validated compute configuration.
type ComputePipeline struct {
	label     string
	layout    []*BindGroupLayout
	kernel    ComputeFunc
	info      *EntryPointInfo
	workgroup [3]uint32
	bindings  []ShaderBinding
}

// CreateComputePipeline validates a compute pipeline. The workgroup size
// comes from the entry point's @workgroup_size.
func (d *Device) CreateComputePipeline(desc ComputePipelineDescriptor) (*ComputePipeline, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	wrap := func(err error) error {
		return fmt.Errorf("softgpu: compute pipeline %q: %w", desc.Label, err)
	}

	if err := d.checkLayoutCount(desc.Layout); err != nil {
		return nil, wrap(err)
	}
	if desc.Module == nil {
		return nil, wrap(fmt.Errorf("%w: no module", ErrInvalidDescriptor))
	}
	info, err := desc.Module.entryPoint(desc.EntryPoint, gputypes.ShaderStageCompute)
	if err != nil {
		return nil, wrap(err)
	}
	kernel := desc.Module.compute[desc.EntryPoint]
	if kernel == nil {
		return nil, wrap(fmt.Errorf("%w: compute %q", ErrMissingKernel, desc.EntryPoint))
	}

	wg := info.Workgroup
	maxSize := [3]uint32{
		d.limits.MaxComputeWorkgroupSizeX,
		d.limits.MaxComputeWorkgroupSizeY,
		d.limits.MaxComputeWorkgroupSizeZ,
	}
	for i := range wg {
		if wg[i] == 0 {
			return nil, wrap(fmt.Errorf("%w: workgroup size %v", ErrInvalidDescriptor, wg))
		}
		if wg[i] > maxSize[i] {
			return nil, wrap(fmt.Errorf("%w: workgroup size %v, max %v", ErrLimitExceeded, wg, maxSize))
		}
	}
	if n := uint64(wg[0]) * uint64(wg[1]) * uint64(wg[2]); n > uint64(d.limits.MaxComputeInvocationsPerWorkgroup) {
		return nil, wrap(fmt.Errorf("%w: %d invocations per workgroup, max %d", ErrLimitExceeded, n, d.limits.MaxComputeInvocationsPerWorkgroup))
	}
	if err := checkBindings(desc.Layout, info); err != nil {
		return nil, wrap(err)
	}

	Logger().Debug("softgpu: compute pipeline created",
		"label", desc.Label,
		"entry_point", desc.EntryPoint,
		"workgroup", wg)
	return &ComputePipeline{
		label:     desc.Label,
		layout:    append([]*BindGroupLayout(nil), desc.Layout...),
		kernel:    kernel,
		info:      info,
		workgroup: wg,
		bindings:  info.Bindings,
	}, nil
}

// Label returns the pipeline label.
func (p *ComputePipeline) Label() string { return p.label }

// WorkgroupSize returns the pipeline's workgroup size.
func (p *ComputePipeline) WorkgroupSize() [3]uint32 { return p.workgroup }

func (d *Device) checkLayoutCount(layout []*BindGroupLayout) error {
	if len(layout) > int(d.limits.MaxBindGroups) {
		return fmt.Errorf("%w: %d bind group layouts, max %d", ErrLimitExceeded, len(layout), d.limits.MaxBindGroups)
	}
	return nil
}

func findLocation(locs []ShaderLocation, location uint32) (ShaderLocation, bool) {
	for _, l := range locs {
		if l.Location == location {
			return l, true
		}
	}
	return ShaderLocation{}, false
}

// checkBindings verifies that every binding an entry point uses is declared
// in layout, visible to its stage and of a compatible type.
func checkBindings(layout []*BindGroupLayout, ep *EntryPointInfo) error {
	for _, sb := range ep.Bindings {
		if int(sb.Group) >= len(layout) || layout[sb.Group] == nil {
			return fmt.Errorf("%w: %s %q uses group %d, which the layout does not declare", ErrBindingMismatch, ep.Stage, ep.Name, sb.Group)
		}
		le, ok := layout[sb.Group].entry(sb.Binding)
		if !ok {
			return fmt.Errorf("%w: %q (%d, %d) is not in layout %q", ErrBindingMismatch, sb.Name, sb.Group, sb.Binding, layout[sb.Group].label)
		}
		if !le.Visibility.Contains(ep.Stage) {
			return fmt.Errorf("%w: %q (%d, %d) is not visible to %s", ErrBindingMismatch, sb.Name, sb.Group, sb.Binding, ep.Stage)
		}
		if !bindingCompatible(le, &sb) {
			return fmt.Errorf("%w: %q (%d, %d) is a %s binding", ErrBindingMismatch, sb.Name, sb.Group, sb.Binding, sb.Kind)
		}
	}
	return nil
}

func bindingCompatible(le *gputypes.BindGroupLayoutEntry, sb *ShaderBinding) bool {
	switch sb.Kind {
	case BindingUniformBuffer:
		return le.Buffer != nil && le.Buffer.Type == gputypes.BufferBindingTypeUniform &&
			(le.Buffer.MinBindingSize == 0 || le.Buffer.MinBindingSize >= sb.MinSize)
	case BindingStorageBuffer:
		return le.Buffer != nil && le.Buffer.Type == gputypes.BufferBindingTypeStorage &&
			(le.Buffer.MinBindingSize == 0 || le.Buffer.MinBindingSize >= sb.MinSize)
	case BindingReadOnlyStorageBuffer:
		return le.Buffer != nil &&
			(le.Buffer.Type == gputypes.BufferBindingTypeStorage || le.Buffer.Type == gputypes.BufferBindingTypeReadOnlyStorage) &&
			(le.Buffer.MinBindingSize == 0 || le.Buffer.MinBindingSize >= sb.MinSize)
	case BindingSampledTexture:
		return le.Texture != nil
	case BindingStorageTexture:
		return le.StorageTexture != nil && le.StorageTexture.Format == sb.StorageFormat
	case BindingSampler:
		return le.Sampler != nil &&
			(samplerBindingType(le.Sampler.Type) == gputypes.SamplerBindingTypeComparison) == sb.Comparison
	default:
		return false
	}
}

// layoutsCompatible reports whether a bind group created against a can be
// used where b is expected.
func layoutsCompatible(a, b *BindGroupLayout) bool {
	if a == b {
		return true
	}
	if len(a.entries) != len(b.entries) {
		return false
	}
	for i := range a.entries {
		x, y := &a.entries[i], &b.entries[i]
		if x.Binding != y.Binding || x.Visibility != y.Visibility {
			return false
		}
		if !ptrEqual(x.Buffer, y.Buffer) || !ptrEqual(x.Sampler, y.Sampler) ||
			!ptrEqual(x.Texture, y.Texture) || !ptrEqual(x.StorageTexture, y.StorageTexture) {
			return false
		}
	}
	return true
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
