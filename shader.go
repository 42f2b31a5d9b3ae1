package softgpu

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/softgpu/internal/raster"
	"github.com/gogpu/softgpu/vecmath"
)

// MaxVertexAttributes is the number of @location inputs a vertex kernel can
// receive.
const MaxVertexAttributes = 16

// MaxVaryings is the number of vec4 inter-stage variables.
const MaxVaryings = raster.MaxVaryings

// VertexInput is the per-invocation input of a vertex kernel.
type VertexInput struct {
	VertexIndex   uint32
	InstanceIndex uint32

	// Attributes is indexed by shader location. Components absent from the
	// vertex format read as (0, 0, 0, 1).
	Attributes [MaxVertexAttributes]vecmath.Vec4
}

// VertexOutput is the result of a vertex kernel: a clip-space position and
// the varyings to interpolate across the primitive.
type VertexOutput struct {
	Position vecmath.Vec4
	Varyings [MaxVaryings]vecmath.Vec4
}

// FragmentInput is the per-pixel input of a fragment kernel.
type FragmentInput struct {
	// Position is the pixel center in X and Y, depth in Z and 1/w in W.
	Position    vecmath.Vec4
	FrontFacing bool
	Varyings    [MaxVaryings]vecmath.Vec4
}

// VertexFunc runs one vertex invocation.
type VertexFunc func(in *VertexInput, r *Resources) VertexOutput

// FragmentFunc runs one fragment invocation and returns the color written
// to target 0.
type FragmentFunc func(in *FragmentInput, r *Resources) vecmath.Vec4

// ComputeFunc runs one compute invocation. id is the global invocation id.
type ComputeFunc func(id vecmath.UVec3, r *Resources)

// ShaderModuleDescriptor pairs WGSL source with the Go kernels that execute
// its entry points. Kernel maps are keyed by entry point name.
type ShaderModuleDescriptor struct {
	Label    string
	Source   string
	Vertex   map[string]VertexFunc
	Fragment map[string]FragmentFunc
	Compute  map[string]ComputeFunc
}

// ShaderModule is a reflected WGSL module with its kernels.
type ShaderModule struct {
	label       string
	entryPoints map[string]*EntryPointInfo
	names       []string

	vertex   map[string]VertexFunc
	fragment map[string]FragmentFunc
	compute  map[string]ComputeFunc
}

// CreateShaderModule parses and reflects the WGSL source and checks that
// every kernel names an entry point of its stage. Reflections are cached by
// source text, so modules sharing a source parse it once.
//
// Validation diagnostics from naga are logged at warn level and do not fail
// creation; the kernels, not the WGSL, are what executes.
func (d *Device) CreateShaderModule(desc ShaderModuleDescriptor) (*ShaderModule, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	refl, err := d.shaders.GetOrCreate(desc.Source, func() (*reflection, error) {
		return reflectSource(desc.Label, desc.Source)
	})
	if err != nil {
		return nil, err
	}

	sm := &ShaderModule{
		label:       desc.Label,
		entryPoints: refl.entryPoints,
		names:       refl.names,
		vertex:      desc.Vertex,
		fragment:    desc.Fragment,
		compute:     desc.Compute,
	}

	var errs []error
	for name := range desc.Vertex {
		errs = append(errs, sm.checkKernel(name, gputypes.ShaderStageVertex))
	}
	for name := range desc.Fragment {
		errs = append(errs, sm.checkKernel(name, gputypes.ShaderStageFragment))
	}
	for name := range desc.Compute {
		errs = append(errs, sm.checkKernel(name, gputypes.ShaderStageCompute))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("softgpu: shader module %q: %w", desc.Label, err)
	}

	Logger().Debug("softgpu: shader module created",
		"label", desc.Label,
		"entry_points", sm.names)
	return sm, nil
}

// reflection is the parsed interface of one WGSL source. It is shared by
// every module created from that source and never modified.
type reflection struct {
	entryPoints map[string]*EntryPointInfo
	names       []string
}

func reflectSource(label, source string) (*reflection, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrShaderParse, label, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrShaderParse, label, err)
	}
	if diags, err := naga.Validate(module); err != nil {
		Logger().Warn("softgpu: shader validation failed", "label", label, "err", err)
	} else {
		for _, diag := range diags {
			Logger().Warn("softgpu: shader validation",
				"label", label,
				"function", diag.Function,
				"message", diag.Message)
		}
	}

	r := &reflection{entryPoints: reflectModule(module)}
	for name := range r.entryPoints {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

func (sm *ShaderModule) checkKernel(name string, stage gputypes.ShaderStage) error {
	_, err := sm.entryPoint(name, stage)
	return err
}

// entryPoint looks up an entry point and checks its stage.
func (sm *ShaderModule) entryPoint(name string, stage gputypes.ShaderStage) (*EntryPointInfo, error) {
	ep, ok := sm.entryPoints[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in module %q", ErrEntryPointNotFound, name, sm.label)
	}
	if ep.Stage != stage {
		return nil, fmt.Errorf("%w: %q is a %v entry point, not %v", ErrStageMismatch, name, ep.Stage, stage)
	}
	return ep, nil
}

// Label returns the module label.
func (sm *ShaderModule) Label() string { return sm.label }

// EntryPointNames returns the entry point names in sorted order.
func (sm *ShaderModule) EntryPointNames() []string {
	return append([]string(nil), sm.names...)
}

// EntryPoint returns the reflection of the named entry point.
func (sm *ShaderModule) EntryPoint(name string) (*EntryPointInfo, bool) {
	ep, ok := sm.entryPoints[name]
	return ep, ok
}

// stageFromIR maps a naga stage; ok is false for mesh and task stages.
func stageFromIR(s ir.ShaderStage) (gputypes.ShaderStage, bool) {
	switch s {
	case ir.StageVertex:
		return gputypes.ShaderStageVertex, true
	case ir.StageFragment:
		return gputypes.ShaderStageFragment, true
	case ir.StageCompute:
		return gputypes.ShaderStageCompute, true
	default:
		return 0, false
	}
}
