package softgpu

import (
	"fmt"
	"sort"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga/ir"
)

// BindingKind classifies a resource binding declared by a shader.
type BindingKind uint8

const (
	// BindingUniformBuffer is a var<uniform> buffer.
	BindingUniformBuffer BindingKind = iota + 1
	// BindingStorageBuffer is a read_write var<storage> buffer.
	BindingStorageBuffer
	// BindingReadOnlyStorageBuffer is a read-only var<storage> buffer.
	BindingReadOnlyStorageBuffer
	// BindingSampledTexture is a texture read through textureLoad or textureSample.
	BindingSampledTexture
	// BindingStorageTexture is a texture_storage_* binding.
	BindingStorageTexture
	// BindingSampler is a sampler or sampler_comparison.
	BindingSampler
)

func (k BindingKind) String() string {
	switch k {
	case BindingUniformBuffer:
		return "uniform"
	case BindingStorageBuffer:
		return "storage"
	case BindingReadOnlyStorageBuffer:
		return "read-only-storage"
	case BindingSampledTexture:
		return "texture"
	case BindingStorageTexture:
		return "storage-texture"
	case BindingSampler:
		return "sampler"
	default:
		return fmt.Sprintf("BindingKind(%d)", uint8(k))
	}
}

// ScalarKind is the component type of a shader interface value.
type ScalarKind uint8

const (
	// ScalarFloat is f32.
	ScalarFloat ScalarKind = iota + 1
	// ScalarUint is u32.
	ScalarUint
	// ScalarSint is i32.
	ScalarSint
)

func (k ScalarKind) String() string {
	switch k {
	case ScalarFloat:
		return "f32"
	case ScalarUint:
		return "u32"
	case ScalarSint:
		return "i32"
	default:
		return fmt.Sprintf("ScalarKind(%d)", uint8(k))
	}
}

// ShaderBinding is a global resource an entry point references.
type ShaderBinding struct {
	Name    string
	Group   uint32
	Binding uint32
	Kind    BindingKind

	// MinSize is the byte size of a buffer binding's type.
	MinSize uint64

	// StorageFormat is set for storage textures.
	StorageFormat gputypes.TextureFormat

	// Comparison is set for sampler_comparison bindings.
	Comparison bool
}

// ShaderLocation is a user-defined @location input or output.
type ShaderLocation struct {
	Name       string
	Location   uint32
	Components int
	Kind       ScalarKind
}

// EntryPointInfo is the reflected interface of one entry point.
type EntryPointInfo struct {
	Name      string
	Stage     gputypes.ShaderStage
	Workgroup [3]uint32

	// Inputs and Outputs are sorted by location. Builtins are omitted.
	Inputs  []ShaderLocation
	Outputs []ShaderLocation

	// Bindings lists the resources reachable from the entry point,
	// including through called functions, sorted by group and binding.
	Bindings []ShaderBinding
}

// reflectModule extracts vertex, fragment and compute entry points.
func reflectModule(m *ir.Module) map[string]*EntryPointInfo {
	out := make(map[string]*EntryPointInfo, len(m.EntryPoints))
	for i := range m.EntryPoints {
		ep := &m.EntryPoints[i]
		stage, ok := stageFromIR(ep.Stage)
		if !ok {
			continue
		}
		info := &EntryPointInfo{
			Name:      ep.Name,
			Stage:     stage,
			Workgroup: ep.Workgroup,
		}
		for _, arg := range ep.Function.Arguments {
			info.Inputs = appendLocations(m, info.Inputs, arg.Name, arg.Type, arg.Binding)
		}
		if res := ep.Function.Result; res != nil {
			info.Outputs = appendLocations(m, info.Outputs, "", res.Type, res.Binding)
		}
		sortLocations(info.Inputs)
		sortLocations(info.Outputs)
		info.Bindings = reflectBindings(m, &ep.Function)
		out[ep.Name] = info
	}
	return out
}

// appendLocations adds the @location values of an argument or result,
// flattening struct members.
func appendLocations(m *ir.Module, dst []ShaderLocation, name string, th ir.TypeHandle, b *ir.Binding) []ShaderLocation {
	if b != nil {
		if loc, ok := (*b).(ir.LocationBinding); ok {
			comps, kind := shapeOf(m, th)
			dst = append(dst, ShaderLocation{Name: name, Location: loc.Location, Components: comps, Kind: kind})
		}
		return dst
	}
	if int(th) >= len(m.Types) {
		return dst
	}
	if st, ok := m.Types[th].Inner.(ir.StructType); ok {
		for _, member := range st.Members {
			dst = appendLocations(m, dst, member.Name, member.Type, member.Binding)
		}
	}
	return dst
}

// shapeOf returns the component count and scalar kind of a scalar or
// vector type.
func shapeOf(m *ir.Module, th ir.TypeHandle) (int, ScalarKind) {
	if int(th) >= len(m.Types) {
		return 0, 0
	}
	switch t := m.Types[th].Inner.(type) {
	case ir.ScalarType:
		return 1, scalarKind(t.Kind)
	case ir.VectorType:
		return int(t.Size), scalarKind(t.Scalar.Kind)
	default:
		return 0, 0
	}
}

func scalarKind(k ir.ScalarKind) ScalarKind {
	switch k {
	case ir.ScalarFloat, ir.ScalarAbstractFloat:
		return ScalarFloat
	case ir.ScalarUint:
		return ScalarUint
	case ir.ScalarSint, ir.ScalarAbstractInt:
		return ScalarSint
	default:
		return 0
	}
}

func sortLocations(locs []ShaderLocation) {
	sort.Slice(locs, func(i, j int) bool { return locs[i].Location < locs[j].Location })
}

// reflectBindings collects the bound globals referenced by fn and the
// functions it calls.
func reflectBindings(m *ir.Module, fn *ir.Function) []ShaderBinding {
	used := make(map[ir.GlobalVariableHandle]bool)
	visited := make(map[ir.FunctionHandle]bool)
	collectGlobals(m, fn, used, visited)

	var out []ShaderBinding
	for h := range used {
		if int(h) >= len(m.GlobalVariables) {
			continue
		}
		gv := &m.GlobalVariables[h]
		if gv.Binding == nil {
			continue
		}
		sb := ShaderBinding{
			Name:    gv.Name,
			Group:   gv.Binding.Group,
			Binding: gv.Binding.Binding,
		}
		switch gv.Space {
		case ir.SpaceUniform:
			sb.Kind = BindingUniformBuffer
			sb.MinSize = uint64(ir.TypeSize(m, gv.Type))
		case ir.SpaceStorage:
			sb.Kind = BindingStorageBuffer
			if gv.Access == ir.StorageRead {
				sb.Kind = BindingReadOnlyStorageBuffer
			}
			sb.MinSize = uint64(ir.TypeSize(m, gv.Type))
		case ir.SpaceHandle:
			if int(gv.Type) >= len(m.Types) {
				continue
			}
			switch t := m.Types[gv.Type].Inner.(type) {
			case ir.SamplerType:
				sb.Kind = BindingSampler
				sb.Comparison = t.Comparison
			case ir.ImageType:
				if t.Class == ir.ImageClassStorage {
					sb.Kind = BindingStorageTexture
					sb.StorageFormat = storageFormat(t.StorageFormat)
				} else {
					sb.Kind = BindingSampledTexture
				}
			default:
				continue
			}
		default:
			continue
		}
		out = append(out, sb)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Binding < out[j].Binding
	})
	return out
}

func collectGlobals(m *ir.Module, fn *ir.Function, used map[ir.GlobalVariableHandle]bool, visited map[ir.FunctionHandle]bool) {
	call := func(h ir.FunctionHandle) {
		if visited[h] || int(h) >= len(m.Functions) {
			return
		}
		visited[h] = true
		collectGlobals(m, &m.Functions[h], used, visited)
	}
	for _, e := range fn.Expressions {
		switch k := e.Kind.(type) {
		case ir.ExprGlobalVariable:
			used[k.Variable] = true
		case ir.ExprCallResult:
			call(k.Function)
		}
	}
	walkCalls(fn.Body, call)
}

// walkCalls visits every function called from a block, descending into
// nested control flow.
func walkCalls(block ir.Block, fn func(ir.FunctionHandle)) {
	for _, st := range block {
		switch k := st.Kind.(type) {
		case ir.StmtCall:
			fn(k.Function)
		case ir.StmtBlock:
			walkCalls(k.Block, fn)
		case ir.StmtIf:
			walkCalls(k.Accept, fn)
			walkCalls(k.Reject, fn)
		case ir.StmtSwitch:
			for _, c := range k.Cases {
				walkCalls(c.Body, fn)
			}
		case ir.StmtLoop:
			walkCalls(k.Body, fn)
			walkCalls(k.Continuing, fn)
		}
	}
}

// storageFormat maps the storage texture formats this device can store.
func storageFormat(f ir.StorageFormat) gputypes.TextureFormat {
	switch f {
	case ir.StorageFormatR32Float:
		return gputypes.TextureFormatR32Float
	case ir.StorageFormatRgba8Unorm:
		return gputypes.TextureFormatRGBA8Unorm
	case ir.StorageFormatRgba32Float:
		return gputypes.TextureFormatRGBA32Float
	default:
		return gputypes.TextureFormatUndefined
	}
}
