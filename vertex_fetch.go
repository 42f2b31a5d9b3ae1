package softgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgpu/vecmath"
)

// vertexShape returns the component count and scalar kind a vertex format
// delivers to the shader.
func vertexShape(f gputypes.VertexFormat) (int, ScalarKind, bool) {
	switch f {
	case gputypes.VertexFormatFloat32:
		return 1, ScalarFloat, true
	case gputypes.VertexFormatFloat32x2:
		return 2, ScalarFloat, true
	case gputypes.VertexFormatFloat32x3:
		return 3, ScalarFloat, true
	case gputypes.VertexFormatFloat32x4, gputypes.VertexFormatUnorm8x4:
		return 4, ScalarFloat, true
	case gputypes.VertexFormatUint32:
		return 1, ScalarUint, true
	case gputypes.VertexFormatUint32x2:
		return 2, ScalarUint, true
	case gputypes.VertexFormatUint32x3:
		return 3, ScalarUint, true
	case gputypes.VertexFormatUint32x4:
		return 4, ScalarUint, true
	case gputypes.VertexFormatSint32:
		return 1, ScalarSint, true
	case gputypes.VertexFormatSint32x2:
		return 2, ScalarSint, true
	case gputypes.VertexFormatSint32x3:
		return 3, ScalarSint, true
	case gputypes.VertexFormatSint32x4:
		return 4, ScalarSint, true
	default:
		return 0, 0, false
	}
}

type vertexAttribute struct {
	format     gputypes.VertexFormat
	offset     uint64
	location   uint32
	components int
	kind       ScalarKind
}

type vertexBufferLayout struct {
	stride   uint64
	instance bool
	attrs    []vertexAttribute

	// extent is the number of bytes one element reads past its start.
	extent uint64
}

// newVertexLayouts validates buffer layouts against the vertex entry
// point's @location inputs: both sides must declare the same locations with
// the same component count and scalar kind.
func newVertexLayouts(layouts []gputypes.VertexBufferLayout, inputs []ShaderLocation, limits *gputypes.Limits) ([]vertexBufferLayout, error) {
	if len(layouts) > int(limits.MaxVertexBuffers) {
		return nil, fmt.Errorf("%w: %d vertex buffers, max %d", ErrLimitExceeded, len(layouts), limits.MaxVertexBuffers)
	}

	byLocation := make(map[uint32]vertexAttribute)
	out := make([]vertexBufferLayout, len(layouts))
	for slot, l := range layouts {
		vl := vertexBufferLayout{
			stride:   l.ArrayStride,
			instance: l.StepMode == gputypes.VertexStepModeInstance,
		}
		for _, a := range l.Attributes {
			comps, kind, ok := vertexShape(a.Format)
			if !ok {
				return nil, fmt.Errorf("%w: slot %d location %d: format %s", ErrVertexLayoutMismatch, slot, a.ShaderLocation, a.Format)
			}
			if a.ShaderLocation >= MaxVertexAttributes {
				return nil, fmt.Errorf("%w: location %d, max %d", ErrLimitExceeded, a.ShaderLocation, MaxVertexAttributes-1)
			}
			if _, dup := byLocation[a.ShaderLocation]; dup {
				return nil, fmt.Errorf("%w: location %d declared twice", ErrVertexLayoutMismatch, a.ShaderLocation)
			}
			if a.Offset%4 != 0 {
				return nil, fmt.Errorf("%w: slot %d location %d offset %d is not 4-byte aligned", ErrInvalidDescriptor, slot, a.ShaderLocation, a.Offset)
			}
			end := a.Offset + a.Format.Size()
			if l.ArrayStride != 0 && end > l.ArrayStride {
				return nil, fmt.Errorf("%w: slot %d location %d ends at %d past stride %d", ErrInvalidDescriptor, slot, a.ShaderLocation, end, l.ArrayStride)
			}
			va := vertexAttribute{
				format:     a.Format,
				offset:     a.Offset,
				location:   a.ShaderLocation,
				components: comps,
				kind:       kind,
			}
			byLocation[a.ShaderLocation] = va
			vl.attrs = append(vl.attrs, va)
			vl.extent = max(vl.extent, end)
		}
		out[slot] = vl
	}
	if len(byLocation) > int(limits.MaxVertexAttributes) {
		return nil, fmt.Errorf("%w: %d vertex attributes, max %d", ErrLimitExceeded, len(byLocation), limits.MaxVertexAttributes)
	}

	if len(byLocation) != len(inputs) {
		return nil, fmt.Errorf("%w: buffers provide %d attributes, shader reads %d", ErrVertexLayoutMismatch, len(byLocation), len(inputs))
	}
	for _, in := range inputs {
		a, ok := byLocation[in.Location]
		if !ok {
			return nil, fmt.Errorf("%w: shader location %d has no attribute", ErrVertexLayoutMismatch, in.Location)
		}
		if a.components != in.Components || a.kind != in.Kind {
			return nil, fmt.Errorf("%w: location %d is %s, shader reads %dx%s",
				ErrVertexLayoutMismatch, in.Location, a.format, in.Components, in.Kind)
		}
	}
	return out, nil
}

// fetch decodes one attribute. Missing components read as (0, 0, 0, 1);
// integer components are stored as their float32 value.
func (a *vertexAttribute) fetch(b []byte) vecmath.Vec4 {
	v := vecmath.Vec4{W: 1}
	if a.format == gputypes.VertexFormatUnorm8x4 {
		return vecmath.Vec4{
			X: float32(b[0]) / 255,
			Y: float32(b[1]) / 255,
			Z: float32(b[2]) / 255,
			W: float32(b[3]) / 255,
		}
	}
	for i := range a.components {
		bits := binary.LittleEndian.Uint32(b[i*4:])
		var c float32
		switch a.kind {
		case ScalarFloat:
			c = math.Float32frombits(bits)
		case ScalarUint:
			c = float32(bits)
		case ScalarSint:
			c = float32(int32(bits))
		}
		switch i {
		case 0:
			v.X = c
		case 1:
			v.Y = c
		case 2:
			v.Z = c
		case 3:
			v.W = c
		}
	}
	return v
}

// vertexBinding is a vertex buffer bound to a slot.
type vertexBinding struct {
	data []byte
}

// elementCount returns how many elements of l fit in data.
func (l *vertexBufferLayout) elementCount(data []byte) uint64 {
	if len(l.attrs) == 0 {
		return math.MaxUint64
	}
	n := uint64(len(data))
	if n < l.extent {
		return 0
	}
	if l.stride == 0 {
		return math.MaxUint64
	}
	return (n-l.extent)/l.stride + 1
}

// fetchVertex fills in.Attributes for one vertex/instance pair.
func fetchVertex(layouts []vertexBufferLayout, buffers []vertexBinding, vertex, instance uint32, in *VertexInput) {
	for slot := range layouts {
		l := &layouts[slot]
		index := uint64(vertex)
		if l.instance {
			index = uint64(instance)
		}
		base := buffers[slot].data[index*l.stride:]
		for i := range l.attrs {
			a := &l.attrs[i]
			in.Attributes[a.location] = a.fetch(base[a.offset:])
		}
	}
}
