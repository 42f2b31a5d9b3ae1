package softgpu

import (
	"fmt"
	"sort"

	"github.com/gogpu/gputypes"
)

// BindGroupLayoutDescriptor describes the bindings of one bind group.
type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []gputypes.BindGroupLayoutEntry
}

// BindGroupLayout is a validated, binding-sorted set of layout entries.
type BindGroupLayout struct {
	label   string
	entries []gputypes.BindGroupLayoutEntry
}

// CreateBindGroupLayout validates a layout. Each entry must describe exactly
// one buffer, sampler, texture or storage texture binding.
func (d *Device) CreateBindGroupLayout(desc BindGroupLayoutDescriptor) (*BindGroupLayout, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	entries := append([]gputypes.BindGroupLayoutEntry(nil), desc.Entries...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })

	for i, e := range entries {
		if i > 0 && entries[i-1].Binding == e.Binding {
			return nil, fmt.Errorf("%w: layout %q binding %d", ErrDuplicateBinding, desc.Label, e.Binding)
		}
		kinds := 0
		for _, set := range []bool{e.Buffer != nil, e.Sampler != nil, e.Texture != nil, e.StorageTexture != nil} {
			if set {
				kinds++
			}
		}
		if kinds != 1 {
			return nil, fmt.Errorf("%w: layout %q binding %d must describe exactly one resource", ErrInvalidDescriptor, desc.Label, e.Binding)
		}
		if e.Sampler != nil && e.Sampler.Type > gputypes.SamplerBindingTypeComparison {
			return nil, fmt.Errorf("%w: layout %q binding %d: sampler type %v", ErrInvalidDescriptor, desc.Label, e.Binding, e.Sampler.Type)
		}
		if e.Buffer != nil && e.Buffer.HasDynamicOffset {
			return nil, fmt.Errorf("%w: layout %q binding %d: dynamic offsets are not supported", ErrInvalidDescriptor, desc.Label, e.Binding)
		}
		if st := e.StorageTexture; st != nil && texelSize(st.Format) == 0 {
			return nil, fmt.Errorf("%w: storage texture binding %d: %s", ErrUnsupportedFormat, e.Binding, st.Format)
		}
		if e.Visibility == gputypes.ShaderStageNone {
			return nil, fmt.Errorf("%w: layout %q binding %d has no visibility", ErrInvalidDescriptor, desc.Label, e.Binding)
		}
	}

	return &BindGroupLayout{label: desc.Label, entries: entries}, nil
}

// Label returns the layout label.
func (l *BindGroupLayout) Label() string { return l.label }

// Entries returns the layout entries sorted by binding number.
func (l *BindGroupLayout) Entries() []gputypes.BindGroupLayoutEntry {
	return append([]gputypes.BindGroupLayoutEntry(nil), l.entries...)
}

func (l *BindGroupLayout) entry(binding uint32) (*gputypes.BindGroupLayoutEntry, bool) {
	i := sort.Search(len(l.entries), func(i int) bool { return l.entries[i].Binding >= binding })
	if i < len(l.entries) && l.entries[i].Binding == binding {
		return &l.entries[i], true
	}
	return nil, false
}

// BindGroupEntry binds one resource. Set Buffer (with Offset and Size, zero
// Size meaning the rest of the buffer), Sampler or Texture.
type BindGroupEntry struct {
	Binding uint32
	Buffer  *Buffer
	Offset  uint64
	Size    uint64
	Sampler *Sampler
	Texture *Texture
}

// BindGroupDescriptor binds resources to every entry of a layout.
type BindGroupDescriptor struct {
	Label   string
	Layout  *BindGroupLayout
	Entries []BindGroupEntry
}

// BindGroup is an immutable set of bound resources.
type BindGroup struct {
	label   string
	layout  *BindGroupLayout
	entries []boundResource
}

type boundResource struct {
	binding uint32
	bytes   []byte
	sampler *Sampler
	texture *Texture
}

// CreateBindGroup binds resources against a layout. Every layout entry must
// be bound exactly once with a resource of the declared kind whose usage
// flags allow the binding.
func (d *Device) CreateBindGroup(desc BindGroupDescriptor) (*BindGroup, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if desc.Layout == nil {
		return nil, fmt.Errorf("%w: bind group %q has no layout", ErrInvalidDescriptor, desc.Label)
	}

	bg := &BindGroup{label: desc.Label, layout: desc.Layout}
	seen := make(map[uint32]bool, len(desc.Entries))
	for _, e := range desc.Entries {
		if seen[e.Binding] {
			return nil, fmt.Errorf("%w: bind group %q binding %d", ErrDuplicateBinding, desc.Label, e.Binding)
		}
		seen[e.Binding] = true

		le, ok := desc.Layout.entry(e.Binding)
		if !ok {
			return nil, fmt.Errorf("%w: bind group %q binding %d is not in layout %q", ErrInvalidDescriptor, desc.Label, e.Binding, desc.Layout.label)
		}
		res, err := d.bindResource(le, &e)
		if err != nil {
			return nil, fmt.Errorf("softgpu: bind group %q binding %d: %w", desc.Label, e.Binding, err)
		}
		bg.entries = append(bg.entries, res)
	}
	for _, le := range desc.Layout.entries {
		if !seen[le.Binding] {
			return nil, fmt.Errorf("%w: bind group %q binding %d", ErrMissingBinding, desc.Label, le.Binding)
		}
	}
	sort.Slice(bg.entries, func(i, j int) bool { return bg.entries[i].binding < bg.entries[j].binding })
	return bg, nil
}

func (d *Device) bindResource(le *gputypes.BindGroupLayoutEntry, e *BindGroupEntry) (boundResource, error) {
	res := boundResource{binding: e.Binding}
	switch {
	case le.Buffer != nil:
		if e.Buffer == nil || e.Texture != nil || e.Sampler != nil {
			return res, fmt.Errorf("%w: want a buffer", ErrResourceType)
		}
		b, err := d.bindBuffer(le.Buffer, e)
		if err != nil {
			return res, err
		}
		res.bytes = b

	case le.Sampler != nil:
		if e.Sampler == nil || e.Buffer != nil || e.Texture != nil {
			return res, fmt.Errorf("%w: want a sampler", ErrResourceType)
		}
		if err := samplerCompatible(samplerBindingType(le.Sampler.Type), e.Sampler); err != nil {
			return res, err
		}
		res.sampler = e.Sampler

	case le.Texture != nil:
		if e.Texture == nil || e.Buffer != nil || e.Sampler != nil {
			return res, fmt.Errorf("%w: want a texture", ErrResourceType)
		}
		if !e.Texture.usage.Contains(gputypes.TextureUsageTextureBinding) {
			return res, fmt.Errorf("%w: texture %q lacks TextureBinding", ErrMissingUsage, e.Texture.label)
		}
		if !sampleTypeCompatible(le.Texture.SampleType, e.Texture.format) {
			return res, fmt.Errorf("%w: texture %q format %s is not %v", ErrResourceType, e.Texture.label, e.Texture.format, le.Texture.SampleType)
		}
		res.texture = e.Texture

	case le.StorageTexture != nil:
		if e.Texture == nil || e.Buffer != nil || e.Sampler != nil {
			return res, fmt.Errorf("%w: want a storage texture", ErrResourceType)
		}
		if !e.Texture.usage.Contains(gputypes.TextureUsageStorageBinding) {
			return res, fmt.Errorf("%w: texture %q lacks StorageBinding", ErrMissingUsage, e.Texture.label)
		}
		if e.Texture.format != le.StorageTexture.Format {
			return res, fmt.Errorf("%w: texture %q is %s, layout wants %s", ErrResourceType, e.Texture.label, e.Texture.format, le.StorageTexture.Format)
		}
		res.texture = e.Texture
	}
	return res, nil
}

func (d *Device) bindBuffer(layout *gputypes.BufferBindingLayout, e *BindGroupEntry) ([]byte, error) {
	buf := e.Buffer
	var (
		usage gputypes.BufferUsage
		name  string
		align uint32
	)
	switch layout.Type {
	case gputypes.BufferBindingTypeUniform:
		usage, name, align = gputypes.BufferUsageUniform, "Uniform", d.limits.MinUniformBufferOffsetAlignment
	case gputypes.BufferBindingTypeStorage, gputypes.BufferBindingTypeReadOnlyStorage:
		usage, name, align = gputypes.BufferUsageStorage, "Storage", d.limits.MinStorageBufferOffsetAlignment
	default:
		return nil, fmt.Errorf("%w: buffer binding type %v", ErrInvalidDescriptor, layout.Type)
	}
	if !buf.usage.Contains(usage) {
		return nil, fmt.Errorf("%w: buffer %q lacks %s", ErrMissingUsage, buf.label, name)
	}
	if align > 0 && e.Offset%uint64(align) != 0 {
		return nil, fmt.Errorf("%w: offset %d is not a multiple of %d", ErrInvalidDescriptor, e.Offset, align)
	}
	if e.Offset > buf.Size() {
		return nil, fmt.Errorf("%w: offset %d past buffer %q of size %d", ErrOutOfBounds, e.Offset, buf.label, buf.Size())
	}
	size := e.Size
	if size == 0 {
		size = buf.Size() - e.Offset
	}
	if e.Offset+size > buf.Size() {
		return nil, fmt.Errorf("%w: range [%d, %d) past buffer %q of size %d", ErrOutOfBounds, e.Offset, e.Offset+size, buf.label, buf.Size())
	}
	if size < layout.MinBindingSize {
		return nil, fmt.Errorf("%w: %d bytes bound, layout wants at least %d", ErrDataSize, size, layout.MinBindingSize)
	}
	if layout.Type == gputypes.BufferBindingTypeUniform && size > uint64(d.limits.MaxUniformBufferBindingSize) {
		return nil, fmt.Errorf("%w: uniform binding of %d bytes", ErrLimitExceeded, size)
	}
	return buf.data[e.Offset : e.Offset+size : e.Offset+size], nil
}

// sampleTypeCompatible reports whether a texture of format f can back a
// sampled binding of type st.
func sampleTypeCompatible(st gputypes.TextureSampleType, f gputypes.TextureFormat) bool {
	switch st {
	case gputypes.TextureSampleTypeFloat, gputypes.TextureSampleTypeUnfilterableFloat:
		return f != gputypes.TextureFormatDepth32Float
	case gputypes.TextureSampleTypeDepth:
		return f == gputypes.TextureFormatDepth32Float
	default:
		return false
	}
}

// samplerBindingType resolves an undefined sampler binding type to
// Filtering.
func samplerBindingType(t gputypes.SamplerBindingType) gputypes.SamplerBindingType {
	if t == gputypes.SamplerBindingTypeUndefined {
		return gputypes.SamplerBindingTypeFiltering
	}
	return t
}

// samplerCompatible checks s against a sampler binding of type t:
// comparison bindings need a compare function, other bindings must not
// have one, and non-filtering bindings need nearest filters.
func samplerCompatible(t gputypes.SamplerBindingType, s *Sampler) error {
	switch {
	case t == gputypes.SamplerBindingTypeComparison && s.compare == gputypes.CompareFunctionUndefined:
		return fmt.Errorf("%w: sampler %q has no compare function", ErrResourceType, s.label)
	case t != gputypes.SamplerBindingTypeComparison && s.compare != gputypes.CompareFunctionUndefined:
		return fmt.Errorf("%w: comparison sampler %q bound as %v", ErrResourceType, s.label, t)
	case t == gputypes.SamplerBindingTypeNonFiltering && s.filtering():
		return fmt.Errorf("%w: filtering sampler %q bound as %v", ErrResourceType, s.label, t)
	}
	return nil
}

// Label returns the bind group label.
func (bg *BindGroup) Label() string { return bg.label }

// Layout returns the layout the group was created against.
func (bg *BindGroup) Layout() *BindGroupLayout { return bg.layout }

func (bg *BindGroup) lookup(binding uint32) *boundResource {
	for i := range bg.entries {
		if bg.entries[i].binding == binding {
			return &bg.entries[i]
		}
	}
	return nil
}
