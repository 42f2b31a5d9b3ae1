package softgpu

import (
	"fmt"
	"unsafe"

	"honnef.co/go/safeish"
)

// Resources is the set of bind groups visible to one draw or dispatch,
// indexed by group number. Kernels read it; they must not write buffers
// bound as uniforms.
type Resources struct {
	groups []*BindGroup
}

// NewResources returns the resources of groups, indexed by position. A
// nil entry leaves that group unbound.
func NewResources(groups ...*BindGroup) *Resources {
	return &Resources{groups: groups}
}

// Group returns the bind group at index, or nil.
func (r *Resources) Group(index uint32) *BindGroup {
	if int(index) >= len(r.groups) {
		return nil
	}
	return r.groups[index]
}

// Buffer returns the bound byte range of a buffer binding, or nil.
func (r *Resources) Buffer(group, binding uint32) []byte {
	bg := r.Group(group)
	if bg == nil {
		return nil
	}
	if res := bg.lookup(binding); res != nil {
		return res.bytes
	}
	return nil
}

// Sampler returns a bound sampler, or nil.
func (r *Resources) Sampler(group, binding uint32) *Sampler {
	bg := r.Group(group)
	if bg == nil {
		return nil
	}
	if res := bg.lookup(binding); res != nil {
		return res.sampler
	}
	return nil
}

// Texture returns a bound texture, or nil.
func (r *Resources) Texture(group, binding uint32) *Texture {
	bg := r.Group(group)
	if bg == nil {
		return nil
	}
	if res := bg.lookup(binding); res != nil {
		return res.texture
	}
	return nil
}

// UniformAs views a bound buffer as a *T without copying. It panics if the
// binding is missing or smaller than T; pipeline creation checks binding
// sizes, so this indicates a kernel/shader mismatch.
func UniformAs[T any](r *Resources, group, binding uint32) *T {
	b := r.Buffer(group, binding)
	if uintptr(len(b)) < unsafe.Sizeof(*new(T)) || len(b) == 0 {
		panic(fmt.Sprintf("softgpu: binding (%d, %d) of size %d cannot represent object of size %d",
			group, binding, len(b), unsafe.Sizeof(*new(T))))
	}
	return safeish.Cast[*T](&b[0])
}

// StorageAs views a bound buffer as a slice of T.
func StorageAs[T any](r *Resources, group, binding uint32) []T {
	b := r.Buffer(group, binding)
	size := int(unsafe.Sizeof(*new(T)))
	if size == 0 || len(b) < size {
		return nil
	}
	return safeish.SliceCast[[]T](b[:len(b)/size*size])
}
