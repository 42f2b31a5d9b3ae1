package softgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"honnef.co/go/safeish"
)

// BufferDescriptor describes a buffer.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
}

// Buffer is a linear block of device memory.
//
// Storage is 8-byte aligned so uniform structs can be viewed in place.
type Buffer struct {
	label string
	usage gputypes.BufferUsage
	data  []byte
}

// CreateBuffer allocates a zeroed buffer.
func (d *Device) CreateBuffer(desc BufferDescriptor) (*Buffer, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if desc.Size == 0 {
		return nil, fmt.Errorf("%w: buffer %q has zero size", ErrInvalidDescriptor, desc.Label)
	}
	if desc.Size > d.limits.MaxBufferSize {
		return nil, fmt.Errorf("%w: buffer %q size %d > %d", ErrLimitExceeded, desc.Label, desc.Size, d.limits.MaxBufferSize)
	}
	if desc.Usage == gputypes.BufferUsageNone || desc.Usage.ContainsUnknownBits() {
		return nil, fmt.Errorf("%w: buffer %q usage %#x", ErrInvalidDescriptor, desc.Label, uint64(desc.Usage))
	}

	words := make([]uint64, (desc.Size+7)/8)
	b := &Buffer{
		label: desc.Label,
		usage: desc.Usage,
		data:  safeish.SliceCast[[]byte](words)[:desc.Size],
	}
	Logger().Debug("softgpu: buffer created", "label", desc.Label, "size", desc.Size)
	return b, nil
}

// CreateBufferInit creates a buffer holding a copy of contents. The size is
// rounded up to a multiple of 4.
func (d *Device) CreateBufferInit(label string, usage gputypes.BufferUsage, contents []byte) (*Buffer, error) {
	size := (uint64(len(contents)) + 3) &^ 3
	b, err := d.CreateBuffer(BufferDescriptor{Label: label, Size: max(size, 4), Usage: usage})
	if err != nil {
		return nil, err
	}
	copy(b.data, contents)
	return b, nil
}

// Label returns the buffer label.
func (b *Buffer) Label() string { return b.label }

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 { return uint64(len(b.data)) }

// Usage returns the buffer usage flags.
func (b *Buffer) Usage() gputypes.BufferUsage { return b.usage }

// Bytes returns the buffer contents. The slice aliases device memory and
// must not be modified while a submission that reads it is executing.
func (b *Buffer) Bytes() []byte { return b.data }

// BytesOf returns the in-memory bytes of *v, for uploading uniform structs.
func BytesOf[T any](v *T) []byte {
	return safeish.AsBytes(v)
}

// SliceBytes returns the in-memory bytes of a slice, for uploading vertex
// and index arrays.
func SliceBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	return safeish.SliceCast[[]byte](s)
}
