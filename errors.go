package softgpu

import "errors"

// Device and descriptor errors.
var (
	// ErrDeviceClosed is returned when a closed device is used.
	ErrDeviceClosed = errors.New("softgpu: device is closed")

	// ErrInvalidDescriptor is returned for malformed descriptors. Specific
	// failures wrap it with detail.
	ErrInvalidDescriptor = errors.New("softgpu: invalid descriptor")

	// ErrLimitExceeded is returned when a request exceeds a device limit.
	ErrLimitExceeded = errors.New("softgpu: device limit exceeded")
)

// Resource errors.
var (
	// ErrUnsupportedFormat is returned for texture formats the device cannot store.
	ErrUnsupportedFormat = errors.New("softgpu: unsupported texture format")

	// ErrOutOfBounds is returned when a write falls outside a resource.
	ErrOutOfBounds = errors.New("softgpu: write out of bounds")

	// ErrDataSize is returned when uploaded data does not match the
	// destination size.
	ErrDataSize = errors.New("softgpu: data size mismatch")

	// ErrMissingUsage is returned when a resource is used in a way its usage
	// flags do not allow.
	ErrMissingUsage = errors.New("softgpu: resource usage does not allow this operation")
)

// Shader and pipeline errors.
var (
	// ErrShaderParse is returned when WGSL source fails to parse or lower.
	ErrShaderParse = errors.New("softgpu: shader source is invalid")

	// ErrEntryPointNotFound is returned when a kernel or pipeline names an
	// entry point the module does not declare.
	ErrEntryPointNotFound = errors.New("softgpu: entry point not found")

	// ErrStageMismatch is returned when an entry point is used for the wrong
	// stage.
	ErrStageMismatch = errors.New("softgpu: entry point stage mismatch")

	// ErrMissingKernel is returned when a pipeline stage has no Go kernel.
	ErrMissingKernel = errors.New("softgpu: entry point has no kernel")

	// ErrVertexLayoutMismatch is returned when vertex buffer layouts do not
	// match the vertex entry point's inputs.
	ErrVertexLayoutMismatch = errors.New("softgpu: vertex layout does not match shader inputs")

	// ErrUnsupportedTopology is returned for primitive topologies other than
	// triangle lists and strips.
	ErrUnsupportedTopology = errors.New("softgpu: unsupported primitive topology")

	// ErrBindingMismatch is returned when a shader binding is absent from
	// the pipeline layout or declared with an incompatible type.
	ErrBindingMismatch = errors.New("softgpu: shader binding does not match layout")

	// ErrStageInterfaceMismatch is returned when a fragment input has no
	// matching vertex output.
	ErrStageInterfaceMismatch = errors.New("softgpu: fragment inputs do not match vertex outputs")

	// ErrTargetMismatch is returned when fragment targets do not match the
	// fragment outputs or the pass attachments.
	ErrTargetMismatch = errors.New("softgpu: color target mismatch")
)

// Bind group errors.
var (
	// ErrDuplicateBinding is returned when a layout or group repeats a binding.
	ErrDuplicateBinding = errors.New("softgpu: duplicate binding number")

	// ErrMissingBinding is returned when a bind group omits a layout entry.
	ErrMissingBinding = errors.New("softgpu: bind group is missing a binding")

	// ErrResourceType is returned when a bind group entry holds the wrong
	// kind of resource for its layout entry.
	ErrResourceType = errors.New("softgpu: resource does not match binding type")

	// ErrMissingBindGroup is returned when a draw or dispatch runs without
	// every bind group its pipeline declares.
	ErrMissingBindGroup = errors.New("softgpu: bind group not set")
)

// Encoder and pass errors.
var (
	// ErrEncoderLocked is returned when the encoder is used while a pass is open.
	ErrEncoderLocked = errors.New("softgpu: encoder is locked (pass in progress)")

	// ErrEncoderFinished is returned when a finished encoder is used.
	ErrEncoderFinished = errors.New("softgpu: encoder already finished")

	// ErrCommandBufferConsumed is returned when a command buffer is
	// submitted twice.
	ErrCommandBufferConsumed = errors.New("softgpu: command buffer already submitted")

	// ErrPassEnded is returned when an ended pass is used.
	ErrPassEnded = errors.New("softgpu: pass has already ended")

	// ErrNilPipeline is returned when a pipeline is nil or not set.
	ErrNilPipeline = errors.New("softgpu: pipeline is nil")

	// ErrBindGroupIndexOutOfRange is returned for bind group indices at or
	// above the device's MaxBindGroups.
	ErrBindGroupIndexOutOfRange = errors.New("softgpu: bind group index out of range")

	// ErrMissingVertexBuffer is returned when a draw needs a vertex buffer
	// slot that was not set.
	ErrMissingVertexBuffer = errors.New("softgpu: vertex buffer not set")

	// ErrMissingIndexBuffer is returned by DrawIndexed without an index buffer.
	ErrMissingIndexBuffer = errors.New("softgpu: index buffer not set")

	// ErrWorkgroupCountZero is returned when a dispatch dimension is zero.
	ErrWorkgroupCountZero = errors.New("softgpu: workgroup count must be greater than zero")

	// ErrWorkgroupCountExceedsLimit is returned when a dispatch dimension
	// exceeds MaxComputeWorkgroupsPerDimension.
	ErrWorkgroupCountExceedsLimit = errors.New("softgpu: workgroup count exceeds device limit")
)
