package softgpu

import "github.com/gogpu/gputypes"

// DeviceOption configures a Device during creation.
//
// Example:
//
//	dev := softgpu.NewDevice(
//	    softgpu.WithWorkers(4),
//	    softgpu.WithLabel("offscreen"),
//	)
type DeviceOption func(*deviceOptions)

// DefaultShaderCacheSize is the number of WGSL sources whose reflection a
// device keeps by default.
const DefaultShaderCacheSize = 64

type deviceOptions struct {
	workers int
	limits  gputypes.Limits
	label   string

	shaderCache int
}

func defaultDeviceOptions() deviceOptions {
	return deviceOptions{
		workers: 0, // GOMAXPROCS
		limits:  gputypes.DefaultLimits(),
		label:   "softgpu",

		shaderCache: DefaultShaderCacheSize,
	}
}

// WithWorkers sets the number of worker goroutines that execute shader
// invocations. Zero or a negative value uses GOMAXPROCS.
func WithWorkers(n int) DeviceOption {
	return func(o *deviceOptions) {
		o.workers = n
	}
}

// WithLimits overrides the device limits reported by Device.Limits and
// enforced during validation.
func WithLimits(limits gputypes.Limits) DeviceOption {
	return func(o *deviceOptions) {
		o.limits = limits
	}
}

// WithLabel sets the device label used in logs and AdapterInfo.
func WithLabel(label string) DeviceOption {
	return func(o *deviceOptions) {
		o.label = label
	}
}

// WithShaderCache sets how many parsed WGSL sources the device keeps.
// Zero disables the cache.
func WithShaderCache(n int) DeviceOption {
	return func(o *deviceOptions) {
		o.shaderCache = n
	}
}
