package softgpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgpu/internal/cache"
	"github.com/gogpu/softgpu/internal/parallel"
)

// Device owns the worker pool that executes shader invocations and creates
// every other resource.
//
// Resource creation is safe for concurrent use. Command recording is not:
// each CommandEncoder belongs to one goroutine.
type Device struct {
	label  string
	limits gputypes.Limits
	pool   *parallel.WorkerPool
	queue  *Queue

	// shaders caches WGSL reflections by source text.
	shaders *cache.Cache[string, *reflection]

	closed atomic.Bool

	// submitMu serializes command buffer execution.
	submitMu sync.Mutex
}

// NewDevice creates a device and starts its workers.
func NewDevice(opts ...DeviceOption) *Device {
	o := defaultDeviceOptions()
	for _, opt := range opts {
		opt(&o)
	}

	d := &Device{
		label:  o.label,
		limits: o.limits,
		pool:   parallel.NewWorkerPool(o.workers),

		shaders: cache.New[string, *reflection](o.shaderCache),
	}
	d.queue = &Queue{device: d}

	Logger().Info("softgpu: device created",
		"label", d.label,
		"workers", d.pool.Workers())
	return d
}

// AdapterInfo describes the adapter behind this device.
func (d *Device) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{
		Name: fmt.Sprintf("%s (%d workers)", d.label, d.pool.Workers()),
		Type: gpucontext.AdapterTypeSoftware,
	}
}

// ShaderCacheStats reports how often CreateShaderModule reused a parsed
// source.
type ShaderCacheStats struct {
	Entries  int
	Capacity int
	Hits     uint64
	Misses   uint64
}

// ShaderCacheStats returns a snapshot of the shader reflection cache.
func (d *Device) ShaderCacheStats() ShaderCacheStats {
	s := d.shaders.Stats()
	return ShaderCacheStats{Entries: s.Len, Capacity: s.Capacity, Hits: s.Hits, Misses: s.Misses}
}

// Limits returns the limits enforced by this device.
func (d *Device) Limits() gputypes.Limits {
	return d.limits
}

// Label returns the device label.
func (d *Device) Label() string {
	return d.label
}

// Workers returns the number of worker goroutines.
func (d *Device) Workers() int {
	return d.pool.Workers()
}

// Queue returns the device's queue.
func (d *Device) Queue() *Queue {
	return d.queue
}

// Close stops the worker pool. Resources stay readable; submissions fail
// with ErrDeviceClosed. Close is idempotent.
func (d *Device) Close() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}
	d.submitMu.Lock()
	d.pool.Close()
	d.submitMu.Unlock()
	d.shaders.Purge()
	Logger().Info("softgpu: device closed", "label", d.label)
}

// IsClosed reports whether Close has been called.
func (d *Device) IsClosed() bool {
	return d.closed.Load()
}

func (d *Device) checkOpen() error {
	if d.closed.Load() {
		return ErrDeviceClosed
	}
	return nil
}
