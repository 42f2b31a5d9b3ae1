package softgpu

import (
	"fmt"
	"sync"
)

// PassState is the state of a pass encoder.
type PassState int

const (
	// PassStateRecording means the pass is recording commands.
	PassStateRecording PassState = iota

	// PassStateEnded means End has been called.
	PassStateEnded
)

// String returns the string representation of PassState.
func (s PassState) String() string {
	switch s {
	case PassStateRecording:
		return "Recording"
	case PassStateEnded:
		return "Ended"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// dispatchCommand is one recorded DispatchWorkgroups call with the state it
// was recorded under.
type dispatchCommand struct {
	pipeline *ComputePipeline
	res      Resources
	count    [3]uint32
}

type computePassCommand struct {
	label      string
	dispatches []dispatchCommand
}

// ComputePassEncoder records compute dispatches.
//
// Bind groups and the pipeline are captured per dispatch when it is
// recorded; nothing carries over to other passes.
//
// State machine:
//
//	Recording -> End() -> Ended
type ComputePassEncoder struct {
	mu      sync.Mutex
	encoder *CommandEncoder
	cmd     *computePassCommand
	state   PassState

	pipeline *ComputePipeline
	groups   []*BindGroup
}

// State returns the current pass state.
func (p *ComputePassEncoder) State() PassState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// checkRecording returns an error if the pass has ended.
// The caller must hold p.mu.
func (p *ComputePassEncoder) checkRecording() error {
	if p.state != PassStateRecording {
		return ErrPassEnded
	}
	return nil
}

// SetPipeline sets the pipeline for subsequent dispatches.
func (p *ComputePassEncoder) SetPipeline(pipeline *ComputePipeline) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set pipeline: %w", err)
	}
	if pipeline == nil {
		return fmt.Errorf("set pipeline: %w", ErrNilPipeline)
	}
	p.pipeline = pipeline
	return nil
}

// SetBindGroup binds group at index for subsequent dispatches.
func (p *ComputePassEncoder) SetBindGroup(index uint32, group *BindGroup) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set bind group: %w", err)
	}
	if int(index) >= len(p.groups) {
		return fmt.Errorf("set bind group: %w: index %d", ErrBindGroupIndexOutOfRange, index)
	}
	if group == nil {
		return fmt.Errorf("set bind group: %w: index %d is nil", ErrInvalidDescriptor, index)
	}
	p.groups[index] = group
	return nil
}

// DispatchWorkgroups records a dispatch of x×y×z workgroups. Every count
// must be non-zero and within MaxComputeWorkgroupsPerDimension.
func (p *ComputePassEncoder) DispatchWorkgroups(x, y, z uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("dispatch workgroups: %w", err)
	}
	if p.pipeline == nil {
		return fmt.Errorf("dispatch workgroups: %w", ErrNilPipeline)
	}
	limit := p.encoder.device.limits.MaxComputeWorkgroupsPerDimension
	for _, n := range [3]uint32{x, y, z} {
		if n == 0 {
			return fmt.Errorf("dispatch workgroups: %w: (%d, %d, %d)", ErrWorkgroupCountZero, x, y, z)
		}
		if n > limit {
			return fmt.Errorf("dispatch workgroups: %w: %d > %d", ErrWorkgroupCountExceedsLimit, n, limit)
		}
	}
	res, err := snapshotResources(p.pipeline.layout, p.pipeline.bindings, p.groups)
	if err != nil {
		return fmt.Errorf("dispatch workgroups: %w", err)
	}

	p.cmd.dispatches = append(p.cmd.dispatches, dispatchCommand{
		pipeline: p.pipeline,
		res:      res,
		count:    [3]uint32{x, y, z},
	})
	return nil
}

// End completes the pass and unlocks the parent encoder.
func (p *ComputePassEncoder) End() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("end: %w", err)
	}
	p.state = PassStateEnded
	p.encoder.endPass(p.cmd)
	return nil
}

// DispatchSize returns the number of workgroups of size workgroup needed to
// cover extent invocations.
func DispatchSize(extent, workgroup uint32) uint32 {
	if workgroup == 0 {
		return 0
	}
	return (extent + workgroup - 1) / workgroup
}

// snapshotResources captures the bind groups a pipeline declares, checking
// that each is set with a compatible layout and that buffer bindings are at
// least as large as the shader types they back.
func snapshotResources(layout []*BindGroupLayout, bindings []ShaderBinding, groups []*BindGroup) (Resources, error) {
	res := Resources{groups: make([]*BindGroup, len(layout))}
	for i, l := range layout {
		if l == nil {
			continue
		}
		if i >= len(groups) || groups[i] == nil {
			return Resources{}, fmt.Errorf("%w: group %d", ErrMissingBindGroup, i)
		}
		if !layoutsCompatible(groups[i].layout, l) {
			return Resources{}, fmt.Errorf("%w: group %d %q was created for an incompatible layout", ErrBindingMismatch, i, groups[i].label)
		}
		res.groups[i] = groups[i]
	}
	for _, sb := range bindings {
		if sb.MinSize == 0 {
			continue
		}
		if n := uint64(len(res.Buffer(sb.Group, sb.Binding))); n < sb.MinSize {
			return Resources{}, fmt.Errorf("%w: %q (%d, %d) binds %d bytes, shader needs %d", ErrDataSize, sb.Name, sb.Group, sb.Binding, n, sb.MinSize)
		}
	}
	return res, nil
}
