package softgpu

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// encoderState is the state of a CommandEncoder.
type encoderState int

const (
	encoderRecording encoderState = iota
	encoderLocked
	encoderFinished
)

// command is one recorded unit of work executed at submit time.
type command interface {
	execute(d *Device)
}

// CommandEncoder records passes for later submission to the queue.
//
// State machine:
//
//	Recording -> (BeginRenderPass/BeginComputePass) -> Locked
//	Locked    -> (pass End)                         -> Recording
//	Recording -> Finish()                           -> Finished
//
// CommandEncoder is NOT safe for concurrent use.
type CommandEncoder struct {
	mu     sync.Mutex
	device *Device
	label  string
	state  encoderState

	commands []command
}

// CreateCommandEncoder creates an encoder in the Recording state.
func (d *Device) CreateCommandEncoder(label string) (*CommandEncoder, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return &CommandEncoder{device: d, label: label}, nil
}

// Label returns the encoder label.
func (e *CommandEncoder) Label() string { return e.label }

// checkRecordingLocked returns an error if the encoder is not in the
// Recording state. The caller must hold e.mu.
func (e *CommandEncoder) checkRecordingLocked() error {
	switch e.state {
	case encoderRecording:
		return nil
	case encoderLocked:
		return ErrEncoderLocked
	default:
		return ErrEncoderFinished
	}
}

// BeginRenderPass validates the attachments and starts a render pass. The
// encoder is locked until the pass ends.
func (e *CommandEncoder) BeginRenderPass(desc RenderPassDescriptor) (*RenderPassEncoder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkRecordingLocked(); err != nil {
		return nil, fmt.Errorf("begin render pass: %w", err)
	}
	cmd, err := newRenderPassCommand(&desc)
	if err != nil {
		return nil, fmt.Errorf("begin render pass %q: %w", desc.Label, err)
	}

	e.state = encoderLocked
	return newRenderPassEncoder(e, cmd), nil
}

// BeginComputePass starts a compute pass. The encoder is locked until the
// pass ends.
func (e *CommandEncoder) BeginComputePass(label string) (*ComputePassEncoder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkRecordingLocked(); err != nil {
		return nil, fmt.Errorf("begin compute pass: %w", err)
	}

	e.state = encoderLocked
	return &ComputePassEncoder{
		encoder: e,
		cmd:     &computePassCommand{label: label},
		groups:  make([]*BindGroup, e.device.limits.MaxBindGroups),
	}, nil
}

// endPass records a finished pass and unlocks the encoder.
func (e *CommandEncoder) endPass(cmd command) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.commands = append(e.commands, cmd)
	e.state = encoderRecording
}

// Finish ends recording and returns the command buffer.
func (e *CommandEncoder) Finish() (*CommandBuffer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkRecordingLocked(); err != nil {
		return nil, fmt.Errorf("finish: %w", err)
	}
	e.state = encoderFinished

	cb := &CommandBuffer{label: e.label, device: e.device, commands: e.commands}
	e.commands = nil
	return cb, nil
}

// CommandBuffer is a finished list of passes. It can be submitted once.
type CommandBuffer struct {
	label    string
	device   *Device
	commands []command
	consumed atomic.Bool
}

// Label returns the label of the encoder that produced the buffer.
func (cb *CommandBuffer) Label() string { return cb.label }
