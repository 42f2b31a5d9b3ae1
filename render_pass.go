package softgpu

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgpu/internal/raster"
	"github.com/gogpu/softgpu/vecmath"
)

// RenderPassColorAttachment is the color target of a render pass.
type RenderPassColorAttachment struct {
	View       *Texture
	LoadOp     gputypes.LoadOp
	StoreOp    gputypes.StoreOp
	ClearValue gputypes.Color
}

// RenderPassDepthStencilAttachment is the depth target of a render pass.
type RenderPassDepthStencilAttachment struct {
	View            *Texture
	DepthLoadOp     gputypes.LoadOp
	DepthStoreOp    gputypes.StoreOp
	DepthClearValue float32
}

// RenderPassDescriptor describes the attachments of a render pass. At most
// one color attachment is supported.
type RenderPassDescriptor struct {
	Label                  string
	ColorAttachments       []RenderPassColorAttachment
	DepthStencilAttachment *RenderPassDepthStencilAttachment
}

type renderPassCommand struct {
	label  string
	color  *RenderPassColorAttachment
	depth  *RenderPassDepthStencilAttachment
	width  int
	height int
	draws  []drawCommand
}

func newRenderPassCommand(desc *RenderPassDescriptor) (*renderPassCommand, error) {
	cmd := &renderPassCommand{label: desc.Label}
	switch len(desc.ColorAttachments) {
	case 0:
	case 1:
		ca := desc.ColorAttachments[0]
		if ca.View == nil {
			return nil, fmt.Errorf("%w: color attachment has no view", ErrInvalidDescriptor)
		}
		if !ca.View.usage.Contains(gputypes.TextureUsageRenderAttachment) {
			return nil, fmt.Errorf("%w: texture %q lacks RenderAttachment", ErrMissingUsage, ca.View.label)
		}
		if ca.View.format.HasDepth() {
			return nil, fmt.Errorf("%w: color attachment %q is %s", ErrUnsupportedFormat, ca.View.label, ca.View.format)
		}
		if err := checkOps(ca.LoadOp, ca.StoreOp); err != nil {
			return nil, fmt.Errorf("color attachment: %w", err)
		}
		cmd.color = &ca
		cmd.width, cmd.height = ca.View.width, ca.View.height
	default:
		return nil, fmt.Errorf("%w: %d color attachments, max 1", ErrTargetMismatch, len(desc.ColorAttachments))
	}

	if ds := desc.DepthStencilAttachment; ds != nil {
		if ds.View == nil {
			return nil, fmt.Errorf("%w: depth attachment has no view", ErrInvalidDescriptor)
		}
		if ds.View.format != gputypes.TextureFormatDepth32Float {
			return nil, fmt.Errorf("%w: depth attachment %q is %s", ErrUnsupportedFormat, ds.View.label, ds.View.format)
		}
		if !ds.View.usage.Contains(gputypes.TextureUsageRenderAttachment) {
			return nil, fmt.Errorf("%w: texture %q lacks RenderAttachment", ErrMissingUsage, ds.View.label)
		}
		if err := checkOps(ds.DepthLoadOp, ds.DepthStoreOp); err != nil {
			return nil, fmt.Errorf("depth attachment: %w", err)
		}
		if cmd.color != nil && (ds.View.width != cmd.width || ds.View.height != cmd.height) {
			return nil, fmt.Errorf("%w: depth %dx%d, color %dx%d", ErrTargetMismatch, ds.View.width, ds.View.height, cmd.width, cmd.height)
		}
		d := *ds
		cmd.depth = &d
		cmd.width, cmd.height = ds.View.width, ds.View.height
	}

	if cmd.color == nil && cmd.depth == nil {
		return nil, fmt.Errorf("%w: render pass has no attachments", ErrInvalidDescriptor)
	}
	return cmd, nil
}

func checkOps(load gputypes.LoadOp, store gputypes.StoreOp) error {
	if load != gputypes.LoadOpLoad && load != gputypes.LoadOpClear {
		return fmt.Errorf("%w: load op %v", ErrInvalidDescriptor, load)
	}
	if store != gputypes.StoreOpStore && store != gputypes.StoreOpDiscard {
		return fmt.Errorf("%w: store op %v", ErrInvalidDescriptor, store)
	}
	return nil
}

// drawCommand is one recorded draw with the state it was recorded under.
type drawCommand struct {
	pipeline *RenderPipeline
	res      Resources

	vertexBuffers []vertexBinding
	indices       []uint32 // resolved vertex indices; nil for non-indexed draws

	viewport raster.Viewport
	scissor  raster.Rect
	constant vecmath.Vec4

	vertexCount   uint32
	firstVertex   uint32
	instanceCount uint32
	firstInstance uint32
}

// restartIndex marks a strip restart in drawCommand.indices.
const restartIndex = ^uint32(0)

type indexBinding struct {
	data   []byte
	format gputypes.IndexFormat
}

// RenderPassEncoder records draws into a render pass.
//
// Pipeline, bind groups, buffers, viewport and scissor are captured per draw
// when it is recorded; nothing carries over to other passes.
//
// State machine:
//
//	Recording -> End() -> Ended
type RenderPassEncoder struct {
	mu      sync.Mutex
	encoder *CommandEncoder
	cmd     *renderPassCommand
	state   PassState

	pipeline      *RenderPipeline
	groups        []*BindGroup
	vertexBuffers []*vertexBinding
	index         *indexBinding
	viewport      raster.Viewport
	scissor       raster.Rect
	constant      vecmath.Vec4
}

func newRenderPassEncoder(e *CommandEncoder, cmd *renderPassCommand) *RenderPassEncoder {
	return &RenderPassEncoder{
		encoder:       e,
		cmd:           cmd,
		groups:        make([]*BindGroup, e.device.limits.MaxBindGroups),
		vertexBuffers: make([]*vertexBinding, e.device.limits.MaxVertexBuffers),
		viewport:      raster.FullViewport(cmd.width, cmd.height),
		scissor:       raster.Rect{MaxX: cmd.width, MaxY: cmd.height},
	}
}

// State returns the current pass state.
func (p *RenderPassEncoder) State() PassState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// checkRecording returns an error if the pass has ended.
// The caller must hold p.mu.
func (p *RenderPassEncoder) checkRecording() error {
	if p.state != PassStateRecording {
		return ErrPassEnded
	}
	return nil
}

// SetPipeline sets the pipeline for subsequent draws. Its color target and
// depth state must match the pass attachments.
func (p *RenderPassEncoder) SetPipeline(pipeline *RenderPipeline) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set pipeline: %w", err)
	}
	if pipeline == nil {
		return fmt.Errorf("set pipeline: %w", ErrNilPipeline)
	}
	if pipeline.target != nil {
		if p.cmd.color == nil {
			return fmt.Errorf("set pipeline: %w: %q writes color, pass has no color attachment", ErrTargetMismatch, pipeline.label)
		}
		if pipeline.target.Format != p.cmd.color.View.format {
			return fmt.Errorf("set pipeline: %w: %q targets %s, attachment is %s",
				ErrTargetMismatch, pipeline.label, pipeline.target.Format, p.cmd.color.View.format)
		}
	}
	if (pipeline.depth != nil) != (p.cmd.depth != nil) {
		return fmt.Errorf("set pipeline: %w: %q depth state does not match the depth attachment", ErrTargetMismatch, pipeline.label)
	}
	p.pipeline = pipeline
	return nil
}

// SetBindGroup binds group at index for subsequent draws.
func (p *RenderPassEncoder) SetBindGroup(index uint32, group *BindGroup) error {
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

// SetVertexBuffer binds buf from offset to its end at slot.
func (p *RenderPassEncoder) SetVertexBuffer(slot uint32, buf *Buffer, offset uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set vertex buffer: %w", err)
	}
	if int(slot) >= len(p.vertexBuffers) {
		return fmt.Errorf("set vertex buffer: %w: slot %d", ErrLimitExceeded, slot)
	}
	if buf == nil {
		return fmt.Errorf("set vertex buffer: %w: slot %d is nil", ErrInvalidDescriptor, slot)
	}
	if !buf.usage.Contains(gputypes.BufferUsageVertex) {
		return fmt.Errorf("set vertex buffer: %w: buffer %q lacks Vertex", ErrMissingUsage, buf.label)
	}
	if offset > buf.Size() || offset%4 != 0 {
		return fmt.Errorf("set vertex buffer: %w: offset %d in buffer of size %d", ErrOutOfBounds, offset, buf.Size())
	}
	p.vertexBuffers[slot] = &vertexBinding{data: buf.data[offset:]}
	return nil
}

// SetIndexBuffer binds buf from offset to its end as the index buffer.
func (p *RenderPassEncoder) SetIndexBuffer(buf *Buffer, format gputypes.IndexFormat, offset uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set index buffer: %w", err)
	}
	if buf == nil {
		return fmt.Errorf("set index buffer: %w: buffer is nil", ErrInvalidDescriptor)
	}
	if format != gputypes.IndexFormatUint16 && format != gputypes.IndexFormatUint32 {
		return fmt.Errorf("set index buffer: %w: format %v", ErrInvalidDescriptor, format)
	}
	if !buf.usage.Contains(gputypes.BufferUsageIndex) {
		return fmt.Errorf("set index buffer: %w: buffer %q lacks Index", ErrMissingUsage, buf.label)
	}
	if offset > buf.Size() || offset%uint64(format.Size()) != 0 {
		return fmt.Errorf("set index buffer: %w: offset %d in buffer of size %d", ErrOutOfBounds, offset, buf.Size())
	}
	p.index = &indexBinding{data: buf.data[offset:], format: format}
	return nil
}

// SetViewport sets the viewport for subsequent draws. The rectangle is in
// pixels; the depth range must lie within [0, 1].
func (p *RenderPassEncoder) SetViewport(x, y, width, height, minDepth, maxDepth float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}
	if width <= 0 || height <= 0 || minDepth < 0 || maxDepth > 1 || minDepth > maxDepth {
		return fmt.Errorf("set viewport: %w: (%g, %g, %g, %g) depth [%g, %g]",
			ErrInvalidDescriptor, x, y, width, height, minDepth, maxDepth)
	}
	p.viewport = raster.Viewport{X: x, Y: y, Width: width, Height: height, MinDepth: minDepth, MaxDepth: maxDepth}
	return nil
}

// SetScissorRect limits subsequent draws to a pixel rectangle inside the
// attachments.
func (p *RenderPassEncoder) SetScissorRect(x, y, width, height uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set scissor rect: %w", err)
	}
	if uint64(x)+uint64(width) > uint64(p.cmd.width) || uint64(y)+uint64(height) > uint64(p.cmd.height) {
		return fmt.Errorf("set scissor rect: %w: (%d, %d, %d, %d) in %dx%d",
			ErrOutOfBounds, x, y, width, height, p.cmd.width, p.cmd.height)
	}
	p.scissor = raster.Rect{MinX: int(x), MinY: int(y), MaxX: int(x + width), MaxY: int(y + height)}
	return nil
}

// SetBlendConstant sets the color used by the Constant blend factors.
func (p *RenderPassEncoder) SetBlendConstant(c gputypes.Color) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set blend constant: %w", err)
	}
	p.constant = colorVec4(c)
	return nil
}

// Draw records a non-indexed draw.
func (p *RenderPassEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	dc, err := p.prepareDraw(instanceCount, firstInstance)
	if err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	if err := p.checkVertexRange(dc, uint64(firstVertex)+uint64(vertexCount)); err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	dc.vertexCount = vertexCount
	dc.firstVertex = firstVertex
	p.record(dc)
	return nil
}

// DrawIndexed records an indexed draw. Each index is offset by baseVertex.
// For strip topologies with a StripIndexFormat, the maximum index value
// restarts the strip.
func (p *RenderPassEncoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("draw indexed: %w", err)
	}
	if p.index == nil {
		return fmt.Errorf("draw indexed: %w", ErrMissingIndexBuffer)
	}
	dc, err := p.prepareDraw(instanceCount, firstInstance)
	if err != nil {
		return fmt.Errorf("draw indexed: %w", err)
	}

	size := uint64(p.index.format.Size())
	if (uint64(firstIndex)+uint64(indexCount))*size > uint64(len(p.index.data)) {
		return fmt.Errorf("draw indexed: %w: indices [%d, %d) past index buffer", ErrOutOfBounds, firstIndex, firstIndex+indexCount)
	}
	strip := dc.pipeline.primitive.StripIndexFormat
	restart := dc.pipeline.primitive.Topology == gputypes.PrimitiveTopologyTriangleStrip && strip != nil
	if restart && *strip != p.index.format {
		return fmt.Errorf("draw indexed: %w: strip index format %v, index buffer is %v", ErrInvalidDescriptor, *strip, p.index.format)
	}

	indices := make([]uint32, indexCount)
	var maxVertex uint64
	for i := range indices {
		off := (uint64(firstIndex) + uint64(i)) * size
		var raw, restartValue uint32
		if p.index.format == gputypes.IndexFormatUint16 {
			raw, restartValue = uint32(binary.LittleEndian.Uint16(p.index.data[off:])), 0xFFFF
		} else {
			raw, restartValue = binary.LittleEndian.Uint32(p.index.data[off:]), 0xFFFFFFFF
		}
		if restart && raw == restartValue {
			indices[i] = restartIndex
			continue
		}
		v := int64(raw) + int64(baseVertex)
		if v < 0 || v >= int64(restartIndex) {
			return fmt.Errorf("draw indexed: %w: index %d + base vertex %d", ErrOutOfBounds, raw, baseVertex)
		}
		indices[i] = uint32(v)
		maxVertex = max(maxVertex, uint64(v)+1)
	}
	if err := p.checkVertexRange(dc, maxVertex); err != nil {
		return fmt.Errorf("draw indexed: %w", err)
	}

	dc.indices = indices
	dc.vertexCount = indexCount
	p.record(dc)
	return nil
}

// prepareDraw captures the pass state for a draw. The caller must hold p.mu.
func (p *RenderPassEncoder) prepareDraw(instanceCount, firstInstance uint32) (*drawCommand, error) {
	if p.pipeline == nil {
		return nil, ErrNilPipeline
	}
	res, err := snapshotResources(p.pipeline.layout, p.pipeline.bindings, p.groups)
	if err != nil {
		return nil, err
	}
	dc := &drawCommand{
		pipeline:      p.pipeline,
		res:           res,
		vertexBuffers: make([]vertexBinding, len(p.pipeline.buffers)),
		viewport:      p.viewport,
		scissor:       p.scissor,
		constant:      p.constant,
		instanceCount: instanceCount,
		firstInstance: firstInstance,
	}
	for slot, l := range p.pipeline.buffers {
		vb := p.vertexBuffers[slot]
		if vb == nil {
			return nil, fmt.Errorf("%w: slot %d", ErrMissingVertexBuffer, slot)
		}
		dc.vertexBuffers[slot] = *vb
		if l.instance && uint64(firstInstance)+uint64(instanceCount) > l.elementCount(vb.data) {
			return nil, fmt.Errorf("%w: instances [%d, %d) past vertex buffer slot %d",
				ErrOutOfBounds, firstInstance, firstInstance+instanceCount, slot)
		}
	}
	return dc, nil
}

// checkVertexRange verifies that per-vertex buffers hold end vertices.
func (p *RenderPassEncoder) checkVertexRange(dc *drawCommand, end uint64) error {
	for slot, l := range dc.pipeline.buffers {
		if !l.instance && end > l.elementCount(dc.vertexBuffers[slot].data) {
			return fmt.Errorf("%w: vertex %d past vertex buffer slot %d", ErrOutOfBounds, end-1, slot)
		}
	}
	return nil
}

func (p *RenderPassEncoder) record(dc *drawCommand) {
	p.cmd.draws = append(p.cmd.draws, *dc)
}

// End completes the pass and unlocks the parent encoder.
func (p *RenderPassEncoder) End() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("end: %w", err)
	}
	p.state = PassStateEnded
	p.encoder.endPass(p.cmd)
	return nil
}

func colorVec4(c gputypes.Color) vecmath.Vec4 {
	return vecmath.Vec4{X: float32(c.R), Y: float32(c.G), Z: float32(c.B), W: float32(c.A)}
}
