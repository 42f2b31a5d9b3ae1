package softgpu

import (
	"fmt"
	"time"
)

// Queue executes command buffers and uploads data, in call order.
type Queue struct {
	device *Device
}

// WriteBuffer copies data into buf at offset. The write is ordered after
// every earlier submission.
func (q *Queue) WriteBuffer(buf *Buffer, offset uint64, data []byte) error {
	if err := q.device.checkOpen(); err != nil {
		return err
	}
	if buf == nil {
		return fmt.Errorf("write buffer: %w: buffer is nil", ErrInvalidDescriptor)
	}
	if offset%4 != 0 || len(data)%4 != 0 {
		return fmt.Errorf("write buffer: %w: offset %d and size %d must be multiples of 4", ErrInvalidDescriptor, offset, len(data))
	}
	if offset > buf.Size() || uint64(len(data)) > buf.Size()-offset {
		return fmt.Errorf("write buffer: %w: [%d, %d) in buffer %q of size %d",
			ErrOutOfBounds, offset, offset+uint64(len(data)), buf.label, buf.Size())
	}

	q.device.submitMu.Lock()
	defer q.device.submitMu.Unlock()
	copy(buf.data[offset:], data)
	return nil
}

// WriteTexture replaces the contents of tex with data in the texture's
// native layout, ordered after every earlier submission.
func (q *Queue) WriteTexture(tex *Texture, data []byte) error {
	if err := q.device.checkOpen(); err != nil {
		return err
	}
	if tex == nil {
		return fmt.Errorf("write texture: %w: texture is nil", ErrInvalidDescriptor)
	}

	q.device.submitMu.Lock()
	defer q.device.submitMu.Unlock()
	if err := tex.UpdateData(data); err != nil {
		return fmt.Errorf("write texture %q: %w", tex.label, err)
	}
	return nil
}

// Submit executes command buffers in order and returns when they are
// complete. Each buffer can be submitted once.
func (q *Queue) Submit(buffers ...*CommandBuffer) error {
	q.device.submitMu.Lock()
	defer q.device.submitMu.Unlock()

	if err := q.device.checkOpen(); err != nil {
		return err
	}
	for _, cb := range buffers {
		if cb == nil {
			return fmt.Errorf("submit: %w: command buffer is nil", ErrInvalidDescriptor)
		}
		if cb.device != q.device {
			return fmt.Errorf("submit: %w: command buffer %q belongs to another device", ErrInvalidDescriptor, cb.label)
		}
		if !cb.consumed.CompareAndSwap(false, true) {
			return fmt.Errorf("submit: %w: %q", ErrCommandBufferConsumed, cb.label)
		}

		start := time.Now()
		for _, cmd := range cb.commands {
			cmd.execute(q.device)
		}
		Logger().Debug("softgpu: command buffer executed",
			"label", cb.label,
			"passes", len(cb.commands),
			"elapsed", time.Since(start))
	}
	return nil
}
