package scene

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgpu"
	"github.com/gogpu/softgpu/programs"
)

// fractalStage computes the Mandelbrot set into an R32Float texture that a
// later render pass can read. The state is fixed, so frames stop
// dispatching once one submission carrying the dispatch has succeeded.
type fractalStage struct {
	pipeline *softgpu.ComputePipeline
	group    *softgpu.BindGroup
	texture  *softgpu.Texture

	// encoded is set when the current frame's encoder holds the dispatch.
	encoded bool
	done    bool
}

func newFractalStage(d *softgpu.Device, module *softgpu.ShaderModule, width, height int, state programs.FractalState) (*fractalStage, error) {
	layout, err := d.CreateBindGroupLayout(softgpu.BindGroupLayoutDescriptor{
		Label: "fractal",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer: &gputypes.BufferBindingLayout{
					Type:           gputypes.BufferBindingTypeUniform,
					MinBindingSize: uint64(len(softgpu.BytesOf(&state))),
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				StorageTexture: &gputypes.StorageTextureBindingLayout{
					Access:        gputypes.StorageTextureAccessWriteOnly,
					Format:        gputypes.TextureFormatR32Float,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	texture, err := d.CreateTexture(softgpu.TextureDescriptor{
		Label:  "fractal",
		Width:  width,
		Height: height,
		Format: gputypes.TextureFormatR32Float,
		Usage:  gputypes.TextureUsageStorageBinding | gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, err
	}
	buf, err := d.CreateBufferInit("fractal state", gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst, softgpu.BytesOf(&state))
	if err != nil {
		return nil, err
	}
	group, err := d.CreateBindGroup(softgpu.BindGroupDescriptor{
		Label:  "fractal",
		Layout: layout,
		Entries: []softgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf},
			{Binding: 1, Texture: texture},
		},
	})
	if err != nil {
		return nil, err
	}
	pipeline, err := d.CreateComputePipeline(softgpu.ComputePipelineDescriptor{
		Label:      "fractal",
		Layout:     []*softgpu.BindGroupLayout{layout},
		Module:     module,
		EntryPoint: programs.ComputeEntry,
	})
	if err != nil {
		return nil, err
	}
	return &fractalStage{pipeline: pipeline, group: group, texture: texture}, nil
}

// encode records one dispatch covering every texel, unless an earlier
// submission already computed the texture.
func (f *fractalStage) encode(enc *softgpu.CommandEncoder) error {
	if f.done {
		return nil
	}
	pass, err := enc.BeginComputePass("fractal")
	if err != nil {
		return err
	}
	if err := pass.SetPipeline(f.pipeline); err != nil {
		return err
	}
	if err := pass.SetBindGroup(0, f.group); err != nil {
		return err
	}
	wg := f.pipeline.WorkgroupSize()
	w, h := f.texture.Dimensions()
	if err := pass.DispatchWorkgroups(softgpu.DispatchSize(w, wg[0]), softgpu.DispatchSize(h, wg[1]), 1); err != nil {
		return err
	}
	if err := pass.End(); err != nil {
		return err
	}
	f.encoded = true
	return nil
}

// submitted marks the texture computed if the frame just submitted held
// the dispatch.
func (f *fractalStage) submitted() {
	f.done = f.done || f.encoded
	f.encoded = false
}
