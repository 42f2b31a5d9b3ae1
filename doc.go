// Package softgpu is a software GPU: a WebGPU-shaped device whose shader
// stages are Go functions executed on a worker pool.
//
// # Overview
//
// A Device creates buffers, textures, shader modules, bind groups and
// pipelines. Commands are recorded into a CommandEncoder through render and
// compute passes and executed by Queue.Submit. Every shader module carries
// its WGSL source, which is parsed and reflected with naga so pipelines can
// check vertex layouts and resource bindings before anything runs.
//
// # Quick Start
//
//	dev := softgpu.NewDevice()
//	defer dev.Close()
//
//	target, _ := dev.CreateTexture(softgpu.TextureDescriptor{
//	    Width: 256, Height: 256,
//	    Format: gputypes.TextureFormatRGBA8Unorm,
//	    Usage:  gputypes.TextureUsageRenderAttachment,
//	})
//
//	enc := dev.CreateCommandEncoder()
//	pass, _ := enc.BeginRenderPass(softgpu.RenderPassDescriptor{...})
//	pass.SetPipeline(pipeline)
//	pass.Draw(3, 1, 0, 0)
//	pass.End()
//	cmd, _ := enc.Finish()
//	dev.Queue().Submit(cmd)
//
// # Execution model
//
// Vertex invocations, fragment invocations and compute invocations run
// independently. Fragments are binned into 64x64 tiles and each tile is
// rasterized by one worker, so every pixel has a single writer and sees
// primitives in submission order. Compute workgroups run in parallel and
// must partition their writes.
//
// # Coordinate System
//
// Clip space follows WebGPU:
//   - NDC x and y in [-1, 1], +y up
//   - NDC z in [0, 1]
//   - Pixel (0,0) at the top-left, y increasing down
//   - Counter-clockwise triangles (in NDC) are front facing by default
package softgpu
