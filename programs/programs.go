// Package programs holds the built-in shader programs: WGSL sources paired
// with the Go kernels that execute them on a softgpu Device.
//
// Programs are registered by name at init time:
//
//	p, err := programs.Lookup("mandelbrot")
//	if err != nil {
//	    return err
//	}
//	module, err := device.CreateShaderModule(p.ShaderModuleDescriptor())
package programs

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgpu"
)

// Entry point names shared by every built-in program.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
	ComputeEntry  = "cs_main"
)

// SampledFragmentEntry is the quad program's fragment entry point that reads
// its texture through the sampler at binding 2.
const SampledFragmentEntry = "fs_sampled"

// ErrUnknownProgram is returned by Lookup for a name nothing registered.
var ErrUnknownProgram = errors.New("programs: unknown program")

// Program is a WGSL module and its kernels.
type Program struct {
	Name        string
	Description string

	// Source is the WGSL text, reflected by CreateShaderModule.
	Source string

	Vertex   map[string]softgpu.VertexFunc
	Fragment map[string]softgpu.FragmentFunc
	Compute  map[string]softgpu.ComputeFunc
}

// ShaderModuleDescriptor returns the descriptor that creates the program's
// shader module.
func (p *Program) ShaderModuleDescriptor() softgpu.ShaderModuleDescriptor {
	return softgpu.ShaderModuleDescriptor{
		Label:    p.Name,
		Source:   p.Source,
		Vertex:   p.Vertex,
		Fragment: p.Fragment,
		Compute:  p.Compute,
	}
}

// Stages reports which pipeline stages the program provides kernels for.
func (p *Program) Stages() gputypes.ShaderStage {
	var s gputypes.ShaderStage
	if len(p.Vertex) > 0 {
		s |= gputypes.ShaderStageVertex
	}
	if len(p.Fragment) > 0 {
		s |= gputypes.ShaderStageFragment
	}
	if len(p.Compute) > 0 {
		s |= gputypes.ShaderStageCompute
	}
	return s
}

// priority is the listing order of the built-in programs.
var priority = []string{"triangle", "rainbow", "spin", "quad", "mandelbrot", "cube"}

var registry = gpucontext.NewRegistry[*Program](gpucontext.WithPriority(priority...))

// Register adds a program factory under name, replacing any previous one.
func Register(name string, factory func() *Program) {
	registry.Register(name, factory)
}

// Lookup returns a fresh instance of the named program.
func Lookup(name string) (*Program, error) {
	if !registry.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProgram, name)
	}
	return registry.Get(name), nil
}

// Default returns the first registered program in listing order.
func Default() *Program {
	return registry.Best()
}

// Names returns the registered program names: built-ins in listing order,
// then any others sorted by name.
func Names() []string {
	available := registry.Available()
	names := make([]string, 0, len(available))
	for _, name := range priority {
		if registry.Has(name) {
			names = append(names, name)
		}
	}
	var extra []string
	for _, name := range available {
		if !slices.Contains(priority, name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	return append(names, extra...)
}

// Count returns the number of registered programs.
func Count() int {
	return registry.Count()
}

func init() {
	Register("triangle", Triangle)
	Register("rainbow", Rainbow)
	Register("spin", Spin)
	Register("quad", Quad)
	Register("mandelbrot", Mandelbrot)
	Register("cube", Cube)
}
