package softgpu

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgpu/internal/raster"
	"github.com/gogpu/softgpu/vecmath"
)

// Sampler describes how kernels filter and address texture reads.
//
// Textures have a single level, so the mipmap filter and LOD clamps only
// select between the magnification and minification filters.
type Sampler struct {
	label     string
	address   [3]gputypes.AddressMode
	magFilter gputypes.FilterMode
	minFilter gputypes.FilterMode
	lodMin    float32
	lodMax    float32
	compare   gputypes.CompareFunction
}

// CreateSampler validates desc and creates a sampler. Undefined address
// modes default to ClampToEdge and undefined filters to Nearest.
func (d *Device) CreateSampler(desc gputypes.SamplerDescriptor) (*Sampler, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	s := &Sampler{
		label:   desc.Label,
		lodMin:  desc.LodMinClamp,
		lodMax:  desc.LodMaxClamp,
		compare: desc.Compare,
	}
	for i, m := range []gputypes.AddressMode{desc.AddressModeU, desc.AddressModeV, desc.AddressModeW} {
		switch m {
		case gputypes.AddressModeUndefined:
			m = gputypes.AddressModeClampToEdge
		case gputypes.AddressModeClampToEdge, gputypes.AddressModeRepeat, gputypes.AddressModeMirrorRepeat:
		default:
			return nil, fmt.Errorf("%w: sampler %q address mode %v", ErrInvalidDescriptor, desc.Label, m)
		}
		s.address[i] = m
	}
	var err error
	if s.magFilter, err = filterMode(desc.MagFilter); err != nil {
		return nil, fmt.Errorf("%w: sampler %q mag filter", err, desc.Label)
	}
	if s.minFilter, err = filterMode(desc.MinFilter); err != nil {
		return nil, fmt.Errorf("%w: sampler %q min filter", err, desc.Label)
	}
	if desc.Compare > gputypes.CompareFunctionAlways {
		return nil, fmt.Errorf("%w: sampler %q compare function %v", ErrInvalidDescriptor, desc.Label, desc.Compare)
	}
	if desc.LodMinClamp < 0 || desc.LodMaxClamp < desc.LodMinClamp {
		return nil, fmt.Errorf("%w: sampler %q LOD clamp [%v, %v]", ErrInvalidDescriptor, desc.Label, desc.LodMinClamp, desc.LodMaxClamp)
	}
	if desc.MaxAnisotropy > 1 && (s.magFilter != gputypes.FilterModeLinear || s.minFilter != gputypes.FilterModeLinear) {
		return nil, fmt.Errorf("%w: sampler %q anisotropy needs linear filters", ErrInvalidDescriptor, desc.Label)
	}

	Logger().Debug("softgpu: sampler created",
		"label", desc.Label,
		"mag", s.magFilter,
		"min", s.minFilter,
		"compare", s.compare)
	return s, nil
}

func filterMode(f gputypes.FilterMode) (gputypes.FilterMode, error) {
	switch f {
	case gputypes.FilterModeUndefined:
		return gputypes.FilterModeNearest, nil
	case gputypes.FilterModeNearest, gputypes.FilterModeLinear:
		return f, nil
	default:
		return 0, fmt.Errorf("%w: filter mode %v", ErrInvalidDescriptor, f)
	}
}

// Label returns the sampler label.
func (s *Sampler) Label() string { return s.label }

// Compare returns the comparison function, Undefined for filtering samplers.
func (s *Sampler) Compare() gputypes.CompareFunction { return s.compare }

// AddressModes returns the U, V and W address modes.
func (s *Sampler) AddressModes() (u, v, w gputypes.AddressMode) {
	return s.address[0], s.address[1], s.address[2]
}

// Filters returns the magnification and minification filters.
func (s *Sampler) Filters() (magnify, minify gputypes.FilterMode) {
	return s.magFilter, s.minFilter
}

// filtering reports whether either filter interpolates.
func (s *Sampler) filtering() bool {
	return s.magFilter == gputypes.FilterModeLinear || s.minFilter == gputypes.FilterModeLinear
}

// Sample reads t at normalized coordinates uv through s, as textureSample
// would at level zero.
func (t *Texture) Sample(s *Sampler, uv vecmath.Vec2) vecmath.Vec4 {
	return t.SampleLevel(s, uv, 0)
}

// SampleLevel reads t at uv with an explicit level of detail. The LOD is
// clamped to the sampler's range; a positive LOD selects the minification
// filter, otherwise the magnification filter applies.
func (t *Texture) SampleLevel(s *Sampler, uv vecmath.Vec2, lod float32) vecmath.Vec4 {
	return t.filter(s, uv, lod, t.texelAt)
}

// SampleCompare compares ref against the red channel of the texels around
// uv with the sampler's compare function and returns the filtered fraction
// that pass. A sampler without a compare function passes every texel.
func (t *Texture) SampleCompare(s *Sampler, uv vecmath.Vec2, ref float32) float32 {
	return t.filter(s, uv, 0, func(x, y int) vecmath.Vec4 {
		if raster.DepthTest(s.compare, ref, t.texelAt(x, y).X) {
			return vecmath.V4(1, 1, 1, 1)
		}
		return vecmath.Vec4{}
	}).X
}

func (t *Texture) texelAt(x, y int) vecmath.Vec4 {
	return t.texels[y*t.width+x]
}

func (t *Texture) filter(s *Sampler, uv vecmath.Vec2, lod float32, fetch func(x, y int) vecmath.Vec4) vecmath.Vec4 {
	lod = vecmath.Clamp(lod, s.lodMin, s.lodMax)
	mode := s.magFilter
	if lod > 0 {
		mode = s.minFilter
	}

	u := uv.X * float32(t.width)
	v := uv.Y * float32(t.height)
	if mode == gputypes.FilterModeNearest {
		x := addressTexel(s.address[0], floorInt(u), t.width)
		y := addressTexel(s.address[1], floorInt(v), t.height)
		return fetch(x, y)
	}

	u, v = u-0.5, v-0.5
	x0, y0 := floorInt(u), floorInt(v)
	fx := u - float32(math.Floor(float64(u)))
	fy := v - float32(math.Floor(float64(v)))
	xa := addressTexel(s.address[0], x0, t.width)
	xb := addressTexel(s.address[0], x0+1, t.width)
	ya := addressTexel(s.address[1], y0, t.height)
	yb := addressTexel(s.address[1], y0+1, t.height)

	top := fetch(xa, ya).Lerp(fetch(xb, ya), fx)
	bottom := fetch(xa, yb).Lerp(fetch(xb, yb), fx)
	return top.Lerp(bottom, fy)
}

// maxTexelCoord bounds texel coordinates before integer conversion.
const maxTexelCoord = 1 << 24

// floorInt returns floor(f) as an int, bounded to ±maxTexelCoord. NaN maps
// to zero.
func floorInt(f float32) int {
	if math.IsNaN(float64(f)) {
		return 0
	}
	return int(math.Floor(float64(vecmath.Clamp(f, -maxTexelCoord, maxTexelCoord))))
}

// addressTexel maps texel coordinate i onto [0, n) with address mode m.
func addressTexel(m gputypes.AddressMode, i, n int) int {
	switch m {
	case gputypes.AddressModeRepeat:
		return (i%n + n) % n
	case gputypes.AddressModeMirrorRepeat:
		p := (i%(2*n) + 2*n) % (2 * n)
		if p >= n {
			p = 2*n - 1 - p
		}
		return p
	default:
		return min(max(i, 0), n-1)
	}
}
