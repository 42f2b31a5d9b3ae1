package softgpu

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgpu/internal/color"
	"github.com/gogpu/softgpu/vecmath"
)

// TextureDescriptor describes a 2D texture.
type TextureDescriptor struct {
	Label  string
	Width  int
	Height int
	Format gputypes.TextureFormat
	Usage  gputypes.TextureUsage
}

// Texture is a 2D image stored as one float32 RGBA vector per texel.
//
// Stores are converted to the texture's format as they happen: 8-bit
// formats quantize, sRGB formats round-trip through the sRGB transfer
// function, single-channel formats keep only red. Loads always return
// linear values.
type Texture struct {
	label  string
	width  int
	height int
	format gputypes.TextureFormat
	usage  gputypes.TextureUsage
	texels []vecmath.Vec4
}

var (
	_ gpucontext.Texture              = (*Texture)(nil)
	_ gpucontext.TextureUpdater       = (*Texture)(nil)
	_ gpucontext.TextureRegionUpdater = (*Texture)(nil)
)

// CreateTexture allocates a texture cleared to transparent black (zero
// depth for depth formats).
func (d *Device) CreateTexture(desc TextureDescriptor) (*Texture, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: texture %q is %dx%d", ErrInvalidDescriptor, desc.Label, desc.Width, desc.Height)
	}
	maxDim := int(d.limits.MaxTextureDimension2D)
	if desc.Width > maxDim || desc.Height > maxDim {
		return nil, fmt.Errorf("%w: texture %q is %dx%d, max %d", ErrLimitExceeded, desc.Label, desc.Width, desc.Height, maxDim)
	}
	if texelSize(desc.Format) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, desc.Format)
	}
	if desc.Usage == gputypes.TextureUsageNone || desc.Usage.ContainsUnknownBits() {
		return nil, fmt.Errorf("%w: texture %q usage %#x", ErrInvalidDescriptor, desc.Label, uint64(desc.Usage))
	}

	t := &Texture{
		label:  desc.Label,
		width:  desc.Width,
		height: desc.Height,
		format: desc.Format,
		usage:  desc.Usage,
		texels: make([]vecmath.Vec4, desc.Width*desc.Height),
	}
	Logger().Debug("softgpu: texture created",
		"label", desc.Label,
		"size", fmt.Sprintf("%dx%d", desc.Width, desc.Height),
		"format", desc.Format)
	return t, nil
}

// texelSize returns the byte size of one texel in the upload format, or 0
// for formats the device does not support.
func texelSize(f gputypes.TextureFormat) int {
	switch f {
	case gputypes.TextureFormatR32Float, gputypes.TextureFormatDepth32Float,
		gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
		return 4
	case gputypes.TextureFormatRGBA32Float:
		return 16
	default:
		return 0
	}
}

// Label returns the texture label.
func (t *Texture) Label() string { return t.label }

// Width returns the texture width in texels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in texels.
func (t *Texture) Height() int { return t.height }

// Format returns the texture format.
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

// Usage returns the texture usage flags.
func (t *Texture) Usage() gputypes.TextureUsage { return t.usage }

// Dimensions returns the extent as unsigned integers, as a shader's
// textureDimensions would.
func (t *Texture) Dimensions() (uint32, uint32) {
	return uint32(t.width), uint32(t.height)
}

// Load returns the texel at (x, y). Coordinates outside the extent are
// clamped to the nearest edge texel.
func (t *Texture) Load(x, y int) vecmath.Vec4 {
	x = min(max(x, 0), t.width-1)
	y = min(max(y, 0), t.height-1)
	return t.texels[y*t.width+x]
}

// Store writes v at (x, y) after converting it to the texture format.
// Writes outside the extent are discarded.
func (t *Texture) Store(x, y int, v vecmath.Vec4) {
	if x < 0 || x >= t.width || y < 0 || y >= t.height {
		return
	}
	t.texels[y*t.width+x] = t.encode(v)
}

func (t *Texture) encode(v vecmath.Vec4) vecmath.Vec4 {
	switch t.format {
	case gputypes.TextureFormatR32Float, gputypes.TextureFormatDepth32Float:
		return vecmath.Vec4{X: v.X, W: 1}
	case gputypes.TextureFormatRGBA8Unorm:
		return vecmath.Vec4{
			X: color.QuantizeUnorm8(v.X),
			Y: color.QuantizeUnorm8(v.Y),
			Z: color.QuantizeUnorm8(v.Z),
			W: color.QuantizeUnorm8(v.W),
		}
	case gputypes.TextureFormatRGBA8UnormSrgb:
		return vecmath.Vec4{
			X: color.QuantizeSRGB8(v.X),
			Y: color.QuantizeSRGB8(v.Y),
			Z: color.QuantizeSRGB8(v.Z),
			W: color.QuantizeUnorm8(v.W),
		}
	default:
		return v
	}
}

// depthAt and setDepth access a depth texture without format conversion.
func (t *Texture) depthAt(i int) float32     { return t.texels[i].X }
func (t *Texture) setDepth(i int, z float32) { t.texels[i].X = z }

// Clear sets every texel to v.
func (t *Texture) Clear(v vecmath.Vec4) {
	e := t.encode(v)
	for i := range t.texels {
		t.texels[i] = e
	}
}

// UpdateData replaces the whole texture with data in the texture's native
// layout: RGBA8 bytes, little-endian float32 for R32Float and Depth32Float,
// four little-endian float32 for RGBA32Float.
func (t *Texture) UpdateData(data []byte) error {
	return t.UpdateRegion(0, 0, t.width, t.height, data)
}

// UpdateRegion replaces a w×h region whose top-left texel is (x, y).
// data is tightly packed in the texture's native layout.
func (t *Texture) UpdateRegion(x, y, w, h int, data []byte) error {
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > t.width || y+h > t.height {
		return fmt.Errorf("%w: region (%d,%d %dx%d) in %dx%d texture", ErrOutOfBounds, x, y, w, h, t.width, t.height)
	}
	size := texelSize(t.format)
	if len(data) != w*h*size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrDataSize, len(data), w*h*size)
	}
	for row := range h {
		for col := range w {
			off := (row*w + col) * size
			t.texels[(y+row)*t.width+x+col] = t.decode(data[off : off+size])
		}
	}
	return nil
}

func (t *Texture) decode(b []byte) vecmath.Vec4 {
	f32 := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	switch t.format {
	case gputypes.TextureFormatRGBA8Unorm:
		return color.U8ToF32(color.ColorU8{R: b[0], G: b[1], B: b[2], A: b[3]}).Vec4()
	case gputypes.TextureFormatRGBA8UnormSrgb:
		return vecmath.Vec4{
			X: color.SRGBToLinearFast(b[0]),
			Y: color.SRGBToLinearFast(b[1]),
			Z: color.SRGBToLinearFast(b[2]),
			W: float32(b[3]) / 255,
		}
	case gputypes.TextureFormatRGBA32Float:
		return vecmath.Vec4{X: f32(0), Y: f32(1), Z: f32(2), W: f32(3)}
	default:
		return vecmath.Vec4{X: f32(0), W: 1}
	}
}

// ReadData returns the texture contents in the layout UpdateData accepts.
func (t *Texture) ReadData() []byte {
	size := texelSize(t.format)
	out := make([]byte, len(t.texels)*size)
	put := func(off int, v float32) {
		binary.LittleEndian.PutUint32(out[off:], math.Float32bits(v))
	}
	for i, v := range t.texels {
		off := i * size
		switch t.format {
		case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
			c := t.rgba8(v)
			out[off], out[off+1], out[off+2], out[off+3] = c.R, c.G, c.B, c.A
		case gputypes.TextureFormatRGBA32Float:
			put(off, v.X)
			put(off+4, v.Y)
			put(off+8, v.Z)
			put(off+12, v.W)
		default:
			put(off, v.X)
		}
	}
	return out
}

// rgba8 converts a stored texel to display bytes. Single-channel formats
// become opaque gray.
func (t *Texture) rgba8(v vecmath.Vec4) color.ColorU8 {
	switch t.format {
	case gputypes.TextureFormatRGBA8UnormSrgb:
		return color.ColorU8{
			R: color.LinearToSRGBFast(v.X),
			G: color.LinearToSRGBFast(v.Y),
			B: color.LinearToSRGBFast(v.Z),
			A: color.Unorm8(v.W),
		}
	case gputypes.TextureFormatR32Float, gputypes.TextureFormatDepth32Float:
		g := color.Unorm8(v.X)
		return color.ColorU8{R: g, G: g, B: g, A: 255}
	default:
		return color.F32ToU8(color.FromVec4(v))
	}
}

// ToImage converts the texture to an 8-bit RGBA image, clamping values to
// [0, 1].
func (t *Texture) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	for i, v := range t.texels {
		c := t.rgba8(v)
		p := img.Pix[i*4 : i*4+4 : i*4+4]
		p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
	}
	return img
}
