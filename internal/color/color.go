// Package color provides the color types, sRGB transfer functions and HSV
// mapping used by texture formats and fragment kernels.
package color

import "github.com/gogpu/softgpu/vecmath"

// ColorF32 represents a color with float32 components, nominally in [0,1].
// Alpha is always linear.
type ColorF32 struct {
	R, G, B, A float32
}

// ColorU8 represents a color with uint8 components in [0,255].
type ColorU8 struct {
	R, G, B, A uint8
}

// FromVec4 maps a shader output (x, y, z, w) to (R, G, B, A).
func FromVec4(v vecmath.Vec4) ColorF32 {
	return ColorF32{R: v.X, G: v.Y, B: v.Z, A: v.W}
}

// Vec4 returns the color as a shader vector.
func (c ColorF32) Vec4() vecmath.Vec4 {
	return vecmath.Vec4{X: c.R, Y: c.G, Z: c.B, W: c.A}
}

// Clamp returns the color with every component clamped to [0,1].
func (c ColorF32) Clamp() ColorF32 {
	return ColorF32{
		R: vecmath.Saturate(c.R),
		G: vecmath.Saturate(c.G),
		B: vecmath.Saturate(c.B),
		A: vecmath.Saturate(c.A),
	}
}
