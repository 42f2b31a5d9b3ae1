package color

import "math"

// SRGBToLinear decodes an sRGB component to linear.
// Formula: if s <= 0.04045: s/12.92; else: pow((s+0.055)/1.055, 2.4)
func SRGBToLinear(s float32) float32 {
	if s <= 0.04045 {
		return s / 12.92
	}
	return float32(math.Pow(float64((s+0.055)/1.055), 2.4))
}

// LinearToSRGB encodes a linear component to sRGB.
// Formula: if l <= 0.0031308: l*12.92; else: 1.055*pow(l, 1/2.4)-0.055
func LinearToSRGB(l float32) float32 {
	if l <= 0.0031308 {
		return l * 12.92
	}
	return 1.055*float32(math.Pow(float64(l), 1.0/2.4)) - 0.055
}

// U8ToF32 converts ColorU8 to ColorF32, mapping [0,255] to [0,1].
func U8ToF32(c ColorU8) ColorF32 {
	return ColorF32{
		R: float32(c.R) / 255,
		G: float32(c.G) / 255,
		B: float32(c.B) / 255,
		A: float32(c.A) / 255,
	}
}

// F32ToU8 converts ColorF32 to ColorU8 with clamping and rounding.
func F32ToU8(c ColorF32) ColorU8 {
	return ColorU8{
		R: Unorm8(c.R),
		G: Unorm8(c.G),
		B: Unorm8(c.B),
		A: Unorm8(c.A),
	}
}

// Unorm8 clamps v to [0,1] and converts it to a byte with rounding.
// NaN maps to 0.
func Unorm8(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// QuantizeUnorm8 rounds v to the nearest value representable by an
// 8-bit unorm channel.
func QuantizeUnorm8(v float32) float32 {
	return float32(Unorm8(v)) / 255
}

// QuantizeSRGB8 rounds a linear value through an 8-bit sRGB channel:
// encode, quantize, decode.
func QuantizeSRGB8(l float32) float32 {
	return SRGBToLinearFast(LinearToSRGBFast(l))
}
