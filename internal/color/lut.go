package color

import "math"

// sRGBToLinearLUT maps every sRGB byte to its linear value.
var sRGBToLinearLUT [256]float32

// linearToSRGBLUT maps linear values at 12-bit precision to sRGB bytes.
var linearToSRGBLUT [4096]uint8

func init() {
	for i := range sRGBToLinearLUT {
		sRGBToLinearLUT[i] = SRGBToLinear(float32(i) / 255)
	}
	for i := range linearToSRGBLUT {
		s := LinearToSRGB(float32(float64(i) / 4095))
		linearToSRGBLUT[i] = Unorm8(s)
	}
}

// SRGBToLinearFast decodes an sRGB byte with a table lookup.
func SRGBToLinearFast(s uint8) float32 {
	return sRGBToLinearLUT[s]
}

// LinearToSRGBFast encodes a linear value to an sRGB byte with a table
// lookup. Input is clamped to [0,1]; NaN encodes as 0.
func LinearToSRGBFast(l float32) uint8 {
	if !(l > 0) {
		return 0
	}
	if l >= 1 {
		return 255
	}
	return linearToSRGBLUT[int(math.Round(float64(l)*4095))]
}
