package color

import "github.com/gogpu/softgpu/vecmath"

// HSV to RGB constants: k = (1, 2/3, 1/3, 3).
const (
	hsvKX = 1.0
	hsvKY = 2.0 / 3.0
	hsvKZ = 1.0 / 3.0
	hsvKW = 3.0
)

// HSVToRGB maps hue, saturation and value in [0,1] to RGB in [0,1] with the
// branchless identity
//
//	p = |fract(h + k.xyz)*6 - k.www|
//	rgb = v * mix(k.xxx, clamp(p - k.xxx, 0, 1), s)
//
// Hue wraps through fract, so h and h+1 give the same color.
func HSVToRGB(h, s, v float32) vecmath.Vec3 {
	return vecmath.Vec3{
		X: hsvChannel(h, hsvKX, s, v),
		Y: hsvChannel(h, hsvKY, s, v),
		Z: hsvChannel(h, hsvKZ, s, v),
	}
}

func hsvChannel(h, k, s, v float32) float32 {
	p := vecmath.Fract(h+k)*6 - hsvKW
	if p < 0 {
		p = -p
	}
	a := vecmath.Saturate(p - hsvKX)
	return v * vecmath.Mix(hsvKX, a, s)
}

// HSV returns HSVToRGB as an opaque color.
func HSV(h, s, v float32) ColorF32 {
	rgb := HSVToRGB(h, s, v)
	return ColorF32{R: rgb.X, G: rgb.Y, B: rgb.Z, A: 1}
}
