package color

import (
	"math"
	"testing"

	"github.com/gogpu/softgpu/vecmath"
)

// =============================================================================
// Transfer Function Tests
// =============================================================================

func TestSRGBToLinearEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want float32
	}{
		{"black", 0, 0},
		{"white", 1, 1},
		{"linear segment", 0.04045, 0.04045 / 12.92},
		{"mid gray", 0.5, 0.21404114},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SRGBToLinear(tt.in); !floatNear(got, tt.want, 1e-5) {
				t.Errorf("SRGBToLinear(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRoundTripLinearSRGB(t *testing.T) {
	for i := range 101 {
		l := float32(i) / 100
		if got := SRGBToLinear(LinearToSRGB(l)); !floatNear(got, l, 1e-5) {
			t.Errorf("SRGBToLinear(LinearToSRGB(%v)) = %v", l, got)
		}
	}
}

func TestLUTMatchesExact(t *testing.T) {
	for i := range 256 {
		want := SRGBToLinear(float32(i) / 255)
		if got := SRGBToLinearFast(uint8(i)); got != want {
			t.Errorf("SRGBToLinearFast(%d) = %v, want %v", i, got, want)
		}
	}
	// Every sRGB byte must survive decode + encode.
	for i := range 256 {
		if got := LinearToSRGBFast(SRGBToLinearFast(uint8(i))); got != uint8(i) {
			t.Errorf("LinearToSRGBFast(SRGBToLinearFast(%d)) = %d", i, got)
		}
	}
}

func TestLinearToSRGBFastClamps(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{-1, 0},
		{float32(math.NaN()), 0},
		{0, 0},
		{1, 255},
		{2, 255},
	}
	for _, tt := range tests {
		if got := LinearToSRGBFast(tt.in); got != tt.want {
			t.Errorf("LinearToSRGBFast(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

// =============================================================================
// 8-bit Conversion Tests
// =============================================================================

func TestUnorm8(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 128},
		{1, 255},
		{1.5, 255},
		{float32(math.NaN()), 0},
	}
	for _, tt := range tests {
		if got := Unorm8(tt.in); got != tt.want {
			t.Errorf("Unorm8(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRoundTripU8F32(t *testing.T) {
	for i := range 256 {
		c := ColorU8{R: uint8(i), G: uint8(255 - i), B: uint8(i / 2), A: 255}
		if got := F32ToU8(U8ToF32(c)); got != c {
			t.Errorf("F32ToU8(U8ToF32(%v)) = %v", c, got)
		}
	}
}

func TestQuantize(t *testing.T) {
	if got := QuantizeUnorm8(0.5); got != 128.0/255 {
		t.Errorf("QuantizeUnorm8(0.5) = %v, want %v", got, 128.0/255)
	}
	if got := QuantizeSRGB8(1); got != 1 {
		t.Errorf("QuantizeSRGB8(1) = %v, want 1", got)
	}
	if got := QuantizeSRGB8(0); got != 0 {
		t.Errorf("QuantizeSRGB8(0) = %v, want 0", got)
	}
}

func TestColorF32_Clamp(t *testing.T) {
	c := FromVec4(vecmath.V4(-1, 0.5, 2, 1))
	want := ColorF32{R: 0, G: 0.5, B: 1, A: 1}
	if got := c.Clamp(); got != want {
		t.Errorf("Clamp() = %v, want %v", got, want)
	}
	if got := want.Vec4(); got != vecmath.V4(0, 0.5, 1, 1) {
		t.Errorf("Vec4() = %v", got)
	}
}

func floatNear(a, b, epsilon float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= epsilon
}
