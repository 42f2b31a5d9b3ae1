// Package blend implements the fixed-function color blending stage that
// combines a fragment's output with the value already in the color target.
//
// Colors are float32 RGBA vectors. Blending follows the WebGPU rules:
//
//	result = op(src*srcFactor, dst*dstFactor)
//
// evaluated separately for the RGB channels and the alpha channel. Min and
// Max ignore the factors.
package blend

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/softgpu/vecmath"
)

// Apply blends src over dst with state. A nil state replaces dst with src.
// constant is the blend constant used by the Constant factors.
func Apply(state *gputypes.BlendState, src, dst, constant vecmath.Vec4) vecmath.Vec4 {
	if state == nil {
		return src
	}

	c := state.Color
	a := state.Alpha
	return vecmath.Vec4{
		X: component(c, src.X, dst.X, factor(c.SrcFactor, 0, src, dst, constant), factor(c.DstFactor, 0, src, dst, constant)),
		Y: component(c, src.Y, dst.Y, factor(c.SrcFactor, 1, src, dst, constant), factor(c.DstFactor, 1, src, dst, constant)),
		Z: component(c, src.Z, dst.Z, factor(c.SrcFactor, 2, src, dst, constant), factor(c.DstFactor, 2, src, dst, constant)),
		W: component(a, src.W, dst.W, factor(a.SrcFactor, 3, src, dst, constant), factor(a.DstFactor, 3, src, dst, constant)),
	}
}

// component evaluates one channel of a blend equation.
func component(bc gputypes.BlendComponent, s, d, sf, df float32) float32 {
	switch bc.Operation {
	case gputypes.BlendOperationSubtract:
		return s*sf - d*df
	case gputypes.BlendOperationReverseSubtract:
		return d*df - s*sf
	case gputypes.BlendOperationMin:
		return min(s, d)
	case gputypes.BlendOperationMax:
		return max(s, d)
	default:
		return s*sf + d*df
	}
}

// factor returns the value of f for channel ch (0..3, 3 is alpha).
func factor(f gputypes.BlendFactor, ch int, src, dst, constant vecmath.Vec4) float32 {
	switch f {
	case gputypes.BlendFactorZero:
		return 0
	case gputypes.BlendFactorSrc:
		return src.Index(ch)
	case gputypes.BlendFactorOneMinusSrc:
		return 1 - src.Index(ch)
	case gputypes.BlendFactorSrcAlpha:
		return src.W
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return 1 - src.W
	case gputypes.BlendFactorDst:
		return dst.Index(ch)
	case gputypes.BlendFactorOneMinusDst:
		return 1 - dst.Index(ch)
	case gputypes.BlendFactorDstAlpha:
		return dst.W
	case gputypes.BlendFactorOneMinusDstAlpha:
		return 1 - dst.W
	case gputypes.BlendFactorSrcAlphaSaturated:
		if ch == 3 {
			return 1
		}
		return min(src.W, 1-dst.W)
	case gputypes.BlendFactorConstant:
		return constant.Index(ch)
	case gputypes.BlendFactorOneMinusConstant:
		return 1 - constant.Index(ch)
	default:
		// One and Undefined.
		return 1
	}
}

// Mask merges value into old, keeping the channels of old that mask does
// not select.
func Mask(mask gputypes.ColorWriteMask, value, old vecmath.Vec4) vecmath.Vec4 {
	if mask == gputypes.ColorWriteMaskAll {
		return value
	}
	out := old
	if mask&gputypes.ColorWriteMaskRed != 0 {
		out.X = value.X
	}
	if mask&gputypes.ColorWriteMaskGreen != 0 {
		out.Y = value.Y
	}
	if mask&gputypes.ColorWriteMaskBlue != 0 {
		out.Z = value.Z
	}
	if mask&gputypes.ColorWriteMaskAlpha != 0 {
		out.W = value.W
	}
	return out
}
