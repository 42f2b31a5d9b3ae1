package raster

import "github.com/gogpu/gputypes"

// DepthTest evaluates fn for a fragment depth against the stored depth.
// An undefined compare function always passes.
func DepthTest(fn gputypes.CompareFunction, fragment, stored float32) bool {
	switch fn {
	case gputypes.CompareFunctionNever:
		return false
	case gputypes.CompareFunctionLess:
		return fragment < stored
	case gputypes.CompareFunctionEqual:
		return fragment == stored
	case gputypes.CompareFunctionLessEqual:
		return fragment <= stored
	case gputypes.CompareFunctionGreater:
		return fragment > stored
	case gputypes.CompareFunctionNotEqual:
		return fragment != stored
	case gputypes.CompareFunctionGreaterEqual:
		return fragment >= stored
	default:
		return true
	}
}
