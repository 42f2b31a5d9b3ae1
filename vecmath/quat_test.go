package vecmath

import (
	"math"
	"testing"
)

const eps = 1e-5

// =============================================================================
// Rotation Tests
// =============================================================================

func TestQuat_RotateIdentity(t *testing.T) {
	vectors := []Vec3{
		{0, 0, 0},
		{1, 0, 0},
		{0.5, -2, 3},
		{-100, 42, 0.001},
	}
	q := QuatIdentity()
	for _, v := range vectors {
		if got := q.Rotate(v); !got.Approx(v, eps) {
			t.Errorf("Identity.Rotate(%v) = %v, want %v", v, got, v)
		}
	}
}

func TestQuat_RotatePreservesLength(t *testing.T) {
	axes := []Vec3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		V3(1, 1, 1).Normalize(),
		V3(-0.3, 0.8, 0.1).Normalize(),
	}
	vectors := []Vec3{
		{1, 2, 3},
		{-4, 0.5, 2},
		{0, 0, 7},
	}
	for _, axis := range axes {
		for i := range 16 {
			q := QuatFromAxisAngle(axis, float32(i)*0.4)
			for _, v := range vectors {
				got := q.Rotate(v).Length()
				want := v.Length()
				if !Approx(got, want, 1e-4) {
					t.Errorf("|Rotate(%v)| about %v = %v, want %v", v, axis, got, want)
				}
			}
		}
	}
}

func TestQuat_RotateQuarterTurns(t *testing.T) {
	tests := []struct {
		name string
		axis Vec3
		v    Vec3
		want Vec3
	}{
		{"z: x->y", V3(0, 0, 1), V3(1, 0, 0), V3(0, 1, 0)},
		{"x: y->z", V3(1, 0, 0), V3(0, 1, 0), V3(0, 0, 1)},
		{"y: z->x", V3(0, 1, 0), V3(0, 0, 1), V3(1, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := QuatFromAxisAngle(tt.axis, math.Pi/2)
			if got := q.Rotate(tt.v); !got.Approx(tt.want, eps) {
				t.Errorf("Rotate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuat_RotateMatchesSandwichProduct(t *testing.T) {
	q := QuatFromAxisAngle(V3(0.2, -0.7, 0.4).Normalize(), 1.1)
	v := V3(0.3, 1.5, -2)

	p := Quat{X: v.X, Y: v.Y, Z: v.Z}
	r := q.Mul(p).Mul(q.Conjugate())
	want := r.Vector()

	if got := q.Rotate(v); !got.Approx(want, 1e-4) {
		t.Errorf("Rotate() = %v, want q*v*q⁻¹ = %v", got, want)
	}
}

func TestQuat_RotateMatchesMat4(t *testing.T) {
	q := QuatFromAxisAngle(V3(1, 2, 3).Normalize(), 0.8)
	v := V3(-1, 0.5, 2)
	want := q.Rotate(v)
	got := q.Mat4().MulVec4(v.Extend(1)).XYZ()
	if !got.Approx(want, 1e-4) {
		t.Errorf("Mat4().MulVec4() = %v, want %v", got, want)
	}
}

// =============================================================================
// Algebra Tests
// =============================================================================

func TestQuat_MulComposesRotations(t *testing.T) {
	a := QuatFromAxisAngle(V3(0, 0, 1), 0.3)
	b := QuatFromAxisAngle(V3(0, 0, 1), 0.5)
	want := QuatFromAxisAngle(V3(0, 0, 1), 0.8)
	if got := a.Mul(b); !got.Approx(want, eps) {
		t.Errorf("Mul() = %v, want %v", got, want)
	}
}

func TestQuat_ConjugateInverts(t *testing.T) {
	q := QuatFromAxisAngle(V3(0, 1, 0), 2.1)
	if got := q.Mul(q.Conjugate()); !got.Approx(QuatIdentity(), eps) {
		t.Errorf("q*conj(q) = %v, want identity", got)
	}
}

func TestQuat_Normalize(t *testing.T) {
	q := Quat{X: 2, Y: 0, Z: 0, W: 2}
	n := q.Normalize()
	if !Approx(n.Length(), 1, eps) {
		t.Errorf("Normalize().Length() = %v, want 1", n.Length())
	}
	if zero := (Quat{}).Normalize(); zero != (Quat{}) {
		t.Errorf("zero.Normalize() = %v, want zero", zero)
	}
}

func TestQuat_NonUnitScales(t *testing.T) {
	q := Quat{X: 1, W: 1}
	v := V3(0, 1, 0)
	if got := q.Rotate(v).Length(); Approx(got, 1, 1e-3) {
		t.Errorf("non-unit quaternion preserved length %v; expected scaling", got)
	}
}

func TestSlerp_Endpoints(t *testing.T) {
	a := QuatFromAxisAngle(V3(0, 0, 1), 0)
	b := QuatFromAxisAngle(V3(0, 0, 1), math.Pi/2)

	if got := Slerp(a, b, 0); !got.Approx(a, eps) {
		t.Errorf("Slerp(t=0) = %v, want %v", got, a)
	}
	if got := Slerp(a, b, 1); !got.Approx(b, eps) {
		t.Errorf("Slerp(t=1) = %v, want %v", got, b)
	}
	mid := QuatFromAxisAngle(V3(0, 0, 1), math.Pi/4)
	if got := Slerp(a, b, 0.5); !got.Approx(mid, eps) {
		t.Errorf("Slerp(t=0.5) = %v, want %v", got, mid)
	}
}

// =============================================================================
// ObjectTransform Tests
// =============================================================================

func TestObjectTransform(t *testing.T) {
	tests := []struct {
		name   string
		q      Quat
		v      Vec3
		offset Vec2
		scale  float32
		want   Vec4
	}{
		{"identity", QuatIdentity(), V3(0.5, -0.5, 0), Vec2{}, 1, V4(0.5, -0.5, 0, 1)},
		{"offset", QuatIdentity(), V3(0.5, -0.5, 0), V2(0.25, 0.5), 1, V4(0.75, 0, 0, 1)},
		{"scale", QuatIdentity(), V3(0.5, -0.5, 0.2), V2(0.5, 0), 2, V4(2, -1, 0.4, 1)},
		{"quarter turn", QuatFromAxisAngle(V3(0, 0, 1), math.Pi/2), V3(1, 0, 0), Vec2{}, 0.5, V4(0, 0.5, 0, 1)},
		{"zero quaternion", Quat{}, V3(0.5, -0.5, 0.25), Vec2{}, 1, V4(0.5, -0.5, 0.25, 1)},
		{"zero quaternion offset", Quat{}, V3(1, 2, 3), V2(-1, 0.5), 2, V4(0, 5, 6, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ObjectTransform(tt.q, tt.v, tt.offset, tt.scale); !got.Approx(tt.want, eps) {
				t.Errorf("ObjectTransform() = %v, want %v", got, tt.want)
			}
		})
	}
}
