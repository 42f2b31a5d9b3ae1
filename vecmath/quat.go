package vecmath

import "math"

// Quat is a rotation quaternion stored as (X, Y, Z, W) with W the real part,
// matching the WGSL vec4<f32> layout used in uniform blocks.
//
// Rotation assumes a unit quaternion. Nothing in this package renormalizes
// implicitly: a non-unit quaternion scales as well as rotates.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns the identity rotation (0, 0, 0, 1).
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatFromAxisAngle returns the rotation of angle radians about axis.
// The axis is expected to be unit length.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	s, c := math.Sincos(float64(angle) / 2)
	sf := float32(s)
	return Quat{X: axis.X * sf, Y: axis.Y * sf, Z: axis.Z * sf, W: float32(c)}
}

// Vector returns the imaginary part (X, Y, Z).
func (q Quat) Vector() Vec3 {
	return Vec3{X: q.X, Y: q.Y, Z: q.Z}
}

// Rotate rotates v by q using the double cross product form
//
//	t = cross(q.xyz, v) + q.w*v
//	v' = v + 2*cross(q.xyz, t)
//
// which equals q*v*q⁻¹ for unit q.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := q.Vector()
	t := u.Cross(v).Add(v.Mul(q.W))
	return v.Add(u.Cross(t).Mul(2))
}

// Mul returns the Hamilton product q*r, the rotation r followed by q.
func (q Quat) Mul(r Quat) Quat {
	return Quat{
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
	}
}

// Conjugate returns (-X, -Y, -Z, W), the inverse of a unit quaternion.
func (q Quat) Conjugate() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Dot returns the four-dimensional dot product.
func (q Quat) Dot(r Quat) float32 {
	return q.X*r.X + q.Y*r.Y + q.Z*r.Z + q.W*r.W
}

// Length returns the norm of q.
func (q Quat) Length() float32 {
	return float32(math.Sqrt(float64(q.Dot(q))))
}

// Normalize returns q scaled to unit length.
// The zero quaternion is returned unchanged.
func (q Quat) Normalize() Quat {
	l := q.Length()
	if l == 0 {
		return q
	}
	inv := 1 / l
	return Quat{X: q.X * inv, Y: q.Y * inv, Z: q.Z * inv, W: q.W * inv}
}

func (q Quat) scale(s float32) Quat {
	return Quat{X: q.X * s, Y: q.Y * s, Z: q.Z * s, W: q.W * s}
}

func (q Quat) add(r Quat) Quat {
	return Quat{X: q.X + r.X, Y: q.Y + r.Y, Z: q.Z + r.Z, W: q.W + r.W}
}

// slerpLinearThreshold is the cosine above which Slerp falls back to a
// normalized linear interpolation.
const slerpLinearThreshold = 0.9995

// Slerp spherically interpolates between the rotations a and b along the
// shortest arc. Both inputs are normalized first.
func Slerp(a, b Quat, t float32) Quat {
	a = a.Normalize()
	b = b.Normalize()
	dot := a.Dot(b)
	if dot < 0 {
		b = b.scale(-1)
		dot = -dot
	}
	if dot > slerpLinearThreshold {
		return a.add(b.add(a.scale(-1)).scale(t)).Normalize()
	}

	theta0 := math.Acos(float64(dot))
	theta := theta0 * float64(t)
	sinTheta0 := math.Sin(theta0)
	s0 := float32(math.Cos(theta) - float64(dot)*math.Sin(theta)/sinTheta0)
	s1 := float32(math.Sin(theta) / sinTheta0)
	return a.scale(s0).add(b.scale(s1))
}

// Mat4 returns the rotation matrix of q.
func (q Quat) Mat4() Mat4 {
	x2, y2, z2 := q.X+q.X, q.Y+q.Y, q.Z+q.Z
	xx, yy, zz := q.X*x2, q.Y*y2, q.Z*z2
	xy, xz, yz := q.X*y2, q.X*z2, q.Y*z2
	wx, wy, wz := q.W*x2, q.W*y2, q.W*z2
	return Mat4{
		1 - (yy + zz), xy + wz, xz - wy, 0,
		xy - wz, 1 - (xx + zz), yz + wx, 0,
		xz + wy, yz - wx, 1 - (xx + yy), 0,
		0, 0, 0, 1,
	}
}

// Approx reports whether all components are within epsilon of r.
func (q Quat) Approx(r Quat, epsilon float32) bool {
	return Approx(q.X, r.X, epsilon) && Approx(q.Y, r.Y, epsilon) &&
		Approx(q.Z, r.Z, epsilon) && Approx(q.W, r.W, epsilon)
}

// ObjectTransform applies the per-object transform of a draw: v is rotated
// by q, offset in x/y, uniformly scaled and promoted to clip space with
// w = 1. No perspective divide takes place.
func ObjectTransform(q Quat, v Vec3, offset Vec2, scale float32) Vec4 {
	r := q.Rotate(v)
	return Vec4{
		X: (r.X + offset.X) * scale,
		Y: (r.Y + offset.Y) * scale,
		Z: r.Z * scale,
		W: 1,
	}
}
