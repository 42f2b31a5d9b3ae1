package vecmath

import "math"

// Vec2 is a two-component float32 vector (WGSL vec2<f32>).
type Vec2 struct {
	X, Y float32
}

// V2 is a convenience function to create a Vec2.
func V2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns the component-wise sum.
func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{X: v.X + w.X, Y: v.Y + w.Y}
}

// Sub returns the component-wise difference.
func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{X: v.X - w.X, Y: v.Y - w.Y}
}

// Mul returns the vector scaled by s.
func (v Vec2) Mul(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// MulVec returns the component-wise product.
func (v Vec2) MulVec(w Vec2) Vec2 {
	return Vec2{X: v.X * w.X, Y: v.Y * w.Y}
}

// DivVec returns the component-wise quotient.
func (v Vec2) DivVec(w Vec2) Vec2 {
	return Vec2{X: v.X / w.X, Y: v.Y / w.Y}
}

// Dot returns the dot product.
func (v Vec2) Dot(w Vec2) float32 {
	return v.X*w.X + v.Y*w.Y
}

// Length returns the Euclidean length.
func (v Vec2) Length() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// LengthSq returns the squared length.
func (v Vec2) LengthSq() float32 {
	return v.Dot(v)
}

// Distance returns the Euclidean distance between v and w.
func (v Vec2) Distance(w Vec2) float32 {
	return v.Sub(w).Length()
}

// ComplexSquare treats v as the complex number X+iY and returns its square,
// (x²-y², 2xy).
func (v Vec2) ComplexSquare() Vec2 {
	return Vec2{X: v.X*v.X - v.Y*v.Y, Y: 2 * v.X * v.Y}
}

// Approx reports whether all components are within epsilon of w.
func (v Vec2) Approx(w Vec2, epsilon float32) bool {
	return Approx(v.X, w.X, epsilon) && Approx(v.Y, w.Y, epsilon)
}

// Vec3 is a three-component float32 vector (WGSL vec3<f32>).
type Vec3 struct {
	X, Y, Z float32
}

// V3 is a convenience function to create a Vec3.
func V3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Splat3 returns a Vec3 with every component set to s.
func Splat3(s float32) Vec3 {
	return Vec3{X: s, Y: s, Z: s}
}

// Add returns the component-wise sum.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z}
}

// Sub returns the component-wise difference.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z}
}

// Mul returns the vector scaled by s.
func (v Vec3) Mul(s float32) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Neg returns the negated vector.
func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Dot returns the dot product.
func (v Vec3) Dot(w Vec3) float32 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product v × w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// Length returns the Euclidean length.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Normalize returns a unit vector in the same direction.
// Returns the zero vector if v has zero length.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Mul(1 / l)
}

// XY returns the first two components.
func (v Vec3) XY() Vec2 {
	return Vec2{X: v.X, Y: v.Y}
}

// Approx reports whether all components are within epsilon of w.
func (v Vec3) Approx(w Vec3, epsilon float32) bool {
	return Approx(v.X, w.X, epsilon) && Approx(v.Y, w.Y, epsilon) && Approx(v.Z, w.Z, epsilon)
}

// Vec4 is a four-component float32 vector (WGSL vec4<f32>).
// It carries clip-space positions, colors and interpolated varyings.
type Vec4 struct {
	X, Y, Z, W float32
}

// V4 is a convenience function to create a Vec4.
func V4(x, y, z, w float32) Vec4 {
	return Vec4{X: x, Y: y, Z: z, W: w}
}

// Extend returns (v, w).
func (v Vec3) Extend(w float32) Vec4 {
	return Vec4{X: v.X, Y: v.Y, Z: v.Z, W: w}
}

// Add returns the component-wise sum.
func (v Vec4) Add(w Vec4) Vec4 {
	return Vec4{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z, W: v.W + w.W}
}

// Sub returns the component-wise difference.
func (v Vec4) Sub(w Vec4) Vec4 {
	return Vec4{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z, W: v.W - w.W}
}

// Mul returns the vector scaled by s.
func (v Vec4) Mul(s float32) Vec4 {
	return Vec4{X: v.X * s, Y: v.Y * s, Z: v.Z * s, W: v.W * s}
}

// MulVec returns the component-wise product.
func (v Vec4) MulVec(w Vec4) Vec4 {
	return Vec4{X: v.X * w.X, Y: v.Y * w.Y, Z: v.Z * w.Z, W: v.W * w.W}
}

// Lerp interpolates between v and w.
func (v Vec4) Lerp(w Vec4, t float32) Vec4 {
	return v.Add(w.Sub(v).Mul(t))
}

// Dot returns the dot product.
func (v Vec4) Dot(w Vec4) float32 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z + v.W*w.W
}

// XY returns the first two components.
func (v Vec4) XY() Vec2 {
	return Vec2{X: v.X, Y: v.Y}
}

// XYZ returns the first three components.
func (v Vec4) XYZ() Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// Index returns component i (0..3). Out-of-range indices return 0.
func (v Vec4) Index(i int) float32 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	case 3:
		return v.W
	}
	return 0
}

// Approx reports whether all components are within epsilon of w.
func (v Vec4) Approx(w Vec4, epsilon float32) bool {
	return Approx(v.X, w.X, epsilon) && Approx(v.Y, w.Y, epsilon) &&
		Approx(v.Z, w.Z, epsilon) && Approx(v.W, w.W, epsilon)
}

// UVec3 is a three-component uint32 vector (WGSL vec3<u32>), used for
// invocation and workgroup coordinates.
type UVec3 struct {
	X, Y, Z uint32
}
