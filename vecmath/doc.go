// Package vecmath provides the float32 vector, quaternion and matrix types
// shared by shader kernels and host code.
//
// Layouts match WGSL: Vec2 is 8 bytes, Vec4 and Quat are 16 bytes, and Mat4
// is a column-major 4x4 matrix of 64 bytes, so values can be copied into
// uniform buffers directly.
package vecmath
