// Package math provides the small vector types shared by the lighting code.
package math

import "github.com/chewxy/math32"

// Vec3 is a 3-component float vector. It doubles as an RGB multiplier.
type Vec3 struct {
	X, Y, Z float32
}

// Splat returns a vector with all components set to s.
func Splat(s float32) Vec3 {
	return Vec3{s, s, s}
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * scalar.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Mul returns the component-wise product.
func (v Vec3) Mul(other Vec3) Vec3 {
	return Vec3{v.X * other.X, v.Y * other.Y, v.Z * other.Z}
}

// Dot returns the dot product.
func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Lerp blends from v to other by w.
func (v Vec3) Lerp(other Vec3, w float32) Vec3 {
	return Vec3{
		v.X + (other.X-v.X)*w,
		v.Y + (other.Y-v.Y)*w,
		v.Z + (other.Z-v.Z)*w,
	}
}

// Length returns the magnitude.
func (v Vec3) Length() float32 {
	return math32.Sqrt(v.Dot(v))
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vec3) IsFinite() bool {
	for _, c := range v.Array() {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Array returns the components as an array.
func (v Vec3) Array() [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

// IVec3 is an integer 3D coordinate.
type IVec3 struct {
	X, Y, Z int
}

// Volume returns X*Y*Z.
func (v IVec3) Volume() int {
	return v.X * v.Y * v.Z
}

// Add returns v + other.
func (v IVec3) Add(other IVec3) IVec3 {
	return IVec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Contains reports whether p lies in [0, v) on every axis.
func (v IVec3) Contains(p IVec3) bool {
	return p.X >= 0 && p.Y >= 0 && p.Z >= 0 && p.X < v.X && p.Y < v.Y && p.Z < v.Z
}
