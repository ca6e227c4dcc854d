package types

import "math"

// A ray segment with a parametric [Tmin, Tmax] interval.
type Ray struct {
	Org  Vec3
	Dir  Vec3
	Tmin float32
	Tmax float32
}

// Create a ray with an unbounded upper interval.
func NewRay(org, dir Vec3, tmin float32) Ray {
	return Ray{Org: org, Dir: dir, Tmin: tmin, Tmax: math.MaxFloat32}
}

// Create a ray with a bounded interval.
func NewRaySegment(org, dir Vec3, tmin, tmax float32) Ray {
	return Ray{Org: org, Dir: dir, Tmin: tmin, Tmax: tmax}
}

// The point at parametric distance t along the ray.
func (r Ray) At(t float32) Vec3 {
	return r.Org.Add(r.Dir.Mul(t))
}

// The result of a ray-triangle intersection query. Tri is negative when
// nothing was hit; U and V are the barycentric coordinates on the triangle.
type Hit struct {
	Tri int32
	T   float32
	U   float32
	V   float32
}
