package bvh

import "github.com/9Christian6/RenderFrameworkRIS/types"

// Triangle data reorganized for the Moeller-Trumbore intersection kernel.
// Built once after the hierarchy and stored in leaf order.
type PrecomputedTri struct {
	V0 types.Vec3
	E1 types.Vec3
	E2 types.Vec3
}

func NewPrecomputedTri(v0, v1, v2 types.Vec3) PrecomputedTri {
	return PrecomputedTri{
		V0: v0,
		E1: v1.Sub(v0),
		E2: v2.Sub(v0),
	}
}

// Intersect the triangle with a ray over (tmin, tmax). On a hit returns the
// parametric distance and the barycentric coordinates of the hit point.
func (tri *PrecomputedTri) Intersect(ray types.Ray, tmin, tmax float32) (t, u, v float32, ok bool) {
	p := ray.Dir.Cross(tri.E2)
	det := tri.E1.Dot(p)
	if det == 0 {
		return 0, 0, 0, false
	}
	invDet := 1.0 / det

	tvec := ray.Org.Sub(tri.V0)
	u = tvec.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := tvec.Cross(tri.E1)
	v = ray.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = tri.E2.Dot(q) * invDet
	if t <= tmin || t >= tmax {
		return 0, 0, 0, false
	}
	return t, u, v, true
}
