package types

import "math"

// An axis aligned bounding box.
type BBox struct {
	Min Vec3
	Max Vec3
}

// Create an empty bounding box which extends to nothing.
func EmptyBBox() BBox {
	return BBox{
		Min: Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// Create a bounding box containing a single point.
func PointBBox(p Vec3) BBox {
	return BBox{Min: p, Max: p}
}

// Extend the bounding box to include a point.
func (b BBox) ExtendPoint(p Vec3) BBox {
	return BBox{
		Min: MinVec3(b.Min, p),
		Max: MaxVec3(b.Max, p),
	}
}

// Extend the bounding box to include another bounding box.
func (b BBox) Extend(b2 BBox) BBox {
	return BBox{
		Min: MinVec3(b.Min, b2.Min),
		Max: MaxVec3(b.Max, b2.Max),
	}
}

// Half of the bounding box surface area. The SAH cost metric only needs
// relative areas so the factor of two is dropped.
func (b BBox) HalfArea() float32 {
	side := b.Max.Sub(b.Min)
	return side[0]*side[1] + side[1]*side[2] + side[0]*side[2]
}

// Bounding box volume.
func (b BBox) Volume() float32 {
	side := b.Max.Sub(b.Min)
	return side[0] * side[1] * side[2]
}

// Bounding box center point.
func (b BBox) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Report whether the bounding box contains another bounding box.
func (b BBox) Contains(b2 BBox) bool {
	return b.Min[0] <= b2.Min[0] && b.Min[1] <= b2.Min[1] && b.Min[2] <= b2.Min[2] &&
		b.Max[0] >= b2.Max[0] && b.Max[1] >= b2.Max[1] && b.Max[2] >= b2.Max[2]
}
