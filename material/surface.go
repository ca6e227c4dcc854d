package material

import "github.com/9Christian6/RenderFrameworkRIS/types"

// Surface parameters at a hit point.
type SurfaceParams struct {
	// True when the ray hit the outside of the surface.
	Entering bool

	// Hit point in world coordinates.
	Point types.Vec3

	// Texture coordinates.
	UV types.Vec2

	// Geometric normal.
	FaceNormal types.Vec3

	// Local shading frame at the hit point, built around the interpolated
	// shading normal.
	Coords types.LocalCoords
}

// A material pairs an optional BSDF with an optional emitter. Materials
// without a BSDF act like black bodies.
type Material struct {
	Bsdf    Bsdf
	Emitter Light
}
