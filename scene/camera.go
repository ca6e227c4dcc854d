package scene

import (
	"math"

	"github.com/9Christian6/RenderFrameworkRIS/types"
)

// A perspective camera. GenRay maps image plane coordinates in [-1, 1] to
// world-space rays; the motion handlers feed the interactive view.
type Camera struct {
	Eye types.Vec3
	Up  types.Vec3

	// Vertical field of view in degrees.
	FOV float32

	// Unit view direction and the image plane basis scaled by the field
	// of view and aspect ratio.
	dir   types.Vec3
	right types.Vec3
	up    types.Vec3

	aspect float32
}

func NewCamera(eye, center, up types.Vec3, fov float32) *Camera {
	c := &Camera{
		Eye: eye,
		Up:  up.Normalize(),
		FOV: fov,
		dir: center.Sub(eye).Normalize(),
	}
	return c
}

// Set up the image plane basis for the given aspect ratio (width/height).
func (c *Camera) SetupProjection(aspect float32) {
	c.aspect = aspect
	c.update()
}

func (c *Camera) update() {
	scale := float32(math.Tan(float64(c.FOV) * math.Pi / 360.0))
	right := c.dir.Cross(c.Up).Normalize()
	up := right.Cross(c.dir).Normalize()
	c.right = right.Mul(scale * c.aspect)
	c.up = up.Mul(scale)
}

// Generate a primary ray for image plane coordinates x, y in [-1, 1], with
// y pointing up.
func (c *Camera) GenRay(x, y float32) types.Ray {
	dir := c.dir.Add(c.right.Mul(x)).Add(c.up.Mul(y)).Normalize()
	return types.NewRay(c.Eye, dir, 0)
}

// Translate the camera along its local axes.
func (c *Camera) KeyboardMotion(dx, dy, dz float32) {
	move := c.right.Normalize().Mul(dx).
		Add(c.up.Normalize().Mul(dy)).
		Add(c.dir.Mul(dz))
	c.Eye = c.Eye.Add(move)
}

// Rotate the view direction by the given yaw/pitch deltas in radians.
func (c *Camera) MouseMotion(dx, dy float32) {
	right := c.dir.Cross(c.Up).Normalize()
	c.dir = rotateAround(c.dir, c.Up, -dx)
	c.dir = rotateAround(c.dir, right, -dy).Normalize()
	c.update()
}

// Rodrigues rotation of v around unit axis by angle radians.
func rotateAround(v, axis types.Vec3, angle float32) types.Vec3 {
	sin := float32(math.Sin(float64(angle)))
	cos := float32(math.Cos(float64(angle)))
	return v.Mul(cos).
		Add(axis.Cross(v).Mul(sin)).
		Add(axis.Mul(axis.Dot(v) * (1 - cos)))
}
