package render

import (
	"github.com/9Christian6/RenderFrameworkRIS/img"
	"github.com/9Christian6/RenderFrameworkRIS/sampler"
	"github.com/9Christian6/RenderFrameworkRIS/scene"
	"github.com/9Christian6/RenderFrameworkRIS/types"
)

// Normal-shading renderer for quick scene inspection: each pixel shows the
// absolute cosine between the interpolated shading normal and the view ray.
type DebugRenderer struct {
	scene  *scene.Scene
	cancel *CancelFlag
	iter   uint32
}

func NewDebugRenderer(sc *scene.Scene, cancel *CancelFlag) *DebugRenderer {
	return &DebugRenderer{scene: sc, cancel: cancel, iter: 1}
}

func (r *DebugRenderer) Name() string { return "debug" }

func (r *DebugRenderer) Reset() { r.iter = 1 }

func (r *DebugRenderer) Render(image *img.Image) {
	kx := 2.0 / float32(image.Width-1)
	ky := 2.0 / float32(image.Height-1)
	sc := r.scene

	processTiles(image.Width, image.Height, r.cancel, func(xmin, ymin, xmax, ymax int) {
		s := sampler.NewUniformSampler(sampler.Seed(uint32(xmin)^uint32(ymin), r.iter))
		for y := ymin; y < ymax; y++ {
			for x := xmin; x < xmax; x++ {
				ray := sc.Camera.GenRay(
					(float32(x)+s.Next())*kx-1.0,
					1.0-(float32(y)+s.Next())*ky,
				)
				hit := sc.Intersect(ray)

				color := types.Vec4{0, 0, 0, 1.0}
				if hit.Tri >= 0 {
					n0 := sc.Normals[sc.Indices[hit.Tri*4+0]]
					n1 := sc.Normals[sc.Indices[hit.Tri*4+1]]
					n2 := sc.Normals[sc.Indices[hit.Tri*4+2]]
					n := types.LerpBary3(n0, n1, n2, hit.U, hit.V).Normalize()
					k := n.Dot(ray.Dir)
					if k < 0 {
						k = -k
					}
					color = types.Vec4{k, k, k, 1.0}
				}

				image.Accumulate(x, y, color)
			}
		}
	})
	r.iter++
}
