package render

import (
	"github.com/9Christian6/RenderFrameworkRIS/img"
	"github.com/9Christian6/RenderFrameworkRIS/material"
	"github.com/9Christian6/RenderFrameworkRIS/sampler"
	"github.com/9Christian6/RenderFrameworkRIS/scene"
	"github.com/9Christian6/RenderFrameworkRIS/types"
)

// Iterative unidirectional path tracer with next event estimation, multiple
// importance sampling and Russian Roulette.
type PathTracer struct {
	scene      *scene.Scene
	cancel     *CancelFlag
	maxPathLen int
	iter       uint32
}

func NewPathTracer(sc *scene.Scene, maxPathLen int, cancel *CancelFlag) *PathTracer {
	if maxPathLen <= 0 {
		maxPathLen = DefaultPTPathLen
	}
	return &PathTracer{scene: sc, cancel: cancel, maxPathLen: maxPathLen, iter: 1}
}

func (r *PathTracer) Name() string { return "pt" }

func (r *PathTracer) Reset() { r.iter = 1 }

func (r *PathTracer) Render(image *img.Image) {
	kx := 2.0 / float32(image.Width-1)
	ky := 2.0 / float32(image.Height-1)

	processTiles(image.Width, image.Height, r.cancel, func(xmin, ymin, xmax, ymax int) {
		s := sampler.NewUniformSampler(sampler.Seed(uint32(xmin)^uint32(ymin), r.iter))
		for y := ymin; y < ymax; y++ {
			for x := xmin; x < xmax; x++ {
				ray := r.scene.Camera.GenRay(
					(float32(x)+s.Next())*kx-1.0,
					1.0-(float32(y)+s.Next())*ky,
				)
				image.Accumulate(x, y, r.trace(ray, s).Vec4(1.0))
			}
		}
	})
	r.iter++
}

func (r *PathTracer) trace(ray types.Ray, s *sampler.UniformSampler) types.Vec3 {
	sc := r.scene

	var color types.Vec3
	throughput := types.Vec3{1, 1, 1}

	// MIS bookkeeping for implicit emitter hits. The camera vertex counts
	// as specular so primary hits on a light are taken at full weight.
	prevSpecular := true
	var prevPdf float32

	ray.Tmin = Offset
	for pathLen := 0; pathLen < r.maxPathLen; pathLen++ {
		hit := sc.Intersect(ray)
		if hit.Tri < 0 {
			break
		}

		surf := sc.SurfaceParams(ray, hit)
		mat := sc.Material(hit)
		out := ray.Dir.Neg()

		// Direct hits on a light source, weighted against the NEE pdf of
		// sampling the same direction (balance heuristic).
		if mat.Emitter != nil && surf.Entering {
			weight := float32(1.0)
			if !prevSpecular {
				lightPdf := mat.Emitter.DirectPdf(hit.T*hit.T, out.Dot(surf.FaceNormal))
				if prevPdf+lightPdf > 0 {
					weight = prevPdf / (prevPdf + lightPdf)
				} else {
					weight = 0
				}
			}
			emission := mat.Emitter.Emission(out, hit.U, hit.V)
			color = color.Add(throughput.MulVec(emission.Intensity).Mul(weight))
		}

		// Materials without BSDFs act like black bodies
		if mat.Bsdf == nil {
			break
		}
		specular := mat.Bsdf.Type() == material.Specular

		// Next event estimation
		if !specular && len(sc.Lights) > 0 {
			color = color.Add(throughput.MulVec(r.sampleDirect(&surf, out, mat.Bsdf, s)))
		}

		// Russian Roulette for path termination
		if pathLen > 3 {
			q := throughput.MaxComponent()
			if q > 0.95 {
				q = 0.95
			}
			if s.Next() > q {
				break
			}
			throughput = throughput.Mul(1.0 / q)
		}

		// Sample new direction from the BSDF
		smp := mat.Bsdf.Sample(s, &surf, out, false)
		if smp.Pdf <= 0 {
			break
		}
		cosTheta := absf(smp.In.Dot(surf.Coords.N))
		throughput = throughput.MulVec(smp.Color).Mul(cosTheta / smp.Pdf)

		prevSpecular = specular
		prevPdf = smp.Pdf
		if specular {
			prevPdf = 0
		}
		ray = types.NewRay(surf.Point, smp.In, Offset)
	}
	return color
}

// One-sample next event estimation with the balance heuristic: pick a light
// uniformly, sample it, and weigh the unoccluded contribution against the
// BSDF pdf of the same direction.
func (r *PathTracer) sampleDirect(surf *material.SurfaceParams, out types.Vec3, bsdf material.Bsdf, s *sampler.UniformSampler) types.Vec3 {
	sc := r.scene

	lightIdx := int(s.Next() * float32(len(sc.Lights)))
	if lightIdx >= len(sc.Lights) {
		lightIdx = len(sc.Lights) - 1
	}
	lightSelectProb := 1.0 / float32(len(sc.Lights))

	light := sc.Lights[lightIdx]
	ls := light.SampleDirect(surf.Point, s)
	toLight := ls.Pos.Sub(surf.Point)
	dist := toLight.Len()
	if dist <= Offset {
		return types.Vec3{}
	}
	lightDir := toLight.Mul(1.0 / dist)

	shadowRay := types.NewRaySegment(surf.Point, lightDir, Offset, dist-Offset)
	if sc.Occluded(shadowRay) {
		return types.Vec3{}
	}

	bsdfVal := bsdf.Eval(lightDir, surf, out)
	bsdfPdf := bsdf.Pdf(lightDir, surf, out)

	// Convert the light pdf to solid angle
	var lightPdf float32
	li := ls.Intensity
	if light.HasArea() {
		if ls.Cos <= 0 {
			return types.Vec3{}
		}
		lightPdf = ls.PdfArea * dist * dist / ls.Cos
	} else {
		lightPdf = ls.PdfDir
		li = li.Mul(1.0 / (dist * dist))
	}
	if lightPdf <= 0 {
		return types.Vec3{}
	}

	var wNee float32
	if sum := lightPdf + bsdfPdf; sum > 0 {
		wNee = lightPdf / sum
	}

	cosTheta := absf(lightDir.Dot(surf.Coords.N))
	return bsdfVal.MulVec(li).Mul(cosTheta * wNee / (lightPdf * lightSelectProb))
}

func absf(a float32) float32 {
	if a < 0 {
		return -a
	}
	return a
}
