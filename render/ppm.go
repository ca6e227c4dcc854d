package render

import (
	"math"
	"sync"

	"github.com/9Christian6/RenderFrameworkRIS/img"
	"github.com/9Christian6/RenderFrameworkRIS/material"
	"github.com/9Christian6/RenderFrameworkRIS/sampler"
	"github.com/9Christian6/RenderFrameworkRIS/scene"
	"github.com/9Christian6/RenderFrameworkRIS/types"
)

// Number of light paths each photon batch traces before merging.
const photonBatchSize = 32

// A stored photon: the path contribution, the surface it landed on and the
// direction it arrived from.
type photon struct {
	contrib types.Vec3
	surf    material.SurfaceParams
	inDir   types.Vec3
}

// Progressive photon mapper. Every iteration traces one light path per
// pixel, rebuilds the photon index with a shrinking kernel radius and
// gathers density estimates along eye paths.
type PhotonMapper struct {
	scene      *scene.Scene
	cancel     *CancelFlag
	maxPathLen int
	eyePathLen int
	iter       uint32

	baseRadius float32
	radius     float32

	photons     []photon
	photonMutex sync.Mutex
	grid        HashGrid
}

func NewPhotonMapper(sc *scene.Scene, maxPathLen int, cancel *CancelFlag) *PhotonMapper {
	if maxPathLen <= 0 {
		maxPathLen = DefaultPTPathLen
	}
	return &PhotonMapper{
		scene:      sc,
		cancel:     cancel,
		maxPathLen: maxPathLen,
		eyePathLen: DefaultPPMEyePathLen,
		iter:       1,
	}
}

func (r *PhotonMapper) Name() string { return "ppm" }

func (r *PhotonMapper) Reset() { r.iter = 1 }

// Kernel radius for iteration i: base * i^(-(1-alpha)/2). The schedule
// drives the bias to zero while keeping the variance bounded.
func RadiusSchedule(base float32, iter uint32) float32 {
	return base / float32(math.Pow(float64(iter), 0.5*float64(1.0-PPMAlpha)))
}

func (r *PhotonMapper) Render(image *img.Image) {
	if r.iter == 1 {
		r.baseRadius = 2.0 * r.estimatePixelSize(image.Width, image.Height)
	}

	kx := 2.0 / float32(image.Width-1)
	ky := 2.0 / float32(image.Height-1)
	lightPathCount := image.Width * image.Height

	// Photon pass: trace one light path per pixel in batches; each batch
	// owns a local buffer merged under the only mutex in the render path.
	r.photons = r.photons[:0]
	numBatches := (lightPathCount + photonBatchSize - 1) / photonBatchSize
	parallelRange(numBatches, r.cancel, func(batch int) {
		var buffer []photon
		s := sampler.NewUniformSampler(sampler.Seed(uint32(batch), r.iter))

		num := lightPathCount - batch*photonBatchSize
		if num > photonBatchSize {
			num = photonBatchSize
		}
		for i := 0; i < num; i++ {
			r.tracePhotons(&buffer, s)
		}

		r.photonMutex.Lock()
		r.photons = append(r.photons, buffer...)
		r.photonMutex.Unlock()
	})

	// Build the photon map
	r.radius = RadiusSchedule(r.baseRadius, r.iter)
	r.grid.Build(func(i int) types.Vec3 { return r.photons[i].surf.Point }, len(r.photons), r.radius)
	logger.Debugf("iteration %d: %d photons, gather radius %f", r.iter, len(r.photons), r.radius)

	// Eye pass
	processTiles(image.Width, image.Height, r.cancel, func(xmin, ymin, xmax, ymax int) {
		s := sampler.NewUniformSampler(sampler.Seed(uint32(xmin)^uint32(ymin), r.iter))
		for y := ymin; y < ymax; y++ {
			for x := xmin; x < xmax; x++ {
				ray := r.scene.Camera.GenRay(
					(float32(x)+s.Next())*kx-1.0,
					1.0-(float32(y)+s.Next())*ky,
				)
				image.Accumulate(x, y, r.traceEyePath(ray, s, lightPathCount).Vec4(1.0))
			}
		}
	})
	r.iter++
}

// Trace one light path, depositing a photon at every non-specular vertex.
func (r *PhotonMapper) tracePhotons(buffer *[]photon, s *sampler.UniformSampler) {
	sc := r.scene
	if len(sc.Lights) == 0 {
		return
	}

	lightIdx := int(s.Next() * float32(len(sc.Lights)))
	if lightIdx >= len(sc.Lights) {
		lightIdx = len(sc.Lights) - 1
	}
	light := sc.Lights[lightIdx]

	emission := light.SampleEmission(s)
	pdf := emission.PdfArea * emission.PdfDir * (1.0 / float32(len(sc.Lights)))
	if pdf <= 0 {
		return
	}
	contrib := emission.Intensity.Mul(1.0 / pdf)

	ray := types.NewRay(emission.Pos, emission.Dir, Offset)
	for pathLen := 0; pathLen < r.maxPathLen; pathLen++ {
		hit := sc.Intersect(ray)
		if hit.Tri < 0 {
			break
		}

		surf := sc.SurfaceParams(ray, hit)
		mat := sc.Material(hit)
		out := ray.Dir.Neg()
		if mat.Bsdf == nil {
			break
		}

		if mat.Bsdf.Type() != material.Specular {
			*buffer = append(*buffer, photon{contrib: contrib, surf: surf, inDir: out})
		}

		// Photon tracing transports importance, so the BSDF is sampled
		// in adjoint mode.
		smp := mat.Bsdf.Sample(s, &surf, out, true)
		if smp.Pdf <= 0 {
			break
		}
		cosTheta := absf(smp.In.Dot(surf.FaceNormal))
		contrib = contrib.MulVec(smp.Color).Mul(cosTheta / smp.Pdf)
		ray = types.NewRay(surf.Point, smp.In, Offset)

		// Russian Roulette
		if pathLen > 2 {
			q := types.Luma(contrib)
			if q > 0.95 {
				q = 0.95
			}
			if s.Next() > q {
				break
			}
			contrib = contrib.Mul(1.0 / q)
		}
	}
}

// Trace an eye path through specular bounces and gather photon density at
// the first non-specular surface. Terminating there keeps the estimator
// consistent as the radius shrinks.
func (r *PhotonMapper) traceEyePath(ray types.Ray, s *sampler.UniformSampler, lightPathCount int) types.Vec3 {
	sc := r.scene
	var color types.Vec3

	ray.Tmin = Offset
	for pathLen := 0; pathLen < r.eyePathLen; pathLen++ {
		hit := sc.Intersect(ray)
		if hit.Tri < 0 {
			break
		}

		surf := sc.SurfaceParams(ray, hit)
		mat := sc.Material(hit)
		out := ray.Dir.Neg()

		if mat.Emitter != nil && surf.Entering {
			emission := mat.Emitter.Emission(out, hit.U, hit.V)
			color = color.Add(emission.Intensity)
		}

		if mat.Bsdf == nil {
			break
		}

		if mat.Bsdf.Type() != material.Specular {
			r2 := r.radius * r.radius
			norm := 3.0 / (4.0 * float32(math.Pi) * r2 * float32(lightPathCount))

			var accumulated types.Vec3
			r.grid.Query(surf.Point, func(i int) types.Vec3 { return r.photons[i].surf.Point }, func(i int, d2 float32) {
				p := &r.photons[i]
				w := 0.75 * (1.0 - d2/r2)
				bsdfVal := mat.Bsdf.Eval(p.inDir, &surf, out)
				cosTheta := absf(p.inDir.Dot(surf.Coords.N))
				accumulated = accumulated.Add(bsdfVal.MulVec(p.contrib).Mul(cosTheta * w * norm))
			})
			return color.Add(accumulated)
		}

		smp := mat.Bsdf.Sample(s, &surf, out, false)
		if smp.Pdf <= 0 {
			break
		}
		ray = types.NewRay(surf.Point, smp.In, Offset)
	}

	return color
}

// Estimate the world-space footprint of a pixel from the mean distance
// between neighboring camera rays sampled on an 8-pixel grid. Used once on
// the first iteration to pick the base kernel radius.
func (r *PhotonMapper) estimatePixelSize(w, h int) float32 {
	sc := r.scene
	kx := 2.0 / float32(w-1)
	ky := 2.0 / float32(h-1)

	bins := (h + 7) / 8
	dists := make([]float32, bins)
	counts := make([]int, bins)

	parallelRange(bins, r.cancel, func(bin int) {
		y := bin * 8
		var d float32
		c := 0
		for x := 0; x < w; x += 8 {
			var rays [4]types.Ray
			var hits [4]types.Hit
			for i := 0; i < 4; i++ {
				dx, dy := 0, 0
				if i%2 == 1 {
					dx = 4
				}
				if i/2 == 1 {
					dy = 4
				}
				rays[i] = sc.Camera.GenRay(
					float32(x+dx)*kx-1.0,
					1.0-float32(y+dy)*ky,
				)
				hits[i] = sc.Intersect(rays[i])
			}
			evalDistance := func(i, j int) {
				if hits[i].Tri >= 0 && hits[i].Tri == hits[j].Tri {
					d += rays[i].At(hits[i].T).Sub(rays[j].At(hits[j].T)).Len()
					c++
				}
			}
			evalDistance(0, 1)
			evalDistance(2, 3)
			evalDistance(0, 2)
			evalDistance(1, 3)
		}
		dists[bin] = d
		counts[bin] = c
	})

	var totalDist float32
	totalCount := 0
	for i := range dists {
		totalDist += dists[i]
		totalCount += counts[i]
	}

	if totalCount == 0 {
		return 1.0
	}
	return totalDist / float32(4*totalCount)
}
