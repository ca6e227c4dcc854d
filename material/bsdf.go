package material

import (
	"math"

	"github.com/9Christian6/RenderFrameworkRIS/sampler"
	"github.com/9Christian6/RenderFrameworkRIS/types"
)

const pi = math.Pi

// Classification of BSDF shapes, used to make sampling decisions.
type BsdfType uint8

const (
	// Mostly diffuse, no major features.
	Diffuse BsdfType = iota
	// Mostly glossy, hard for photon mapping.
	Glossy
	// Purely specular; merging and connections are not possible.
	Specular
)

// Sample returned by a BSDF.
type BsdfSample struct {
	// Sampled incoming direction.
	In types.Vec3

	// Probability density, evaluated for the direction.
	Pdf float32

	// BSDF value for the sample. Like Eval this does not include the
	// cosine term; integrators multiply the geometric term explicitly.
	// Specular variants fold 1/|cos| into the value so that the term
	// cancels.
	Color types.Vec3
}

// A scattering model attached to a surface. Neither Eval nor Sample include
// the cosine term.
type Bsdf interface {
	Type() BsdfType
	Eval(in types.Vec3, surf *SurfaceParams, out types.Vec3) types.Vec3
	Sample(s *sampler.UniformSampler, surf *SurfaceParams, out types.Vec3, adjoint bool) BsdfSample
	Pdf(in types.Vec3, surf *SurfaceParams, out types.Vec3) float32
}

// Reject corner cases that would otherwise produce fireflies or NaNs: a zero
// pdf, or a direction on the wrong side of the geometric surface. Rejected
// samples carry a zero color and terminate the path at the call site.
func makeSample(dir types.Vec3, pdf float32, color types.Vec3, surf *SurfaceParams, belowSurface bool) BsdfSample {
	sign := dir.Dot(surf.FaceNormal)
	if pdf > 0 && ((belowSurface && sign < 0) || (!belowSurface && sign > 0)) {
		return BsdfSample{In: dir, Pdf: pdf, Color: color}
	}
	return BsdfSample{In: dir, Pdf: 0.0, Color: types.Vec3{}}
}

// Purely Lambertian material.
type DiffuseBsdf struct {
	Tex Texture
}

const diffuseKd float32 = 1.0 / pi

func (b *DiffuseBsdf) Type() BsdfType { return Diffuse }

func (b *DiffuseBsdf) Eval(in types.Vec3, surf *SurfaceParams, out types.Vec3) types.Vec3 {
	if in.Dot(surf.Coords.N) <= 0 || out.Dot(surf.Coords.N) <= 0 {
		return types.Vec3{}
	}
	return b.Tex.Sample(surf.UV[0], surf.UV[1]).Mul(diffuseKd)
}

func (b *DiffuseBsdf) Sample(s *sampler.UniformSampler, surf *SurfaceParams, out types.Vec3, adjoint bool) BsdfSample {
	ds := sampler.SampleCosineHemisphere(surf.Coords, s.Next(), s.Next())
	color := b.Tex.Sample(surf.UV[0], surf.UV[1]).Mul(diffuseKd)
	return makeSample(ds.Dir, ds.Pdf, color, surf, false)
}

func (b *DiffuseBsdf) Pdf(in types.Vec3, surf *SurfaceParams, out types.Vec3) float32 {
	return sampler.CosineHemispherePdf(maxf(in.Dot(surf.Coords.N), 0))
}

// Specular lobe of the modified (physically correct) Phong model.
type GlossyPhongBsdf struct {
	Tex Texture
	Ns  float32
	ks  float32
}

func NewGlossyPhongBsdf(tex Texture, ns float32) *GlossyPhongBsdf {
	return &GlossyPhongBsdf{
		Tex: tex,
		Ns:  ns,
		ks:  (ns + 2) / (2.0 * pi),
	}
}

func (b *GlossyPhongBsdf) Type() BsdfType { return Glossy }

func (b *GlossyPhongBsdf) reflectCosine(in types.Vec3, surf *SurfaceParams, out types.Vec3) float32 {
	return maxf(in.Dot(out.Reflect(surf.Coords.N)), 0)
}

func (b *GlossyPhongBsdf) Eval(in types.Vec3, surf *SurfaceParams, out types.Vec3) types.Vec3 {
	if in.Dot(surf.Coords.N) <= 0 || out.Dot(surf.Coords.N) <= 0 {
		return types.Vec3{}
	}
	p := powf(b.reflectCosine(in, surf, out), b.Ns)
	return b.Tex.Sample(surf.UV[0], surf.UV[1]).Mul(p * b.ks)
}

func (b *GlossyPhongBsdf) Sample(s *sampler.UniformSampler, surf *SurfaceParams, out types.Vec3, adjoint bool) BsdfSample {
	coords := types.GenLocalCoords(out.Reflect(surf.Coords.N))
	ds := sampler.SampleCosinePowerHemisphere(coords, b.Ns, s.Next(), s.Next())
	p := b.reflectCosine(ds.Dir, surf, out)
	color := b.Tex.Sample(surf.UV[0], surf.UV[1]).Mul(powf(p, b.Ns) * b.ks)
	return makeSample(ds.Dir, ds.Pdf, color, surf, false)
}

func (b *GlossyPhongBsdf) Pdf(in types.Vec3, surf *SurfaceParams, out types.Vec3) float32 {
	return sampler.CosinePowerHemispherePdf(b.reflectCosine(in, surf, out), b.Ns)
}

// Purely specular mirror.
type MirrorBsdf struct {
	Ks types.Vec3
}

func (b *MirrorBsdf) Type() BsdfType { return Specular }

func (b *MirrorBsdf) Eval(in types.Vec3, surf *SurfaceParams, out types.Vec3) types.Vec3 {
	return types.Vec3{}
}

func (b *MirrorBsdf) Sample(s *sampler.UniformSampler, surf *SurfaceParams, out types.Vec3, adjoint bool) BsdfSample {
	dir := out.Reflect(surf.Coords.N)
	cos := absf(dir.Dot(surf.Coords.N))
	if cos == 0 {
		return BsdfSample{In: dir, Pdf: 1.0, Color: types.Vec3{}}
	}
	return makeSample(dir, 1.0, b.Ks.Mul(1.0/cos), surf, false)
}

func (b *MirrorBsdf) Pdf(in types.Vec3, surf *SurfaceParams, out types.Vec3) float32 {
	return 0.0
}

// A separation between two media, capable of representing glass.
type GlassBsdf struct {
	// Relative index of refraction n1/n2 of the boundary.
	Eta float32

	// Reflectance and transmittance.
	Ks types.Vec3
	Kt types.Vec3
}

func NewGlassBsdf(n1, n2 float32, ks, kt types.Vec3) *GlassBsdf {
	return &GlassBsdf{Eta: n1 / n2, Ks: ks, Kt: kt}
}

func (b *GlassBsdf) Type() BsdfType { return Specular }

func (b *GlassBsdf) Eval(in types.Vec3, surf *SurfaceParams, out types.Vec3) types.Vec3 {
	return types.Vec3{}
}

func (b *GlassBsdf) Pdf(in types.Vec3, surf *SurfaceParams, out types.Vec3) float32 {
	return 0.0
}

func (b *GlassBsdf) Sample(s *sampler.UniformSampler, surf *SurfaceParams, out types.Vec3, adjoint bool) BsdfSample {
	k := b.Eta
	if !surf.Entering {
		k = 1.0 / b.Eta
	}
	cosI := out.Dot(surf.Coords.N)
	cos2T := 1.0 - k*k*(1.0-cosI*cosI)
	if cos2T > 0 {
		// Refraction branch unless Fresnel reflection wins the coin toss.
		cosT := float32(math.Sqrt(float64(cos2T)))
		f := fresnelFactor(k, cosI, cosT)
		if s.Next() > f {
			t := surf.Coords.N.Mul(k*cosI - cosT).Sub(out.Mul(k))
			color := b.Kt.Mul(1.0 / cosT)
			if adjoint {
				color = color.Mul(k * k)
			}
			return makeSample(t, 1.0, color, surf, true)
		}
	}

	// Total internal reflection or Fresnel reflection
	if cosI == 0 {
		return BsdfSample{In: out.Reflect(surf.Coords.N), Pdf: 1.0, Color: types.Vec3{}}
	}
	return makeSample(out.Reflect(surf.Coords.N), 1.0, b.Ks.Mul(1.0/absf(cosI)), surf, false)
}

// Fresnel factor for unpolarized light given the relative IOR and the
// cosines of the incident and transmitted directions.
func fresnelFactor(k, cosI, cosT float32) float32 {
	rs := (k*cosI - cosT) / (k*cosI + cosT)
	rp := (cosI - k*cosT) / (cosI + k*cosT)
	return (rs*rs + rp*rp) * 0.5
}

// A convex combination of two BSDFs with weight K for B. Its type is the
// broader of its children.
type CombineBsdf struct {
	A Bsdf
	B Bsdf
	K float32
}

func NewCombineBsdf(a, b Bsdf, k float32) *CombineBsdf {
	return &CombineBsdf{A: a, B: b, K: k}
}

func (c *CombineBsdf) Type() BsdfType {
	ta, tb := c.A.Type(), c.B.Type()
	if ta == Specular || tb == Specular {
		return Specular
	}
	if ta == Glossy || tb == Glossy {
		return Glossy
	}
	return Diffuse
}

func (c *CombineBsdf) Eval(in types.Vec3, surf *SurfaceParams, out types.Vec3) types.Vec3 {
	return types.Lerp3(c.A.Eval(in, surf, out), c.B.Eval(in, surf, out), c.K)
}

func (c *CombineBsdf) Sample(s *sampler.UniformSampler, surf *SurfaceParams, out types.Vec3, adjoint bool) BsdfSample {
	useB := s.Next() < c.K

	var smp BsdfSample
	if useB {
		smp = c.B.Sample(s, surf, out, adjoint)
	} else {
		smp = c.A.Sample(s, surf, out, adjoint)
	}

	// Mix in the pdf and value of the branch that was not sampled.
	if useB {
		smp.Pdf = lerpf(c.A.Pdf(smp.In, surf, out), smp.Pdf, c.K)
		smp.Color = types.Lerp3(c.A.Eval(smp.In, surf, out), smp.Color, c.K)
	} else {
		smp.Pdf = lerpf(smp.Pdf, c.B.Pdf(smp.In, surf, out), c.K)
		smp.Color = types.Lerp3(smp.Color, c.B.Eval(smp.In, surf, out), c.K)
	}
	return smp
}

func (c *CombineBsdf) Pdf(in types.Vec3, surf *SurfaceParams, out types.Vec3) float32 {
	return lerpf(c.A.Pdf(in, surf, out), c.B.Pdf(in, surf, out), c.K)
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func absf(a float32) float32 {
	if a < 0 {
		return -a
	}
	return a
}

func lerpf(a, b, s float32) float32 {
	return a + (b-a)*s
}

func powf(base, exp float32) float32 {
	return float32(math.Pow(float64(base), float64(exp)))
}
