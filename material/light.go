package material

import (
	"math"

	"github.com/9Christian6/RenderFrameworkRIS/sampler"
	"github.com/9Christian6/RenderFrameworkRIS/types"
)

// A direct lighting sample, used for next event estimation.
type DirectSample struct {
	// Sampled position on the light.
	Pos types.Vec3

	// Pdf in area measure (area lights) and in solid angle (point lights).
	PdfArea float32
	PdfDir  float32

	// Cosine between the light normal and the direction to the receiver.
	Cos float32

	// Emitted intensity.
	Intensity types.Vec3
}

// An emission sample, used to start photon paths.
type EmissionSample struct {
	Pos       types.Vec3
	Dir       types.Vec3
	PdfArea   float32
	PdfDir    float32
	Intensity types.Vec3
}

// Emission value for a direct hit on the light.
type EmissionValue struct {
	Intensity types.Vec3
}

// A light source.
type Light interface {
	// Sample the light as seen from a surface point.
	SampleDirect(from types.Vec3, s *sampler.UniformSampler) DirectSample

	// Sample a position and an outgoing direction on the light.
	SampleEmission(s *sampler.UniformSampler) EmissionSample

	// Emission towards the given direction, for paths that hit the light.
	Emission(out types.Vec3, u, v float32) EmissionValue

	// Whether the light has a surface area. Callers treat area and point
	// lights differently when converting pdfs to solid angle.
	HasArea() bool

	// The solid-angle density with which SampleDirect would have picked a
	// point hit at squared distance d2 with cosine cosLight at the light.
	// Zero for lights that cannot be hit.
	DirectPdf(d2, cosLight float32) float32
}

// An emissive triangle.
type TriangleLight struct {
	V0, V1, V2 types.Vec3

	// Uniform emitted radiance.
	Radiance types.Vec3

	normal types.Vec3
	area   float32
}

func NewTriangleLight(v0, v1, v2 types.Vec3, radiance types.Vec3) *TriangleLight {
	cross := v1.Sub(v0).Cross(v2.Sub(v0))
	return &TriangleLight{
		V0:       v0,
		V1:       v1,
		V2:       v2,
		Radiance: radiance,
		normal:   cross.Normalize(),
		area:     0.5 * cross.Len(),
	}
}

func (l *TriangleLight) Area() float32 {
	return l.area
}

// Uniform point on the triangle.
func (l *TriangleLight) samplePos(s *sampler.UniformSampler) types.Vec3 {
	u := float32(math.Sqrt(float64(s.Next())))
	v := s.Next()
	return l.V0.Mul(1 - u).
		Add(l.V1.Mul(u * (1 - v))).
		Add(l.V2.Mul(u * v))
}

func (l *TriangleLight) SampleDirect(from types.Vec3, s *sampler.UniformSampler) DirectSample {
	pos := l.samplePos(s)
	toReceiver := from.Sub(pos).Normalize()
	return DirectSample{
		Pos:       pos,
		PdfArea:   1.0 / l.area,
		PdfDir:    0,
		Cos:       maxf(l.normal.Dot(toReceiver), 0),
		Intensity: l.Radiance,
	}
}

func (l *TriangleLight) SampleEmission(s *sampler.UniformSampler) EmissionSample {
	pos := l.samplePos(s)
	coords := types.GenLocalCoords(l.normal)
	ds := sampler.SampleCosineHemisphere(coords, s.Next(), s.Next())
	cos := maxf(ds.Dir.Dot(l.normal), 0)
	return EmissionSample{
		Pos:     pos,
		Dir:     ds.Dir,
		PdfArea: 1.0 / l.area,
		PdfDir:  ds.Pdf,
		// Radiance weighted by the cosine of the emitted direction, so the
		// photon weight telescopes to L * area * pi.
		Intensity: l.Radiance.Mul(cos),
	}
}

func (l *TriangleLight) Emission(out types.Vec3, u, v float32) EmissionValue {
	return EmissionValue{Intensity: l.Radiance}
}

func (l *TriangleLight) HasArea() bool {
	return true
}

func (l *TriangleLight) DirectPdf(d2, cosLight float32) float32 {
	if cosLight <= 0 {
		return 0
	}
	return d2 / (l.area * cosLight)
}

// An isotropic point light.
type PointLight struct {
	Pos types.Vec3

	// Radiant intensity (power per solid angle).
	Intensity types.Vec3
}

func (l *PointLight) SampleDirect(from types.Vec3, s *sampler.UniformSampler) DirectSample {
	return DirectSample{
		Pos:     l.Pos,
		PdfArea: 0,
		// The light is a delta distribution; direct sampling picks its
		// single direction with certainty.
		PdfDir:    1.0,
		Cos:       1.0,
		Intensity: l.Intensity,
	}
}

func (l *PointLight) SampleEmission(s *sampler.UniformSampler) EmissionSample {
	ds := sampler.SampleUniformSphere(s.Next(), s.Next())
	return EmissionSample{
		Pos:       l.Pos,
		Dir:       ds.Dir,
		PdfArea:   1.0,
		PdfDir:    ds.Pdf,
		Intensity: l.Intensity,
	}
}

func (l *PointLight) Emission(out types.Vec3, u, v float32) EmissionValue {
	return EmissionValue{}
}

func (l *PointLight) HasArea() bool {
	return false
}

func (l *PointLight) DirectPdf(d2, cosLight float32) float32 {
	return 0
}
