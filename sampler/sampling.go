package sampler

import (
	"math"

	"github.com/9Christian6/RenderFrameworkRIS/types"
)

const pi = math.Pi

// A sampled direction together with the pdf it was drawn with.
type DirSample struct {
	Dir types.Vec3
	Pdf float32
}

// The probability to sample a direction on a uniform sphere.
func UniformSpherePdf() float32 {
	return 1.0 / (4.0 * pi)
}

// Sample a sphere uniformly.
func SampleUniformSphere(u, v float32) DirSample {
	c := 2.0*v - 1.0
	s := float32(math.Sqrt(float64(1.0 - c*c)))
	phi := 2.0 * pi * u
	dir := types.Vec3{
		s * float32(math.Cos(float64(phi))),
		s * float32(math.Sin(float64(phi))),
		c,
	}
	return DirSample{Dir: dir, Pdf: UniformSpherePdf()}
}

// The probability to sample a direction on a cosine-weighted hemisphere,
// given the cosine of the direction with the normal.
func CosineHemispherePdf(c float32) float32 {
	return c / pi
}

// Sample the hemisphere around coords.N proportionally to the cosine with
// the normal.
func SampleCosineHemisphere(coords types.LocalCoords, u, v float32) DirSample {
	r := float32(math.Sqrt(float64(u)))
	phi := 2.0 * pi * v
	x := r * float32(math.Cos(float64(phi)))
	y := r * float32(math.Sin(float64(phi)))
	z := float32(math.Sqrt(math.Max(0, float64(1.0-x*x-y*y))))
	return DirSample{
		Dir: coords.ToWorld(types.Vec3{x, y, z}),
		Pdf: z / pi,
	}
}

// The probability to sample a direction on a cosine-power-weighted
// hemisphere, given the cosine and the power.
func CosinePowerHemispherePdf(c, k float32) float32 {
	return (k + 1.0) / (2.0 * pi) * float32(math.Pow(float64(c), float64(k)))
}

// Sample the hemisphere around coords.N proportionally to cos^k with the
// normal.
func SampleCosinePowerHemisphere(coords types.LocalCoords, k, u, v float32) DirSample {
	cosTheta := float32(math.Pow(float64(u), float64(1.0/(k+1.0))))
	sinTheta := float32(math.Sqrt(math.Max(0, float64(1.0-cosTheta*cosTheta))))
	phi := 2.0 * pi * v
	dir := types.Vec3{
		sinTheta * float32(math.Cos(float64(phi))),
		sinTheta * float32(math.Sin(float64(phi))),
		cosTheta,
	}
	return DirSample{
		Dir: coords.ToWorld(dir),
		Pdf: CosinePowerHemispherePdf(cosTheta, k),
	}
}

// The survival probability of a path, given its contribution and the maximum
// survival probability allowed.
func RussianRoulette(c types.Vec3, max float32) float32 {
	q := 2.0 * types.Luma(c)
	if q > max {
		return max
	}
	return q
}
