package types

import "math"

// Rec. 709 luminance weights.
var luminanceWeights = Vec3{0.2126, 0.7152, 0.0722}

// Luminance of a linear RGB color.
func Luma(c Vec3) float32 {
	return c.Dot(luminanceWeights)
}

// Clamp a scalar to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Apply gamma correction (1/2.2) to an RGBA pixel; alpha is left linear.
func Gamma(c Vec4) Vec4 {
	const exp = 1.0 / 2.2
	return Vec4{
		float32(math.Pow(float64(c[0]), exp)),
		float32(math.Pow(float64(c[1]), exp)),
		float32(math.Pow(float64(c[2]), exp)),
		c[3],
	}
}
