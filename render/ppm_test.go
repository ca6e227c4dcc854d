package render

import (
	"math"
	"testing"

	"github.com/9Christian6/RenderFrameworkRIS/img"
	"github.com/9Christian6/RenderFrameworkRIS/scene"
)

func TestRadiusScheduleExact(t *testing.T) {
	const base = 0.5
	for iter := uint32(1); iter <= 64; iter++ {
		exp := base * float32(math.Pow(float64(iter), -0.5*(1.0-float64(PPMAlpha))))
		got := RadiusSchedule(base, iter)
		if math.Abs(float64(got-exp)) > 1e-6 {
			t.Fatalf("radius at iteration %d = %f; expected %f", iter, got, exp)
		}
	}
	if RadiusSchedule(base, 1) != base {
		t.Fatalf("radius at iteration 1 must equal the base radius")
	}
}

func TestPhotonMapperConverges(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping ppm render in short mode")
	}

	sc := scene.Cornell()
	const w, h = 32, 32
	sc.Camera.SetupProjection(float32(w) / float32(h))

	r := NewPhotonMapper(sc, 8, nil)
	image := img.New(w, h)

	const iters = 4
	for i := 0; i < iters; i++ {
		r.Render(image)
	}

	if len(r.photons) == 0 {
		t.Fatalf("photon pass stored no photons")
	}
	if r.radius >= r.baseRadius {
		t.Fatalf("radius %f did not shrink below base %f after %d iterations", r.radius, r.baseRadius, iters)
	}

	nonZero := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix := image.At(x, y)
			for c := 0; c < 3; c++ {
				if math.IsNaN(float64(pix[c])) || math.IsInf(float64(pix[c]), 0) || pix[c] < 0 {
					t.Fatalf("pixel (%d,%d) channel %d is %f", x, y, c, pix[c])
				}
			}
			if pix[0]+pix[1]+pix[2] > 0 {
				nonZero++
			}
			if pix[3] != iters {
				t.Fatalf("pixel (%d,%d) accumulated %f samples; expected %d", x, y, pix[3], iters)
			}
		}
	}
	if nonZero == 0 {
		t.Fatalf("eye pass produced an entirely black image")
	}
}
