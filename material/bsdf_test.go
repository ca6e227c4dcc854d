package material

import (
	"math"
	"testing"

	"github.com/9Christian6/RenderFrameworkRIS/sampler"
	"github.com/9Christian6/RenderFrameworkRIS/types"
)

func testSurface() *SurfaceParams {
	n := types.Vec3{0, 0, 1}
	return &SurfaceParams{
		Entering:   true,
		Point:      types.Vec3{},
		UV:         types.Vec2{0.5, 0.5},
		FaceNormal: n,
		Coords:     types.GenLocalCoords(n),
	}
}

func randomHemisphereDir(s *sampler.UniformSampler) types.Vec3 {
	for {
		ds := sampler.SampleUniformSphere(s.Next(), s.Next())
		if ds.Dir[2] > 0.05 {
			return ds.Dir
		}
	}
}

func TestNonSpecularReciprocity(t *testing.T) {
	type spec struct {
		name string
		bsdf Bsdf
	}
	specs := []spec{
		{"diffuse", &DiffuseBsdf{Tex: ConstTexture{Color: types.Vec3{0.7, 0.5, 0.3}}}},
		{"glossy", NewGlossyPhongBsdf(ConstTexture{Color: types.Vec3{0.9, 0.9, 0.9}}, 32)},
	}

	surf := testSurface()
	s := sampler.NewUniformSampler(13)
	for index, sp := range specs {
		for trial := 0; trial < 1000; trial++ {
			in := randomHemisphereDir(s)
			out := randomHemisphereDir(s)

			fwd := sp.bsdf.Eval(in, surf, out)
			rev := sp.bsdf.Eval(out, surf, in)
			for c := 0; c < 3; c++ {
				ref := float64(fwd[c])
				if ref < 1e-6 {
					ref = 1e-6
				}
				if math.Abs(float64(fwd[c]-rev[c]))/ref > 1e-5 {
					t.Fatalf("[spec %d:%s] eval is not reciprocal: %v vs %v", index, sp.name, fwd, rev)
				}
			}
		}
	}
}

func TestDiffuseSampleMatchesEvalAndPdf(t *testing.T) {
	bsdf := &DiffuseBsdf{Tex: ConstTexture{Color: types.Vec3{0.8, 0.8, 0.8}}}
	surf := testSurface()
	out := types.Vec3{0, 0, 1}

	s := sampler.NewUniformSampler(3)
	for trial := 0; trial < 1000; trial++ {
		smp := bsdf.Sample(s, surf, out, false)
		if smp.Pdf <= 0 {
			continue
		}
		wantPdf := bsdf.Pdf(smp.In, surf, out)
		if math.Abs(float64(smp.Pdf-wantPdf)) > 1e-5 {
			t.Fatalf("sample pdf %f disagrees with Pdf() %f", smp.Pdf, wantPdf)
		}
		wantColor := bsdf.Eval(smp.In, surf, out)
		for c := 0; c < 3; c++ {
			if math.Abs(float64(smp.Color[c]-wantColor[c])) > 1e-5 {
				t.Fatalf("sample color %v disagrees with Eval() %v", smp.Color, wantColor)
			}
		}
	}
}

func TestMirrorReflectsExactly(t *testing.T) {
	bsdf := &MirrorBsdf{Ks: types.Vec3{1, 1, 1}}
	surf := testSurface()
	out := types.Vec3{1, 0, 1}.Normalize()

	s := sampler.NewUniformSampler(5)
	smp := bsdf.Sample(s, surf, out, false)

	want := out.Reflect(surf.Coords.N)
	if smp.In.Sub(want).Len() > 1e-6 {
		t.Fatalf("mirror sampled %v; expected reflection %v", smp.In, want)
	}

	// The folded 1/cos must cancel the geometric term applied by the
	// integrator, leaving the reflectance untouched.
	cos := absf(smp.In.Dot(surf.Coords.N))
	carried := smp.Color.Mul(cos / smp.Pdf)
	if math.Abs(float64(carried[0]-1.0)) > 1e-5 {
		t.Fatalf("mirror throughput = %v; expected 1", carried)
	}

	if bsdf.Pdf(smp.In, surf, out) != 0 {
		t.Fatalf("specular pdf must be zero")
	}
	if e := bsdf.Eval(smp.In, surf, out); e.Len() != 0 {
		t.Fatalf("specular eval must be zero; got %v", e)
	}
}

func TestGlassTotalInternalReflection(t *testing.T) {
	// Leaving a dense medium at a grazing angle forces reflection.
	bsdf := NewGlassBsdf(1.0, 1.5, types.Vec3{1, 1, 1}, types.Vec3{1, 1, 1})
	surf := testSurface()
	surf.Entering = false

	out := types.Vec3{0.95, 0, 0.3122499}.Normalize()
	want := out.Reflect(surf.Coords.N)

	s := sampler.NewUniformSampler(7)
	for trial := 0; trial < 100; trial++ {
		smp := bsdf.Sample(s, surf, out, false)
		if smp.In.Sub(want).Len() > 1e-5 {
			t.Fatalf("expected total internal reflection towards %v; got %v", want, smp.In)
		}
	}
}

func TestGlassRefractionDirection(t *testing.T) {
	bsdf := NewGlassBsdf(1.0, 1.5, types.Vec3{1, 1, 1}, types.Vec3{1, 1, 1})
	surf := testSurface()
	out := types.Vec3{0, 0, 1}

	// At normal incidence the refracted ray continues straight through.
	s := sampler.NewUniformSampler(11)
	sawRefraction := false
	for trial := 0; trial < 100; trial++ {
		smp := bsdf.Sample(s, surf, out, false)
		if smp.In[2] < 0 {
			sawRefraction = true
			if smp.In.Sub(types.Vec3{0, 0, -1}).Len() > 1e-5 {
				t.Fatalf("normal-incidence refraction should continue straight; got %v", smp.In)
			}
		}
	}
	if !sawRefraction {
		t.Fatalf("never sampled the refraction branch at normal incidence")
	}
}

func TestCombineTypeBroadens(t *testing.T) {
	diffuse := &DiffuseBsdf{Tex: ConstTexture{Color: types.Vec3{1, 1, 1}}}
	glossy := NewGlossyPhongBsdf(ConstTexture{Color: types.Vec3{1, 1, 1}}, 16)
	mirror := &MirrorBsdf{Ks: types.Vec3{1, 1, 1}}

	type spec struct {
		a, b Bsdf
		exp  BsdfType
	}
	specs := []spec{
		{diffuse, diffuse, Diffuse},
		{diffuse, glossy, Glossy},
		{glossy, diffuse, Glossy},
		{diffuse, mirror, Specular},
		{mirror, glossy, Specular},
	}

	for index, sp := range specs {
		if got := NewCombineBsdf(sp.a, sp.b, 0.5).Type(); got != sp.exp {
			t.Fatalf("[spec %d] combine type = %d; expected %d", index, got, sp.exp)
		}
	}
}

func TestCombinePdfIsLerp(t *testing.T) {
	diffuse := &DiffuseBsdf{Tex: ConstTexture{Color: types.Vec3{1, 1, 1}}}
	glossy := NewGlossyPhongBsdf(ConstTexture{Color: types.Vec3{1, 1, 1}}, 8)
	combined := NewCombineBsdf(diffuse, glossy, 0.25)

	surf := testSurface()
	s := sampler.NewUniformSampler(17)
	out := types.Vec3{0, 0, 1}
	for trial := 0; trial < 200; trial++ {
		in := randomHemisphereDir(s)
		want := 0.75*diffuse.Pdf(in, surf, out) + 0.25*glossy.Pdf(in, surf, out)
		if got := combined.Pdf(in, surf, out); math.Abs(float64(got-want)) > 1e-5 {
			t.Fatalf("combine pdf = %f; expected %f", got, want)
		}
	}
}
