package render

import (
	"testing"

	"github.com/9Christian6/RenderFrameworkRIS/img"
	"github.com/9Christian6/RenderFrameworkRIS/scene"
)

func TestDebugRendererCornell(t *testing.T) {
	sc := scene.Cornell()
	const w, h = 128, 128
	sc.Camera.SetupProjection(float32(w) / float32(h))

	r := NewDebugRenderer(sc, nil)
	image := img.New(w, h)
	r.Render(image)

	nonZero := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix := image.At(x, y)
			for c := 0; c < 3; c++ {
				if pix[c] < 0 || pix[c] > 1 {
					t.Fatalf("pixel (%d,%d) channel %d = %f outside [0,1]", x, y, c, pix[c])
				}
			}
			if pix[0] > 0 {
				nonZero++
			}
		}
	}
	if nonZero == 0 {
		t.Fatalf("debug render of the box is entirely black")
	}
}

func TestProcessTilesCoversImageExactlyOnce(t *testing.T) {
	type spec struct {
		w, h int
	}
	specs := []spec{
		{64, 64},
		{100, 70},
		{31, 33},
		{1, 1},
	}

	for index, sp := range specs {
		covered := make([]int, sp.w*sp.h)
		processTiles(sp.w, sp.h, nil, func(xmin, ymin, xmax, ymax int) {
			for y := ymin; y < ymax; y++ {
				for x := xmin; x < xmax; x++ {
					covered[y*sp.w+x]++
				}
			}
		})
		for i, c := range covered {
			if c != 1 {
				t.Fatalf("[spec %d] pixel %d covered %d times", index, i, c)
			}
		}
	}
}

func TestCancelStopsBetweenTiles(t *testing.T) {
	var cancel CancelFlag
	cancel.Cancel()

	ran := 0
	processTiles(256, 256, &cancel, func(xmin, ymin, xmax, ymax int) {
		ran++
	})
	if ran != 0 {
		t.Fatalf("cancelled run still processed %d tiles", ran)
	}
}
