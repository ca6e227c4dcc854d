package img

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/9Christian6/RenderFrameworkRIS/types"
)

func makeTestImage(w, h int) *Image {
	image := New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			image.Set(x, y, types.Vec4{
				float32(x) * 0.125,
				float32(y) * 0.25,
				float32(x+y) * 1e-3,
				1.0,
			})
		}
	}
	return image
}

func TestEXRSaveLoadSaveIsBitIdentical(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.exr")
	second := filepath.Join(dir, "second.exr")

	image := makeTestImage(33, 17)
	if err := SaveEXR(first, image, 1); err != nil {
		t.Fatalf("could not save: %s", err.Error())
	}

	loaded, err := LoadEXR(first)
	if err != nil {
		t.Fatalf("could not load: %s", err.Error())
	}
	if loaded.Width != image.Width || loaded.Height != image.Height {
		t.Fatalf("round trip changed dimensions: %dx%d -> %dx%d", image.Width, image.Height, loaded.Width, loaded.Height)
	}

	if err = SaveEXR(second, loaded, 1); err != nil {
		t.Fatalf("could not re-save: %s", err.Error())
	}

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("save->load->save is not bit identical (%d vs %d bytes)", len(a), len(b))
	}
}

func TestEXRPixelValuesSurviveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.exr")

	image := makeTestImage(8, 8)
	if err := SaveEXR(path, image, 1); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadEXR(path)
	if err != nil {
		t.Fatal(err)
	}

	for i, exp := range image.Pixels {
		if loaded.Pixels[i] != exp {
			t.Fatalf("pixel %d = %v; expected %v", i, loaded.Pixels[i], exp)
		}
	}
}

func TestEXRRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.exr")
	if err := os.WriteFile(path, []byte("not an exr file"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadEXR(path); err == nil {
		t.Fatalf("expected an error for a non-exr file")
	}
}

func TestSaveEXRDividesBySampleCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mean.exr")

	image := New(2, 2)
	for i := range image.Pixels {
		image.Pixels[i] = types.Vec4{4, 8, 12, 4}
	}

	if err := SaveEXR(path, image, 4); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadEXR(path)
	if err != nil {
		t.Fatal(err)
	}
	want := types.Vec4{1, 2, 3, 1}
	if loaded.Pixels[0] != want {
		t.Fatalf("mean pixel = %v; expected %v", loaded.Pixels[0], want)
	}
}
