package img

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/tiff"

	"github.com/9Christian6/RenderFrameworkRIS/types"
)

// Save an 8-bit gamma corrected PNG. The accumulated sums are divided by
// the sample count first.
func SavePNG(path string, img *Image, accum uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("img: could not create %s: %s", path, err.Error())
	}
	defer f.Close()

	if err = png.Encode(f, img.RGBA(accum)); err != nil {
		return fmt.Errorf("img: could not encode %s: %s", path, err.Error())
	}
	return nil
}

// Load a texture image. The decoder is selected by file extension; LDR
// formats are converted to linear floats by dividing out the 8-bit range.
func LoadTexture(path string) (*Image, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".exr" {
		return LoadEXR(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("img: could not open %s: %s", path, err.Error())
	}
	defer f.Close()

	var decoded image.Image
	switch ext {
	case ".png":
		decoded, err = png.Decode(f)
	case ".jpg", ".jpeg":
		decoded, err = jpeg.Decode(f)
	case ".tif", ".tiff":
		decoded, err = tiff.Decode(f)
	case ".tga":
		decoded, err = tga.Decode(f)
	default:
		return nil, fmt.Errorf("img: unsupported texture format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("img: could not decode %s: %s", path, err.Error())
	}

	return fromImage(decoded), nil
}

func fromImage(src image.Image) *Image {
	bounds := src.Bounds()
	out := New(bounds.Dx(), bounds.Dy())
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			r, g, b, a := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out.Set(x, y, types.Vec4{
				float32(r) / 65535.0,
				float32(g) / 65535.0,
				float32(b) / 65535.0,
				float32(a) / 65535.0,
			})
		}
	}
	return out
}
