package img

import (
	"image"
	"image/color"

	"github.com/9Christian6/RenderFrameworkRIS/types"
)

// A dense row-major buffer of four-channel float pixels. Renderers
// accumulate into it; the alpha channel carries the per-pixel sample count.
type Image struct {
	Width  int
	Height int
	Pixels []types.Vec4
}

func New(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pixels: make([]types.Vec4, width*height),
	}
}

func (img *Image) At(x, y int) types.Vec4 {
	return img.Pixels[y*img.Width+x]
}

func (img *Image) Set(x, y int, pix types.Vec4) {
	img.Pixels[y*img.Width+x] = pix
}

func (img *Image) Accumulate(x, y int, pix types.Vec4) {
	i := y*img.Width + x
	img.Pixels[i] = img.Pixels[i].Add(pix)
}

func (img *Image) Row(y int) []types.Vec4 {
	return img.Pixels[y*img.Width : (y+1)*img.Width]
}

// Reset the accumulator.
func (img *Image) Clear() {
	for i := range img.Pixels {
		img.Pixels[i] = types.Vec4{}
	}
}

// Convert the accumulated sums into an 8-bit sRGB image, dividing by the
// sample count and applying gamma.
func (img *Image) RGBA(accum uint32) *image.RGBA {
	if accum == 0 {
		accum = 1
	}
	inv := 1.0 / float32(accum)

	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			pix := types.Gamma(img.At(x, y).Mul(inv))
			out.SetRGBA(x, y, color.RGBA{
				R: uint8(types.Clamp(pix[0], 0, 1) * 255.0),
				G: uint8(types.Clamp(pix[1], 0, 1) * 255.0),
				B: uint8(types.Clamp(pix[2], 0, 1) * 255.0),
				A: uint8(types.Clamp(pix[3], 0, 1) * 255.0),
			})
		}
	}
	return out
}

// Divide the accumulated sums by the sample count, yielding the mean image.
func (img *Image) Mean(accum uint32) *Image {
	if accum == 0 {
		accum = 1
	}
	inv := 1.0 / float32(accum)

	out := New(img.Width, img.Height)
	for i, pix := range img.Pixels {
		out.Pixels[i] = pix.Mul(inv)
	}
	return out
}
