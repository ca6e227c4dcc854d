package material

import (
	"math"

	"github.com/9Christian6/RenderFrameworkRIS/img"
	"github.com/9Christian6/RenderFrameworkRIS/types"
)

// A 2D color source addressed by normalized UV coordinates.
type Texture interface {
	Sample(u, v float32) types.Vec3
}

// A single-color texture.
type ConstTexture struct {
	Color types.Vec3
}

func (t ConstTexture) Sample(u, v float32) types.Vec3 {
	return t.Color
}

// An image-backed texture with repeat wrapping and bilinear filtering.
type ImageTexture struct {
	Image *img.Image
	Scale float32
}

func NewImageTexture(image *img.Image) *ImageTexture {
	return &ImageTexture{Image: image, Scale: 1.0}
}

func (t *ImageTexture) Sample(u, v float32) types.Vec3 {
	w, h := t.Image.Width, t.Image.Height
	x := wrap(u) * float32(w-1)
	y := wrap(v) * float32(h-1)

	x0 := int(x)
	y0 := int(y)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 >= w {
		x1 = w - 1
	}
	if y1 >= h {
		y1 = h - 1
	}
	fx := x - float32(x0)
	fy := y - float32(y0)

	p00 := t.Image.At(x0, y0).Vec3()
	p10 := t.Image.At(x1, y0).Vec3()
	p01 := t.Image.At(x0, y1).Vec3()
	p11 := t.Image.At(x1, y1).Vec3()

	top := types.Lerp3(p00, p10, fx)
	bottom := types.Lerp3(p01, p11, fx)
	return types.Lerp3(top, bottom, fy).Mul(t.Scale)
}

func wrap(v float32) float32 {
	f := v - float32(math.Floor(float64(v)))
	if f < 0 {
		f += 1
	}
	return f
}
