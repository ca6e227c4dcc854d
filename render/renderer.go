package render

import (
	"github.com/9Christian6/RenderFrameworkRIS/img"
	"github.com/9Christian6/RenderFrameworkRIS/log"
)

const (
	// Offset applied to ray intervals to avoid self-intersection.
	Offset float32 = 1e-3

	// Fixed tile dimensions for the tile scheduler.
	TileWidth  = 32
	TileHeight = 32

	// Radius shrink exponent parameter of the progressive photon mapper.
	PPMAlpha float32 = 0.75

	// Default path length bounds.
	DefaultPTPathLen     = 64
	DefaultPPMEyePathLen = 10
)

var logger = log.New("render")

// A rendering strategy. Render accumulates one sample per pixel into the
// image; Reset restarts accumulation after a camera move or renderer swap.
type Renderer interface {
	Name() string
	Reset()
	Render(image *img.Image)
}
