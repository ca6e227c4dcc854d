package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/9Christian6/RenderFrameworkRIS/display"
	"github.com/9Christian6/RenderFrameworkRIS/img"
	"github.com/9Christian6/RenderFrameworkRIS/render"
	"github.com/9Christian6/RenderFrameworkRIS/scene"
)

// Render a scene with the selected algorithm, headless or interactively,
// and save the accumulated image on exit.
func Render(ctx *cli.Context) error {
	setupLogging(ctx)

	width := ctx.Int("width")
	height := ctx.Int("height")
	output := ctx.String("output")
	maxSamples := uint32(ctx.Int("samples"))
	maxTime := ctx.Float64("time")
	algo := ctx.String("algo")

	if ctx.NArg() == 0 {
		logger.Error("no configuration file specified")
		return cli.NewExitError("no configuration file specified", 1)
	}
	if ctx.NArg() > 1 {
		logger.Warning("too many configuration files specified, all but the first will be ignored")
	}

	sc, err := scene.ReadScene(ctx.Args().First())
	if err != nil {
		logger.Error(err)
		return cli.NewExitError(err.Error(), 1)
	}
	sc.Camera.SetupProjection(float32(width) / float32(height))
	logger.Noticef("scene statistics\n%s", sc.Stats())

	cancel := &render.CancelFlag{}
	renderers := []render.Renderer{
		render.NewDebugRenderer(sc, cancel),
		render.NewPathTracer(sc, render.DefaultPTPathLen, cancel),
		render.NewPhotonMapper(sc, render.DefaultPTPathLen, cancel),
	}
	active := -1
	for index, r := range renderers {
		if r.Name() == algo {
			active = index
			break
		}
	}
	if active < 0 {
		logger.Errorf("no renderer with name %q", algo)
		return cli.NewExitError(fmt.Sprintf("no renderer with name %q", algo), 1)
	}

	image := img.New(width, height)

	var accum uint32
	start := time.Now()
	if ctx.Bool("interactive") {
		accum, err = display.Run(sc, image, renderers, active, cancel)
		if err != nil {
			logger.Error(err)
			return cli.NewExitError(err.Error(), 1)
		}
	} else {
		if maxSamples == 0 && maxTime == 0 {
			logger.Notice("defaulting to 4 samples per pixel (use --samples or --time to change this)")
			maxSamples = 4
		}
		accum = renderHeadless(renderers[active], image, maxSamples, maxTime)
	}
	totalTime := time.Since(start)

	if err = saveImage(output, image, accum); err != nil {
		logger.Error(err)
		return cli.NewExitError(err.Error(), 1)
	}
	logger.Noticef("image saved to %q (%d samples, %s)", output, accum, totalTime)

	displayFrameStats(renderers[active].Name(), accum, totalTime)
	return nil
}

// Accumulate frames until the sample or time budget is exhausted. A zero
// budget means unlimited.
func renderHeadless(r render.Renderer, image *img.Image, maxSamples uint32, maxTime float64) uint32 {
	r.Reset()
	image.Clear()

	var accum uint32
	var frames uint32
	var frameTime time.Duration
	start := time.Now()

	for {
		frameStart := time.Now()
		r.Render(image)
		frameTime += time.Since(frameStart)
		accum++
		frames++

		if frames > 20 || frameTime > 5*time.Second {
			logger.Infof("average frame time: %d ms", frameTime.Milliseconds()/int64(frames))
			frames = 0
			frameTime = 0
		}

		if maxSamples != 0 && accum >= maxSamples {
			break
		}
		if maxTime != 0 && time.Since(start).Seconds() >= maxTime {
			break
		}
	}
	return accum
}

// Save the accumulated image. The format follows the file extension; an
// unknown extension is reported and written as PNG.
func saveImage(path string, image *img.Image, accum uint32) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".exr":
		return img.SaveEXR(path, image, accum)
	case ".png":
		return img.SavePNG(path, image, accum)
	default:
		logger.Warningf("could not determine output file type from extension of %q, using PNG", path)
		return img.SavePNG(path, image, accum)
	}
}

func displayFrameStats(name string, accum uint32, total time.Duration) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Renderer", "Samples", "Time per sample", "Render time"})
	perSample := time.Duration(0)
	if accum > 0 {
		perSample = total / time.Duration(accum)
	}
	table.Append([]string{
		name,
		fmt.Sprintf("%d", accum),
		fmt.Sprintf("%s", perSample),
		fmt.Sprintf("%s", total),
	})
	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
