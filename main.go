package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/9Christian6/RenderFrameworkRIS/cmd"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "ris"
	app.Usage = "render scenes using path tracing or progressive photon mapping"
	app.Version = "0.1.0"
	app.ArgsUsage = "scene_config.json"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.IntFlag{
			Name:  "width, sx",
			Value: 1080,
			Usage: "frame width in pixels",
		},
		cli.IntFlag{
			Name:  "height, sy",
			Value: 720,
			Usage: "frame height in pixels",
		},
		cli.StringFlag{
			Name:  "output, o",
			Value: "render.exr",
			Usage: "output image (.png is gamma corrected 8-bit, .exr is linear float)",
		},
		cli.IntFlag{
			Name:  "samples, s",
			Value: 0,
			Usage: "number of samples per pixel (0 = unlimited)",
		},
		cli.Float64Flag{
			Name:  "time, t",
			Value: 0,
			Usage: "render time budget in seconds (0 = unlimited)",
		},
		cli.StringFlag{
			Name:  "algo, a",
			Value: "debug",
			Usage: "rendering algorithm: debug, pt, ppm",
		},
		cli.BoolFlag{
			Name:  "interactive, i",
			Usage: "open an interactive view instead of rendering headless",
		},
	}
	app.Action = cmd.Render

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
