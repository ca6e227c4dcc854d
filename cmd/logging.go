package cmd

import (
	"github.com/urfave/cli"

	"github.com/9Christian6/RenderFrameworkRIS/log"
)

var logger = log.New("ris")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
