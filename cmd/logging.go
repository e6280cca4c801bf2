package cmd

import (
	"github.com/achilleasa/spheretrace/log"
	"github.com/urfave/cli"
)

var logger = log.New("spheretrace")

// Apply the global verbosity flags. An explicit --log-level takes precedence
// over -v and -vv.
func setupLogging(ctx *cli.Context) error {
	switch {
	case ctx.GlobalIsSet("log-level"):
		level, err := log.ParseLevel(ctx.GlobalString("log-level"))
		if err != nil {
			return err
		}
		log.SetLevel(level)
	case ctx.GlobalBool("vv"):
		log.SetLevel(log.Debug)
	case ctx.GlobalBool("v"):
		log.SetLevel(log.Info)
	}
	return nil
}
