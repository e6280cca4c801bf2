package main

import (
	"os"

	"github.com/achilleasa/spheretrace/cmd"
	"github.com/achilleasa/spheretrace/log"
	"github.com/urfave/cli"
)

// Flags shared by the scene and render commands. Flags override the values
// loaded from the config file only when explicitly set.
func sceneFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "load settings from a YAML config file",
		},
		cli.Uint64Flag{
			Name:  "seed",
			Value: 1,
			Usage: "random seed for scene generation",
		},
		cli.IntFlag{
			Name:  "count",
			Value: 100,
			Usage: "number of spheres to attempt to place",
		},
		cli.Float64Flag{
			Name:  "metal-probability",
			Value: 0.5,
			Usage: "probability of a sphere being metallic",
		},
		cli.Float64Flag{
			Name:  "animation-probability",
			Value: 0,
			Usage: "probability of a sphere bobbing up and down",
		},
	}
}

func renderFlags() []cli.Flag {
	return append(sceneFlags(),
		cli.StringFlag{
			Name:  "scene",
			Usage: "render a scene file instead of generating one",
		},
		cli.StringFlag{
			Name:  "device",
			Value: "auto",
			Usage: `compute device: "auto", "cpu", "opencl" or part of an opencl device name`,
		},
		cli.StringSliceFlag{
			Name:  "blacklist",
			Value: &cli.StringSlice{},
			Usage: "blacklist opencl device whose names contain this value",
		},
		cli.IntFlag{
			Name:  "width",
			Value: 512,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 512,
			Usage: "frame height",
		},
		cli.IntFlag{
			Name:  "reflections",
			Value: 8,
			Usage: "number of specular bounces",
		},
		cli.Float64Flag{
			Name:  "exposure",
			Value: 1.0,
			Usage: "camera exposure for tone-mapping",
		},
		cli.Float64Flag{
			Name:  "fov",
			Value: 60,
			Usage: "vertical camera field of view in degrees",
		},
		cli.StringFlag{
			Name:  "skybox",
			Usage: "equirectangular environment map (png, jpeg, gif, bmp, tiff or webp)",
		},
		cli.BoolFlag{
			Name:  "no-motion-reset",
			Usage: "keep accumulating samples while animated spheres move",
		},
	)
}

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "spheretrace"
	app.Usage = "progressively ray trace procedurally generated sphere scenes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set log level (debug, info, notice, warning, error)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "list-devices",
			Usage:  "list available compute devices",
			Action: cmd.ListDevices,
		},
		{
			Name:  "scene",
			Usage: "manage scene files",
			Subcommands: []cli.Command{
				{
					Name:  "generate",
					Usage: "generate a random scene",
					Description: `
Place non-intersecting spheres on the ground plane using rejection sampling
and write them to a YAML scene file that can be passed to the render
commands with --scene.`,
					Flags: append(sceneFlags(),
						cli.StringFlag{
							Name:  "out",
							Value: "scene.yaml",
							Usage: "scene filename",
						},
						cli.BoolFlag{
							Name:  "list",
							Usage: "print the generated spheres",
						},
					),
					Action: cmd.GenerateScene,
				},
			},
		},
		{
			Name:  "render",
			Usage: "render scene",
			Subcommands: []cli.Command{
				{
					Name:        "frame",
					Usage:       "render single frame",
					Description: `Accumulate samples for a single frame and write it to an image file.`,
					Flags: append(renderFlags(),
						cli.IntFlag{
							Name:  "spp",
							Value: 16,
							Usage: "samples per pixel",
						},
						cli.Float64Flag{
							Name:  "time-step",
							Value: 0,
							Usage: "seconds of animation time between samples",
						},
						cli.StringFlag{
							Name:  "out",
							Value: "frame.png",
							Usage: "image filename for the rendered frame (png, bmp or tiff)",
						},
					),
					Action: cmd.RenderFrame,
				},
				{
					Name:  "interactive",
					Usage: "render interactive view of the scene",
					Description: `
Continuously refine the image in a window. Use the arrow keys or WASD to move,
Q/E to move down/up and drag with the left mouse button to look around. +/-
change the exposure, page up/down change the reflection count and space
pauses the animation.`,
					Flags: append(renderFlags(),
						cli.IntFlag{
							Name:  "max-samples",
							Value: 0,
							Usage: "stop refining after this many samples (0 = never)",
						},
					),
					Action: cmd.RenderInteractive,
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.New("spheretrace").Error(err)
		os.Exit(1)
	}
}
