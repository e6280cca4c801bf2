package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
	"pgregory.net/rand"
)

// Generate a random scene and write it to a YAML file.
func GenerateScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	sc, meta, err := generateScene(cfg)
	if err != nil {
		return err
	}

	if ctx.Bool("list") {
		displaySceneTable(sc)
	}

	out := ctx.String("out")
	if err = scene.WriteSceneFile(out, sc, meta); err != nil {
		return err
	}
	logger.Noticef("wrote %d spheres to %s", sc.Len(), out)
	return nil
}

// Build a scene from the config options.
func generateScene(cfg *Config) (*scene.Scene, scene.Metadata, error) {
	builder := scene.NewBuilder(rand.New(cfg.Scene.Seed))
	sc, stats, err := builder.Build(cfg.Scene.Build)
	if err != nil {
		return nil, scene.Metadata{}, err
	}

	logger.Infof("placed %d of %d spheres (%d rejected) with seed %d", stats.Placed, stats.Requested, stats.Rejected, cfg.Scene.Seed)
	return sc, scene.Metadata{Seed: cfg.Scene.Seed, Options: cfg.Scene.Build, Stats: stats}, nil
}

// Load the scene file from the config or generate a new scene.
func loadScene(cfg *Config) (*scene.Scene, error) {
	if cfg.Scene.File == "" {
		sc, _, err := generateScene(cfg)
		return sc, err
	}

	sc, meta, err := scene.ReadSceneFile(cfg.Scene.File)
	if err != nil {
		return nil, err
	}
	logger.Infof("loaded %d spheres from %s (seed %d)", sc.Len(), cfg.Scene.File, meta.Seed)
	return sc, nil
}

func displaySceneTable(sc *scene.Scene) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"#", "Position", "Radius", "Material", "Speed", "Amplitude"})

	metal := 0
	for index, s := range sc.Spheres {
		material := "dielectric"
		if s.Albedo == (types.Vec3{}) {
			material = "metal"
			metal++
		}
		table.Append([]string{
			fmt.Sprintf("%d", index),
			fmt.Sprintf("(%.2f, %.2f, %.2f)", s.Position[0], s.Position[1], s.Position[2]),
			fmt.Sprintf("%.2f", s.Radius),
			material,
			fmt.Sprintf("%.2f", s.Speed),
			fmt.Sprintf("%.2f", s.Amplitude),
		})
	}
	table.SetFooter([]string{"", "", "TOTAL", fmt.Sprintf("%d metal", metal), "", fmt.Sprintf("%d", sc.Len())})

	table.Render()
	logger.Noticef("scene contents\n%s", buf.String())
}
