package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/spheretrace/renderer"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	dev, p, cam, err := setupRenderer(cfg)
	if err != nil {
		return err
	}
	defer dev.Close()

	r, err := renderer.NewStill(p, cam, renderer.StillOptions{
		Width:    cfg.Render.Width,
		Height:   cfg.Render.Height,
		Samples:  cfg.Render.Samples,
		TimeStep: cfg.Render.TimeStep,
		Exposure: cfg.Render.Exposure,
		Output:   cfg.Render.Out,
	})
	if err != nil {
		p.Shutdown()
		return err
	}
	defer r.Close()

	if err = r.Render(); err != nil {
		return err
	}

	// Display stats
	displayFrameStats(dev.Name(), r.Stats())
	return nil
}

// Use opengl to render a continuously updating view of the accumulated image.
func RenderInteractive(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	dev, p, cam, err := setupRenderer(cfg)
	if err != nil {
		return err
	}
	defer dev.Close()

	r, err := renderer.NewInteractive(p, cam, renderer.InteractiveOptions{
		Width:    cfg.Render.Width,
		Height:   cfg.Render.Height,
		Exposure: cfg.Render.Exposure,
	})
	if err != nil {
		p.Shutdown()
		return err
	}
	defer r.Close()

	return r.Render()
}

// Open the configured device and initialize a progressive renderer with the
// configured scene, skybox and light.
func setupRenderer(cfg *Config) (tracer.Device, *renderer.Progressive, *scene.Camera, error) {
	cam, err := cfg.camera()
	if err != nil {
		return nil, nil, nil, err
	}
	light, err := cfg.light()
	if err != nil {
		return nil, nil, nil, err
	}

	sc, err := loadScene(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	sky, err := loadSkybox(cfg.Render.Skybox)
	if err != nil {
		return nil, nil, nil, err
	}

	dev, err := openDevice(cfg.Render.Device, cfg.Render.Blacklist)
	if err != nil {
		return nil, nil, nil, err
	}

	p, err := renderer.New(dev, cfg.Render.Options)
	if err != nil {
		dev.Close()
		return nil, nil, nil, err
	}
	if err = p.Initialize(sc, sky, light); err != nil {
		p.Shutdown()
		dev.Close()
		return nil, nil, nil, err
	}

	return dev, p, cam, nil
}

func loadSkybox(path string) (*scene.Skybox, error) {
	if path == "" {
		return scene.ProceduralSkybox(512, 256), nil
	}

	sky, err := scene.LoadSkybox(path)
	if err != nil {
		return nil, err
	}
	logger.Infof("loaded %dx%d skybox from %s", sky.Width, sky.Height, path)
	return sky, nil
}

func displayFrameStats(deviceName string, stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Device", "Resolution", "Spheres", "Samples", "Prepare", "Dispatch", "Composite"})
	table.Append([]string{
		deviceName,
		fmt.Sprintf("%dx%d", stats.Width, stats.Height),
		fmt.Sprintf("%d", stats.Spheres),
		fmt.Sprintf("%d", stats.Samples),
		fmt.Sprintf("%s", stats.PrepareTime),
		fmt.Sprintf("%s", stats.DispatchTime),
		fmt.Sprintf("%s", stats.CompositeTime),
	})
	table.SetFooter([]string{"", "", "", "", "", "TOTAL", fmt.Sprintf("%s", stats.RenderTime)})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
