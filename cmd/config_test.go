package cmd

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/achilleasa/spheretrace/renderer"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/types"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

func testContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("config", "", "")
	set.String("scene", "", "")
	set.Uint64("seed", 0, "")
	set.Int("count", 0, "")
	set.Int("width", 0, "")
	set.Int("height", 0, "")
	set.Int("spp", 0, "")
	set.Int("reflections", 0, "")
	set.Float64("exposure", 0, "")
	set.String("device", "", "")
	set.String("out", "", "")
	set.Bool("no-motion-reset", false, "")
	if err := set.Parse(args); err != nil {
		t.Fatal(err)
	}
	return cli.NewContext(cli.NewApp(), set, nil)
}

func writeConfig(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(testContext(t))
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(defaultConfig(), cfg); diff != "" {
		t.Fatalf("expected defaults when no config or flags are given; diff (-exp +got):\n%s", diff)
	}
	if err = cfg.Render.Options.Validate(); err != nil {
		t.Fatalf("expected default render options to be valid; got %v", err)
	}
	if err = cfg.Scene.Build.Validate(); err != nil {
		t.Fatalf("expected default build options to be valid; got %v", err)
	}
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
scene:
  seed: 99
  build:
    count: 10
    radius_min: 3
    radius_max: 8
    placement_radius: 50
    metal_probability: 0.5
camera:
  position: [1, 2, 3]
  fov: 45
light:
  intensity: 2
render:
  reflections: 4
  reset_on_motion: false
  device: cpu
  width: 320
  height: 200
`)

	cfg, err := loadConfig(testContext(t, "--config", path))
	if err != nil {
		t.Fatal(err)
	}

	exp := defaultConfig()
	exp.Scene.Seed = 99
	exp.Scene.Build.TargetCount = 10
	exp.Scene.Build.RadiusMin, exp.Scene.Build.RadiusMax = 3, 8
	exp.Scene.Build.PlacementRadius = 50
	exp.Scene.Build.MetalProbability = 0.5
	exp.Camera.Position = types.XYZ(1, 2, 3)
	exp.Camera.FOV = 45
	exp.Light.Intensity = 2
	exp.Render.ReflectionsCount = 4
	exp.Render.ResetOnMotion = false
	exp.Render.Device = "cpu"
	exp.Render.Width, exp.Render.Height = 320, 200

	if diff := cmp.Diff(exp, cfg); diff != "" {
		t.Fatalf("unexpected config; diff (-exp +got):\n%s", diff)
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := writeConfig(t, `
scene:
  seed: 99
render:
  width: 320
  height: 200
  exposure: 2
`)

	cfg, err := loadConfig(testContext(t,
		"--config", path,
		"--seed", "7",
		"--width", "640",
		"--reflections", "2",
		"--no-motion-reset",
	))
	if err != nil {
		t.Fatal(err)
	}

	type spec struct {
		name string
		got  interface{}
		exp  interface{}
	}
	specs := []spec{
		{"seed", cfg.Scene.Seed, uint64(7)},
		{"width", cfg.Render.Width, uint32(640)},
		{"height", cfg.Render.Height, uint32(200)},
		{"exposure", cfg.Render.Exposure, float32(2)},
		{"reflections", cfg.Render.ReflectionsCount, uint32(2)},
		{"reset on motion", cfg.Render.ResetOnMotion, false},
		{"spp", cfg.Render.Samples, defaultConfig().Render.Samples},
	}
	for specIndex, s := range specs {
		if s.got != s.exp {
			t.Fatalf("[spec %d] expected %s to be %v; got %v", specIndex, s.name, s.exp, s.got)
		}
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := loadConfig(testContext(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))); err == nil {
		t.Fatal("expected an error for a missing config file")
	}

	path := writeConfig(t, "render: [1, 2")
	if _, err := loadConfig(testContext(t, "--config", path)); err == nil {
		t.Fatal("expected an error for a malformed config file")
	}
}

func TestNegativeCountFlags(t *testing.T) {
	type spec struct {
		args []string
	}
	specs := []spec{
		{[]string{"-width", "-1"}},
		{[]string{"--height", "-600"}},
		{[]string{"--spp", "-1"}},
		{[]string{"--reflections", "-2"}},
	}

	for specIndex, s := range specs {
		_, err := loadConfig(testContext(t, s.args...))
		if errors.Cause(err) != renderer.ErrInvalidConfiguration {
			t.Fatalf("[spec %d] expected ErrInvalidConfiguration for %v; got %v", specIndex, s.args, err)
		}
	}
}

func TestConfigCameraAndLight(t *testing.T) {
	cfg := defaultConfig()
	cam, err := cfg.camera()
	if err != nil {
		t.Fatal(err)
	}
	if cam.Position != cfg.Camera.Position || cam.FOV != cfg.Camera.FOV {
		t.Fatalf("expected camera at %v with fov %f; got %v with fov %f", cfg.Camera.Position, cfg.Camera.FOV, cam.Position, cam.FOV)
	}
	if cam.Forward()[1] >= 0 {
		t.Fatalf("expected the default camera to look down; got forward %v", cam.Forward())
	}

	light, err := cfg.light()
	if err != nil {
		t.Fatal(err)
	}
	if light.Direction[1] >= 0 {
		t.Fatalf("expected the default light to shine downwards; got %v", light.Direction)
	}

	cfg.Camera.FOV = 0
	if _, err = cfg.camera(); err == nil {
		t.Fatal("expected an error for a zero fov")
	}
	cfg.Light.Intensity = -1
	if _, err = cfg.light(); err == nil {
		t.Fatal("expected an error for a negative light intensity")
	}
}

func TestLoadSceneFromFile(t *testing.T) {
	cfg := defaultConfig()
	cfg.Scene.Build.TargetCount = 5

	generated, meta, err := generateScene(cfg)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err = scene.WriteSceneFile(path, generated, meta); err != nil {
		t.Fatal(err)
	}

	cfg.Scene.File = path
	loaded, err := loadScene(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(generated, loaded); diff != "" {
		t.Fatalf("expected the loaded scene to match the generated one; diff (-exp +got):\n%s", diff)
	}
}

func TestOpenCPUDevice(t *testing.T) {
	dev, err := openDevice("cpu", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	if dev.Name() != "cpu" {
		t.Fatalf("expected the cpu device; got %s", dev.Name())
	}

	p, err := renderer.New(dev, defaultConfig().Render.Options)
	if err != nil {
		t.Fatal(err)
	}
	p.Shutdown()
}

func TestConfigPathsRelativeToConfigFile(t *testing.T) {
	path := writeConfig(t, `
scene:
  file: scenes/spheres.yaml
render:
  skybox: /abs/sky.png
`)

	cfg, err := loadConfig(testContext(t, "--config", path))
	if err != nil {
		t.Fatal(err)
	}

	expScene := filepath.Join(filepath.Dir(path), "scenes", "spheres.yaml")
	if cfg.Scene.File != expScene {
		t.Fatalf("expected scene file %q; got %q", expScene, cfg.Scene.File)
	}
	if cfg.Render.Skybox != "/abs/sky.png" {
		t.Fatalf("expected absolute skybox path to be kept; got %q", cfg.Render.Skybox)
	}

	// Flags are taken verbatim.
	cfg, err = loadConfig(testContext(t, "--config", path, "--scene", "other.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scene.File != "other.yaml" {
		t.Fatalf("expected scene flag to override the config file; got %q", cfg.Scene.File)
	}
}
