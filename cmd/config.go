package cmd

import (
	"github.com/achilleasa/spheretrace/asset"
	"github.com/achilleasa/spheretrace/renderer"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/types"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"gopkg.in/yaml.v3"
)

type sceneConfig struct {
	// Load the scene from this file instead of generating it.
	File string `yaml:"file,omitempty"`

	Seed  uint64             `yaml:"seed"`
	Build scene.BuildOptions `yaml:"build"`
}

type cameraConfig struct {
	Position types.Vec3 `yaml:"position,flow"`

	// Angles in degrees.
	Yaw   float32 `yaml:"yaw"`
	Pitch float32 `yaml:"pitch"`
	FOV   float32 `yaml:"fov"`
}

type lightConfig struct {
	// Angles in degrees.
	Pitch     float32 `yaml:"pitch"`
	Yaw       float32 `yaml:"yaw"`
	Intensity float32 `yaml:"intensity"`
}

type renderConfig struct {
	renderer.Options `yaml:",inline"`

	// Device name or "auto" to prefer opencl and fall back to the cpu.
	Device    string   `yaml:"device"`
	Blacklist []string `yaml:"blacklist,omitempty"`

	Width   uint32 `yaml:"width"`
	Height  uint32 `yaml:"height"`
	Samples uint32 `yaml:"spp"`

	// Simulated seconds between still samples.
	TimeStep float32 `yaml:"time_step"`

	Skybox string `yaml:"skybox,omitempty"`
	Out    string `yaml:"out"`
}

// Config collects every setting that can be supplied through a YAML file.
type Config struct {
	Scene  sceneConfig  `yaml:"scene"`
	Camera cameraConfig `yaml:"camera"`
	Light  lightConfig  `yaml:"light"`
	Render renderConfig `yaml:"render"`
}

func defaultConfig() *Config {
	return &Config{
		Scene: sceneConfig{
			Seed:  1,
			Build: scene.DefaultBuildOptions(),
		},
		Camera: cameraConfig{
			Position: types.XYZ(0, 25, -140),
			Pitch:    -10,
			FOV:      60,
		},
		Light: lightConfig{
			Pitch:     50,
			Yaw:       -30,
			Intensity: 1,
		},
		Render: renderConfig{
			Options: renderer.DefaultOptions(),
			Device:  "auto",
			Width:   512,
			Height:  512,
			Samples: 16,
			Out:     "frame.png",
		},
	}
}

// Load the config file (if one was specified) on top of the defaults and
// apply any explicitly set command line flags.
func loadConfig(ctx *cli.Context) (*Config, error) {
	cfg := defaultConfig()

	if path := ctx.String("config"); path != "" {
		data, res, err := asset.ReadAll(path, nil)
		if err != nil {
			return nil, errors.Wrap(err, "could not read config file")
		}
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "could not parse config file %s", path)
		}

		// Files referenced by the config are relative to its location.
		cfg.Scene.File = res.Resolve(cfg.Scene.File)
		cfg.Render.Skybox = res.Resolve(cfg.Render.Skybox)
		logger.Infof("loaded config from %s", res.Path())
	}

	if err := cfg.applyFlags(ctx); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read a count flag that must not be negative.
func uintFlag(ctx *cli.Context, name string) (uint32, error) {
	val := ctx.Int(name)
	if val < 0 {
		return 0, errors.Wrapf(renderer.ErrInvalidConfiguration, "--%s must not be negative; got %d", name, val)
	}
	return uint32(val), nil
}

// Override config values with flags that were set on the command line.
func (cfg *Config) applyFlags(ctx *cli.Context) error {
	var err error

	if ctx.IsSet("scene") {
		cfg.Scene.File = ctx.String("scene")
	}
	if ctx.IsSet("seed") {
		cfg.Scene.Seed = ctx.Uint64("seed")
	}
	if ctx.IsSet("count") {
		cfg.Scene.Build.TargetCount = ctx.Int("count")
	}
	if ctx.IsSet("metal-probability") {
		cfg.Scene.Build.MetalProbability = float32(ctx.Float64("metal-probability"))
	}
	if ctx.IsSet("animation-probability") {
		cfg.Scene.Build.AnimationProbability = float32(ctx.Float64("animation-probability"))
	}
	if ctx.IsSet("device") {
		cfg.Render.Device = ctx.String("device")
	}
	if ctx.IsSet("blacklist") {
		cfg.Render.Blacklist = ctx.StringSlice("blacklist")
	}
	if ctx.IsSet("width") {
		if cfg.Render.Width, err = uintFlag(ctx, "width"); err != nil {
			return err
		}
	}
	if ctx.IsSet("height") {
		if cfg.Render.Height, err = uintFlag(ctx, "height"); err != nil {
			return err
		}
	}
	if ctx.IsSet("spp") {
		if cfg.Render.Samples, err = uintFlag(ctx, "spp"); err != nil {
			return err
		}
	}
	if ctx.IsSet("reflections") {
		if cfg.Render.ReflectionsCount, err = uintFlag(ctx, "reflections"); err != nil {
			return err
		}
	}
	if ctx.IsSet("exposure") {
		cfg.Render.Exposure = float32(ctx.Float64("exposure"))
	}
	if ctx.IsSet("max-samples") {
		if cfg.Render.MaxSamples, err = uintFlag(ctx, "max-samples"); err != nil {
			return err
		}
	}
	if ctx.IsSet("no-motion-reset") {
		cfg.Render.ResetOnMotion = !ctx.Bool("no-motion-reset")
	}
	if ctx.IsSet("time-step") {
		cfg.Render.TimeStep = float32(ctx.Float64("time-step"))
	}
	if ctx.IsSet("skybox") {
		cfg.Render.Skybox = ctx.String("skybox")
	}
	if ctx.IsSet("out") {
		cfg.Render.Out = ctx.String("out")
	}
	if ctx.IsSet("fov") {
		cfg.Camera.FOV = float32(ctx.Float64("fov"))
	}
	return nil
}

// Build the camera described by the config.
func (cfg *Config) camera() (*scene.Camera, error) {
	cam := scene.NewCamera(
		cfg.Camera.Position,
		mgl32.DegToRad(cfg.Camera.Yaw),
		mgl32.DegToRad(cfg.Camera.Pitch),
		cfg.Camera.FOV,
	)
	if err := cam.Validate(); err != nil {
		return nil, err
	}
	return cam, nil
}

// Build the directional light described by the config.
func (cfg *Config) light() (scene.DirectionalLight, error) {
	light := scene.LightFromAngles(cfg.Light.Pitch, cfg.Light.Yaw, cfg.Light.Intensity)
	return light, light.Validate()
}
