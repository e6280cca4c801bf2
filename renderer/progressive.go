package renderer

import (
	"fmt"
	"image"
	"time"

	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/types"
	"github.com/pkg/errors"
	"pgregory.net/rand"
)

type State uint8

// Frame states. A frame moves through Preparing, Dispatching and
// Compositing and always returns to Idle.
const (
	Idle State = iota
	Preparing
	Dispatching
	Compositing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Preparing:
		return "preparing"
	case Dispatching:
		return "dispatching"
	case Compositing:
		return "compositing"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// FrameInput describes the host state observed at the start of a frame.
type FrameInput struct {
	// Viewport dimensions.
	Width  uint32
	Height uint32

	// The camera is only read; changes are detected by comparing poses.
	Camera *scene.Camera

	// Seconds since rendering started.
	Elapsed float32
}

// Progressive owns the scene, its device buffer and the accumulation target
// and renders one noisy sample per frame, blending it into a running average.
type Progressive struct {
	logger log.Logger
	device tracer.Device
	opts   Options

	// Jitter source.
	rng *rand.Rand

	buffers *SceneBufferManager
	targets *TargetManager

	scene      *scene.Scene
	sceneDirty bool
	sceneBuf   tracer.Buffer

	light      scene.DirectionalLight
	skyTexture tracer.Image

	initialized bool
	state       State

	samples      uint32
	pendingReset bool
	resetReason  string

	lastPose scene.Pose
	hasPose  bool

	lastStats FrameStats

	// Snapshot staging buffers.
	hostTexels []float32
	output     *image.RGBA
}

// New creates a progressive renderer that runs its kernels on dev.
func New(dev tracer.Device, opts Options) (*Progressive, error) {
	if dev == nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, "no device specified")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Progressive{
		logger:  log.New("progressive"),
		device:  dev,
		opts:    opts,
		rng:     rand.New(opts.Seed),
		buffers: NewSceneBufferManager(dev),
		targets: NewTargetManager(dev),
	}, nil
}

// Initialize sets up the scene, skybox and light. A nil skybox renders
// rays that escape the scene as black.
func (p *Progressive) Initialize(sc *scene.Scene, sky *scene.Skybox, light scene.DirectionalLight) error {
	if err := p.SetLight(light); err != nil {
		return err
	}
	if err := p.SetSkybox(sky); err != nil {
		return err
	}
	p.SetScene(sc)
	p.initialized = true

	p.logger.Noticef("initialized with %d spheres on device %s", sc.Len(), p.device.Name())
	return nil
}

// SetScene replaces the active scene with a copy of sc and restarts
// accumulation.
func (p *Progressive) SetScene(sc *scene.Scene) {
	p.scene = sc.Clone()
	if p.scene == nil {
		p.scene = &scene.Scene{}
	}
	p.sceneDirty = true
	p.markReset("scene initialized")
}

// SetLight updates the directional light.
func (p *Progressive) SetLight(light scene.DirectionalLight) error {
	if err := light.Validate(); err != nil {
		return errors.Wrapf(ErrInvalidConfiguration, "%v", err)
	}
	if light != p.light {
		p.light = light
		p.markReset("light changed")
	}
	return nil
}

// SetReflections updates the reflection depth used by the tracing kernel.
func (p *Progressive) SetReflections(count uint32) error {
	opts := p.opts
	opts.ReflectionsCount = count
	if err := opts.Validate(); err != nil {
		p.logger.Warningf("rejected reflection count %d", count)
		return err
	}
	if count != p.opts.ReflectionsCount {
		p.opts = opts
		p.markReset("reflection count changed")
	}
	return nil
}

// SetSkybox uploads a new environment map replacing the current one.
func (p *Progressive) SetSkybox(sky *scene.Skybox) error {
	var tex tracer.Image
	if sky != nil {
		var err error
		tex, err = p.device.NewTexture("skybox", sky.Width, sky.Height, sky.Texels)
		if err != nil {
			return errors.Wrapf(ErrResourceAllocation, "uploading %dx%d skybox: %v", sky.Width, sky.Height, err)
		}
	}

	if p.skyTexture != nil {
		p.skyTexture.Release()
	}
	p.skyTexture = tex
	p.markReset("skybox changed")
	return nil
}

// Frame renders one sample and blends it into the displayed image. On error
// the frame is aborted before compositing, the sample counter is left
// untouched and any pending reset carries over to the next frame.
func (p *Progressive) Frame(in FrameInput) (FrameStats, error) {
	if !p.initialized {
		return FrameStats{}, ErrNotInitialized
	}
	if in.Camera == nil {
		return FrameStats{}, errors.Wrap(ErrInvalidConfiguration, "no camera specified")
	}
	if err := in.Camera.Validate(); err != nil {
		return FrameStats{}, errors.Wrapf(ErrInvalidConfiguration, "%v", err)
	}

	start := time.Now()
	stats := FrameStats{Width: in.Width, Height: in.Height}

	// Change detection
	pose := in.Camera.Pose()
	if !p.hasPose || pose != p.lastPose {
		p.lastPose, p.hasPose = pose, true
		p.markReset("camera moved")
	}
	if p.scene.Animate(in.Elapsed) {
		p.sceneDirty = true
		if p.opts.ResetOnMotion {
			p.markReset("geometry moved")
		}
	}

	if p.converged(in) {
		stats.Samples = p.samples
		stats.Spheres = p.scene.Len()
		stats.Converged = true
		stats.RenderTime = time.Since(start)
		p.lastStats = stats
		return stats, nil
	}

	// Preparing
	p.state = Preparing
	target, invalidated, err := p.targets.Ensure(in.Width, in.Height)
	if err != nil {
		return p.abort(stats, err)
	}
	if invalidated {
		stats.TargetReallocated = true
		p.markReset("viewport resized")
	}
	if p.sceneDirty {
		buf, reallocated, err := p.buffers.Sync(p.scene)
		if err != nil {
			p.sceneBuf = nil
			return p.abort(stats, err)
		}
		p.sceneBuf = buf
		p.sceneDirty = false
		stats.BufferReallocated = reallocated
	}
	if p.pendingReset {
		p.logger.Debugf("resetting accumulation: %s", p.resetReason)
		stats.Reset, stats.ResetReason = true, p.resetReason
		p.samples = 0
		p.pendingReset = false
		p.resetReason = ""
	}
	stats.PrepareTime = time.Since(start)

	// Dispatching
	p.state = Dispatching
	args := &tracer.KernelArgs{
		Result:                  target.Result,
		CameraToWorld:           in.Camera.CameraToWorld(),
		CameraInverseProjection: in.Camera.InverseProjection(float32(in.Width) / float32(in.Height)),
		SkyboxTexture:           p.skyTexture,
		PixelOffset:             types.XY(p.rng.Float32(), p.rng.Float32()),
		DirectionalLight:        p.light.Vec4(),
		Spheres:                 p.sceneBuf,
		SphereCount:             uint32(p.buffers.Capacity()),
		SphereStride:            uint32(p.buffers.Layout().Stride()),
		ReflectionsCount:        p.opts.ReflectionsCount,
		Time:                    in.Elapsed,
	}
	stats.Spheres = int(args.SphereCount)

	groupsX, groupsY := tracer.ThreadGroups(in.Width, in.Height)
	stats.DispatchTime, err = p.device.Dispatch(args, groupsX, groupsY)
	if err != nil {
		return p.abort(stats, errors.Wrapf(ErrDispatch, "%v", err))
	}

	// Compositing
	p.state = Compositing
	stats.Weight = 1 / float32(p.samples+1)
	stats.CompositeTime, err = p.device.Composite(target.Result, target.Display, stats.Weight)
	if err != nil {
		return p.abort(stats, errors.Wrapf(ErrDispatch, "%v", err))
	}

	p.samples++
	p.state = Idle

	stats.Samples = p.samples
	stats.RenderTime = time.Since(start)
	p.lastStats = stats
	return stats, nil
}

func (p *Progressive) converged(in FrameInput) bool {
	if p.opts.MaxSamples == 0 || p.samples < p.opts.MaxSamples {
		return false
	}
	if p.pendingReset || p.sceneDirty {
		return false
	}
	w, h := p.targets.Dimensions()
	return w == in.Width && h == in.Height
}

func (p *Progressive) abort(stats FrameStats, err error) (FrameStats, error) {
	p.logger.Errorf("%s failed: %v", p.state, err)
	p.state = Idle
	p.lastStats = stats
	return stats, err
}

func (p *Progressive) markReset(reason string) {
	if !p.pendingReset {
		p.resetReason = reason
	}
	p.pendingReset = true
}

// SampleCount returns the number of samples accumulated since the last reset.
func (p *Progressive) SampleCount() uint32 {
	return p.samples
}

// State returns the current frame state.
func (p *Progressive) State() State {
	return p.state
}

// Stats returns the statistics of the last frame.
func (p *Progressive) Stats() FrameStats {
	return p.lastStats
}

// Scene returns the scene owned by the renderer. Callers must not modify it.
func (p *Progressive) Scene() *scene.Scene {
	return p.scene
}

// Options returns the active options.
func (p *Progressive) Options() Options {
	return p.opts
}

// Target returns the current accumulation target or nil if no frame has
// been prepared yet.
func (p *Progressive) Target() *Target {
	return p.targets.Target()
}

// Snapshot reads back the displayed image and tonemaps it. The returned
// image is reused by subsequent calls.
func (p *Progressive) Snapshot(exposure float32) (*image.RGBA, error) {
	target := p.targets.Target()
	if target == nil {
		return nil, ErrNotInitialized
	}

	w, h := p.targets.Dimensions()
	need := int(w) * int(h) * 4
	if cap(p.hostTexels) < need {
		p.hostTexels = make([]float32, need)
	}
	p.hostTexels = p.hostTexels[:need]

	if err := target.Display.Read(p.hostTexels); err != nil {
		return nil, errors.Wrapf(err, "renderer: reading back display image")
	}

	p.output = Tonemap(p.hostTexels, w, h, exposure, p.output)
	return p.output, nil
}

// Shutdown releases all device resources. The renderer must be initialized
// again before rendering another frame.
func (p *Progressive) Shutdown() {
	p.buffers.Release()
	p.targets.Release()
	if p.skyTexture != nil {
		p.skyTexture.Release()
		p.skyTexture = nil
	}
	p.sceneBuf = nil
	p.initialized = false
	p.hasPose = false
	p.samples = 0
	p.state = Idle
}
