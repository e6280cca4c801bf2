package renderer

import (
	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/pkg/errors"
)

// StillOptions configures an offline render.
type StillOptions struct {
	// Frame dims.
	Width  uint32
	Height uint32

	// Number of samples to accumulate.
	Samples uint32

	// Simulated time advanced between samples, in seconds.
	TimeStep float32

	// Exposure for tonemapping.
	Exposure float32

	// Output image path.
	Output string
}

// A renderer that accumulates a fixed number of samples and writes the
// tonemapped result to an image file.
type stillRenderer struct {
	logger      log.Logger
	progressive *Progressive
	camera      *scene.Camera
	opts        StillOptions
	stats       FrameStats
}

// NewStill creates a renderer for a single frame. The renderer takes
// ownership of p and shuts it down when closed.
func NewStill(p *Progressive, camera *scene.Camera, opts StillOptions) (Renderer, error) {
	if opts.Width == 0 || opts.Height == 0 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "frame %dx%d has a zero dimension", opts.Width, opts.Height)
	}
	if opts.Samples == 0 {
		return nil, errors.Wrap(ErrInvalidConfiguration, "at least one sample per pixel is required")
	}
	if !(opts.Exposure > 0) {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "exposure must be positive; got %f", opts.Exposure)
	}
	if opts.TimeStep < 0 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "time step must not be negative; got %f", opts.TimeStep)
	}
	if opts.Output == "" {
		return nil, errors.Wrap(ErrInvalidConfiguration, "no output file specified")
	}

	return &stillRenderer{
		logger:      log.New("still renderer"),
		progressive: p,
		camera:      camera,
		opts:        opts,
	}, nil
}

// Render accumulates the requested samples and writes the output image.
func (r *stillRenderer) Render() error {
	r.stats = FrameStats{}
	var frames uint32
	for sample := uint32(0); sample < r.opts.Samples; sample++ {
		frameStats, err := r.progressive.Frame(FrameInput{
			Width:   r.opts.Width,
			Height:  r.opts.Height,
			Camera:  r.camera,
			Elapsed: float32(sample) * r.opts.TimeStep,
		})
		if err != nil {
			return err
		}
		r.stats.Accumulate(frameStats)
		if frameStats.Converged {
			break
		}
		frames++
	}

	if frames > 1 && r.stats.Samples < frames {
		r.logger.Noticef("only %d of %d rendered samples were accumulated; last reset: %s", r.stats.Samples, frames, r.stats.ResetReason)
	}

	img, err := r.progressive.Snapshot(r.opts.Exposure)
	if err != nil {
		return err
	}
	if err = WriteImage(r.opts.Output, img); err != nil {
		return err
	}

	r.logger.Noticef("wrote %dx%d frame with %d samples to %s", r.opts.Width, r.opts.Height, r.stats.Samples, r.opts.Output)
	return nil
}

func (r *stillRenderer) Close() {
	r.progressive.Shutdown()
}

func (r *stillRenderer) Stats() FrameStats {
	return r.stats
}
