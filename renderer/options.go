package renderer

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// The deepest reflection chain supported by the tracing kernels.
const MaxReflections = 16

type Options struct {
	// Number of specular bounces traced after the primary hit.
	ReflectionsCount uint32 `yaml:"reflections"`

	// Seed for the per-frame sub-pixel jitter sequence.
	Seed uint64 `yaml:"seed"`

	// Exposure for tonemapping.
	Exposure float32 `yaml:"exposure"`

	// Stop dispatching once this many samples have been accumulated. A
	// zero value accumulates forever.
	MaxSamples uint32 `yaml:"max_samples"`

	// Reset accumulation whenever animated geometry moves.
	ResetOnMotion bool `yaml:"reset_on_motion"`
}

// DefaultOptions returns the options used when none are specified.
func DefaultOptions() Options {
	return Options{
		ReflectionsCount: 8,
		Exposure:         1,
		ResetOnMotion:    true,
	}
}

// Validate rejects option values the renderer cannot honor.
func (o Options) Validate() error {
	if o.ReflectionsCount > MaxReflections {
		return errors.Wrapf(ErrInvalidConfiguration, "reflection count %d exceeds the supported maximum of %d", o.ReflectionsCount, MaxReflections)
	}
	if !(o.Exposure > 0) || math32.IsInf(o.Exposure, 0) {
		return errors.Wrapf(ErrInvalidConfiguration, "exposure must be a positive finite value; got %f", o.Exposure)
	}
	return nil
}
