package scene

import (
	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/types"
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"pgregory.net/rand"
)

// Specular reflectance assigned to dielectric spheres.
const dielectricSpecular float32 = 0.04

// ErrInvalidOptions is returned when the builder options are inconsistent.
var ErrInvalidOptions = errors.New("scene: invalid build options")

// BuildOptions control the procedural scene generator.
type BuildOptions struct {
	// Number of placement attempts; the scene will contain at most this many spheres.
	TargetCount int `yaml:"count"`

	// Sphere radius range.
	RadiusMin float32 `yaml:"radius_min"`
	RadiusMax float32 `yaml:"radius_max"`

	// Radius of the disk on the ground plane where sphere centers are placed.
	PlacementRadius float32 `yaml:"placement_radius"`

	// Probability that a sphere gets a metallic material.
	MetalProbability float32 `yaml:"metal_probability"`

	// Probability that a sphere oscillates vertically. Animation parameters
	// are only sampled when this is non-zero.
	AnimationProbability float32 `yaml:"animation_probability"`
	SpeedMin             float32 `yaml:"speed_min"`
	SpeedMax             float32 `yaml:"speed_max"`
	AmplitudeMin         float32 `yaml:"amplitude_min"`
	AmplitudeMax         float32 `yaml:"amplitude_max"`
}

// DefaultBuildOptions returns the options used when no config is supplied.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		TargetCount:      100,
		RadiusMin:        3,
		RadiusMax:        8,
		PlacementRadius:  100,
		MetalProbability: 0.5,
		SpeedMin:         0.5,
		SpeedMax:         2,
		AmplitudeMin:     1,
		AmplitudeMax:     4,
	}
}

// Validate checks the options for consistency.
func (o BuildOptions) Validate() error {
	switch {
	case o.TargetCount < 0:
		return errors.Wrapf(ErrInvalidOptions, "target count %d is negative", o.TargetCount)
	case !(o.RadiusMin > 0):
		return errors.Wrapf(ErrInvalidOptions, "min radius %f must be positive", o.RadiusMin)
	case !(o.RadiusMax >= o.RadiusMin) || math32.IsInf(o.RadiusMax, 0):
		return errors.Wrapf(ErrInvalidOptions, "radius range [%f, %f] is empty", o.RadiusMin, o.RadiusMax)
	case !(o.PlacementRadius > 0) || math32.IsInf(o.PlacementRadius, 0):
		return errors.Wrapf(ErrInvalidOptions, "placement radius %f must be positive", o.PlacementRadius)
	case !inUnitRange(o.MetalProbability):
		return errors.Wrapf(ErrInvalidOptions, "metal probability %f outside [0, 1]", o.MetalProbability)
	case !inUnitRange(o.AnimationProbability):
		return errors.Wrapf(ErrInvalidOptions, "animation probability %f outside [0, 1]", o.AnimationProbability)
	}

	if o.AnimationProbability > 0 {
		if !(o.SpeedMin > 0) || !(o.SpeedMax >= o.SpeedMin) {
			return errors.Wrapf(ErrInvalidOptions, "speed range [%f, %f] is invalid", o.SpeedMin, o.SpeedMax)
		}
		if !(o.AmplitudeMin > 0) || !(o.AmplitudeMax >= o.AmplitudeMin) {
			return errors.Wrapf(ErrInvalidOptions, "amplitude range [%f, %f] is invalid", o.AmplitudeMin, o.AmplitudeMax)
		}
	}

	return nil
}

func inUnitRange(v float32) bool {
	return v >= 0 && v <= 1
}

// BuildStats describe the outcome of a scene build.
type BuildStats struct {
	Requested int
	Placed    int
	Rejected  int
}

// Exhausted returns true if rejection sampling produced fewer spheres than requested.
func (s BuildStats) Exhausted() bool {
	return s.Placed < s.Requested
}

// Builder generates scenes using rejection sampling. All randomness comes
// from the supplied generator so builds are reproducible for a given seed.
type Builder struct {
	logger log.Logger
	rng    *rand.Rand
}

// NewBuilder creates a builder that draws from rng.
func NewBuilder(rng *rand.Rand) *Builder {
	return &Builder{
		logger: log.New("scene"),
		rng:    rng,
	}
}

// Build runs TargetCount placement attempts. Candidates whose bounding sphere
// overlaps an already placed sphere are discarded without retrying, so the
// returned scene may hold fewer spheres than requested; BuildStats report by
// how many.
func (b *Builder) Build(opts BuildOptions) (*Scene, BuildStats, error) {
	stats := BuildStats{Requested: opts.TargetCount}
	if err := opts.Validate(); err != nil {
		return nil, stats, err
	}

	sc := &Scene{
		Spheres: make([]Sphere, 0, opts.TargetCount),
	}

	for attempt := 0; attempt < opts.TargetCount; attempt++ {
		candidate := Sphere{
			Radius: b.uniform(opts.RadiusMin, opts.RadiusMax),
		}
		x, z := b.insideDisk(opts.PlacementRadius)
		candidate.Position = types.XYZ(x, candidate.Radius, z)

		if overlapsAny(&candidate, sc.Spheres) {
			stats.Rejected++
			continue
		}

		color := hsvToRGB(b.rng.Float32(), b.rng.Float32(), b.rng.Float32())
		if b.rng.Float32() < opts.MetalProbability {
			candidate.Albedo = types.Vec3{}
			candidate.Specular = color
		} else {
			candidate.Albedo = color
			candidate.Specular = types.XYZ(dielectricSpecular, dielectricSpecular, dielectricSpecular)
		}

		if opts.AnimationProbability > 0 && b.rng.Float32() < opts.AnimationProbability {
			candidate.Speed = b.uniform(opts.SpeedMin, opts.SpeedMax)
			candidate.Amplitude = b.uniform(opts.AmplitudeMin, opts.AmplitudeMax)
		}

		sc.Spheres = append(sc.Spheres, candidate)
	}

	stats.Placed = len(sc.Spheres)
	if stats.Exhausted() {
		b.logger.Noticef("placed %d out of %d requested spheres (%d rejected due to overlap)", stats.Placed, stats.Requested, stats.Rejected)
	} else {
		b.logger.Debugf("placed %d spheres", stats.Placed)
	}

	return sc, stats, nil
}

func (b *Builder) uniform(min, max float32) float32 {
	return min + b.rng.Float32()*(max-min)
}

// Sample a point uniformly distributed inside a disk of the given radius.
func (b *Builder) insideDisk(radius float32) (float32, float32) {
	r := radius * math32.Sqrt(b.rng.Float32())
	theta := 2 * math32.Pi * b.rng.Float32()
	return r * math32.Cos(theta), r * math32.Sin(theta)
}

func overlapsAny(candidate *Sphere, placed []Sphere) bool {
	for index := range placed {
		if candidate.Intersects(&placed[index]) {
			return true
		}
	}
	return false
}

// Convert a hue/saturation/value triplet in [0, 1] to RGB.
func hsvToRGB(h, s, v float32) types.Vec3 {
	if s <= 0 {
		return types.XYZ(v, v, v)
	}

	h6 := h * 6
	if h6 >= 6 {
		h6 = 0
	}
	sector := int(h6)
	f := h6 - float32(sector)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch sector {
	case 0:
		return types.XYZ(v, t, p)
	case 1:
		return types.XYZ(q, v, p)
	case 2:
		return types.XYZ(p, v, t)
	case 3:
		return types.XYZ(p, q, v)
	case 4:
		return types.XYZ(t, p, v)
	default:
		return types.XYZ(v, p, q)
	}
}
