package scene

import (
	"fmt"

	"github.com/achilleasa/spheretrace/types"
)

// Sphere is the host-side scene object record. Its field order matches the
// packed device layout.
type Sphere struct {
	Position types.Vec3 `yaml:"position,flow"`
	Radius   float32    `yaml:"radius"`
	Albedo   types.Vec3 `yaml:"albedo,flow"`
	Specular types.Vec3 `yaml:"specular,flow"`

	// Oscillation parameters; both zero for static spheres.
	Speed     float32 `yaml:"speed,omitempty"`
	Amplitude float32 `yaml:"amplitude,omitempty"`
}

// Animated returns true if the sphere oscillates.
func (s *Sphere) Animated() bool {
	return s.Speed != 0 && s.Amplitude != 0
}

// BaseHeight returns the y coordinate around which an animated sphere
// oscillates. The sphere touches the ground plane at the bottom of its swing.
func (s *Sphere) BaseHeight() float32 {
	return s.Radius + s.Amplitude
}

// Intersects checks whether the bounding volumes of two spheres overlap.
// Spheres that touch do not intersect.
func (s *Sphere) Intersects(other *Sphere) bool {
	minDist := s.Radius + other.Radius
	return s.Position.Sub(other.Position).LenSq() < minDist*minDist
}

// Layout selects the packed representation of a sphere in device memory.
type Layout uint8

// Supported layouts.
const (
	// position, radius, albedo, specular
	StaticLayout Layout = iota
	// StaticLayout followed by speed and amplitude.
	AnimatedLayout
)

// Floats returns the number of float32 words per packed sphere.
func (l Layout) Floats() int {
	switch l {
	case StaticLayout:
		return 10
	case AnimatedLayout:
		return 12
	}
	panic(fmt.Sprintf("scene: unsupported layout %d", l))
}

// Stride returns the size in bytes of a packed sphere.
func (l Layout) Stride() int {
	return l.Floats() * 4
}

func (l Layout) String() string {
	switch l {
	case StaticLayout:
		return "static"
	case AnimatedLayout:
		return "animated"
	}
	return fmt.Sprintf("layout(%d)", uint8(l))
}

// Pack serializes spheres using the given layout. The result is appended to
// dst[:0] so callers can recycle the backing array across frames.
func Pack(spheres []Sphere, layout Layout, dst []float32) []float32 {
	stride := layout.Floats()
	need := len(spheres) * stride
	if cap(dst) < need {
		dst = make([]float32, need)
	}
	dst = dst[:need]

	for index := range spheres {
		s := &spheres[index]
		out := dst[index*stride : (index+1)*stride]
		out[0], out[1], out[2] = s.Position[0], s.Position[1], s.Position[2]
		out[3] = s.Radius
		out[4], out[5], out[6] = s.Albedo[0], s.Albedo[1], s.Albedo[2]
		out[7], out[8], out[9] = s.Specular[0], s.Specular[1], s.Specular[2]
		if layout == AnimatedLayout {
			out[10] = s.Speed
			out[11] = s.Amplitude
		}
	}

	return dst
}
