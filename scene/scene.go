package scene

import (
	"github.com/chewxy/math32"
)

// Scene is an ordered collection of spheres resting on an infinite ground plane.
type Scene struct {
	Spheres []Sphere `yaml:"spheres"`
}

// Len returns the number of spheres in the scene.
func (sc *Scene) Len() int {
	if sc == nil {
		return 0
	}
	return len(sc.Spheres)
}

// Animated returns true if at least one sphere oscillates.
func (sc *Scene) Animated() bool {
	if sc == nil {
		return false
	}
	for index := range sc.Spheres {
		if sc.Spheres[index].Animated() {
			return true
		}
	}
	return false
}

// Layout returns the narrowest packed layout able to represent the scene.
func (sc *Scene) Layout() Layout {
	if sc.Animated() {
		return AnimatedLayout
	}
	return StaticLayout
}

// Clone returns a deep copy of the scene.
func (sc *Scene) Clone() *Scene {
	if sc == nil {
		return nil
	}
	return &Scene{
		Spheres: append([]Sphere(nil), sc.Spheres...),
	}
}

// Animate moves every animated sphere to its height at the given elapsed time
// (in seconds) and reports whether any sphere changed position.
func (sc *Scene) Animate(elapsed float32) bool {
	if sc == nil {
		return false
	}

	moved := false
	for index := range sc.Spheres {
		s := &sc.Spheres[index]
		if !s.Animated() {
			continue
		}

		y := s.BaseHeight() + s.Amplitude*math32.Sin(elapsed*s.Speed)
		if y != s.Position[1] {
			s.Position[1] = y
			moved = true
		}
	}

	return moved
}
