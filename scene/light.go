package scene

import (
	"github.com/achilleasa/spheretrace/types"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ErrInvalidLight is returned for lights without a direction or with a negative intensity.
var ErrInvalidLight = errors.New("scene: invalid light")

// DirectionalLight models a light source at infinity.
type DirectionalLight struct {
	// Direction in which light travels.
	Direction types.Vec3
	Intensity float32
}

// LightFromAngles builds a light whose direction is the +Z axis rotated by
// pitch around X and then by yaw around Y. Angles are in degrees.
func LightFromAngles(pitch, yaw, intensity float32) DirectionalLight {
	p, y := mgl32.DegToRad(pitch), mgl32.DegToRad(yaw)
	return DirectionalLight{
		Direction: types.XYZ(
			math32.Sin(y)*math32.Cos(p),
			-math32.Sin(p),
			math32.Cos(y)*math32.Cos(p),
		),
		Intensity: intensity,
	}
}

// Validate checks that the light can be used for shading.
func (l DirectionalLight) Validate() error {
	if l.Direction.LenSq() == 0 {
		return errors.Wrap(ErrInvalidLight, "zero direction")
	}
	if !(l.Intensity >= 0) || math32.IsInf(l.Intensity, 1) {
		return errors.Wrapf(ErrInvalidLight, "intensity %f must be a finite non-negative value", l.Intensity)
	}
	return nil
}

// Vec4 packs the normalized direction and intensity as (x, y, z, intensity).
func (l DirectionalLight) Vec4() types.Vec4 {
	return l.Direction.Normalize().Vec4(l.Intensity)
}
