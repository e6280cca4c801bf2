package scene

import (
	"fmt"

	"github.com/achilleasa/spheretrace/types"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ErrInvalidCamera is returned for camera settings that cannot produce a projection.
var ErrInvalidCamera = errors.New("scene: invalid camera")

// Keep the view direction away from the up vector.
const maxPitch = math32.Pi/2 - 0.01

var worldUp = mgl32.Vec3{0, 1, 0}

type CameraDirection uint8

// Camera movement directions.
const (
	Forward CameraDirection = iota
	Backward
	Left
	Right
	Up
	Down
)

func (d CameraDirection) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// Pose is a comparable snapshot of everything that affects the primary rays
// generated by a camera.
type Pose struct {
	Position types.Vec3
	Yaw      float32
	Pitch    float32
	FOV      float32
}

// The camera type controls the scene camera. Yaw and pitch are expressed in
// radians; a zero yaw looks down the +Z axis.
type Camera struct {
	Position types.Vec3
	Yaw      float32
	Pitch    float32

	// Vertical field of view in degrees.
	FOV float32

	// Clip planes.
	Near float32
	Far  float32
}

// NewCamera creates a camera at the given position.
func NewCamera(position types.Vec3, yaw, pitch, fov float32) *Camera {
	c := &Camera{
		Position: position,
		Yaw:      yaw,
		FOV:      fov,
		Near:     0.3,
		Far:      1000,
	}
	c.Rotate(0, pitch)
	return c
}

// Validate checks that the camera can produce a valid projection.
func (c *Camera) Validate() error {
	if !(c.FOV > 0 && c.FOV < 180) {
		return errors.Wrapf(ErrInvalidCamera, "fov %f outside (0, 180)", c.FOV)
	}
	if !(c.Near > 0 && c.Far > c.Near) {
		return errors.Wrapf(ErrInvalidCamera, "clip planes [%f, %f] are invalid", c.Near, c.Far)
	}
	return nil
}

// Pose returns a snapshot of the camera state.
func (c *Camera) Pose() Pose {
	return Pose{
		Position: c.Position,
		Yaw:      c.Yaw,
		Pitch:    c.Pitch,
		FOV:      c.FOV,
	}
}

// Forward returns the unit view direction.
func (c *Camera) Forward() types.Vec3 {
	cosPitch := math32.Cos(c.Pitch)
	return types.XYZ(
		math32.Sin(c.Yaw)*cosPitch,
		math32.Sin(c.Pitch),
		math32.Cos(c.Yaw)*cosPitch,
	)
}

// Move the camera along dir by the given distance.
func (c *Camera) Move(dir CameraDirection, amount float32) {
	forward := c.Forward()
	right := forward.Cross(types.XYZ(0, 1, 0)).Normalize()

	var delta types.Vec3
	switch dir {
	case Forward:
		delta = forward
	case Backward:
		delta = forward.Mul(-1)
	case Left:
		delta = right.Mul(-1)
	case Right:
		delta = right
	case Up:
		delta = types.XYZ(0, 1, 0)
	case Down:
		delta = types.XYZ(0, -1, 0)
	}

	c.Position = c.Position.Add(delta.Mul(amount))
}

// Rotate the camera by the given yaw/pitch deltas. Pitch is clamped short of
// the poles so the view basis stays defined.
func (c *Camera) Rotate(deltaYaw, deltaPitch float32) {
	c.Yaw += deltaYaw
	c.Pitch += deltaPitch
	if c.Pitch > maxPitch {
		c.Pitch = maxPitch
	} else if c.Pitch < -maxPitch {
		c.Pitch = -maxPitch
	}
}

// ViewMatrix returns the world to camera transformation.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	eye := mgl32.Vec3(c.Position)
	return mgl32.LookAtV(eye, eye.Add(mgl32.Vec3(c.Forward())), worldUp)
}

// CameraToWorld returns the camera to world transformation. The camera looks
// down its local -Z axis.
func (c *Camera) CameraToWorld() mgl32.Mat4 {
	return c.ViewMatrix().Inv()
}

// Projection returns the perspective projection for the given aspect ratio.
func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

// InverseProjection maps clip space coordinates back to camera space.
func (c *Camera) InverseProjection(aspect float32) mgl32.Mat4 {
	return c.Projection(aspect).Inv()
}
