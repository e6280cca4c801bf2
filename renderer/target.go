package renderer

import (
	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/pkg/errors"
)

// Target groups the surface written by the tracing kernel with the image
// that accumulates the running average of its samples.
type Target struct {
	Result  tracer.Image
	Display tracer.Image
}

// TargetManager owns the accumulation target and keeps it sized to the
// viewport. It reports invalidation but never resets accumulation itself.
type TargetManager struct {
	logger log.Logger
	device tracer.Device

	target *Target
	width  uint32
	height uint32

	reallocations int
}

// NewTargetManager creates a manager allocating from dev.
func NewTargetManager(dev tracer.Device) *TargetManager {
	return &TargetManager{
		logger: log.New("target"),
		device: dev,
	}
}

// Ensure returns a target matching the given dimensions. If the current
// target is missing or has different dimensions it is recreated and
// invalidated is set to true.
func (m *TargetManager) Ensure(width, height uint32) (target *Target, invalidated bool, err error) {
	if width == 0 || height == 0 {
		return nil, false, errors.Wrapf(ErrInvalidConfiguration, "viewport %dx%d has a zero dimension", width, height)
	}

	if m.target != nil && m.width == width && m.height == height {
		return m.target, false, nil
	}

	m.Release()

	result, err := m.device.NewImage("result", width, height)
	if err != nil {
		return nil, false, errors.Wrapf(ErrResourceAllocation, "allocating %dx%d result image: %v", width, height, err)
	}
	display, err := m.device.NewImage("display", width, height)
	if err != nil {
		result.Release()
		return nil, false, errors.Wrapf(ErrResourceAllocation, "allocating %dx%d display image: %v", width, height, err)
	}

	m.target = &Target{Result: result, Display: display}
	m.width, m.height = width, height
	m.reallocations++
	m.logger.Debugf("allocated %dx%d accumulation target", width, height)

	return m.target, true, nil
}

// Dimensions returns the size of the current target or zeros if no target
// is allocated.
func (m *TargetManager) Dimensions() (uint32, uint32) {
	if m.target == nil {
		return 0, 0
	}
	return m.width, m.height
}

// Target returns the current target or nil.
func (m *TargetManager) Target() *Target {
	return m.target
}

// Reallocations returns the number of target allocations performed so far.
func (m *TargetManager) Reallocations() int {
	return m.reallocations
}

// Release frees the target images.
func (m *TargetManager) Release() {
	if m.target == nil {
		return
	}
	m.target.Result.Release()
	m.target.Display.Release()
	m.target = nil
	m.width, m.height = 0, 0
}
