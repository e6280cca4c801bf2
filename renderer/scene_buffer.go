package renderer

import (
	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/pkg/errors"
)

// SceneBufferManager owns the device buffer holding the packed sphere
// records of the active scene.
type SceneBufferManager struct {
	logger log.Logger
	device tracer.Device

	buffer tracer.Buffer
	count  int
	layout scene.Layout

	// Host-side staging area reused between uploads.
	packed []float32

	reallocations int
}

// NewSceneBufferManager creates a manager allocating from dev.
func NewSceneBufferManager(dev tracer.Device) *SceneBufferManager {
	return &SceneBufferManager{
		logger: log.New("scene buffer"),
		device: dev,
	}
}

// Sync uploads the packed contents of sc to the device. The buffer is
// reallocated only when its capacity in records or its record layout no
// longer matches the scene; the upload itself always happens. An empty scene
// releases the buffer and yields a nil handle.
//
// The returned handle stays valid until the next reallocating Sync.
func (m *SceneBufferManager) Sync(sc *scene.Scene) (buf tracer.Buffer, reallocated bool, err error) {
	count, layout := sc.Len(), sc.Layout()

	if count == 0 {
		reallocated = m.buffer != nil
		m.Release()
		return nil, reallocated, nil
	}

	if m.buffer == nil || m.count != count || m.layout != layout {
		m.Release()

		size := count * layout.Stride()
		m.buffer, err = m.device.NewBuffer("spheres", size)
		if err != nil {
			m.buffer = nil
			return nil, false, errors.Wrapf(ErrResourceAllocation, "allocating %d bytes for %d spheres: %v", size, count, err)
		}

		m.count, m.layout = count, layout
		m.reallocations++
		reallocated = true
		m.logger.Debugf("allocated buffer for %d spheres (%s layout, %d bytes)", count, layout, size)
	}

	m.packed = scene.Pack(sc.Spheres, layout, m.packed)
	if err = m.buffer.Write(m.packed); err != nil {
		return nil, reallocated, errors.Wrapf(ErrResourceAllocation, "uploading %d spheres: %v", count, err)
	}

	return m.buffer, reallocated, nil
}

// Capacity returns the number of sphere records the current buffer holds.
func (m *SceneBufferManager) Capacity() int {
	if m.buffer == nil {
		return 0
	}
	return m.count
}

// Layout returns the record layout of the current buffer.
func (m *SceneBufferManager) Layout() scene.Layout {
	return m.layout
}

// Reallocations returns the number of buffer allocations performed so far.
func (m *SceneBufferManager) Reallocations() int {
	return m.reallocations
}

// Release frees the device buffer.
func (m *SceneBufferManager) Release() {
	if m.buffer != nil {
		m.buffer.Release()
		m.buffer = nil
	}
	m.count = 0
}
