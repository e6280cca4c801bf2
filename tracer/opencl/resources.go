package opencl

import (
	"github.com/achilleasa/spheretrace/tracer/opencl/device"
	"github.com/pkg/errors"
)

// Adapts a device buffer to tracer.Buffer.
type buffer struct {
	owner *Device
	buf   *device.Buffer
}

func (b *buffer) Name() string {
	return b.buf.Name()
}

func (b *buffer) Size() int {
	return b.buf.Size()
}

func (b *buffer) Write(data []float32) error {
	return b.buf.WriteData(data)
}

func (b *buffer) Read(dst []float32) error {
	return b.buf.ReadData(dst)
}

func (b *buffer) Release() {
	b.buf.Release()
}

// A float4 device buffer with 2D dimensions.
type image struct {
	owner  *Device
	buf    *device.Buffer
	width  uint32
	height uint32
}

func (img *image) Name() string {
	return img.buf.Name()
}

func (img *image) Width() uint32 {
	return img.width
}

func (img *image) Height() uint32 {
	return img.height
}

func (img *image) Read(dst []float32) error {
	need := int(img.width) * int(img.height) * 4
	if len(dst) < need {
		return errors.Errorf("opencl tracer: destination holds %d values; image %s needs %d", len(dst), img.buf.Name(), need)
	}
	return img.buf.ReadData(dst[:need])
}

func (img *image) Release() {
	img.buf.Release()
}
