package cpu

import (
	"github.com/pkg/errors"
)

type buffer struct {
	device *Device
	name   string
	data   []float32
}

func (b *buffer) Name() string {
	return b.name
}

func (b *buffer) Size() int {
	return len(b.data) * 4
}

func (b *buffer) Write(data []float32) error {
	if b.data == nil && len(data) > 0 {
		return errors.Errorf("cpu device: write to released buffer %s", b.name)
	}
	if len(data) > len(b.data) {
		return errors.Errorf("cpu device: insufficient buffer space (%d) in %s for copying data of length %d", b.Size(), b.name, len(data)*4)
	}
	copy(b.data, data)
	return nil
}

func (b *buffer) Read(dst []float32) error {
	if b.data == nil {
		return errors.Errorf("cpu device: read from released buffer %s", b.name)
	}
	copy(dst, b.data)
	return nil
}

func (b *buffer) Release() {
	if b.data == nil {
		return
	}
	b.device.free(b.Size())
	b.data = nil
}

type image struct {
	device *Device
	name   string
	width  uint32
	height uint32
	texels []float32
}

func (img *image) Name() string {
	return img.name
}

func (img *image) Width() uint32 {
	return img.width
}

func (img *image) Height() uint32 {
	return img.height
}

func (img *image) Read(dst []float32) error {
	if img.texels == nil {
		return errors.Errorf("cpu device: read from released image %s", img.name)
	}
	if len(dst) < len(img.texels) {
		return errors.Errorf("cpu device: destination holds %d values; image %s needs %d", len(dst), img.name, len(img.texels))
	}
	copy(dst, img.texels)
	return nil
}

func (img *image) Release() {
	if img.texels == nil {
		return
	}
	img.device.free(len(img.texels) * 4)
	img.texels = nil
}
