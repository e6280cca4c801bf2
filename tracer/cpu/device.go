package cpu

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// DeviceName is the name reported by the cpu device.
const DeviceName = "cpu"

const (
	// MaxImageDimension is the largest image width or height the device accepts.
	MaxImageDimension = 16384

	// MaxBufferSize is the largest buffer in bytes the device accepts.
	MaxBufferSize = 1 << 30
)

var (
	ErrOutOfMemory     = errors.New("cpu device: out of memory")
	ErrForeignResource = errors.New("cpu device: resource not allocated by this device")
	ErrInvalidArgs     = errors.New("cpu device: invalid kernel arguments")
	ErrClosed          = errors.New("cpu device: device closed")
)

// Options configure a cpu device.
type Options struct {
	// Max number of tile rows traced in parallel. Defaults to GOMAXPROCS.
	Workers int

	// Max number of bytes that may be allocated at any time. Zero means unlimited.
	MemoryLimit int
}

// Device is a pure Go implementation of the tracing and compositing kernels.
type Device struct {
	logger log.Logger
	opts   Options

	mu        sync.Mutex
	allocated int
	closed    bool
}

// NewDevice creates a cpu device.
func NewDevice(opts Options) *Device {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	return &Device{
		logger: log.New("cpu device"),
		opts:   opts,
	}
}

// Name implements tracer.Device.
func (d *Device) Name() string {
	return DeviceName
}

func (d *Device) String() string {
	return fmt.Sprintf("Name: %s\nWorkers: %d\nMemory limit: %d bytes", DeviceName, d.opts.Workers, d.opts.MemoryLimit)
}

// Allocated returns the number of bytes currently held by live resources.
func (d *Device) Allocated() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.allocated
}

func (d *Device) reserve(name string, size int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if d.opts.MemoryLimit > 0 && d.allocated+size > d.opts.MemoryLimit {
		return errors.Wrapf(ErrOutOfMemory, "allocating %s (%d bytes) with %d/%d bytes in use", name, size, d.allocated, d.opts.MemoryLimit)
	}
	d.allocated += size
	return nil
}

func (d *Device) free(size int) {
	d.mu.Lock()
	d.allocated -= size
	d.mu.Unlock()
}

// NewBuffer implements tracer.Device.
func (d *Device) NewBuffer(name string, size int) (tracer.Buffer, error) {
	if size < 0 || size%4 != 0 {
		return nil, errors.Errorf("cpu device: buffer %s size %d is not a multiple of 4", name, size)
	}
	if size > MaxBufferSize {
		return nil, errors.Wrapf(ErrOutOfMemory, "buffer %s size %d exceeds the %d byte limit", name, size, MaxBufferSize)
	}
	if err := d.reserve(name, size); err != nil {
		return nil, err
	}

	d.logger.Debugf("allocated buffer %s (%d bytes)", name, size)
	return &buffer{
		device: d,
		name:   name,
		data:   make([]float32, size/4),
	}, nil
}

// NewImage implements tracer.Device.
func (d *Device) NewImage(name string, width, height uint32) (tracer.Image, error) {
	if width == 0 || height == 0 {
		return nil, errors.Errorf("cpu device: image %s has zero dimensions", name)
	}
	if width > MaxImageDimension || height > MaxImageDimension {
		return nil, errors.Wrapf(ErrOutOfMemory, "image %s (%dx%d) exceeds the %dx%d limit", name, width, height, MaxImageDimension, MaxImageDimension)
	}
	size := int(width) * int(height) * 16
	if err := d.reserve(name, size); err != nil {
		return nil, err
	}

	d.logger.Debugf("allocated image %s (%dx%d)", name, width, height)
	return &image{
		device: d,
		name:   name,
		width:  width,
		height: height,
		texels: make([]float32, size/4),
	}, nil
}

// NewTexture implements tracer.Device.
func (d *Device) NewTexture(name string, width, height uint32, texels []float32) (tracer.Image, error) {
	if len(texels) != int(width)*int(height)*4 {
		return nil, errors.Errorf("cpu device: texture %s expects %d values; got %d", name, width*height*4, len(texels))
	}

	img, err := d.NewImage(name, width, height)
	if err != nil {
		return nil, err
	}
	copy(img.(*image).texels, texels)
	return img, nil
}

// Dispatch implements tracer.Device.
func (d *Device) Dispatch(args *tracer.KernelArgs, groupsX, groupsY uint32) (time.Duration, error) {
	k, err := d.prepareKernel(args)
	if err != nil {
		return 0, err
	}

	tick := time.Now()
	var g errgroup.Group
	g.SetLimit(d.opts.Workers)
	for gy := uint32(0); gy < groupsY; gy++ {
		tileRow := gy
		g.Go(func() error {
			for gx := uint32(0); gx < groupsX; gx++ {
				k.traceTile(gx, tileRow)
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return 0, err
	}

	return time.Since(tick), nil
}

// Composite implements tracer.Device.
func (d *Device) Composite(src, dst tracer.Image, weight float32) (time.Duration, error) {
	srcImg, ok := src.(*image)
	if !ok || srcImg.device != d {
		return 0, errors.Wrapf(ErrForeignResource, "composite source %s", src.Name())
	}
	dstImg, ok := dst.(*image)
	if !ok || dstImg.device != d {
		return 0, errors.Wrapf(ErrForeignResource, "composite target %s", dst.Name())
	}
	if srcImg.width != dstImg.width || srcImg.height != dstImg.height {
		return 0, errors.Wrapf(ErrInvalidArgs, "composite dimension mismatch %dx%d vs %dx%d", srcImg.width, srcImg.height, dstImg.width, dstImg.height)
	}

	tick := time.Now()
	s, t := srcImg.texels, dstImg.texels
	if weight >= 1 {
		copy(t, s)
		return time.Since(tick), nil
	}

	rowLen := int(dstImg.width) * 4
	var g errgroup.Group
	g.SetLimit(d.opts.Workers)
	for y := 0; y < int(dstImg.height); y++ {
		start := y * rowLen
		g.Go(func() error {
			for i := start; i < start+rowLen; i++ {
				t[i] += (s[i] - t[i]) * weight
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	return time.Since(tick), nil
}

// Close implements tracer.Device. Resources allocated by the device remain
// readable but no new allocations are accepted.
func (d *Device) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}
