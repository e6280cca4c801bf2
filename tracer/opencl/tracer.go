package opencl

import (
	_ "embed"
	"time"

	"github.com/achilleasa/spheretrace/log"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/tracer/opencl/device"
	"github.com/pkg/errors"
)

//go:embed CL/tracer.cl
var programSource string

// The kernels rely on FLT_MAX as a miss sentinel and must match the cpu
// device, so finite-math and relaxed-precision options are not used.
const buildOptions = "-cl-mad-enable"

// Device runs the tracing and compositing kernels on an opencl device.
type Device struct {
	logger log.Logger
	dev    *device.Device

	kernels []*device.Kernel

	// Bound in place of optional buffer arguments.
	placeholder *device.Buffer
}

// NewDevice compiles the tracer program for the given opencl device.
func NewDevice(dev *device.Device) (*Device, error) {
	if dev == nil {
		return nil, errors.New("opencl tracer: invalid device handle")
	}

	d := &Device{
		logger: log.New("opencl tracer"),
		dev:    dev,
	}

	err := dev.Init(programSource, buildOptions)
	if err != nil {
		return nil, err
	}

	d.kernels = make([]*device.Kernel, numKernels)
	var kType kernelType
	for kType = 0; kType < numKernels; kType++ {
		d.kernels[kType], err = dev.Kernel(kType.String())
		if err != nil {
			d.Close()
			return nil, err
		}
	}

	d.placeholder = dev.Buffer("placeholder")
	if err = d.placeholder.Allocate(16, device.ReadOnly); err != nil {
		d.Close()
		return nil, err
	}

	d.logger.Debugf("compiled tracer kernels for %s", dev.Name)
	return d, nil
}

// Select picks the fastest device matching name and not matching any of the
// blacklisted names; GPUs are preferred over other device types.
func Select(matchName string, blackList []string) (*device.Device, error) {
	for _, typeMask := range []device.DeviceType{device.GpuDevice, device.AllDevices} {
		candidates, err := device.SelectDevices(typeMask, matchName, blackList...)
		if err != nil {
			return nil, err
		}

		var best *device.Device
		for _, candidate := range candidates {
			if best == nil || candidate.Speed > best.Speed {
				best = candidate
			}
		}
		if best != nil {
			return best, nil
		}
	}

	return nil, ErrNoDevices
}

// Name implements tracer.Device.
func (d *Device) Name() string {
	return d.dev.Name
}

// NewBuffer implements tracer.Device.
func (d *Device) NewBuffer(name string, size int) (tracer.Buffer, error) {
	buf := d.dev.Buffer(name)
	if err := buf.Allocate(size, device.ReadOnly); err != nil {
		return nil, err
	}
	d.logger.Debugf("allocated buffer %s (%d bytes)", name, size)
	return &buffer{owner: d, buf: buf}, nil
}

// NewImage implements tracer.Device.
func (d *Device) NewImage(name string, width, height uint32) (tracer.Image, error) {
	if width == 0 || height == 0 {
		return nil, errors.Errorf("opencl tracer: image %s has zero dimensions", name)
	}

	buf := d.dev.Buffer(name)
	if err := buf.Allocate(int(width)*int(height)*16, device.ReadWrite); err != nil {
		return nil, err
	}
	d.logger.Debugf("allocated image %s (%dx%d)", name, width, height)
	return &image{owner: d, buf: buf, width: width, height: height}, nil
}

// NewTexture implements tracer.Device.
func (d *Device) NewTexture(name string, width, height uint32, texels []float32) (tracer.Image, error) {
	if len(texels) != int(width)*int(height)*4 {
		return nil, errors.Errorf("opencl tracer: texture %s expects %d values; got %d", name, width*height*4, len(texels))
	}

	img, err := d.NewImage(name, width, height)
	if err != nil {
		return nil, err
	}
	if err = img.(*image).buf.WriteData(texels); err != nil {
		img.Release()
		return nil, err
	}
	return img, nil
}

// Dispatch implements tracer.Device.
func (d *Device) Dispatch(args *tracer.KernelArgs, groupsX, groupsY uint32) (time.Duration, error) {
	if args == nil || args.Result == nil {
		return 0, errors.Wrap(ErrInvalidArgs, "missing result image")
	}
	result, err := d.ownImage(args.Result)
	if err != nil {
		return 0, err
	}

	skyBuf, skyW, skyH := d.placeholder, uint32(0), uint32(0)
	if args.SkyboxTexture != nil {
		sky, err := d.ownImage(args.SkyboxTexture)
		if err != nil {
			return 0, err
		}
		skyBuf, skyW, skyH = sky.buf, sky.width, sky.height
	}

	sphereBuf := d.placeholder
	if args.SphereCount > 0 {
		spheres, ok := args.Spheres.(*buffer)
		if !ok || spheres.owner != d {
			return 0, errors.Wrap(ErrForeignResource, "sphere buffer")
		}
		if args.SphereStride < 40 || args.SphereStride%4 != 0 {
			return 0, errors.Wrapf(ErrInvalidArgs, "unsupported sphere stride %d", args.SphereStride)
		}
		if int(args.SphereCount*args.SphereStride) > spheres.buf.Size() {
			return 0, errors.Wrapf(ErrInvalidArgs, "sphere buffer too small for %d spheres", args.SphereCount)
		}
		sphereBuf = spheres.buf
	}

	kernel := d.kernels[traceSpheres]
	err = kernel.SetArgs(
		result.buf,
		result.width,
		result.height,
		args.CameraToWorld,
		args.CameraInverseProjection,
		skyBuf,
		skyW,
		skyH,
		args.PixelOffset,
		args.DirectionalLight,
		sphereBuf,
		args.SphereCount,
		args.SphereStride/4,
		args.ReflectionsCount,
		args.Time,
	)
	if err != nil {
		return 0, err
	}

	return kernel.Exec2D(
		int(groupsX*tracer.TileSize),
		int(groupsY*tracer.TileSize),
		tracer.TileSize,
		tracer.TileSize,
	)
}

// Composite implements tracer.Device.
func (d *Device) Composite(src, dst tracer.Image, weight float32) (time.Duration, error) {
	srcImg, err := d.ownImage(src)
	if err != nil {
		return 0, err
	}
	dstImg, err := d.ownImage(dst)
	if err != nil {
		return 0, err
	}
	if srcImg.width != dstImg.width || srcImg.height != dstImg.height {
		return 0, errors.Wrapf(ErrInvalidArgs, "composite dimension mismatch %dx%d vs %dx%d", srcImg.width, srcImg.height, dstImg.width, dstImg.height)
	}

	kernel := d.kernels[compositeSample]
	err = kernel.SetArgs(
		srcImg.buf,
		dstImg.buf,
		dstImg.width,
		dstImg.height,
		weight,
	)
	if err != nil {
		return 0, err
	}

	groupsX, groupsY := tracer.ThreadGroups(dstImg.width, dstImg.height)
	return kernel.Exec2D(
		int(groupsX*tracer.TileSize),
		int(groupsY*tracer.TileSize),
		tracer.TileSize,
		tracer.TileSize,
	)
}

// Close implements tracer.Device.
func (d *Device) Close() {
	if d.placeholder != nil {
		d.placeholder.Release()
		d.placeholder = nil
	}

	for _, kernel := range d.kernels {
		if kernel != nil {
			kernel.Release()
		}
	}
	d.kernels = nil

	d.dev.Close()
}

func (d *Device) ownImage(img tracer.Image) (*image, error) {
	own, ok := img.(*image)
	if !ok || own.owner != d {
		return nil, errors.Wrapf(ErrForeignResource, "image %s", img.Name())
	}
	return own, nil
}
