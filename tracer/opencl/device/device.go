package device

import (
	"fmt"
	"regexp"

	"github.com/jgillich/go-opencl/cl"
)

type DeviceType uint8

// Supported device types.
const (
	CpuDevice   DeviceType = 1 << iota
	GpuDevice              = 1 << iota
	OtherDevice            = 1 << iota
	AllDevices             = 0xFF
)

var (
	indentRegex = regexp.MustCompile("(?m)^")
)

func (dt DeviceType) String() string {
	switch dt {
	case CpuDevice:
		return "CPU"
	case GpuDevice:
		return "GPU"
	case OtherDevice:
		return "Other"
	}
	panic("opencl: unsupported device type")
}

func deviceTypeFromCL(clType cl.DeviceType) DeviceType {
	switch clType {
	case cl.DeviceTypeCPU:
		return CpuDevice
	case cl.DeviceTypeGPU:
		return GpuDevice
	}
	return OtherDevice
}

// Wrapper around opencl-supported devices.
type Device struct {
	Name string
	Type DeviceType

	compUnits  int
	clockSpeed int

	// Speed estimate in GFlops.
	Speed int

	id *cl.Device

	// Opencl handles; allocated when device is initialized.
	ctx      *cl.Context
	cmdQueue *cl.CommandQueue
	program  *cl.Program
}

func newDevice(id *cl.Device, devType DeviceType) *Device {
	d := &Device{
		Name:       id.Name(),
		Type:       devType,
		id:         id,
		compUnits:  id.MaxComputeUnits(),
		clockSpeed: id.MaxClockFrequency(),
	}

	// Theoretical device speed: compute units * 2ops/cycle * clock speed
	d.Speed = d.compUnits * d.clockSpeed / 1000
	return d
}

// Implements Stringer.
func (d Device) String() string {
	return fmt.Sprintf(
		"Name: %s\nType: %s\nSpecs: %d computation units, %d Mhz clock, %d GFlops approximate speed",
		d.Name,
		d.Type.String(),
		d.compUnits,
		d.clockSpeed,
		d.Speed,
	)
}

// Initialize device by building the supplied program source.
func (d *Device) Init(programSrc string, buildOpts string) error {
	var err error

	// Already initialized
	if d.ctx != nil {
		return nil
	}

	d.ctx, err = cl.CreateContext([]*cl.Device{d.id})
	if err != nil {
		d.Close()
		return fmt.Errorf("opencl device (%s): could not create opencl context: %v", d.Name, err)
	}

	d.cmdQueue, err = d.ctx.CreateCommandQueue(d.id, 0)
	if err != nil {
		d.Close()
		return fmt.Errorf("opencl device (%s): could not create command queue: %v", d.Name, err)
	}

	d.program, err = d.ctx.CreateProgramWithSource([]string{programSrc})
	if err != nil {
		d.Close()
		return fmt.Errorf("opencl device (%s): could not create program: %v", d.Name, err)
	}

	err = d.program.BuildProgram([]*cl.Device{d.id}, buildOpts)
	if err != nil {
		d.Close()
		if buildErr, ok := err.(cl.BuildError); ok {
			return fmt.Errorf("opencl device (%s): could not build kernel:\n%s", d.Name, string(buildErr))
		}
		return fmt.Errorf("opencl device (%s): could not build kernel: %v", d.Name, err)
	}

	return nil
}

// Shut down the device.
func (d *Device) Close() {
	if d.program != nil {
		d.program.Release()
		d.program = nil
	}

	if d.cmdQueue != nil {
		d.cmdQueue.Release()
		d.cmdQueue = nil
	}

	if d.ctx != nil {
		d.ctx.Release()
		d.ctx = nil
	}
}

// Load kernel by name.
func (d *Device) Kernel(name string) (*Kernel, error) {
	if d.program == nil {
		return nil, fmt.Errorf("opencl device (%s): device not initialized", d.Name)
	}

	kernelHandle, err := d.program.CreateKernel(name)
	if err != nil {
		return nil, fmt.Errorf("opencl device (%s): could not load kernel %s: %v", d.Name, name, err)
	}

	return &Kernel{
		device:       d,
		kernelHandle: kernelHandle,
		name:         name,
	}, nil
}

// Create an empty buffer.
func (d *Device) Buffer(name string) *Buffer {
	return &Buffer{
		device: d,
		name:   name,
	}
}
