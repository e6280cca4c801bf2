package device

import (
	"fmt"
	"reflect"
	"time"
	"unsafe"

	"github.com/achilleasa/spheretrace/types"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/jgillich/go-opencl/cl"
)

// A wrapper around opencl kernelHandles.
type Kernel struct {
	device       *Device
	kernelHandle *cl.Kernel
	name         string
}

// Free any allocated resources used by this kernel.
func (k *Kernel) Release() {
	if k.kernelHandle != nil {
		k.kernelHandle.Release()
		k.kernelHandle = nil
	}
}

// Bind arguments to kernelHandle.
func (k *Kernel) SetArgs(args ...interface{}) error {
	var err error
	for argIndex, arg := range args {
		switch v := arg.(type) {
		case *Buffer:
			err = k.kernelHandle.SetArgBuffer(argIndex, v.Handle())
		case int32:
			err = k.kernelHandle.SetArgInt32(argIndex, v)
		case uint32:
			err = k.kernelHandle.SetArgUint32(argIndex, v)
		case float32:
			err = k.kernelHandle.SetArgFloat32(argIndex, v)
		case types.Vec2:
			err = k.kernelHandle.SetArgUnsafe(argIndex, 8, unsafe.Pointer(&v[0]))
		case types.Vec4:
			err = k.kernelHandle.SetArgUnsafe(argIndex, 16, unsafe.Pointer(&v[0]))
		case mgl32.Mat4:
			err = k.kernelHandle.SetArgUnsafe(argIndex, 64, unsafe.Pointer(&v[0]))
		default:
			return fmt.Errorf(
				"opencl device (%s): could not set arg %d for kernelHandle %s; unsupported arg type: %s",
				k.device.Name,
				argIndex,
				k.name,
				reflect.TypeOf(arg),
			)
		}

		if err != nil {
			return fmt.Errorf(
				"opencl device (%s): could not set arg %d for kernelHandle %s: %v",
				k.device.Name,
				argIndex,
				k.name,
				err,
			)
		}
	}

	return nil
}

// Execute 2D kernelHandle and wait for it to complete. If both localWorkSizeX
// and localWorkSizeY are 0 then the opencl implementation will pick the
// optimal local worksize split for the underlying hardware.
func (k *Kernel) Exec2D(globalWorkSizeX, globalWorkSizeY, localWorkSizeX, localWorkSizeY int) (time.Duration, error) {
	var localSizes []int
	if localWorkSizeX != 0 && localWorkSizeY != 0 {
		localSizes = []int{localWorkSizeX, localWorkSizeY}
	}

	tick := time.Now()
	ev, err := k.device.cmdQueue.EnqueueNDRangeKernel(
		k.kernelHandle,
		nil,
		[]int{globalWorkSizeX, globalWorkSizeY},
		localSizes,
		nil,
	)
	if err != nil {
		return 0, fmt.Errorf("opencl device (%s): unable to execute kernel %s: %v", k.device.Name, k.name, err)
	}
	releaseEvent(ev)

	// Wait for the kernelHandle to complete
	if err = k.device.cmdQueue.Finish(); err != nil {
		return 0, fmt.Errorf("opencl device (%s): kernel %s did not complete successfully: %v", k.device.Name, k.name, err)
	}

	return time.Since(tick), nil
}
