package device

import (
	"fmt"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"
)

// Memory access flags.
const (
	ReadOnly  = cl.MemReadOnly
	WriteOnly = cl.MemWriteOnly
	ReadWrite = cl.MemReadWrite
)

type Buffer struct {
	// Handle to opencl buffer.
	bufHandle *cl.MemObject

	// Associated Device.
	device *Device

	// A name for identifying the buffer.
	name string

	// Allocated size.
	size int
}

// Get buffer name.
func (b *Buffer) Name() string {
	return b.name
}

// Get buffer size.
func (b *Buffer) Size() int {
	return b.size
}

// Allocate a buffer with the given size and flags.
func (b *Buffer) Allocate(size int, flags cl.MemFlag) error {
	var err error

	// If the buffer is alreay allocated release it
	b.Release()

	if b.device.ctx == nil {
		return fmt.Errorf("opencl device (%s): device not initialized", b.device.Name)
	}

	b.bufHandle, err = b.device.ctx.CreateEmptyBuffer(flags, size)
	if err != nil {
		return fmt.Errorf("opencl device (%s): could not allocate buffer %s of size %d: %v", b.device.Name, b.name, size, err)
	}

	b.size = size

	return nil
}

// Write float data to the start of the device buffer.
func (b *Buffer) WriteData(data []float32) error {
	if len(data) == 0 {
		return nil
	}

	dataLen := len(data) * 4
	if dataLen > b.size {
		return fmt.Errorf("opencl device(%s): insufficient buffer space (%d) in %s for copying data of length %d", b.device.Name, b.size, b.name, dataLen)
	}

	ev, err := b.device.cmdQueue.EnqueueWriteBuffer(b.bufHandle, true, 0, dataLen, unsafe.Pointer(&data[0]), nil)
	if err != nil {
		return fmt.Errorf("opencl device(%s): error copying host data to device buffer %s: %v", b.device.Name, b.name, err)
	}
	releaseEvent(ev)

	return nil
}

// Read data from the start of the device buffer into the supplied host buffer.
func (b *Buffer) ReadData(dst []float32) error {
	size := len(dst) * 4
	if size > b.size {
		size = b.size
	}
	if size == 0 {
		return nil
	}

	ev, err := b.device.cmdQueue.EnqueueReadBuffer(b.bufHandle, true, 0, size, unsafe.Pointer(&dst[0]), nil)
	if err != nil {
		return fmt.Errorf("opencl device(%s): error copying device data from %s to host buffer: %v", b.device.Name, b.name, err)
	}
	releaseEvent(ev)

	return nil
}

// Release buffer.
func (b *Buffer) Release() {
	if b.bufHandle != nil {
		b.bufHandle.Release()
		b.bufHandle = nil
		b.size = 0
	}
}

// Get opencl buffer handle.
func (b *Buffer) Handle() *cl.MemObject {
	return b.bufHandle
}

func releaseEvent(ev *cl.Event) {
	if ev != nil {
		ev.Release()
	}
}
