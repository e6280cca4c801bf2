package opencl

import "fmt"

type kernelType uint8

// The list of kernels that implement the tracer.
const (
	traceSpheres kernelType = iota
	compositeSample
	//
	numKernels
)

// Implements Stringer; map kernel type to the kernel name as defined in the CL source files.
func (kt kernelType) String() string {
	switch kt {
	case traceSpheres:
		return "traceSpheres"
	case compositeSample:
		return "compositeSample"
	default:
		panic(fmt.Sprintf("Unsupported kernel type: %d", kt))
	}
}
