package opencl

import "github.com/pkg/errors"

var (
	ErrNoDevices       = errors.New("opencl tracer: no matching opencl devices")
	ErrForeignResource = errors.New("opencl tracer: resource not allocated by this device")
	ErrInvalidArgs     = errors.New("opencl tracer: invalid kernel arguments")
)
