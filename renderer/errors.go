package renderer

import "github.com/pkg/errors"

var (
	ErrInvalidConfiguration = errors.New("renderer: invalid configuration")
	ErrResourceAllocation   = errors.New("renderer: resource allocation failed")
	ErrNotInitialized       = errors.New("renderer: not initialized")
	ErrDispatch             = errors.New("renderer: kernel execution failed")
)
