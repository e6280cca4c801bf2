package tracer

import (
	"time"

	"github.com/achilleasa/spheretrace/types"
	"github.com/go-gl/mathgl/mgl32"
)

// TileSize is the edge length of the square thread groups used by the
// tracing kernel.
const TileSize = 8

// Buffer is a linear region of device memory.
type Buffer interface {
	// Name used for identifying the buffer in logs and errors.
	Name() string

	// Allocated size in bytes.
	Size() int

	// Copy host data to the start of the buffer.
	Write(data []float32) error

	// Copy the start of the buffer into dst.
	Read(dst []float32) error

	// Free device memory. Calling Release more than once is a no-op.
	Release()
}

// Image is a 2D surface of RGBA float32 texels stored in row-major order
// with row 0 at the top.
type Image interface {
	Name() string
	Width() uint32
	Height() uint32

	// Read all texels into dst which must hold at least width * height * 4 values.
	Read(dst []float32) error

	Release()
}

// KernelArgs is the parameter table bound before every tracing dispatch.
type KernelArgs struct {
	// Output surface receiving one radiance sample per pixel.
	Result Image

	CameraToWorld           mgl32.Mat4
	CameraInverseProjection mgl32.Mat4

	// Equirectangular environment map sampled by rays that escape the scene.
	SkyboxTexture Image

	// Sub-pixel jitter in [0, 1)^2.
	PixelOffset types.Vec2

	// Light direction in xyz and intensity in w.
	DirectionalLight types.Vec4

	// Packed sphere records. May be nil when SphereCount is zero.
	Spheres      Buffer
	SphereCount  uint32
	SphereStride uint32

	ReflectionsCount uint32

	// Elapsed time in seconds.
	Time float32
}

// Device abstracts a compute device able to run the tracing and compositing kernels.
type Device interface {
	// Device name.
	Name() string

	// Allocate a buffer with the given size in bytes.
	NewBuffer(name string, size int) (Buffer, error)

	// Allocate a writable float image. Initial contents are undefined.
	NewImage(name string, width, height uint32) (Image, error)

	// Allocate a read-only image and initialize it with texels.
	NewTexture(name string, width, height uint32, texels []float32) (Image, error)

	// Run the tracing kernel over groupsX * groupsY thread groups of
	// TileSize x TileSize pixels. Threads falling outside the result image
	// do nothing.
	Dispatch(args *KernelArgs, groupsX, groupsY uint32) (time.Duration, error)

	// Blend src into dst as dst + (src - dst) * weight.
	Composite(src, dst Image, weight float32) (time.Duration, error)

	// Release all device resources.
	Close()
}

// ThreadGroups returns the number of thread groups needed to cover a frame
// of the given dimensions.
func ThreadGroups(width, height uint32) (uint32, uint32) {
	return (width + TileSize - 1) / TileSize, (height + TileSize - 1) / TileSize
}
