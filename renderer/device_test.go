package renderer

import (
	"time"

	"github.com/achilleasa/spheretrace/tracer"
	"github.com/pkg/errors"
)

var errFakeAlloc = errors.New("fake device: allocation failed")

type dispatchCall struct {
	args    tracer.KernelArgs
	groupsX uint32
	groupsY uint32
}

// A device that records every call made to it.
type fakeDevice struct {
	failBuffers  bool
	failImages   bool
	failDispatch bool

	bufferAllocs int
	imageAllocs  int
	liveBuffers  int
	liveImages   int
	uploads      int

	dispatches []dispatchCall
	weights    []float32
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) NewBuffer(name string, size int) (tracer.Buffer, error) {
	if d.failBuffers {
		return nil, errFakeAlloc
	}
	d.bufferAllocs++
	d.liveBuffers++
	return &fakeBuffer{dev: d, name: name, data: make([]float32, size/4)}, nil
}

func (d *fakeDevice) NewImage(name string, width, height uint32) (tracer.Image, error) {
	if d.failImages {
		return nil, errFakeAlloc
	}
	d.imageAllocs++
	d.liveImages++
	return &fakeImage{dev: d, name: name, width: width, height: height, texels: make([]float32, width*height*4)}, nil
}

func (d *fakeDevice) NewTexture(name string, width, height uint32, texels []float32) (tracer.Image, error) {
	img, err := d.NewImage(name, width, height)
	if err != nil {
		return nil, err
	}
	copy(img.(*fakeImage).texels, texels)
	return img, nil
}

func (d *fakeDevice) Dispatch(args *tracer.KernelArgs, groupsX, groupsY uint32) (time.Duration, error) {
	if d.failDispatch {
		return 0, errors.New("fake device: dispatch failed")
	}
	d.dispatches = append(d.dispatches, dispatchCall{args: *args, groupsX: groupsX, groupsY: groupsY})

	// Write a constant sample so compositing produces predictable output.
	result := args.Result.(*fakeImage)
	for i := range result.texels {
		result.texels[i] = 1
	}
	return time.Millisecond, nil
}

func (d *fakeDevice) Composite(src, dst tracer.Image, weight float32) (time.Duration, error) {
	d.weights = append(d.weights, weight)
	srcImg, dstImg := src.(*fakeImage), dst.(*fakeImage)
	for i := range dstImg.texels {
		dstImg.texels[i] += (srcImg.texels[i] - dstImg.texels[i]) * weight
	}
	return time.Millisecond, nil
}

func (d *fakeDevice) Close() {}

func (d *fakeDevice) lastDispatch() dispatchCall {
	return d.dispatches[len(d.dispatches)-1]
}

type fakeBuffer struct {
	dev      *fakeDevice
	name     string
	data     []float32
	released bool
}

func (b *fakeBuffer) Name() string { return b.name }
func (b *fakeBuffer) Size() int    { return len(b.data) * 4 }

func (b *fakeBuffer) Write(data []float32) error {
	if len(data) > len(b.data) {
		return errors.New("fake device: write out of bounds")
	}
	b.dev.uploads++
	copy(b.data, data)
	return nil
}

func (b *fakeBuffer) Read(dst []float32) error {
	copy(dst, b.data)
	return nil
}

func (b *fakeBuffer) Release() {
	if !b.released {
		b.released = true
		b.dev.liveBuffers--
	}
}

type fakeImage struct {
	dev           *fakeDevice
	name          string
	width, height uint32
	texels        []float32
	released      bool
}

func (img *fakeImage) Name() string   { return img.name }
func (img *fakeImage) Width() uint32  { return img.width }
func (img *fakeImage) Height() uint32 { return img.height }

func (img *fakeImage) Read(dst []float32) error {
	copy(dst, img.texels)
	return nil
}

func (img *fakeImage) Release() {
	if !img.released {
		img.released = true
		img.dev.liveImages--
	}
}
