package opencl

import (
	"strings"
	"testing"

	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/tracer/cpu"
	"github.com/achilleasa/spheretrace/types"
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"pgregory.net/rand"
)

func openTestDevice(t *testing.T) *Device {
	dev, err := Select("", nil)
	if err != nil {
		t.Skipf("skipping opencl tests: %v", err)
	}

	d, err := NewDevice(dev)
	if err != nil {
		t.Fatalf("error initializing device '%s': %v", dev.Name, err)
	}
	return d
}

// Render a frame on dev and return the result texels.
func renderTestFrame(t *testing.T, dev tracer.Device, sc *scene.Scene, cam *scene.Camera, w, h uint32) []float32 {
	sky := scene.ProceduralSkybox(64, 32)

	result, err := dev.NewImage("result", w, h)
	if err != nil {
		t.Fatal(err)
	}
	defer result.Release()

	skyTex, err := dev.NewTexture("sky", sky.Width, sky.Height, sky.Texels)
	if err != nil {
		t.Fatal(err)
	}
	defer skyTex.Release()

	args := &tracer.KernelArgs{
		Result:                  result,
		CameraToWorld:           cam.CameraToWorld(),
		CameraInverseProjection: cam.InverseProjection(float32(w) / float32(h)),
		SkyboxTexture:           skyTex,
		PixelOffset:             types.XY(0.5, 0.5),
		DirectionalLight:        scene.LightFromAngles(50, -30, 1).Vec4(),
		SphereStride:            uint32(scene.StaticLayout.Stride()),
		ReflectionsCount:        4,
	}

	if sc.Len() > 0 {
		packed := scene.Pack(sc.Spheres, scene.StaticLayout, nil)
		spheres, err := dev.NewBuffer("spheres", len(packed)*4)
		if err != nil {
			t.Fatal(err)
		}
		defer spheres.Release()
		if err = spheres.Write(packed); err != nil {
			t.Fatal(err)
		}
		args.Spheres, args.SphereCount = spheres, uint32(sc.Len())
	}

	gx, gy := tracer.ThreadGroups(w, h)
	if _, err = dev.Dispatch(args, gx, gy); err != nil {
		t.Fatal(err)
	}

	out := make([]float32, w*h*4)
	if err = result.Read(out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestDispatchMatchesReference(t *testing.T) {
	dev := openTestDevice(t)
	defer dev.Close()

	opts := scene.DefaultBuildOptions()
	opts.TargetCount = 20
	opts.PlacementRadius = 40
	sc, _, err := scene.NewBuilder(rand.New(1)).Build(opts)
	if err != nil {
		t.Fatal(err)
	}

	ref := cpu.NewDevice(cpu.Options{})
	defer ref.Close()

	cam := scene.NewCamera(types.XYZ(0, 30, -90), 0, -0.3, 60)
	w, h := uint32(37), uint32(21)
	got := renderTestFrame(t, dev, sc, cam, w, h)
	exp := renderTestFrame(t, ref, sc, cam, w, h)

	// Allow a few pixels to differ where rounding flips an edge test.
	mismatches := 0
	for i := range exp {
		if math32.Abs(got[i]-exp[i]) > 1e-2 {
			mismatches++
		}
	}
	if mismatches > len(exp)/50 {
		t.Fatalf("expected opencl output to match the reference; %d of %d values differ", mismatches, len(exp))
	}
}

func TestProgramAvoidsInfiniteSentinels(t *testing.T) {
	for _, opt := range []string{"-cl-fast-relaxed-math", "-cl-finite-math-only"} {
		if strings.Contains(buildOptions, opt) {
			t.Fatalf("expected build options %q not to contain %s", buildOptions, opt)
		}
	}
	if strings.Contains(programSource, "INFINITY") {
		t.Fatal("expected the tracer program to use a finite miss sentinel")
	}
	if !strings.Contains(programSource, "#define NO_HIT FLT_MAX") {
		t.Fatal("expected misses to be marked with FLT_MAX")
	}
}

func TestDispatchSkyOnlyMatchesReference(t *testing.T) {
	dev := openTestDevice(t)
	defer dev.Close()

	ref := cpu.NewDevice(cpu.Options{})
	defer ref.Close()

	// Every primary ray escapes so each pixel must sample the skybox.
	cam := scene.NewCamera(types.XYZ(0, 10, 0), 0, 1.2, 60)
	w, h := uint32(16), uint32(9)
	got := renderTestFrame(t, dev, &scene.Scene{}, cam, w, h)
	exp := renderTestFrame(t, ref, &scene.Scene{}, cam, w, h)

	for i := range exp {
		if math32.Abs(got[i]-exp[i]) > 1e-2 {
			t.Fatalf("expected sky texel %d to be %f; got %f", i, exp[i], got[i])
		}
	}
	lit := false
	for i := 0; i < len(got); i += 4 {
		if got[i]+got[i+1]+got[i+2] > 0 {
			lit = true
			break
		}
	}
	if !lit {
		t.Fatal("expected escaping rays to pick up the skybox color")
	}
}

func TestComposite(t *testing.T) {
	dev := openTestDevice(t)
	defer dev.Close()

	src, err := dev.NewTexture("src", 3, 1, []float32{1, 1, 1, 1, 2, 2, 2, 1, 3, 3, 3, 1})
	if err != nil {
		t.Fatal(err)
	}
	defer src.Release()
	dst, err := dev.NewImage("dst", 3, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer dst.Release()

	if _, err = dev.Composite(src, dst, 1); err != nil {
		t.Fatal(err)
	}
	if _, err = dev.Composite(src, dst, 0.5); err != nil {
		t.Fatal(err)
	}

	out := make([]float32, 12)
	if err = dst.Read(out); err != nil {
		t.Fatal(err)
	}
	for px := 0; px < 3; px++ {
		if out[px*4] != float32(px+1) {
			t.Fatalf("expected pixel %d to be %d; got %f", px, px+1, out[px*4])
		}
	}
}

func TestForeignResources(t *testing.T) {
	dev := openTestDevice(t)
	defer dev.Close()

	ref := cpu.NewDevice(cpu.Options{})
	defer ref.Close()
	foreign, _ := ref.NewImage("foreign", 1, 1)

	if _, err := dev.Dispatch(&tracer.KernelArgs{Result: foreign}, 1, 1); errors.Cause(err) != ErrForeignResource {
		t.Fatalf("expected ErrForeignResource; got %v", err)
	}
}
