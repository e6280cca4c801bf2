package scene

import (
	"testing"

	"github.com/achilleasa/spheretrace/types"
	"github.com/chewxy/math32"
	"github.com/google/go-cmp/cmp"
)

func testSpheres() []Sphere {
	return []Sphere{
		{
			Position: types.XYZ(1, 2, 3),
			Radius:   2,
			Albedo:   types.XYZ(0.1, 0.2, 0.3),
			Specular: types.XYZ(0.04, 0.04, 0.04),
		},
		{
			Position:  types.XYZ(-5, 4, 6),
			Radius:    4,
			Specular:  types.XYZ(0.9, 0.8, 0.7),
			Speed:     1.5,
			Amplitude: 2,
		},
	}
}

func TestLayoutStride(t *testing.T) {
	type spec struct {
		layout    Layout
		expStride int
	}

	specs := []spec{
		{StaticLayout, 40},
		{AnimatedLayout, 48},
	}

	for index, s := range specs {
		if stride := s.layout.Stride(); stride != s.expStride {
			t.Fatalf("[spec %d] expected %s stride to be %d; got %d", index, s.layout, s.expStride, stride)
		}
	}
}

func TestPackStatic(t *testing.T) {
	packed := Pack(testSpheres(), StaticLayout, nil)

	exp := []float32{
		1, 2, 3, 2, 0.1, 0.2, 0.3, 0.04, 0.04, 0.04,
		-5, 4, 6, 4, 0, 0, 0, 0.9, 0.8, 0.7,
	}
	if diff := cmp.Diff(exp, packed); diff != "" {
		t.Fatalf("packed static layout mismatch (-exp +got):\n%s", diff)
	}
}

func TestPackAnimated(t *testing.T) {
	packed := Pack(testSpheres(), AnimatedLayout, nil)

	if len(packed) != 2*AnimatedLayout.Floats() {
		t.Fatalf("expected %d floats; got %d", 2*AnimatedLayout.Floats(), len(packed))
	}
	if packed[22] != 1.5 || packed[23] != 2 {
		t.Fatalf("expected speed/amplitude (1.5, 2) at the tail of the second record; got (%f, %f)", packed[22], packed[23])
	}
	if packed[10] != 0 || packed[11] != 0 {
		t.Fatalf("expected zero animation params for the static sphere; got (%f, %f)", packed[10], packed[11])
	}
}

func TestPackRecyclesBuffer(t *testing.T) {
	buf := make([]float32, 0, 64)
	packed := Pack(testSpheres(), StaticLayout, buf)
	if &packed[0] != &buf[:1][0] {
		t.Fatal("expected Pack to reuse the supplied backing array")
	}

	if out := Pack(nil, StaticLayout, packed); len(out) != 0 {
		t.Fatalf("expected empty output for an empty scene; got %d floats", len(out))
	}
}

func TestSphereIntersects(t *testing.T) {
	a := Sphere{Position: types.XYZ(0, 1, 0), Radius: 1}
	touching := Sphere{Position: types.XYZ(2, 1, 0), Radius: 1}
	overlapping := Sphere{Position: types.XYZ(1.5, 1, 0), Radius: 1}

	if a.Intersects(&touching) {
		t.Fatal("expected touching spheres not to intersect")
	}
	if !a.Intersects(&overlapping) {
		t.Fatal("expected overlapping spheres to intersect")
	}
}

func TestSceneAnimate(t *testing.T) {
	sc := &Scene{Spheres: testSpheres()}

	if !sc.Animate(1) {
		t.Fatal("expected animation to move the animated sphere")
	}

	static := sc.Spheres[0]
	if static.Position[1] != 2 {
		t.Fatalf("expected static sphere to stay put; got y = %f", static.Position[1])
	}

	animated := sc.Spheres[1]
	exp := animated.BaseHeight() + animated.Amplitude*math32.Sin(1*animated.Speed)
	if math32.Abs(animated.Position[1]-exp) > 1e-5 {
		t.Fatalf("expected animated sphere y to be %f; got %f", exp, animated.Position[1])
	}

	if sc.Animate(1) {
		t.Fatal("expected re-applying the same time not to report motion")
	}
}

func TestSceneStaticDoesNotAnimate(t *testing.T) {
	sc := &Scene{Spheres: testSpheres()[:1]}
	if sc.Animated() || sc.Layout() != StaticLayout {
		t.Fatal("expected a static scene")
	}
	if sc.Animate(10) {
		t.Fatal("expected a static scene never to move")
	}

	var empty *Scene
	if empty.Len() != 0 || empty.Animate(1) {
		t.Fatal("expected nil scene to behave as empty")
	}
}

func TestSceneClone(t *testing.T) {
	sc := &Scene{Spheres: testSpheres()}
	clone := sc.Clone()
	clone.Spheres[0].Radius = 100

	if sc.Spheres[0].Radius == 100 {
		t.Fatal("expected clone to be independent of the original")
	}
}
