package scene

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"
)

func TestDecodeSkyboxConvertsToLinear(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 188, G: 188, B: 188, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	sky, err := DecodeSkybox(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if sky.Width != 2 || sky.Height != 1 || len(sky.Texels) != 8 {
		t.Fatalf("expected a 2x1 skybox with 8 texel values; got %dx%d with %d", sky.Width, sky.Height, len(sky.Texels))
	}
	if sky.Texels[0] != 1 || sky.Texels[1] != 0 || sky.Texels[3] != 1 {
		t.Fatalf("expected first texel to be opaque red; got %v", sky.Texels[0:4])
	}

	// sRGB 188 is roughly 0.5 in linear space.
	if math32.Abs(sky.Texels[4]-0.5) > 0.01 {
		t.Fatalf("expected mid grey to be ~0.5 in linear space; got %f", sky.Texels[4])
	}
}

func TestLoadSkyboxErrors(t *testing.T) {
	if _, err := LoadSkybox(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("expected an error loading a missing file")
	}

	garbage := filepath.Join(t.TempDir(), "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSkybox(garbage); err == nil {
		t.Fatal("expected an error decoding garbage data")
	}
}

func TestProceduralSkybox(t *testing.T) {
	sky := ProceduralSkybox(8, 4)
	if len(sky.Texels) != 8*4*4 {
		t.Fatalf("expected %d texel values; got %d", 8*4*4, len(sky.Texels))
	}

	// The top row is bluer than the horizon rows.
	top := sky.Texels[0:4]
	horizon := sky.Texels[8*4 : 8*4+4]
	if top[2]-top[0] <= horizon[2]-horizon[0] {
		t.Fatalf("expected zenith %v to be bluer than horizon %v", top, horizon)
	}
	for i := 3; i < len(sky.Texels); i += 4 {
		if sky.Texels[i] != 1 {
			t.Fatalf("expected opaque texels; got alpha %f at %d", sky.Texels[i], i)
		}
	}
}

func TestSRGBToLinear(t *testing.T) {
	type spec struct {
		in, exp float32
	}
	specs := []spec{{0, 0}, {1, 1}, {0.04045, 0.04045 / 12.92}}
	for index, s := range specs {
		if out := srgbToLinear(s.in); math32.Abs(out-s.exp) > 1e-6 {
			t.Fatalf("[spec %d] expected %f; got %f", index, s.exp, out)
		}
	}
}
