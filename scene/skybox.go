package scene

import (
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/achilleasa/spheretrace/asset"
	"github.com/achilleasa/spheretrace/types"
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Skybox is an equirectangular environment map stored as linear RGBA float texels.
type Skybox struct {
	Width  uint32
	Height uint32
	Texels []float32
}

// LoadSkybox decodes an image file or http(s) URL into a skybox. Any format
// registered with the image package is accepted.
func LoadSkybox(path string) (*Skybox, error) {
	res, err := asset.Open(path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "scene: could not open skybox")
	}
	defer res.Close()

	sky, err := DecodeSkybox(res)
	if err != nil {
		return nil, errors.Wrapf(err, "scene: could not load skybox %q", path)
	}
	return sky, nil
}

// DecodeSkybox decodes an sRGB encoded image and converts it to linear space.
func DecodeSkybox(r io.Reader) (*Skybox, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, errors.New("empty image")
	}

	sky := &Skybox{
		Width:  uint32(w),
		Height: uint32(h),
		Texels: make([]float32, w*h*4),
	}

	offset := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
			sky.Texels[offset+0] = srgbToLinear(float32(c.R) / 0xffff)
			sky.Texels[offset+1] = srgbToLinear(float32(c.G) / 0xffff)
			sky.Texels[offset+2] = srgbToLinear(float32(c.B) / 0xffff)
			sky.Texels[offset+3] = float32(c.A) / 0xffff
			offset += 4
		}
	}

	return sky, nil
}

// ProceduralSkybox generates a sky gradient that fades from a pale horizon
// to a deep blue zenith, with a dim ground color below the horizon.
func ProceduralSkybox(width, height uint32) *Skybox {
	horizon := types.XYZ(0.85, 0.9, 1.0)
	zenith := types.XYZ(0.25, 0.45, 0.85)
	ground := types.XYZ(0.3, 0.28, 0.25)

	sky := &Skybox{
		Width:  width,
		Height: height,
		Texels: make([]float32, int(width*height)*4),
	}

	for y := uint32(0); y < height; y++ {
		// Row 0 maps to the zenith and the last row to the nadir.
		elevation := 1 - 2*(float32(y)+0.5)/float32(height)

		var c types.Vec3
		if elevation >= 0 {
			t := math32.Sqrt(elevation)
			c = horizon.Mul(1 - t).Add(zenith.Mul(t))
		} else {
			t := math32.Min(1, -elevation*4)
			c = horizon.Mul(1 - t).Add(ground.Mul(t))
		}

		row := sky.Texels[int(y*width)*4 : int((y+1)*width)*4]
		for x := 0; x < len(row); x += 4 {
			row[x+0], row[x+1], row[x+2], row[x+3] = c[0], c[1], c[2], 1
		}
	}

	return sky
}

// Convert an sRGB encoded channel value to linear space.
func srgbToLinear(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math32.Pow((v+0.055)/1.055, 2.4)
}
