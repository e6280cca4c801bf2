package renderer

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Tonemap converts linear RGBA texels into an 8-bit sRGB image applying an
// exposure-scaled Reinhard operator. If dst has matching bounds it is reused.
func Tonemap(texels []float32, width, height uint32, exposure float32, dst *image.RGBA) *image.RGBA {
	bounds := image.Rect(0, 0, int(width), int(height))
	if dst == nil || dst.Bounds() != bounds {
		dst = image.NewRGBA(bounds)
	}

	for y := 0; y < int(height); y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < int(width); x++ {
			src := texels[(y*int(width)+x)*4:]
			out := row[x*4:]
			out[0] = encodeChannel(src[0], exposure)
			out[1] = encodeChannel(src[1], exposure)
			out[2] = encodeChannel(src[2], exposure)
			out[3] = 255
		}
	}

	return dst
}

func encodeChannel(v, exposure float32) uint8 {
	if !(v > 0) {
		return 0
	}
	v *= exposure
	v = v / (1 + v)

	// Linear to sRGB transfer.
	if v <= 0.0031308 {
		v *= 12.92
	} else {
		v = 1.055*math32.Pow(v, 1/2.4) - 0.055
	}

	return uint8(math32.Min(v, 1)*255 + 0.5)
}

// WriteImage encodes img to path picking the format from the file extension.
// Supported extensions are .png, .bmp, .tif and .tiff.
func WriteImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "renderer: could not create %s", path)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png", "":
		err = png.Encode(f, img)
	case ".bmp":
		err = bmp.Encode(f, img)
	case ".tif", ".tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return errors.Errorf("renderer: unsupported output format %q", ext)
	}
	if err != nil {
		return errors.Wrapf(err, "renderer: could not encode %s", path)
	}

	return f.Close()
}

