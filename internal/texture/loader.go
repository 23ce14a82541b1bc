package texture

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "github.com/ftrvxmtrx/tga"

	"a51-asset-decoder/internal/xbmp"
)

// Source returns the bytes of a named archive entry.
type Source interface {
	Get(name string) ([]byte, error)
}

// Load decodes the texture at loc.
func Load(src Source, loc Location) (*image.NRGBA, error) {
	if loc.Path != "" {
		return LoadFile(loc.Path)
	}
	if src == nil {
		return nil, fmt.Errorf("texture: %s: no archive", loc.Entry)
	}
	raw, err := src.Get(loc.Entry)
	if err != nil {
		return nil, fmt.Errorf("texture: %w", err)
	}
	bmp, err := xbmp.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("texture: %s: %w", loc.Entry, err)
	}
	img, err := bmp.Image()
	if err != nil {
		return nil, fmt.Errorf("texture: %s: %w", loc.Entry, err)
	}
	return img, nil
}

// LoadFile reads a TGA, PNG or JPEG file and returns an NRGBA image.
func LoadFile(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", path, err)
	}
	return toNRGBA(img), nil
}

// toNRGBA converts any image to NRGBA format.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
