package xbmp

import (
	"errors"
	"fmt"
	"image"

	"a51-asset-decoder/internal/binread"
)

// Format is the pixel format tag.
type Format int32

// FormatARGB8888 is the only pixel format converted to an image.
const FormatARGB8888 Format = 3

// ErrUnsupportedFormat is returned by Image for formats other than ARGB 8888.
var ErrUnsupportedFormat = errors.New("unsupported xbmp pixel format")

// Bitmap is a decoded XBMP: header fields, raw pixel bytes and the colour
// lookup table when present.
type Bitmap struct {
	DataSize      int32
	ClutSize      int32
	Width         int32
	Height        int32
	PhysicalWidth int32
	Flags         uint32
	NumMips       int32
	Format        Format

	Pixels []byte
	Clut   []byte
}

// Decode reads an XBMP. Pixel data is copied out of data.
func Decode(data []byte) (*Bitmap, error) {
	c := binread.New(data)
	b := &Bitmap{}
	var err error
	for _, dst := range []*int32{&b.DataSize, &b.ClutSize, &b.Width, &b.Height, &b.PhysicalWidth} {
		if *dst, err = c.ReadI32(); err != nil {
			return nil, fmt.Errorf("xbmp: header: %w", err)
		}
	}
	if b.Flags, err = c.ReadU32(); err != nil {
		return nil, fmt.Errorf("xbmp: header: %w", err)
	}
	if b.NumMips, err = c.ReadI32(); err != nil {
		return nil, fmt.Errorf("xbmp: header: %w", err)
	}
	var format int32
	if format, err = c.ReadI32(); err != nil {
		return nil, fmt.Errorf("xbmp: header: %w", err)
	}
	b.Format = Format(format)

	if b.DataSize < 0 || b.ClutSize < 0 || b.Width < 0 || b.Height < 0 || b.PhysicalWidth < b.Width {
		return nil, fmt.Errorf("xbmp: bad header (data %d, clut %d, %dx%d, physical width %d)",
			b.DataSize, b.ClutSize, b.Width, b.Height, b.PhysicalWidth)
	}
	if b.Pixels, err = c.ReadBytes(int(b.DataSize)); err != nil {
		return nil, fmt.Errorf("xbmp: pixels: %w", err)
	}
	if b.ClutSize > 0 {
		if b.Clut, err = c.ReadBytes(int(b.ClutSize)); err != nil {
			return nil, fmt.Errorf("xbmp: clut: %w", err)
		}
	}
	return b, nil
}

// Image converts the top mip level to NRGBA. Source pixels are stored
// A,R,G,B with rows PhysicalWidth pixels apart.
func (b *Bitmap) Image() (*image.NRGBA, error) {
	if b.Format != FormatARGB8888 {
		return nil, fmt.Errorf("xbmp: %w: %d", ErrUnsupportedFormat, b.Format)
	}
	w, h, stride := int(b.Width), int(b.Height), int(b.PhysicalWidth)*4
	if h > 0 && (h-1)*stride+w*4 > len(b.Pixels) {
		return nil, fmt.Errorf("xbmp: %w: %dx%d pixels need %d bytes, have %d",
			binread.ErrOutOfBounds, w, h, (h-1)*stride+w*4, len(b.Pixels))
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := b.Pixels[y*stride:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			s, d := src[x*4:x*4+4], dst[x*4:x*4+4]
			d[0], d[1], d[2], d[3] = s[1], s[2], s[3], s[0]
		}
	}
	return img, nil
}

// HasAlpha reports whether any pixel of the top mip is not fully opaque.
func (b *Bitmap) HasAlpha() bool {
	if b.Format != FormatARGB8888 {
		return false
	}
	stride := int(b.PhysicalWidth) * 4
	for y := 0; y < int(b.Height); y++ {
		for x := 0; x < int(b.Width); x++ {
			i := y*stride + x*4
			if i < len(b.Pixels) && b.Pixels[i] != 0xff {
				return true
			}
		}
	}
	return false
}
