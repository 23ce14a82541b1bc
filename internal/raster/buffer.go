package raster

import (
	"image"

	"github.com/chewxy/math32"
)

// FrameBuffer is a square colour target with a depth buffer. Larger depth
// values are nearer the camera.
type FrameBuffer struct {
	Size  int
	Color []uint8   // NRGBA interleaved, len = Size*Size*4
	Depth []float32 // len = Size*Size, initialized to -inf
}

// NewFrameBuffer allocates a transparent buffer of size x size pixels.
func NewFrameBuffer(size int) *FrameBuffer {
	n := size * size
	depth := make([]float32, n)
	for i := range depth {
		depth[i] = math32.Inf(-1)
	}
	return &FrameBuffer{
		Size:  size,
		Color: make([]uint8, n*4),
		Depth: depth,
	}
}

// Image copies the colour buffer into a new image.
func (fb *FrameBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Size, fb.Size))
	copy(img.Pix, fb.Color)
	return img
}
