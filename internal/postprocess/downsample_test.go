package postprocess

import (
	"image"
	"image/color"
	"testing"
)

func TestFitSize(t *testing.T) {
	tests := []struct {
		w, h, max, wantW, wantH int
	}{
		{256, 256, 512, 256, 256},
		{1024, 1024, 256, 256, 256},
		{1024, 512, 256, 256, 128},
		{512, 2048, 256, 64, 256},
		{4096, 2, 256, 256, 1},
		{300, 200, 0, 300, 200},
	}
	for _, tc := range tests {
		w, h := FitSize(tc.w, tc.h, tc.max)
		if w != tc.wantW || h != tc.wantH {
			t.Errorf("FitSize(%d, %d, %d) = %d, %d, want %d, %d", tc.w, tc.h, tc.max, w, h, tc.wantW, tc.wantH)
		}
	}
}

func TestDownsample(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			src.SetNRGBA(x, y, color.NRGBA{200, 100, 50, 255})
		}
	}

	if got := Downsample(src, 64); got != src {
		t.Error("image within bounds was copied")
	}

	got := Downsample(src, 16)
	if b := got.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Fatalf("bounds = %v", b)
	}
	c := got.NRGBAAt(8, 4)
	if c.A != 255 || absDiff(c.R, 200) > 1 || absDiff(c.G, 100) > 1 || absDiff(c.B, 50) > 1 {
		t.Errorf("centre pixel = %v", c)
	}
}

func TestDownsampleTransparentEdges(t *testing.T) {
	// Opaque white on the left half, fully transparent black on the right.
	src := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 16; x++ {
			src.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}
	got := Downsample(src, 8)
	for x := 0; x < 8; x++ {
		c := got.NRGBAAt(x, 4)
		if c.A > 8 && c.R < 240 {
			t.Errorf("pixel %d darkened at edge: %v", x, c)
		}
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
