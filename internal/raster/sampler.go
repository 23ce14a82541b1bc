package raster

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Sample returns the bilinear-filtered texel at uv, wrapping in both axes.
func Sample(tex *image.NRGBA, uv mgl32.Vec2) color.NRGBA {
	w, h := tex.Rect.Dx(), tex.Rect.Dy()
	u := uv[0] - math32.Floor(uv[0])
	v := uv[1] - math32.Floor(uv[1])

	fx := u * float32(w-1)
	fy := v * float32(h-1)
	x0, y0 := int(fx), int(fy)
	x1, y1 := (x0+1)%w, (y0+1)%h
	dx, dy := fx-float32(x0), fy-float32(y0)

	i00 := y0*tex.Stride + x0*4
	i10 := y0*tex.Stride + x1*4
	i01 := y1*tex.Stride + x0*4
	i11 := y1*tex.Stride + x1*4
	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	var out [4]uint8
	for c := 0; c < 4; c++ {
		p := tex.Pix
		f := float32(p[i00+c])*w00 + float32(p[i10+c])*w10 + float32(p[i01+c])*w01 + float32(p[i11+c])*w11
		out[c] = uint8(f + 0.5)
	}
	return color.NRGBA{out[0], out[1], out[2], out[3]}
}

// averageColor is the opaque mean colour of tex, or a neutral grey.
func averageColor(tex *image.NRGBA) color.NRGBA {
	if tex == nil || tex.Rect.Dx() == 0 || tex.Rect.Dy() == 0 {
		return color.NRGBA{160, 160, 170, 255}
	}
	var sum [3]float64
	w, h := tex.Rect.Dx(), tex.Rect.Dy()
	for y := 0; y < h; y++ {
		row := tex.Pix[y*tex.Stride:]
		for x := 0; x < w; x++ {
			sum[0] += float64(row[x*4])
			sum[1] += float64(row[x*4+1])
			sum[2] += float64(row[x*4+2])
		}
	}
	n := float64(w * h)
	return color.NRGBA{uint8(sum[0]/n + 0.5), uint8(sum[1]/n + 0.5), uint8(sum[2]/n + 0.5), 255}
}
