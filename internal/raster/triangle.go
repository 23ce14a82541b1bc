package raster

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Triangle is one face in screen space. Screen z is view depth.
type Triangle struct {
	Screen [3]mgl32.Vec3
	UV     [3]mgl32.Vec2
	Normal mgl32.Vec3 // unit, view space
}

// Draw rasterizes t with z-buffering and flat shading. Texels with alpha
// below 8 are discarded. A nil tex fills with fallback.
func (fb *FrameBuffer) Draw(t *Triangle, tex *image.NRGBA, fallback color.NRGBA, l *Light) {
	p0, p1, p2 := t.Screen[0], t.Screen[1], t.Screen[2]
	x0, y0 := p0[0], p0[1]
	x1, y1 := p1[0], p1[1]
	x2, y2 := p2[0], p2[1]

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if math32.Abs(det) < 1e-8 {
		return
	}
	invDet := 1 / det

	last := fb.Size - 1
	minX := max(int(math32.Min(math32.Min(x0, x1), x2)), 0)
	maxX := min(int(math32.Max(math32.Max(x0, x1), x2))+1, last)
	minY := max(int(math32.Min(math32.Min(y0, y1), y2)), 0)
	maxY := min(int(math32.Max(math32.Max(y0, y1), y2))+1, last)
	if minX > maxX || minY > maxY {
		return
	}

	shade := l.Shade(t.Normal) * l.Exposure
	dy12, dx21 := y1-y2, x2-x1
	dy20, dx02 := y2-y0, x0-x2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float32(sy) - y2
		row := sy * fb.Size
		for sx := minX; sx <= maxX; sx++ {
			dsx := float32(sx) - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*p0[2] + w1*p1[2] + w2*p2[2]
			i := row + sx
			if z <= fb.Depth[i] {
				continue
			}

			c := fallback
			if tex != nil {
				uv := t.UV[0].Mul(w0).Add(t.UV[1].Mul(w1)).Add(t.UV[2].Mul(w2))
				c = Sample(tex, uv)
			}
			if c.A < 8 {
				continue
			}
			fb.Depth[i] = z

			o := i * 4
			fb.Color[o] = lit(c.R, shade)
			fb.Color[o+1] = lit(c.G, shade)
			fb.Color[o+2] = lit(c.B, shade)
			fb.Color[o+3] = c.A
		}
	}
}
