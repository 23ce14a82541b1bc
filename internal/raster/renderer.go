package raster

import (
	"image"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"a51-asset-decoder/internal/export"
	"a51-asset-decoder/internal/mathutil"
	"a51-asset-decoder/internal/postprocess"
	"a51-asset-decoder/internal/texture"
)

// Three-quarter view from above.
const (
	viewYaw   = math32.Pi / 4
	viewPitch = math32.Pi / 6
)

// View is the rotation previews are drawn with.
func View() mgl32.Mat4 {
	return mgl32.HomogRotate3DX(viewPitch).Mul4(mgl32.HomogRotate3DY(viewYaw))
}

// Render draws parts into a size x size image, fitted to the frame. It
// renders at size*supersample and downsamples. Textures come from res when
// it is non-nil.
func Render(parts []export.Part, res texture.Resolver, size, supersample int) *image.NRGBA {
	if supersample < 1 {
		supersample = 1
	}
	renderSize := size * supersample
	view := View()

	var box mathutil.BBox
	empty := true
	for _, p := range parts {
		for _, pos := range p.Data.Positions {
			v := mgl32.TransformCoordinate(pos, view)
			if empty {
				box, empty = mathutil.BBox{Min: v, Max: v}, false
			} else {
				box = box.Extend(v)
			}
		}
	}
	if empty {
		return image.NewNRGBA(image.Rect(0, 0, size, size))
	}

	ext := box.Size()
	span := math32.Max(math32.Max(ext[0], ext[1]), 1e-3)
	margin := float32(renderSize) / 16
	scale := (float32(renderSize) - 2*margin) / span
	centre := box.Centre()
	half := float32(renderSize) / 2

	fb := NewFrameBuffer(renderSize)
	light := DefaultLight()

	for _, p := range parts {
		var tex *image.NRGBA
		if res != nil && p.Texture != "" {
			tex = res.Resolve(p.Texture)
		}
		fallback := averageColor(tex)

		eye := make([]mgl32.Vec3, len(p.Data.Positions))
		screen := make([]mgl32.Vec3, len(p.Data.Positions))
		for i, pos := range p.Data.Positions {
			v := mgl32.TransformCoordinate(pos, view).Sub(centre)
			eye[i] = v
			screen[i] = mgl32.Vec3{half + v[0]*scale, half - v[1]*scale, v[2]}
		}

		for fi, f := range p.Data.Faces {
			n := eye[f[1]].Sub(eye[f[0]]).Cross(eye[f[2]].Sub(eye[f[0]]))
			if n.Len() < 1e-8 {
				continue
			}
			t := Triangle{
				Screen: [3]mgl32.Vec3{screen[f[0]], screen[f[1]], screen[f[2]]},
				Normal: n.Normalize(),
			}
			if 3*fi+2 < len(p.Data.UVs) {
				copy(t.UV[:], p.Data.UVs[3*fi:3*fi+3])
			}
			fb.Draw(&t, tex, fallback, &light)
		}
	}

	return postprocess.Downsample(fb.Image(), size)
}
