package mathutil

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// BBox is an axis-aligned bounding box.
type BBox struct {
	Min mgl32.Vec3 `json:"min"`
	Max mgl32.Vec3 `json:"max"`
}

// BBoxFromFloats builds a box from 6 floats (min xyz, max xyz) or
// 8 floats (min xyzw, max xyzw; w ignored).
func BBoxFromFloats(f []float32) (BBox, error) {
	switch len(f) {
	case 6:
		return BBox{Min: mgl32.Vec3{f[0], f[1], f[2]}, Max: mgl32.Vec3{f[3], f[4], f[5]}}, nil
	case 8:
		return BBox{Min: mgl32.Vec3{f[0], f[1], f[2]}, Max: mgl32.Vec3{f[4], f[5], f[6]}}, nil
	default:
		return BBox{}, fmt.Errorf("mathutil: bounding box needs 6 or 8 floats, got %d", len(f))
	}
}

func (b BBox) Contains(p mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Union returns the smallest box enclosing both boxes.
func (b BBox) Union(o BBox) BBox {
	var out BBox
	for i := 0; i < 3; i++ {
		out.Min[i] = math32.Min(b.Min[i], o.Min[i])
		out.Max[i] = math32.Max(b.Max[i], o.Max[i])
	}
	return out
}

// Extend grows the box to include p.
func (b BBox) Extend(p mgl32.Vec3) BBox {
	return b.Union(BBox{Min: p, Max: p})
}

func (b BBox) Centre() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b BBox) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

func (b BBox) String() string {
	return fmt.Sprintf("[%.1f, %.1f, %.1f] -> [%.1f, %.1f, %.1f]",
		b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
}
