package raster

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Light holds the fixed studio lighting of previews.
type Light struct {
	Key      mgl32.Vec3
	Rim      mgl32.Vec3
	Half     mgl32.Vec3 // Blinn-Phong half vector of Key
	Ambient  float32
	Hemi     float32
	Direct   float32
	RimGain  float32
	SpecInt  float32
	SpecPow  float32
	Exposure float32
}

// DefaultLight returns the preview lighting in view space.
func DefaultLight() Light {
	key := mgl32.Vec3{0.45, 0.65, 0.6}.Normalize()
	view := mgl32.Vec3{0, 0, 1}
	return Light{
		Key:      key,
		Rim:      mgl32.Vec3{-0.5, 0.4, -0.75}.Normalize(),
		Half:     key.Add(view).Normalize(),
		Ambient:  0.55,
		Hemi:     0.50,
		Direct:   1.50,
		RimGain:  0.60,
		SpecInt:  0.45,
		SpecPow:  12,
		Exposure: 1.05,
	}
}

// Shade returns the lighting scalar for a unit face normal. Faces are lit
// from both sides.
func (l *Light) Shade(n mgl32.Vec3) float32 {
	key := math32.Abs(n.Dot(l.Key))
	rim := math32.Abs(n.Dot(l.Rim))
	hemi := ((1-math32.Abs(n[1]))*0.5 + 0.5) * l.Hemi
	spec := math32.Pow(math32.Max(n.Dot(l.Half), 0), l.SpecPow) * l.SpecInt
	return l.Ambient + hemi + key*l.Direct + rim*l.RimGain + spec
}

var srgbToLinear [256]float32

func init() {
	for i := range srgbToLinear {
		srgbToLinear[i] = math32.Pow(float32(i)/255, 2.2)
	}
}

// aces is the ACES filmic curve.
func aces(x float32) float32 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

// lit applies shade to an sRGB channel and re-encodes it.
func lit(c uint8, shade float32) uint8 {
	v := math32.Pow(aces(srgbToLinear[c]*shade), 1/2.2) * 255
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
