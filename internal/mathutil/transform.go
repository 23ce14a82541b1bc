package mathutil

import "github.com/go-gl/mathgl/mgl32"

// LocalToWorld builds the placement matrix of a level object: roll about Z,
// then pitch about X, then yaw about Y, then translation. Angles in radians.
func LocalToWorld(pos mgl32.Vec3, pitch, roll, yaw float32) mgl32.Mat4 {
	return mgl32.Translate3D(pos[0], pos[1], pos[2]).
		Mul4(mgl32.HomogRotate3DY(yaw)).
		Mul4(mgl32.HomogRotate3DX(pitch)).
		Mul4(mgl32.HomogRotate3DZ(roll))
}

// TransformPoint applies m to p.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformBBox returns the box enclosing the eight transformed corners of b.
func TransformBBox(m mgl32.Mat4, b BBox) BBox {
	var out BBox
	for i := 0; i < 8; i++ {
		c := mgl32.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			c[0] = b.Max[0]
		}
		if i&2 != 0 {
			c[1] = b.Max[1]
		}
		if i&4 != 0 {
			c[2] = b.Max[2]
		}
		p := TransformPoint(m, c)
		if i == 0 {
			out = BBox{Min: p, Max: p}
		} else {
			out = out.Extend(p)
		}
	}
	return out
}
