package mathutil

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestBBoxFromFloats(t *testing.T) {
	b, err := BBoxFromFloats([]float32{-1, -2, -3, 99, 4, 5, 6, 99})
	if err != nil {
		t.Fatal(err)
	}
	if b.Min != (mgl32.Vec3{-1, -2, -3}) || b.Max != (mgl32.Vec3{4, 5, 6}) {
		t.Fatalf("got %v", b)
	}
	if _, err := BBoxFromFloats([]float32{1, 2}); err == nil {
		t.Fatal("expected error for 2 floats")
	}
}

func TestBBoxUnionCentreSize(t *testing.T) {
	a := BBox{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{2, 2, 2}}
	b := BBox{Min: mgl32.Vec3{-2, 1, 1}, Max: mgl32.Vec3{1, 4, 1}}
	u := a.Union(b)
	if u.Min != (mgl32.Vec3{-2, 0, 0}) || u.Max != (mgl32.Vec3{2, 4, 2}) {
		t.Fatalf("union = %v", u)
	}
	if c := u.Centre(); c != (mgl32.Vec3{0, 2, 1}) {
		t.Fatalf("centre = %v", c)
	}
	if s := u.Size(); s != (mgl32.Vec3{4, 4, 2}) {
		t.Fatalf("size = %v", s)
	}
	if !u.Contains(mgl32.Vec3{1, 3, 1}) || u.Contains(mgl32.Vec3{3, 0, 0}) {
		t.Fatal("Contains mismatch")
	}
	if e := a.Extend(mgl32.Vec3{5, -1, 0}); e.Max[0] != 5 || e.Min[1] != -1 {
		t.Fatalf("extend = %v", e)
	}
}
