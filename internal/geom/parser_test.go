package geom

import (
	"bytes"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"a51-asset-decoder/internal/binread"
	"a51-asset-decoder/internal/inev"
	"a51-asset-decoder/internal/inev/inevtest"
)

const fixtureStrings = "crate\x00box.xbmp\x00diffuse\x00"

type rawVertex struct {
	Pos    [3]float32
	Normal [3]float32
	Color  [4]uint8
	UV     [2]float32
}

type fixture struct {
	platform       int16
	meshSlotCount  int // fixup count registered for the mesh pointer
	numMeshes      int16
	vertsInDynamic bool
	dlistCount     int32
	indexCount     uint32
	vertexCount    int32
}

func defaultFixture() fixture {
	return fixture{
		platform: int16(PlatformPC), meshSlotCount: 1, numMeshes: 1, vertsInDynamic: true,
		dlistCount: 1, indexCount: 3, vertexCount: 3,
	}
}

// build lays out a rigid geometry object: header, pointer slots, collision
// tail, draw-list table and the arrays the pointers refer to.
func (f fixture) build() []byte {
	var b inevtest.Builder
	b.Put([8]float32{-1, -2, -3, 1, 4, 5, 6, 1})
	b.Put(f.platform, int16(0), int16(41))

	counts := [17]int16{
		12, 3, // faces, vertices
		0, 0, 0, 0, 0, // bones .. rigid bodies
		f.numMeshes, 1, 1, 1, // meshes, submeshes, materials, textures
		0, 0, 0, 0, 0, // uv keys .. virtual textures
		int16(len(fixtureStrings)),
	}
	b.Put(counts)

	slots := make(map[int]*inevtest.Slot)
	for i := 0; i < 17; i++ {
		switch i {
		case 5:
			slots[i] = b.Pointer(f.meshSlotCount)
		case 6, 7, 8:
			slots[i] = b.Pointer(1)
		case 15:
			slots[i] = b.Pointer(len(fixtureStrings))
		default:
			b.Null()
		}
	}

	b.Pad(72)
	b.Align16()
	b.Put(f.dlistCount)
	dlistSlot := b.Pointer(1)

	slots[5].Static(b.Put([8]float32{0, 0, 0, 1, 1, 1, 1, 1},
		int16(0), int16(1), int16(0), int16(0), int16(1), int16(3), [4]byte{}))
	slots[6].Static(b.Put(int16(0), int16(0), float32(2.5)))
	slots[7].Static(b.Put(float32(1), float32(0.5), uint32(0x10), uint8(1), uint8(1), int16(0)))
	slots[8].Static(b.Put(int16(6), int16(15)))
	slots[15].Static(b.Put([]byte(fixtureStrings)))

	dlOff := b.StaticLen()
	b.Put(f.indexCount)
	idxSlot := b.Pointer(3)
	b.Put(f.vertexCount)
	vtxSlot := b.Pointer(3)
	b.Put(int32(-1), [4]byte{})
	dlistSlot.Static(dlOff)

	idxSlot.Static(b.Put([3]uint16{0, 2, 1}))
	verts := [3]rawVertex{
		{Pos: [3]float32{0, 0, 0}, Normal: [3]float32{0, 1, 0}, Color: [4]uint8{255, 0, 0, 255}, UV: [2]float32{0, 0}},
		{Pos: [3]float32{1, 0, 0}, Normal: [3]float32{0, 1, 0}, Color: [4]uint8{0, 255, 0, 255}, UV: [2]float32{1, 0}},
		{Pos: [3]float32{0, 0, 1}, Normal: [3]float32{0, 1, 0}, Color: [4]uint8{0, 0, 255, 255}, UV: [2]float32{0, 1}},
	}
	if f.vertsInDynamic {
		vtxSlot.Dynamic(b.PutDynamic(verts))
	} else {
		vtxSlot.Static(b.Put(verts))
	}
	return b.Bytes()
}

func TestDecodeRigid(t *testing.T) {
	for _, dynamic := range []bool{true, false} {
		f := defaultFixture()
		f.vertsInDynamic = dynamic

		var logs bytes.Buffer
		rg, err := DecodeRigid(f.build(), WithLogger(log.New(&logs, "", 0)))
		if err != nil {
			t.Fatalf("dynamic=%v: %v", dynamic, err)
		}
		if !rg.IsValid() {
			t.Fatalf("dynamic=%v: geometry not valid", dynamic)
		}
		if logs.Len() != 0 {
			t.Errorf("unexpected diagnostics %q", logs.String())
		}

		g := rg.Geom
		if g.Version != 41 || g.NumFaces != 12 || g.Platform != PlatformPC {
			t.Errorf("header = %+v", g.Header)
		}
		if g.BBox.Min != (mgl32.Vec3{-1, -2, -3}) || g.BBox.Max != (mgl32.Vec3{4, 5, 6}) {
			t.Errorf("bbox = %v", g.BBox)
		}
		if len(g.Meshes) != 1 || g.Meshes[0].Name != "crate" || g.Meshes[0].NumVertices != 3 {
			t.Errorf("meshes = %+v", g.Meshes)
		}
		if lo, hi := g.Meshes[0].SubMeshRange(); lo != 0 || hi != 1 {
			t.Errorf("submesh range = [%d,%d)", lo, hi)
		}
		if len(g.SubMeshes) != 1 || g.SubMeshes[0].WorldPixelSize != 2.5 {
			t.Errorf("submeshes = %+v", g.SubMeshes)
		}
		if m := g.Materials[0]; m.FixedAlpha != 0.5 || m.Flags != 0x10 || m.NumTextures != 1 || !m.HasTexture() {
			t.Errorf("material = %+v", m)
		}
		tex, ok := g.TextureFor(g.SubMeshes[0])
		if !ok || tex.Filename != "box.xbmp" || tex.Description != "diffuse" {
			t.Errorf("texture = %+v, %v", tex, ok)
		}

		if len(rg.DLists) != 1 {
			t.Fatalf("dlists = %d", len(rg.DLists))
		}
		dl := rg.DLists[0]
		if len(dl.Indices) != 3 || dl.Indices[1] != 2 || dl.BoneIndex != -1 {
			t.Errorf("dlist = %+v", dl)
		}
		if len(dl.Vertices) != 3 {
			t.Fatalf("vertices = %d", len(dl.Vertices))
		}
		v := dl.Vertices[2]
		if v.Position != (mgl32.Vec3{0, 0, 1}) || v.UV != (mgl32.Vec2{0, 1}) || v.Color != [4]uint8{0, 0, 255, 255} {
			t.Errorf("vertex 2 = %+v", v)
		}
	}
}

func TestDecodeRigidUnsupportedPlatform(t *testing.T) {
	f := defaultFixture()
	f.platform = 2

	var logs bytes.Buffer
	rg, err := DecodeRigid(f.build(), WithLogger(log.New(&logs, "", 0)))
	if err != nil {
		t.Fatal(err)
	}
	if rg.Valid || rg.IsValid() {
		t.Fatal("non-PC geometry reported valid")
	}
	if rg.DLists != nil {
		t.Errorf("dlists decoded for unsupported platform")
	}
	if rg.Geom == nil || len(rg.Geom.Meshes) != 1 {
		t.Errorf("geom not populated: %+v", rg.Geom)
	}
	if !strings.Contains(logs.String(), "platform 2 not supported") {
		t.Errorf("diagnostic = %q", logs.String())
	}
}

func TestDecodeCountMismatchWarns(t *testing.T) {
	f := defaultFixture()
	f.meshSlotCount = 2

	var logs bytes.Buffer
	g, err := Decode(f.build(), WithLogger(log.New(&logs, "", 0)))
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Meshes) != 1 || g.Meshes[0].Name != "crate" {
		t.Errorf("meshes = %+v", g.Meshes)
	}
	if !strings.Contains(logs.String(), "expected count to be 1, but saw 2") {
		t.Errorf("diagnostic = %q", logs.String())
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := DecodeRigid([]byte("not an object at all, just text")); !errors.Is(err, inev.ErrInvalidSignature) {
		t.Errorf("bad signature err = %v", err)
	}

	f := defaultFixture()
	f.numMeshes = -1
	if _, err := Decode(f.build()); err == nil || !strings.Contains(err.Error(), "negative count") {
		t.Errorf("negative count err = %v", err)
	}

	data := defaultFixture().build()
	if _, err := DecodeRigid(data[:200]); err == nil {
		t.Error("expected error for truncated object")
	}
}

func TestDecodeRigidOversizedCounts(t *testing.T) {
	tests := []struct {
		name  string
		patch func(*fixture)
	}{
		{"dlists", func(f *fixture) { f.dlistCount = 0x7fffffff }},
		{"indices", func(f *fixture) { f.indexCount = 0xffffffff }},
		{"vertices", func(f *fixture) { f.vertexCount = 0x7fffffff }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := defaultFixture()
			f.vertsInDynamic = false
			tt.patch(&f)
			_, err := DecodeRigid(f.build(), WithLogger(log.New(io.Discard, "", 0)))
			if !errors.Is(err, binread.ErrOutOfBounds) {
				t.Fatalf("err = %v, want %v", err, binread.ErrOutOfBounds)
			}
			if !strings.Contains(err.Error(), tt.name) {
				t.Errorf("err = %v, want it to name the array", err)
			}
		})
	}

	f := defaultFixture()
	f.vertexCount = -1
	if _, err := DecodeRigid(f.build()); err == nil || !strings.Contains(err.Error(), "negative count") {
		t.Errorf("negative vertex count err = %v", err)
	}
}

func TestTextureForOutOfRange(t *testing.T) {
	g := &Geom{
		Materials: []Material{{TextureIndex: -1}, {TextureIndex: 4}},
		Textures:  []Texture{{Filename: "a"}},
	}
	for _, sm := range []SubMesh{{IdxMaterial: 0}, {IdxMaterial: 1}, {IdxMaterial: 9}, {IdxMaterial: -1}} {
		if _, ok := g.TextureFor(sm); ok {
			t.Errorf("TextureFor(%+v) = ok", sm)
		}
	}
}
