package export

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"testing"

	"github.com/DataDog/zstd"
	"github.com/go-gl/mathgl/mgl32"

	"a51-asset-decoder/internal/bitstream/bitstreamtest"
	"a51-asset-decoder/internal/dfs"
	"a51-asset-decoder/internal/geom"
	"a51-asset-decoder/internal/level"
)

type memArchive map[string][]byte

func (m memArchive) Get(name string) ([]byte, error) {
	b, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, dfs.ErrNotFound)
	}
	return b, nil
}

func (m memArchive) Filenames(ext string) []string {
	var out []string
	for name := range m {
		if strings.HasSuffix(name, "."+strings.ToUpper(ext)) {
			out = append(out, name)
		}
	}
	return out
}

func le(vs ...any) []byte {
	var buf bytes.Buffer
	for _, v := range vs {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			panic(err)
		}
	}
	return buf.Bytes()
}

// levelArchive holds one door and one light.
func levelArchive(withInfo bool) memArchive {
	var s bitstreamtest.Writer
	s.WriteF32(100)
	s.WriteF32(0)
	s.WriteF32(-50)
	s.WriteF32(0)
	s.WriteF32(0)
	s.WriteF32(0)
	s.WriteString("Door_A.rigidgeom")
	s.WriteBits(0x00ff00ff, 32)

	type obj struct {
		Type, NumProps, Start int32
		GUID                  uint64
	}
	type prop struct {
		Type uint32
		Name int32
	}
	bin := le(uint16(7), [4]byte{}, int32(2), int32(4), int32(len(s.Bytes())),
		obj{0, 3, 0, 0xd00d}, obj{4, 1, 3, 0x1141},
		prop{uint32(level.TypeVector3), 1}, prop{uint32(level.TypeRotation), 2},
		prop{uint32(level.TypeFilename), 3}, prop{uint32(level.TypeColor), 5},
		s.Bytes())
	dict := "Door\x00Base\\Position\x00Base\\Rotation\x00RenderInst\\File\x00Light\x00Light\\Color\x00"

	arc := memArchive{
		PlaysurfaceEntry: le([4]uint32{2, 10, 4, 33}),
		LevelBinEntry:    bin,
		DictEntry:        []byte(dict),
	}
	if withInfo {
		arc[InfoEntry] = []byte("[PlayerInfo]\n{Position:fff Pitch:f Yaw:f}\n1 2 3 0.5 1\n")
	}
	return arc
}

// quad is a valid rigid geometry with one mesh of two submeshes.
func quad() *geom.RigidGeom {
	verts := []geom.Vertex{
		{Position: mgl32.Vec3{0, 0, 0}, UV: mgl32.Vec2{0, 0}},
		{Position: mgl32.Vec3{1, 0, 0}, UV: mgl32.Vec2{1, 0}},
		{Position: mgl32.Vec3{1, 2, 0}, UV: mgl32.Vec2{1, 1}},
		{Position: mgl32.Vec3{0, 2, 0}, UV: mgl32.Vec2{0, 1}},
	}
	return &geom.RigidGeom{
		Valid: true,
		Geom: &geom.Geom{
			Header:    geom.Header{Platform: geom.PlatformPC},
			Meshes:    []geom.Mesh{{Name: "panel", NumSubMeshes: 2}},
			SubMeshes: []geom.SubMesh{{IdxDList: 0, IdxMaterial: 0}, {IdxDList: 1, IdxMaterial: 1}},
			Materials: []geom.Material{{TextureIndex: 0}, {TextureIndex: -1}},
			Textures:  []geom.Texture{{Filename: "door_metal.tga.xbmp"}},
		},
		DLists: []geom.DList{
			{Indices: []uint16{0, 1, 2, 0, 2, 3}, Vertices: verts},
			{Indices: []uint16{0, 1, 2}, Vertices: verts[:3]},
		},
	}
}

func TestFlattenDList(t *testing.T) {
	rg := quad()
	m, err := FlattenDList(rg.DLists[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Positions) != 4 || len(m.Faces) != 2 || len(m.UVs) != 6 {
		t.Fatalf("mesh = %+v", m)
	}
	if m.Faces[1] != [3]uint16{0, 2, 3} || m.UVs[5] != (mgl32.Vec2{0, 1}) {
		t.Errorf("face 1 = %v, uv 5 = %v", m.Faces[1], m.UVs[5])
	}

	if _, err := FlattenDList(geom.DList{Indices: []uint16{0, 1}}); err == nil {
		t.Error("expected error for partial triangle")
	}
	if _, err := FlattenDList(geom.DList{Indices: []uint16{0, 1, 9}, Vertices: rg.DLists[0].Vertices}); err == nil {
		t.Error("expected error for index out of range")
	}
}

func TestParts(t *testing.T) {
	parts, err := Parts("DOOR_A.RIGIDGEOM", quad())
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 2 {
		t.Fatalf("parts = %+v", parts)
	}
	p := parts[0]
	if p.Key != "DOOR_A.RIGIDGEOM_panel_0" || p.Material != "DOOR_METAL" || p.Texture != "door_metal.tga.xbmp" {
		t.Errorf("part 0 = %+v", p)
	}
	if p.BBox.Min != (mgl32.Vec3{0, 0, 0}) || p.BBox.Max != (mgl32.Vec3{1, 2, 0}) {
		t.Errorf("bbox = %v", p.BBox)
	}
	if parts[1].Material != "" || parts[1].Key != "DOOR_A.RIGIDGEOM_panel_1" {
		t.Errorf("part 1 = %+v", parts[1])
	}

	bad := quad()
	bad.Geom.SubMeshes[1].IdxDList = 5
	if _, err := Parts("x", bad); err == nil {
		t.Error("expected error for draw list out of range")
	}
	if _, err := Parts("x", &geom.RigidGeom{Geom: bad.Geom}); err == nil {
		t.Error("expected error for undecoded geometry")
	}
}

func TestMaterialName(t *testing.T) {
	for in, want := range map[string]string{
		"door_metal.tga.xbmp": "DOOR_METAL",
		"Plain":               "PLAIN",
		"":                    "",
	} {
		if got := MaterialName(in); got != want {
			t.Errorf("MaterialName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadScene(t *testing.T) {
	var logs bytes.Buffer
	resource := memArchive{"BROKEN.RIGIDGEOM": {1, 2, 3}}
	s, err := LoadScene(levelArchive(true), resource, log.New(&logs, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	if s.Playsurface.NumGeoms != 33 || s.Level.Version != 7 || len(s.Level.Objects) != 2 {
		t.Fatalf("scene = %+v", s)
	}
	if s.PlayerStart == nil || s.PlayerStart.Position != (mgl32.Vec3{1, 2, 3}) || s.PlayerStart.Yaw != 1 {
		t.Errorf("player start = %+v", s.PlayerStart)
	}
	// the broken archive entry plus the door's missing geometry
	if len(s.Geoms) != 0 || len(s.Failed) != 2 {
		t.Errorf("geoms = %v, failed = %v", s.Geoms, s.Failed)
	}
	if _, ok := s.Failed["DOOR_A.RIGIDGEOM"]; !ok {
		t.Errorf("door geometry not attempted: %v", s.Failed)
	}
	if !strings.Contains(logs.String(), "BROKEN.RIGIDGEOM") {
		t.Errorf("logs = %q", logs.String())
	}

	s, err = LoadScene(levelArchive(false), nil, log.New(&logs, "", 0))
	if err != nil || s.PlayerStart != nil {
		t.Errorf("without info: %+v, %v", s, err)
	}

	arc := levelArchive(false)
	delete(arc, DictEntry)
	if _, err := LoadScene(arc, nil, nil); err == nil {
		t.Error("expected error without dictionary")
	}
}

func TestPlacement(t *testing.T) {
	o := &level.Object{Properties: map[string]level.Value{
		`Base\Position`: level.Vector3{10, 20, 30},
	}}
	m, ok := Placement(o)
	if !ok || m.Col(3) != (mgl32.Vec4{10, 20, 30, 1}) {
		t.Errorf("placement = %v, %v", m, ok)
	}
	if _, ok := Placement(&level.Object{}); ok {
		t.Error("object without position placed")
	}
}

type recorder struct {
	begun   bool
	geoms   []string
	objects []string
	failOn  string
}

func (r *recorder) Begin(*Scene) error { r.begun = true; return nil }

func (r *recorder) Geom(name string, parts []Part) error {
	r.geoms = append(r.geoms, fmt.Sprintf("%s:%d", name, len(parts)))
	return nil
}

func (r *recorder) Object(o *level.Object) error {
	if o.TypeName == r.failOn {
		return fmt.Errorf("refused")
	}
	r.objects = append(r.objects, o.TypeName)
	return nil
}

func TestRun(t *testing.T) {
	s, err := LoadScene(levelArchive(false), nil, log.New(&bytes.Buffer{}, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	s.Geoms = []NamedGeom{{Name: "DOOR_A.RIGIDGEOM", Geom: quad()}}

	var r recorder
	if err := Run(&r, s); err != nil {
		t.Fatal(err)
	}
	if !r.begun || strings.Join(r.geoms, ",") != "DOOR_A.RIGIDGEOM:2" || strings.Join(r.objects, ",") != "Door,Light" {
		t.Errorf("recorded %+v", r)
	}

	r = recorder{failOn: "Light"}
	if err := Run(&r, s); err == nil || !strings.Contains(err.Error(), "Light") {
		t.Errorf("err = %v", err)
	}
}

func TestJSONWriter(t *testing.T) {
	s, err := LoadScene(levelArchive(true), nil, log.New(&bytes.Buffer{}, "", 0))
	if err != nil {
		t.Fatal(err)
	}
	s.Geoms = []NamedGeom{{Name: "DOOR_A.RIGIDGEOM", Geom: quad()}}
	s.Failed["OTHER.RIGIDGEOM"] = fmt.Errorf("bad")

	for _, zl := range []int{0, zstd.BestSpeed} {
		var buf bytes.Buffer
		jw := NewJSONWriter(&buf, zl, false)
		if err := Run(jw, s); err != nil {
			t.Fatal(err)
		}
		if err := jw.Close(); err != nil {
			t.Fatal(err)
		}

		raw := buf.Bytes()
		if zl > 0 {
			if raw, err = zstd.Decompress(nil, raw); err != nil {
				t.Fatalf("decompress: %v", err)
			}
		}
		var doc struct {
			Playsurface struct{ NumZones uint32 }
			Version     uint16
			PlayerStart *struct{ Pitch float32 } `json:"player_start"`
			Geoms       []struct {
				Name  string
				Parts []struct {
					Key      string
					Material string
					Data     struct{ Faces [][3]uint16 }
				}
			}
			Objects []struct {
				Type       string
				GUID       string
				Geom       string
				World      []float32
				Properties map[string]struct {
					Type  string
					Value any
				}
			}
			Failed []string
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			t.Fatalf("zstd level %d: %v", zl, err)
		}
		if doc.Playsurface.NumZones != 10 || doc.Version != 7 || doc.PlayerStart == nil || doc.PlayerStart.Pitch != 0.5 {
			t.Errorf("header = %+v", doc)
		}
		if len(doc.Geoms) != 1 || len(doc.Geoms[0].Parts) != 2 || len(doc.Geoms[0].Parts[0].Data.Faces) != 2 {
			t.Fatalf("geoms = %+v", doc.Geoms)
		}
		if len(doc.Objects) != 2 {
			t.Fatalf("objects = %+v", doc.Objects)
		}
		door := doc.Objects[0]
		if door.GUID != "000000000000d00d" || door.Geom != "Door_A.rigidgeom" || len(door.World) != 16 || door.World[12] != 100 {
			t.Errorf("door = %+v", door)
		}
		if c := doc.Objects[1].Properties[`Light\Color`]; c.Type != "color" || c.Value != "#00ff00ff" {
			t.Errorf("light color = %+v", c)
		}
		if doc.Objects[1].World != nil {
			t.Error("light without position has a world matrix")
		}
		if len(doc.Failed) != 1 || doc.Failed[0] != "OTHER.RIGIDGEOM" {
			t.Errorf("failed = %v", doc.Failed)
		}
	}
}
