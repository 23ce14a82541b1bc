package export

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"a51-asset-decoder/internal/geom"
	"a51-asset-decoder/internal/mathutil"
)

// Mesh is a draw list as positions, triangles and per-corner UVs.
type Mesh struct {
	Positions []mgl32.Vec3 `json:"positions"`
	Faces     [][3]uint16  `json:"faces"`
	UVs       []mgl32.Vec2 `json:"uvs"` // three per face
}

// FlattenDList converts a draw list's indexed triangles.
func FlattenDList(dl geom.DList) (Mesh, error) {
	if len(dl.Indices)%3 != 0 {
		return Mesh{}, fmt.Errorf("export: %d indices is not a whole number of triangles", len(dl.Indices))
	}
	m := Mesh{
		Positions: make([]mgl32.Vec3, len(dl.Vertices)),
		Faces:     make([][3]uint16, 0, len(dl.Indices)/3),
		UVs:       make([]mgl32.Vec2, 0, len(dl.Indices)),
	}
	for i, v := range dl.Vertices {
		m.Positions[i] = v.Position
	}
	for i := 0; i < len(dl.Indices); i += 3 {
		face := [3]uint16{dl.Indices[i], dl.Indices[i+1], dl.Indices[i+2]}
		for _, idx := range face {
			if int(idx) >= len(dl.Vertices) {
				return Mesh{}, fmt.Errorf("export: index %d out of range (%d vertices)", idx, len(dl.Vertices))
			}
			m.UVs = append(m.UVs, dl.Vertices[idx].UV)
		}
		m.Faces = append(m.Faces, face)
	}
	return m, nil
}

// Part is one submesh of a geometry ready for output.
type Part struct {
	Key      string        `json:"key"` // geom_mesh_submesh
	Mesh     string        `json:"mesh"`
	SubMesh  int           `json:"submesh"`
	Material string        `json:"material,omitempty"`
	Texture  string        `json:"texture,omitempty"`
	BBox     mathutil.BBox `json:"bbox"`
	Data     Mesh          `json:"data"`
}

// Parts flattens every submesh of rg. Submeshes whose draw list index is out
// of range are an error.
func Parts(name string, rg *geom.RigidGeom) ([]Part, error) {
	if !rg.IsValid() {
		return nil, fmt.Errorf("export: %s: geometry not decoded", name)
	}
	g := rg.Geom
	var parts []Part
	for _, mesh := range g.Meshes {
		lo, hi := mesh.SubMeshRange()
		for si := lo; si < hi; si++ {
			if si < 0 || si >= len(g.SubMeshes) {
				return nil, fmt.Errorf("export: %s: mesh %q submesh %d out of range", name, mesh.Name, si)
			}
			sm := g.SubMeshes[si]
			if int(sm.IdxDList) < 0 || int(sm.IdxDList) >= len(rg.DLists) {
				return nil, fmt.Errorf("export: %s: submesh %d draw list %d out of range", name, si, sm.IdxDList)
			}
			dl := rg.DLists[sm.IdxDList]
			data, err := FlattenDList(dl)
			if err != nil {
				return nil, fmt.Errorf("export: %s: submesh %d: %w", name, si, err)
			}
			p := Part{
				Key:     fmt.Sprintf("%s_%s_%d", name, mesh.Name, si),
				Mesh:    mesh.Name,
				SubMesh: si,
				Data:    data,
			}
			if len(data.Positions) > 0 {
				p.BBox = mathutil.BBox{Min: data.Positions[0], Max: data.Positions[0]}
				for _, pos := range data.Positions[1:] {
					p.BBox = p.BBox.Extend(pos)
				}
			}
			if tex, ok := g.TextureFor(sm); ok {
				p.Texture = tex.Filename
				p.Material = MaterialName(tex.Filename)
			}
			parts = append(parts, p)
		}
	}
	return parts, nil
}

// MaterialName is the upper-cased texture filename up to its first dot.
func MaterialName(texture string) string {
	base, _, _ := strings.Cut(texture, ".")
	return strings.ToUpper(base)
}
