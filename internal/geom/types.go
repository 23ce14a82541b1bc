package geom

import (
	"github.com/go-gl/mathgl/mgl32"

	"a51-asset-decoder/internal/mathutil"
)

// Platform identifies the target the geometry was compiled for.
type Platform int16

// PlatformPC is the only platform whose draw-list layout is decoded.
const PlatformPC Platform = 1

// Header holds the fixed-layout counts that gate every indirect array.
type Header struct {
	BBox     mathutil.BBox
	Platform Platform
	Version  int16

	NumFaces            int16
	NumVertices         int16
	NumBones            int16
	NumBoneMasks        int16
	NumPropertySections int16
	NumProperties       int16
	NumRigidBodies      int16
	NumMeshes           int16
	NumSubMeshes        int16
	NumMaterials        int16
	NumTextures         int16
	NumUVKeys           int16
	NumLODs             int16
	NumVirtualMeshes    int16
	NumVirtualMaterials int16
	NumVirtualTextures  int16
	StringDataSize      int16
}

// Mesh is a named group of submeshes.
type Mesh struct {
	BBox         mathutil.BBox
	Name         string
	NameOffset   int16
	NumSubMeshes int16
	IdxSubMesh   int16
	NumBones     int16
	NumFaces     int16
	NumVertices  int16
}

// SubMeshRange returns the half-open index range of this mesh's submeshes.
func (m Mesh) SubMeshRange() (int, int) {
	return int(m.IdxSubMesh), int(m.IdxSubMesh) + int(m.NumSubMeshes)
}

// SubMesh binds one draw list to one material.
type SubMesh struct {
	IdxDList       int16
	IdxMaterial    int16
	WorldPixelSize float32
}

type Material struct {
	DetailScale  float32
	FixedAlpha   float32
	Flags        uint32
	Type         uint8
	NumTextures  uint8
	TextureIndex int16 // -1 when the material has no texture
}

// HasTexture reports whether TextureIndex refers to a texture.
func (m Material) HasTexture() bool { return m.TextureIndex >= 0 }

type Texture struct {
	Filename       string
	Description    string
	FilenameOffset int16
	DescOffset     int16
}

// Geom is the platform-independent part of a geometry object.
type Geom struct {
	Header
	Meshes     []Mesh
	SubMeshes  []SubMesh
	Materials  []Material
	Textures   []Texture
	StringData []byte
}

// TextureFor returns the texture used by a submesh, if any.
func (g *Geom) TextureFor(sm SubMesh) (Texture, bool) {
	i := int(sm.IdxMaterial)
	if i < 0 || i >= len(g.Materials) {
		return Texture{}, false
	}
	mat := g.Materials[i]
	if !mat.HasTexture() || int(mat.TextureIndex) >= len(g.Textures) {
		return Texture{}, false
	}
	return g.Textures[mat.TextureIndex], true
}

type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Color    [4]uint8
	UV       mgl32.Vec2
}

// DList is one indexed triangle batch.
type DList struct {
	Indices   []uint16
	Vertices  []Vertex
	BoneIndex int32
}

// RigidGeom is a Geom plus its PC draw lists.
// Valid is false for platforms whose draw lists are not decoded; Geom is
// still populated in that case and DLists is nil.
type RigidGeom struct {
	Geom   *Geom
	DLists []DList
	Valid  bool
}

// IsValid reports whether g holds fully decoded geometry.
func (g *RigidGeom) IsValid() bool {
	return g != nil && g.Valid && g.Geom != nil
}
