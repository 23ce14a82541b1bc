package geom

import (
	"fmt"
	"log"

	"a51-asset-decoder/internal/binread"
	"a51-asset-decoder/internal/inev"
	"a51-asset-decoder/internal/mathutil"
)

// Option configures decoding.
type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger sets the logger used for non-fatal diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Decode reads a geometry object.
// A signature mismatch returns (nil, inev.ErrInvalidSignature).
func Decode(data []byte, opts ...Option) (*Geom, error) {
	o := newOptions(opts)
	obj, err := inev.Open(data, inev.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("geom: %w", err)
	}
	if !obj.Valid() {
		return nil, fmt.Errorf("geom: %w", inev.ErrInvalidSignature)
	}
	return readGeom(obj)
}

// DecodeRigid reads a rigid geometry object including its draw lists.
// Geometry for a platform other than PC is returned with Valid == false and
// a nil error.
func DecodeRigid(data []byte, opts ...Option) (*RigidGeom, error) {
	o := newOptions(opts)
	obj, err := inev.Open(data, inev.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("rigidgeom: %w", err)
	}
	if !obj.Valid() {
		return nil, fmt.Errorf("rigidgeom: %w", inev.ErrInvalidSignature)
	}

	g, err := readGeom(obj)
	if err != nil {
		return nil, err
	}
	rg := &RigidGeom{Geom: g}

	// collision data: unknown word, bbox, then 36 bytes of counts/pointers
	if err := obj.Skip(4 + 32 + 4*4 + 4*2 + 3*4); err != nil {
		return nil, fmt.Errorf("rigidgeom: collision: %w", err)
	}
	obj.Align16()
	numDLists, err := obj.ReadI32()
	if err != nil {
		return nil, fmt.Errorf("rigidgeom: dlist count: %w", err)
	}

	if g.Platform != PlatformPC {
		o.logger.Printf("rigidgeom: platform %d not supported, only PC (%d) draw lists are decoded", g.Platform, PlatformPC)
		return rg, nil
	}

	dlists, err := readRecords(obj, int(numDLists), dlistSize, "dlists", func(dl *DList) error {
		return readDListPC(obj, dl)
	})
	if err != nil {
		return nil, fmt.Errorf("rigidgeom: %w", err)
	}
	rg.DLists = dlists
	rg.Valid = true
	return rg, nil
}

// Record sizes in bytes.
const (
	meshSize     = 48
	subMeshSize  = 8
	materialSize = 16
	textureSize  = 4
	dlistSize    = 24
	indexSize    = 2
	vertexSize   = 36
)

// readRecords resolves the pointer under the cursor and reads count records
// of size bytes from its target. Empty arrays are stored as a null pointer
// and skipped without resolution. The count is checked against the bytes
// left at the target before anything is allocated.
func readRecords[T any](obj *inev.Object, count, size int, what string, fn func(*T) error) ([]T, error) {
	if count < 0 {
		return nil, fmt.Errorf("%s: negative count %d", what, count)
	}
	if count == 0 {
		return nil, skipNull(obj, what)
	}
	off, err := obj.ResolvePointer(count)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	if off < 0 || off > obj.Len() || count > (obj.Len()-off)/size {
		return nil, fmt.Errorf("%s: %w: %d records of %d bytes at %d (len %d)",
			what, binread.ErrOutOfBounds, count, size, off, obj.Len())
	}
	out := make([]T, count)
	err = obj.Jump(off, func() error {
		for i := range out {
			if err := fn(&out[i]); err != nil {
				return fmt.Errorf("%s[%d]: %w", what, i, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// skipNull steps over a pointer slot whose array is not read.
func skipNull(obj *inev.Object, what string) error {
	if err := obj.Skip(4); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// fieldReader collects the first error of a run of fixed-layout reads.
type fieldReader struct {
	c   *binread.Cursor
	err error
}

func (r *fieldReader) i16() int16 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadI16()
	r.err = err
	return v
}

func (r *fieldReader) i32() int32 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadI32()
	r.err = err
	return v
}

func (r *fieldReader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadU32()
	r.err = err
	return v
}

func (r *fieldReader) u8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadU8()
	r.err = err
	return v
}

func (r *fieldReader) f32() float32 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.ReadF32()
	r.err = err
	return v
}

func (r *fieldReader) floats(n int) []float32 {
	if r.err != nil {
		return make([]float32, n)
	}
	v, err := r.c.ReadF32s(n)
	r.err = err
	if err != nil {
		return make([]float32, n)
	}
	return v
}

// bbox reads min xyzw, max xyzw.
func (r *fieldReader) bbox() mathutil.BBox {
	b, _ := mathutil.BBoxFromFloats(r.floats(8))
	return b
}

func (r *fieldReader) skip(n int) {
	if r.err == nil {
		r.err = r.c.Skip(n)
	}
}

func readHeader(obj *inev.Object) (Header, error) {
	r := &fieldReader{c: obj.Cursor}
	var h Header
	h.BBox = r.bbox()
	h.Platform = Platform(r.i16())
	r.skip(2)
	h.Version = r.i16()
	for _, dst := range []*int16{
		&h.NumFaces, &h.NumVertices, &h.NumBones, &h.NumBoneMasks,
		&h.NumPropertySections, &h.NumProperties, &h.NumRigidBodies,
		&h.NumMeshes, &h.NumSubMeshes, &h.NumMaterials, &h.NumTextures,
		&h.NumUVKeys, &h.NumLODs, &h.NumVirtualMeshes, &h.NumVirtualMaterials,
		&h.NumVirtualTextures, &h.StringDataSize,
	} {
		*dst = r.i16()
	}
	return h, r.err
}

func readGeom(obj *inev.Object) (*Geom, error) {
	h, err := readHeader(obj)
	if err != nil {
		return nil, fmt.Errorf("geom: header: %w", err)
	}
	for _, n := range []int16{h.NumMeshes, h.NumSubMeshes, h.NumMaterials, h.NumTextures, h.StringDataSize} {
		if n < 0 {
			return nil, fmt.Errorf("geom: header: negative count %d", n)
		}
	}
	g := &Geom{Header: h}

	skip := func(what string) func() error {
		return func() error { return skipNull(obj, what) }
	}
	steps := []func() error{
		skip("bones"),
		skip("bone masks"),
		skip("property sections"),
		skip("properties"),
		skip("rigid bodies"),
		func() (err error) {
			g.Meshes, err = readRecords(obj, int(h.NumMeshes), meshSize, "meshes",
				func(m *Mesh) error { return readMesh(obj, m) })
			return err
		},
		func() (err error) {
			g.SubMeshes, err = readRecords(obj, int(h.NumSubMeshes), subMeshSize, "submeshes",
				func(sm *SubMesh) error { return readSubMesh(obj, sm) })
			return err
		},
		func() (err error) {
			g.Materials, err = readRecords(obj, int(h.NumMaterials), materialSize, "materials",
				func(m *Material) error { return readMaterial(obj, m) })
			return err
		},
		func() (err error) {
			g.Textures, err = readRecords(obj, int(h.NumTextures), textureSize, "textures",
				func(t *Texture) error { return readTexture(obj, t) })
			return err
		},
		skip("uv keys"),
		skip("lod sizes"),
		skip("lod masks"),
		skip("virtual meshes"),
		skip("virtual materials"),
		skip("virtual textures"),
		func() (err error) {
			g.StringData, err = readRecords(obj, int(h.StringDataSize), 1, "string data",
				func(b *byte) (err error) {
					*b, err = obj.ReadU8()
					return err
				})
			return err
		},
		skip("handle"),
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, fmt.Errorf("geom: %w", err)
		}
	}

	if err := g.resolveNames(); err != nil {
		return nil, fmt.Errorf("geom: %w", err)
	}
	return g, nil
}

// resolveNames fills every name field from the string blob.
func (g *Geom) resolveNames() error {
	if len(g.StringData) == 0 {
		return nil
	}
	var err error
	for i := range g.Meshes {
		m := &g.Meshes[i]
		if m.Name, err = binread.CStringAt(g.StringData, int(m.NameOffset)); err != nil {
			return fmt.Errorf("mesh %d name: %w", i, err)
		}
	}
	for i := range g.Textures {
		t := &g.Textures[i]
		if t.Filename, err = binread.CStringAt(g.StringData, int(t.FilenameOffset)); err != nil {
			return fmt.Errorf("texture %d filename: %w", i, err)
		}
		if t.Description, err = binread.CStringAt(g.StringData, int(t.DescOffset)); err != nil {
			return fmt.Errorf("texture %d description: %w", i, err)
		}
	}
	return nil
}

// readMesh reads a 48-byte mesh record.
func readMesh(obj *inev.Object, m *Mesh) error {
	r := &fieldReader{c: obj.Cursor}
	m.BBox = r.bbox()
	m.NameOffset = r.i16()
	m.NumSubMeshes = r.i16()
	m.IdxSubMesh = r.i16()
	m.NumBones = r.i16()
	m.NumFaces = r.i16()
	m.NumVertices = r.i16()
	r.skip(4)
	return r.err
}

// readSubMesh reads an 8-byte submesh record.
func readSubMesh(obj *inev.Object, sm *SubMesh) error {
	r := &fieldReader{c: obj.Cursor}
	sm.IdxDList = r.i16()
	sm.IdxMaterial = r.i16()
	sm.WorldPixelSize = r.f32()
	return r.err
}

// readMaterial reads a 16-byte material record.
func readMaterial(obj *inev.Object, m *Material) error {
	r := &fieldReader{c: obj.Cursor}
	m.DetailScale = r.f32()
	m.FixedAlpha = r.f32()
	m.Flags = r.u32()
	m.Type = r.u8()
	m.NumTextures = r.u8()
	m.TextureIndex = r.i16()
	return r.err
}

func readTexture(obj *inev.Object, t *Texture) error {
	r := &fieldReader{c: obj.Cursor}
	t.FilenameOffset = r.i16()
	t.DescOffset = r.i16()
	return r.err
}

// readDListPC reads a 24-byte PC draw-list record and the index and vertex
// arrays it points at.
func readDListPC(obj *inev.Object, dl *DList) error {
	numIndices, err := obj.ReadU32()
	if err != nil {
		return err
	}
	dl.Indices, err = readRecords(obj, int(numIndices), indexSize, "indices", func(v *uint16) (err error) {
		*v, err = obj.ReadU16()
		return err
	})
	if err != nil {
		return err
	}

	numVertices, err := obj.ReadI32()
	if err != nil {
		return err
	}
	dl.Vertices, err = readRecords(obj, int(numVertices), vertexSize, "vertices", func(v *Vertex) error {
		return readVertex(obj, v)
	})
	if err != nil {
		return err
	}

	r := &fieldReader{c: obj.Cursor}
	dl.BoneIndex = r.i32()
	r.skip(4)
	return r.err
}

// readVertex reads a 36-byte vertex: position, normal, color, uv.
func readVertex(obj *inev.Object, v *Vertex) error {
	r := &fieldReader{c: obj.Cursor}
	f := r.floats(6)
	copy(v.Position[:], f[:3])
	copy(v.Normal[:], f[3:])
	for i := range v.Color {
		v.Color[i] = r.u8()
	}
	uv := r.floats(2)
	copy(v.UV[:], uv)
	return r.err
}
