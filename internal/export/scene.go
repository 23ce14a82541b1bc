package export

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"a51-asset-decoder/internal/dfs"
	"a51-asset-decoder/internal/geom"
	"a51-asset-decoder/internal/info"
	"a51-asset-decoder/internal/level"
	"a51-asset-decoder/internal/mathutil"
	"a51-asset-decoder/internal/playsurface"
)

// Entry names inside a level archive.
const (
	PlaysurfaceEntry = "LEVEL_DATA.PLAYSURFACE"
	LevelBinEntry    = "LEVEL_DATA.BIN_LEVEL"
	DictEntry        = "LEVEL_DATA.LEV_DICT"
	InfoEntry        = "LEVEL_DATA.INFO"
)

// GeomProperty names the rigid geometry an object renders with.
const GeomProperty = `RenderInst\File`

// Archive is the subset of a DFS archive scenes are loaded from.
type Archive interface {
	Get(name string) ([]byte, error)
	Filenames(ext string) []string
}

// NamedGeom is a decoded rigid geometry and its archive name.
type NamedGeom struct {
	Name string
	Geom *geom.RigidGeom
}

// Scene is everything decoded for one level.
type Scene struct {
	Playsurface playsurface.Header
	Level       *level.Level
	PlayerStart *info.PlayerStart
	Geoms       []NamedGeom
	Failed      map[string]error // geometries that could not be decoded
}

// LoadScene decodes the level archive and every rigid geometry of the
// resource archive plus any geometry referenced by level objects. A missing
// info entry is tolerated. Geometry failures are logged and recorded in
// Scene.Failed.
func LoadScene(levelArc, resource Archive, logger *log.Logger) (*Scene, error) {
	if logger == nil {
		logger = log.Default()
	}
	s := &Scene{Failed: map[string]error{}}

	raw, err := levelArc.Get(PlaysurfaceEntry)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if s.Playsurface, err = playsurface.Decode(raw); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	bin, err := levelArc.Get(LevelBinEntry)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	dict, err := levelArc.Get(DictEntry)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if s.Level, err = level.DecodeBytes(bin, dict); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	switch text, err := levelArc.Get(InfoEntry); {
	case errors.Is(err, dfs.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("export: %w", err)
	default:
		secs, err := info.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		if ps, err := info.FindPlayerStart(secs); err == nil {
			s.PlayerStart = &ps
		} else {
			logger.Printf("export: %v", err)
		}
	}

	if resource == nil {
		return s, nil
	}
	for _, name := range geomNames(resource, s.Level) {
		data, err := resource.Get(name)
		if err == nil {
			var rg *geom.RigidGeom
			rg, err = geom.DecodeRigid(data, geom.WithLogger(logger))
			if err == nil && !rg.IsValid() {
				err = fmt.Errorf("unsupported platform %d", rg.Geom.Platform)
			}
			if err == nil {
				s.Geoms = append(s.Geoms, NamedGeom{Name: name, Geom: rg})
				continue
			}
		}
		logger.Printf("export: failed to read %s: %v", name, err)
		s.Failed[name] = err
	}
	return s, nil
}

// geomNames returns the archive's rigid geometries and those referenced by
// objects, without duplicates, sorted.
func geomNames(resource Archive, lvl *level.Level) []string {
	seen := map[string]bool{}
	for _, n := range resource.Filenames("rigidgeom") {
		seen[n] = true
	}
	if lvl != nil {
		for i := range lvl.Objects {
			if f, ok := lvl.Objects[i].Text(GeomProperty); ok && f != "" {
				seen[strings.ToUpper(f)] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Placement returns the world matrix of an object with a Base\Position.
// Objects without a rotation are placed unrotated.
func Placement(o *level.Object) (mgl32.Mat4, bool) {
	pos, ok := o.Position()
	if !ok {
		return mgl32.Ident4(), false
	}
	rot, _ := o.Rotation()
	return mathutil.LocalToWorld(pos, rot.Pitch, rot.Roll, rot.Yaw), true
}

// Exporter consumes a decoded scene.
type Exporter interface {
	Begin(s *Scene) error
	Geom(name string, parts []Part) error
	Object(o *level.Object) error
}

// Run calls e.Geom once per decoded geometry and e.Object once per level
// object, after e.Begin.
func Run(e Exporter, s *Scene) error {
	if err := e.Begin(s); err != nil {
		return err
	}
	for _, ng := range s.Geoms {
		parts, err := Parts(ng.Name, ng.Geom)
		if err != nil {
			return err
		}
		if err := e.Geom(ng.Name, parts); err != nil {
			return fmt.Errorf("export: %s: %w", ng.Name, err)
		}
	}
	if s.Level == nil {
		return nil
	}
	for i := range s.Level.Objects {
		o := &s.Level.Objects[i]
		if err := e.Object(o); err != nil {
			return fmt.Errorf("export: object %d (%s): %w", i, o.TypeName, err)
		}
	}
	return nil
}
