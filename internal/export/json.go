package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/DataDog/zstd"
	"github.com/go-gl/mathgl/mgl32"

	"a51-asset-decoder/internal/level"
	"a51-asset-decoder/internal/mathutil"
	"a51-asset-decoder/internal/playsurface"
)

// Document is the JSON form of an exported scene.
type Document struct {
	Playsurface playsurface.Header `json:"playsurface"`
	Version     uint16             `json:"version"`
	PlayerStart *PlayerStartDoc    `json:"player_start,omitempty"`
	Geoms       []GeomDoc          `json:"geoms"`
	Objects     []ObjectDoc        `json:"objects"`
	Failed      []string           `json:"failed,omitempty"`
}

type PlayerStartDoc struct {
	Position mgl32.Vec3 `json:"position"`
	Pitch    float32    `json:"pitch"`
	Yaw      float32    `json:"yaw"`
}

type GeomDoc struct {
	Name  string `json:"name"`
	Parts []Part `json:"parts"`
}

type ObjectDoc struct {
	Type       string                 `json:"type"`
	GUID       string                 `json:"guid"`
	Geom       string                 `json:"geom,omitempty"`
	World      *mgl32.Mat4            `json:"world,omitempty"`
	Properties map[string]PropertyDoc `json:"properties"`
}

type PropertyDoc struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// JSONWriter collects a scene and writes it as one JSON document on Close.
// With a zstd level above zero the output is compressed.
type JSONWriter struct {
	w         io.Writer
	zstdLevel int
	indent    bool
	doc       Document
}

// NewJSONWriter writes to w. zstdLevel 0 disables compression.
func NewJSONWriter(w io.Writer, zstdLevel int, indent bool) *JSONWriter {
	return &JSONWriter{w: w, zstdLevel: zstdLevel, indent: indent}
}

func (j *JSONWriter) Begin(s *Scene) error {
	j.doc = Document{
		Playsurface: s.Playsurface,
		Geoms:       []GeomDoc{},
		Objects:     []ObjectDoc{},
	}
	if s.Level != nil {
		j.doc.Version = s.Level.Version
	}
	if ps := s.PlayerStart; ps != nil {
		j.doc.PlayerStart = &PlayerStartDoc{Position: ps.Position, Pitch: ps.Pitch, Yaw: ps.Yaw}
	}
	for name := range s.Failed {
		j.doc.Failed = append(j.doc.Failed, name)
	}
	sort.Strings(j.doc.Failed)
	return nil
}

func (j *JSONWriter) Geom(name string, parts []Part) error {
	if parts == nil {
		parts = []Part{}
	}
	j.doc.Geoms = append(j.doc.Geoms, GeomDoc{Name: name, Parts: parts})
	return nil
}

func (j *JSONWriter) Object(o *level.Object) error {
	od := ObjectDoc{
		Type:       o.TypeName,
		GUID:       fmt.Sprintf("%016x", o.GUID),
		Properties: make(map[string]PropertyDoc, len(o.Properties)),
	}
	if m, ok := Placement(o); ok {
		od.World = &m
	}
	if f, ok := o.Text(GeomProperty); ok {
		od.Geom = f
	}
	for name, v := range o.Properties {
		od.Properties[name] = PropertyDoc{Type: v.Type().String(), Value: propertyValue(v)}
	}
	j.doc.Objects = append(j.doc.Objects, od)
	return nil
}

// Document returns what has been collected so far.
func (j *JSONWriter) Document() *Document { return &j.doc }

// Close encodes the document.
func (j *JSONWriter) Close() error {
	w := j.w
	var zw *zstd.Writer
	if j.zstdLevel > 0 {
		zw = zstd.NewWriterLevel(j.w, j.zstdLevel)
		w = zw
	}
	enc := json.NewEncoder(w)
	if j.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(&j.doc); err != nil {
		if zw != nil {
			zw.Close()
		}
		return fmt.Errorf("export: encode: %w", err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("export: zstd: %w", err)
		}
	}
	return nil
}

// propertyValue maps a level value to something encoding/json renders
// readably.
func propertyValue(v level.Value) any {
	switch x := v.(type) {
	case level.Null:
		return nil
	case level.Float:
		return float32(x)
	case level.Int:
		return int32(x)
	case level.Bool:
		return bool(x)
	case level.Vector2:
		return [2]float32{x[0], x[1]}
	case level.Vector3:
		return [3]float32{x[0], x[1], x[2]}
	case level.Rotation:
		return map[string]float32{"pitch": x.Pitch, "roll": x.Roll, "yaw": x.Yaw}
	case level.Angle:
		return float32(x)
	case level.GUID:
		return fmt.Sprintf("%016x", uint64(x))
	case level.Color:
		return fmt.Sprintf("#%08x", uint32(x))
	case level.BBox:
		return mathutil.BBox(x)
	}
	if s, ok := level.Text(v); ok {
		return s
	}
	return fmt.Sprint(v)
}
