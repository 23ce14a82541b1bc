package level

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"a51-asset-decoder/internal/mathutil"
)

// PropertyType is the tag stored in the low byte of a property's type field.
type PropertyType uint8

const (
	TypeNull PropertyType = iota
	TypeFloat
	TypeInt
	TypeBool
	TypeVector2
	TypeVector3
	TypeRotation
	TypeAngle
	TypeBBox
	TypeGUID
	TypeColor
	TypeString
	TypeEnum
	TypeButton
	TypeExternal
	TypeFilename
)

var typeNames = [...]string{
	"null", "float", "int", "bool", "vector2", "vector3", "rotation", "angle",
	"bbox", "guid", "color", "string", "enum", "button", "external", "filename",
}

func (t PropertyType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Value is a decoded property value. The set of implementations is closed.
type Value interface {
	Type() PropertyType
}

type (
	Null    struct{}
	Float   float32
	Int     int32
	Bool    bool
	Vector2 mgl32.Vec2
	Vector3 mgl32.Vec3
	Angle   float32
	BBox    mathutil.BBox
	GUID    uint64
	Color   uint32

	String   string
	Enum     string
	Button   string
	External string
	Filename string
)

// Rotation is stored as pitch, roll, yaw in radians.
type Rotation struct {
	Pitch, Roll, Yaw float32
}

func (Null) Type() PropertyType     { return TypeNull }
func (Float) Type() PropertyType    { return TypeFloat }
func (Int) Type() PropertyType      { return TypeInt }
func (Bool) Type() PropertyType     { return TypeBool }
func (Vector2) Type() PropertyType  { return TypeVector2 }
func (Vector3) Type() PropertyType  { return TypeVector3 }
func (Rotation) Type() PropertyType { return TypeRotation }
func (Angle) Type() PropertyType    { return TypeAngle }
func (BBox) Type() PropertyType     { return TypeBBox }
func (GUID) Type() PropertyType     { return TypeGUID }
func (Color) Type() PropertyType    { return TypeColor }
func (String) Type() PropertyType   { return TypeString }
func (Enum) Type() PropertyType     { return TypeEnum }
func (Button) Type() PropertyType   { return TypeButton }
func (External) Type() PropertyType { return TypeExternal }
func (Filename) Type() PropertyType { return TypeFilename }

// Text returns the string payload of the string-like property types.
func Text(v Value) (string, bool) {
	switch s := v.(type) {
	case String:
		return string(s), true
	case Enum:
		return string(s), true
	case Button:
		return string(s), true
	case External:
		return string(s), true
	case Filename:
		return string(s), true
	}
	return "", false
}

// Property is one entry of the property table.
type Property struct {
	TypeIndex uint32
	NameIndex int32
	Name      string
}

// Type returns the tag in the low byte of TypeIndex.
func (p Property) Type() PropertyType { return PropertyType(p.TypeIndex & 0xff) }

// Flags returns the bits above the tag byte.
func (p Property) Flags() uint32 { return p.TypeIndex >> 8 }

// Object is one placed entity and its decoded properties.
type Object struct {
	TypeIndex     int32
	TypeName      string
	NumProperties int32
	StartProperty int32
	GUID          uint64
	Properties    map[string]Value
}

// Position returns the Base\Position property.
func (o *Object) Position() (mgl32.Vec3, bool) {
	v, ok := o.Properties[`Base\Position`].(Vector3)
	return mgl32.Vec3(v), ok
}

// Rotation returns the Base\Rotation property.
func (o *Object) Rotation() (Rotation, bool) {
	v, ok := o.Properties[`Base\Rotation`].(Rotation)
	return v, ok
}

// Text returns the string payload of a named string-like property.
func (o *Object) Text(name string) (string, bool) {
	v, ok := o.Properties[name]
	if !ok {
		return "", false
	}
	return Text(v)
}

// Level is a decoded level bin.
type Level struct {
	Version      uint16
	BitstreamLen int32
	Objects      []Object
	Properties   []Property
}

// ObjectsOfType returns the objects whose type name equals name.
func (l *Level) ObjectsOfType(name string) []*Object {
	var out []*Object
	for i := range l.Objects {
		if l.Objects[i].TypeName == name {
			out = append(out, &l.Objects[i])
		}
	}
	return out
}
