// Package level decodes level bin files: a table of placed objects, a table
// of property descriptors and a bit-packed stream holding the values.
package level

import (
	"errors"
	"fmt"

	"a51-asset-decoder/internal/binread"
	"a51-asset-decoder/internal/bitstream"
)

// ErrUnknownPropertyType is returned for a tag outside the known set. The
// stream cannot be resynchronised after one.
var ErrUnknownPropertyType = errors.New("unknown property type")

const (
	objectRecordSize   = 20
	propertyRecordSize = 8
)

// ParseDictionary splits a buffer of consecutive zero-terminated strings.
// A trailing string without a terminator is kept.
func ParseDictionary(data []byte) []string {
	var out []string
	c := binread.New(data)
	for c.HasData() {
		out = append(out, c.ReadCString())
	}
	return out
}

// DecodeBytes decodes a level bin against the raw dictionary file stored
// next to it.
func DecodeBytes(bin, dict []byte) (*Level, error) {
	return Decode(bin, ParseDictionary(dict))
}

// Decode reads a level bin. Type and name indices are resolved against dict.
// On any error the returned level is nil.
func Decode(bin []byte, dict []string) (*Level, error) {
	c := binread.New(bin)
	lvl := &Level{}

	var err error
	if lvl.Version, err = c.ReadU16(); err != nil {
		return nil, fmt.Errorf("level: header: %w", err)
	}
	if err = c.Skip(4); err != nil {
		return nil, fmt.Errorf("level: header: %w", err)
	}
	var numObjects, numProperties int32
	for _, dst := range []*int32{&numObjects, &numProperties, &lvl.BitstreamLen} {
		if *dst, err = c.ReadI32(); err != nil {
			return nil, fmt.Errorf("level: header: %w", err)
		}
	}
	if numObjects < 0 || numProperties < 0 {
		return nil, fmt.Errorf("level: header: negative table size (%d objects, %d properties)", numObjects, numProperties)
	}
	if need := int(numObjects)*objectRecordSize + int(numProperties)*propertyRecordSize; need > c.Remaining() {
		return nil, fmt.Errorf("level: %w: tables need %d bytes, %d left", binread.ErrOutOfBounds, need, c.Remaining())
	}

	lvl.Objects = make([]Object, numObjects)
	for i := range lvl.Objects {
		o := &lvl.Objects[i]
		if err := readObject(c, o); err != nil {
			return nil, fmt.Errorf("level: object %d: %w", i, err)
		}
		if o.TypeName, err = lookup(dict, int(o.TypeIndex)); err != nil {
			return nil, fmt.Errorf("level: object %d type: %w", i, err)
		}
	}

	lvl.Properties = make([]Property, numProperties)
	for i := range lvl.Properties {
		p := &lvl.Properties[i]
		if p.TypeIndex, err = c.ReadU32(); err != nil {
			return nil, fmt.Errorf("level: property %d: %w", i, err)
		}
		if p.NameIndex, err = c.ReadI32(); err != nil {
			return nil, fmt.Errorf("level: property %d: %w", i, err)
		}
		if p.Name, err = lookup(dict, int(p.NameIndex)); err != nil {
			return nil, fmt.Errorf("level: property %d name: %w", i, err)
		}
	}

	// The declared bitstream length is not used; values start right after
	// the tables.
	bs := bitstream.New(bin, c.Pos()*8)
	for i := range lvl.Objects {
		o := &lvl.Objects[i]
		start, n := int(o.StartProperty), int(o.NumProperties)
		if start < 0 || n < 0 || start+n > len(lvl.Properties) {
			return nil, fmt.Errorf("level: object %d: property range [%d,%d) outside table of %d",
				i, start, start+n, len(lvl.Properties))
		}
		o.Properties = make(map[string]Value, n)
		for _, p := range lvl.Properties[start : start+n] {
			v, err := readValue(bs, p.Type())
			if err != nil {
				return nil, fmt.Errorf("level: object %d (%s) property %q: %w", i, o.TypeName, p.Name, err)
			}
			o.Properties[p.Name] = v
		}
	}
	return lvl, nil
}

func readObject(c *binread.Cursor, o *Object) error {
	var err error
	for _, dst := range []*int32{&o.TypeIndex, &o.NumProperties, &o.StartProperty} {
		if *dst, err = c.ReadI32(); err != nil {
			return err
		}
	}
	o.GUID, err = c.ReadU64()
	return err
}

func lookup(dict []string, i int) (string, error) {
	if i < 0 || i >= len(dict) {
		return "", fmt.Errorf("dictionary index %d out of range (%d entries)", i, len(dict))
	}
	return dict[i], nil
}

func readValue(bs *bitstream.Reader, t PropertyType) (Value, error) {
	switch t {
	case TypeNull:
		return Null{}, nil
	case TypeFloat:
		v, err := bs.ReadF32()
		return Float(v), err
	case TypeInt:
		v, err := bs.ReadS32()
		return Int(v), err
	case TypeBool:
		v, err := bs.ReadBool()
		return Bool(v), err
	case TypeVector2:
		v, err := bs.ReadVector2()
		return Vector2(v), err
	case TypeVector3:
		v, err := bs.ReadVector3()
		return Vector3(v), err
	case TypeRotation:
		v, err := bs.ReadVector3()
		return Rotation{Pitch: v[0], Roll: v[1], Yaw: v[2]}, err
	case TypeAngle:
		v, err := bs.ReadF32()
		return Angle(v), err
	case TypeBBox:
		v, err := bs.ReadBoundingBox()
		return BBox(v), err
	case TypeGUID:
		v, err := bs.ReadGUID()
		return GUID(v), err
	case TypeColor:
		v, err := bs.ReadColor()
		return Color(v), err
	case TypeString:
		v, err := bs.ReadString()
		return String(v), err
	case TypeEnum:
		v, err := bs.ReadString()
		return Enum(v), err
	case TypeButton:
		v, err := bs.ReadString()
		return Button(v), err
	case TypeExternal:
		v, err := bs.ReadString()
		return External(v), err
	case TypeFilename:
		v, err := bs.ReadString()
		return Filename(v), err
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownPropertyType, uint8(t))
}
