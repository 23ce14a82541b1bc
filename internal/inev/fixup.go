package inev

import (
	"errors"
	"fmt"
)

var (
	ErrNoFixupForOffset     = errors.New("no fixup for offset")
	ErrUnsupportedFixupKind = errors.New("unsupported fixup kind")
)

// FixupKind selects the section a fixup target lives in.
type FixupKind uint32

const (
	DynamicData FixupKind = 1
	StaticData  FixupKind = 3
)

func (k FixupKind) String() string {
	switch k {
	case DynamicData:
		return "dynamic"
	case StaticData:
		return "static"
	default:
		return fmt.Sprintf("unsupported(%d)", uint32(k))
	}
}

// Fixup maps a pointer field in the static section to the array it points at.
type Fixup struct {
	Offset int32     // static-relative offset of the pointer field
	Count  int32     // declared element count of the target array
	Target int32     // section-relative offset of the target array
	Kind   FixupKind // section the target lives in
}

const fixupSize = 16

// Resolution is the outcome of resolving one pointer field.
type Resolution struct {
	Offset        int // absolute offset into the file buffer
	Fixup         Fixup
	CountMismatch bool
}

// Resolver resolves pointer fields against a fixup table.
// StaticBase is the absolute offset of the static section; StaticSize its length.
type Resolver struct {
	Fixups     []Fixup
	StaticBase int
	StaticSize int
}

// Resolve finds the first fixup whose Offset equals rel and returns the
// absolute offset of its target. A count differing from expected is flagged
// on the result but is not an error.
func (r Resolver) Resolve(rel int, expected int) (Resolution, error) {
	for _, f := range r.Fixups {
		if int(f.Offset) != rel {
			continue
		}
		res := Resolution{Offset: -1, Fixup: f, CountMismatch: int(f.Count) != expected}
		switch f.Kind {
		case StaticData:
			res.Offset = int(f.Target) + r.StaticBase
		case DynamicData:
			res.Offset = int(f.Target) + r.StaticBase + r.StaticSize
		default:
			return Resolution{Offset: -1, Fixup: f}, fmt.Errorf("%w: %s at offset %d", ErrUnsupportedFixupKind, f.Kind, rel)
		}
		return res, nil
	}
	return Resolution{Offset: -1}, fmt.Errorf("%w: %d", ErrNoFixupForOffset, rel)
}
