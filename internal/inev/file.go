package inev

import (
	"errors"
	"fmt"
	"log"

	"a51-asset-decoder/internal/binread"
)

// Signature is "IneV" read as a little-endian u32.
const Signature = 0x56656E49

// HeaderSize is the size of the fixed header; the static section follows it.
const HeaderSize = 20

// ErrInvalidSignature marks a buffer that is not a relocatable object.
var ErrInvalidSignature = errors.New("invalid inev signature")

// Header is the fixed 20-byte object header.
type Header struct {
	Signature   uint32
	Version     int32
	StaticSize  int32
	TableCount  int32
	DynamicSize int32
}

// Object is a relocatable object: a static section holding records and
// pointer fields, a dynamic section, and a fixup table stored at the end of
// the static section. The embedded cursor reads in absolute file offsets and
// aligns relative to the static section.
type Object struct {
	*binread.Cursor
	Header   Header
	Resolver Resolver

	valid  bool
	logger *log.Logger
}

// Option configures an Object.
type Option func(*Object)

// WithLogger sets the logger used for non-fatal diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(o *Object) {
		if l != nil {
			o.logger = l
		}
	}
}

// Open parses the header and fixup table of data. The buffer is borrowed.
// A signature mismatch yields an object with Valid() == false and a nil
// error; structural damage is an error.
func Open(data []byte, opts ...Option) (*Object, error) {
	o := &Object{logger: log.Default()}
	for _, opt := range opts {
		opt(o)
	}

	c := binread.New(data)
	var err error
	if o.Header.Signature, err = c.ReadU32(); err != nil {
		return nil, fmt.Errorf("inev: header: %w", err)
	}
	if o.Header.Signature != Signature {
		o.Cursor = binread.NewAt(data, HeaderSize, HeaderSize)
		return o, nil
	}
	for _, dst := range []*int32{&o.Header.Version, &o.Header.StaticSize, &o.Header.TableCount, &o.Header.DynamicSize} {
		if *dst, err = c.ReadI32(); err != nil {
			return nil, fmt.Errorf("inev: header: %w", err)
		}
	}

	h := o.Header
	if h.StaticSize < 0 || h.TableCount < 0 || h.DynamicSize < 0 {
		return nil, fmt.Errorf("inev: negative section size in header (static %d, tables %d, dynamic %d)",
			h.StaticSize, h.TableCount, h.DynamicSize)
	}
	tableStart := HeaderSize + int(h.StaticSize) - int(h.TableCount)*fixupSize
	if tableStart < HeaderSize {
		return nil, fmt.Errorf("inev: %d fixups do not fit in %d static bytes", h.TableCount, h.StaticSize)
	}

	fixups := make([]Fixup, h.TableCount)
	if err := c.Seek(tableStart); err != nil {
		return nil, fmt.Errorf("inev: fixup table: %w", err)
	}
	for i := range fixups {
		f := &fixups[i]
		var kind uint32
		if f.Offset, err = c.ReadI32(); err == nil {
			if f.Count, err = c.ReadI32(); err == nil {
				if f.Target, err = c.ReadI32(); err == nil {
					kind, err = c.ReadU32()
				}
			}
		}
		if err != nil {
			return nil, fmt.Errorf("inev: fixup %d: %w", i, err)
		}
		f.Kind = FixupKind(kind)
	}

	o.Resolver = Resolver{Fixups: fixups, StaticBase: HeaderSize, StaticSize: int(h.StaticSize)}
	o.Cursor = binread.NewAt(data, HeaderSize, HeaderSize)
	o.valid = true
	return o, nil
}

// Valid reports whether the signature matched.
func (o *Object) Valid() bool { return o != nil && o.valid }

// StaticOffset returns the cursor position relative to the static section.
func (o *Object) StaticOffset() int { return o.Pos() - o.Resolver.StaticBase }

// DynamicOffset returns the absolute offset of the dynamic section.
func (o *Object) DynamicOffset() int { return o.Resolver.StaticBase + o.Resolver.StaticSize }

// ResolvePointer resolves the pointer field under the cursor and advances
// past it. The cursor moves by 4 bytes whether or not resolution succeeds.
// On failure the returned offset is -1.
func (o *Object) ResolvePointer(expected int) (int, error) {
	if !o.valid {
		return -1, ErrInvalidSignature
	}
	rel := o.StaticOffset()
	if err := o.Skip(4); err != nil {
		return -1, fmt.Errorf("inev: pointer at %d: %w", rel, err)
	}
	res, err := o.Resolver.Resolve(rel, expected)
	if err != nil {
		return -1, fmt.Errorf("inev: %w", err)
	}
	if res.CountMismatch {
		o.logger.Printf("inev: warning, expected count to be %d, but saw %d (pointer at %d)", expected, res.Fixup.Count, rel)
	}
	return res.Offset, nil
}
