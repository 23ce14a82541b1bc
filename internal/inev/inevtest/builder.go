package inevtest

import (
	"bytes"
	"encoding/binary"

	"a51-asset-decoder/internal/inev"
)

// Builder lays out a static section, a dynamic section and the fixups that
// connect them. Offsets are relative to their own section.
type Builder struct {
	Version int32

	static  bytes.Buffer
	dynamic bytes.Buffer
	fixups  []inev.Fixup
}

// Slot is a pointer field whose target is filled in later.
type Slot struct {
	b   *Builder
	idx int
}

// Put appends fixed-size values to the static section.
func (b *Builder) Put(values ...any) int {
	off := b.static.Len()
	for _, v := range values {
		if err := binary.Write(&b.static, binary.LittleEndian, v); err != nil {
			panic(err)
		}
	}
	return off
}

// PutDynamic appends fixed-size values to the dynamic section.
func (b *Builder) PutDynamic(values ...any) int {
	off := b.dynamic.Len()
	for _, v := range values {
		if err := binary.Write(&b.dynamic, binary.LittleEndian, v); err != nil {
			panic(err)
		}
	}
	return off
}

// Pad appends n zero bytes to the static section.
func (b *Builder) Pad(n int) { b.static.Write(make([]byte, n)) }

// Align16 pads the static section to a 16-byte boundary.
func (b *Builder) Align16() {
	if r := b.static.Len() % 16; r != 0 {
		b.Pad(16 - r)
	}
}

// StaticLen is the current static section length, excluding the fixup table.
func (b *Builder) StaticLen() int { return b.static.Len() }

// Pointer writes a 4-byte pointer field and registers a fixup for it.
func (b *Builder) Pointer(count int) *Slot {
	b.fixups = append(b.fixups, inev.Fixup{Offset: int32(b.static.Len()), Count: int32(count)})
	b.Pad(4)
	return &Slot{b: b, idx: len(b.fixups) - 1}
}

// Null writes a 4-byte pointer field with no fixup.
func (b *Builder) Null() { b.Pad(4) }

// Static points the slot at a static-section offset.
func (s *Slot) Static(off int) { s.set(inev.StaticData, off) }

// Dynamic points the slot at a dynamic-section offset.
func (s *Slot) Dynamic(off int) { s.set(inev.DynamicData, off) }

// Kind points the slot using an arbitrary kind value.
func (s *Slot) Kind(kind inev.FixupKind, off int) { s.set(kind, off) }

func (s *Slot) set(kind inev.FixupKind, off int) {
	s.b.fixups[s.idx].Kind = kind
	s.b.fixups[s.idx].Target = int32(off)
}

// Bytes assembles header, static section, fixup table and dynamic section.
func (b *Builder) Bytes() []byte {
	var out bytes.Buffer
	staticSize := b.static.Len() + 16*len(b.fixups)
	hdr := inev.Header{
		Signature:   inev.Signature,
		Version:     b.Version,
		StaticSize:  int32(staticSize),
		TableCount:  int32(len(b.fixups)),
		DynamicSize: int32(b.dynamic.Len()),
	}
	binary.Write(&out, binary.LittleEndian, hdr)
	out.Write(b.static.Bytes())
	for _, f := range b.fixups {
		binary.Write(&out, binary.LittleEndian, [4]uint32{uint32(f.Offset), uint32(f.Count), uint32(f.Target), uint32(f.Kind)})
	}
	out.Write(b.dynamic.Bytes())
	return out.Bytes()
}
