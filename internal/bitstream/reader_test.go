package bitstream

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"a51-asset-decoder/internal/binread"
	"a51-asset-decoder/internal/bitstream/bitstreamtest"
)

func TestReadBits(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		bitpos int
		n      int
		want   uint64
	}{
		{"byte aligned", []byte{0b10101010}, 0, 8, 0b10101010},
		{"cross bytes", []byte{0b11110000, 0b00001111}, 0, 12, 0b111100000000},
		{"with offset", []byte{0b10101010, 0b11001100}, 4, 8, 0b10101100},
		{"multiple bytes", []byte{0x12, 0x34, 0x56, 0x78}, 0, 32, 0x12345678},
		{"not byte aligned", []byte{0b11110000, 0b10101010}, 3, 10, 0b1000010101},
		{"single bit", []byte{0b00100000}, 2, 1, 1},
		{"64 aligned", []byte{1, 2, 3, 4, 5, 6, 7, 8}, 0, 64, 0x0102030405060708},
		{"64 unaligned", []byte{0x0f, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xf0}, 4, 64, math.MaxUint64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.data, tt.bitpos)
			got, err := r.ReadBits(tt.n)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("ReadBits(%d) = %#b, want %#b", tt.n, got, tt.want)
			}
			if r.BitPos() != tt.bitpos+tt.n {
				t.Fatalf("bitpos = %d, want %d", r.BitPos(), tt.bitpos+tt.n)
			}
		})
	}
}

func TestReadBitsNibbles(t *testing.T) {
	r := New([]byte{0b11001100}, 0)
	for i := 0; i < 2; i++ {
		v, err := r.ReadBits(4)
		if err != nil || v != 0b1100 {
			t.Fatalf("nibble %d = %#b, %v", i, v, err)
		}
	}
}

func TestReadBitsAdvancesExactly(t *testing.T) {
	data := make([]byte, 32)
	for i := range data {
		data[i] = byte(i*37 + 11)
	}
	for start := 0; start < 8; start++ {
		for n := 1; n <= 64; n++ {
			for _, m := range []int{1, 7, 13, 64} {
				r := New(data, start)
				if _, err := r.ReadBits(n); err != nil {
					t.Fatal(err)
				}
				if _, err := r.ReadBits(m); err != nil {
					t.Fatal(err)
				}
				if r.BitPos() != start+n+m {
					t.Fatalf("start=%d n=%d m=%d: bitpos %d", start, n, m, r.BitPos())
				}
			}
		}
	}
}

func TestByteAlignedReadsReproduceBytes(t *testing.T) {
	data := []byte{0x00, 0x7f, 0x80, 0xff, 0x5c, 0x52}
	r := New(data, 0)
	for i, want := range data {
		got, err := r.ReadBits(8)
		if err != nil || byte(got) != want {
			t.Fatalf("byte %d = %#x, want %#x (%v)", i, got, want, err)
		}
	}
}

func TestReadBitsOutOfBounds(t *testing.T) {
	r := New([]byte{0xff}, 4)
	if _, err := r.ReadBits(5); !errors.Is(err, binread.ErrOutOfBounds) {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}
	if r.BitPos() != 4 {
		t.Fatalf("failed read moved bitpos to %d", r.BitPos())
	}
	if _, err := r.ReadBits(0); err == nil {
		t.Fatal("ReadBits(0) should fail")
	}
	if _, err := r.ReadBits(65); err == nil {
		t.Fatal("ReadBits(65) should fail")
	}
}

func TestTypedHelpers(t *testing.T) {
	data := binary.BigEndian.AppendUint32(nil, math.Float32bits(1))
	data = binary.BigEndian.AppendUint32(data, math.Float32bits(2))
	data = binary.BigEndian.AppendUint32(data, math.Float32bits(3))
	data = binary.BigEndian.AppendUint32(data, 0xdeadbeef)
	data = binary.BigEndian.AppendUint64(data, 0x0123456789abcdef)
	data = append(data, 0b10000000)

	r := New(data, 0)
	v, err := r.ReadVector3()
	if err != nil || v[0] != 1 || v[1] != 2 || v[2] != 3 {
		t.Fatalf("ReadVector3 = %v, %v", v, err)
	}
	c, err := r.ReadColor()
	if err != nil || c != 0xdeadbeef {
		t.Fatalf("ReadColor = %#x, %v", c, err)
	}
	g, err := r.ReadGUID()
	if err != nil || g != 0x0123456789abcdef {
		t.Fatalf("ReadGUID = %#x, %v", g, err)
	}
	b, err := r.ReadBool()
	if err != nil || !b {
		t.Fatalf("ReadBool = %v, %v", b, err)
	}

	r = New(data, 0)
	v2, err := r.ReadVector2()
	if err != nil || v2[0] != 1 || v2[1] != 2 {
		t.Fatalf("ReadVector2 = %v, %v", v2, err)
	}
}

func TestReadS32Negative(t *testing.T) {
	r := New([]byte{0xff, 0xff, 0xff, 0xfe}, 0)
	v, err := r.ReadS32()
	if err != nil || v != -2 {
		t.Fatalf("ReadS32 = %d, %v", v, err)
	}
}

func TestReadBoundingBox(t *testing.T) {
	var data []byte
	for _, f := range []float32{-1, -2, -3, 4, 5, 6} {
		data = binary.BigEndian.AppendUint32(data, math.Float32bits(f))
	}
	bb, err := New(data, 0).ReadBoundingBox()
	if err != nil {
		t.Fatal(err)
	}
	if bb.Min[2] != -3 || bb.Max[0] != 4 {
		t.Fatalf("bbox = %v", bb)
	}
}

func TestReadString(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"ascii", []byte{4, 'a', 'b', 'c', 0}, "abc"},
		{"ascii longer", []byte{5, 't', 'e', 's', 't', 0}, "test"},
		{"terminator only", []byte{1, 0}, ""},
		{"zero length", []byte{0}, ""},
		{"non ascii", []byte{3, 0xff, 0xfe, 0}, "ÿþ"},
		{"embedded zero dropped", []byte{4, 'a', 0, 'b', 0}, "ab"},
		{"non-zero last byte kept", []byte{2, 'a', 'b'}, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.data, 0)
			got, err := r.ReadString()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("ReadString = %q, want %q", got, tt.want)
			}
			if r.BitPos() != len(tt.data)*8 {
				t.Fatalf("bitpos = %d, want %d", r.BitPos(), len(tt.data)*8)
			}
		})
	}
}

func TestReadStringUnaligned(t *testing.T) {
	var w bitstreamtest.Writer
	w.WriteBits(0, 3)
	w.WriteString("hi")
	r := New(w.Bytes(), 3)
	got, err := r.ReadString()
	if err != nil || got != "hi" {
		t.Fatalf("ReadString = %q, %v", got, err)
	}
	if r.BitPos() != 3+32 {
		t.Fatalf("bitpos = %d, want 35", r.BitPos())
	}

	// Same stream packed by hand: 3 zero bits, length 3, 'h', 'i', 0.
	r = New([]byte{0x00, 0x6d, 0x0d, 0x20, 0x00}, 3)
	got, err = r.ReadString()
	if err != nil || got != "hi" || r.BitPos() != 35 {
		t.Fatalf("packed ReadString = %q, %v, bitpos %d", got, err, r.BitPos())
	}
}

func TestReadBitsStraddlingBytes(t *testing.T) {
	// 0x5c 0x52 = 01011100 01010010; bits 6..13 are 00010100.
	got, err := New([]byte{0x5c, 0x52}, 6).ReadBits(8)
	if err != nil || got != 0x14 {
		t.Fatalf("ReadBits(8) from bit 6 = %#x, %v, want 0x14", got, err)
	}
}

func TestReadStringTruncated(t *testing.T) {
	if _, err := New([]byte{4, 'a'}, 0).ReadString(); !errors.Is(err, binread.ErrOutOfBounds) {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}
}
