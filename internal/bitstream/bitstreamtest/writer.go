package bitstreamtest

import "math"

// Writer appends values most significant bit first.
type Writer struct {
	buf  []byte
	bits int
}

// WriteBits appends the low n bits of v.
func (w *Writer) WriteBits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		if w.bits%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v>>uint(i)&1 == 1 {
			w.buf[len(w.buf)-1] |= 0x80 >> uint(w.bits%8)
		}
		w.bits++
	}
}

func (w *Writer) WriteF32(f float32) { w.WriteBits(uint64(math.Float32bits(f)), 32) }

func (w *Writer) WriteBool(b bool) {
	if b {
		w.WriteBits(1, 1)
		return
	}
	w.WriteBits(0, 1)
}

// WriteString writes a length byte that counts the terminator, the
// characters, and a zero terminator.
func (w *Writer) WriteString(s string) {
	w.WriteBits(uint64(len(s)+1), 8)
	for i := 0; i < len(s); i++ {
		w.WriteBits(uint64(s[i]), 8)
	}
	w.WriteBits(0, 8)
}

// Bytes returns the packed stream, zero-padded to a whole byte.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bits written.
func (w *Writer) Len() int { return w.bits }
