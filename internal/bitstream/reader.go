package bitstream

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/text/encoding/charmap"

	"a51-asset-decoder/internal/binread"
	"a51-asset-decoder/internal/mathutil"
)

// Reader reads MSB-first packed values at arbitrary bit offsets.
//
// A read of n bits starting at bit position p spans the bytes
// p/8 .. (p+n-1)/8. The first p%8 bits of the first byte are dropped and the
// spanned bytes are concatenated big-endian before the trailing bits beyond n
// are shifted out.
type Reader struct {
	data   []byte
	bitpos int
}

// New returns a reader over data starting at bit position bitpos.
func New(data []byte, bitpos int) *Reader {
	return &Reader{data: data, bitpos: bitpos}
}

// BitPos returns the absolute bit offset from the start of the buffer.
func (r *Reader) BitPos() int { return r.bitpos }

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int { return len(r.data)*8 - r.bitpos }

// ReadBits reads n bits, 1 <= n <= 64.
func (r *Reader) ReadBits(n int) (uint64, error) {
	if n < 1 || n > 64 {
		return 0, fmt.Errorf("bitstream: invalid read width %d", n)
	}
	if n > r.Remaining() {
		return 0, fmt.Errorf("%w: read %d bits at bit %d (%d bits)", binread.ErrOutOfBounds, n, r.bitpos, len(r.data)*8)
	}

	var v uint64
	pos := r.bitpos
	for left := n; left > 0; {
		lead := pos & 7
		avail := 8 - lead
		take := min(avail, left)
		b := uint64(r.data[pos>>3]) >> (avail - take)
		v = v<<take | b&(1<<take-1)
		pos += take
		left -= take
	}
	r.bitpos = pos
	return v, nil
}

func (r *Reader) ReadU32() (uint32, error) {
	v, err := r.ReadBits(32)
	return uint32(v), err
}

func (r *Reader) ReadS32() (int32, error) {
	v, err := r.ReadBits(32)
	return int32(uint32(v)), err
}

func (r *Reader) ReadU64() (uint64, error) {
	return r.ReadBits(64)
}

// ReadF32 reinterprets 32 raw bits as an IEEE-754 float.
func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadBits(32)
	return math.Float32frombits(uint32(v)), err
}

func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadBits(1)
	return v == 1, err
}

func (r *Reader) ReadVector2() (mgl32.Vec2, error) {
	var v mgl32.Vec2
	for i := range v {
		f, err := r.ReadF32()
		if err != nil {
			return mgl32.Vec2{}, err
		}
		v[i] = f
	}
	return v, nil
}

func (r *Reader) ReadVector3() (mgl32.Vec3, error) {
	var v mgl32.Vec3
	for i := range v {
		f, err := r.ReadF32()
		if err != nil {
			return mgl32.Vec3{}, err
		}
		v[i] = f
	}
	return v, nil
}

// ReadBoundingBox reads six floats: min xyz then max xyz.
func (r *Reader) ReadBoundingBox() (mathutil.BBox, error) {
	lo, err := r.ReadVector3()
	if err != nil {
		return mathutil.BBox{}, err
	}
	hi, err := r.ReadVector3()
	if err != nil {
		return mathutil.BBox{}, err
	}
	return mathutil.BBox{Min: lo, Max: hi}, nil
}

// ReadColor returns the packed 32-bit color untouched.
func (r *Reader) ReadColor() (uint32, error) {
	return r.ReadU32()
}

func (r *Reader) ReadGUID() (uint64, error) {
	return r.ReadBits(64)
}

// ReadString reads an 8-bit length followed by that many characters through
// the same bit window. The length counts the terminator. Zero characters are
// consumed but not added to the result.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadBits(8)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for ; n > 0; n-- {
		c, err := r.ReadBits(8)
		if err != nil {
			return "", err
		}
		if c != 0 {
			sb.WriteRune(charmap.ISO8859_1.DecodeByte(byte(c)))
		}
	}
	return sb.String(), nil
}
