package binread

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"golang.org/x/text/encoding/charmap"
)

// ErrOutOfBounds is returned when a read would run past the end of the buffer.
var ErrOutOfBounds = errors.New("read out of bounds")

// Cursor reads little-endian values from a byte buffer.
// The buffer is borrowed, never copied. Alignment is computed relative to
// base so that cursors over a section of a larger file align the same way
// the section was written.
type Cursor struct {
	data  []byte
	pos   int
	base  int
	stack []int
}

// New returns a cursor at the start of data with a zero alignment base.
func New(data []byte) *Cursor {
	return &Cursor{data: data}
}

// NewAt returns a cursor positioned at pos whose alignment base is base.
func NewAt(data []byte, pos, base int) *Cursor {
	return &Cursor{data: data, pos: pos, base: base}
}

func (c *Cursor) Pos() int       { return c.pos }
func (c *Cursor) Base() int      { return c.base }
func (c *Cursor) Len() int       { return len(c.data) }
func (c *Cursor) Data() []byte   { return c.data }
func (c *Cursor) HasData() bool  { return c.pos < len(c.data) }
func (c *Cursor) Remaining() int { return len(c.data) - c.pos }

// Seek moves the cursor to an absolute position.
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > len(c.data) {
		return fmt.Errorf("%w: seek to %d (len %d)", ErrOutOfBounds, pos, len(c.data))
	}
	c.pos = pos
	return nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	return c.Seek(c.pos + n)
}

// Align16 rounds the cursor up to the next 16-byte boundary relative to base.
func (c *Cursor) Align16() {
	rel := c.pos - c.base
	c.pos = ((rel + 0x0f) &^ 0x0f) + c.base
}

// Push saves the current position and moves to pos.
func (c *Cursor) Push(pos int) {
	c.stack = append(c.stack, c.pos)
	c.pos = pos
}

// Pop restores the position saved by the matching Push.
// Popping an empty stack is a programming error and panics.
func (c *Cursor) Pop() {
	if len(c.stack) == 0 {
		panic("binread: pop on empty cursor stack")
	}
	c.pos = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// Depth returns the number of saved positions.
func (c *Cursor) Depth() int { return len(c.stack) }

// Jump runs fn with the cursor at pos and restores the previous position on
// every exit path, including errors and panics.
func (c *Cursor) Jump(pos int, fn func() error) error {
	if pos < 0 || pos > len(c.data) {
		return fmt.Errorf("%w: jump to %d (len %d)", ErrOutOfBounds, pos, len(c.data))
	}
	c.Push(pos)
	defer c.Pop()
	return fn()
}

func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.data) {
		return nil, fmt.Errorf("%w: read %d bytes at %d (len %d)", ErrOutOfBounds, n, c.pos, len(c.data))
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *Cursor) ReadI16() (int16, error) {
	v, err := c.ReadU16()
	return int16(v), err
}

func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *Cursor) ReadI32() (int32, error) {
	v, err := c.ReadU32()
	return int32(v), err
}

func (c *Cursor) ReadU64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *Cursor) ReadF32() (float32, error) {
	v, err := c.ReadU32()
	return math.Float32frombits(v), err
}

// ReadF32s reads n consecutive floats.
func (c *Cursor) ReadF32s(n int) ([]float32, error) {
	b, err := c.take(4 * n)
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

// ReadBytes returns a copy of the next n bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	b, err := c.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadCString reads bytes up to a zero byte and steps over the terminator.
// A string running to the end of the buffer without a terminator is accepted.
func (c *Cursor) ReadCString() string {
	start := c.pos
	for c.pos < len(c.data) && c.data[c.pos] != 0 {
		c.pos++
	}
	s := Latin1(c.data[start:c.pos])
	if c.pos < len(c.data) {
		c.pos++
	}
	return s
}

// CStringAt returns the zero-terminated string starting at off in data.
func CStringAt(data []byte, off int) (string, error) {
	if off < 0 || off >= len(data) {
		return "", fmt.Errorf("%w: string offset %d (len %d)", ErrOutOfBounds, off, len(data))
	}
	end := off
	for end < len(data) && data[end] != 0 {
		end++
	}
	return Latin1(data[off:end]), nil
}

// Latin1 decodes 8-bit characters one byte per rune.
func Latin1(b []byte) string {
	runes := make([]rune, len(b))
	for i, ch := range b {
		runes[i] = charmap.ISO8859_1.DecodeByte(ch)
	}
	return string(runes)
}
