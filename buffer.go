package hdrcounts

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Buffer is a fixed size byte region with a cursor. The backing slice is
// never replaced, so a *Buffer and a cursor position always name the same
// bytes.
type Buffer struct {
	data []byte
	pos  int
}

func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// WrapBuffer uses data as backing storage, with the cursor at 0.
func WrapBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

func (b *Buffer) Pos() int {
	return b.pos
}

func (b *Buffer) SetPos(pos int) error {
	if pos < 0 || pos > len(b.data) {
		return errors.Wrapf(ErrOutOfRange, "position %d outside buffer of %d bytes", pos, len(b.data))
	}
	b.pos = pos
	return nil
}

func (b *Buffer) Len() int {
	return len(b.data)
}

func (b *Buffer) Remaining() int {
	return len(b.data) - b.pos
}

// Bytes returns the whole backing slice regardless of the cursor.
func (b *Buffer) Bytes() []byte {
	return b.data
}

func (b *Buffer) Skip(n int) error {
	return b.SetPos(b.pos + n)
}

// window is the region from the cursor to the end of the buffer.
func (b *Buffer) window() []byte {
	return b.data[b.pos:]
}

func (b *Buffer) PutInt32(v int32) error {
	if b.Remaining() < 4 {
		return errors.Wrap(ErrBufferOverflow, "int32")
	}
	b.putInt32(v)
	return nil
}

func (b *Buffer) PutInt64(v int64) error {
	if b.Remaining() < 8 {
		return errors.Wrap(ErrBufferOverflow, "int64")
	}
	b.putInt64(v)
	return nil
}

// putInt32, putInt64 and rewind skip bounds checks; callers have already
// checked the space or are returning to a position they read from Pos.
func (b *Buffer) putInt32(v int32) {
	binary.BigEndian.PutUint32(b.data[b.pos:], uint32(v))
	b.pos += 4
}

func (b *Buffer) putInt64(v int64) {
	binary.BigEndian.PutUint64(b.data[b.pos:], uint64(v))
	b.pos += 8
}

func (b *Buffer) rewind(pos int) {
	b.pos = pos
}

func (b *Buffer) Int32() (int32, error) {
	if b.Remaining() < 4 {
		return 0, errors.Wrap(ErrTruncatedBuffer, "int32")
	}
	v := int32(binary.BigEndian.Uint32(b.data[b.pos:]))
	b.pos += 4
	return v, nil
}

func (b *Buffer) Int64() (int64, error) {
	if b.Remaining() < 8 {
		return 0, errors.Wrap(ErrTruncatedBuffer, "int64")
	}
	v := int64(binary.BigEndian.Uint64(b.data[b.pos:]))
	b.pos += 8
	return v, nil
}
