package hdrcounts

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// Word is the integer type of a single counter. Arithmetic on counters
// wraps at the word width.
type Word interface {
	int8 | int16 | int32 | int64
}

// WordSize is the width of a counter in bytes, as carried on the wire.
type WordSize uint8

const (
	WordSize8  WordSize = 1
	WordSize16 WordSize = 2
	WordSize32 WordSize = 4
	WordSize64 WordSize = 8
)

func (w WordSize) Valid() bool {
	switch w {
	case WordSize8, WordSize16, WordSize32, WordSize64:
		return true
	default:
		return false
	}
}

func (w WordSize) Bits() int {
	return int(w) * 8
}

func (w WordSize) String() string {
	switch w {
	case WordSize8:
		return "Byte"
	case WordSize16:
		return "Short"
	case WordSize32:
		return "Int"
	case WordSize64:
		return "Long"
	default:
		return fmt.Sprintf("WordSize(%d)", uint8(w))
	}
}

// wordCodec reads and writes one counter in big endian order.
type wordCodec[T Word] struct {
	size WordSize
	put  func(b []byte, v T)
	get  func(b []byte) T
}

func codecFor[T Word]() wordCodec[T] {
	var zero T
	be := binary.BigEndian

	switch WordSize(unsafe.Sizeof(zero)) {
	case WordSize8:
		return wordCodec[T]{
			size: WordSize8,
			put:  func(b []byte, v T) { b[0] = byte(v) },
			get:  func(b []byte) T { return T(int8(b[0])) },
		}
	case WordSize16:
		return wordCodec[T]{
			size: WordSize16,
			put:  func(b []byte, v T) { be.PutUint16(b, uint16(v)) },
			get:  func(b []byte) T { return T(int16(be.Uint16(b))) },
		}
	case WordSize32:
		return wordCodec[T]{
			size: WordSize32,
			put:  func(b []byte, v T) { be.PutUint32(b, uint32(v)) },
			get:  func(b []byte) T { return T(int32(be.Uint32(b))) },
		}
	default:
		return wordCodec[T]{
			size: WordSize64,
			put:  func(b []byte, v T) { be.PutUint64(b, uint64(v)) },
			get:  func(b []byte) T { return T(int64(be.Uint64(b))) },
		}
	}
}
