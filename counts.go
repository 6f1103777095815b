package hdrcounts

import (
	"github.com/pkg/errors"

	"github.com/Shells-com/hdrcounts/engine"
)

// Counts is the width independent surface of a Store, used where the word
// size is only known at runtime (for instance from a container header).
type Counts interface {
	Source

	WordSize() WordSize
	IncrementAtIndex(index int) error
	AddToIndex(index int, value int64) error
	Clear()
	SetTotalCount(total int64)
	IncrementTotalCount()
	AddToTotalCount(value int64)
	EstimatedFootprintBytes() int

	RecordValue(v int64) error
	RecordValueWithCount(v, n int64) error
	RecordCorrectedValue(v, expectedInterval int64) error
	Add(src Source) error
	AddCorrected(src Source, expectedInterval int64) error

	WriteCountsInto(buf *Buffer, n int) error
	ReadCountsFrom(buf *Buffer, n int) error

	lastNonZeroIndex() int
}

var (
	_ Counts = (*Store[int8])(nil)
	_ Counts = (*Store[int16])(nil)
	_ Counts = (*Store[int32])(nil)
	_ Counts = (*Store[int64])(nil)
)

// NewCounts instantiates the store variant for the given word size.
func NewCounts(layout *engine.Layout, size WordSize) (Counts, error) {
	switch size {
	case WordSize8:
		return NewByteStore(layout), nil
	case WordSize16:
		return NewShortStore(layout), nil
	case WordSize32:
		return NewIntStore(layout), nil
	case WordSize64:
		return NewLongStore(layout), nil
	default:
		return nil, errors.Wrapf(ErrIncompatibleConfiguration, "unsupported word size %d", uint8(size))
	}
}
