// Package hdrcounts implements the counter array behind an HDR histogram
// and its transcoding to and from a big endian byte buffer.
package hdrcounts

import (
	"log"
	"sync"

	"github.com/pkg/errors"

	"github.com/Shells-com/hdrcounts/engine"
)

// footprintOverhead is the fixed part of EstimatedFootprintBytes.
const footprintOverhead = 512

// Store is a fixed length array of counters plus a running total.
//
// The total is kept independently of the counters: IncrementAtIndex and
// AddToIndex never touch it, and callers pair them with IncrementTotalCount
// or AddToTotalCount (or a single SetTotalCount after a bulk fill). The
// Record* methods do both.
//
// Recording is not synchronized; a Store has a single writer. Only the
// transcode methods (WriteCountsInto, ReadCountsFrom) are serialized with
// each other, by an internal lock.
type Store[T Word] struct {
	Debug *log.Logger // Optional logger for debug information

	layout     *engine.Layout
	counts     []T
	totalCount int64
	word       wordCodec[T]

	lk  sync.Mutex  // transcode lock
	out outputCache // guarded by lk
}

// NewStore allocates a zeroed store sized for layout.
func NewStore[T Word](layout *engine.Layout) *Store[T] {
	return &Store[T]{
		layout: layout,
		counts: make([]T, layout.CountsLen()),
		word:   codecFor[T](),
	}
}

func NewByteStore(layout *engine.Layout) *Store[int8]   { return NewStore[int8](layout) }
func NewShortStore(layout *engine.Layout) *Store[int16] { return NewStore[int16](layout) }
func NewIntStore(layout *engine.Layout) *Store[int32]   { return NewStore[int32](layout) }
func NewLongStore(layout *engine.Layout) *Store[int64]  { return NewStore[int64](layout) }

func (s *Store[T]) Layout() *engine.Layout {
	return s.layout
}

func (s *Store[T]) WordSize() WordSize {
	return s.word.size
}

// Len is the layout's counts array length.
func (s *Store[T]) Len() int {
	return len(s.counts)
}

func (s *Store[T]) checkIndex(index int) error {
	if index < 0 || index >= len(s.counts) {
		return errors.Wrapf(ErrOutOfRange, "index %d, length %d", index, len(s.counts))
	}
	return nil
}

func (s *Store[T]) CountAtIndex(index int) (int64, error) {
	if err := s.checkIndex(index); err != nil {
		return 0, err
	}
	return int64(s.counts[index]), nil
}

// IncrementAtIndex adds one to the counter at index, wrapping at the word
// width. The total count is left alone.
func (s *Store[T]) IncrementAtIndex(index int) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.counts[index]++
	return nil
}

// AddToIndex adds value to the counter at index. value is truncated to the
// word width first, so merging a wide store into a narrow one wraps.
func (s *Store[T]) AddToIndex(index int, value int64) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.counts[index] += T(value)
	return nil
}

// Clear zeroes every counter and the total without reallocating.
func (s *Store[T]) Clear() {
	clear(s.counts)
	s.totalCount = 0
}

func (s *Store[T]) TotalCount() int64 {
	return s.totalCount
}

func (s *Store[T]) SetTotalCount(total int64) {
	s.totalCount = total
}

func (s *Store[T]) IncrementTotalCount() {
	s.totalCount++
}

func (s *Store[T]) AddToTotalCount(value int64) {
	s.totalCount += value
}

// EstimatedFootprintBytes is a capacity planning estimate, not allocator
// accounting.
func (s *Store[T]) EstimatedFootprintBytes() int {
	return footprintOverhead + int(s.word.size)*len(s.counts)
}

// lastNonZeroIndex returns -1 for an empty store.
func (s *Store[T]) lastNonZeroIndex() int {
	for i := len(s.counts) - 1; i >= 0; i-- {
		if s.counts[i] != 0 {
			return i
		}
	}
	return -1
}
