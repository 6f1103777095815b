package hdrcounts

import "github.com/pkg/errors"

// outputCache remembers the view built for the last WriteCountsInto call.
// Repeated output of the same store into the same buffer at the same offset
// is the common case when reporting.
type outputCache struct {
	buf  *Buffer
	pos  int
	view []byte
}

func (c *outputCache) valid(buf *Buffer) bool {
	return c.view != nil && c.buf == buf && c.pos == buf.Pos()
}

func (c *outputCache) reset() {
	*c = outputCache{}
}

// WriteCountsInto writes the first n counters into buf starting at its
// cursor, big endian, one word each. The cursor is not moved.
func (s *Store[T]) WriteCountsInto(buf *Buffer, n int) error {
	s.lk.Lock()
	defer s.lk.Unlock()

	if n < 0 || n > len(s.counts) {
		return errors.Wrapf(ErrOutOfRange, "element count %d, length %d", n, len(s.counts))
	}

	if !s.out.valid(buf) {
		s.out = outputCache{buf: buf, pos: buf.Pos(), view: buf.window()}
		if l := s.Debug; l != nil {
			l.Printf("hdrcounts: output view rebuilt at position %d (%d bytes)", s.out.pos, len(s.out.view))
		}
	}

	size := int(s.word.size)
	view := s.out.view
	if len(view) < n*size {
		return errors.Wrapf(ErrBufferOverflow, "need %d bytes, have %d", n*size, len(view))
	}

	for i, c := range s.counts[:n] {
		s.word.put(view[i*size:], c)
	}
	return nil
}

// ReadCountsFrom replaces the first n counters with n words read from buf
// at its cursor. The total count and the cursor are not touched; callers
// call SetTotalCount once the decode is complete.
//
// If buf holds fewer than n words, nothing is read and the store is left
// unmodified.
func (s *Store[T]) ReadCountsFrom(buf *Buffer, n int) error {
	s.lk.Lock()
	defer s.lk.Unlock()

	if n < 0 || n > len(s.counts) {
		return errors.Wrapf(ErrOutOfRange, "element count %d, length %d", n, len(s.counts))
	}

	size := int(s.word.size)
	if avail := buf.Remaining() / size; avail < n {
		return errors.Wrapf(ErrTruncatedBuffer, "need %d elements, have %d", n, avail)
	}

	src := buf.window()
	for i := range s.counts[:n] {
		s.counts[i] = s.word.get(src[i*size:])
	}
	return nil
}

// FillBufferFromCountsArray is WriteCountsInto under the container codec's name.
func (s *Store[T]) FillBufferFromCountsArray(buf *Buffer, n int) error {
	return s.WriteCountsInto(buf, n)
}

// FillCountsArrayFromBuffer is ReadCountsFrom under the container codec's name.
func (s *Store[T]) FillCountsArrayFromBuffer(buf *Buffer, n int) error {
	return s.ReadCountsFrom(buf, n)
}

// dropOutputCache forgets the cached view; the next write rebuilds it.
func (s *Store[T]) dropOutputCache() {
	s.lk.Lock()
	s.out.reset()
	s.lk.Unlock()
}
