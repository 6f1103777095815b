package hdrcounts

import (
	"github.com/pkg/errors"

	"github.com/Shells-com/hdrcounts/engine"
)

const (
	encodingCookieBase int32 = 0x1c849308

	// cookie, significant figures, lowest, highest, total, element count
	encodingHeaderSize = 4 + 4 + 8 + 8 + 8 + 4
)

func encodingCookie(size WordSize) int32 {
	return encodingCookieBase + int32(size)<<4
}

// NeededBufferCapacity is the largest number of bytes Encode may write for c.
func NeededBufferCapacity(c Counts) int {
	return encodingHeaderSize + int(c.WordSize())*c.Len()
}

// Encode writes a header followed by the counters up to the last non zero
// one at buf's cursor, and advances the cursor past them. It returns the
// number of bytes written.
func Encode(c Counts, buf *Buffer) (int, error) {
	n := c.lastNonZeroIndex() + 1
	size := encodingHeaderSize + n*int(c.WordSize())
	if buf.Remaining() < size {
		return 0, errors.Wrapf(ErrBufferOverflow, "need %d bytes, have %d", size, buf.Remaining())
	}

	start := buf.Pos()
	l := c.Layout()

	buf.putInt32(encodingCookie(c.WordSize()))
	buf.putInt32(int32(l.SignificantFigures()))
	buf.putInt64(l.LowestDiscernibleValue())
	buf.putInt64(l.HighestTrackableValue())
	buf.putInt64(c.TotalCount())
	buf.putInt32(int32(n))

	if err := c.WriteCountsInto(buf, n); err != nil {
		buf.rewind(start)
		return 0, err
	}
	if err := buf.Skip(n * int(c.WordSize())); err != nil {
		return 0, err
	}
	return size, nil
}

// Decode reads a store previously written by Encode at buf's cursor. The
// word size comes from the header; the highest trackable value is raised to
// minBarForHighestTrackable if lower. On success the cursor is left after
// the counters.
func Decode(buf *Buffer, minBarForHighestTrackable int64) (Counts, error) {
	start := buf.Pos()
	c, err := decode(buf, minBarForHighestTrackable)
	if err != nil {
		buf.rewind(start)
		return nil, err
	}
	return c, nil
}

func decode(buf *Buffer, minBarForHighestTrackable int64) (Counts, error) {
	cookie, err := buf.Int32()
	if err != nil {
		return nil, err
	}
	if cookie&^0xf0 != encodingCookieBase {
		return nil, errors.Wrapf(ErrInvalidCookie, "cookie 0x%x", cookie)
	}
	size := WordSize((cookie & 0xf0) >> 4)
	if !size.Valid() {
		return nil, errors.Wrapf(ErrInvalidCookie, "word size %d", uint8(size))
	}

	figures, err := buf.Int32()
	if err != nil {
		return nil, err
	}
	lowest, err := buf.Int64()
	if err != nil {
		return nil, err
	}
	highest, err := buf.Int64()
	if err != nil {
		return nil, err
	}
	total, err := buf.Int64()
	if err != nil {
		return nil, err
	}
	n, err := buf.Int32()
	if err != nil {
		return nil, err
	}

	if highest < minBarForHighestTrackable {
		highest = minBarForHighestTrackable
	}
	layout, err := engine.New(lowest, highest, int(figures))
	if err != nil {
		return nil, errors.Wrapf(ErrIncompatibleConfiguration, "header: %s", err)
	}

	c, err := NewCounts(layout, size)
	if err != nil {
		return nil, err
	}
	if n < 0 || int(n) > c.Len() {
		return nil, errors.Wrapf(ErrIncompatibleConfiguration, "%d counters for a layout of %d", n, c.Len())
	}

	if err := c.ReadCountsFrom(buf, int(n)); err != nil {
		return nil, err
	}
	if err := buf.Skip(int(n) * int(size)); err != nil {
		return nil, err
	}
	c.SetTotalCount(total)
	return c, nil
}
