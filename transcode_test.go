package hdrcounts

import (
	"bytes"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shells-com/hdrcounts/engine"
)

// smallLayout has a counts array of exactly 4 entries.
func smallLayout(t *testing.T) *engine.Layout {
	l, err := engine.New(1, 4, 0)
	require.NoError(t, err)
	require.Equal(t, 4, l.CountsLen())
	return l
}

func TestTranscodeScenario(t *testing.T) {
	l := smallLayout(t)
	s := NewIntStore(l)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.IncrementAtIndex(2))
	}
	require.NoError(t, s.IncrementAtIndex(0))
	s.SetTotalCount(4)

	buf := NewBuffer(16)
	require.NoError(t, s.WriteCountsInto(buf, 4))
	assert.Equal(t, []byte{0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 3, 0, 0, 0, 0}, buf.Bytes(), "big endian int32 words")
	assert.Equal(t, 0, buf.Pos(), "cursor is not moved")

	d := NewIntStore(l)
	require.NoError(t, d.ReadCountsFrom(buf, 4))
	assert.EqualValues(t, 0, d.TotalCount(), "read does not set the total")
	d.SetTotalCount(4)

	for i, want := range []int64{1, 0, 3, 0} {
		c, err := d.CountAtIndex(i)
		require.NoError(t, err)
		assert.Equal(t, want, c, "count at %d", i)
	}
	assert.True(t, Equal(s, d))
}

func TestTranscodeRoundTripWidths(t *testing.T) {
	l := testLayout(t)
	values := []int64{1, 2, 3, 500, 2047, 2048, 100000, 123456789}

	tst := []struct {
		src, dst Counts
	}{
		{NewByteStore(l), NewByteStore(l)},
		{NewShortStore(l), NewShortStore(l)},
		{NewIntStore(l), NewIntStore(l)},
		{NewLongStore(l), NewLongStore(l)},
	}

	for _, x := range tst {
		for n, v := range values {
			require.NoError(t, x.src.RecordValueWithCount(v, int64(n+1)))
		}
		require.NoError(t, x.src.AddToIndex(5, -3))

		size := int(x.src.WordSize())
		buf := NewBuffer(8 + size*x.src.Len())
		require.NoError(t, buf.SetPos(8))

		require.NoError(t, x.src.WriteCountsInto(buf, x.src.Len()))
		require.NoError(t, x.dst.ReadCountsFrom(buf, x.dst.Len()))
		x.dst.SetTotalCount(x.src.TotalCount())

		assert.True(t, Equal(x.src, x.dst), "%s round trip", x.src.WordSize())
		assert.Equal(t, make([]byte, 8), buf.Bytes()[:8], "%s bytes before the cursor untouched", x.src.WordSize())
	}
}

func TestTranscodePartial(t *testing.T) {
	l := smallLayout(t)
	s := NewIntStore(l)
	for i := 0; i < 4; i++ {
		require.NoError(t, s.AddToIndex(i, int64(10+i)))
	}

	buf := NewBuffer(8)
	require.NoError(t, s.WriteCountsInto(buf, 2))

	d := NewIntStore(l)
	require.NoError(t, d.AddToIndex(3, 99))
	require.NoError(t, d.ReadCountsFrom(buf, 2))

	for i, want := range []int64{10, 11, 0, 99} {
		c, _ := d.CountAtIndex(i)
		assert.Equal(t, want, c, "count at %d", i)
	}
}

func TestReadTruncated(t *testing.T) {
	l := smallLayout(t)
	d := NewIntStore(l)
	for i := 0; i < 4; i++ {
		require.NoError(t, d.AddToIndex(i, 7))
	}

	// three elements and a stray byte
	buf := WrapBuffer([]byte{0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3, 0})
	err := d.ReadCountsFrom(buf, 4)
	assert.ErrorIs(t, err, ErrTruncatedBuffer)

	for i := 0; i < 4; i++ {
		c, _ := d.CountAtIndex(i)
		assert.EqualValues(t, 7, c, "store left unmodified at %d", i)
	}
	assert.Equal(t, 0, buf.Pos())
}

func TestTranscodeBadCounts(t *testing.T) {
	s := NewIntStore(smallLayout(t))
	buf := NewBuffer(64)

	assert.ErrorIs(t, s.WriteCountsInto(buf, 5), ErrOutOfRange)
	assert.ErrorIs(t, s.WriteCountsInto(buf, -1), ErrOutOfRange)
	assert.ErrorIs(t, s.ReadCountsFrom(buf, 5), ErrOutOfRange)

	assert.ErrorIs(t, s.WriteCountsInto(NewBuffer(15), 4), ErrBufferOverflow)
}

func TestOutputCache(t *testing.T) {
	var logs bytes.Buffer
	s := NewIntStore(smallLayout(t))
	s.Debug = log.New(&logs, "", 0)
	require.NoError(t, s.AddToIndex(1, 42))

	buf := NewBuffer(32)
	require.NoError(t, buf.SetPos(4))

	require.NoError(t, s.WriteCountsInto(buf, 4))
	view := s.out.view
	assert.True(t, s.out.valid(buf))

	require.NoError(t, s.AddToIndex(3, 5))
	require.NoError(t, s.WriteCountsInto(buf, 4))
	assert.Same(t, &view[0], &s.out.view[0], "same buffer and cursor reuse the view")
	assert.Equal(t, 1, bytes.Count(logs.Bytes(), []byte("rebuilt")))
	warm := append([]byte(nil), buf.Bytes()...)

	// cold write of the same state into a fresh buffer
	s.dropOutputCache()
	cold := NewBuffer(32)
	require.NoError(t, cold.SetPos(4))
	require.NoError(t, s.WriteCountsInto(cold, 4))
	assert.Equal(t, warm, cold.Bytes(), "cached and cold output match")

	// moving the cursor invalidates
	require.NoError(t, cold.SetPos(8))
	assert.False(t, s.out.valid(cold))
	require.NoError(t, s.WriteCountsInto(cold, 4))
	assert.Equal(t, 8, s.out.pos)

	// another buffer invalidates
	other := NewBuffer(32)
	require.NoError(t, other.SetPos(8))
	assert.False(t, s.out.valid(other))
	require.NoError(t, s.WriteCountsInto(other, 4))
	assert.Same(t, other, s.out.buf)
	assert.Equal(t, cold.Bytes()[8:24], other.Bytes()[8:24])
}

func TestTranscodeConcurrent(t *testing.T) {
	s := NewIntStore(testLayout(t))
	require.NoError(t, s.RecordValueWithCount(1234, 9))

	want := NewBuffer(4 * s.Len())
	require.NoError(t, s.WriteCountsInto(want, s.Len()))

	bufs := make([]*Buffer, 8)
	var wg sync.WaitGroup
	for n := range bufs {
		bufs[n] = NewBuffer(4 * s.Len())
		wg.Add(1)
		go func(b *Buffer) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				assert.NoError(t, s.WriteCountsInto(b, s.Len()))
			}
		}(bufs[n])
	}
	wg.Wait()

	for n, b := range bufs {
		assert.Equal(t, want.Bytes(), b.Bytes(), "buffer %d", n)
	}
}

func TestFillNames(t *testing.T) {
	s := NewLongStore(smallLayout(t))
	require.NoError(t, s.AddToIndex(3, -9))

	buf := NewBuffer(32)
	require.NoError(t, s.FillBufferFromCountsArray(buf, 4))

	d := NewLongStore(s.Layout())
	require.NoError(t, d.FillCountsArrayFromBuffer(buf, 4))
	c, _ := d.CountAtIndex(3)
	assert.EqualValues(t, -9, c)
}
