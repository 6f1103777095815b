// Package engine computes the logarithmic bucket layout shared by every
// counter store: how many counters a histogram needs and which counter a
// value lands in.
package engine

import (
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

var (
	ErrInvalidLayout   = errors.New("engine: invalid layout")
	ErrValueOutOfRange = errors.New("engine: value out of range")
)

// Config is the user facing triple a Layout is derived from.
type Config struct {
	LowestDiscernible  int64
	HighestTrackable   int64
	SignificantFigures int
}

func (c Config) Layout() (*Layout, error) {
	return New(c.LowestDiscernible, c.HighestTrackable, c.SignificantFigures)
}

// Layout maps values to counter indexes. It is immutable once built.
type Layout struct {
	lowestDiscernible  int64
	highestTrackable   int64
	significantFigures int

	unitMagnitude               int64
	subBucketHalfCountMagnitude int32
	subBucketHalfCount          int32
	subBucketMask               int64
	subBucketCount              int32
	bucketCount                 int32
	countsLen                   int32
}

// New builds a layout able to track values in [lowest, highest] with the
// given number of significant decimal digits.
func New(lowestDiscernible, highestTrackable int64, significantFigures int) (*Layout, error) {
	if lowestDiscernible < 1 {
		return nil, errors.Wrapf(ErrInvalidLayout, "lowest discernible value %d must be >= 1", lowestDiscernible)
	}
	if highestTrackable < 2*lowestDiscernible {
		return nil, errors.Wrapf(ErrInvalidLayout, "highest trackable value %d must be >= 2 * %d", highestTrackable, lowestDiscernible)
	}
	if significantFigures < 0 || significantFigures > 5 {
		return nil, errors.Wrapf(ErrInvalidLayout, "significant figures %d must be in [0,5]", significantFigures)
	}

	// unit resolution must hold up to 2 * 10^figures
	largestValueWithSingleUnitResolution := 2 * math.Pow10(significantFigures)
	subBucketCountMagnitude := int32(math.Ceil(math.Log2(largestValueWithSingleUnitResolution)))

	subBucketHalfCountMagnitude := subBucketCountMagnitude
	if subBucketHalfCountMagnitude < 1 {
		subBucketHalfCountMagnitude = 1
	}
	subBucketHalfCountMagnitude--

	unitMagnitude := int64(bits.Len64(uint64(lowestDiscernible)) - 1)

	subBucketCount := int32(1) << uint(subBucketHalfCountMagnitude+1)
	subBucketHalfCount := subBucketCount / 2
	subBucketMask := int64(subBucketCount-1) << uint(unitMagnitude)

	smallestUntrackableValue := int64(subBucketCount) << uint(unitMagnitude)
	bucketCount := bucketsNeededToCoverValue(smallestUntrackableValue, highestTrackable)

	return &Layout{
		lowestDiscernible:           lowestDiscernible,
		highestTrackable:            highestTrackable,
		significantFigures:          significantFigures,
		unitMagnitude:               unitMagnitude,
		subBucketHalfCountMagnitude: subBucketHalfCountMagnitude,
		subBucketHalfCount:          subBucketHalfCount,
		subBucketMask:               subBucketMask,
		subBucketCount:              subBucketCount,
		bucketCount:                 bucketCount,
		countsLen:                   (bucketCount + 1) * (subBucketCount / 2),
	}, nil
}

func bucketsNeededToCoverValue(smallestUntrackableValue, maxValue int64) int32 {
	bucketsNeeded := int32(1)
	for smallestUntrackableValue <= maxValue {
		if smallestUntrackableValue > math.MaxInt64/2 {
			// the next shift overflows, this is the last bucket
			return bucketsNeeded + 1
		}
		smallestUntrackableValue <<= 1
		bucketsNeeded++
	}
	return bucketsNeeded
}

func (l *Layout) LowestDiscernibleValue() int64 { return l.lowestDiscernible }
func (l *Layout) HighestTrackableValue() int64  { return l.highestTrackable }
func (l *Layout) SignificantFigures() int       { return l.significantFigures }

// CountsLen is the number of counters a store backing this layout holds.
func (l *Layout) CountsLen() int {
	return int(l.countsLen)
}

// IndexFor returns the counter index recording v.
func (l *Layout) IndexFor(v int64) (int, error) {
	if v < 0 {
		return 0, errors.Wrapf(ErrValueOutOfRange, "negative value %d", v)
	}
	idx := l.countsIndexFor(v)
	if idx < 0 || idx >= int(l.countsLen) {
		return 0, errors.Wrapf(ErrValueOutOfRange, "value %d exceeds highest trackable %d", v, l.highestTrackable)
	}
	return idx, nil
}

func (l *Layout) countsIndexFor(v int64) int {
	bucketIdx := l.bucketIndex(v)
	subBucketIdx := l.subBucketIndex(v, bucketIdx)
	return l.countsIndex(bucketIdx, subBucketIdx)
}

func (l *Layout) bucketIndex(v int64) int32 {
	pow2Ceiling := int32(bits.Len64(uint64(v | l.subBucketMask)))
	return pow2Ceiling - int32(l.unitMagnitude) - (l.subBucketHalfCountMagnitude + 1)
}

func (l *Layout) subBucketIndex(v int64, bucketIdx int32) int32 {
	return int32(v >> uint(int64(bucketIdx)+l.unitMagnitude))
}

func (l *Layout) countsIndex(bucketIdx, subBucketIdx int32) int {
	bucketBaseIdx := (bucketIdx + 1) << uint(l.subBucketHalfCountMagnitude)
	return int(bucketBaseIdx + subBucketIdx - l.subBucketHalfCount)
}

func (l *Layout) valueFromBucket(bucketIdx, subBucketIdx int32) int64 {
	return int64(subBucketIdx) << uint(int64(bucketIdx)+l.unitMagnitude)
}

// ValueFromIndex returns the lowest value recorded at counter index i.
func (l *Layout) ValueFromIndex(i int) int64 {
	bucketIdx := int32(i>>uint(l.subBucketHalfCountMagnitude)) - 1
	subBucketIdx := int32(i)&(l.subBucketHalfCount-1) + l.subBucketHalfCount
	if bucketIdx < 0 {
		subBucketIdx -= l.subBucketHalfCount
		bucketIdx = 0
	}
	return l.valueFromBucket(bucketIdx, subBucketIdx)
}

// SizeOfEquivalentValueRange is the width of the value range sharing v's counter.
func (l *Layout) SizeOfEquivalentValueRange(v int64) int64 {
	bucketIdx := l.bucketIndex(v)
	subBucketIdx := l.subBucketIndex(v, bucketIdx)
	adjusted := bucketIdx
	if subBucketIdx >= l.subBucketCount {
		adjusted++
	}
	return int64(1) << uint(l.unitMagnitude+int64(adjusted))
}

func (l *Layout) LowestEquivalentValue(v int64) int64 {
	bucketIdx := l.bucketIndex(v)
	subBucketIdx := l.subBucketIndex(v, bucketIdx)
	return l.valueFromBucket(bucketIdx, subBucketIdx)
}

func (l *Layout) HighestEquivalentValue(v int64) int64 {
	return l.LowestEquivalentValue(v) + l.SizeOfEquivalentValueRange(v) - 1
}

// Equal reports whether both layouts were built from the same parameters.
func (l *Layout) Equal(o *Layout) bool {
	if l == o {
		return true
	}
	if o == nil {
		return false
	}
	return l.lowestDiscernible == o.lowestDiscernible &&
		l.highestTrackable == o.highestTrackable &&
		l.significantFigures == o.significantFigures
}

// SameBuckets reports whether a counter index means the same value range in
// both layouts, which allows index to index merges.
func (l *Layout) SameBuckets(o *Layout) bool {
	return l.unitMagnitude == o.unitMagnitude &&
		l.subBucketHalfCountMagnitude == o.subBucketHalfCountMagnitude
}

// Covers reports whether every value trackable by o is trackable by l.
func (l *Layout) Covers(o *Layout) bool {
	return l.highestTrackable >= o.highestTrackable
}
