package hdrcounts

import (
	"github.com/pkg/errors"

	"github.com/Shells-com/hdrcounts/engine"
)

// Source is a read only view of a counter array. Every Store satisfies it,
// whatever its word size.
type Source interface {
	Layout() *engine.Layout
	Len() int
	CountAtIndex(index int) (int64, error)
	TotalCount() int64
}

// RecordValue counts one occurrence of v.
func (s *Store[T]) RecordValue(v int64) error {
	return s.RecordValueWithCount(v, 1)
}

// RecordValueWithCount counts n occurrences of v, updating the total.
func (s *Store[T]) RecordValueWithCount(v, n int64) error {
	idx, err := s.layout.IndexFor(v)
	if err != nil {
		return errors.Wrapf(ErrOutOfRange, "value %d: %s", v, err)
	}
	s.counts[idx] += T(n)
	s.totalCount += n
	return nil
}

// RecordCorrectedValue records v and, when v exceeds expectedInterval, the
// samples a stalled producer would have recorded at that interval:
// v-interval, v-2*interval, ... down to interval.
func (s *Store[T]) RecordCorrectedValue(v, expectedInterval int64) error {
	return s.RecordCorrectedValueWithCount(v, 1, expectedInterval)
}

func (s *Store[T]) RecordCorrectedValueWithCount(v, n, expectedInterval int64) error {
	if err := s.RecordValueWithCount(v, n); err != nil {
		return err
	}
	if expectedInterval <= 0 || v <= expectedInterval {
		return nil
	}
	for missing := v - expectedInterval; missing >= expectedInterval; missing -= expectedInterval {
		if err := s.RecordValueWithCount(missing, n); err != nil {
			return err
		}
	}
	return nil
}

// CheckCompatible fails when values tracked by src cannot all be recorded
// into s.
func (s *Store[T]) CheckCompatible(src Source) error {
	if !s.layout.Covers(src.Layout()) {
		return errors.Wrapf(ErrIncompatibleConfiguration, "highest trackable value %d < %d",
			s.layout.HighestTrackableValue(), src.Layout().HighestTrackableValue())
	}
	return nil
}

// Add merges every non zero counter of src into s. Stores sharing a bucket
// layout are merged index to index and take src's total as is; otherwise
// each counter is re-recorded at the lowest value of its range.
func (s *Store[T]) Add(src Source) error {
	if err := s.CheckCompatible(src); err != nil {
		return err
	}
	srcLayout := src.Layout()
	direct := s.layout.SameBuckets(srcLayout)

	for i := 0; i < src.Len(); i++ {
		c, err := src.CountAtIndex(i)
		if err != nil {
			return err
		}
		if c == 0 {
			continue
		}
		if direct {
			if err := s.AddToIndex(i, c); err != nil {
				return errors.Wrapf(ErrIncompatibleConfiguration, "index %d: %s", i, err)
			}
			continue
		}
		if err := s.RecordValueWithCount(srcLayout.ValueFromIndex(i), c); err != nil {
			return errors.Wrapf(ErrIncompatibleConfiguration, "index %d: %s", i, err)
		}
	}
	if direct {
		s.AddToTotalCount(src.TotalCount())
	}
	return nil
}

// addCounts merges a store of the same layout and word index to index.
func (s *Store[T]) addCounts(src *Store[T]) {
	for i, c := range src.counts {
		if c != 0 {
			s.counts[i] += c
		}
	}
	s.totalCount += src.totalCount
}

// AddCorrected merges src into s while backfilling coordinated omission:
// each counter is recorded at the highest value of its range with
// RecordCorrectedValueWithCount.
func (s *Store[T]) AddCorrected(src Source, expectedInterval int64) error {
	if err := s.CheckCompatible(src); err != nil {
		return err
	}
	srcLayout := src.Layout()

	for i := 0; i < src.Len(); i++ {
		c, err := src.CountAtIndex(i)
		if err != nil {
			return err
		}
		if c == 0 {
			continue
		}
		v := srcLayout.HighestEquivalentValue(srcLayout.ValueFromIndex(i))
		if err := s.RecordCorrectedValueWithCount(v, c, expectedInterval); err != nil {
			return errors.Wrapf(ErrIncompatibleConfiguration, "index %d: %s", i, err)
		}
	}
	return nil
}

// Copy returns an independent store with the same layout and counts.
func (s *Store[T]) Copy() *Store[T] {
	cp := NewStore[T](s.layout)
	cp.Debug = s.Debug
	cp.addCounts(s)
	return cp
}

// CopyCorrected returns a new store holding s corrected for coordinated
// omission at expectedInterval.
func (s *Store[T]) CopyCorrected(expectedInterval int64) (*Store[T], error) {
	cp := NewStore[T](s.layout)
	cp.Debug = s.Debug
	if err := cp.AddCorrected(s, expectedInterval); err != nil {
		return nil, err
	}
	return cp, nil
}

// Equal reports whether a and b have equal layouts, totals and counters.
func Equal(a, b Source) bool {
	if !a.Layout().Equal(b.Layout()) || a.TotalCount() != b.TotalCount() || a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		ca, _ := a.CountAtIndex(i)
		cb, _ := b.CountAtIndex(i)
		if ca != cb {
			return false
		}
	}
	return true
}
