package sensor

import (
	"cmp"
	"fmt"
	"slices"
)

// InitialCapacity is the reading buffer capacity of a newly created sensor.
const InitialCapacity = 100

// Reading is one timestamped observation. Timestamp is in epoch seconds.
type Reading struct {
	Timestamp int64
	Value     Value
}

// Series is a growable ordered buffer of readings.
// Capacity doubles when the buffer is full and never shrinks.
type Series struct {
	readings    []Reading
	maxCapacity int // 0 = unbounded
}

// NewSeries creates an empty series with InitialCapacity slots.
// A positive maxCapacity caps how far the buffer may grow.
func NewSeries(maxCapacity int) *Series {
	return &Series{
		readings:    make([]Reading, 0, InitialCapacity),
		maxCapacity: maxCapacity,
	}
}

// SeriesOf wraps readings loaded from an artifact. The slice is not copied.
func SeriesOf(readings []Reading) *Series {
	return &Series{readings: readings}
}

// Append adds r at the end, doubling the capacity first if the buffer is full.
func (s *Series) Append(r Reading) error {
	if len(s.readings) == cap(s.readings) {
		if err := s.grow(); err != nil {
			return err
		}
	}
	s.readings = append(s.readings, r)
	return nil
}

func (s *Series) grow() error {
	newCap := cap(s.readings) * 2
	if newCap == 0 {
		newCap = InitialCapacity
	}
	if s.maxCapacity > 0 && newCap > s.maxCapacity {
		return fmt.Errorf("%w: capacity %d would exceed limit %d", ErrAllocationFailure, newCap, s.maxCapacity)
	}
	grown := make([]Reading, len(s.readings), newCap)
	copy(grown, s.readings)
	s.readings = grown
	return nil
}

// Len returns the number of readings.
func (s *Series) Len() int { return len(s.readings) }

// Cap returns the current buffer capacity.
func (s *Series) Cap() int { return cap(s.readings) }

// Readings returns the underlying slice. Callers must not modify it.
func (s *Series) Readings() []Reading { return s.readings }

// At returns the reading at index i.
func (s *Series) At(i int) Reading { return s.readings[i] }

// SortDescending orders readings by timestamp, most recent first.
// The value is not a tie-break key; readings with equal timestamps end up in
// unspecified relative order.
func (s *Series) SortDescending() {
	slices.SortFunc(s.readings, func(a, b Reading) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
}

// IsDescending reports whether timestamps are non-increasing.
func (s *Series) IsDescending() bool {
	for i := 1; i < len(s.readings); i++ {
		if s.readings[i-1].Timestamp < s.readings[i].Timestamp {
			return false
		}
	}
	return true
}

// Release drops the buffer once the series has been persisted.
func (s *Series) Release() {
	s.readings = nil
}
