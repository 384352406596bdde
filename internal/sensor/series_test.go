package sensor

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeries_GrowsByDoubling(t *testing.T) {
	s := NewSeries(0)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, InitialCapacity, s.Cap())

	for i := 0; i < InitialCapacity; i++ {
		require.NoError(t, s.Append(Reading{Timestamp: int64(i)}))
	}
	assert.Equal(t, InitialCapacity, s.Cap())

	require.NoError(t, s.Append(Reading{Timestamp: 1000}))
	assert.Equal(t, 2*InitialCapacity, s.Cap())

	for i := 0; i < 2*InitialCapacity; i++ {
		require.NoError(t, s.Append(Reading{Timestamp: int64(i)}))
	}
	assert.Equal(t, 4*InitialCapacity, s.Cap())
	assert.GreaterOrEqual(t, s.Cap(), s.Len())
	assert.Equal(t, int64(1000), s.At(InitialCapacity).Timestamp)
}

func TestSeries_GrowthLimit(t *testing.T) {
	s := NewSeries(150)
	for i := 0; i < InitialCapacity; i++ {
		require.NoError(t, s.Append(Reading{Timestamp: int64(i)}))
	}

	err := s.Append(Reading{Timestamp: 1})
	assert.ErrorIs(t, err, ErrAllocationFailure)
	assert.Equal(t, InitialCapacity, s.Len())
	assert.Equal(t, InitialCapacity, s.Cap())
}

func TestSeries_SortDescending(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	s := NewSeries(0)
	for i := 0; i < 500; i++ {
		ts := MinTimestamp + rng.Int64N(1000)
		require.NoError(t, s.Append(Reading{Timestamp: ts, Value: IntegerValue(int64(i))}))
	}

	s.SortDescending()
	assert.True(t, s.IsDescending())
	assert.Equal(t, 500, s.Len())

	r := s.Readings()
	for i := 1; i < len(r); i++ {
		assert.GreaterOrEqual(t, r[i-1].Timestamp, r[i].Timestamp)
	}
}

func TestSeries_Release(t *testing.T) {
	s := NewSeries(0)
	require.NoError(t, s.Append(Reading{Timestamp: 1}))
	s.Release()
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Readings())
}
