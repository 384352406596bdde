package query

import (
	"errors"

	"github.com/basekick-labs/sensorlog/internal/sensor"
)

// ErrEmptySeries indicates a lookup against a series with no readings.
// It is a normal empty result, not a failure.
var ErrEmptySeries = errors.New("series has no readings")

// Nearest returns the index of the reading in series whose timestamp is closest
// to target, together with the absolute distance in seconds. The distance is
// unsigned so any pair of int64 timestamps has an exact, non-negative distance.
//
// series must be sorted by timestamp in descending order. The search is a
// binary descent that remembers the closest point visited, returns at once on
// an exact match, and finally compares the best point with its immediate left
// and right neighbours.
//
// When several readings are equally close the one returned is unspecified: it
// is whichever the descent reached first, not necessarily the lowest or
// highest index. The same holds for clusters of duplicate timestamps.
func Nearest(series []sensor.Reading, target int64) (int, uint64, error) {
	n := len(series)
	if n == 0 {
		return -1, 0, ErrEmptySeries
	}

	best := 0
	bestDiff := absDiff(series[0].Timestamp, target)

	left, right := 0, n-1
	for left <= right {
		mid := left + (right-left)/2
		ts := series[mid].Timestamp

		if d := absDiff(ts, target); d < bestDiff {
			best, bestDiff = mid, d
		}

		switch {
		case ts > target:
			// Descending order: smaller timestamps lie to the right.
			left = mid + 1
		case ts < target:
			right = mid - 1
		default:
			return mid, 0, nil
		}
	}

	// The descent only scores points on its path; a target that falls between
	// two adjacent timestamps may have its nearest neighbour just off that path.
	candidate, candidateDiff := best, bestDiff
	if best > 0 {
		if d := absDiff(series[best-1].Timestamp, target); d < candidateDiff {
			candidate, candidateDiff = best-1, d
		}
	}
	if best < n-1 {
		if d := absDiff(series[best+1].Timestamp, target); d < candidateDiff {
			candidate, candidateDiff = best+1, d
		}
	}
	return candidate, candidateDiff, nil
}

// absDiff wraps in uint64, where the difference of two int64 values always fits
func absDiff(a, b int64) uint64 {
	if a > b {
		return uint64(a) - uint64(b)
	}
	return uint64(b) - uint64(a)
}
