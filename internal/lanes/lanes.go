// Package lanes assigns intervals to non-overlapping horizontal tracks.
//
// Intervals are processed in a fixed order (start ascending, then effective end descending,
// then ID) and each one takes the first lane, in creation order, that is free by the time it
// starts. The exact lane an interval lands in is part of the output contract, so the order
// and the scan must not change.
package lanes

import (
	"sort"
	"time"

	"github.com/dbitech/timeline2svg/internal/interval"
)

// Assignment is the result of Assign.
type Assignment struct {
	// Order lists indexes into the input slice in processing order.
	Order []int
	// Lane holds the lane index of each input interval, indexed like the input slice.
	Lane []int
	// Count is the number of lanes opened.
	Count int
}

// Sort returns input indexes in processing order. Among intervals with the same start the
// longest-running one comes first; ongoing intervals run until now.
func Sort(ivs []interval.Interval, now time.Time) []int {
	order := make([]int, len(ivs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		x, y := ivs[order[a]], ivs[order[b]]
		if !x.Start.Equal(y.Start) {
			return x.Start.Before(y.Start)
		}
		xe, ye := x.EffectiveEnd(now), y.EffectiveEnd(now)
		if !xe.Equal(ye) {
			return xe.After(ye)
		}
		return x.ID < y.ID
	})
	return order
}

// Assign runs the greedy interval-scheduling pass. lastEnd grows by one slot per opened lane
// and is discarded on return.
func Assign(ivs []interval.Interval, now time.Time) Assignment {
	order := Sort(ivs, now)
	lane := make([]int, len(ivs))
	var lastEnd []time.Time

	for _, idx := range order {
		iv := ivs[idx]
		end := iv.EffectiveEnd(now)

		chosen := -1
		for k, le := range lastEnd {
			if !le.After(iv.Start) {
				chosen = k
				break
			}
		}
		if chosen < 0 {
			chosen = len(lastEnd)
			lastEnd = append(lastEnd, end)
		} else {
			lastEnd[chosen] = end
		}
		lane[idx] = chosen
	}

	return Assignment{Order: order, Lane: lane, Count: len(lastEnd)}
}

// Pair returns how many lane heights lane k sits away from the baseline.
func Pair(k int) int {
	if k <= 0 {
		return 0
	}
	return (k + 1) / 2
}

// Above reports whether lane k is drawn above the baseline. Odd lanes go up, even lanes
// (other than the baseline itself) go down.
func Above(k int) bool {
	return k%2 == 1
}

// Offset returns the signed vertical offset of lane k from the baseline in SVG coordinates:
// negative is up.
func Offset(k int, laneHeight float64) float64 {
	d := float64(Pair(k)) * laneHeight
	if Above(k) {
		return -d
	}
	return d
}

// Extent returns how many lane heights are used above and below the baseline for n lanes.
func Extent(n int) (up, down int) {
	if n <= 1 {
		return 0, 0
	}
	return n / 2, (n - 1) / 2
}
