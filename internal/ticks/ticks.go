// Package ticks produces round axis values for the activity chart.
package ticks

const (
	// DefaultCount is the target number of ticks when none is given.
	DefaultCount = 5
	// MaxCount caps the requested number of ticks.
	MaxCount = 1000
)

// Generate returns ascending ticks from 0 up to maxValue, stepping by ceil(maxValue/(count-1)) with a
// minimum step of 1. maxValue itself is appended when the steps do not land on it exactly.
// Negative maxValue is treated as 0; count below 2 uses DefaultCount and count above MaxCount
// uses MaxCount.
func Generate(maxValue, count int) []int {
	if maxValue < 0 {
		maxValue = 0
	}
	if count < 2 {
		count = DefaultCount
	}
	count = min(count, MaxCount)
	step := maxValue / (count - 1)
	if maxValue%(count-1) > 0 {
		step++
	}
	if step < 1 {
		step = 1
	}

	out := make([]int, 0, count+1)
	// v never passes maxValue-step, so v+step cannot overflow.
	for v := 0; ; v += step {
		out = append(out, v)
		if v > maxValue-step {
			break
		}
	}
	if out[len(out)-1] != maxValue {
		out = append(out, maxValue)
	}
	return out
}
