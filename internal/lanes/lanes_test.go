package lanes

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbitech/timeline2svg/internal/interval"
)

var fixedNow = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func mustParse(t *testing.T, recs ...interval.Record) []interval.Interval {
	t.Helper()
	ivs, err := interval.Parse(recs)
	require.NoError(t, err)
	return ivs
}

func TestAssignScenario(t *testing.T) {
	ivs := mustParse(t,
		interval.Record{Label: "A", Start: "2020-01", End: "2021-06"},
		interval.Record{Label: "B", Start: "2020-06", End: "2021-01"},
		interval.Record{Label: "C", Start: "2021-07"},
	)
	got := Assign(ivs, fixedNow)

	assert.Equal(t, []int{0, 1, 0}, got.Lane)
	assert.Equal(t, []int{0, 1, 2}, got.Order)
	assert.Equal(t, 2, got.Count)
}

func TestAssignInputOrderIrrelevant(t *testing.T) {
	ivs := mustParse(t,
		interval.Record{Label: "C", Start: "2021-07"},
		interval.Record{Label: "B", Start: "2020-06", End: "2021-01"},
		interval.Record{Label: "A", Start: "2020-01", End: "2021-06"},
	)
	got := Assign(ivs, fixedNow)

	assert.Equal(t, []int{2, 1, 0}, got.Order)
	assert.Equal(t, []int{0, 1, 0}, got.Lane)
}

func TestSortTieBreak(t *testing.T) {
	ivs := mustParse(t,
		interval.Record{Label: "short", Start: "2020", End: "2020-06"},
		interval.Record{Label: "ongoing", Start: "2020"},
		interval.Record{Label: "long", Start: "2020", End: "2023"},
		interval.Record{Label: "short twin", Start: "2020", End: "2020-06"},
	)
	order := Sort(ivs, fixedNow)

	// Longest first; ongoing runs to now; equal ranges keep ID order.
	assert.Equal(t, []int{1, 2, 0, 3}, order)

	got := Assign(ivs, fixedNow)
	assert.Equal(t, []int{2, 0, 1, 3}, got.Lane)
	assert.Equal(t, 4, got.Count)
}

func TestAssignTouchingIntervalsShareLane(t *testing.T) {
	ivs := mustParse(t,
		interval.Record{Label: "first", Start: "2020-01", End: "2020-06"},
		interval.Record{Label: "second", Start: "2020-06", End: "2020-09"},
	)
	got := Assign(ivs, fixedNow)
	assert.Equal(t, []int{0, 0}, got.Lane)
	assert.Equal(t, 1, got.Count)
}

func TestAssignReusesFirstFreeLane(t *testing.T) {
	ivs := mustParse(t,
		interval.Record{Label: "L0", Start: "2020-01", End: "2020-12"},
		interval.Record{Label: "L1", Start: "2020-02", End: "2020-04"},
		interval.Record{Label: "L2", Start: "2020-03", End: "2020-05"},
		// Lanes 1 and 2 are both free; lane 1 was created first and wins.
		interval.Record{Label: "late", Start: "2020-06", End: "2020-07"},
	)
	got := Assign(ivs, fixedNow)
	assert.Equal(t, []int{0, 1, 2, 1}, got.Lane)
	assert.Equal(t, 3, got.Count)
}

func TestAssignEmpty(t *testing.T) {
	got := Assign(nil, fixedNow)
	assert.Empty(t, got.Order)
	assert.Empty(t, got.Lane)
	assert.Zero(t, got.Count)
}

func TestAssignProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(25)
		ivs := make([]interval.Interval, n)
		for i := range ivs {
			start := base.AddDate(0, rng.Intn(120), 0)
			ivs[i] = interval.Interval{ID: i, Start: start}
			if rng.Intn(4) > 0 {
				ivs[i].End = start.AddDate(0, rng.Intn(36), 0)
				ivs[i].HasEnd = true
			}
		}

		got := Assign(ivs, fixedNow)

		// No two intervals in the same lane overlap.
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if got.Lane[i] != got.Lane[j] {
					continue
				}
				a, b := ivs[i], ivs[j]
				overlap := a.Start.Before(b.EffectiveEnd(fixedNow)) && b.Start.Before(a.EffectiveEnd(fixedNow))
				assert.False(t, overlap, "round %d: intervals %d and %d share lane %d", round, i, j, got.Lane[i])
			}
		}

		// Lane count equals the maximum number of simultaneously running intervals.
		maxDepth := 0
		for i, iv := range ivs {
			depth := 1
			for j, other := range ivs {
				if i != j && !other.Start.After(iv.Start) && other.EffectiveEnd(fixedNow).After(iv.Start) {
					depth++
				}
			}
			maxDepth = max(maxDepth, depth)
		}
		assert.Equal(t, maxDepth, got.Count, "round %d", round)

		// Same input, same answer.
		assert.Equal(t, got, Assign(ivs, fixedNow))
	}
}

func TestOffset(t *testing.T) {
	tests := []struct {
		lane   int
		offset float64
		above  bool
	}{
		{0, 0, false},
		{1, -30, true},
		{2, 30, false},
		{3, -60, true},
		{4, 60, false},
		{5, -90, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.offset, Offset(tt.lane, 30), "lane %d", tt.lane)
		assert.Equal(t, tt.above, Above(tt.lane), "lane %d", tt.lane)
	}
}

func TestExtent(t *testing.T) {
	for n, want := range map[int][2]int{0: {0, 0}, 1: {0, 0}, 2: {1, 0}, 3: {1, 1}, 4: {2, 1}, 5: {2, 2}} {
		up, down := Extent(n)
		assert.Equal(t, want, [2]int{up, down}, "n=%d", n)
	}
}
