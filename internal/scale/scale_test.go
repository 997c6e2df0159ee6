package scale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dbitech/timeline2svg/internal/interval"
)

var fixedNow = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func date(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestProjectLinear(t *testing.T) {
	s := New(date(2020, time.January), date(2022, time.January), 100, 500)

	assert.InDelta(t, 100, s.Project(date(2020, time.January)), 1e-9)
	assert.InDelta(t, 500, s.Project(date(2022, time.January)), 1e-9)
	// 2021-01-01 is 366 days into a 731 day domain (2020 is a leap year).
	assert.InDelta(t, 100+400*366.0/731.0, s.Project(date(2021, time.January)), 1e-9)
}

func TestProjectMonotonic(t *testing.T) {
	s := New(date(2010, time.March), date(2024, time.September), 40, 760)

	prev := s.Project(s.DomainStart)
	for t1 := s.DomainStart; !t1.After(s.DomainEnd); t1 = t1.AddDate(0, 0, 17) {
		x := s.Project(t1)
		assert.GreaterOrEqual(t, x, prev, "projection decreased at %s", t1)
		prev = x
	}
}

func TestProjectZeroDomain(t *testing.T) {
	ivs := []interval.Interval{{Start: fixedNow}}
	s := ForIntervals(ivs, fixedNow, 0, 300)

	assert.Equal(t, s.DomainStart, s.DomainEnd)
	assert.Equal(t, 150.0, s.Project(fixedNow))
	assert.Equal(t, 150.0, s.Project(fixedNow.AddDate(5, 0, 0)))
}

func TestForIntervals(t *testing.T) {
	ivs := []interval.Interval{
		{Start: date(2020, time.June), End: date(2021, time.January), HasEnd: true},
		{Start: date(2020, time.January), End: date(2021, time.June), HasEnd: true},
		{Start: date(2021, time.July)},
	}
	s := ForIntervals(ivs, fixedNow, 0, 1000)

	assert.Equal(t, date(2020, time.January), s.DomainStart)
	assert.Equal(t, fixedNow, s.DomainEnd)
}

func TestForIntervalsEndBeforeStart(t *testing.T) {
	ivs := []interval.Interval{{Start: date(2022, time.January), End: date(2020, time.January), HasEnd: true}}
	s := ForIntervals(ivs, fixedNow, 0, 200)

	assert.Equal(t, s.DomainStart, s.DomainEnd)
	assert.Equal(t, 100.0, s.Project(date(2020, time.January)))
}

func TestForIntervalsEmpty(t *testing.T) {
	s := ForIntervals(nil, fixedNow, 10, 30)
	assert.Equal(t, 20.0, s.Project(fixedNow))
}
