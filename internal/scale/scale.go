// Package scale maps instants onto a horizontal pixel range.
package scale

import (
	"time"

	"github.com/dbitech/timeline2svg/internal/interval"
)

// Time is a linear mapping from [DomainStart, DomainEnd] to [RangeStart, RangeEnd].
type Time struct {
	DomainStart time.Time
	DomainEnd   time.Time
	RangeStart  float64
	RangeEnd    float64
}

// New builds a scale over an explicit domain. A domain end before its start is treated as a
// zero-width domain.
func New(domainStart, domainEnd time.Time, rangeStart, rangeEnd float64) Time {
	if domainEnd.Before(domainStart) {
		domainEnd = domainStart
	}
	return Time{
		DomainStart: domainStart,
		DomainEnd:   domainEnd,
		RangeStart:  rangeStart,
		RangeEnd:    rangeEnd,
	}
}

// ForIntervals builds a scale whose domain runs from the earliest start to the latest
// effective end, with now substituted for ongoing intervals.
func ForIntervals(ivs []interval.Interval, now time.Time, rangeStart, rangeEnd float64) Time {
	if len(ivs) == 0 {
		return New(now, now, rangeStart, rangeEnd)
	}
	lo, hi := ivs[0].Start, ivs[0].EffectiveEnd(now)
	for _, iv := range ivs[1:] {
		if iv.Start.Before(lo) {
			lo = iv.Start
		}
		if end := iv.EffectiveEnd(now); end.After(hi) {
			hi = end
		}
	}
	return New(lo, hi, rangeStart, rangeEnd)
}

// Width returns the domain width in seconds.
func (s Time) Width() float64 {
	return seconds(s.DomainEnd) - seconds(s.DomainStart)
}

// Project maps t to a pixel coordinate. A zero-width domain maps every instant to the middle
// of the range. Results are clamped to the range.
func (s Time) Project(t time.Time) float64 {
	width := s.Width()
	if width <= 0 {
		return (s.RangeStart + s.RangeEnd) / 2
	}
	p := (seconds(t) - seconds(s.DomainStart)) / width
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	return s.RangeStart + p*(s.RangeEnd-s.RangeStart)
}

// seconds avoids time.Duration, which overflows for spans beyond ~292 years.
func seconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
