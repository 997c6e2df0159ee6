// Package anim computes the staged animation schedule and exact stroke path lengths.
package anim

import (
	"math"
	"time"
)

// Fixed shares of the total duration for each stage, and the share of an item's slot used by
// its own reveal.
const (
	BaselineShare = 0.15
	LabelsShare   = 0.10
	ItemsShare    = 0.75
	RevealShare   = 0.5
)

// MinPathLength is the floor applied to stroke lengths so dash animations never divide by zero.
const MinPathLength = 1.0

// Stage is one global animation phase.
type Stage struct {
	Delay    time.Duration
	Duration time.Duration
}

// End returns when the stage finishes.
func (s Stage) End() time.Duration {
	return s.Delay + s.Duration
}

// Item is one item's timing.
type Item struct {
	Delay   time.Duration // When the primary reveal starts
	Reveal  time.Duration // How long the primary reveal takes
	Closing time.Duration // When the second-phase effect may start
}

// Plan is the full schedule for one render.
type Plan struct {
	Total    time.Duration
	Baseline Stage
	Labels   Stage
	Items    Stage
	Slot     time.Duration // Items.Duration / n, zero when there are no items
	Per      []Item
}

// Schedule splits total into the baseline, labels and items stages and gives each of n items
// an equal slot in the items stage. Each item reveals over half its slot.
func Schedule(n int, total time.Duration) Plan {
	if total < 0 {
		total = 0
	}
	baseline := share(total, BaselineShare)
	labels := share(total, LabelsShare)
	items := min(share(total, ItemsShare), total-baseline-labels)

	p := Plan{
		Total:    total,
		Baseline: Stage{Delay: 0, Duration: baseline},
		Labels:   Stage{Delay: baseline, Duration: labels},
		Items:    Stage{Delay: baseline + labels, Duration: items},
	}
	if n <= 0 {
		return p
	}

	p.Slot = items / time.Duration(n)
	reveal := share(p.Slot, RevealShare)
	p.Per = make([]Item, n)
	for i := range p.Per {
		delay := p.Items.Delay + time.Duration(i)*p.Slot
		p.Per[i] = Item{Delay: delay, Reveal: reveal, Closing: delay + reveal}
	}
	return p
}

// share truncates so the stages never add up to more than the total.
func share(d time.Duration, f float64) time.Duration {
	return time.Duration(float64(d) * f)
}

// Point is a 2D coordinate in pixels.
type Point struct {
	X, Y float64
}

// PathLength sums the Euclidean lengths of the segments of a polyline, floored at
// MinPathLength.
func PathLength(pts ...Point) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += math.Hypot(pts[i].X-pts[i-1].X, pts[i].Y-pts[i-1].Y)
	}
	return math.Max(total, MinPathLength)
}
