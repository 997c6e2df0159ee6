// Package labels decides which date labels are drawn and where they anchor vertically.
package labels

import (
	"math"

	"github.com/dbitech/timeline2svg/internal/lanes"
)

// DefaultProximity is the minimum horizontal distance in pixels between two drawn labels.
const DefaultProximity = 20.0

// Anchor is the vertical side of a node a label is drawn on.
type Anchor int

const (
	Below Anchor = iota
	Above
)

func (a Anchor) String() string {
	if a == Above {
		return "above"
	}
	return "below"
}

// AnchorFor returns the label anchor of lane k: above for lanes drawn above the baseline,
// below for the baseline and lanes under it.
func AnchorFor(k int) Anchor {
	if lanes.Above(k) {
		return Above
	}
	return Below
}

// Candidate is one item's label input, given in processing order.
type Candidate struct {
	Lane   int
	StartX float64
	EndX   float64
	HasEnd bool
}

// Decision is the placement outcome for one Candidate.
type Decision struct {
	Anchor    Anchor
	ShowStart bool
	ShowEnd   bool
}

// Options controls which labels exist at all.
type Options struct {
	Proximity  float64
	StartDates bool
	EndDates   bool
}

// Accumulator holds the x positions of labels placed so far within one render.
type Accumulator struct {
	proximity float64
	placed    []float64
}

// NewAccumulator returns an empty accumulator for the given proximity threshold.
func NewAccumulator(proximity float64) *Accumulator {
	return &Accumulator{proximity: proximity}
}

// Collides reports whether a label at x would sit closer than the threshold to a placed one.
func (a *Accumulator) Collides(x float64) bool {
	for _, p := range a.placed {
		if math.Abs(p-x) < a.proximity {
			return true
		}
	}
	return false
}

// TryPlace places a label at x unless it collides. It returns whether the label was placed.
// A suppressed label is never shifted.
func (a *Accumulator) TryPlace(x float64) bool {
	if a.Collides(x) {
		return false
	}
	a.placed = append(a.placed, x)
	return true
}

// Placed returns the x positions placed so far in placement order.
func (a *Accumulator) Placed() []float64 {
	return a.placed
}

// Place runs the start-label pass and then the end-label pass over candidates, sharing one
// accumulator. Earlier candidates win every conflict.
func Place(cands []Candidate, opts Options) []Decision {
	out := make([]Decision, len(cands))
	acc := NewAccumulator(opts.Proximity)

	for i, c := range cands {
		out[i].Anchor = AnchorFor(c.Lane)
		if opts.StartDates {
			out[i].ShowStart = acc.TryPlace(c.StartX)
		}
	}
	if opts.EndDates {
		for i, c := range cands {
			if c.HasEnd {
				out[i].ShowEnd = acc.TryPlace(c.EndX)
			}
		}
	}
	return out
}
