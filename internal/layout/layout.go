// Package layout composes the time scale, lane allocator, label placement and animation
// scheduler into one pure computation over parsed intervals.
package layout

import (
	"time"

	"github.com/dbitech/timeline2svg/internal/anim"
	"github.com/dbitech/timeline2svg/internal/interval"
	"github.com/dbitech/timeline2svg/internal/labels"
	"github.com/dbitech/timeline2svg/internal/lanes"
	"github.com/dbitech/timeline2svg/internal/scale"
)

// Margins are the four canvas margins in pixels.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// Options is everything the engine reads. Now replaces the end of ongoing intervals.
type Options struct {
	Width      float64
	LaneHeight float64
	Margins    Margins
	Duration   time.Duration
	FontSize   float64 // Only carried through for the renderer
	StartDates bool
	EndDates   bool
	Logos      bool
	Proximity  float64
	Now        time.Time
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions(now time.Time) Options {
	return Options{
		Width:      800,
		LaneHeight: 40,
		Margins:    Margins{Top: 20, Right: 40, Bottom: 20, Left: 40},
		Duration:   6 * time.Second,
		FontSize:   12,
		StartDates: true,
		EndDates:   true,
		Logos:      true,
		Proximity:  labels.DefaultProximity,
		Now:        now,
	}
}

// Item is the geometry and timing of one interval.
type Item struct {
	Interval interval.Interval
	Lane     int
	StartX   float64
	EndX     float64
	Y        float64 // Lane y; equals the baseline for lane 0
	Anchor   labels.Anchor

	ShowStartLabel bool
	ShowEndLabel   bool
	HasLogo        bool

	Timing anim.Item

	// Path runs from the start node on the baseline out to the lane and along it.
	Path       []anim.Point
	PathLength float64
	// Closing drops from the lane back to the baseline at the end date. It is empty for
	// ongoing items and for lane 0.
	Closing       []anim.Point
	ClosingLength float64
}

// Result is the complete layout of one widget.
type Result struct {
	Width  float64
	Height float64

	BaselineY      float64
	Baseline       []anim.Point
	BaselineLength float64

	Scale     scale.Time
	LaneCount int
	Plan      anim.Plan

	// Items are in processing order: start ascending, longest first on ties.
	Items []Item
}

// FromRecords parses records and lays them out. Parse errors are returned unchanged.
func FromRecords(recs []interval.Record, opts Options) (Result, error) {
	ivs, err := interval.Parse(recs)
	if err != nil {
		return Result{}, err
	}
	return Compute(ivs, opts), nil
}

// Compute lays out ivs. It never fails: degenerate input yields degenerate but well-formed
// geometry.
func Compute(ivs []interval.Interval, opts Options) Result {
	now := opts.Now
	x0 := opts.Margins.Left
	x1 := opts.Width - opts.Margins.Right
	if x1 < x0 {
		x1 = x0
	}

	asg := lanes.Assign(ivs, now)
	up, down := lanes.Extent(asg.Count)

	// One lane height of label room is kept beyond the outermost lane on each side.
	baselineY := opts.Margins.Top + float64(up+1)*opts.LaneHeight
	height := baselineY + float64(down+1)*opts.LaneHeight + opts.Margins.Bottom

	res := Result{
		Width:     opts.Width,
		Height:    height,
		BaselineY: baselineY,
		Baseline:  []anim.Point{{X: x0, Y: baselineY}, {X: x1, Y: baselineY}},
		Scale:     scale.ForIntervals(ivs, now, x0, x1),
		LaneCount: asg.Count,
		Plan:      anim.Schedule(len(ivs), opts.Duration),
		Items:     make([]Item, 0, len(ivs)),
	}
	res.BaselineLength = anim.PathLength(res.Baseline...)

	cands := make([]labels.Candidate, 0, len(ivs))
	for _, idx := range asg.Order {
		iv := ivs[idx]
		lane := asg.Lane[idx]
		it := Item{
			Interval: iv,
			Lane:     lane,
			StartX:   res.Scale.Project(iv.Start),
			EndX:     res.Scale.Project(iv.EffectiveEnd(now)),
			Y:        baselineY + lanes.Offset(lane, opts.LaneHeight),
			HasLogo:  opts.Logos && iv.DecorationRef != "",
		}
		it.Path, it.Closing = paths(it, baselineY)
		it.PathLength = anim.PathLength(it.Path...)
		if len(it.Closing) > 0 {
			it.ClosingLength = anim.PathLength(it.Closing...)
		}
		res.Items = append(res.Items, it)
		cands = append(cands, labels.Candidate{Lane: lane, StartX: it.StartX, EndX: it.EndX, HasEnd: iv.HasEnd})
	}

	decisions := labels.Place(cands, labels.Options{
		Proximity:  opts.Proximity,
		StartDates: opts.StartDates,
		EndDates:   opts.EndDates,
	})
	for i := range res.Items {
		res.Items[i].Anchor = decisions[i].Anchor
		res.Items[i].ShowStartLabel = decisions[i].ShowStart
		res.Items[i].ShowEndLabel = decisions[i].ShowEnd
		res.Items[i].Timing = res.Plan.Per[i]
	}
	return res
}

// LogoRefs lists the decoration references of items that want a logo, in processing order.
func (r Result) LogoRefs() []string {
	var refs []string
	for _, it := range r.Items {
		if it.HasLogo {
			refs = append(refs, it.Interval.DecorationRef)
		}
	}
	return refs
}

func paths(it Item, baselineY float64) (path, closing []anim.Point) {
	if it.Lane == 0 {
		return []anim.Point{{X: it.StartX, Y: baselineY}, {X: it.EndX, Y: baselineY}}, nil
	}
	path = []anim.Point{
		{X: it.StartX, Y: baselineY},
		{X: it.StartX, Y: it.Y},
		{X: it.EndX, Y: it.Y},
	}
	if it.Interval.HasEnd {
		closing = []anim.Point{{X: it.EndX, Y: it.Y}, {X: it.EndX, Y: baselineY}}
	}
	return path, closing
}
