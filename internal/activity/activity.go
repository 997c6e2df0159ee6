// Package activity lays out the time-series activity chart: one point per day, scaled on x by
// date and on y against the top axis tick.
package activity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dbitech/timeline2svg/internal/anim"
	"github.com/dbitech/timeline2svg/internal/interval"
	"github.com/dbitech/timeline2svg/internal/scale"
	"github.com/dbitech/timeline2svg/internal/ticks"
)

// MaxCount is the largest daily count ReadCSV accepts.
const MaxCount = 1_000_000_000

var ErrCountOutOfRange = errors.New("count out of range")

// Point is one observation.
type Point struct {
	Date  time.Time
	Count int
}

// Options controls chart geometry.
type Options struct {
	Width     float64
	Height    float64
	Margins   Margins
	TickCount int
	Duration  time.Duration
}

// Margins are the four canvas margins in pixels.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// DefaultOptions returns the chart options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Width:     800,
		Height:    300,
		Margins:   Margins{Top: 40, Right: 30, Bottom: 40, Left: 50},
		TickCount: ticks.DefaultCount,
		Duration:  4 * time.Second,
	}
}

// Tick is one y-axis tick.
type Tick struct {
	Value int
	Y     float64
}

// Chart is the geometry and timing of the activity chart.
type Chart struct {
	Width, Height float64
	Points        []anim.Point // Plot coordinates, one per input point, sorted by date
	Source        []Point      // Input points in the same order as Points
	Ticks         []Tick
	Line          float64 // Exact polyline length
	Plan          anim.Plan
	Scale         scale.Time
	PlotTop       float64
	PlotBottom    float64
}

// Layout sorts series by date and computes the chart. An empty series yields a chart with
// only the zero tick.
func Layout(series []Point, opts Options) Chart {
	pts := make([]Point, len(series))
	copy(pts, series)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })

	x0, x1 := opts.Margins.Left, opts.Width-opts.Margins.Right
	top, bottom := opts.Margins.Top, opts.Height-opts.Margins.Bottom

	var sc scale.Time
	if len(pts) > 0 {
		sc = scale.New(pts[0].Date, pts[len(pts)-1].Date, x0, x1)
	} else {
		sc = scale.New(time.Time{}, time.Time{}, x0, x1)
	}

	peak := 0
	for _, p := range pts {
		peak = max(peak, p.Count)
	}
	vals := ticks.Generate(peak, opts.TickCount)
	axisMax := vals[len(vals)-1]

	yOf := func(v int) float64 {
		if axisMax == 0 {
			return bottom
		}
		return bottom - float64(v)/float64(axisMax)*(bottom-top)
	}

	c := Chart{
		Width:      opts.Width,
		Height:     opts.Height,
		Source:     pts,
		Points:     make([]anim.Point, len(pts)),
		Ticks:      make([]Tick, len(vals)),
		Plan:       anim.Schedule(len(pts), opts.Duration),
		Scale:      sc,
		PlotTop:    top,
		PlotBottom: bottom,
	}
	for i, v := range vals {
		c.Ticks[i] = Tick{Value: v, Y: yOf(v)}
	}
	for i, p := range pts {
		c.Points[i] = anim.Point{X: sc.Project(p.Date), Y: yOf(p.Count)}
	}
	c.Line = anim.PathLength(c.Points...)
	return c
}

// ReadCSV reads "date,count" rows after a header line. Dates use the same shapes as timeline
// intervals; counts must be within 0..MaxCount.
func ReadCSV(r io.Reader) ([]Point, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	var out []Point
	for row := 0; ; row++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		d, err := interval.ParseDate(rec[0])
		if err != nil {
			return nil, &interval.ParseError{Row: row, Field: "date", Value: rec[0], Err: err}
		}
		n := 0
		if len(rec) > 1 {
			n, err = strconv.Atoi(strings.TrimSpace(rec[1]))
			if err != nil {
				return nil, &interval.ParseError{Row: row, Field: "count", Value: rec[1], Err: err}
			}
			if n < 0 || n > MaxCount {
				return nil, &interval.ParseError{Row: row, Field: "count", Value: rec[1], Err: ErrCountOutOfRange}
			}
		}
		out = append(out, Point{Date: d, Count: n})
	}
	return out, nil
}
