package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/dbitech/timeline2svg/internal/labels"
	"github.com/dbitech/timeline2svg/internal/layout"
)

const (
	labelGap = 6  // Space between a lane line and its title
	logoSize = 18 // Logo diameter in pixels
)

// ClipID is the clip-path id for an interval's logo.
func ClipID(id int) string {
	return fmt.Sprintf("logo-clip-%d", id)
}

// Timeline renders a computed layout. logos maps decoration references to data URIs; items
// whose reference is missing from the map get a plain marker.
func Timeline(res layout.Result, s Style, logos map[string]string) string {
	var svg strings.Builder
	header(&svg, res.Width, res.Height, s, "")

	for _, it := range res.Items {
		if _, ok := logoFor(it, logos); ok {
			fmt.Fprintf(&svg, `<clipPath id="%s"><circle cx="%s" cy="%s" r="%s"/></clipPath>`+"\n",
				ClipID(it.Interval.ID), num(it.StartX), num(res.BaselineY), num(logoSize/2))
		}
	}
	svg.WriteString("</defs>\n")
	fmt.Fprintf(&svg, `<rect width="100%%" height="100%%" fill="%s"/>`+"\n", escapeXML(s.Background))

	plan := res.Plan
	drawPath(&svg, "baseline", res.Baseline, res.BaselineLength, s.Baseline, plan.Baseline.Delay, plan.Baseline.Duration)

	// Date labels belong to the axis and appear during the labels stage.
	for _, it := range res.Items {
		dy := dateY(res.BaselineY, it.Anchor, s)
		if it.ShowStartLabel {
			dateText(&svg, it.StartX, dy, it.Interval.StartText, plan.Labels.Delay)
		}
		if it.ShowEndLabel && it.Interval.HasEnd {
			dateText(&svg, it.EndX, dy, it.Interval.EndText, plan.Labels.Delay)
		}
	}

	for _, it := range res.Items {
		color := s.Item
		if it.Interval.ColorHint != "" {
			color = it.Interval.ColorHint
		}
		fmt.Fprintf(&svg, `<g class="item" data-id="%d" data-lane="%d">`+"\n", it.Interval.ID, it.Lane)
		drawPath(&svg, "bracket", it.Path, it.PathLength, color, it.Timing.Delay, it.Timing.Reveal)
		if len(it.Closing) > 0 {
			drawPath(&svg, "closing", it.Closing, it.ClosingLength, color, it.Timing.Closing, plan.Slot-it.Timing.Reveal)
		}

		if uri, ok := logoFor(it, logos); ok {
			fmt.Fprintf(&svg, `<image class="fade" href="%s" x="%s" y="%s" width="%d" height="%d" clip-path="url(#%s)" style="animation-delay: %sms"/>`+"\n",
				escapeXML(uri), num(it.StartX-logoSize/2), num(res.BaselineY-logoSize/2), logoSize, logoSize,
				ClipID(it.Interval.ID), ms(it.Timing.Delay))
		} else {
			drawEventMarker(&svg, it.StartX, res.BaselineY, s.Marker, it.Timing.Delay)
		}

		titleText(&svg, it, s, res.Width)
		svg.WriteString("</g>\n")
	}

	svg.WriteString("</svg>\n")
	return svg.String()
}

// dateY places an item's date labels on the baseline, on the side of its anchor.
func dateY(baselineY float64, a labels.Anchor, s Style) float64 {
	if a == labels.Above {
		return baselineY - labelGap
	}
	return baselineY + fontSize(s.FontSize, -2) + labelGap
}

func logoFor(it layout.Item, logos map[string]string) (string, bool) {
	if !it.HasLogo {
		return "", false
	}
	uri, ok := logos[it.Interval.DecorationRef]
	return uri, ok && uri != ""
}

func dateText(svg *strings.Builder, x, y float64, text string, delay time.Duration) {
	fmt.Fprintf(svg, `<text class="date-text fade" x="%s" y="%s" text-anchor="middle" style="animation-delay: %sms">%s</text>`+"\n",
		num(x), num(y), ms(delay), escapeXML(text))
}

// titleText writes the label and subtitle next to the lane line, on the anchor side.
func titleText(svg *strings.Builder, it layout.Item, s Style, width float64) {
	titleSize := fontSize(s.FontSize, 2)
	subSize := fontSize(s.FontSize, -1)
	x := it.StartX + labelGap
	anchor := "start"
	// Titles that would run off the canvas are right-aligned to the edge instead.
	w := max(estimateTextWidth(it.Interval.Label, titleSize), estimateTextWidth(it.Interval.Subtitle, subSize))
	if x+w > width-labelGap {
		x = width - labelGap
		anchor = "end"
	}

	var titleY, subY float64
	if it.Anchor == labels.Above {
		subY = it.Y - labelGap
		titleY = subY
		if it.Interval.Subtitle != "" {
			titleY = subY - subSize - 2
		}
	} else {
		titleY = it.Y + titleSize + labelGap/2
		if it.Lane == 0 {
			// Baseline items share their side with the date labels; go below them.
			titleY += fontSize(s.FontSize, -2) + labelGap
		}
		subY = titleY + subSize + 2
	}

	at := it.Timing.Delay + it.Timing.Reveal
	fmt.Fprintf(svg, `<text class="title-text fade" x="%s" y="%s" text-anchor="%s" style="animation-delay: %sms">%s</text>`+"\n",
		num(x), num(titleY), anchor, ms(at), escapeXML(it.Interval.Label))
	if it.Interval.Subtitle != "" {
		fmt.Fprintf(svg, `<text class="subtitle-text fade" x="%s" y="%s" text-anchor="%s" style="animation-delay: %sms">%s</text>`+"\n",
			num(x), num(subY), anchor, ms(at), escapeXML(it.Interval.Subtitle))
	}
}
