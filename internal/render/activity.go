package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dbitech/timeline2svg/internal/activity"
)

const dotRadius = 3

// Activity renders the activity chart with an optional title.
func Activity(c activity.Chart, s Style, title string) string {
	var svg strings.Builder
	header(&svg, c.Width, c.Height, s, fmt.Sprintf(".grid { stroke: %s; stroke-opacity: 0.2; }\n", s.Baseline))
	svg.WriteString("</defs>\n")
	fmt.Fprintf(&svg, `<rect width="100%%" height="100%%" fill="%s"/>`+"\n", escapeXML(s.Background))

	if title != "" {
		fmt.Fprintf(&svg, `<text class="title-text" x="%s" y="%s">%s</text>`+"\n",
			num(c.Scale.RangeStart), num(c.PlotTop/2+s.FontSize/2), escapeXML(title))
	}

	plan := c.Plan
	x0, x1 := c.Scale.RangeStart, c.Scale.RangeEnd
	for _, t := range c.Ticks {
		fmt.Fprintf(&svg, `<line class="grid" x1="%s" y1="%s" x2="%s" y2="%s"/>`+"\n",
			num(x0), num(t.Y), num(x1), num(t.Y))
		fmt.Fprintf(&svg, `<text class="date-text fade" x="%s" y="%s" text-anchor="end" style="animation-delay: %sms">%s</text>`+"\n",
			num(x0-6), num(t.Y+fontSize(s.FontSize, -2)/3), ms(plan.Labels.Delay), strconv.Itoa(t.Value))
	}

	if len(c.Source) > 0 {
		first, last := c.Source[0], c.Source[len(c.Source)-1]
		y := c.PlotBottom + s.FontSize + 4
		fmt.Fprintf(&svg, `<text class="date-text fade" x="%s" y="%s" text-anchor="start" style="animation-delay: %sms">%s</text>`+"\n",
			num(x0), num(y), ms(plan.Labels.Delay), first.Date.Format("2006-01-02"))
		fmt.Fprintf(&svg, `<text class="date-text fade" x="%s" y="%s" text-anchor="end" style="animation-delay: %sms">%s</text>`+"\n",
			num(x1), num(y), ms(plan.Labels.Delay), last.Date.Format("2006-01-02"))
	}

	if len(c.Points) > 1 {
		drawPath(&svg, "line", c.Points, c.Line, s.Item, plan.Items.Delay, plan.Items.Duration)
	}
	for i, p := range c.Points {
		fmt.Fprintf(&svg, `<circle class="marker" cx="%s" cy="%s" r="%d" fill="%s" style="animation-delay: %sms"><title>%s: %d</title></circle>`+"\n",
			num(p.X), num(p.Y), dotRadius, escapeXML(s.Marker.FillColor), ms(plan.Per[i].Delay),
			c.Source[i].Date.Format("2006-01-02"), c.Source[i].Count)
	}

	svg.WriteString("</svg>\n")
	return svg.String()
}
