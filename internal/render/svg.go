// Package render serializes computed layouts to animated SVG.
package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dbitech/timeline2svg/internal/anim"
)

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func ms(d time.Duration) string {
	return num(float64(d) / float64(time.Millisecond))
}

func pathData(pts []anim.Point) string {
	var b strings.Builder
	for i, p := range pts {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(num(p.X))
		b.WriteString(",")
		b.WriteString(num(p.Y))
	}
	return b.String()
}

// drawPath writes a stroke that draws itself in over dur starting at delay. The dash length is
// the exact path length so the stroke finishes precisely at its end point.
func drawPath(svg *strings.Builder, class string, pts []anim.Point, length float64, color string, delay, dur time.Duration) {
	fmt.Fprintf(svg, `<path class="%s" d="%s" fill="none" stroke="%s" stroke-dasharray="%s" stroke-dashoffset="%s" style="animation: draw %sms linear %sms forwards"/>`,
		class, pathData(pts), escapeXML(color), num(length), num(length), ms(dur), ms(delay))
	svg.WriteString("\n")
}

// drawEventMarker draws the node marker centered on (x, y).
func drawEventMarker(svg *strings.Builder, x, y float64, m Marker, delay time.Duration) {
	size := m.Size
	attrs := fmt.Sprintf(`fill="%s" stroke="%s" stroke-width="%s" class="marker" style="animation-delay: %sms"`,
		escapeXML(m.FillColor), escapeXML(m.StrokeColor), num(m.StrokeWidth), ms(delay))

	switch strings.ToLower(m.Shape) {
	case "square":
		fmt.Fprintf(svg, `<rect x="%s" y="%s" width="%s" height="%s" %s/>`,
			num(x-size), num(y-size), num(size*2), num(size*2), attrs)

	case "diamond":
		fmt.Fprintf(svg, `<polygon points="%s,%s %s,%s %s,%s %s,%s" %s/>`,
			num(x), num(y-size), // top
			num(x+size), num(y), // right
			num(x), num(y+size), // bottom
			num(x-size), num(y), // left
			attrs)

	case "triangle":
		height := size * 1.5
		fmt.Fprintf(svg, `<polygon points="%s,%s %s,%s %s,%s" %s/>`,
			num(x), num(y-height),
			num(x-size), num(y+height/2),
			num(x+size), num(y+height/2),
			attrs)

	default:
		fmt.Fprintf(svg, `<circle cx="%s" cy="%s" r="%s" %s/>`, num(x), num(y), num(size), attrs)
	}
	svg.WriteString("\n")
}

// escapeXML escapes the five XML special characters.
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}

// estimateTextWidth estimates rendered text width: average glyph width is about 0.6 em.
func estimateTextWidth(text string, fontSize float64) float64 {
	return float64(len([]rune(text))) * fontSize * 0.6
}

// fontSize derives a child size from the base size, never below 1px.
func fontSize(base, delta float64) float64 {
	return max(base+delta, 1)
}

func header(svg *strings.Builder, width, height float64, s Style, extraCSS string) {
	family := escapeXML(s.FontFamily)
	fmt.Fprintf(svg, `<?xml version="1.0" encoding="UTF-8"?>
<svg width="%s" height="%s" viewBox="0 0 %s %s" xmlns="http://www.w3.org/2000/svg">
<defs>
<style>
.title-text { font-family: %s; font-size: %spx; font-weight: bold; fill: %s; }
.subtitle-text { font-family: %s; font-size: %spx; fill: %s; }
.date-text { font-family: %s; font-size: %spx; fill: %s; }
.marker, .fade { opacity: 0; animation: fade 300ms linear forwards; }
@keyframes draw { to { stroke-dashoffset: 0; } }
@keyframes fade { to { opacity: 1; } }
%s</style>
`, num(width), num(height), num(width), num(height),
		family, num(fontSize(s.FontSize, 2)), escapeXML(s.Text),
		family, num(fontSize(s.FontSize, -1)), escapeXML(s.Subtitle),
		family, num(fontSize(s.FontSize, -2)), escapeXML(s.Date),
		escapeXML(extraCSS))
}
