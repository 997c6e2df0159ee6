package render

import (
	"fmt"
	"strings"
)

// Marker styles the node drawn where an interval leaves the baseline.
type Marker struct {
	Shape       string // circle, square, diamond or triangle
	Size        float64
	FillColor   string
	StrokeColor string
	StrokeWidth float64
}

// Style is everything the SVG writers need beyond geometry.
type Style struct {
	FontFamily string
	FontSize   float64

	Background string
	Baseline   string
	Item       string
	Text       string
	Subtitle   string
	Date       string

	Marker Marker
}

// Themes are the built-in color schemes.
var Themes = map[string]Style{
	"light": {
		FontFamily: "Arial, sans-serif",
		FontSize:   12,
		Background: "#ffffff",
		Baseline:   "#333333",
		Item:       "#4285f4",
		Text:       "#333333",
		Subtitle:   "#666666",
		Date:       "#888888",
		Marker: Marker{
			Shape:       "circle",
			Size:        5,
			FillColor:   "#4285f4",
			StrokeColor: "#333333",
			StrokeWidth: 1,
		},
	},
	"dark": {
		FontFamily: "Arial, sans-serif",
		FontSize:   12,
		Background: "#0d1117",
		Baseline:   "#8b949e",
		Item:       "#58a6ff",
		Text:       "#c9d1d9",
		Subtitle:   "#8b949e",
		Date:       "#6e7681",
		Marker: Marker{
			Shape:       "circle",
			Size:        5,
			FillColor:   "#58a6ff",
			StrokeColor: "#c9d1d9",
			StrokeWidth: 1,
		},
	},
}

// Theme returns the named theme. An empty name selects light.
func Theme(name string) (Style, error) {
	if name == "" {
		name = "light"
	}
	s, ok := Themes[strings.ToLower(name)]
	if !ok {
		return Style{}, fmt.Errorf("unknown theme %q", name)
	}
	return s, nil
}

// Override returns s with every non-empty color in o applied on top.
func (s Style) Override(o Style) Style {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&s.FontFamily, o.FontFamily)
	pick(&s.Background, o.Background)
	pick(&s.Baseline, o.Baseline)
	pick(&s.Item, o.Item)
	pick(&s.Text, o.Text)
	pick(&s.Subtitle, o.Subtitle)
	pick(&s.Date, o.Date)
	pick(&s.Marker.Shape, o.Marker.Shape)
	pick(&s.Marker.FillColor, o.Marker.FillColor)
	pick(&s.Marker.StrokeColor, o.Marker.StrokeColor)
	if o.FontSize > 0 {
		s.FontSize = o.FontSize
	}
	if o.Marker.Size > 0 {
		s.Marker.Size = o.Marker.Size
	}
	if o.Marker.StrokeWidth > 0 {
		s.Marker.StrokeWidth = o.Marker.StrokeWidth
	}
	return s
}
