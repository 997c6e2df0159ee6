/*
Package config loads the YAML configuration for timeline and activity widgets.

A file only needs the keys it changes: it is decoded on top of Default, so anything it omits
keeps its default value. Colors left empty fall back to the selected theme.
*/
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dbitech/timeline2svg/internal/activity"
	"github.com/dbitech/timeline2svg/internal/interval"
	"github.com/dbitech/timeline2svg/internal/layout"
	"github.com/dbitech/timeline2svg/internal/render"
)

// Font is the base font; titles, subtitles and dates derive their sizes from Size.
type Font struct {
	Family string `yaml:"family"` // Font family for all text elements (e.g., "Arial, sans-serif")
	Size   int    `yaml:"size"`   // Base font size in pixels
}

// Colors override the theme. Empty values keep the theme's color.
type Colors struct {
	Background string `yaml:"background"`
	Baseline   string `yaml:"baseline"`
	Items      string `yaml:"items"`
	Text       string `yaml:"text"`
	Subtitle   string `yaml:"subtitle"`
	Dates      string `yaml:"dates"`
}

// Layout holds canvas dimensions in pixels.
type Layout struct {
	Width        int `yaml:"width"`         // Total SVG width
	LaneHeight   int `yaml:"lane_height"`   // Vertical distance between lanes
	MarginTop    int `yaml:"margin_top"`    // Top margin
	MarginBottom int `yaml:"margin_bottom"` // Bottom margin
	MarginLeft   int `yaml:"margin_left"`   // Left margin
	MarginRight  int `yaml:"margin_right"`  // Right margin
}

type Animation struct {
	Duration time.Duration `yaml:"duration"` // Total animation time, e.g. "6s"
}

type Labels struct {
	ShowStartDates bool    `yaml:"show_start_dates"`
	ShowEndDates   bool    `yaml:"show_end_dates"`
	Proximity      float64 `yaml:"proximity"` // Minimum pixel distance between date labels
}

type Logos struct {
	Resolve bool          `yaml:"resolve"` // Fetch logo URLs and embed them
	Timeout time.Duration `yaml:"timeout"` // Upper bound for all logo fetches together
	// AllowPrivate lets the server fetch logos from loopback and private networks.
	AllowPrivate bool `yaml:"allow_private"`
}

// EventMarker styles the node drawn where an interval leaves the baseline.
type EventMarker struct {
	Shape       string `yaml:"shape"`        // Marker shape: "circle", "triangle", "square", or "diamond"
	Size        int    `yaml:"size"`         // Radius for circle, half side for the others
	FillColor   string `yaml:"fill_color"`   // Empty keeps the theme's fill
	StrokeColor string `yaml:"stroke_color"` // Empty keeps the theme's stroke
	StrokeWidth int    `yaml:"stroke_width"`
}

// Activity configures the activity chart.
type Activity struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TickCount int    `yaml:"tick_count"`
	Days      int    `yaml:"days"` // How many trailing days to fetch from GitHub
	Title     string `yaml:"title"`
}

// Config represents the complete configuration. It maps directly to the YAML file.
type Config struct {
	Theme       string           `yaml:"theme"` // "light" or "dark"
	Font        Font             `yaml:"font"`
	Colors      Colors           `yaml:"colors"`
	Layout      Layout           `yaml:"layout"`
	Animation   Animation        `yaml:"animation"`
	Labels      Labels           `yaml:"labels"`
	Columns     interval.Columns `yaml:"columns"`
	Logos       Logos            `yaml:"logos"`
	EventMarker EventMarker      `yaml:"event_marker"`
	Activity    Activity         `yaml:"activity"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Theme: "light",
		Font: Font{
			Family: "Arial, sans-serif",
			Size:   12,
		},
		Layout: Layout{
			Width:        800,
			LaneHeight:   40,
			MarginTop:    20,
			MarginBottom: 20,
			MarginLeft:   40,
			MarginRight:  40,
		},
		Animation: Animation{Duration: 6 * time.Second},
		Labels: Labels{
			ShowStartDates: true,
			ShowEndDates:   true,
			Proximity:      20,
		},
		Columns: interval.DefaultColumns(),
		Logos: Logos{
			Resolve: true,
			Timeout: 3 * time.Second,
		},
		EventMarker: EventMarker{
			Shape:       "circle",
			Size:        5,
			StrokeWidth: 1,
		},
		Activity: Activity{
			Width:     800,
			Height:    300,
			TickCount: 5,
			Days:      30,
		},
	}
}

// Load reads a YAML file on top of Default. An empty path returns Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the layout cannot work with.
func (c Config) Validate() error {
	var problems []string
	if c.Layout.Width <= c.Layout.MarginLeft+c.Layout.MarginRight {
		problems = append(problems, "layout.width must exceed the horizontal margins")
	}
	if c.Layout.LaneHeight <= 0 {
		problems = append(problems, "layout.lane_height must be positive")
	}
	if c.Font.Size <= 0 {
		problems = append(problems, "font.size must be positive")
	}
	if c.Animation.Duration < 0 {
		problems = append(problems, "animation.duration must not be negative")
	}
	if c.Labels.Proximity < 0 {
		problems = append(problems, "labels.proximity must not be negative")
	}
	if _, err := render.Theme(c.Theme); err != nil {
		problems = append(problems, err.Error())
	}
	switch strings.ToLower(c.EventMarker.Shape) {
	case "", "circle", "square", "diamond", "triangle":
	default:
		problems = append(problems, fmt.Sprintf("unknown event_marker.shape %q", c.EventMarker.Shape))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Options converts the file settings into engine options.
func (c Config) Options(now time.Time) layout.Options {
	return layout.Options{
		Width:      float64(c.Layout.Width),
		LaneHeight: float64(c.Layout.LaneHeight),
		Margins: layout.Margins{
			Top:    float64(c.Layout.MarginTop),
			Right:  float64(c.Layout.MarginRight),
			Bottom: float64(c.Layout.MarginBottom),
			Left:   float64(c.Layout.MarginLeft),
		},
		Duration:   c.Animation.Duration,
		FontSize:   float64(c.Font.Size),
		StartDates: c.Labels.ShowStartDates,
		EndDates:   c.Labels.ShowEndDates,
		Logos:      c.Logos.Resolve,
		Proximity:  c.Labels.Proximity,
		Now:        now,
	}
}

// ActivityOptions converts the activity section into chart options.
func (c Config) ActivityOptions() activity.Options {
	opts := activity.DefaultOptions()
	opts.Width = float64(c.Activity.Width)
	opts.Height = float64(c.Activity.Height)
	opts.TickCount = c.Activity.TickCount
	opts.Duration = c.Animation.Duration
	return opts
}

// Style resolves the theme and applies the configured overrides.
func (c Config) Style() (render.Style, error) {
	base, err := render.Theme(c.Theme)
	if err != nil {
		return render.Style{}, err
	}
	return base.Override(render.Style{
		FontFamily: c.Font.Family,
		FontSize:   float64(c.Font.Size),
		Background: c.Colors.Background,
		Baseline:   c.Colors.Baseline,
		Item:       c.Colors.Items,
		Text:       c.Colors.Text,
		Subtitle:   c.Colors.Subtitle,
		Date:       c.Colors.Dates,
		Marker: render.Marker{
			Shape:       c.EventMarker.Shape,
			Size:        float64(c.EventMarker.Size),
			FillColor:   c.EventMarker.FillColor,
			StrokeColor: c.EventMarker.StrokeColor,
			StrokeWidth: float64(c.EventMarker.StrokeWidth),
		},
	}), nil
}
