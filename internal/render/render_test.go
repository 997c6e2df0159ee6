package render

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbitech/timeline2svg/internal/activity"
	"github.com/dbitech/timeline2svg/internal/anim"
	"github.com/dbitech/timeline2svg/internal/interval"
	"github.com/dbitech/timeline2svg/internal/labels"
	"github.com/dbitech/timeline2svg/internal/layout"
)

var fixedNow = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// wellFormed decodes the whole document so unbalanced tags or bad escapes fail the test.
func wellFormed(t *testing.T, doc string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return
		}
		require.NoError(t, err)
	}
}

func scenario(t *testing.T) layout.Result {
	t.Helper()
	opts := layout.DefaultOptions(fixedNow)
	opts.Duration = 10 * time.Second
	res, err := layout.FromRecords([]interval.Record{
		{Label: "C & Co", Start: "2021-07", Decoration: "https://c/logo.png"},
		{Label: "A", Subtitle: "<first>", Start: "2020-01", End: "2021-06"},
		{Label: "B", Start: "2020-06", End: "2021-01", Color: "#ff0000"},
	}, opts)
	require.NoError(t, err)
	return res
}

func TestTimeline(t *testing.T) {
	style, err := Theme("light")
	require.NoError(t, err)

	out := Timeline(scenario(t), style, map[string]string{"https://c/logo.png": "data:image/png;base64,AAAA"})
	wellFormed(t, out)

	assert.Contains(t, out, `<svg width="800" height="160"`)
	assert.Contains(t, out, "C &amp; Co")
	assert.Contains(t, out, "&lt;first&gt;")
	assert.Contains(t, out, `stroke="#ff0000"`)

	// Baseline dash equals its exact length.
	assert.Contains(t, out, `class="baseline" d="M40,100 L760,100" fill="none" stroke="#333333" stroke-dasharray="720" stroke-dashoffset="720"`)

	// Only B sits off the baseline with an end, so exactly one closing connector.
	assert.Equal(t, 1, strings.Count(out, `class="closing"`))
	assert.Contains(t, out, `animation: draw 1250ms linear 5000ms forwards`)

	// C has a resolved logo; A and B get markers.
	assert.Contains(t, out, `clip-path="url(#logo-clip-0)"`)
	assert.Equal(t, 2, strings.Count(out, `class="marker"`))

	// No end label for the ongoing item.
	assert.NotContains(t, out, "Present")
	assert.Contains(t, out, ">2021-01</text>")
	assert.NotContains(t, out, ">2021-06</text>", "12px from the start label of C")
}

// textY maps the content of every <text> with the given class to its y attribute.
func textY(t *testing.T, doc, class string) map[string]float64 {
	t.Helper()
	out := map[string]float64{}
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		el, ok := tok.(xml.StartElement)
		if !ok || el.Name.Local != "text" {
			continue
		}
		var cls, y string
		for _, a := range el.Attr {
			switch a.Name.Local {
			case "class":
				cls = a.Value
			case "y":
				y = a.Value
			}
		}
		if !strings.Contains(cls, class) {
			continue
		}
		var content string
		require.NoError(t, dec.DecodeElement(&content, &el))
		v, err := strconv.ParseFloat(y, 64)
		require.NoError(t, err)
		out[content] = v
	}
}

func TestTimelineDatesFollowAnchor(t *testing.T) {
	style, _ := Theme("light")
	res := scenario(t)
	out := Timeline(res, style, nil)

	dates := textY(t, out, "date-text")
	titles := textY(t, out, "title-text")
	for _, it := range res.Items {
		if !it.ShowStartLabel {
			continue
		}
		y, ok := dates[it.Interval.StartText]
		require.True(t, ok, it.Interval.StartText)
		if it.Anchor == labels.Above {
			assert.Less(t, y, res.BaselineY, "%s is anchored above", it.Interval.Label)
		} else {
			assert.Greater(t, y, res.BaselineY, "%s is anchored below", it.Interval.Label)
		}
	}

	// A sits on the baseline: its date is at 100+10+6 and its title clears it.
	assert.Equal(t, 116.0, dates["2020-01"])
	assert.Equal(t, 94.0, dates["2020-06"])
	assert.Greater(t, titles["A"], dates["2020-01"]+style.FontSize-2)
}

func TestTimelineEscapesColors(t *testing.T) {
	res, err := layout.FromRecords([]interval.Record{
		{Label: "x", Start: "2020", End: "2021", Color: `red"/><script>alert(1)</script><x a="`},
	}, layout.DefaultOptions(fixedNow))
	require.NoError(t, err)

	style, _ := Theme("light")
	style.Background = `#fff"><script>alert(2)</script>`
	out := Timeline(res, style, nil)
	wellFormed(t, out)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `stroke="red&quot;/&gt;&lt;script&gt;alert(1)&lt;/script&gt;&lt;x a=&quot;"`)
}

func TestTimelineSmallFontSizes(t *testing.T) {
	style, _ := Theme("light")
	style.FontSize = 0.5
	out := Timeline(scenario(t), style, nil)
	assert.Contains(t, out, ".title-text { font-family: Arial, sans-serif; font-size: 2.5px;")
	assert.Contains(t, out, ".date-text { font-family: Arial, sans-serif; font-size: 1px;")
}

func TestTimelineLogoMissingFallsBackToMarker(t *testing.T) {
	style, _ := Theme("")
	out := Timeline(scenario(t), style, nil)
	wellFormed(t, out)
	assert.NotContains(t, out, "<clipPath")
	assert.Equal(t, 3, strings.Count(out, `class="marker"`))
}

func TestTimelineEmpty(t *testing.T) {
	style, _ := Theme("dark")
	out := Timeline(layout.Compute(nil, layout.DefaultOptions(fixedNow)), style, nil)
	wellFormed(t, out)
	assert.Contains(t, out, `fill="#0d1117"`)
	assert.NotContains(t, out, `class="item"`)
}

func TestDrawEventMarker(t *testing.T) {
	tests := []struct {
		shape string
		want  string
	}{
		{"circle", `<circle cx="10" cy="20" r="4"`},
		{"square", `<rect x="6" y="16" width="8" height="8"`},
		{"diamond", `<polygon points="10,16 14,20 10,24 6,20"`},
		{"triangle", `<polygon points="10,14 6,23 14,23"`},
		{"hexagon", `<circle cx="10" cy="20" r="4"`},
	}
	for _, tt := range tests {
		t.Run(tt.shape, func(t *testing.T) {
			var b strings.Builder
			drawEventMarker(&b, 10, 20, Marker{Shape: tt.shape, Size: 4, FillColor: "#000", StrokeColor: "#fff", StrokeWidth: 1}, 0)
			assert.True(t, strings.HasPrefix(b.String(), tt.want), b.String())
		})
	}
}

func TestEscapeXML(t *testing.T) {
	assert.Equal(t, "&lt;a href=&quot;x&quot;&gt;Tom &amp; Jerry&apos;s&lt;/a&gt;", escapeXML(`<a href="x">Tom & Jerry's</a>`))
}

func TestNum(t *testing.T) {
	assert.Equal(t, "1.5", num(1.5))
	assert.Equal(t, "3.33", num(10.0/3))
	assert.Equal(t, "720", num(720))
	assert.Equal(t, "937.5", ms(937500*time.Microsecond))
}

func TestPathData(t *testing.T) {
	assert.Equal(t, "M0,0 L3,4 L3,0", pathData([]anim.Point{{X: 0, Y: 0}, {X: 3, Y: 4}, {X: 3, Y: 0}}))
}

func TestThemeOverride(t *testing.T) {
	_, err := Theme("neon")
	require.Error(t, err)

	s, err := Theme("LIGHT")
	require.NoError(t, err)
	o := s.Override(Style{Background: "#000000", FontSize: 16, Marker: Marker{Shape: "diamond"}})
	assert.Equal(t, "#000000", o.Background)
	assert.Equal(t, 16.0, o.FontSize)
	assert.Equal(t, "diamond", o.Marker.Shape)
	assert.Equal(t, s.Text, o.Text)
}

func TestActivity(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC) }
	c := activity.Layout([]activity.Point{{Date: day(1), Count: 2}, {Date: day(2), Count: 8}, {Date: day(3), Count: 5}}, activity.DefaultOptions())
	style, _ := Theme("light")

	out := Activity(c, style, "Contributions & reviews")
	wellFormed(t, out)
	assert.Contains(t, out, "Contributions &amp; reviews")
	assert.Equal(t, 3, strings.Count(out, `<circle class="marker"`))
	assert.Equal(t, 5, strings.Count(out, `class="grid"`))
	assert.Contains(t, out, "2024-03-01</text>")
	assert.Contains(t, out, `class="line"`)
}
