package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbitech/timeline2svg/internal/activity"
	"github.com/dbitech/timeline2svg/internal/cache"
	"github.com/dbitech/timeline2svg/internal/config"
	"github.com/dbitech/timeline2svg/internal/github"
)

const sampleCSV = `label,subtitle,start,end,logo
Acme,Engineer,2020-01,2021-06,https://acme.example/logo.png
Globex,Lead,2020-06,2021-01,
Initech,Staff,2021-07,,
`

var fixedNow = time.Date(2025, time.January, 1, 15, 30, 0, 0, time.UTC)

type fakeLogos struct {
	calls atomic.Int32
	refs  []string
}

func (f *fakeLogos) Resolve(_ context.Context, refs []string) map[string]string {
	f.calls.Add(1)
	f.refs = refs
	return map[string]string{refs[0]: "data:image/png;base64,AAAA"}
}

type fakeActivity struct {
	points   []activity.Point
	err      error
	from, to time.Time
	gotLogin string
}

func (f *fakeActivity) Contributions(_ context.Context, login string, from, to time.Time) ([]activity.Point, error) {
	f.gotLogin, f.from, f.to = login, from, to
	return f.points, f.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestServer(logos LogoResolver, act ActivitySource) *Server {
	return New(config.Default(), Deps{
		Cache:    cache.NewMemory(time.Hour),
		Logos:    logos,
		Activity: act,
		Log:      quietLogger(),
		Now:      func() time.Time { return fixedNow },
		MaxAge:   10 * time.Minute,
	})
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestTimeline(t *testing.T) {
	logos := &fakeLogos{}
	h := newTestServer(logos, nil).Handler()

	target := "/timeline?data=" + url.QueryEscape(sampleCSV) + "&width=900&theme=dark"
	rec := get(t, h, target)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=600", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))

	body := rec.Body.String()
	assert.Contains(t, body, `<svg width="900"`)
	assert.Contains(t, body, `fill="#0d1117"`)
	assert.Contains(t, body, "Initech")
	assert.Contains(t, body, "data:image/png;base64,AAAA")
	assert.Equal(t, []string{"https://acme.example/logo.png"}, logos.refs)

	again := get(t, h, target)
	assert.Equal(t, "hit", again.Header().Get("X-Cache"))
	assert.Equal(t, body, again.Body.String())
	assert.Equal(t, int32(1), logos.calls.Load())
}

func TestTimelinePost(t *testing.T) {
	h := newTestServer(nil, nil).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/timeline?logos=no&show_end=off", strings.NewReader(sampleCSV)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Acme")
	assert.NotContains(t, rec.Body.String(), ">2021-06</text>")
}

func TestTimelineNowDefaultsToMidnight(t *testing.T) {
	h := newTestServer(nil, nil).Handler()
	data := url.QueryEscape("label,start\nsolo,2025-01-01\n")

	implicit := get(t, h, "/timeline?data="+data)
	explicit := get(t, h, "/timeline?data="+data+"&now=2025-01-01")
	require.Equal(t, http.StatusOK, implicit.Code)
	require.Equal(t, http.StatusOK, explicit.Code)
	assert.Equal(t, implicit.Body.String(), explicit.Body.String())
}

func TestTimelineFractionalFontSize(t *testing.T) {
	h := newTestServer(nil, nil).Handler()
	data := url.QueryEscape(sampleCSV)

	for size, want := range map[string]string{
		"0.5":  ".title-text { font-family: Arial, sans-serif; font-size: 2.5px;",
		"13.5": ".title-text { font-family: Arial, sans-serif; font-size: 15.5px;",
	} {
		rec := get(t, h, "/timeline?data="+data+"&font_size="+size)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), want, size)
	}
}

func TestTimelineBadRequests(t *testing.T) {
	h := newTestServer(nil, nil).Handler()
	data := url.QueryEscape(sampleCSV)

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"no data", "/timeline", "missing CSV data"},
		{"width", "/timeline?width=-3&data=" + data, "invalid width"},
		{"narrow", "/timeline?width=50&data=" + data, "margins"},
		{"lane height", "/timeline?lane_height=abc&data=" + data, "invalid lane_height"},
		{"duration", "/timeline?duration=soon&data=" + data, "invalid duration"},
		{"bool", "/timeline?show_start=maybe&data=" + data, "invalid show_start"},
		{"now", "/timeline?now=yesterday&data=" + data, "invalid now"},
		{"theme", "/timeline?theme=neon&data=" + data, "unknown theme"},
		{"bad date", "/timeline?data=" + url.QueryEscape("label,start\nx,2020-13\n"), "invalid date format"},
		{"missing start", "/timeline?data=" + url.QueryEscape("label,start\nx,\n"), "missing required field"},
		{"missing column", "/timeline?data=" + url.QueryEscape("name,when\nx,2020\n"), "missing column"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestActivityFromGitHub(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, time.December, d, 0, 0, 0, 0, time.UTC) }
	src := &fakeActivity{points: []activity.Point{{Date: day(30), Count: 3}, {Date: day(31), Count: 9}}}
	h := newTestServer(nil, src).Handler()

	rec := get(t, h, "/activity?user=octocat&days=7")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "octocat", src.gotLogin)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), src.to)
	assert.Equal(t, time.Date(2024, time.December, 26, 0, 0, 0, 0, time.UTC), src.from)
	assert.Contains(t, rec.Body.String(), ">octocat</text>")
	assert.Equal(t, 2, strings.Count(rec.Body.String(), `<circle class="marker"`))
}

func TestActivityFromCSV(t *testing.T) {
	h := newTestServer(nil, nil).Handler()
	rec := get(t, h, "/activity?data="+url.QueryEscape("date,count\n2024-03-01,1\n2024-03-02,4\n"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "2024-03-02</text>")
}

func TestActivityLargeCountsRender(t *testing.T) {
	src := &fakeActivity{points: []activity.Point{
		{Date: time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC), Count: math.MaxInt - 1},
		{Date: time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), Count: 0},
	}}
	rec := get(t, newTestServer(nil, src).Handler(), "/activity?user=octocat")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), fmt.Sprintf(">%d</text>", math.MaxInt-1))
}

func TestActivityErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    ActivitySource
		target string
		want   int
	}{
		{"no user", &fakeActivity{}, "/activity", http.StatusBadRequest},
		{"days", &fakeActivity{}, "/activity?user=x&days=1000", http.StatusBadRequest},
		{"bad csv", nil, "/activity?data=" + url.QueryEscape("date,count\n2024-03-01,lots\n"), http.StatusBadRequest},
		{"huge count", nil, "/activity?data=" + url.QueryEscape("date,count\n2024-01-01,9223372036854775806\n"), http.StatusBadRequest},
		{"negative count", nil, "/activity?data=" + url.QueryEscape("date,count\n2024-01-01,-3\n"), http.StatusBadRequest},
		{"no source", nil, "/activity?user=x", http.StatusServiceUnavailable},
		{"not found", &fakeActivity{err: fmt.Errorf("%w: x", github.ErrUserNotFound)}, "/activity?user=x", http.StatusNotFound},
		{"upstream", &fakeActivity{err: fmt.Errorf("%w: status 502", github.ErrUpstream)}, "/activity?user=x", http.StatusBadGateway},
		{"other", &fakeActivity{err: errors.New("boom")}, "/activity?user=x", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestServer(nil, tt.src).Handler(), tt.target)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestHealthAndRouting(t *testing.T) {
	h := newTestServer(nil, nil).Handler()
	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/timeline", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStartShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newTestServer(nil, nil).Start(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
