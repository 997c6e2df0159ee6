package server

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dbitech/timeline2svg/internal/activity"
	"github.com/dbitech/timeline2svg/internal/cache"
	"github.com/dbitech/timeline2svg/internal/github"
	"github.com/dbitech/timeline2svg/internal/interval"
	"github.com/dbitech/timeline2svg/internal/layout"
	"github.com/dbitech/timeline2svg/internal/render"
)

const (
	maxBodyBytes = 1 << 20
	maxDays      = 366
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

// today is the default reference instant: midnight UTC, so cached widgets stay valid for the
// whole day.
func (s *Server) today() time.Time {
	return s.deps.Now().UTC().Truncate(24 * time.Hour)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	data := q.Get("data")
	if r.Method == http.MethodPost {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if err != nil {
			s.fail(w, err)
			return
		}
		if len(body) > maxBodyBytes {
			s.fail(w, &badRequest{"request body too large"})
			return
		}
		data = string(body)
	}
	if strings.TrimSpace(data) == "" {
		s.fail(w, &badRequest{"missing CSV data"})
		return
	}

	cfg := s.cfg
	opts := cfg.Options(s.today())
	fontSize := float64(cfg.Font.Size)
	for _, err := range []error{
		positiveFloat(q, "width", &opts.Width),
		positiveFloat(q, "lane_height", &opts.LaneHeight),
		positiveFloat(q, "font_size", &fontSize),
		duration(q, "duration", &opts.Duration),
		boolean(q, "show_start", &opts.StartDates),
		boolean(q, "show_end", &opts.EndDates),
		boolean(q, "logos", &opts.Logos),
		date(q, "now", &opts.Now),
	} {
		if err != nil {
			s.fail(w, err)
			return
		}
	}
	if opts.Width <= opts.Margins.Left+opts.Margins.Right {
		s.fail(w, &badRequest{"width is smaller than the margins"})
		return
	}
	if t := q.Get("theme"); t != "" {
		cfg.Theme = t
	}
	opts.FontSize = fontSize
	if s.deps.Logos == nil {
		opts.Logos = false
	}

	style, err := cfg.Style()
	if err != nil {
		s.fail(w, &badRequest{err.Error()})
		return
	}
	style.FontSize = fontSize

	key := cache.Key("timeline", data,
		fmt.Sprintf("%v|%v|%v|%v|%v|%v|%v|%v", opts.Width, opts.LaneHeight, fontSize, opts.Duration,
			opts.StartDates, opts.EndDates, opts.Logos, opts.Now.Format(time.RFC3339)),
		cfg.Theme)
	if s.serveCached(w, r, key) {
		return
	}

	recs, err := interval.ReadCSV(strings.NewReader(data), cfg.Columns)
	if err != nil {
		s.fail(w, err)
		return
	}
	res, err := layout.FromRecords(recs, opts)
	if err != nil {
		s.fail(w, err)
		return
	}

	var logos map[string]string
	if refs := res.LogoRefs(); opts.Logos && len(refs) > 0 {
		logos = s.deps.Logos.Resolve(r.Context(), refs)
	}

	s.deps.Log.Debugf("timeline: %d items in %d lanes", len(res.Items), res.LaneCount)
	s.serveSVG(w, r, key, render.Timeline(res, style, logos))
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cfg := s.cfg
	days := cfg.Activity.Days
	if err := positiveInt(q, "days", &days, maxDays); err != nil {
		s.fail(w, err)
		return
	}
	if t := q.Get("theme"); t != "" {
		cfg.Theme = t
	}
	style, err := cfg.Style()
	if err != nil {
		s.fail(w, &badRequest{err.Error()})
		return
	}

	user, data := q.Get("user"), q.Get("data")
	if user == "" && data == "" {
		s.fail(w, &badRequest{"missing user or data"})
		return
	}

	to := s.today()
	key := cache.Key("activity", user, data, fmt.Sprint(days), to.Format(time.DateOnly), cfg.Theme)
	if s.serveCached(w, r, key) {
		return
	}

	var points []activity.Point
	title := cfg.Activity.Title
	if data != "" {
		points, err = activity.ReadCSV(strings.NewReader(data))
	} else {
		if s.deps.Activity == nil {
			err = github.ErrNoToken
		} else {
			points, err = s.deps.Activity.Contributions(r.Context(), user, to.AddDate(0, 0, -(days-1)), to)
		}
		if title == "" {
			title = user
		}
	}
	if err != nil {
		s.fail(w, err)
		return
	}

	chart := activity.Layout(points, cfg.ActivityOptions())
	s.serveSVG(w, r, key, render.Activity(chart, style, title))
}

func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, key string) bool {
	body, ok, err := s.deps.Cache.Get(r.Context(), key)
	if err != nil {
		s.deps.Log.Warnf("cache get: %v", err)
		return false
	}
	if !ok {
		return false
	}
	w.Header().Set("X-Cache", "hit")
	s.writeSVG(w, body)
	return true
}

func (s *Server) serveSVG(w http.ResponseWriter, r *http.Request, key, svg string) {
	body := []byte(svg)
	if err := s.deps.Cache.Set(r.Context(), key, body); err != nil {
		s.deps.Log.Warnf("cache set: %v", err)
	}
	w.Header().Set("X-Cache", "miss")
	s.writeSVG(w, body)
}

func (s *Server) writeSVG(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(s.deps.MaxAge.Seconds())))
	_, _ = w.Write(body)
}

// statusFor maps an error to its HTTP status: bad input is the caller's fault, upstream
// failures are a bad gateway, anything else is ours.
func statusFor(err error) int {
	var br *badRequest
	var pe *interval.ParseError
	var ce *csv.ParseError
	switch {
	case errors.As(err, &br), errors.As(err, &pe), errors.As(err, &ce),
		errors.Is(err, interval.ErrMissingColumn),
		errors.Is(err, interval.ErrMissingRequiredField),
		errors.Is(err, interval.ErrInvalidDateFormat):
		return http.StatusBadRequest
	case errors.Is(err, github.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, github.ErrNoToken):
		return http.StatusServiceUnavailable
	case errors.Is(err, github.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.deps.Log.Errorf("request failed: %v", err)
	}
	http.Error(w, err.Error(), status)
}
