// Package interval turns raw timeline rows into typed intervals with partial-precision dates.
package interval

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrMissingRequiredField is returned when a row has no start date.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrInvalidDateFormat is returned when a date is not YYYY, YYYY-MM or YYYY-MM-DD,
	// or names a day that does not exist.
	ErrInvalidDateFormat = errors.New("invalid date format")
	// ErrMissingColumn is returned when a CSV header lacks a required column.
	ErrMissingColumn = errors.New("missing column")
)

// ParseError reports which row and field failed to parse.
type ParseError struct {
	Row   int    // Zero-based row index in input order
	Field string // Column that failed, e.g. "start"
	Value string // Raw text that failed
	Err   error  // Usually one of the sentinel errors above
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("row %d: %s: %v", e.Row, e.Field, e.Err)
	}
	return fmt.Sprintf("row %d: %s %q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Record is one raw input row. Only Start and End are interpreted.
type Record struct {
	Label      string
	Subtitle   string
	Start      string
	End        string
	Decoration string // Logo URL or other decoration reference
	Color      string
}

// Interval is a parsed Record.
type Interval struct {
	ID            int // Ordinal in input order, used for tie-breaking and element ids
	Label         string
	Subtitle      string
	DecorationRef string
	ColorHint     string

	Start  time.Time
	End    time.Time // Meaningful only when HasEnd is true
	HasEnd bool

	StartText string // Date as written, e.g. "2024"
	EndText   string
}

// Ongoing reports whether the interval has no end date.
func (iv Interval) Ongoing() bool {
	return !iv.HasEnd
}

// EffectiveEnd returns End, or now for ongoing intervals.
func (iv Interval) EffectiveEnd(now time.Time) time.Time {
	if iv.HasEnd {
		return iv.End
	}
	return now
}

var dateRe = regexp.MustCompile(`^(\d{4})(?:-(\d{2})(?:-(\d{2}))?)?$`)

// ParseDate resolves YYYY, YYYY-MM or YYYY-MM-DD to midnight UTC on the first day of the
// unit it names.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, ErrInvalidDateFormat
	}

	year, _ := strconv.Atoi(m[1])
	month, day := 1, 1
	if m[2] != "" {
		month, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		day, _ = strconv.Atoi(m[3])
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, ErrInvalidDateFormat
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2), so a mismatch means the day is invalid.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, ErrInvalidDateFormat
	}
	return t, nil
}

// Parse converts records to intervals in input order. The first bad row aborts the whole
// parse; no partial result is returned.
func Parse(records []Record) ([]Interval, error) {
	out := make([]Interval, 0, len(records))
	for i, rec := range records {
		iv, err := parseRecord(i, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, nil
}

func parseRecord(row int, rec Record) (Interval, error) {
	startText := strings.TrimSpace(rec.Start)
	endText := strings.TrimSpace(rec.End)

	if startText == "" {
		return Interval{}, &ParseError{Row: row, Field: "start", Err: ErrMissingRequiredField}
	}
	start, err := ParseDate(startText)
	if err != nil {
		return Interval{}, &ParseError{Row: row, Field: "start", Value: startText, Err: err}
	}

	iv := Interval{
		ID:            row,
		Label:         rec.Label,
		Subtitle:      rec.Subtitle,
		DecorationRef: rec.Decoration,
		ColorHint:     rec.Color,
		Start:         start,
		StartText:     startText,
	}

	if endText != "" {
		end, err := ParseDate(endText)
		if err != nil {
			return Interval{}, &ParseError{Row: row, Field: "end", Value: endText, Err: err}
		}
		iv.End = end
		iv.HasEnd = true
		iv.EndText = endText
	}
	return iv, nil
}
