package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dbitech/timeline2svg/internal/interval"
)

// Query parameters arrive as strings; each helper leaves dst untouched when the parameter is
// absent and reports a badRequest error when it is present but unusable.

type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func badParam(name, value, want string) error {
	return &badRequest{fmt.Sprintf("invalid %s %q: want %s", name, value, want)}
}

func positiveFloat(q url.Values, name string, dst *float64) error {
	v := q.Get(name)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return badParam(name, v, "a positive number")
	}
	*dst = f
	return nil
}

func positiveInt(q url.Values, name string, dst *int, maxValue int) error {
	v := q.Get(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > maxValue {
		return badParam(name, v, fmt.Sprintf("an integer between 1 and %d", maxValue))
	}
	*dst = n
	return nil
}

// boolean accepts the usual strconv forms plus yes/no and on/off.
func boolean(q url.Values, name string, dst *bool) error {
	v := strings.ToLower(q.Get(name))
	switch v {
	case "":
		return nil
	case "yes", "on":
		*dst = true
		return nil
	case "no", "off":
		*dst = false
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return badParam(name, v, "a boolean")
	}
	*dst = b
	return nil
}

// duration accepts Go durations ("2500ms", "3s") or a bare number of milliseconds.
func duration(q url.Values, name string, dst *time.Duration) error {
	v := q.Get(name)
	if v == "" {
		return nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		if ms < 0 {
			return badParam(name, v, "a non-negative duration")
		}
		*dst = time.Duration(ms) * time.Millisecond
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return badParam(name, v, "a non-negative duration")
	}
	*dst = d
	return nil
}

func date(q url.Values, name string, dst *time.Time) error {
	v := q.Get(name)
	if v == "" {
		return nil
	}
	t, err := interval.ParseDate(v)
	if err != nil {
		return badParam(name, v, "YYYY, YYYY-MM or YYYY-MM-DD")
	}
	*dst = t
	return nil
}
