// Package github fetches a user's daily contribution counts for the activity chart.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/dbitech/timeline2svg/internal/activity"
	"github.com/dbitech/timeline2svg/internal/diag"
)

const DefaultEndpoint = "https://api.github.com/graphql"

var (
	// ErrUpstream marks failures of the GitHub API itself, as opposed to bad input.
	ErrUpstream     = errors.New("github api error")
	ErrUserNotFound = errors.New("github user not found")
	ErrNoToken      = errors.New("github token not configured")
)

const contributionsQuery = `query($login: String!, $from: DateTime!, $to: DateTime!) {
  user(login: $login) {
    contributionsCollection(from: $from, to: $to) {
      contributionCalendar {
        weeks { contributionDays { date contributionCount } }
      }
    }
  }
}`

type Client struct {
	http     *retryablehttp.Client
	endpoint string
	token    string
	log      diag.Logger
}

// NewClient returns a client for endpoint; an empty endpoint means the public API.
func NewClient(endpoint, token string, logger diag.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	rc := retryablehttp.NewClient()
	rc.Logger = log.New(io.Discard, "", 0)
	rc.RetryMax = 3
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = 15 * time.Second

	return &Client{http: rc, endpoint: endpoint, token: token, log: diag.OrNop(logger)}
}

// Contributions returns one point per calendar day between from and to, in date order.
func (c *Client) Contributions(ctx context.Context, login string, from, to time.Time) ([]activity.Point, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}

	payload, err := json.Marshal(map[string]any{
		"query": contributionsQuery,
		"variables": map[string]string{
			"login": login,
			"from":  from.UTC().Format(time.RFC3339),
			"to":    to.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	c.log.Debugf("fetching contributions for %s from %s to %s", login, from.Format(time.DateOnly), to.Format(time.DateOnly))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, gjson.GetBytes(body, "message").Str)
	}

	return parseCalendar(body, login)
}

func parseCalendar(body []byte, login string) ([]activity.Point, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON response", ErrUpstream)
	}
	res := gjson.ParseBytes(body)

	if errs := res.Get("errors"); errs.Exists() && len(errs.Array()) > 0 {
		first := errs.Array()[0]
		if first.Get("type").Str == "NOT_FOUND" {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, login)
		}
		return nil, fmt.Errorf("%w: %s", ErrUpstream, first.Get("message").Str)
	}

	user := res.Get("data.user")
	if !user.Exists() || user.Type == gjson.Null {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, login)
	}

	var out []activity.Point
	var parseErr error
	user.Get("contributionsCollection.contributionCalendar.weeks.#.contributionDays|@flatten").ForEach(func(_, day gjson.Result) bool {
		d, err := time.Parse(time.DateOnly, day.Get("date").Str)
		if err != nil {
			parseErr = fmt.Errorf("%w: bad date %q", ErrUpstream, day.Get("date").Str)
			return false
		}
		out = append(out, activity.Point{Date: d, Count: int(day.Get("contributionCount").Int())})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return out, nil
}
