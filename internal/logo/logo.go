// Package logo turns logo references into data URIs that can be embedded in an SVG.
//
// Fetching is best effort: any failure, including the overall timeout, just leaves the
// reference out of the result and the renderer falls back to a plain marker.
package logo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/dbitech/timeline2svg/internal/diag"
)

const (
	DefaultTimeout     = 3 * time.Second
	DefaultMaxBytes    = 512 << 10
	DefaultConcurrency = 4
)

var (
	ErrNotImage       = errors.New("not an image")
	ErrTooLarge       = errors.New("logo too large")
	ErrPrivateAddress = errors.New("refusing to connect to a non-public address")
)

// sharedAddressSpace is the carrier-grade NAT range, which netip does not count as private.
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// Resolver fetches logos concurrently.
type Resolver struct {
	client      *retryablehttp.Client
	timeout     time.Duration
	maxBytes    int64
	concurrency int
	log         diag.Logger
}

// NewResolver returns a resolver whose whole Resolve call is bounded by timeout. A
// non-positive timeout uses DefaultTimeout.
func NewResolver(timeout time.Duration, logger diag.Logger) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := retryablehttp.NewClient()
	client.Logger = log.New(io.Discard, "", 0)
	client.RetryMax = 2
	client.RetryWaitMin = 50 * time.Millisecond
	client.RetryWaitMax = 500 * time.Millisecond

	return &Resolver{
		client:      client,
		timeout:     timeout,
		maxBytes:    DefaultMaxBytes,
		concurrency: DefaultConcurrency,
		log:         diag.OrNop(logger),
	}
}

// DenyPrivateNetworks makes the resolver refuse to connect to loopback, private, link-local
// and other non-public addresses. The check runs on the resolved address at dial time, so it
// also covers redirects and host names pointing inward.
func (r *Resolver) DenyPrivateNetworks() *Resolver {
	t, ok := r.client.HTTPClient.Transport.(*http.Transport)
	if !ok {
		t = http.DefaultTransport.(*http.Transport).Clone()
		r.client.HTTPClient.Transport = t
	}
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   publicOnly,
	}
	t.Proxy = nil
	t.DialContext = dialer.DialContext
	r.client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if errors.Is(err, ErrPrivateAddress) {
			return false, err
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	return r
}

// publicOnly is a net.Dialer Control hook rejecting non-public destinations.
func publicOnly(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, address)
	}
	ip = ip.Unmap()
	if !ip.IsGlobalUnicast() || ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsInterfaceLocalMulticast() || sharedAddressSpace.Contains(ip) {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, address)
	}
	return nil
}

// Resolve returns data URIs keyed by reference. Duplicate and empty references are fetched
// once or not at all; references that are already data URIs are passed through.
func (r *Resolver) Resolve(ctx context.Context, refs []string) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	seen := make(map[string]bool, len(refs))
	type result struct{ ref, uri string }
	results := make(chan result, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, ref := range refs {
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		if strings.HasPrefix(ref, "data:") {
			results <- result{ref, ref}
			continue
		}
		g.Go(func() error {
			uri, err := r.fetch(gctx, ref, true)
			if err != nil {
				r.log.Warnf("logo %s: %v", ref, err)
				return nil
			}
			results <- result{ref, uri}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	out := make(map[string]string, len(seen))
	for res := range results {
		out[res.ref] = res.uri
	}
	return out
}

// fetch downloads ref. When it is an HTML page and follow is set, the page's icon is fetched
// instead.
func (r *Resolver) fetch(ctx context.Context, ref string, follow bool) (string, error) {
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("unsupported logo reference %q", ref)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "image/*,text/html;q=0.5")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(body)) > r.maxBytes {
		return "", ErrTooLarge
	}

	mediaType := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = mt
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = http.DetectContentType(body)
		if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
			mediaType = mt
		}
	}

	switch {
	case strings.HasPrefix(mediaType, "image/"):
		r.log.Debugf("logo %s: %d bytes of %s", ref, len(body), mediaType)
		return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(body), nil

	case mediaType == "text/html" && follow:
		icon, ok := findIcon(string(body))
		if !ok {
			return "", fmt.Errorf("%w: page has no icon", ErrNotImage)
		}
		next, err := u.Parse(icon)
		if err != nil {
			return "", err
		}
		return r.fetch(ctx, next.String(), false)

	default:
		return "", fmt.Errorf("%w: %s", ErrNotImage, mediaType)
	}
}

// findIcon returns the best icon reference in an HTML page: an apple-touch-icon, then any
// rel=icon link, then og:image.
func findIcon(page string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", false
	}

	var touch, icon, og string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "link":
				rel := strings.ToLower(attr(n, "rel"))
				href := attr(n, "href")
				if href == "" {
					break
				}
				for _, r := range strings.Fields(rel) {
					switch r {
					case "apple-touch-icon":
						if touch == "" {
							touch = href
						}
					case "icon":
						if icon == "" {
							icon = href
						}
					}
				}
			case "meta":
				if attr(n, "property") == "og:image" && og == "" {
					og = attr(n, "content")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, v := range []string{touch, icon, og} {
		if v != "" {
			return v, true
		}
	}
	return "", false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
