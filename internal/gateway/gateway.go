package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/goitinerary/internal/robots"
)

// ErrRobotsDisallowed marks fetches rejected by the target's robots.txt.
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// Content is the outcome of a policy-checked fetch. ContentLength reflects the
// body after sanitization, not the declared header.
type Content struct {
	Body          string
	ContentType   string
	ContentLength int
}

// Client performs policy-checked HTTP fetches: robots.txt compliance, timeout
// enforcement, content-type allow-listing, a byte ceiling, and HTML
// sanitization. There is no cache and no retry; every call re-fetches.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// Timeout bounds each request including the robots.txt probe. Zero means 10s.
	Timeout time.Duration
	// MaxContentBytes caps declared and actual body size. Zero means 5MB.
	MaxContentBytes int64
	// AllowedContentTypes is matched by substring against the Content-Type
	// header. Empty means text/html, text/plain, application/json.
	AllowedContentTypes []string
	// RedirectMaxHops caps redirect following. Zero means default (5).
	RedirectMaxHops int
	// SkipRobots disables the robots.txt check.
	SkipRobots bool
	// SkipSanitize returns HTML bodies unmodified.
	SkipSanitize bool
}

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxBytes = 5 * 1024 * 1024
)

var defaultAllowedTypes = []string{"text/html", "text/plain", "application/json"}

// SafeFetch retrieves the URL subject to every configured policy, returning a
// descriptive error when any check fails.
func (c *Client) SafeFetch(ctx context.Context, rawURL string) (Content, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Content{}, fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return Content{}, fmt.Errorf("unsupported URL scheme: %q", rawURL)
	}

	if !c.SkipRobots && !c.CanFetch(ctx, u) {
		return Content{}, fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
	}

	resp, err := c.do(ctx, rawURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return Content{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Content{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !c.isAllowedContentType(contentType) {
		return Content{}, fmt.Errorf("unsupported content type: %s", contentType)
	}

	maxBytes := c.maxBytes()
	if declared := resp.Header.Get("Content-Length"); declared != "" {
		if n, err := strconv.ParseInt(declared, 10, 64); err == nil && n > maxBytes {
			return Content{}, fmt.Errorf("content too large: %d bytes", n)
		}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return Content{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return Content{}, fmt.Errorf("content too large: over %d bytes", maxBytes)
	}

	text := string(body)
	if !c.SkipSanitize && strings.Contains(strings.ToLower(contentType), "html") {
		text = SanitizeHTML(text)
	}
	return Content{Body: text, ContentType: contentType, ContentLength: len(text)}, nil
}

// CanFetch checks {origin}/robots.txt for the client's user agent. A failed or
// non-2xx robots fetch permits the URL: availability wins over strict
// compliance here (fail-open).
func (c *Client) CanFetch(ctx context.Context, u *url.URL) bool {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	resp, err := c.do(ctx, robotsURL, "text/plain,*/*;q=0.8")
	if err != nil {
		log.Warn().Err(err).Str("url", robotsURL).Msg("robots.txt fetch failed; permitting")
		return true
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return true
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes()))
	if err != nil {
		return true
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return robots.Allowed(robots.Parse(string(body)), c.UserAgent, path)
}

func (c *Client) do(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		cancel()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("timeout fetching %s: %w", rawURL, err)
		}
		return nil, err
	}
	// Tie the cancel to body close so the deadline covers the body read too.
	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{CheckRedirect: c.checkRedirectFunc()}
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func (c *Client) isAllowedContentType(ct string) bool {
	allowed := c.AllowedContentTypes
	if len(allowed) == 0 {
		allowed = defaultAllowedTypes
	}
	lower := strings.ToLower(ct)
	for _, a := range allowed {
		if strings.Contains(lower, strings.ToLower(a)) {
			return true
		}
	}
	return false
}

func (c *Client) maxBytes() int64 {
	if c.MaxContentBytes > 0 {
		return c.MaxContentBytes
	}
	return defaultMaxBytes
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
