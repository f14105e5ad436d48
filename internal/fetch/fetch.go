// Package fetch provides the pooled HTTP client shared by the feed and detail lookups,
// plus helpers for pulling embedded data out of HTML pages.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0"

// Result holds the raw response of a fetch.
type Result struct {
	URL         string
	Body        []byte
	ContentType string
	StatusCode  int
}

// Error represents an error during URL fetching.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the client.
type Options struct {
	Timeout           time.Duration
	UserAgent         string
	MaxConnsPerHost   int
	MaxIdleConns      int
	RequestsPerSecond float64 // 0 disables the limiter
	Burst             int
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:         DefaultTimeout,
		UserAgent:       DefaultUserAgent,
		MaxConnsPerHost: 20,
		MaxIdleConns:    10,
	}
}

// Request describes one GET call.
type Request struct {
	URL     string
	Query   url.Values
	Headers map[string]string
	Cookies []*http.Cookie
}

// Client is a pooled HTTP client. It is safe for concurrent use and is meant to
// live for exactly one pipeline run; call Close when the run ends.
type Client struct {
	http      *http.Client
	transport *http.Transport
	userAgent string
	limiter   *rate.Limiter
}

// NewClient creates a client with a bounded connection pool.
func NewClient(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	defaults := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if opts.MaxConnsPerHost <= 0 {
		opts.MaxConnsPerHost = defaults.MaxConnsPerHost
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = defaults.MaxIdleConns
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxConnsPerHost = opts.MaxConnsPerHost
	transport.MaxIdleConns = opts.MaxIdleConns
	transport.MaxIdleConnsPerHost = opts.MaxIdleConns

	c := &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		transport: transport,
		userAgent: opts.UserAgent,
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(opts.Burst, 1))
	}
	return c
}

// WithRateLimit returns a client sharing c's connection pool with its own limiter.
// Closing either client releases the shared pool.
func (c *Client) WithRateLimit(rps float64, burst int) *Client {
	derived := *c
	derived.limiter = nil
	if rps > 0 {
		derived.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
	return &derived
}

// Get performs a GET request and returns the full body.
// Any status code is returned in the Result; only transport failures produce an error.
func (c *Client) Get(ctx context.Context, req Request) (*Result, error) {
	parsedURL, err := url.Parse(req.URL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &Error{
			URL:     req.URL,
			Message: "invalid URL",
			Cause:   err,
		}
	}
	if len(req.Query) > 0 {
		parsedURL.RawQuery = req.Query.Encode()
	}
	target := parsedURL.String()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &Error{URL: target, Message: "rate limiter wait failed", Cause: err}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{
			URL:     target,
			Message: "failed to create request",
			Cause:   err,
		}
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	for _, cookie := range req.Cookies {
		httpReq.AddCookie(cookie)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &Error{
			URL:     target,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{
			URL:        target,
			Message:    "failed to read response body",
			StatusCode: resp.StatusCode,
			Cause:      err,
		}
	}

	return &Result{
		URL:         target,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}, nil
}

// Close releases pooled connections.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

// IsSuccess reports whether the status code is 2xx.
func (r *Result) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusError builds an *Error describing a non-success response.
func (r *Result) StatusError() error {
	return &Error{
		URL:        r.URL,
		Message:    fmt.Sprintf("HTTP status %d", r.StatusCode),
		StatusCode: r.StatusCode,
	}
}
