package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/wins-exporter/internal/fetch"
	"github.com/jonathan/wins-exporter/internal/jsontree"
	"github.com/jonathan/wins-exporter/internal/retry"
	"github.com/jonathan/wins-exporter/internal/types"
)

// PageSize is the number of items requested per feed page.
const PageSize = 100

// SessionCookieName carries the feed credential.
const SessionCookieName = "__Secure-next-auth.session-token"

// DefaultBaseURL is the upstream site root.
const DefaultBaseURL = "https://www.alphabot.app"

// PageSource returns one page of raw feed items, newest first.
type PageSource interface {
	FetchPage(ctx context.Context, authToken string, page int) ([]*jsontree.Value, error)
}

// Fetcher walks the feed until the cutoff is crossed.
type Fetcher struct {
	source PageSource
	policy retry.Policy
	logger *zap.Logger
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithPolicy overrides the per-page retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(f *Fetcher) { f.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFetcher creates a Fetcher reading from source.
func NewFetcher(source PageSource, opts ...Option) *Fetcher {
	f := &Fetcher{
		source: source,
		policy: retry.FeedPolicy,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchFeed returns every record picked at or after cutoff, newest first.
//
// Pages are requested from 0 upwards. Walking stops on an empty page, on a short
// page, or once a page's oldest non-zero pick falls before cutoff. An *AuthError is
// returned immediately; other page failures are retried and then returned.
func (f *Fetcher) FetchFeed(ctx context.Context, authToken string, cutoff time.Time) ([]types.BaseRecord, error) {
	if strings.TrimSpace(authToken) == "" {
		return nil, &AuthError{}
	}

	cutoffMs := cutoff.UnixMilli()
	records := []types.BaseRecord{}

	for page := 0; ; page++ {
		items, err := retry.Do(ctx, f.policy, func(ctx context.Context) ([]*jsontree.Value, error) {
			items, err := f.source.FetchPage(ctx, authToken, page)
			var authErr *AuthError
			if errors.As(err, &authErr) {
				return nil, retry.Permanent(err)
			}
			return items, err
		})
		if err != nil {
			var authErr *AuthError
			if errors.As(err, &authErr) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to fetch feed page %d: %w", page, err)
		}
		if len(items) == 0 {
			break
		}

		var minPicked int64
		kept := 0
		for i, item := range items {
			picked := PickedMillis(item)
			if i == 0 || picked < minPicked {
				minPicked = picked
			}
			if picked >= cutoffMs {
				records = append(records, ToBaseRecord(item))
				kept++
			}
		}

		f.logger.Debug("feed: page fetched",
			zap.Int("page", page),
			zap.Int("items", len(items)),
			zap.Int("kept", kept),
		)

		if minPicked != 0 && minPicked < cutoffMs {
			break
		}
		if len(items) < PageSize {
			break
		}
	}

	return records, nil
}

// HTTPSource fetches feed pages from the projects API.
type HTTPSource struct {
	client  *fetch.Client
	baseURL string
}

// NewHTTPSource creates an HTTPSource. An empty baseURL uses DefaultBaseURL.
func NewHTTPSource(client *fetch.Client, baseURL string) *HTTPSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPSource{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// PageQuery returns the query parameters for a page request.
func PageQuery(page int) url.Values {
	q := url.Values{}
	q.Set("sort", "newest")
	q.Set("scope", "all")
	q.Set("showHidden", "false")
	q.Set("pageSize", strconv.Itoa(PageSize))
	q.Set("pageNum", strconv.Itoa(page))
	q.Set("search", "")
	q.Set("project", "")
	q.Set("includeProject", "true")
	q.Set("filter", "winners")
	return q
}

// FetchPage implements PageSource.
func (s *HTTPSource) FetchPage(ctx context.Context, authToken string, page int) ([]*jsontree.Value, error) {
	result, err := s.client.Get(ctx, fetch.Request{
		URL:   s.baseURL + "/api/projects",
		Query: PageQuery(page),
		Headers: map[string]string{
			"Accept": "application/json",
		},
		Cookies: []*http.Cookie{{Name: SessionCookieName, Value: authToken}},
	})
	if err != nil {
		return nil, &PageError{Page: page, Message: "request failed", Cause: err}
	}

	if result.StatusCode == http.StatusUnauthorized || result.StatusCode == http.StatusForbidden {
		return nil, &AuthError{StatusCode: result.StatusCode}
	}
	if !result.IsSuccess() {
		return nil, &PageError{Page: page, Message: "unexpected status", Cause: result.StatusError()}
	}

	root, err := jsontree.Parse(result.Body)
	if err != nil {
		return nil, &PageError{Page: page, Message: "invalid JSON body", Cause: err}
	}
	// Non-array shapes (error envelopes and the like) mean no items.
	if root.Kind != jsontree.Array {
		return nil, nil
	}
	return root.Items, nil
}
