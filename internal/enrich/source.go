package enrich

import (
	"context"
	"net/url"
	"strings"

	"github.com/jonathan/wins-exporter/internal/fetch"
	"github.com/jonathan/wins-exporter/internal/jsontree"
)

// DetailSource fetches and decodes the detail document for one identity.
// Failures are reported as *EnrichError; only KindFetch failures are retried.
type DetailSource interface {
	FetchDetail(ctx context.Context, identity string) (*jsontree.Value, error)
}

// HTTPDetailSource reads the JSON data island embedded in project pages.
type HTTPDetailSource struct {
	client   *fetch.Client
	baseURL  string
	selector string
}

// NewHTTPDetailSource creates a source that requests {baseURL}/{identity}.
func NewHTTPDetailSource(client *fetch.Client, baseURL string) *HTTPDetailSource {
	return &HTTPDetailSource{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		selector: fetch.NextDataSelector,
	}
}

// FetchDetail implements DetailSource.
func (s *HTTPDetailSource) FetchDetail(ctx context.Context, identity string) (*jsontree.Value, error) {
	result, err := s.client.Get(ctx, fetch.Request{
		URL:     s.baseURL + "/" + url.PathEscape(identity),
		Headers: map[string]string{"Accept": "text/html"},
	})
	if err != nil {
		return nil, &EnrichError{Identity: identity, Kind: KindFetch, Message: "request failed", Cause: err}
	}
	if !result.IsSuccess() {
		return nil, &EnrichError{Identity: identity, Kind: KindStatus, Message: "unexpected status", Cause: result.StatusError()}
	}

	island, err := fetch.ExtractDataIsland(result.Body, s.selector)
	if err != nil {
		return nil, &EnrichError{Identity: identity, Kind: KindParse, Message: "no data island", Cause: err}
	}

	root, err := jsontree.Parse(island)
	if err != nil {
		return nil, &EnrichError{Identity: identity, Kind: KindParse, Message: "invalid data island JSON", Cause: err}
	}
	return root, nil
}
