// Package ghgateway issues GraphQL queries and mutations against the GitHub
// API (spec.md §4.3): one exported method per domain capability, each
// returning a classified *ferrors.Error instead of throwing across the
// boundary.
package ghgateway

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/gregjones/httpcache"
)

// Client is the GraphQL-driven GitHub gateway. It holds an
// already-resolved token; token resolution is DetectAuth's job, not the
// Client's.
type Client struct {
	http       *http.Client
	token      string
	graphqlURL string
}

// NewClient builds a Client with the teacher's transport stack — minus the
// go-github REST layer, since this gateway is GraphQL-only: go-github-ratelimit
// (secondary rate limit backoff) wrapping httpcache (conditional-request
// caching) wrapping the default transport.
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimited := github_ratelimit.NewClient(cacheTransport)
	rateLimited.Timeout = defaultTimeout

	return &Client{
		http:       rateLimited,
		token:      token,
		graphqlURL: "https://api.github.com/graphql",
	}
}

// NewClientWithHTTPClient builds a Client against a custom http.Client and
// base URL, for tests to inject an httptest.Server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = "/graphql"

	return &Client{
		http:       httpClient,
		token:      token,
		graphqlURL: u.String(),
	}, nil
}

var defaultTimeout = 30 * time.Second
