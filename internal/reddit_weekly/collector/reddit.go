package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	DefaultBaseURL  = "https://oauth.reddit.com"

	// maxErrorBody bounds how much of a failed response ends up in the error.
	maxErrorBody = 512
)

// RedditOptions configures the application-only OAuth client.
type RedditOptions struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	Timeout      time.Duration
	// TokenURL and BaseURL default to the public endpoints.
	TokenURL string
	BaseURL  string
}

// RedditClient reads subreddit listings with an app-only token.
type RedditClient struct {
	Log        *zap.Logger
	HTTPClient *http.Client
	BaseURL    string
}

var _ Source = (*RedditClient)(nil)

// NewRedditClient wires the client-credentials token source. No request is
// made until the first listing call.
func NewRedditClient(ctx context.Context, log *zap.Logger, opts RedditOptions) *RedditClient {
	if opts.TokenURL == "" {
		opts.TokenURL = DefaultTokenURL
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	// Reddit rejects requests without a descriptive user agent, token calls included.
	base := &http.Client{
		Timeout:   opts.Timeout,
		Transport: &userAgentTransport{userAgent: opts.UserAgent, base: http.DefaultTransport},
	}
	cc := clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	httpClient := cc.Client(context.WithValue(ctx, oauth2.HTTPClient, base))
	httpClient.Timeout = opts.Timeout
	// Unknown subreddits redirect to the search page; surface that as a failure.
	httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &RedditClient{
		Log:        log,
		HTTPClient: httpClient,
		BaseURL:    strings.TrimRight(opts.BaseURL, "/"),
	}
}

type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}

type listingResponse struct {
	Kind string `json:"kind"`
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string  `json:"kind"`
			Data RawPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// NewPosts fetches one page of the community's newest-first listing.
func (c *RedditClient) NewPosts(ctx context.Context, community, after string, limit int) (*Page, error) {
	// 1. build request
	req, err := c.buildListingRequest(ctx, community, after, limit)
	if err != nil {
		return nil, err
	}

	// 2. execute
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.Log.Warn("Failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	// 3. check status
	if err := checkStatus(resp, community); err != nil {
		return nil, err
	}

	// 4. decode
	var listing listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	if listing.Kind != "Listing" {
		return nil, fmt.Errorf("unexpected response kind %q", listing.Kind)
	}

	page := &Page{After: listing.Data.After}
	for _, child := range listing.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		page.Posts = append(page.Posts, child.Data)
	}

	c.Log.Debug("Fetched listing page",
		zap.String("community", community),
		zap.String("after", after),
		zap.Int("posts", len(page.Posts)),
		zap.String("next", page.After),
	)
	return page, nil
}

func (c *RedditClient) buildListingRequest(ctx context.Context, community, after string, limit int) (*http.Request, error) {
	u, err := url.Parse(c.BaseURL + "/r/" + url.PathEscape(community) + "/new")
	if err != nil {
		return nil, fmt.Errorf("build listing url: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("raw_json", "1")
	if after != "" {
		q.Set("after", after)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create listing request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func checkStatus(resp *http.Response, community string) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode >= 300 && resp.StatusCode < 400, resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("community %q not found (status %d)", community, resp.StatusCode)
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("listing request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
