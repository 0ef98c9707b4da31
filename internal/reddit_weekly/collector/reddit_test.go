package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testUserAgent = "RedditWeeklyAnalytics/1.0"

func newRedditServer(t *testing.T, listing http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/r/", listing)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestRedditClient(srv *httptest.Server, secret string) *RedditClient {
	return NewRedditClient(context.Background(), zap.NewNop(), RedditOptions{
		ClientID:     "id",
		ClientSecret: secret,
		UserAgent:    testUserAgent,
		Timeout:      5 * time.Second,
		TokenURL:     srv.URL + "/api/v1/access_token",
		BaseURL:      srv.URL,
	})
}

func TestRedditClient_NewPosts(t *testing.T) {
	srv := newRedditServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/golang/new", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		assert.Equal(t, "t3_prev", r.URL.Query().Get("after"))
		assert.Equal(t, "1", r.URL.Query().Get("raw_json"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"kind": "Listing",
			"data": {
				"after": "t3_b2",
				"children": [
					{"kind": "t3", "data": {"id": "a1", "title": "First", "score": 42, "num_comments": 7,
						"author": "gopher", "created_utc": 1718452800.0, "permalink": "/r/golang/comments/a1/first/",
						"selftext": "body"}},
					{"kind": "t1", "data": {"id": "comment"}},
					{"kind": "t3", "data": {"id": "b2", "title": "Second", "score": -1, "num_comments": 0,
						"author": "[deleted]", "created_utc": 1718449200.5, "permalink": "/r/golang/comments/b2/second/",
						"selftext": ""}}
				]
			}
		}`))
	})

	page, err := newTestRedditClient(srv, "secret").NewPosts(context.Background(), "golang", "t3_prev", 25)

	require.NoError(t, err)
	assert.Equal(t, "t3_b2", page.After)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, RawPost{
		ID:          "a1",
		Title:       "First",
		Score:       42,
		NumComments: 7,
		Author:      "gopher",
		CreatedUTC:  1718452800,
		Permalink:   "/r/golang/comments/a1/first/",
		Selftext:    "body",
	}, page.Posts[0])
	assert.Equal(t, "b2", page.Posts[1].ID)
}

func TestRedditClient_LastPageHasNoCursor(t *testing.T) {
	srv := newRedditServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("after"))
		_, _ = w.Write([]byte(`{"kind": "Listing", "data": {"after": null, "children": []}}`))
	})

	page, err := newTestRedditClient(srv, "secret").NewPosts(context.Background(), "golang", "", 100)

	require.NoError(t, err)
	assert.Empty(t, page.After)
	assert.Empty(t, page.Posts)
}

func TestRedditClient_BadCredentials(t *testing.T) {
	srv := newRedditServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("listing must not be requested without a token")
	})

	_, err := newTestRedditClient(srv, "wrong").NewPosts(context.Background(), "golang", "", 100)

	require.Error(t, err)
}

func TestRedditClient_UnknownCommunity(t *testing.T) {
	srv := newRedditServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/subreddits/search.json?q=nope", http.StatusFound)
	})

	_, err := newTestRedditClient(srv, "secret").NewPosts(context.Background(), "nope", "", 100)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRedditClient_ServerError(t *testing.T) {
	srv := newRedditServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})

	_, err := newTestRedditClient(srv, "secret").NewPosts(context.Background(), "golang", "", 100)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "too many requests")
}

func TestRedditClient_FeedsCollector(t *testing.T) {
	now := time.Unix(1718452800, 0).UTC()
	srv := newRedditServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"kind": "Listing", "data": {"after": null, "children": [
			{"kind": "t3", "data": {"id": "new", "title": "fresh", "score": 3, "num_comments": 1,
				"author": "a", "created_utc": 1718449200, "permalink": "/r/golang/comments/new/"}},
			{"kind": "t3", "data": {"id": "old", "title": "stale", "score": 9, "num_comments": 2,
				"author": "b", "created_utc": 1700000000, "permalink": "/r/golang/comments/old/"}}
		]}}`))
	})
	c := NewCollector(zap.NewNop(), newTestRedditClient(srv, "secret"))
	c.Now = func() time.Time { return now }

	posts, err := c.FetchRecentPosts(context.Background(), "golang", 7, 1000)

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "new", posts[0].ID)
}
