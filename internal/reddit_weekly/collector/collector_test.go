package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reddit-weekly/internal/reddit_weekly/model"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type listingCall struct {
	after string
	limit int
}

// fakeSource serves posts newest-first in pages of at most the requested limit.
type fakeSource struct {
	posts []RawPost
	err   error
	calls []listingCall
}

func (f *fakeSource) NewPosts(_ context.Context, _ string, after string, limit int) (*Page, error) {
	f.calls = append(f.calls, listingCall{after: after, limit: limit})
	if f.err != nil {
		return nil, f.err
	}

	start := 0
	if after != "" {
		for i, p := range f.posts {
			if "t3_"+p.ID == after {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(f.posts))
	page := &Page{Posts: f.posts[start:end]}
	if end < len(f.posts) && end > start {
		page.After = "t3_" + f.posts[end-1].ID
	}
	return page, nil
}

func rawAt(id string, age time.Duration) RawPost {
	return RawPost{
		ID:          id,
		Title:       "title " + id,
		Score:       1,
		NumComments: 1,
		Author:      "author",
		CreatedUTC:  float64(testNow.Add(-age).Unix()),
		Permalink:   "/r/test/comments/" + id + "/",
	}
}

func newTestCollector(src Source) *Collector {
	c := NewCollector(zap.NewNop(), src)
	c.Now = func() time.Time { return testNow }
	return c
}

func TestFetchRecentPosts_AllTooOld(t *testing.T) {
	src := &fakeSource{posts: []RawPost{
		rawAt("a", 8*24*time.Hour),
		rawAt("b", 9*24*time.Hour),
		rawAt("c", 30*24*time.Hour),
	}}

	posts, err := newTestCollector(src).FetchRecentPosts(context.Background(), "test", 7, 1000)

	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestFetchRecentPosts_StopsAtWindowEnd(t *testing.T) {
	var raws []RawPost
	for i := range 250 {
		raws = append(raws, rawAt(fmt.Sprintf("p%03d", i), time.Duration(i)*time.Hour))
	}
	src := &fakeSource{posts: raws}

	posts, err := newTestCollector(src).FetchRecentPosts(context.Background(), "test", 7, 1000)

	require.NoError(t, err)
	// ages 0h..168h are inside a 7 day window, the boundary post included
	require.Len(t, posts, 169)
	assert.Equal(t, "p000", posts[0].ID)
	assert.Equal(t, "p168", posts[168].ID)
	// the post at 169h sits on the second page; the third is never requested
	assert.Len(t, src.calls, 2)
	for _, p := range posts {
		assert.False(t, p.CreatedAt.Before(testNow.AddDate(0, 0, -7)))
	}
}

func TestFetchRecentPosts_RespectsMaxScan(t *testing.T) {
	var raws []RawPost
	for i := range 500 {
		raws = append(raws, rawAt(fmt.Sprintf("p%03d", i), time.Minute))
	}
	src := &fakeSource{posts: raws}

	posts, err := newTestCollector(src).FetchRecentPosts(context.Background(), "test", 7, 250)

	require.NoError(t, err)
	assert.Len(t, posts, 250)
	assert.Equal(t, []listingCall{
		{after: "", limit: 100},
		{after: "t3_p099", limit: 100},
		{after: "t3_p199", limit: 50},
	}, src.calls)
}

func TestFetchRecentPosts_DropsDuplicates(t *testing.T) {
	src := &fakeSource{posts: []RawPost{
		rawAt("a", time.Hour),
		rawAt("b", 2*time.Hour),
		rawAt("a", 3*time.Hour),
	}}

	posts, err := newTestCollector(src).FetchRecentPosts(context.Background(), "test", 7, 1000)

	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "a", posts[0].ID)
	assert.Equal(t, "b", posts[1].ID)
}

func TestFetchRecentPosts_MapsFields(t *testing.T) {
	raw := rawAt("xyz", time.Hour)
	raw.Author = ""
	raw.Score = -3
	raw.NumComments = 12
	raw.Selftext = strings.Repeat("é", 250)
	src := &fakeSource{posts: []RawPost{raw}}

	posts, err := newTestCollector(src).FetchRecentPosts(context.Background(), "test", 7, 1000)

	require.NoError(t, err)
	require.Len(t, posts, 1)
	p := posts[0]
	assert.Equal(t, "xyz", p.ID)
	assert.Equal(t, -3, p.Score)
	assert.Equal(t, 12, p.NumComments)
	assert.Equal(t, model.DeletedAuthor, p.Author)
	assert.Equal(t, "https://reddit.com/r/test/comments/xyz/", p.URL)
	assert.Equal(t, testNow.Add(-time.Hour), p.CreatedAt)
	assert.Equal(t, model.ExcerptLength, len([]rune(p.Excerpt)))
}

func TestFetchRecentPosts_SourceError(t *testing.T) {
	cause := errors.New("401 unauthorized")
	src := &fakeSource{err: cause}

	posts, err := newTestCollector(src).FetchRecentPosts(context.Background(), "test", 7, 1000)

	require.Error(t, err)
	assert.Nil(t, posts)
	var collErr *CollectionError
	require.ErrorAs(t, err, &collErr)
	assert.Equal(t, "test", collErr.Community)
	assert.ErrorIs(t, err, cause)
}

func TestFetchRecentPosts_EmptyCommunity(t *testing.T) {
	src := &fakeSource{}

	_, err := newTestCollector(src).FetchRecentPosts(context.Background(), " ", 7, 1000)

	var collErr *CollectionError
	require.ErrorAs(t, err, &collErr)
	assert.Empty(t, src.calls)
}
