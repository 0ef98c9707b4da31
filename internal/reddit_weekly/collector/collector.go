// Package collector gathers the recent posts of one community.
package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"reddit-weekly/internal/reddit_weekly/model"
)

const (
	DefaultWindowDays = 7
	DefaultMaxScan    = 1000

	// pageSize is the largest page the listing endpoint serves.
	pageSize = 100

	postURLPrefix = "https://reddit.com"
)

// RawPost is a post as the read API returns it.
type RawPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Author      string  `json:"author"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
	Selftext    string  `json:"selftext"`
}

// Page is one newest-first slice of a listing. An empty After means the
// listing is exhausted.
type Page struct {
	Posts []RawPost
	After string
}

// Source is the read side of the forum API.
type Source interface {
	NewPosts(ctx context.Context, community, after string, limit int) (*Page, error)
}

// CollectionError reports a failed read. The run must not continue with
// partial data.
type CollectionError struct {
	Community string
	Err       error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collect r/%s: %v", e.Community, e.Err)
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

// Collector filters a community's newest posts down to a recency window.
type Collector struct {
	Log    *zap.Logger
	Source Source
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewCollector creates a collector reading from src.
func NewCollector(log *zap.Logger, src Source) *Collector {
	return &Collector{Log: log, Source: src, Now: time.Now}
}

// FetchRecentPosts inspects at most maxScan of the community's newest posts
// and returns those created within the last windowDays, newest first.
// Scanning stops at the first post outside the window: the listing is
// newest-first, so nothing after it can qualify.
func (c *Collector) FetchRecentPosts(ctx context.Context, community string, windowDays, maxScan int) ([]model.PostRecord, error) {
	if strings.TrimSpace(community) == "" {
		return nil, &CollectionError{Community: community, Err: errors.New("community name is empty")}
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if maxScan <= 0 {
		maxScan = DefaultMaxScan
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	cutoff := now().UTC().AddDate(0, 0, -windowDays)

	c.Log.Info("Fetching posts",
		zap.String("community", community),
		zap.Int("windowDays", windowDays),
		zap.Int("maxScan", maxScan),
		zap.Time("cutoff", cutoff),
	)

	var (
		posts   []model.PostRecord
		seen    = make(map[string]struct{})
		scanned int
		after   string
		expired bool
	)

	for scanned < maxScan && !expired {
		page, err := c.Source.NewPosts(ctx, community, after, min(pageSize, maxScan-scanned))
		if err != nil {
			c.Log.Error("Failed to fetch posts",
				zap.String("community", community),
				zap.Int("scanned", scanned),
				zap.Error(err),
			)
			return nil, &CollectionError{Community: community, Err: err}
		}

		for _, raw := range page.Posts {
			if scanned >= maxScan {
				break
			}
			scanned++

			record := toRecord(raw)
			if record.CreatedAt.Before(cutoff) {
				expired = true
				break
			}
			if _, dup := seen[record.ID]; dup {
				continue
			}
			seen[record.ID] = struct{}{}
			posts = append(posts, record)
		}

		if len(page.Posts) == 0 || page.After == "" {
			break
		}
		after = page.After
	}

	c.Log.Info("Fetched posts",
		zap.String("community", community),
		zap.Int("posts", len(posts)),
		zap.Int("scanned", scanned),
		zap.Bool("reachedWindowEnd", expired),
	)
	return posts, nil
}

func toRecord(raw RawPost) model.PostRecord {
	author := raw.Author
	if author == "" {
		author = model.DeletedAuthor
	}
	return model.PostRecord{
		ID:          raw.ID,
		Title:       raw.Title,
		Score:       raw.Score,
		NumComments: raw.NumComments,
		Author:      author,
		CreatedAt:   time.UnixMilli(int64(math.Round(raw.CreatedUTC * 1000))).UTC(),
		URL:         postURLPrefix + raw.Permalink,
		Excerpt:     model.Truncate(raw.Selftext, model.ExcerptLength),
	}
}
