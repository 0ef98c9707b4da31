package publisher

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reddit-weekly/internal/reddit_weekly/analyzer"
	"reddit-weekly/internal/reddit_weekly/model"
)

var generatedAt = time.Date(2024, 6, 12, 9, 30, 15, 0, time.UTC)

func makePosts(n int) []model.PostRecord {
	posts := make([]model.PostRecord, n)
	for i := range posts {
		posts[i] = model.PostRecord{
			ID:          fmt.Sprintf("id%04d", i),
			Title:       fmt.Sprintf("Post %d", i),
			Score:       (i * 37) % 101,
			NumComments: i % 9,
			Author:      "author",
			CreatedAt:   generatedAt.Add(-time.Duration(i) * time.Minute),
			URL:         fmt.Sprintf("https://reddit.com/r/test/comments/id%04d/", i),
			Excerpt:     "text",
		}
	}
	return posts
}

func TestSectionName(t *testing.T) {
	cases := map[string]time.Time{
		"2024-W01": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),    // Monday
		"2023-W00": time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC),   // Sunday before the first Monday
		"2023-W01": time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),    // first Monday
		"2024-W24": time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC),   // Wednesday
		"2024-W52": time.Date(2024, 12, 29, 23, 0, 0, 0, time.UTC), // Sunday
		"2024-W53": time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC),  // Monday
	}

	for want, at := range cases {
		assert.Equal(t, want, SectionName(at), at.String())
	}
}

func TestSectionName_UsesUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// Monday 02:00 in Tokyo is still Sunday in UTC
	at := time.Date(2024, 1, 8, 2, 0, 0, 0, tokyo)

	assert.Equal(t, "2024-W01", SectionName(at))
}

func TestBuildReport_Layout(t *testing.T) {
	posts := makePosts(3)
	posts[0].Score, posts[1].Score, posts[2].Score = 50, 10, 5
	posts[0].NumComments, posts[1].NumComments, posts[2].NumComments = 5, 2, 1
	posts[1].Title = strings.Repeat("t", 150)
	summary := analyzer.Summarize(posts)

	report := BuildReport(posts, summary, "2024-W24", generatedAt, 999)

	rows := report.Rows
	require.Len(t, rows, 3+1+1+6+1+1+1+3+1+1+1+3)
	assert.Equal(t, []any{"REDDIT WEEKLY ANALYTICS"}, rows[0])
	assert.Equal(t, []any{"Week: 2024-W24"}, rows[1])
	assert.Equal(t, []any{"Generated: 2024-06-12 09:30:15 UTC"}, rows[2])
	assert.Empty(t, rows[3])
	assert.Equal(t, []any{"SUMMARY METRICS"}, rows[4])
	assert.Equal(t, []any{"Total Posts", "3"}, rows[5])
	assert.Equal(t, []any{"Total Score", "65"}, rows[6])
	assert.Equal(t, []any{"Total Comments", "8"}, rows[7])
	assert.Equal(t, []any{"Avg Score", "21.67"}, rows[8])
	assert.Equal(t, []any{"Avg Comments", "2.67"}, rows[9])
	assert.Equal(t, []any{"Engagement Rate", "24.33"}, rows[10])
	assert.Empty(t, rows[11])
	assert.Equal(t, []any{"TOP 10 POSTS"}, rows[12])
	assert.Equal(t, []any{"Title", "Score", "Comments", "URL"}, rows[13])
	assert.Equal(t, []any{"Post 0", 50, 5, posts[0].URL}, rows[14])
	assert.Equal(t, []any{strings.Repeat("t", 100), 10, 2, posts[1].URL}, rows[15])
	assert.Equal(t, []any{"Post 2", 5, 1, posts[2].URL}, rows[16])
	assert.Empty(t, rows[17])
	assert.Equal(t, []any{"ALL POSTS"}, rows[18])
	assert.Equal(t, []any{"id", "title", "score", "num_comments", "author", "created_utc", "created_date", "url", "selftext"}, rows[19])
	assert.Equal(t, "id0000", rows[20][0])
	assert.Equal(t, "50", rows[20][2])
	// the raw dump keeps the full title
	assert.Equal(t, strings.Repeat("t", 150), rows[21][1])

	assert.Equal(t, 3, report.DataRows)
	assert.Zero(t, report.Truncated)
	assert.Equal(t, len(model.RecordColumns), report.Width())
}

func TestBuildReport_RowCeiling(t *testing.T) {
	posts := makePosts(1500)

	report := BuildReport(posts, analyzer.Summarize(posts), "2024-W24", generatedAt, 999)

	assert.Equal(t, 999, report.DataRows)
	assert.Equal(t, 501, report.Truncated)
	last := report.Rows[len(report.Rows)-1]
	assert.Equal(t, "id0998", last[0])
}

func TestBuildReport_Empty(t *testing.T) {
	report := BuildReport(nil, analyzer.Summarize(nil), "2024-W24", generatedAt, 999)

	assert.Zero(t, report.DataRows)
	assert.Zero(t, report.Truncated)
	assert.Equal(t, []any{"Total Posts", "0"}, report.Rows[5])
	assert.Equal(t, []any{"Engagement Rate", "0"}, report.Rows[10])
}

func TestCellAddress(t *testing.T) {
	assert.Equal(t, "A1", CellAddress(1, 1))
	assert.Equal(t, "D12", CellAddress(12, 4))
	assert.Equal(t, "AA3", CellAddress(3, 27))
}
