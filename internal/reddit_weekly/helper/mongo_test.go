package helper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"reddit-weekly/internal/reddit_weekly/model"
)

func TestRunReport_BSONOmitsPosts(t *testing.T) {
	report := model.RunReport{
		ID:        "run-1",
		Community: "golang",
		Section:   "2024-W24",
		Status:    model.RunStatusSucceeded,
		Summary: model.AnalyticsSummary{
			PostCount:  2,
			TotalScore: 11,
			TopPosts:   []model.PostRecord{{ID: "a"}, {ID: "b"}},
		},
		FinishedAt: time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC),
	}

	raw, err := bson.Marshal(report)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))

	assert.Equal(t, "run-1", doc["run_id"])
	assert.Equal(t, "2024-W24", doc["section"])
	summary, ok := doc["summary"].(bson.M)
	require.True(t, ok)
	assert.EqualValues(t, 2, summary["total_posts"])
	assert.NotContains(t, summary, "top_posts")
	assert.NotContains(t, summary, "TopPosts")

	var back model.RunReport
	require.NoError(t, bson.Unmarshal(raw, &back))
	assert.Equal(t, report.FinishedAt, back.FinishedAt)
	assert.Empty(t, back.Summary.TopPosts)
}

func TestRunFilter(t *testing.T) {
	assert.Equal(t, bson.M{"community": "golang", "section": "2024-W24"}, RunFilter("golang", "2024-W24"))
}
