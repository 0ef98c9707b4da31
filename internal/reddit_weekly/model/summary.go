package model

import (
	"strconv"
	"time"
)

// TopPostsLimit is the size of AnalyticsSummary.TopPosts.
const TopPostsLimit = 10

// AnalyticsSummary is derived once per run and discarded after publication.
type AnalyticsSummary struct {
	PostCount       int          `bson:"total_posts" json:"total_posts"`
	TotalScore      int          `bson:"total_score" json:"total_score"`
	TotalComments   int          `bson:"total_comments" json:"total_comments"`
	AverageScore    float64      `bson:"avg_score" json:"avg_score"`
	AverageComments float64      `bson:"avg_comments" json:"avg_comments"`
	EngagementRate  float64      `bson:"engagement_rate" json:"engagement_rate"`
	TopPosts        []PostRecord `bson:"-" json:"top_posts"`
}

// Metric is one labelled summary value as shown in the report.
type Metric struct {
	Name  string
	Value string
}

// Metrics lists the scalar fields in report order with humanized names.
func (s AnalyticsSummary) Metrics() []Metric {
	return []Metric{
		{Name: "Total Posts", Value: strconv.Itoa(s.PostCount)},
		{Name: "Total Score", Value: strconv.Itoa(s.TotalScore)},
		{Name: "Total Comments", Value: strconv.Itoa(s.TotalComments)},
		{Name: "Avg Score", Value: formatFloat(s.AverageScore)},
		{Name: "Avg Comments", Value: formatFloat(s.AverageComments)},
		{Name: "Engagement Rate", Value: formatFloat(s.EngagementRate)},
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Run statuses.
const (
	RunStatusSucceeded = "succeeded"
	RunStatusSkipped   = "skipped"
	RunStatusFailed    = "failed"
)

// RunReport describes one pipeline pass. Raw posts are not kept.
type RunReport struct {
	ID         string           `bson:"run_id" json:"id"`
	Community  string           `bson:"community" json:"community"`
	Section    string           `bson:"section" json:"section,omitempty"`
	Status     string           `bson:"status" json:"status"`
	Error      string           `bson:"error,omitempty" json:"error,omitempty"`
	URL        string           `bson:"url,omitempty" json:"url,omitempty"`
	Summary    AnalyticsSummary `bson:"summary" json:"summary"`
	DataRows   int              `bson:"data_rows" json:"data_rows"`
	Truncated  int              `bson:"truncated" json:"truncated"`
	StartedAt  time.Time        `bson:"started_at" json:"started_at"`
	FinishedAt time.Time        `bson:"finished_at" json:"finished_at"`
}
