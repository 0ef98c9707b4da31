// Package analyzer derives engagement statistics from a collected post set.
package analyzer

import (
	"cmp"
	"slices"
	"strconv"

	"reddit-weekly/internal/reddit_weekly/model"
)

// aggregator keeps running totals over the post set.
type aggregator struct {
	postCount     int
	totalScore    int
	totalComments int
}

func (agg *aggregator) processPost(p model.PostRecord) {
	agg.postCount++
	agg.totalScore += p.Score
	agg.totalComments += p.NumComments
}

func (agg *aggregator) getResult() model.AnalyticsSummary {
	summary := model.AnalyticsSummary{
		PostCount:     agg.postCount,
		TotalScore:    agg.totalScore,
		TotalComments: agg.totalComments,
		TopPosts:      []model.PostRecord{},
	}
	if agg.postCount == 0 {
		return summary
	}

	n := float64(agg.postCount)
	summary.AverageScore = round2(float64(agg.totalScore) / n)
	summary.AverageComments = round2(float64(agg.totalComments) / n)
	summary.EngagementRate = round2(float64(agg.totalScore+agg.totalComments) / n)
	return summary
}

// Summarize computes the summary for posts. An empty input yields an all-zero
// summary with no top posts. posts is not modified.
func Summarize(posts []model.PostRecord) model.AnalyticsSummary {
	agg := &aggregator{}
	for _, p := range posts {
		agg.processPost(p)
	}

	summary := agg.getResult()
	summary.TopPosts = TopPosts(posts, model.TopPostsLimit)
	return summary
}

// TopPosts returns up to n posts by descending score. Equal scores keep their
// input order.
func TopPosts(posts []model.PostRecord, n int) []model.PostRecord {
	ranked := slices.Clone(posts)
	slices.SortStableFunc(ranked, func(a, b model.PostRecord) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	if ranked == nil {
		return []model.PostRecord{}
	}
	return ranked
}

// round2 rounds the exact binary value to two decimals, ties to even.
func round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}
