// Package metrics exposes run counters for the serve mode's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"reddit-weekly/internal/reddit_weekly/model"
)

const namespace = "reddit_weekly"

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Pipeline runs by final status.",
	}, []string{"status"})

	postsCollected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "posts_collected",
		Help:      "Posts collected by the most recent run.",
	})

	rowsTruncated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rows_truncated_total",
		Help:      "Raw record rows dropped by the row ceiling.",
	})

	lastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful publication.",
	})
)

// ObserveRun records the outcome of one run.
func ObserveRun(r *model.RunReport) {
	runsTotal.WithLabelValues(r.Status).Inc()
	postsCollected.Set(float64(r.Summary.PostCount))
	if r.Truncated > 0 {
		rowsTruncated.Add(float64(r.Truncated))
	}
	if r.Status == model.RunStatusSucceeded {
		lastSuccess.Set(float64(r.FinishedAt.Unix()))
	}
}
