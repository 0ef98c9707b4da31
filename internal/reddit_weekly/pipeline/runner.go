// Package pipeline runs one collect, summarize and publish pass.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"reddit-weekly/internal/reddit_weekly/analyzer"
	"reddit-weekly/internal/reddit_weekly/metrics"
	"reddit-weekly/internal/reddit_weekly/model"
	"reddit-weekly/internal/reddit_weekly/publisher"
)

const bannerWidth = 50

// PostCollector is satisfied by *collector.Collector.
type PostCollector interface {
	FetchRecentPosts(ctx context.Context, community string, windowDays, maxScan int) ([]model.PostRecord, error)
}

// ReportPublisher is satisfied by *publisher.Publisher.
type ReportPublisher interface {
	Publish(ctx context.Context, posts []model.PostRecord, summary model.AnalyticsSummary, destination string) (*publisher.Result, error)
}

// RunHistory is satisfied by *helper.Stores.
type RunHistory interface {
	SaveRun(ctx context.Context, report *model.RunReport) error
}

type Options struct {
	Community   string
	Destination string
	WindowDays  int
	MaxScan     int
}

// Runner wires the three stages. History is optional.
type Runner struct {
	Log       *zap.Logger
	Out       io.Writer
	Collector PostCollector
	Publisher ReportPublisher
	History   RunHistory
	Options   Options

	Now   func() time.Time
	NewID func() string
}

// Run executes one pass. A week without posts is reported as skipped with a
// nil error; collection and publication failures return the failed report
// together with the error.
func (r *Runner) Run(ctx context.Context) (*model.RunReport, error) {
	report := &model.RunReport{
		ID:        r.newID(),
		Community: r.Options.Community,
		StartedAt: r.now(),
	}
	defer func() {
		report.FinishedAt = r.now()
		metrics.ObserveRun(report)
	}()

	log := r.Log.With(zap.String("run", report.ID), zap.String("community", r.Options.Community))
	r.banner("Reddit Weekly Analytics - Starting...")

	// 1. collect
	posts, err := r.Collector.FetchRecentPosts(ctx, r.Options.Community, r.Options.WindowDays, r.Options.MaxScan)
	if err != nil {
		log.Error("Collection failed", zap.Error(err))
		return r.fail(report, err)
	}

	// 2. summarize
	summary := analyzer.Summarize(posts)
	report.Summary = summary
	if len(posts) == 0 {
		log.Warn("No posts found for analysis")
		report.Status = model.RunStatusSkipped
		return report, nil
	}
	log.Info("Analytics completed",
		zap.Int("totalPosts", summary.PostCount),
		zap.Int("totalScore", summary.TotalScore),
		zap.Float64("engagementRate", summary.EngagementRate),
	)
	r.printSummary(summary)

	// 3. publish
	res, err := r.Publisher.Publish(ctx, posts, summary, r.Options.Destination)
	if err != nil {
		log.Error("Publication failed", zap.Error(err))
		return r.fail(report, err)
	}
	report.Status = model.RunStatusSucceeded
	report.Section = res.Section
	report.URL = res.URL
	report.DataRows = res.DataRows
	report.Truncated = res.Truncated

	// 4. record
	if r.History != nil {
		report.FinishedAt = r.now()
		if err := r.History.SaveRun(ctx, report); err != nil {
			log.Warn("Failed to save run history", zap.Error(err))
		}
	}

	r.banner("Process completed!")
	r.printf("View results: %s\n", res.URL)
	return report, nil
}

func (r *Runner) fail(report *model.RunReport, err error) (*model.RunReport, error) {
	report.Status = model.RunStatusFailed
	report.Error = err.Error()
	return report, err
}

func (r *Runner) banner(line string) {
	rule := strings.Repeat("=", bannerWidth)
	r.printf("%s\n%s\n%s\n", rule, line, rule)
}

func (r *Runner) printSummary(summary model.AnalyticsSummary) {
	if r.Out == nil {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Out)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Summary")
	t.AppendHeader(table.Row{"Metric", "Value"})
	for _, m := range summary.Metrics() {
		t.AppendRow(table.Row{m.Name, m.Value})
	}
	t.Render()

	top := table.NewWriter()
	top.SetOutputMirror(r.Out)
	top.SetStyle(table.StyleLight)
	top.SetTitle(fmt.Sprintf("Top %d Posts", model.TopPostsLimit))
	top.AppendHeader(table.Row{"#", "Title", "Score", "Comments"})
	for i, p := range summary.TopPosts {
		top.AppendRow(table.Row{i + 1, model.Truncate(p.Title, 60), p.Score, p.NumComments})
	}
	top.Render()
}

func (r *Runner) printf(format string, args ...any) {
	if r.Out == nil {
		return
	}
	_, _ = fmt.Fprintf(r.Out, format, args...)
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *Runner) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return uuid.NewString()
}
