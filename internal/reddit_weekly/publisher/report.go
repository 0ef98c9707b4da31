package publisher

import (
	"fmt"
	"time"

	"reddit-weekly/internal/reddit_weekly/model"
)

const (
	reportTitle    = "REDDIT WEEKLY ANALYTICS"
	titleMaxLength = 100
)

// Report is the cell grid of one section, top-left first.
type Report struct {
	Rows [][]any
	// DataRows counts raw records written, Truncated those dropped by the ceiling.
	DataRows  int
	Truncated int
}

// Width is the widest row.
func (r *Report) Width() int {
	width := 0
	for _, row := range r.Rows {
		width = max(width, len(row))
	}
	return width
}

// SectionName names the section for the week containing t: the year and a
// zero-padded week number counted from the year's first Monday (days before
// it fall in week 00).
func SectionName(t time.Time) string {
	t = t.UTC()
	yday := t.YearDay() - 1
	weekday := (int(t.Weekday()) + 6) % 7 // Monday = 0
	week := (yday + 7 - weekday) / 7
	return fmt.Sprintf("%d-W%02d", t.Year(), week)
}

// BuildReport lays out the section. At most maxDataRows raw records are
// included.
func BuildReport(posts []model.PostRecord, summary model.AnalyticsSummary, section string, generated time.Time, maxDataRows int) *Report {
	r := &Report{}
	blank := func() { r.Rows = append(r.Rows, []any{}) }
	line := func(cells ...any) { r.Rows = append(r.Rows, cells) }

	line(reportTitle)
	line("Week: " + section)
	line("Generated: " + generated.UTC().Format(time.DateTime) + " UTC")
	blank()

	line("SUMMARY METRICS")
	for _, m := range summary.Metrics() {
		line(m.Name, m.Value)
	}
	blank()

	line(fmt.Sprintf("TOP %d POSTS", model.TopPostsLimit))
	line("Title", "Score", "Comments", "URL")
	for _, p := range summary.TopPosts {
		line(model.Truncate(p.Title, titleMaxLength), p.Score, p.NumComments, p.URL)
	}
	blank()

	line("ALL POSTS")
	header := make([]any, len(model.RecordColumns))
	for i, c := range model.RecordColumns {
		header[i] = c
	}
	line(header...)

	for i, p := range posts {
		if i >= maxDataRows {
			r.Truncated = len(posts) - maxDataRows
			break
		}
		fields := p.Row()
		row := make([]any, len(fields))
		for j, f := range fields {
			row[j] = f
		}
		line(row...)
		r.DataRows++
	}

	return r
}
