// Package publisher writes the weekly report into a spreadsheet document.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"reddit-weekly/internal/reddit_weekly/model"
)

const (
	// MinSectionRows and MinSectionCols size a newly created section.
	MinSectionRows = 1000
	MinSectionCols = 20

	DefaultMaxDataRows = 999
)

// ErrNotFound is returned by lookups when the document or section does not
// exist. Any other lookup error is a real failure.
var ErrNotFound = errors.New("not found")

// Workbook resolves named documents.
type Workbook interface {
	FindDocument(ctx context.Context, name string) (Document, error)
	CreateDocument(ctx context.Context, name string) (Document, error)
}

// Document is one spreadsheet made of named sections.
type Document interface {
	URL() string
	ShareWithAnyone(ctx context.Context) error
	FindSection(ctx context.Context, title string) (Section, error)
	AddSection(ctx context.Context, title string, rows, cols int) (Section, error)
	Close() error
}

// Section is one worksheet.
type Section interface {
	Title() string
	Clear(ctx context.Context) error
	// EnsureSize grows the grid to at least rows x cols; it never shrinks.
	EnsureSize(ctx context.Context, rows, cols int) error
	// Write places rows starting at the A1-style origin cell.
	Write(ctx context.Context, origin string, rows [][]any) error
}

// PublishError wraps a failed write-side operation.
type PublishError struct {
	Op  string
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish: %s: %v", e.Op, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// Result describes what was published.
type Result struct {
	URL       string
	Section   string
	Created   bool
	DataRows  int
	Truncated int
}

// Publisher lays the report out and writes it to a Workbook.
type Publisher struct {
	Log         *zap.Logger
	Book        Workbook
	MaxDataRows int
	// Private skips link sharing on newly created documents.
	Private bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewPublisher creates a publisher with the default row ceiling.
func NewPublisher(log *zap.Logger, book Workbook) *Publisher {
	return &Publisher{
		Log:         log,
		Book:        book,
		MaxDataRows: DefaultMaxDataRows,
		Now:         time.Now,
	}
}

// Publish writes the summary, top posts and raw records into this week's
// section of the named document, replacing whatever the section held.
func (p *Publisher) Publish(ctx context.Context, posts []model.PostRecord, summary model.AnalyticsSummary, destination string) (*Result, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	generated := now().UTC()
	sectionName := SectionName(generated)

	// 1. open or create the document
	doc, created, err := p.openDocument(ctx, destination)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := doc.Close(); err != nil {
			p.Log.Warn("Failed to close document", zap.String("document", destination), zap.Error(err))
		}
	}()

	// 2. lay out the report
	report := BuildReport(posts, summary, sectionName, generated, p.maxDataRows())

	// 3. open (cleared) or create the week section
	section, err := p.openSection(ctx, doc, sectionName, len(report.Rows), report.Width())
	if err != nil {
		return nil, err
	}

	// 4. write
	if err := section.Write(ctx, CellAddress(1, 1), report.Rows); err != nil {
		return nil, &PublishError{Op: "write section " + sectionName, Err: err}
	}

	if report.Truncated > 0 {
		p.Log.Warn("Reached row limit, truncating data",
			zap.String("section", sectionName),
			zap.Int("maxDataRows", p.maxDataRows()),
			zap.Int("truncated", report.Truncated),
		)
	}

	p.Log.Info("Published report",
		zap.String("document", destination),
		zap.String("section", sectionName),
		zap.Int("dataRows", report.DataRows),
		zap.String("url", doc.URL()),
	)

	return &Result{
		URL:       doc.URL(),
		Section:   sectionName,
		Created:   created,
		DataRows:  report.DataRows,
		Truncated: report.Truncated,
	}, nil
}

func (p *Publisher) maxDataRows() int {
	if p.MaxDataRows <= 0 {
		return DefaultMaxDataRows
	}
	return p.MaxDataRows
}

func (p *Publisher) openDocument(ctx context.Context, name string) (Document, bool, error) {
	doc, err := p.Book.FindDocument(ctx, name)
	if err == nil {
		p.Log.Info("Opened document", zap.String("document", name))
		return doc, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, &PublishError{Op: "find document " + name, Err: err}
	}

	p.Log.Info("Creating new document", zap.String("document", name))
	doc, err = p.Book.CreateDocument(ctx, name)
	if err != nil {
		return nil, false, &PublishError{Op: "create document " + name, Err: err}
	}

	if p.Private {
		return doc, true, nil
	}
	if err := doc.ShareWithAnyone(ctx); err != nil {
		_ = doc.Close()
		return nil, false, &PublishError{Op: "share document " + name, Err: err}
	}
	return doc, true, nil
}

func (p *Publisher) openSection(ctx context.Context, doc Document, title string, rows, cols int) (Section, error) {
	rows = max(rows, MinSectionRows)
	cols = max(cols, MinSectionCols)

	section, err := doc.FindSection(ctx, title)
	switch {
	case err == nil:
		p.Log.Info("Section already exists, clearing it", zap.String("section", title))
		if err := section.Clear(ctx); err != nil {
			return nil, &PublishError{Op: "clear section " + title, Err: err}
		}
		if err := section.EnsureSize(ctx, rows, cols); err != nil {
			return nil, &PublishError{Op: "resize section " + title, Err: err}
		}
		return section, nil

	case errors.Is(err, ErrNotFound):
		p.Log.Info("Creating new section", zap.String("section", title), zap.Int("rows", rows), zap.Int("cols", cols))
		section, err = doc.AddSection(ctx, title, rows, cols)
		if err != nil {
			return nil, &PublishError{Op: "create section " + title, Err: err}
		}
		return section, nil

	default:
		return nil, &PublishError{Op: "find section " + title, Err: err}
	}
}

// CellAddress converts 1-based (row, col) to an A1 reference.
func CellAddress(row, col int) string {
	addr, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "A1"
	}
	return addr
}
