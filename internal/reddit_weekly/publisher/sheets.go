package publisher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"
	valueInputRaw       = "RAW"
)

// GoogleWorkbook keeps documents in Google Sheets. Drive is used to look
// documents up by name and to share them.
type GoogleWorkbook struct {
	Log    *zap.Logger
	Sheets *sheets.Service
	Drive  *drive.Service
}

var _ Workbook = (*GoogleWorkbook)(nil)

// NewGoogleWorkbook authorizes with a service-account JSON blob.
// Invalid credentials are reported as a PublishError before any API call.
func NewGoogleWorkbook(ctx context.Context, log *zap.Logger, credentialsJSON []byte, timeout time.Duration) (*GoogleWorkbook, error) {
	conf, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope, drive.DriveScope)
	if err != nil {
		return nil, &PublishError{Op: "load credentials", Err: err}
	}

	httpClient := conf.Client(ctx)
	httpClient.Timeout = timeout
	return NewGoogleWorkbookWithOptions(ctx, log, option.WithHTTPClient(httpClient))
}

// NewGoogleWorkbookWithOptions builds both services from the same client options.
func NewGoogleWorkbookWithOptions(ctx context.Context, log *zap.Logger, opts ...option.ClientOption) (*GoogleWorkbook, error) {
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, &PublishError{Op: "create sheets service", Err: err}
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, &PublishError{Op: "create drive service", Err: err}
	}
	return &GoogleWorkbook{Log: log, Sheets: sheetsSvc, Drive: driveSvc}, nil
}

func (w *GoogleWorkbook) FindDocument(ctx context.Context, name string) (Document, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), spreadsheetMimeType)
	list, err := w.Drive.Files.List().
		Q(q).
		OrderBy("createdTime").
		PageSize(1).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search drive: %w", err)
	}
	if len(list.Files) == 0 {
		return nil, ErrNotFound
	}
	return w.openSpreadsheet(ctx, list.Files[0].Id)
}

func (w *GoogleWorkbook) CreateDocument(ctx context.Context, name string) (Document, error) {
	ss, err := w.Sheets.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: name},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create spreadsheet: %w", err)
	}
	return &googleDocument{wb: w, ss: ss}, nil
}

func (w *GoogleWorkbook) openSpreadsheet(ctx context.Context, id string) (*googleDocument, error) {
	ss, err := w.Sheets.Spreadsheets.Get(id).
		Fields("spreadsheetId,spreadsheetUrl,sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get spreadsheet %s: %w", id, err)
	}
	return &googleDocument{wb: w, ss: ss}, nil
}

type googleDocument struct {
	wb *GoogleWorkbook
	ss *sheets.Spreadsheet
}

func (d *googleDocument) URL() string {
	return d.ss.SpreadsheetUrl
}

func (d *googleDocument) ShareWithAnyone(ctx context.Context) error {
	_, err := d.wb.Drive.Permissions.Create(d.ss.SpreadsheetId, &drive.Permission{
		Type: "anyone",
		Role: "reader",
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("share %s: %w", d.ss.SpreadsheetId, err)
	}
	return nil
}

func (d *googleDocument) FindSection(ctx context.Context, title string) (Section, error) {
	fresh, err := d.wb.openSpreadsheet(ctx, d.ss.SpreadsheetId)
	if err != nil {
		return nil, err
	}
	d.ss = fresh.ss

	for _, sh := range d.ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return &googleSection{doc: d, props: sh.Properties}, nil
		}
	}
	return nil, ErrNotFound
}

func (d *googleDocument) AddSection(ctx context.Context, title string, rows, cols int) (Section, error) {
	resp, err := d.wb.Sheets.Spreadsheets.BatchUpdate(d.ss.SpreadsheetId, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: title,
					GridProperties: &sheets.GridProperties{
						RowCount:    int64(rows),
						ColumnCount: int64(cols),
					},
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("add sheet %s: %w", title, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return nil, errors.New("add sheet: empty reply")
	}
	return &googleSection{doc: d, props: resp.Replies[0].AddSheet.Properties}, nil
}

func (d *googleDocument) Close() error {
	return nil
}

type googleSection struct {
	doc   *googleDocument
	props *sheets.SheetProperties
}

func (s *googleSection) Title() string {
	return s.props.Title
}

func (s *googleSection) Clear(ctx context.Context) error {
	_, err := s.doc.wb.Sheets.Spreadsheets.Values.
		Clear(s.doc.ss.SpreadsheetId, quoteSheet(s.props.Title), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	return err
}

func (s *googleSection) EnsureSize(ctx context.Context, rows, cols int) error {
	grid := s.props.GridProperties
	if grid != nil && grid.RowCount >= int64(rows) && grid.ColumnCount >= int64(cols) {
		return nil
	}

	want := &sheets.GridProperties{RowCount: int64(rows), ColumnCount: int64(cols)}
	if grid != nil {
		want.RowCount = max(want.RowCount, grid.RowCount)
		want.ColumnCount = max(want.ColumnCount, grid.ColumnCount)
	}

	_, err := s.doc.wb.Sheets.Spreadsheets.BatchUpdate(s.doc.ss.SpreadsheetId, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        s.props.SheetId,
					GridProperties: want,
					// the first sheet has id 0, which omitempty would drop
					ForceSendFields: []string{"SheetId"},
				},
				Fields: "gridProperties(rowCount,columnCount)",
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("resize sheet %s: %w", s.props.Title, err)
	}
	s.props.GridProperties = want
	return nil
}

func (s *googleSection) Write(ctx context.Context, origin string, rows [][]any) error {
	rng := quoteSheet(s.props.Title) + "!" + origin
	_, err := s.doc.wb.Sheets.Spreadsheets.Values.
		Update(s.doc.ss.SpreadsheetId, rng, &sheets.ValueRange{Range: rng, Values: rows}).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	return err
}

func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
