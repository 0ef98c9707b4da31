package publisher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	xlsxExt          = ".xlsx"
	xlsxDefaultSheet = "Sheet1"
	xlsxScratchSheet = "~clearing"
)

// XLSXWorkbook stores each document as <Dir>/<name>.xlsx.
type XLSXWorkbook struct {
	Log *zap.Logger
	Dir string
}

var _ Workbook = (*XLSXWorkbook)(nil)

// NewXLSXWorkbook creates a workbook rooted at dir.
func NewXLSXWorkbook(log *zap.Logger, dir string) *XLSXWorkbook {
	return &XLSXWorkbook{Log: log, Dir: dir}
}

// Path returns the file backing the named document.
func (w *XLSXWorkbook) Path(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	return filepath.Join(w.Dir, clean+xlsxExt)
}

func (w *XLSXWorkbook) FindDocument(_ context.Context, name string) (Document, error) {
	path := w.Path(name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &xlsxDocument{log: w.Log, file: f, path: path}, nil
}

func (w *XLSXWorkbook) CreateDocument(_ context.Context, name string) (Document, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dir %s: %w", w.Dir, err)
	}

	path := w.Path(name)
	f := excelize.NewFile()
	if err := f.SaveAs(path); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("save %s: %w", path, err)
	}
	return &xlsxDocument{log: w.Log, file: f, path: path, fresh: true}, nil
}

type xlsxDocument struct {
	log  *zap.Logger
	file *excelize.File
	path string
	// fresh is set until the first section replaces the default sheet.
	fresh bool
}

func (d *xlsxDocument) URL() string {
	abs, err := filepath.Abs(d.path)
	if err != nil {
		abs = d.path
	}
	return "file://" + filepath.ToSlash(abs)
}

// ShareWithAnyone is a no-op: a local file has no link permissions.
func (d *xlsxDocument) ShareWithAnyone(context.Context) error {
	d.log.Debug("Local workbook, nothing to share", zap.String("path", d.path))
	return nil
}

func (d *xlsxDocument) FindSection(_ context.Context, title string) (Section, error) {
	idx, err := d.file.GetSheetIndex(title)
	if err != nil {
		return nil, err
	}
	if idx == -1 {
		return nil, ErrNotFound
	}
	return &xlsxSection{doc: d, title: title}, nil
}

// AddSection ignores rows and cols: worksheets have no fixed grid.
func (d *xlsxDocument) AddSection(_ context.Context, title string, _, _ int) (Section, error) {
	if d.fresh {
		if err := d.file.SetSheetName(xlsxDefaultSheet, title); err != nil {
			return nil, fmt.Errorf("rename default sheet: %w", err)
		}
		d.fresh = false
	} else if _, err := d.file.NewSheet(title); err != nil {
		return nil, fmt.Errorf("add sheet %s: %w", title, err)
	}

	if err := d.file.Save(); err != nil {
		return nil, fmt.Errorf("save %s: %w", d.path, err)
	}
	return &xlsxSection{doc: d, title: title}, nil
}

func (d *xlsxDocument) Close() error {
	return d.file.Close()
}

type xlsxSection struct {
	doc   *xlsxDocument
	title string
}

func (s *xlsxSection) Title() string {
	return s.title
}

// Clear swaps in an empty sheet under the same title. The section ends up
// last in the workbook.
func (s *xlsxSection) Clear(context.Context) error {
	f := s.doc.file
	if _, err := f.NewSheet(xlsxScratchSheet); err != nil {
		return fmt.Errorf("add scratch sheet: %w", err)
	}
	if err := f.DeleteSheet(s.title); err != nil {
		return fmt.Errorf("delete sheet %s: %w", s.title, err)
	}
	if err := f.SetSheetName(xlsxScratchSheet, s.title); err != nil {
		return fmt.Errorf("rename scratch sheet: %w", err)
	}

	idx, err := f.GetSheetIndex(s.title)
	if err != nil {
		return fmt.Errorf("find sheet %s: %w", s.title, err)
	}
	f.SetActiveSheet(idx)

	if err := f.Save(); err != nil {
		return fmt.Errorf("save %s: %w", s.doc.path, err)
	}
	return nil
}

func (s *xlsxSection) EnsureSize(context.Context, int, int) error {
	return nil
}

func (s *xlsxSection) Write(_ context.Context, origin string, rows [][]any) error {
	col, row, err := excelize.CellNameToCoordinates(origin)
	if err != nil {
		return fmt.Errorf("origin %q: %w", origin, err)
	}

	for i, values := range rows {
		if len(values) == 0 {
			continue
		}
		cell := CellAddress(row+i, col)
		if err := s.doc.file.SetSheetRow(s.title, cell, &values); err != nil {
			return fmt.Errorf("write row %s: %w", cell, err)
		}
	}

	if err := s.doc.file.Save(); err != nil {
		return fmt.Errorf("save %s: %w", s.doc.path, err)
	}
	return nil
}
