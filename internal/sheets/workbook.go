package sheets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

var spreadsheetIDRx = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Workbook is a Client writing one local .xlsx file per spreadsheet id.
type Workbook struct {
	Dir string
}

// NewWorkbook returns a Workbook rooted at dir, creating it if necessary.
func NewWorkbook(dir string) (*Workbook, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Workbook{Dir: dir}, nil
}

func (w *Workbook) path(spreadsheetID string) (string, error) {
	if !spreadsheetIDRx.MatchString(spreadsheetID) {
		return "", fmt.Errorf("invalid spreadsheet id %q", spreadsheetID)
	}
	return filepath.Join(w.Dir, spreadsheetID+".xlsx"), nil
}

// sheetName maps a title onto excelize's allowed sheet name characters.
func sheetName(title string) string {
	return strings.NewReplacer("/", ".", "\\", ".", ":", ".", "?", "", "*", "", "[", "(", "]", ")").Replace(title)
}

func (w *Workbook) open(spreadsheetID string) (*excelize.File, string, error) {
	path, err := w.path(spreadsheetID)
	if err != nil {
		return nil, "", err
	}
	f, err := excelize.OpenFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return excelize.NewFile(), path, nil
	}
	if err != nil {
		return nil, "", err
	}
	return f, path, nil
}

// EnsureSheet adds the sheet with a header row when it does not exist yet.
func (w *Workbook) EnsureSheet(_ context.Context, spreadsheetID, title string, header []string) error {
	f, path, err := w.open(spreadsheetID)
	if err != nil {
		return err
	}
	defer f.Close()

	name := sheetName(title)
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return err
	}
	if idx >= 0 {
		return nil
	}
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	return f.SaveAs(path)
}

// Rows returns every row of the sheet.
func (w *Workbook) Rows(_ context.Context, spreadsheetID, title string) ([][]string, error) {
	f, _, err := w.open(spreadsheetID)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(sheetName(title))
}

// UpdateRow overwrites row number row.
func (w *Workbook) UpdateRow(_ context.Context, spreadsheetID, title string, row int, values []string) error {
	f, path, err := w.open(spreadsheetID)
	if err != nil {
		return err
	}
	defer f.Close()
	return w.writeRow(f, path, sheetName(title), row, values)
}

// AppendRow writes after the last row.
func (w *Workbook) AppendRow(_ context.Context, spreadsheetID, title string, values []string) error {
	f, path, err := w.open(spreadsheetID)
	if err != nil {
		return err
	}
	defer f.Close()

	name := sheetName(title)
	rows, err := f.GetRows(name)
	if err != nil {
		return err
	}
	return w.writeRow(f, path, name, len(rows)+1, values)
}

func (w *Workbook) writeRow(f *excelize.File, path, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return err
	}
	return f.SaveAs(path)
}
