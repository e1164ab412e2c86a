// Package sheets exports standup rows to spreadsheets, one sheet per ISO week.
package sheets

import (
	"context"
	"fmt"
	"time"
)

// Header is the first row of every week sheet.
var Header = []string{"Group ID", "Group Name", "User", "Category", "Update", "Date"}

// Column positions within Header.
const (
	ColGroupID = 0
	ColUser    = 2
	ColDate    = 5
)

// DateLayout is how the Date column is written.
const DateLayout = "2006-01-02"

// Client is the spreadsheet contract the export pipeline needs. Row numbers are
// 1-based and include the header row.
type Client interface {
	EnsureSheet(ctx context.Context, spreadsheetID, title string, header []string) error
	Rows(ctx context.Context, spreadsheetID, title string) ([][]string, error)
	UpdateRow(ctx context.Context, spreadsheetID, title string, row int, values []string) error
	AppendRow(ctx context.Context, spreadsheetID, title string, values []string) error
}

// WeekLabel returns "<ISO year>-W<week> MM/DD-MM/DD" spanning Monday to Friday of t's week.
func WeekLabel(t time.Time) string {
	t = t.UTC()
	year, week := t.ISOWeek()
	offset := (int(t.Weekday()) + 6) % 7 // days since Monday
	monday := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
	friday := monday.AddDate(0, 0, 4)
	return fmt.Sprintf("%d-W%02d %s-%s", year, week, monday.Format("01/02"), friday.Format("01/02"))
}

// SheetTitle is the week-bucket sheet name for t.
func SheetTitle(t time.Time) string {
	return "Standups " + WeekLabel(t)
}
