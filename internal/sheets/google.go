package sheets

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const valueInputRaw = "RAW"

// GoogleConfig selects service-account credentials: either a JSON key file or
// an email + PEM private key pair.
type GoogleConfig struct {
	CredentialsFile string
	ClientEmail     string
	PrivateKey      string
}

// Google is a Client backed by the Google Sheets v4 API.
type Google struct {
	svc *gsheets.Service
}

// NewGoogle builds a Sheets client authenticated as a service account.
func NewGoogle(ctx context.Context, cfg GoogleConfig) (*Google, error) {
	var opt option.ClientOption
	if cfg.CredentialsFile != "" {
		opt = option.WithCredentialsFile(cfg.CredentialsFile)
	} else {
		conf := &jwt.Config{
			Email:      cfg.ClientEmail,
			PrivateKey: []byte(cfg.PrivateKey),
			Scopes:     []string{gsheets.SpreadsheetsScope},
			TokenURL:   google.JWTTokenURL,
		}
		opt = option.WithTokenSource(conf.TokenSource(ctx))
	}
	svc, err := gsheets.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &Google{svc: svc}, nil
}

// a1 quotes a sheet title for A1 notation.
func a1(title, rng string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!" + rng
}

// EnsureSheet adds the sheet with a header row when it does not exist yet.
func (g *Google) EnsureSheet(ctx context.Context, spreadsheetID, title string, header []string) error {
	ss, err := g.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}

	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{Properties: &gsheets.SheetProperties{Title: title}},
		}},
	}
	if _, err := g.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", title, err)
	}
	return g.UpdateRow(ctx, spreadsheetID, title, 1, header)
}

// Rows reads columns A:F of the sheet.
func (g *Google) Rows(ctx context.Context, spreadsheetID, title string) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, a1(title, "A:F")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", title, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, r := range resp.Values {
		row := make([]string, len(r))
		for j, cell := range r {
			row[j] = fmt.Sprint(cell)
		}
		rows[i] = row
	}
	return rows, nil
}

// UpdateRow overwrites row number row.
func (g *Google) UpdateRow(ctx context.Context, spreadsheetID, title string, row int, values []string) error {
	rng := a1(title, fmt.Sprintf("A%d:F%d", row, row))
	vr := &gsheets.ValueRange{Values: [][]interface{}{toCells(values)}}
	_, err := g.svc.Spreadsheets.Values.Update(spreadsheetID, rng, vr).
		ValueInputOption(valueInputRaw).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// AppendRow inserts a row after the last non-empty one.
func (g *Google) AppendRow(ctx context.Context, spreadsheetID, title string, values []string) error {
	vr := &gsheets.ValueRange{Values: [][]interface{}{toCells(values)}}
	_, err := g.svc.Spreadsheets.Values.Append(spreadsheetID, a1(title, "A:F"), vr).
		ValueInputOption(valueInputRaw).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %q: %w", title, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
