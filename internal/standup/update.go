package standup

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"standup-bot/internal/metrics"
	"standup-bot/internal/models"
	"standup-bot/internal/sheets"

	"go.uber.org/zap"
)

// Status tells whether a submission added or replaced the user's entry.
type Status string

const (
	StatusCreated  Status = "created"
	StatusReplaced Status = "replaced"
)

// Result is the outcome of SubmitUpdate. The update is stored locally even
// when ExportErr is set.
type Result struct {
	Status    Status
	Exported  bool
	ExportErr error
}

// SubmitUpdate stores text as user's latest update in the group, persists,
// then exports it.
func (s *Service) SubmitUpdate(ctx context.Context, groupID int64, user, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrEmptyUpdate
	}

	now := s.Now()
	g := s.store.Group(groupID)
	entry := models.UpdateEntry{User: user, Text: text, Date: now}
	status := upsertEntry(g, entry)
	g.Metadata.LastActivity = now
	s.store.Persist()
	metrics.UpdatesSubmitted.WithLabelValues(string(status)).Inc()

	res := Result{Status: status}
	if err := s.Export(ctx, g, entry); err != nil {
		res.ExportErr = err
		s.log.Warn("export update",
			zap.Int64("chat_id", groupID), zap.String("user", user), zap.Error(err))
		return res, nil
	}
	res.Exported = true
	return res, nil
}

// upsertEntry replaces the user's entry in place or appends a new one.
func upsertEntry(g *models.GroupRecord, entry models.UpdateEntry) Status {
	for i := range g.StandUpLogs {
		if g.StandUpLogs[i].User == entry.User {
			g.StandUpLogs[i] = entry
			return StatusReplaced
		}
	}
	g.StandUpLogs = append(g.StandUpLogs, entry)
	return StatusCreated
}

// Export writes entry to the group's week sheet, overwriting the row of the
// same group, user and day if there is one.
func (s *Service) Export(ctx context.Context, g *models.GroupRecord, entry models.UpdateEntry) error {
	if g.Settings.SpreadsheetID == "" {
		metrics.Exports.WithLabelValues("no_spreadsheet").Inc()
		return ErrNoSpreadsheet
	}
	if err := s.export(ctx, g, entry); err != nil {
		metrics.Exports.WithLabelValues("failed").Inc()
		return err
	}
	metrics.Exports.WithLabelValues("ok").Inc()
	return nil
}

func (s *Service) export(ctx context.Context, g *models.GroupRecord, entry models.UpdateEntry) error {
	if s.sheets == nil {
		return fmt.Errorf("%w: no spreadsheet client", ErrExportFailed)
	}
	id, title := g.Settings.SpreadsheetID, sheets.SheetTitle(entry.Date)

	if err := s.sheets.EnsureSheet(ctx, id, title, sheets.Header); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	groupID := strconv.FormatInt(g.ID, 10)
	day := entry.Date.UTC().Format(sheets.DateLayout)
	row := []string{groupID, g.Metadata.GroupName, entry.User, categoryLabel(g, entry.User), entry.Text, day}

	rows, err := s.sheets.Rows(ctx, id, title)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	for i := 1; i < len(rows); i++ {
		r := rows[i]
		if cell(r, sheets.ColGroupID) == groupID && cell(r, sheets.ColUser) == entry.User && cell(r, sheets.ColDate) == day {
			if err := s.sheets.UpdateRow(ctx, id, title, i+1, row); err != nil {
				return fmt.Errorf("%w: %w", ErrExportFailed, err)
			}
			return nil
		}
	}
	if err := s.sheets.AppendRow(ctx, id, title, row); err != nil {
		return fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func categoryLabel(g *models.GroupRecord, user string) string {
	if cats := CategoriesOf(g, user); len(cats) > 0 {
		return strings.Join(cats, ", ")
	}
	return Uncategorized
}
