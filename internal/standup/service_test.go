package standup

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"standup-bot/internal/models"
	"standup-bot/internal/sheets"
	"standup-bot/internal/storage"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	groupID = int64(-100123)
	sheetID = "team-sheet"
)

// Monday of ISO week 12.
var monday = time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	store *storage.Store
	clock *clockwork.FakeClock
	wb    *sheets.Workbook
}

func newFixture(t *testing.T, client sheets.Client) *fixture {
	t.Helper()
	dir := t.TempDir()
	clock := clockwork.NewFakeClockAt(monday)
	store, err := storage.New(storage.NewJSONFile(filepath.Join(dir, "data.json")),
		storage.Defaults{SpreadsheetID: sheetID}, clock, nil)
	require.NoError(t, err)

	f := &fixture{store: store, clock: clock}
	if client == nil {
		f.wb, err = sheets.NewWorkbook(filepath.Join(dir, "exports"))
		require.NoError(t, err)
		client = f.wb
	}
	f.svc, err = New(Config{Store: store, Sheets: client, Clock: clock})
	require.NoError(t, err)
	return f
}

func (f *fixture) rows(t *testing.T) [][]string {
	t.Helper()
	rows, err := f.wb.Rows(context.Background(), sheetID, sheets.SheetTitle(f.clock.Now()))
	require.NoError(t, err)
	return rows
}

type failingSheets struct{ calls int }

func (f *failingSheets) EnsureSheet(context.Context, string, string, []string) error {
	f.calls++
	return errors.New("quota exceeded")
}
func (f *failingSheets) Rows(context.Context, string, string) ([][]string, error) { return nil, nil }
func (f *failingSheets) UpdateRow(context.Context, string, string, int, []string) error {
	return nil
}
func (f *failingSheets) AppendRow(context.Context, string, string, []string) error { return nil }

func TestNewRequiresStore(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestSubmitUpdateCreatesGroupAndExports(t *testing.T) {
	f := newFixture(t, nil)
	text := "Yesterday: X\nToday: Y\nBlockers: None"

	res, err := f.svc.SubmitUpdate(context.Background(), groupID, "alice", text)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, res.Status)
	assert.True(t, res.Exported)
	assert.NoError(t, res.ExportErr)

	g, ok := f.store.LookupGroup(groupID)
	require.True(t, ok)
	assert.Equal(t, []models.UpdateEntry{{User: "alice", Text: text, Date: monday}}, g.StandUpLogs)

	rows := f.rows(t)
	require.Len(t, rows, 2)
	assert.Equal(t, sheets.Header, rows[0])
	assert.Equal(t, []string{"-100123", "", "alice", Uncategorized, text, "2024-03-18"}, rows[1])
}

func TestSubmitUpdateTwiceSameDayKeepsOneEntryAndRow(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.SubmitUpdate(ctx, groupID, "bob", "first")
	require.NoError(t, err)
	_, err = f.svc.SubmitUpdate(ctx, groupID, "alice", "other")
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	res, err := f.svc.SubmitUpdate(ctx, groupID, "bob", "  second  ")
	require.NoError(t, err)
	assert.Equal(t, StatusReplaced, res.Status)

	g, _ := f.store.LookupGroup(groupID)
	require.Len(t, g.StandUpLogs, 2)
	assert.Equal(t, models.UpdateEntry{User: "bob", Text: "second", Date: monday.Add(2 * time.Hour)}, g.StandUpLogs[0],
		"replaced in place")

	rows := f.rows(t)
	require.Len(t, rows, 3)
	assert.Equal(t, "bob", rows[1][sheets.ColUser])
	assert.Equal(t, "second", rows[1][4])
	assert.Equal(t, "alice", rows[2][sheets.ColUser])
}

func TestSubmitUpdateNextDayAddsRow(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.SubmitUpdate(ctx, groupID, "bob", "monday")
	require.NoError(t, err)
	f.clock.Advance(24 * time.Hour)
	_, err = f.svc.SubmitUpdate(ctx, groupID, "bob", "tuesday")
	require.NoError(t, err)

	g, _ := f.store.LookupGroup(groupID)
	assert.Len(t, g.StandUpLogs, 1)

	rows := f.rows(t)
	require.Len(t, rows, 3, "same week sheet, one row per day")
	assert.Equal(t, "2024-03-19", rows[2][sheets.ColDate])
}

func TestSubmitUpdateRejectsEmpty(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.SubmitUpdate(context.Background(), groupID, "alice", " \n ")
	assert.ErrorIs(t, err, ErrEmptyUpdate)
	_, ok := f.store.LookupGroup(groupID)
	assert.False(t, ok)
}

func TestSubmitUpdateWithoutSpreadsheetKeepsLocalWrite(t *testing.T) {
	f := newFixture(t, nil)
	f.store.Group(groupID).Settings.SpreadsheetID = ""

	res, err := f.svc.SubmitUpdate(context.Background(), groupID, "alice", "hello")
	require.NoError(t, err)
	assert.False(t, res.Exported)
	assert.ErrorIs(t, res.ExportErr, ErrNoSpreadsheet)

	g, _ := f.store.LookupGroup(groupID)
	assert.Len(t, g.StandUpLogs, 1)
}

func TestSubmitUpdateExportFailureKeepsLocalWrite(t *testing.T) {
	client := &failingSheets{}
	f := newFixture(t, client)

	res, err := f.svc.SubmitUpdate(context.Background(), groupID, "alice", "hello")
	require.NoError(t, err)
	assert.False(t, res.Exported)
	assert.ErrorIs(t, res.ExportErr, ErrExportFailed)
	assert.ErrorContains(t, res.ExportErr, "quota exceeded")
	assert.Equal(t, 1, client.calls)

	g, _ := f.store.LookupGroup(groupID)
	assert.Len(t, g.StandUpLogs, 1)
}

func TestExportUsesCategories(t *testing.T) {
	f := newFixture(t, nil)
	g := f.store.Group(groupID)
	g.Metadata.GroupName = "Core Team"
	g.MemberCategories["eng"] = []string{"alice"}
	g.MemberCategories["leads"] = []string{"alice"}

	_, err := f.svc.SubmitUpdate(context.Background(), groupID, "Alice Smith (@alice)", "done")
	require.NoError(t, err)

	rows := f.rows(t)
	require.Len(t, rows, 2)
	assert.Equal(t, "Core Team", rows[1][1])
	assert.Equal(t, "eng, leads", rows[1][3])
}
