package standup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTouchGroupRefreshesMetadata(t *testing.T) {
	f := newFixture(t, nil)
	g := f.svc.TouchGroup(groupID, "Old Name")
	joined := g.Metadata.JoinedAt

	f.clock.Advance(time.Hour)
	g = f.svc.TouchGroup(groupID, "New Name")
	assert.Equal(t, "New Name", g.Metadata.GroupName)
	assert.Equal(t, joined, g.Metadata.JoinedAt)
	assert.Equal(t, f.svc.Now(), g.Metadata.LastActivity)

	f.svc.TouchGroup(groupID, "")
	assert.Equal(t, "New Name", g.Metadata.GroupName)
}

func TestNamedGroups(t *testing.T) {
	f := newFixture(t, nil)
	f.svc.TouchGroup(-3, "Gamma")
	f.svc.TouchGroup(-1, "")
	f.svc.TouchGroup(-2, "Beta")

	named := f.svc.NamedGroups()
	require.Len(t, named, 2)
	assert.Equal(t, int64(-3), named[0].ID)
	assert.Equal(t, int64(-2), named[1].ID)
}

func TestReminderSetupFlow(t *testing.T) {
	f := newFixture(t, nil) // 10:00 UTC
	f.svc.BeginReminderSetup(groupID, 7)
	assert.True(t, f.svc.PendingReminderSetup(groupID, 7))
	assert.False(t, f.svc.PendingReminderSetup(groupID, 8))

	utc, err := f.svc.ApplyReminderReply(groupID, "Now: 12:00 pm\nSet: 9:30 am")
	require.NoError(t, err)
	assert.Equal(t, "07:30", utc.String())

	g, _ := f.store.LookupGroup(groupID)
	assert.Equal(t, "07:30", g.Settings.ReminderTimeUTC)
	assert.True(t, g.Settings.IsActive)
	assert.False(t, f.svc.PendingReminderSetup(groupID, 7))
}

func TestReminderSetupRejectsMalformed(t *testing.T) {
	for _, reply := range []string{
		"Now: 12:00 pm",
		"Now: 13:00 pm\nSet: 9:30 am",
		"Then: 12:00 pm\nSet: 9:30 am",
		"Now: 12:00 pm\nSet: 9:30",
	} {
		t.Run(reply, func(t *testing.T) {
			f := newFixture(t, nil)
			f.svc.BeginReminderSetup(groupID, 7)

			_, err := f.svc.ApplyReminderReply(groupID, reply)
			assert.ErrorIs(t, err, ErrInvalidFormat)

			g, _ := f.store.LookupGroup(groupID)
			assert.Equal(t, "09:00", g.Settings.ReminderTimeUTC)
			assert.False(t, g.Settings.IsActive)
			assert.False(t, f.svc.PendingReminderSetup(groupID, 7), "setup is cleared")
		})
	}
}

func TestToggleReminder(t *testing.T) {
	f := newFixture(t, nil)
	assert.True(t, f.svc.ToggleReminder(groupID))
	assert.False(t, f.svc.ToggleReminder(groupID))
}

func TestSpreadsheetSettings(t *testing.T) {
	f := newFixture(t, nil)

	assert.ErrorIs(t, f.svc.SetSpreadsheet(groupID, "https://docs.google.com/x"), ErrInvalidFormat)
	require.NoError(t, f.svc.SetSpreadsheet(groupID, " 1AbC_d-9 "))
	g, _ := f.store.LookupGroup(groupID)
	assert.Equal(t, "1AbC_d-9", g.Settings.SpreadsheetID)

	assert.True(t, f.svc.RemoveSpreadsheet(groupID))
	assert.False(t, f.svc.RemoveSpreadsheet(groupID))
	assert.Empty(t, g.Settings.SpreadsheetID)
}
