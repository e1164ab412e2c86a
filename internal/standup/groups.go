package standup

import (
	"fmt"
	"regexp"
	"strings"

	"standup-bot/internal/models"
	"standup-bot/internal/utils"
)

var spreadsheetIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// TouchGroup records activity in a group, creating its record on first sight
// and refreshing its name from the chat title.
func (s *Service) TouchGroup(groupID int64, title string) *models.GroupRecord {
	g := s.store.Group(groupID)
	if title != "" {
		g.Metadata.GroupName = title
	}
	g.Metadata.LastActivity = s.Now()
	s.store.Persist()
	return g
}

// NamedGroups returns known groups with a name, ordered by id.
func (s *Service) NamedGroups() []*models.GroupRecord {
	var out []*models.GroupRecord
	for _, g := range s.store.Groups() {
		if g.Metadata.GroupName != "" {
			out = append(out, g)
		}
	}
	return out
}

// SelectTarget routes the user's drafted updates to groupID.
func (s *Service) SelectTarget(userID, groupID int64) error {
	if _, ok := s.store.LookupGroup(groupID); !ok {
		return ErrGroupNotFound
	}
	s.store.Session(userID).TargetGroupID = groupID
	s.store.Persist()
	return nil
}

// BeginReminderSetup expects the next message of userID in the group to be
// the two-line reminder answer.
func (s *Service) BeginReminderSetup(groupID, userID int64) {
	s.store.Group(groupID).State.ReminderSetupBy = userID
	s.store.Persist()
}

// PendingReminderSetup reports whether userID owes the group a reminder answer.
func (s *Service) PendingReminderSetup(groupID, userID int64) bool {
	g, ok := s.store.LookupGroup(groupID)
	return ok && userID != 0 && g.State.ReminderSetupBy == userID
}

// ApplyReminderReply parses
//
//	Now: 2:55 pm
//	Set: 10:25 am
//
// and stores the reminder in UTC, activating reminders. The pending setup is
// cleared whether or not the answer parses.
func (s *Service) ApplyReminderReply(groupID int64, text string) (utils.TimeOfDay, error) {
	g := s.store.Group(groupID)
	g.State.ReminderSetupBy = 0
	defer s.store.Persist()

	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) != 2 {
		return utils.TimeOfDay{}, fmt.Errorf("%w: expected two lines, Now and Set", ErrInvalidFormat)
	}
	current, err := labelled(lines[0], "now")
	if err != nil {
		return utils.TimeOfDay{}, err
	}
	desired, err := labelled(lines[1], "set")
	if err != nil {
		return utils.TimeOfDay{}, err
	}

	utc, err := utils.ConvertToUTC(desired, current, s.Now())
	if err != nil {
		return utils.TimeOfDay{}, err
	}
	g.Settings.ReminderTimeUTC = utc.String()
	g.Settings.IsActive = true
	return utc, nil
}

func labelled(line, label string) (string, error) {
	key, value, ok := strings.Cut(line, ":")
	if !ok || !strings.EqualFold(strings.TrimSpace(key), label) {
		return "", fmt.Errorf("%w: line %q must start with %q", ErrInvalidFormat, line, label+":")
	}
	return strings.TrimSpace(value), nil
}

// ToggleReminder flips reminders on or off and returns the new state.
func (s *Service) ToggleReminder(groupID int64) bool {
	g := s.store.Group(groupID)
	g.Settings.IsActive = !g.Settings.IsActive
	s.store.Persist()
	return g.Settings.IsActive
}

// SetSpreadsheet sets the group's export target.
func (s *Service) SetSpreadsheet(groupID int64, id string) error {
	id = strings.TrimSpace(id)
	if !spreadsheetIDPattern.MatchString(id) {
		return fmt.Errorf("%w: spreadsheet id %q", ErrInvalidFormat, id)
	}
	s.store.Group(groupID).Settings.SpreadsheetID = id
	s.store.Persist()
	return nil
}

// RemoveSpreadsheet clears the export target and reports whether one was set.
func (s *Service) RemoveSpreadsheet(groupID int64) bool {
	g := s.store.Group(groupID)
	had := g.Settings.SpreadsheetID != ""
	g.Settings.SpreadsheetID = ""
	s.store.Persist()
	return had
}
