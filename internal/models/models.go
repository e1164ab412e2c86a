package models

import "time"

// Default settings for a newly observed group.
const (
	DefaultReminderTime = "09:00"
)

// DefaultWeekdays are ISO weekdays (1 = Monday) reminders fire on.
var DefaultWeekdays = []int{1, 2, 3, 4, 5}

// GroupRecord holds everything the bot knows about one group chat.
type GroupRecord struct {
	ID               int64               `json:"id"`
	StandUpLogs      []UpdateEntry       `json:"standUpLogs"`
	State            GroupState          `json:"state"`
	Settings         GroupSettings       `json:"settings"`
	Metadata         GroupMetadata       `json:"metadata"`
	MemberCategories map[string][]string `json:"memberCategories"`
}

// GroupSettings is the admin-controlled configuration of a group.
type GroupSettings struct {
	ReminderTimeUTC string `json:"reminderTimeUTC"` // "HH:MM"
	IsActive        bool   `json:"isActive"`
	SpreadsheetID   string `json:"spreadsheetId,omitempty"`
	ActiveWeekdays  []int  `json:"activeWeekdays"`
}

// GroupMetadata is bookkeeping maintained by the bot itself.
type GroupMetadata struct {
	GroupName        string     `json:"groupName"`
	JoinedAt         time.Time  `json:"joinedAt"`
	LastActivity     time.Time  `json:"lastActivity"`
	LastReminderTime *time.Time `json:"lastReminderTime,omitempty"`
}

// GroupState tracks multi-message group interactions.
type GroupState struct {
	// ReminderSetupBy is the user expected to answer a /setReminder prompt (0 = none).
	ReminderSetupBy int64 `json:"reminderSetupBy,omitempty"`
}

// UpdateEntry is the latest standup update of one user in a group.
type UpdateEntry struct {
	User string    `json:"user"`
	Text string    `json:"text"`
	Date time.Time `json:"date"`
}

// UserSession is the private-chat state of one user.
type UserSession struct {
	TargetGroupID int64        `json:"targetGroupId,omitempty"`
	DraftUpdate   *DraftUpdate `json:"draftUpdate,omitempty"`
}

// Task is one what/why pair of a draft section.
type Task struct {
	What string `json:"what"`
	Why  string `json:"why"`
}

// DraftContent holds the finished tasks of both sections.
type DraftContent struct {
	Yesterday []Task `json:"yesterday"`
	Today     []Task `json:"today"`
}

// DraftUpdate is a guided update being collected in a private chat.
type DraftUpdate struct {
	ChatID       int64        `json:"chatId"`
	State        DraftState   `json:"state"`
	Collecting   Field        `json:"collecting"`
	CurrentTask  *Task        `json:"currentTask"`
	Content      DraftContent `json:"content"`
	LastModified time.Time    `json:"lastModified"`
}

// Section returns the task list the draft is currently appending to.
func (d *DraftUpdate) Section() *[]Task {
	if d.State == StateCollectingToday {
		return &d.Content.Today
	}
	return &d.Content.Yesterday
}
