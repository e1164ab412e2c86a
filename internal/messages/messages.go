// Package messages renders everything the bot says. Functions returning
// MarkdownV2 are named *Markdown or documented as such; everything else is plain text.
package messages

import (
	"fmt"
	"sort"
	"strings"

	"standup-bot/internal/models"
	"standup-bot/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Escape escapes Telegram MarkdownV2 reserved characters.
func Escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, text)
}

// Success prefixes a confirmation.
func Success(msg string) string { return "✅ " + msg }

// Failure prefixes an error report.
func Failure(msg string) string { return "❌ " + msg }

// Mention renders a handle as @handle unless it already is one.
func Mention(handle string) string {
	if strings.HasPrefix(handle, "@") {
		return handle
	}
	return "@" + handle
}

// ---------- draft ------------------------------------------------------------

const (
	PromptStartYesterday = "Let's prepare your standup update.\n\n" +
		"First, tell me what you accomplished yesterday.\n\n" +
		"What was your biggest accomplishment 1:"
	PromptStartToday = "Great! Now let's talk about your priorities for today.\n\nWhat is prio 1:"
	PromptWhy        = "Why?"
)

func taskLabel(state models.DraftState) string {
	if state == models.StateCollectingToday {
		return "prio"
	}
	return "accomplishment"
}

func renderTasks(b *strings.Builder, tasks []models.Task, label string, esc func(string) string) {
	for i, task := range tasks {
		fmt.Fprint(b, esc(fmt.Sprintf("%s %d:\nwhat: %s\nwhy: %s\n\n", label, i+1, task.What, task.Why)))
	}
}

// TaskPreview lists the tasks collected so far in a section.
func TaskPreview(tasks []models.Task, state models.DraftState) string {
	label := taskLabel(state)
	parts := make([]string, 0, len(tasks))
	for i, task := range tasks {
		parts = append(parts, fmt.Sprintf("%s %d:\nwhat: %s\nwhy: %s", label, i+1, task.What, task.Why))
	}
	return strings.Join(parts, "\n\n")
}

// NextTaskPrompt asks for the task after the given count.
func NextTaskPrompt(state models.DraftState, collected int) string {
	if state == models.StateCollectingToday {
		return fmt.Sprintf("Write /done to finish or what is prio %d?", collected+1)
	}
	return "Write /today to finish yesterday's accomplishments and start today's priorities. " +
		fmt.Sprintf("Otherwise tell me, what was yesterday's accomplishment %d?", collected+1)
}

// TooLong reports an over-long draft answer.
func TooLong(length, limit int) string {
	return Failure(fmt.Sprintf("Your input is too long (%d characters). Please keep it under %d characters. Try again:", length, limit))
}

// FinalUpdate renders both draft sections as plain text.
func FinalUpdate(content models.DraftContent) string {
	var b strings.Builder
	identity := func(s string) string { return s }
	b.WriteString("Yesterday:\n")
	renderTasks(&b, content.Yesterday, "accomplishment", identity)
	b.WriteString("Today:\n")
	renderTasks(&b, content.Today, "prio", identity)
	return strings.TrimRight(b.String(), "\n")
}

// PostedUpdateMarkdown renders a finished draft for the group, headed by its author.
func PostedUpdateMarkdown(displayName, handle string, content models.DraftContent) string {
	var b strings.Builder
	if handle == "" {
		fmt.Fprintf(&b, "*%s*:\n\n", Escape(displayName))
	} else {
		fmt.Fprintf(&b, "*%s* \\(%s\\):\n\n", Escape(displayName), Escape(handle))
	}
	b.WriteString("*Yesterday:*\n")
	renderTasks(&b, content.Yesterday, "accomplishment", Escape)
	b.WriteString("*Today:*\n")
	renderTasks(&b, content.Today, "prio", Escape)
	return strings.TrimRight(b.String(), "\n")
}

// ---------- reminders --------------------------------------------------------

// Reminder is the daily standup prompt; Monday asks about Friday and the weekend.
func Reminder(monday bool) string {
	if monday {
		return "🕐 Good morning! It's standup time.\n\n" +
			"Share your update using /myUpdate:\n" +
			"/myUpdate\nFriday: <stuff>\nWeekend: <stuff>\nToday: <stuff>\nBlockers: <stuff>"
	}
	return "🕐 Good morning! It's standup time.\n\n" +
		"Share your update using /myUpdate:\n" +
		"/myUpdate Yesterday: <stuff>\nToday: <stuff>\nBlockers: <stuff>"
}

// MissingFollowUpMarkdown lists members who have not submitted yet.
func MissingFollowUpMarkdown(missing []string) string {
	var b strings.Builder
	b.WriteString("⚠️ *Missing Standup Updates*\n\n")
	b.WriteString(Escape("The following members haven't submitted updates yet:") + "\n")
	for _, m := range missing {
		b.WriteString("• " + Escape(Mention(m)) + "\n")
	}
	b.WriteString("\n" + Escape("Use /myUpdate to submit your standup."))
	return b.String()
}

// ---------- reports ----------------------------------------------------------

// CategoryUpdates is one block of the /showStandup report.
type CategoryUpdates struct {
	Category string
	Entries  []models.UpdateEntry
}

// StandupReportMarkdown renders today's updates grouped by category.
func StandupReportMarkdown(blocks []CategoryUpdates, pending []string, submitted, total int) string {
	var b strings.Builder
	b.WriteString("*Today's Standup Updates*\n\n")
	for _, block := range blocks {
		b.WriteString("*" + Escape(block.Category) + "*:\n")
		for _, e := range block.Entries {
			b.WriteString("• " + Escape(Mention(e.User)) + ":\n")
			lines := strings.Split(e.Text, "\n")
			for i, line := range lines {
				lines[i] = "  " + Escape(line)
			}
			b.WriteString(strings.Join(lines, "\n"))
			b.WriteString("\n\n")
		}
	}
	if total > 0 {
		if len(pending) > 0 {
			b.WriteString("*Pending Updates From:*\n")
			for _, m := range pending {
				b.WriteString("• " + Escape(Mention(m)) + "\n")
			}
		}
		fmt.Fprintf(&b, "\n*Summary:* %d/%d updates submitted", submitted, total)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NoUpdatesToday is sent when /showStandup finds nothing.
const NoUpdatesToday = "No standup updates for today yet.\n\nUse /myUpdate or /up to share yours."

// NoMembers is sent when /missing has nobody to check.
const NoMembers = "No team members configured.\nUse /addMember [category] [username] to add members."

// MissingMember is one row of the /missing report.
type MissingMember struct {
	User       string
	Categories []string
}

// MissingReportMarkdown renders the /missing report.
func MissingReportMarkdown(missing []MissingMember, submitted, total int) string {
	if len(missing) == 0 {
		return fmt.Sprintf("✅ *All team members have submitted their updates\\!*\n*Total:* %d/%d updates submitted", submitted, total)
	}
	var b strings.Builder
	b.WriteString("*Missing Standup Updates*\n\n")
	for _, m := range missing {
		b.WriteString("• " + Escape(Mention(m.User)) + "\n")
		b.WriteString("  _Categories: " + Escape(strings.Join(m.Categories, ", ")) + "_\n\n")
	}
	fmt.Fprintf(&b, "*Summary:* %d/%d updates submitted", submitted, total)
	return b.String()
}

// MemberListMarkdown renders categories and their members, sorted by category.
func MemberListMarkdown(categories map[string][]string) string {
	var b strings.Builder
	b.WriteString("*Team Members by Category*\n\n")
	if len(categories) == 0 {
		b.WriteString(Escape("No members set in any category") + "\n")
	}
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString("*" + Escape(name) + "*:\n")
		members := categories[name]
		if len(members) == 0 {
			b.WriteString("• No members\n\n")
			continue
		}
		for _, m := range members {
			b.WriteString("• " + Escape(Mention(m)) + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(Escape("To add members:\n/addMember [category] [username1], [username2], ...\n\n" +
		"To remove members:\n/removeMember [username1], [username2], ...\n\n" +
		"Example: /addMember developer john_doe"))
	return b.String()
}

// ---------- settings ---------------------------------------------------------

// ReminderSet confirms a /setReminder answer.
func ReminderSet(utc utils.TimeOfDay) string {
	return Success(fmt.Sprintf("Reminder set for %s UTC (%s UTC). Reminders are now active.",
		utc.String(), utils.FormatTimeOfDay(utc.Hour, utc.Minute, true)))
}

// ReminderStatus renders /showReminder.
func ReminderStatus(s models.GroupSettings) string {
	status := "Inactive"
	if s.IsActive {
		status = "Active"
	}
	at := s.ReminderTimeUTC
	if t, err := utils.ParseClock(s.ReminderTimeUTC); err == nil {
		at = fmt.Sprintf("%s (%s)", t.String(), utils.FormatTimeOfDay(t.Hour, t.Minute, true))
	}
	return fmt.Sprintf("⏰ Reminder Settings\n\nStatus: %s\nTime (UTC): %s", status, at)
}
