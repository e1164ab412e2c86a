package handlers

import (
	"errors"
	"fmt"
	"strings"

	"standup-bot/internal/messages"
	"standup-bot/internal/models"
	"standup-bot/internal/standup"
)

const (
	txtGroupOnly   = "This command only works in group chats."
	txtPrivateOnly = "This command only works in a private chat with me."
	txtAdminOnly   = "Only group administrators can use this command."

	txtNoTarget       = "Please select a group first: use /showGroups and then /setGC <number>."
	txtTargetGone     = "The group you selected is no longer available. Use /showGroups to pick another one."
	txtNoDraft        = "No update in progress. Use /start to begin one."
	txtCancelled      = "Update preparation cancelled."
	txtNoYesterday    = "Please add at least one accomplishment from yesterday first."
	txtNoToday        = "Please add at least one priority for today first."
	txtAlreadyToday   = "You are already adding today's priorities. Use /done to finish."
	txtStillYesterday = "Use /today to finish yesterday's accomplishments first."
	txtPosted         = "Your update has been posted to the group."
	txtPostFailed     = "Could not post your update to the group. Your draft is kept, try /done again."

	txtNoGroups      = "No group chats available. Add me to a group and send a message there first."
	txtSetGCUsage    = "Usage: /setGC <number> (see /showGroups)."
	txtNoSpreadsheet = "No spreadsheet configured. An admin can set one with /setSpreadsheet <id>."
)

func updateSaved(res standup.Result) string {
	verb := "saved"
	if res.Status == standup.StatusReplaced {
		verb = "updated"
	}
	text := messages.Success(fmt.Sprintf("Your standup update has been %s.", verb))
	switch {
	case res.Exported:
		text += "\nExported to the spreadsheet."
	case errors.Is(res.ExportErr, standup.ErrNoSpreadsheet):
		text += "\n" + txtNoSpreadsheet
	case res.ExportErr != nil:
		text += "\n⚠️ Export to the spreadsheet failed. Your update is still saved."
	}
	return text
}

func membersAdded(res standup.AddResult) string {
	var b strings.Builder
	if len(res.Added) > 0 {
		fmt.Fprintf(&b, "%s\n", messages.Success(fmt.Sprintf("Added to %q: %s", res.Category, mentions(res.Added))))
	}
	if len(res.Already) > 0 {
		fmt.Fprintf(&b, "Already in %q: %s\n", res.Category, mentions(res.Already))
	}
	return strings.TrimRight(b.String(), "\n")
}

func membersRemoved(res standup.RemoveResult) string {
	var b strings.Builder
	if len(res.Removed) > 0 {
		fmt.Fprintf(&b, "%s\n", messages.Success("Removed: "+mentions(res.Removed)))
	}
	if len(res.NotFound) > 0 {
		fmt.Fprintf(&b, "Not found: %s\n", mentions(res.NotFound))
	}
	if len(res.EmptiedCategories) > 0 {
		fmt.Fprintf(&b, "Removed empty categories: %s\n", strings.Join(res.EmptiedCategories, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func mentions(users []string) string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = messages.Mention(u)
	}
	return strings.Join(out, ", ")
}

func spreadsheetSet(id, serviceAccount string) string {
	text := messages.Success("Spreadsheet set: " + id)
	if serviceAccount != "" {
		text += fmt.Sprintf("\n\nShare the spreadsheet with %s as Editor so updates can be exported.", serviceAccount)
	}
	return text
}

func groupList(groups []*models.GroupRecord, withIDs bool) string {
	var b strings.Builder
	b.WriteString("Available groups:\n")
	for i, g := range groups {
		if withIDs {
			fmt.Fprintf(&b, "%d. %s (%d)\n", i+1, g.Metadata.GroupName, g.ID)
			continue
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, g.Metadata.GroupName)
	}
	if !withIDs {
		b.WriteString("\nUse /setGC <number> or tap a group below.")
	}
	return strings.TrimRight(b.String(), "\n")
}

func draftError(err error) string {
	var tooLong *standup.TooLongError
	switch {
	case errors.As(err, &tooLong):
		return messages.TooLong(tooLong.Length, tooLong.Limit)
	case errors.Is(err, standup.ErrEmptyUpdate):
		return messages.Failure("Please send some text.")
	case errors.Is(err, standup.ErrNoDraft):
		return txtNoDraft
	case errors.Is(err, standup.ErrNoTargetGroup):
		return txtNoTarget
	case errors.Is(err, standup.ErrGroupNotFound):
		return txtTargetGone
	case errors.Is(err, standup.ErrPostFailed):
		return messages.Failure(txtPostFailed)
	}
	return messages.Failure("Something went wrong. Please try again.")
}
