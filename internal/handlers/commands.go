package handlers

import (
	"context"
	"errors"

	"standup-bot/internal/messages"
	"standup-bot/internal/standup"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// admin-only group commands
var adminCommands = map[string]bool{
	"manageMembers":     true,
	"addMember":         true,
	"removeMember":      true,
	"setSpreadsheet":    true,
	"showSpreadsheet":   true,
	"removeSpreadsheet": true,
}

var privateCommands = map[string]bool{
	"start":         true,
	"today":         true,
	"done":          true,
	"stop":          true,
	"showGroups":    true,
	"setGC":         true,
	"showAllGroups": true,
}

func (h *Handler) groupCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID, cmd := msg.Chat.ID, msg.Command()
	log := h.logFor(msg)

	if privateCommands[cmd] {
		h.reply(ctx, chatID, txtPrivateOnly)
		return
	}
	if adminCommands[cmd] && !h.isAdmin(chatID, msg.From.ID) {
		log.Info("permission denied", zap.Error(standup.ErrPermissionDenied))
		h.reply(ctx, chatID, messages.Failure(txtAdminOnly))
		return
	}

	switch cmd {
	case "myUpdate", "myupdate", "up", "UP":
		h.handleMyUpdate(ctx, msg)
	case "showStandup":
		r := h.Service.Report(chatID)
		if r.Empty {
			h.reply(ctx, chatID, messages.NoUpdatesToday)
			return
		}
		h.replyMarkdown(ctx, chatID, messages.StandupReportMarkdown(r.Blocks, r.Pending, r.Submitted, r.Total))
	case "missing":
		r := h.Service.Report(chatID)
		if r.Total == 0 {
			h.reply(ctx, chatID, messages.NoMembers)
			return
		}
		h.replyMarkdown(ctx, chatID, messages.MissingReportMarkdown(r.Missing, r.Submitted, r.Total))

	case "setReminder":
		h.Service.BeginReminderSetup(chatID, msg.From.ID)
		h.reply(ctx, chatID, messages.ReminderSetupPrompt)
	case "toggleReminder":
		if h.Service.ToggleReminder(chatID) {
			h.reply(ctx, chatID, messages.Success("Reminders enabled."))
		} else {
			h.reply(ctx, chatID, messages.Success("Reminders disabled."))
		}
	case "showReminder":
		g := h.Service.TouchGroup(chatID, "")
		h.reply(ctx, chatID, messages.ReminderStatus(g.Settings))

	case "manageMembers":
		g := h.Service.TouchGroup(chatID, "")
		h.replyMarkdown(ctx, chatID, messages.MemberListMarkdown(g.MemberCategories))
	case "addMember":
		category, users, err := standup.ParseAddMember(msg.CommandArguments())
		if err != nil {
			h.reply(ctx, chatID, messages.Failure("Usage: /addMember [category] [username1], [username2], ...\n"+
				`Quote categories with spaces: /addMember "Sales Team" alice`))
			return
		}
		res, err := h.Service.AddMembers(chatID, category, users)
		if err != nil {
			h.reply(ctx, chatID, messages.Failure(err.Error()))
			return
		}
		h.reply(ctx, chatID, membersAdded(res))
	case "removeMember":
		users := standup.ParseUsernames(msg.CommandArguments())
		res, err := h.Service.RemoveMembers(chatID, users)
		if err != nil {
			h.reply(ctx, chatID, messages.Failure("Usage: /removeMember [username1], [username2], ..."))
			return
		}
		h.reply(ctx, chatID, membersRemoved(res))

	case "setSpreadsheet":
		id := msg.CommandArguments()
		if err := h.Service.SetSpreadsheet(chatID, id); err != nil {
			h.reply(ctx, chatID, messages.Failure("Usage: /setSpreadsheet <spreadsheet id>\n"+
				"The id is the part of the sheet URL between /d/ and /edit."))
			return
		}
		g := h.Service.TouchGroup(chatID, "")
		h.reply(ctx, chatID, spreadsheetSet(g.Settings.SpreadsheetID, h.serviceAccount))
	case "showSpreadsheet":
		g := h.Service.TouchGroup(chatID, "")
		if g.Settings.SpreadsheetID == "" {
			h.reply(ctx, chatID, txtNoSpreadsheet)
			return
		}
		h.reply(ctx, chatID, "Spreadsheet: "+g.Settings.SpreadsheetID)
	case "removeSpreadsheet":
		if h.Service.RemoveSpreadsheet(chatID) {
			h.reply(ctx, chatID, messages.Success("Spreadsheet removed. Updates will no longer be exported."))
		} else {
			h.reply(ctx, chatID, txtNoSpreadsheet)
		}

	case "help":
		h.reply(ctx, chatID, messages.GroupHelp(h.botUserName, false))
	}
}

func (h *Handler) handleMyUpdate(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	res, err := h.Service.SubmitUpdate(ctx, chatID, userName(msg.From), msg.CommandArguments())
	switch {
	case errors.Is(err, standup.ErrEmptyUpdate):
		h.reply(ctx, chatID, messages.UpdateUsage)
		return
	case err != nil:
		h.logFor(msg).Error("submit update", zap.Error(err))
		h.reply(ctx, chatID, messages.Failure("Could not save your update."))
		return
	}
	h.reply(ctx, chatID, updateSaved(res))
}

func (h *Handler) reminderReply(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	utc, err := h.Service.ApplyReminderReply(chatID, msg.Text)
	if err != nil {
		h.logFor(msg).Info("reminder reply rejected", zap.Error(err))
		h.reply(ctx, chatID, messages.Failure("Invalid format. Use /setReminder and answer like:\n\nNow: 2:55 pm\nSet: 10:25 am"))
		return
	}
	h.reply(ctx, chatID, messages.ReminderSet(utc))
}
