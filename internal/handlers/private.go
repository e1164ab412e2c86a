package handlers

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"

	"standup-bot/internal/messages"
	"standup-bot/internal/models"
	"standup-bot/internal/standup"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

var groupCommands = map[string]bool{
	"myUpdate":       true,
	"myupdate":       true,
	"up":             true,
	"UP":             true,
	"showStandup":    true,
	"missing":        true,
	"setReminder":    true,
	"toggleReminder": true,
	"showReminder":   true,
}

func (h *Handler) privateCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID, userID, cmd := msg.Chat.ID, msg.From.ID, msg.Command()

	if groupCommands[cmd] || adminCommands[cmd] {
		h.reply(ctx, chatID, txtGroupOnly)
		return
	}

	switch cmd {
	case "start":
		if err := h.Service.StartDraft(userID, chatID); err != nil {
			h.reply(ctx, chatID, draftError(err))
			return
		}
		h.reply(ctx, chatID, messages.PromptStartYesterday)
	case "today":
		state, ok := h.Service.DraftState(userID)
		switch {
		case !ok:
			h.reply(ctx, chatID, txtNoDraft)
		case state == models.StateCollectingToday:
			h.reply(ctx, chatID, txtAlreadyToday)
		default:
			h.advance(ctx, msg)
		}
	case "done":
		state, ok := h.Service.DraftState(userID)
		switch {
		case !ok:
			h.reply(ctx, chatID, txtNoDraft)
		case state == models.StateCollectingYesterday:
			h.reply(ctx, chatID, txtStillYesterday)
		default:
			h.advance(ctx, msg)
		}
	case "stop":
		if err := h.Service.CancelDraft(userID); err != nil {
			h.reply(ctx, chatID, txtNoDraft)
			return
		}
		h.reply(ctx, chatID, txtCancelled)

	case "showGroups":
		groups := h.groupsOf(userID)
		if len(groups) == 0 {
			h.reply(ctx, chatID, txtNoGroups)
			return
		}
		m := tgbotapi.NewMessage(chatID, groupList(groups, false))
		m.ReplyMarkup = groupKeyboard(groups)
		if err := h.send(ctx, m); err != nil {
			h.logFor(msg).Warn("send group list", zap.Error(err))
		}
	case "setGC":
		h.setGC(ctx, msg)
	case "showAllGroups":
		if !slices.Contains(h.botAdmins, userID) {
			h.reply(ctx, chatID, messages.Failure("This command is restricted to bot administrators."))
			return
		}
		groups := h.Service.Store().Groups()
		if len(groups) == 0 {
			h.reply(ctx, chatID, txtNoGroups)
			return
		}
		h.reply(ctx, chatID, groupList(groups, true))

	case "help":
		h.reply(ctx, chatID, messages.PrivateHelp)
	}
}

// groupsOf lists named groups userID belongs to, in /setGC numbering.
func (h *Handler) groupsOf(userID int64) []*models.GroupRecord {
	var out []*models.GroupRecord
	for _, g := range h.Service.NamedGroups() {
		if h.isMember(g.ID, userID) {
			out = append(out, g)
		}
	}
	return out
}

func (h *Handler) setGC(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	n, err := strconv.Atoi(strings.TrimSpace(msg.CommandArguments()))
	if err != nil {
		h.reply(ctx, chatID, messages.Failure(txtSetGCUsage))
		return
	}
	groups := h.groupsOf(msg.From.ID)
	if n < 1 || n > len(groups) {
		h.reply(ctx, chatID, messages.Failure("Invalid group number. Use /showGroups to see the list."))
		return
	}
	h.selectGroup(ctx, chatID, msg.From.ID, groups[n-1].ID)
}

func (h *Handler) selectGroup(ctx context.Context, chatID, userID, groupID int64) {
	if err := h.Service.SelectTarget(userID, groupID); err != nil {
		h.reply(ctx, chatID, draftError(err))
		return
	}
	g, _ := h.Service.Store().LookupGroup(groupID)
	h.reply(ctx, chatID, messages.Success("Your updates will be sent to "+g.Metadata.GroupName+". Use /start to begin."))
}

func (h *Handler) advance(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	adv, err := h.Service.AdvanceDraft(ctx, msg.From.ID, author(msg.From), h.postToGroup)
	switch {
	case errors.Is(err, standup.ErrEmptySection):
		if state, _ := h.Service.DraftState(msg.From.ID); state == models.StateCollectingToday {
			h.reply(ctx, chatID, txtNoToday)
		} else {
			h.reply(ctx, chatID, txtNoYesterday)
		}
		return
	case err != nil:
		h.logFor(msg).Warn("advance draft", zap.Error(err))
		h.reply(ctx, chatID, draftError(err))
		return
	}

	if !adv.Posted {
		h.reply(ctx, chatID, messages.PromptStartToday)
		return
	}
	text := messages.Success(txtPosted)
	switch {
	case errors.Is(adv.Result.ExportErr, standup.ErrNoSpreadsheet):
		text += "\n" + txtNoSpreadsheet
	case adv.Result.ExportErr != nil:
		text += "\n⚠️ Export to the spreadsheet failed. Your update is still saved."
	}
	h.reply(ctx, chatID, text)
}

func (h *Handler) draftInput(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	step, err := h.Service.DraftInput(msg.From.ID, msg.Text)
	if err != nil {
		h.reply(ctx, chatID, draftError(err))
		return
	}
	if step.Collecting == models.FieldWhy {
		h.reply(ctx, chatID, messages.PromptWhy)
		return
	}
	h.reply(ctx, chatID, messages.TaskPreview(step.Tasks, step.State)+"\n\n"+
		messages.NextTaskPrompt(step.State, len(step.Tasks)))
}
