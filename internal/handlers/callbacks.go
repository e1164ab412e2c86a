package handlers

import (
	"context"
	"strconv"
	"strings"

	"standup-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const cbSelectGroup = "setgc:"

func groupKeyboard(groups []*models.GroupRecord) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(g.Metadata.GroupName, cbSelectGroup+strconv.FormatInt(g.ID, 10)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (h *Handler) HandleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// always answer callback
	if _, err := h.Bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		h.log.Debug("answer callback", zap.Error(err))
	}
	if cq.Message == nil || cq.Message.Chat == nil || cq.From == nil || !cq.Message.Chat.IsPrivate() {
		return
	}
	chatID := cq.Message.Chat.ID

	switch {
	case strings.HasPrefix(cq.Data, cbSelectGroup):
		groupID, err := strconv.ParseInt(strings.TrimPrefix(cq.Data, cbSelectGroup), 10, 64)
		if err != nil || !h.isMember(groupID, cq.From.ID) {
			h.reply(ctx, chatID, txtTargetGone)
			return
		}
		h.selectGroup(ctx, chatID, cq.From.ID, groupID)
	}
}
