package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"standup-bot/internal/messages"
	"standup-bot/internal/standup"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot API error descriptions meaning the group is gone for good.
var unreachable = []string{
	"chat not found",
	"bot was blocked",
	"bot was kicked",
	"bot is not a member",
	"peer_id_invalid",
}

// classify marks errors after which the bot can never reach the chat again
// with standup.ErrUnreachable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
		return fmt.Errorf("%w: %w", standup.ErrUnreachable, err)
	}
	text := strings.ToLower(err.Error())
	for _, s := range unreachable {
		if strings.Contains(text, s) {
			return fmt.Errorf("%w: %w", standup.ErrUnreachable, err)
		}
	}
	return err
}

// Probe implements scheduler.Notifier.
func (h *Handler) Probe(_ context.Context, chatID int64) error {
	_, err := h.Bot.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: chatID}})
	return classify(err)
}

// SendReminder implements scheduler.Notifier.
func (h *Handler) SendReminder(ctx context.Context, chatID int64, monday bool) error {
	return classify(h.send(ctx, tgbotapi.NewMessage(chatID, messages.Reminder(monday))))
}

// SendMissing implements scheduler.Notifier.
func (h *Handler) SendMissing(ctx context.Context, chatID int64, missing []string) error {
	return classify(h.send(ctx, markdown(chatID, messages.MissingFollowUpMarkdown(missing))))
}
