// Package handlers routes Telegram updates to the standup service and adapts
// the Bot API for outbound messages.
package handlers

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"standup-bot/internal/messages"
	"standup-bot/internal/scheduler"
	"standup-bot/internal/standup"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Bot is the subset of *tgbotapi.BotAPI the handler uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

// Config wires a Handler.
type Config struct {
	Bot       Bot
	Service   *standup.Service
	Reminders *scheduler.Reminders

	BotID       int64
	BotUserName string
	// BotAdminIDs may use /showAllGroups.
	BotAdminIDs []int64
	// ServiceAccount is the e-mail spreadsheets must be shared with.
	ServiceAccount string

	// Limiter throttles outbound messages; nil uses Telegram's bulk limit.
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

type Handler struct {
	Bot       Bot
	Service   *standup.Service
	Reminders *scheduler.Reminders

	botID          int64
	botUserName    string
	botAdmins      []int64
	serviceAccount string

	limiter *rate.Limiter
	roles   *cache.Cache
	log     *zap.Logger
}

func New(cfg Config) *Handler {
	h := &Handler{
		Bot:            cfg.Bot,
		Service:        cfg.Service,
		Reminders:      cfg.Reminders,
		botID:          cfg.BotID,
		botUserName:    cfg.BotUserName,
		botAdmins:      cfg.BotAdminIDs,
		serviceAccount: cfg.ServiceAccount,
		limiter:        cfg.Limiter,
		roles:          cache.New(time.Minute, 5*time.Minute),
		log:            cfg.Logger,
	}
	if h.limiter == nil {
		h.limiter = rate.NewLimiter(rate.Every(time.Second/25), 5)
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	return h
}

// Run serialises inbound updates and scheduler ticks on one goroutine until
// ctx ends or updates closes.
func (h *Handler) Run(ctx context.Context, updates <-chan tgbotapi.Update, ticks <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			h.safely("update", func() { h.HandleUpdate(ctx, upd) })
		case now := <-ticks:
			if h.Reminders != nil {
				h.safely("tick", func() { h.Reminders.Tick(ctx, now) })
			}
		}
	}
}

func (h *Handler) safely(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("recovered panic", zap.String("in", what), zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	fn()
}

func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.Message != nil:
		h.HandleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		h.HandleCallback(ctx, upd.CallbackQuery)
	}
}

// HandleMessage is the command router.
func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	switch {
	case msg.Chat.IsPrivate():
		h.handlePrivate(ctx, msg)
	case msg.Chat.IsGroup() || msg.Chat.IsSuperGroup():
		h.handleGroup(ctx, msg)
	}
}

func (h *Handler) handleGroup(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	h.Service.TouchGroup(chatID, msg.Chat.Title)

	if slices.ContainsFunc(msg.NewChatMembers, func(u tgbotapi.User) bool { return h.isSelf(u) }) {
		h.reply(ctx, chatID, messages.GroupHelp(h.botUserName, true))
		return
	}

	if msg.IsCommand() {
		h.groupCommand(ctx, msg)
		return
	}
	if msg.Text != "" && h.Service.PendingReminderSetup(chatID, msg.From.ID) {
		h.reminderReply(ctx, msg)
	}
}

func (h *Handler) handlePrivate(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		h.privateCommand(ctx, msg)
		return
	}
	// Anything that looks like a command never becomes draft content.
	if strings.HasPrefix(strings.TrimSpace(msg.Text), "/") {
		return
	}
	if h.Service.ActiveDraft(msg.From.ID, msg.Chat.ID) {
		h.draftInput(ctx, msg)
	}
}

func (h *Handler) isSelf(u tgbotapi.User) bool {
	if h.botID != 0 {
		return u.ID == h.botID
	}
	return u.IsBot && h.botUserName != "" && strings.EqualFold(u.UserName, h.botUserName)
}

func (h *Handler) logFor(msg *tgbotapi.Message) *zap.Logger {
	return h.log.With(
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Int64("user_id", msg.From.ID),
		zap.String("command", msg.Command()),
	)
}

// ---------- identity ---------------------------------------------------------

// userName is how single-shot updates are attributed: the handle, or the
// full name when the user has none.
func userName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return fullName(u)
}

func fullName(u *tgbotapi.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func author(u *tgbotapi.User) standup.Author {
	name := fullName(u)
	if name == "" {
		name = u.UserName
	}
	return standup.Author{DisplayName: name, Handle: u.UserName}
}

// ---------- roles ------------------------------------------------------------

func (h *Handler) memberStatus(chatID, userID int64) (string, error) {
	key := fmt.Sprintf("%d:%d", chatID, userID)
	if status, ok := h.roles.Get(key); ok {
		return status.(string), nil
	}
	m, err := h.Bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return "", err
	}
	h.roles.Set(key, m.Status, cache.DefaultExpiration)
	return m.Status, nil
}

func (h *Handler) isAdmin(chatID, userID int64) bool {
	status, err := h.memberStatus(chatID, userID)
	if err != nil {
		h.log.Warn("get chat member", zap.Int64("chat_id", chatID), zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	return status == "creator" || status == "administrator"
}

func (h *Handler) isMember(chatID, userID int64) bool {
	status, err := h.memberStatus(chatID, userID)
	if err != nil {
		return false
	}
	switch status {
	case "creator", "administrator", "member":
		return true
	}
	return false
}

// ---------- sending ----------------------------------------------------------

func (h *Handler) send(ctx context.Context, c tgbotapi.MessageConfig) error {
	if err := h.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := h.Bot.Send(c)
	return err
}

// reply sends plain text and logs a failure.
func (h *Handler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.send(ctx, tgbotapi.NewMessage(chatID, text)); err != nil {
		h.log.Warn("send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func markdown(chatID int64, text string) tgbotapi.MessageConfig {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeMarkdownV2
	return m
}

// replyMarkdown sends MarkdownV2 and logs a failure.
func (h *Handler) replyMarkdown(ctx context.Context, chatID int64, text string) {
	if err := h.send(ctx, markdown(chatID, text)); err != nil {
		h.log.Warn("send markdown message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// postToGroup delivers a finished draft.
func (h *Handler) postToGroup(ctx context.Context, groupID int64, text string) error {
	return classify(h.send(ctx, markdown(groupID, text)))
}
