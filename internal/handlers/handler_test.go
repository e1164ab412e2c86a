package handlers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"standup-bot/internal/scheduler"
	"standup-bot/internal/standup"
	"standup-bot/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const (
	groupID = int64(-100123)
	botID   = int64(999)
)

var monday = time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC)

var (
	alice = &tgbotapi.User{ID: 1, FirstName: "Alice", LastName: "Smith", UserName: "alice"}
	bob   = &tgbotapi.User{ID: 2, FirstName: "Bob", UserName: "bob"}
)

type fakeBot struct {
	sent     []tgbotapi.MessageConfig
	requests int
	statuses map[int64]string
	chatErr  error
	sendErr  map[int64]error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, fmt.Errorf("unexpected chattable %T", c)
	}
	if err := b.sendErr[m.ChatID]; err != nil {
		return tgbotapi.Message{}, err
	}
	b.sent = append(b.sent, m)
	return tgbotapi.Message{MessageID: len(b.sent)}, nil
}

func (b *fakeBot) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetChat(tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error) {
	return tgbotapi.Chat{}, b.chatErr
}

func (b *fakeBot) GetChatMember(c tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	status, ok := b.statuses[c.UserID]
	if !ok {
		status = "left"
	}
	return tgbotapi.ChatMember{Status: status}, nil
}

func (b *fakeBot) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	require.NotEmpty(t, b.sent)
	return b.sent[len(b.sent)-1]
}

type env struct {
	h     *Handler
	bot   *fakeBot
	store *storage.Store
	clock *clockwork.FakeClock
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	clock := clockwork.NewFakeClockAt(monday)
	store, err := storage.New(storage.NewJSONFile(filepath.Join(dir, "data.json")), storage.Defaults{}, clock, nil)
	require.NoError(t, err)
	svc, err := standup.New(standup.Config{Store: store, Clock: clock})
	require.NoError(t, err)

	bot := &fakeBot{statuses: map[int64]string{alice.ID: "administrator", bob.ID: "member"}, sendErr: map[int64]error{}}
	h := New(Config{
		Bot:            bot,
		Service:        svc,
		BotID:          botID,
		BotUserName:    "standup_bot",
		BotAdminIDs:    []int64{alice.ID},
		ServiceAccount: "bot@project.iam.gserviceaccount.com",
		Limiter:        rate.NewLimiter(rate.Inf, 1),
	})
	h.Reminders = scheduler.NewReminders(store, h, nil)
	return &env{h: h, bot: bot, store: store, clock: clock}
}

func command(chat *tgbotapi.Chat, from *tgbotapi.User, text string) *tgbotapi.Message {
	cmd, _, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "\n")
	return &tgbotapi.Message{
		From:     from,
		Chat:     chat,
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func text(chat *tgbotapi.Chat, from *tgbotapi.User, body string) *tgbotapi.Message {
	return &tgbotapi.Message{From: from, Chat: chat, Text: body}
}

func groupChat() *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: groupID, Type: "supergroup", Title: "Core Team"}
}

func privateChat(u *tgbotapi.User) *tgbotapi.Chat {
	return &tgbotapi.Chat{ID: u.ID, Type: "private"}
}

func (e *env) do(msg *tgbotapi.Message) {
	e.h.HandleMessage(context.Background(), msg)
}

func TestMyUpdateEndToEnd(t *testing.T) {
	e := newEnv(t)
	e.do(command(groupChat(), alice, "/myUpdate Yesterday: X\nToday: Y\nBlockers: None"))

	g, ok := e.store.LookupGroup(groupID)
	require.True(t, ok)
	assert.Equal(t, "Core Team", g.Metadata.GroupName)
	require.Len(t, g.StandUpLogs, 1)
	assert.Equal(t, "alice", g.StandUpLogs[0].User)
	assert.Equal(t, "Yesterday: X\nToday: Y\nBlockers: None", g.StandUpLogs[0].Text)

	reply := e.bot.last(t)
	assert.Equal(t, groupID, reply.ChatID)
	assert.Contains(t, reply.Text, "has been saved")
	assert.Contains(t, reply.Text, "No spreadsheet configured")
}

func TestUpAliasReplacesAndUsageHint(t *testing.T) {
	e := newEnv(t)
	e.do(command(groupChat(), bob, "/up first"))
	e.do(command(groupChat(), bob, "/up second"))
	assert.Contains(t, e.bot.last(t).Text, "has been updated")

	g, _ := e.store.LookupGroup(groupID)
	require.Len(t, g.StandUpLogs, 1)
	assert.Equal(t, "second", g.StandUpLogs[0].Text)

	e.do(command(groupChat(), bob, "/up"))
	assert.Contains(t, e.bot.last(t).Text, "Please provide your update")

	e.do(command(groupChat(), bob, "/UP third"))
	assert.Equal(t, "third", g.StandUpLogs[0].Text)
}

func TestMemberManagementIsAdminOnly(t *testing.T) {
	e := newEnv(t)

	e.do(command(groupChat(), bob, "/addMember eng bob"))
	assert.Contains(t, e.bot.last(t).Text, txtAdminOnly)

	e.do(command(groupChat(), alice, "/addMember eng alice, bob"))
	assert.Contains(t, e.bot.last(t).Text, "Added to \"eng\": @alice, @bob")
	e.do(command(groupChat(), alice, "/removeMember alice"))

	g, _ := e.store.LookupGroup(groupID)
	assert.Equal(t, map[string][]string{"eng": {"bob"}}, g.MemberCategories)

	e.do(command(groupChat(), alice, "/removeMember @bob"))
	assert.Empty(t, g.MemberCategories)
	assert.Contains(t, e.bot.last(t).Text, "Removed empty categories: eng")
}

func TestReportsInGroup(t *testing.T) {
	e := newEnv(t)
	e.do(command(groupChat(), alice, "/showStandup"))
	assert.Equal(t, "No standup updates for today yet.\n\nUse /myUpdate or /up to share yours.", e.bot.last(t).Text)

	e.do(command(groupChat(), alice, "/missing"))
	assert.Contains(t, e.bot.last(t).Text, "No team members configured")

	e.do(command(groupChat(), alice, "/addMember eng alice, bob"))
	e.do(command(groupChat(), bob, "/up done"))
	e.do(command(groupChat(), alice, "/missing"))
	last := e.bot.last(t)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, last.ParseMode)
	assert.Contains(t, last.Text, "@alice")
	assert.Contains(t, last.Text, "1/2 updates submitted")

	e.do(command(groupChat(), alice, "/showStandup"))
	assert.Contains(t, e.bot.last(t).Text, "*eng*")
}

func TestSetReminderTwoLineReply(t *testing.T) {
	e := newEnv(t) // 09:00 UTC
	e.do(command(groupChat(), bob, "/setReminder"))
	assert.Contains(t, e.bot.last(t).Text, "Now: 2:55 pm")

	e.do(text(groupChat(), alice, "Now: 11:00 am\nSet: 10:00 am"))
	g, _ := e.store.LookupGroup(groupID)
	assert.False(t, g.Settings.IsActive, "only the issuing user answers")

	e.do(text(groupChat(), bob, "Now: 11:00 am\nSet: 10:00 am"))
	assert.Equal(t, "08:00", g.Settings.ReminderTimeUTC)
	assert.True(t, g.Settings.IsActive)
	assert.Contains(t, e.bot.last(t).Text, "08:00 UTC")

	e.do(command(groupChat(), bob, "/showReminder"))
	assert.Contains(t, e.bot.last(t).Text, "08:00 (8:00 AM)")
	e.do(command(groupChat(), bob, "/toggleReminder"))
	assert.False(t, g.Settings.IsActive)
}

func TestSpreadsheetCommands(t *testing.T) {
	e := newEnv(t)
	e.do(command(groupChat(), alice, "/setSpreadsheet 1AbC-xyz_9"))
	assert.Contains(t, e.bot.last(t).Text, "bot@project.iam.gserviceaccount.com")

	e.do(command(groupChat(), alice, "/showSpreadsheet"))
	assert.Equal(t, "Spreadsheet: 1AbC-xyz_9", e.bot.last(t).Text)

	e.do(command(groupChat(), alice, "/setSpreadsheet not a valid id"))
	assert.Contains(t, e.bot.last(t).Text, "Usage: /setSpreadsheet")

	e.do(command(groupChat(), alice, "/removeSpreadsheet"))
	g, _ := e.store.LookupGroup(groupID)
	assert.Empty(t, g.Settings.SpreadsheetID)
}

func TestWelcomeOnJoin(t *testing.T) {
	e := newEnv(t)
	e.do(&tgbotapi.Message{
		From:           alice,
		Chat:           groupChat(),
		NewChatMembers: []tgbotapi.User{{ID: botID, IsBot: true, UserName: "standup_bot"}},
	})
	_, ok := e.store.LookupGroup(groupID)
	assert.True(t, ok)
	assert.Contains(t, e.bot.last(t).Text, "Thanks for adding me")
}

func TestCommandContextChecks(t *testing.T) {
	e := newEnv(t)
	e.do(command(groupChat(), alice, "/start"))
	assert.Equal(t, txtPrivateOnly, e.bot.last(t).Text)

	e.do(command(privateChat(alice), alice, "/myUpdate hi"))
	assert.Equal(t, txtGroupOnly, e.bot.last(t).Text)

	e.do(command(privateChat(alice), alice, "/help"))
	assert.Contains(t, e.bot.last(t).Text, "Private Chat Commands")
	e.do(command(groupChat(), alice, "/help@standup_bot"))
	assert.Contains(t, e.bot.last(t).Text, "Group Commands")
}

func TestGuidedDraftFlow(t *testing.T) {
	e := newEnv(t)
	e.do(text(groupChat(), bob, "hello")) // registers the group
	dm := privateChat(bob)

	e.do(command(dm, bob, "/start"))
	assert.Equal(t, txtNoTarget, e.bot.last(t).Text)

	e.do(command(dm, bob, "/showGroups"))
	list := e.bot.last(t)
	assert.Contains(t, list.Text, "1. Core Team")
	assert.NotNil(t, list.ReplyMarkup)

	e.do(command(dm, bob, "/setGC 2"))
	assert.Contains(t, e.bot.last(t).Text, "Invalid group number")
	e.do(command(dm, bob, "/setGC 1"))
	assert.Contains(t, e.bot.last(t).Text, "Core Team")

	e.do(command(dm, bob, "/start"))
	assert.Equal(t, "Let's prepare your standup update.\n\nFirst, tell me what you accomplished yesterday.\n\nWhat was your biggest accomplishment 1:", e.bot.last(t).Text)

	e.do(command(dm, bob, "/today"))
	assert.Equal(t, txtNoYesterday, e.bot.last(t).Text)
	e.do(command(dm, bob, "/done"))
	assert.Equal(t, txtStillYesterday, e.bot.last(t).Text)

	e.do(text(dm, bob, "shipped"))
	assert.Equal(t, "Why?", e.bot.last(t).Text)
	e.do(text(dm, bob, "/notacommand but slash"))
	e.do(text(dm, bob, "deadline"))
	assert.Contains(t, e.bot.last(t).Text, "accomplishment 1:\nwhat: shipped\nwhy: deadline")

	e.do(command(dm, bob, "/today"))
	assert.Contains(t, e.bot.last(t).Text, "What is prio 1")
	e.do(text(dm, bob, "review"))
	e.do(text(dm, bob, "unblock team"))
	assert.Contains(t, e.bot.last(t).Text, "/done")

	e.do(command(dm, bob, "/done"))
	require.GreaterOrEqual(t, len(e.bot.sent), 2)
	posted := e.bot.sent[len(e.bot.sent)-2]
	assert.Equal(t, groupID, posted.ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, posted.ParseMode)
	assert.True(t, strings.HasPrefix(posted.Text, "*Bob* \\(@bob\\):"))
	assert.Contains(t, e.bot.last(t).Text, txtPosted)

	g, _ := e.store.LookupGroup(groupID)
	require.Len(t, g.StandUpLogs, 1)
	assert.Equal(t, "Bob (@bob)", g.StandUpLogs[0].User)
	assert.NotContains(t, g.StandUpLogs[0].Text, "/notacommand")

	e.do(command(dm, bob, "/stop"))
	assert.Equal(t, txtNoDraft, e.bot.last(t).Text)
}

func TestDraftPostFailureKeepsDraft(t *testing.T) {
	e := newEnv(t)
	e.do(text(groupChat(), bob, "hello"))
	dm := privateChat(bob)
	e.do(command(dm, bob, "/setGC 1"))
	e.do(command(dm, bob, "/start"))
	for _, s := range []string{"a", "b"} {
		e.do(text(dm, bob, s))
	}
	e.do(command(dm, bob, "/today"))
	for _, s := range []string{"c", "d"} {
		e.do(text(dm, bob, s))
	}

	e.bot.sendErr[groupID] = errors.New("Bad Request: not enough rights")
	e.do(command(dm, bob, "/done"))
	assert.Contains(t, e.bot.last(t).Text, "Your draft is kept")
	assert.True(t, e.h.Service.ActiveDraft(bob.ID, bob.ID))

	e.do(command(dm, bob, "/stop"))
	assert.Equal(t, txtCancelled, e.bot.last(t).Text)
	assert.False(t, e.h.Service.ActiveDraft(bob.ID, bob.ID))
}

func TestShowGroupsFiltersMembership(t *testing.T) {
	e := newEnv(t)
	e.do(text(groupChat(), bob, "hello"))
	stranger := &tgbotapi.User{ID: 3, FirstName: "Eve"}

	e.do(command(privateChat(stranger), stranger, "/showGroups"))
	assert.Equal(t, txtNoGroups, e.bot.last(t).Text)

	e.do(command(privateChat(stranger), stranger, "/showAllGroups"))
	assert.Contains(t, e.bot.last(t).Text, "restricted")
	e.do(command(privateChat(alice), alice, "/showAllGroups"))
	assert.Contains(t, e.bot.last(t).Text, "1. Core Team (-100123)")
}

func TestSelectGroupCallback(t *testing.T) {
	e := newEnv(t)
	e.do(text(groupChat(), bob, "hello"))

	e.h.HandleCallback(context.Background(), &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    bob,
		Message: &tgbotapi.Message{Chat: privateChat(bob)},
		Data:    fmt.Sprintf("%s%d", cbSelectGroup, groupID),
	})
	assert.Equal(t, 1, e.bot.requests)
	sess, ok := e.store.LookupSession(bob.ID)
	require.True(t, ok)
	assert.Equal(t, groupID, sess.TargetGroupID)
}

func TestRunDispatchesUpdatesAndTicks(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g := e.store.Group(groupID)
	g.Settings.IsActive = true

	updates := make(chan tgbotapi.Update, 2)
	ticks := make(chan time.Time, 1)
	updates <- tgbotapi.Update{Message: command(groupChat(), bob, "/up from run")}
	ticks <- monday
	close(updates)

	err := e.h.Run(ctx, updates, ticks)
	require.NoError(t, err)
	require.Len(t, g.StandUpLogs, 1)
}

func TestSafelyRecoversPanic(t *testing.T) {
	e := newEnv(t)
	assert.NotPanics(t, func() {
		e.h.safely("test", func() { panic("boom") })
	})
}

func TestNotifierClassifiesUnreachable(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.bot.chatErr = &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was kicked from the supergroup chat"}
	assert.ErrorIs(t, e.h.Probe(ctx, groupID), standup.ErrUnreachable)

	e.bot.chatErr = errors.New("Bad Request: chat not found")
	assert.ErrorIs(t, e.h.Probe(ctx, groupID), standup.ErrUnreachable)

	e.bot.chatErr = errors.New("connection reset")
	err := e.h.Probe(ctx, groupID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, standup.ErrUnreachable)

	e.bot.chatErr = nil
	require.NoError(t, e.h.SendReminder(ctx, groupID, true))
	assert.Contains(t, e.bot.last(t).Text, "Friday:")
	require.NoError(t, e.h.SendMissing(ctx, groupID, []string{"bob"}))
	assert.Contains(t, e.bot.last(t).Text, "@bob")
}

func TestReminderTickPurgesKickedGroup(t *testing.T) {
	e := newEnv(t)
	g := e.store.Group(groupID)
	g.Settings.IsActive = true
	e.bot.chatErr = &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was kicked"}

	e.h.Reminders.Tick(context.Background(), monday)
	_, ok := e.store.LookupGroup(groupID)
	assert.False(t, ok)
}

func TestUserName(t *testing.T) {
	assert.Equal(t, "alice", userName(alice))
	assert.Equal(t, "Eve Doe", userName(&tgbotapi.User{FirstName: "Eve", LastName: "Doe"}))
	assert.Equal(t, standup.Author{DisplayName: "Alice Smith", Handle: "alice"}, author(alice))
	assert.Equal(t, standup.Author{DisplayName: "nick", Handle: "nick"}, author(&tgbotapi.User{UserName: "nick"}))
}
