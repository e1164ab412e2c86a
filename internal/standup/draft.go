package standup

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"standup-bot/internal/messages"
	"standup-bot/internal/models"

	"go.uber.org/zap"
)

// Answer length limits in characters.
const (
	WhatLimit = 250
	WhyLimit  = 300
)

// Author identifies who finalised a draft.
type Author struct {
	DisplayName string
	Handle      string // without '@'
}

// Key is the user identifier a drafted update is stored under.
func (a Author) Key() string {
	if a.Handle == "" {
		return a.DisplayName
	}
	return fmt.Sprintf("%s (@%s)", a.DisplayName, a.Handle)
}

// Step describes the draft after accepting one answer.
type Step struct {
	State      models.DraftState
	Collecting models.Field
	// Tasks is the active section after a task was completed, nil otherwise.
	Tasks []models.Task
}

// Advance is the outcome of /today or /done.
type Advance struct {
	// Posted is false when the draft only moved on to today's section.
	Posted bool
	Result Result
}

// PostFunc delivers a rendered MarkdownV2 update to a group.
type PostFunc func(ctx context.Context, groupID int64, text string) error

func (s *Service) draft(userID int64) (*models.UserSession, *models.DraftUpdate, error) {
	sess, ok := s.store.LookupSession(userID)
	if !ok || sess.DraftUpdate == nil {
		return nil, nil, ErrNoDraft
	}
	return sess, sess.DraftUpdate, nil
}

// StartDraft begins a new draft in chatID, replacing any draft in progress.
func (s *Service) StartDraft(userID, chatID int64) error {
	sess := s.store.Session(userID)
	if sess.TargetGroupID == 0 {
		return ErrNoTargetGroup
	}
	if _, ok := s.store.LookupGroup(sess.TargetGroupID); !ok {
		return ErrGroupNotFound
	}
	sess.DraftUpdate = &models.DraftUpdate{
		ChatID:       chatID,
		State:        models.StateCollectingYesterday,
		Collecting:   models.FieldWhat,
		Content:      models.DraftContent{Yesterday: []models.Task{}, Today: []models.Task{}},
		LastModified: s.Now(),
	}
	s.store.Persist()
	return nil
}

// ActiveDraft reports whether free text from userID in chatID belongs to a draft.
func (s *Service) ActiveDraft(userID, chatID int64) bool {
	sess, ok := s.store.LookupSession(userID)
	return ok && sess.DraftUpdate != nil && sess.DraftUpdate.ChatID == chatID
}

// DraftInput feeds one answer into the draft. A rejected answer leaves the
// draft unchanged.
func (s *Service) DraftInput(userID int64, text string) (Step, error) {
	_, d, err := s.draft(userID)
	if err != nil {
		return Step{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Step{}, ErrEmptyUpdate
	}

	switch d.Collecting {
	case models.FieldWhy:
		if n := utf8.RuneCountInString(text); n > WhyLimit {
			return Step{}, &TooLongError{Field: models.FieldWhy, Length: n, Limit: WhyLimit}
		}
		task := models.Task{Why: text}
		if d.CurrentTask != nil {
			task.What = d.CurrentTask.What
		}
		section := d.Section()
		*section = append(*section, task)
		d.CurrentTask = nil
		d.Collecting = models.FieldWhat
	default:
		if n := utf8.RuneCountInString(text); n > WhatLimit {
			return Step{}, &TooLongError{Field: models.FieldWhat, Length: n, Limit: WhatLimit}
		}
		d.CurrentTask = &models.Task{What: text}
		d.Collecting = models.FieldWhy
	}
	d.LastModified = s.Now()
	s.store.Persist()

	step := Step{State: d.State, Collecting: d.Collecting}
	if d.Collecting == models.FieldWhat {
		step.Tasks = append([]models.Task(nil), *d.Section()...)
	}
	return step, nil
}

// AdvanceDraft handles /today and /done. From the yesterday section it moves
// to today; from the today section it posts the update through post, drops the
// draft and submits the update. A failed post keeps the draft for a retry.
func (s *Service) AdvanceDraft(ctx context.Context, userID int64, author Author, post PostFunc) (Advance, error) {
	sess, d, err := s.draft(userID)
	if err != nil {
		return Advance{}, err
	}
	if len(*d.Section()) == 0 {
		return Advance{}, ErrEmptySection
	}

	if d.State == models.StateCollectingYesterday {
		d.State = models.StateCollectingToday
		d.Collecting = models.FieldWhat
		d.CurrentTask = nil
		d.LastModified = s.Now()
		s.store.Persist()
		return Advance{}, nil
	}

	groupID := sess.TargetGroupID
	if _, ok := s.store.LookupGroup(groupID); !ok {
		return Advance{}, ErrGroupNotFound
	}
	handle := ""
	if author.Handle != "" {
		handle = messages.Mention(author.Handle)
	}
	if err := post(ctx, groupID, messages.PostedUpdateMarkdown(author.DisplayName, handle, d.Content)); err != nil {
		s.log.Warn("post drafted update",
			zap.Int64("user_id", userID), zap.Int64("chat_id", groupID), zap.Error(err))
		return Advance{}, fmt.Errorf("%w: %w", ErrPostFailed, err)
	}

	text := messages.FinalUpdate(d.Content)
	sess.DraftUpdate = nil
	s.store.Persist()

	res, err := s.SubmitUpdate(ctx, groupID, author.Key(), text)
	if err != nil {
		return Advance{}, err
	}
	return Advance{Posted: true, Result: res}, nil
}

// CancelDraft drops the user's draft.
func (s *Service) CancelDraft(userID int64) error {
	sess, _, err := s.draft(userID)
	if err != nil {
		return err
	}
	sess.DraftUpdate = nil
	s.store.Persist()
	return nil
}

// DraftState returns the section the user's draft is collecting.
func (s *Service) DraftState(userID int64) (models.DraftState, bool) {
	_, d, err := s.draft(userID)
	if err != nil {
		return "", false
	}
	return d.State, true
}
