// Package scheduler fires standup reminders and their follow-ups.
package scheduler

import (
	"context"
	"errors"
	"slices"
	"time"

	"standup-bot/internal/metrics"
	"standup-bot/internal/models"
	"standup-bot/internal/standup"
	"standup-bot/internal/storage"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Cron fires every minute on weekdays.
const Cron = "* * * * 1-5"

// FollowUpDelay is how long after the reminder missing members are listed.
const FollowUpDelay = time.Hour

// Notifier delivers reminder messages to groups.
type Notifier interface {
	// Probe checks the bot can still reach the group; standup.ErrUnreachable
	// means it never will.
	Probe(ctx context.Context, chatID int64) error
	SendReminder(ctx context.Context, chatID int64, monday bool) error
	SendMissing(ctx context.Context, chatID int64, missing []string) error
}

// Reminders evaluates every group's reminder settings on each tick.
type Reminders struct {
	store  *storage.Store
	notify Notifier
	log    *zap.Logger
}

func NewReminders(store *storage.Store, notify Notifier, log *zap.Logger) *Reminders {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reminders{store: store, notify: notify, log: log}
}

// isoWeekday maps Sunday to 7.
func isoWeekday(t time.Time) int {
	if wd := int(t.Weekday()); wd != 0 {
		return wd
	}
	return 7
}

func activeOn(g *models.GroupRecord, now time.Time) bool {
	if len(g.Settings.ActiveWeekdays) == 0 {
		return true
	}
	return slices.Contains(g.Settings.ActiveWeekdays, isoWeekday(now))
}

// Tick runs one evaluation at now. A minute without a tick is never caught up.
func (r *Reminders) Tick(ctx context.Context, now time.Time) {
	now = now.UTC().Truncate(time.Minute)
	for _, g := range r.store.Groups() {
		if !g.Settings.IsActive || !activeOn(g, now) {
			continue
		}
		if now.Format("15:04") == g.Settings.ReminderTimeUTC {
			if !r.remind(ctx, g, now) {
				continue
			}
		}
		r.followUp(ctx, g, now)
	}
}

// remind sends the daily reminder and reports whether the group still exists.
func (r *Reminders) remind(ctx context.Context, g *models.GroupRecord, now time.Time) bool {
	log := r.log.With(zap.Int64("chat_id", g.ID))

	if err := r.notify.Probe(ctx, g.ID); err != nil {
		if errors.Is(err, standup.ErrUnreachable) {
			r.purge(g.ID, err)
			return false
		}
		log.Warn("probe group", zap.Error(err))
	}

	sent := now
	g.Metadata.LastReminderTime = &sent
	r.store.Persist()

	if err := r.notify.SendReminder(ctx, g.ID, now.Weekday() == time.Monday); err != nil {
		if errors.Is(err, standup.ErrUnreachable) {
			r.purge(g.ID, err)
			return false
		}
		log.Error("send reminder", zap.Error(err))
		return true
	}
	metrics.RemindersSent.WithLabelValues("initial").Inc()
	log.Info("reminder sent", zap.String("at", g.Settings.ReminderTimeUTC))
	return true
}

func (r *Reminders) followUp(ctx context.Context, g *models.GroupRecord, now time.Time) {
	last := g.Metadata.LastReminderTime
	if last == nil {
		return
	}
	elapsed := now.Sub(*last)
	if elapsed < FollowUpDelay || elapsed >= FollowUpDelay+time.Minute {
		return
	}
	missing := standup.MissingMembers(g, now)
	if len(missing) == 0 {
		return
	}
	if err := r.notify.SendMissing(ctx, g.ID, missing); err != nil {
		r.log.Error("send follow-up", zap.Int64("chat_id", g.ID), zap.Error(err))
		return
	}
	metrics.RemindersSent.WithLabelValues("follow_up").Inc()
}

func (r *Reminders) purge(id int64, cause error) {
	r.log.Warn("group unreachable, deleting", zap.Int64("chat_id", id), zap.Error(cause))
	r.store.DeleteGroup(id)
	metrics.GroupsPurged.Inc()
}

// Start schedules the weekday minute job. Each run pushes the current time
// into ticks for the dispatch loop; it blocks until the loop takes it or ctx
// ends.
func Start(ctx context.Context, clock clockwork.Clock, ticks chan<- time.Time, log *zap.Logger) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithClock(clock),
	)
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.CronJob(Cron, false),
		gocron.NewTask(func() {
			select {
			case ticks <- clock.Now().UTC():
			case <-ctx.Done():
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("standup-reminders"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}

	s.Start()
	log.Info("reminder scheduler started", zap.String("cron", Cron))
	return s, nil
}
