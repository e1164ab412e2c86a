// Package metrics exposes the bot's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesSubmitted counts stored updates by status (created, replaced).
	UpdatesSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "standup_updates_submitted_total",
		Help: "Standup updates stored, by status.",
	}, []string{"status"})

	// Exports counts spreadsheet exports by result (ok, no_spreadsheet, failed).
	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "standup_exports_total",
		Help: "Spreadsheet export attempts, by result.",
	}, []string{"result"})

	// RemindersSent counts reminder messages by kind (initial, follow_up).
	RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "standup_reminders_sent_total",
		Help: "Reminder messages sent, by kind.",
	}, []string{"kind"})

	// GroupsPurged counts groups deleted after becoming unreachable.
	GroupsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "standup_groups_purged_total",
		Help: "Group records deleted because the bot can no longer reach the group.",
	})

	// PersistFailures counts failed state writes.
	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "standup_persist_failures_total",
		Help: "Failed writes of the persisted state document.",
	})
)
