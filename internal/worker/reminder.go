package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"compass/internal/engine"
	"compass/internal/logger"
)

// NotificationSource is the read side the worker polls.
type NotificationSource interface {
	Notifications() engine.Notifications
}

// Reminder periodically triages tasks while the API server runs and logs a
// summary whenever the counts change.
type Reminder struct {
	src      NotificationSource
	interval time.Duration
	last     summary
	notify   func(engine.Notifications)
}

type summary struct {
	overdue, today, tomorrow, inbox int
}

func NewReminder(src NotificationSource, interval time.Duration, notify func(engine.Notifications)) *Reminder {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reminder{src: src, interval: interval, last: summary{-1, -1, -1, -1}, notify: notify}
}

// Start blocks until ctx is done, checking once immediately.
func (r *Reminder) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Check()
	for {
		select {
		case <-ticker.C:
			r.Check()
		case <-ctx.Done():
			logger.Info("reminder stopping")
			return
		}
	}
}

// Check runs one triage pass. It reports whether the summary changed.
func (r *Reminder) Check() bool {
	n := r.src.Notifications()
	cur := summary{
		overdue:  len(n.Overdue),
		today:    len(n.DueToday),
		tomorrow: len(n.DueTomorrow),
		inbox:    n.InboxPending,
	}
	if cur == r.last {
		return false
	}
	r.last = cur

	if n.Total() > 0 {
		logger.Info("reminder",
			zap.Int("overdue", cur.overdue),
			zap.Int("due_today", cur.today),
			zap.Int("due_tomorrow", cur.tomorrow),
			zap.Int("inbox", cur.inbox))
	}
	if r.notify != nil {
		r.notify(n)
	}
	return true
}
