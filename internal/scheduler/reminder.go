// Package scheduler scans the task store on a fixed interval and enqueues a
// reminder for every pending task whose deadline is within one day.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskbot/internal/database"
	"taskbot/internal/queue"
)

// Scheduler is the reminder producer. It keeps no state of its own: every
// tick reads fresh from the store, so restarts are safe. A task is notified
// at most once per due-soon episode, gated by last_notified_at.
type Scheduler struct {
	tasks    database.TaskRepositoryInterface
	queue    queue.ReminderQueue
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a reminder scheduler
func New(tasks database.TaskRepositoryInterface, q queue.ReminderQueue, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		tasks:    tasks,
		queue:    q,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the tick loop until ctx is cancelled. Ticks never interleave:
// a slow tick simply delays the next one. A failed tick is logged and the
// next tick retries from scratch.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				s.logger.Warn("reminder_tick_failed", zap.Error(err))
			}
		}
	}
}

// Tick performs one reminder pass. A store read failure aborts the whole
// tick; a failure on one task is logged and never blocks the rest of the
// batch.
func (s *Scheduler) Tick(ctx context.Context) error {
	tickID := uuid.New()
	now := s.now()

	tasks, err := s.tasks.ListDuePending(ctx)
	if err != nil {
		return fmt.Errorf("list due tasks: %w", err)
	}

	notified := 0
	for _, t := range tasks {
		if !t.DueSoon(now) {
			continue
		}
		// Already notified for this episode; tasks are immutable after
		// creation, so a set timestamp means the reminder went out
		if t.LastNotifiedAt != nil {
			continue
		}

		job := queue.NewReminderJob(t)
		if err := s.queue.Enqueue(ctx, job); err != nil {
			s.logger.Warn("reminder_enqueue_failed",
				zap.String("tick_id", tickID.String()),
				zap.Int64("task_id", t.ID),
				zap.Int64("owner_id", t.OwnerID),
				zap.Error(err),
			)
			continue
		}

		// Mark only after a successful enqueue, otherwise the next tick
		// retries the task
		if err := s.tasks.MarkNotified(ctx, t.OwnerID, t.ID, now); err != nil {
			s.logger.Warn("mark_notified_failed",
				zap.String("tick_id", tickID.String()),
				zap.Int64("task_id", t.ID),
				zap.Error(err),
			)
			continue
		}
		notified++
	}

	s.logger.Info("reminder_tick_done",
		zap.String("tick_id", tickID.String()),
		zap.Int("scanned", len(tasks)),
		zap.Int("notified", notified),
	)

	return nil
}
