// Package scheduler evaluates due schedule tasks once per minute, posting
// the poll and advancing or disabling each task. Tasks are processed in
// isolation: one task's failure never aborts the batch, and terminal
// failures disable the task rather than delete it so the record stays
// auditable until cleanup.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"open_poll_bot/configs"
	"open_poll_bot/internal/db/models"
	"open_poll_bot/internal/db/repositories"
	"open_poll_bot/internal/platform"
	"open_poll_bot/internal/render"
)

type Engine interface {
	// Tick processes every task due at the current time.
	Tick(ctx context.Context)
	// Cleanup purges disabled tasks older than the retention window.
	Cleanup(ctx context.Context)
}

type engine struct {
	tasks    repositories.ScheduleTaskRepository
	polls    repositories.PollRepository
	client   platform.Client
	renderer render.Renderer
	config   configs.Scheduler
	now      func() time.Time
	logger   *zap.SugaredLogger
}

func NewEngine(
	tasks repositories.ScheduleTaskRepository,
	polls repositories.PollRepository,
	client platform.Client,
	renderer render.Renderer,
	config configs.Scheduler,
	now func() time.Time,
	logger *zap.SugaredLogger,
) Engine {
	if now == nil {
		now = time.Now
	}
	return &engine{
		tasks:    tasks,
		polls:    polls,
		client:   client,
		renderer: renderer,
		config:   config,
		now:      now,
		logger:   logger,
	}
}

func (e *engine) Tick(ctx context.Context) {
	now := e.now().UTC()

	tasks, err := e.tasks.GetDue(ctx, now)
	if err != nil {
		e.logger.Errorw("failed to load due schedule tasks", "error", err)
		return
	}

	for _, task := range tasks {
		e.runTask(ctx, task, now)
	}
}

// runTask isolates one task evaluation; a panic in one task must not take
// down the rest of the batch.
func (e *engine) runTask(ctx context.Context, task *models.ScheduleTask, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorw("schedule task panicked", "pollID", task.PollID, "panic", r)
		}
	}()

	if err := e.processTask(ctx, task, now); err != nil {
		e.logger.Errorw("schedule task failed", "pollID", task.PollID, "error", err)
	}
}

func (e *engine) processTask(ctx context.Context, task *models.ScheduleTask, now time.Time) error {
	poll, err := e.polls.GetOne(ctx, task.PollID)
	if err != nil {
		// Store trouble is transient; the task stays due and is
		// retried on the next tick.
		return err
	}
	if poll == nil || poll.Team == "" || poll.Channel == "" {
		// Definition gone, or created before scheduling existed and
		// missing its identifying fields. No retry can fix that.
		return e.disable(ctx, task, now, "poll definition missing or incomplete")
	}

	channel := task.PollCh
	if channel == "" {
		channel = poll.Channel
	}

	emptyLedger := &models.VoteLedger{Votes: map[string][]string{}}
	message := e.renderer.RenderPoll(poll, emptyLedger, models.Flags{Hidden: poll.Hidden})

	if _, err = e.client.Post(ctx, channel, message); err != nil {
		if platform.IsTerminal(err) {
			e.notify(ctx, task, fmt.Sprintf("Your scheduled poll %q could not be posted (%v); the schedule has been disabled.", poll.Question, err))
			return e.disable(ctx, task, now, err.Error())
		}

		// Transient post failure: record it, leave the task Scheduled
		// so it is retried at the same cadence next tick.
		task.LastErrorTS = now
		task.LastErrorText = err.Error()
		if saveErr := e.tasks.Update(ctx, task); saveErr != nil {
			return saveErr
		}
		e.notify(ctx, task, fmt.Sprintf("Posting your scheduled poll %q failed (%v); it will be retried.", poll.Question, err))
		return err
	}

	task.RunCounter++
	task.IsDone = true

	// A run-count budget always wins over recurrence.
	if task.RunCounter >= task.RunMax {
		task.IsEnable = false
		if err = e.tasks.Update(ctx, task); err != nil {
			return err
		}
		e.notify(ctx, task, fmt.Sprintf("Your scheduled poll %q has completed its final run (%d of %d).", poll.Question, task.RunCounter, task.RunMax))
		return nil
	}

	if err = e.tasks.Update(ctx, task); err != nil {
		return err
	}

	if !task.Recurring() {
		// One-shot: is_done stays set, the task is never due again.
		return nil
	}

	return e.advance(ctx, task, poll, now)
}

// advance computes the next occurrence and applies the too-frequent guard:
// one warned grace run, then disablement on the second consecutive
// violation.
func (e *engine) advance(ctx context.Context, task *models.ScheduleTask, poll *models.Poll, now time.Time) error {
	schedule, err := ParseCron(task.CronString)
	if err != nil {
		// Cron strings are validated at creation time; seeing a bad
		// one here means the stored record is corrupt.
		e.notify(ctx, task, fmt.Sprintf("The schedule for poll %q has an invalid cron expression and was disabled.", poll.Question))
		return e.disable(ctx, task, now, err.Error())
	}

	next := schedule.Next(now)

	if next.Sub(now) < e.config.MinGap() {
		if task.NextTSWarn {
			task.IsEnable = false
			if err = e.tasks.Update(ctx, task); err != nil {
				return err
			}
			e.notify(ctx, task, fmt.Sprintf("The schedule for poll %q keeps firing more often than every %s and was disabled.", poll.Question, e.config.MinGap()))
			return nil
		}

		// First violation: warn, keep enabled, let one more run through.
		task.NextTSWarn = true
		task.NextTS = next
		task.IsDone = false
		if err = e.tasks.Update(ctx, task); err != nil {
			return err
		}
		e.notify(ctx, task, fmt.Sprintf("The schedule for poll %q fires more often than every %s; it will be disabled if the next run is as close.", poll.Question, e.config.MinGap()))
		return nil
	}

	task.NextTSWarn = false
	task.NextTS = next
	task.IsDone = false
	return e.tasks.Update(ctx, task)
}

// disable marks the task terminal with its error. The record is kept for
// audit until cleanup purges it.
func (e *engine) disable(ctx context.Context, task *models.ScheduleTask, now time.Time, reason string) error {
	task.IsEnable = false
	task.LastErrorTS = now
	task.LastErrorText = reason

	if err := e.tasks.Update(ctx, task); err != nil {
		return err
	}

	e.logger.Warnw("schedule task disabled", "pollID", task.PollID, "reason", reason)
	return nil
}

// notify sends a best-effort direct message to the task owner; failures are
// swallowed, notification is not part of the task's consistency contract.
func (e *engine) notify(ctx context.Context, task *models.ScheduleTask, text string) {
	if task.CreatedUserID == "" {
		return
	}
	if err := e.client.DirectMessage(ctx, task.CreatedUserID, text); err != nil {
		e.logger.Warnw("failed to notify schedule owner", "pollID", task.PollID, "error", err)
	}
}

func (e *engine) Cleanup(ctx context.Context) {
	cutoff := e.now().UTC().Add(-e.config.CleanupRetention())

	deleted, err := e.tasks.DeleteDisabledBefore(ctx, cutoff)
	if err != nil {
		e.logger.Errorw("schedule cleanup failed", "error", err)
		return
	}

	e.logger.Infow("schedule cleanup finished", "deleted", deleted)
}
