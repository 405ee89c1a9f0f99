// Package trigger implements the due-reminder scan: find everything whose
// next trigger time has arrived, deliver a notification per item, and
// advance each item's schedule only after its delivery succeeded.
//
// Failures stay local to the item. An undelivered reminder keeps its old
// next_trigger_at, so the due query itself is the retry mechanism; there
// is no separate retry queue or backoff.
package trigger

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"remindd/internal/notify"
	"remindd/internal/schedule"
	"remindd/internal/store"
	logx "remindd/pkg/logx"
)

// Store is the slice of the persistence API the processor needs.
type Store interface {
	FindDue(ctx context.Context, now time.Time) ([]*store.Reminder, error)
	SaveReminder(ctx context.Context, r *store.Reminder) error
}

// TaskSink creates the optional follow-up task after a successful trigger.
type TaskSink interface {
	CreateTask(ctx context.Context, t *store.Task) error
}

// Summary is the aggregate result of one scan.
//
// PersistFailed counts reminders that were delivered but whose trigger
// state could not be written back. Those will be delivered again on the
// next scan, so they are surfaced separately from ordinary failures.
type Summary struct {
	Due           int
	Sent          int
	Failed        int
	PersistFailed int
}

type Processor struct {
	store    Store
	notifier notify.Notifier
	tasks    TaskSink
	loc      *time.Location
	log      logx.Logger
}

func New(st Store, notifier notify.Notifier, tasks TaskSink, loc *time.Location, log logx.Logger) *Processor {
	if loc == nil {
		loc = time.Local
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Processor{store: st, notifier: notifier, tasks: tasks, loc: loc, log: log}
}

// Run performs one scan. It only returns an error when the due query
// itself fails; individual reminder failures are absorbed into the summary
// so one bad item never blocks the batch.
//
// With dryRun set, notifications are still delivered but no state is
// written and no follow-up tasks are created.
func (p *Processor) Run(ctx context.Context, now time.Time, dryRun bool) (Summary, error) {
	now = now.In(p.loc)

	due, err := p.store.FindDue(ctx, now)
	if err != nil {
		return Summary{}, fmt.Errorf("find due reminders: %w", err)
	}

	sum := Summary{Due: len(due)}
	for _, r := range due {
		p.processOne(ctx, r, now, dryRun, &sum)
	}

	p.log.Info("scan complete",
		logx.Bool("dry_run", dryRun),
		logx.Int("due", sum.Due),
		logx.Int("sent", sum.Sent),
		logx.Int("failed", sum.Failed),
		logx.Int("persist_failed", sum.PersistFailed),
	)
	return sum, nil
}

func (p *Processor) processOne(ctx context.Context, r *store.Reminder, now time.Time, dryRun bool, sum *Summary) {
	log := p.log.With(logx.Int64("reminder_id", r.ID), logx.String("name", r.Name))

	defer func() {
		if rec := recover(); rec != nil {
			sum.Failed++
			log.Error("panic while processing reminder",
				logx.Any("panic", rec), logx.String("stack", string(debug.Stack())))
		}
	}()

	// Schedulability first. An unknown schedule kind is a data problem,
	// not a transient failure: skip without delivering, at error level,
	// so it alerts instead of re-firing every scan.
	next, err := schedule.Next(r.Schedule, now)
	if err != nil {
		sum.Failed++
		log.Error("reminder unschedulable; skipped",
			logx.String("schedule_type", r.ScheduleKind), logx.Err(err))
		return
	}

	subject := "Reminder: " + r.Name
	if err := p.notifier.Send(ctx, r.Recipient, subject, renderBody(r)); err != nil {
		// State untouched: the reminder stays due and retries next scan.
		sum.Failed++
		log.Warn("delivery failed; will retry on next scan", logx.Err(err))
		return
	}
	sum.Sent++

	if dryRun {
		log.Info("dry run: delivered without advancing trigger state")
		return
	}

	triggered := now
	r.LastTriggeredAt = &triggered
	r.NextTriggerAt = &next
	if err := p.store.SaveReminder(ctx, r); err != nil {
		// Delivery already happened but the schedule did not advance: the
		// next scan will deliver again. The loudest failure mode we have.
		sum.PersistFailed++
		log.Error("trigger state not advanced after delivery; duplicate delivery risk",
			logx.Time("next_trigger_at", next), logx.Err(err))
		return
	}

	if r.CreateFollowupTask && p.tasks != nil {
		task := &store.Task{Name: r.Name, Note: r.Note, Priority: store.PriorityNormal}
		if err := p.tasks.CreateTask(ctx, task); err != nil {
			log.Warn("follow-up task not created", logx.Err(err))
		}
	}

	log.Info("reminder triggered", logx.Time("next_trigger_at", next))
}

func renderBody(r *store.Reminder) string {
	var b strings.Builder
	b.WriteString(r.Name)
	if r.Note != "" {
		b.WriteString("\n")
		b.WriteString(r.Note)
	}
	b.WriteString("\nRepeats: ")
	b.WriteString(schedule.Describe(r.Schedule))
	return b.String()
}
