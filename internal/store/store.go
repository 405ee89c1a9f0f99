// Package store persists reminder and task records.
//
// Two drivers exist behind the Store interface: "sqlite" (the default,
// modernc.org/sqlite) and "memory" (map-backed, for tests and throwaway
// runs). Open() picks the driver from config the same way for both.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"remindd/internal/schedule"
	logx "remindd/pkg/logx"
)

var ErrNotFound = errors.New("store: not found")

// Config configures the persistence layer.
type Config struct {
	Driver      string // "sqlite" (default) or "memory"
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Reminder is the lifecycle entity owned by this engine.
//
// Invariant: while Active is true, NextTriggerAt holds a value consistent
// with the schedule and the most recent successful trigger (or the creation
// instant, if never triggered).
type Reminder struct {
	ID        int64
	Name      string
	Note      string
	Recipient string // notifier address, e.g. a telegram chat id

	Active bool

	// Schedule is nil when the stored schedule_type failed to decode;
	// ScheduleKind keeps the raw value for diagnostics in that case.
	Schedule     schedule.Schedule
	ScheduleKind string

	CreateFollowupTask bool

	LastTriggeredAt *time.Time
	NextTriggerAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Task is the follow-up record created as a side effect of a successful
// trigger when the reminder asks for one.
type Task struct {
	ID        int64
	Name      string
	Note      string
	Priority  int
	Done      bool
	CreatedAt time.Time
}

// PriorityNormal is the default priority for follow-up tasks.
const PriorityNormal = 3

// Store is the persistence API consumed by the trigger processor and the CLI.
type Store interface {
	// CreateReminder inserts the reminder and fills ID/CreatedAt/UpdatedAt.
	// The caller is responsible for seeding NextTriggerAt first.
	CreateReminder(ctx context.Context, r *Reminder) error

	// ListReminders returns all reminders ordered by next trigger.
	ListReminders(ctx context.Context) ([]*Reminder, error)

	// FindDue returns active reminders with next_trigger_at <= now,
	// earliest first.
	FindDue(ctx context.Context, now time.Time) ([]*Reminder, error)

	// SaveReminder writes back the reminder's mutable state
	// (schedule, activity flag, trigger bookkeeping).
	SaveReminder(ctx context.Context, r *Reminder) error

	// CreateTask inserts a follow-up task and fills ID/CreatedAt.
	CreateTask(ctx context.Context, t *Task) error

	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.New("unknown store driver: " + driver)
	}
}
