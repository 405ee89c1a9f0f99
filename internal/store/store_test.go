package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"remindd/internal/schedule"
	logx "remindd/pkg/logx"
)

func openDrivers(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{
		"sqlite": sq,
		"memory": NewMemory(),
	}
}

func TestReminderLifecycle(t *testing.T) {
	now := time.Date(2025, time.February, 3, 9, 0, 0, 0, time.UTC)

	for name, st := range openDrivers(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			next := now.Add(time.Hour)
			r := &Reminder{
				Name:      "water the plants",
				Note:      "the ficus too",
				Recipient: "12345",
				Active:    true,
				Schedule: schedule.Weekly{
					Time: &schedule.TimeOfDay{Hour: 10, Minute: 0},
					Days: []schedule.Weekday{schedule.Monday},
				},
				CreateFollowupTask: true,
				NextTriggerAt:      &next,
			}
			if err := st.CreateReminder(ctx, r); err != nil {
				t.Fatalf("CreateReminder: %v", err)
			}
			if r.ID == 0 {
				t.Fatal("expected assigned ID")
			}

			// Not due yet.
			due, err := st.FindDue(ctx, now)
			if err != nil {
				t.Fatalf("FindDue: %v", err)
			}
			if len(due) != 0 {
				t.Fatalf("expected nothing due, got %d", len(due))
			}

			// Due once the trigger time passes.
			due, err = st.FindDue(ctx, now.Add(2*time.Hour))
			if err != nil {
				t.Fatalf("FindDue: %v", err)
			}
			if len(due) != 1 {
				t.Fatalf("expected 1 due reminder, got %d", len(due))
			}
			got := due[0]
			if got.Name != r.Name || got.Recipient != r.Recipient || !got.CreateFollowupTask {
				t.Fatalf("due reminder fields mangled: %+v", got)
			}
			if got.Schedule == nil || got.Schedule.Kind() != schedule.KindWeekly {
				t.Fatalf("schedule did not round-trip: %#v", got.Schedule)
			}
			if got.Schedule.At() != (schedule.TimeOfDay{Hour: 10, Minute: 0}) {
				t.Fatalf("trigger time did not round-trip: %v", got.Schedule.At())
			}

			// Advance trigger state and verify the reminder leaves the due set.
			advanced := now.Add(7 * 24 * time.Hour)
			got.LastTriggeredAt = &now
			got.NextTriggerAt = &advanced
			if err := st.SaveReminder(ctx, got); err != nil {
				t.Fatalf("SaveReminder: %v", err)
			}
			due, err = st.FindDue(ctx, now.Add(2*time.Hour))
			if err != nil {
				t.Fatalf("FindDue: %v", err)
			}
			if len(due) != 0 {
				t.Fatalf("expected nothing due after advance, got %d", len(due))
			}

			list, err := st.ListReminders(ctx)
			if err != nil {
				t.Fatalf("ListReminders: %v", err)
			}
			if len(list) != 1 || list[0].LastTriggeredAt == nil {
				t.Fatalf("unexpected list result: %+v", list)
			}
		})
	}
}

func TestFindDueSkipsInactive(t *testing.T) {
	now := time.Now()

	for name, st := range openDrivers(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			past := now.Add(-time.Hour)
			r := &Reminder{
				Name:          "paused",
				Active:        false,
				Schedule:      schedule.Daily{},
				NextTriggerAt: &past,
			}
			if err := st.CreateReminder(ctx, r); err != nil {
				t.Fatalf("CreateReminder: %v", err)
			}
			due, err := st.FindDue(ctx, now)
			if err != nil {
				t.Fatalf("FindDue: %v", err)
			}
			if len(due) != 0 {
				t.Fatalf("inactive reminder selected as due")
			}
		})
	}
}

func TestSaveReminderNotFound(t *testing.T) {
	for name, st := range openDrivers(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			err := st.SaveReminder(context.Background(), &Reminder{
				ID:       999,
				Schedule: schedule.Daily{},
			})
			if err != ErrNotFound {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	for name, st := range openDrivers(t) {
		st := st
		t.Run(name, func(t *testing.T) {
			task := &Task{Name: "follow up", Note: "from reminder"}
			if err := st.CreateTask(context.Background(), task); err != nil {
				t.Fatalf("CreateTask: %v", err)
			}
			if task.ID == 0 || task.Priority != PriorityNormal {
				t.Fatalf("unexpected task defaults: %+v", task)
			}
		})
	}
}
