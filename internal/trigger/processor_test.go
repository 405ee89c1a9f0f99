package trigger

import (
	"context"
	"errors"
	"testing"
	"time"

	"remindd/internal/notify"
	"remindd/internal/schedule"
	"remindd/internal/store"
	logx "remindd/pkg/logx"
)

type fakeNotifier struct {
	sent   []string // recipients of successful sends
	failFn func(recipient string) error
}

func (f *fakeNotifier) Send(_ context.Context, recipient, subject, body string) error {
	if f.failFn != nil {
		if err := f.failFn(recipient); err != nil {
			return err
		}
	}
	f.sent = append(f.sent, recipient)
	return nil
}

type taskRecorder struct {
	tasks []*store.Task
}

func (t *taskRecorder) CreateTask(_ context.Context, task *store.Task) error {
	t.tasks = append(t.tasks, task)
	return nil
}

type flakyStore struct {
	store.Store
	saveErr error
}

func (f *flakyStore) SaveReminder(ctx context.Context, r *store.Reminder) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.Store.SaveReminder(ctx, r)
}

type brokenStore struct{}

func (brokenStore) FindDue(context.Context, time.Time) ([]*store.Reminder, error) {
	return nil, errors.New("database is on fire")
}

func (brokenStore) SaveReminder(context.Context, *store.Reminder) error {
	return errors.New("database is on fire")
}

func seedReminder(t *testing.T, st store.Store, name, recipient string, s schedule.Schedule, dueAt time.Time, followup bool) *store.Reminder {
	t.Helper()
	r := &store.Reminder{
		Name:               name,
		Note:               "note for " + name,
		Recipient:          recipient,
		Active:             true,
		Schedule:           s,
		CreateFollowupTask: followup,
		NextTriggerAt:      &dueAt,
	}
	if err := st.CreateReminder(context.Background(), r); err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return r
}

func findByID(t *testing.T, st store.Store, id int64) *store.Reminder {
	t.Helper()
	all, err := st.ListReminders(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, r := range all {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("reminder %d not found", id)
	return nil
}

var daily9 = schedule.Daily{Time: &schedule.TimeOfDay{Hour: 9, Minute: 0}}

func TestRunPerItemIsolation(t *testing.T) {
	t.Parallel()
	st := store.NewMemory()
	now := time.Date(2025, time.February, 3, 9, 30, 0, 0, time.UTC)
	dueAt := now.Add(-time.Minute)

	a := seedReminder(t, st, "alpha", "111", daily9, dueAt, false)
	b := seedReminder(t, st, "beta", "", daily9, dueAt, false) // no recipient

	n := &fakeNotifier{failFn: func(recipient string) error {
		if recipient == "" {
			return notify.ErrNoRecipient
		}
		return nil
	}}
	p := New(st, n, &taskRecorder{}, time.UTC, logx.Nop())

	sum, err := p.Run(context.Background(), now, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Due != 2 || sum.Sent != 1 || sum.Failed != 1 || sum.PersistFailed != 0 {
		t.Fatalf("summary = %+v", sum)
	}

	gotA := findByID(t, st, a.ID)
	if gotA.LastTriggeredAt == nil || !gotA.LastTriggeredAt.Equal(now) {
		t.Fatalf("alpha last_triggered_at = %v, want %v", gotA.LastTriggeredAt, now)
	}
	if gotA.NextTriggerAt == nil || !gotA.NextTriggerAt.After(now) {
		t.Fatalf("alpha next_trigger_at = %v, want after %v", gotA.NextTriggerAt, now)
	}

	gotB := findByID(t, st, b.ID)
	if gotB.LastTriggeredAt != nil {
		t.Fatalf("beta must stay untouched, got last_triggered_at=%v", gotB.LastTriggeredAt)
	}
	if !gotB.NextTriggerAt.Equal(dueAt) {
		t.Fatalf("beta next_trigger_at changed: %v", gotB.NextTriggerAt)
	}
}

func TestRunAdvancesSchedule(t *testing.T) {
	t.Parallel()
	st := store.NewMemory()
	now := time.Date(2025, time.February, 3, 9, 30, 0, 0, time.UTC)
	r := seedReminder(t, st, "stand-up", "42", daily9, now.Add(-time.Minute), true)

	sink := &taskRecorder{}
	p := New(st, &fakeNotifier{}, sink, time.UTC, logx.Nop())

	if _, err := p.Run(context.Background(), now, false); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := findByID(t, st, r.ID)
	want, err := schedule.Next(daily9, now)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.NextTriggerAt == nil || !got.NextTriggerAt.Equal(want) {
		t.Fatalf("next_trigger_at = %v, want %v", got.NextTriggerAt, want)
	}

	if len(sink.tasks) != 1 {
		t.Fatalf("expected 1 follow-up task, got %d", len(sink.tasks))
	}
	if sink.tasks[0].Name != "stand-up" || sink.tasks[0].Note != "note for stand-up" {
		t.Fatalf("unexpected task: %+v", sink.tasks[0])
	}

	// The advanced reminder is no longer due.
	sum, err := p.Run(context.Background(), now, false)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if sum.Due != 0 {
		t.Fatalf("expected empty due set after advance, got %d", sum.Due)
	}
}

func TestRunDryRunDeliversWithoutMutation(t *testing.T) {
	t.Parallel()
	st := store.NewMemory()
	now := time.Date(2025, time.February, 3, 9, 30, 0, 0, time.UTC)
	dueAt := now.Add(-time.Minute)
	r := seedReminder(t, st, "dry", "7", daily9, dueAt, true)

	n := &fakeNotifier{}
	sink := &taskRecorder{}
	p := New(st, n, sink, time.UTC, logx.Nop())

	sum, err := p.Run(context.Background(), now, true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Due != 1 || sum.Sent != 1 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(n.sent) != 1 {
		t.Fatalf("dry run must still deliver, sent=%d", len(n.sent))
	}

	got := findByID(t, st, r.ID)
	if got.LastTriggeredAt != nil || !got.NextTriggerAt.Equal(dueAt) {
		t.Fatalf("dry run mutated state: %+v", got)
	}
	if len(sink.tasks) != 0 {
		t.Fatalf("dry run created a task")
	}
}

func TestRunSkipsUnschedulable(t *testing.T) {
	t.Parallel()
	now := time.Now()
	dueAt := now.Add(-time.Minute)

	// An undecodable row arrives with its schedule lost and the raw kind retained.
	broken := &store.Reminder{
		ID:            1,
		Name:          "odd",
		Recipient:     "42",
		Active:        true,
		ScheduleKind:  "fortnightly",
		NextTriggerAt: &dueAt,
	}

	n := &fakeNotifier{}
	p := New(&staticDue{due: []*store.Reminder{broken}}, n, nil, time.UTC, logx.Nop())

	sum, err := p.Run(context.Background(), now, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Due != 1 || sum.Failed != 1 || sum.Sent != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(n.sent) != 0 {
		t.Fatal("unschedulable reminder must not be delivered")
	}
}

// staticDue serves a fixed due set and rejects writes.
type staticDue struct {
	due []*store.Reminder
}

func (s *staticDue) FindDue(context.Context, time.Time) ([]*store.Reminder, error) {
	return s.due, nil
}

func (s *staticDue) SaveReminder(context.Context, *store.Reminder) error {
	return errors.New("read-only store")
}

func TestRunSurfacesPersistFailure(t *testing.T) {
	t.Parallel()
	st := store.NewMemory()
	now := time.Date(2025, time.February, 3, 9, 30, 0, 0, time.UTC)
	seedReminder(t, st, "sticky", "42", daily9, now.Add(-time.Minute), false)

	n := &fakeNotifier{}
	p := New(&flakyStore{Store: st, saveErr: errors.New("disk full")}, n, nil, time.UTC, logx.Nop())

	sum, err := p.Run(context.Background(), now, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Delivery happened; the write did not. Both facts must show.
	if sum.Sent != 1 || sum.PersistFailed != 1 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(n.sent) != 1 {
		t.Fatalf("expected delivery before persist failure")
	}
}

func TestRunStoreUnavailable(t *testing.T) {
	t.Parallel()
	p := New(brokenStore{}, &fakeNotifier{}, nil, time.UTC, logx.Nop())
	if _, err := p.Run(context.Background(), time.Now(), false); err == nil {
		t.Fatal("expected error when due query fails")
	}
}
