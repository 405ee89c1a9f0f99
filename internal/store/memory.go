package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memoryStore keeps everything in process memory. It backs the "memory"
// driver and the test suites of packages that consume Store.
type memoryStore struct {
	mu        sync.Mutex
	reminders map[int64]*Reminder
	tasks     map[int64]*Task
	nextID    int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() Store {
	return &memoryStore{
		reminders: map[int64]*Reminder{},
		tasks:     map[int64]*Task{},
	}
}

func (s *memoryStore) Close() error { return nil }

func (s *memoryStore) CreateReminder(_ context.Context, r *Reminder) error {
	if _, err := encodeSchedule(r.Schedule); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	r.ID = s.nextID
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.Schedule != nil {
		r.ScheduleKind = string(r.Schedule.Kind())
	}
	cp := *r
	s.reminders[r.ID] = &cp
	return nil
}

func (s *memoryStore) ListReminders(_ context.Context) ([]*Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].NextTriggerAt, out[j].NextTriggerAt
		switch {
		case a == nil && b == nil:
			return out[i].ID < out[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return out[i].ID < out[j].ID
		default:
			return a.Before(*b)
		}
	})
	return out, nil
}

func (s *memoryStore) FindDue(_ context.Context, now time.Time) ([]*Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*Reminder
	for _, r := range s.reminders {
		if !r.Active || r.NextTriggerAt == nil || r.NextTriggerAt.After(now) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NextTriggerAt.Equal(*out[j].NextTriggerAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].NextTriggerAt.Before(*out[j].NextTriggerAt)
	})
	return out, nil
}

func (s *memoryStore) SaveReminder(_ context.Context, r *Reminder) error {
	if _, err := encodeSchedule(r.Schedule); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reminders[r.ID]; !ok {
		return ErrNotFound
	}
	r.UpdatedAt = time.Now()
	cp := *r
	s.reminders[r.ID] = &cp
	return nil
}

func (s *memoryStore) CreateTask(_ context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Priority == 0 {
		t.Priority = PriorityNormal
	}
	s.nextID++
	t.ID = s.nextID
	t.CreatedAt = time.Now()
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}
