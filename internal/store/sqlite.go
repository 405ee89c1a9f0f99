package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	logx "remindd/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = "./remindd.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) CreateReminder(ctx context.Context, r *Reminder) error {
	cols, err := encodeSchedule(r.Schedule)
	if err != nil {
		return err
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	r.ScheduleKind = cols.Kind

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders
		   (name, note, recipient, is_active, schedule_type, trigger_time,
		    days_of_week, days_of_month, create_followup_task,
		    last_triggered_at, next_trigger_at, created_at, updated_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.Name, r.Note, r.Recipient, r.Active, cols.Kind, nullStr(cols.TriggerTime),
		cols.DaysOfWeek, cols.DaysOfMonth, r.CreateFollowupTask,
		nullTime(r.LastTriggeredAt), nullTime(r.NextTriggerAt),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}
	r.ID, err = res.LastInsertId()
	return err
}

const reminderColumns = `id, name, note, recipient, is_active, schedule_type,
	trigger_time, days_of_week, days_of_month, create_followup_task,
	last_triggered_at, next_trigger_at, created_at, updated_at`

func (s *sqliteStore) ListReminders(ctx context.Context) ([]*Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 ORDER BY next_trigger_at IS NULL, next_trigger_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanReminders(rows)
}

func (s *sqliteStore) FindDue(ctx context.Context, now time.Time) ([]*Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE is_active = 1 AND next_trigger_at IS NOT NULL AND next_trigger_at <= ?
		 ORDER BY next_trigger_at ASC`,
		now.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.scanReminders(rows)
}

func (s *sqliteStore) scanReminders(rows *sql.Rows) ([]*Reminder, error) {
	var out []*Reminder
	for rows.Next() {
		var (
			r           Reminder
			cols        scheduleColumns
			triggerTime sql.NullString
			lastAt      sql.NullInt64
			nextAt      sql.NullInt64
			createdAt   string
			updatedAt   string
		)
		if err := rows.Scan(
			&r.ID, &r.Name, &r.Note, &r.Recipient, &r.Active, &cols.Kind,
			&triggerTime, &cols.DaysOfWeek, &cols.DaysOfMonth, &r.CreateFollowupTask,
			&lastAt, &nextAt, &createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}
		cols.TriggerTime = triggerTime.String
		r.ScheduleKind = cols.Kind

		sched, err := decodeSchedule(cols)
		if err != nil {
			// Keep the row; the processor surfaces undecodable schedules.
			s.log.Debug("schedule decode failed",
				logx.Int64("reminder_id", r.ID), logx.Err(err))
		} else {
			r.Schedule = sched
		}

		r.LastTriggeredAt = fromMillis(lastAt)
		r.NextTriggerAt = fromMillis(nextAt)
		r.CreatedAt = parseTime(createdAt)
		r.UpdatedAt = parseTime(updatedAt)
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) SaveReminder(ctx context.Context, r *Reminder) error {
	cols, err := encodeSchedule(r.Schedule)
	if err != nil {
		return err
	}
	r.UpdatedAt = time.Now()

	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET
		   name=?, note=?, recipient=?, is_active=?, schedule_type=?,
		   trigger_time=?, days_of_week=?, days_of_month=?, create_followup_task=?,
		   last_triggered_at=?, next_trigger_at=?, updated_at=?
		 WHERE id=?`,
		r.Name, r.Note, r.Recipient, r.Active, cols.Kind,
		nullStr(cols.TriggerTime), cols.DaysOfWeek, cols.DaysOfMonth, r.CreateFollowupTask,
		nullTime(r.LastTriggeredAt), nullTime(r.NextTriggerAt),
		r.UpdatedAt.Format(time.RFC3339Nano),
		r.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) CreateTask(ctx context.Context, t *Task) error {
	if t.Priority == 0 {
		t.Priority = PriorityNormal
	}
	t.CreatedAt = time.Now()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks(name, note, priority, done, created_at) VALUES(?,?,?,?,?)`,
		t.Name, t.Note, t.Priority, t.Done, t.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}
	t.ID, err = res.LastInsertId()
	return err
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

// Trigger timestamps are stored as Unix milliseconds so the due query can
// compare them numerically.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func fromMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64)
	return &t
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
