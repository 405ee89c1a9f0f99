package store

import (
	"fmt"
	"strconv"
	"strings"

	"remindd/internal/schedule"
)

// The schedule lives in four flat columns (schedule_type, trigger_time,
// days_of_week, days_of_month). These helpers map between that shape and
// the schedule sum type.

type scheduleColumns struct {
	Kind        string
	TriggerTime string // "HH:MM"; empty means unset (09:00 default)
	DaysOfWeek  string // csv of 0=Monday..6=Sunday
	DaysOfMonth string // csv of 1..31
}

func encodeSchedule(s schedule.Schedule) (scheduleColumns, error) {
	var c scheduleColumns
	switch v := s.(type) {
	case schedule.Daily:
		c.Kind = string(schedule.KindDaily)
		c.TriggerTime = encodeTime(v.Time)
	case schedule.Weekly:
		c.Kind = string(schedule.KindWeekly)
		c.TriggerTime = encodeTime(v.Time)
		c.DaysOfWeek = joinInts(weekdaysToInts(v.Days))
	case schedule.Monthly:
		c.Kind = string(schedule.KindMonthly)
		c.TriggerTime = encodeTime(v.Time)
		c.DaysOfMonth = joinInts(v.Days)
	default:
		return c, fmt.Errorf("cannot encode schedule of kind %T", s)
	}
	return c, nil
}

func decodeSchedule(c scheduleColumns) (schedule.Schedule, error) {
	at, err := decodeTime(c.TriggerTime)
	if err != nil {
		return nil, err
	}

	kind, err := schedule.ParseKind(c.Kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case schedule.KindDaily:
		return schedule.Daily{Time: at}, nil
	case schedule.KindWeekly:
		days, err := splitInts(c.DaysOfWeek)
		if err != nil {
			return nil, fmt.Errorf("days_of_week: %w", err)
		}
		return schedule.Weekly{Time: at, Days: intsToWeekdays(days)}, nil
	case schedule.KindMonthly:
		days, err := splitInts(c.DaysOfMonth)
		if err != nil {
			return nil, fmt.Errorf("days_of_month: %w", err)
		}
		return schedule.Monthly{Time: at, Days: days}, nil
	}
	return nil, fmt.Errorf("unknown schedule kind %q", c.Kind)
}

func encodeTime(t *schedule.TimeOfDay) string {
	if t == nil {
		return ""
	}
	return t.String()
}

func decodeTime(s string) (*schedule.TimeOfDay, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := schedule.ParseTimeOfDay(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func weekdaysToInts(days []schedule.Weekday) []int {
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d)
	}
	return out
}

func intsToWeekdays(days []int) []schedule.Weekday {
	out := make([]schedule.Weekday, len(days))
	for i, d := range days {
		out[i] = schedule.Weekday(d)
	}
	return out
}

func joinInts(vals []int) string {
	if len(vals) == 0 {
		return ""
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func splitInts(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid day list entry %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}
