package schedule

import (
	"errors"
	"time"
)

// ErrUnschedulable reports a schedule whose variant is not recognized.
// This is a data problem (bad row, nil schedule), not a transient failure.
var ErrUnschedulable = errors.New("unschedulable: unknown schedule kind")

// Next computes the next trigger instant strictly after ref.
//
// The result is always later than ref for any valid schedule, so feeding
// the returned instant back in as the new reference walks forward through
// the occurrence sequence without ever repeating.
func Next(s Schedule, ref time.Time) (time.Time, error) {
	switch v := s.(type) {
	case Daily:
		return nextDaily(v, ref), nil
	case Weekly:
		return nextWeekly(v, ref), nil
	case Monthly:
		return nextMonthly(v, ref), nil
	default:
		return time.Time{}, ErrUnschedulable
	}
}

func nextDaily(d Daily, ref time.Time) time.Time {
	today := d.At().On(ref)
	if today.After(ref) {
		return today
	}
	return today.AddDate(0, 0, 1)
}

func nextWeekly(w Weekly, ref time.Time) time.Time {
	at := w.At()
	days := sortedWeekdays(w.Days)

	// No days selected: every 7 days from the reference date, same weekday.
	// Deliberately ignores whether the trigger time has passed today.
	if len(days) == 0 {
		return at.On(ref.AddDate(0, 0, 7))
	}

	selected := [7]bool{}
	for _, d := range days {
		selected[d] = true
	}

	for off := 0; off <= 6; off++ {
		day := ref.AddDate(0, 0, off)
		if !selected[WeekdayOf(day)] {
			continue
		}
		if cand := at.On(day); cand.After(ref) {
			return cand
		}
	}

	// Only reachable when the selection collapses to the reference weekday
	// with the trigger time already past: wrap to the earliest selected
	// weekday one week out.
	delta := (int(days[0]) - int(WeekdayOf(ref)) + 7) % 7
	return at.On(ref.AddDate(0, 0, 7+delta))
}

func nextMonthly(m Monthly, ref time.Time) time.Time {
	at := m.At()
	days := sortedMonthdays(m.Days)
	year, month, day := ref.Date()

	// No days selected: same day one month later, clamped to month length.
	if len(days) == 0 {
		return monthDay(year, month+1, day, at, ref.Location())
	}

	for _, d := range days {
		if cand := monthDay(year, month, d, at, ref.Location()); cand.After(ref) {
			return cand
		}
	}

	// Nothing left this month: earliest listed day of the following month.
	return monthDay(year, month+1, days[0], at, ref.Location())
}

// monthDay resolves a requested day-of-month within the given month,
// clamping to the month's last day. Month overflow (13) normalizes to
// January of the next year.
func monthDay(year int, month time.Month, day int, at TimeOfDay, loc *time.Location) time.Time {
	if last := daysIn(year, month); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, month, day, at.Hour, at.Minute, 0, 0, loc)
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
