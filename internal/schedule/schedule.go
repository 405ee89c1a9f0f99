// Package schedule implements the recurrence model for reminders: a small
// sum type (Daily / Weekly / Monthly), the next-trigger calculator, and the
// human-readable description formatter.
//
// All calculations are pure and operate in the location of the reference
// instant; the caller decides the timezone.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind tags a schedule variant as stored in the database.
type Kind string

const (
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

// ParseKind validates a raw schedule type string.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindDaily:
		return KindDaily, nil
	case KindWeekly:
		return KindWeekly, nil
	case KindMonthly:
		return KindMonthly, nil
	default:
		return "", fmt.Errorf("unknown schedule kind %q", raw)
	}
}

// TimeOfDay is a wall-clock trigger time (hour + minute).
type TimeOfDay struct {
	Hour   int
	Minute int
}

// DefaultTime is used when a schedule has no explicit trigger time.
var DefaultTime = TimeOfDay{Hour: 9, Minute: 0}

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

// String renders the 24h form used in config and storage.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Clock12 renders the 12h form used in schedule descriptions, e.g. "9:00 AM".
func (t TimeOfDay) Clock12() string {
	h := t.Hour % 12
	if h == 0 {
		h = 12
	}
	ampm := "AM"
	if t.Hour >= 12 {
		ampm = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", h, t.Minute, ampm)
}

// On places the time of day on the given date, keeping its location.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// Weekday indexes days Monday-first: 0=Monday .. 6=Sunday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

func (d Weekday) String() string {
	if !d.Valid() {
		return "Weekday(" + strconv.Itoa(int(d)) + ")"
	}
	return weekdayNames[d]
}

// WeekdayOf converts stdlib Sunday-first weekdays to the Monday-first index.
func WeekdayOf(day time.Time) Weekday {
	return Weekday((int(day.Weekday()) + 6) % 7)
}

// Schedule is the recurrence configuration. It is a closed set:
// Daily, Weekly or Monthly. Day selections only exist on the variants
// where they mean something.
type Schedule interface {
	Kind() Kind

	// At resolves the effective trigger time (DefaultTime when unset).
	At() TimeOfDay

	sealed()
}

// Daily fires every day at the trigger time.
type Daily struct {
	Time *TimeOfDay
}

// Weekly fires on the selected weekdays at the trigger time.
// An empty selection means "every 7 days from the reference date".
type Weekly struct {
	Time *TimeOfDay
	Days []Weekday
}

// Monthly fires on the selected days of the month at the trigger time.
// An empty selection means "same day, one month later". Days beyond the
// length of the target month clamp to its last day.
type Monthly struct {
	Time *TimeOfDay
	Days []int
}

func (Daily) Kind() Kind   { return KindDaily }
func (Weekly) Kind() Kind  { return KindWeekly }
func (Monthly) Kind() Kind { return KindMonthly }

func (d Daily) At() TimeOfDay   { return orDefault(d.Time) }
func (w Weekly) At() TimeOfDay  { return orDefault(w.Time) }
func (m Monthly) At() TimeOfDay { return orDefault(m.Time) }

func (Daily) sealed()   {}
func (Weekly) sealed()  {}
func (Monthly) sealed() {}

func orDefault(t *TimeOfDay) TimeOfDay {
	if t == nil {
		return DefaultTime
	}
	return *t
}

// sortedWeekdays returns the selection in ascending order without duplicates.
func sortedWeekdays(days []Weekday) []Weekday {
	out := make([]Weekday, 0, len(days))
	seen := [7]bool{}
	for _, d := range days {
		if d.Valid() && !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// sortedMonthdays returns the selection in ascending order without duplicates.
func sortedMonthdays(days []int) []int {
	out := make([]int, 0, len(days))
	seen := map[int]bool{}
	for _, d := range days {
		if d >= 1 && d <= 31 && !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out
}
