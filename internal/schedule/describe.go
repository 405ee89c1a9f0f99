package schedule

import (
	"strconv"
	"strings"
)

// Describe renders a schedule as a short human-readable phrase, e.g.
// "Every Monday, Wednesday at 9:00 AM" or "Monthly on the 1st, 15th at 6:30 PM".
func Describe(s Schedule) string {
	switch v := s.(type) {
	case Daily:
		return "Daily at " + v.At().Clock12()

	case Weekly:
		days := sortedWeekdays(v.Days)
		if len(days) == 0 {
			return "Weekly (no days selected)"
		}
		names := make([]string, len(days))
		for i, d := range days {
			names[i] = d.String()
		}
		return "Every " + strings.Join(names, ", ") + " at " + v.At().Clock12()

	case Monthly:
		days := sortedMonthdays(v.Days)
		if len(days) == 0 {
			return "Monthly (no days selected)"
		}
		ords := make([]string, len(days))
		for i, d := range days {
			ords[i] = Ordinal(d)
		}
		return "Monthly on the " + strings.Join(ords, ", ") + " at " + v.At().Clock12()

	default:
		return "Unscheduled"
	}
}

// Ordinal attaches the English ordinal suffix: 1st, 2nd, 3rd, 4th, ...
// The 11-13 range always takes "th" (11th, 112th), and the st/nd/rd
// pattern repeats per decade (21st, 101st).
func Ordinal(n int) string {
	s := strconv.Itoa(n)
	switch n % 100 {
	case 11, 12, 13:
		return s + "th"
	}
	switch n % 10 {
	case 1:
		return s + "st"
	case 2:
		return s + "nd"
	case 3:
		return s + "rd"
	default:
		return s + "th"
	}
}
