package domain

import "time"

// WeeklyWindow is one recurring working-hours window on a single weekday,
// expressed as minutes from midnight. Windows never cross midnight; late-night
// coverage is represented with two windows.
type WeeklyWindow struct {
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
}

// BusinessCalendar holds an organization's recurring working-hours windows
// plus full-day holiday exceptions. The engine treats it as an immutable
// snapshot for the duration of a computation.
type BusinessCalendar struct {
	ID             string
	OrganizationID string
	Name           string
	Windows        []WeeklyWindow
	Holidays       []time.Time
}

// HasWindows reports whether the calendar defines any working time at all.
func (c BusinessCalendar) HasWindows() bool {
	return len(c.Windows) > 0
}

// IsHoliday reports whether the instant falls on a configured holiday date.
// Comparison is by UTC calendar date; holidays carry no time component.
func (c BusinessCalendar) IsHoliday(t time.Time) bool {
	y, m, d := t.UTC().Date()
	for _, h := range c.Holidays {
		hy, hm, hd := h.UTC().Date()
		if y == hy && m == hm && d == hd {
			return true
		}
	}
	return false
}

// WindowsOn returns the windows configured for the given weekday.
func (c BusinessCalendar) WindowsOn(day time.Weekday) []WeeklyWindow {
	var out []WeeklyWindow
	for _, w := range c.Windows {
		if w.Weekday == day {
			out = append(out, w)
		}
	}
	return out
}
