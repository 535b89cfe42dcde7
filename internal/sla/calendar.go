package sla

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// ErrNoBusinessHours signals a business-hours computation against a calendar
// with no weekly windows. The caller must surface it, never silently fall back
// to wall-clock arithmetic.
var ErrNoBusinessHours = errors.New("business calendar has no working-hours windows")

// walkHorizonDays bounds the forward walk so a calendar whose every working
// day is a holiday cannot loop forever.
const walkHorizonDays = 3700

// AddWallClockDuration returns start advanced by the given number of hours
// using plain instant arithmetic. Used when a policy ignores business hours.
func AddWallClockDuration(start time.Time, hours float64) time.Time {
	return start.Add(time.Duration(hours * float64(time.Hour)))
}

// AddBusinessDuration walks forward from start consuming only minutes that
// fall inside one of the calendar's weekly windows and not on a holiday,
// until hours*60 business minutes are spent. A start outside any window waits
// for the next window's open. A zero budget returns start unchanged.
func AddBusinessDuration(start time.Time, hours float64, cal domain.BusinessCalendar) (time.Time, error) {
	if !cal.HasWindows() {
		return time.Time{}, ErrNoBusinessHours
	}
	if hours <= 0 {
		return start, nil
	}

	cursor := start.UTC()
	remaining := hours * 60 // budget in business minutes

	for day := 0; day < walkHorizonDays; day++ {
		if !cal.IsHoliday(cursor) {
			for _, w := range sortedWindows(cal.WindowsOn(cursor.Weekday())) {
				open, close := windowBounds(cursor, w)
				if !close.After(cursor) {
					continue
				}
				at := cursor
				if at.Before(open) {
					at = open
				}
				available := close.Sub(at).Minutes()
				if available >= remaining {
					return at.Add(minutesDuration(remaining)), nil
				}
				remaining -= available
				cursor = close
			}
		}
		cursor = nextMidnight(cursor)
	}

	return time.Time{}, fmt.Errorf("no business time within %d days of %s: %w",
		walkHorizonDays, start.UTC().Format(time.RFC3339), ErrNoBusinessHours)
}

// BusinessMinutesBetween sums the business minutes the calendar contains in
// [from, to]. Returns 0 when the interval is empty or inverted.
func BusinessMinutesBetween(from, to time.Time, cal domain.BusinessCalendar) float64 {
	from, to = from.UTC(), to.UTC()
	if !to.After(from) || !cal.HasWindows() {
		return 0
	}

	var total float64
	cursor := from
	for day := 0; day < walkHorizonDays && cursor.Before(to); day++ {
		if !cal.IsHoliday(cursor) {
			for _, w := range cal.WindowsOn(cursor.Weekday()) {
				open, close := windowBounds(cursor, w)
				lo, hi := open, close
				if lo.Before(cursor) {
					lo = cursor
				}
				if hi.After(to) {
					hi = to
				}
				if hi.After(lo) {
					total += hi.Sub(lo).Minutes()
				}
			}
		}
		cursor = nextMidnight(cursor)
	}
	return total
}

// InBusinessHours reports whether the instant lies inside a working window
// and not on a holiday.
func InBusinessHours(t time.Time, cal domain.BusinessCalendar) bool {
	t = t.UTC()
	if cal.IsHoliday(t) {
		return false
	}
	for _, w := range cal.WindowsOn(t.Weekday()) {
		open, close := windowBounds(t, w)
		if !t.Before(open) && t.Before(close) {
			return true
		}
	}
	return false
}

// windowBounds maps a weekly window onto the UTC calendar date of ref.
func windowBounds(ref time.Time, w domain.WeeklyWindow) (time.Time, time.Time) {
	y, m, d := ref.UTC().Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return midnight.Add(minutesDuration(float64(w.StartMinute))),
		midnight.Add(minutesDuration(float64(w.EndMinute)))
}

func nextMidnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

func sortedWindows(windows []domain.WeeklyWindow) []domain.WeeklyWindow {
	out := append([]domain.WeeklyWindow{}, windows...)
	sort.Slice(out, func(i, j int) bool { return out[i].StartMinute < out[j].StartMinute })
	return out
}

func minutesDuration(minutes float64) time.Duration {
	return time.Duration(minutes * float64(time.Minute))
}
