/*
workdays.go - Working-day counting and end-date derivation

PURPOSE:
  Implements the one shared day-counting routine used by the monthly
  ledger, the request validator, and the live preview. Keeping a single
  implementation is load-bearing: if the preview counted days one way
  and the ledger another, displayed and recorded balances would drift.

COUNTING MODES:
  Working days (default):
    Inclusive of both endpoints, excluding the weekly off-day and any
    registered holiday. A two-week span with one off-day and one
    holiday inside it counts as 9 days.

  Calendar days (sick-like leave):
    Sick leave consumption is defined in calendar days, so non-working
    days are NOT excluded. The same (start, requested days) pair
    therefore produces a DIFFERENT end date for sick leave than for
    annual leave. Callers select the mode via the leave type category;
    this distinction must not be generalized away.

BOUNDS:
  All loops are bounded to MaxRangeDays iterations. A single request is
  capped far below this by the validator (30 days), so the bound only
  guards against malformed historical ranges.

SEE ALSO:
  - calendar.go: the non-working predicates used here
  - leave/validate.go: span cap enforcement
  - leave/ledger.go: per-month debit computation
*/
package calendar

import "time"

// MaxRangeDays bounds every day-walking loop. Ranges longer than this
// are truncated rather than iterated forever.
const MaxRangeDays = 400

// CountWorkingDays returns the inclusive number of working days in
// [start, end], excluding weekly off-days and holidays. Returns 0 when
// end precedes start.
func CountWorkingDays(start, end time.Time, holidays HolidaySet) int {
	start, end = Midnight(start), Midnight(end)
	if end.Before(start) {
		return 0
	}

	count := 0
	day := start
	for i := 0; i < MaxRangeDays && !day.After(end); i++ {
		if !IsNonWorking(day, holidays) {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

// CountCalendarDays returns the inclusive calendar-day count of
// [start, end]. Used for sick-like leave, which consumes non-working
// days too.
func CountCalendarDays(start, end time.Time) int {
	start, end = Midnight(start), Midnight(end)
	if end.Before(start) {
		return 0
	}
	return DaysBetween(start, end) + 1
}

// CountDays selects the counting mode: calendar days when
// calendarCounted is true (sick-like types), working days otherwise.
func CountDays(start, end time.Time, calendarCounted bool, holidays HolidaySet) int {
	if calendarCounted {
		return CountCalendarDays(start, end)
	}
	return CountWorkingDays(start, end, holidays)
}

// ComputeEndDate derives the inclusive end date of a request.
//
// Calendar-counted (sick-like): end = start + (days - 1).
//
// Working-day counted: advance one day at a time, counting only
// working days, until the requested count is satisfied; the day that
// satisfies it is the end date.
func ComputeEndDate(start time.Time, days int, calendarCounted bool, holidays HolidaySet) time.Time {
	start = Midnight(start)
	if days <= 0 {
		return start
	}
	if calendarCounted {
		return start.AddDate(0, 0, days-1)
	}

	counted := 0
	day := start
	for i := 0; i < MaxRangeDays; i++ {
		if !IsNonWorking(day, holidays) {
			counted++
			if counted == days {
				return day
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// =============================================================================
// RANGE PREVIEW
// =============================================================================

// ExclusionReason labels why a day inside a previewed range does not
// count.
type ExclusionReason string

const (
	ExcludedWeeklyOff ExclusionReason = "weekly_off"
	ExcludedHoliday   ExclusionReason = "holiday"
)

// ExcludedDay is one non-working day inside a previewed range.
type ExcludedDay struct {
	Date    time.Time
	Reason  ExclusionReason
	Holiday string // display name when Reason is ExcludedHoliday
}

// RangePreview is the live-feedback view of a date range: the day
// count that will actually be recorded plus every excluded date.
type RangePreview struct {
	Start        time.Time
	End          time.Time
	CalendarDays int
	CountedDays  int
	Excluded     []ExcludedDay
}

// Preview walks [start, end] with the same predicates the counter
// uses. For calendar-counted ranges no days are excluded, but the
// off-day/holiday annotations are still reported for display.
func Preview(start, end time.Time, calendarCounted bool, holidays HolidaySet) RangePreview {
	start, end = Midnight(start), Midnight(end)
	p := RangePreview{Start: start, End: end}
	if end.Before(start) {
		return p
	}

	day := start
	for i := 0; i < MaxRangeDays && !day.After(end); i++ {
		p.CalendarDays++
		switch {
		case IsWeeklyOff(day):
			p.Excluded = append(p.Excluded, ExcludedDay{Date: day, Reason: ExcludedWeeklyOff})
		case IsHoliday(day, holidays):
			name, _ := holidays.Name(day)
			p.Excluded = append(p.Excluded, ExcludedDay{Date: day, Reason: ExcludedHoliday, Holiday: name})
		}
		day = day.AddDate(0, 0, 1)
	}

	if calendarCounted {
		p.CountedDays = p.CalendarDays
	} else {
		p.CountedDays = p.CalendarDays - len(p.Excluded)
	}
	return p
}
