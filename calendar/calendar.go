// Package calendar provides the working-day arithmetic shared by the
// leave engine: ISO date normalization, the weekly off-day predicate,
// holiday-set membership, and the non-working-day predicate. Every
// consumer (ledger, validator, preview) goes through this package so
// displayed and recorded day counts can never diverge.
package calendar

import (
	"time"
)

// =============================================================================
// DATE NORMALIZATION
// =============================================================================

// ISOLayout is the canonical date format used across the engine.
const ISOLayout = "2006-01-02"

// WeeklyOffDay is the fixed non-working weekday for this business.
const WeeklyOffDay = time.Friday

// ToISO formats a date as YYYY-MM-DD using its local calendar fields.
// Formatting via local fields (not UTC conversion) avoids off-by-one
// shifts for dates created in non-UTC zones.
func ToISO(t time.Time) string {
	return t.Format(ISOLayout)
}

// Midnight truncates a time to the start of its calendar day, keeping
// the original location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StartOfMonth returns the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the last day of t's month.
func EndOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location()).AddDate(0, 0, -1)
}

// DaysIn returns the number of calendar days in t's month.
func DaysIn(t time.Time) int {
	return EndOfMonth(t).Day()
}

// DaysBetween returns the number of calendar days from a to b
// (exclusive of b). Negative if b is before a.
//
// The delta is computed over UTC-anchored date fields, not wall-clock
// subtraction: a DST transition day has 23 or 25 hours and dividing a
// local-time difference by 24 would drop or double-count it.
func DaysBetween(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}

// parseLayouts are tried in order when normalizing upstream dates.
// Upstream rows arrive as bare ISO dates, RFC3339 timestamps, or the
// occasional slash-separated export format.
var parseLayouts = []string{
	ISOLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02/01/2006",
}

// ParseDate parses an upstream date string into a local-calendar day.
// Returns the zero time and false when no known layout matches.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range parseLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Midnight(t), true
		}
	}
	return time.Time{}, false
}

// =============================================================================
// HOLIDAY SET
// =============================================================================

// HolidaySet is a set of holiday dates keyed by ISO date string.
// Membership tests are O(1). The set is always passed explicitly into
// calendar functions; nothing in this package reads ambient state.
type HolidaySet map[string]string

// NewHolidaySet builds a set from (date, name) pairs.
func NewHolidaySet() HolidaySet {
	return make(HolidaySet)
}

// Add registers a holiday. The name is kept for display purposes.
func (hs HolidaySet) Add(date time.Time, name string) {
	hs[ToISO(date)] = name
}

// AddAll merges another set additively. Existing entries are never
// removed, so a local override list can extend but not shrink the
// server-provided calendar.
func (hs HolidaySet) AddAll(other HolidaySet) {
	for iso, name := range other {
		if _, ok := hs[iso]; !ok {
			hs[iso] = name
		}
	}
}

// Contains reports whether the date is a registered holiday.
func (hs HolidaySet) Contains(date time.Time) bool {
	_, ok := hs[ToISO(date)]
	return ok
}

// Name returns the display name of the holiday on date, if any.
func (hs HolidaySet) Name(date time.Time) (string, bool) {
	name, ok := hs[ToISO(date)]
	return name, ok
}

// =============================================================================
// NON-WORKING PREDICATES
// =============================================================================

// IsWeeklyOff reports whether the date falls on the fixed weekly
// off-day.
func IsWeeklyOff(date time.Time) bool {
	return date.Weekday() == WeeklyOffDay
}

// IsHoliday reports whether the date is in the holiday set.
func IsHoliday(date time.Time, holidays HolidaySet) bool {
	return holidays.Contains(date)
}

// IsNonWorking reports whether the date is a non-working day: the
// weekly off-day or a registered holiday.
func IsNonWorking(date time.Time, holidays HolidaySet) bool {
	return IsWeeklyOff(date) || IsHoliday(date, holidays)
}
