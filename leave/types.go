// Package leave implements the leave accrual and balance ledger
// engine: entitlement tiers, the month-by-month accounting ledger,
// request validation, and the live leave trackers. Every function is a
// pure computation over already-fetched data; the package holds no
// server-authoritative state.
package leave

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gaja-erp/leave-engine/calendar"
)

// =============================================================================
// REQUEST STATUS - Small closed state machine
// =============================================================================

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// CanTransition reports whether the status machine allows from -> to.
// pending may be approved, rejected, or cancelled; approved may only
// be cancelled. Terminal states have no outgoing transitions.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected || to == StatusCancelled
	case StatusApproved:
		return to == StatusCancelled
	default:
		return false
	}
}

// IsOpen reports whether the status still reserves days against the
// schedule (overlap and quota checks consider these).
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusApproved
}

// =============================================================================
// LEAVE TYPE - Code, cap, and counting category
// =============================================================================

// Category changes day-counting and quota behavior for a leave type.
type Category string

const (
	// CategoryStandard types consume working days only.
	CategoryStandard Category = "standard"
	// CategorySick types consume calendar days and are exempt from the
	// non-working start-day restriction.
	CategorySick Category = "sick"
	// CategoryEmergency types are working-day counted but subject to
	// yearly and monthly quota caps.
	CategoryEmergency Category = "emergency"
)

type LeaveType struct {
	ID      string
	Code    string // short mnemonic, e.g. "SL", "EL"
	Name    string
	MaxDays int // per-request cap; 0 means unlimited
}

// Category derives the counting/quota category from the type's code
// and display name. Upstream data carries no explicit category field,
// so classification is by mnemonic and name substring.
func (lt LeaveType) Category() Category {
	code := strings.ToUpper(strings.TrimSpace(lt.Code))
	name := strings.ToLower(lt.Name)
	switch {
	case code == "SL" || strings.Contains(name, "sick"):
		return CategorySick
	case code == "EL" || strings.Contains(name, "emergenc"):
		return CategoryEmergency
	default:
		return CategoryStandard
	}
}

// CalendarCounted reports whether this type consumes calendar days
// rather than working days.
func (lt LeaveType) CalendarCounted() bool {
	return lt.Category() == CategorySick
}

// =============================================================================
// EMPLOYEE
// =============================================================================

type Employee struct {
	ID            string
	Name          string
	BirthDate     time.Time // zero when unknown
	ContractStart time.Time
}

// =============================================================================
// HOLIDAY
// =============================================================================

// Holiday is one holiday-calendar entry. Local entries come from the
// client-side override list and merge additively into the server set.
type Holiday struct {
	ID    string
	Date  time.Time
	Name  string
	Local bool
}

// HolidaySetOf builds the O(1) membership set from a merged holiday
// list.
func HolidaySetOf(holidays []Holiday) calendar.HolidaySet {
	set := calendar.NewHolidaySet()
	for _, h := range holidays {
		set.Add(h.Date, h.Name)
	}
	return set
}

// =============================================================================
// CANONICAL LEAVE REQUEST
// =============================================================================

// Request is the canonical request shape every engine function depends
// on. Raw upstream rows are converted by the normalizer; nothing
// downstream branches on raw field presence.
type Request struct {
	ID           string
	EmployeeID   string
	EmployeeName string
	TypeID       string
	TypeCode     string
	TypeName     string
	Category     Category
	Start        time.Time
	End          time.Time
	Days         int
	Status       Status
}

// Overlaps reports whether the request's inclusive date range
// intersects [start, end].
func (r Request) Overlaps(start, end time.Time) bool {
	return !r.Start.After(end) && !r.End.Before(start)
}

// CountedDays returns the request's day consumption within
// [from, to], clipped to those bounds, using the counting mode of its
// category.
func (r Request) CountedDays(from, to time.Time, holidays calendar.HolidaySet) int {
	start, end := r.Start, r.End
	if start.Before(from) {
		start = from
	}
	if end.After(to) {
		end = to
	}
	return calendar.CountDays(start, end, r.Category == CategorySick, holidays)
}

// =============================================================================
// MONTHLY LEDGER ENTRY
// =============================================================================

// LedgerEntry is one row of the month-by-month accounting ledger.
type LedgerEntry struct {
	Month   time.Time // first day of the month
	Label   string    // e.g. "Jun 2024"
	Credit  decimal.Decimal
	Debit   decimal.Decimal
	Balance decimal.Decimal
	Reset   bool   // anniversary reset marker row
	Details string // per-type day breakdown, e.g. "AL: 3, SL: 2"
}

// =============================================================================
// YEAR WINDOWS - Two distinct anchors, never conflated
// =============================================================================

// WindowAnchor tags which boundary a YearWindow is anchored at.
type WindowAnchor string

const (
	// AnchorCalendar windows run Jan 1 .. Dec 31 and are used for
	// reporting and the emergency-leave yearly quota.
	AnchorCalendar WindowAnchor = "calendar"
	// AnchorAnniversary windows run contract-anniversary to the day
	// before the next one and drive accrual bookkeeping and the
	// balance reset.
	AnchorAnniversary WindowAnchor = "anniversary"
)

// YearWindow is a 12-month [Start, End] value object. The anchor tag
// exists so accrual code cannot accidentally receive a reporting
// window or vice versa.
type YearWindow struct {
	Start  time.Time
	End    time.Time
	Anchor WindowAnchor
}

// CalendarYearWindow returns the Jan 1 .. Dec 31 window for year.
func CalendarYearWindow(year int) YearWindow {
	return YearWindow{
		Start:  time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local),
		End:    time.Date(year, time.December, 31, 0, 0, 0, 0, time.Local),
		Anchor: AnchorCalendar,
	}
}

// AnniversaryYearWindow returns the contract-anniversary window
// containing at: it starts on the most recent anniversary of
// contractStart on or before at and ends the day before the next one.
func AnniversaryYearWindow(contractStart, at time.Time) YearWindow {
	contractStart = calendar.Midnight(contractStart)
	at = calendar.Midnight(at)

	years := at.Year() - contractStart.Year()
	start := contractStart.AddDate(years, 0, 0)
	if start.After(at) {
		start = contractStart.AddDate(years-1, 0, 0)
	}
	return YearWindow{
		Start:  start,
		End:    start.AddDate(1, 0, 0).AddDate(0, 0, -1),
		Anchor: AnchorAnniversary,
	}
}

// Contains reports whether t falls inside the window (inclusive).
func (w YearWindow) Contains(t time.Time) bool {
	t = calendar.Midnight(t)
	return !t.Before(w.Start) && !t.After(w.End)
}

// =============================================================================
// BALANCE SUMMARY
// =============================================================================

// BalanceSummary is the engine's answer to "where does this employee
// stand": annual entitlement, days consumed this anniversary year, and
// the running remainder from the monthly ledger.
type BalanceSummary struct {
	Entitlement int
	Used        decimal.Decimal
	Remaining   decimal.Decimal
	History     []Request
}
