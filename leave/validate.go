/*
validate.go - Ordered request validation with specific failure reasons

PURPOSE:
  Enforces every quota rule a new leave request must pass, in a fixed
  order. Each failing check aborts validation and surfaces its own
  error; nothing is silently coerced past this point. The single
  permitted auto-correction is day-count clamping, which carries an
  informational message instead of an error.

CHECK ORDER (later checks assume earlier invariants):
  1. Required fields: leave type, start date, positive day count
  2. Remaining balance, when known (unknown balance SKIPS this check,
     it never rejects)
  3. Per-type cap (leave type MaxDays, when set)
  4. Absolute single-request span cap (30 days)
  5. Start on a non-working day (sick-like types exempt)
  6. Emergency quotas: 12 days per calendar year, 3 per start month,
     counting existing pending+approved emergency days plus this
     request
  7. Overlap with any existing pending or approved request

  End-date derivation happens after check 5 because it requires a
  valid start; checks 6 and 7 use the derived end.

SEE ALSO:
  - errors.go: the error type per check
  - calendar/workdays.go: shared counting and preview
*/
package leave

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gaja-erp/leave-engine/calendar"
)

const (
	// MaxRequestSpanDays caps the day count of a single request.
	MaxRequestSpanDays = 30
	// EmergencyYearlyCapDays caps emergency leave per calendar year.
	EmergencyYearlyCapDays = 12
	// EmergencyMonthlyCapDays caps emergency leave per calendar month.
	EmergencyMonthlyCapDays = 3
)

// ValidationInput carries everything the validator needs. The history
// must be the canonical rows for the requesting employee; Remaining is
// nil when the balance could not be fetched (check 2 is then skipped).
type ValidationInput struct {
	Type          LeaveType
	Start         time.Time
	DaysRequested int
	Remaining     *decimal.Decimal
	History       []Request
	Holidays      calendar.HolidaySet
}

// ValidationResult is returned when every check passes.
type ValidationResult struct {
	End         time.Time
	CountedDays int
	Preview     calendar.RangePreview
}

// ValidateRequest runs the checks in order and returns the derived end
// date and range preview on success.
func ValidateRequest(in ValidationInput) (*ValidationResult, error) {
	// 1. Required fields.
	if !hasTypeRef(in.Type) || in.Start.IsZero() || in.DaysRequested <= 0 {
		return nil, ErrMissingFields
	}
	start := calendar.Midnight(in.Start)
	category := in.Type.Category()

	// 2. Remaining balance, when known.
	if in.Remaining != nil {
		requested := decimal.NewFromInt(int64(in.DaysRequested))
		if requested.GreaterThan(*in.Remaining) {
			return nil, &BalanceError{Requested: in.DaysRequested, Remaining: *in.Remaining}
		}
	}

	// 3. Per-type cap.
	if in.Type.MaxDays > 0 && in.DaysRequested > in.Type.MaxDays {
		return nil, &CapError{Requested: in.DaysRequested, Cap: in.Type.MaxDays, TypeCode: in.Type.Code}
	}

	// 4. Absolute span cap.
	if in.DaysRequested > MaxRequestSpanDays {
		return nil, &CapError{Requested: in.DaysRequested, Cap: MaxRequestSpanDays}
	}

	// 5. Non-working start day. Sick-like leave is exempt: it may begin
	// on an off-day because it consumes calendar days.
	if category != CategorySick && calendar.IsNonWorking(start, in.Holidays) {
		return nil, fmt.Errorf("%w: %s", ErrStartNonWorking, calendar.ToISO(start))
	}

	end := calendar.ComputeEndDate(start, in.DaysRequested, category == CategorySick, in.Holidays)

	// 6. Emergency quotas.
	if category == CategoryEmergency {
		if err := checkEmergencyQuotas(in, start); err != nil {
			return nil, err
		}
	}

	// 7. Overlap with existing open requests.
	for _, existing := range in.History {
		if !existing.Status.IsOpen() {
			continue
		}
		if !start.After(existing.End) && !end.Before(existing.Start) {
			return nil, &OverlapError{
				ExistingID:    existing.ID,
				ExistingStart: existing.Start,
				ExistingEnd:   existing.End,
				Status:        existing.Status,
			}
		}
	}

	return &ValidationResult{
		End:         end,
		CountedDays: in.DaysRequested,
		Preview:     calendar.Preview(start, end, category == CategorySick, in.Holidays),
	}, nil
}

// checkEmergencyQuotas enforces the yearly then monthly emergency
// caps. Existing usage counts pending and approved emergency days,
// clipped to the window under test.
func checkEmergencyQuotas(in ValidationInput, start time.Time) error {
	year := CalendarYearWindow(start.Year())
	usedThisYear := emergencyDaysWithin(in.History, year.Start, year.End, in.Holidays)
	if usedThisYear+in.DaysRequested > EmergencyYearlyCapDays {
		return &QuotaError{
			Scope:     QuotaYearly,
			Used:      usedThisYear,
			Requested: in.DaysRequested,
			Cap:       EmergencyYearlyCapDays,
		}
	}

	monthStart := calendar.StartOfMonth(start)
	monthEnd := calendar.EndOfMonth(start)
	usedThisMonth := emergencyDaysWithin(in.History, monthStart, monthEnd, in.Holidays)
	if usedThisMonth+in.DaysRequested > EmergencyMonthlyCapDays {
		return &QuotaError{
			Scope:     QuotaMonthly,
			Used:      usedThisMonth,
			Requested: in.DaysRequested,
			Cap:       EmergencyMonthlyCapDays,
		}
	}
	return nil
}

func emergencyDaysWithin(history []Request, from, to time.Time, holidays calendar.HolidaySet) int {
	total := 0
	for _, req := range history {
		if req.Category != CategoryEmergency || !req.Status.IsOpen() || !req.Overlaps(from, to) {
			continue
		}
		total += req.CountedDays(from, to, holidays)
	}
	return total
}

func hasTypeRef(lt LeaveType) bool {
	return lt.ID != "" || lt.Code != "" || lt.Name != ""
}

// =============================================================================
// DAY-COUNT CLAMPING - The one permitted auto-correction
// =============================================================================

// ClampDays reduces a requested day count to the maximum the leave
// type allows (its own cap, then the absolute span cap) and returns an
// informational message when a reduction happened. Used for live input
// feedback; the validator itself still rejects over-cap values.
func ClampDays(days int, lt LeaveType) (int, string) {
	max := MaxRequestSpanDays
	if lt.MaxDays > 0 && lt.MaxDays < max {
		max = lt.MaxDays
	}
	if days > max {
		return max, fmt.Sprintf("day count reduced to the maximum allowed (%d)", max)
	}
	return days, ""
}
