package leave

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gaja-erp/leave-engine/calendar"
)

// =============================================================================
// ENTITLEMENT MODEL - Two-tier annual entitlement with monthly accrual
// =============================================================================

const (
	// BaseAnnualDays is the annual entitlement before seniority.
	BaseAnnualDays = 30
	// SeniorAnnualDays is the annual entitlement once senior.
	SeniorAnnualDays = 45

	// SeniorAgeYears is the age threshold for the senior tier.
	SeniorAgeYears = 50
	// SeniorTenureYears is the tenure threshold for the senior tier.
	SeniorTenureYears = 20
)

var monthsPerYear = decimal.NewFromInt(12)

// Turns50On returns the date the employee reaches the senior age
// threshold, or the zero time when the birth date is unknown.
func (e Employee) Turns50On() time.Time {
	if e.BirthDate.IsZero() {
		return time.Time{}
	}
	return calendar.Midnight(e.BirthDate).AddDate(SeniorAgeYears, 0, 0)
}

// Reaches20YearsOn returns the date the employee reaches the senior
// tenure threshold.
func (e Employee) Reaches20YearsOn() time.Time {
	return calendar.Midnight(e.ContractStart).AddDate(SeniorTenureYears, 0, 0)
}

// SeniorityDate returns the date the senior tier takes effect: the
// earlier of the age and tenure thresholds. This anchor is what the
// monthly accrual switches on.
func (e Employee) SeniorityDate() time.Time {
	age := e.Turns50On()
	tenure := e.Reaches20YearsOn()
	if age.IsZero() || tenure.Before(age) {
		return tenure
	}
	return age
}

// IsSenior reports whether the employee is in the senior tier at asOf.
// Monotonic: once true it never reverts for the same employee.
func (e Employee) IsSenior(asOf time.Time) bool {
	return !calendar.Midnight(asOf).Before(e.SeniorityDate())
}

// AnnualEntitlement returns the annual entitlement in days at asOf.
func (e Employee) AnnualEntitlement(asOf time.Time) int {
	if e.IsSenior(asOf) {
		return SeniorAnnualDays
	}
	return BaseAnnualDays
}

// MonthlyRate returns the per-month accrual for an annual entitlement:
// 2.5 at 30 days, 3.75 at 45.
func MonthlyRate(annualDays int) decimal.Decimal {
	return decimal.NewFromInt(int64(annualDays)).Div(monthsPerYear)
}

// MonthlyCredit returns the accrual credited for the calendar month
// containing monthStart.
//
// Months entirely before the seniority date credit 30/12, months
// entirely after credit 45/12. When the seniority date falls inside
// the month the credit is split as an explicit two-segment
// elapsed-day calculation: days before the threshold at the old rate,
// days from the threshold onward at the new rate, each weighted by its
// share of the month's calendar days.
func (e Employee) MonthlyCredit(monthStart time.Time) decimal.Decimal {
	monthStart = calendar.StartOfMonth(monthStart)
	monthEnd := calendar.EndOfMonth(monthStart)
	threshold := e.SeniorityDate()

	switch {
	case threshold.After(monthEnd):
		return MonthlyRate(BaseAnnualDays)
	case !threshold.After(monthStart):
		return MonthlyRate(SeniorAnnualDays)
	}

	daysInMonth := decimal.NewFromInt(int64(calendar.DaysIn(monthStart)))
	daysBefore := decimal.NewFromInt(int64(calendar.DaysBetween(monthStart, threshold)))
	daysFrom := daysInMonth.Sub(daysBefore)

	oldPart := MonthlyRate(BaseAnnualDays).Mul(daysBefore).Div(daysInMonth)
	newPart := MonthlyRate(SeniorAnnualDays).Mul(daysFrom).Div(daysInMonth)
	return oldPart.Add(newPart)
}
