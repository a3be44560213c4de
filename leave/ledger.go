/*
ledger.go - Month-by-month accrual and consumption ledger

PURPOSE:
  Reconstructs, from the canonical request history, the auditable
  monthly ledger: one row per calendar month from the employee's
  contract-start month through the current month, each carrying the
  month's accrual credit, the approved days consumed (clipped to the
  month), and the running balance.

RESET RULE:
  The balance is "use it or lose it" at each employment anniversary.
  The month containing the work anniversary (excluding the very first
  ledger row) gets a zero-value marker row noting the reset, and the
  running balance restarts from 0 before that month's normal row.

DEBIT RULES:
  - Only APPROVED requests consume days.
  - A request spanning a month boundary is clipped to each month.
  - Working-day counting applies, EXCEPT sick-like types which consume
    calendar days (see calendar/workdays.go).
  - The per-type breakdown text is derived from the same per-request
    counts as the debit total, never recomputed independently, so the
    audit text and the balance arithmetic cannot disagree.
  - A debit whose type cannot be labelled still counts toward the
    month's total, grouped under a catch-all key. Incomplete metadata
    must not corrupt balance arithmetic.

SEE ALSO:
  - entitlement.go: monthly credit, including mid-month tier splits
  - calendar/workdays.go: the shared day counting
*/
package leave

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gaja-erp/leave-engine/calendar"
)

// OtherTypeKey groups debits whose leave type cannot be resolved to a
// label.
const OtherTypeKey = "Other"

// monthLabelLayout renders ledger month labels, e.g. "Jun 2024".
const monthLabelLayout = "Jan 2006"

// BuildMonthlyLedger walks month by month from the contract-start
// month through the month containing now and produces the ordered
// ledger. The holiday set must already include any local overrides.
func BuildMonthlyLedger(emp Employee, history []Request, holidays calendar.HolidaySet, now time.Time) []LedgerEntry {
	if emp.ContractStart.IsZero() {
		return nil
	}

	cursor := calendar.StartOfMonth(emp.ContractStart)
	last := calendar.StartOfMonth(now)
	if cursor.After(last) {
		return nil
	}

	var entries []LedgerEntry
	balance := decimal.Zero
	first := true

	for !cursor.After(last) {
		if !first && isAnniversaryMonth(emp.ContractStart, cursor) {
			balance = decimal.Zero
			entries = append(entries, LedgerEntry{
				Month:   cursor,
				Label:   cursor.Format(monthLabelLayout),
				Credit:  decimal.Zero,
				Debit:   decimal.Zero,
				Balance: balance,
				Reset:   true,
				Details: fmt.Sprintf("balance reset on %d-year anniversary", cursor.Year()-emp.ContractStart.Year()),
			})
		}

		credit := emp.MonthlyCredit(cursor)
		debit, details := monthDebit(history, cursor, holidays)
		balance = balance.Add(credit).Sub(debit)

		entries = append(entries, LedgerEntry{
			Month:   cursor,
			Label:   cursor.Format(monthLabelLayout),
			Credit:  credit,
			Debit:   debit,
			Balance: balance,
			Details: details,
		})

		cursor = cursor.AddDate(0, 1, 0)
		first = false
	}
	return entries
}

// isAnniversaryMonth reports whether month (a first-of-month cursor)
// contains a work anniversary of contractStart.
func isAnniversaryMonth(contractStart, month time.Time) bool {
	return month.Month() == contractStart.Month() && month.Year() > contractStart.Year()
}

// monthDebit sums the approved days consumed within the month and
// renders the per-type breakdown from the same counts.
func monthDebit(history []Request, monthStart time.Time, holidays calendar.HolidaySet) (decimal.Decimal, string) {
	monthEnd := calendar.EndOfMonth(monthStart)

	total := 0
	perType := make(map[string]int)

	for _, req := range history {
		if req.Status != StatusApproved || !req.Overlaps(monthStart, monthEnd) {
			continue
		}
		days := req.CountedDays(monthStart, monthEnd, holidays)
		if days == 0 {
			continue
		}
		total += days
		perType[typeLabel(req)] += days
	}

	if total == 0 {
		return decimal.Zero, ""
	}
	return decimal.NewFromInt(int64(total)), breakdownText(perType)
}

func typeLabel(req Request) string {
	switch {
	case req.TypeCode != "":
		return req.TypeCode
	case req.TypeName != "":
		return req.TypeName
	default:
		return OtherTypeKey
	}
}

func breakdownText(perType map[string]int) string {
	labels := make([]string, 0, len(perType))
	for label := range perType {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, fmt.Sprintf("%s: %d", label, perType[label]))
	}
	return strings.Join(parts, ", ")
}

// =============================================================================
// BALANCE SUMMARY
// =============================================================================

// Summarize derives the employee's balance summary from the same
// ledger computation: entitlement at now, approved days consumed in
// the current anniversary-anchored working year, and the ledger's
// final running balance.
func Summarize(emp Employee, history []Request, holidays calendar.HolidaySet, now time.Time) BalanceSummary {
	summary := BalanceSummary{
		Entitlement: emp.AnnualEntitlement(now),
		Used:        decimal.Zero,
		Remaining:   decimal.Zero,
		History:     history,
	}
	if emp.ContractStart.IsZero() {
		return summary
	}

	window := AnniversaryYearWindow(emp.ContractStart, now)
	used := 0
	for _, req := range history {
		if req.Status != StatusApproved || !req.Overlaps(window.Start, window.End) {
			continue
		}
		used += req.CountedDays(window.Start, window.End, holidays)
	}
	summary.Used = decimal.NewFromInt(int64(used))

	ledger := BuildMonthlyLedger(emp, history, holidays, now)
	if len(ledger) > 0 {
		summary.Remaining = ledger[len(ledger)-1].Balance
	}
	return summary
}
