package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaja-erp/leave-engine/calendar"
	"github.com/gaja-erp/leave-engine/leave"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func approved(id string, typeCode string, category leave.Category, start, end time.Time, days int) leave.Request {
	return leave.Request{
		ID:         id,
		EmployeeID: "emp-1",
		TypeCode:   typeCode,
		Category:   category,
		Start:      start,
		End:        end,
		Days:       days,
		Status:     leave.StatusApproved,
	}
}

func holidaysWithEid() calendar.HolidaySet {
	set := calendar.NewHolidaySet()
	set.Add(date(2024, time.June, 10), "Eid al-Adha")
	return set
}

func findEntry(t *testing.T, entries []leave.LedgerEntry, label string, reset bool) leave.LedgerEntry {
	t.Helper()
	for _, e := range entries {
		if e.Label == label && e.Reset == reset {
			return e
		}
	}
	t.Fatalf("no ledger entry %q (reset=%v)", label, reset)
	return leave.LedgerEntry{}
}

// =============================================================================
// LEDGER STRUCTURE
// =============================================================================

func TestLedger_RunsFromContractMonthToNow(t *testing.T) {
	emp := leave.Employee{ID: "emp-1", ContractStart: date(2023, time.October, 15)}
	entries := leave.BuildMonthlyLedger(emp, nil, calendar.NewHolidaySet(), date(2024, time.February, 20))

	// Oct..Feb = 5 months, no anniversary yet.
	require.Len(t, entries, 5)
	assert.Equal(t, "Oct 2023", entries[0].Label)
	assert.Equal(t, "Feb 2024", entries[4].Label)
	for _, e := range entries {
		assert.False(t, e.Reset)
	}
}

func TestLedger_CreditAccumulatesMonthly(t *testing.T) {
	emp := leave.Employee{ID: "emp-1", ContractStart: date(2023, time.October, 1)}
	entries := leave.BuildMonthlyLedger(emp, nil, calendar.NewHolidaySet(), date(2023, time.December, 31))

	require.Len(t, entries, 3)
	assert.True(t, entries[0].Balance.Equal(dec("2.5")))
	assert.True(t, entries[1].Balance.Equal(dec("5")))
	assert.True(t, entries[2].Balance.Equal(dec("7.5")))
}

func TestLedger_AnniversaryInsertsResetMarkerAndZeroesBalance(t *testing.T) {
	// GIVEN: Contract start March 2023, walking through March 2024
	// THEN: A reset marker row precedes March 2024's normal row, and
	//       the balance restarts from zero

	emp := leave.Employee{ID: "emp-1", ContractStart: date(2023, time.March, 10)}
	entries := leave.BuildMonthlyLedger(emp, nil, calendar.NewHolidaySet(), date(2024, time.April, 15))

	marker := findEntry(t, entries, "Mar 2024", true)
	assert.True(t, marker.Credit.IsZero())
	assert.True(t, marker.Debit.IsZero())
	assert.True(t, marker.Balance.IsZero())

	march := findEntry(t, entries, "Mar 2024", false)
	assert.True(t, march.Balance.Equal(dec("2.5")),
		"balance resumes accumulating from zero after the reset")
	april := findEntry(t, entries, "Apr 2024", false)
	assert.True(t, april.Balance.Equal(dec("5")))
}

func TestLedger_FirstMonthIsNotReset(t *testing.T) {
	emp := leave.Employee{ID: "emp-1", ContractStart: date(2023, time.March, 10)}
	entries := leave.BuildMonthlyLedger(emp, nil, calendar.NewHolidaySet(), date(2023, time.June, 1))

	require.NotEmpty(t, entries)
	assert.Equal(t, "Mar 2023", entries[0].Label)
	assert.False(t, entries[0].Reset)
}

// =============================================================================
// DEBITS
// =============================================================================

func TestLedger_DebitExcludesOffDaysAndHolidays(t *testing.T) {
	// GIVEN: A 2-week approved leave June 3-14 2024 with one Friday
	//        pair and the June 10 holiday inside
	// THEN: June's debit is 9 working days

	emp := leave.Employee{ID: "emp-1", ContractStart: date(2024, time.January, 1)}
	history := []leave.Request{
		approved("req-1", "AL", leave.CategoryStandard,
			date(2024, time.June, 3), date(2024, time.June, 14), 9),
	}

	entries := leave.BuildMonthlyLedger(emp, history, holidaysWithEid(), date(2024, time.June, 30))
	june := findEntry(t, entries, "Jun 2024", false)

	assert.True(t, june.Debit.Equal(dec("9")), "got %s", june.Debit)
	assert.Equal(t, "AL: 9", june.Details)
}

func TestLedger_SickDebitCountsCalendarDays(t *testing.T) {
	// GIVEN: Sick leave June 7-11 (contains the Friday and the holiday)
	// THEN: Debit is 5 calendar days, nothing excluded

	emp := leave.Employee{ID: "emp-1", ContractStart: date(2024, time.January, 1)}
	history := []leave.Request{
		approved("req-1", "SL", leave.CategorySick,
			date(2024, time.June, 7), date(2024, time.June, 11), 5),
	}

	entries := leave.BuildMonthlyLedger(emp, history, holidaysWithEid(), date(2024, time.June, 30))
	june := findEntry(t, entries, "Jun 2024", false)

	assert.True(t, june.Debit.Equal(dec("5")), "got %s", june.Debit)
	assert.Equal(t, "SL: 5", june.Details)
}

func TestLedger_RequestSpanningMonthsIsClippedPerMonth(t *testing.T) {
	// GIVEN: Approved leave June 27 - July 3 2024 (Fridays June 28 and
	//        July 5 are off; only June 28 falls inside the range)
	// THEN: June gets its clipped share, July the rest

	emp := leave.Employee{ID: "emp-1", ContractStart: date(2024, time.January, 1)}
	history := []leave.Request{
		approved("req-1", "AL", leave.CategoryStandard,
			date(2024, time.June, 27), date(2024, time.July, 3), 6),
	}

	entries := leave.BuildMonthlyLedger(emp, history, calendar.NewHolidaySet(), date(2024, time.July, 31))
	june := findEntry(t, entries, "Jun 2024", false)
	july := findEntry(t, entries, "Jul 2024", false)

	// June 27..30 minus Friday June 28 = 3; July 1..3 = 3.
	assert.True(t, june.Debit.Equal(dec("3")), "june got %s", june.Debit)
	assert.True(t, july.Debit.Equal(dec("3")), "july got %s", july.Debit)
}

func TestLedger_PendingAndRejectedDoNotDebit(t *testing.T) {
	emp := leave.Employee{ID: "emp-1", ContractStart: date(2024, time.January, 1)}
	pending := approved("req-1", "AL", leave.CategoryStandard,
		date(2024, time.June, 3), date(2024, time.June, 4), 2)
	pending.Status = leave.StatusPending
	rejected := approved("req-2", "AL", leave.CategoryStandard,
		date(2024, time.June, 5), date(2024, time.June, 6), 2)
	rejected.Status = leave.StatusRejected

	entries := leave.BuildMonthlyLedger(emp, []leave.Request{pending, rejected},
		calendar.NewHolidaySet(), date(2024, time.June, 30))
	june := findEntry(t, entries, "Jun 2024", false)
	assert.True(t, june.Debit.IsZero())
	assert.Empty(t, june.Details)
}

func TestLedger_UnlabelledDebitGroupsUnderCatchAll(t *testing.T) {
	// GIVEN: An approved request with no resolvable leave type
	// THEN: Its days still debit, grouped under the catch-all key

	emp := leave.Employee{ID: "emp-1", ContractStart: date(2024, time.January, 1)}
	req := approved("req-1", "", leave.CategoryStandard,
		date(2024, time.June, 3), date(2024, time.June, 5), 3)
	req.TypeName = ""

	entries := leave.BuildMonthlyLedger(emp, []leave.Request{req},
		calendar.NewHolidaySet(), date(2024, time.June, 30))
	june := findEntry(t, entries, "Jun 2024", false)

	assert.True(t, june.Debit.Equal(dec("3")))
	assert.Equal(t, "Other: 3", june.Details)
}

func TestLedger_BreakdownAggregatesPerType(t *testing.T) {
	emp := leave.Employee{ID: "emp-1", ContractStart: date(2024, time.January, 1)}
	history := []leave.Request{
		approved("req-1", "AL", leave.CategoryStandard,
			date(2024, time.June, 3), date(2024, time.June, 5), 3),
		approved("req-2", "SL", leave.CategorySick,
			date(2024, time.June, 17), date(2024, time.June, 18), 2),
	}

	entries := leave.BuildMonthlyLedger(emp, history, calendar.NewHolidaySet(), date(2024, time.June, 30))
	june := findEntry(t, entries, "Jun 2024", false)

	assert.True(t, june.Debit.Equal(dec("5")))
	assert.Equal(t, "AL: 3, SL: 2", june.Details)
}

// =============================================================================
// SUMMARY
// =============================================================================

func TestSummarize_RemainingMatchesFinalLedgerBalance(t *testing.T) {
	emp := leave.Employee{ID: "emp-1", ContractStart: date(2024, time.January, 1)}
	history := []leave.Request{
		approved("req-1", "AL", leave.CategoryStandard,
			date(2024, time.June, 3), date(2024, time.June, 5), 3),
	}
	now := date(2024, time.June, 30)

	summary := leave.Summarize(emp, history, calendar.NewHolidaySet(), now)
	entries := leave.BuildMonthlyLedger(emp, history, calendar.NewHolidaySet(), now)

	require.NotEmpty(t, entries)
	assert.True(t, summary.Remaining.Equal(entries[len(entries)-1].Balance))
	assert.True(t, summary.Used.Equal(dec("3")))
	assert.Equal(t, 30, summary.Entitlement)
}
