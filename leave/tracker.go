package leave

import (
	"sort"
	"time"

	"github.com/gaja-erp/leave-engine/calendar"
)

// =============================================================================
// ACTIVE LEAVE - Live countdown state for a leave in progress
// =============================================================================

// ActiveLeave describes an approved leave whose date range contains
// now, with the figures the live countdown renders.
type ActiveLeave struct {
	Request Request

	// RemainingDays counts today through the end date in the request
	// category's counting mode.
	RemainingDays int
	// TotalDays is the request's full counted span.
	TotalDays int
	// ElapsedRatio is consumed/total in [0, 1].
	ElapsedRatio float64
	// UntilEnd is the wall-clock duration until the end of the final
	// leave day (midnight after the end date).
	UntilEnd time.Duration
}

// ActiveAt returns the approved request containing now, if any, with
// its countdown state. Only approved requests qualify; a pending
// request covering today is not active leave.
func ActiveAt(history []Request, holidays calendar.HolidaySet, now time.Time) (*ActiveLeave, bool) {
	today := calendar.Midnight(now)

	var current *Request
	for i := range history {
		req := &history[i]
		if req.Status != StatusApproved || !req.Overlaps(today, today) {
			continue
		}
		if current == nil || req.Start.Before(current.Start) {
			current = req
		}
	}
	if current == nil {
		return nil, false
	}

	calendarCounted := current.Category == CategorySick
	total := calendar.CountDays(current.Start, current.End, calendarCounted, holidays)
	remaining := calendar.CountDays(today, current.End, calendarCounted, holidays)

	ratio := 0.0
	if total > 0 {
		ratio = float64(total-remaining) / float64(total)
	}

	endOfFinalDay := calendar.Midnight(current.End).AddDate(0, 0, 1)

	return &ActiveLeave{
		Request:       *current,
		RemainingDays: remaining,
		TotalDays:     total,
		ElapsedRatio:  ratio,
		UntilEnd:      endOfFinalDay.Sub(now),
	}, true
}

// =============================================================================
// PENDING QUEUE - Moderation view across employees
// =============================================================================

// PendingQueue returns every pending request across employees, ordered
// by start date. When a row lacks an inline employee name it is
// resolved from the directory (employee id -> display name).
func PendingQueue(history []Request, directory map[string]string) []Request {
	var pending []Request
	for _, req := range history {
		if req.Status != StatusPending {
			continue
		}
		if req.EmployeeName == "" {
			if name, ok := directory[req.EmployeeID]; ok {
				req.EmployeeName = name
			}
		}
		pending = append(pending, req)
	}

	sort.SliceStable(pending, func(i, j int) bool {
		if !pending[i].Start.Equal(pending[j].Start) {
			return pending[i].Start.Before(pending[j].Start)
		}
		return pending[i].ID < pending[j].ID
	})
	return pending
}
