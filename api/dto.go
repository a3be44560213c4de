/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the HTTP surface. These decouple the engine's
  domain types from the wire contract; handlers convert at the
  boundary and the engine never sees JSON.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - *Body: request body types from clients

SEE ALSO:
  - handlers.go: uses these types
  - leave/types.go: the domain shapes being converted
*/
package api

import (
	"time"

	"github.com/gaja-erp/leave-engine/calendar"
	"github.com/gaja-erp/leave-engine/leave"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type EmployeeDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	BirthDate     string `json:"birth_date,omitempty"`
	ContractStart string `json:"contract_start"`
	Entitlement   int    `json:"entitlement"`
	IsSenior      bool   `json:"is_senior"`
}

type HolidayDTO struct {
	ID    string `json:"id"`
	Date  string `json:"date"`
	Name  string `json:"name"`
	Local bool   `json:"local"`
}

type LeaveTypeDTO struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	MaxDays  int    `json:"max_days,omitempty"`
	Category string `json:"category"`
}

type RequestDTO struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`
	TypeID       string `json:"type_id,omitempty"`
	TypeCode     string `json:"type_code,omitempty"`
	TypeName     string `json:"type_name,omitempty"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Days         int    `json:"days"`
	Status       string `json:"status"`
}

type BalanceDTO struct {
	EmployeeID  string       `json:"employee_id"`
	Entitlement int          `json:"entitlement"`
	Used        float64      `json:"used"`
	Remaining   float64      `json:"remaining"`
	History     []RequestDTO `json:"leave_history"`
}

type LedgerEntryDTO struct {
	Month   string  `json:"month"`
	Label   string  `json:"label"`
	Credit  float64 `json:"credit"`
	Debit   float64 `json:"debit"`
	Balance float64 `json:"balance"`
	Reset   bool    `json:"reset,omitempty"`
	Details string  `json:"details,omitempty"`
}

type ExcludedDayDTO struct {
	Date    string `json:"date"`
	Reason  string `json:"reason"`
	Holiday string `json:"holiday,omitempty"`
}

type PreviewDTO struct {
	StartDate    string           `json:"start_date"`
	EndDate      string           `json:"end_date"`
	CountedDays  int              `json:"counted_days"`
	CalendarDays int              `json:"calendar_days"`
	Excluded     []ExcludedDayDTO `json:"excluded"`
	Info         string           `json:"info,omitempty"`
}

type ActiveLeaveDTO struct {
	Request       RequestDTO `json:"request"`
	RemainingDays int        `json:"remaining_days"`
	TotalDays     int        `json:"total_days"`
	ElapsedRatio  float64    `json:"elapsed_ratio"`
	SecondsToEnd  int64      `json:"seconds_to_end"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

type CreateRequestBody struct {
	TypeID    string `json:"type_id"`
	TypeCode  string `json:"type_code"`
	StartDate string `json:"start_date"`
	Days      int    `json:"days"`
	DedupKey  string `json:"dedup_key,omitempty"`
}

type CreateHolidayBody struct {
	Date  string `json:"date"`
	Name  string `json:"name"`
	Local bool   `json:"local"`
}

type PreviewBody struct {
	EmployeeID string `json:"employee_id"`
	TypeID     string `json:"type_id"`
	TypeCode   string `json:"type_code"`
	StartDate  string `json:"start_date"`
	Days       int    `json:"days"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEmployeeDTO(emp leave.Employee, now time.Time) EmployeeDTO {
	dto := EmployeeDTO{
		ID:            emp.ID,
		Name:          emp.Name,
		ContractStart: calendar.ToISO(emp.ContractStart),
		Entitlement:   emp.AnnualEntitlement(now),
		IsSenior:      emp.IsSenior(now),
	}
	if !emp.BirthDate.IsZero() {
		dto.BirthDate = calendar.ToISO(emp.BirthDate)
	}
	return dto
}

func toRequestDTO(req leave.Request) RequestDTO {
	return RequestDTO{
		ID:           req.ID,
		EmployeeID:   req.EmployeeID,
		EmployeeName: req.EmployeeName,
		TypeID:       req.TypeID,
		TypeCode:     req.TypeCode,
		TypeName:     req.TypeName,
		StartDate:    calendar.ToISO(req.Start),
		EndDate:      calendar.ToISO(req.End),
		Days:         req.Days,
		Status:       string(req.Status),
	}
}

func toRequestDTOs(reqs []leave.Request) []RequestDTO {
	dtos := make([]RequestDTO, len(reqs))
	for i, req := range reqs {
		dtos[i] = toRequestDTO(req)
	}
	return dtos
}

func toLedgerDTOs(entries []leave.LedgerEntry) []LedgerEntryDTO {
	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		credit, _ := e.Credit.Float64()
		debit, _ := e.Debit.Float64()
		balance, _ := e.Balance.Float64()
		dtos[i] = LedgerEntryDTO{
			Month:   calendar.ToISO(e.Month),
			Label:   e.Label,
			Credit:  credit,
			Debit:   debit,
			Balance: balance,
			Reset:   e.Reset,
			Details: e.Details,
		}
	}
	return dtos
}

func toPreviewDTO(p calendar.RangePreview, info string) PreviewDTO {
	dto := PreviewDTO{
		StartDate:    calendar.ToISO(p.Start),
		EndDate:      calendar.ToISO(p.End),
		CountedDays:  p.CountedDays,
		CalendarDays: p.CalendarDays,
		Excluded:     make([]ExcludedDayDTO, len(p.Excluded)),
		Info:         info,
	}
	for i, ex := range p.Excluded {
		dto.Excluded[i] = ExcludedDayDTO{
			Date:    calendar.ToISO(ex.Date),
			Reason:  string(ex.Reason),
			Holiday: ex.Holiday,
		}
	}
	return dto
}

func toLeaveTypeDTO(lt leave.LeaveType) LeaveTypeDTO {
	return LeaveTypeDTO{
		ID:       lt.ID,
		Code:     lt.Code,
		Name:     lt.Name,
		MaxDays:  lt.MaxDays,
		Category: string(lt.Category()),
	}
}
