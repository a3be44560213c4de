/*
handlers.go - HTTP handlers exposing the leave engine

PURPOSE:
  Wires the pure engine functions to the HTTP surface. Handlers fetch
  the raw inputs from the store, build the merged holiday set, run the
  engine, and serialize the result. No balance arithmetic lives here.

ENDPOINTS:
  Employees:
    GET  /api/employees                    List employees
    GET  /api/employees/{id}               Employee with entitlement
    GET  /api/employees/{id}/balance       Balance summary + history
    GET  /api/employees/{id}/ledger        Monthly ledger
    GET  /api/employees/{id}/ledger/pdf    Ledger PDF export
    GET  /api/employees/{id}/requests      Raw request rows
    GET  /api/employees/{id}/active        Live countdown state
    POST /api/employees/{id}/requests      Validate + create request

  Requests:
    GET  /api/requests/pending             Moderation queue
    POST /api/requests/{id}/approve        pending -> approved
    POST /api/requests/{id}/reject         pending -> rejected
    POST /api/requests/{id}/cancel         pending|approved -> cancelled

  Calendar:
    GET/POST /api/holidays, DELETE /api/holidays/{id}
    GET  /api/leave-types
    POST /api/preview                      Live day-count preview

ERROR MAPPING:
  400 validation failures (leave.IsValidationError)
  404 unknown employee/request
  409 duplicate dedup key, illegal status transition
  500 everything else

DEGRADATION:
  A failed holidays fetch never blocks a balance or ledger response;
  the engine runs with an empty set and quota checks that need the
  missing data are skipped rather than failing closed.

SEE ALSO:
  - dto.go: wire types
  - server.go: router and middleware
*/
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gaja-erp/leave-engine/calendar"
	"github.com/gaja-erp/leave-engine/leave"
	"github.com/gaja-erp/leave-engine/report"
	"github.com/gaja-erp/leave-engine/store/sqlite"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store

	// Now is injectable for deterministic handler tests.
	Now func() time.Time
}

// NewHandler creates a handler backed by the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{Store: store, Now: time.Now}
}

// holidaySet fetches the merged holiday set. Server and local entries
// merge additively; a fetch failure degrades to an empty set so the
// rest of the computation proceeds.
func (h *Handler) holidaySet(r *http.Request) calendar.HolidaySet {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		log.Printf("holidays fetch failed, continuing without: %v", err)
		return calendar.NewHolidaySet()
	}
	return leave.HolidaySetOf(holidays)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	now := h.Now()
	dtos := make([]EmployeeDTO, len(employees))
	for i, emp := range employees {
		dtos[i] = toEmployeeDTO(emp, now)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp, h.Now()))
}

// =============================================================================
// BALANCE & LEDGER
// =============================================================================

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	emp, history, set, err := h.loadEngineInputs(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	summary := leave.Summarize(emp, history, set, h.Now())
	used, _ := summary.Used.Float64()
	remaining, _ := summary.Remaining.Float64()

	writeJSON(w, http.StatusOK, BalanceDTO{
		EmployeeID:  emp.ID,
		Entitlement: summary.Entitlement,
		Used:        used,
		Remaining:   remaining,
		History:     toRequestDTOs(summary.History),
	})
}

func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	emp, history, set, err := h.loadEngineInputs(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	ledger := leave.BuildMonthlyLedger(emp, history, set, h.Now())
	writeJSON(w, http.StatusOK, toLedgerDTOs(ledger))
}

func (h *Handler) GetLedgerPDF(w http.ResponseWriter, r *http.Request) {
	emp, history, set, err := h.loadEngineInputs(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	now := h.Now()
	ledger := leave.BuildMonthlyLedger(emp, history, set, now)
	summary := leave.Summarize(emp, history, set, now)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="leave-ledger-`+emp.ID+`.pdf"`)
	if err := report.WriteLedgerPDF(w, emp, ledger, summary); err != nil {
		log.Printf("ledger pdf render failed: %v", err)
	}
}

func (h *Handler) GetActiveLeave(w http.ResponseWriter, r *http.Request) {
	_, history, set, err := h.loadEngineInputs(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	active, ok := leave.ActiveAt(history, set, h.Now())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active": true,
		"leave": ActiveLeaveDTO{
			Request:       toRequestDTO(active.Request),
			RemainingDays: active.RemainingDays,
			TotalDays:     active.TotalDays,
			ElapsedRatio:  active.ElapsedRatio,
			SecondsToEnd:  int64(active.UntilEnd.Seconds()),
		},
	})
}

// loadEngineInputs fetches the employee, their canonical history, and
// the merged holiday set. History rows from the store are already
// canonical; merging keeps last-writer-wins semantics if a request row
// appears twice.
func (h *Handler) loadEngineInputs(r *http.Request) (leave.Employee, []leave.Request, calendar.HolidaySet, error) {
	id := chi.URLParam(r, "id")
	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		return leave.Employee{}, nil, nil, err
	}
	requests, err := h.Store.ListRequests(r.Context(), id)
	if err != nil {
		return leave.Employee{}, nil, nil, err
	}
	return emp, leave.MergeHistories(requests), h.holidaySet(r), nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Store.ListRequests(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var body CreateRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	emp, history, set, err := h.loadEngineInputs(r)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	lt, ok := h.resolveLeaveType(r, body.TypeID, body.TypeCode)
	if !ok {
		writeError(w, http.StatusBadRequest, leave.ErrMissingFields)
		return
	}

	start, okDate := calendar.ParseDate(body.StartDate)
	if !okDate {
		writeError(w, http.StatusBadRequest, leave.ErrMissingFields)
		return
	}

	now := h.Now()
	summary := leave.Summarize(emp, history, set, now)
	remaining := summary.Remaining

	result, err := leave.ValidateRequest(leave.ValidationInput{
		Type:          lt,
		Start:         start,
		DaysRequested: body.Days,
		Remaining:     &remaining,
		History:       history,
		Holidays:      set,
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	dedupKey := body.DedupKey
	if dedupKey == "" {
		dedupKey = uuid.NewString()
	}

	req := leave.Request{
		ID:         uuid.NewString(),
		EmployeeID: emp.ID,
		TypeID:     lt.ID,
		TypeCode:   lt.Code,
		TypeName:   lt.Name,
		Category:   lt.Category(),
		Start:      calendar.Midnight(start),
		End:        result.End,
		Days:       result.CountedDays,
		Status:     leave.StatusPending,
	}
	if err := h.Store.CreateRequest(r.Context(), req, dedupKey); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      req.ID,
		"request": toRequestDTO(req),
		"preview": toPreviewDTO(result.Preview, ""),
	})
}

func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.transitionRequest(w, r, leave.StatusApproved)
}

func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.transitionRequest(w, r, leave.StatusRejected)
}

func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.transitionRequest(w, r, leave.StatusCancelled)
}

func (h *Handler) transitionRequest(w http.ResponseWriter, r *http.Request, to leave.Status) {
	id := chi.URLParam(r, "id")
	req, err := h.Store.GetRequest(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if !leave.CanTransition(req.Status, to) {
		writeError(w, http.StatusConflict, &leave.TransitionError{From: req.Status, To: to})
		return
	}
	if err := h.Store.UpdateRequestStatus(r.Context(), id, to); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	req.Status = to
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	pending, err := h.Store.ListRequestsByStatus(r.Context(), leave.StatusPending)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	directory, err := h.Store.Directory(r.Context())
	if err != nil {
		// Names degrade to ids; the queue itself still renders.
		log.Printf("directory fetch failed: %v", err)
		directory = nil
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(leave.PendingQueue(pending, directory)))
}

// =============================================================================
// PREVIEW
// =============================================================================

func (h *Handler) PreviewRequest(w http.ResponseWriter, r *http.Request) {
	var body PreviewBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	lt, ok := h.resolveLeaveType(r, body.TypeID, body.TypeCode)
	if !ok {
		writeError(w, http.StatusBadRequest, leave.ErrMissingFields)
		return
	}
	start, okDate := calendar.ParseDate(body.StartDate)
	if !okDate || body.Days <= 0 {
		writeError(w, http.StatusBadRequest, leave.ErrMissingFields)
		return
	}

	days, info := leave.ClampDays(body.Days, lt)
	set := h.holidaySet(r)
	calendarCounted := lt.CalendarCounted()
	end := calendar.ComputeEndDate(start, days, calendarCounted, set)
	writeJSON(w, http.StatusOK, toPreviewDTO(calendar.Preview(start, end, calendarCounted, set), info))
}

func (h *Handler) resolveLeaveType(r *http.Request, id, code string) (leave.LeaveType, bool) {
	types, err := h.Store.ListLeaveTypes(r.Context())
	if err != nil {
		return leave.LeaveType{}, false
	}
	for _, lt := range types {
		// Codes match case-insensitively, same as the normalizer.
		if (id != "" && lt.ID == id) || (code != "" && strings.EqualFold(lt.Code, code)) {
			return lt, true
		}
	}
	return leave.LeaveType{}, false
}

// =============================================================================
// HOLIDAYS & LEAVE TYPES
// =============================================================================

func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]HolidayDTO, len(holidays))
	for i, holiday := range holidays {
		dtos[i] = HolidayDTO{
			ID:    holiday.ID,
			Date:  calendar.ToISO(holiday.Date),
			Name:  holiday.Name,
			Local: holiday.Local,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var body CreateHolidayBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	date, ok := calendar.ParseDate(body.Date)
	if !ok {
		writeError(w, http.StatusBadRequest, errors.New("invalid holiday date"))
		return
	}

	holiday := leave.Holiday{
		ID:    uuid.NewString(),
		Date:  date,
		Name:  body.Name,
		Local: body.Local,
	}
	if err := h.Store.CreateHoliday(r.Context(), holiday); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, HolidayDTO{
		ID:    holiday.ID,
		Date:  calendar.ToISO(holiday.Date),
		Name:  holiday.Name,
		Local: holiday.Local,
	})
}

func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Store.ListLeaveTypes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]LeaveTypeDTO, len(types))
	for i, lt := range types {
		dtos[i] = toLeaveTypeDTO(lt)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, leave.ErrDuplicateSubmission),
		errors.Is(err, leave.ErrInvalidTransition):
		return http.StatusConflict
	case leave.IsValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
