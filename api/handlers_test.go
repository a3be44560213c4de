package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaja-erp/leave-engine/api"
	"github.com/gaja-erp/leave-engine/leave"
	"github.com/gaja-erp/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// Frozen clock: Saturday June 15 2024, noon. Fridays in June 2024 are
// the 7th, 14th, 21st and 28th.
var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.Local)

func setup(t *testing.T) (http.Handler, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.SeedDefaults(context.Background()))

	require.NoError(t, store.CreateEmployee(context.Background(), leave.Employee{
		ID:            "emp-1",
		Name:          "Amal",
		ContractStart: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local),
	}))

	handler := api.NewHandler(store)
	handler.Now = func() time.Time { return testNow }
	return api.NewRouter(handler), store
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

func submitLeave(t *testing.T, router http.Handler, body map[string]any) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/employees/emp-1/requests", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	decode(t, rec, &created)
	require.NotEmpty(t, created.ID)
	return created.ID
}

// =============================================================================
// EMPLOYEES & BALANCE
// =============================================================================

func TestGetEmployee(t *testing.T) {
	router, _ := setup(t)

	rec := do(t, router, http.MethodGet, "/api/employees/emp-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var emp api.EmployeeDTO
	decode(t, rec, &emp)
	assert.Equal(t, "Amal", emp.Name)
	assert.Equal(t, 30, emp.Entitlement)
	assert.False(t, emp.IsSenior)
}

func TestGetEmployee_NotFound(t *testing.T) {
	router, _ := setup(t)
	rec := do(t, router, http.MethodGet, "/api/employees/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBalance_AccruesFromContractStart(t *testing.T) {
	// GIVEN: Contract start Jan 1, frozen clock mid-June, no requests
	// THEN: Six months of 2.5 accrual, nothing used

	router, _ := setup(t)
	rec := do(t, router, http.MethodGet, "/api/employees/emp-1/balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var balance api.BalanceDTO
	decode(t, rec, &balance)
	assert.Equal(t, 30, balance.Entitlement)
	assert.Equal(t, 0.0, balance.Used)
	assert.Equal(t, 15.0, balance.Remaining)
	assert.Empty(t, balance.History)
}

func TestGetLedger(t *testing.T) {
	router, _ := setup(t)
	rec := do(t, router, http.MethodGet, "/api/employees/emp-1/ledger", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var ledger []api.LedgerEntryDTO
	decode(t, rec, &ledger)
	require.Len(t, ledger, 6)
	assert.Equal(t, "Jan 2024", ledger[0].Label)
	assert.Equal(t, 2.5, ledger[0].Credit)
	assert.Equal(t, 15.0, ledger[5].Balance)
}

func TestGetLedgerPDF(t *testing.T) {
	router, _ := setup(t)
	rec := do(t, router, http.MethodGet, "/api/employees/emp-1/ledger/pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")), "PDF magic bytes")
}

// =============================================================================
// REQUEST SUBMISSION
// =============================================================================

func TestSubmitRequest_CreatesPendingWithDerivedEnd(t *testing.T) {
	// GIVEN: 3 working days from Monday June 17 (Friday June 21 not in
	//        range)
	// THEN: 201, pending status, end June 19

	router, _ := setup(t)
	rec := do(t, router, http.MethodPost, "/api/employees/emp-1/requests", map[string]any{
		"type_code":  "AL",
		"start_date": "2024-06-17",
		"days":       3,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID      string         `json:"id"`
		Request api.RequestDTO `json:"request"`
		Preview api.PreviewDTO `json:"preview"`
	}
	decode(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "pending", created.Request.Status)
	assert.Equal(t, "2024-06-19", created.Request.EndDate)
	assert.Equal(t, 3, created.Preview.CountedDays)
}

func TestSubmitRequest_NonWorkingStartRejected(t *testing.T) {
	router, _ := setup(t)
	rec := do(t, router, http.MethodPost, "/api/employees/emp-1/requests", map[string]any{
		"type_code":  "AL",
		"start_date": "2024-06-21", // Friday
		"days":       2,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp api.ErrorResponse
	decode(t, rec, &resp)
	assert.Contains(t, resp.Error, "2024-06-21")
}

func TestSubmitRequest_InsufficientBalanceRejected(t *testing.T) {
	// 15 days accrued by mid-June; 20 requested.
	router, _ := setup(t)
	rec := do(t, router, http.MethodPost, "/api/employees/emp-1/requests", map[string]any{
		"type_code":  "AL",
		"start_date": "2024-06-17",
		"days":       20,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitRequest_TypeCodeIsCaseInsensitive(t *testing.T) {
	// A lower-case code must resolve the same type the normalizer would.
	router, _ := setup(t)
	rec := do(t, router, http.MethodPost, "/api/employees/emp-1/requests", map[string]any{
		"type_code":  "al",
		"start_date": "2024-06-17",
		"days":       2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Request api.RequestDTO `json:"request"`
	}
	decode(t, rec, &created)
	assert.Equal(t, "AL", created.Request.TypeCode)
}

func TestSubmitRequest_UnknownTypeRejected(t *testing.T) {
	router, _ := setup(t)
	rec := do(t, router, http.MethodPost, "/api/employees/emp-1/requests", map[string]any{
		"type_code":  "XX",
		"start_date": "2024-06-17",
		"days":       2,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitRequest_ReplayedDedupKeyConflicts(t *testing.T) {
	// GIVEN: A double-submit carrying the same dedup key
	// THEN: First wins, replay gets 409

	router, _ := setup(t)
	body := map[string]any{
		"type_code":  "AL",
		"start_date": "2024-06-17",
		"days":       2,
		"dedup_key":  "double-click",
	}
	submitLeave(t, router, body)

	// Same key, non-overlapping dates so only the key can conflict.
	body["start_date"] = "2024-07-01"
	rec := do(t, router, http.MethodPost, "/api/employees/emp-1/requests", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitRequest_OverlapRejected(t *testing.T) {
	router, _ := setup(t)
	submitLeave(t, router, map[string]any{
		"type_code":  "AL",
		"start_date": "2024-06-17",
		"days":       3,
	})

	rec := do(t, router, http.MethodPost, "/api/employees/emp-1/requests", map[string]any{
		"type_code":  "AL",
		"start_date": "2024-06-18",
		"days":       2,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// STATUS TRANSITIONS
// =============================================================================

func TestApproveThenReApproveConflicts(t *testing.T) {
	router, _ := setup(t)
	id := submitLeave(t, router, map[string]any{
		"type_code":  "AL",
		"start_date": "2024-06-17",
		"days":       2,
	})

	rec := do(t, router, http.MethodPost, "/api/requests/"+id+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var approved api.RequestDTO
	decode(t, rec, &approved)
	assert.Equal(t, "approved", approved.Status)

	rec = do(t, router, http.MethodPost, "/api/requests/"+id+"/approve", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestApprovedRequestCanOnlyBeCancelled(t *testing.T) {
	router, _ := setup(t)
	id := submitLeave(t, router, map[string]any{
		"type_code":  "AL",
		"start_date": "2024-06-17",
		"days":       2,
	})

	require.Equal(t, http.StatusOK,
		do(t, router, http.MethodPost, "/api/requests/"+id+"/approve", nil).Code)
	assert.Equal(t, http.StatusConflict,
		do(t, router, http.MethodPost, "/api/requests/"+id+"/reject", nil).Code)
	assert.Equal(t, http.StatusOK,
		do(t, router, http.MethodPost, "/api/requests/"+id+"/cancel", nil).Code)
}

func TestTransition_UnknownRequest(t *testing.T) {
	router, _ := setup(t)
	rec := do(t, router, http.MethodPost, "/api/requests/nope/approve", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApprovedDaysShowUpInBalance(t *testing.T) {
	router, _ := setup(t)
	id := submitLeave(t, router, map[string]any{
		"type_code":  "AL",
		"start_date": "2024-06-03",
		"days":       3,
	})
	require.Equal(t, http.StatusOK,
		do(t, router, http.MethodPost, "/api/requests/"+id+"/approve", nil).Code)

	rec := do(t, router, http.MethodGet, "/api/employees/emp-1/balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var balance api.BalanceDTO
	decode(t, rec, &balance)
	assert.Equal(t, 3.0, balance.Used)
	assert.Equal(t, 12.0, balance.Remaining)
	require.Len(t, balance.History, 1)
}

// =============================================================================
// PENDING QUEUE & ACTIVE LEAVE
// =============================================================================

func TestPendingQueue(t *testing.T) {
	router, _ := setup(t)
	id := submitLeave(t, router, map[string]any{
		"type_code":  "AL",
		"start_date": "2024-06-17",
		"days":       2,
	})

	rec := do(t, router, http.MethodGet, "/api/requests/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var queue []api.RequestDTO
	decode(t, rec, &queue)
	require.Len(t, queue, 1)
	assert.Equal(t, id, queue[0].ID)
	assert.Equal(t, "Amal", queue[0].EmployeeName)
}

func TestGetActiveLeave(t *testing.T) {
	router, _ := setup(t)

	rec := do(t, router, http.MethodGet, "/api/employees/emp-1/active", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var inactive struct {
		Active bool `json:"active"`
	}
	decode(t, rec, &inactive)
	assert.False(t, inactive.Active)

	// Saturday June 15 is a working day; the approved range contains the
	// frozen clock.
	id := submitLeave(t, router, map[string]any{
		"type_code":  "AL",
		"start_date": "2024-06-15",
		"days":       3,
	})
	require.Equal(t, http.StatusOK,
		do(t, router, http.MethodPost, "/api/requests/"+id+"/approve", nil).Code)

	rec = do(t, router, http.MethodGet, "/api/employees/emp-1/active", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var active struct {
		Active bool               `json:"active"`
		Leave  api.ActiveLeaveDTO `json:"leave"`
	}
	decode(t, rec, &active)
	require.True(t, active.Active)
	assert.Equal(t, 3, active.Leave.TotalDays)
	assert.Equal(t, 3, active.Leave.RemainingDays)
	assert.Positive(t, active.Leave.SecondsToEnd)
}

// =============================================================================
// PREVIEW, HOLIDAYS & TYPES
// =============================================================================

func TestPreview_ClampsToSpanCap(t *testing.T) {
	router, _ := setup(t)
	rec := do(t, router, http.MethodPost, "/api/preview", map[string]any{
		"type_code":  "AL",
		"start_date": "2024-06-17",
		"days":       45,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var preview api.PreviewDTO
	decode(t, rec, &preview)
	assert.Equal(t, 30, preview.CountedDays)
	assert.NotEmpty(t, preview.Info)
}

func TestPreview_ReportsExcludedDays(t *testing.T) {
	router, _ := setup(t)
	rec := do(t, router, http.MethodPost, "/api/preview", map[string]any{
		"type_code":  "AL",
		"start_date": "2024-06-17",
		"days":       5,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var preview api.PreviewDTO
	decode(t, rec, &preview)
	assert.Equal(t, 5, preview.CountedDays)
	// June 17-22 spans Friday June 21.
	require.Len(t, preview.Excluded, 1)
	assert.Equal(t, "2024-06-21", preview.Excluded[0].Date)
	assert.Equal(t, "weekly_off", preview.Excluded[0].Reason)
}

func TestHolidayLifecycle(t *testing.T) {
	router, _ := setup(t)

	rec := do(t, router, http.MethodPost, "/api/holidays", map[string]any{
		"date": "2024-06-10",
		"name": "Eid al-Adha",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created api.HolidayDTO
	decode(t, rec, &created)
	require.NotEmpty(t, created.ID)

	rec = do(t, router, http.MethodGet, "/api/holidays", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var holidays []api.HolidayDTO
	decode(t, rec, &holidays)
	require.Len(t, holidays, 1)
	assert.Equal(t, "Eid al-Adha", holidays[0].Name)

	rec = do(t, router, http.MethodDelete, "/api/holidays/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestListLeaveTypes(t *testing.T) {
	router, _ := setup(t)
	rec := do(t, router, http.MethodGet, "/api/leave-types", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var types []api.LeaveTypeDTO
	decode(t, rec, &types)
	require.Len(t, types, 3)

	categories := map[string]string{}
	for _, lt := range types {
		categories[lt.Code] = lt.Category
	}
	assert.Equal(t, "standard", categories["AL"])
	assert.Equal(t, "sick", categories["SL"])
	assert.Equal(t, "emergency", categories["EL"])
}

func TestHolidayAffectsSubmission(t *testing.T) {
	// GIVEN: A registered holiday on Monday June 17
	// THEN: A request starting that day is rejected

	router, _ := setup(t)
	require.Equal(t, http.StatusCreated,
		do(t, router, http.MethodPost, "/api/holidays", map[string]any{
			"date": "2024-06-17",
			"name": "store closure",
		}).Code)

	rec := do(t, router, http.MethodPost, "/api/employees/emp-1/requests", map[string]any{
		"type_code":  "AL",
		"start_date": "2024-06-17",
		"days":       2,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
