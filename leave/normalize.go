/*
normalize.go - Single normalization boundary for heterogeneous history rows

PURPOSE:
  Leave history rows reach the engine from more than one upstream
  source (the balance endpoint, the requests endpoint, legacy exports)
  and the same concept appears under different field names depending on
  where the row came from. This file is the ONE place that raw shape
  knowledge lives: it coalesces the known field-name variants into the
  canonical Request type and classifies free-form status strings.
  Nothing downstream may branch on raw field presence.

RULES:
  1. Per concept, the first non-empty field from a fixed priority list
     wins.
  2. Dates parse into local-calendar days; a row whose start or end
     fails to parse is DROPPED, never guessed. One malformed row must
     not affect ledger arithmetic for the others.
  3. Status is lower-cased and matched by substring against known
     synonyms per canonical state; unrecognized statuses classify as
     pending (the conservative state: still reserves days).
  4. Merging sources dedups by row identifier, last writer wins.

SEE ALSO:
  - types.go: the canonical Request shape
  - ledger.go, validate.go, tracker.go: consumers of canonical rows
*/
package leave

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gaja-erp/leave-engine/calendar"
)

// RawRow is an untyped history row as delivered by an upstream source.
type RawRow map[string]any

// Field-name priority lists, one per concept. Order matters: earlier
// names are the current contract, later ones are legacy variants.
var (
	idFields           = []string{"id", "_id", "requestId", "request_id", "uuid"}
	employeeIDFields   = []string{"employeeId", "employee_id", "empId", "userId", "employee"}
	employeeNameFields = []string{"employeeName", "employee_name", "fullName", "name"}
	startFields        = []string{"startDate", "start_date", "start", "from", "fromDate"}
	endFields          = []string{"endDate", "end_date", "end", "to", "toDate"}
	daysFields         = []string{"days", "numberOfDays", "number_of_days", "dayCount", "duration"}
	statusFields       = []string{"status", "state", "requestStatus", "approval"}
	typeFields         = []string{"leaveType", "leave_type", "type", "typeId", "typeName"}
)

// statusSynonyms maps each canonical state to the substrings that
// classify into it. Checked in declaration order; first hit wins.
var statusSynonyms = []struct {
	status   Status
	keywords []string
}{
	{StatusCancelled, []string{"cancel", "annul", "withdraw"}},
	{StatusRejected, []string{"reject", "denied", "refus", "declin"}},
	{StatusApproved, []string{"approv", "accept", "validated", "confirm"}},
	{StatusPending, []string{"pending", "wait", "review", "submit", "open"}},
}

// ClassifyStatus maps a raw status string onto the canonical state
// machine. Unrecognized values classify as pending.
func ClassifyStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, entry := range statusSynonyms {
		for _, kw := range entry.keywords {
			if strings.Contains(s, kw) {
				return entry.status
			}
		}
	}
	return StatusPending
}

// =============================================================================
// ROW NORMALIZATION
// =============================================================================

// NormalizeRow converts one raw row into the canonical shape. Returns
// false when the row is unusable (unparseable start or end date).
func NormalizeRow(row RawRow, types []LeaveType) (Request, bool) {
	start, okStart := calendar.ParseDate(coalesceString(row, startFields))
	if !okStart {
		return Request{}, false
	}

	req := Request{
		ID:           coalesceString(row, idFields),
		EmployeeID:   coalesceString(row, employeeIDFields),
		EmployeeName: coalesceString(row, employeeNameFields),
		Start:        start,
		Status:       ClassifyStatus(coalesceString(row, statusFields)),
	}

	req.TypeID, req.TypeCode, req.TypeName = rawTypeRef(row)
	if lt, ok := resolveType(types, req.TypeID, req.TypeCode, req.TypeName); ok {
		req.TypeID, req.TypeCode, req.TypeName = lt.ID, lt.Code, lt.Name
		req.Category = lt.Category()
	} else {
		req.Category = LeaveType{Code: req.TypeCode, Name: req.TypeName}.Category()
	}

	req.Days = coalesceInt(row, daysFields)

	end, okEnd := calendar.ParseDate(coalesceString(row, endFields))
	switch {
	case okEnd && !end.Before(start):
		req.End = end
	case req.Days > 0:
		// Legacy rows sometimes carry only a day count; derive the end
		// with the category's counting mode so the range stays usable.
		req.End = calendar.ComputeEndDate(start, req.Days, req.Category == CategorySick, calendar.NewHolidaySet())
	default:
		return Request{}, false
	}

	if req.Days == 0 {
		req.Days = calendar.CountCalendarDays(req.Start, req.End)
	}
	return req, true
}

// NormalizeHistory converts a batch of raw rows, dropping the
// malformed ones.
func NormalizeHistory(rows []RawRow, types []LeaveType) []Request {
	out := make([]Request, 0, len(rows))
	for _, row := range rows {
		if req, ok := NormalizeRow(row, types); ok {
			out = append(out, req)
		}
	}
	return out
}

// MergeHistories merges canonical rows from multiple sources,
// deduplicating by identifier with last-writer-wins semantics. Rows
// without an identifier are kept as-is. The result is ordered by start
// date, then identifier, for deterministic downstream iteration.
func MergeHistories(sources ...[]Request) []Request {
	byID := make(map[string]int)
	var merged []Request

	for _, src := range sources {
		for _, req := range src {
			if req.ID == "" {
				merged = append(merged, req)
				continue
			}
			if idx, seen := byID[req.ID]; seen {
				merged[idx] = req
				continue
			}
			byID[req.ID] = len(merged)
			merged = append(merged, req)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if !merged[i].Start.Equal(merged[j].Start) {
			return merged[i].Start.Before(merged[j].Start)
		}
		return merged[i].ID < merged[j].ID
	})
	return merged
}

// =============================================================================
// COALESCING HELPERS
// =============================================================================

func coalesceString(row RawRow, keys []string) string {
	for _, k := range keys {
		v, ok := row[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if strings.TrimSpace(s) != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		case int:
			return strconv.Itoa(s)
		}
	}
	return ""
}

func coalesceInt(row RawRow, keys []string) int {
	for _, k := range keys {
		v, ok := row[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			if n > 0 {
				return int(n)
			}
		case int:
			if n > 0 {
				return n
			}
		case string:
			if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil && parsed > 0 {
				return parsed
			}
		}
	}
	return 0
}

// rawTypeRef extracts the leave-type reference, which may be a bare
// string (id, code, or name) or a nested object.
func rawTypeRef(row RawRow) (id, code, name string) {
	for _, k := range typeFields {
		v, ok := row[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if strings.TrimSpace(t) == "" {
				continue
			}
			// Short upper-case values are mnemonics, longer ones names.
			if len(t) <= 3 && strings.ToUpper(t) == t {
				return "", t, ""
			}
			return t, "", t
		case map[string]any:
			return stringAt(t, "id"), stringAt(t, "code"), stringAt(t, "name")
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), "", ""
		}
	}
	return "", "", ""
}

func stringAt(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		switch s := v.(type) {
		case string:
			return s
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		}
	}
	return ""
}

// resolveType matches a raw type reference against the known leave
// types by id, then code, then case-insensitive name.
func resolveType(types []LeaveType, id, code, name string) (LeaveType, bool) {
	for _, lt := range types {
		if id != "" && lt.ID == id {
			return lt, true
		}
	}
	for _, lt := range types {
		if code != "" && strings.EqualFold(lt.Code, code) {
			return lt, true
		}
	}
	for _, lt := range types {
		if name != "" && strings.EqualFold(lt.Name, name) {
			return lt, true
		}
	}
	// A bare string may be either id-or-name; try it against codes too.
	for _, lt := range types {
		if id != "" && strings.EqualFold(lt.Code, id) {
			return lt, true
		}
	}
	return LeaveType{}, false
}

// String implements fmt.Stringer for debugging dropped rows.
func (r RawRow) String() string {
	return fmt.Sprintf("raw-row(id=%s)", coalesceString(r, idFields))
}
