/*
Package sqlite provides the SQLite-backed persistence the leave engine
treats as an external collaborator.

PURPOSE:
  Stores the raw inputs the engine projects from: employees, the
  holiday calendar (server entries and local overrides), leave types,
  and leave requests. The engine itself never touches this package; it
  receives plain slices fetched here by the API layer.

KEY TABLES:
  employees:      identity, birth date, contract start
  holidays:       date + name, flagged local when client-added
  leave_types:    code, name, per-request cap
  leave_requests: the flat request list the ledger is rebuilt from

DEDUPLICATION:
  leave_requests carries a UNIQUE dedup_key. A create that replays an
  already-seen key fails with leave.ErrDuplicateSubmission, which is
  what protects against double-submits from the live-countdown UI.

WAL MODE:
  SQLite is opened with WAL for concurrent readers; a sync.RWMutex
  serializes writers in-process.

SEE ALSO:
  - leave/types.go: the record types returned here
  - api/handlers.go: the only caller
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gaja-erp/leave-engine/calendar"
	"github.com/gaja-erp/leave-engine/leave"
)

// Store implements persistence for all engine inputs using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a store at dbPath. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		birth_date TEXT,
		contract_start TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		is_local INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_holidays_date ON holidays(date);

	CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		max_days INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		type_id TEXT REFERENCES leave_types(id),
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days INTEGER NOT NULL,
		status TEXT NOT NULL,
		dedup_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON leave_requests(employee_id, start_date);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON leave_requests(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SeedDefaults inserts the built-in leave types when missing. Codes
// mirror the upstream fixtures: annual, sick, emergency.
func (s *Store) SeedDefaults(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	defaults := []leave.LeaveType{
		{ID: "lt-annual", Code: "AL", Name: "Annual Leave", MaxDays: 0},
		{ID: "lt-sick", Code: "SL", Name: "Sick Leave", MaxDays: 14},
		{ID: "lt-emergency", Code: "EL", Name: "Emergency Leave", MaxDays: 3},
	}
	for _, lt := range defaults {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO leave_types (id, code, name, max_days)
			VALUES (?, ?, ?, ?)`,
			lt.ID, lt.Code, lt.Name, lt.MaxDays)
		if err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) CreateEmployee(ctx context.Context, emp leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	birth := ""
	if !emp.BirthDate.IsZero() {
		birth = calendar.ToISO(emp.BirthDate)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, birth_date, contract_start)
		VALUES (?, ?, ?, ?)`,
		emp.ID, emp.Name, birth, calendar.ToISO(emp.ContractStart))
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id string) (leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, birth_date, contract_start FROM employees WHERE id = ?`, id)
	return scanEmployee(row)
}

func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, birth_date, contract_start FROM employees ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []leave.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// Directory returns employee id -> display name, used to resolve names
// on pending-queue rows that lack one.
func (s *Store) Directory(ctx context.Context) (map[string]string, error) {
	employees, err := s.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	dir := make(map[string]string, len(employees))
	for _, emp := range employees {
		dir[emp.ID] = emp.Name
	}
	return dir, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (leave.Employee, error) {
	var emp leave.Employee
	var birth, contract string
	if err := row.Scan(&emp.ID, &emp.Name, &birth, &contract); err != nil {
		return leave.Employee{}, err
	}
	if birth != "" {
		if d, ok := calendar.ParseDate(birth); ok {
			emp.BirthDate = d
		}
	}
	if d, ok := calendar.ParseDate(contract); ok {
		emp.ContractStart = d
	}
	return emp, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) CreateHoliday(ctx context.Context, h leave.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	local := 0
	if h.Local {
		local = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name, is_local) VALUES (?, ?, ?, ?)`,
		h.ID, calendar.ToISO(h.Date), h.Name, local)
	return err
}

func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	return err
}

// ListHolidays returns every holiday, server entries first so the
// additive local merge can never shadow them.
func (s *Store) ListHolidays(ctx context.Context) ([]leave.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, name, is_local FROM holidays ORDER BY is_local, date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []leave.Holiday
	for rows.Next() {
		var h leave.Holiday
		var date string
		var local int
		if err := rows.Scan(&h.ID, &date, &h.Name, &local); err != nil {
			return nil, err
		}
		d, ok := calendar.ParseDate(date)
		if !ok {
			continue // unparseable row is dropped, not fatal
		}
		h.Date = d
		h.Local = local == 1
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

func (s *Store) ListLeaveTypes(ctx context.Context) ([]leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, max_days FROM leave_types ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []leave.LeaveType
	for rows.Next() {
		var lt leave.LeaveType
		if err := rows.Scan(&lt.ID, &lt.Code, &lt.Name, &lt.MaxDays); err != nil {
			return nil, err
		}
		types = append(types, lt)
	}
	return types, rows.Err()
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

func (s *Store) CreateRequest(ctx context.Context, req leave.Request, dedupKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_requests
			(id, employee_id, type_id, start_date, end_date, days, status, dedup_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.EmployeeID, nullable(req.TypeID),
		calendar.ToISO(req.Start), calendar.ToISO(req.End),
		req.Days, string(req.Status), nullable(dedupKey),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil && isUniqueViolation(err) {
		return leave.ErrDuplicateSubmission
	}
	return err
}

func (s *Store) GetRequest(ctx context.Context, id string) (leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, requestSelect+` WHERE r.id = ?`, id)
	return scanRequest(row)
}

// ListRequests returns the raw request rows for one employee, oldest
// start first.
func (s *Store) ListRequests(ctx context.Context, employeeID string) ([]leave.Request, error) {
	return s.queryRequests(ctx, requestSelect+` WHERE r.employee_id = ? ORDER BY r.start_date`, employeeID)
}

// ListRequestsByStatus returns requests in one status across all
// employees (the moderation queue fetch).
func (s *Store) ListRequestsByStatus(ctx context.Context, status leave.Status) ([]leave.Request, error) {
	return s.queryRequests(ctx, requestSelect+` WHERE r.status = ? ORDER BY r.start_date`, string(status))
}

// UpdateRequestStatus persists a status change. Transition legality is
// the caller's concern; the store only writes.
func (s *Store) UpdateRequestStatus(ctx context.Context, id string, status leave.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE leave_requests SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const requestSelect = `
	SELECT r.id, r.employee_id, e.name,
	       COALESCE(r.type_id, ''), COALESCE(t.code, ''), COALESCE(t.name, ''),
	       r.start_date, r.end_date, r.days, r.status
	FROM leave_requests r
	JOIN employees e ON e.id = r.employee_id
	LEFT JOIN leave_types t ON t.id = r.type_id`

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func scanRequest(row rowScanner) (leave.Request, error) {
	var req leave.Request
	var start, end, status string
	err := row.Scan(&req.ID, &req.EmployeeID, &req.EmployeeName,
		&req.TypeID, &req.TypeCode, &req.TypeName,
		&start, &end, &req.Days, &status)
	if err != nil {
		return leave.Request{}, err
	}
	if d, ok := calendar.ParseDate(start); ok {
		req.Start = d
	}
	if d, ok := calendar.ParseDate(end); ok {
		req.End = d
	}
	req.Status = leave.Status(status)
	req.Category = leave.LeaveType{Code: req.TypeCode, Name: req.TypeName}.Category()
	return req, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueViolation matches on the driver's error text to avoid
// leaking the sqlite3 error type into callers.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
