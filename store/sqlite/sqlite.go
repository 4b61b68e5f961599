/*
Package sqlite provides a SQLite-backed implementation of the payroll ports.

PURPOSE:
  Implements payroll.Store (all six ports) plus the surrounding application's
  CRUD surface (employees, positions, pay periods, and the three upstream
  source tables). In production the same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

KEY TABLES:
  time_clock_entries:  Upstream clock punches (approval workflow owned)
  timesheet_entries:   Upstream manual timesheets
  overtime_requests:   Upstream overtime approvals
  work_records:        Canonical payroll rows (engine owned)
  sync_logs:           Execution audit records
  employees/positions: Directory data for position resolution
  pay_periods:         Payroll processing windows

DEDUP BACKSTOP:
  work_records carries UNIQUE(source_type, source_id). Even if two
  concurrent executions both pass the fetch-time dedup filter, the second
  insert fails with payroll.ErrDuplicateSourceRecord instead of creating
  a duplicate row.

REVERSAL:
  Work records carry sync_log_id, so reversal deletes the exact set of
  rows an execution created rather than guessing by time window.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := payroll.NewEngine(store)

SEE ALSO:
  - payroll/store.go: Port definitions
  - payroll/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/payroll-sync/payroll"
)

const dateFormat = "2006-01-02"

// Store implements all payroll ports using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ payroll.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
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

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_company
		ON employees(company_id);

	-- Positions
	CREATE TABLE IF NOT EXISTS positions (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		title TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		is_primary BOOLEAN DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_positions_employee
		ON positions(employee_id, is_primary);

	-- Pay periods
	CREATE TABLE IF NOT EXISTS pay_periods (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pay_periods_company
		ON pay_periods(company_id, start_date);

	-- Time clock entries (upstream source)
	CREATE TABLE IF NOT EXISTS time_clock_entries (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		clock_in TEXT NOT NULL,
		clock_out TEXT,
		status TEXT NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_time_clock_company_date
		ON time_clock_entries(company_id, date);

	-- Timesheet entries (upstream source)
	CREATE TABLE IF NOT EXISTS timesheet_entries (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		hours TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_timesheets_company_date
		ON timesheet_entries(company_id, date);

	-- Overtime requests (upstream source)
	CREATE TABLE IF NOT EXISTS overtime_requests (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		approved_hours TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_overtime_company_date
		ON overtime_requests(company_id, date);

	-- Work records (canonical payroll rows, engine owned)
	CREATE TABLE IF NOT EXISTS work_records (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		regular_hours TEXT NOT NULL,
		overtime_hours TEXT NOT NULL,
		source_type TEXT NOT NULL,
		source_id TEXT NOT NULL,
		position_id TEXT,
		sync_log_id TEXT NOT NULL,
		note TEXT,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: the dedup invariant. At most one work record may exist per
	-- (source_type, source_id) pair, even under concurrent executions.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_work_records_source
		ON work_records(source_type, source_id);

	CREATE INDEX IF NOT EXISTS idx_work_records_company_date
		ON work_records(company_id, date);
	CREATE INDEX IF NOT EXISTS idx_work_records_sync_log
		ON work_records(sync_log_id);

	-- Sync logs (execution audit)
	CREATE TABLE IF NOT EXISTS sync_logs (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		pay_period_id TEXT NOT NULL,
		status TEXT NOT NULL,
		options_json TEXT NOT NULL,
		employees_processed INTEGER DEFAULT 0,
		records_created INTEGER DEFAULT 0,
		regular_hours TEXT NOT NULL DEFAULT '0',
		overtime_hours TEXT NOT NULL DEFAULT '0',
		started_at TEXT NOT NULL,
		completed_at TEXT,
		reversed_at TEXT,
		created_by TEXT,
		reversed_by TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sync_logs_company
		ON sync_logs(company_id, started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_sync_logs_status
		ON sync_logs(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TIME CLOCK ENTRIES (payroll.TimeClockStore + CRUD)
// =============================================================================

// SaveTimeClockEntry inserts or updates a clock entry.
func (s *Store) SaveTimeClockEntry(ctx context.Context, e payroll.TimeClockEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var clockOut *string
	if e.ClockOut != nil {
		t := e.ClockOut.Format(time.RFC3339)
		clockOut = &t
	}

	query := `
		INSERT INTO time_clock_entries (id, company_id, employee_id, date, clock_in, clock_out, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			clock_out = excluded.clock_out,
			status = excluded.status
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.CompanyID, e.EmployeeID,
		e.Date.Format(dateFormat),
		e.ClockIn.Format(time.RFC3339),
		clockOut,
		string(e.Status),
	)
	return err
}

// ListTimeClockEntries returns entries for a company in a period, any status.
func (s *Store) ListTimeClockEntries(ctx context.Context, companyID string, period payroll.Period) ([]payroll.TimeClockEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, company_id, employee_id, date, clock_in, clock_out, status
		FROM time_clock_entries
		WHERE company_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, clock_in ASC
	`

	rows, err := s.db.QueryContext(ctx, query, companyID,
		period.Start.Format(dateFormat), period.End.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query time clock entries: %w", err)
	}
	defer rows.Close()

	var entries []payroll.TimeClockEntry
	for rows.Next() {
		var (
			e        payroll.TimeClockEntry
			date     string
			clockIn  string
			clockOut sql.NullString
			status   string
		)
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.EmployeeID, &date, &clockIn, &clockOut, &status); err != nil {
			return nil, fmt.Errorf("failed to scan time clock entry: %w", err)
		}
		e.Date, _ = time.Parse(dateFormat, date)
		e.ClockIn, _ = time.Parse(time.RFC3339, clockIn)
		if clockOut.Valid {
			t, _ := time.Parse(time.RFC3339, clockOut.String)
			e.ClockOut = &t
		}
		e.Status = payroll.ApprovalStatus(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// TIMESHEET ENTRIES (payroll.TimesheetStore + CRUD)
// =============================================================================

// SaveTimesheetEntry inserts or updates a timesheet entry.
func (s *Store) SaveTimesheetEntry(ctx context.Context, e payroll.TimesheetEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO timesheet_entries (id, company_id, employee_id, date, hours, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			hours = excluded.hours,
			status = excluded.status
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.CompanyID, e.EmployeeID,
		e.Date.Format(dateFormat),
		e.Hours.Value.String(),
		string(e.Status),
	)
	return err
}

func (s *Store) ListTimesheetEntries(ctx context.Context, companyID string, period payroll.Period) ([]payroll.TimesheetEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, company_id, employee_id, date, hours, status
		FROM timesheet_entries
		WHERE company_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, companyID,
		period.Start.Format(dateFormat), period.End.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query timesheet entries: %w", err)
	}
	defer rows.Close()

	var entries []payroll.TimesheetEntry
	for rows.Next() {
		var (
			e      payroll.TimesheetEntry
			date   string
			hours  string
			status string
		)
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.EmployeeID, &date, &hours, &status); err != nil {
			return nil, fmt.Errorf("failed to scan timesheet entry: %w", err)
		}
		e.Date, _ = time.Parse(dateFormat, date)
		e.Hours = payroll.MustParseHours(hours)
		e.Status = payroll.ApprovalStatus(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// OVERTIME REQUESTS (payroll.OvertimeRequestStore + CRUD)
// =============================================================================

// SaveOvertimeRequest inserts or updates an overtime request.
func (s *Store) SaveOvertimeRequest(ctx context.Context, r payroll.OvertimeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO overtime_requests (id, company_id, employee_id, date, approved_hours, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			approved_hours = excluded.approved_hours,
			status = excluded.status
	`

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.CompanyID, r.EmployeeID,
		r.Date.Format(dateFormat),
		r.ApprovedHours.Value.String(),
		string(r.Status),
	)
	return err
}

func (s *Store) ListOvertimeRequests(ctx context.Context, companyID string, period payroll.Period) ([]payroll.OvertimeRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, company_id, employee_id, date, approved_hours, status
		FROM overtime_requests
		WHERE company_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, companyID,
		period.Start.Format(dateFormat), period.End.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query overtime requests: %w", err)
	}
	defer rows.Close()

	var requests []payroll.OvertimeRequest
	for rows.Next() {
		var (
			r      payroll.OvertimeRequest
			date   string
			hours  string
			status string
		)
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.EmployeeID, &date, &hours, &status); err != nil {
			return nil, fmt.Errorf("failed to scan overtime request: %w", err)
		}
		r.Date, _ = time.Parse(dateFormat, date)
		r.ApprovedHours = payroll.MustParseHours(hours)
		r.Status = payroll.ApprovalStatus(status)
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// =============================================================================
// WORK RECORDS (payroll.WorkRecordStore)
// =============================================================================

// InsertWorkRecord persists one canonical row. The unique index on
// (source_type, source_id) is the dedup backstop.
func (s *Store) InsertWorkRecord(ctx context.Context, rec payroll.WorkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO work_records
		(id, company_id, employee_id, date, regular_hours, overtime_hours,
		 source_type, source_id, position_id, sync_log_id, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.CompanyID, rec.EmployeeID,
		rec.Date.Format(dateFormat),
		rec.RegularHours.Value.String(),
		rec.OvertimeHours.Value.String(),
		string(rec.Source),
		rec.SourceID,
		nullString(rec.PositionID),
		rec.SyncLogID,
		nullString(rec.Note),
		rec.CreatedAt.Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return payroll.ErrDuplicateSourceRecord
		}
		return fmt.Errorf("failed to insert work record: %w", err)
	}
	return nil
}

// ExistingSourceIDs returns which candidate ids already link a work record.
// One batch query over the full candidate list.
func (s *Store) ExistingSourceIDs(ctx context.Context, source payroll.SourceType, ids []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing := make(map[string]bool)
	if len(ids) == 0 {
		return existing, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf(
		"SELECT source_id FROM work_records WHERE source_type = ? AND source_id IN (%s)",
		placeholders,
	)

	args := make([]any, 0, len(ids)+1)
	args = append(args, string(source))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing source ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

// DeleteBySyncLog removes every work record a given execution created.
func (s *Store) DeleteBySyncLog(ctx context.Context, syncLogID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM work_records WHERE sync_log_id = ?", syncLogID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete work records: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ListWorkRecords returns canonical rows for a company in a period.
func (s *Store) ListWorkRecords(ctx context.Context, companyID string, period payroll.Period) ([]payroll.WorkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, company_id, employee_id, date, regular_hours, overtime_hours,
		       source_type, source_id, position_id, sync_log_id, note, created_at
		FROM work_records
		WHERE company_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, employee_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, companyID,
		period.Start.Format(dateFormat), period.End.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to query work records: %w", err)
	}
	defer rows.Close()

	var records []payroll.WorkRecord
	for rows.Next() {
		rec, err := scanWorkRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanWorkRecord(rows *sql.Rows) (payroll.WorkRecord, error) {
	var (
		rec        payroll.WorkRecord
		date       string
		regular    string
		overtime   string
		sourceType string
		positionID sql.NullString
		note       sql.NullString
		createdAt  string
	)

	err := rows.Scan(
		&rec.ID, &rec.CompanyID, &rec.EmployeeID, &date, &regular, &overtime,
		&sourceType, &rec.SourceID, &positionID, &rec.SyncLogID, &note, &createdAt,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan work record: %w", err)
	}

	rec.Date, _ = time.Parse(dateFormat, date)
	rec.RegularHours = payroll.MustParseHours(regular)
	rec.OvertimeHours = payroll.MustParseHours(overtime)
	rec.Source = payroll.SourceType(sourceType)
	rec.PositionID = positionID.String
	rec.Note = note.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return rec, nil
}

// =============================================================================
// SYNC LOGS (payroll.SyncLogStore)
// =============================================================================

// CreateSyncLog writes a new sync log row with its options snapshot.
func (s *Store) CreateSyncLog(ctx context.Context, log payroll.SyncLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	optionsJSON, err := json.Marshal(log.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal sync options: %w", err)
	}

	query := `
		INSERT INTO sync_logs
		(id, company_id, pay_period_id, status, options_json,
		 employees_processed, records_created, regular_hours, overtime_hours,
		 started_at, completed_at, reversed_at, created_by, reversed_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		log.ID, log.CompanyID, log.PayPeriodID, string(log.Status), string(optionsJSON),
		log.EmployeesProcessed, log.RecordsCreated,
		log.RegularHours.Value.String(), log.OvertimeHours.Value.String(),
		log.StartedAt.Format(time.RFC3339),
		nullTime(log.CompletedAt), nullTime(log.ReversedAt),
		nullString(log.CreatedBy), nullString(log.ReversedBy),
	)
	if err != nil {
		return fmt.Errorf("failed to create sync log: %w", err)
	}
	return nil
}

// UpdateSyncLog persists the log's current state.
func (s *Store) UpdateSyncLog(ctx context.Context, log payroll.SyncLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE sync_logs SET
			status = ?,
			employees_processed = ?,
			records_created = ?,
			regular_hours = ?,
			overtime_hours = ?,
			completed_at = ?,
			reversed_at = ?,
			reversed_by = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		string(log.Status),
		log.EmployeesProcessed, log.RecordsCreated,
		log.RegularHours.Value.String(), log.OvertimeHours.Value.String(),
		nullTime(log.CompletedAt), nullTime(log.ReversedAt),
		nullString(log.ReversedBy),
		log.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sync log: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payroll.ErrSyncLogNotFound
	}
	return nil
}

// GetSyncLog returns a sync log by id, or nil when absent.
func (s *Store) GetSyncLog(ctx context.Context, id string) (*payroll.SyncLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs, err := s.querySyncLogs(ctx, syncLogSelect+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, nil
	}
	return &logs[0], nil
}

// ListSyncLogs returns the most recent sync logs for a company, newest first.
func (s *Store) ListSyncLogs(ctx context.Context, companyID string, limit int) ([]payroll.SyncLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.querySyncLogs(ctx,
		syncLogSelect+" WHERE company_id = ? ORDER BY started_at DESC LIMIT ?",
		companyID, limit)
}

// HasCompletedSync reports whether a pay period already has a completed
// (non-reversed) sync. Used by the auto-sync scheduler.
func (s *Store) HasCompletedSync(ctx context.Context, companyID, payPeriodID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sync_logs WHERE company_id = ? AND pay_period_id = ? AND status = ?",
		companyID, payPeriodID, string(payroll.SyncCompleted),
	).Scan(&count)
	return count > 0, err
}

const syncLogSelect = `
	SELECT id, company_id, pay_period_id, status, options_json,
	       employees_processed, records_created, regular_hours, overtime_hours,
	       started_at, completed_at, reversed_at, created_by, reversed_by
	FROM sync_logs`

func (s *Store) querySyncLogs(ctx context.Context, query string, args ...any) ([]payroll.SyncLog, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync logs: %w", err)
	}
	defer rows.Close()

	var logs []payroll.SyncLog
	for rows.Next() {
		var (
			log         payroll.SyncLog
			status      string
			optionsJSON string
			regular     string
			overtime    string
			startedAt   string
			completedAt sql.NullString
			reversedAt  sql.NullString
			createdBy   sql.NullString
			reversedBy  sql.NullString
		)

		err := rows.Scan(
			&log.ID, &log.CompanyID, &log.PayPeriodID, &status, &optionsJSON,
			&log.EmployeesProcessed, &log.RecordsCreated, &regular, &overtime,
			&startedAt, &completedAt, &reversedAt, &createdBy, &reversedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync log: %w", err)
		}

		log.Status = payroll.SyncStatus(status)
		if err := json.Unmarshal([]byte(optionsJSON), &log.Options); err != nil {
			return nil, fmt.Errorf("failed to decode options for sync log %s: %w", log.ID, err)
		}
		log.RegularHours = payroll.MustParseHours(regular)
		log.OvertimeHours = payroll.MustParseHours(overtime)
		log.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		if completedAt.Valid {
			t, _ := time.Parse(time.RFC3339, completedAt.String)
			log.CompletedAt = &t
		}
		if reversedAt.Valid {
			t, _ := time.Parse(time.RFC3339, reversedAt.String)
			log.ReversedAt = &t
		}
		log.CreatedBy = createdBy.String
		log.ReversedBy = reversedBy.String

		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// Employee represents an employee record.
type Employee struct {
	ID        string
	CompanyID string
	Name      string
	Email     string
	CreatedAt time.Time
}

// SaveEmployee inserts or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, company_id, name, email, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email
	`

	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.CompanyID, emp.Name, emp.Email,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var emp Employee
	var email sql.NullString
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, company_id, name, email, created_at FROM employees WHERE id = ?",
		id,
	).Scan(&emp.ID, &emp.CompanyID, &emp.Name, &email, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	emp.Email = email.String
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &emp, nil
}

// ListEmployees returns all employees for a company.
func (s *Store) ListEmployees(ctx context.Context, companyID string) ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, company_id, name, email, created_at FROM employees WHERE company_id = ? ORDER BY name",
		companyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var emp Employee
		var email sql.NullString
		var createdAt string
		if err := rows.Scan(&emp.ID, &emp.CompanyID, &emp.Name, &email, &createdAt); err != nil {
			return nil, err
		}
		emp.Email = email.String
		emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// =============================================================================
// POSITIONS (payroll.PositionStore + CRUD)
// =============================================================================

// SavePosition inserts or updates a position.
func (s *Store) SavePosition(ctx context.Context, p payroll.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var endDate *string
	if p.EndDate != nil {
		t := p.EndDate.Format(dateFormat)
		endDate = &t
	}

	query := `
		INSERT INTO positions (id, company_id, employee_id, title, start_date, end_date, is_primary)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			is_primary = excluded.is_primary
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.CompanyID, p.EmployeeID, p.Title,
		p.StartDate.Format(dateFormat), endDate, p.Primary,
	)
	return err
}

// ActivePositionID returns the employee's primary active position id as of
// the given date, or "" when none exists.
func (s *Store) ActivePositionID(ctx context.Context, employeeID string, asOf time.Time) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id FROM positions
		WHERE employee_id = ? AND is_primary = TRUE
		  AND start_date <= ?
		  AND (end_date IS NULL OR end_date >= ?)
		LIMIT 1
	`

	day := asOf.Format(dateFormat)
	var id string
	err := s.db.QueryRowContext(ctx, query, employeeID, day, day).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListPositionsByEmployee returns all positions for an employee.
func (s *Store) ListPositionsByEmployee(ctx context.Context, employeeID string) ([]payroll.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, company_id, employee_id, title, start_date, end_date, is_primary
		FROM positions
		WHERE employee_id = ?
		ORDER BY start_date DESC
	`

	rows, err := s.db.QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []payroll.Position
	for rows.Next() {
		var (
			p         payroll.Position
			startDate string
			endDate   sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.EmployeeID, &p.Title, &startDate, &endDate, &p.Primary); err != nil {
			return nil, err
		}
		p.StartDate, _ = time.Parse(dateFormat, startDate)
		if endDate.Valid {
			t, _ := time.Parse(dateFormat, endDate.String)
			p.EndDate = &t
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// =============================================================================
// PAY PERIODS
// =============================================================================

// PayPeriod is a payroll processing window.
type PayPeriod struct {
	ID        string
	CompanyID string
	Start     time.Time
	End       time.Time
	Status    string // open | closed
	CreatedAt time.Time
}

// SavePayPeriod inserts or updates a pay period.
func (s *Store) SavePayPeriod(ctx context.Context, p PayPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO pay_periods (id, company_id, start_date, end_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			status = excluded.status
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.CompanyID,
		p.Start.Format(dateFormat), p.End.Format(dateFormat),
		p.Status,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetPayPeriod retrieves a pay period by ID.
func (s *Store) GetPayPeriod(ctx context.Context, id string) (*PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p PayPeriod
	var start, end, createdAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, company_id, start_date, end_date, status, created_at FROM pay_periods WHERE id = ?",
		id,
	).Scan(&p.ID, &p.CompanyID, &start, &end, &p.Status, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Start, _ = time.Parse(dateFormat, start)
	p.End, _ = time.Parse(dateFormat, end)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

// ListPayPeriods returns pay periods for a company, newest first.
func (s *Store) ListPayPeriods(ctx context.Context, companyID string) ([]PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPayPeriods(ctx,
		"SELECT id, company_id, start_date, end_date, status, created_at FROM pay_periods WHERE company_id = ? ORDER BY start_date DESC",
		companyID,
	)
}

// ListClosedPayPeriods returns all closed pay periods across companies.
// Used by the auto-sync scheduler.
func (s *Store) ListClosedPayPeriods(ctx context.Context) ([]PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPayPeriods(ctx,
		"SELECT id, company_id, start_date, end_date, status, created_at FROM pay_periods WHERE status = 'closed' ORDER BY start_date ASC",
	)
}

func (s *Store) queryPayPeriods(ctx context.Context, query string, args ...any) ([]PayPeriod, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []PayPeriod
	for rows.Next() {
		var p PayPeriod
		var start, end, createdAt string
		if err := rows.Scan(&p.ID, &p.CompanyID, &start, &end, &p.Status, &createdAt); err != nil {
			return nil, err
		}
		p.Start, _ = time.Parse(dateFormat, start)
		p.End, _ = time.Parse(dateFormat, end)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"work_records", "sync_logs",
		"time_clock_entries", "timesheet_entries", "overtime_requests",
		"positions", "employees", "pay_periods",
	}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
