/*
store.go - Persistence ports for the reconciliation engine

PURPOSE:
  Defines the interfaces between the engine and the database. The engine
  does not depend on any specific query language; anything that can express
  "filter by company + date range" and "filter by id membership" suffices.
  Different implementations can use SQLite, PostgreSQL, or in-memory storage.

PORTS:
  TimeClockStore:       Read time-clock punches (upstream, read-only)
  TimesheetStore:       Read timesheet entries (upstream, read-only)
  OvertimeRequestStore: Read overtime requests (upstream, read-only)
  WorkRecordStore:      Canonical payroll rows (engine-owned writes)
  SyncLogStore:         Execution audit records
  PositionStore:        Best-effort employee position lookup

OWNERSHIP:
  The three source tables are owned by upstream approval workflows; the
  engine only reads them. WorkRecords are created exclusively by ExecuteSync
  and deleted exclusively by ReverseSync. SyncLogs are written only by the
  owning execution or reversal call.

DEDUP BACKSTOP:
  Implementations must enforce uniqueness on (source type, source id) for
  work records and return ErrDuplicateSourceRecord on violation, so two
  concurrent executions of the same period cannot both claim a record.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - payroll/store/memory.go: In-memory for testing

SEE ALSO:
  - fetch.go: Source fetchers built on these ports
  - engine.go: Preview/execute/reverse built on these ports
*/
package payroll

import (
	"context"
	"time"
)

// =============================================================================
// APPROVAL STATUS - Upstream workflow state on source rows
// =============================================================================

type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// =============================================================================
// SOURCE ENTITIES - Rows as the upstream tables hold them
// =============================================================================

// TimeClockEntry is one clock-in/clock-out pair. Hours are derived, not stored.
type TimeClockEntry struct {
	ID         string
	CompanyID  string
	EmployeeID string
	Date       time.Time
	ClockIn    time.Time
	ClockOut   *time.Time // nil while still clocked in
	Status     ApprovalStatus
}

// WorkedHours returns the elapsed clock time, or zero if still clocked in.
func (e TimeClockEntry) WorkedHours() Hours {
	if e.ClockOut == nil {
		return ZeroHours()
	}
	return HoursBetween(e.ClockIn, *e.ClockOut)
}

// TimesheetEntry is one manually entered day of hours.
type TimesheetEntry struct {
	ID         string
	CompanyID  string
	EmployeeID string
	Date       time.Time
	Hours      Hours
	Status     ApprovalStatus
}

// OvertimeRequest is a pre-adjudicated block of overtime hours.
type OvertimeRequest struct {
	ID            string
	CompanyID     string
	EmployeeID    string
	Date          time.Time
	ApprovedHours Hours
	Status        ApprovalStatus
}

// Position is an employee's assignment to a role. The engine only needs
// the primary active one, and only best-effort.
type Position struct {
	ID         string
	CompanyID  string
	EmployeeID string
	Title      string
	StartDate  time.Time
	EndDate    *time.Time // nil = still active
	Primary    bool
}

// =============================================================================
// SOURCE PORTS - Read-only upstream access
// =============================================================================

type TimeClockStore interface {
	// ListTimeClockEntries returns all entries for the company whose date
	// falls within the period, regardless of status.
	ListTimeClockEntries(ctx context.Context, companyID string, period Period) ([]TimeClockEntry, error)
}

type TimesheetStore interface {
	ListTimesheetEntries(ctx context.Context, companyID string, period Period) ([]TimesheetEntry, error)
}

type OvertimeRequestStore interface {
	ListOvertimeRequests(ctx context.Context, companyID string, period Period) ([]OvertimeRequest, error)
}

// =============================================================================
// WORK RECORD PORT - Engine-owned canonical rows
// =============================================================================

type WorkRecordStore interface {
	// InsertWorkRecord persists one canonical row. Returns
	// ErrDuplicateSourceRecord if (Source, SourceID) already exists.
	InsertWorkRecord(ctx context.Context, rec WorkRecord) error

	// ExistingSourceIDs returns which of the candidate ids already appear
	// as a source link on a work record. One batch query, not per-record
	// lookups, so the dedup filter stays correct under concurrent re-runs.
	ExistingSourceIDs(ctx context.Context, source SourceType, ids []string) (map[string]bool, error)

	// DeleteBySyncLog removes every work record created by a given
	// execution. Returns the number of rows deleted.
	DeleteBySyncLog(ctx context.Context, syncLogID string) (int, error)

	// ListWorkRecords returns canonical rows for a company in a period.
	ListWorkRecords(ctx context.Context, companyID string, period Period) ([]WorkRecord, error)
}

// =============================================================================
// SYNC LOG PORT
// =============================================================================

type SyncLogStore interface {
	CreateSyncLog(ctx context.Context, log SyncLog) error

	// UpdateSyncLog persists the log's current state. Implementations may
	// assume only the owning execution/reversal call writes a given log.
	UpdateSyncLog(ctx context.Context, log SyncLog) error

	// GetSyncLog returns the log or (nil, nil) when absent.
	GetSyncLog(ctx context.Context, id string) (*SyncLog, error)

	// ListSyncLogs returns the most recent logs for a company, newest first.
	ListSyncLogs(ctx context.Context, companyID string, limit int) ([]SyncLog, error)
}

// =============================================================================
// POSITION PORT - Best-effort lookup
// =============================================================================

type PositionStore interface {
	// ActivePositionID returns the employee's primary active position id as
	// of the given date, or "" when none exists. A miss never blocks a write.
	ActivePositionID(ctx context.Context, employeeID string, asOf time.Time) (string, error)
}

// =============================================================================
// AGGREGATE - Everything the engine needs
// =============================================================================

// Store bundles all ports. Both the SQLite store and the in-memory store
// implement the whole set.
type Store interface {
	TimeClockStore
	TimesheetStore
	OvertimeRequestStore
	WorkRecordStore
	SyncLogStore
	PositionStore
}
