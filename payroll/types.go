/*
Package payroll implements the time-to-payroll reconciliation engine.

PURPOSE:
  Merges three independently-approved sources of worked-hours data
  (time-clock punches, timesheet entries, overtime requests) into a
  single set of canonical work records for a pay period, without
  double-counting, applying configurable rounding and overtime
  splitting, and leaving a reversible audit trail.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours: A worked-hours quantity backed by decimal.Decimal
  - SourceType: Which upstream system produced a record
  - WorkHourRecord: Normalized input projection from any source
  - WorkRecord: Canonical payroll output row (one per source record)
  - SyncOptions: Per-run configuration, passed by value everywhere
  - SyncLog: Append-style audit record of an execution

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all hour arithmetic, never float math
  2. Dedup: at most one WorkRecord per (source type, source record id)
  3. Auditability: every execution creates a SyncLog; reversal is tracked
  4. Explicit config: SyncOptions is a plain struct threaded through calls

SEE ALSO:
  - rounding.go: Rounding rules
  - split.go: Regular/overtime split
  - engine.go: Preview and execute entry points
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS - Worked-hours quantity
// =============================================================================

// Hours is a worked-hours value. Backed by decimal.Decimal so rounding
// and splitting never accumulate floating-point error.
type Hours struct {
	Value decimal.Decimal
}

func NewHours(v float64) Hours {
	return Hours{Value: decimal.NewFromFloat(v)}
}

func ZeroHours() Hours {
	return Hours{Value: decimal.Zero}
}

// HoursBetween returns the elapsed hours from start to end.
func HoursBetween(start, end time.Time) Hours {
	minutes := end.Sub(start).Minutes()
	return Hours{Value: decimal.NewFromFloat(minutes).Div(decimal.NewFromInt(60))}
}

func (h Hours) Add(other Hours) Hours        { return Hours{Value: h.Value.Add(other.Value)} }
func (h Hours) Sub(other Hours) Hours        { return Hours{Value: h.Value.Sub(other.Value)} }
func (h Hours) IsZero() bool                 { return h.Value.IsZero() }
func (h Hours) IsNegative() bool             { return h.Value.IsNegative() }
func (h Hours) GreaterThan(other Hours) bool { return h.Value.GreaterThan(other.Value) }
func (h Hours) LessThan(other Hours) bool    { return h.Value.LessThan(other.Value) }
func (h Hours) Equal(other Hours) bool       { return h.Value.Equal(other.Value) }
func (h Hours) Float64() float64             { f, _ := h.Value.Float64(); return f }
func (h Hours) String() string               { return h.Value.String() }

func (h Hours) Min(other Hours) Hours {
	if h.LessThan(other) {
		return h
	}
	return other
}

// MustParseHours parses a decimal string, returning zero hours on failure.
func MustParseHours(s string) Hours {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroHours()
	}
	return Hours{Value: d}
}

// =============================================================================
// SOURCE TYPES
// =============================================================================

// SourceType identifies which upstream system produced a worked-hours record.
type SourceType string

const (
	SourceTimeClock       SourceType = "time_clock"
	SourceTimesheet       SourceType = "timesheet"
	SourceOvertimeRequest SourceType = "overtime_request"
)

// Sources lists all source types in processing order.
func Sources() []SourceType {
	return []SourceType{SourceTimeClock, SourceTimesheet, SourceOvertimeRequest}
}

// =============================================================================
// WORK HOUR RECORD - Normalized input from any source
// =============================================================================

// WorkHourRecord is the normalized projection of one approved source record,
// produced at the fetch boundary. Immutable once fetched; the upstream
// approval workflows own the underlying rows.
type WorkHourRecord struct {
	EmployeeID string
	Date       time.Time // the work-day this record is attributed to
	Hours      Hours     // raw approved hours, before rounding
	Source     SourceType
	SourceID   string // unique id of the originating source row
}

// =============================================================================
// WORK RECORD - Canonical payroll output
// =============================================================================

// WorkRecord is one canonical payroll row, created exclusively by
// ExecuteSync and deleted exclusively by ReverseSync.
//
// INVARIANT: at most one WorkRecord exists per (Source, SourceID) pair.
type WorkRecord struct {
	ID            string
	CompanyID     string
	EmployeeID    string
	Date          time.Time
	RegularHours  Hours
	OvertimeHours Hours
	Source        SourceType
	SourceID      string // link back to exactly one source row
	PositionID    string // employee's primary active position; empty if unresolved
	SyncLogID     string // the execution that created this row
	Note          string
	CreatedAt     time.Time
}

// =============================================================================
// SYNC OPTIONS - Per-run configuration
// =============================================================================

// SyncOptions configures a single preview or execute run. It is passed by
// value through every call and serialized as the SyncLog options snapshot.
type SyncOptions struct {
	IncludeTimeClock        bool `json:"include_time_clock"`
	IncludeTimesheets       bool `json:"include_timesheets"`
	IncludeOvertimeRequests bool `json:"include_overtime_requests"`

	// Hours above this per work-day are classified overtime. Applied per
	// source record, not per employee-day aggregate.
	OvertimeThresholdPerDay float64 `json:"overtime_threshold_per_day"`

	// Accepted but not consulted by the split; reserved for a weekly
	// aggregation rule.
	OvertimeThresholdPerWeek float64 `json:"overtime_threshold_per_week"`

	RoundingRule RoundingRule `json:"rounding_rule"`
}

// DefaultSyncOptions returns the options the UI presents by default:
// all sources enabled, 8h daily threshold, no rounding.
func DefaultSyncOptions() SyncOptions {
	return SyncOptions{
		IncludeTimeClock:        true,
		IncludeTimesheets:       true,
		IncludeOvertimeRequests: true,
		OvertimeThresholdPerDay: 8,
		RoundingRule:            RoundNone,
	}
}

// DailyThreshold returns the per-day overtime threshold as Hours.
func (o SyncOptions) DailyThreshold() Hours {
	return NewHours(o.OvertimeThresholdPerDay)
}

// Validate rejects option values the split cannot safely apply. A negative
// threshold would make min(hours, threshold) negative.
func (o SyncOptions) Validate() error {
	if o.OvertimeThresholdPerDay < 0 || o.OvertimeThresholdPerWeek < 0 {
		return ErrInvalidThreshold
	}
	return nil
}

// Enabled reports whether a source participates in this run.
func (o SyncOptions) Enabled(source SourceType) bool {
	switch source {
	case SourceTimeClock:
		return o.IncludeTimeClock
	case SourceTimesheet:
		return o.IncludeTimesheets
	case SourceOvertimeRequest:
		return o.IncludeOvertimeRequests
	default:
		return false
	}
}

// =============================================================================
// PERIOD - Pay period date range
// =============================================================================

// Period is the contiguous date range a sync run covers, inclusive on
// both ends.
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) Valid() bool {
	return !p.End.Before(p.Start)
}

func (p Period) String() string {
	return "[" + p.Start.Format("2006-01-02") + ", " + p.End.Format("2006-01-02") + "]"
}

// =============================================================================
// SYNC LOG - Audit record of one execution
// =============================================================================

// SyncStatus is the lifecycle state of a SyncLog.
//
// State machine:
//
//	processing -> completed -> reversed
//	processing -> failed
//
// No other transitions are valid. completed and failed are terminal except
// for the single completed -> reversed transition.
type SyncStatus string

const (
	SyncProcessing SyncStatus = "processing"
	SyncCompleted  SyncStatus = "completed"
	SyncFailed     SyncStatus = "failed"
	SyncReversed   SyncStatus = "reversed"
)

// CanTransition reports whether moving from s to next is a valid transition.
func (s SyncStatus) CanTransition(next SyncStatus) bool {
	switch s {
	case SyncProcessing:
		return next == SyncCompleted || next == SyncFailed
	case SyncCompleted:
		return next == SyncReversed
	default:
		return false
	}
}

// SyncLog is the audit record of one ExecuteSync run. Created with status
// processing, finalized to completed (or failed), and optionally transitioned
// to reversed by ReverseSync. Never mutated after reaching a terminal state
// except that single allowed transition.
type SyncLog struct {
	ID          string
	CompanyID   string
	PayPeriodID string
	Status      SyncStatus
	Options     SyncOptions // snapshot of the run's configuration

	EmployeesProcessed int
	RecordsCreated     int
	RegularHours       Hours
	OvertimeHours      Hours

	StartedAt   time.Time
	CompletedAt *time.Time
	ReversedAt  *time.Time

	CreatedBy  string
	ReversedBy string
}

// Transition moves the log to the next status, enforcing the state machine.
func (l *SyncLog) Transition(next SyncStatus) error {
	if !l.Status.CanTransition(next) {
		return &TransitionError{SyncLogID: l.ID, From: l.Status, To: next}
	}
	l.Status = next
	return nil
}

// =============================================================================
// RESULTS
// =============================================================================

// SyncSummary aggregates one employee's contribution to a run.
type SyncSummary struct {
	EmployeeID    string
	RegularHours  Hours
	OvertimeHours Hours
	TotalHours    Hours
	SourceCount   int          // number of contributing raw records
	Sources       []SourceType // distinct, order of first appearance
}

// RecordFailure captures a single source record that could not be written.
// The run continues past failures; they are reported, not retried.
type RecordFailure struct {
	Source     SourceType
	SourceID   string
	EmployeeID string
	Err        string
}

// SyncResult mirrors the final SyncLog counts plus per-employee summaries.
type SyncResult struct {
	SyncLogID          string
	EmployeesProcessed int
	RecordsCreated     int
	RegularHours       Hours
	OvertimeHours      Hours
	Summaries          []SyncSummary
	Failures           []RecordFailure
}
