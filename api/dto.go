/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/types.go: Domain types these map to
*/
package api

import (
	"time"

	"github.com/warp/payroll-sync/payroll"
	"github.com/warp/payroll-sync/store/sqlite"
)

// =============================================================================
// SYNC REQUEST/RESPONSE TYPES
// =============================================================================

// SyncRequest addresses a preview or execute run. The period may be given
// explicitly or resolved from pay_period_id.
type SyncRequest struct {
	CompanyID   string               `json:"company_id"`
	PayPeriodID string               `json:"pay_period_id"`
	PeriodStart string               `json:"period_start,omitempty"` // YYYY-MM-DD
	PeriodEnd   string               `json:"period_end,omitempty"`   // YYYY-MM-DD
	Options     *payroll.SyncOptions `json:"options,omitempty"`      // nil = defaults
	ActorID     string               `json:"actor_id,omitempty"`
}

// SyncSummaryDTO is one employee's aggregate for a run.
type SyncSummaryDTO struct {
	EmployeeID    string   `json:"employee_id"`
	RegularHours  float64  `json:"regular_hours"`
	OvertimeHours float64  `json:"overtime_hours"`
	TotalHours    float64  `json:"total_hours"`
	SourceCount   int      `json:"source_count"`
	Sources       []string `json:"sources"`
}

// SyncResultDTO mirrors the completed sync log plus summaries and failures.
type SyncResultDTO struct {
	SyncLogID          string             `json:"sync_log_id"`
	EmployeesProcessed int                `json:"employees_processed"`
	RecordsCreated     int                `json:"records_created"`
	RegularHours       float64            `json:"regular_hours"`
	OvertimeHours      float64            `json:"overtime_hours"`
	Summaries          []SyncSummaryDTO   `json:"summaries"`
	Failures           []RecordFailureDTO `json:"failures,omitempty"`
}

// RecordFailureDTO reports one source record that could not be written.
type RecordFailureDTO struct {
	Source     string `json:"source"`
	SourceID   string `json:"source_id"`
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

// SyncLogDTO represents a sync log in API responses.
type SyncLogDTO struct {
	ID                 string              `json:"id"`
	CompanyID          string              `json:"company_id"`
	PayPeriodID        string              `json:"pay_period_id"`
	Status             string              `json:"status"`
	Options            payroll.SyncOptions `json:"options"`
	EmployeesProcessed int                 `json:"employees_processed"`
	RecordsCreated     int                 `json:"records_created"`
	RegularHours       float64             `json:"regular_hours"`
	OvertimeHours      float64             `json:"overtime_hours"`
	StartedAt          string              `json:"started_at"`
	CompletedAt        *string             `json:"completed_at,omitempty"`
	ReversedAt         *string             `json:"reversed_at,omitempty"`
	CreatedBy          string              `json:"created_by,omitempty"`
	ReversedBy         string              `json:"reversed_by,omitempty"`
}

// ReverseRequest identifies who is reversing a sync.
type ReverseRequest struct {
	ActorID string `json:"actor_id,omitempty"`
}

// ReverseResultDTO reports a reversal outcome.
type ReverseResultDTO struct {
	SyncLogID      string `json:"sync_log_id"`
	RecordsDeleted int    `json:"records_deleted"`
}

// =============================================================================
// WORK RECORD TYPES
// =============================================================================

// WorkRecordDTO represents a canonical payroll row.
type WorkRecordDTO struct {
	ID            string  `json:"id"`
	CompanyID     string  `json:"company_id"`
	EmployeeID    string  `json:"employee_id"`
	Date          string  `json:"date"`
	RegularHours  float64 `json:"regular_hours"`
	OvertimeHours float64 `json:"overtime_hours"`
	SourceType    string  `json:"source_type"`
	SourceID      string  `json:"source_id"`
	PositionID    string  `json:"position_id,omitempty"`
	SyncLogID     string  `json:"sync_log_id"`
	Note          string  `json:"note,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// =============================================================================
// SOURCE CRUD TYPES
// =============================================================================

// TimeClockEntryDTO represents a clock punch pair.
type TimeClockEntryDTO struct {
	ID         string  `json:"id"`
	CompanyID  string  `json:"company_id"`
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	ClockIn    string  `json:"clock_in"`
	ClockOut   *string `json:"clock_out,omitempty"`
	Status     string  `json:"status"`
	Hours      float64 `json:"hours"` // derived from the punches
}

// TimesheetEntryDTO represents a manual timesheet entry.
type TimesheetEntryDTO struct {
	ID         string  `json:"id"`
	CompanyID  string  `json:"company_id"`
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	Hours      float64 `json:"hours"`
	Status     string  `json:"status"`
}

// OvertimeRequestDTO represents an approved-overtime request.
type OvertimeRequestDTO struct {
	ID            string  `json:"id"`
	CompanyID     string  `json:"company_id"`
	EmployeeID    string  `json:"employee_id"`
	Date          string  `json:"date"`
	ApprovedHours float64 `json:"approved_hours"`
	Status        string  `json:"status"`
}

// =============================================================================
// DIRECTORY TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// PositionDTO represents an employee's position.
type PositionDTO struct {
	ID         string  `json:"id"`
	CompanyID  string  `json:"company_id"`
	EmployeeID string  `json:"employee_id"`
	Title      string  `json:"title"`
	StartDate  string  `json:"start_date"`
	EndDate    *string `json:"end_date,omitempty"`
	Primary    bool    `json:"primary"`
}

// PayPeriodDTO represents a payroll processing window.
type PayPeriodDTO struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toSyncSummaryDTO(s payroll.SyncSummary) SyncSummaryDTO {
	sources := make([]string, len(s.Sources))
	for i, src := range s.Sources {
		sources[i] = string(src)
	}
	return SyncSummaryDTO{
		EmployeeID:    s.EmployeeID,
		RegularHours:  s.RegularHours.Float64(),
		OvertimeHours: s.OvertimeHours.Float64(),
		TotalHours:    s.TotalHours.Float64(),
		SourceCount:   s.SourceCount,
		Sources:       sources,
	}
}

func toSyncSummaryDTOs(summaries []payroll.SyncSummary) []SyncSummaryDTO {
	dtos := make([]SyncSummaryDTO, len(summaries))
	for i, s := range summaries {
		dtos[i] = toSyncSummaryDTO(s)
	}
	return dtos
}

func toSyncResultDTO(r *payroll.SyncResult) SyncResultDTO {
	failures := make([]RecordFailureDTO, len(r.Failures))
	for i, f := range r.Failures {
		failures[i] = RecordFailureDTO{
			Source:     string(f.Source),
			SourceID:   f.SourceID,
			EmployeeID: f.EmployeeID,
			Error:      f.Err,
		}
	}
	return SyncResultDTO{
		SyncLogID:          r.SyncLogID,
		EmployeesProcessed: r.EmployeesProcessed,
		RecordsCreated:     r.RecordsCreated,
		RegularHours:       r.RegularHours.Float64(),
		OvertimeHours:      r.OvertimeHours.Float64(),
		Summaries:          toSyncSummaryDTOs(r.Summaries),
		Failures:           failures,
	}
}

func toSyncLogDTO(l payroll.SyncLog) SyncLogDTO {
	dto := SyncLogDTO{
		ID:                 l.ID,
		CompanyID:          l.CompanyID,
		PayPeriodID:        l.PayPeriodID,
		Status:             string(l.Status),
		Options:            l.Options,
		EmployeesProcessed: l.EmployeesProcessed,
		RecordsCreated:     l.RecordsCreated,
		RegularHours:       l.RegularHours.Float64(),
		OvertimeHours:      l.OvertimeHours.Float64(),
		StartedAt:          l.StartedAt.Format(time.RFC3339),
		CreatedBy:          l.CreatedBy,
		ReversedBy:         l.ReversedBy,
	}
	if l.CompletedAt != nil {
		t := l.CompletedAt.Format(time.RFC3339)
		dto.CompletedAt = &t
	}
	if l.ReversedAt != nil {
		t := l.ReversedAt.Format(time.RFC3339)
		dto.ReversedAt = &t
	}
	return dto
}

func toWorkRecordDTO(rec payroll.WorkRecord) WorkRecordDTO {
	return WorkRecordDTO{
		ID:            rec.ID,
		CompanyID:     rec.CompanyID,
		EmployeeID:    rec.EmployeeID,
		Date:          rec.Date.Format("2006-01-02"),
		RegularHours:  rec.RegularHours.Float64(),
		OvertimeHours: rec.OvertimeHours.Float64(),
		SourceType:    string(rec.Source),
		SourceID:      rec.SourceID,
		PositionID:    rec.PositionID,
		SyncLogID:     rec.SyncLogID,
		Note:          rec.Note,
		CreatedAt:     rec.CreatedAt.Format(time.RFC3339),
	}
}

func toTimeClockEntryDTO(e payroll.TimeClockEntry) TimeClockEntryDTO {
	dto := TimeClockEntryDTO{
		ID:         e.ID,
		CompanyID:  e.CompanyID,
		EmployeeID: e.EmployeeID,
		Date:       e.Date.Format("2006-01-02"),
		ClockIn:    e.ClockIn.Format(time.RFC3339),
		Status:     string(e.Status),
		Hours:      e.WorkedHours().Float64(),
	}
	if e.ClockOut != nil {
		t := e.ClockOut.Format(time.RFC3339)
		dto.ClockOut = &t
	}
	return dto
}

func toEmployeeDTO(e sqlite.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:        e.ID,
		CompanyID: e.CompanyID,
		Name:      e.Name,
		Email:     e.Email,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

func toPayPeriodDTO(p sqlite.PayPeriod) PayPeriodDTO {
	return PayPeriodDTO{
		ID:        p.ID,
		CompanyID: p.CompanyID,
		StartDate: p.Start.Format("2006-01-02"),
		EndDate:   p.End.Format("2006-01-02"),
		Status:    p.Status,
	}
}
