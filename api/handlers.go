/*
handlers.go - HTTP API handlers for the payroll sync engine

PURPOSE:
  Exposes the payroll synchronization engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Sync:
    POST   /api/sync/preview           Dry-run a sync (no writes)
    POST   /api/sync/execute           Run a sync for a pay period
    GET    /api/sync/history           Recent sync logs for a company
    GET    /api/sync/{id}              Get one sync log
    POST   /api/sync/{id}/reverse      Reverse a completed sync

  Work records:
    GET    /api/work-records           List canonical payroll rows

  Sources:
    GET    /api/time-clock             List time clock entries
    POST   /api/time-clock             Create/update a clock entry
    GET    /api/timesheets             List timesheet entries
    POST   /api/timesheets             Create/update a timesheet entry
    GET    /api/overtime-requests      List overtime requests
    POST   /api/overtime-requests      Create/update an overtime request

  Directory:
    GET    /api/employees              List employees for a company
    POST   /api/employees              Create/update employee
    GET    /api/employees/{id}         Get employee details
    GET    /api/employees/{id}/positions Positions held by an employee
    POST   /api/positions              Create/update a position
    GET    /api/pay-periods            List pay periods for a company
    POST   /api/pay-periods            Create/update a pay period

  Admin:
    POST   /api/admin/reset            Wipe all data (dev only)

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (engine, store)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Sync log / employee not found
  - 409: Conflict (already reversed, not reversible, duplicate source)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - payroll/engine.go: Sync orchestration
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/payroll-sync/payroll"
	"github.com/warp/payroll-sync/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *payroll.Engine
}

// NewHandler creates a new handler with the given store and engine.
func NewHandler(store *sqlite.Store, engine *payroll.Engine) *Handler {
	return &Handler{Store: store, Engine: engine}
}

// =============================================================================
// SYNC HANDLERS
// =============================================================================

// PreviewSync computes per-employee summaries without writing anything.
// POST /api/sync/preview
func (h *Handler) PreviewSync(w http.ResponseWriter, r *http.Request) {
	req, period, opts, ok := h.parseSyncRequest(w, r)
	if !ok {
		return
	}

	summaries, err := h.Engine.PreviewSync(r.Context(), req.CompanyID, req.PayPeriodID, period, opts)
	if err != nil {
		writeSyncError(w, "Preview failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toSyncSummaryDTOs(summaries))
}

// ExecuteSync runs a full sync and persists work records and a sync log.
// POST /api/sync/execute
func (h *Handler) ExecuteSync(w http.ResponseWriter, r *http.Request) {
	req, period, opts, ok := h.parseSyncRequest(w, r)
	if !ok {
		return
	}

	result, err := h.Engine.ExecuteSync(r.Context(), req.CompanyID, req.PayPeriodID, period, opts, req.ActorID)
	if err != nil {
		writeSyncError(w, "Sync failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toSyncResultDTO(result))
}

// SyncHistory returns recent sync logs for a company, newest first.
// GET /api/sync/history?company_id=X&limit=N
func (h *Handler) SyncHistory(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "company_id is required", nil)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, err := h.Engine.SyncHistory(r.Context(), companyID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sync logs", err)
		return
	}

	dtos := make([]SyncLogDTO, len(logs))
	for i, l := range logs {
		dtos[i] = toSyncLogDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSyncLog returns a single sync log by ID.
// GET /api/sync/{id}
func (h *Handler) GetSyncLog(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	log, err := h.Store.GetSyncLog(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get sync log", err)
		return
	}
	if log == nil {
		writeError(w, http.StatusNotFound, "Sync log not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toSyncLogDTO(*log))
}

// ReverseSync deletes all work records created by a completed sync.
// POST /api/sync/{id}/reverse
func (h *Handler) ReverseSync(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ReverseRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	deleted, err := h.Engine.ReverseSync(r.Context(), id, req.ActorID)
	if err != nil {
		writeSyncError(w, "Reversal failed", err)
		return
	}

	writeJSON(w, http.StatusOK, ReverseResultDTO{SyncLogID: id, RecordsDeleted: deleted})
}

// parseSyncRequest decodes a SyncRequest and resolves the pay period window.
// Returns ok=false after writing an error response.
func (h *Handler) parseSyncRequest(w http.ResponseWriter, r *http.Request) (SyncRequest, payroll.Period, payroll.SyncOptions, bool) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return req, payroll.Period{}, payroll.SyncOptions{}, false
	}
	if req.CompanyID == "" {
		writeError(w, http.StatusBadRequest, "company_id is required", nil)
		return req, payroll.Period{}, payroll.SyncOptions{}, false
	}

	period, err := h.resolvePeriod(r, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return req, payroll.Period{}, payroll.SyncOptions{}, false
	}

	opts := payroll.DefaultSyncOptions()
	if req.Options != nil {
		opts = *req.Options
	}
	if !opts.RoundingRule.Valid() {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Unknown rounding rule: %s", opts.RoundingRule), nil)
		return req, payroll.Period{}, payroll.SyncOptions{}, false
	}
	if err := opts.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid options", err)
		return req, payroll.Period{}, payroll.SyncOptions{}, false
	}

	return req, period, opts, true
}

// resolvePeriod prefers the pay period record; falls back to explicit dates.
func (h *Handler) resolvePeriod(r *http.Request, req SyncRequest) (payroll.Period, error) {
	if req.PayPeriodID != "" {
		pp, err := h.Store.GetPayPeriod(r.Context(), req.PayPeriodID)
		if err != nil {
			return payroll.Period{}, err
		}
		if pp != nil {
			return payroll.Period{Start: pp.Start, End: pp.End}, nil
		}
		// Unknown pay period ID is allowed when explicit dates are given:
		// callers may sync ad-hoc windows that have no pay_periods row.
	}

	start, err := time.Parse("2006-01-02", req.PeriodStart)
	if err != nil {
		return payroll.Period{}, fmt.Errorf("period_start: %w", err)
	}
	end, err := time.Parse("2006-01-02", req.PeriodEnd)
	if err != nil {
		return payroll.Period{}, fmt.Errorf("period_end: %w", err)
	}
	period := payroll.Period{Start: start, End: end}
	if !period.Valid() {
		return payroll.Period{}, payroll.ErrInvalidPeriod
	}
	return period, nil
}

// =============================================================================
// WORK RECORD HANDLERS
// =============================================================================

// ListWorkRecords returns canonical payroll rows for a company and window.
// GET /api/work-records?company_id=X&start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) ListWorkRecords(w http.ResponseWriter, r *http.Request) {
	companyID, period, ok := parseListQuery(w, r)
	if !ok {
		return
	}

	records, err := h.Store.ListWorkRecords(r.Context(), companyID, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list work records", err)
		return
	}

	dtos := make([]WorkRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toWorkRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SOURCE HANDLERS
// =============================================================================

// ListTimeClockEntries returns clock entries in a window.
// GET /api/time-clock?company_id=X&start=...&end=...
func (h *Handler) ListTimeClockEntries(w http.ResponseWriter, r *http.Request) {
	companyID, period, ok := parseListQuery(w, r)
	if !ok {
		return
	}

	entries, err := h.Store.ListTimeClockEntries(r.Context(), companyID, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list time clock entries", err)
		return
	}

	dtos := make([]TimeClockEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toTimeClockEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTimeClockEntry creates or updates a clock entry.
// POST /api/time-clock
func (h *Handler) CreateTimeClockEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID         string  `json:"id"`
		CompanyID  string  `json:"company_id"`
		EmployeeID string  `json:"employee_id"`
		Date       string  `json:"date"`
		ClockIn    string  `json:"clock_in"`
		ClockOut   *string `json:"clock_out"`
		Status     string  `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CompanyID == "" || req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "company_id and employee_id are required", nil)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	clockIn, err := time.Parse(time.RFC3339, req.ClockIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid clock_in", err)
		return
	}
	var clockOut *time.Time
	if req.ClockOut != nil {
		t, err := time.Parse(time.RFC3339, *req.ClockOut)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid clock_out", err)
			return
		}
		clockOut = &t
	}

	entry := payroll.TimeClockEntry{
		ID:         orNewID(req.ID),
		CompanyID:  req.CompanyID,
		EmployeeID: req.EmployeeID,
		Date:       date,
		ClockIn:    clockIn,
		ClockOut:   clockOut,
		Status:     approvalStatus(req.Status),
	}
	if err := h.Store.SaveTimeClockEntry(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save time clock entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, toTimeClockEntryDTO(entry))
}

// ListTimesheetEntries returns timesheet rows in a window.
// GET /api/timesheets?company_id=X&start=...&end=...
func (h *Handler) ListTimesheetEntries(w http.ResponseWriter, r *http.Request) {
	companyID, period, ok := parseListQuery(w, r)
	if !ok {
		return
	}

	entries, err := h.Store.ListTimesheetEntries(r.Context(), companyID, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list timesheet entries", err)
		return
	}

	dtos := make([]TimesheetEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = TimesheetEntryDTO{
			ID:         e.ID,
			CompanyID:  e.CompanyID,
			EmployeeID: e.EmployeeID,
			Date:       e.Date.Format("2006-01-02"),
			Hours:      e.Hours.Float64(),
			Status:     string(e.Status),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTimesheetEntry creates or updates a timesheet entry.
// POST /api/timesheets
func (h *Handler) CreateTimesheetEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID         string  `json:"id"`
		CompanyID  string  `json:"company_id"`
		EmployeeID string  `json:"employee_id"`
		Date       string  `json:"date"`
		Hours      float64 `json:"hours"`
		Status     string  `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CompanyID == "" || req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "company_id and employee_id are required", nil)
		return
	}
	if req.Hours < 0 {
		writeError(w, http.StatusBadRequest, "hours must not be negative", nil)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	entry := payroll.TimesheetEntry{
		ID:         orNewID(req.ID),
		CompanyID:  req.CompanyID,
		EmployeeID: req.EmployeeID,
		Date:       date,
		Hours:      payroll.NewHours(req.Hours),
		Status:     approvalStatus(req.Status),
	}
	if err := h.Store.SaveTimesheetEntry(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save timesheet entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, TimesheetEntryDTO{
		ID:         entry.ID,
		CompanyID:  entry.CompanyID,
		EmployeeID: entry.EmployeeID,
		Date:       entry.Date.Format("2006-01-02"),
		Hours:      entry.Hours.Float64(),
		Status:     string(entry.Status),
	})
}

// ListOvertimeRequests returns overtime requests in a window.
// GET /api/overtime-requests?company_id=X&start=...&end=...
func (h *Handler) ListOvertimeRequests(w http.ResponseWriter, r *http.Request) {
	companyID, period, ok := parseListQuery(w, r)
	if !ok {
		return
	}

	requests, err := h.Store.ListOvertimeRequests(r.Context(), companyID, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list overtime requests", err)
		return
	}

	dtos := make([]OvertimeRequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = OvertimeRequestDTO{
			ID:            req.ID,
			CompanyID:     req.CompanyID,
			EmployeeID:    req.EmployeeID,
			Date:          req.Date.Format("2006-01-02"),
			ApprovedHours: req.ApprovedHours.Float64(),
			Status:        string(req.Status),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateOvertimeRequest creates or updates an overtime request.
// POST /api/overtime-requests
func (h *Handler) CreateOvertimeRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID            string  `json:"id"`
		CompanyID     string  `json:"company_id"`
		EmployeeID    string  `json:"employee_id"`
		Date          string  `json:"date"`
		ApprovedHours float64 `json:"approved_hours"`
		Status        string  `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CompanyID == "" || req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "company_id and employee_id are required", nil)
		return
	}
	if req.ApprovedHours < 0 {
		writeError(w, http.StatusBadRequest, "approved_hours must not be negative", nil)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	request := payroll.OvertimeRequest{
		ID:            orNewID(req.ID),
		CompanyID:     req.CompanyID,
		EmployeeID:    req.EmployeeID,
		Date:          date,
		ApprovedHours: payroll.NewHours(req.ApprovedHours),
		Status:        approvalStatus(req.Status),
	}
	if err := h.Store.SaveOvertimeRequest(r.Context(), request); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save overtime request", err)
		return
	}

	writeJSON(w, http.StatusCreated, OvertimeRequestDTO{
		ID:            request.ID,
		CompanyID:     request.CompanyID,
		EmployeeID:    request.EmployeeID,
		Date:          request.Date.Format("2006-01-02"),
		ApprovedHours: request.ApprovedHours.Float64(),
		Status:        string(request.Status),
	})
}

// =============================================================================
// DIRECTORY HANDLERS
// =============================================================================

// ListEmployees returns all employees for a company.
// GET /api/employees?company_id=X
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "company_id is required", nil)
		return
	}

	employees, err := h.Store.ListEmployees(r.Context(), companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates or updates an employee.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID        string `json:"id"`
		CompanyID string `json:"company_id"`
		Name      string `json:"name"`
		Email     string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CompanyID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "company_id and name are required", nil)
		return
	}

	emp := sqlite.Employee{
		ID:        orNewID(req.ID),
		CompanyID: req.CompanyID,
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetEmployee returns a single employee.
// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// ListEmployeePositions returns all positions held by an employee.
// GET /api/employees/{id}/positions
func (h *Handler) ListEmployeePositions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	positions, err := h.Store.ListPositionsByEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list positions", err)
		return
	}

	dtos := make([]PositionDTO, len(positions))
	for i, p := range positions {
		dto := PositionDTO{
			ID:         p.ID,
			CompanyID:  p.CompanyID,
			EmployeeID: p.EmployeeID,
			Title:      p.Title,
			StartDate:  p.StartDate.Format("2006-01-02"),
			Primary:    p.Primary,
		}
		if p.EndDate != nil {
			s := p.EndDate.Format("2006-01-02")
			dto.EndDate = &s
		}
		dtos[i] = dto
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePosition creates or updates a position.
// POST /api/positions
func (h *Handler) CreatePosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID         string  `json:"id"`
		CompanyID  string  `json:"company_id"`
		EmployeeID string  `json:"employee_id"`
		Title      string  `json:"title"`
		StartDate  string  `json:"start_date"`
		EndDate    *string `json:"end_date"`
		Primary    bool    `json:"primary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CompanyID == "" || req.EmployeeID == "" {
		writeError(w, http.StatusBadRequest, "company_id and employee_id are required", nil)
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	var end *time.Time
	if req.EndDate != nil {
		t, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date", err)
			return
		}
		end = &t
	}

	pos := payroll.Position{
		ID:         orNewID(req.ID),
		CompanyID:  req.CompanyID,
		EmployeeID: req.EmployeeID,
		Title:      req.Title,
		StartDate:  start,
		EndDate:    end,
		Primary:    req.Primary,
	}
	if err := h.Store.SavePosition(r.Context(), pos); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save position", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": pos.ID})
}

// ListPayPeriods returns all pay periods for a company.
// GET /api/pay-periods?company_id=X
func (h *Handler) ListPayPeriods(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "company_id is required", nil)
		return
	}

	periods, err := h.Store.ListPayPeriods(r.Context(), companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pay periods", err)
		return
	}

	dtos := make([]PayPeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = toPayPeriodDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePayPeriod creates or updates a pay period.
// POST /api/pay-periods
func (h *Handler) CreatePayPeriod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID        string `json:"id"`
		CompanyID string `json:"company_id"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		Status    string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CompanyID == "" {
		writeError(w, http.StatusBadRequest, "company_id is required", nil)
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end_date must not precede start_date", nil)
		return
	}
	status := req.Status
	if status == "" {
		status = "open"
	}
	if status != "open" && status != "closed" {
		writeError(w, http.StatusBadRequest, "status must be open or closed", nil)
		return
	}

	pp := sqlite.PayPeriod{
		ID:        orNewID(req.ID),
		CompanyID: req.CompanyID,
		Start:     start,
		End:       end,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SavePayPeriod(r.Context(), pp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save pay period", err)
		return
	}

	writeJSON(w, http.StatusCreated, toPayPeriodDTO(pp))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// Reset wipes all data. Dev tooling only.
// POST /api/admin/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

// parseListQuery reads company_id + start/end window params shared by the
// list endpoints. Returns ok=false after writing an error response.
func parseListQuery(w http.ResponseWriter, r *http.Request) (string, payroll.Period, bool) {
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		writeError(w, http.StatusBadRequest, "company_id is required", nil)
		return "", payroll.Period{}, false
	}

	start, err := time.Parse("2006-01-02", r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start date", err)
		return "", payroll.Period{}, false
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end date", err)
		return "", payroll.Period{}, false
	}

	period := payroll.Period{Start: start, End: end}
	if !period.Valid() {
		writeError(w, http.StatusBadRequest, "end must not precede start", nil)
		return "", payroll.Period{}, false
	}
	return companyID, period, true
}

// writeSyncError maps domain errors to HTTP statuses.
func writeSyncError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, payroll.ErrSyncLogNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, payroll.ErrAlreadyReversed),
		errors.Is(err, payroll.ErrNotReversible),
		errors.Is(err, payroll.ErrInvalidTransition),
		errors.Is(err, payroll.ErrDuplicateSourceRecord):
		writeError(w, http.StatusConflict, message, err)
	case payroll.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func orNewID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func approvalStatus(s string) payroll.ApprovalStatus {
	if s == "" {
		return payroll.StatusApproved
	}
	return payroll.ApprovalStatus(s)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
