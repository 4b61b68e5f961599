/*
handlers_test.go - End-to-end tests for the HTTP API

Tests for:
- The full sync flow over HTTP: seed sources, preview, execute, reverse
- Error status mapping (404 unknown log, 409 double reversal, 400 bad input)
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-sync/payroll"
	"github.com/warp/payroll-sync/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	engine := payroll.NewEngine(store)
	handler := NewHandler(store, engine)
	server := httptest.NewServer(NewRouter(handler))
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func seedSources(t *testing.T, base string) {
	// One 10h punch pair, one 7.75h timesheet, one 2h overtime request.
	resp := postJSON(t, base+"/api/time-clock", map[string]any{
		"id": "tc-1", "company_id": "co-1", "employee_id": "emp-1",
		"date": "2026-01-05", "clock_in": "2026-01-05T08:00:00Z",
		"clock_out": "2026-01-05T18:00:00Z", "status": "approved",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, base+"/api/timesheets", map[string]any{
		"id": "ts-1", "company_id": "co-1", "employee_id": "emp-2",
		"date": "2026-01-06", "hours": 7.75, "status": "approved",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, base+"/api/overtime-requests", map[string]any{
		"id": "ot-1", "company_id": "co-1", "employee_id": "emp-1",
		"date": "2026-01-07", "approved_hours": 2, "status": "approved",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// SYNC FLOW TESTS
// =============================================================================

func TestSyncFlow_PreviewExecuteReverse(t *testing.T) {
	// GIVEN: Approved records in all three sources, via the API
	server := newTestServer(t)
	base := server.URL
	seedSources(t, base)

	syncReq := map[string]any{
		"company_id":   "co-1",
		"period_start": "2026-01-01",
		"period_end":   "2026-01-15",
		"actor_id":     "admin",
	}

	// WHEN: Previewing
	resp := postJSON(t, base+"/api/sync/preview", syncReq)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summaries := decodeBody[[]SyncSummaryDTO](t, resp)

	// THEN: Both employees are summarized, nothing persisted yet
	require.Len(t, summaries, 2)

	records := listWorkRecords(t, base)
	assert.Empty(t, records)

	// WHEN: Executing
	resp = postJSON(t, base+"/api/sync/execute", syncReq)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody[SyncResultDTO](t, resp)

	// THEN: Three records, 10h punch split 8/2, overtime request all overtime
	assert.Equal(t, 3, result.RecordsCreated)
	assert.Equal(t, 2, result.EmployeesProcessed)
	assert.InDelta(t, 15.75, result.RegularHours, 0.0001) // 8 + 7.75
	assert.InDelta(t, 4.0, result.OvertimeHours, 0.0001)  // 2 + 2
	assert.Empty(t, result.Failures)

	records = listWorkRecords(t, base)
	assert.Len(t, records, 3)

	// AND: Running again creates nothing (dedup)
	resp = postJSON(t, base+"/api/sync/execute", syncReq)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rerun := decodeBody[SyncResultDTO](t, resp)
	assert.Equal(t, 0, rerun.RecordsCreated)

	// WHEN: Reversing the first run
	resp = postJSON(t, fmt.Sprintf("%s/api/sync/%s/reverse", base, result.SyncLogID),
		map[string]any{"actor_id": "admin"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reversal := decodeBody[ReverseResultDTO](t, resp)

	// THEN: All three records are gone
	assert.Equal(t, 3, reversal.RecordsDeleted)
	records = listWorkRecords(t, base)
	assert.Empty(t, records)

	// AND: The log shows reversed in history
	histResp, err := http.Get(base + "/api/sync/history?company_id=co-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, histResp.StatusCode)
	logs := decodeBody[[]SyncLogDTO](t, histResp)
	require.NotEmpty(t, logs)

	statuses := map[string]string{}
	for _, l := range logs {
		statuses[l.ID] = l.Status
	}
	assert.Equal(t, "reversed", statuses[result.SyncLogID])

	// AND: A second reversal is a conflict
	resp = postJSON(t, fmt.Sprintf("%s/api/sync/%s/reverse", base, result.SyncLogID),
		map[string]any{"actor_id": "admin"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestSyncFlow_PayPeriodResolvesWindow(t *testing.T) {
	// GIVEN: A closed pay period and a punch inside it
	server := newTestServer(t)
	base := server.URL
	seedSources(t, base)

	resp := postJSON(t, base+"/api/pay-periods", map[string]any{
		"id": "pp-1", "company_id": "co-1",
		"start_date": "2026-01-01", "end_date": "2026-01-15", "status": "closed",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// WHEN: Executing with only the pay period id
	resp = postJSON(t, base+"/api/sync/execute", map[string]any{
		"company_id": "co-1", "pay_period_id": "pp-1", "actor_id": "admin",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody[SyncResultDTO](t, resp)

	// THEN: The period came from the pay_periods row
	assert.Equal(t, 3, result.RecordsCreated)
}

func TestSyncFlow_OptionsRespected(t *testing.T) {
	// GIVEN: Sources seeded; timesheets disabled and up-30 rounding requested
	server := newTestServer(t)
	base := server.URL
	seedSources(t, base)

	opts := payroll.DefaultSyncOptions()
	opts.IncludeTimesheets = false
	opts.RoundingRule = payroll.RoundUp30

	resp := postJSON(t, base+"/api/sync/execute", map[string]any{
		"company_id":   "co-1",
		"period_start": "2026-01-01",
		"period_end":   "2026-01-15",
		"options":      opts,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody[SyncResultDTO](t, resp)

	// Punch (10h) and overtime request only; timesheet skipped.
	assert.Equal(t, 2, result.RecordsCreated)
	for _, rec := range listWorkRecords(t, base) {
		assert.NotEqual(t, "timesheet", rec.SourceType)
	}
}

// =============================================================================
// ERROR MAPPING TESTS
// =============================================================================

func TestSync_BadRequests(t *testing.T) {
	server := newTestServer(t)
	base := server.URL

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing company", map[string]any{"period_start": "2026-01-01", "period_end": "2026-01-15"}},
		{"backwards period", map[string]any{"company_id": "co-1", "period_start": "2026-01-15", "period_end": "2026-01-01"}},
		{"unparseable dates", map[string]any{"company_id": "co-1", "period_start": "Jan 1", "period_end": "Jan 15"}},
		{"unknown rounding rule", map[string]any{
			"company_id": "co-1", "period_start": "2026-01-01", "period_end": "2026-01-15",
			"options": map[string]any{"include_time_clock": true, "rounding_rule": "nearest_7"},
		}},
		{"negative overtime threshold", map[string]any{
			"company_id": "co-1", "period_start": "2026-01-01", "period_end": "2026-01-15",
			"options": map[string]any{
				"include_time_clock": true, "overtime_threshold_per_day": -2, "rounding_rule": "none",
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, base+"/api/sync/execute", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			resp.Body.Close()
		})
	}
}

func TestReverse_UnknownLogIs404(t *testing.T) {
	server := newTestServer(t)

	resp := postJSON(t, server.URL+"/api/sync/no-such-log/reverse", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestGetSyncLog_UnknownIs404(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/sync/no-such-log")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// DIRECTORY TESTS
// =============================================================================

func TestEmployeeEndpoints(t *testing.T) {
	server := newTestServer(t)
	base := server.URL

	resp := postJSON(t, base+"/api/employees", map[string]any{
		"id": "emp-1", "company_id": "co-1", "name": "Dana Reyes", "email": "dana@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	getResp, err := http.Get(base + "/api/employees/emp-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	emp := decodeBody[EmployeeDTO](t, getResp)
	assert.Equal(t, "Dana Reyes", emp.Name)

	listResp, err := http.Get(base + "/api/employees?company_id=co-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	employees := decodeBody[[]EmployeeDTO](t, listResp)
	assert.Len(t, employees, 1)

	missingResp, err := http.Get(base + "/api/employees/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, missingResp.StatusCode)
	missingResp.Body.Close()
}

// =============================================================================
// HELPERS
// =============================================================================

func listWorkRecords(t *testing.T, base string) []WorkRecordDTO {
	t.Helper()
	resp, err := http.Get(base + "/api/work-records?company_id=co-1&start=2026-01-01&end=2026-01-15")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeBody[[]WorkRecordDTO](t, resp)
}
