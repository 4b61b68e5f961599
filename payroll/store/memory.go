// Package store provides in-memory implementations of the payroll ports.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/payroll-sync/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements payroll.Store with maps and a mutex. Preserves the
// engine's invariants the same way the SQLite store does, including the
// (source type, source id) uniqueness backstop on work records.
type Memory struct {
	mu sync.RWMutex

	clockEntries  []payroll.TimeClockEntry
	timesheets    []payroll.TimesheetEntry
	overtime      []payroll.OvertimeRequest
	positions     []payroll.Position
	workRecords   []payroll.WorkRecord
	syncLogs      map[string]payroll.SyncLog
	syncLogOrder  []string
	sourceClaimed map[sourceKey]bool
}

type sourceKey struct {
	Source   payroll.SourceType
	SourceID string
}

var _ payroll.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		syncLogs:      make(map[string]payroll.SyncLog),
		sourceClaimed: make(map[sourceKey]bool),
	}
}

// =============================================================================
// SEEDING - Upstream tables are externally owned; tests populate them here
// =============================================================================

func (m *Memory) AddTimeClockEntry(e payroll.TimeClockEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clockEntries = append(m.clockEntries, e)
}

func (m *Memory) AddTimesheetEntry(e payroll.TimesheetEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timesheets = append(m.timesheets, e)
}

func (m *Memory) AddOvertimeRequest(r payroll.OvertimeRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overtime = append(m.overtime, r)
}

func (m *Memory) AddPosition(p payroll.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions = append(m.positions, p)
}

// =============================================================================
// SOURCE PORTS
// =============================================================================

func (m *Memory) ListTimeClockEntries(_ context.Context, companyID string, period payroll.Period) ([]payroll.TimeClockEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []payroll.TimeClockEntry
	for _, e := range m.clockEntries {
		if e.CompanyID == companyID && inPeriod(e.Date, period) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *Memory) ListTimesheetEntries(_ context.Context, companyID string, period payroll.Period) ([]payroll.TimesheetEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []payroll.TimesheetEntry
	for _, e := range m.timesheets {
		if e.CompanyID == companyID && inPeriod(e.Date, period) {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *Memory) ListOvertimeRequests(_ context.Context, companyID string, period payroll.Period) ([]payroll.OvertimeRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []payroll.OvertimeRequest
	for _, r := range m.overtime {
		if r.CompanyID == companyID && inPeriod(r.Date, period) {
			result = append(result, r)
		}
	}
	return result, nil
}

// =============================================================================
// WORK RECORD PORT
// =============================================================================

func (m *Memory) InsertWorkRecord(_ context.Context, rec payroll.WorkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := sourceKey{Source: rec.Source, SourceID: rec.SourceID}
	if m.sourceClaimed[k] {
		return payroll.ErrDuplicateSourceRecord
	}

	m.workRecords = append(m.workRecords, rec)
	m.sourceClaimed[k] = true
	return nil
}

func (m *Memory) ExistingSourceIDs(_ context.Context, source payroll.SourceType, ids []string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	existing := make(map[string]bool)
	for _, id := range ids {
		if m.sourceClaimed[sourceKey{Source: source, SourceID: id}] {
			existing[id] = true
		}
	}
	return existing, nil
}

func (m *Memory) DeleteBySyncLog(_ context.Context, syncLogID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	kept := m.workRecords[:0]
	for _, rec := range m.workRecords {
		if rec.SyncLogID == syncLogID {
			delete(m.sourceClaimed, sourceKey{Source: rec.Source, SourceID: rec.SourceID})
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	m.workRecords = kept
	return deleted, nil
}

func (m *Memory) ListWorkRecords(_ context.Context, companyID string, period payroll.Period) ([]payroll.WorkRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []payroll.WorkRecord
	for _, rec := range m.workRecords {
		if rec.CompanyID == companyID && inPeriod(rec.Date, period) {
			result = append(result, rec)
		}
	}
	return result, nil
}

// =============================================================================
// SYNC LOG PORT
// =============================================================================

func (m *Memory) CreateSyncLog(_ context.Context, log payroll.SyncLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.syncLogs[log.ID] = log
	m.syncLogOrder = append(m.syncLogOrder, log.ID)
	return nil
}

func (m *Memory) UpdateSyncLog(_ context.Context, log payroll.SyncLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.syncLogs[log.ID]; !ok {
		return payroll.ErrSyncLogNotFound
	}
	m.syncLogs[log.ID] = log
	return nil
}

func (m *Memory) GetSyncLog(_ context.Context, id string) (*payroll.SyncLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	log, ok := m.syncLogs[id]
	if !ok {
		return nil, nil
	}
	return &log, nil
}

func (m *Memory) ListSyncLogs(_ context.Context, companyID string, limit int) ([]payroll.SyncLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []payroll.SyncLog
	for _, id := range m.syncLogOrder {
		if log := m.syncLogs[id]; log.CompanyID == companyID {
			result = append(result, log)
		}
	}

	// Newest first
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// =============================================================================
// POSITION PORT
// =============================================================================

func (m *Memory) ActivePositionID(_ context.Context, employeeID string, asOf time.Time) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.positions {
		if p.EmployeeID != employeeID || !p.Primary {
			continue
		}
		if p.StartDate.After(asOf) {
			continue
		}
		if p.EndDate != nil && p.EndDate.Before(asOf) {
			continue
		}
		return p.ID, nil
	}
	return "", nil
}

// =============================================================================
// HELPERS
// =============================================================================

func inPeriod(date time.Time, period payroll.Period) bool {
	return !date.Before(period.Start) && !date.After(period.End)
}
