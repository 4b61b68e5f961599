/*
engine.go - Preview, execute, history, and reversal entry points

PURPOSE:
  The Engine ties the fetchers, rounding, split, and stores together into
  the four public operations:

    PreviewSync  - dry run, aggregates per-employee summaries, writes nothing
    ExecuteSync  - persists one WorkRecord per source record under a SyncLog
    SyncHistory  - recent SyncLogs for a company
    ReverseSync  - deletes a completed run's records and marks the log reversed

EXECUTION FLOW:
  1. Create SyncLog (status processing) with the options snapshot
  2. For each enabled source: fetch candidates (approved + not yet synced)
  3. For each candidate record: round, split, resolve position (best-effort),
     insert one WorkRecord linked to the source row and the SyncLog
  4. Finalize SyncLog (status completed) with counts and hour totals

FAILURE SEMANTICS:
  - Source fetch failure: logged, source treated as empty, run continues
  - Per-record insert failure: collected into SyncResult.Failures, counters
    not incremented, run continues
  - SyncLog create/finalize failure: aborts the run, surfaced to the caller
  There is no all-or-nothing transaction across a batch; partial success is
  an accepted outcome, reconstructable from the final counts.

CONCURRENCY:
  One invocation runs single-threaded: sources sequentially, records within
  a source sequentially. Two concurrent executions of the same period are
  kept from double-claiming a record by the store's uniqueness backstop on
  (source type, source id); a lost race shows up as a per-record failure,
  not a duplicate row.

SEE ALSO:
  - fetch.go: Candidate collection and dedup
  - store.go: Ports
*/
package payroll

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Engine is the reconciliation engine. All fields are required except
// Positions, which may be nil when position lookup is unavailable.
type Engine struct {
	TimeClock  TimeClockStore
	Timesheets TimesheetStore
	Overtime   OvertimeRequestStore
	Records    WorkRecordStore
	Logs       SyncLogStore
	Positions  PositionStore
}

// NewEngine creates an engine with every port backed by the same store.
func NewEngine(store Store) *Engine {
	return &Engine{
		TimeClock:  store,
		Timesheets: store,
		Overtime:   store,
		Records:    store,
		Logs:       store,
		Positions:  store,
	}
}

// fetchers returns the fetchers for the sources enabled by the options,
// in fixed source order.
func (e *Engine) fetchers(opts SyncOptions) []SourceFetcher {
	var fs []SourceFetcher
	if opts.IncludeTimeClock {
		fs = append(fs, &TimeClockFetcher{Clock: e.TimeClock, Records: e.Records})
	}
	if opts.IncludeTimesheets {
		fs = append(fs, &TimesheetFetcher{Sheets: e.Timesheets, Records: e.Records})
	}
	if opts.IncludeOvertimeRequests {
		fs = append(fs, &OvertimeRequestFetcher{Requests: e.Overtime, Records: e.Records})
	}
	return fs
}

// =============================================================================
// PREVIEW
// =============================================================================

// PreviewSync aggregates what an execution would produce, without writing.
// It reads the same dedup state a subsequent ExecuteSync would see and is
// safe to call repeatedly.
func (e *Engine) PreviewSync(ctx context.Context, companyID, payPeriodID string, period Period, opts SyncOptions) ([]SyncSummary, error) {
	if !period.Valid() {
		return nil, ErrInvalidPeriod
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	agg := newSummaryAggregator()
	for _, f := range e.fetchers(opts) {
		records, err := f.Fetch(ctx, companyID, period)
		if err != nil {
			log.Printf("[Sync] preview: fetch %s failed for company %s, treating as empty: %v", f.Source(), companyID, err)
			continue
		}
		for _, rec := range records {
			rounded := opts.RoundingRule.Apply(rec.Hours)
			regular, overtime := ClassifyHours(rec.Source, rounded, opts.DailyThreshold())
			agg.add(rec, regular, overtime)
		}
	}
	return agg.summaries(), nil
}

// =============================================================================
// EXECUTE
// =============================================================================

// ExecuteSync performs the aggregation and persists one WorkRecord per
// contributing source record, under a new SyncLog. actorID records who
// triggered the run.
func (e *Engine) ExecuteSync(ctx context.Context, companyID, payPeriodID string, period Period, opts SyncOptions, actorID string) (*SyncResult, error) {
	if !period.Valid() {
		return nil, ErrInvalidPeriod
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	syncLog := SyncLog{
		ID:          uuid.NewString(),
		CompanyID:   companyID,
		PayPeriodID: payPeriodID,
		Status:      SyncProcessing,
		Options:     opts,
		StartedAt:   time.Now().UTC(),
		CreatedBy:   actorID,
	}
	if err := e.Logs.CreateSyncLog(ctx, syncLog); err != nil {
		return nil, fmt.Errorf("%w: create: %v", ErrSyncLogFailed, err)
	}

	agg := newSummaryAggregator()
	var failures []RecordFailure
	recordsCreated := 0
	regularTotal := ZeroHours()
	overtimeTotal := ZeroHours()

	for _, f := range e.fetchers(opts) {
		records, err := f.Fetch(ctx, companyID, period)
		if err != nil {
			log.Printf("[Sync] execute %s: fetch %s failed, treating as empty: %v", syncLog.ID, f.Source(), err)
			continue
		}

		for _, rec := range records {
			rounded := opts.RoundingRule.Apply(rec.Hours)
			regular, overtime := ClassifyHours(rec.Source, rounded, opts.DailyThreshold())

			// Best-effort: a missing position never blocks the write.
			positionID := ""
			if e.Positions != nil {
				if id, err := e.Positions.ActivePositionID(ctx, rec.EmployeeID, rec.Date); err == nil {
					positionID = id
				} else {
					log.Printf("[Sync] execute %s: position lookup for %s failed: %v", syncLog.ID, rec.EmployeeID, err)
				}
			}

			work := WorkRecord{
				ID:            uuid.NewString(),
				CompanyID:     companyID,
				EmployeeID:    rec.EmployeeID,
				Date:          rec.Date,
				RegularHours:  regular,
				OvertimeHours: overtime,
				Source:        rec.Source,
				SourceID:      rec.SourceID,
				PositionID:    positionID,
				SyncLogID:     syncLog.ID,
				Note:          fmt.Sprintf("Synced from %s %s", rec.Source, rec.SourceID),
				CreatedAt:     time.Now().UTC(),
			}

			if err := e.Records.InsertWorkRecord(ctx, work); err != nil {
				log.Printf("[Sync] execute %s: insert for %s/%s failed, skipping: %v", syncLog.ID, rec.Source, rec.SourceID, err)
				failures = append(failures, RecordFailure{
					Source:     rec.Source,
					SourceID:   rec.SourceID,
					EmployeeID: rec.EmployeeID,
					Err:        err.Error(),
				})
				continue
			}

			recordsCreated++
			regularTotal = regularTotal.Add(regular)
			overtimeTotal = overtimeTotal.Add(overtime)
			agg.add(rec, regular, overtime)
		}
	}

	summaries := agg.summaries()

	completedAt := time.Now().UTC()
	if err := syncLog.Transition(SyncCompleted); err != nil {
		return nil, err
	}
	syncLog.EmployeesProcessed = len(summaries)
	syncLog.RecordsCreated = recordsCreated
	syncLog.RegularHours = regularTotal
	syncLog.OvertimeHours = overtimeTotal
	syncLog.CompletedAt = &completedAt

	if err := e.Logs.UpdateSyncLog(ctx, syncLog); err != nil {
		return nil, fmt.Errorf("%w: finalize: %v", ErrSyncLogFailed, err)
	}

	return &SyncResult{
		SyncLogID:          syncLog.ID,
		EmployeesProcessed: len(summaries),
		RecordsCreated:     recordsCreated,
		RegularHours:       regularTotal,
		OvertimeHours:      overtimeTotal,
		Summaries:          summaries,
		Failures:           failures,
	}, nil
}

// =============================================================================
// HISTORY
// =============================================================================

// SyncHistory returns the most recent sync logs for a company, newest first.
func (e *Engine) SyncHistory(ctx context.Context, companyID string, limit int) ([]SyncLog, error) {
	if limit <= 0 {
		limit = 20
	}
	return e.Logs.ListSyncLogs(ctx, companyID, limit)
}

// =============================================================================
// REVERSAL
// =============================================================================

// ReverseSync deletes every WorkRecord the given execution created and
// transitions its SyncLog to reversed. Only completed logs can be reversed,
// and only once; a second call is rejected without side effects. Returns
// the number of work records deleted.
func (e *Engine) ReverseSync(ctx context.Context, syncLogID, actorID string) (int, error) {
	syncLog, err := e.Logs.GetSyncLog(ctx, syncLogID)
	if err != nil {
		return 0, fmt.Errorf("load sync log %s: %w", syncLogID, err)
	}
	if syncLog == nil {
		return 0, ErrSyncLogNotFound
	}

	switch syncLog.Status {
	case SyncReversed:
		return 0, ErrAlreadyReversed
	case SyncCompleted:
		// reversible
	default:
		return 0, ErrNotReversible
	}

	deleted, err := e.Records.DeleteBySyncLog(ctx, syncLogID)
	if err != nil {
		return 0, fmt.Errorf("delete work records for sync log %s: %w", syncLogID, err)
	}

	reversedAt := time.Now().UTC()
	if err := syncLog.Transition(SyncReversed); err != nil {
		return deleted, err
	}
	syncLog.ReversedAt = &reversedAt
	syncLog.ReversedBy = actorID

	if err := e.Logs.UpdateSyncLog(ctx, *syncLog); err != nil {
		return deleted, fmt.Errorf("%w: reversal: %v", ErrSyncLogFailed, err)
	}

	log.Printf("[Sync] reversed %s: %d work records deleted by %s", syncLogID, deleted, actorID)
	return deleted, nil
}

// =============================================================================
// SUMMARY AGGREGATION
// =============================================================================

// summaryAggregator accumulates per-employee summaries, preserving the
// order in which employees and sources first appear.
type summaryAggregator struct {
	byEmployee map[string]*SyncSummary
	order      []string
}

func newSummaryAggregator() *summaryAggregator {
	return &summaryAggregator{byEmployee: make(map[string]*SyncSummary)}
}

func (a *summaryAggregator) add(rec WorkHourRecord, regular, overtime Hours) {
	s, ok := a.byEmployee[rec.EmployeeID]
	if !ok {
		s = &SyncSummary{
			EmployeeID:    rec.EmployeeID,
			RegularHours:  ZeroHours(),
			OvertimeHours: ZeroHours(),
			TotalHours:    ZeroHours(),
		}
		a.byEmployee[rec.EmployeeID] = s
		a.order = append(a.order, rec.EmployeeID)
	}

	s.RegularHours = s.RegularHours.Add(regular)
	s.OvertimeHours = s.OvertimeHours.Add(overtime)
	s.TotalHours = s.TotalHours.Add(regular).Add(overtime)
	s.SourceCount++

	seen := false
	for _, src := range s.Sources {
		if src == rec.Source {
			seen = true
			break
		}
	}
	if !seen {
		s.Sources = append(s.Sources, rec.Source)
	}
}

func (a *summaryAggregator) summaries() []SyncSummary {
	out := make([]SyncSummary, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.byEmployee[id])
	}
	return out
}
