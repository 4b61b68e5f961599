/*
fetch.go - Source fetchers: approved-record collection plus dedup filter

PURPOSE:
  Each fetcher reads one upstream table for a company and period, keeps
  only records an approval workflow has signed off on, and drops records
  already represented in the work-record store.

FETCH PIPELINE (per source):
  1. List source rows in range for the company
  2. Filter to approved (time clock additionally requires a clock-out)
  3. Normalize into WorkHourRecord
  4. One batch lookup of already-synced source ids against WorkRecordStore
  5. Return only candidates not in that set

The dedup lookup runs against the full candidate id list, not per-record,
so the filter reflects a single consistent snapshot of the store.

FAILURE SEMANTICS:
  Fetchers return errors honestly. The previewer/executor treats a fetch
  error as "source empty for this run" and logs it, so one unreachable
  source degrades the run by omission instead of aborting it.

SEE ALSO:
  - store.go: Ports these fetchers consume
  - engine.go: How fetch results are aggregated
*/
package payroll

import "context"

// SourceFetcher yields deduplicated, normalized candidate records for
// one upstream source.
type SourceFetcher interface {
	Source() SourceType
	Fetch(ctx context.Context, companyID string, period Period) ([]WorkHourRecord, error)
}

// =============================================================================
// TIME CLOCK FETCHER
// =============================================================================

type TimeClockFetcher struct {
	Clock   TimeClockStore
	Records WorkRecordStore
}

func (f *TimeClockFetcher) Source() SourceType { return SourceTimeClock }

func (f *TimeClockFetcher) Fetch(ctx context.Context, companyID string, period Period) ([]WorkHourRecord, error) {
	entries, err := f.Clock.ListTimeClockEntries(ctx, companyID, period)
	if err != nil {
		return nil, err
	}

	var candidates []WorkHourRecord
	for _, e := range entries {
		// Approved and fully punched out; open entries have no hours yet.
		if e.Status != StatusApproved || e.ClockOut == nil {
			continue
		}
		hours := e.WorkedHours()
		if hours.IsNegative() {
			continue
		}
		candidates = append(candidates, WorkHourRecord{
			EmployeeID: e.EmployeeID,
			Date:       e.Date,
			Hours:      hours,
			Source:     SourceTimeClock,
			SourceID:   e.ID,
		})
	}

	return filterSynced(ctx, f.Records, SourceTimeClock, candidates)
}

// =============================================================================
// TIMESHEET FETCHER
// =============================================================================

type TimesheetFetcher struct {
	Sheets  TimesheetStore
	Records WorkRecordStore
}

func (f *TimesheetFetcher) Source() SourceType { return SourceTimesheet }

func (f *TimesheetFetcher) Fetch(ctx context.Context, companyID string, period Period) ([]WorkHourRecord, error) {
	entries, err := f.Sheets.ListTimesheetEntries(ctx, companyID, period)
	if err != nil {
		return nil, err
	}

	var candidates []WorkHourRecord
	for _, e := range entries {
		if e.Status != StatusApproved || e.Hours.IsNegative() {
			continue
		}
		candidates = append(candidates, WorkHourRecord{
			EmployeeID: e.EmployeeID,
			Date:       e.Date,
			Hours:      e.Hours,
			Source:     SourceTimesheet,
			SourceID:   e.ID,
		})
	}

	return filterSynced(ctx, f.Records, SourceTimesheet, candidates)
}

// =============================================================================
// OVERTIME REQUEST FETCHER
// =============================================================================

type OvertimeRequestFetcher struct {
	Requests OvertimeRequestStore
	Records  WorkRecordStore
}

func (f *OvertimeRequestFetcher) Source() SourceType { return SourceOvertimeRequest }

func (f *OvertimeRequestFetcher) Fetch(ctx context.Context, companyID string, period Period) ([]WorkHourRecord, error) {
	requests, err := f.Requests.ListOvertimeRequests(ctx, companyID, period)
	if err != nil {
		return nil, err
	}

	var candidates []WorkHourRecord
	for _, r := range requests {
		if r.Status != StatusApproved || r.ApprovedHours.IsNegative() {
			continue
		}
		candidates = append(candidates, WorkHourRecord{
			EmployeeID: r.EmployeeID,
			Date:       r.Date,
			Hours:      r.ApprovedHours,
			Source:     SourceOvertimeRequest,
			SourceID:   r.ID,
		})
	}

	return filterSynced(ctx, f.Records, SourceOvertimeRequest, candidates)
}

// =============================================================================
// DEDUP FILTER
// =============================================================================

// filterSynced drops candidates whose source id already links an existing
// work record. One batch membership query per fetch.
func filterSynced(ctx context.Context, records WorkRecordStore, source SourceType, candidates []WorkHourRecord) ([]WorkHourRecord, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.SourceID
	}

	existing, err := records.ExistingSourceIDs(ctx, source, ids)
	if err != nil {
		return nil, err
	}

	var fresh []WorkHourRecord
	for _, c := range candidates {
		if !existing[c.SourceID] {
			fresh = append(fresh, c)
		}
	}
	return fresh, nil
}
