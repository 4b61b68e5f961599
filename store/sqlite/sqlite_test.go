package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-sync/payroll"
	"github.com/warp/payroll-sync/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// newFileStore opens a store on a temp file plus a raw handle to the same
// database, for tests that manipulate rows behind the store's back.
func newFileStore(t *testing.T) (*sqlite.Store, *sql.DB) {
	path := filepath.Join(t.TempDir(), "payroll.db")

	store, err := sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return store, db
}

func day(d int) time.Time {
	return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
}

func janWindow() payroll.Period {
	return payroll.Period{Start: day(1), End: day(15)}
}

func workRecord(id, sourceID, syncLogID string) payroll.WorkRecord {
	return payroll.WorkRecord{
		ID:            id,
		CompanyID:     "co-1",
		EmployeeID:    "emp-1",
		Date:          day(5),
		RegularHours:  payroll.NewHours(8),
		OvertimeHours: payroll.NewHours(1.5),
		Source:        payroll.SourceTimeClock,
		SourceID:      sourceID,
		SyncLogID:     syncLogID,
		Note:          "test",
		CreatedAt:     time.Now().UTC(),
	}
}

// =============================================================================
// WORK RECORD TESTS
// =============================================================================

func TestInsertWorkRecord_DuplicateSourceRejected(t *testing.T) {
	// GIVEN: A work record already written for source row tc-1
	// WHEN: Inserting a second record for the same (source type, source id)
	// THEN: The unique index rejects it with ErrDuplicateSourceRecord

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertWorkRecord(ctx, workRecord("wr-1", "tc-1", "log-1")))

	err := store.InsertWorkRecord(ctx, workRecord("wr-2", "tc-1", "log-2"))
	assert.ErrorIs(t, err, payroll.ErrDuplicateSourceRecord)

	records, err := store.ListWorkRecords(ctx, "co-1", janWindow())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestInsertWorkRecord_SameIDDifferentSourceAllowed(t *testing.T) {
	// Same source row id under a different source type is a different record.
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertWorkRecord(ctx, workRecord("wr-1", "row-1", "log-1")))

	other := workRecord("wr-2", "row-1", "log-1")
	other.Source = payroll.SourceTimesheet
	require.NoError(t, store.InsertWorkRecord(ctx, other))
}

func TestExistingSourceIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertWorkRecord(ctx, workRecord("wr-1", "tc-1", "log-1")))
	require.NoError(t, store.InsertWorkRecord(ctx, workRecord("wr-2", "tc-2", "log-1")))

	existing, err := store.ExistingSourceIDs(ctx, payroll.SourceTimeClock, []string{"tc-1", "tc-2", "tc-3"})
	require.NoError(t, err)

	assert.True(t, existing["tc-1"])
	assert.True(t, existing["tc-2"])
	assert.False(t, existing["tc-3"])

	// Different source type sees nothing.
	none, err := store.ExistingSourceIDs(ctx, payroll.SourceTimesheet, []string{"tc-1"})
	require.NoError(t, err)
	assert.False(t, none["tc-1"])
}

func TestDeleteBySyncLog(t *testing.T) {
	// GIVEN: Two sync logs with records each
	// WHEN: Deleting by one sync log id
	// THEN: Only that run's records disappear and the count is reported

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertWorkRecord(ctx, workRecord("wr-1", "tc-1", "log-1")))
	require.NoError(t, store.InsertWorkRecord(ctx, workRecord("wr-2", "tc-2", "log-1")))
	require.NoError(t, store.InsertWorkRecord(ctx, workRecord("wr-3", "tc-3", "log-2")))

	deleted, err := store.DeleteBySyncLog(ctx, "log-1")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	records, err := store.ListWorkRecords(ctx, "co-1", janWindow())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "wr-3", records[0].ID)

	// Freed source ids are insertable again.
	require.NoError(t, store.InsertWorkRecord(ctx, workRecord("wr-4", "tc-1", "log-3")))
}

func TestWorkRecord_HoursRoundTrip(t *testing.T) {
	// Decimal hour values survive storage as text without drift.
	store := newTestStore(t)
	ctx := context.Background()

	rec := workRecord("wr-1", "tc-1", "log-1")
	rec.RegularHours = payroll.MustParseHours("7.25")
	rec.OvertimeHours = payroll.MustParseHours("0.75")
	require.NoError(t, store.InsertWorkRecord(ctx, rec))

	records, err := store.ListWorkRecords(ctx, "co-1", janWindow())
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.True(t, records[0].RegularHours.Equal(payroll.MustParseHours("7.25")))
	assert.True(t, records[0].OvertimeHours.Equal(payroll.MustParseHours("0.75")))
}

// =============================================================================
// SYNC LOG TESTS
// =============================================================================

func TestSyncLog_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	opts := payroll.DefaultSyncOptions()
	opts.RoundingRule = payroll.RoundNearest15
	started := time.Now().UTC().Truncate(time.Second)

	logEntry := payroll.SyncLog{
		ID:          "log-1",
		CompanyID:   "co-1",
		PayPeriodID: "pp-1",
		Status:      payroll.SyncProcessing,
		Options:     opts,
		StartedAt:   started,
		CreatedBy:   "admin",
	}
	require.NoError(t, store.CreateSyncLog(ctx, logEntry))

	completed := started.Add(2 * time.Second)
	logEntry.Status = payroll.SyncCompleted
	logEntry.EmployeesProcessed = 3
	logEntry.RecordsCreated = 7
	logEntry.RegularHours = payroll.MustParseHours("52.5")
	logEntry.OvertimeHours = payroll.MustParseHours("4.25")
	logEntry.CompletedAt = &completed
	require.NoError(t, store.UpdateSyncLog(ctx, logEntry))

	got, err := store.GetSyncLog(ctx, "log-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, payroll.SyncCompleted, got.Status)
	assert.Equal(t, opts, got.Options)
	assert.Equal(t, 3, got.EmployeesProcessed)
	assert.Equal(t, 7, got.RecordsCreated)
	assert.True(t, got.RegularHours.Equal(payroll.MustParseHours("52.5")))
	assert.True(t, got.OvertimeHours.Equal(payroll.MustParseHours("4.25")))
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(completed))
	assert.Equal(t, "admin", got.CreatedBy)
}

func TestGetSyncLog_MissingReturnsNil(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetSyncLog(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateSyncLog_MissingReturnsNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateSyncLog(context.Background(), payroll.SyncLog{ID: "nope", StartedAt: time.Now()})
	assert.ErrorIs(t, err, payroll.ErrSyncLogNotFound)
}

func TestGetSyncLog_CorruptOptionsSurfaced(t *testing.T) {
	// GIVEN: A sync log whose options snapshot was corrupted in the database
	// WHEN: Reading it back
	// THEN: The decode failure is reported, not silently zeroed

	store, db := newFileStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSyncLog(ctx, payroll.SyncLog{
		ID:        "log-1",
		CompanyID: "co-1",
		Status:    payroll.SyncProcessing,
		Options:   payroll.DefaultSyncOptions(),
		StartedAt: time.Now().UTC(),
	}))

	_, err := db.Exec("UPDATE sync_logs SET options_json = '{not json' WHERE id = ?", "log-1")
	require.NoError(t, err)

	_, err = store.GetSyncLog(ctx, "log-1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "options")
}

func TestHasCompletedSync(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	logEntry := payroll.SyncLog{
		ID:          "log-1",
		CompanyID:   "co-1",
		PayPeriodID: "pp-1",
		Status:      payroll.SyncProcessing,
		Options:     payroll.DefaultSyncOptions(),
		StartedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.CreateSyncLog(ctx, logEntry))

	// Processing does not count.
	done, err := store.HasCompletedSync(ctx, "co-1", "pp-1")
	require.NoError(t, err)
	assert.False(t, done)

	logEntry.Status = payroll.SyncCompleted
	require.NoError(t, store.UpdateSyncLog(ctx, logEntry))

	done, err = store.HasCompletedSync(ctx, "co-1", "pp-1")
	require.NoError(t, err)
	assert.True(t, done)

	// Other pay periods are unaffected.
	done, err = store.HasCompletedSync(ctx, "co-1", "pp-2")
	require.NoError(t, err)
	assert.False(t, done)
}

// =============================================================================
// SOURCE TABLE TESTS
// =============================================================================

func TestTimeClockEntries_WindowAndRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	out := in.Add(8*time.Hour + 30*time.Minute)
	entry := payroll.TimeClockEntry{
		ID:         "tc-1",
		CompanyID:  "co-1",
		EmployeeID: "emp-1",
		Date:       day(5),
		ClockIn:    in,
		ClockOut:   &out,
		Status:     payroll.StatusApproved,
	}
	require.NoError(t, store.SaveTimeClockEntry(ctx, entry))

	// Outside the window: not returned.
	outside := entry
	outside.ID = "tc-2"
	outside.Date = time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveTimeClockEntry(ctx, outside))

	entries, err := store.ListTimeClockEntries(ctx, "co-1", janWindow())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, "tc-1", got.ID)
	require.NotNil(t, got.ClockOut)
	assert.True(t, got.WorkedHours().Equal(payroll.MustParseHours("8.5")))
}

func TestTimesheetEntries_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := payroll.TimesheetEntry{
		ID:         "ts-1",
		CompanyID:  "co-1",
		EmployeeID: "emp-1",
		Date:       day(6),
		Hours:      payroll.MustParseHours("7.75"),
		Status:     payroll.StatusApproved,
	}
	require.NoError(t, store.SaveTimesheetEntry(ctx, entry))

	entries, err := store.ListTimesheetEntries(ctx, "co-1", janWindow())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Hours.Equal(payroll.MustParseHours("7.75")))
	assert.Equal(t, payroll.StatusApproved, entries[0].Status)
}

func TestOvertimeRequests_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := payroll.OvertimeRequest{
		ID:            "ot-1",
		CompanyID:     "co-1",
		EmployeeID:    "emp-1",
		Date:          day(7),
		ApprovedHours: payroll.MustParseHours("2.5"),
		Status:        payroll.StatusApproved,
	}
	require.NoError(t, store.SaveOvertimeRequest(ctx, req))

	requests, err := store.ListOvertimeRequests(ctx, "co-1", janWindow())
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.True(t, requests[0].ApprovedHours.Equal(payroll.MustParseHours("2.5")))
}

// =============================================================================
// POSITION TESTS
// =============================================================================

func TestActivePositionID(t *testing.T) {
	// GIVEN: An ended position, an active primary, and an active secondary
	// WHEN: Resolving the active position on a work date
	// THEN: The active primary wins; no match yields empty without error

	store := newTestStore(t)
	ctx := context.Background()

	ended := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SavePosition(ctx, payroll.Position{
		ID: "pos-old", CompanyID: "co-1", EmployeeID: "emp-1", Title: "Host",
		StartDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   &ended, Primary: true,
	}))
	require.NoError(t, store.SavePosition(ctx, payroll.Position{
		ID: "pos-side", CompanyID: "co-1", EmployeeID: "emp-1", Title: "Trainer",
		StartDate: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		Primary:   false,
	}))
	require.NoError(t, store.SavePosition(ctx, payroll.Position{
		ID: "pos-main", CompanyID: "co-1", EmployeeID: "emp-1", Title: "Server",
		StartDate: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		Primary:   true,
	}))

	id, err := store.ActivePositionID(ctx, "emp-1", day(5))
	require.NoError(t, err)
	assert.Equal(t, "pos-main", id)

	id, err = store.ActivePositionID(ctx, "emp-none", day(5))
	require.NoError(t, err)
	assert.Equal(t, "", id)
}

// =============================================================================
// EMPLOYEE TESTS
// =============================================================================

func TestEmployees_NullEmailTolerated(t *testing.T) {
	// GIVEN: An employee row written with a SQL NULL email (external import)
	// WHEN: Reading via GetEmployee and ListEmployees
	// THEN: Both succeed with an empty email string

	store, db := newFileStore(t)
	ctx := context.Background()

	_, err := db.Exec(
		"INSERT INTO employees (id, company_id, name, email, created_at) VALUES (?, ?, ?, NULL, ?)",
		"emp-1", "co-1", "Dana Reyes", time.Now().UTC().Format(time.RFC3339),
	)
	require.NoError(t, err)

	emp, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, emp)
	assert.Equal(t, "Dana Reyes", emp.Name)
	assert.Equal(t, "", emp.Email)

	employees, err := store.ListEmployees(ctx, "co-1")
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "", employees[0].Email)
}

// =============================================================================
// PAY PERIOD TESTS
// =============================================================================

func TestPayPeriods(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePayPeriod(ctx, sqlite.PayPeriod{
		ID: "pp-1", CompanyID: "co-1", Start: day(1), End: day(15),
		Status: "closed", CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, store.SavePayPeriod(ctx, sqlite.PayPeriod{
		ID: "pp-2", CompanyID: "co-1", Start: day(16), End: time.Date(2026, time.January, 31, 0, 0, 0, 0, time.UTC),
		Status: "open", CreatedAt: time.Now().UTC(),
	}))

	got, err := store.GetPayPeriod(ctx, "pp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Start.Equal(day(1)))
	assert.Equal(t, "closed", got.Status)

	closed, err := store.ListClosedPayPeriods(ctx)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, "pp-1", closed[0].ID)

	all, err := store.ListPayPeriods(ctx, "co-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// =============================================================================
// ENGINE-OVER-SQLITE TEST
// =============================================================================

func TestEngine_EndToEndOnSQLite(t *testing.T) {
	// GIVEN: Approved sources persisted to SQLite
	// WHEN: Running execute, then reverse, through the engine
	// THEN: The dedup and reversal semantics hold on the real schema

	store := newTestStore(t)
	engine := payroll.NewEngine(store)
	ctx := context.Background()

	in := time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)
	out := in.Add(10 * time.Hour)
	require.NoError(t, store.SaveTimeClockEntry(ctx, payroll.TimeClockEntry{
		ID: "tc-1", CompanyID: "co-1", EmployeeID: "emp-1",
		Date: day(5), ClockIn: in, ClockOut: &out, Status: payroll.StatusApproved,
	}))

	result, err := engine.ExecuteSync(ctx, "co-1", "pp-1", janWindow(), payroll.DefaultSyncOptions(), "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, result.RecordsCreated)
	assert.True(t, result.RegularHours.Equal(payroll.NewHours(8)))
	assert.True(t, result.OvertimeHours.Equal(payroll.NewHours(2)))

	// Second run: dedup leaves nothing to do.
	second, err := engine.ExecuteSync(ctx, "co-1", "pp-1", janWindow(), payroll.DefaultSyncOptions(), "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, second.RecordsCreated)

	// Reverse and re-run.
	deleted, err := engine.ReverseSync(ctx, result.SyncLogID, "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	third, err := engine.ExecuteSync(ctx, "co-1", "pp-1", janWindow(), payroll.DefaultSyncOptions(), "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, third.RecordsCreated)
}
