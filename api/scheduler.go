/*
scheduler.go - Automated pay period sync scheduler

PURPOSE:
  Periodically checks for closed pay periods that have no completed sync
  and automatically syncs them with default options.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Detects closed pay periods without a completed sync log
  - Skips pay periods already synced (and not reversed)
  - Sync logs written by the engine double as the audit trail

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewAutoSyncScheduler(store, engine)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: ExecuteSync endpoint (manual sync)
  - payroll/engine.go: Sync orchestration
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/payroll-sync/payroll"
	"github.com/warp/payroll-sync/store/sqlite"
)

// schedulerActor is recorded as created_by on automatic sync logs.
const schedulerActor = "scheduler"

// AutoSyncScheduler syncs closed pay periods in the background.
type AutoSyncScheduler struct {
	Store         *sqlite.Store
	Engine        *payroll.Engine
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewAutoSyncScheduler creates a new scheduler.
func NewAutoSyncScheduler(store *sqlite.Store, engine *payroll.Engine) *AutoSyncScheduler {
	return &AutoSyncScheduler{
		Store:         store,
		Engine:        engine,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (as *AutoSyncScheduler) Start() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if !as.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	as.ticker = time.NewTicker(as.CheckInterval)
	as.wg.Add(1)

	go as.run()

	log.Printf("[Scheduler] Started with check interval: %v", as.CheckInterval)
}

// Stop stops the scheduler.
func (as *AutoSyncScheduler) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.ticker != nil {
		as.ticker.Stop()
		close(as.stop)
		as.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (as *AutoSyncScheduler) run() {
	defer as.wg.Done()

	// Run immediately on start
	as.checkAndProcess()

	for {
		select {
		case <-as.ticker.C:
			as.checkAndProcess()
		case <-as.stop:
			return
		}
	}
}

func (as *AutoSyncScheduler) checkAndProcess() {
	ctx := context.Background()

	log.Printf("[Scheduler] Checking for unsynced pay periods at %v", time.Now())

	periods, err := as.Store.ListClosedPayPeriods(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error listing pay periods: %v", err)
		return
	}

	processedCount := 0
	skippedCount := 0

	for _, pp := range periods {
		done, err := as.Store.HasCompletedSync(ctx, pp.CompanyID, pp.ID)
		if err != nil {
			log.Printf("[Scheduler] Error checking sync status for %s: %v", pp.ID, err)
			continue
		}
		if done {
			skippedCount++
			continue
		}

		period := payroll.Period{Start: pp.Start, End: pp.End}
		result, err := as.Engine.ExecuteSync(ctx, pp.CompanyID, pp.ID, period, payroll.DefaultSyncOptions(), schedulerActor)
		if err != nil {
			log.Printf("[Scheduler] Error syncing pay period %s: %v", pp.ID, err)
			continue
		}

		processedCount++
		log.Printf("[Scheduler] Synced pay period %s: %d employees, %d records",
			pp.ID, result.EmployeesProcessed, result.RecordsCreated)
	}

	if processedCount > 0 || skippedCount > 0 {
		log.Printf("[Scheduler] Completed: %d processed, %d skipped (already synced)", processedCount, skippedCount)
	}
}

// RunNow triggers an immediate check (for testing/admin).
func (as *AutoSyncScheduler) RunNow() {
	as.checkAndProcess()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (as *AutoSyncScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(as.CheckInterval)
}
