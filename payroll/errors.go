/*
errors.go - Centralized error types for the reconciliation engine

PURPOSE:
  All engine error types in one place for consistency and discoverability.
  Store implementations wrap database failures; the engine wraps these
  sentinels with run context.

ERROR CATEGORIES:
  1. Sync-log lifecycle errors - Abort the run, surfaced to the caller
  2. Reversal errors - Invalid state transitions, rejected explicitly
  3. Record errors - Per-record write failures, collected not raised

USAGE:
  if errors.Is(err, payroll.ErrAlreadyReversed) {
      // idempotent retry of a reversal, safe to report as rejected
  }

SEE ALSO:
  - engine.go: Where these are returned
  - store.go: Store ports whose failures get wrapped
*/
package payroll

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrSyncLogNotFound is returned when a referenced sync log doesn't exist.
	ErrSyncLogNotFound = errors.New("sync log not found")

	// ErrAlreadyReversed is returned when reversing a log that is already
	// reversed. This is the idempotency guard; the second call has no effect.
	ErrAlreadyReversed = errors.New("sync log already reversed")

	// ErrNotReversible is returned when reversing a log that never completed.
	ErrNotReversible = errors.New("only completed sync logs can be reversed")

	// ErrInvalidTransition is returned on a sync status transition the
	// state machine does not allow.
	ErrInvalidTransition = errors.New("invalid sync status transition")

	// ErrSyncLogFailed is returned when the sync log itself cannot be
	// created or finalized. This is the one failure class that aborts a run.
	ErrSyncLogFailed = errors.New("sync log write failed")

	// ErrDuplicateSourceRecord is returned by stores when an insert would
	// violate the (source type, source id) uniqueness backstop.
	ErrDuplicateSourceRecord = errors.New("source record already synced")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidThreshold is returned when an overtime threshold is negative.
	// A negative threshold would let the split produce negative regular hours.
	ErrInvalidThreshold = errors.New("invalid overtime threshold: must not be negative")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// TransitionError reports a rejected sync status transition.
type TransitionError struct {
	SyncLogID string
	From      SyncStatus
	To        SyncStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("sync log %s: cannot transition %s -> %s", e.SyncLogID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// or state, rather than an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrAlreadyReversed) ||
		errors.Is(err, ErrNotReversible) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidThreshold) ||
		errors.Is(err, ErrInvalidTransition)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSyncLogNotFound)
}
