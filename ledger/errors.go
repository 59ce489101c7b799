/*
errors.go - Centralized error types for the ledger core

PURPOSE:
  All error categories in one place. Callers classify with errors.Is and the
  helpers below; the HTTP layer maps categories to status codes.

ERROR CATEGORIES:
  1. Validation errors    - Bad or missing input, user-correctable
  2. Authorization errors - Record not owned by the requester; reported
     generically, never confirming that another owner's record exists
  3. Not-found errors     - Referenced record absent
  4. Upstream errors      - Ledger store or artifact store failure

SEE ALSO:
  - store.go: Store implementations return these sentinels
  - issuance: Wraps these with the pipeline stage that failed
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all user-correctable input errors.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized is returned when a record exists but is not owned by
	// the requester. Surfaces to clients exactly like ErrNotFound so that
	// ownership probes learn nothing.
	ErrUnauthorized = errors.New("record not owned by requester")

	// ErrUpstream is returned when the ledger store or artifact store fails.
	ErrUpstream = errors.New("upstream failure")

	// ErrContractHasDependents is returned when deleting a contract that
	// still has payments or invoices. Deletion is blocked rather than
	// cascaded: the ledger is the record of money received.
	ErrContractHasDependents = errors.New("contract has dependent records")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError identifies the offending field. Reported verbatim to the
// caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UpstreamError wraps a store or gateway failure. The cause is logged, not
// surfaced.
type UpstreamError struct {
	System string // "ledger-store", "artifact-store"
	Cause  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.System, e.Cause)
}

// Unwrap exposes both the category sentinel and the underlying cause, so
// errors.Is matches either.
func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstream, e.Cause} }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true for user-correctable input errors.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound returns true for missing records, including records hidden by
// ownership scoping.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized)
}

// IsUpstream returns true for store or gateway failures.
func IsUpstream(err error) bool { return errors.Is(err, ErrUpstream) }
