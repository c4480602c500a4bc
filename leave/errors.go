/*
errors.go - Error taxonomy shared by the ledger and the API layer

PURPOSE:
  Expected, user-correctable failures are return values, not panics:
  validation problems, quota exhaustion, and constraint violations all
  carry enough context for a precise message. Store failures never appear
  here - they are logged inside the ledger and never cross its boundary.

USAGE:
  var qe *leave.QuotaExceededError
  if errors.As(err, &qe) {
      // qe.Remaining is the exact number of days left
  }
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotAuthenticated is returned when a command requires a logged-in
	// user and none is present.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrQuotaExceeded is the sentinel wrapped by QuotaExceededError.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrConstraintViolation is the sentinel wrapped by ConstraintError.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrNotFound is returned when a referenced user or request is absent
	// and the lookup is the point of the operation.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports invalid command input (missing date, end before
// start, unknown enum value). Nothing is persisted when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// QuotaExceededError reports a submission that would overshoot the yearly
// quota. Remaining is clamped at zero so the UI can render it directly.
type QuotaExceededError struct {
	Type      Type
	Year      int
	Limit     int
	Used      int
	Requested int
	Remaining int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s quota exceeded for %d: %d requested, %d remaining of %d",
		e.Type, e.Year, e.Requested, e.Remaining, e.Limit)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

// ConstraintError reports a uniqueness or referential violation (duplicate
// department name, department still in use). BlockingUsers is set only for
// department deletion, where the message must report the count.
type ConstraintError struct {
	Message       string
	BlockingUsers int
}

func (e *ConstraintError) Error() string { return e.Message }

func (e *ConstraintError) Unwrap() error { return ErrConstraintViolation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid or conflicting
// client input rather than an internal failure.
func IsClientError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrConstraintViolation) ||
		errors.Is(err, ErrNotAuthenticated)
}
