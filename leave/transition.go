/*
transition.go - Counter deltas for status transitions

PURPOSE:
  The per-user used-day counters move only when a request's status changes.
  Re-decision is allowed (APPROVED -> REJECTED and back), and the same
  decision may arrive twice, so the deltas are an explicit lookup over
  (oldStatus, newStatus) pairs rather than ad hoc conditionals. Every
  transition is enumerable and testable; anything not listed is zero.

THE TABLE:
  PENDING  -> APPROVED   +1   first approval counts the days
  REJECTED -> APPROVED   +1   re-decision after a rejection
  APPROVED -> REJECTED   -1   reversal of a previously counted approval
  APPROVED -> PENDING    -1   approval withdrawn; the days come back
  PENDING  -> REJECTED    0   nothing was ever added
  REJECTED -> PENDING     0   nothing was ever added
  X        -> X           0   repeated decisions are idempotent

  The invariant: after any sequence of transitions, the counter holds the
  days of requests that are APPROVED right now. Every edge into APPROVED
  is +1, every edge out of APPROVED is -1, everything else is 0.

  Deletion of an APPROVED request refunds its days through the same -1
  path (see TransitionDelta's use in the ledger's DeleteRequest).
*/
package leave

type transition struct {
	From Status
	To   Status
}

var transitionDeltas = map[transition]int{
	{StatusPending, StatusApproved}:  +1,
	{StatusRejected, StatusApproved}: +1,
	{StatusApproved, StatusRejected}: -1,
	{StatusApproved, StatusPending}:  -1,
}

// TransitionDelta returns the counter multiplier for moving a request from
// oldStatus to newStatus: +1 adds the request's days to the user's counter,
// -1 refunds them, 0 leaves the counter untouched.
func TransitionDelta(oldStatus, newStatus Status) int {
	return transitionDeltas[transition{oldStatus, newStatus}]
}

// CountsAgainstQuota reports whether the leave type maintains a per-user
// counter at all. Only the two limited types do.
func CountsAgainstQuota(typ Type) bool {
	return typ == TypeAnnual || typ == TypePublicHoliday
}
