/*
policy.go - Pure quota computations

PURPOSE:
  The two computations every command in the ledger leans on:

  DayCount:   How many days does a date range consume?
  UsedInYear: How many days has a user already booked for a type in a year?

BUSINESS RULES:
  - Sundays never count. The one weekly day universally treated as
    non-working is skipped; Saturdays DO count. Company public holidays are
    modeled as their own leave type, not subtracted here.
  - NOTE entries are calendar annotations: always zero days.
  - UsedInYear counts PENDING as well as APPROVED requests. A pending
    request provisionally reserves quota so two submissions cannot both
    pass the check against the same remaining balance. Only REJECTED
    requests release their reservation.
  - A request books against the year of its START date, not the year it
    was submitted in. A request submitted in 2025 for a 2026 trip consumes
    the 2026 quota.

SEE ALSO:
  - transition.go: How approvals/rejections move the user counters
*/
package leave

// DayCount returns the number of leave days consumed by the inclusive range
// [start, end], excluding Sundays. NOTE entries are always zero. A range
// with end before start returns 0; callers are expected to reject that case
// before calling.
func DayCount(start, end Date, typ Type) int {
	if typ == TypeNote {
		return 0
	}
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0
	}

	count := 0
	for d := start; !d.After(end); d = d.AddDays(1) {
		if !d.IsSunday() {
			count++
		}
	}
	return count
}

// UsedInYear sums DaysCount over all non-rejected requests of the given
// user and type whose start date falls in the given calendar year.
func UsedInYear(requests []Request, userID string, typ Type, year int) int {
	used := 0
	for _, r := range requests {
		if r.UserID != userID || r.Type != typ || r.Status == StatusRejected {
			continue
		}
		if r.StartDate.Year() != year {
			continue
		}
		used += r.DaysCount
	}
	return used
}

// Remaining returns the quota left for a user/type/year, clamped at zero.
// The second return is false for unlimited types.
func Remaining(requests []Request, userID string, typ Type, year int, settings Settings) (int, bool) {
	limit, limited := settings.Limit(typ)
	if !limited {
		return 0, false
	}
	remaining := limit - UsedInYear(requests, userID, typ, year)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}
