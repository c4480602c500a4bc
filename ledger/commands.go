/*
commands.go - Leave request lifecycle commands

PURPOSE:
  The three commands that move leave requests through their lifecycle:

  SubmitRequest:       PENDING request creation with quota enforcement
  UpdateRequestStatus: Any status move, re-decision and reset-to-pending
                       included
  DeleteRequest:       Removal from any state, refunding counted days

COUNTER MAINTENANCE:
  User.AnnualLeaveUsed / PublicHolidayUsed move only here, and only through
  leave.TransitionDelta - an explicit (oldStatus, newStatus) table - so
  re-approving an APPROVED request never double-counts, rejecting a
  previously approved one refunds exactly once, and withdrawing an approval
  back to PENDING refunds the same way. After any sequence of moves the
  counter holds the days of requests that are APPROVED right now. Counters track the current
  calendar year only; a request whose start date lies in another year is
  booked against that year's quota but does not touch the running counter.

SEE ALSO:
  - leave/transition.go: The delta table
  - leave/policy.go: DayCount and UsedInYear
*/
package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/zenhr/leave-engine/leave"
)

// SubmitInput is what a user supplies when requesting leave. Everything
// else on the request (snapshot, status, timestamps) is derived.
type SubmitInput struct {
	Type      leave.Type
	StartDate leave.Date
	EndDate   leave.Date
	Reason    string
}

// SubmitRequest validates the input against the quota policy and, on
// success, creates a PENDING request. Counters are NOT touched here; a
// pending request reserves quota purely through UsedInYear's accounting.
func (l *Ledger) SubmitRequest(input SubmitInput) (leave.Request, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	currentUser := l.findUserLocked(l.currentUserID)
	if currentUser == nil {
		return leave.Request{}, leave.ErrNotAuthenticated
	}
	if !leave.ValidType(input.Type) {
		return leave.Request{}, &leave.ValidationError{Field: "type", Message: "unknown leave type"}
	}
	if input.StartDate.IsZero() {
		return leave.Request{}, &leave.ValidationError{Field: "startDate", Message: "start date is required"}
	}

	if input.Type == leave.TypeNote {
		// A note is a zero-duration calendar annotation.
		input.EndDate = input.StartDate
	} else {
		if input.EndDate.IsZero() {
			return leave.Request{}, &leave.ValidationError{Field: "endDate", Message: "end date is required"}
		}
		if input.EndDate.Before(input.StartDate) {
			return leave.Request{}, &leave.ValidationError{Field: "endDate", Message: "end date is before start date"}
		}
	}

	daysCount := leave.DayCount(input.StartDate, input.EndDate, input.Type)

	// A request books against the year of its start date, not today's year.
	requestYear := input.StartDate.Year()
	if limit, limited := l.settings.Limit(input.Type); limited {
		used := leave.UsedInYear(l.requests, currentUser.ID, input.Type, requestYear)
		if used+daysCount > limit {
			remaining := limit - used
			if remaining < 0 {
				remaining = 0
			}
			return leave.Request{}, &leave.QuotaExceededError{
				Type:      input.Type,
				Year:      requestYear,
				Limit:     limit,
				Used:      used,
				Requested: daysCount,
				Remaining: remaining,
			}
		}
	}

	request := leave.Request{
		ID:         uuid.NewString(),
		UserID:     currentUser.ID,
		UserName:   currentUser.Name,       // snapshot, never re-synced
		Department: currentUser.Department, // snapshot, never re-synced
		Type:       input.Type,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		DaysCount:  daysCount,
		Status:     leave.StatusPending,
		Reason:     input.Reason,
		CreatedAt:  l.now(),
	}

	l.requests = append([]leave.Request{request}, l.requests...)
	l.saveRequestsLocked()
	l.remoteWrite("insert request", func(ctx context.Context) error {
		return l.remote.InsertRequest(ctx, request)
	})
	l.notify(request)

	return request, nil
}

// UpdateRequestStatus moves a request to a new status and keeps the owning
// user's counter consistent. An unknown id is a no-op (already handled
// elsewhere). The in-memory status always advances; the remote write is
// best-effort.
func (l *Ledger) UpdateRequestStatus(id string, newStatus leave.Status) error {
	if !leave.ValidStatus(newStatus) {
		return &leave.ValidationError{Field: "status", Message: "unknown status"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findRequestLocked(id)
	if idx < 0 {
		return nil
	}
	request := &l.requests[idx]
	oldStatus := request.Status

	// Counters track the current calendar year only.
	if request.StartDate.Year() == l.now().Year() && leave.CountsAgainstQuota(request.Type) {
		if delta := leave.TransitionDelta(oldStatus, newStatus); delta != 0 {
			l.applyCounterLocked(request.UserID, request.Type, delta*request.DaysCount)
		}
	}

	request.Status = newStatus
	l.saveRequestsLocked()
	l.remoteWrite("update request status", func(ctx context.Context) error {
		return l.remote.UpdateRequestStatus(ctx, id, newStatus)
	})
	l.notify(*request)

	return nil
}

// DeleteRequest removes a request from any state. If it was APPROVED with
// a current-year start date, its counted days are refunded exactly as a
// rejection would refund them.
func (l *Ledger) DeleteRequest(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.findRequestLocked(id)
	if idx < 0 {
		return nil
	}
	request := l.requests[idx]

	if request.Status == leave.StatusApproved &&
		request.StartDate.Year() == l.now().Year() &&
		leave.CountsAgainstQuota(request.Type) {
		refund := leave.TransitionDelta(leave.StatusApproved, leave.StatusRejected)
		l.applyCounterLocked(request.UserID, request.Type, refund*request.DaysCount)
	}

	l.requests = append(l.requests[:idx], l.requests[idx+1:]...)
	l.saveRequestsLocked()
	l.remoteWrite("delete request", func(ctx context.Context) error {
		return l.remote.DeleteRequest(ctx, id)
	})

	return nil
}

// applyCounterLocked adjusts the user's used-day counter for the leave
// type, clamped at zero, and persists the user locally then remotely.
func (l *Ledger) applyCounterLocked(userID string, typ leave.Type, days int) {
	user := l.findUserLocked(userID)
	if user == nil {
		return
	}

	switch typ {
	case leave.TypeAnnual:
		user.AnnualLeaveUsed += days
		if user.AnnualLeaveUsed < 0 {
			user.AnnualLeaveUsed = 0
		}
	case leave.TypePublicHoliday:
		user.PublicHolidayUsed += days
		if user.PublicHolidayUsed < 0 {
			user.PublicHolidayUsed = 0
		}
	default:
		return
	}

	updated := *user
	l.saveUsersLocked()
	l.remoteWrite("update user counters", func(ctx context.Context) error {
		return l.remote.UpdateUser(ctx, updated)
	})
}
