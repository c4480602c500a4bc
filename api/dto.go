/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  Wire-level structs that decouple the HTTP contract from the domain types.
  Domain types with stable camelCase JSON tags (User, Request, Settings) are
  serialized directly; this file holds the shapes that exist only at the
  HTTP boundary: command inputs, the composite state payload, and the error
  envelope.

SEE ALSO:
  - handlers.go: Where these are decoded and encoded
*/
package api

import (
	"github.com/zenhr/leave-engine/leave"
)

// LoginRequest carries the credentials for POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// StateResponse is the full snapshot the frontend boots from.
type StateResponse struct {
	Users       []leave.User          `json:"users"`
	Requests    []leave.Request       `json:"requests"`
	Departments []string              `json:"departments"`
	Permissions leave.RolePermissions `json:"permissions"`
	Settings    leave.Settings        `json:"settings"`
	CurrentUser *leave.User           `json:"currentUser,omitempty"`
}

// SubmitRequestInput is the body for POST /api/requests.
type SubmitRequestInput struct {
	Type      leave.Type `json:"type"`
	StartDate leave.Date `json:"startDate"`
	EndDate   leave.Date `json:"endDate"`
	Reason    string     `json:"reason"`
}

// UpdateStatusInput is the body for PUT /api/requests/{id}/status.
type UpdateStatusInput struct {
	Status leave.Status `json:"status"`
}

// UpdateUserInput is the body for PUT /api/users/{id}. Pointer fields
// distinguish "not sent" from "set to zero value".
type UpdateUserInput struct {
	Username          *string     `json:"username,omitempty"`
	Password          *string     `json:"password,omitempty"`
	Name              *string     `json:"name,omitempty"`
	Department        *string     `json:"department,omitempty"`
	Role              *leave.Role `json:"role,omitempty"`
	AnnualLeaveUsed   *int        `json:"annualLeaveUsed,omitempty"`
	PublicHolidayUsed *int        `json:"publicHolidayUsed,omitempty"`
	Avatar            *string     `json:"avatar,omitempty"`
}

// DepartmentInput names a department for creation or rename.
type DepartmentInput struct {
	Name string `json:"name"`
}

// PermissionInput is the body for PUT /api/permissions.
type PermissionInput struct {
	Role    leave.Role    `json:"role"`
	Feature leave.Feature `json:"feature"`
	Allowed bool          `json:"allowed"`
}

// WebhookResult reports the outcome of a webhook probe.
type WebhookResult struct {
	OK bool `json:"ok"`
}

// ErrorResponse is the JSON envelope for every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
