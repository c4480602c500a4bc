/*
Package leave provides the core domain model and quota policy.

PURPOSE:
  This package contains the domain types shared by every layer (ledger,
  stores, API) and the pure quota computations: day counting for a date
  range, per-year usage aggregation, and the status-transition table that
  drives the per-user counters.

KEY CONCEPTS IN THIS FILE (types.go):
  - User:        Identity plus running used-day counters
  - Request:     A single leave instance with a denormalized snapshot
  - Type/Status: Leave type and lifecycle enums
  - RolePermissions / Settings: Authorization config and global quotas

DESIGN PRINCIPLES:
  1. Purity: No I/O anywhere in this package - computations only
  2. Wire fidelity: Enum values match what the stores record
  3. Snapshots: UserName/Department on a request are frozen at creation
     and intentionally never re-synced with later edits to the user

SEE ALSO:
  - policy.go: Day counting and used-in-year aggregation
  - transition.go: Counter deltas for status transitions
  - errors.go: Error taxonomy shared with the ledger
*/
package leave

import "time"

// =============================================================================
// ENUMS
// =============================================================================

// Type identifies a kind of leave. The values are the strings recorded in
// the remote store, so they double as wire values.
type Type string

const (
	TypeAnnual        Type = "Annual Leave"   // Limited per year by Settings.AnnualLeaveLimit
	TypeSick          Type = "Sick Leave"     // Unlimited
	TypePersonal      Type = "Personal Leave" // Unlimited
	TypePublicHoliday Type = "Public Holiday" // Limited per year by Settings.PublicHolidayCount
	TypeNote          Type = "Note"           // Calendar annotation, never consumes quota
)

// Status is the lifecycle state of a request.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// Role identifies the authorization role of a user.
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleHRAdmin  Role = "HR_ADMIN"
)

// Feature is a named capability granted (or not) to a role.
type Feature string

const (
	FeatureViewDashboard  Feature = "VIEW_DASHBOARD"
	FeatureViewCalendar   Feature = "VIEW_CALENDAR"
	FeatureRequestLeave   Feature = "REQUEST_LEAVE"
	FeatureApproveLeave   Feature = "APPROVE_LEAVE"
	FeatureManageSettings Feature = "MANAGE_SETTINGS"
	FeatureViewReports    Feature = "VIEW_REPORTS"
)

// AllFeatures lists every known feature, in display order.
var AllFeatures = []Feature{
	FeatureViewDashboard,
	FeatureViewCalendar,
	FeatureRequestLeave,
	FeatureApproveLeave,
	FeatureManageSettings,
	FeatureViewReports,
}

// ValidType reports whether t is one of the known leave types.
func ValidType(t Type) bool {
	switch t {
	case TypeAnnual, TypeSick, TypePersonal, TypePublicHoliday, TypeNote:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// =============================================================================
// USER
// =============================================================================

// User is an employee identity with its running used-day counters.
//
// INVARIANT: AnnualLeaveUsed and PublicHolidayUsed reflect only APPROVED
// requests whose start date falls in the current calendar year. They move
// on approval/rejection/deletion transitions, never at submission time.
type User struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Password          string `json:"password"` // Plaintext credential; known weakness, out of scope to fix
	Name              string `json:"name"`
	Department        string `json:"department"`
	Role              Role   `json:"role"`
	AnnualLeaveUsed   int    `json:"annualLeaveUsed"`
	PublicHolidayUsed int    `json:"publicHolidayUsed"`
	Avatar            string `json:"avatar"`
}

// =============================================================================
// REQUEST
// =============================================================================

// Request is a single leave instance.
//
// UserName and Department are a denormalized snapshot taken from the user
// at creation time. Historical reports must show the department a person
// belonged to when they took the leave, so these are never re-synced.
type Request struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	UserName   string    `json:"userName"`
	Department string    `json:"department"`
	Type       Type      `json:"type"`
	StartDate  Date      `json:"startDate"`
	EndDate    Date      `json:"endDate"`
	DaysCount  int       `json:"daysCount"` // Derived via DayCount; 0 for NOTE
	Status     Status    `json:"status"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"createdAt"`
}

// =============================================================================
// PERMISSIONS AND SETTINGS
// =============================================================================

// RolePermissions maps each role to its feature grants.
type RolePermissions map[Role]map[Feature]bool

// Allows reports whether the role has the feature. Unknown roles and
// features are denied.
func (p RolePermissions) Allows(role Role, feature Feature) bool {
	grants, ok := p[role]
	if !ok {
		return false
	}
	return grants[feature]
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (p RolePermissions) Clone() RolePermissions {
	out := make(RolePermissions, len(p))
	for role, grants := range p {
		c := make(map[Feature]bool, len(grants))
		for f, v := range grants {
			c[f] = v
		}
		out[role] = c
	}
	return out
}

// Settings holds the global quotas shared by all users.
type Settings struct {
	AnnualLeaveLimit   int `json:"annualLeaveLimit"`
	PublicHolidayCount int `json:"publicHolidayCount"`
}

// Limit returns the yearly quota for a leave type, and whether the type is
// quota-limited at all. SICK, PERSONAL and NOTE are unlimited.
func (s Settings) Limit(t Type) (int, bool) {
	switch t {
	case TypeAnnual:
		return s.AnnualLeaveLimit, true
	case TypePublicHoliday:
		return s.PublicHolidayCount, true
	default:
		return 0, false
	}
}
