/*
admin.go - User, department, permission and settings commands

PURPOSE:
  The administrative side of the command surface. Each command validates a
  uniqueness or referential constraint before mutating:

  - AddDepartment fails on a duplicate name
  - RenameDepartment fails if the new name is taken, and on success
    cascades into every user and request that referenced the old name
    (denormalization repair - the one deliberate exception to "snapshots
    are never re-synced", because a rename is the same department)
  - DeleteDepartment fails while any user references it, reporting the
    blocking count
  - DeleteUser has no cascade: existing requests keep their snapshot and
    orphaned userId, since display uses the snapshot, not a live join
*/
package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/zenhr/leave-engine/leave"
)

// =============================================================================
// USERS
// =============================================================================

// AddUser creates a user. The username (when set) must be unique and the
// department must exist. An empty ID gets a generated one.
func (l *Ledger) AddUser(u leave.User) (leave.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if strings.TrimSpace(u.Name) == "" {
		return leave.User{}, &leave.ValidationError{Field: "name", Message: "name is required"}
	}
	if u.Username != "" {
		for _, existing := range l.users {
			if existing.Username == u.Username {
				return leave.User{}, &leave.ConstraintError{
					Message: fmt.Sprintf("username %q is already taken", u.Username),
				}
			}
		}
	}
	if u.Department != "" && !l.hasDepartmentLocked(u.Department) {
		return leave.User{}, &leave.ConstraintError{
			Message: fmt.Sprintf("department %q does not exist", u.Department),
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = leave.RoleEmployee
	}

	l.users = append(l.users, u)
	l.saveUsersLocked()
	created := u
	l.remoteWrite("insert user", func(ctx context.Context) error {
		return l.remote.InsertUser(ctx, created)
	})
	return u, nil
}

// UserPatch carries partial user updates; nil fields stay unchanged.
type UserPatch struct {
	Username          *string
	Password          *string
	Name              *string
	Department        *string
	Role              *leave.Role
	AnnualLeaveUsed   *int
	PublicHolidayUsed *int
	Avatar            *string
}

// UpdateUser applies a patch to an existing user. A changed department must
// reference an existing one. Requests keep their creation-time snapshot.
func (l *Ledger) UpdateUser(id string, patch UserPatch) (leave.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	user := l.findUserLocked(id)
	if user == nil {
		return leave.User{}, leave.ErrNotFound
	}
	if patch.Department != nil && *patch.Department != "" && !l.hasDepartmentLocked(*patch.Department) {
		return leave.User{}, &leave.ConstraintError{
			Message: fmt.Sprintf("department %q does not exist", *patch.Department),
		}
	}
	if patch.Username != nil && *patch.Username != "" {
		for _, existing := range l.users {
			if existing.ID != id && existing.Username == *patch.Username {
				return leave.User{}, &leave.ConstraintError{
					Message: fmt.Sprintf("username %q is already taken", *patch.Username),
				}
			}
		}
	}

	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Password != nil {
		user.Password = *patch.Password
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Department != nil {
		user.Department = *patch.Department
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.AnnualLeaveUsed != nil {
		user.AnnualLeaveUsed = *patch.AnnualLeaveUsed
	}
	if patch.PublicHolidayUsed != nil {
		user.PublicHolidayUsed = *patch.PublicHolidayUsed
	}
	if patch.Avatar != nil {
		user.Avatar = *patch.Avatar
	}

	l.saveUsersLocked()
	updated := *user
	l.remoteWrite("update user", func(ctx context.Context) error {
		return l.remote.UpdateUser(ctx, updated)
	})
	return updated, nil
}

// DeleteUser removes a user. Their requests are left untouched: the
// denormalized snapshot keeps historical reports correct.
func (l *Ledger) DeleteUser(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.users {
		if l.users[i].ID == id {
			l.users = append(l.users[:i], l.users[i+1:]...)
			if l.currentUserID == id {
				l.currentUserID = ""
			}
			l.saveUsersLocked()
			l.remoteWrite("delete user", func(ctx context.Context) error {
				return l.remote.DeleteUser(ctx, id)
			})
			return nil
		}
	}
	return leave.ErrNotFound
}

// =============================================================================
// DEPARTMENTS
// =============================================================================

// AddDepartment creates a department with a unique name.
func (l *Ledger) AddDepartment(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &leave.ValidationError{Field: "name", Message: "department name is required"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.hasDepartmentLocked(name) {
		return &leave.ConstraintError{Message: fmt.Sprintf("department %q already exists", name)}
	}

	l.departments = append(l.departments, name)
	l.saveDepartmentsLocked()
	l.remoteWrite("insert department", func(ctx context.Context) error {
		return l.remote.InsertDepartment(ctx, name)
	})
	return nil
}

// RenameDepartment renames a department and cascades the new name into
// every user and request that referenced the old one.
func (l *Ledger) RenameDepartment(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return &leave.ValidationError{Field: "name", Message: "department name is required"}
	}
	if oldName == newName {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasDepartmentLocked(oldName) {
		return leave.ErrNotFound
	}
	if l.hasDepartmentLocked(newName) {
		return &leave.ConstraintError{Message: fmt.Sprintf("department %q already exists", newName)}
	}

	for i, d := range l.departments {
		if d == oldName {
			l.departments[i] = newName
		}
	}
	for i := range l.users {
		if l.users[i].Department == oldName {
			l.users[i].Department = newName
		}
	}
	for i := range l.requests {
		if l.requests[i].Department == oldName {
			l.requests[i].Department = newName
		}
	}

	l.saveDepartmentsLocked()
	l.saveUsersLocked()
	l.saveRequestsLocked()
	l.remoteWrite("rename department", func(ctx context.Context) error {
		return l.remote.RenameDepartment(ctx, oldName, newName)
	})
	return nil
}

// DeleteDepartment removes a department no user references. The error for
// a department in use reports how many users block the deletion.
func (l *Ledger) DeleteDepartment(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasDepartmentLocked(name) {
		return leave.ErrNotFound
	}

	blocking := 0
	for _, u := range l.users {
		if u.Department == name {
			blocking++
		}
	}
	if blocking > 0 {
		return &leave.ConstraintError{
			Message:       fmt.Sprintf("department %q is in use by %d user(s)", name, blocking),
			BlockingUsers: blocking,
		}
	}

	for i, d := range l.departments {
		if d == name {
			l.departments = append(l.departments[:i], l.departments[i+1:]...)
			break
		}
	}
	l.saveDepartmentsLocked()
	l.remoteWrite("delete department", func(ctx context.Context) error {
		return l.remote.DeleteDepartment(ctx, name)
	})
	return nil
}

// =============================================================================
// PERMISSIONS AND SETTINGS
// =============================================================================

// SetPermission grants or revokes a single feature for a role.
func (l *Ledger) SetPermission(role leave.Role, feature leave.Feature, allowed bool) error {
	if role != leave.RoleEmployee && role != leave.RoleHRAdmin {
		return &leave.ValidationError{Field: "role", Message: "unknown role"}
	}
	known := false
	for _, f := range leave.AllFeatures {
		if f == feature {
			known = true
			break
		}
	}
	if !known {
		return &leave.ValidationError{Field: "feature", Message: "unknown feature"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.permissions == nil {
		l.permissions = leave.RolePermissions{}
	}
	if l.permissions[role] == nil {
		l.permissions[role] = map[leave.Feature]bool{}
	}
	l.permissions[role][feature] = allowed

	l.savePermissionsLocked()
	l.remoteWrite("upsert permission", func(ctx context.Context) error {
		return l.remote.UpsertPermission(ctx, role, feature, allowed)
	})
	return nil
}

// UpdateSettings replaces the global quotas shared by all users.
func (l *Ledger) UpdateSettings(annualLeaveLimit, publicHolidayCount int) error {
	if annualLeaveLimit < 0 {
		return &leave.ValidationError{Field: "annualLeaveLimit", Message: "must not be negative"}
	}
	if publicHolidayCount < 0 {
		return &leave.ValidationError{Field: "publicHolidayCount", Message: "must not be negative"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.settings = leave.Settings{
		AnnualLeaveLimit:   annualLeaveLimit,
		PublicHolidayCount: publicHolidayCount,
	}
	l.saveSettingsLocked()
	settings := l.settings
	l.remoteWrite("upsert settings", func(ctx context.Context) error {
		return l.remote.UpsertSettings(ctx, settings)
	})
	return nil
}
