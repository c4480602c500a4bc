/*
seed.go - Built-in defaults for a fresh installation

PURPOSE:
  When both the remote store and the local cache are empty, the ledger
  seeds itself with a working configuration: default quotas, the three
  starter departments, role permissions, and a demo user set including the
  admin account. Without the seeded admin there would be no way to log in
  and create real users.
*/
package ledger

import (
	"time"

	"github.com/zenhr/leave-engine/leave"
)

// DefaultSettings returns the starter quotas: 2 annual leave days and 13
// public holidays per year.
func DefaultSettings() leave.Settings {
	return leave.Settings{AnnualLeaveLimit: 2, PublicHolidayCount: 13}
}

// DefaultDepartments returns the starter department names.
func DefaultDepartments() []string {
	return []string{"IT", "AI", "Ops"}
}

// DefaultPermissions grants employees the self-service features and HR
// admins everything.
func DefaultPermissions() leave.RolePermissions {
	return leave.RolePermissions{
		leave.RoleEmployee: {
			leave.FeatureViewDashboard:  true,
			leave.FeatureViewCalendar:   true,
			leave.FeatureRequestLeave:   true,
			leave.FeatureApproveLeave:   false,
			leave.FeatureManageSettings: false,
			leave.FeatureViewReports:    false,
		},
		leave.RoleHRAdmin: {
			leave.FeatureViewDashboard:  true,
			leave.FeatureViewCalendar:   true,
			leave.FeatureRequestLeave:   true,
			leave.FeatureApproveLeave:   true,
			leave.FeatureManageSettings: true,
			leave.FeatureViewReports:    true,
		},
	}
}

func (l *Ledger) seedDefaults() {
	l.settings = DefaultSettings()
	l.departments = append([]string{}, DefaultDepartments()...)
	l.permissions = DefaultPermissions()

	l.users = []leave.User{
		{
			ID: "admin_01", Username: "admin", Password: "123456",
			Name: "Super Admin", Department: "Ops", Role: leave.RoleHRAdmin,
			Avatar: "https://ui-avatars.com/api/?name=Super+Admin&background=0D8ABC&color=fff",
		},
		{
			ID: "u1", Username: "alice", Password: "123",
			Name: "Alice Engineer", Department: "IT", Role: leave.RoleEmployee,
			AnnualLeaveUsed: 1, PublicHolidayUsed: 2,
			Avatar: "https://picsum.photos/seed/alice/100/100",
		},
		{
			ID: "u2", Username: "bob", Password: "123",
			Name: "Bob Data", Department: "AI", Role: leave.RoleEmployee,
			Avatar: "https://picsum.photos/seed/bob/100/100",
		},
		{
			ID: "u3", Username: "charlie", Password: "123",
			Name: "Charlie Ops", Department: "Ops", Role: leave.RoleEmployee,
			AnnualLeaveUsed: 2, PublicHolidayUsed: 5,
			Avatar: "https://picsum.photos/seed/charlie/100/100",
		},
	}

	l.requests = []leave.Request{
		{
			ID: "lr1", UserID: "u1", UserName: "Alice Engineer", Department: "IT",
			Type:      leave.TypeSick,
			StartDate: leave.NewDate(2024, time.May, 10),
			EndDate:   leave.NewDate(2024, time.May, 12),
			DaysCount: 2, // Sunday May 12 excluded
			Status:    leave.StatusApproved,
			Reason:    "Flu",
			CreatedAt: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "lr2", UserID: "u2", UserName: "Bob Data", Department: "AI",
			Type:      leave.TypeAnnual,
			StartDate: leave.NewDate(2024, time.June, 20),
			EndDate:   leave.NewDate(2024, time.June, 20),
			DaysCount: 1,
			Status:    leave.StatusPending,
			Reason:    "Family visit",
			CreatedAt: time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	l.saveAllLocked()
}
