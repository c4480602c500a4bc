package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenhr/leave-engine/leave"
)

func request(id, userID, dept string, typ leave.Type, status leave.Status, start leave.Date, days int) leave.Request {
	return leave.Request{
		ID:         id,
		UserID:     userID,
		Department: dept,
		Type:       typ,
		Status:     status,
		StartDate:  start,
		EndDate:    start,
		DaysCount:  days,
	}
}

func TestBuild_UserUsage(t *testing.T) {
	// GIVEN a user with one approved and one pending annual request in 2024
	users := []leave.User{
		{ID: "u1", Name: "Alice", Department: "IT"},
	}
	requests := []leave.Request{
		request("r1", "u1", "IT", leave.TypeAnnual, leave.StatusApproved,
			leave.NewDate(2024, time.March, 4), 1),
		request("r2", "u1", "IT", leave.TypeAnnual, leave.StatusPending,
			leave.NewDate(2024, time.April, 1), 1),
		request("r3", "u1", "IT", leave.TypeAnnual, leave.StatusRejected,
			leave.NewDate(2024, time.May, 6), 3),
	}
	settings := leave.Settings{AnnualLeaveLimit: 2, PublicHolidayCount: 13}

	// WHEN building the 2024 summary
	summary := Build(users, requests, settings, 2024)

	// THEN pending reserves quota and the rejected request does not count
	require.Len(t, summary.Users, 1)
	usage := summary.Users[0]
	assert.Equal(t, 2, usage.AnnualUsed)
	assert.Equal(t, 0, usage.AnnualRemaining)
	assert.True(t, usage.AnnualUtilization.Equal(decimal.NewFromInt(100)),
		"got %s", usage.AnnualUtilization)
	assert.Equal(t, 1, summary.PendingCount)
	assert.Equal(t, 1, summary.ApprovedCount)
	assert.Equal(t, 1, summary.RejectedCount)
}

func TestBuild_YearScoping(t *testing.T) {
	// GIVEN approved requests in two different years
	users := []leave.User{{ID: "u1", Name: "Alice", Department: "IT"}}
	requests := []leave.Request{
		request("r1", "u1", "IT", leave.TypeAnnual, leave.StatusApproved,
			leave.NewDate(2024, time.December, 30), 2),
		request("r2", "u1", "IT", leave.TypeAnnual, leave.StatusApproved,
			leave.NewDate(2025, time.January, 6), 1),
	}
	settings := leave.Settings{AnnualLeaveLimit: 2}

	// WHEN building each year's summary
	s2024 := Build(users, requests, settings, 2024)
	s2025 := Build(users, requests, settings, 2025)

	// THEN each request is booked against its start date's year only
	assert.Equal(t, 2, s2024.Users[0].AnnualUsed)
	assert.Equal(t, 1, s2025.Users[0].AnnualUsed)
	assert.Equal(t, 2, s2024.MonthlyApprovedDays[11])
	assert.Equal(t, 1, s2025.MonthlyApprovedDays[0])
}

func TestBuild_DepartmentTotals(t *testing.T) {
	// GIVEN approved requests across two departments
	requests := []leave.Request{
		request("r1", "u1", "IT", leave.TypeSick, leave.StatusApproved,
			leave.NewDate(2024, time.February, 5), 2),
		request("r2", "u2", "IT", leave.TypeAnnual, leave.StatusApproved,
			leave.NewDate(2024, time.February, 12), 1),
		request("r3", "u3", "Ops", leave.TypeAnnual, leave.StatusApproved,
			leave.NewDate(2024, time.March, 11), 4),
		// pending never contributes days
		request("r4", "u3", "Ops", leave.TypeSick, leave.StatusPending,
			leave.NewDate(2024, time.March, 18), 2),
	}

	// WHEN building the summary
	summary := Build(nil, requests, leave.Settings{}, 2024)

	// THEN days are grouped per department and type, sorted by name
	require.Len(t, summary.Departments, 2)
	assert.Equal(t, "IT", summary.Departments[0].Department)
	assert.Equal(t, 3, summary.Departments[0].TotalDays)
	assert.Equal(t, 2, summary.Departments[0].DaysByType[leave.TypeSick])
	assert.Equal(t, "Ops", summary.Departments[1].Department)
	assert.Equal(t, 4, summary.Departments[1].TotalDays)
}

func TestBuild_NotesExcludedFromHistogram(t *testing.T) {
	// GIVEN an approved zero-day note entry
	requests := []leave.Request{
		request("r1", "u1", "IT", leave.TypeNote, leave.StatusApproved,
			leave.NewDate(2024, time.July, 1), 0),
	}

	// WHEN building the summary
	summary := Build(nil, requests, leave.Settings{}, 2024)

	// THEN it counts as approved but contributes no days anywhere
	assert.Equal(t, 1, summary.ApprovedCount)
	assert.Equal(t, [12]int{}, summary.MonthlyApprovedDays)
	assert.Empty(t, summary.Departments)
}

func TestUtilization_Rounding(t *testing.T) {
	// GIVEN a limit that does not divide evenly
	// WHEN computing utilization for 1 of 3 days
	got := utilization(1, 3)

	// THEN the rate is rounded to one decimal place
	assert.True(t, got.Equal(decimal.RequireFromString("33.3")), "got %s", got)
	assert.True(t, utilization(5, 0).IsZero())
}
