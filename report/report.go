/*
Package report computes read-only usage summaries.

PURPOSE:
  Derived data for the dashboards and reports screens: per-user and
  per-department totals for a year, a monthly histogram of approved days,
  and quota utilization rates. Everything here is computed from a snapshot
  the ledger hands out; nothing is persisted and nothing mutates.

WHY DECIMAL:
  Day counts are integers, but utilization is a ratio shown as a
  percentage. decimal keeps 1/3-style ratios exact to the rendered
  precision instead of accumulating float dust in report rows.
*/
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/zenhr/leave-engine/leave"
)

// UserUsage summarizes one user's quota consumption for a year.
type UserUsage struct {
	UserID            string          `json:"userId"`
	Name              string          `json:"name"`
	Department        string          `json:"department"`
	AnnualUsed        int             `json:"annualUsed"`
	AnnualRemaining   int             `json:"annualRemaining"`
	AnnualUtilization decimal.Decimal `json:"annualUtilization"` // percent, 1 decimal place
	PublicUsed        int             `json:"publicUsed"`
	PublicRemaining   int             `json:"publicRemaining"`
	PublicUtilization decimal.Decimal `json:"publicUtilization"`
	SickDays          int             `json:"sickDays"`
	PersonalDays      int             `json:"personalDays"`
}

// DepartmentUsage aggregates approved days per department and type.
type DepartmentUsage struct {
	Department string             `json:"department"`
	DaysByType map[leave.Type]int `json:"daysByType"`
	TotalDays  int                `json:"totalDays"`
}

// Summary is the full derived view for one year.
type Summary struct {
	Year        int               `json:"year"`
	Users       []UserUsage       `json:"users"`
	Departments []DepartmentUsage `json:"departments"`
	// MonthlyApprovedDays[0] is January. NOTE entries never contribute.
	MonthlyApprovedDays [12]int `json:"monthlyApprovedDays"`
	PendingCount        int     `json:"pendingCount"`
	ApprovedCount       int     `json:"approvedCount"`
	RejectedCount       int     `json:"rejectedCount"`
}

// Build computes the summary for a year from a state snapshot. Requests are
// bucketed by their start date's year, matching how quota is booked.
func Build(users []leave.User, requests []leave.Request, settings leave.Settings, year int) Summary {
	summary := Summary{Year: year}

	deptDays := map[string]map[leave.Type]int{}

	for _, r := range requests {
		if r.StartDate.Year() != year {
			continue
		}
		switch r.Status {
		case leave.StatusPending:
			summary.PendingCount++
		case leave.StatusApproved:
			summary.ApprovedCount++
		case leave.StatusRejected:
			summary.RejectedCount++
		}
		if r.Status != leave.StatusApproved || r.DaysCount == 0 {
			continue
		}

		month := int(r.StartDate.Month()) - 1
		summary.MonthlyApprovedDays[month] += r.DaysCount

		if deptDays[r.Department] == nil {
			deptDays[r.Department] = map[leave.Type]int{}
		}
		deptDays[r.Department][r.Type] += r.DaysCount
	}

	for _, u := range users {
		usage := UserUsage{
			UserID:     u.ID,
			Name:       u.Name,
			Department: u.Department,
		}
		usage.AnnualUsed = leave.UsedInYear(requests, u.ID, leave.TypeAnnual, year)
		usage.PublicUsed = leave.UsedInYear(requests, u.ID, leave.TypePublicHoliday, year)
		usage.SickDays = approvedDays(requests, u.ID, leave.TypeSick, year)
		usage.PersonalDays = approvedDays(requests, u.ID, leave.TypePersonal, year)

		usage.AnnualRemaining = clampRemaining(settings.AnnualLeaveLimit, usage.AnnualUsed)
		usage.PublicRemaining = clampRemaining(settings.PublicHolidayCount, usage.PublicUsed)
		usage.AnnualUtilization = utilization(usage.AnnualUsed, settings.AnnualLeaveLimit)
		usage.PublicUtilization = utilization(usage.PublicUsed, settings.PublicHolidayCount)

		summary.Users = append(summary.Users, usage)
	}
	sort.Slice(summary.Users, func(i, j int) bool {
		return summary.Users[i].Name < summary.Users[j].Name
	})

	for dept, byType := range deptDays {
		usage := DepartmentUsage{Department: dept, DaysByType: byType}
		for _, days := range byType {
			usage.TotalDays += days
		}
		summary.Departments = append(summary.Departments, usage)
	}
	sort.Slice(summary.Departments, func(i, j int) bool {
		return summary.Departments[i].Department < summary.Departments[j].Department
	})

	return summary
}

func approvedDays(requests []leave.Request, userID string, typ leave.Type, year int) int {
	total := 0
	for _, r := range requests {
		if r.UserID == userID && r.Type == typ && r.Status == leave.StatusApproved &&
			r.StartDate.Year() == year {
			total += r.DaysCount
		}
	}
	return total
}

func clampRemaining(limit, used int) int {
	remaining := limit - used
	if remaining < 0 {
		return 0
	}
	return remaining
}

// utilization returns used/limit as a percentage rounded to one decimal
// place. A zero limit yields zero rather than a division error.
func utilization(used, limit int) decimal.Decimal {
	if limit <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(used)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(limit))).
		Round(1)
}
