package reports

import (
	"github.com/shopspring/decimal"

	"hrms/internal/domain/gratuity"
	"hrms/internal/domain/leave"
)

const employeeStatusActive = "active"

// Snapshot holds the raw rows the dashboard is derived from.
type Snapshot struct {
	Employees  []EmployeeRow
	Payroll    []PayrollRow
	Compliance []ComplianceRow
	Reviews    []ReviewRow
	Assets     []AssetRow
	Expenses   []ExpenseRow
	Benefits   []BenefitRow
	Leaves     []LeaveRow
}

type EmployeeRow struct {
	Status       string
	DepartmentID string
}

type PayrollRow struct {
	Net       decimal.Decimal
	WPSStatus string
}

type ComplianceRow struct {
	Score  decimal.Decimal
	Status string
}

type ReviewRow struct {
	Rating decimal.Decimal
}

type AssetRow struct {
	Status string
	Value  decimal.Decimal
}

type ExpenseRow struct {
	Category string
	Amount   decimal.Decimal
}

type BenefitRow struct {
	Status string
	Amount decimal.Decimal
}

type LeaveRow struct {
	Status string
}

type Dashboard struct {
	Headcount              int                        `json:"headcount"`
	HeadcountByDepartment  map[string]int             `json:"headcountByDepartment"`
	TotalPayroll           decimal.Decimal            `json:"totalPayroll"`
	WPSStatus              map[string]int             `json:"wpsStatus"`
	AverageComplianceScore decimal.Decimal            `json:"averageComplianceScore"`
	ComplianceStatus       map[string]int             `json:"complianceStatus"`
	AverageRating          decimal.Decimal            `json:"averageRating"`
	AssetsByStatus         map[string]int             `json:"assetsByStatus"`
	TotalAssetValue        decimal.Decimal            `json:"totalAssetValue"`
	ExpensesByCategory     map[string]decimal.Decimal `json:"expensesByCategory"`
	TotalExpenses          decimal.Decimal            `json:"totalExpenses"`
	GratuityLiability      decimal.Decimal            `json:"gratuityLiability"`
	GratuityPaidOut        decimal.Decimal            `json:"gratuityPaidOut"`
	PendingLeave           int                        `json:"pendingLeave"`
}

// BuildDashboard derives every statistic from the snapshot. Nothing is
// cached between calls.
func BuildDashboard(s Snapshot) Dashboard {
	active := Filter(s.Employees, func(e EmployeeRow) bool { return e.Status == employeeStatusActive })
	accruing := Filter(s.Benefits, func(b BenefitRow) bool { return b.Status == gratuity.StatusAccruing })
	paidOut := Filter(s.Benefits, func(b BenefitRow) bool { return b.Status == gratuity.StatusPaidOut })
	benefitAmount := func(b BenefitRow) decimal.Decimal { return b.Amount }

	return Dashboard{
		Headcount:              len(active),
		HeadcountByDepartment:  CountBy(active, func(e EmployeeRow) string { return e.DepartmentID }),
		TotalPayroll:           Sum(s.Payroll, func(p PayrollRow) decimal.Decimal { return p.Net }),
		WPSStatus:              CountBy(s.Payroll, func(p PayrollRow) string { return p.WPSStatus }),
		AverageComplianceScore: Average(s.Compliance, func(c ComplianceRow) decimal.Decimal { return c.Score }),
		ComplianceStatus:       CountBy(s.Compliance, func(c ComplianceRow) string { return c.Status }),
		AverageRating:          Average(s.Reviews, func(r ReviewRow) decimal.Decimal { return r.Rating }),
		AssetsByStatus:         CountBy(s.Assets, func(a AssetRow) string { return a.Status }),
		TotalAssetValue:        Sum(s.Assets, func(a AssetRow) decimal.Decimal { return a.Value }),
		ExpensesByCategory:     SumBy(s.Expenses, func(e ExpenseRow) string { return e.Category }, func(e ExpenseRow) decimal.Decimal { return e.Amount }),
		TotalExpenses:          Sum(s.Expenses, func(e ExpenseRow) decimal.Decimal { return e.Amount }),
		GratuityLiability:      Sum(accruing, benefitAmount),
		GratuityPaidOut:        Sum(paidOut, benefitAmount),
		PendingLeave:           Count(s.Leaves, func(l LeaveRow) bool { return l.Status == leave.StatusPending }),
	}
}
