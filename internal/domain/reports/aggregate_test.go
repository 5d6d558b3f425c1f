package reports

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func identity(d decimal.Decimal) decimal.Decimal { return d }

func TestAggregatesOverEmptyInput(t *testing.T) {
	var none []decimal.Decimal
	assert.True(t, Sum(none, identity).IsZero())
	assert.True(t, Average(none, identity).IsZero())
	assert.Empty(t, CountBy(none, func(decimal.Decimal) string { return "x" }))
	assert.Empty(t, SumBy(none, func(decimal.Decimal) string { return "x" }, identity))
}

func TestAggregates(t *testing.T) {
	values := []decimal.Decimal{dec("4"), dec("4.5"), dec("3.5")}
	assert.True(t, Sum(values, identity).Equal(dec("12")))
	assert.True(t, Average(values, identity).Equal(dec("4")))

	rows := []ExpenseRow{
		{Category: "travel", Amount: dec("120.50")},
		{Category: "meals", Amount: dec("30")},
		{Category: "travel", Amount: dec("79.50")},
	}
	byCategory := SumBy(rows, func(e ExpenseRow) string { return e.Category }, func(e ExpenseRow) decimal.Decimal { return e.Amount })
	require.Len(t, byCategory, 2)
	assert.True(t, byCategory["travel"].Equal(dec("200")))
	assert.Equal(t, map[string]int{"travel": 2, "meals": 1}, CountBy(rows, func(e ExpenseRow) string { return e.Category }))
}

func TestBuildDashboardEmpty(t *testing.T) {
	d := BuildDashboard(Snapshot{})
	assert.Zero(t, d.Headcount)
	assert.Zero(t, d.PendingLeave)
	for _, v := range []decimal.Decimal{d.TotalPayroll, d.AverageComplianceScore, d.AverageRating, d.TotalAssetValue, d.TotalExpenses, d.GratuityLiability, d.GratuityPaidOut} {
		assert.True(t, v.IsZero())
	}
	assert.Empty(t, d.WPSStatus)
	assert.Empty(t, d.AssetsByStatus)
	assert.Empty(t, d.ExpensesByCategory)
}

func TestBuildDashboard(t *testing.T) {
	snap := Snapshot{
		Employees: []EmployeeRow{
			{Status: "active", DepartmentID: "d1"},
			{Status: "active", DepartmentID: "d1"},
			{Status: "active", DepartmentID: "d2"},
			{Status: "terminated", DepartmentID: "d2"},
		},
		Payroll: []PayrollRow{
			{Net: dec("9000"), WPSStatus: "accepted"},
			{Net: dec("7500.25"), WPSStatus: "pending"},
		},
		Compliance: []ComplianceRow{{Score: dec("80"), Status: "completed"}, {Score: dec("90"), Status: "completed"}},
		Reviews:    []ReviewRow{{Rating: dec("4")}, {Rating: dec("5")}},
		Assets:     []AssetRow{{Status: "assigned", Value: dec("1200")}, {Status: "available", Value: dec("800")}},
		Expenses:   []ExpenseRow{{Category: "travel", Amount: dec("50")}},
		Benefits: []BenefitRow{
			{Status: "accruing", Amount: dec("45000")},
			{Status: "accruing", Amount: dec("5000")},
			{Status: "paid_out", Amount: dec("25000")},
		},
		Leaves: []LeaveRow{{Status: "pending"}, {Status: "approved"}, {Status: "pending"}},
	}

	d := BuildDashboard(snap)
	assert.Equal(t, 3, d.Headcount)
	assert.Equal(t, map[string]int{"d1": 2, "d2": 1}, d.HeadcountByDepartment)
	assert.True(t, d.TotalPayroll.Equal(dec("16500.25")))
	assert.Equal(t, map[string]int{"accepted": 1, "pending": 1}, d.WPSStatus)
	assert.True(t, d.AverageComplianceScore.Equal(dec("85")))
	assert.True(t, d.AverageRating.Equal(dec("4.5")))
	assert.True(t, d.TotalAssetValue.Equal(dec("2000")))
	assert.True(t, d.GratuityLiability.Equal(dec("50000")))
	assert.True(t, d.GratuityPaidOut.Equal(dec("25000")))
	assert.Equal(t, 2, d.PendingLeave)
}

type fakeRepository struct {
	snap Snapshot
	err  error
}

func (f fakeRepository) Snapshot(context.Context, string) (Snapshot, error) { return f.snap, f.err }

func (f fakeRepository) ListJobRuns(context.Context, string, JobRunFilter, int, int) ([]JobRun, error) {
	return []JobRun{{ID: "run-1", JobType: "gratuity_recalculation", Status: "completed"}}, nil
}

func (f fakeRepository) CountJobRuns(context.Context, string, JobRunFilter) (int, error) { return 1, nil }

func (f fakeRepository) JobRunByID(context.Context, string, string) (JobRun, error) {
	return JobRun{}, ErrJobRunNotFound
}

func TestServiceDashboard(t *testing.T) {
	svc := NewService(fakeRepository{snap: Snapshot{Leaves: []LeaveRow{{Status: "pending"}}}})
	d, err := svc.Dashboard(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, d.PendingLeave)

	boom := errors.New("boom")
	_, err = NewService(fakeRepository{err: boom}).Dashboard(context.Background(), "t1")
	assert.ErrorIs(t, err, boom)

	runs, total, err := svc.JobRuns(context.Background(), "t1", JobRunFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
	assert.Equal(t, 1, total)
}
