package gratuity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusAccruing = "accruing"
	StatusPaidOut  = "paid_out"
)

type BenefitRecord struct {
	ID              string          `json:"id"`
	TenantID        string          `json:"-"`
	EmployeeID      string          `json:"employeeId"`
	YearsOfService  decimal.Decimal `json:"yearsOfService"`
	BasicSalary     decimal.Decimal `json:"basicSalary"`
	GratuityAmount  decimal.Decimal `json:"gratuityAmount"`
	Status          string          `json:"status"`
	CalculatedAt    time.Time       `json:"calculatedAt"`
	PaidOutAt       *time.Time      `json:"paidOutAt,omitempty"`
	PayoutReference string          `json:"payoutReference,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Calculation is a preview that is never persisted.
type Calculation struct {
	YearsOfService decimal.Decimal `json:"yearsOfService"`
	BasicSalary    decimal.Decimal `json:"basicSalary"`
	GratuityAmount decimal.Decimal `json:"gratuityAmount"`
}

// Inputs carries optional overrides. Missing values are derived from the
// employee record: tenure from the start date, salary from basic salary.
type Inputs struct {
	YearsOfService decimal.NullDecimal
	BasicSalary    decimal.NullDecimal
}

// EmployeeTerms is the slice of the employee record the calculator reads.
type EmployeeTerms struct {
	EmployeeID  string
	FullName    string
	Currency    string
	BasicSalary decimal.Decimal
	StartDate   time.Time
	EndDate     *time.Time
}

type ListFilter struct {
	EmployeeID string
	Status     string
	Limit      int
	Offset     int
}
