package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WPSPending   = "pending"
	WPSSubmitted = "submitted"
	WPSAccepted  = "accepted"
	WPSRejected  = "rejected"
)

const WarningNegativeNet = "negative_net"

type Entry struct {
	ID           string          `json:"id"`
	EmployeeID   string          `json:"employeeId"`
	PeriodStart  time.Time       `json:"periodStart"`
	PeriodEnd    time.Time       `json:"periodEnd"`
	BasicSalary  decimal.Decimal `json:"basicSalary"`
	Allowances   decimal.Decimal `json:"allowances"`
	Deductions   decimal.Decimal `json:"deductions"`
	Gross        decimal.Decimal `json:"gross"`
	Net          decimal.Decimal `json:"net"`
	Currency     string          `json:"currency"`
	WPSStatus    string          `json:"wpsStatus"`
	WPSReference string          `json:"wpsReference,omitempty"`
	Warnings     []string        `json:"warnings,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// EntryInput is what clients send. Gross and net are always derived.
type EntryInput struct {
	EmployeeID  string
	PeriodStart time.Time
	PeriodEnd   time.Time
	BasicSalary decimal.NullDecimal
	Lines       []InputLine
}

type ListFilter struct {
	EmployeeID string
	WPSStatus  string
	PeriodFrom *time.Time
	PeriodTo   *time.Time
	Limit      int
	Offset     int
}
