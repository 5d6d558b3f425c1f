package records

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidArgument = errors.New("invalid record argument")
	ErrUnknownEmployee = errors.New("employee not found")
	ErrDuplicate       = errors.New("record already exists")
)

const (
	AssetAvailable   = "available"
	AssetAssigned    = "assigned"
	AssetMaintenance = "maintenance"
	AssetRetired     = "retired"

	AuditScheduled = "scheduled"
	AuditCompleted = "completed"
	AuditFailed    = "failed"
)

type Asset struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	SerialNumber string          `json:"serialNumber,omitempty"`
	AssignedTo   string          `json:"assignedTo,omitempty"`
	Status       string          `json:"status"`
	Value        decimal.Decimal `json:"value"`
	PurchasedOn  *time.Time      `json:"purchasedOn,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type ComplianceAudit struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Area      string          `json:"area"`
	AuditDate time.Time       `json:"auditDate"`
	Score     decimal.Decimal `json:"score"`
	Status    string          `json:"status"`
	Findings  string          `json:"findings,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type PerformanceReview struct {
	ID         string          `json:"id"`
	EmployeeID string          `json:"employeeId"`
	ReviewerID string          `json:"reviewerId,omitempty"`
	Period     string          `json:"period"`
	Rating     decimal.Decimal `json:"rating"`
	Comments   string          `json:"comments,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type Expense struct {
	ID          string          `json:"id"`
	EmployeeID  string          `json:"employeeId"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	IncurredOn  time.Time       `json:"incurredOn"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
