package records

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	maxScore  = decimal.NewFromInt(100)
	minRating = decimal.NewFromInt(1)
	maxRating = decimal.NewFromInt(5)
)

// NormalizeAsset trims fields and infers the status from the assignment when
// none is given.
func NormalizeAsset(a *Asset) error {
	a.Name = strings.TrimSpace(a.Name)
	a.Category = strings.TrimSpace(a.Category)
	a.SerialNumber = strings.TrimSpace(a.SerialNumber)
	a.AssignedTo = strings.TrimSpace(a.AssignedTo)
	if a.Status == "" {
		a.Status = AssetAvailable
		if a.AssignedTo != "" {
			a.Status = AssetAssigned
		}
	}
	if a.Name == "" || a.Value.IsNegative() {
		return ErrInvalidArgument
	}
	switch a.Status {
	case AssetAssigned:
		if a.AssignedTo == "" {
			return ErrInvalidArgument
		}
	case AssetAvailable, AssetMaintenance, AssetRetired:
		if a.AssignedTo != "" {
			return ErrInvalidArgument
		}
	default:
		return ErrInvalidArgument
	}
	return nil
}

func NormalizeAudit(a *ComplianceAudit) error {
	a.Title = strings.TrimSpace(a.Title)
	a.Area = strings.TrimSpace(a.Area)
	a.Findings = strings.TrimSpace(a.Findings)
	if a.Status == "" {
		a.Status = AuditScheduled
	}
	if a.Title == "" || a.AuditDate.IsZero() {
		return ErrInvalidArgument
	}
	if a.Score.IsNegative() || a.Score.GreaterThan(maxScore) {
		return ErrInvalidArgument
	}
	switch a.Status {
	case AuditScheduled, AuditCompleted, AuditFailed:
	default:
		return ErrInvalidArgument
	}
	return nil
}

func NormalizeReview(r *PerformanceReview) error {
	r.EmployeeID = strings.TrimSpace(r.EmployeeID)
	r.ReviewerID = strings.TrimSpace(r.ReviewerID)
	r.Period = strings.TrimSpace(r.Period)
	r.Comments = strings.TrimSpace(r.Comments)
	if r.EmployeeID == "" || r.Period == "" {
		return ErrInvalidArgument
	}
	if r.Rating.LessThan(minRating) || r.Rating.GreaterThan(maxRating) {
		return ErrInvalidArgument
	}
	return nil
}

func NormalizeExpense(e *Expense) error {
	e.EmployeeID = strings.TrimSpace(e.EmployeeID)
	e.Category = strings.ToLower(strings.TrimSpace(e.Category))
	e.Description = strings.TrimSpace(e.Description)
	if e.Currency = strings.ToUpper(strings.TrimSpace(e.Currency)); e.Currency == "" {
		e.Currency = "AED"
	}
	if e.EmployeeID == "" || e.Category == "" || e.IncurredOn.IsZero() {
		return ErrInvalidArgument
	}
	if !e.Amount.IsPositive() || len(e.Currency) != 3 {
		return ErrInvalidArgument
	}
	return nil
}
