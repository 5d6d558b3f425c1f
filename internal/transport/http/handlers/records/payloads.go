package recordshandler

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hrms/internal/domain/records"
	"hrms/internal/transport/http/shared"
)

type assetPayload struct {
	Name         string              `json:"name"`
	Category     string              `json:"category"`
	SerialNumber string              `json:"serialNumber"`
	AssignedTo   string              `json:"assignedTo"`
	Status       string              `json:"status"`
	Value        decimal.NullDecimal `json:"value"`
	PurchasedOn  string              `json:"purchasedOn"`
}

func decodeAsset(r *http.Request, v *shared.Validator) (records.Asset, error) {
	var p assetPayload
	if err := shared.DecodeJSON(r, &p); err != nil {
		return records.Asset{}, err
	}
	status := strings.ToLower(strings.TrimSpace(p.Status))
	v.Required("name", p.Name, "is required")
	v.Enum("status", status, []string{records.AssetAvailable, records.AssetAssigned, records.AssetMaintenance, records.AssetRetired}, "must be available, assigned, maintenance or retired")
	v.NonNegative("value", p.Value)
	if status == records.AssetAssigned && strings.TrimSpace(p.AssignedTo) == "" {
		v.Add("assignedTo", "is required when status is assigned")
	}
	return records.Asset{
		Name:         p.Name,
		Category:     p.Category,
		SerialNumber: p.SerialNumber,
		AssignedTo:   p.AssignedTo,
		Status:       status,
		Value:        p.Value.Decimal,
		PurchasedOn:  v.OptionalDate("purchasedOn", p.PurchasedOn),
	}, nil
}

type auditPayload struct {
	Title     string              `json:"title"`
	Area      string              `json:"area"`
	AuditDate string              `json:"auditDate"`
	Score     decimal.NullDecimal `json:"score"`
	Status    string              `json:"status"`
	Findings  string              `json:"findings"`
}

var hundred = decimal.NewFromInt(100)

func decodeAudit(r *http.Request, v *shared.Validator) (records.ComplianceAudit, error) {
	var p auditPayload
	if err := shared.DecodeJSON(r, &p); err != nil {
		return records.ComplianceAudit{}, err
	}
	status := strings.ToLower(strings.TrimSpace(p.Status))
	v.Required("title", p.Title, "is required")
	v.Enum("status", status, []string{records.AuditScheduled, records.AuditCompleted, records.AuditFailed}, "must be scheduled, completed or failed")
	if p.Score.Valid && (p.Score.Decimal.IsNegative() || p.Score.Decimal.GreaterThan(hundred)) {
		v.Add("score", "must be between 0 and 100")
	}
	return records.ComplianceAudit{
		Title:     p.Title,
		Area:      p.Area,
		AuditDate: requiredDate(v, "auditDate", p.AuditDate),
		Score:     p.Score.Decimal,
		Status:    status,
		Findings:  p.Findings,
	}, nil
}

type reviewPayload struct {
	EmployeeID string              `json:"employeeId"`
	ReviewerID string              `json:"reviewerId"`
	Period     string              `json:"period"`
	Rating     decimal.NullDecimal `json:"rating"`
	Comments   string              `json:"comments"`
}

var (
	minRating = decimal.NewFromInt(1)
	maxRating = decimal.NewFromInt(5)
)

func decodeReview(r *http.Request, v *shared.Validator) (records.PerformanceReview, error) {
	var p reviewPayload
	if err := shared.DecodeJSON(r, &p); err != nil {
		return records.PerformanceReview{}, err
	}
	v.Required("employeeId", p.EmployeeID, "is required")
	v.Required("period", p.Period, "is required")
	switch {
	case !p.Rating.Valid:
		v.Add("rating", "is required")
	case p.Rating.Decimal.LessThan(minRating) || p.Rating.Decimal.GreaterThan(maxRating):
		v.Add("rating", "must be between 1 and 5")
	}
	return records.PerformanceReview{
		EmployeeID: strings.TrimSpace(p.EmployeeID),
		ReviewerID: strings.TrimSpace(p.ReviewerID),
		Period:     strings.TrimSpace(p.Period),
		Rating:     p.Rating.Decimal,
		Comments:   strings.TrimSpace(p.Comments),
	}, nil
}

type expensePayload struct {
	EmployeeID  string              `json:"employeeId"`
	Category    string              `json:"category"`
	Amount      decimal.NullDecimal `json:"amount"`
	Currency    string              `json:"currency"`
	IncurredOn  string              `json:"incurredOn"`
	Description string              `json:"description"`
}

func decodeExpense(r *http.Request, v *shared.Validator) (records.Expense, error) {
	var p expensePayload
	if err := shared.DecodeJSON(r, &p); err != nil {
		return records.Expense{}, err
	}
	v.Required("employeeId", p.EmployeeID, "is required")
	v.Required("category", p.Category, "is required")
	v.Amount("amount", p.Amount)
	return records.Expense{
		EmployeeID:  strings.TrimSpace(p.EmployeeID),
		Category:    p.Category,
		Amount:      p.Amount.Decimal,
		Currency:    p.Currency,
		IncurredOn:  requiredDate(v, "incurredOn", p.IncurredOn),
		Description: p.Description,
	}, nil
}

func requiredDate(v *shared.Validator, field, raw string) time.Time {
	if strings.TrimSpace(raw) == "" {
		v.Add(field, "is required")
		return time.Time{}
	}
	parsed, _ := v.Date(field, raw)
	return parsed
}
