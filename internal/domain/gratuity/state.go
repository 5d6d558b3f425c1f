package gratuity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NewRecord builds an accruing record whose amount is derived from the
// supplied inputs.
func NewRecord(employeeID string, yearsOfService, basicSalary decimal.Decimal, at time.Time) (BenefitRecord, error) {
	rec := BenefitRecord{EmployeeID: strings.TrimSpace(employeeID), Status: StatusAccruing}
	if rec.EmployeeID == "" {
		return BenefitRecord{}, ErrInvalidArgument
	}
	if err := rec.apply(yearsOfService, basicSalary, at); err != nil {
		return BenefitRecord{}, err
	}
	return rec, nil
}

// Recalculate replaces the inputs and recomputes the amount. A paid-out
// record is frozen.
func (r *BenefitRecord) Recalculate(yearsOfService, basicSalary decimal.Decimal, at time.Time) error {
	if r.Status != StatusAccruing {
		return ErrInvalidTransition
	}
	return r.apply(yearsOfService, basicSalary, at)
}

func (r *BenefitRecord) apply(yearsOfService, basicSalary decimal.Decimal, at time.Time) error {
	if err := ValidateInputs(yearsOfService, basicSalary); err != nil {
		return err
	}
	r.YearsOfService = yearsOfService
	r.BasicSalary = basicSalary
	r.GratuityAmount = CalculateGratuity(yearsOfService, basicSalary)
	r.CalculatedAt = at.UTC()
	return nil
}

// Payout is the only status mutator: accruing -> paid_out.
func (r *BenefitRecord) Payout(reference string, at time.Time) error {
	if r.Status != StatusAccruing {
		return ErrInvalidTransition
	}
	paid := at.UTC()
	r.Status = StatusPaidOut
	r.PaidOutAt = &paid
	r.PayoutReference = strings.TrimSpace(reference)
	return nil
}
