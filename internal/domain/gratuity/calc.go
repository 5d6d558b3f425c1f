package gratuity

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	half        = decimal.New(5, -1)
	oneYear     = decimal.NewFromInt(1)
	tierEdge    = decimal.NewFromInt(5)
	daysPerYear = decimal.RequireFromString("365.25")
)

const secondsPerDay = 24 * 60 * 60

// ValidateInputs rejects negative tenure or salary. CalculateGratuity itself
// is total and does not check.
func ValidateInputs(yearsOfService, basicSalary decimal.Decimal) error {
	if yearsOfService.IsNegative() || basicSalary.IsNegative() {
		return ErrInvalidArgument
	}
	return nil
}

// CalculateGratuity applies the tiered end-of-service formula:
//
//	years < 1        0
//	1 <= years <= 5  salary/2 * years
//	years > 5        salary/2 * 5 + salary * (years - 5)
//
// The result is exact; rounding is left to presentation.
func CalculateGratuity(yearsOfService, basicSalary decimal.Decimal) decimal.Decimal {
	if yearsOfService.LessThan(oneYear) {
		return decimal.Zero
	}
	halfSalary := basicSalary.Mul(half)
	if yearsOfService.LessThanOrEqual(tierEdge) {
		return halfSalary.Mul(yearsOfService)
	}
	firstTier := halfSalary.Mul(tierEdge)
	return firstTier.Add(basicSalary.Mul(yearsOfService.Sub(tierEdge)))
}

// YearsOfService converts the calendar days between start and asOf into
// years of 365.25 days, truncated to four decimal places.
func YearsOfService(start, asOf time.Time) decimal.Decimal {
	s := calendarDate(start)
	e := calendarDate(asOf)
	if !e.After(s) {
		return decimal.Zero
	}
	days := (e.Unix() - s.Unix()) / secondsPerDay
	return decimal.NewFromInt(days).Div(daysPerYear).Truncate(4)
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
