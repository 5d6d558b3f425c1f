package gratuity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateGratuity(t *testing.T) {
	tests := []struct {
		name   string
		years  string
		salary string
		want   string
	}{
		{name: "below one year", years: "0.5", salary: "10000", want: "0"},
		{name: "just under one year", years: "0.9999", salary: "10000", want: "0"},
		{name: "first year", years: "1", salary: "10000", want: "5000"},
		{name: "fractional first tier", years: "2.5", salary: "8000", want: "10000"},
		{name: "tier edge", years: "5", salary: "10000", want: "25000"},
		{name: "second tier", years: "7", salary: "10000", want: "45000"},
		{name: "fractional second tier", years: "5.5", salary: "10000", want: "30000"},
		{name: "zero salary", years: "12", salary: "0", want: "0"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateGratuity(dec(tc.years), dec(tc.salary))
			assert.True(t, got.Equal(dec(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestCalculateGratuityContinuousAtTierEdge(t *testing.T) {
	for _, salary := range []string{"0", "1", "3333.33", "10000", "987654.321"} {
		s := dec(salary)
		assert.True(t, CalculateGratuity(dec("5"), s).Equal(CalculateGratuity(dec("5.0000"), s)), salary)

		just := CalculateGratuity(dec("5.0001"), s)
		edge := CalculateGratuity(dec("5"), s)
		assert.True(t, just.Sub(edge).LessThanOrEqual(s.Mul(dec("0.0001"))), salary)
	}
}

func TestValidateInputs(t *testing.T) {
	assert.NoError(t, ValidateInputs(dec("0"), dec("0")))
	assert.ErrorIs(t, ValidateInputs(dec("-1"), dec("100")), ErrInvalidArgument)
	assert.ErrorIs(t, ValidateInputs(dec("1"), dec("-0.01")), ErrInvalidArgument)
}

func TestYearsOfService(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, YearsOfService(start, start).IsZero())
	assert.True(t, YearsOfService(start, start.AddDate(0, 0, -3)).IsZero())

	// 2020-01-01 to 2025-01-01 is 1827 days.
	got := YearsOfService(start, time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC))
	assert.Equal(t, "5.0020", got.StringFixed(4))

	// Past the ~292 year range of time.Duration.
	long := YearsOfService(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2400, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "499.9890", long.StringFixed(4))

	half := YearsOfService(start, start.AddDate(0, 6, 0))
	assert.True(t, CalculateGratuity(half, dec("10000")).IsZero())
}

func TestBenefitRecordStateMachine(t *testing.T) {
	at := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	rec, err := NewRecord("emp-1", dec("3"), dec("6000"), at)
	require.NoError(t, err)
	assert.Equal(t, StatusAccruing, rec.Status)
	assert.True(t, rec.GratuityAmount.Equal(dec("9000")))

	require.NoError(t, rec.Recalculate(dec("6"), dec("6000"), at))
	assert.True(t, rec.GratuityAmount.Equal(dec("21000")))

	require.NoError(t, rec.Payout(" TRX-42 ", at))
	assert.Equal(t, StatusPaidOut, rec.Status)
	assert.Equal(t, "TRX-42", rec.PayoutReference)
	require.NotNil(t, rec.PaidOutAt)

	assert.ErrorIs(t, rec.Payout("again", at), ErrInvalidTransition)
	assert.ErrorIs(t, rec.Recalculate(dec("7"), dec("6000"), at), ErrInvalidTransition)
	assert.True(t, rec.GratuityAmount.Equal(dec("21000")))
}

func TestNewRecordRejectsBadInputs(t *testing.T) {
	_, err := NewRecord("", dec("1"), dec("1"), time.Now())
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewRecord("emp-1", dec("-1"), dec("1"), time.Now())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
