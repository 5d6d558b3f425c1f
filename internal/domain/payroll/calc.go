package payroll

import "github.com/shopspring/decimal"

const (
	ElementTypeEarning   = "earning"
	ElementTypeDeduction = "deduction"
)

type InputLine struct {
	Type   string          `json:"type"`
	Label  string          `json:"label,omitempty"`
	Amount decimal.Decimal `json:"amount"`
}

// ComputePayroll adds earnings to the basic salary and subtracts deductions.
// Lines of any other type are ignored.
func ComputePayroll(basicSalary decimal.Decimal, inputs []InputLine) (gross, deductions, net decimal.Decimal) {
	gross = basicSalary
	deductions = decimal.Zero
	for _, input := range inputs {
		switch input.Type {
		case ElementTypeEarning:
			gross = gross.Add(input.Amount)
		case ElementTypeDeduction:
			deductions = deductions.Add(input.Amount)
		}
	}
	net = gross.Sub(deductions)
	return gross, deductions, net
}
