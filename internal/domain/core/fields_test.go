package core

import (
	"testing"

	"github.com/shopspring/decimal"

	"hrms/internal/domain/auth"
)

func sampleEmployee() *Employee {
	return &Employee{
		NationalID:  "784-1990-1234567-1",
		BankAccount: "AE070331234567890123456",
		BasicSalary: decimal.NewNullDecimal(decimal.NewFromInt(12000)),
	}
}

func TestFilterEmployeeFields(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		isSelf     bool
		wantID     bool
		wantBank   bool
		wantSalary bool
	}{
		{name: "hr sees all", role: auth.RoleHR, wantID: true, wantBank: true, wantSalary: true},
		{name: "admin sees all", role: auth.RoleSystemAdmin, wantID: true, wantBank: true, wantSalary: true},
		{name: "self sees pay", role: auth.RoleEmployee, isSelf: true, wantBank: true, wantSalary: true},
		{name: "manager redacted", role: auth.RoleManager},
		{name: "peer redacted", role: auth.RoleEmployee},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			emp := sampleEmployee()
			FilterEmployeeFields(emp, auth.UserContext{RoleName: tc.role}, tc.isSelf)
			if (emp.NationalID != "") != tc.wantID {
				t.Fatalf("national id visibility: got %q", emp.NationalID)
			}
			if (emp.BankAccount != "") != tc.wantBank {
				t.Fatalf("bank account visibility: got %q", emp.BankAccount)
			}
			if emp.BasicSalary.Valid != tc.wantSalary {
				t.Fatalf("salary visibility: got %v", emp.BasicSalary)
			}
		})
	}
}
