package core

import (
	"github.com/shopspring/decimal"

	"hrms/internal/domain/auth"
)

// FilterEmployeeFields blanks sensitive fields the viewer may not read. HR
// and system administrators see everything; employees see their own pay
// details; nobody else sees identity or pay data.
func FilterEmployeeFields(emp *Employee, viewer auth.UserContext, isSelf bool) {
	switch {
	case viewer.RoleName == auth.RoleHR, viewer.RoleName == auth.RoleSystemAdmin:
		return
	case isSelf:
		emp.NationalID = ""
	default:
		emp.NationalID = ""
		emp.BankAccount = ""
		emp.BasicSalary = decimal.NullDecimal{}
	}
}
