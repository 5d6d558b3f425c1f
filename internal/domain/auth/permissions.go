package auth

const (
	RoleEmployee    = "Employee"
	RoleManager     = "Manager"
	RoleHR          = "HR"
	RoleSystemAdmin = "SystemAdmin"
)

const (
	PermEmployeesRead  = "core.employees.read"
	PermEmployeesWrite = "core.employees.write"
	PermOrgRead        = "core.org.read"
	PermOrgWrite       = "core.org.write"
	PermBenefitsRead   = "benefits.read"
	PermBenefitsWrite  = "benefits.write"
	PermBenefitsPayout = "benefits.payout"
	PermLeaveRead      = "leave.read"
	PermLeaveWrite     = "leave.write"
	PermLeaveApprove   = "leave.approve"
	PermSettingsWrite  = "settings.write"
	PermPayrollRead    = "payroll.read"
	PermPayrollWrite   = "payroll.write"
	PermRecordsRead    = "records.read"
	PermRecordsWrite   = "records.write"
	PermReportsRead    = "reports.read"
	PermAuditRead      = "audit.read"
	PermSystemAdmin    = "admin.system"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermOrgRead,
	PermOrgWrite,
	PermBenefitsRead,
	PermBenefitsWrite,
	PermBenefitsPayout,
	PermLeaveRead,
	PermLeaveWrite,
	PermLeaveApprove,
	PermSettingsWrite,
	PermPayrollRead,
	PermPayrollWrite,
	PermRecordsRead,
	PermRecordsWrite,
	PermReportsRead,
	PermAuditRead,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermEmployeesRead,
		PermOrgRead,
		PermBenefitsRead,
		PermLeaveRead,
		PermLeaveWrite,
		PermPayrollRead,
	},
	RoleManager: {
		PermEmployeesRead,
		PermOrgRead,
		PermBenefitsRead,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermPayrollRead,
		PermRecordsRead,
		PermReportsRead,
	},
	RoleHR: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermOrgRead,
		PermOrgWrite,
		PermBenefitsRead,
		PermBenefitsWrite,
		PermBenefitsPayout,
		PermLeaveRead,
		PermLeaveWrite,
		PermLeaveApprove,
		PermSettingsWrite,
		PermPayrollRead,
		PermPayrollWrite,
		PermRecordsRead,
		PermRecordsWrite,
		PermReportsRead,
		PermAuditRead,
	},
	RoleSystemAdmin: {
		PermSystemAdmin,
		PermAuditRead,
	},
}

// Allows reports whether the static role table grants permission to role.
// The database copy of the table is authoritative at request time.
func Allows(role, permission string) bool {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true
		}
	}
	return false
}
