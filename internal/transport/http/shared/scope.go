package shared

import (
	"context"

	"hrms/internal/domain/auth"
)

// EmployeeResolver maps a signed-in user to their employee record.
type EmployeeResolver interface {
	EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error)
}

// SelfScope reports whether user may only see their own records and, if so,
// which employee id to filter by. A scoped caller without an employee record
// gets an empty id and must be shown nothing.
func SelfScope(ctx context.Context, resolver EmployeeResolver, user auth.UserContext) (string, bool) {
	if user.RoleName != auth.RoleEmployee {
		return "", false
	}
	if resolver == nil {
		return "", true
	}
	employeeID, err := resolver.EmployeeIDByUserID(ctx, user.TenantID, user.UserID)
	if err != nil {
		return "", true
	}
	return employeeID, true
}
