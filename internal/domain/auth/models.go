package auth

// UserContext is the authenticated caller attached to a request.
type UserContext struct {
	UserID   string
	TenantID string
	RoleID   string
	RoleName string
}

type AuthUser struct {
	ID       string
	TenantID string
	RoleID   string
	RoleName string
	Password string
}
