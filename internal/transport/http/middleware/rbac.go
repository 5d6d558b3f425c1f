package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"hrms/internal/transport/http/api"
)

// PermissionStore answers whether a role carries a permission.
type PermissionStore interface {
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}

// RequirePermission rejects callers whose role lacks permission. A token
// without a role never reaches the store.
func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
				return
			}
			if user.RoleID == "" {
				denyPermission(w, permission, requestID)
				return
			}

			allowed, err := store.HasPermission(r.Context(), user.RoleID, permission)
			if err != nil {
				slog.Warn("permission check failed", "permission", permission, "roleId", user.RoleID, "err", err)
				api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", requestID)
				return
			}
			if !allowed {
				denyPermission(w, permission, requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func denyPermission(w http.ResponseWriter, permission, requestID string) {
	api.FailWithDetails(w, http.StatusForbidden, "forbidden", "insufficient permissions", map[string]string{"permission": permission}, requestID)
}
