package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"hrms/internal/domain/auth"
	"hrms/internal/transport/http/api"
)

// ActiveUserChecker confirms a token's user still exists and is active.
type ActiveUserChecker interface {
	IsUserActive(ctx context.Context, tenantID, userID string) (bool, error)
}

// Auth attaches the bearer token's user to the context. Requests without a
// valid token pass through anonymous; RequireAuth rejects them later.
func Auth(secret string, users ActiveUserChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if users != nil {
				active, err := users.IsUserActive(r.Context(), claims.TenantID, claims.UserID)
				if err != nil {
					slog.Warn("active user check failed", "userId", claims.UserID, "err", err)
					api.Fail(w, http.StatusInternalServerError, "auth_error", "failed to verify session", GetRequestID(r.Context()))
					return
				}
				if !active {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, auth.UserContext{
				UserID:   claims.UserID,
				TenantID: claims.TenantID,
				RoleID:   claims.RoleID,
				RoleName: claims.RoleName,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

// WithUser returns ctx carrying user, as Auth would after a valid token.
func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
