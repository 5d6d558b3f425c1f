package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"hrms/internal/platform/logging"
)

const maxRequestIDLength = 128

// RequestID reuses a sane inbound X-Request-ID or mints one, and attaches a
// request scoped logger carrying it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if reqID == "" || len(reqID) > maxRequestIDLength {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		ctx = logging.ContextWithLogger(ctx, logging.FromContext(ctx).With("requestId", reqID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
